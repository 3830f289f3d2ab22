package engine

import (
	"errors"
	"fmt"

	"github.com/mhutchins/flowspace/internal/job"
)

// ErrUnknownOperation indicates a reference to an operation name that is
// not registered.
var ErrUnknownOperation = errors.New("unknown operation")

// Registry holds the workflow's operations in registration order. The
// order is what makes status and run output deterministic.
type Registry struct {
	order []string
	ops   map[string]*Operation
}

// NewRegistry creates an empty operation registry.
func NewRegistry() *Registry {
	return &Registry{ops: make(map[string]*Operation)}
}

// Register adds an operation. Names must be non-empty and unique.
func (r *Registry) Register(op Operation) error {
	if op.Name == "" {
		return errors.New("operation name must not be empty")
	}
	if _, exists := r.ops[op.Name]; exists {
		return fmt.Errorf("operation %q already registered", op.Name)
	}
	cp := op
	r.ops[op.Name] = &cp
	r.order = append(r.order, op.Name)
	return nil
}

// MustRegister is Register that panics on error, for static workflow
// definitions assembled at startup.
func (r *Registry) MustRegister(op Operation) {
	if err := r.Register(op); err != nil {
		panic(err)
	}
}

// Get returns the named operation.
func (r *Registry) Get(name string) (*Operation, error) {
	op, ok := r.ops[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownOperation, name)
	}
	return op, nil
}

// Names returns all operation names in registration order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Len returns the number of registered operations.
func (r *Registry) Len() int {
	return len(r.order)
}

// Validate checks cross-references: every After entry must name a
// registered operation.
func (r *Registry) Validate() error {
	for _, name := range r.order {
		for _, dep := range r.ops[name].After {
			if _, ok := r.ops[dep]; !ok {
				return fmt.Errorf("operation %q: after %q: %w", name, dep, ErrUnknownOperation)
			}
		}
	}
	return nil
}

// Complete reports whether op is complete for the job: all post-conditions
// hold. An empty post-condition list never counts as complete.
func (r *Registry) Complete(op *Operation, j *job.Job, docs Docs) bool {
	if len(op.Post) == 0 {
		return false
	}
	return allHold(op.Post, j, docs)
}

// Eligible reports whether op is eligible for the job: every pre-condition
// holds (including completion of every After dependency) and the operation
// is not already complete.
func (r *Registry) Eligible(op *Operation, j *job.Job, docs Docs) bool {
	if r.Complete(op, j, docs) {
		return false
	}
	for _, dep := range op.After {
		depOp, ok := r.ops[dep]
		if !ok || !r.Complete(depOp, j, docs) {
			return false
		}
	}
	return allHold(op.Pre, j, docs)
}

// State derives the scheduling state of the (job, op) pair.
func (r *Registry) State(op *Operation, j *job.Job, docs Docs) State {
	if r.Complete(op, j, docs) {
		return Complete
	}
	if r.Eligible(op, j, docs) {
		return Eligible
	}
	return Pending
}
