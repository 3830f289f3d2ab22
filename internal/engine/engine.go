package engine

import (
	"fmt"
	"log/slog"

	"github.com/mhutchins/flowspace/internal/job"
	"github.com/mhutchins/flowspace/internal/runlog"
	"github.com/mhutchins/flowspace/internal/space"
)

// Engine schedules a registry of operations over a data space.
type Engine struct {
	space *space.Space
	reg   *Registry
	log   *runlog.Logger
	slog  *slog.Logger
}

// New creates an engine for the given space and registry. The registry's
// cross-references are validated up front.
func New(s *space.Space, reg *Registry) (*Engine, error) {
	if err := reg.Validate(); err != nil {
		return nil, err
	}
	return &Engine{
		space: s,
		reg:   reg,
		log:   runlog.NewLogger(s.Root()),
		slog:  slog.Default(),
	}, nil
}

// Space returns the data space the engine schedules over.
func (e *Engine) Space() *space.Space {
	return e.space
}

// Registry returns the engine's operation registry.
func (e *Engine) Registry() *Registry {
	return e.reg
}

// Pair is one (job, operation) scheduling unit.
type Pair struct {
	Job *job.Job
	Op  *Operation
}

// Selection restricts which pairs a query considers. Zero value means all
// jobs and all operations.
type Selection struct {
	// Ops restricts to the named operations, in the given order.
	Ops []string
	// JobID restricts to one job (full identity or unique prefix).
	JobID string
}

// docs reads a fresh document snapshot for one job. Corrupt documents
// propagate as integrity errors.
func (e *Engine) docs(j *job.Job) (Docs, error) {
	jobDoc, err := j.Document()
	if err != nil {
		return Docs{}, err
	}
	projDoc, err := e.space.Doc().Read()
	if err != nil {
		return Docs{}, err
	}
	return Docs{Job: jobDoc, Project: projDoc}, nil
}

// operations resolves a selection's operation list, defaulting to all
// registered operations in registration order.
func (e *Engine) operations(sel Selection) ([]*Operation, error) {
	names := sel.Ops
	if len(names) == 0 {
		names = e.reg.Names()
	}
	ops := make([]*Operation, 0, len(names))
	for _, name := range names {
		op, err := e.reg.Get(name)
		if err != nil {
			return nil, err
		}
		ops = append(ops, op)
	}
	return ops, nil
}

// jobs resolves a selection's job list: all jobs sorted by identity, or
// the one selected job.
func (e *Engine) jobs(sel Selection) ([]*job.Job, error) {
	if sel.JobID != "" {
		j, err := e.space.JobByID(sel.JobID)
		if err != nil {
			return nil, err
		}
		return []*job.Job{j}, nil
	}
	return e.space.Jobs()
}

// State derives the current state of one (job, operation) pair from a
// fresh read of stored state.
func (e *Engine) State(j *job.Job, op *Operation) (State, error) {
	docs, err := e.docs(j)
	if err != nil {
		return Pending, err
	}
	return e.reg.State(op, j, docs), nil
}

// NextEligible enumerates the cross product of selected jobs and
// operations and returns the pairs currently in the Eligible state. The
// order is deterministic: jobs sorted by identity, then operations in
// registration order. Every call re-derives eligibility from current
// document and filesystem state.
func (e *Engine) NextEligible(sel Selection) ([]Pair, error) {
	ops, err := e.operations(sel)
	if err != nil {
		return nil, err
	}
	jobs, err := e.jobs(sel)
	if err != nil {
		return nil, err
	}

	var pairs []Pair
	for _, j := range jobs {
		docs, err := e.docs(j)
		if err != nil {
			return nil, fmt.Errorf("evaluating job %s: %w", j.ID(), err)
		}
		for _, op := range ops {
			if e.reg.Eligible(op, j, docs) {
				pairs = append(pairs, Pair{Job: j, Op: op})
			}
		}
	}
	return pairs, nil
}
