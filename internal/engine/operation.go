package engine

import (
	"context"

	"github.com/mhutchins/flowspace/internal/job"
)

// Action is the executable body of an operation. Side effects (document
// writes, workspace files) are entirely the action's responsibility; the
// engine observes them only through subsequent condition evaluation and
// performs no implicit commit or rollback.
type Action func(ctx context.Context, j *job.Job) error

// Operation is one named unit of the workflow.
type Operation struct {
	// Name is unique within a registry.
	Name string

	// Action runs the operation for one job.
	Action Action

	// Pre are the readiness predicates: all must hold for eligibility.
	Pre []Condition

	// Post are the completion predicates: all holding means the operation
	// is already complete for a job and is excluded from scheduling. An
	// operation with no post-conditions is never considered complete and
	// stays re-eligible whenever its pre-conditions hold; that is
	// intentional and supports repeatable operations.
	Post []Condition

	// After names operations that must be complete for the same job
	// first. Each entry is an implicit pre-condition equivalent to "that
	// operation's post-conditions all hold".
	After []string

	// Directive describes how to invoke this operation out of process,
	// for hand-off to a submission backend. Empty means the generic
	// self-invocation ("fsp run -o NAME -j ID") is used.
	Directive string
}

// State is the scheduling state of one (job, operation) pair. It is
// derived fresh from stored state on every query, never cached.
type State int

const (
	// Pending: pre-conditions unmet, post-conditions unmet.
	Pending State = iota
	// Eligible: pre-conditions met, post-conditions unmet.
	Eligible
	// Complete: post-conditions met, regardless of pre-conditions.
	Complete
)

// String returns the lowercase state name used in status output.
func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Eligible:
		return "eligible"
	case Complete:
		return "complete"
	default:
		return "unknown"
	}
}
