package engine

import (
	"context"
	"fmt"

	"github.com/mhutchins/flowspace/internal/runlog"
)

// WorkUnit describes one eligible (job, operation) pair for hand-off to a
// submission collaborator: enough identity for the collaborator to invoke
// the work out of process. Completion is observed later purely through
// post-condition evaluation; the engine holds no "submitted" state.
type WorkUnit struct {
	JobID     string
	Operation string
	Dir       string
	Directive string
}

// SubmitBackend is the external submission collaborator. The engine's
// responsibility ends when Submit returns: it never blocks on remote
// completion and receives no callbacks.
type SubmitBackend interface {
	Submit(ctx context.Context, units []WorkUnit) (batchID string, err error)
}

// Submit hands every currently eligible selected pair to the backend.
// Returns the number of units handed off.
func (e *Engine) Submit(ctx context.Context, backend SubmitBackend, sel Selection) (int, error) {
	pairs, err := e.NextEligible(sel)
	if err != nil {
		return 0, err
	}
	if len(pairs) == 0 {
		return 0, nil
	}

	units := make([]WorkUnit, 0, len(pairs))
	for _, p := range pairs {
		directive := p.Op.Directive
		if directive == "" {
			directive = fmt.Sprintf("fsp run -o %s -j %s -n 1", p.Op.Name, p.Job.ID())
		}
		units = append(units, WorkUnit{
			JobID:     string(p.Job.ID()),
			Operation: p.Op.Name,
			Dir:       p.Job.Dir(),
			Directive: directive,
		})
	}

	batchID, err := backend.Submit(ctx, units)
	if err != nil {
		return 0, fmt.Errorf("submission hand-off: %w", err)
	}
	_ = e.log.Log(runlog.EventSubmitted, "", "", fmt.Sprintf("%s (%d units)", batchID, len(units)))
	e.slog.Info("batch submitted", "batch", batchID, "units", len(units))
	return len(units), nil
}
