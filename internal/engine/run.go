package engine

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/mhutchins/flowspace/internal/runlog"
	"github.com/mhutchins/flowspace/internal/statepoint"
)

// RunOptions controls one run invocation.
type RunOptions struct {
	// Selection restricts which pairs are considered.
	Selection Selection

	// MaxCount stops the run deterministically after this many executions
	// (0 = unlimited). A later invocation resumes; no operation executes
	// twice unless it genuinely remains eligible.
	MaxCount int

	// Parallel is the worker bound for concurrent action execution
	// (values < 1 mean serial). Two operations never run concurrently on
	// the same job; operations on different jobs are fully independent.
	Parallel int

	// Progress, when set, is called after each attempted execution with
	// the cumulative executed and failed counts.
	Progress func(p Pair, err error, executed, failed int)
}

// Failure records one action that raised during a run. The pair stays
// eligible and is retried on the next invocation.
type Failure struct {
	JobID     statepoint.ID
	Operation string
	Err       error
}

// RunSummary reports what one run invocation did.
type RunSummary struct {
	// Executed counts actions that ran to completion without error.
	Executed int
	// Failures lists actions that raised. Failures never abort the batch;
	// sibling pairs keep running.
	Failures []Failure
}

// pairKey identifies a (job, operation) pair within one run invocation.
type pairKey struct {
	job statepoint.ID
	op  string
}

// Run repeatedly pulls eligible pairs and executes them until no work
// remains, MaxCount is reached, or ctx is canceled. Eligibility is
// re-derived after every round, so one operation's committed output can
// satisfy another's pre-condition within the same run. A pair is attempted
// at most once per invocation: completed pairs are excluded by their
// post-conditions, and failed pairs wait for the next invocation.
//
// Cancellation stops dispatching new work but lets in-flight actions
// finish; the atomic document commit keeps stored state consistent.
func (e *Engine) Run(ctx context.Context, opts RunOptions) (*RunSummary, error) {
	parallel := opts.Parallel
	if parallel < 1 {
		parallel = 1
	}

	summary := &RunSummary{}
	attempted := make(map[pairKey]bool)

	_ = e.log.Log(runlog.EventRunStarted, "", "", fmt.Sprintf("%d operations registered", e.reg.Len()))

	for {
		if ctx.Err() != nil {
			_ = e.log.Log(runlog.EventRunComplete, "", "", "canceled")
			return summary, ctx.Err()
		}

		pairs, err := e.NextEligible(opts.Selection)
		if err != nil {
			return summary, err
		}

		round := e.pickRound(pairs, attempted, opts.MaxCount, summary)
		if len(round) == 0 {
			break
		}

		e.runRound(ctx, round, parallel, summary, attempted, opts.Progress)
	}

	_ = e.log.Log(runlog.EventRunComplete, "", "",
		fmt.Sprintf("%d executed, %d failed", summary.Executed, len(summary.Failures)))
	return summary, nil
}

// pickRound selects the next batch: eligible pairs not yet attempted this
// invocation, at most one operation per job so document mutation stays
// serialized per job, capped by the remaining MaxCount budget.
func (e *Engine) pickRound(pairs []Pair, attempted map[pairKey]bool, maxCount int, summary *RunSummary) []Pair {
	var round []Pair
	jobsInRound := make(map[statepoint.ID]bool)
	for _, p := range pairs {
		if maxCount > 0 && summary.Executed+len(summary.Failures)+len(round) >= maxCount {
			break
		}
		key := pairKey{job: p.Job.ID(), op: p.Op.Name}
		if attempted[key] || jobsInRound[p.Job.ID()] {
			continue
		}
		round = append(round, p)
		jobsInRound[p.Job.ID()] = true
	}
	return round
}

// runRound executes one batch with a bounded worker pool.
func (e *Engine) runRound(ctx context.Context, round []Pair, parallel int, summary *RunSummary, attempted map[pairKey]bool, progress func(Pair, error, int, int)) {
	for _, p := range round {
		attempted[pairKey{job: p.Job.ID(), op: p.Op.Name}] = true
	}

	var mu sync.Mutex
	g := &errgroup.Group{}
	g.SetLimit(parallel)

	for _, p := range round {
		p := p
		g.Go(func() error {
			// Cancellation stops new work; actions already started finish.
			if ctx.Err() != nil {
				return nil
			}
			err := p.Op.Action(ctx, p.Job)

			mu.Lock()
			if err != nil {
				summary.Failures = append(summary.Failures, Failure{
					JobID:     p.Job.ID(),
					Operation: p.Op.Name,
					Err:       err,
				})
				_ = e.log.Log(runlog.EventFailed, string(p.Job.ID()), p.Op.Name, err.Error())
				e.slog.Warn("action failed", "operation", p.Op.Name, "job", p.Job.ID(), "error", err)
			} else {
				summary.Executed++
				_ = e.log.Log(runlog.EventExecuted, string(p.Job.ID()), p.Op.Name, "")
			}
			executed, failed := summary.Executed, len(summary.Failures)
			mu.Unlock()

			if progress != nil {
				progress(p, err, executed, failed)
			}
			return nil
		})
	}
	_ = g.Wait()
}
