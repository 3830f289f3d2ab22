package engine

import (
	"github.com/mhutchins/flowspace/internal/statepoint"
)

// OpStatus aggregates one operation's state across all selected jobs.
type OpStatus struct {
	Operation string
	Pending   int
	Eligible  int
	Complete  int
}

// Total returns the number of jobs counted for this operation.
func (o OpStatus) Total() int {
	return o.Pending + o.Eligible + o.Complete
}

// Incomplete reports whether any job still has this operation pending or
// eligible.
func (o OpStatus) Incomplete() bool {
	return o.Pending+o.Eligible > 0
}

// PairState is the state of one operation for one job.
type PairState struct {
	Operation string
	State     State
}

// JobDetail lists every operation's state for one job, in registration
// order.
type JobDetail struct {
	JobID statepoint.ID
	Ops   []PairState
}

// StatusReport is the full result of a status query: per-operation
// aggregates plus per-job detail. Producing it is a pure read; nothing is
// executed and action errors can never fail it.
type StatusReport struct {
	Project string
	NumJobs int
	Ops     []OpStatus
	Jobs    []JobDetail
}

// Status derives the current state of every selected (job, operation)
// pair. The report order is deterministic: jobs by identity, operations in
// registration order.
func (e *Engine) Status(sel Selection) (*StatusReport, error) {
	ops, err := e.operations(sel)
	if err != nil {
		return nil, err
	}
	jobs, err := e.jobs(sel)
	if err != nil {
		return nil, err
	}

	report := &StatusReport{
		Project: e.space.Name(),
		NumJobs: len(jobs),
	}
	agg := make(map[string]*OpStatus, len(ops))
	for _, op := range ops {
		report.Ops = append(report.Ops, OpStatus{Operation: op.Name})
		agg[op.Name] = &report.Ops[len(report.Ops)-1]
	}

	for _, j := range jobs {
		docs, err := e.docs(j)
		if err != nil {
			return nil, err
		}
		detail := JobDetail{JobID: j.ID()}
		for _, op := range ops {
			state := e.reg.State(op, j, docs)
			detail.Ops = append(detail.Ops, PairState{Operation: op.Name, State: state})
			switch state {
			case Pending:
				agg[op.Name].Pending++
			case Eligible:
				agg[op.Name].Eligible++
			case Complete:
				agg[op.Name].Complete++
			}
		}
		report.Jobs = append(report.Jobs, detail)
	}
	return report, nil
}
