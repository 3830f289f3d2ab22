// Package engine implements the workflow engine: named operations guarded
// by pre- and post-conditions, scheduled across all jobs of a data space.
//
// The engine caches nothing between queries. Every eligibility decision
// re-reads the job and project documents and the filesystem, so one
// operation's committed side effects are visible to the next decision
// without extra synchronization.
package engine

import (
	"github.com/mhutchins/flowspace/internal/document"
	"github.com/mhutchins/flowspace/internal/job"
)

// Docs is the document snapshot a condition is evaluated against. The
// engine re-reads both documents for every evaluation sweep; conditions
// themselves never perform document IO.
type Docs struct {
	// Job is the job's document at evaluation time.
	Job document.Document
	// Project is the project-level document at evaluation time.
	Project document.Document
}

// Condition is a named, pure predicate over a job and a document snapshot.
// Conditions never error: a predicate referencing a missing document key or
// a missing workspace file evaluates to false. That policy is what lets
// post-conditions naturally signal "not yet produced".
type Condition struct {
	Name string
	Test func(j *job.Job, docs Docs) bool
}

// DocTruthy returns a condition that holds when the job document has a
// truthy value at the given dotted key.
func DocTruthy(key string) Condition {
	return Condition{
		Name: "doc:" + key,
		Test: func(j *job.Job, docs Docs) bool {
			return docs.Job.Truthy(key)
		},
	}
}

// ProjectDocTruthy returns a condition that holds when the project
// document has a truthy value at the given dotted key. This is how
// cross-job aggregate dependencies are declared explicitly: the
// aggregating operation writes the key, and downstream operations gate on
// it instead of relying on undeclared ordering.
func ProjectDocTruthy(key string) Condition {
	return Condition{
		Name: "project-doc:" + key,
		Test: func(j *job.Job, docs Docs) bool {
			return docs.Project.Truthy(key)
		},
	}
}

// FileExists returns a condition that holds when the named file exists in
// the job's workspace directory.
func FileExists(name string) Condition {
	return Condition{
		Name: "file:" + name,
		Test: func(j *job.Job, docs Docs) bool {
			return j.HasFile(name)
		},
	}
}

// Func wraps an arbitrary pure predicate as a named condition.
func Func(name string, fn func(j *job.Job, docs Docs) bool) Condition {
	return Condition{Name: name, Test: fn}
}

func allHold(conds []Condition, j *job.Job, docs Docs) bool {
	for _, c := range conds {
		if !c.Test(j, docs) {
			return false
		}
	}
	return true
}
