// Package runlog provides the persistent activity log for workflow
// execution. Every run and submit records what happened per (job,
// operation) pair, so action failures can be investigated after the batch
// finishes.
package runlog

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// EventType classifies a logged workflow event.
type EventType string

const (
	// EventRunStarted marks the beginning of a run invocation.
	EventRunStarted EventType = "run_started"
	// EventExecuted marks one successfully executed (job, operation) pair.
	EventExecuted EventType = "executed"
	// EventFailed marks an action that raised; the pair stays eligible.
	EventFailed EventType = "failed"
	// EventRunComplete marks the end of a run invocation.
	EventRunComplete EventType = "run_complete"
	// EventSubmitted marks a batch handed to the submission backend.
	EventSubmitted EventType = "submitted"
)

// Event is one line of the activity log.
type Event struct {
	Timestamp time.Time
	Type      EventType
	JobID     string
	Operation string
	Context   string
}

// Logger appends workflow events to the project activity log.
type Logger struct {
	logPath string
	mu      sync.Mutex
}

// NewLogger creates a Logger writing under the given project root.
func NewLogger(projectRoot string) *Logger {
	return &Logger{
		logPath: filepath.Join(projectRoot, ".flowspace", "logs", "flow.log"),
	}
}

// Path returns the log file path.
func (l *Logger) Path() string {
	return l.logPath
}

// LogEvent appends a single event to the activity log.
func (l *Logger) LogEvent(event Event) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(l.logPath), 0755); err != nil {
		return fmt.Errorf("creating log directory: %w", err)
	}

	f, err := os.OpenFile(l.logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return fmt.Errorf("opening log file: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(formatLogLine(event) + "\n"); err != nil {
		return fmt.Errorf("writing log line: %w", err)
	}
	return nil
}

// Log is a convenience method that stamps and logs an event.
func (l *Logger) Log(eventType EventType, jobID, operation, context string) error {
	return l.LogEvent(Event{
		Timestamp: time.Now(),
		Type:      eventType,
		JobID:     jobID,
		Operation: operation,
		Context:   context,
	})
}

// formatLogLine formats an event as a human-readable log line.
// Format: 2026-08-23 15:30:45 [executed] compute_outputs on 1a2b3c...
func formatLogLine(e Event) string {
	ts := e.Timestamp.Format("2006-01-02 15:04:05")

	var detail string
	switch e.Type {
	case EventRunStarted:
		detail = "run started"
		if e.Context != "" {
			detail += fmt.Sprintf(" (%s)", e.Context)
		}
	case EventExecuted:
		detail = fmt.Sprintf("%s on %s", e.Operation, e.JobID)
	case EventFailed:
		detail = fmt.Sprintf("%s on %s: %s", e.Operation, e.JobID, e.Context)
	case EventRunComplete:
		detail = "run complete"
		if e.Context != "" {
			detail += fmt.Sprintf(" (%s)", e.Context)
		}
	case EventSubmitted:
		detail = fmt.Sprintf("batch %s", e.Context)
	default:
		detail = fmt.Sprintf("%s %s %s", e.JobID, e.Operation, e.Context)
	}

	return fmt.Sprintf("%s [%s] %s", ts, e.Type, detail)
}
