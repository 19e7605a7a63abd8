// Package history records every build run in a SQLite database kept in the
// build directory, so past revisions, durations and failures can be listed.
package history

import (
	"context"
	"time"
)

// Stage is the recorded outcome of one pipeline stage.
type Stage struct {
	Name     string
	Result   string
	Duration time.Duration
	Error    string
}

// Run is one recorded pipeline execution.
type Run struct {
	ID        string
	StartedAt time.Time
	Duration  time.Duration
	Revision  string
	Toolset   string
	// Commits maps dependency name to its resolved commit hash.
	Commits  map[string]string
	Archive  string
	ExitCode int
	Error    string
	Stages   []Stage
}

// Succeeded reports whether the run finished without error.
func (r Run) Succeeded() bool { return r.ExitCode == 0 && r.Error == "" }

// Store persists build runs.
type Store interface {
	// Record stores a finished run together with its stages.
	Record(ctx context.Context, run Run) error

	// Recent returns up to limit runs, newest first.
	Recent(ctx context.Context, limit int) ([]Run, error)

	// Get returns the run with the given ID including its stages.
	Get(ctx context.Context, id string) (Run, error)

	// Close closes the store and releases resources.
	Close() error
}
