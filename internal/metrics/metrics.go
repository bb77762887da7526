// Package metrics defines the recorder contract used by the state engine
// and two implementations: a Prometheus registry for deployments that scrape
// and an expvar recorder for process-local inspection.
package metrics

import (
	"context"
	"time"
)

// Recorder receives operation outcomes and state-engine counters. All
// implementations must be safe for concurrent use.
type Recorder interface {
	// Observe records one completed operation (load, save, merge, undo, ...).
	Observe(ctx context.Context, operation string, success bool, duration time.Duration)
	// AddMigrationSteps counts migration steps that actually ran during a load.
	AddMigrationSteps(n int)
	// IncBackups counts pre-migration backup files written.
	IncBackups()
	// IncSnapshots counts history snapshots taken.
	IncSnapshots()
}

// Nop is a Recorder that discards everything. Useful default for tests and
// callers that do not wire metrics.
type Nop struct{}

// Observe implements Recorder.
func (Nop) Observe(context.Context, string, bool, time.Duration) {}

// AddMigrationSteps implements Recorder.
func (Nop) AddMigrationSteps(int) {}

// IncBackups implements Recorder.
func (Nop) IncBackups() {}

// IncSnapshots implements Recorder.
func (Nop) IncSnapshots() {}
