// Package archive persists serialized project documents outside the working
// file, giving the application a queryable trail of saved states. Backends
// share one schema: an append-only table of JSON payloads keyed by record
// identifier and project identifier.
package archive

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Driver identifies a concrete archive backend implementation.
type Driver string

const (
	DriverMemory   Driver = "memory"
	DriverSQLite   Driver = "sqlite"
	DriverPostgres Driver = "postgres"
)

// Record is one archived project document.
type Record struct {
	ID        string    `json:"id"`
	ProjectID string    `json:"project_uuid"`
	TakenAt   time.Time `json:"taken_at"`
	Payload   []byte    `json:"payload"`
}

// ErrNotFound is returned by Get when no record carries the identifier.
var ErrNotFound = errors.New("archive: record not found")

// Store is the interface archive backends implement.
type Store interface {
	// Put appends a record. Record identifiers are unique per store.
	Put(ctx context.Context, rec Record) error
	// Get returns the record with the given identifier.
	Get(ctx context.Context, id string) (Record, error)
	// List returns every record for a project, newest first.
	List(ctx context.Context, projectID string) ([]Record, error)
	// Prune deletes all but the newest keep records for a project and
	// reports how many were removed.
	Prune(ctx context.Context, projectID string, keep int) (int, error)
	// Close releases backend resources.
	Close() error
}

// Options selects and configures an archive backend.
type Options struct {
	Driver Driver
	Path   string // sqlite database file
	DSN    string // postgres connection string
}

// Open constructs a Store from Options. An empty driver defaults to the
// in-memory backend.
func Open(opts Options) (Store, error) {
	driver := opts.Driver
	if driver == "" {
		driver = DriverMemory
	}
	switch driver {
	case DriverMemory:
		return NewMemory(), nil
	case DriverSQLite:
		return NewSQLite(opts.Path)
	case DriverPostgres:
		return NewPostgres(opts.DSN)
	default:
		return nil, fmt.Errorf("unknown archive driver %s", driver)
	}
}
