package archive

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Memory implements Store in process memory. Intended for tests and as the
// hydration target shared by the database-backed stores.
type Memory struct {
	mu      sync.RWMutex
	records map[string]Record
}

// NewMemory returns an empty in-memory archive.
func NewMemory() *Memory {
	return &Memory{records: make(map[string]Record)}
}

// Put appends a record, rejecting duplicate identifiers.
func (m *Memory) Put(_ context.Context, rec Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.records[rec.ID]; exists {
		return fmt.Errorf("archive: record %s already exists", rec.ID)
	}
	rec.Payload = append([]byte(nil), rec.Payload...)
	m.records[rec.ID] = rec
	return nil
}

// Get returns the record with the given identifier.
func (m *Memory) Get(_ context.Context, id string) (Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.records[id]
	if !ok {
		return Record{}, ErrNotFound
	}
	rec.Payload = append([]byte(nil), rec.Payload...)
	return rec, nil
}

// List returns every record for a project, newest first.
func (m *Memory) List(_ context.Context, projectID string) ([]Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.listLocked(projectID), nil
}

func (m *Memory) listLocked(projectID string) []Record {
	var out []Record
	for _, rec := range m.records {
		if rec.ProjectID != projectID {
			continue
		}
		rec.Payload = append([]byte(nil), rec.Payload...)
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].TakenAt.Equal(out[j].TakenAt) {
			return out[i].TakenAt.After(out[j].TakenAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Prune deletes all but the newest keep records for a project.
func (m *Memory) Prune(_ context.Context, projectID string, keep int) (int, error) {
	if keep < 0 {
		keep = 0
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	recs := m.listLocked(projectID)
	if len(recs) <= keep {
		return 0, nil
	}
	doomed := recs[keep:]
	for _, rec := range doomed {
		delete(m.records, rec.ID)
	}
	return len(doomed), nil
}

// Close implements Store.
func (m *Memory) Close() error { return nil }
