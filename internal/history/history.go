// Package history implements the whole-project snapshot sequence backing
// undo and redo. A history is a linear, growable list of serialized project
// documents plus a current index; taking a snapshot after an undo truncates
// the redo tail, which is what keeps the history linear. Callers
// re-materialize the project from a returned document through the same
// decode path used for file loads; object identity never survives undo or
// redo, only content and identifiers do.
package history

import "errors"

// ErrNoUndo is returned when the history has nothing before the current
// snapshot.
var ErrNoUndo = errors.New("history: nothing to undo")

// ErrNoRedo is returned when the history has nothing after the current
// snapshot.
var ErrNoRedo = errors.New("history: nothing to redo")

// History holds an ordered sequence of serialized project snapshots.
// Mutation happens on the single control thread; there is no locking.
type History struct {
	snapshots [][]byte
	index     int // current snapshot, -1 when empty
	saved     int // index at the most recent successful save, -1 when never saved
	limit     int // maximum retained snapshots, 0 for unlimited
}

// New constructs an empty history. A positive limit caps the number of
// retained snapshots; the oldest entries are dropped once it is exceeded.
func New(limit int) *History {
	return &History{index: -1, saved: -1, limit: limit}
}

// Len returns the number of retained snapshots.
func (h *History) Len() int { return len(h.snapshots) }

// Index returns the current snapshot index, -1 when the history is empty.
func (h *History) Index() int { return h.index }

// Snapshot records a new serialized project document: any entries beyond
// the current index are discarded, the document is appended, and the index
// advances to it.
func (h *History) Snapshot(document []byte) {
	h.snapshots = h.snapshots[:h.index+1]
	if h.saved > h.index {
		h.saved = -1 // the saved state was on the discarded redo tail
	}
	h.snapshots = append(h.snapshots, clone(document))
	h.index++
	if h.limit > 0 && len(h.snapshots) > h.limit {
		drop := len(h.snapshots) - h.limit
		h.snapshots = h.snapshots[drop:]
		h.index -= drop
		if h.saved >= 0 {
			h.saved -= drop
			if h.saved < 0 {
				h.saved = -1
			}
		}
	}
}

// CanUndo reports whether a snapshot exists before the current index.
func (h *History) CanUndo() bool { return h.index > 0 }

// CanRedo reports whether a snapshot exists after the current index.
func (h *History) CanRedo() bool { return h.index >= 0 && h.index < len(h.snapshots)-1 }

// Undo moves the index back one entry and returns the document at the new
// index.
func (h *History) Undo() ([]byte, error) {
	if !h.CanUndo() {
		return nil, ErrNoUndo
	}
	h.index--
	return clone(h.snapshots[h.index]), nil
}

// Redo moves the index forward one entry and returns the document at the
// new index.
func (h *History) Redo() ([]byte, error) {
	if !h.CanRedo() {
		return nil, ErrNoRedo
	}
	h.index++
	return clone(h.snapshots[h.index]), nil
}

// Current returns the document at the current index, nil when empty.
func (h *History) Current() []byte {
	if h.index < 0 {
		return nil
	}
	return clone(h.snapshots[h.index])
}

// MarkSaved records the current index as the most recent successful save.
func (h *History) MarkSaved() { h.saved = h.index }

// IsDirty reports whether the current index differs from the index that was
// current at the most recent successful save. The flag is derived, never
// stored.
func (h *History) IsDirty() bool { return h.index != h.saved }

func clone(b []byte) []byte {
	return append([]byte(nil), b...)
}
