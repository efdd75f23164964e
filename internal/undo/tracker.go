package undo

import "sync"

// DefaultMaxChanges bounds the undo history.
const DefaultMaxChanges = 100

// Tracker is a bounded stack of changes, oldest first.
type Tracker struct {
	changes []Change
	maxSize int
	mu      sync.RWMutex
}

// NewTracker creates a Tracker holding at most maxSize changes.
func NewTracker(maxSize int) *Tracker {
	if maxSize <= 0 {
		maxSize = DefaultMaxChanges
	}
	return &Tracker{maxSize: maxSize}
}

// Record pushes a change, dropping the oldest at capacity.
func (t *Tracker) Record(c Change) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.changes) >= t.maxSize {
		t.changes = t.changes[1:]
	}
	t.changes = append(t.changes, c)
}

// PopLast removes and returns the most recent change.
func (t *Tracker) PopLast() (Change, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.changes) == 0 {
		return Change{}, false
	}
	c := t.changes[len(t.changes)-1]
	t.changes = t.changes[:len(t.changes)-1]
	return c, true
}

// ListRecent returns up to n changes, newest first.
func (t *Tracker) ListRecent(n int) []Change {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if n <= 0 || len(t.changes) == 0 {
		return nil
	}
	if n > len(t.changes) {
		n = len(t.changes)
	}
	out := make([]Change, n)
	for i := 0; i < n; i++ {
		out[i] = t.changes[len(t.changes)-1-i]
	}
	return out
}

// Count returns the number of tracked changes.
func (t *Tracker) Count() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.changes)
}

// Clear drops every change.
func (t *Tracker) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.changes = nil
}
