package undo

import (
	"errors"
	"sync"
)

var (
	ErrNothingToUndo = errors.New("nothing to undo")
	ErrNothingToRedo = errors.New("nothing to redo")
)

// Files is the file store changes are reverted against.
type Files interface {
	WriteFile(path, content string)
	DeleteFile(path string) error
}

// Manager provides undo and redo over a Tracker.
type Manager struct {
	mu      sync.Mutex
	tracker *Tracker
	undone  []Change
	maxRedo int
}

// NewManager creates a Manager keeping up to maxChanges undo steps.
func NewManager(maxChanges int) *Manager {
	t := NewTracker(maxChanges)
	return &Manager{tracker: t, maxRedo: t.maxSize}
}

// Record adds a change and clears the redo stack.
func (m *Manager) Record(c Change) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tracker.Record(c)
	m.undone = nil
}

// Undo reverts the most recent change against files.
func (m *Manager) Undo(files Files) (Change, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.tracker.PopLast()
	if !ok {
		return Change{}, ErrNothingToUndo
	}
	if c.WasNew {
		// already gone is fine
		_ = files.DeleteFile(c.Path)
	} else {
		files.WriteFile(c.Path, c.Old)
	}

	if len(m.undone) >= m.maxRedo {
		m.undone = m.undone[1:]
	}
	m.undone = append(m.undone, c)
	return c, nil
}

// Redo re-applies the most recently undone change.
func (m *Manager) Redo(files Files) (Change, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.undone) == 0 {
		return Change{}, ErrNothingToRedo
	}
	c := m.undone[len(m.undone)-1]
	m.undone = m.undone[:len(m.undone)-1]
	files.WriteFile(c.Path, c.New)
	m.tracker.Record(c)
	return c, nil
}

// CanUndo reports whether there is a change to undo.
func (m *Manager) CanUndo() bool { return m.tracker.Count() > 0 }

// CanRedo reports whether there is a change to redo.
func (m *Manager) CanRedo() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.undone) > 0
}

// ListRecent returns up to n undoable changes, newest first.
func (m *Manager) ListRecent(n int) []Change { return m.tracker.ListRecent(n) }

// Clear drops the undo and redo history.
func (m *Manager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tracker.Clear()
	m.undone = nil
}
