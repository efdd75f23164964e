package undo

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapFiles map[string]string

func (m mapFiles) WriteFile(path, content string) { m[path] = content }

func (m mapFiles) DeleteFile(path string) error {
	if _, ok := m[path]; !ok {
		return errors.New("missing")
	}
	delete(m, path)
	return nil
}

func TestUndoRedoModification(t *testing.T) {
	files := mapFiles{"a.go": "new"}
	m := NewManager(10)
	m.Record(NewChange("a.go", SourceModify, "old", "new", false, time.Now()))

	c, err := m.Undo(files)
	require.NoError(t, err)
	assert.Equal(t, "a.go", c.Path)
	assert.Equal(t, "old", files["a.go"])
	assert.True(t, m.CanRedo())
	assert.False(t, m.CanUndo())

	_, err = m.Redo(files)
	require.NoError(t, err)
	assert.Equal(t, "new", files["a.go"])
	assert.True(t, m.CanUndo())

	_, err = m.Redo(files)
	assert.ErrorIs(t, err, ErrNothingToRedo)
}

func TestUndoCreatedFileDeletesIt(t *testing.T) {
	files := mapFiles{"b.py": "print(1)"}
	m := NewManager(10)
	m.Record(NewChange("b.py", SourceGenerate, "", "print(1)", true, time.Now()))

	_, err := m.Undo(files)
	require.NoError(t, err)
	assert.NotContains(t, files, "b.py")

	_, err = m.Undo(files)
	assert.ErrorIs(t, err, ErrNothingToUndo)

	_, err = m.Redo(files)
	require.NoError(t, err)
	assert.Equal(t, "print(1)", files["b.py"])
}

func TestRecordClearsRedo(t *testing.T) {
	files := mapFiles{"a": "2"}
	m := NewManager(10)
	m.Record(NewChange("a", SourceModify, "1", "2", false, time.Now()))
	_, err := m.Undo(files)
	require.NoError(t, err)

	m.Record(NewChange("a", SourceModify, "1", "3", false, time.Now()))
	assert.False(t, m.CanRedo())
}

func TestTrackerBounded(t *testing.T) {
	tr := NewTracker(2)
	for _, p := range []string{"a", "b", "c"} {
		tr.Record(Change{Path: p})
	}
	assert.Equal(t, 2, tr.Count())

	recent := tr.ListRecent(5)
	require.Len(t, recent, 2)
	assert.Equal(t, "c", recent[0].Path)
	assert.Equal(t, "b", recent[1].Path)
}

func TestChangeSummary(t *testing.T) {
	c := NewChange("x.go", SourceGenerate, "", "abc", true, time.Now())
	assert.Equal(t, "created x.go (generate)", c.Summary())
	assert.Equal(t, 3, c.SizeChange())
	assert.Len(t, c.ID, 8)
}
