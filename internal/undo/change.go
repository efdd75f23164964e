// Package undo records the edits the assistant made to project files so they
// can be reverted and re-applied.
package undo

import (
	"time"

	"github.com/google/uuid"
)

// Source names what produced a change.
type Source string

const (
	SourceModify   Source = "modify"
	SourceGenerate Source = "generate"
)

// Change is a single file edit.
type Change struct {
	ID     string    `json:"id"`
	Path   string    `json:"path"`
	Source Source    `json:"source"`
	Time   time.Time `json:"time"`
	Old    string    `json:"old"`
	New    string    `json:"new"`
	WasNew bool      `json:"wasNew"` // file did not exist before
}

// NewChange creates a Change with a generated ID.
func NewChange(path string, source Source, old, new string, wasNew bool, at time.Time) Change {
	return Change{
		ID:     uuid.NewString()[:8],
		Path:   path,
		Source: source,
		Time:   at,
		Old:    old,
		New:    new,
		WasNew: wasNew,
	}
}

// Summary returns a one-line description of the change.
func (c Change) Summary() string {
	verb := "modified"
	if c.WasNew {
		verb = "created"
	}
	return verb + " " + c.Path + " (" + string(c.Source) + ")"
}

// SizeChange returns the size difference in bytes.
func (c Change) SizeChange() int {
	return len(c.New) - len(c.Old)
}
