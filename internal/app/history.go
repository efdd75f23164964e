package app

import (
	"context"

	"codearh/internal/logging"
	"codearh/internal/undo"
)

// Undo reverts the most recent assistant edit to the project.
func (a *App) Undo(ctx context.Context) (undo.Change, error) {
	c, err := a.history.Undo(a.Project())
	if err != nil {
		return c, err
	}
	logging.Info("change undone", "file", c.Path, "source", string(c.Source))
	return c, a.afterHistoryChange(ctx)
}

// Redo re-applies the most recently undone edit.
func (a *App) Redo(ctx context.Context) (undo.Change, error) {
	c, err := a.history.Redo(a.Project())
	if err != nil {
		return c, err
	}
	logging.Info("change redone", "file", c.Path, "source", string(c.Source))
	return c, a.afterHistoryChange(ctx)
}

// History returns up to n undoable edits, newest first.
func (a *App) History(n int) []undo.Change {
	return a.history.ListRecent(n)
}

func (a *App) afterHistoryChange(ctx context.Context) error {
	a.events.Publish(Event{Type: EventFiles, Time: a.now()})
	return a.SaveProject(ctx)
}
