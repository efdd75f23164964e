package app

import (
	"context"
	"fmt"

	"codearh/internal/fileutil"
	"codearh/internal/logging"
	"codearh/internal/project"
	"codearh/internal/store"
)

// SaveProject persists the current project and marks it as the last one.
func (a *App) SaveProject(ctx context.Context) error {
	p := a.Project()
	data, err := p.MarshalSnapshot()
	if err != nil {
		return fmt.Errorf("encode project: %w", err)
	}
	if err := a.store.Put(ctx, store.ProjectKey(p.ID()), data); err != nil {
		return fmt.Errorf("save project: %w", err)
	}
	if err := a.store.Put(ctx, store.KeyLastProject, []byte(p.ID())); err != nil {
		return fmt.Errorf("save project: %w", err)
	}
	logging.Debug("project saved", "project", p.ID(), "files", p.FileCount())
	return nil
}

// LoadProject replaces the current project with a stored one.
func (a *App) LoadProject(ctx context.Context, id string) error {
	data, err := a.store.Get(ctx, store.ProjectKey(id))
	if err != nil {
		return err
	}
	p, err := project.UnmarshalSnapshot(data)
	if err != nil {
		return fmt.Errorf("decode project %s: %w", id, err)
	}
	a.setProject(p)
	a.events.Publish(Event{Type: EventFiles, Time: a.now()})
	logging.Info("project loaded", "project", id, "files", p.FileCount())
	return nil
}

// LoadLastProject loads the project saved last, if any.
func (a *App) LoadLastProject(ctx context.Context) error {
	id, err := a.store.Get(ctx, store.KeyLastProject)
	if err != nil {
		return err
	}
	return a.LoadProject(ctx, string(id))
}

// Projects lists the stored project ids.
func (a *App) Projects(ctx context.Context) ([]string, error) {
	keys, err := a.store.Keys(ctx, store.KeyProjectPrefix)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(keys))
	for _, k := range keys {
		ids = append(ids, k[len(store.KeyProjectPrefix):])
	}
	return ids, nil
}

// NewProject starts an empty project.
func (a *App) NewProject() {
	p := project.New()
	p.SetProjectContextEnabled(a.cfg.Context.ProjectEnabled)
	a.setProject(p)
	a.mu.Lock()
	a.messages = nil
	a.mu.Unlock()
	a.states.Set(StateReady)
	a.events.Publish(Event{Type: EventFiles, Time: a.now()})
}

// ImportDir loads a directory from disk into the current project.
func (a *App) ImportDir(ctx context.Context, root string) (int, error) {
	n, err := a.Project().ImportDir(root, a.cfg.Context.Exclude)
	if err != nil {
		return n, err
	}
	a.events.Publish(Event{Type: EventFiles, Time: a.now()})
	return n, a.SaveProject(ctx)
}

// ExportDir writes every project file under root. Temporary attachment
// files are skipped. It returns the number of files written.
func (a *App) ExportDir(ctx context.Context, root string) (int, error) {
	n := 0
	for _, f := range a.Project().Files() {
		if err := ctx.Err(); err != nil {
			return n, err
		}
		if f.IsTemporary {
			continue
		}
		path, err := fileutil.SafeJoin(root, f.Path)
		if err != nil {
			return n, err
		}
		if err := fileutil.AtomicWriteString(path, f.Content, 0644); err != nil {
			return n, fmt.Errorf("export %s: %w", f.Path, err)
		}
		n++
	}
	logging.Info("project exported", "root", root, "files", n)
	return n, nil
}
