// Package watcher reports debounced changes to the files of one directory.
// It feeds the general instruction documents kept in the instructions
// directory into the project.
package watcher

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"codearh/internal/logging"
)

const (
	defaultDebounceMs = 300
	recentEvents      = 50
)

// Watcher monitors one directory, non-recursively.
type Watcher struct {
	fsWatcher  *fsnotify.Watcher
	dir        string
	debounceMs int
	onChange   ChangeHandler
	pending    map[string]time.Time
	recent     *EventBuffer
	mu         sync.Mutex
	done       chan struct{}
	running    bool
	stopOnce   sync.Once
}

// New creates a watcher for dir. A disabled config returns an inert watcher.
func New(dir string, cfg Config) (*Watcher, error) {
	if !cfg.Enabled || dir == "" {
		return &Watcher{recent: NewEventBuffer(recentEvents)}, nil
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	debounceMs := cfg.DebounceMs
	if debounceMs <= 0 {
		debounceMs = defaultDebounceMs
	}

	return &Watcher{
		fsWatcher:  fsWatcher,
		dir:        dir,
		debounceMs: debounceMs,
		pending:    make(map[string]time.Time),
		recent:     NewEventBuffer(recentEvents),
		done:       make(chan struct{}),
	}, nil
}

// SetOnChange sets the callback for debounced changes.
func (w *Watcher) SetOnChange(handler ChangeHandler) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onChange = handler
}

// Start begins watching. The directory is created if missing.
func (w *Watcher) Start() error {
	if w.fsWatcher == nil {
		return nil // disabled
	}

	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	if err := os.MkdirAll(w.dir, 0755); err != nil {
		return err
	}
	if err := w.fsWatcher.Add(w.dir); err != nil {
		return err
	}
	logging.Info("watching instructions", "dir", w.dir, "debounce_ms", w.debounceMs)

	go w.processEvents()
	go w.processDebounce()
	return nil
}

// Stop stops watching.
func (w *Watcher) Stop() error {
	if w.fsWatcher == nil {
		return nil
	}

	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = false
	w.mu.Unlock()

	w.stopOnce.Do(func() {
		close(w.done)
	})
	return w.fsWatcher.Close()
}

// Files lists the regular, non-hidden files currently in the directory.
func (w *Watcher) Files() ([]string, error) {
	return ListFiles(w.dir)
}

// ListFiles lists the regular, non-hidden files of dir.
func ListFiles(dir string) ([]string, error) {
	if dir == "" {
		return nil, nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() || skipName(e.Name()) {
			continue
		}
		out = append(out, filepath.Join(dir, e.Name()))
	}
	return out, nil
}

// skipName reports hidden, editor backup and swap files.
func skipName(base string) bool {
	if base == "" {
		return true
	}
	return base[0] == '.' || base[0] == '#' || base[len(base)-1] == '~' ||
		filepath.Ext(base) == ".swp" || filepath.Ext(base) == ".tmp"
}

func (w *Watcher) processEvents() {
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			logging.Warn("watcher error", "dir", w.dir, "error", err)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if event.Op == fsnotify.Chmod {
		return
	}
	if skipName(filepath.Base(event.Name)) {
		return
	}
	if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
		return
	}

	w.mu.Lock()
	w.pending[event.Name] = time.Now()
	w.mu.Unlock()
}

func (w *Watcher) processDebounce() {
	interval := time.Duration(w.debounceMs/2) * time.Millisecond
	if interval <= 0 {
		interval = time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.done:
			return
		case <-ticker.C:
			w.flushPending()
		}
	}
}

// flushPending reports paths that have been quiet for the debounce period.
func (w *Watcher) flushPending() {
	w.mu.Lock()
	handler := w.onChange
	if handler == nil || len(w.pending) == 0 {
		w.mu.Unlock()
		return
	}

	now := time.Now()
	debounce := time.Duration(w.debounceMs) * time.Millisecond
	var events []Event
	for path, eventTime := range w.pending {
		if now.Sub(eventTime) >= debounce {
			events = append(events, Event{Path: path, Operation: detectOperation(path), Time: now})
			delete(w.pending, path)
		}
	}
	for _, e := range events {
		w.recent.Add(e)
	}
	w.mu.Unlock()

	for _, e := range events {
		logging.Debug("instruction file changed", "path", e.Path, "op", e.Operation)
		handler(e.Path, e.Operation)
	}
}

func detectOperation(path string) Operation {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return OpDelete
	}
	return OpModify
}

// IsRunning returns whether the watcher is running.
func (w *Watcher) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

// Dir returns the watched directory.
func (w *Watcher) Dir() string { return w.dir }

// Recent returns up to n of the most recently reported changes.
func (w *Watcher) Recent(n int) []Event {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.recent.Recent(n)
}
