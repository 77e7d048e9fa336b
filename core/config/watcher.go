package config

import (
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// reloadDebounce coalesces the event bursts editors emit on save.
const reloadDebounce = 200 * time.Millisecond

// Watcher reloads the manager when the user config file changes on disk.
type Watcher struct {
	fsw    *fsnotify.Watcher
	done   chan struct{}
	logger *slog.Logger
}

// Watch starts watching the manager's config file. The config directory is
// watched rather than the file itself so atomic-rename saves keep working.
func Watch(m *Manager, logger *slog.Logger) (*Watcher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(filepath.Dir(m.Path())); err != nil {
		fsw.Close()
		return nil, err
	}

	w := &Watcher{fsw: fsw, done: make(chan struct{}), logger: logger}
	go w.run(m)
	return w, nil
}

func (w *Watcher) run(m *Manager) {
	target := filepath.Base(m.Path())

	var debounce *time.Timer
	var debounceCh <-chan time.Time
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != target {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if debounce == nil {
				debounce = time.NewTimer(reloadDebounce)
				debounceCh = debounce.C
			} else {
				debounce.Reset(reloadDebounce)
			}
		case <-debounceCh:
			if err := m.Reload(); err != nil {
				w.logger.Warn("config reload failed", "error", err)
			} else {
				w.logger.Info("config reloaded", "path", m.Path())
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("config watch error", "error", err)
		}
	}
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	close(w.done)
	return w.fsw.Close()
}
