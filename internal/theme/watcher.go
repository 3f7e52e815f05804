package theme

import (
	"context"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher hot-reloads a theme when its CSS changes on disk. It watches
// the theme's directory rather than the single file: user themes pull in
// sibling partials via @import, and an edit to a partial never touches
// the theme file itself. Any .css change in the directory triggers an
// unconditional re-read of the theme with imports re-inlined.
type Watcher struct {
	mu     sync.RWMutex
	logger *slog.Logger

	theme    *Theme
	debounce time.Duration

	onChangeCallback func(css string)

	fw      *fsnotify.Watcher
	stopCh  chan struct{}
	doneCh  chan struct{}
	running bool
}

// NewWatcher creates a watcher for the given theme.
func NewWatcher(theme *Theme, logger *slog.Logger) *Watcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{
		logger:   logger,
		theme:    theme,
		debounce: 100 * time.Millisecond,
	}
}

// SetChangeCallback sets the callback to invoke when the theme changes.
// The callback receives the new CSS content with imports inlined.
func (w *Watcher) SetChangeCallback(callback func(css string)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onChangeCallback = callback
}

// Start begins watching the theme's directory for CSS changes.
// Embedded themes have no file to watch and are skipped.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	if w.theme.IsDefault || w.theme.Path == "" {
		w.mu.Unlock()
		w.logger.Debug("not watching embedded theme")
		return nil
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		w.mu.Unlock()
		return err
	}
	dir := filepath.Dir(w.theme.Path)
	if err := fw.Add(dir); err != nil {
		_ = fw.Close()
		w.mu.Unlock()
		return err
	}

	w.fw = fw
	w.running = true
	w.stopCh = make(chan struct{})
	w.doneCh = make(chan struct{})
	w.mu.Unlock()

	go w.watchLoop(ctx)

	w.logger.Debug("theme watcher started", "path", w.theme.Path, "dir", dir)
	return nil
}

// Stop stops watching the theme.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	close(w.stopCh)
	fw := w.fw
	w.mu.Unlock()

	_ = fw.Close()
	<-w.doneCh
	w.logger.Debug("theme watcher stopped")
}

// UpdateTheme switches to watching a different theme. The directory
// subscription is unchanged; themes share the same themes directory.
func (w *Watcher) UpdateTheme(theme *Theme) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.theme = theme
}

func (w *Watcher) watchLoop(ctx context.Context) {
	defer close(w.doneCh)

	var (
		timer *time.Timer
		fire  <-chan time.Time
	)

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return

		case ev, ok := <-w.fw.Events:
			if !ok {
				return
			}
			if filepath.Ext(ev.Name) != ".css" {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Stop()
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case err, ok := <-w.fw.Errors:
			if !ok {
				return
			}
			w.logger.Debug("theme watcher error", "error", err)

		case <-fire:
			fire = nil
			w.refresh()
		}
	}
}

// refresh re-reads the theme and fires the callback when the inlined
// CSS actually changed.
func (w *Watcher) refresh() {
	w.mu.RLock()
	theme := w.theme
	callback := w.onChangeCallback
	w.mu.RUnlock()

	if theme == nil || theme.IsDefault {
		return
	}

	changed, err := theme.Refresh()
	if err != nil {
		w.logger.Warn("failed to reload theme", "path", theme.Path, "error", err)
		return
	}
	if !changed {
		return
	}

	w.logger.Info("theme changed, reloading", "path", theme.Path)
	if !theme.Coverage.Complete() {
		w.logger.Debug("theme leaves overlay selectors unstyled",
			"theme", theme.Name, "missing", theme.Coverage.Missing)
	}
	if callback != nil {
		callback(theme.CSS)
	}
}

// IsRunning returns whether the watcher is currently running.
func (w *Watcher) IsRunning() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.running
}
