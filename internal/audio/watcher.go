package audio

import (
	"context"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// Watcher invalidates the player's decode cache when a watched sound
// file changes, so users can swap feedback sounds without restarting
// scrawld. Sound files live wherever the config points, so the watcher
// subscribes to each file's parent directory and filters events down to
// the registered paths.
type Watcher struct {
	mu     sync.RWMutex
	logger *slog.Logger
	player *Player

	paths map[string]bool // Watched sound files
	dirs  map[string]int  // Subscribed directories, refcounted by path

	fw      *fsnotify.Watcher
	stopCh  chan struct{}
	doneCh  chan struct{}
	running bool
}

// NewWatcher creates a new sound file watcher.
func NewWatcher(player *Player, logger *slog.Logger) *Watcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{
		logger: logger,
		player: player,
		paths:  make(map[string]bool),
		dirs:   make(map[string]int),
	}
}

// Watch adds a sound file to the watch list. Safe to call before or
// after Start; re-watching an already watched path is a no-op.
func (w *Watcher) Watch(path string) {
	if path == "" {
		return
	}
	path = filepath.Clean(path)

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.paths[path] {
		return
	}
	w.paths[path] = true

	dir := filepath.Dir(path)
	w.dirs[dir]++
	if w.dirs[dir] == 1 && w.running {
		if err := w.fw.Add(dir); err != nil {
			w.logger.Debug("failed to watch sound directory", "dir", dir, "error", err)
		}
	}
}

// Unwatch removes a sound file from the watch list.
func (w *Watcher) Unwatch(path string) {
	path = filepath.Clean(path)

	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.paths[path] {
		return
	}
	delete(w.paths, path)

	dir := filepath.Dir(path)
	w.dirs[dir]--
	if w.dirs[dir] <= 0 {
		delete(w.dirs, dir)
		if w.running {
			_ = w.fw.Remove(dir)
		}
	}
}

// Start begins watching the registered sound files.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		w.mu.Unlock()
		return err
	}
	for dir := range w.dirs {
		if err := fw.Add(dir); err != nil {
			w.logger.Debug("failed to watch sound directory", "dir", dir, "error", err)
		}
	}

	w.fw = fw
	w.running = true
	w.stopCh = make(chan struct{})
	w.doneCh = make(chan struct{})
	w.mu.Unlock()

	go w.watchLoop(ctx)

	w.logger.Debug("audio watcher started", "paths", len(w.paths))
	return nil
}

// Stop stops watching sound files.
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
	w.logger.Debug("audio watcher stopped")
}

func (w *Watcher) watchLoop(ctx context.Context) {
	defer close(w.doneCh)

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
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			path := filepath.Clean(ev.Name)

			w.mu.RLock()
			watched := w.paths[path]
			w.mu.RUnlock()
			if !watched {
				continue
			}

			w.logger.Debug("sound file changed, invalidating cache", "path", path)
			if w.player != nil {
				w.player.InvalidateCache(path)
			}

		case err, ok := <-w.fw.Errors:
			if !ok {
				return
			}
			w.logger.Debug("audio watcher error", "error", err)
		}
	}
}

// IsRunning returns whether the watcher is currently running.
func (w *Watcher) IsRunning() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.running
}
