package daemon

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/scrawl-tools/scrawl/internal/config"
)

// fileWatcher is the shared fsnotify core behind the daemon's hot-reload
// watchers. The scrawl CLI writes the history, state and config files with
// a tmp-file rename, which replaces the inode, so the watcher subscribes
// to the parent directory and filters events down to the target file.
// Bursts of events (write + chmod + rename) are debounced into one
// callback.
type fileWatcher struct {
	mu     sync.Mutex
	logger *slog.Logger

	path     string // Absolute path of the watched file
	label    string // For log lines ("store", "state", "config")
	debounce time.Duration

	onChange func()

	fw      *fsnotify.Watcher
	stopCh  chan struct{}
	doneCh  chan struct{}
	running bool
}

func newFileWatcher(path, label string, logger *slog.Logger) *fileWatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &fileWatcher{
		logger:   logger,
		path:     filepath.Clean(path),
		label:    label,
		debounce: 100 * time.Millisecond,
	}
}

func (w *fileWatcher) setCallback(fn func()) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onChange = fn
}

func (w *fileWatcher) start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}

	// The watched file may not exist yet (first run), but its directory
	// must for fsnotify to subscribe. The daemon owns these paths, so
	// creating the directory here is safe.
	dir := filepath.Dir(w.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		w.mu.Unlock()
		return err
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		w.mu.Unlock()
		return err
	}
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

	go w.loop(ctx)

	w.logger.Debug("hot-reload watcher started", "watch", w.label, "path", w.path)
	return nil
}

func (w *fileWatcher) stop() {
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
	w.logger.Debug("hot-reload watcher stopped", "watch", w.label)
}

func (w *fileWatcher) loop(ctx context.Context) {
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
			if filepath.Clean(ev.Name) != w.path {
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
			w.logger.Debug("hot-reload watcher error", "watch", w.label, "error", err)

		case <-fire:
			fire = nil
			w.mu.Lock()
			cb := w.onChange
			w.mu.Unlock()

			w.logger.Debug("watched file changed", "watch", w.label, "path", w.path)
			if cb != nil {
				cb()
			}
		}
	}
}

// StoreWatcher notifies the daemon when the annotation history file is
// changed by another process, so resolving or archiving from the scrawl
// CLI updates markers on screen.
type StoreWatcher struct {
	fw *fileWatcher
}

// NewStoreWatcher creates a StoreWatcher for the given history file path.
func NewStoreWatcher(historyPath string, logger *slog.Logger) *StoreWatcher {
	return &StoreWatcher{fw: newFileWatcher(historyPath, "store", logger)}
}

// SetChangeCallback sets the callback to invoke when the history file changes.
func (w *StoreWatcher) SetChangeCallback(callback func()) {
	w.fw.setCallback(callback)
}

// Start begins watching the history file.
func (w *StoreWatcher) Start(ctx context.Context) error {
	return w.fw.start(ctx)
}

// Stop stops watching the history file.
func (w *StoreWatcher) Stop() {
	w.fw.stop()
}

// StateWatcher notifies the daemon when the shared state file changes,
// so pausing capture from the CLI takes effect without a restart.
type StateWatcher struct {
	fw *fileWatcher
}

// NewStateWatcher creates a StateWatcher for the given state file path.
func NewStateWatcher(statePath string, logger *slog.Logger) *StateWatcher {
	return &StateWatcher{fw: newFileWatcher(statePath, "state", logger)}
}

// SetChangeCallback sets the callback to invoke when the state file changes.
func (w *StateWatcher) SetChangeCallback(callback func()) {
	w.fw.setCallback(callback)
}

// Start begins watching the state file.
func (w *StateWatcher) Start(ctx context.Context) error {
	return w.fw.start(ctx)
}

// Stop stops watching the state file.
func (w *StateWatcher) Stop() {
	w.fw.stop()
}

// ConfigWatcher reloads and validates the daemon config when its file
// changes. Invalid configs are rejected and reported without touching
// the running configuration.
type ConfigWatcher struct {
	fw *fileWatcher

	mu            sync.RWMutex
	currentConfig *config.DaemonConfig

	onReload func(newConfig *config.DaemonConfig)
	onError  func(err error)
}

// NewConfigWatcher creates a ConfigWatcher for the daemon config file.
func NewConfigWatcher(logger *slog.Logger) (*ConfigWatcher, error) {
	configPath, err := config.DaemonConfigPath()
	if err != nil {
		return nil, err
	}

	w := &ConfigWatcher{
		fw: newFileWatcher(configPath, "config", logger),
	}
	w.fw.setCallback(w.reload)
	return w, nil
}

// SetReloadCallback sets the callback invoked with each validated config.
func (w *ConfigWatcher) SetReloadCallback(callback func(newConfig *config.DaemonConfig)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onReload = callback
}

// SetErrorCallback sets the callback invoked when a changed config fails
// to load or validate.
func (w *ConfigWatcher) SetErrorCallback(callback func(err error)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onError = callback
}

// Start begins watching the config file.
func (w *ConfigWatcher) Start(ctx context.Context, initialConfig *config.DaemonConfig) error {
	w.mu.Lock()
	w.currentConfig = initialConfig
	w.mu.Unlock()
	return w.fw.start(ctx)
}

// Stop stops watching the config file.
func (w *ConfigWatcher) Stop() {
	w.fw.stop()
}

// GetCurrentConfig returns the last validated configuration.
func (w *ConfigWatcher) GetCurrentConfig() *config.DaemonConfig {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.currentConfig
}

// reload runs on each debounced config file change.
func (w *ConfigWatcher) reload() {
	w.mu.RLock()
	reloadCallback := w.onReload
	errorCallback := w.onError
	w.mu.RUnlock()

	newConfig, err := config.LoadDaemonConfig()
	if err != nil {
		w.fw.logger.Warn("config file changed but validation failed", "error", err)
		if errorCallback != nil {
			errorCallback(err)
		}
		return
	}

	w.mu.Lock()
	w.currentConfig = newConfig
	w.mu.Unlock()

	w.fw.logger.Info("config reloaded")
	if reloadCallback != nil {
		reloadCallback(newConfig)
	}
}
