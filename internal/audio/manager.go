package audio

import (
	"context"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"sync"

	"github.com/scrawl-tools/scrawl/internal/config"
)

// Manager manages feedback sound playback with priority-based sounds.
// A sound plays when an annotation is captured, chosen by its priority.
type Manager struct {
	mu      sync.RWMutex
	logger  *slog.Logger
	player  *Player
	watcher *Watcher
	config  *config.DaemonConfig

	// Priority to sound path mapping
	sounds map[int]string
}

// NewManager creates a new audio manager.
func NewManager(cfg *config.DaemonConfig, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}

	player := NewPlayer(logger)

	m := &Manager{
		logger:  logger,
		player:  player,
		watcher: NewWatcher(player, logger),
		config:  cfg,
		sounds:  make(map[int]string),
	}

	// Load sound configuration
	m.loadSoundConfig()

	return m
}

// loadSoundConfig loads sounds from the configuration.
func (m *Manager) loadSoundConfig() {
	if m.config == nil {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	// Set volume (config uses 0-100, player uses 0.0-1.0)
	if m.config.Capture.Volume > 0 {
		m.player.SetVolume(float64(m.config.Capture.Volume) / 100.0)
	}

	// Load per-priority sounds
	sounds := map[int]string{
		0: m.config.Capture.Sounds.Low,    // Low priority
		1: m.config.Capture.Sounds.Normal, // Normal priority
		2: m.config.Capture.Sounds.High,   // High priority
	}

	for priority, path := range sounds {
		if path == "" {
			continue
		}

		// Expand path
		expandedPath := expandPath(path)

		// Check if file exists
		if _, err := os.Stat(expandedPath); err != nil {
			m.logger.Warn("sound file not found", "priority", priority, "path", expandedPath)
			continue
		}

		m.sounds[priority] = expandedPath
		m.logger.Debug("loaded sound", "priority", priority, "path", expandedPath)
	}
}

// Start initializes the audio manager and starts the file watcher.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.RLock()
	sounds := make(map[int]string, len(m.sounds))
	maps.Copy(sounds, m.sounds)
	m.mu.RUnlock()

	// Preload all sounds
	for _, path := range sounds {
		if err := m.player.Preload(path); err != nil {
			m.logger.Warn("failed to preload sound", "path", path, "error", err)
		}
		m.watcher.Watch(path)
	}

	// Start the watcher
	if err := m.watcher.Start(ctx); err != nil {
		return err
	}

	m.logger.Info("audio manager started", "sounds", len(sounds))
	return nil
}

// Stop shuts down the audio manager.
func (m *Manager) Stop() {
	m.watcher.Stop()
	m.player.Close()
	m.logger.Debug("audio manager stopped")
}

// PlayForPriority plays the sound configured for the given priority level.
func (m *Manager) PlayForPriority(priority int) error {
	if !m.config.Capture.SoundEnabled {
		return nil
	}

	m.mu.RLock()
	path, ok := m.sounds[priority]
	m.mu.RUnlock()

	if !ok {
		m.logger.Debug("no sound configured for priority", "priority", priority)
		return nil
	}

	return m.player.Play(path)
}

// PlayFile plays a specific sound file.
func (m *Manager) PlayFile(path string) error {
	if !m.config.Capture.SoundEnabled {
		return nil
	}
	return m.player.Play(path)
}

// SetVolume sets the playback volume (0.0 to 1.0).
func (m *Manager) SetVolume(volume float64) {
	m.player.SetVolume(volume)
}

// GetVolume returns the current volume.
func (m *Manager) GetVolume() float64 {
	return m.player.GetVolume()
}

// Reload reloads the sound configuration.
func (m *Manager) Reload() {
	m.player.ClearCache()
	m.loadSoundConfig()

	// Re-preload and watch sounds
	m.mu.RLock()
	sounds := make(map[int]string, len(m.sounds))
	maps.Copy(sounds, m.sounds)
	m.mu.RUnlock()

	for _, path := range sounds {
		if err := m.player.Preload(path); err != nil {
			m.logger.Warn("failed to preload sound on reload", "path", path, "error", err)
		}
		m.watcher.Watch(path)
	}

	m.logger.Debug("audio manager reloaded")
}

// UpdateConfig updates the configuration and reloads sounds.
// This is called when the config file is hot-reloaded.
func (m *Manager) UpdateConfig(cfg *config.DaemonConfig) {
	m.mu.Lock()
	m.config = cfg
	m.mu.Unlock()

	m.logger.Debug("audio manager config updated")
	m.Reload()
}

// expandPath expands ~ to home directory.
func expandPath(path string) string {
	if len(path) > 0 && path[0] == '~' {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}
