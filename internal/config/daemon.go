package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Duration is a time.Duration that can be unmarshaled from human-readable strings.
// Supports formats like "5s", "10s", "1m", "1h30m", or integer milliseconds.
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler for TOML parsing.
func (d *Duration) UnmarshalText(text []byte) error {
	s := string(text)

	// Try parsing as integer (milliseconds) for backwards compatibility
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		*d = Duration(time.Duration(ms) * time.Millisecond)
		return nil
	}

	dur, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: must be like '5s', '1m', '1h30m' or milliseconds: %w", s, err)
	}
	*d = Duration(dur)
	return nil
}

// MarshalText implements encoding.TextMarshaler for TOML output.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Duration returns the underlying time.Duration.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// DaemonConfig is the configuration for scrawld.
// Loaded from ~/.config/scrawl/scrawld.toml
type DaemonConfig struct {
	Overlay  OverlayConfig  `toml:"overlay"`
	Capture  CaptureConfig  `toml:"capture"`
	Behavior BehaviorConfig `toml:"behavior"`
	Theme    ThemeConfig    `toml:"theme"`
	Layout   LayoutConfig   `toml:"layout"`
	Mouse    MouseConfig    `toml:"mouse"`
}

// LayoutConfig contains editor layout template settings.
type LayoutConfig struct {
	Template string `toml:"template"` // Template name without .xml extension
}

// OverlayConfig contains overlay and editor popup settings.
type OverlayConfig struct {
	PopupWidth  int     `toml:"popup_width"`  // Editor popup width in pixels
	PopupHeight int     `toml:"popup_height"` // Editor popup height in pixels
	Margin      int     `toml:"margin"`       // Minimum clearance from screen edges
	Monitor     int     `toml:"monitor"`      // 0 = active/primary, 1+ = specific monitor
	Opacity     float64 `toml:"opacity"`      // 0.0-1.0, overlay tint opacity
	Paused      bool    `toml:"paused"`       // Start with capture paused
}

// CaptureConfig contains capture feedback settings.
type CaptureConfig struct {
	SoundEnabled bool        `toml:"sound_enabled"`
	Volume       int         `toml:"volume"` // 0-100
	Sounds       SoundConfig `toml:"sounds"`
}

// SoundConfig contains per-priority sound file paths.
type SoundConfig struct {
	Low    string `toml:"low"`
	Normal string `toml:"normal"`
	High   string `toml:"high"`
}

// BehaviorConfig contains behavior settings.
type BehaviorConfig struct {
	DedupeCaptures bool   `toml:"dedupe_captures"` // Drop identical annotations
	HistoryLength  int    `toml:"history_length"`  // Max annotations in session memory
	DefaultLabel   string `toml:"default_label"`   // Label for quick captures without text
}

// ThemeConfig contains theme settings.
type ThemeConfig struct {
	Name        string `toml:"name"`         // Theme name without .css extension
	ColorScheme string `toml:"color_scheme"` // "system", "light", or "dark"
}

// ColorScheme represents the color scheme preference.
type ColorScheme string

const (
	ColorSchemeSystem ColorScheme = "system"
	ColorSchemeLight  ColorScheme = "light"
	ColorSchemeDark   ColorScheme = "dark"
)

// ValidColorSchemes returns all valid color scheme values.
func ValidColorSchemes() []ColorScheme {
	return []ColorScheme{ColorSchemeSystem, ColorSchemeLight, ColorSchemeDark}
}

// MouseConfig contains mouse button action mappings for the overlay.
type MouseConfig struct {
	Left   string `toml:"left"`   // "annotate", "dismiss-editor", "none"
	Middle string `toml:"middle"` // "annotate", "dismiss-editor", "none"
	Right  string `toml:"right"`  // "annotate", "dismiss-editor", "none"
}

// MouseAction represents a mouse button action on the overlay.
type MouseAction string

const (
	MouseActionAnnotate      MouseAction = "annotate"
	MouseActionDismissEditor MouseAction = "dismiss-editor"
	MouseActionNone          MouseAction = "none"
)

// DefaultDaemonConfig returns a new DaemonConfig with default values.
func DefaultDaemonConfig() *DaemonConfig {
	return &DaemonConfig{
		Overlay: OverlayConfig{
			PopupWidth:  340,
			PopupHeight: 320,
			Margin:      12,
			Monitor:     0,
			Opacity:     0.15,
			Paused:      false,
		},
		Capture: CaptureConfig{
			SoundEnabled: true,
			Volume:       80,
			Sounds:       SoundConfig{},
		},
		Behavior: BehaviorConfig{
			DedupeCaptures: true,
			HistoryLength:  500,
			DefaultLabel:   "annotation",
		},
		Theme: ThemeConfig{
			Name:        "default",
			ColorScheme: string(ColorSchemeSystem),
		},
		Layout: LayoutConfig{
			Template: "default",
		},
		Mouse: MouseConfig{
			Left:   string(MouseActionAnnotate),
			Middle: string(MouseActionNone),
			Right:  string(MouseActionDismissEditor),
		},
	}
}

// DaemonConfigPath returns the path to the daemon config file.
func DaemonConfigPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "scrawl", "scrawld.toml"), nil
}

// LoadDaemonConfig loads the daemon configuration from disk.
// If the file doesn't exist, returns the default configuration.
func LoadDaemonConfig() (*DaemonConfig, error) {
	path, err := DaemonConfigPath()
	if err != nil {
		return nil, fmt.Errorf("failed to get config path: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultDaemonConfig(), nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Start with defaults, then overlay with file contents
	config := DefaultDaemonConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// SaveDaemonConfig saves the daemon configuration to disk.
func SaveDaemonConfig(config *DaemonConfig) error {
	path, err := DaemonConfigPath()
	if err != nil {
		return fmt.Errorf("failed to get config path: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := toml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// Write atomically via temp file
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return os.Rename(tmpPath, path)
}

// Validate checks if the configuration is valid.
func (c *DaemonConfig) Validate() error {
	if c.Overlay.PopupWidth < 100 || c.Overlay.PopupWidth > 1000 {
		return fmt.Errorf("popup_width must be between 100 and 1000, got %d", c.Overlay.PopupWidth)
	}
	if c.Overlay.PopupHeight < 100 || c.Overlay.PopupHeight > 1000 {
		return fmt.Errorf("popup_height must be between 100 and 1000, got %d", c.Overlay.PopupHeight)
	}
	if c.Overlay.Margin < 0 || c.Overlay.Margin > 100 {
		return fmt.Errorf("margin must be between 0 and 100, got %d", c.Overlay.Margin)
	}
	if c.Overlay.Opacity < 0 || c.Overlay.Opacity > 1 {
		return fmt.Errorf("opacity must be between 0.0 and 1.0, got %v", c.Overlay.Opacity)
	}

	if c.Capture.Volume < 0 || c.Capture.Volume > 100 {
		return fmt.Errorf("volume must be between 0 and 100, got %d", c.Capture.Volume)
	}

	validActions := map[string]bool{
		string(MouseActionAnnotate):      true,
		string(MouseActionDismissEditor): true,
		string(MouseActionNone):          true,
	}
	for _, action := range []string{c.Mouse.Left, c.Mouse.Middle, c.Mouse.Right} {
		if !validActions[action] {
			return fmt.Errorf("invalid mouse action %q", action)
		}
	}

	return nil
}

// GetSoundForPriority returns the sound file path for the given priority level.
// Expands ~ to home directory.
func (c *DaemonConfig) GetSoundForPriority(priority int) string {
	var path string
	switch priority {
	case 0: // Low
		path = c.Capture.Sounds.Low
	case 2: // High
		path = c.Capture.Sounds.High
	default: // Normal (1) or unknown
		path = c.Capture.Sounds.Normal
	}
	return expandPath(path)
}

// expandPath expands ~ to the user's home directory.
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}
