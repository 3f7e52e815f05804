package daemon

import (
	"log/slog"
	"sync"
	"time"

	godbus "github.com/godbus/dbus/v5"

	"github.com/scrawl-tools/scrawl/internal/dbus"
)

// NoticeLevel indicates the severity of an internal daemon notice.
type NoticeLevel int

const (
	// NoticeLevelInfo is for informational notices (low priority).
	NoticeLevelInfo NoticeLevel = iota
	// NoticeLevelWarning is for warning notices (normal priority).
	NoticeLevelWarning
	// NoticeLevelError is for error notices (high priority).
	NoticeLevelError
)

// noticeX and noticeY place internal notices in the top-left corner,
// away from where users typically annotate.
const (
	noticeX = 32.0
	noticeY = 32.0
)

// InternalNotifier surfaces internal scrawld events as transient
// annotations on the overlay. It rate limits per event key so a
// flapping config file does not flood the screen with notices.
type InternalNotifier struct {
	mu     sync.Mutex
	logger *slog.Logger

	// Handler for creating annotations, same path D-Bus captures take
	annotateHandler func(req *dbus.AnnotateRequest) (string, error)

	// Rate limiting
	lastNoticeTime map[string]time.Time // key -> last notice time
	minInterval    time.Duration        // minimum time between same notices

	// Enabled flag
	enabled bool
}

// NewInternalNotifier creates a new InternalNotifier.
func NewInternalNotifier(logger *slog.Logger) *InternalNotifier {
	return &InternalNotifier{
		logger:         logger,
		lastNoticeTime: make(map[string]time.Time),
		minInterval:    5 * time.Second, // Don't repeat the same notice within 5 seconds
		enabled:        true,
	}
}

// SetAnnotateHandler sets the function to call when creating a notice.
// This should be the same handler used for D-Bus annotation captures.
func (n *InternalNotifier) SetAnnotateHandler(handler func(req *dbus.AnnotateRequest) (string, error)) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.annotateHandler = handler
}

// SetEnabled enables or disables internal notices.
func (n *InternalNotifier) SetEnabled(enabled bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.enabled = enabled
}

// SetMinInterval sets the minimum interval between duplicate notices.
func (n *InternalNotifier) SetMinInterval(interval time.Duration) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.minInterval = interval
}

// Notify posts an internal notice if not rate-limited.
// The key is used for rate limiting - the same key won't post again
// within minInterval.
func (n *InternalNotifier) Notify(key, label, note string, level NoticeLevel) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if !n.enabled {
		return
	}

	if n.annotateHandler == nil {
		n.logger.Debug("internal notice skipped: no handler", "label", label)
		return
	}

	// Rate limiting check
	if lastTime, ok := n.lastNoticeTime[key]; ok {
		if time.Since(lastTime) < n.minInterval {
			n.logger.Debug("internal notice rate-limited", "key", key, "label", label)
			return
		}
	}
	n.lastNoticeTime[key] = time.Now()

	// Map level to annotation priority
	priority := byte(1) // Normal
	switch level {
	case NoticeLevelInfo:
		priority = 0 // Low
	case NoticeLevelWarning:
		priority = 1 // Normal
	case NoticeLevelError:
		priority = 2 // High
	}

	req := &dbus.AnnotateRequest{
		Label: label,
		Note:  note,
		X:     noticeX,
		Y:     noticeY,
		Hints: map[string]godbus.Variant{
			"priority": godbus.MakeVariant(priority),
			"source":   godbus.MakeVariant("scrawld"),
			// Internal notices are transient and never persisted
			"transient":      godbus.MakeVariant(true),
			"suppress-sound": godbus.MakeVariant(true),
		},
	}

	n.logger.Debug("posting internal notice", "key", key, "label", label, "level", level)

	if _, err := n.annotateHandler(req); err != nil {
		n.logger.Warn("failed to post internal notice", "key", key, "error", err)
	}
}

// NotifyConfigReloaded posts a notice about config being reloaded.
func (n *InternalNotifier) NotifyConfigReloaded() {
	n.Notify(
		"config-reload",
		"Configuration Reloaded",
		"scrawld configuration has been successfully reloaded.",
		NoticeLevelInfo,
	)
}

// NotifyConfigError posts a notice about a config validation error.
func (n *InternalNotifier) NotifyConfigError(err error) {
	n.Notify(
		"config-error",
		"Configuration Error",
		"Failed to reload configuration: "+err.Error(),
		NoticeLevelWarning,
	)
}

// NotifyThemeReloaded posts a notice about a theme being reloaded.
func (n *InternalNotifier) NotifyThemeReloaded(themeName string) {
	n.Notify(
		"theme-reload",
		"Theme Reloaded",
		"Theme '"+themeName+"' has been reloaded.",
		NoticeLevelInfo,
	)
}

// NotifyThemeError posts a notice about a theme loading error.
func (n *InternalNotifier) NotifyThemeError(err error) {
	n.Notify(
		"theme-error",
		"Theme Error",
		"Failed to load theme: "+err.Error(),
		NoticeLevelWarning,
	)
}

// NotifyPauseChanged posts a notice about capture pause state change.
func (n *InternalNotifier) NotifyPauseChanged(paused bool, reason string) {
	var label, note string
	if paused {
		label = "Capture Paused"
		note = "New annotations will not be captured."
	} else {
		label = "Capture Resumed"
		note = "Annotations will now be captured."
	}
	if reason != "" {
		note += " (" + reason + ")"
	}
	n.Notify(
		"pause-change",
		label,
		note,
		NoticeLevelInfo,
	)
}

// NotifyStartup posts a notice that the daemon has started.
func (n *InternalNotifier) NotifyStartup(version string) {
	n.Notify(
		"startup",
		"scrawld Started",
		"Annotation daemon v"+version+" is now running.",
		NoticeLevelInfo,
	)
}

// NotifyAudioError posts a notice about an audio playback error.
func (n *InternalNotifier) NotifyAudioError(err error) {
	n.Notify(
		"audio-error",
		"Audio Error",
		"Failed to play capture sound: "+err.Error(),
		NoticeLevelWarning,
	)
}
