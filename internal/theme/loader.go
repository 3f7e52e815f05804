package theme

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/diamondburned/gotk4/pkg/gdk/v4"
	"github.com/diamondburned/gotk4/pkg/gtk/v4"
)

// Loader resolves, applies and hot-reloads overlay themes.
type Loader struct {
	mu          sync.RWMutex
	logger      *slog.Logger
	provider    *gtk.CSSProvider
	themesDir   string
	currentName string
	theme       *Theme
	watcher     *Watcher
	display     *gdk.Display
}

// NewLoader creates a new theme loader.
func NewLoader(logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}

	themesDir, err := ThemesDir()
	if err != nil {
		logger.Warn("failed to get themes directory", "error", err)
		themesDir = ""
	}

	return &Loader{
		logger:    logger,
		provider:  gtk.NewCSSProvider(),
		themesDir: themesDir,
	}
}

// ThemesDir returns the path to the user's themes directory.
func ThemesDir() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "scrawl", "themes"), nil
}

// resolve finds a theme by name. Resolution order:
//  1. User themes directory (~/.config/scrawl/themes/)
//  2. Embedded/bundled themes
//  3. The embedded default
//
// A user file with a bundled theme's name overrides the bundled copy.
func (l *Loader) resolve(name string) *Theme {
	if name == "" {
		name = DefaultThemeName
	}

	if l.themesDir != "" {
		themePath := filepath.Join(l.themesDir, name+".css")
		if _, err := os.Stat(themePath); err == nil {
			theme, err := NewTheme(name, themePath)
			if err == nil {
				return theme
			}
			l.logger.Warn("failed to load user theme, trying bundled", "theme", name, "error", err)
		}
	}

	if css, found := GetEmbeddedTheme(name); found {
		processed := ProcessImports(css, "", nil)
		return &Theme{
			Name:      name,
			CSS:       processed,
			Coverage:  AnalyzeCoverage(processed),
			IsDefault: name == DefaultThemeName,
		}
	}

	l.logger.Warn("theme not found, using default", "theme", name)
	return NewDefaultTheme()
}

// LoadTheme loads a theme by name and installs it in the CSS provider.
// User themes that leave markers or editors unstyled are loaded anyway,
// with a warning naming the selectors they miss.
func (l *Loader) LoadTheme(name string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	theme := l.resolve(name)
	l.provider.LoadFromString(theme.CSS)
	l.theme = theme
	l.currentName = theme.Name

	if theme.Path != "" {
		l.logger.Info("loaded user theme", "name", theme.Name, "path", theme.Path)
		cov := theme.Coverage
		if !cov.Styles(SectionMarker) {
			l.logger.Warn("theme does not style markers", "theme", theme.Name)
		}
		if !cov.Styles(SectionEditor) {
			l.logger.Warn("theme does not style the editor", "theme", theme.Name)
		}
		if !cov.Complete() {
			l.logger.Debug("theme leaves overlay selectors unstyled",
				"theme", theme.Name, "missing", cov.Missing)
		}
	} else {
		l.logger.Info("loaded bundled theme", "name", theme.Name)
	}
	return nil
}

// GetTheme returns the currently loaded theme.
func (l *Loader) GetTheme() *Theme {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.theme
}

// Apply applies the loaded theme to a display.
// This should be called after the GTK application is initialized.
func (l *Loader) Apply(display *gdk.Display) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if display == nil {
		display = gdk.DisplayGetDefault()
	}
	if display == nil {
		l.logger.Warn("no display available, cannot apply theme")
		return
	}

	l.display = display
	gtk.StyleContextAddProviderForDisplay(
		display,
		l.provider,
		gtk.STYLE_PROVIDER_PRIORITY_APPLICATION,
	)
	l.logger.Debug("applied theme to display", "name", l.currentName)
}

// Reload reloads the current theme from disk.
func (l *Loader) Reload() error {
	l.mu.RLock()
	name := l.currentName
	l.mu.RUnlock()
	return l.LoadTheme(name)
}

// StartHotReload starts watching the current theme for changes.
// Changes are automatically applied to the display.
func (l *Loader) StartHotReload(ctx context.Context) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.theme == nil || l.theme.IsDefault {
		l.logger.Debug("not starting hot-reload for default theme")
		return
	}

	if l.watcher != nil {
		l.watcher.Stop()
	}

	l.watcher = NewWatcher(l.theme, l.logger)
	l.watcher.SetChangeCallback(func(css string) {
		l.mu.Lock()
		l.provider.LoadFromString(css)
		l.mu.Unlock()
		l.logger.Info("hot-reloaded theme", "name", l.currentName)
	})

	if err := l.watcher.Start(ctx); err != nil {
		l.logger.Warn("failed to start theme watcher", "error", err)
	}
}

// StopHotReload stops watching the theme for changes.
func (l *Loader) StopHotReload() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.watcher != nil {
		l.watcher.Stop()
		l.watcher = nil
	}
}

// Provider returns the underlying CSS provider.
func (l *Loader) Provider() *gtk.CSSProvider {
	return l.provider
}

// CurrentTheme returns the name of the currently loaded theme.
func (l *Loader) CurrentTheme() string {
	return l.currentName
}

// ListThemes returns the names of all available themes, bundled and user.
func (l *Loader) ListThemes() []string {
	infos, err := ListAvailableThemes()
	if err != nil {
		l.logger.Debug("failed to list themes", "error", err)
	}
	names := make([]string, 0, len(infos))
	for _, info := range infos {
		names = append(names, info.Name)
	}
	return names
}
