// Package theme provides CSS theming for scrawld's markers and editors.
package theme

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

// importRegex matches @import "file.css"; or @import 'file.css'; or @import url("file.css");
var importRegex = regexp.MustCompile(`@import\s+(?:url\s*\(\s*)?["']([^"']+)["']\s*\)?;?`)

// Section identifies a styleable part of the overlay surface.
type Section string

const (
	// SectionMarker covers the click-point dots drawn on screen.
	SectionMarker Section = "marker"
	// SectionEditor covers the annotation editor popup.
	SectionEditor Section = "editor"
	// SectionPriority covers the shared priority accent classes
	// applied to both markers and editors.
	SectionPriority Section = "priority"
)

// sectionSelectors maps each overlay section to the CSS classes the
// display layer attaches to its widgets. A theme that never mentions a
// section's selectors leaves that part of the overlay unstyled.
var sectionSelectors = map[Section][]string{
	SectionMarker: {
		".annotation-marker",
		".marker-label",
		".marker-resolved",
	},
	SectionEditor: {
		".annotation-editor",
		".editor-label",
		".editor-note",
		".editor-actions",
	},
	SectionPriority: {
		".priority-low",
		".priority-normal",
		".priority-high",
	},
}

// Coverage reports which overlay sections a stylesheet addresses.
type Coverage struct {
	// Styled holds, per section, the selectors the CSS mentions.
	Styled map[Section][]string
	// Missing lists selectors the CSS never mentions, across all sections.
	Missing []string
}

// Styles reports whether the CSS mentions at least one selector of the
// given section.
func (c Coverage) Styles(s Section) bool {
	return len(c.Styled[s]) > 0
}

// Complete reports whether every known selector appears in the CSS.
func (c Coverage) Complete() bool {
	return len(c.Missing) == 0
}

// AnalyzeCoverage scans CSS (after import inlining) for the marker,
// editor and priority selectors scrawld's widgets carry.
func AnalyzeCoverage(css string) Coverage {
	cov := Coverage{Styled: make(map[Section][]string)}
	for _, section := range []Section{SectionMarker, SectionEditor, SectionPriority} {
		for _, sel := range sectionSelectors[section] {
			if strings.Contains(css, sel) {
				cov.Styled[section] = append(cov.Styled[section], sel)
			} else {
				cov.Missing = append(cov.Missing, sel)
			}
		}
	}
	return cov
}

// Theme is a named stylesheet for the overlay, with its imports inlined
// and its marker/editor coverage analyzed.
type Theme struct {
	Name      string    // Theme name (without .css extension)
	Path      string    // Full path to the CSS file (empty for bundled themes)
	CSS       string    // CSS content after import inlining
	Coverage  Coverage  // Which overlay sections the CSS styles
	ModTime   time.Time // Last modification time
	IsDefault bool      // True for the embedded default theme
}

// NewTheme loads a theme from a CSS file, inlining @import statements
// relative to the file's directory.
func NewTheme(name, path string) (*Theme, error) {
	t := &Theme{Name: name, Path: path}
	if err := t.read(); err != nil {
		return nil, err
	}
	return t, nil
}

// NewDefaultTheme creates the embedded default theme.
func NewDefaultTheme() *Theme {
	css, _ := GetEmbeddedTheme(DefaultThemeName)
	return &Theme{
		Name:      DefaultThemeName,
		CSS:       css,
		Coverage:  AnalyzeCoverage(css),
		IsDefault: true,
	}
}

// read loads the CSS from disk, inlines imports and refreshes coverage.
func (t *Theme) read() error {
	css, err := os.ReadFile(t.Path)
	if err != nil {
		return err
	}
	info, err := os.Stat(t.Path)
	if err != nil {
		return err
	}

	t.CSS = ProcessImports(string(css), filepath.Dir(t.Path), nil)
	t.Coverage = AnalyzeCoverage(t.CSS)
	t.ModTime = info.ModTime()
	return nil
}

// Reload re-reads the theme from disk if its file's modification time
// advanced. Returns true if the content changed.
func (t *Theme) Reload() (bool, error) {
	if t.IsDefault {
		return false, nil
	}

	info, err := os.Stat(t.Path)
	if err != nil {
		return false, err
	}
	if !info.ModTime().After(t.ModTime) {
		return false, nil
	}

	return t.refreshFromDisk()
}

// Refresh re-reads the theme from disk unconditionally. Unlike Reload it
// does not gate on the file's modification time, so it also picks up
// edits to @import-ed partials, which never touch the theme file itself.
// Returns true if the content changed.
func (t *Theme) Refresh() (bool, error) {
	if t.IsDefault {
		return false, nil
	}
	return t.refreshFromDisk()
}

func (t *Theme) refreshFromDisk() (bool, error) {
	oldCSS := t.CSS
	if err := t.read(); err != nil {
		return false, err
	}
	return oldCSS != t.CSS, nil
}

// ProcessImports resolves and inlines @import statements in CSS.
// Imports are resolved relative to baseDir; files that cannot be read
// fall back to the embedded partials and themes. The seen map prevents
// circular imports.
func ProcessImports(css string, baseDir string, seen map[string]bool) string {
	if seen == nil {
		seen = make(map[string]bool)
	}

	return importRegex.ReplaceAllStringFunc(css, func(match string) string {
		submatch := importRegex.FindStringSubmatch(match)
		if len(submatch) < 2 {
			return match
		}

		importPath := submatch[1]
		fullPath := importPath
		if !filepath.IsAbs(importPath) {
			fullPath = filepath.Join(baseDir, importPath)
		}

		if seen[fullPath] {
			return "/* circular import prevented: " + importPath + " */"
		}
		seen[fullPath] = true

		importedCSS, err := os.ReadFile(fullPath)
		if err != nil {
			// Partials (underscore-prefixed) and theme names may refer to
			// the embedded copies when no file exists on disk.
			baseName := filepath.Base(importPath)
			if strings.HasPrefix(baseName, "_") {
				if embeddedCSS, found := GetEmbeddedPartial(baseName); found {
					return "/* imported (embedded): " + importPath + " */\n" + embeddedCSS
				}
			}
			themeName := strings.TrimSuffix(baseName, ".css")
			if embeddedCSS, found := GetEmbeddedTheme(themeName); found {
				return "/* imported (embedded): " + importPath + " */\n" + embeddedCSS
			}
			return "/* import failed: " + importPath + " - " + err.Error() + " */"
		}

		processedImport := ProcessImports(string(importedCSS), filepath.Dir(fullPath), seen)
		return "/* imported: " + importPath + " */\n" + processedImport
	})
}

// ThemeInfo provides basic theme information for listing.
type ThemeInfo struct {
	Name      string
	Path      string
	IsDefault bool
	IsBundled bool // True for embedded themes
}

// ListAvailableThemes lists all available themes, bundled first, then
// user themes from the themes directory. A user theme with a bundled
// name shadows the bundled one in the listing.
func ListAvailableThemes() ([]ThemeInfo, error) {
	seen := make(map[string]bool)
	var themes []ThemeInfo

	for _, name := range ListEmbeddedThemes() {
		if !seen[name] {
			seen[name] = true
			themes = append(themes, ThemeInfo{
				Name:      name,
				IsDefault: name == DefaultThemeName,
				IsBundled: true,
			})
		}
	}

	themesDir, err := ThemesDir()
	if err != nil {
		return themes, nil
	}

	entries, err := os.ReadDir(themesDir)
	if err != nil {
		if os.IsNotExist(err) {
			return themes, nil
		}
		return themes, err
	}

	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".css" {
			continue
		}
		name := strings.TrimSuffix(entry.Name(), ".css")
		if !seen[name] {
			seen[name] = true
			themes = append(themes, ThemeInfo{
				Name: name,
				Path: filepath.Join(themesDir, entry.Name()),
			})
		}
	}

	return themes, nil
}

// CreateThemesDir creates the themes directory if it doesn't exist.
func CreateThemesDir() error {
	themesDir, err := ThemesDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(themesDir, 0755)
}
