package output

import (
	"fmt"
	"io"
	"strings"
	"text/template"
	"time"

	"github.com/scrawl-tools/scrawl/internal/model"
)

// DmenuFormatter formats annotations for dmenu/rofi/fuzzel.
type DmenuFormatter struct {
	opts     FormatterOptions
	template *template.Template
}

// NewDmenuFormatter creates a new dmenu formatter.
func NewDmenuFormatter(opts FormatterOptions) *DmenuFormatter {
	f := &DmenuFormatter{opts: opts}

	// Parse custom template if provided
	if opts.Template != "" {
		tmpl, err := template.New("dmenu").Funcs(templateFuncs()).Parse(opts.Template)
		if err == nil {
			f.template = tmpl
		}
	}

	return f
}

// Format writes annotations in dmenu format (one per line).
func (f *DmenuFormatter) Format(w io.Writer, annotations []model.Annotation) error {
	for i, a := range annotations {
		line := f.formatLine(i+1, &a)
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// formatLine formats a single annotation line.
func (f *DmenuFormatter) formatLine(index int, a *model.Annotation) string {
	// Use custom template if available
	if f.template != nil {
		var buf strings.Builder
		data := templateData{
			Index:        index,
			Annotation:   a,
			RelativeTime: relativeTime(a.Timestamp),
		}
		if err := f.template.Execute(&buf, data); err == nil {
			return buf.String()
		}
	}

	// Default format: [index] [time] [x,y] label: note
	var parts []string
	sep := f.opts.Separator
	if sep == "" {
		sep = " | "
	}

	if f.opts.ShowIndex {
		parts = append(parts, fmt.Sprintf("%d", index))
	}

	if f.opts.ShowTime {
		parts = append(parts, relativeTime(a.Timestamp))
	}

	if f.opts.ShowPosition {
		parts = append(parts, fmt.Sprintf("%.0f,%.0f", a.X, a.Y))
	}

	// Label and note
	content := a.Label
	if a.Note != "" {
		note := sanitizeNote(a.Note, f.opts.NoteMaxLen, f.opts.IncludeNewline)
		if note != "" {
			content += ": " + note
		}
	}
	parts = append(parts, content)

	return strings.Join(parts, sep)
}

// templateData provides data for custom templates.
type templateData struct {
	Index        int
	Annotation   *model.Annotation
	RelativeTime string
}

// templateFuncs returns template helper functions.
func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"truncate": func(s string, maxLen int) string {
			if maxLen <= 0 || len(s) <= maxLen {
				return s
			}
			if maxLen <= 3 {
				return s[:maxLen]
			}
			return s[:maxLen-3] + "..."
		},
		"reltime": func(ts int64) string {
			return relativeTime(ts)
		},
		"priorityIcon": func(priority int) string {
			switch priority {
			case model.PriorityLow:
				return "L"
			case model.PriorityHigh:
				return "!"
			default:
				return "-"
			}
		},
	}
}

// relativeTime returns a human-readable relative time string.
func relativeTime(timestamp int64) string {
	if timestamp == 0 {
		return "unknown"
	}

	t := time.Unix(timestamp, 0)
	d := time.Since(t)

	switch {
	case d < time.Minute:
		return "now"
	case d < time.Hour:
		mins := int(d.Minutes())
		return fmt.Sprintf("%dm", mins)
	case d < 24*time.Hour:
		hours := int(d.Hours())
		return fmt.Sprintf("%dh", hours)
	case d < 7*24*time.Hour:
		days := int(d.Hours() / 24)
		return fmt.Sprintf("%dd", days)
	default:
		weeks := int(d.Hours() / 24 / 7)
		return fmt.Sprintf("%dw", weeks)
	}
}

// sanitizeNote cleans up note text for single-line display.
func sanitizeNote(note string, maxLen int, includeNewline bool) string {
	// Replace newlines with spaces unless explicitly included
	if !includeNewline {
		note = strings.ReplaceAll(note, "\n", " ")
		note = strings.ReplaceAll(note, "\r", "")
	}

	// Collapse multiple spaces
	for strings.Contains(note, "  ") {
		note = strings.ReplaceAll(note, "  ", " ")
	}

	note = strings.TrimSpace(note)

	// Truncate if needed
	if maxLen > 0 && len(note) > maxLen {
		if maxLen <= 3 {
			return note[:maxLen]
		}
		return note[:maxLen-3] + "..."
	}

	return note
}
