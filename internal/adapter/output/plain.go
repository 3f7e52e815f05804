package output

import (
	"fmt"
	"io"
	"strings"
	"text/template"

	"github.com/scrawl-tools/scrawl/internal/model"
)

// PlainFormatter formats annotations as plain text.
type PlainFormatter struct {
	opts     FormatterOptions
	template *template.Template
}

// NewPlainFormatter creates a new plain text formatter.
func NewPlainFormatter(opts FormatterOptions) *PlainFormatter {
	f := &PlainFormatter{opts: opts}

	// Parse custom template if provided
	if opts.Template != "" {
		tmpl, err := template.New("plain").Funcs(templateFuncs()).Parse(opts.Template)
		if err == nil {
			f.template = tmpl
		}
	}

	return f
}

// Format writes annotations as plain text.
func (f *PlainFormatter) Format(w io.Writer, annotations []model.Annotation) error {
	for i, a := range annotations {
		if err := f.formatAnnotation(w, i+1, &a); err != nil {
			return err
		}
	}
	return nil
}

// formatAnnotation formats a single annotation.
func (f *PlainFormatter) formatAnnotation(w io.Writer, index int, a *model.Annotation) error {
	// Use custom template if available
	if f.template != nil {
		data := templateData{
			Index:        index,
			Annotation:   a,
			RelativeTime: relativeTime(a.Timestamp),
		}
		return f.template.Execute(w, data)
	}

	// Default format
	var sb strings.Builder

	if f.opts.ShowIndex {
		sb.WriteString(fmt.Sprintf("[%d] ", index))
	}

	sb.WriteString(a.Label)

	if f.opts.ShowPosition {
		sb.WriteString(fmt.Sprintf(" @ %.0f,%.0f", a.X, a.Y))
	}

	if f.opts.ShowTime {
		sb.WriteString(fmt.Sprintf(" (%s)", relativeTime(a.Timestamp)))
	}

	sb.WriteString("\n")

	if a.Note != "" {
		note := a.Note
		if !f.opts.IncludeNewline {
			note = strings.ReplaceAll(note, "\n", " ")
		}
		if f.opts.NoteMaxLen > 0 && len(note) > f.opts.NoteMaxLen {
			note = note[:f.opts.NoteMaxLen-3] + "..."
		}
		sb.WriteString("    " + note + "\n")
	}

	_, err := w.Write([]byte(sb.String()))
	return err
}

// FormatField outputs a specific field from an annotation.
func FormatField(a *model.Annotation, field string) string {
	switch strings.ToLower(field) {
	case "id", "scrawl_id":
		return a.ScrawlID
	case "label", "title":
		return a.Label
	case "note", "body":
		return a.Note
	case "source":
		return a.ScrawlSource
	case "position", "pos":
		return fmt.Sprintf("%.0f,%.0f", a.X, a.Y)
	case "color":
		return a.Color
	case "priority":
		return a.PriorityName
	case "all", "full":
		return fmt.Sprintf("%s\n%s", a.Label, a.Note)
	default:
		return a.Label
	}
}
