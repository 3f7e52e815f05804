// Package layout parses XML layout templates for the annotation editor popup.
package layout

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Template represents a parsed editor layout template.
type Template struct {
	Editor EditorElement `xml:"editor"`
}

// EditorElement represents the root editor container.
type EditorElement struct {
	XMLName  xml.Name   `xml:"editor"`
	Attrs    []xml.Attr `xml:",any,attr"`
	Children []Element  `xml:",any"`
}

// Element represents a layout element (generic, parsed by name).
type Element struct {
	XMLName  xml.Name
	Attrs    []xml.Attr `xml:",any,attr"`
	Children []Element  `xml:",any"`
	Content  string     `xml:",chardata"`
}

// ElementType identifies the type of layout element.
type ElementType string

const (
	ElementTypeHeader    ElementType = "header"
	ElementTypeLabel     ElementType = "label"
	ElementTypeNote      ElementType = "note"
	ElementTypeSource    ElementType = "source"
	ElementTypeTimestamp ElementType = "timestamp"
	ElementTypePosition  ElementType = "position"
	ElementTypePriority  ElementType = "priority"
	ElementTypeActions   ElementType = "actions"
	ElementTypeClose     ElementType = "close"
	ElementTypeBox       ElementType = "box"
)

// ValidElements lists all recognized element types.
var ValidElements = map[string]ElementType{
	"header":    ElementTypeHeader,
	"label":     ElementTypeLabel,
	"note":      ElementTypeNote,
	"source":    ElementTypeSource,
	"timestamp": ElementTypeTimestamp,
	"position":  ElementTypePosition,
	"priority":  ElementTypePriority,
	"actions":   ElementTypeActions,
	"close":     ElementTypeClose,
	"box":       ElementTypeBox,
}

// LayoutConfig represents the parsed layout structure ready for UI building.
type LayoutConfig struct {
	// Editor sizing (0 = use config default)
	// Set min=max for fixed size, or use range for flexible content sizing.
	MinWidth  int
	MaxWidth  int
	MinHeight int
	MaxHeight int
	// Child elements
	Elements []LayoutElement
}

// LayoutElement represents a single element in the layout.
type LayoutElement struct {
	Type       ElementType
	Attributes map[string]string
	Children   []LayoutElement
}

// ParseTemplate parses an XML layout template from a reader.
func ParseTemplate(r io.Reader) (*LayoutConfig, error) {
	decoder := xml.NewDecoder(r)

	// Find the root <editor> element
	var config LayoutConfig
	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read template: %w", err)
		}

		if se, ok := tok.(xml.StartElement); ok {
			if se.Name.Local == "editor" {
				// Parse editor attributes for sizing
				for _, attr := range se.Attr {
					switch attr.Name.Local {
					case "min-width":
						if v, err := parsePixelValue(attr.Value); err == nil {
							config.MinWidth = v
						}
					case "max-width":
						if v, err := parsePixelValue(attr.Value); err == nil {
							config.MaxWidth = v
						}
					case "min-height":
						if v, err := parsePixelValue(attr.Value); err == nil {
							config.MinHeight = v
						}
					case "max-height":
						if v, err := parsePixelValue(attr.Value); err == nil {
							config.MaxHeight = v
						}
					}
				}

				// Parse children of editor
				elements, err := parseElements(decoder)
				if err != nil {
					return nil, err
				}
				config.Elements = elements
				break
			}
		}
	}

	return &config, nil
}

// parsePixelValue parses a pixel value string (e.g., "340", "340px") to int.
func parsePixelValue(s string) (int, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "px")
	var v int
	_, err := fmt.Sscanf(s, "%d", &v)
	return v, err
}

// parseElements recursively parses child elements.
func parseElements(decoder *xml.Decoder) ([]LayoutElement, error) {
	var elements []LayoutElement

	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read element: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			elemName := strings.ToLower(t.Name.Local)
			elemType, ok := ValidElements[elemName]
			if !ok {
				return nil, fmt.Errorf("unknown element type: %s", elemName)
			}

			elem := LayoutElement{
				Type:       elemType,
				Attributes: make(map[string]string),
			}

			// Parse attributes
			for _, attr := range t.Attr {
				elem.Attributes[attr.Name.Local] = attr.Value
			}

			// Parse children
			children, err := parseElements(decoder)
			if err != nil {
				return nil, err
			}
			elem.Children = children

			elements = append(elements, elem)

		case xml.EndElement:
			// End of parent element
			return elements, nil
		}
	}

	return elements, nil
}

// ParseTemplateString parses a template from a string.
func ParseTemplateString(s string) (*LayoutConfig, error) {
	return ParseTemplate(strings.NewReader(s))
}

// LoadTemplate loads a template from file.
func LoadTemplate(path string) (*LayoutConfig, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open template: %w", err)
	}
	defer func() { _ = f.Close() }()
	return ParseTemplate(f)
}

// Loader handles loading layout templates from various sources.
type Loader struct {
	templatesDir string
}

// NewLoader creates a new template loader.
func NewLoader(templatesDir string) *Loader {
	return &Loader{templatesDir: templatesDir}
}

// Load loads a layout template by name.
// Checks user directory first, then embedded templates.
func (l *Loader) Load(name string) (*LayoutConfig, error) {
	if name == "" {
		name = "default"
	}

	// Check user directory first
	if l.templatesDir != "" {
		templatePath := filepath.Join(l.templatesDir, name+".xml")
		if _, err := os.Stat(templatePath); err == nil {
			config, err := LoadTemplate(templatePath)
			if err != nil {
				return nil, err
			}
			if err := ValidateForEditor(config); err != nil {
				return nil, fmt.Errorf("template %s: %w", name, err)
			}
			return config, nil
		}
	}

	// Fall back to embedded templates
	if config, found := GetEmbeddedTemplate(name); found {
		return config, nil
	}

	if name == "default" {
		return DefaultLayout(), nil
	}

	return nil, fmt.Errorf("layout template not found: %s", name)
}

// DefaultLayout returns the default editor layout.
func DefaultLayout() *LayoutConfig {
	return &LayoutConfig{
		MinWidth:  340,
		MaxWidth:  340, // Fixed width
		MinHeight: 0,   // Dynamic height
		MaxHeight: 320,
		Elements: []LayoutElement{
			{
				Type: ElementTypeHeader,
				Children: []LayoutElement{
					{Type: ElementTypePriority},
					{
						Type: ElementTypeBox,
						Attributes: map[string]string{
							"orientation": "vertical",
						},
						Children: []LayoutElement{
							{Type: ElementTypeLabel},
							{Type: ElementTypeSource},
						},
					},
					{Type: ElementTypeClose},
				},
			},
			{Type: ElementTypeNote},
			{Type: ElementTypePosition},
			{Type: ElementTypeActions},
		},
	}
}

// CompactLayout returns a minimal layout without source or position rows.
func CompactLayout() *LayoutConfig {
	return &LayoutConfig{
		MinWidth:  340,
		MaxWidth:  340, // Fixed width
		MinHeight: 0,   // Dynamic height
		MaxHeight: 320,
		Elements: []LayoutElement{
			{
				Type: ElementTypeHeader,
				Children: []LayoutElement{
					{Type: ElementTypeLabel},
					{Type: ElementTypeClose},
				},
			},
			{Type: ElementTypeNote},
			{Type: ElementTypeActions},
		},
	}
}

// DefaultTemplateXML returns the default template as XML string.
func DefaultTemplateXML() string {
	return `<editor min-width="340" max-width="340" max-height="320">
  <header>
    <priority />
    <box orientation="vertical">
      <label />
      <source />
    </box>
    <close />
  </header>
  <note />
  <position />
  <actions />
</editor>`
}
