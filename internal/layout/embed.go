package layout

import (
	"embed"
	"fmt"
	"strings"
)

//go:embed templates/*.xml
var EmbeddedTemplates embed.FS

// GetEmbeddedTemplate returns a bundled editor template by name, without
// the .xml extension. Templates that parse but cannot function as an
// annotation editor are rejected the same as missing ones.
func GetEmbeddedTemplate(name string) (*LayoutConfig, bool) {
	data, err := EmbeddedTemplates.ReadFile("templates/" + name + ".xml")
	if err != nil {
		return nil, false
	}

	config, err := ParseTemplateString(string(data))
	if err != nil {
		return nil, false
	}
	if err := ValidateForEditor(config); err != nil {
		return nil, false
	}

	return config, true
}

// ListEmbeddedTemplates returns the names of all bundled templates.
func ListEmbeddedTemplates() []string {
	entries, err := EmbeddedTemplates.ReadDir("templates")
	if err != nil {
		return nil
	}

	var names []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".xml") {
			names = append(names, strings.TrimSuffix(entry.Name(), ".xml"))
		}
	}
	return names
}

// ValidateForEditor checks that a layout can serve as an annotation
// editor: it must place a note field somewhere, or the user could never
// type anything, and an actions row, or the annotation could never be
// saved or resolved. Elements nested inside header or box containers
// count.
func ValidateForEditor(config *LayoutConfig) error {
	found := map[ElementType]bool{}
	markTypes(config.Elements, found)

	if !found[ElementTypeNote] {
		return fmt.Errorf("layout has no note element")
	}
	if !found[ElementTypeActions] {
		return fmt.Errorf("layout has no actions element")
	}
	return nil
}

func markTypes(elements []LayoutElement, found map[ElementType]bool) {
	for _, el := range elements {
		found[el.Type] = true
		markTypes(el.Children, found)
	}
}
