package tui

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/scrawl-tools/scrawl/internal/model"
)

func TestIsFilterExpression(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		expected bool
	}{
		// Valid filter expressions
		{"label_equal", "label=todo", true},
		{"label_not_equal", "label!=fixme", true},
		{"note_contains", "note~meeting", true},
		{"note_regex", "note~=(?i)error", true},
		{"priority_greater", "priority>normal", true},
		{"priority_less", "priority<high", true},
		{"priority_greater_eq", "priority>=normal", true},
		{"priority_less_eq", "priority<=normal", true},
		{"archived", "archived=true", true},
		{"resolved", "resolved=false", true},
		{"timestamp", "timestamp<1h", true},
		{"source", "source=dbus", true},
		{"multiple", "source=cli,priority=high", true},

		// Not filter expressions (plain text search)
		{"plain_word", "meeting", false},
		{"plain_phrase", "important note", false},
		{"email_address", "user@example.com", false}, // @ is not a filter operator
		{"url", "https://example.com", false},
		{"unknown_field", "unknown=value", false},
		{"just_equals", "=value", false},
		{"number", "12345", false},
		{"empty", "", false},

		// Edge cases
		{"partial_field", "lab=todo", false},              // "lab" is not a valid field
		{"case_insensitive_field", "LABEL=todo", true},    // fields are case-insensitive
		{"mixed_valid_invalid", "label=todo,bogus", false}, // all terms must parse
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := isFilterExpression(tt.query)
			assert.Equal(t, tt.expected, result, "query: %q", tt.query)
		})
	}
}

func TestMatchesFilterExpression(t *testing.T) {
	a := &model.Annotation{
		ScrawlID:     "01HTEST000000000000000000",
		ScrawlSource: "dbus",
		Label:        "Broken Button",
		Note:         "The save button does nothing on click",
		Timestamp:    time.Now().Add(-30 * time.Minute).Unix(),
		Priority:     model.PriorityHigh,
	}
	a.ScrawlResolvedAt = time.Now().Unix()

	tests := []struct {
		name     string
		query    string
		expected bool
	}{
		{"label_match", "label=broken button", true},
		{"label_no_match", "label=other", false},
		{"label_contains", "label~broken", true},
		{"note_regex", "note~=(?i)SAVE", true},
		{"source_not_equal", "source!=cli", true},
		{"priority_name", "priority=high", true},
		{"priority_numeric", "priority=2", true},
		{"priority_greater", "priority>normal", true},
		{"priority_less", "priority<high", false},
		{"resolved_true", "resolved=true", true},
		{"archived_false", "archived=false", true},
		{"age_within", "timestamp<1h", true},
		{"age_outside", "timestamp>1h", false},
		{"multiple_all_match", "source=dbus,priority>=normal", true},
		{"multiple_one_fails", "source=dbus,priority<normal", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := matchesFilterExpression(a, tt.query)
			assert.Equal(t, tt.expected, result, "query: %q", tt.query)
		})
	}
}
