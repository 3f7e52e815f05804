package tui

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/scrawl-tools/scrawl/internal/model"
)

// Filter expressions let the search box match on structured fields
// instead of plain substring search. An expression is one or more
// comma-separated terms of the form field<op>value, for example:
//
//	label=todo
//	source!=dbus,priority>=normal
//	note~=(?i)follow.?up
//	timestamp<1h
//
// Anything that doesn't parse as an expression falls back to plain
// text search across label, note, and source.

// filterFields are the fields recognized in filter expressions.
var filterFields = map[string]bool{
	"label":     true,
	"note":      true,
	"source":    true,
	"priority":  true,
	"resolved":  true,
	"archived":  true,
	"timestamp": true,
}

// filterOps ordered longest-first so ">=" is matched before ">".
var filterOps = []string{"!=", ">=", "<=", "~=", "=", "~", ">", "<"}

// filterTerm is a single parsed field<op>value term.
type filterTerm struct {
	field string
	op    string
	value string
}

// isFilterExpression reports whether the query parses as a filter
// expression. Every comma-separated term must have a valid field and
// operator for the whole query to count as one.
func isFilterExpression(query string) bool {
	if query == "" {
		return false
	}

	terms, ok := parseFilterExpression(query)
	return ok && len(terms) > 0
}

// parseFilterExpression splits a query into terms. Returns false if any
// term is malformed or names an unknown field.
func parseFilterExpression(query string) ([]filterTerm, bool) {
	parts := strings.Split(query, ",")
	terms := make([]filterTerm, 0, len(parts))

	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			return nil, false
		}

		term, ok := parseFilterTerm(part)
		if !ok {
			return nil, false
		}
		terms = append(terms, term)
	}

	return terms, true
}

// parseFilterTerm parses a single field<op>value term.
func parseFilterTerm(s string) (filterTerm, bool) {
	for _, op := range filterOps {
		idx := strings.Index(s, op)
		if idx <= 0 {
			continue
		}

		field := strings.ToLower(strings.TrimSpace(s[:idx]))
		value := strings.TrimSpace(s[idx+len(op):])

		if !filterFields[field] {
			return filterTerm{}, false
		}
		if value == "" {
			return filterTerm{}, false
		}

		return filterTerm{field: field, op: op, value: value}, true
	}

	return filterTerm{}, false
}

// matchesFilterExpression reports whether an annotation matches all
// terms of a filter expression. Terms are ANDed together.
func matchesFilterExpression(a *model.Annotation, query string) bool {
	terms, ok := parseFilterExpression(query)
	if !ok {
		return false
	}

	for _, term := range terms {
		if !matchesTerm(a, term) {
			return false
		}
	}
	return true
}

// matchesTerm evaluates one term against an annotation.
func matchesTerm(a *model.Annotation, term filterTerm) bool {
	switch term.field {
	case "label":
		return matchString(a.Label, term)
	case "note":
		return matchString(a.Note, term)
	case "source":
		return matchString(a.ScrawlSource, term)
	case "priority":
		return matchPriority(a.Priority, term)
	case "resolved":
		return matchBool(a.IsResolved(), term)
	case "archived":
		return matchBool(a.IsArchived(), term)
	case "timestamp":
		return matchAge(a.Timestamp, term)
	default:
		return false
	}
}

// matchString compares string fields. Comparisons are case-insensitive
// except for regex, which controls its own flags.
func matchString(value string, term filterTerm) bool {
	switch term.op {
	case "=":
		return strings.EqualFold(value, term.value)
	case "!=":
		return !strings.EqualFold(value, term.value)
	case "~":
		return strings.Contains(strings.ToLower(value), strings.ToLower(term.value))
	case "~=":
		re, err := regexp.Compile(term.value)
		if err != nil {
			return false
		}
		return re.MatchString(value)
	default:
		return false
	}
}

// matchPriority compares the priority level. Values can be names
// (low, normal, high) or numbers (0-2).
func matchPriority(priority int, term filterTerm) bool {
	target, ok := parsePriorityValue(term.value)
	if !ok {
		return false
	}

	switch term.op {
	case "=":
		return priority == target
	case "!=":
		return priority != target
	case ">":
		return priority > target
	case "<":
		return priority < target
	case ">=":
		return priority >= target
	case "<=":
		return priority <= target
	default:
		return false
	}
}

// parsePriorityValue parses a priority name or number.
func parsePriorityValue(s string) (int, bool) {
	switch strings.ToLower(s) {
	case "low":
		return model.PriorityLow, true
	case "normal":
		return model.PriorityNormal, true
	case "high":
		return model.PriorityHigh, true
	}

	n, err := strconv.Atoi(s)
	if err != nil || n < 0 || n > 2 {
		return 0, false
	}
	return n, true
}

// matchBool compares boolean fields against "true"/"false".
func matchBool(value bool, term filterTerm) bool {
	target, err := strconv.ParseBool(term.value)
	if err != nil {
		return false
	}

	switch term.op {
	case "=":
		return value == target
	case "!=":
		return value != target
	default:
		return false
	}
}

// matchAge compares the annotation age against a duration.
// "timestamp<1h" matches annotations captured less than an hour ago.
func matchAge(timestamp int64, term filterTerm) bool {
	d, err := time.ParseDuration(term.value)
	if err != nil {
		return false
	}

	age := time.Since(time.Unix(timestamp, 0))

	switch term.op {
	case "<", "<=":
		return age <= d
	case ">", ">=":
		return age >= d
	case "=":
		return age <= d
	default:
		return false
	}
}
