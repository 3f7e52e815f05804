// Package core provides filtering, sorting, and lookup logic.
package core

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/scrawl-tools/scrawl/internal/model"
)

// FilterOp represents a comparison operator.
type FilterOp string

const (
	FilterOpEqual     FilterOp = "="  // Exact match
	FilterOpNotEqual  FilterOp = "!=" // Not equal
	FilterOpContains  FilterOp = "~"  // Contains substring
	FilterOpRegex     FilterOp = "~=" // Regex match
	FilterOpGreater   FilterOp = ">"  // Greater than
	FilterOpLess      FilterOp = "<"  // Less than
	FilterOpGreaterEq FilterOp = ">=" // Greater than or equal
	FilterOpLessEq    FilterOp = "<=" // Less than or equal
)

// FilterCondition represents a single filter condition.
type FilterCondition struct {
	Field    string   // Field name: label, note, source, priority, timestamp, resolved, archived
	Operator FilterOp // Comparison operator
	Value    string   // Value to compare against

	// Cached parsed values for efficiency
	regex       *regexp.Regexp // Compiled regex for ~= operator
	priorityVal int            // Parsed priority value
	timestampOp time.Time      // Parsed timestamp for comparison
	boolVal     bool           // Parsed bool value
}

// FilterExpr represents a compound filter expression.
// Multiple conditions are ANDed together.
type FilterExpr struct {
	Conditions []FilterCondition
}

// FilterOptions specifies criteria for filtering annotations.
type FilterOptions struct {
	Since        time.Duration // Filter to annotations newer than now-since (0=all)
	SourceFilter string        // Exact match on source
	Priority     *int          // Filter by priority level (nil=any)
	Limit        int           // Maximum results (0=unlimited)
}

// Filter filters annotations based on the provided options.
func Filter(annotations []model.Annotation, opts FilterOptions) []model.Annotation {
	now := time.Now()
	result := make([]model.Annotation, 0, len(annotations))

	for _, a := range annotations {
		// Time filter
		if opts.Since > 0 {
			cutoff := now.Add(-opts.Since)
			if time.Unix(a.Timestamp, 0).Before(cutoff) {
				continue
			}
		}

		// Source filter
		if opts.SourceFilter != "" && a.ScrawlSource != opts.SourceFilter {
			continue
		}

		// Priority filter
		if opts.Priority != nil && a.Priority != *opts.Priority {
			continue
		}

		result = append(result, a)
	}

	// Apply limit
	if opts.Limit > 0 && len(result) > opts.Limit {
		result = result[:opts.Limit]
	}

	return result
}

// ParseDuration parses a duration string with extended formats.
// Supports: 48h, 7d, 1w, 0 (all time)
func ParseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)

	// Special case: 0 means no filter (all time)
	if s == "0" || s == "" {
		return 0, nil
	}

	// Handle day suffix (7d -> 168h)
	if daysStr, found := strings.CutSuffix(s, "d"); found {
		days, err := strconv.Atoi(daysStr)
		if err != nil {
			return 0, fmt.Errorf("invalid duration: %s", s)
		}
		return time.Duration(days) * 24 * time.Hour, nil
	}

	// Handle week suffix (1w -> 168h)
	if weeksStr, found := strings.CutSuffix(s, "w"); found {
		weeks, err := strconv.Atoi(weeksStr)
		if err != nil {
			return 0, fmt.Errorf("invalid duration: %s", s)
		}
		return time.Duration(weeks) * 7 * 24 * time.Hour, nil
	}

	// Standard Go duration parsing
	return time.ParseDuration(s)
}

// ParsePriority parses a priority string to its integer value.
// Accepts: low, normal, high, 0, 1, 2
func ParsePriority(s string) (int, error) {
	s = strings.ToLower(strings.TrimSpace(s))

	switch s {
	case "low", "0":
		return model.PriorityLow, nil
	case "normal", "1":
		return model.PriorityNormal, nil
	case "high", "2":
		return model.PriorityHigh, nil
	default:
		return 0, fmt.Errorf("invalid priority: %s (use low, normal, or high)", s)
	}
}

// ParseFilter parses a filter expression string into a FilterExpr.
// Format: "field=value,field2~value2,field3>value3"
// Multiple conditions are comma-separated and ANDed together.
//
// Supported fields: label, note, source, priority, resolved, archived, timestamp
// Supported operators: = (equal), != (not equal), ~ (contains), ~= (regex), >, <, >=, <=
//
// Examples:
//   - "label=checkout" - exact label match
//   - "note~broken" - note contains "broken"
//   - "priority>=normal" - priority is normal or higher
//   - "source=overlay,priority=high" - high-priority overlay captures
//   - "note~=(?i)regression" - note matches regex (case-insensitive "regression")
//   - "timestamp>1h" - annotations from the last hour
func ParseFilter(expr string) (*FilterExpr, error) {
	if expr == "" {
		return &FilterExpr{}, nil
	}

	filter := &FilterExpr{
		Conditions: make([]FilterCondition, 0),
	}

	// Split by comma
	for part := range strings.SplitSeq(expr, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		cond, err := parseCondition(part)
		if err != nil {
			return nil, err
		}
		filter.Conditions = append(filter.Conditions, cond)
	}

	return filter, nil
}

// parseCondition parses a single condition like "label=checkout" or "note~broken"
func parseCondition(s string) (FilterCondition, error) {
	// Try operators in order of specificity (longest first)
	operators := []FilterOp{
		FilterOpNotEqual,  // != (must be before =)
		FilterOpGreaterEq, // >= (must be before >)
		FilterOpLessEq,    // <= (must be before <)
		FilterOpRegex,     // ~= (must be before ~)
		FilterOpEqual,
		FilterOpContains,
		FilterOpGreater,
		FilterOpLess,
	}

	for _, op := range operators {
		idx := strings.Index(s, string(op))
		if idx > 0 {
			field := strings.TrimSpace(s[:idx])
			value := strings.TrimSpace(s[idx+len(op):])

			cond := FilterCondition{
				Field:    strings.ToLower(field),
				Operator: op,
				Value:    value,
			}

			// Pre-parse and validate based on field type
			if err := cond.init(); err != nil {
				return FilterCondition{}, err
			}

			return cond, nil
		}
	}

	return FilterCondition{}, fmt.Errorf("invalid filter condition: %s (missing operator)", s)
}

// init pre-parses and validates the condition value.
func (c *FilterCondition) init() error {
	switch c.Field {
	case "label", "title":
		c.Field = "label" // Normalize
	case "note", "body", "text":
		c.Field = "note"
	case "source", "src":
		c.Field = "source"
	case "priority", "prio":
		c.Field = "priority"
		// Parse priority value
		p, err := ParsePriority(c.Value)
		if err != nil {
			return err
		}
		c.priorityVal = p
	case "resolved", "done":
		c.Field = "resolved"
		c.boolVal = parseBool(c.Value)
	case "archived", "archive":
		c.Field = "archived"
		c.boolVal = parseBool(c.Value)
	case "timestamp", "time", "ts":
		c.Field = "timestamp"
		// Parse duration for relative time comparisons
		dur, err := ParseDuration(c.Value)
		if err != nil {
			return fmt.Errorf("invalid timestamp value: %w", err)
		}
		c.timestampOp = time.Now().Add(-dur)
	default:
		return fmt.Errorf("unknown filter field: %s", c.Field)
	}

	// Compile regex if needed
	if c.Operator == FilterOpRegex {
		re, err := regexp.Compile(c.Value)
		if err != nil {
			return fmt.Errorf("invalid regex: %w", err)
		}
		c.regex = re
	}

	return nil
}

// parseBool parses various boolean representations.
func parseBool(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "true", "yes", "1", "y", "t":
		return true
	default:
		return false
	}
}

// Match tests if an annotation matches the filter expression.
// All conditions must match (AND logic).
func (f *FilterExpr) Match(a model.Annotation) bool {
	for _, cond := range f.Conditions {
		if !cond.Match(a) {
			return false
		}
	}
	return true
}

// Match tests if an annotation matches this single condition.
func (c *FilterCondition) Match(a model.Annotation) bool {
	switch c.Field {
	case "label":
		return c.matchString(a.Label)
	case "note":
		return c.matchString(a.Note)
	case "source":
		return c.matchString(a.ScrawlSource)
	case "priority":
		return c.matchInt(a.Priority, c.priorityVal)
	case "resolved":
		return c.matchBool(a.IsResolved())
	case "archived":
		return c.matchBool(a.IsArchived())
	case "timestamp":
		return c.matchTimestamp(time.Unix(a.Timestamp, 0))
	default:
		return false
	}
}

// matchString matches a string field.
func (c *FilterCondition) matchString(fieldValue string) bool {
	switch c.Operator {
	case FilterOpEqual:
		return fieldValue == c.Value
	case FilterOpNotEqual:
		return fieldValue != c.Value
	case FilterOpContains:
		return strings.Contains(strings.ToLower(fieldValue), strings.ToLower(c.Value))
	case FilterOpRegex:
		return c.regex != nil && c.regex.MatchString(fieldValue)
	default:
		return false
	}
}

// matchInt matches an integer field with numeric comparison.
func (c *FilterCondition) matchInt(fieldValue, condValue int) bool {
	switch c.Operator {
	case FilterOpEqual:
		return fieldValue == condValue
	case FilterOpNotEqual:
		return fieldValue != condValue
	case FilterOpGreater:
		return fieldValue > condValue
	case FilterOpLess:
		return fieldValue < condValue
	case FilterOpGreaterEq:
		return fieldValue >= condValue
	case FilterOpLessEq:
		return fieldValue <= condValue
	default:
		return false
	}
}

// matchBool matches a boolean field.
func (c *FilterCondition) matchBool(fieldValue bool) bool {
	switch c.Operator {
	case FilterOpEqual:
		return fieldValue == c.boolVal
	case FilterOpNotEqual:
		return fieldValue != c.boolVal
	default:
		return false
	}
}

// matchTimestamp matches a timestamp field.
func (c *FilterCondition) matchTimestamp(fieldValue time.Time) bool {
	switch c.Operator {
	case FilterOpGreater:
		return fieldValue.After(c.timestampOp)
	case FilterOpLess:
		return fieldValue.Before(c.timestampOp)
	case FilterOpGreaterEq:
		return fieldValue.After(c.timestampOp) || fieldValue.Equal(c.timestampOp)
	case FilterOpLessEq:
		return fieldValue.Before(c.timestampOp) || fieldValue.Equal(c.timestampOp)
	default:
		return false
	}
}

// FilterWithExpr filters annotations using a filter expression.
func FilterWithExpr(annotations []model.Annotation, expr *FilterExpr) []model.Annotation {
	if expr == nil || len(expr.Conditions) == 0 {
		return annotations
	}

	result := make([]model.Annotation, 0, len(annotations))
	for _, a := range annotations {
		if expr.Match(a) {
			result = append(result, a)
		}
	}
	return result
}
