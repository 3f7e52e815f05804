// Package core provides filtering, sorting, and lookup logic.
package core

import (
	"sort"
	"strings"

	"github.com/scrawl-tools/scrawl/internal/model"
)

// SortField represents a field to sort by.
type SortField string

const (
	SortByTimestamp SortField = "timestamp"
	SortByLabel     SortField = "label"
	SortByPriority  SortField = "priority"
)

// SortOrder represents ascending or descending order.
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// SortOptions specifies sorting criteria.
type SortOptions struct {
	Field SortField // Field to sort by
	Order SortOrder // Sort order (asc/desc)
}

// DefaultSortOptions returns default sort options (newest first).
func DefaultSortOptions() SortOptions {
	return SortOptions{
		Field: SortByTimestamp,
		Order: SortDesc,
	}
}

// Sort sorts annotations in place based on the provided options.
func Sort(annotations []model.Annotation, opts SortOptions) {
	if len(annotations) == 0 {
		return
	}

	sort.SliceStable(annotations, func(i, j int) bool {
		var less bool

		switch opts.Field {
		case SortByTimestamp:
			less = annotations[i].Timestamp < annotations[j].Timestamp
		case SortByLabel:
			less = strings.ToLower(annotations[i].Label) < strings.ToLower(annotations[j].Label)
		case SortByPriority:
			less = annotations[i].Priority < annotations[j].Priority
		default:
			less = annotations[i].Timestamp < annotations[j].Timestamp
		}

		if opts.Order == SortDesc {
			return !less
		}
		return less
	})
}

// ParseSortField parses a sort field string.
func ParseSortField(s string) (SortField, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "timestamp", "time", "t":
		return SortByTimestamp, nil
	case "label", "l":
		return SortByLabel, nil
	case "priority", "p":
		return SortByPriority, nil
	default:
		return SortByTimestamp, nil
	}
}

// ParseSortOrder parses a sort order string.
func ParseSortOrder(s string) (SortOrder, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "asc", "ascending", "a":
		return SortAsc, nil
	case "desc", "descending", "d":
		return SortDesc, nil
	default:
		return SortDesc, nil
	}
}
