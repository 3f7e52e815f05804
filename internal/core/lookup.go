// Package core provides filtering, sorting, and lookup logic.
package core

import (
	"strings"

	"github.com/scrawl-tools/scrawl/internal/model"
)

// LookupByID finds an annotation by its ScrawlID.
// Returns nil if not found.
func LookupByID(annotations []model.Annotation, id string) *model.Annotation {
	for i := range annotations {
		if annotations[i].ScrawlID == id {
			return &annotations[i]
		}
	}
	return nil
}

// LookupByIndex finds an annotation by its index (1-based for user-friendliness).
// Returns nil if index is out of bounds.
func LookupByIndex(annotations []model.Annotation, index int) *model.Annotation {
	// Convert to 0-based
	idx := index - 1
	if idx < 0 || idx >= len(annotations) {
		return nil
	}
	return &annotations[idx]
}

// Search finds annotations matching a search term in label or note.
// Case-insensitive substring match.
func Search(annotations []model.Annotation, term string) []model.Annotation {
	if term == "" {
		return annotations
	}

	term = strings.ToLower(term)
	var result []model.Annotation

	for _, a := range annotations {
		if strings.Contains(strings.ToLower(a.Label), term) ||
			strings.Contains(strings.ToLower(a.Note), term) {
			result = append(result, a)
		}
	}

	return result
}

// UniqueLabels returns a sorted list of unique labels from annotations.
func UniqueLabels(annotations []model.Annotation) []string {
	seen := make(map[string]bool)
	var labels []string

	for _, a := range annotations {
		if a.Label != "" && !seen[a.Label] {
			seen[a.Label] = true
			labels = append(labels, a.Label)
		}
	}

	// Sort alphabetically
	sortStrings(labels)
	return labels
}

// sortStrings sorts strings in place (simple insertion sort for small lists).
func sortStrings(s []string) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && strings.ToLower(s[j]) < strings.ToLower(s[j-1]); j-- {
			s[j], s[j-1] = s[j-1], s[j]
		}
	}
}
