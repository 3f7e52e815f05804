package core

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/scrawl-tools/scrawl/internal/model"
)

func TestLookupByID(t *testing.T) {
	annotations := []model.Annotation{
		{ScrawlID: "abc123", Label: "checkout"},
		{ScrawlID: "def456", Label: "sidebar"},
		{ScrawlID: "ghi789", Label: "header"},
	}

	t.Run("found", func(t *testing.T) {
		result := LookupByID(annotations, "def456")
		assert.NotNil(t, result)
		assert.Equal(t, "sidebar", result.Label)
	})

	t.Run("not found", func(t *testing.T) {
		result := LookupByID(annotations, "notexist")
		assert.Nil(t, result)
	})

	t.Run("empty slice", func(t *testing.T) {
		result := LookupByID(nil, "abc123")
		assert.Nil(t, result)
	})
}

func TestLookupByIndex(t *testing.T) {
	annotations := []model.Annotation{
		{ScrawlID: "1", Label: "checkout"},
		{ScrawlID: "2", Label: "sidebar"},
		{ScrawlID: "3", Label: "header"},
	}

	t.Run("valid index 1", func(t *testing.T) {
		result := LookupByIndex(annotations, 1)
		assert.NotNil(t, result)
		assert.Equal(t, "checkout", result.Label)
	})

	t.Run("valid index 3", func(t *testing.T) {
		result := LookupByIndex(annotations, 3)
		assert.NotNil(t, result)
		assert.Equal(t, "header", result.Label)
	})

	t.Run("index 0 out of bounds", func(t *testing.T) {
		result := LookupByIndex(annotations, 0)
		assert.Nil(t, result)
	})

	t.Run("negative index", func(t *testing.T) {
		result := LookupByIndex(annotations, -1)
		assert.Nil(t, result)
	})

	t.Run("index too high", func(t *testing.T) {
		result := LookupByIndex(annotations, 10)
		assert.Nil(t, result)
	})

	t.Run("empty slice", func(t *testing.T) {
		result := LookupByIndex(nil, 1)
		assert.Nil(t, result)
	})
}

func TestSearch(t *testing.T) {
	annotations := []model.Annotation{
		{ScrawlID: "1", Label: "Checkout Button", Note: "submit does nothing"},
		{ScrawlID: "2", Label: "Sidebar", Note: "overlaps the footer on resize"},
		{ScrawlID: "3", Label: "Header Logo", Note: "blurry on retina displays"},
	}

	t.Run("match in label", func(t *testing.T) {
		result := Search(annotations, "checkout")
		assert.Len(t, result, 1)
		assert.Equal(t, "1", result[0].ScrawlID)
	})

	t.Run("match in note", func(t *testing.T) {
		result := Search(annotations, "footer")
		assert.Len(t, result, 1)
		assert.Equal(t, "2", result[0].ScrawlID)
	})

	t.Run("case insensitive", func(t *testing.T) {
		result := Search(annotations, "RETINA")
		assert.Len(t, result, 1)
		assert.Equal(t, "3", result[0].ScrawlID)
	})

	t.Run("multiple matches", func(t *testing.T) {
		// "o" appears in every annotation
		result := Search(annotations, "o")
		assert.Len(t, result, 3)
	})

	t.Run("no matches", func(t *testing.T) {
		result := Search(annotations, "xyz123")
		assert.Len(t, result, 0)
	})

	t.Run("empty search term returns all", func(t *testing.T) {
		result := Search(annotations, "")
		assert.Len(t, result, 3)
	})
}

func TestUniqueLabels(t *testing.T) {
	t.Run("basic", func(t *testing.T) {
		annotations := []model.Annotation{
			{Label: "header"},
			{Label: "sidebar"},
			{Label: "header"},
			{Label: "checkout"},
		}

		labels := UniqueLabels(annotations)
		assert.Len(t, labels, 3)
		assert.Equal(t, "checkout", labels[0])
		assert.Equal(t, "header", labels[1])
		assert.Equal(t, "sidebar", labels[2])
	})

	t.Run("empty labels excluded", func(t *testing.T) {
		annotations := []model.Annotation{
			{Label: "header"},
			{Label: ""},
			{Label: "sidebar"},
		}

		labels := UniqueLabels(annotations)
		assert.Len(t, labels, 2)
	})

	t.Run("empty slice", func(t *testing.T) {
		labels := UniqueLabels(nil)
		assert.Len(t, labels, 0)
	})
}
