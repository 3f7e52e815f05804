package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scrawl-tools/scrawl/internal/model"
)

func TestFilter_Empty(t *testing.T) {
	result := Filter(nil, FilterOptions{})
	assert.Len(t, result, 0)
}

func TestFilter_NoFilters(t *testing.T) {
	annotations := []model.Annotation{
		{ScrawlID: "1", ScrawlSource: "overlay"},
		{ScrawlID: "2", ScrawlSource: "import"},
	}

	result := Filter(annotations, FilterOptions{})
	assert.Len(t, result, 2)
}

func TestFilter_BySource(t *testing.T) {
	annotations := []model.Annotation{
		{ScrawlID: "1", ScrawlSource: "overlay"},
		{ScrawlID: "2", ScrawlSource: "import"},
		{ScrawlID: "3", ScrawlSource: "overlay"},
	}

	result := Filter(annotations, FilterOptions{SourceFilter: "overlay"})
	assert.Len(t, result, 2)
	for _, a := range result {
		assert.Equal(t, "overlay", a.ScrawlSource)
	}
}

func TestFilter_ByPriority(t *testing.T) {
	high := model.PriorityHigh
	annotations := []model.Annotation{
		{ScrawlID: "1", Priority: model.PriorityLow},
		{ScrawlID: "2", Priority: model.PriorityHigh},
		{ScrawlID: "3", Priority: model.PriorityHigh},
	}

	result := Filter(annotations, FilterOptions{Priority: &high})
	assert.Len(t, result, 2)
	for _, a := range result {
		assert.Equal(t, model.PriorityHigh, a.Priority)
	}
}

func TestFilter_BySince(t *testing.T) {
	now := time.Now()
	annotations := []model.Annotation{
		{ScrawlID: "1", Timestamp: now.Add(-30 * time.Minute).Unix()},
		{ScrawlID: "2", Timestamp: now.Add(-2 * time.Hour).Unix()},
		{ScrawlID: "3", Timestamp: now.Add(-5 * time.Hour).Unix()},
	}

	result := Filter(annotations, FilterOptions{Since: time.Hour})
	assert.Len(t, result, 1)
	assert.Equal(t, "1", result[0].ScrawlID)
}

func TestFilter_WithLimit(t *testing.T) {
	annotations := []model.Annotation{
		{ScrawlID: "1"},
		{ScrawlID: "2"},
		{ScrawlID: "3"},
		{ScrawlID: "4"},
		{ScrawlID: "5"},
	}

	result := Filter(annotations, FilterOptions{Limit: 3})
	assert.Len(t, result, 3)
}

func TestFilter_Combined(t *testing.T) {
	now := time.Now()
	high := model.PriorityHigh
	annotations := []model.Annotation{
		{ScrawlID: "1", ScrawlSource: "overlay", Priority: model.PriorityHigh, Timestamp: now.Add(-30 * time.Minute).Unix()},
		{ScrawlID: "2", ScrawlSource: "overlay", Priority: model.PriorityNormal, Timestamp: now.Add(-30 * time.Minute).Unix()},
		{ScrawlID: "3", ScrawlSource: "import", Priority: model.PriorityHigh, Timestamp: now.Add(-30 * time.Minute).Unix()},
		{ScrawlID: "4", ScrawlSource: "overlay", Priority: model.PriorityHigh, Timestamp: now.Add(-5 * time.Hour).Unix()},
	}

	result := Filter(annotations, FilterOptions{
		SourceFilter: "overlay",
		Priority:     &high,
		Since:        time.Hour,
	})
	assert.Len(t, result, 1)
	assert.Equal(t, "1", result[0].ScrawlID)
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		input    string
		expected time.Duration
		hasError bool
	}{
		{"0", 0, false},
		{"", 0, false},
		{"1h", time.Hour, false},
		{"30m", 30 * time.Minute, false},
		{"48h", 48 * time.Hour, false},
		{"7d", 7 * 24 * time.Hour, false},
		{"1w", 7 * 24 * time.Hour, false},
		{"2w", 14 * 24 * time.Hour, false},
		{"invalid", 0, true},
		{"xd", 0, true},
		{"xw", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result, err := ParseDuration(tt.input)
			if tt.hasError {
				assert.Error(t, err)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.expected, result)
			}
		})
	}
}

func TestParsePriority(t *testing.T) {
	tests := []struct {
		input    string
		expected int
		hasError bool
	}{
		{"low", model.PriorityLow, false},
		{"LOW", model.PriorityLow, false},
		{"0", model.PriorityLow, false},
		{"normal", model.PriorityNormal, false},
		{"NORMAL", model.PriorityNormal, false},
		{"1", model.PriorityNormal, false},
		{"high", model.PriorityHigh, false},
		{"HIGH", model.PriorityHigh, false},
		{"2", model.PriorityHigh, false},
		{"invalid", 0, true},
		{"3", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result, err := ParsePriority(tt.input)
			if tt.hasError {
				assert.Error(t, err)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.expected, result)
			}
		})
	}
}

func TestParseFilter(t *testing.T) {
	t.Run("empty expression", func(t *testing.T) {
		expr, err := ParseFilter("")
		require.NoError(t, err)
		assert.Len(t, expr.Conditions, 0)
	})

	t.Run("single condition", func(t *testing.T) {
		expr, err := ParseFilter("label=checkout")
		require.NoError(t, err)
		require.Len(t, expr.Conditions, 1)
		assert.Equal(t, "label", expr.Conditions[0].Field)
		assert.Equal(t, FilterOpEqual, expr.Conditions[0].Operator)
		assert.Equal(t, "checkout", expr.Conditions[0].Value)
	})

	t.Run("multiple conditions", func(t *testing.T) {
		expr, err := ParseFilter("label=checkout,priority>=normal")
		require.NoError(t, err)
		assert.Len(t, expr.Conditions, 2)
	})

	t.Run("unknown field", func(t *testing.T) {
		_, err := ParseFilter("bogus=x")
		assert.Error(t, err)
	})

	t.Run("missing operator", func(t *testing.T) {
		_, err := ParseFilter("label")
		assert.Error(t, err)
	})

	t.Run("invalid regex", func(t *testing.T) {
		_, err := ParseFilter("note~=[")
		assert.Error(t, err)
	})
}

func TestFilterExpr_Match(t *testing.T) {
	now := time.Now().Unix()
	annotations := []model.Annotation{
		{ScrawlID: "1", ScrawlSource: "overlay", Label: "checkout button", Note: "submit broken", Priority: model.PriorityHigh, Timestamp: now},
		{ScrawlID: "2", ScrawlSource: "overlay", Label: "header logo", Note: "slightly off center", Priority: model.PriorityLow, Timestamp: now},
		{ScrawlID: "3", ScrawlSource: "import", Label: "checkout flow", Note: "page reload loses cart", Priority: model.PriorityNormal, Timestamp: now, ScrawlResolvedAt: now},
	}

	tests := []struct {
		name    string
		expr    string
		wantIDs []string
	}{
		{"label contains", "label~checkout", []string{"1", "3"}},
		{"note regex", "note~=(?i)BROKEN", []string{"1"}},
		{"priority at least normal", "priority>=normal", []string{"1", "3"}},
		{"source exact", "source=import", []string{"3"}},
		{"resolved true", "resolved=true", []string{"3"}},
		{"resolved false", "resolved=false", []string{"1", "2"}},
		{"combined", "source=overlay,priority=high", []string{"1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expr, err := ParseFilter(tt.expr)
			require.NoError(t, err)

			result := FilterWithExpr(annotations, expr)
			ids := make([]string, 0, len(result))
			for _, a := range result {
				ids = append(ids, a.ScrawlID)
			}
			assert.Equal(t, tt.wantIDs, ids)
		})
	}
}

func TestFilterWithExpr_NilExpr(t *testing.T) {
	annotations := []model.Annotation{{ScrawlID: "1"}}
	result := FilterWithExpr(annotations, nil)
	assert.Len(t, result, 1)
}
