package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scrawl-tools/scrawl/internal/model"
)

func TestNewStore(t *testing.T) {
	s := NewStore(nil)
	assert.NotNil(t, s)
	assert.Equal(t, 0, s.Count())
}

func TestStore_Add(t *testing.T) {
	s := NewStore(nil)
	defer s.Close()

	a := testAnnotation("test1")
	err := s.Add(a)
	require.NoError(t, err)
	assert.Equal(t, 1, s.Count())

	// Add duplicate - should be skipped
	err = s.Add(a)
	require.NoError(t, err)
	assert.Equal(t, 1, s.Count())

	// Add different annotation
	a2 := testAnnotation("test2")
	err = s.Add(a2)
	require.NoError(t, err)
	assert.Equal(t, 2, s.Count())
}

func TestStore_AddBatch(t *testing.T) {
	s := NewStore(nil)
	defer s.Close()

	as := []model.Annotation{
		testAnnotation("batch1"),
		testAnnotation("batch2"),
		testAnnotation("batch3"),
	}

	err := s.AddBatch(as)
	require.NoError(t, err)
	assert.Equal(t, 3, s.Count())

	// Add batch with duplicates
	as2 := []model.Annotation{
		testAnnotation("batch3"), // duplicate
		testAnnotation("batch4"), // new
	}
	err = s.AddBatch(as2)
	require.NoError(t, err)
	assert.Equal(t, 4, s.Count())
}

func TestStore_All(t *testing.T) {
	s := NewStore(nil)
	defer s.Close()

	now := time.Now().Unix()
	a1 := testAnnotationWithTime("old", now-100)
	a2 := testAnnotationWithTime("new", now)

	s.Add(a1)
	s.Add(a2)

	all := s.All()
	require.Len(t, all, 2)

	// Should be sorted newest first
	assert.Equal(t, "new", all[0].ScrawlID)
	assert.Equal(t, "old", all[1].ScrawlID)
}

func TestStore_Filter(t *testing.T) {
	s := NewStore(nil)
	defer s.Close()

	now := time.Now().Unix()

	// Add annotations with different properties
	a1 := model.Annotation{
		ScrawlID:         "filter1",
		ScrawlSource:     "overlay",
		ScrawlCapturedAt: now,
		Label:            "old checkout bug",
		Timestamp:        now - 3600, // 1 hour ago
		Priority:         model.PriorityNormal,
		PriorityName:     "normal",
	}
	a2 := model.Annotation{
		ScrawlID:         "filter2",
		ScrawlSource:     "import",
		ScrawlCapturedAt: now,
		Label:            "recent sidebar glitch",
		Timestamp:        now - 60, // 1 minute ago
		Priority:         model.PriorityNormal,
		PriorityName:     "normal",
	}
	a3 := model.Annotation{
		ScrawlID:         "filter3",
		ScrawlSource:     "overlay",
		ScrawlCapturedAt: now,
		Label:            "new checkout bug",
		Timestamp:        now, // now
		Priority:         model.PriorityHigh,
		PriorityName:     "high",
	}

	s.Add(a1)
	s.Add(a2)
	s.Add(a3)

	t.Run("filter by since", func(t *testing.T) {
		result := s.Filter(FilterOptions{Since: 30 * time.Minute})
		assert.Len(t, result, 2) // Only last 30 minutes (a2 and a3)
	})

	t.Run("filter by source", func(t *testing.T) {
		result := s.Filter(FilterOptions{SourceFilter: "overlay"})
		assert.Len(t, result, 2) // a1 and a3
	})

	t.Run("filter by priority", func(t *testing.T) {
		priority := model.PriorityHigh
		result := s.Filter(FilterOptions{Priority: &priority})
		assert.Len(t, result, 1) // a3
	})

	t.Run("filter with limit", func(t *testing.T) {
		result := s.Filter(FilterOptions{Limit: 2})
		assert.Len(t, result, 2)
	})

	t.Run("sort by label asc", func(t *testing.T) {
		result := s.Filter(FilterOptions{SortField: "label", SortOrder: "asc"})
		assert.Equal(t, "new checkout bug", result[0].Label)
	})

	t.Run("combined filters", func(t *testing.T) {
		result := s.Filter(FilterOptions{
			SourceFilter: "overlay",
			Limit:        1,
		})
		assert.Len(t, result, 1)
	})
}

func TestStore_Lookup(t *testing.T) {
	s := NewStore(nil)
	defer s.Close()

	a := testAnnotation("ULID12345678901234567890")
	a.Label = "checkout button"
	s.Add(a)

	t.Run("lookup by exact ULID", func(t *testing.T) {
		result := s.Lookup("ULID12345678901234567890")
		require.NotNil(t, result)
		assert.Equal(t, "checkout button", result.Label)
	})

	t.Run("lookup by ULID prefix in string", func(t *testing.T) {
		result := s.Lookup("ULID12345678901234567890 | checkout button | 5m ago")
		require.NotNil(t, result)
		assert.Equal(t, "checkout button", result.Label)
	})

	t.Run("lookup by content fallback", func(t *testing.T) {
		result := s.Lookup("checkout button | 5m ago")
		require.NotNil(t, result)
		assert.Equal(t, "checkout button", result.Label)
	})

	t.Run("lookup not found", func(t *testing.T) {
		result := s.Lookup("nonexistent")
		assert.Nil(t, result)
	})
}

func TestStore_Delete(t *testing.T) {
	s := NewStore(nil)
	defer s.Close()

	a1 := testAnnotation("delete1")
	a2 := testAnnotation("delete2")
	s.Add(a1)
	s.Add(a2)

	assert.Equal(t, 2, s.Count())

	err := s.Delete("delete1")
	require.NoError(t, err)
	assert.Equal(t, 1, s.Count())

	// Verify a2 is still there
	result := s.GetByID("delete2")
	require.NotNil(t, result)
}

func TestStore_DeleteWithTombstone(t *testing.T) {
	s := NewStore(nil)
	defer s.Close()

	a := testAnnotation("tomb1")
	s.Add(a)
	assert.Equal(t, 1, s.Count())

	err := s.DeleteWithTombstone("tomb1")
	require.NoError(t, err)
	assert.Equal(t, 0, s.Count())

	// Re-adding the same content should be blocked by the tombstone
	err = s.Add(a)
	require.NoError(t, err)
	assert.Equal(t, 0, s.Count())
}

func TestStore_ResolveAndArchive(t *testing.T) {
	s := NewStore(nil)
	defer s.Close()

	a := testAnnotation("resolve1")
	s.Add(a)

	err := s.Resolve("resolve1")
	require.NoError(t, err)

	got := s.GetByID("resolve1")
	require.NotNil(t, got)
	assert.True(t, got.IsResolved())
	assert.False(t, got.IsArchived())

	err = s.Archive("resolve1")
	require.NoError(t, err)

	got = s.GetByID("resolve1")
	require.NotNil(t, got)
	assert.True(t, got.IsArchived())
}

func TestStore_Subscribe(t *testing.T) {
	s := NewStore(nil)
	defer s.Close()

	ch := s.Subscribe()
	require.NotNil(t, ch)

	// Add annotation
	go func() {
		s.Add(testAnnotation("sub1"))
	}()

	// Should receive event
	select {
	case event := <-ch:
		assert.Equal(t, ChangeTypeAdd, event.Type)
		assert.Equal(t, 1, event.Count)
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for event")
	}
}

func TestStore_Unsubscribe(t *testing.T) {
	s := NewStore(nil)

	ch := s.Subscribe()
	s.Unsubscribe(ch)

	// Channel should be closed
	_, ok := <-ch
	assert.False(t, ok)

	s.Close()
}

func TestStore_Clear(t *testing.T) {
	s := NewStore(nil)
	defer s.Close()

	s.Add(testAnnotation("clear1"))
	s.Add(testAnnotation("clear2"))
	assert.Equal(t, 2, s.Count())

	err := s.Clear()
	require.NoError(t, err)
	assert.Equal(t, 0, s.Count())
}

func TestStore_Close(t *testing.T) {
	s := NewStore(nil)
	s.Add(testAnnotation("close1"))

	err := s.Close()
	require.NoError(t, err)

	// Operations should fail on closed store
	err = s.Add(testAnnotation("close2"))
	assert.ErrorIs(t, err, ErrStoreClosed)
}

// Helper functions

func testAnnotation(id string) model.Annotation {
	return model.Annotation{
		ScrawlID:         id,
		ScrawlSource:     "test",
		ScrawlCapturedAt: time.Now().Unix(),
		Label:            "test label " + id, // Include ID to make content unique
		Note:             "test note",
		X:                100,
		Y:                200,
		Timestamp:        time.Now().Unix(),
		Priority:         model.PriorityNormal,
		PriorityName:     "normal",
	}
}

func testAnnotationWithTime(id string, timestamp int64) model.Annotation {
	a := testAnnotation(id)
	a.Timestamp = timestamp
	return a
}
