// Package store provides the history store for annotations.
package store

import (
	"sort"
	"sync"
	"time"

	"github.com/scrawl-tools/scrawl/internal/model"
)

// ChangeType indicates the type of store change.
type ChangeType int

const (
	// ChangeTypeAdd indicates annotations were added.
	ChangeTypeAdd ChangeType = iota
	// ChangeTypeClear indicates all annotations were cleared.
	ChangeTypeClear
	// ChangeTypePrune indicates annotations were pruned.
	ChangeTypePrune
	// ChangeTypeDelete indicates an annotation was deleted.
	ChangeTypeDelete
)

// ChangeEvent signals store content changes.
type ChangeEvent struct {
	Type   ChangeType
	Count  int
	Source string
}

// FilterOptions specifies criteria for filtering annotations.
type FilterOptions struct {
	Since        time.Duration // Filter to annotations newer than now-since (0=all)
	SourceFilter string        // Exact match on source
	Priority     *int          // Filter by priority level (nil=any)
	Limit        int           // Maximum results (0=unlimited)
	SortField    string        // Field to sort by: "timestamp", "label", "priority"
	SortOrder    string        // "asc" or "desc" (default: "desc")
}

// Store manages the annotation history with thread-safe operations.
type Store struct {
	mu          sync.RWMutex
	annotations []model.Annotation
	index       map[string]int  // scrawl_id -> slice index
	hashIndex   map[string]int  // content_hash -> slice index (for deduplication)
	tombstones  map[string]bool // content_hash -> true (for deleted items)

	persistence Persistence
	persistPath string

	subscribers []chan ChangeEvent
	closed      bool
}

// NewStore creates a new Store.
// If persistence is not nil, it will be used to persist annotations.
func NewStore(persistence Persistence) *Store {
	return &Store{
		annotations: make([]model.Annotation, 0),
		index:       make(map[string]int),
		hashIndex:   make(map[string]int),
		tombstones:  make(map[string]bool),
		persistence: persistence,
		subscribers: make([]chan ChangeEvent, 0),
	}
}

// Add adds a single annotation to the store.
func (s *Store) Add(a model.Annotation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}

	// Ensure content hash is computed for deduplication
	a.EnsureContentHash()

	// Check if this was previously deleted (tombstone)
	if s.tombstones[a.ContentHash] {
		return nil // Was deleted, don't reimport
	}

	// Check for duplicates by content hash (primary deduplication)
	if _, exists := s.hashIndex[a.ContentHash]; exists {
		return nil // Duplicate content, skip
	}

	// Also check by ULID (for safety)
	if _, exists := s.index[a.ScrawlID]; exists {
		return nil // Already exists, skip
	}

	// Add to slice and indices
	idx := len(s.annotations)
	s.annotations = append(s.annotations, a)
	s.index[a.ScrawlID] = idx
	s.hashIndex[a.ContentHash] = idx

	// Persist if enabled
	if s.persistence != nil {
		if err := s.persistence.Append(a); err != nil {
			return err
		}
	}

	// Notify subscribers
	s.notifyChange(ChangeEvent{
		Type:   ChangeTypeAdd,
		Count:  1,
		Source: a.ScrawlSource,
	})

	return nil
}

// AddBatch adds multiple annotations efficiently.
func (s *Store) AddBatch(as []model.Annotation) error {
	if len(as) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}

	// Filter out duplicates by content hash
	toAdd := make([]model.Annotation, 0, len(as))
	seenHashes := make(map[string]bool) // Track hashes within this batch too

	for i := range as {
		// Ensure content hash is computed
		as[i].EnsureContentHash()
		hash := as[i].ContentHash

		// Skip if this was previously deleted (tombstone)
		if s.tombstones[hash] {
			continue
		}

		// Skip if already in store (by content hash)
		if _, exists := s.hashIndex[hash]; exists {
			continue
		}

		// Skip if already seen in this batch
		if seenHashes[hash] {
			continue
		}

		// Skip if already in store (by ULID, for safety)
		if _, exists := s.index[as[i].ScrawlID]; exists {
			continue
		}

		seenHashes[hash] = true
		toAdd = append(toAdd, as[i])
	}

	if len(toAdd) == 0 {
		return nil
	}

	// Add to slice and update indices
	startIdx := len(s.annotations)
	s.annotations = append(s.annotations, toAdd...)
	for i, a := range toAdd {
		idx := startIdx + i
		s.index[a.ScrawlID] = idx
		s.hashIndex[a.ContentHash] = idx
	}

	// Persist if enabled
	if s.persistence != nil {
		if err := s.persistence.AppendBatch(toAdd); err != nil {
			return err
		}
	}

	// Notify subscribers
	source := ""
	if len(toAdd) > 0 {
		source = toAdd[0].ScrawlSource
	}
	s.notifyChange(ChangeEvent{
		Type:   ChangeTypeAdd,
		Count:  len(toAdd),
		Source: source,
	})

	return nil
}

// All returns all annotations sorted by timestamp (newest first by default).
func (s *Store) All() []model.Annotation {
	s.mu.RLock()
	defer s.mu.RUnlock()

	// Return copy sorted by timestamp desc
	result := make([]model.Annotation, len(s.annotations))
	copy(result, s.annotations)

	sort.Slice(result, func(i, j int) bool {
		return result[i].Timestamp > result[j].Timestamp
	})

	return result
}

// Filter returns annotations matching the criteria.
func (s *Store) Filter(opts FilterOptions) []model.Annotation {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := time.Now()
	var result []model.Annotation

	for _, a := range s.annotations {
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

	// Sort
	sortField := opts.SortField
	if sortField == "" {
		sortField = "timestamp"
	}
	sortOrder := opts.SortOrder
	if sortOrder == "" {
		sortOrder = "desc"
	}

	sortAnnotations(result, sortField, sortOrder)

	// Limit
	if opts.Limit > 0 && len(result) > opts.Limit {
		result = result[:opts.Limit]
	}

	return result
}

// Lookup finds an annotation by ULID or content match.
func (s *Store) Lookup(input string) *model.Annotation {
	s.mu.RLock()
	defer s.mu.RUnlock()

	// First, try exact ULID match
	if idx, exists := s.index[input]; exists {
		a := s.annotations[idx]
		return &a
	}

	// Try to extract ULID from input (first 26 chars if it looks like a ULID)
	if len(input) >= 26 {
		potentialULID := input[:26]
		if idx, exists := s.index[potentialULID]; exists {
			a := s.annotations[idx]
			return &a
		}
	}

	// Content-based match (fallback)
	// This is less reliable, so we return the most recent match
	var bestMatch *model.Annotation
	for i := len(s.annotations) - 1; i >= 0; i-- {
		a := s.annotations[i]
		// Check if input contains label and note
		if containsAnnotation(input, &a) {
			if bestMatch == nil || a.Timestamp > bestMatch.Timestamp {
				aCopy := a
				bestMatch = &aCopy
			}
		}
	}

	return bestMatch
}

// GetByID returns an annotation by its ULID.
func (s *Store) GetByID(id string) *model.Annotation {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if idx, exists := s.index[id]; exists {
		a := s.annotations[idx]
		return &a
	}
	return nil
}

// Delete removes an annotation by its ULID.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}

	idx, exists := s.index[id]
	if !exists {
		return nil // Not found, nothing to do
	}

	// Remove from slice
	s.annotations = append(s.annotations[:idx], s.annotations[idx+1:]...)

	// Rebuild indices
	s.rebuildIndices()

	// Rewrite persistence file if enabled
	if s.persistence != nil {
		if err := s.persistence.Rewrite(s.annotations); err != nil {
			return err
		}
	}

	s.notifyChange(ChangeEvent{
		Type:  ChangeTypeDelete,
		Count: 1,
	})

	return nil
}

// Count returns the total number of annotations.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.annotations)
}

// Update modifies an annotation in the store.
func (s *Store) Update(a model.Annotation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}

	idx, exists := s.index[a.ScrawlID]
	if !exists {
		return nil // Not found
	}

	// Update in slice
	s.annotations[idx] = a

	// Persist by rewriting (could be optimized later)
	if s.persistence != nil {
		if err := s.persistence.Rewrite(s.annotations); err != nil {
			return err
		}
	}

	return nil
}

// Resolve marks an annotation as resolved.
func (s *Store) Resolve(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}

	idx, exists := s.index[id]
	if !exists {
		return nil // Not found
	}

	// Mark as resolved
	s.annotations[idx].MarkResolved()

	// Persist
	if s.persistence != nil {
		if err := s.persistence.Rewrite(s.annotations); err != nil {
			return err
		}
	}

	return nil
}

// Archive marks an annotation as archived (soft delete).
func (s *Store) Archive(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}

	idx, exists := s.index[id]
	if !exists {
		return nil // Not found
	}

	s.annotations[idx].MarkArchived()

	if s.persistence != nil {
		if err := s.persistence.Rewrite(s.annotations); err != nil {
			return err
		}
	}

	return nil
}

// DeleteWithTombstone removes an annotation and remembers its hash to prevent reimport.
func (s *Store) DeleteWithTombstone(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}

	idx, exists := s.index[id]
	if !exists {
		return nil // Not found, nothing to do
	}

	// Get the content hash before deleting
	hash := s.annotations[idx].ContentHash
	if hash == "" {
		// Compute it if not set
		s.annotations[idx].EnsureContentHash()
		hash = s.annotations[idx].ContentHash
	}

	// Add to tombstones
	s.tombstones[hash] = true

	// Remove from slice
	s.annotations = append(s.annotations[:idx], s.annotations[idx+1:]...)

	// Rebuild indices
	s.rebuildIndices()

	// Rewrite persistence file if enabled
	if s.persistence != nil {
		if err := s.persistence.Rewrite(s.annotations); err != nil {
			return err
		}
	}

	s.notifyChange(ChangeEvent{
		Type:  ChangeTypeDelete,
		Count: 1,
	})

	return nil
}

// rebuildIndices recreates the ID and hash indices from the slice.
// Caller must hold the write lock.
func (s *Store) rebuildIndices() {
	s.index = make(map[string]int, len(s.annotations))
	s.hashIndex = make(map[string]int, len(s.annotations))
	for i, a := range s.annotations {
		s.index[a.ScrawlID] = i
		if a.ContentHash != "" {
			s.hashIndex[a.ContentHash] = i
		}
	}
}

// AddTombstone adds a content hash to the tombstone set.
func (s *Store) AddTombstone(hash string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tombstones[hash] = true
}

// GetTombstones returns all tombstone hashes.
func (s *Store) GetTombstones() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	hashes := make([]string, 0, len(s.tombstones))
	for h := range s.tombstones {
		hashes = append(hashes, h)
	}
	return hashes
}

// LoadTombstones adds tombstones from a slice of hashes.
func (s *Store) LoadTombstones(hashes []string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, h := range hashes {
		s.tombstones[h] = true
	}
}

// Subscribe returns a channel that receives change events.
func (s *Store) Subscribe() <-chan ChangeEvent {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch := make(chan ChangeEvent, 10)
	s.subscribers = append(s.subscribers, ch)
	return ch
}

// Unsubscribe removes a subscription.
func (s *Store) Unsubscribe(ch <-chan ChangeEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, sub := range s.subscribers {
		// Compare by checking if it's the same channel
		if sub == ch {
			s.subscribers = append(s.subscribers[:i], s.subscribers[i+1:]...)
			close(sub)
			return
		}
	}
}

// Close releases resources and closes all subscriber channels.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	// Close all subscriber channels
	for _, ch := range s.subscribers {
		close(ch)
	}
	s.subscribers = nil

	// Close persistence
	if s.persistence != nil {
		return s.persistence.Close()
	}

	return nil
}

// Hydrate loads annotations from persistence into the store.
func (s *Store) Hydrate() error {
	if s.persistence == nil {
		return nil
	}

	annotations, err := s.persistence.Load()
	if err != nil {
		return err
	}

	s.mu.Lock()
	added := 0
	for i := range annotations {
		a := &annotations[i]

		// Ensure content hash exists (for older records without it)
		a.EnsureContentHash()

		// Skip duplicates by content hash
		if _, exists := s.hashIndex[a.ContentHash]; exists {
			continue
		}

		// Skip duplicates by ULID
		if _, exists := s.index[a.ScrawlID]; exists {
			continue
		}

		idx := len(s.annotations)
		s.annotations = append(s.annotations, *a)
		s.index[a.ScrawlID] = idx
		s.hashIndex[a.ContentHash] = idx
		added++
	}
	s.mu.Unlock()

	// Notify subscribers if any new annotations were added
	if added > 0 {
		s.notifyChange(ChangeEvent{
			Type:   ChangeTypeAdd,
			Count:  added,
			Source: "persistence",
		})
	}

	return nil
}

// Clear removes all annotations from the store.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}

	count := len(s.annotations)
	s.annotations = make([]model.Annotation, 0)
	s.index = make(map[string]int)
	s.hashIndex = make(map[string]int)

	if s.persistence != nil {
		if err := s.persistence.Clear(); err != nil {
			return err
		}
	}

	s.notifyChange(ChangeEvent{
		Type:  ChangeTypeClear,
		Count: count,
	})

	return nil
}

// notifyChange sends a change event to all subscribers (non-blocking).
func (s *Store) notifyChange(event ChangeEvent) {
	for _, ch := range s.subscribers {
		select {
		case ch <- event:
		default:
			// Channel full, skip
		}
	}
}

// sortAnnotations sorts annotations in-place.
func sortAnnotations(as []model.Annotation, field, order string) {
	sort.Slice(as, func(i, j int) bool {
		var less bool
		switch field {
		case "label":
			less = as[i].Label < as[j].Label
		case "priority":
			less = as[i].Priority < as[j].Priority
		default: // timestamp
			less = as[i].Timestamp < as[j].Timestamp
		}
		if order == "desc" {
			return !less
		}
		return less
	})
}

// containsAnnotation checks if input contains annotation content.
func containsAnnotation(input string, a *model.Annotation) bool {
	// Simple containment check - input should contain the label
	return len(input) > 0 && contains(input, a.Label)
}

func contains(s, substr string) bool {
	return len(substr) > 0 && len(s) >= len(substr) && indexOf(s, substr) >= 0
}

func indexOf(s, substr string) int {
	for i := 0; i <= len(s)-len(substr); i++ {
		if s[i:i+len(substr)] == substr {
			return i
		}
	}
	return -1
}

// Errors
var (
	ErrStoreClosed = storeError("store is closed")
)

type storeError string

func (e storeError) Error() string {
	return string(e)
}
