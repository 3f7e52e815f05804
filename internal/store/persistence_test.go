package store

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scrawl-tools/scrawl/internal/model"
)

func TestNewJSONLPersistence(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.jsonl")

	p, err := NewJSONLPersistence(path)
	require.NoError(t, err)
	defer p.Close()

	// File should exist
	_, err = os.Stat(path)
	require.NoError(t, err)

	// File should have header
	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), "scrawl_schema_version")
}

func TestNewJSONLPersistence_CreatesDirectory(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "subdir", "nested", "test.jsonl")

	p, err := NewJSONLPersistence(path)
	require.NoError(t, err)
	defer p.Close()

	// Directory should exist
	_, err = os.Stat(filepath.Dir(path))
	require.NoError(t, err)
}

func TestJSONLPersistence_AppendAndLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.jsonl")

	p, err := NewJSONLPersistence(path)
	require.NoError(t, err)

	// Append annotations
	a1 := persistTestAnnotation("persist1")
	a2 := persistTestAnnotation("persist2")

	err = p.Append(a1)
	require.NoError(t, err)

	err = p.Append(a2)
	require.NoError(t, err)

	// Load and verify
	annotations, err := p.Load()
	require.NoError(t, err)
	assert.Len(t, annotations, 2)
	assert.Equal(t, "persist1", annotations[0].ScrawlID)
	assert.Equal(t, "persist2", annotations[1].ScrawlID)

	p.Close()
}

func TestJSONLPersistence_AppendBatch(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.jsonl")

	p, err := NewJSONLPersistence(path)
	require.NoError(t, err)

	as := []model.Annotation{
		persistTestAnnotation("batch1"),
		persistTestAnnotation("batch2"),
		persistTestAnnotation("batch3"),
	}

	err = p.AppendBatch(as)
	require.NoError(t, err)

	annotations, err := p.Load()
	require.NoError(t, err)
	assert.Len(t, annotations, 3)

	p.Close()
}

func TestJSONLPersistence_Rewrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.jsonl")

	p, err := NewJSONLPersistence(path)
	require.NoError(t, err)

	// Add initial annotations
	p.Append(persistTestAnnotation("old1"))
	p.Append(persistTestAnnotation("old2"))
	p.Append(persistTestAnnotation("old3"))

	// Rewrite with new set
	newAs := []model.Annotation{
		persistTestAnnotation("new1"),
		persistTestAnnotation("new2"),
	}

	err = p.Rewrite(newAs)
	require.NoError(t, err)

	// Verify
	annotations, err := p.Load()
	require.NoError(t, err)
	assert.Len(t, annotations, 2)
	assert.Equal(t, "new1", annotations[0].ScrawlID)
	assert.Equal(t, "new2", annotations[1].ScrawlID)

	// Backup should be removed
	_, err = os.Stat(path + ".bak")
	assert.True(t, os.IsNotExist(err))

	p.Close()
}

func TestJSONLPersistence_Clear(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.jsonl")

	p, err := NewJSONLPersistence(path)
	require.NoError(t, err)

	p.Append(persistTestAnnotation("clear1"))
	p.Append(persistTestAnnotation("clear2"))

	err = p.Clear()
	require.NoError(t, err)

	annotations, err := p.Load()
	require.NoError(t, err)
	assert.Len(t, annotations, 0)

	// File should still have header
	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), "scrawl_schema_version")

	p.Close()
}

func TestJSONLPersistence_LoadWithReopenedFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.jsonl")

	// Create and write
	p1, err := NewJSONLPersistence(path)
	require.NoError(t, err)
	p1.Append(persistTestAnnotation("reopen1"))
	p1.Append(persistTestAnnotation("reopen2"))
	p1.Close()

	// Reopen and load
	p2, err := NewJSONLPersistence(path)
	require.NoError(t, err)
	defer p2.Close()

	annotations, err := p2.Load()
	require.NoError(t, err)
	assert.Len(t, annotations, 2)
}

func TestJSONLPersistence_FilePermissions(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.jsonl")

	p, err := NewJSONLPersistence(path)
	require.NoError(t, err)
	p.Close()

	info, err := os.Stat(path)
	require.NoError(t, err)

	// Should be 0600
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestJSONLPersistence_SkipsMalformedLines(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.jsonl")

	// Write file with malformed lines
	content := `{"scrawl_schema_version":1,"created_at":1703577600}
{"scrawl_id":"valid1","scrawl_source":"test","label":"Test","x":10,"y":20,"timestamp":1703577600,"priority":1,"priority_name":"normal"}
{invalid json}
{"scrawl_id":"valid2","scrawl_source":"test","label":"Test","x":10,"y":20,"timestamp":1703577601,"priority":1,"priority_name":"normal"}
`
	err := os.WriteFile(path, []byte(content), 0600)
	require.NoError(t, err)

	p, err := NewJSONLPersistence(path)
	require.NoError(t, err)
	defer p.Close()

	annotations, err := p.Load()
	require.NoError(t, err)
	assert.Len(t, annotations, 2)
}

func TestJSONLPersistence_SchemaVersionCheck(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.jsonl")

	// Write file with future schema version
	content := `{"scrawl_schema_version":999,"created_at":1703577600}
{"scrawl_id":"test1","scrawl_source":"test","label":"Test","x":10,"y":20,"timestamp":1703577600,"priority":1,"priority_name":"normal"}
`
	err := os.WriteFile(path, []byte(content), 0600)
	require.NoError(t, err)

	p, err := NewJSONLPersistence(path)
	require.NoError(t, err)
	defer p.Close()

	_, err = p.Load()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported schema version")
}

func TestStoreWithPersistence(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.jsonl")

	// Create store with persistence
	p, err := NewJSONLPersistence(path)
	require.NoError(t, err)

	s := NewStore(p)

	// Add annotations
	s.Add(persistTestAnnotation("persist1"))
	s.Add(persistTestAnnotation("persist2"))

	s.Close()

	// Create new store and hydrate
	p2, err := NewJSONLPersistence(path)
	require.NoError(t, err)

	s2 := NewStore(p2)
	err = s2.Hydrate()
	require.NoError(t, err)

	assert.Equal(t, 2, s2.Count())

	s2.Close()
}

func TestRecoverFromCorruption(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.jsonl")

	// Write file with corruption
	content := `{"scrawl_schema_version":1,"created_at":1703577600}
{"scrawl_id":"valid1","scrawl_source":"test","label":"Test","x":10,"y":20,"timestamp":1703577600,"priority":1,"priority_name":"normal","scrawl_captured_at":1703577600}
corrupt line that will break things
{"scrawl_id":"valid2","scrawl_source":"test","label":"Test","x":10,"y":20,"timestamp":1703577601,"priority":1,"priority_name":"normal","scrawl_captured_at":1703577601}
`
	err := os.WriteFile(path, []byte(content), 0600)
	require.NoError(t, err)

	// Recover
	err = RecoverFromCorruption(path)
	require.NoError(t, err)

	// Verify recovered file
	p, err := NewJSONLPersistence(path)
	require.NoError(t, err)
	defer p.Close()

	annotations, err := p.Load()
	require.NoError(t, err)
	assert.Len(t, annotations, 2)

	// Backup should exist
	matches, _ := filepath.Glob(path + ".corrupted.*")
	assert.Len(t, matches, 1)
}

func persistTestAnnotation(id string) model.Annotation {
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
