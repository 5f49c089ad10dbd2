package vectorstore

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRegistry(t *testing.T) (*Registry, string) {
	t.Helper()
	dir := t.TempDir()
	return NewRegistry(dir, zerolog.Nop()), dir
}

func TestRegistry_RoundTrip(t *testing.T) {
	reg, dir := testRegistry(t)

	entries := []Entry{
		entry("doc-1:0000", []float32{0.3, 0.1, 0.9}),
		entry("doc-1:0001", []float32{0.8, 0.2, 0.1}),
		entry("doc-1:0002", []float32{0.1, 0.9, 0.4}),
	}
	require.NoError(t, reg.Add("sess-1", entries))

	query := []float32{0.5, 0.5, 0.5}
	before, err := reg.Query("sess-1", query, TopKAll)
	require.NoError(t, err)
	require.Len(t, before, 3)

	// Simulate a restart: a fresh registry over the same directory.
	reloaded := NewRegistry(dir, zerolog.Nop())
	after, err := reloaded.Query("sess-1", query, TopKAll)
	require.NoError(t, err)
	assert.Equal(t, before, after, "persisted index must reproduce ranked results exactly")
}

func TestRegistry_LoadMissingIsEmpty(t *testing.T) {
	reg, _ := testRegistry(t)
	results, err := reg.Query("sess-never-seen", []float32{1, 0}, TopKAll)
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.Equal(t, 0, reg.Count("sess-never-seen"))
}

func TestRegistry_DeleteRemovesArtifacts(t *testing.T) {
	reg, dir := testRegistry(t)
	require.NoError(t, reg.Add("sess-1", []Entry{entry("a", []float32{1, 0})}))

	require.FileExists(t, filepath.Join(dir, "sess-1.index"))
	require.FileExists(t, filepath.Join(dir, "sess-1.meta"))

	require.NoError(t, reg.Delete("sess-1"))
	assert.NoFileExists(t, filepath.Join(dir, "sess-1.index"))
	assert.NoFileExists(t, filepath.Join(dir, "sess-1.meta"))
	assert.Equal(t, 0, reg.Count("sess-1"))
}

func TestRegistry_DeleteUnknownIsNoop(t *testing.T) {
	reg, _ := testRegistry(t)
	assert.NoError(t, reg.Delete("sess-ghost"))
}

func TestRegistry_CorruptArtifactDegradesToEmpty(t *testing.T) {
	reg, dir := testRegistry(t)
	require.NoError(t, reg.Add("sess-1", []Entry{entry("a", []float32{1, 0})}))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "sess-1.meta"), []byte("{garbage"), 0o644))

	reloaded := NewRegistry(dir, zerolog.Nop())
	results, err := reloaded.Query("sess-1", []float32{1, 0}, TopKAll)
	require.NoError(t, err)
	assert.Empty(t, results, "corrupt sidecar must degrade to an empty index")
}

func TestRegistry_IndexWithoutSidecarIsCorrupt(t *testing.T) {
	reg, dir := testRegistry(t)
	require.NoError(t, reg.Add("sess-1", []Entry{entry("a", []float32{1, 0})}))
	require.NoError(t, os.Remove(filepath.Join(dir, "sess-1.meta")))

	reloaded := NewRegistry(dir, zerolog.Nop())
	assert.Equal(t, 0, reloaded.Count("sess-1"))
}

func TestRegistry_IsolationBetweenSessions(t *testing.T) {
	reg, _ := testRegistry(t)
	require.NoError(t, reg.Add("sess-1", []Entry{entry("a", []float32{1, 0})}))
	require.NoError(t, reg.Add("sess-2", []Entry{entry("b", []float32{0, 1})}))

	r1, err := reg.Query("sess-1", []float32{1, 0}, TopKAll)
	require.NoError(t, err)
	require.Len(t, r1, 1)
	assert.Equal(t, "a", r1[0].ChunkID)

	r2, err := reg.Query("sess-2", []float32{0, 1}, TopKAll)
	require.NoError(t, err)
	require.Len(t, r2, 1)
	assert.Equal(t, "b", r2[0].ChunkID)
}

func TestRegistry_MismatchedGenerationsAreCorrupt(t *testing.T) {
	reg, dir := testRegistry(t)
	require.NoError(t, reg.Add("sess-1", []Entry{
		entry("a", []float32{1, 0}),
		entry("b", []float32{0, 1}),
	}))

	// Keep the old sidecar, then re-save with replaced vectors: same
	// dimension, same entry count, different generation. A crash between
	// the two renames produces exactly this pairing.
	staleMeta, err := os.ReadFile(filepath.Join(dir, "sess-1.meta"))
	require.NoError(t, err)
	require.NoError(t, reg.Add("sess-1", []Entry{
		entry("a", []float32{0, 1}),
		entry("b", []float32{1, 0}),
	}))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sess-1.meta"), staleMeta, 0o644))

	reloaded := NewRegistry(dir, zerolog.Nop())
	assert.Equal(t, 0, reloaded.Count("sess-1"),
		"index and sidecar from different saves must degrade to an empty index")
}

func TestRegistry_ConcurrentFirstAccess(t *testing.T) {
	reg, dir := testRegistry(t)
	require.NoError(t, reg.Add("sess-1", []Entry{entry("a", []float32{1, 0})}))
	require.NoError(t, reg.Add("sess-2", []Entry{entry("b", []float32{0, 1})}))

	reloaded := NewRegistry(dir, zerolog.Nop())
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		session := "sess-1"
		if i%2 == 1 {
			session = "sess-2"
		}
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			assert.Equal(t, 1, reloaded.Count(id))
		}(session)
	}
	wg.Wait()

	// Repeated Gets hand back the same loaded index, not fresh loads.
	assert.Same(t, reloaded.Get("sess-1"), reloaded.Get("sess-1"))
}
