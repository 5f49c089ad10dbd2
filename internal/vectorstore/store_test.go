package vectorstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func entry(id string, vec []float32) Entry {
	return Entry{
		ChunkID:   id,
		Embedding: vec,
		Metadata:  Metadata{DocumentID: "doc-1", Filename: "notes.pdf", Category: "notes", Text: "text " + id},
	}
}

func TestIndex_AddAndQueryRanking(t *testing.T) {
	ix := NewIndex()
	err := ix.Add([]Entry{
		entry("doc-1:0000", []float32{1, 0, 0}),
		entry("doc-1:0001", []float32{0, 1, 0}),
		entry("doc-1:0002", []float32{1, 1, 0}),
	})
	require.NoError(t, err)

	results, err := ix.Query([]float32{1, 0, 0}, TopKAll)
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, "doc-1:0000", results[0].ChunkID)
	assert.Equal(t, "doc-1:0002", results[1].ChunkID)
	assert.Equal(t, "doc-1:0001", results[2].ChunkID)
	assert.InDelta(t, 1.0, float64(results[0].Score), 1e-5)
	assert.Equal(t, "text doc-1:0000", results[0].Metadata.Text)
}

func TestIndex_QueryTopK(t *testing.T) {
	ix := NewIndex()
	require.NoError(t, ix.Add([]Entry{
		entry("a", []float32{1, 0}),
		entry("b", []float32{0, 1}),
		entry("c", []float32{1, 1}),
	}))

	results, err := ix.Query([]float32{1, 0}, 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "a", results[0].ChunkID)
	assert.Equal(t, "c", results[1].ChunkID)
}

func TestIndex_TiesBrokenByChunkID(t *testing.T) {
	// Identical vectors score identically; order must be ascending chunk id.
	ix := NewIndex()
	require.NoError(t, ix.Add([]Entry{
		entry("z", []float32{1, 1}),
		entry("a", []float32{1, 1}),
		entry("m", []float32{1, 1}),
	}))

	results, err := ix.Query([]float32{1, 1}, TopKAll)
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, []string{"a", "m", "z"}, []string{results[0].ChunkID, results[1].ChunkID, results[2].ChunkID})
}

func TestIndex_ReAddReplaces(t *testing.T) {
	ix := NewIndex()
	require.NoError(t, ix.Add([]Entry{entry("a", []float32{1, 0})}))
	require.NoError(t, ix.Add([]Entry{entry("a", []float32{0, 1})}))

	assert.Equal(t, 1, ix.Len())
	results, err := ix.Query([]float32{0, 1}, TopKAll)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.InDelta(t, 1.0, float64(results[0].Score), 1e-5)
}

func TestIndex_DimensionMismatch(t *testing.T) {
	ix := NewIndex()
	require.NoError(t, ix.Add([]Entry{entry("a", []float32{1, 0, 0})}))

	err := ix.Add([]Entry{entry("b", []float32{1, 0})})
	assert.ErrorIs(t, err, ErrDimensionMismatch)
	assert.Equal(t, 1, ix.Len(), "failed add must not change the index")

	_, err = ix.Query([]float32{1, 0}, TopKAll)
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestIndex_EmptyQuery(t *testing.T) {
	ix := NewIndex()
	results, err := ix.Query([]float32{1, 0}, TopKAll)
	require.NoError(t, err)
	assert.Empty(t, results)
}
