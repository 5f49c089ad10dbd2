// Package vectorstore keeps a per-session index of chunk embeddings with
// denormalized retrieval metadata. Vectors are L2-normalized at insert, so
// inner product equals cosine similarity and persisted results reproduce
// exactly after a reload.
package vectorstore

import (
	"errors"
	"math"
	"sort"
	"sync"
)

var (
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
	ErrCorruptArtifact   = errors.New("corrupt vector index artifact")
)

// TopK bounds a similarity query. TopKAll returns every entry in the
// session's index ordered by score, which is the product default.
type TopK int

const TopKAll TopK = -1

// Metadata is carried alongside each vector so retrieval results can be
// displayed without a registry join.
type Metadata struct {
	DocumentID string `json:"document_id"`
	Filename   string `json:"filename"`
	Category   string `json:"category"`
	Text       string `json:"text"`
}

// Entry is one chunk's vector plus its metadata.
type Entry struct {
	ChunkID   string
	Embedding []float32
	Metadata  Metadata
}

// Result is one ranked entry returned from a query.
type Result struct {
	ChunkID  string   `json:"chunk_id"`
	Score    float32  `json:"score"`
	Metadata Metadata `json:"metadata"`
}

// Index is the in-memory vector index for a single session. The embedding
// dimension is fixed by the first insert for the lifetime of the index.
type Index struct {
	mu        sync.RWMutex
	dimension int
	order     []string
	vectors   map[string][]float32
	meta      map[string]Metadata
}

func NewIndex() *Index {
	return &Index{
		vectors: make(map[string][]float32),
		meta:    make(map[string]Metadata),
	}
}

// Add appends entries to the index. Re-adding an existing chunk ID
// replaces its vector and metadata instead of duplicating it. Every
// embedding must match the established dimension.
func (ix *Index) Add(entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()

	for _, e := range entries {
		if len(e.Embedding) == 0 {
			return ErrDimensionMismatch
		}
		if ix.dimension == 0 {
			ix.dimension = len(e.Embedding)
		}
		if len(e.Embedding) != ix.dimension {
			return ErrDimensionMismatch
		}
	}

	for _, e := range entries {
		if _, exists := ix.vectors[e.ChunkID]; !exists {
			ix.order = append(ix.order, e.ChunkID)
		}
		ix.vectors[e.ChunkID] = normalize(e.Embedding)
		ix.meta[e.ChunkID] = e.Metadata
	}
	return nil
}

// Query ranks every entry against the query vector. Ties are broken by
// ascending chunk ID so results are deterministic.
func (ix *Index) Query(query []float32, k TopK) ([]Result, error) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	if len(ix.order) == 0 {
		return nil, nil
	}
	if len(query) != ix.dimension {
		return nil, ErrDimensionMismatch
	}

	q := normalize(query)
	results := make([]Result, 0, len(ix.order))
	for _, id := range ix.order {
		results = append(results, Result{
			ChunkID:  id,
			Score:    dot(ix.vectors[id], q),
			Metadata: ix.meta[id],
		})
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].ChunkID < results[j].ChunkID
	})

	if k != TopKAll && int(k) < len(results) {
		if k <= 0 {
			return nil, nil
		}
		results = results[:int(k)]
	}
	return results, nil
}

// Len reports the number of indexed chunks.
func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.order)
}

// Dimension reports the established embedding dimension, 0 if empty.
func (ix *Index) Dimension() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.dimension
}

// snapshot copies the index contents in insertion order for persistence.
func (ix *Index) snapshot() (int, []Entry) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	entries := make([]Entry, 0, len(ix.order))
	for _, id := range ix.order {
		entries = append(entries, Entry{
			ChunkID:   id,
			Embedding: ix.vectors[id],
			Metadata:  ix.meta[id],
		})
	}
	return ix.dimension, entries
}

func normalize(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	out := make([]float32, len(v))
	if sum == 0 {
		copy(out, v)
		return out
	}
	norm := float32(math.Sqrt(sum))
	for i, x := range v {
		out[i] = x / norm
	}
	return out
}

func dot(a, b []float32) float32 {
	var sum float32
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}
