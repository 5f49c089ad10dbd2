package vectorstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// On disk each session has two artifacts: <id>.index holding the vectors
// and <id>.meta holding the metadata sidecar. Both are written to temp
// paths and renamed into place. Each save stamps both files with the same
// generation id; a crash between the two renames leaves files from
// different generations, which load rejects even when dimension and entry
// counts still happen to line up.

type indexFile struct {
	Generation string        `json:"generation"`
	Dimension  int           `json:"dimension"`
	Vectors    []indexVector `json:"vectors"`
}

type indexVector struct {
	ChunkID string    `json:"chunk_id"`
	Values  []float32 `json:"values"`
}

type metaFile struct {
	Generation string      `json:"generation"`
	Dimension  int         `json:"dimension"`
	Entries    []metaEntry `json:"entries"`
}

type metaEntry struct {
	ChunkID string `json:"chunk_id"`
	Metadata
}

func indexPath(dir, sessionID string) string {
	return filepath.Join(dir, sessionID+".index")
}

func metaPath(dir, sessionID string) string {
	return filepath.Join(dir, sessionID+".meta")
}

// save writes the index and its metadata sidecar atomically.
func save(dir, sessionID string, ix *Index) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create vectors dir failed: %w", err)
	}

	dimension, entries := ix.snapshot()
	generation := uuid.NewString()

	idx := indexFile{Generation: generation, Dimension: dimension, Vectors: make([]indexVector, 0, len(entries))}
	meta := metaFile{Generation: generation, Dimension: dimension, Entries: make([]metaEntry, 0, len(entries))}
	for _, e := range entries {
		idx.Vectors = append(idx.Vectors, indexVector{ChunkID: e.ChunkID, Values: e.Embedding})
		meta.Entries = append(meta.Entries, metaEntry{ChunkID: e.ChunkID, Metadata: e.Metadata})
	}

	if err := writeFileAtomic(indexPath(dir, sessionID), idx); err != nil {
		return err
	}
	return writeFileAtomic(metaPath(dir, sessionID), meta)
}

func writeFileAtomic(path string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal vector artifact failed: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, payload, 0o644); err != nil {
		return fmt.Errorf("write vector artifact failed: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename vector artifact failed: %w", err)
	}
	return nil
}

// load reads a session's artifacts back into an Index. A session with no
// artifacts yields an empty index. A half-written or inconsistent pair
// yields ErrCorruptArtifact so the caller can degrade to empty.
func load(dir, sessionID string) (*Index, error) {
	idxRaw, idxErr := os.ReadFile(indexPath(dir, sessionID))
	metaRaw, metaErr := os.ReadFile(metaPath(dir, sessionID))

	idxMissing := errors.Is(idxErr, fs.ErrNotExist)
	metaMissing := errors.Is(metaErr, fs.ErrNotExist)
	if idxMissing && metaMissing {
		return NewIndex(), nil
	}
	if idxErr != nil || metaErr != nil {
		return nil, fmt.Errorf("%w: %s", ErrCorruptArtifact, sessionID)
	}

	var idx indexFile
	var meta metaFile
	if err := json.Unmarshal(idxRaw, &idx); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrCorruptArtifact, sessionID)
	}
	if err := json.Unmarshal(metaRaw, &meta); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrCorruptArtifact, sessionID)
	}
	if idx.Generation != meta.Generation {
		return nil, fmt.Errorf("%w: %s", ErrCorruptArtifact, sessionID)
	}
	if idx.Dimension != meta.Dimension || len(idx.Vectors) != len(meta.Entries) {
		return nil, fmt.Errorf("%w: %s", ErrCorruptArtifact, sessionID)
	}

	byID := make(map[string]Metadata, len(meta.Entries))
	for _, m := range meta.Entries {
		byID[m.ChunkID] = m.Metadata
	}

	ix := NewIndex()
	ix.dimension = idx.Dimension
	for _, v := range idx.Vectors {
		m, ok := byID[v.ChunkID]
		if !ok || len(v.Values) != idx.Dimension {
			return nil, fmt.Errorf("%w: %s", ErrCorruptArtifact, sessionID)
		}
		ix.order = append(ix.order, v.ChunkID)
		ix.vectors[v.ChunkID] = v.Values
		ix.meta[v.ChunkID] = m
	}
	return ix, nil
}

// remove deletes both artifacts; missing files are not an error.
func remove(dir, sessionID string) error {
	for _, path := range []string{indexPath(dir, sessionID), metaPath(dir, sessionID)} {
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("remove vector artifact failed: %w", err)
		}
	}
	return nil
}
