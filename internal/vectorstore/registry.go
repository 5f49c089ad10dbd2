package vectorstore

import (
	"errors"
	"sync"

	"github.com/rs/zerolog"
)

// Registry owns every session's index, keyed by session ID. An index is
// loaded from disk on first access after process start and evicted only
// when its session is deleted. Keeping them in one map leaves room for an
// LRU cap later without touching callers.
type Registry struct {
	dir     string
	log     zerolog.Logger
	mu      sync.Mutex
	entries map[string]*registryEntry
}

// registryEntry guards one session's lazy load. The registry mutex is
// held only to look the entry up; the disk read runs under the entry's
// once, so first-access loads of different sessions proceed in parallel.
type registryEntry struct {
	once sync.Once
	ix   *Index
}

func NewRegistry(dir string, log zerolog.Logger) *Registry {
	return &Registry{
		dir:     dir,
		log:     log,
		entries: make(map[string]*registryEntry),
	}
}

// Get returns the session's index, lazily loading it from disk. A corrupt
// artifact degrades to an empty index with an operator warning instead of
// failing the request.
func (r *Registry) Get(sessionID string) *Index {
	r.mu.Lock()
	e, ok := r.entries[sessionID]
	if !ok {
		e = &registryEntry{}
		r.entries[sessionID] = e
	}
	r.mu.Unlock()

	e.once.Do(func() {
		ix, err := load(r.dir, sessionID)
		if err != nil {
			if errors.Is(err, ErrCorruptArtifact) {
				r.log.Warn().Str("session_id", sessionID).Err(err).
					Msg("vector index unreadable, starting session with empty index")
			} else {
				r.log.Error().Str("session_id", sessionID).Err(err).Msg("vector index load failed")
			}
			ix = NewIndex()
		}
		e.ix = ix
	})
	return e.ix
}

// Add inserts entries into the session's index and persists it.
func (r *Registry) Add(sessionID string, entries []Entry) error {
	ix := r.Get(sessionID)
	if err := ix.Add(entries); err != nil {
		return err
	}
	return save(r.dir, sessionID, ix)
}

// Query ranks the session's entries against the query vector. A session
// with no indexed chunks returns an empty result, not an error.
func (r *Registry) Query(sessionID string, query []float32, k TopK) ([]Result, error) {
	return r.Get(sessionID).Query(query, k)
}

// Count reports the number of indexed chunks for the session.
func (r *Registry) Count(sessionID string) int {
	return r.Get(sessionID).Len()
}

// Persist forces the session's artifacts to disk.
func (r *Registry) Persist(sessionID string) error {
	return save(r.dir, sessionID, r.Get(sessionID))
}

// Delete evicts the session's index and removes its on-disk artifacts.
// Safe to call for a session that was never indexed.
func (r *Registry) Delete(sessionID string) error {
	r.mu.Lock()
	delete(r.entries, sessionID)
	r.mu.Unlock()
	return remove(r.dir, sessionID)
}
