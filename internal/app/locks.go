package app

import "sync"

// Locks serializes mutating operations per session. Uploads, chat turns,
// history clears, and deletion for the same session take the same lock;
// different sessions proceed in parallel.
type Locks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewLocks() *Locks {
	return &Locks{locks: make(map[string]*sync.Mutex)}
}

// Acquire blocks until the session lock is held and returns the release
// function. Lock entries are never reclaimed; the map grows with the number
// of distinct sessions seen by the process, which is bounded in practice.
func (l *Locks) Acquire(sessionID string) func() {
	l.mu.Lock()
	m, ok := l.locks[sessionID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[sessionID] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}
