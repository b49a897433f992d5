package store

import (
	"sync"
)

// MemorySessionStore is an in-memory SessionStore. It is injected into
// the engine rather than held as process-global state, so tests and
// multiple engines stay isolated.
type MemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[string][]SessionEntry
}

// NewMemorySessionStore creates an empty session store.
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{
		sessions: make(map[string][]SessionEntry),
	}
}

// Init creates an empty history for the session. Re-initializing an
// existing session clears it.
func (s *MemorySessionStore) Init(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sessionID] = []SessionEntry{}
}

// Append records one entry. Appending to an unknown session initializes
// it implicitly.
func (s *MemorySessionStore) Append(sessionID string, entry SessionEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sessionID] = append(s.sessions[sessionID], entry)
}

// History returns a copy of the session's entries in append order.
func (s *MemorySessionStore) History(sessionID string) []SessionEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entries := s.sessions[sessionID]
	out := make([]SessionEntry, len(entries))
	copy(out, entries)
	return out
}

// Drop discards the session's history.
func (s *MemorySessionStore) Drop(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
}

var _ SessionStore = (*MemorySessionStore)(nil)
