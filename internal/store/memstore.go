// Package store holds live sessions. In-memory is the only backing; a
// session's state is exactly its in-memory representation and is never
// persisted.
package store

import (
	"sync"

	"snatch/internal/game"
)

type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*game.Session
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: map[string]*game.Session{},
	}
}

func (m *MemoryStore) GetSession(code string) (*game.Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[code]
	return s, ok
}

func (m *MemoryStore) SaveSession(s *game.Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.Code()] = s
}

func (m *MemoryStore) DeleteSession(code string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, code)
}

// Codes lists the room codes of all live sessions.
func (m *MemoryStore) Codes() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.sessions))
	for code := range m.sessions {
		out = append(out, code)
	}
	return out
}
