// apps/go-server/internal/store/memory.go
//
// In-memory implementation of game.SessionStore.
// Used for tests and for deployments where sessions need not survive a restart
// (SESSION_STORE=memory).
//
// Characteristics:
//   - Stores one *game.Session per player in a map.
//   - Concurrency-safe via RWMutex (concurrent reads allowed, writes exclusive).
//   - Copies on the way in and out, so callers never share live state.

package store

import (
	"context"
	"sync"

	"github.com/robalobadob/cities/apps/go-server/internal/game"
)

// Memory is a map-based session store.
type Memory struct {
	mu       sync.RWMutex             // guards sessions
	sessions map[string]*game.Session // keyed by PlayerID
}

// NewMemoryStore constructs an empty in-memory store.
func NewMemoryStore() *Memory {
	return &Memory{sessions: make(map[string]*game.Session)}
}

// Get returns a copy of the player's session or game.ErrSessionNotFound.
func (m *Memory) Get(ctx context.Context, playerID string) (*game.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if s, ok := m.sessions[playerID]; ok {
		return s.Clone(), nil
	}
	return nil, game.ErrSessionNotFound
}

// Put adds or replaces the player's session.
func (m *Memory) Put(ctx context.Context, s *game.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.PlayerID] = s.Clone()
	return nil
}

// Deactivate marks the player's session inactive.
func (m *Memory) Deactivate(ctx context.Context, playerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[playerID]
	if !ok {
		return game.ErrSessionNotFound
	}
	s.Active = false
	return nil
}

// Len reports how many players have a stored session.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
