package session

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/bwise1/roadwatch/internal/overlay"
	"github.com/google/uuid"
)

// PublisherFactory returns where a session's events go.
type PublisherFactory func(sessionID string) overlay.Publisher

// Manager owns every open session.
type Manager struct {
	mu         sync.RWMutex
	deps       Deps
	publishers PublisherFactory
	sessions   map[string]*Session
}

func NewManager(deps Deps, publishers PublisherFactory) *Manager {
	return &Manager{
		deps:       deps,
		publishers: publishers,
		sessions:   make(map[string]*Session),
	}
}

// Create opens a session and mounts its first view. The session is kept
// even when the first fetch fails; the error is returned alongside it.
func (m *Manager) Create(ctx context.Context) (*Session, error) {
	id := uuid.NewString()

	var pub overlay.Publisher
	if m.publishers != nil {
		pub = m.publishers(id)
	}
	s := New(id, m.deps, pub)

	m.mu.Lock()
	m.sessions[id] = s
	m.mu.Unlock()

	log.Printf("session %s opened", id)
	return s, s.Mount(ctx)
}

func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return s, nil
}

func (m *Manager) Close(id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if !ok {
		return ErrNotFound
	}
	s.Close()
	log.Printf("session %s closed", id)
	return nil
}

// Sweep closes sessions idle for longer than maxIdle and returns how many.
func (m *Manager) Sweep(maxIdle time.Duration) int {
	cutoff := time.Now().Add(-maxIdle)

	m.mu.Lock()
	var stale []*Session
	for id, s := range m.sessions {
		if s.LastSeen().Before(cutoff) {
			stale = append(stale, s)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()

	for _, s := range stale {
		s.Close()
	}
	if len(stale) > 0 {
		log.Printf("closed %d idle sessions", len(stale))
	}
	return len(stale)
}

func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

func (m *Manager) CloseAll() {
	m.mu.Lock()
	all := m.sessions
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()

	for _, s := range all {
		s.Close()
	}
}
