package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/arturoeanton/ghost-commit/internal/domain"
	"github.com/arturoeanton/ghost-commit/internal/port"
)

// MemorySessionStore keeps sessions in process memory. Sessions live for the
// lifetime of the process unless a TTL is set, in which case sessions idle for
// longer than the TTL are dropped on the next write.
type MemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*domain.Session
	subs     map[string][]chan domain.Session
	ttl      time.Duration
	now      func() time.Time
}

// NewMemorySessionStore creates an empty store. A zero ttl keeps sessions forever.
func NewMemorySessionStore(ttl time.Duration) *MemorySessionStore {
	return &MemorySessionStore{
		sessions: make(map[string]*domain.Session),
		subs:     make(map[string][]chan domain.Session),
		ttl:      ttl,
		now:      time.Now,
	}
}

// Get returns a copy of the session.
func (m *MemorySessionStore) Get(_ context.Context, id string) (*domain.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok || m.expired(s) {
		return nil, fmt.Errorf("%w: %s", port.ErrSessionNotFound, id)
	}
	return s.Clone(), nil
}

// Update applies mutate to the session under the write lock and notifies watchers.
func (m *MemorySessionStore) Update(_ context.Context, id string, mutate func(*domain.Session) error) (*domain.Session, error) {
	m.mu.Lock()
	m.evictExpired()

	var working *domain.Session
	if existing, ok := m.sessions[id]; ok {
		working = existing.Clone()
	} else {
		working = domain.NewSession(id, m.now())
	}
	if err := mutate(working); err != nil {
		m.mu.Unlock()
		return nil, err
	}
	m.sessions[id] = working

	// Sends never block; unsubscribe closes channels under the same lock.
	snapshot := *working.Clone()
	for _, ch := range m.subs[id] {
		select {
		case ch <- snapshot:
		default:
		}
	}
	m.mu.Unlock()
	return working.Clone(), nil
}

// Watch returns a channel that receives a snapshot after each update. The
// channel is closed when ctx is done.
func (m *MemorySessionStore) Watch(ctx context.Context, id string) (<-chan domain.Session, error) {
	ch := make(chan domain.Session, 10)
	m.mu.Lock()
	m.subs[id] = append(m.subs[id], ch)
	m.mu.Unlock()

	go func() {
		<-ctx.Done()
		m.unsubscribe(id, ch)
	}()
	return ch, nil
}

func (m *MemorySessionStore) unsubscribe(id string, ch chan domain.Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	subs := m.subs[id]
	for i, s := range subs {
		if s == ch {
			m.subs[id] = append(subs[:i], subs[i+1:]...)
			break
		}
	}
	if len(m.subs[id]) == 0 {
		delete(m.subs, id)
	}
	close(ch)
}

func (m *MemorySessionStore) expired(s *domain.Session) bool {
	return m.ttl > 0 && m.now().Sub(s.UpdatedAt) > m.ttl
}

// evictExpired must be called with the write lock held.
func (m *MemorySessionStore) evictExpired() {
	if m.ttl <= 0 {
		return
	}
	for id, s := range m.sessions {
		if m.expired(s) {
			delete(m.sessions, id)
		}
	}
}
