// Package session provides payment session stores backed by process memory
// and Redis.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/amirasaad/crowdpledge/pkg/domain/pledge"
	"github.com/amirasaad/crowdpledge/pkg/session"
	"github.com/google/uuid"
)

type entry struct {
	session   pledge.PaymentSession
	expiresAt time.Time
}

// MemoryStore implements session.Store in process memory. Expired entries
// are dropped lazily on access.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]*entry
	ttl     time.Duration
	now     func() time.Time
}

// NewMemoryStore creates a store whose sessions live for ttl. A zero ttl
// keeps sessions until they are deleted.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]*entry),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (m *MemoryStore) Get(_ context.Context, id string) (*pledge.PaymentSession, error) {
	m.mu.RLock()
	e, ok := m.entries[id]
	m.mu.RUnlock()
	if !ok {
		return nil, session.ErrNotFound
	}
	if !e.expiresAt.IsZero() && !m.now().Before(e.expiresAt) {
		m.mu.Lock()
		delete(m.entries, id)
		m.mu.Unlock()
		return nil, session.ErrNotFound
	}
	s := e.session
	return &s, nil
}

func (m *MemoryStore) Save(_ context.Context, s *pledge.PaymentSession) error {
	prepare(s, m.now)
	e := &entry{session: *s}
	if m.ttl > 0 {
		e.expiresAt = m.now().Add(m.ttl)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[s.ID] = e
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, id)
	return nil
}

func prepare(s *pledge.PaymentSession, now func() time.Time) {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = now().UTC()
	}
}

var _ session.Store = (*MemoryStore)(nil)
