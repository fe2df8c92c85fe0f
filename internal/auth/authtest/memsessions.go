// Package authtest provides an in-memory owner session repository for tests.
package authtest

import (
	"context"
	"sync"
	"time"

	"github.com/PaulBabatuyi/portfolio-api/internal/data"
)

// MemSessions mirrors the filter semantics of data.OwnerSessionsStore.
type MemSessions struct {
	mu       sync.Mutex
	sessions map[string]*data.OwnerSession
	err      error
}

// NewMemSessions returns an empty repository.
func NewMemSessions() *MemSessions {
	return &MemSessions{sessions: map[string]*data.OwnerSession{}}
}

// FailWith makes every call return err until reset with nil.
func (m *MemSessions) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Has reports whether a session is stored under hash.
func (m *MemSessions) Has(hash string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.sessions[hash]
	return ok
}

// Len reports the number of stored sessions.
func (m *MemSessions) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

func (m *MemSessions) Insert(_ context.Context, s *data.OwnerSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	cp := *s
	m.sessions[s.TokenHash] = &cp
	return nil
}

func (m *MemSessions) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return 0, m.err
	}
	var n int64
	for k, s := range m.sessions {
		if !s.ExpiresAt.After(now) {
			delete(m.sessions, k)
			n++
		}
	}
	return n, nil
}

func (m *MemSessions) FindLiveAndTouch(_ context.Context, hash string, now time.Time) (*data.OwnerSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	s, ok := m.sessions[hash]
	if !ok || !s.ExpiresAt.After(now) {
		return nil, data.ErrNotFound
	}
	s.LastUsedAt = now
	cp := *s
	return &cp, nil
}

func (m *MemSessions) Delete(_ context.Context, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	delete(m.sessions, hash)
	return nil
}
