package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/PaulBabatuyi/portfolio-api/internal/data"
)

// ErrNoSession is returned by Resolve for unknown, expired or revoked tokens.
// Callers must not tell these cases apart.
var ErrNoSession = errors.New("no live owner session")

// SessionRepository persists owner sessions.
type SessionRepository interface {
	Insert(ctx context.Context, sess *data.OwnerSession) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
	FindLiveAndTouch(ctx context.Context, tokenHash string, now time.Time) (*data.OwnerSession, error)
	Delete(ctx context.Context, tokenHash string) error
}

// IssuedSession is returned once by Issue; the raw token is never stored.
type IssuedSession struct {
	Token     string
	Hash      string
	ExpiresAt time.Time
}

// Sessions issues, resolves and revokes owner bearer sessions.
type Sessions struct {
	repo   SessionRepository
	hasher *TokenHasher
	ttl    time.Duration
	now    func() time.Time
}

// NewSessions returns a session manager with the given lifetime.
func NewSessions(repo SessionRepository, hasher *TokenHasher, ttl time.Duration) *Sessions {
	return &Sessions{
		repo:   repo,
		hasher: hasher,
		ttl:    ttl,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Issue creates a session and returns its raw token. Expired sessions are
// purged first so the collection does not grow without bound.
func (s *Sessions) Issue(ctx context.Context) (*IssuedSession, error) {
	now := s.now()
	if _, err := s.repo.DeleteExpired(ctx, now); err != nil {
		return nil, fmt.Errorf("purge expired sessions: %w", err)
	}

	token, err := GenerateToken()
	if err != nil {
		return nil, err
	}

	sess := &data.OwnerSession{
		TokenHash:  s.hasher.Hash(token),
		ExpiresAt:  now.Add(s.ttl),
		CreatedAt:  now,
		LastUsedAt: now,
	}
	if err := s.repo.Insert(ctx, sess); err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}

	return &IssuedSession{Token: token, Hash: sess.TokenHash, ExpiresAt: sess.ExpiresAt}, nil
}

// Resolve returns the live session for token and marks it used.
func (s *Sessions) Resolve(ctx context.Context, token string) (*data.OwnerSession, error) {
	if token == "" {
		return nil, ErrNoSession
	}
	sess, err := s.repo.FindLiveAndTouch(ctx, s.hasher.Hash(token), s.now())
	if err != nil {
		if errors.Is(err, data.ErrNotFound) {
			return nil, ErrNoSession
		}
		return nil, fmt.Errorf("resolve session: %w", err)
	}
	return sess, nil
}

// Revoke deletes the session with the given hash. Unknown hashes are not an error.
func (s *Sessions) Revoke(ctx context.Context, tokenHash string) error {
	return s.repo.Delete(ctx, tokenHash)
}

// Purge deletes every expired session and returns how many were removed.
func (s *Sessions) Purge(ctx context.Context) (int64, error) {
	return s.repo.DeleteExpired(ctx, s.now())
}
