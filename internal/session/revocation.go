// Package session provides revocation storage for issued login tokens.
package session

import (
	"context"
	"sync"
	"time"
)

// RevocationStore tracks token ids that have been logged out before their
// natural expiry. Revoked reports true for a known id and false otherwise;
// entries may vanish once the underlying TTL passes.
type RevocationStore interface {
	Revoke(ctx context.Context, jti string, ttl time.Duration) error
	Revoked(ctx context.Context, jti string) (bool, error)
	Ping(ctx context.Context) error
	Close() error
}

// MemoryStore is a process-local RevocationStore for single-instance
// deployments and tests. Expired entries are dropped lazily on lookup.
type MemoryStore struct {
	mu      sync.Mutex
	expires map[string]time.Time
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{expires: map[string]time.Time{}, now: time.Now}
}

func (s *MemoryStore) Revoke(_ context.Context, jti string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expires[jti] = s.now().Add(ttl)
	return nil
}

func (s *MemoryStore) Revoked(_ context.Context, jti string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	expiry, ok := s.expires[jti]
	if !ok {
		return false, nil
	}
	if s.now().After(expiry) {
		delete(s.expires, jti)
		return false, nil
	}
	return true, nil
}

func (s *MemoryStore) Ping(context.Context) error { return nil }

func (s *MemoryStore) Close() error { return nil }
