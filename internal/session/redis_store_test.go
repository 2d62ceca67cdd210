package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

func setupTestRedis(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	s := miniredis.RunT(t)
	store, err := NewRedisStore("redis://" + s.Addr())
	if err != nil {
		t.Fatalf("failed to create redis store: %v", err)
	}
	return store, s
}

func TestNewRedisStore(t *testing.T) {
	s := miniredis.RunT(t)
	defer s.Close()

	store, err := NewRedisStore("redis://" + s.Addr())
	if err != nil {
		t.Fatalf("NewRedisStore failed: %v", err)
	}
	defer store.Close()

	if err := store.Ping(context.Background()); err != nil {
		t.Errorf("Ping failed: %v", err)
	}
}

func TestRevokeAndLookup(t *testing.T) {
	store, s := setupTestRedis(t)
	defer store.Close()
	defer s.Close()

	ctx := context.Background()
	if err := store.Revoke(ctx, "jti-123", time.Hour); err != nil {
		t.Fatalf("Revoke failed: %v", err)
	}

	revoked, err := store.Revoked(ctx, "jti-123")
	if err != nil {
		t.Fatalf("Revoked failed: %v", err)
	}
	if !revoked {
		t.Error("expected token to be revoked")
	}
}

func TestUnknownTokenNotRevoked(t *testing.T) {
	store, s := setupTestRedis(t)
	defer store.Close()
	defer s.Close()

	revoked, err := store.Revoked(context.Background(), "never-seen")
	if err != nil {
		t.Fatalf("Revoked failed: %v", err)
	}
	if revoked {
		t.Error("unknown token must not be revoked")
	}
}

func TestRevocationExpires(t *testing.T) {
	store, s := setupTestRedis(t)
	defer store.Close()
	defer s.Close()

	ctx := context.Background()
	if err := store.Revoke(ctx, "jti-short", time.Millisecond); err != nil {
		t.Fatalf("Revoke failed: %v", err)
	}

	s.FastForward(2 * time.Millisecond)

	revoked, err := store.Revoked(ctx, "jti-short")
	if err != nil {
		t.Fatalf("Revoked failed: %v", err)
	}
	if revoked {
		t.Error("revocation entry should expire with the token")
	}
}

func TestRevokeExpiredTokenIsNoop(t *testing.T) {
	store, s := setupTestRedis(t)
	defer store.Close()
	defer s.Close()

	ctx := context.Background()
	if err := store.Revoke(ctx, "jti-expired", -time.Minute); err != nil {
		t.Fatalf("Revoke failed: %v", err)
	}

	revoked, err := store.Revoked(ctx, "jti-expired")
	if err != nil {
		t.Fatalf("Revoked failed: %v", err)
	}
	if revoked {
		t.Error("expired token needs no revocation entry")
	}
}

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	if err := store.Revoke(ctx, "jti-mem", time.Hour); err != nil {
		t.Fatalf("Revoke failed: %v", err)
	}
	revoked, err := store.Revoked(ctx, "jti-mem")
	if err != nil {
		t.Fatalf("Revoked failed: %v", err)
	}
	if !revoked {
		t.Error("expected token to be revoked")
	}

	revoked, err = store.Revoked(ctx, "jti-other")
	if err != nil {
		t.Fatalf("Revoked failed: %v", err)
	}
	if revoked {
		t.Error("unknown token must not be revoked")
	}
}

func TestMemoryStoreExpiry(t *testing.T) {
	store := NewMemoryStore()
	now := time.Now()
	store.now = func() time.Time { return now }
	ctx := context.Background()

	if err := store.Revoke(ctx, "jti-ttl", time.Minute); err != nil {
		t.Fatalf("Revoke failed: %v", err)
	}

	now = now.Add(2 * time.Minute)
	revoked, err := store.Revoked(ctx, "jti-ttl")
	if err != nil {
		t.Fatalf("Revoked failed: %v", err)
	}
	if revoked {
		t.Error("revocation should lapse after the TTL")
	}
}
