package session

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"
)

type mockBackend struct {
	mu   sync.Mutex
	data map[string]string
	ttls map[string]time.Duration
}

func newMockBackend() *mockBackend {
	return &mockBackend{data: make(map[string]string), ttls: make(map[string]time.Duration)}
}

func (m *mockBackend) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = fmt.Sprint(value)
	m.ttls[key] = ttl
	return nil
}

func (m *mockBackend) Exists(ctx context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.data[key]
	return ok, nil
}

func (m *mockBackend) DenylistKey(jti string) string {
	return "denylist:" + jti
}

func TestDenylistRevokeAndCheck(t *testing.T) {
	backend := newMockBackend()
	dl, err := NewDenylist(backend)
	if err != nil {
		t.Fatalf("new denylist: %v", err)
	}

	ctx := context.Background()
	if err := dl.Revoke(ctx, "jti-1", time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("revoke: %v", err)
	}

	revoked, err := dl.IsRevoked(ctx, "jti-1")
	if err != nil {
		t.Fatalf("is revoked: %v", err)
	}
	if !revoked {
		t.Fatal("expected token to be revoked")
	}

	ttl := backend.ttls[backend.DenylistKey("jti-1")]
	if ttl <= 0 || ttl > time.Hour {
		t.Fatalf("unexpected ttl %v", ttl)
	}

	revoked, err = dl.IsRevoked(ctx, "jti-2")
	if err != nil {
		t.Fatalf("is revoked: %v", err)
	}
	if revoked {
		t.Fatal("unknown token should not be revoked")
	}
}

func TestDenylistSkipsExpiredTokens(t *testing.T) {
	backend := newMockBackend()
	dl, err := NewDenylist(backend)
	if err != nil {
		t.Fatalf("new denylist: %v", err)
	}

	ctx := context.Background()
	if err := dl.Revoke(ctx, "old", time.Now().Add(-time.Minute)); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if len(backend.data) != 0 {
		t.Fatal("expired token should not be stored")
	}
}

func TestDenylistRejectsEmptyJTI(t *testing.T) {
	backend := newMockBackend()
	dl, _ := NewDenylist(backend)
	if err := dl.Revoke(context.Background(), "  ", time.Now().Add(time.Hour)); err == nil {
		t.Fatal("expected error for blank token id")
	}
}
