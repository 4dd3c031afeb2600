// Package session tracks revoked access tokens so logout takes effect before
// the JWT itself expires.
package session

import (
	"context"
	"fmt"
	"strings"
	"time"
)

type denylistStore interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Exists(ctx context.Context, key string) (bool, error)
}

type denylistKeyer interface {
	DenylistKey(jti string) string
}

// Denylist records token IDs that must be rejected until their natural expiry.
type Denylist struct {
	store denylistStore
	keyer denylistKeyer
}

// RevocationChecker exposes the read-only surface needed by middleware.
type RevocationChecker interface {
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

type redisBackend interface {
	denylistStore
	denylistKeyer
}

// NewDenylist constructs a denylist backed by the shared Redis client.
func NewDenylist(client redisBackend) (*Denylist, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	return &Denylist{store: client, keyer: client}, nil
}

// Revoke marks the token ID as invalid until expiresAt. Tokens already past
// expiry need no entry.
func (d *Denylist) Revoke(ctx context.Context, jti string, expiresAt time.Time) error {
	if strings.TrimSpace(jti) == "" {
		return fmt.Errorf("token id is required")
	}
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}
	return d.store.Set(ctx, d.keyer.DenylistKey(jti), "1", ttl)
}

// IsRevoked reports whether the token ID has been revoked.
func (d *Denylist) IsRevoked(ctx context.Context, jti string) (bool, error) {
	if strings.TrimSpace(jti) == "" {
		return false, nil
	}
	return d.store.Exists(ctx, d.keyer.DenylistKey(jti))
}
