package auth

import (
	"context"
	"fmt"
	"time"

	"dairy-backend-go/internal/cache"
)

const revokedKeyPrefix = "auth:revoked:"

// Revoker records logged-out token ids in a cache until the token would have expired.
type Revoker struct {
	cache cache.Cache
	now   func() time.Time
}

// NewRevoker creates a Revoker backed by c.
func NewRevoker(c cache.Cache) *Revoker {
	return &Revoker{cache: c, now: time.Now}
}

// Revoke marks tokenID as revoked. Tokens that are already expired need no entry.
func (r *Revoker) Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error {
	ttl := expiresAt.Sub(r.now())
	if ttl <= 0 {
		return nil
	}
	if err := r.cache.Set(ctx, revokedKeyPrefix+tokenID, "1", ttl); err != nil {
		return fmt.Errorf("failed to revoke token %s: %w", tokenID, err)
	}
	return nil
}

// IsRevoked reports whether tokenID has been revoked.
func (r *Revoker) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	_, ok, err := r.cache.Get(ctx, revokedKeyPrefix+tokenID)
	if err != nil {
		return false, fmt.Errorf("failed to check token revocation: %w", err)
	}
	return ok, nil
}
