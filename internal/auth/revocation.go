// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/ManuGH/vidfetch/internal/cache"
)

const revokedKeyPrefix = "revoked:"

// RevocationStore remembers signed-out token ids until they would have
// expired anyway.
type RevocationStore struct {
	cache cache.Cache
	now   func() time.Time
}

// NewRevocationStore returns a store on top of c.
func NewRevocationStore(c cache.Cache) *RevocationStore {
	return &RevocationStore{cache: c, now: time.Now}
}

// Revoke marks jti revoked until expiresAt. Already expired tokens are ignored.
func (s *RevocationStore) Revoke(ctx context.Context, jti string, expiresAt time.Time) error {
	ttl := expiresAt.Sub(s.now())
	if ttl <= 0 {
		return nil
	}
	if err := s.cache.Set(ctx, revokedKeyPrefix+jti, []byte{1}, ttl); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

// IsRevoked reports whether jti was revoked.
func (s *RevocationStore) IsRevoked(ctx context.Context, jti string) (bool, error) {
	_, ok, err := s.cache.Get(ctx, revokedKeyPrefix+jti)
	if err != nil {
		return false, fmt.Errorf("check revocation: %w", err)
	}
	return ok, nil
}
