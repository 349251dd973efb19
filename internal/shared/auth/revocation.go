package auth

import (
	"context"
	"fmt"
	"time"

	"library-backend/pkg/cache"
)

const revokedKeyPrefix = "revoked_token:"

// RevocationStore keeps the ids (jti) of logged out tokens until they expire.
type RevocationStore struct {
	cache cache.Cache
}

func NewRevocationStore(c cache.Cache) *RevocationStore {
	return &RevocationStore{cache: c}
}

// Revoke marks jti as unusable for ttl. A non positive ttl is a no-op,
// the token has already expired.
func (s *RevocationStore) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	if jti == "" || ttl <= 0 {
		return nil
	}
	if err := s.cache.Set(ctx, revokedKeyPrefix+jti, true, ttl); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

func (s *RevocationStore) IsRevoked(ctx context.Context, jti string) (bool, error) {
	if jti == "" {
		return false, nil
	}
	return s.cache.Exists(ctx, revokedKeyPrefix+jti)
}

// RevokeOnce atomically revokes jti and reports whether this call did it.
// Only one of several concurrent callers presenting the same jti gets true.
func (s *RevocationStore) RevokeOnce(ctx context.Context, jti string, ttl time.Duration) (bool, error) {
	if jti == "" || ttl <= 0 {
		return false, nil
	}
	claimed, err := s.cache.SetNX(ctx, revokedKeyPrefix+jti, true, ttl)
	if err != nil {
		return false, fmt.Errorf("revoke token: %w", err)
	}
	return claimed, nil
}
