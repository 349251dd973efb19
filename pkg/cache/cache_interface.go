package cache

import (
	"context"
	"time"
)

// Cache is the contract of the key/value layer.
// Implementations: Redis (production) and an in-process map (memory driver, tests).
type Cache interface {
	// Get loads the value stored under key into dest.
	// found=false means a miss and dest is left untouched.
	Get(ctx context.Context, key string, dest interface{}) (bool, error)

	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error

	Delete(ctx context.Context, keys ...string) error

	Ping(ctx context.Context) error

	// SetNX stores value only when key is absent and reports whether it did.
	SetNX(ctx context.Context, key string, value interface{}, ttl time.Duration) (bool, error)

	// IncrementWithExpiry increments the counter at key in one round trip.
	// ttl is applied only when the increment creates the key.
	IncrementWithExpiry(ctx context.Context, key string, ttl time.Duration) (int64, error)

	Exists(ctx context.Context, key string) (bool, error)
	TTL(ctx context.Context, key string) (time.Duration, error)
}
