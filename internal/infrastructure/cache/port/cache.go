package port

import (
	"context"
	"time"
)

// Cache is the minimal key-value contract the application depends on.
// Values are strings; serialization is the caller's concern.
// Implementations must be safe for concurrent use.
type Cache interface {
	// Get fetches the value for key. Misses are reported as ErrMiss so
	// callers can tell them from transport errors.
	Get(ctx context.Context, key string) (string, error)

	// Set stores value at key. Zero or negative TTL means no expiration.
	Set(ctx context.Context, key string, value string, ttl time.Duration) error

	// Del removes keys and returns how many were removed.
	Del(ctx context.Context, keys ...string) (int64, error)

	// Ping verifies connectivity with the backend.
	Ping(ctx context.Context) error

	Close() error
}

// ErrMiss is returned by Get when the key does not exist.
var ErrMiss = errMiss{}

type errMiss struct{}

func (errMiss) Error() string { return "cache: miss" }
