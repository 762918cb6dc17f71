// Package provider defines the byte-store abstraction backing the local
// tier's scalar entries.
//
// Implementations MUST be byte-for-byte transparent: Get must return exactly
// the same []byte that was previously passed to Set for a key (no prepended
// or appended metadata, no re-encoding, no mutation). If a store performs
// internal transforms (e.g., compression), they MUST be fully reversed so
// that the bytes returned by Get are identical to the bytes provided to Set.
package provider

import (
	"context"
	"time"
)

// Provider is a minimal byte store with TTLs. Must be safe for concurrent
// use. Expired entries must never be observable through Get, whether the
// store sweeps eagerly or checks lazily on access.
type Provider interface {
	// Get returns (value, true, nil) on hit; (nil, false, nil) on miss.
	// If an IO error happens, return (nil, false, err).
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores value with the given TTL (ttl <= 0 means no expiry).
	// Returns ok=false when the store rejected the write under pressure;
	// a full store must evict rather than fail.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) (ok bool, err error)

	// Del removes a key; removed reports whether it was present.
	Del(ctx context.Context, key string) (removed bool, err error)

	// Close releases resources.
	Close(ctx context.Context) error
}

// Enumerator is implemented by stores that can list their live keys.
// The local tier's Keys() operation covers scalar entries only when its
// store supports enumeration (the built-in LRU does; Ristretto does not).
type Enumerator interface {
	Keys(ctx context.Context) ([]string, error)
}
