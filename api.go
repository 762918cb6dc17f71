package tiercache

import (
	"context"
	"time"

	pr "github.com/unkn0wn-root/tiercache/provider"
)

// Cache is the tier-agnostic operation surface. LocalCache, RedisCache and
// MultiCache all implement it; callers pick a tier via a Manager and then
// never care which one they hold.
//
// Reads return (value, ok, err). A miss is (nil, false, nil); it is never
// reported through err. err is reserved for failures where presence could
// not be determined (connectivity, pool exhaustion).
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores value under the tier's configured default TTL.
	Set(ctx context.Context, key string, value []byte) error
	// SetTTL stores value with an explicit TTL. ttl <= 0 means no expiry.
	SetTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Delete removes key; removed reports whether anything was there.
	Delete(ctx context.Context, key string) (bool, error)
	Exists(ctx context.Context, key string) (bool, error)
	// Expire resets the TTL of an existing entry; ok=false when key is absent.
	Expire(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// Counters. A missing key counts from zero.
	Incr(ctx context.Context, key string) (int64, error)
	Decr(ctx context.Context, key string) (int64, error)

	// Keys lists keys matching a redis-style glob pattern ("sess:*").
	// O(n) over the keyspace; intended for admin surfaces, not hot paths.
	Keys(ctx context.Context, pattern string) ([]string, error)

	// Hash-field operations. All fields of one hash share a single TTL;
	// per-field expiry is not supported.
	HGet(ctx context.Context, key, field string) ([]byte, bool, error)
	HSet(ctx context.Context, key, field string, value []byte) error
	HDel(ctx context.Context, key, field string) (bool, error)
	HExists(ctx context.Context, key, field string) (bool, error)
	HKeys(ctx context.Context, key string) ([]string, error)
	HLen(ctx context.Context, key string) (int64, error)

	Close(ctx context.Context) error
}

// Manager constructs and owns the lifecycle of one Cache. GetCache returns
// the same instance for the manager's lifetime; Close releases it.
type Manager interface {
	GetCache(ctx context.Context) (Cache, error)
	Close(ctx context.Context) error
}

// Options carries the runtime collaborators shared by all constructors.
// The zero value is usable: no logging, no hooks, default local store.
type Options struct {
	Logger Logger // nil => NopLogger
	Hooks  Hooks  // nil => NopHooks

	// Store overrides the local tier's scalar byte store. nil selects the
	// built-in deterministic LRU (provider/lru). Ristretto or BigCache
	// adapters can be plugged here; note their eviction is not strictly
	// recency-ordered.
	Store pr.Provider
}

func (o Options) withDefaults() Options {
	if o.Logger == nil {
		o.Logger = NopLogger{}
	}
	if o.Hooks == nil {
		o.Hooks = NopHooks{}
	}
	return o
}

// NewManager builds the manager matching s.Type. Settings.Enabled=false
// yields a manager that hands out a no-op cache: every read misses, every
// write is dropped. Unknown types are a *ConfigError.
func NewManager(s Settings, opt Options) (Manager, error) {
	s = s.withDefaults()
	if err := s.Validate(); err != nil {
		return nil, err
	}
	if !s.Enabled {
		return &staticManager{cache: Noop()}, nil
	}
	switch s.Type {
	case TypeLocal:
		return NewLocalManager(s.Local, opt), nil
	case TypeRedis:
		return NewRedisManager(s.Redis, opt), nil
	case TypeMulti:
		return NewMultiManager(s, opt), nil
	default:
		return nil, &ConfigError{Field: "cache_type", Reason: "unknown cache type " + string(s.Type)}
	}
}

// staticManager wraps an already-built cache (used for the disabled path).
type staticManager struct {
	cache Cache
}

func (m *staticManager) GetCache(context.Context) (Cache, error) { return m.cache, nil }
func (m *staticManager) Close(ctx context.Context) error         { return m.cache.Close(ctx) }
