package tiercache

import (
	"context"
	"errors"
	"net"
	"strings"
	"sync"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// RedisCache is the remote tier: a shared cache reachable from multiple
// instances, standalone or clustered. Every operation may fail with a
// *ConnectivityError or *PoolExhaustedError, outcomes strictly distinct
// from a miss. TTLs are delegated to Redis' native expiry.
type RedisCache struct {
	cfg RedisConfig
	log Logger
	rdb goredis.UniversalClient
}

var _ Cache = (*RedisCache)(nil)

// NewRedis connects and pings the endpoint within ConnectTimeout. The
// connection pool is bounded by MaxConnections; waiting for a free
// connection is bounded by CommandTimeout and surfaces as pool exhaustion
// rather than blocking indefinitely.
func NewRedis(cfg RedisConfig, opt Options) (*RedisCache, error) {
	cfg = cfg.withDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	opt = opt.withDefaults()

	var rdb goredis.UniversalClient
	switch cfg.ConnectionType {
	case ConnStandalone:
		ro, err := goredis.ParseURL(cfg.URL)
		if err != nil {
			return nil, &ConfigError{Field: "redis.url", Reason: err.Error()}
		}
		if cfg.Password != "" {
			ro.Password = cfg.Password
		}
		if cfg.DB != 0 {
			ro.DB = cfg.DB
		}
		ro.PoolSize = cfg.MaxConnections
		ro.MinIdleConns = cfg.MinIdle
		ro.DialTimeout = cfg.ConnectTimeout
		ro.ReadTimeout = cfg.CommandTimeout
		ro.WriteTimeout = cfg.CommandTimeout
		ro.PoolTimeout = cfg.CommandTimeout
		opt.Logger.Info("connecting to redis", Fields{"url": redactURL(cfg.URL), "db": ro.DB})
		rdb = goredis.NewClient(ro)
	case ConnCluster:
		opt.Logger.Info("connecting to redis cluster", Fields{"nodes": len(cfg.Hosts)})
		rdb = goredis.NewClusterClient(&goredis.ClusterOptions{
			Addrs:        cfg.Hosts,
			Password:     cfg.Password,
			PoolSize:     cfg.MaxConnections,
			MinIdleConns: cfg.MinIdle,
			DialTimeout:  cfg.ConnectTimeout,
			ReadTimeout:  cfg.CommandTimeout,
			WriteTimeout: cfg.CommandTimeout,
			PoolTimeout:  cfg.CommandTimeout,
		})
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ConnectTimeout)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, wrapRedisErr("ping", "", err)
	}

	return &RedisCache{cfg: cfg, log: opt.Logger, rdb: rdb}, nil
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	ctx, cancel := c.opCtx(ctx)
	defer cancel()
	b, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, wrapRedisErr("get", key, err)
	}
	return b, true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, value []byte) error {
	return c.SetTTL(ctx, key, value, c.cfg.DefaultTTL)
}

func (c *RedisCache) SetTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	ctx, cancel := c.opCtx(ctx)
	defer cancel()
	if ttl < 0 {
		ttl = 0
	}
	if err := c.rdb.Set(ctx, key, value, ttl).Err(); err != nil {
		return wrapRedisErr("set", key, err)
	}
	return nil
}

func (c *RedisCache) Delete(ctx context.Context, key string) (bool, error) {
	ctx, cancel := c.opCtx(ctx)
	defer cancel()
	n, err := c.rdb.Del(ctx, key).Result()
	if err != nil {
		return false, wrapRedisErr("delete", key, err)
	}
	return n > 0, nil
}

func (c *RedisCache) Exists(ctx context.Context, key string) (bool, error) {
	ctx, cancel := c.opCtx(ctx)
	defer cancel()
	n, err := c.rdb.Exists(ctx, key).Result()
	if err != nil {
		return false, wrapRedisErr("exists", key, err)
	}
	return n > 0, nil
}

func (c *RedisCache) Expire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ctx, cancel := c.opCtx(ctx)
	defer cancel()
	ok, err := c.rdb.Expire(ctx, key, ttl).Result()
	if err != nil {
		return false, wrapRedisErr("expire", key, err)
	}
	return ok, nil
}

func (c *RedisCache) Incr(ctx context.Context, key string) (int64, error) {
	ctx, cancel := c.opCtx(ctx)
	defer cancel()
	n, err := c.rdb.Incr(ctx, key).Result()
	if err != nil {
		return 0, wrapRedisErr("incr", key, err)
	}
	return n, nil
}

func (c *RedisCache) Decr(ctx context.Context, key string) (int64, error) {
	ctx, cancel := c.opCtx(ctx)
	defer cancel()
	n, err := c.rdb.Decr(ctx, key).Result()
	if err != nil {
		return 0, wrapRedisErr("decr", key, err)
	}
	return n, nil
}

// Keys runs the KEYS command: O(n) server-side, admin use only.
func (c *RedisCache) Keys(ctx context.Context, pattern string) ([]string, error) {
	ctx, cancel := c.opCtx(ctx)
	defer cancel()
	ks, err := c.rdb.Keys(ctx, pattern).Result()
	if err != nil {
		return nil, wrapRedisErr("keys", pattern, err)
	}
	return ks, nil
}

func (c *RedisCache) HGet(ctx context.Context, key, field string) ([]byte, bool, error) {
	ctx, cancel := c.opCtx(ctx)
	defer cancel()
	b, err := c.rdb.HGet(ctx, key, field).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, wrapRedisErr("hget", key, err)
	}
	return b, true, nil
}

// HSet pipelines HSET with EXPIRE so the whole hash carries the configured
// default TTL; fields never expire individually.
func (c *RedisCache) HSet(ctx context.Context, key, field string, value []byte) error {
	ctx, cancel := c.opCtx(ctx)
	defer cancel()
	if c.cfg.DefaultTTL <= 0 {
		if err := c.rdb.HSet(ctx, key, field, value).Err(); err != nil {
			return wrapRedisErr("hset", key, err)
		}
		return nil
	}
	_, err := c.rdb.Pipelined(ctx, func(p goredis.Pipeliner) error {
		p.HSet(ctx, key, field, value)
		p.Expire(ctx, key, c.cfg.DefaultTTL)
		return nil
	})
	if err != nil {
		return wrapRedisErr("hset", key, err)
	}
	return nil
}

func (c *RedisCache) HDel(ctx context.Context, key, field string) (bool, error) {
	ctx, cancel := c.opCtx(ctx)
	defer cancel()
	n, err := c.rdb.HDel(ctx, key, field).Result()
	if err != nil {
		return false, wrapRedisErr("hdel", key, err)
	}
	return n > 0, nil
}

func (c *RedisCache) HExists(ctx context.Context, key, field string) (bool, error) {
	ctx, cancel := c.opCtx(ctx)
	defer cancel()
	ok, err := c.rdb.HExists(ctx, key, field).Result()
	if err != nil {
		return false, wrapRedisErr("hexists", key, err)
	}
	return ok, nil
}

func (c *RedisCache) HKeys(ctx context.Context, key string) ([]string, error) {
	ctx, cancel := c.opCtx(ctx)
	defer cancel()
	ks, err := c.rdb.HKeys(ctx, key).Result()
	if err != nil {
		return nil, wrapRedisErr("hkeys", key, err)
	}
	return ks, nil
}

func (c *RedisCache) HLen(ctx context.Context, key string) (int64, error) {
	ctx, cancel := c.opCtx(ctx)
	defer cancel()
	n, err := c.rdb.HLen(ctx, key).Result()
	if err != nil {
		return 0, wrapRedisErr("hlen", key, err)
	}
	return n, nil
}

// TTL reports the remaining lifetime of key. ok=false when the key is
// absent or has no expiry; the combined tier uses it to bound backfill
// staleness.
func (c *RedisCache) TTL(ctx context.Context, key string) (time.Duration, bool, error) {
	ctx, cancel := c.opCtx(ctx)
	defer cancel()
	d, err := c.rdb.TTL(ctx, key).Result()
	if err != nil {
		return 0, false, wrapRedisErr("ttl", key, err)
	}
	if d < 0 { // -1 no expiry, -2 missing
		return 0, false, nil
	}
	return d, true, nil
}

func (c *RedisCache) Close(context.Context) error {
	if err := c.rdb.Close(); err != nil && !errors.Is(err, goredis.ErrClosed) {
		return err
	}
	return nil
}

// opCtx bounds a single command. Waiting on the pool counts against the
// same budget, so exhaustion surfaces as an error instead of a hang.
func (c *RedisCache) opCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.cfg.CommandTimeout > 0 {
		return context.WithTimeout(ctx, c.cfg.CommandTimeout)
	}
	return ctx, func() {}
}

func wrapRedisErr(op, key string, err error) error {
	if errors.Is(err, goredis.ErrPoolTimeout) {
		return &PoolExhaustedError{Op: op, Err: err}
	}
	timeout := errors.Is(err, context.DeadlineExceeded)
	var ne net.Error
	if !timeout && errors.As(err, &ne) && ne.Timeout() {
		timeout = true
	}
	return &ConnectivityError{Op: op, Key: key, Timeout: timeout, Err: err}
}

// redactURL hides credentials before they reach a log line.
func redactURL(url string) string {
	at := strings.LastIndexByte(url, '@')
	if at < 0 {
		return url
	}
	scheme := ""
	if i := strings.Index(url, "://"); i >= 0 {
		scheme = url[:i+3]
	}
	return scheme + "*****@" + url[at+1:]
}

// RedisManager owns one RedisCache for its lifetime.
type RedisManager struct {
	cfg RedisConfig
	opt Options

	mu    sync.Mutex
	cache *RedisCache
}

var _ Manager = (*RedisManager)(nil)

func NewRedisManager(cfg RedisConfig, opt Options) *RedisManager {
	return &RedisManager{cfg: cfg, opt: opt}
}

func (m *RedisManager) GetCache(context.Context) (Cache, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cache != nil {
		return m.cache, nil
	}
	c, err := NewRedis(m.cfg, m.opt)
	if err != nil {
		return nil, err
	}
	m.cache = c
	return c, nil
}

func (m *RedisManager) Close(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cache == nil {
		return nil
	}
	err := m.cache.Close(ctx)
	m.cache = nil
	return err
}
