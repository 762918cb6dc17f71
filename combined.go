package tiercache

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"
)

// remoteTTLer is satisfied by remote tiers that can report a key's
// remaining lifetime. Backfill uses it to keep local copies from
// outliving the remote entry.
type remoteTTLer interface {
	TTL(ctx context.Context, key string) (time.Duration, bool, error)
}

// MultiCache layers a LocalCache in front of a remote Cache. Reads go
// local-first and backfill on a remote hit; writes go remote-first so the
// shared tier stays authoritative. When the remote fails and fallback is
// enabled, single-tier operations degrade to local-only and report
// success; deletes that reach only one tier always surface a
// *PartialFailureError so callers know an invalidation may not have
// propagated.
type MultiCache struct {
	cfg   MultiConfig
	log   Logger
	hooks Hooks

	local  *LocalCache
	remote Cache // nil when running degraded
}

var _ Cache = (*MultiCache)(nil)

// NewMulti builds both tiers from Settings. A remote that cannot be
// reached at construction time is tolerated when FallbackToLocal is set:
// the cache starts degraded and serves from local only.
func NewMulti(s Settings, opt Options) (*MultiCache, error) {
	opt = opt.withDefaults()

	lcfg := s.Local
	mcfg := s.Multi.withDefaults()
	lcfg.DefaultTTL = mcfg.LocalTTL

	local, err := NewLocal(lcfg, opt)
	if err != nil {
		return nil, err
	}

	remote, err := NewRedis(s.Redis, opt)
	if err != nil {
		if !mcfg.FallbackToLocal {
			_ = local.Close(context.Background())
			return nil, err
		}
		opt.Logger.Warn("remote tier unavailable, starting degraded", Fields{"error": err.Error()})
		return &MultiCache{cfg: mcfg, log: opt.Logger, hooks: opt.Hooks, local: local}, nil
	}

	return &MultiCache{cfg: mcfg, log: opt.Logger, hooks: opt.Hooks, local: local, remote: remote}, nil
}

// NewMultiWith wires pre-built tiers together. remote may be nil for a
// permanently degraded cache.
func NewMultiWith(local *LocalCache, remote Cache, cfg MultiConfig, opt Options) *MultiCache {
	opt = opt.withDefaults()
	return &MultiCache{
		cfg:    cfg.withDefaults(),
		log:    opt.Logger,
		hooks:  opt.Hooks,
		local:  local,
		remote: remote,
	}
}

func (c *MultiCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if v, ok, err := c.local.Get(ctx, key); err != nil {
		return nil, false, err
	} else if ok {
		return v, true, nil
	}
	if c.remote == nil {
		return nil, false, nil
	}
	v, ok, err := c.remote.Get(ctx, key)
	if err != nil {
		if c.cfg.FallbackToLocal {
			c.degrade("get", key, err)
			return nil, false, nil
		}
		return nil, false, err
	}
	if !ok {
		return nil, false, nil
	}
	c.backfill(ctx, key, v)
	return v, true, nil
}

// backfill copies a remote hit into the local tier, capped at LocalTTL and
// never past the remote entry's own expiry. Failure to backfill is not a
// read failure.
func (c *MultiCache) backfill(ctx context.Context, key string, value []byte) {
	ttl := c.cfg.LocalTTL
	if rt, ok := c.remote.(remoteTTLer); ok {
		if remaining, has, err := rt.TTL(ctx, key); err == nil && has && remaining < ttl {
			ttl = remaining
		}
	}
	if err := c.local.SetTTL(ctx, key, value, ttl); err != nil {
		c.log.Debug("backfill failed", Fields{"key": key, "error": err.Error()})
		return
	}
	c.hooks.Backfill(key)
}

func (c *MultiCache) Set(ctx context.Context, key string, value []byte) error {
	return c.setBoth(ctx, key, value, 0)
}

func (c *MultiCache) SetTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return c.setBoth(ctx, key, value, ttl)
}

// setBoth writes remote-first. ttl<=0 means the remote default; the local
// copy is always capped at LocalTTL.
func (c *MultiCache) setBoth(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if c.remote != nil {
		var err error
		if ttl > 0 {
			err = c.remote.SetTTL(ctx, key, value, ttl)
		} else {
			err = c.remote.Set(ctx, key, value)
		}
		if err != nil {
			if !c.cfg.FallbackToLocal {
				return err
			}
			c.degrade("set", key, err)
		}
	}
	return c.local.SetTTL(ctx, key, value, c.boundTTL(ttl))
}

func (c *MultiCache) Delete(ctx context.Context, key string) (bool, error) {
	removed, localErr := c.local.Delete(ctx, key)
	var remoteErr error
	if c.remote != nil {
		var ok bool
		ok, remoteErr = c.remote.Delete(ctx, key)
		removed = removed || ok
	}
	if localErr == nil && remoteErr == nil {
		return removed, nil
	}
	// an invalidation that reached only one tier is never silent,
	// fallback or not
	err := &PartialFailureError{Op: "delete", Key: key, LocalErr: localErr, RemoteErr: remoteErr}
	c.hooks.PartialFailure("delete", key, err)
	c.log.Warn("partial delete", Fields{"key": key, "error": err.Error()})
	return removed, err
}

func (c *MultiCache) Exists(ctx context.Context, key string) (bool, error) {
	if ok, err := c.local.Exists(ctx, key); err != nil {
		return false, err
	} else if ok {
		return true, nil
	}
	if c.remote == nil {
		return false, nil
	}
	ok, err := c.remote.Exists(ctx, key)
	if err != nil {
		if c.cfg.FallbackToLocal {
			c.degrade("exists", key, err)
			return false, nil
		}
		return false, err
	}
	return ok, nil
}

func (c *MultiCache) Expire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	localOK, err := c.local.Expire(ctx, key, c.boundTTL(ttl))
	if err != nil {
		return false, err
	}
	if c.remote == nil {
		return localOK, nil
	}
	ok, err := c.remote.Expire(ctx, key, ttl)
	if err != nil {
		if c.cfg.FallbackToLocal {
			c.degrade("expire", key, err)
			return localOK, nil
		}
		return false, err
	}
	return ok || localOK, nil
}

func (c *MultiCache) Incr(ctx context.Context, key string) (int64, error) {
	return c.addInt(ctx, key, "incr")
}

func (c *MultiCache) Decr(ctx context.Context, key string) (int64, error) {
	return c.addInt(ctx, key, "decr")
}

// addInt runs the counter remotely so concurrent instances agree, then
// mirrors the result into the local tier. Degraded mode counts locally,
// which is only process-coherent.
func (c *MultiCache) addInt(ctx context.Context, key, op string) (int64, error) {
	remoteOp := func(r Cache) (int64, error) {
		if op == "incr" {
			return r.Incr(ctx, key)
		}
		return r.Decr(ctx, key)
	}
	localOp := func() (int64, error) {
		if op == "incr" {
			return c.local.Incr(ctx, key)
		}
		return c.local.Decr(ctx, key)
	}

	if c.remote == nil {
		return localOp()
	}
	n, err := remoteOp(c.remote)
	if err != nil {
		if c.cfg.FallbackToLocal {
			c.degrade(op, key, err)
			return localOp()
		}
		return 0, err
	}
	if lerr := c.local.SetTTL(ctx, key, []byte(strconv.FormatInt(n, 10)), c.cfg.LocalTTL); lerr != nil {
		c.log.Debug("counter mirror failed", Fields{"key": key, "error": lerr.Error()})
	}
	return n, nil
}

// Keys asks the remote tier, the only one with a complete view. Degraded
// mode falls back to the local key set.
func (c *MultiCache) Keys(ctx context.Context, pattern string) ([]string, error) {
	if c.remote != nil {
		ks, err := c.remote.Keys(ctx, pattern)
		if err == nil {
			return ks, nil
		}
		if !c.cfg.FallbackToLocal {
			return nil, err
		}
		c.degrade("keys", pattern, err)
	}
	return c.local.Keys(ctx, pattern)
}

func (c *MultiCache) HGet(ctx context.Context, key, field string) ([]byte, bool, error) {
	if v, ok, err := c.local.HGet(ctx, key, field); err != nil {
		return nil, false, err
	} else if ok {
		return v, true, nil
	}
	if c.remote == nil {
		return nil, false, nil
	}
	v, ok, err := c.remote.HGet(ctx, key, field)
	if err != nil {
		if c.cfg.FallbackToLocal {
			c.degrade("hget", key, err)
			return nil, false, nil
		}
		return nil, false, err
	}
	if !ok {
		return nil, false, nil
	}
	if lerr := c.local.HSet(ctx, key, field, v); lerr == nil {
		c.hooks.Backfill(key)
	}
	return v, true, nil
}

func (c *MultiCache) HSet(ctx context.Context, key, field string, value []byte) error {
	if c.remote != nil {
		if err := c.remote.HSet(ctx, key, field, value); err != nil {
			if !c.cfg.FallbackToLocal {
				return err
			}
			c.degrade("hset", key, err)
		}
	}
	return c.local.HSet(ctx, key, field, value)
}

func (c *MultiCache) HDel(ctx context.Context, key, field string) (bool, error) {
	removed, localErr := c.local.HDel(ctx, key, field)
	var remoteErr error
	if c.remote != nil {
		var ok bool
		ok, remoteErr = c.remote.HDel(ctx, key, field)
		removed = removed || ok
	}
	if localErr == nil && remoteErr == nil {
		return removed, nil
	}
	err := &PartialFailureError{Op: "hdel", Key: key, LocalErr: localErr, RemoteErr: remoteErr}
	c.hooks.PartialFailure("hdel", key, err)
	c.log.Warn("partial hash delete", Fields{"key": key, "field": field, "error": err.Error()})
	return removed, err
}

func (c *MultiCache) HExists(ctx context.Context, key, field string) (bool, error) {
	if ok, err := c.local.HExists(ctx, key, field); err != nil {
		return false, err
	} else if ok {
		return true, nil
	}
	if c.remote == nil {
		return false, nil
	}
	ok, err := c.remote.HExists(ctx, key, field)
	if err != nil {
		if c.cfg.FallbackToLocal {
			c.degrade("hexists", key, err)
			return false, nil
		}
		return false, err
	}
	return ok, nil
}

func (c *MultiCache) HKeys(ctx context.Context, key string) ([]string, error) {
	if c.remote != nil {
		ks, err := c.remote.HKeys(ctx, key)
		if err == nil {
			return ks, nil
		}
		if !c.cfg.FallbackToLocal {
			return nil, err
		}
		c.degrade("hkeys", key, err)
	}
	return c.local.HKeys(ctx, key)
}

func (c *MultiCache) HLen(ctx context.Context, key string) (int64, error) {
	if c.remote != nil {
		n, err := c.remote.HLen(ctx, key)
		if err == nil {
			return n, nil
		}
		if !c.cfg.FallbackToLocal {
			return 0, err
		}
		c.degrade("hlen", key, err)
	}
	return c.local.HLen(ctx, key)
}

func (c *MultiCache) Close(ctx context.Context) error {
	localErr := c.local.Close(ctx)
	var remoteErr error
	if c.remote != nil {
		remoteErr = c.remote.Close(ctx)
	}
	return errors.Join(localErr, remoteErr)
}

// boundTTL caps a caller TTL at LocalTTL for the local copy. ttl<=0 means
// the caller wanted the default, so LocalTTL applies.
func (c *MultiCache) boundTTL(ttl time.Duration) time.Duration {
	if ttl > 0 && ttl < c.cfg.LocalTTL {
		return ttl
	}
	return c.cfg.LocalTTL
}

// degrade records a per-call fallback to local-only service.
func (c *MultiCache) degrade(op, key string, err error) {
	c.hooks.RemoteFallback(op, key, err)
	c.log.Warn("remote tier failed, serving local", Fields{"op": op, "key": key, "error": err.Error()})
}

// MultiManager owns one MultiCache for its lifetime.
type MultiManager struct {
	settings Settings
	opt      Options

	mu    sync.Mutex
	cache *MultiCache
}

var _ Manager = (*MultiManager)(nil)

func NewMultiManager(s Settings, opt Options) *MultiManager {
	return &MultiManager{settings: s, opt: opt}
}

func (m *MultiManager) GetCache(context.Context) (Cache, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cache != nil {
		return m.cache, nil
	}
	c, err := NewMulti(m.settings, m.opt)
	if err != nil {
		return nil, err
	}
	m.cache = c
	return c, nil
}

func (m *MultiManager) Close(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cache == nil {
		return nil
	}
	err := m.cache.Close(ctx)
	m.cache = nil
	return err
}
