package tiercache

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/unkn0wn-root/tiercache/internal/util"
	pr "github.com/unkn0wn-root/tiercache/provider"
	"github.com/unkn0wn-root/tiercache/provider/lru"
)

// LocalCache is the in-process tier: fast storage shared by every caller in
// the same process. Scalars go through a provider.Provider; hash entries
// live in a separate bounded table. All operations are safe for concurrent
// use; atomicity is per key, never across keys.
type LocalCache struct {
	cfg   LocalConfig
	log   Logger
	hooks Hooks

	store    pr.Provider
	ownStore bool
	hashes   *hashTable

	// counters are read-modify-write against the byte store
	ctrMu sync.Mutex

	ticker *time.Ticker
	stopCh chan struct{}
	wg     sync.WaitGroup
}

var _ Cache = (*LocalCache)(nil)

// NewLocal builds the in-process tier. When opt.Store is nil the built-in
// deterministic LRU is used and owned (closed with the cache); an injected
// store is borrowed and left open.
func NewLocal(cfg LocalConfig, opt Options) (*LocalCache, error) {
	cfg = cfg.withDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	opt = opt.withDefaults()

	c := &LocalCache{
		cfg:    cfg,
		log:    opt.Logger,
		hooks:  opt.Hooks,
		store:  opt.Store,
		hashes: newHashTable(cfg.MaxCapacity),
	}
	if c.store == nil {
		s, err := lru.New(lru.Config{
			MaxEntries:      cfg.MaxCapacity,
			CleanupInterval: cfg.CleanupInterval,
		})
		if err != nil {
			return nil, &ConfigError{Field: "local.max_capacity", Reason: err.Error()}
		}
		c.store = s
		c.ownStore = true
	}

	if cfg.CleanupInterval > 0 {
		c.ticker = time.NewTicker(cfg.CleanupInterval)
		c.stopCh = make(chan struct{})
		c.wg.Add(1)
		go func() {
			defer c.wg.Done()
			for {
				select {
				case <-c.ticker.C:
					c.hashes.sweep()
				case <-c.stopCh:
					return
				}
			}
		}()
	}
	return c, nil
}

func (c *LocalCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return c.store.Get(ctx, key)
}

func (c *LocalCache) Set(ctx context.Context, key string, value []byte) error {
	return c.SetTTL(ctx, key, value, c.cfg.DefaultTTL)
}

func (c *LocalCache) SetTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	ok, err := c.store.Set(ctx, key, value, ttl)
	if err != nil {
		return err
	}
	if !ok {
		// admission refusal is not a caller-visible failure
		c.hooks.LocalSetRejected(key)
		c.log.Debug("local store rejected set", Fields{"key": key})
	}
	return nil
}

func (c *LocalCache) Delete(ctx context.Context, key string) (bool, error) {
	removed, err := c.store.Del(ctx, key)
	if err != nil {
		return false, err
	}
	if c.hashes.remove(key) {
		removed = true
	}
	return removed, nil
}

func (c *LocalCache) Exists(ctx context.Context, key string) (bool, error) {
	if _, ok, err := c.store.Get(ctx, key); err != nil {
		return false, err
	} else if ok {
		return true, nil
	}
	return c.hashes.exists(key), nil
}

func (c *LocalCache) Expire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	if v, ok, err := c.store.Get(ctx, key); err != nil {
		return false, err
	} else if ok {
		_, err := c.store.Set(ctx, key, v, ttl)
		return err == nil, err
	}
	return c.hashes.expire(key, ttl), nil
}

func (c *LocalCache) Incr(ctx context.Context, key string) (int64, error) {
	return c.addInt(ctx, key, 1)
}

func (c *LocalCache) Decr(ctx context.Context, key string) (int64, error) {
	return c.addInt(ctx, key, -1)
}

func (c *LocalCache) addInt(ctx context.Context, key string, delta int64) (int64, error) {
	c.ctrMu.Lock()
	defer c.ctrMu.Unlock()

	var cur int64
	if b, ok, err := c.store.Get(ctx, key); err != nil {
		return 0, err
	} else if ok {
		n, err := strconv.ParseInt(string(b), 10, 64)
		if err != nil {
			return 0, &SerializationError{Key: key, Err: err}
		}
		cur = n
	}
	cur += delta
	if _, err := c.store.Set(ctx, key, []byte(strconv.FormatInt(cur, 10)), c.cfg.DefaultTTL); err != nil {
		return 0, err
	}
	return cur, nil
}

func (c *LocalCache) Keys(ctx context.Context, pattern string) ([]string, error) {
	re, err := util.CompilePattern(pattern)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{})
	var out []string
	if en, ok := c.store.(pr.Enumerator); ok {
		ks, err := en.Keys(ctx)
		if err != nil {
			return nil, err
		}
		for _, k := range util.MatchKeys(ks, re) {
			seen[k] = struct{}{}
			out = append(out, k)
		}
	}
	for _, k := range util.MatchKeys(c.hashes.keys(), re) {
		if _, dup := seen[k]; !dup {
			out = append(out, k)
		}
	}
	return out, nil
}

func (c *LocalCache) HGet(_ context.Context, key, field string) ([]byte, bool, error) {
	v, ok := c.hashes.get(key, field)
	return v, ok, nil
}

func (c *LocalCache) HSet(_ context.Context, key, field string, value []byte) error {
	c.hashes.set(key, field, value, c.cfg.DefaultTTL)
	return nil
}

func (c *LocalCache) HDel(_ context.Context, key, field string) (bool, error) {
	return c.hashes.del(key, field), nil
}

func (c *LocalCache) HExists(_ context.Context, key, field string) (bool, error) {
	return c.hashes.fieldExists(key, field), nil
}

func (c *LocalCache) HKeys(_ context.Context, key string) ([]string, error) {
	return c.hashes.fieldKeys(key), nil
}

func (c *LocalCache) HLen(_ context.Context, key string) (int64, error) {
	return int64(c.hashes.fieldCount(key)), nil
}

func (c *LocalCache) Close(ctx context.Context) error {
	if c.stopCh != nil {
		close(c.stopCh)
		c.ticker.Stop()
		c.wg.Wait()
		c.stopCh = nil
	}
	if c.ownStore {
		return c.store.Close(ctx)
	}
	return nil
}

// LocalManager owns one LocalCache for its lifetime.
type LocalManager struct {
	cfg LocalConfig
	opt Options

	mu    sync.Mutex
	cache *LocalCache
}

var _ Manager = (*LocalManager)(nil)

func NewLocalManager(cfg LocalConfig, opt Options) *LocalManager {
	return &LocalManager{cfg: cfg, opt: opt}
}

func (m *LocalManager) GetCache(context.Context) (Cache, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cache != nil {
		return m.cache, nil
	}
	c, err := NewLocal(m.cfg, m.opt)
	if err != nil {
		return nil, err
	}
	m.cache = c
	return c, nil
}

func (m *LocalManager) Close(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cache == nil {
		return nil
	}
	err := m.cache.Close(ctx)
	m.cache = nil
	return err
}
