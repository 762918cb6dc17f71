// Package ristretto adapts dgraph-io/ristretto to the provider contract.
// Admission and eviction are frequency-based and probabilistic: a Set may be
// refused under pressure (ok=false) and recency order is approximate. Pick
// this engine for throughput, the default LRU for deterministic eviction.
package ristretto

import (
	"context"
	"errors"
	"time"

	rc "github.com/dgraph-io/ristretto"

	pr "github.com/unkn0wn-root/tiercache/provider"
)

type Provider struct {
	c *rc.Cache
}

var _ pr.Provider = (*Provider)(nil)

type Config struct {
	// MaxEntries approximates the entry budget: each entry costs 1.
	MaxEntries int64
	// BufferItems per ristretto docs; 0 => 64.
	BufferItems int64
	Metrics     bool
}

func New(cfg Config) (*Provider, error) {
	if cfg.MaxEntries <= 0 {
		return nil, errors.New("ristretto: MaxEntries must be positive")
	}
	if cfg.BufferItems <= 0 {
		cfg.BufferItems = 64
	}
	c, err := rc.NewCache(&rc.Config{
		NumCounters: cfg.MaxEntries * 10,
		MaxCost:     cfg.MaxEntries,
		BufferItems: cfg.BufferItems,
		Metrics:     cfg.Metrics,
	})
	if err != nil {
		return nil, err
	}
	return &Provider{c: c}, nil
}

func (p *Provider) Get(_ context.Context, key string) ([]byte, bool, error) {
	v, ok := p.c.Get(key)
	if !ok {
		return nil, false, nil
	}
	b, _ := v.([]byte)
	if b == nil {
		// drop unexpected entry shape
		p.c.Del(key)
		return nil, false, nil
	}
	return b, true, nil
}

func (p *Provider) Set(_ context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	if ttl <= 0 {
		return p.c.Set(key, value, 1), nil
	}
	return p.c.SetWithTTL(key, value, 1, ttl), nil
}

func (p *Provider) Del(_ context.Context, key string) (bool, error) {
	_, present := p.c.Get(key)
	p.c.Del(key)
	return present, nil
}

func (p *Provider) Close(_ context.Context) error {
	p.c.Wait()
	p.c.Close()
	return nil
}

// Metrics exposes ristretto's counters when enabled in Config.
func (p *Provider) Metrics() *rc.Metrics { return p.c.Metrics }
