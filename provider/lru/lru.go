// Package lru is the default local scalar store: a strict least-recently-used
// byte cache with per-entry TTL and an optional background sweep.
//
// Eviction is deterministic (exact recency order, exact capacity), which the
// local tier's contract depends on. Cost-based stores like Ristretto admit
// and evict probabilistically; use them via their adapters only when that
// trade-off is acceptable.
package lru

import (
	"container/list"
	"context"
	"errors"
	"sync"
	"time"

	pr "github.com/unkn0wn-root/tiercache/provider"
)

type entry struct {
	key       string
	value     []byte
	expiresAt time.Time // zero => no expiry
}

// Store is a count-bounded LRU byte store. The zero value is not usable;
// construct with New.
type Store struct {
	mu    sync.Mutex
	items map[string]*list.Element
	order *list.List // front = most recently used
	cap   int

	ticker *time.Ticker
	stopCh chan struct{}
	wg     sync.WaitGroup
}

var _ pr.Provider = (*Store)(nil)
var _ pr.Enumerator = (*Store)(nil)

type Config struct {
	// MaxEntries bounds the live entry count; the least recently used entry
	// is evicted to make room. Must be positive.
	MaxEntries int
	// CleanupInterval paces the expired-entry sweep. 0 disables the sweep;
	// access-time checks still guarantee expired entries are unobservable.
	CleanupInterval time.Duration
}

func New(cfg Config) (*Store, error) {
	if cfg.MaxEntries <= 0 {
		return nil, errors.New("lru: MaxEntries must be positive")
	}
	s := &Store{
		items: make(map[string]*list.Element),
		order: list.New(),
		cap:   cfg.MaxEntries,
	}
	if cfg.CleanupInterval > 0 {
		s.ticker = time.NewTicker(cfg.CleanupInterval)
		s.stopCh = make(chan struct{})
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			for {
				select {
				case <-s.ticker.C:
					s.sweep()
				case <-s.stopCh:
					return
				}
			}
		}()
	}
	return s, nil
}

func (s *Store) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	el, ok := s.items[key]
	if !ok {
		return nil, false, nil
	}
	e := el.Value.(*entry)
	if expired(e, time.Now()) {
		s.removeLocked(el)
		return nil, false, nil
	}
	s.order.MoveToFront(el)
	return e.value, true, nil
}

func (s *Store) Set(_ context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	var exp time.Time
	if ttl > 0 {
		exp = time.Now().Add(ttl)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if el, ok := s.items[key]; ok {
		e := el.Value.(*entry)
		e.value = value
		e.expiresAt = exp
		s.order.MoveToFront(el)
		return true, nil
	}
	for len(s.items) >= s.cap {
		oldest := s.order.Back()
		if oldest == nil {
			break
		}
		s.removeLocked(oldest)
	}
	s.items[key] = s.order.PushFront(&entry{key: key, value: value, expiresAt: exp})
	return true, nil
}

func (s *Store) Del(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	el, ok := s.items[key]
	if !ok {
		return false, nil
	}
	gone := expired(el.Value.(*entry), time.Now())
	s.removeLocked(el)
	return !gone, nil
}

// Keys lists live (non-expired) keys in no particular order.
func (s *Store) Keys(_ context.Context) ([]string, error) {
	now := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.items))
	for k, el := range s.items {
		if !expired(el.Value.(*entry), now) {
			out = append(out, k)
		}
	}
	return out, nil
}

// Len reports the live entry count, counting not-yet-swept expired entries.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

func (s *Store) Close(context.Context) error {
	if s.stopCh != nil {
		close(s.stopCh)
		s.ticker.Stop()
		s.wg.Wait()
		s.stopCh = nil
	}
	return nil
}

func (s *Store) sweep() {
	now := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	for el := s.order.Back(); el != nil; {
		prev := el.Prev()
		if expired(el.Value.(*entry), now) {
			s.removeLocked(el)
		}
		el = prev
	}
}

func (s *Store) removeLocked(el *list.Element) {
	e := el.Value.(*entry)
	s.order.Remove(el)
	delete(s.items, e.key)
}

func expired(e *entry, now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}
