// usage:
//
// import (
//
//	"log/slog"
//
//	"github.com/unkn0wn-root/tiercache"
//	"github.com/unkn0wn-root/tiercache/hooks/async"
//	"github.com/unkn0wn-root/tiercache/sloghooks"
//
// )
//
//	raw := sloghooks.New(slog.Default(), sloghooks.Options{
//	    FallbackEvery: 10, // sample logs: ~every 10th fallback
//	    BackfillEvery: 100,
//	})
//
// hooks := asynchook.New(raw, 1, 1000) // 1 worker; queue 1000 events
// defer hooks.Close()
//
//	mgr, _ := tiercache.NewManager(settings, tiercache.Options{
//	    Hooks: hooks, // or `raw` if you don't want async
//	})
package asynchook

import (
	"sync"

	"github.com/unkn0wn-root/tiercache"
)

type Hooks struct {
	inner tiercache.Hooks
	q     chan func()
	wg    sync.WaitGroup
	once  sync.Once
}

var _ tiercache.Hooks = (*Hooks)(nil)

func New(inner tiercache.Hooks, workers, qlen int) *Hooks {
	if workers <= 0 {
		workers = 1
	}
	if qlen <= 0 {
		qlen = 1024
	}

	h := &Hooks{inner: inner, q: make(chan func(), qlen)}
	h.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer h.wg.Done()
			for f := range h.q {
				f()
			}
		}()
	}
	return h
}

func (h *Hooks) Close() {
	h.once.Do(func() {
		close(h.q)
		h.wg.Wait()
	})
}

func (h *Hooks) try(f func()) {
	select {
	case h.q <- f:
	default: // drop
	}
}

func (h *Hooks) RemoteFallback(op, key string, err error) {
	h.try(func() { h.inner.RemoteFallback(op, key, err) })
}
func (h *Hooks) PartialFailure(op, key string, err error) {
	h.try(func() { h.inner.PartialFailure(op, key, err) })
}
func (h *Hooks) Backfill(key string)         { h.try(func() { h.inner.Backfill(key) }) }
func (h *Hooks) LocalSetRejected(key string) { h.try(func() { h.inner.LocalSetRejected(key) }) }
