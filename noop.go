package tiercache

import (
	"context"
	"time"
)

// noopCache is what a disabled configuration hands out: every read misses,
// every write succeeds without storing anything. Callers keep a uniform
// code path whether caching is on or off.
type noopCache struct{}

var _ Cache = noopCache{}

// Noop returns the shared disabled cache.
func Noop() Cache { return noopCache{} }

func (noopCache) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }

func (noopCache) Set(context.Context, string, []byte) error { return nil }

func (noopCache) SetTTL(context.Context, string, []byte, time.Duration) error { return nil }

func (noopCache) Delete(context.Context, string) (bool, error) { return false, nil }

func (noopCache) Exists(context.Context, string) (bool, error) { return false, nil }

func (noopCache) Expire(context.Context, string, time.Duration) (bool, error) { return false, nil }

func (noopCache) Incr(context.Context, string) (int64, error) { return 0, nil }

func (noopCache) Decr(context.Context, string) (int64, error) { return 0, nil }

func (noopCache) Keys(context.Context, string) ([]string, error) { return nil, nil }

func (noopCache) HGet(context.Context, string, string) ([]byte, bool, error) {
	return nil, false, nil
}

func (noopCache) HSet(context.Context, string, string, []byte) error { return nil }

func (noopCache) HDel(context.Context, string, string) (bool, error) { return false, nil }

func (noopCache) HExists(context.Context, string, string) (bool, error) { return false, nil }

func (noopCache) HKeys(context.Context, string) ([]string, error) { return nil, nil }

func (noopCache) HLen(context.Context, string) (int64, error) { return 0, nil }

func (noopCache) Close(context.Context) error { return nil }
