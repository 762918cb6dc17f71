package tiercache

import (
	"context"
	"time"

	"github.com/unkn0wn-root/tiercache/codec"
)

// Typed is a typed view over a byte Cache: values of V are run through a
// codec.Codec on the way in and out. Encode/decode failures surface as
// *SerializationError; the tier semantics underneath are unchanged.
type Typed[V any] struct {
	c  Cache
	cd codec.Codec[V]
}

// NewTyped wraps cache with cd. Several Typed views with different codecs
// may share one Cache as long as their key spaces do not overlap.
func NewTyped[V any](cache Cache, cd codec.Codec[V]) Typed[V] {
	return Typed[V]{c: cache, cd: cd}
}

func (t Typed[V]) Get(ctx context.Context, key string) (V, bool, error) {
	var zero V
	b, ok, err := t.c.Get(ctx, key)
	if err != nil || !ok {
		return zero, ok, err
	}
	v, err := t.cd.Decode(b)
	if err != nil {
		return zero, false, &SerializationError{Key: key, Err: err}
	}
	return v, true, nil
}

func (t Typed[V]) Set(ctx context.Context, key string, value V) error {
	b, err := t.cd.Encode(value)
	if err != nil {
		return &SerializationError{Key: key, Err: err}
	}
	return t.c.Set(ctx, key, b)
}

func (t Typed[V]) SetTTL(ctx context.Context, key string, value V, ttl time.Duration) error {
	b, err := t.cd.Encode(value)
	if err != nil {
		return &SerializationError{Key: key, Err: err}
	}
	return t.c.SetTTL(ctx, key, b, ttl)
}

func (t Typed[V]) Delete(ctx context.Context, key string) (bool, error) {
	return t.c.Delete(ctx, key)
}

func (t Typed[V]) Exists(ctx context.Context, key string) (bool, error) {
	return t.c.Exists(ctx, key)
}

func (t Typed[V]) HGet(ctx context.Context, key, field string) (V, bool, error) {
	var zero V
	b, ok, err := t.c.HGet(ctx, key, field)
	if err != nil || !ok {
		return zero, ok, err
	}
	v, err := t.cd.Decode(b)
	if err != nil {
		return zero, false, &SerializationError{Key: key, Err: err}
	}
	return v, true, nil
}

func (t Typed[V]) HSet(ctx context.Context, key, field string, value V) error {
	b, err := t.cd.Encode(value)
	if err != nil {
		return &SerializationError{Key: key, Err: err}
	}
	return t.c.HSet(ctx, key, field, b)
}

// Unwrap returns the underlying byte cache for operations with no typed
// equivalent (Keys, Incr, Expire and friends).
func (t Typed[V]) Unwrap() Cache { return t.c }
