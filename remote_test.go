package tiercache

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T, cfg RedisConfig) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()
	srv := miniredis.RunT(t)
	cfg.URL = "redis://" + srv.Addr()
	c, err := NewRedis(cfg, Options{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close(context.Background()) })
	return c, srv
}

func TestRedisRoundTrip(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestRedis(t, RedisConfig{})

	_, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	require.False(t, ok, "miss is not an error")

	require.NoError(t, c.Set(ctx, "k", []byte("v")))

	v, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("v"), v)
}

func TestRedisTTLExpiry(t *testing.T) {
	ctx := context.Background()
	c, srv := newTestRedis(t, RedisConfig{})

	require.NoError(t, c.SetTTL(ctx, "k", []byte("v"), 10*time.Second))

	_, ok, _ := c.Get(ctx, "k")
	require.True(t, ok)

	srv.FastForward(11 * time.Second)

	_, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisDefaultTTLApplied(t *testing.T) {
	ctx := context.Background()
	c, srv := newTestRedis(t, RedisConfig{DefaultTTL: 30 * time.Second})

	require.NoError(t, c.Set(ctx, "k", []byte("v")))

	srv.FastForward(31 * time.Second)
	_, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok, "Set carries the configured default TTL")
}

func TestRedisConnectivityError(t *testing.T) {
	ctx := context.Background()
	c, srv := newTestRedis(t, RedisConfig{})
	srv.Close()

	_, _, err := c.Get(ctx, "k")
	var ce *ConnectivityError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "get", ce.Op)
	assert.Equal(t, "k", ce.Key)
}

func TestRedisConnectFailure(t *testing.T) {
	_, err := NewRedis(RedisConfig{
		URL:            "redis://127.0.0.1:1",
		ConnectTimeout: 200 * time.Millisecond,
	}, Options{})
	var ce *ConnectivityError
	require.ErrorAs(t, err, &ce)
}

func TestRedisDeleteExists(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestRedis(t, RedisConfig{})

	require.NoError(t, c.Set(ctx, "k", []byte("v")))

	ok, err := c.Exists(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)

	removed, err := c.Delete(ctx, "k")
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = c.Delete(ctx, "k")
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestRedisExpire(t *testing.T) {
	ctx := context.Background()
	c, srv := newTestRedis(t, RedisConfig{})

	ok, err := c.Expire(ctx, "missing", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.SetTTL(ctx, "k", []byte("v"), 0))
	ok, err = c.Expire(ctx, "k", 10*time.Second)
	require.NoError(t, err)
	assert.True(t, ok)

	srv.FastForward(11 * time.Second)
	_, found, _ := c.Get(ctx, "k")
	assert.False(t, found)
}

func TestRedisCounters(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestRedis(t, RedisConfig{})

	n, err := c.Incr(ctx, "ctr")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = c.Incr(ctx, "ctr")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	n, err = c.Decr(ctx, "ctr")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestRedisKeys(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestRedis(t, RedisConfig{})

	require.NoError(t, c.Set(ctx, "sess:1", []byte("a")))
	require.NoError(t, c.Set(ctx, "sess:2", []byte("b")))
	require.NoError(t, c.Set(ctx, "user:1", []byte("c")))

	ks, err := c.Keys(ctx, "sess:*")
	require.NoError(t, err)
	sort.Strings(ks)
	assert.Equal(t, []string{"sess:1", "sess:2"}, ks)
}

func TestRedisHashOps(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestRedis(t, RedisConfig{})

	require.NoError(t, c.HSet(ctx, "user:1", "name", []byte("ada")))
	require.NoError(t, c.HSet(ctx, "user:1", "age", []byte("36")))

	v, ok, err := c.HGet(ctx, "user:1", "name")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("ada"), v)

	_, ok, err = c.HGet(ctx, "user:1", "email")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = c.HExists(ctx, "user:1", "age")
	require.NoError(t, err)
	assert.True(t, ok)

	n, err := c.HLen(ctx, "user:1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	fields, err := c.HKeys(ctx, "user:1")
	require.NoError(t, err)
	sort.Strings(fields)
	assert.Equal(t, []string{"age", "name"}, fields)

	removed, err := c.HDel(ctx, "user:1", "name")
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = c.HDel(ctx, "user:1", "name")
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestRedisHashDefaultTTL(t *testing.T) {
	ctx := context.Background()
	c, srv := newTestRedis(t, RedisConfig{DefaultTTL: 30 * time.Second})

	require.NoError(t, c.HSet(ctx, "h", "f", []byte("v")))

	srv.FastForward(31 * time.Second)
	_, ok, err := c.HGet(ctx, "h", "f")
	require.NoError(t, err)
	assert.False(t, ok, "hash expires as a whole")
}

func TestRedisTTLMethod(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestRedis(t, RedisConfig{})

	require.NoError(t, c.SetTTL(ctx, "bounded", []byte("v"), 100*time.Second))
	d, ok, err := c.TTL(ctx, "bounded")
	require.NoError(t, err)
	require.True(t, ok)
	assert.InDelta(t, float64(100*time.Second), float64(d), float64(2*time.Second))

	require.NoError(t, c.SetTTL(ctx, "forever", []byte("v"), 0))
	_, ok, err = c.TTL(ctx, "forever")
	require.NoError(t, err)
	assert.False(t, ok, "no expiry reports ok=false")

	_, ok, err = c.TTL(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisClusterConfigValidation(t *testing.T) {
	_, err := NewRedis(RedisConfig{ConnectionType: ConnCluster}, Options{})
	var ce *ConfigError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "redis.hosts", ce.Field)
}

func TestRedisBadURL(t *testing.T) {
	_, err := NewRedis(RedisConfig{URL: "://not-a-url"}, Options{})
	var ce *ConfigError
	require.ErrorAs(t, err, &ce)
}
