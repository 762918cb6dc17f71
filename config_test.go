package tiercache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalConfigDefaults(t *testing.T) {
	c := LocalConfig{}.withDefaults()
	assert.Equal(t, 10000, c.MaxCapacity)
	assert.Equal(t, time.Hour, c.DefaultTTL)
	assert.Equal(t, time.Minute, c.CleanupInterval)
}

func TestRedisConfigDefaults(t *testing.T) {
	c := RedisConfig{}.withDefaults()
	assert.Equal(t, ConnStandalone, c.ConnectionType)
	assert.Equal(t, "redis://127.0.0.1:6379", c.URL)
	assert.Equal(t, 5, c.MinIdle)
	assert.Equal(t, 20, c.MaxConnections)
	assert.Equal(t, 10*time.Second, c.ConnectTimeout)
	assert.Equal(t, 5*time.Second, c.CommandTimeout)
	assert.Equal(t, time.Hour, c.DefaultTTL)
}

func TestRedisConfigClusterNoURLDefault(t *testing.T) {
	c := RedisConfig{ConnectionType: ConnCluster}.withDefaults()
	assert.Empty(t, c.URL, "cluster mode gets no standalone URL default")
}

func TestMultiConfigDefaults(t *testing.T) {
	c := MultiConfig{}.withDefaults()
	assert.Equal(t, 5*time.Minute, c.LocalTTL)
	assert.False(t, c.FallbackToLocal)
}

func TestSettingsValidate(t *testing.T) {
	tests := []struct {
		name  string
		s     Settings
		field string // "" = valid
	}{
		{
			name: "disabled skips validation",
			s:    Settings{Enabled: false, Type: "bogus"},
		},
		{
			name: "local ok",
			s:    Settings{Enabled: true, Type: TypeLocal, Local: LocalConfig{MaxCapacity: 1}},
		},
		{
			name:  "local bad capacity",
			s:     Settings{Enabled: true, Type: TypeLocal, Local: LocalConfig{MaxCapacity: -1}},
			field: "local.max_capacity",
		},
		{
			name:  "standalone needs url",
			s:     Settings{Enabled: true, Type: TypeRedis, Redis: RedisConfig{ConnectionType: ConnStandalone}},
			field: "redis.url",
		},
		{
			name:  "cluster needs hosts",
			s:     Settings{Enabled: true, Type: TypeRedis, Redis: RedisConfig{ConnectionType: ConnCluster}},
			field: "redis.hosts",
		},
		{
			name: "pool smaller than min idle",
			s: Settings{Enabled: true, Type: TypeRedis, Redis: RedisConfig{
				ConnectionType: ConnStandalone,
				URL:            "redis://127.0.0.1:6379",
				MinIdle:        10,
				MaxConnections: 5,
			}},
			field: "redis.max_connections",
		},
		{
			name:  "unknown type",
			s:     Settings{Enabled: true, Type: "bogus"},
			field: "cache_type",
		},
		{
			name: "multi needs positive local ttl",
			s: Settings{Enabled: true, Type: TypeMulti,
				Local: LocalConfig{MaxCapacity: 1},
				Redis: RedisConfig{ConnectionType: ConnStandalone, URL: "redis://127.0.0.1:6379", MinIdle: 1, MaxConnections: 1},
				Multi: MultiConfig{LocalTTL: -time.Second},
			},
			field: "multi.local_ttl",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.s.Validate()
			if tt.field == "" {
				assert.NoError(t, err)
				return
			}
			var ce *ConfigError
			require.ErrorAs(t, err, &ce)
			assert.Equal(t, tt.field, ce.Field)
		})
	}
}
