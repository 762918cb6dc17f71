package tiercache

import "time"

// CacheType selects which tier a Manager builds.
type CacheType string

const (
	TypeLocal CacheType = "local"
	TypeRedis CacheType = "redis"
	TypeMulti CacheType = "multi"
)

// ConnectionType selects the Redis topology.
type ConnectionType string

const (
	ConnStandalone ConnectionType = "standalone"
	ConnCluster    ConnectionType = "cluster"
)

// Settings is the full cache configuration, shaped to map 1:1 onto an
// application config file section (cache.enabled, cache.cache_type, ...).
type Settings struct {
	Enabled bool        `json:"enabled" yaml:"enabled"`
	Type    CacheType   `json:"cache_type" yaml:"cache_type"`
	Local   LocalConfig `json:"local" yaml:"local"`
	Redis   RedisConfig `json:"redis" yaml:"redis"`
	Multi   MultiConfig `json:"multi" yaml:"multi"`
}

// LocalConfig tunes the in-process tier.
type LocalConfig struct {
	// MaxCapacity bounds the entry count per table (scalars and hashes are
	// budgeted separately). Exceeding it evicts the least recently used entry.
	MaxCapacity int `json:"max_capacity" yaml:"max_capacity"`
	// DefaultTTL applies to Set and newly created hashes.
	DefaultTTL time.Duration `json:"default_ttl" yaml:"default_ttl"`
	// CleanupInterval paces the background sweep of expired entries. The
	// sweep only bounds memory; access-time checks enforce expiry.
	CleanupInterval time.Duration `json:"cleanup_interval" yaml:"cleanup_interval"`
}

// RedisConfig tunes the remote tier.
type RedisConfig struct {
	ConnectionType ConnectionType `json:"connection_type" yaml:"connection_type"`
	// URL is the standalone endpoint (redis://[:password@]host:port[/db]).
	URL string `json:"url" yaml:"url"`
	// Hosts are the cluster seed endpoints (host:port).
	Hosts    []string `json:"hosts" yaml:"hosts"`
	Password string   `json:"password" yaml:"password"`
	DB       int      `json:"db" yaml:"db"`

	MinIdle        int           `json:"min_idle" yaml:"min_idle"`
	MaxConnections int           `json:"max_connections" yaml:"max_connections"`
	ConnectTimeout time.Duration `json:"connect_timeout" yaml:"connect_timeout"`
	CommandTimeout time.Duration `json:"command_timeout" yaml:"command_timeout"`

	DefaultTTL time.Duration `json:"default_ttl" yaml:"default_ttl"`
}

// MultiConfig tunes the combined tier.
type MultiConfig struct {
	// LocalTTL bounds how long a locally cached copy may diverge from the
	// authoritative remote value (the staleness bound).
	LocalTTL time.Duration `json:"local_ttl" yaml:"local_ttl"`
	// FallbackToLocal absorbs remote failures: reads degrade to local-only,
	// writes become degraded successes visible to this instance only.
	FallbackToLocal bool `json:"fallback_to_local" yaml:"fallback_to_local"`
}

// Defaults mirror the historical configuration.
func (s Settings) withDefaults() Settings {
	if s.Type == "" {
		s.Type = TypeLocal
	}
	s.Local = s.Local.withDefaults()
	s.Redis = s.Redis.withDefaults()
	s.Multi = s.Multi.withDefaults()
	return s
}

func (c LocalConfig) withDefaults() LocalConfig {
	c.MaxCapacity = coalesce(c.MaxCapacity, 10000)
	c.DefaultTTL = coalesce(c.DefaultTTL, time.Hour)
	c.CleanupInterval = coalesce(c.CleanupInterval, time.Minute)
	return c
}

func (c RedisConfig) withDefaults() RedisConfig {
	c.ConnectionType = coalesce(c.ConnectionType, ConnStandalone)
	if c.ConnectionType == ConnStandalone {
		c.URL = coalesce(c.URL, "redis://127.0.0.1:6379")
	}
	c.MinIdle = coalesce(c.MinIdle, 5)
	c.MaxConnections = coalesce(c.MaxConnections, 20)
	c.ConnectTimeout = coalesce(c.ConnectTimeout, 10*time.Second)
	c.CommandTimeout = coalesce(c.CommandTimeout, 5*time.Second)
	c.DefaultTTL = coalesce(c.DefaultTTL, time.Hour)
	return c
}

func (c MultiConfig) withDefaults() MultiConfig {
	c.LocalTTL = coalesce(c.LocalTTL, 5*time.Minute)
	return c
}

// Validate rejects configurations a Manager cannot act on.
func (s Settings) Validate() error {
	if !s.Enabled {
		return nil
	}
	switch s.Type {
	case TypeLocal:
		return s.Local.validate()
	case TypeRedis:
		return s.Redis.validate()
	case TypeMulti:
		if err := s.Local.validate(); err != nil {
			return err
		}
		if err := s.Redis.validate(); err != nil {
			return err
		}
		if s.Multi.LocalTTL <= 0 {
			return &ConfigError{Field: "multi.local_ttl", Reason: "must be positive"}
		}
		return nil
	default:
		return &ConfigError{Field: "cache_type", Reason: "unknown cache type " + string(s.Type)}
	}
}

func (c LocalConfig) validate() error {
	if c.MaxCapacity <= 0 {
		return &ConfigError{Field: "local.max_capacity", Reason: "must be positive"}
	}
	return nil
}

func (c RedisConfig) validate() error {
	switch c.ConnectionType {
	case ConnStandalone:
		if c.URL == "" {
			return &ConfigError{Field: "redis.url", Reason: "required in standalone mode"}
		}
	case ConnCluster:
		if len(c.Hosts) == 0 {
			return &ConfigError{Field: "redis.hosts", Reason: "required in cluster mode"}
		}
	default:
		return &ConfigError{Field: "redis.connection_type", Reason: "unknown connection type " + string(c.ConnectionType)}
	}
	if c.MaxConnections < c.MinIdle {
		return &ConfigError{Field: "redis.max_connections", Reason: "smaller than min_idle"}
	}
	return nil
}
