package cache

import "time"

type RedisOption func(*RedisConfig)

// RedisConfig holds connection settings for NewRedisCache.
type RedisConfig struct {
	Addr         string
	Password     string
	DB           int
	PoolSize     int
	MinIdleConns int
	// PingTimeout bounds the connectivity check done by NewRedisCache.
	PingTimeout time.Duration
	// Prefix namespaces every key, "signaldesk" by default.
	Prefix string
}

func WithRedisAddr(addr string) RedisOption {
	return func(c *RedisConfig) { c.Addr = addr }
}

func WithRedisPassword(password string) RedisOption {
	return func(c *RedisConfig) { c.Password = password }
}

func WithRedisDB(db int) RedisOption {
	return func(c *RedisConfig) { c.DB = db }
}

func WithRedisPrefix(prefix string) RedisOption {
	return func(c *RedisConfig) { c.Prefix = prefix }
}

func WithRedisPingTimeout(d time.Duration) RedisOption {
	return func(c *RedisConfig) {
		if d > 0 {
			c.PingTimeout = d
		}
	}
}

type MemoryOption func(*MemoryConfig)

// MemoryConfig bounds the in-process cache. Expired entries are swept every CleanupInterval.
type MemoryConfig struct {
	MaxSize         int
	CleanupInterval time.Duration
}

func WithMemoryMaxSize(size int) MemoryOption {
	return func(c *MemoryConfig) {
		if size > 0 {
			c.MaxSize = size
		}
	}
}

type LayeredOption func(*LayeredConfig)

type LayeredConfig struct {
	MemoryMaxSize int
	// MemoryTTL caps how long an L1 copy lives; zero keeps the caller's TTL.
	MemoryTTL time.Duration
}

// WithLayeredMemoryTTL caps the L1 lifetime. Quotes go stale within seconds, so the L1 copy
// should not outlive the Redis one.
func WithLayeredMemoryTTL(ttl time.Duration) LayeredOption {
	return func(c *LayeredConfig) { c.MemoryTTL = ttl }
}
