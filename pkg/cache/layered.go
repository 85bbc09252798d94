package cache

import (
	"context"
	"time"
)

// LayeredCache reads memory first, then the backing cache, and fills memory on an L2 hit.
type LayeredCache struct {
	mem    *MemoryCache
	remote BytesCache
	memTTL time.Duration
}

// NewLayeredCache puts an in-process L1 in front of remote.
func NewLayeredCache(remote BytesCache, opts ...LayeredOption) *LayeredCache {
	cfg := &LayeredConfig{MemoryMaxSize: 1000, MemoryTTL: 5 * time.Second}
	for _, opt := range opts {
		opt(cfg)
	}
	return &LayeredCache{
		mem:    NewMemoryCache(WithMemoryMaxSize(cfg.MemoryMaxSize)),
		remote: remote,
		memTTL: cfg.MemoryTTL,
	}
}

func (lc *LayeredCache) GetBytes(ctx context.Context, key string) ([]byte, bool, error) {
	if b, ok, _ := lc.mem.GetBytes(ctx, key); ok {
		return b, true, nil
	}
	b, ok, err := lc.remote.GetBytes(ctx, key)
	if err != nil || !ok {
		return nil, false, err
	}
	_ = lc.mem.SetBytes(ctx, key, b, lc.l1TTL(0))
	return b, true, nil
}

// SetBytes writes through: remote first, then memory.
func (lc *LayeredCache) SetBytes(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := lc.remote.SetBytes(ctx, key, value, ttl); err != nil {
		return err
	}
	return lc.mem.SetBytes(ctx, key, value, lc.l1TTL(ttl))
}

func (lc *LayeredCache) l1TTL(ttl time.Duration) time.Duration {
	if lc.memTTL > 0 && (ttl <= 0 || ttl > lc.memTTL) {
		return lc.memTTL
	}
	return ttl
}

// Close closes both layers.
func (lc *LayeredCache) Close() error {
	_ = lc.mem.Close()
	return lc.remote.Close()
}

var _ BytesCache = (*LayeredCache)(nil)
