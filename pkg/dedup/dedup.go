package dedup

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisDeduper marks webhook event IDs as processed using SETNX with a TTL.
// The TTL only needs to outlast the provider's redelivery window; expired
// duplicates fall through to the idempotent event transitions.
type RedisDeduper struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisDeduper creates a Redis-backed deduper.
// Panics if client is nil to fail fast during initialization.
func NewRedisDeduper(client *redis.Client, cfg Config) *RedisDeduper {
	if client == nil {
		panic("dedup: redis client is required")
	}
	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = "billing_event:"
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 72 * time.Hour
	}
	return &RedisDeduper{client: client, prefix: prefix, ttl: ttl}
}

// Seen marks the event ID as processed and reports whether it had already
// been processed before this call.
func (d *RedisDeduper) Seen(ctx context.Context, eventID string) (bool, error) {
	created, err := d.client.SetNX(ctx, d.prefix+eventID, 1, d.ttl).Result()
	if err != nil {
		return false, err
	}
	return !created, nil
}

// MemoryDeduper is an in-memory deduper for tests and single-process
// deployments. Entries are never evicted.
type MemoryDeduper struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

// NewMemoryDeduper creates an empty in-memory deduper.
func NewMemoryDeduper() *MemoryDeduper {
	return &MemoryDeduper{seen: make(map[string]struct{})}
}

// Seen marks the event ID as processed and reports whether it had already
// been processed before this call.
func (d *MemoryDeduper) Seen(ctx context.Context, eventID string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.seen[eventID]; ok {
		return true, nil
	}
	d.seen[eventID] = struct{}{}
	return false, nil
}
