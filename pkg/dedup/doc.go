// Package dedup filters duplicate webhook deliveries by provider event ID.
//
// The payments provider delivers events at-least-once with no ordering
// guarantee. Subscription event transitions are idempotent on their own, so
// dedup is a cost optimization rather than a correctness requirement: a
// remembered event ID saves a store transaction, a forgotten one merely
// replays a no-op.
//
// RedisDeduper shares state across replicas; MemoryDeduper serves tests and
// single-process deployments.
package dedup
