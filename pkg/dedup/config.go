package dedup

import "time"

// Config represents the configuration for the event dedup guard.
type Config struct {
	KeyPrefix string        `env:"EVENT_DEDUP_KEY_PREFIX" envDefault:"billing_event:"` // KeyPrefix namespaces dedup keys in the shared Redis instance.
	TTL       time.Duration `env:"EVENT_DEDUP_TTL" envDefault:"72h"`                   // TTL is how long processed event IDs are remembered. It should outlast the provider's redelivery window.
}
