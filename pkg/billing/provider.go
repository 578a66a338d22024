package billing

import "context"

// Provider defines the minimal interface to the payments provider.
// The provider is the authority for subscription status and billing-period
// boundaries; this subsystem only caches what it learns through the two
// channels below (request/response fetch and asynchronous webhook events).
type Provider interface {
	// GetSubscriptionPeriod fetches the current billing period for a
	// subscription. The call is an idempotent read. Returns
	// ErrProviderUnavailable (possibly wrapped) when the provider cannot
	// be reached, so callers can fall back to cached bounds.
	GetSubscriptionPeriod(ctx context.Context, subscriptionID string) (Period, error)

	// ParseWebhook validates the event signature and normalizes the payload
	// into an Event. Must reject payloads with invalid signatures to prevent
	// webhook spoofing.
	ParseWebhook(ctx context.Context, payload []byte, signature string) (*Event, error)
}
