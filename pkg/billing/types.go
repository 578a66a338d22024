package billing

import "time"

// Period is a provider-owned billing period cached by this subsystem.
// The interval is half-open: usage at exactly End belongs to the next period.
type Period struct {
	Start time.Time
	End   time.Time
}

// IsValid reports whether the bounds describe a non-empty interval.
func (p Period) IsValid() bool {
	return !p.Start.IsZero() && !p.End.IsZero() && p.Start.Before(p.End)
}

// Contains reports whether now falls inside the period (Start <= now < End).
func (p Period) Contains(now time.Time) bool {
	return !now.Before(p.Start) && now.Before(p.End)
}

// EventType is the normalized subscription lifecycle event type.
// Provider implementations map their specific webhook events to these.
type EventType string

const (
	EventActivated     EventType = "activated"
	EventRenewalPaid   EventType = "renewal_paid"
	EventStatusUpdated EventType = "status_updated"
	EventCanceled      EventType = "canceled"
	EventPaymentFailed EventType = "payment_failed"
)

// Subscription statuses mirrored from the provider. Stored verbatim on the
// account record; only "active" maps to the pro plan tier.
const (
	StatusActive   = "active"
	StatusPastDue  = "past_due"
	StatusCanceled = "canceled"
)

// Event is a normalized, immutable subscription notification. Delivery gives
// no ordering guarantee; duplicates and reordering must be tolerated by the
// consumer.
type Event struct {
	ID             string    // Provider's event ID, used for dedup
	Type           EventType // Normalized event type
	ProviderEvent  string    // Original provider event name
	SubscriptionID string    // Provider's subscription ID
	CustomerID     string    // Account reference from provider custom data
	Status         string    // Provider subscription status, if carried
	Period         *Period   // New billing period bounds (activation/renewal)
	Raw            map[string]any
}
