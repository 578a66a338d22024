package billing

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	paddle "github.com/PaddleHQ/paddle-go-sdk/v4"
)

// PaddleConfig holds configuration for the Paddle billing provider.
type PaddleConfig struct {
	APIKey        string `env:"PADDLE_API_KEY,required"`
	WebhookSecret string `env:"PADDLE_WEBHOOK_SECRET,required"`
	Environment   string `env:"PADDLE_ENVIRONMENT" envDefault:"production"`
}

// PaddleProvider implements Provider for Paddle.
type PaddleProvider struct {
	client   *paddle.SDK
	verifier *paddle.WebhookVerifier
	config   PaddleConfig
}

// NewPaddleProvider creates a new Paddle billing provider.
func NewPaddleProvider(config PaddleConfig) (*PaddleProvider, error) {
	if config.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	if config.WebhookSecret == "" {
		return nil, ErrMissingWebhookSecret
	}

	var client *paddle.SDK
	var err error

	switch strings.ToLower(config.Environment) {
	case "sandbox":
		client, err = paddle.NewSandbox(config.APIKey)
	case "production", "":
		client, err = paddle.New(config.APIKey)
	default:
		return nil, fmt.Errorf("%w: %s", ErrInvalidProviderEnvironment, config.Environment)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to create paddle client: %w", err)
	}

	return &PaddleProvider{
		client:   client,
		verifier: paddle.NewWebhookVerifier(config.WebhookSecret),
		config:   config,
	}, nil
}

// GetSubscriptionPeriod fetches the current billing period for a subscription
// from Paddle. Any transport or API failure is reported as
// ErrProviderUnavailable so callers can fall back to cached bounds.
func (p *PaddleProvider) GetSubscriptionPeriod(ctx context.Context, subscriptionID string) (Period, error) {
	if subscriptionID == "" {
		return Period{}, ErrMissingSubscriptionID
	}

	sub, err := p.client.SubscriptionsClient.GetSubscription(ctx, &paddle.GetSubscriptionRequest{
		SubscriptionID: subscriptionID,
	})
	if err != nil {
		return Period{}, errors.Join(ErrProviderUnavailable, err)
	}

	if sub.CurrentBillingPeriod == nil {
		return Period{}, ErrNoBillingPeriod
	}

	period, err := parsePeriod(sub.CurrentBillingPeriod.StartsAt, sub.CurrentBillingPeriod.EndsAt)
	if err != nil {
		return Period{}, errors.Join(ErrNoBillingPeriod, err)
	}

	return period, nil
}

// ParseWebhook validates and normalizes incoming webhook data from Paddle.
func (p *PaddleProvider) ParseWebhook(ctx context.Context, payload []byte, signature string) (*Event, error) {
	// The Paddle verifier operates on an http.Request, so wrap the raw
	// payload and signature header before verification.
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, "/webhook", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request for verification: %w", err)
	}
	req.Header.Set("Paddle-Signature", signature)

	valid, err := p.verifier.Verify(req)
	if err != nil {
		return nil, errors.Join(ErrWebhookVerificationFailed, err)
	}
	if !valid {
		return nil, ErrWebhookVerificationFailed
	}

	var envelope struct {
		EventID   string         `json:"event_id"`
		EventType string         `json:"event_type"`
		Data      map[string]any `json:"data"`
	}
	if err := json.Unmarshal(payload, &envelope); err != nil {
		return nil, errors.Join(ErrInvalidWebhookPayload, err)
	}

	return normalizePaddleEvent(envelope.EventID, envelope.EventType, envelope.Data), nil
}

// normalizePaddleEvent maps a raw Paddle event to the normalized Event shape.
// Unknown event types keep the provider name as the Type so the consumer can
// log and drop them.
func normalizePaddleEvent(eventID, eventType string, data map[string]any) *Event {
	event := &Event{
		ID:            eventID,
		Type:          mapPaddleEventType(eventType, data),
		ProviderEvent: eventType,
		Raw:           data,
	}

	if customData, ok := data["custom_data"].(map[string]any); ok {
		if accountID, ok := customData["account_id"].(string); ok {
			event.CustomerID = accountID
		}
	}
	if status, ok := data["status"].(string); ok {
		event.Status = status
	}

	switch {
	case strings.HasPrefix(eventType, "subscription."):
		if subID, ok := data["id"].(string); ok {
			event.SubscriptionID = subID
		}
		event.Period = extractPeriod(data, "current_billing_period")

	case strings.HasPrefix(eventType, "transaction."):
		if subID, ok := data["subscription_id"].(string); ok {
			event.SubscriptionID = subID
		}
		event.Period = extractPeriod(data, "billing_period")
	}

	return event
}

// mapPaddleEventType maps Paddle event names to normalized event types.
//
// transaction.completed only counts as a renewal when Paddle marks the
// transaction origin as a recurring subscription charge; the initial invoice
// arrives with a different origin and is covered by subscription.activated.
func mapPaddleEventType(paddleEvent string, data map[string]any) EventType {
	switch paddleEvent {
	case "subscription.created", "subscription.activated":
		return EventActivated
	case "subscription.updated", "subscription.paused", "subscription.resumed", "subscription.past_due":
		return EventStatusUpdated
	case "subscription.canceled":
		return EventCanceled
	case "transaction.completed":
		if origin, ok := data["origin"].(string); ok && origin == "subscription_recurring" {
			return EventRenewalPaid
		}
		return EventType(paddleEvent)
	case "transaction.payment_failed":
		return EventPaymentFailed
	default:
		return EventType(paddleEvent)
	}
}

// extractPeriod pulls a {starts_at, ends_at} object out of the event data.
// Returns nil when the field is absent or malformed.
func extractPeriod(data map[string]any, key string) *Period {
	raw, ok := data[key].(map[string]any)
	if !ok {
		return nil
	}
	startsAt, _ := raw["starts_at"].(string)
	endsAt, _ := raw["ends_at"].(string)

	period, err := parsePeriod(startsAt, endsAt)
	if err != nil {
		return nil
	}
	return &period
}

func parsePeriod(startsAt, endsAt string) (Period, error) {
	start, err := time.Parse(time.RFC3339, startsAt)
	if err != nil {
		return Period{}, fmt.Errorf("invalid period start %q: %w", startsAt, err)
	}
	end, err := time.Parse(time.RFC3339, endsAt)
	if err != nil {
		return Period{}, fmt.Errorf("invalid period end %q: %w", endsAt, err)
	}

	period := Period{Start: start.UTC(), End: end.UTC()}
	if !period.IsValid() {
		return Period{}, fmt.Errorf("period start %s is not before end %s", startsAt, endsAt)
	}
	return period, nil
}
