package billing

import "errors"

var (
	ErrProviderUnavailable       = errors.New("billing provider unavailable")
	ErrSubscriptionNotFound      = errors.New("subscription not found at provider")
	ErrNoBillingPeriod           = errors.New("subscription has no current billing period")
	ErrWebhookVerificationFailed = errors.New("webhook signature verification failed")
	ErrInvalidWebhookPayload     = errors.New("invalid webhook payload")

	ErrMissingAPIKey              = errors.New("billing provider API key is required")
	ErrMissingWebhookSecret       = errors.New("billing provider webhook secret is required")
	ErrInvalidProviderEnvironment = errors.New("invalid billing provider environment")
	ErrMissingSubscriptionID      = errors.New("subscription ID is required")
)
