// Package billing abstracts the payments provider behind a two-channel
// interface: an idempotent request/response fetch of the current billing
// period, and asynchronous webhook events describing subscription lifecycle
// changes.
//
// The provider is the single authority for subscription status and
// billing-period boundaries. Events are normalized into five types
// (activated, renewal_paid, status_updated, canceled, payment_failed) so the
// quota service stays provider-agnostic. No ordering or exactly-once
// guarantee is assumed from the delivery channel; every event carries the
// provider's event ID so consumers can deduplicate.
//
// A complete Paddle implementation is included. Webhook payloads are
// signature-verified with the official SDK verifier before parsing.
package billing
