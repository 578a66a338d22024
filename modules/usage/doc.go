// Package usage exposes the quota subsystem over HTTP: the Paddle webhook
// receiver and the authoritative per-account usage snapshot endpoint.
package usage
