package usage

import (
	"context"
	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/lexibly/quotakit/pkg/quota"
)

// Service is the subset of the quota service consumed by this module.
type Service interface {
	GetUsageSnapshot(ctx context.Context, accountID uuid.UUID) (*quota.Snapshot, error)
	HandleWebhook(ctx context.Context, payload []byte, signature string) error
}

// Router mounts the usage module endpoints.
//
// Example:
//
//	r := chi.NewRouter()
//	r.Mount("/billing", usage.Router(quotaSvc, log))
//
// exposes POST /billing/webhooks/paddle and
// GET /billing/accounts/{accountID}/usage.
func Router(svc Service, log *slog.Logger) chi.Router {
	if svc == nil {
		panic("usage: quota service is required")
	}
	if log == nil {
		log = slog.Default()
	}

	h := &handlers{svc: svc, log: log}

	r := chi.NewRouter()
	r.Post("/webhooks/paddle", h.webhook)
	r.Get("/accounts/{accountID}/usage", h.snapshot)
	return r
}
