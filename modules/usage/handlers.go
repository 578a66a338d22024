package usage

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/lexibly/quotakit/pkg/billing"
	"github.com/lexibly/quotakit/pkg/logger"
)

type handlers struct {
	svc Service
	log *slog.Logger
}

// webhook receives raw Paddle deliveries. The body and signature header are
// passed through verbatim; verification happens inside the provider.
//
// A dropped event still answers 200: the transport must not redeliver events
// this subsystem has decided to ignore. Only verification and payload
// failures are the sender's problem.
func (h *handlers) webhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "failed to read request body")
		return
	}

	signature := r.Header.Get("Paddle-Signature")

	if err := h.svc.HandleWebhook(r.Context(), payload, signature); err != nil {
		switch {
		case errors.Is(err, billing.ErrWebhookVerificationFailed),
			errors.Is(err, billing.ErrInvalidWebhookPayload):
			writeError(w, http.StatusBadRequest, "invalid_webhook", "webhook rejected")
		default:
			h.log.ErrorContext(r.Context(), "webhook processing failed", logger.Error(err))
			writeError(w, http.StatusInternalServerError, "internal_error", "webhook processing failed")
		}
		return
	}

	w.WriteHeader(http.StatusOK)
}

// snapshot serves the authoritative usage view for an account.
func (h *handlers) snapshot(w http.ResponseWriter, r *http.Request) {
	accountID, err := uuid.Parse(chi.URLParam(r, "accountID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_account_id", "account ID must be a UUID")
		return
	}

	snap, err := h.svc.GetUsageSnapshot(r.Context(), accountID)
	if err != nil {
		h.log.ErrorContext(r.Context(), "failed to build usage snapshot",
			logger.AccountID(accountID), logger.Error(err))
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to load usage")
		return
	}

	writeJSON(w, http.StatusOK, snap)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Code: code, Message: message})
}
