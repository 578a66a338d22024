package usage_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/lexibly/quotakit/modules/usage"
	"github.com/lexibly/quotakit/pkg/billing"
	"github.com/lexibly/quotakit/pkg/ledger"
	"github.com/lexibly/quotakit/pkg/quota"
)

type mockService struct {
	mock.Mock
}

func (m *mockService) GetUsageSnapshot(ctx context.Context, accountID uuid.UUID) (*quota.Snapshot, error) {
	args := m.Called(ctx, accountID)
	if snap := args.Get(0); snap != nil {
		return snap.(*quota.Snapshot), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockService) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	args := m.Called(ctx, payload, signature)
	return args.Error(0)
}

func TestWebhookEndpoint(t *testing.T) {
	t.Parallel()

	t.Run("accepted delivery answers 200", func(t *testing.T) {
		t.Parallel()

		svc := new(mockService)
		svc.On("HandleWebhook", mock.Anything, []byte(`{"event_id":"evt_1"}`), "ts=1;h1=abc").
			Return(nil)

		req := httptest.NewRequest(http.MethodPost, "/webhooks/paddle",
			strings.NewReader(`{"event_id":"evt_1"}`))
		req.Header.Set("Paddle-Signature", "ts=1;h1=abc")
		rec := httptest.NewRecorder()

		usage.Router(svc, nil).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		svc.AssertExpectations(t)
	})

	t.Run("verification failure answers 400", func(t *testing.T) {
		t.Parallel()

		svc := new(mockService)
		svc.On("HandleWebhook", mock.Anything, mock.Anything, mock.Anything).
			Return(billing.ErrWebhookVerificationFailed)

		req := httptest.NewRequest(http.MethodPost, "/webhooks/paddle", strings.NewReader("{}"))
		rec := httptest.NewRecorder()

		usage.Router(svc, nil).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "invalid_webhook")
	})

	t.Run("malformed payload answers 400", func(t *testing.T) {
		t.Parallel()

		svc := new(mockService)
		svc.On("HandleWebhook", mock.Anything, mock.Anything, mock.Anything).
			Return(billing.ErrInvalidWebhookPayload)

		req := httptest.NewRequest(http.MethodPost, "/webhooks/paddle", strings.NewReader("not json"))
		rec := httptest.NewRecorder()

		usage.Router(svc, nil).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("processing failure answers 500", func(t *testing.T) {
		t.Parallel()

		svc := new(mockService)
		svc.On("HandleWebhook", mock.Anything, mock.Anything, mock.Anything).
			Return(assert.AnError)

		req := httptest.NewRequest(http.MethodPost, "/webhooks/paddle", strings.NewReader("{}"))
		rec := httptest.NewRecorder()

		usage.Router(svc, nil).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}

func TestSnapshotEndpoint(t *testing.T) {
	t.Parallel()

	t.Run("returns usage view", func(t *testing.T) {
		t.Parallel()

		accountID := uuid.New()
		svc := new(mockService)
		svc.On("GetUsageSnapshot", mock.Anything, accountID).Return(&quota.Snapshot{
			Plan:           ledger.PlanFree,
			TokensUsed:     1200,
			TokenLimit:     20000,
			DaysUntilReset: -1,
		}, nil)

		req := httptest.NewRequest(http.MethodGet, "/accounts/"+accountID.String()+"/usage", nil)
		rec := httptest.NewRecorder()

		usage.Router(svc, nil).ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))

		var body map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "free", body["plan"])
		assert.Equal(t, float64(1200), body["tokens_used"])
		assert.Equal(t, float64(20000), body["token_limit"])
		assert.Equal(t, float64(-1), body["days_until_reset"])
	})

	t.Run("rejects malformed account ids", func(t *testing.T) {
		t.Parallel()

		svc := new(mockService)

		req := httptest.NewRequest(http.MethodGet, "/accounts/not-a-uuid/usage", nil)
		rec := httptest.NewRecorder()

		usage.Router(svc, nil).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "invalid_account_id")
		svc.AssertNotCalled(t, "GetUsageSnapshot")
	})

	t.Run("snapshot failure answers 500", func(t *testing.T) {
		t.Parallel()

		accountID := uuid.New()
		svc := new(mockService)
		svc.On("GetUsageSnapshot", mock.Anything, accountID).Return(nil, assert.AnError)

		req := httptest.NewRequest(http.MethodGet, "/accounts/"+accountID.String()+"/usage", nil)
		rec := httptest.NewRecorder()

		usage.Router(svc, nil).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}
