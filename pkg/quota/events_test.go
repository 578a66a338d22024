package quota_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/lexibly/quotakit/pkg/billing"
	"github.com/lexibly/quotakit/pkg/dedup"
	"github.com/lexibly/quotakit/pkg/ledger"
	"github.com/lexibly/quotakit/pkg/quota"
)

func activationEvent(accountID uuid.UUID, period billing.Period) *billing.Event {
	return &billing.Event{
		ID:             "evt_activation",
		Type:           billing.EventActivated,
		ProviderEvent:  "subscription.activated",
		SubscriptionID: "sub_123",
		CustomerID:     accountID.String(),
		Status:         billing.StatusActive,
		Period:         &period,
	}
}

func TestService_ApplyEvent_Activation(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("upgrades the account to pro", func(t *testing.T) {
		t.Parallel()
		store := ledger.NewMemoryStore()
		id := uuid.New()
		seedAccount(t, store, ledger.Account{ID: id, Plan: ledger.PlanFree, TokensUsed: 12000})
		svc := newTestService(t, store, &mockProvider{})

		period := billing.Period{Start: testNow, End: testNow.AddDate(0, 1, 0)}
		require.NoError(t, svc.ApplyEvent(ctx, activationEvent(id, period)))

		account, err := store.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, ledger.PlanPro, account.Plan)
		assert.Equal(t, billing.StatusActive, account.SubscriptionStatus)
		assert.Equal(t, "sub_123", account.SubscriptionID)
		assert.Zero(t, account.TokensUsed)
		assert.True(t, account.PeriodStart.Equal(period.Start))
		assert.True(t, account.PeriodEnd.Equal(period.End))
	})

	t.Run("re-applying is a no-op", func(t *testing.T) {
		t.Parallel()
		store := ledger.NewMemoryStore()
		id := uuid.New()
		svc := newTestService(t, store, &mockProvider{})

		period := billing.Period{Start: testNow, End: testNow.AddDate(0, 1, 0)}
		event := activationEvent(id, period)
		require.NoError(t, svc.ApplyEvent(ctx, event))

		// Usage recorded between the original delivery and its duplicate
		// must survive the replay.
		svc.RecordUsage(ctx, id, 700)
		require.NoError(t, svc.ApplyEvent(ctx, event))

		account, err := store.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, int64(700), account.TokensUsed)
		assert.Equal(t, ledger.PlanPro, account.Plan)
	})

	t.Run("missing period bounds drop the event", func(t *testing.T) {
		t.Parallel()
		store := ledger.NewMemoryStore()
		id := uuid.New()
		svc := newTestService(t, store, &mockProvider{})

		event := activationEvent(id, billing.Period{})
		event.Period = nil
		require.NoError(t, svc.ApplyEvent(ctx, event))

		_, err := store.Get(ctx, id)
		assert.ErrorIs(t, err, ledger.ErrAccountNotFound)
	})
}

func TestService_ApplyEvent_Renewal(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	renewalEvent := func(accountID uuid.UUID, period *billing.Period) *billing.Event {
		return &billing.Event{
			ID:             "evt_renewal",
			Type:           billing.EventRenewalPaid,
			ProviderEvent:  "transaction.completed",
			SubscriptionID: "sub_123",
			CustomerID:     accountID.String(),
			Period:         period,
		}
	}

	t.Run("resets the counter and rolls the window", func(t *testing.T) {
		t.Parallel()
		store := ledger.NewMemoryStore()
		id := uuid.New()
		seedAccount(t, store, proAccount(id, 1800000, testNow.AddDate(0, -1, 0), testNow.AddDate(0, 0, 1)))
		svc := newTestService(t, store, &mockProvider{})

		next := billing.Period{Start: testNow.AddDate(0, 0, 1), End: testNow.AddDate(0, 1, 1)}
		require.NoError(t, svc.ApplyEvent(ctx, renewalEvent(id, &next)))

		account, err := store.Get(ctx, id)
		require.NoError(t, err)
		assert.Zero(t, account.TokensUsed)
		assert.True(t, account.PeriodStart.Equal(next.Start))
		assert.True(t, account.PeriodEnd.Equal(next.End))
	})

	t.Run("duplicate renewal does not re-zero accumulated usage", func(t *testing.T) {
		t.Parallel()
		store := ledger.NewMemoryStore()
		id := uuid.New()
		seedAccount(t, store, proAccount(id, 1800000, testNow.AddDate(0, -1, 0), testNow.AddDate(0, 0, 1)))
		svc := newTestService(t, store, &mockProvider{})

		next := billing.Period{Start: testNow.AddDate(0, 0, -1), End: testNow.AddDate(0, 1, 0)}
		event := renewalEvent(id, &next)
		require.NoError(t, svc.ApplyEvent(ctx, event))

		svc.RecordUsage(ctx, id, 900)
		require.NoError(t, svc.ApplyEvent(ctx, event))

		account, err := store.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, int64(900), account.TokensUsed)
	})

	t.Run("fetches bounds when the event carries none", func(t *testing.T) {
		t.Parallel()
		store := ledger.NewMemoryStore()
		id := uuid.New()
		seedAccount(t, store, proAccount(id, 1800000, testNow.AddDate(0, -2, 0), testNow.AddDate(0, -1, 0)))

		fetched := billing.Period{Start: testNow.AddDate(0, 0, -1), End: testNow.AddDate(0, 0, 29)}
		provider := &mockProvider{}
		provider.On("GetSubscriptionPeriod", mock.Anything, "sub_123").Return(fetched, nil)
		svc := newTestService(t, store, provider)

		require.NoError(t, svc.ApplyEvent(ctx, renewalEvent(id, nil)))

		account, err := store.Get(ctx, id)
		require.NoError(t, err)
		assert.Zero(t, account.TokensUsed)
		assert.True(t, account.PeriodEnd.Equal(fetched.End))
		provider.AssertExpectations(t)
	})

	t.Run("unresolvable bounds drop the event", func(t *testing.T) {
		t.Parallel()
		store := ledger.NewMemoryStore()
		id := uuid.New()
		original := proAccount(id, 1800000, testNow.AddDate(0, -2, 0), testNow.AddDate(0, -1, 0))
		seedAccount(t, store, original)

		provider := &mockProvider{}
		provider.On("GetSubscriptionPeriod", mock.Anything, "sub_123").
			Return(billing.Period{}, billing.ErrProviderUnavailable)
		svc := newTestService(t, store, provider)

		require.NoError(t, svc.ApplyEvent(ctx, renewalEvent(id, nil)))

		account, err := store.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, original.TokensUsed, account.TokensUsed)
		assert.True(t, account.PeriodEnd.Equal(*original.PeriodEnd))
	})
}

func TestService_ApplyEvent_StatusTransitions(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	statusEvent := func(accountID uuid.UUID, status string) *billing.Event {
		return &billing.Event{
			ID:            "evt_status",
			Type:          billing.EventStatusUpdated,
			ProviderEvent: "subscription.updated",
			CustomerID:    accountID.String(),
			Status:        status,
		}
	}

	t.Run("active status keeps pro", func(t *testing.T) {
		t.Parallel()
		store := ledger.NewMemoryStore()
		id := uuid.New()
		seedAccount(t, store, proAccount(id, 100, testNow, testNow.AddDate(0, 1, 0)))
		svc := newTestService(t, store, &mockProvider{})

		require.NoError(t, svc.ApplyEvent(ctx, statusEvent(id, billing.StatusActive)))

		account, err := store.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, ledger.PlanPro, account.Plan)
		assert.Equal(t, billing.StatusActive, account.SubscriptionStatus)
	})

	t.Run("non-active status drops to free", func(t *testing.T) {
		t.Parallel()
		store := ledger.NewMemoryStore()
		id := uuid.New()
		seedAccount(t, store, proAccount(id, 100, testNow, testNow.AddDate(0, 1, 0)))
		svc := newTestService(t, store, &mockProvider{})

		require.NoError(t, svc.ApplyEvent(ctx, statusEvent(id, "paused")))

		account, err := store.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, ledger.PlanFree, account.Plan)
		assert.Equal(t, "paused", account.SubscriptionStatus)
	})

	t.Run("cancellation", func(t *testing.T) {
		t.Parallel()
		store := ledger.NewMemoryStore()
		id := uuid.New()
		seedAccount(t, store, proAccount(id, 100, testNow, testNow.AddDate(0, 1, 0)))
		svc := newTestService(t, store, &mockProvider{})

		require.NoError(t, svc.ApplyEvent(ctx, &billing.Event{
			ID:         "evt_cancel",
			Type:       billing.EventCanceled,
			CustomerID: id.String(),
		}))

		account, err := store.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, ledger.PlanFree, account.Plan)
		assert.Equal(t, billing.StatusCanceled, account.SubscriptionStatus)
	})

	t.Run("payment failure keeps the plan", func(t *testing.T) {
		t.Parallel()
		store := ledger.NewMemoryStore()
		id := uuid.New()
		seedAccount(t, store, proAccount(id, 100, testNow, testNow.AddDate(0, 1, 0)))
		svc := newTestService(t, store, &mockProvider{})

		require.NoError(t, svc.ApplyEvent(ctx, &billing.Event{
			ID:         "evt_fail",
			Type:       billing.EventPaymentFailed,
			CustomerID: id.String(),
		}))

		account, err := store.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, ledger.PlanPro, account.Plan)
		assert.Equal(t, billing.StatusPastDue, account.SubscriptionStatus)
	})
}

func TestService_ApplyEvent_Unresolvable(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("unparsable account reference is dropped", func(t *testing.T) {
		t.Parallel()
		store := ledger.NewMemoryStore()
		svc := newTestService(t, store, &mockProvider{})

		err := svc.ApplyEvent(ctx, &billing.Event{
			ID:         "evt_x",
			Type:       billing.EventCanceled,
			CustomerID: "not-a-uuid",
		})
		assert.NoError(t, err)
	})

	t.Run("nil event is ignored", func(t *testing.T) {
		t.Parallel()
		svc := newTestService(t, ledger.NewMemoryStore(), &mockProvider{})
		assert.NoError(t, svc.ApplyEvent(ctx, nil))
	})

	t.Run("unknown event type is ignored", func(t *testing.T) {
		t.Parallel()
		store := ledger.NewMemoryStore()
		id := uuid.New()
		svc := newTestService(t, store, &mockProvider{})

		err := svc.ApplyEvent(ctx, &billing.Event{
			ID:         "evt_y",
			Type:       billing.EventType("adjustment.created"),
			CustomerID: id.String(),
		})
		assert.NoError(t, err)

		_, err = store.Get(ctx, id)
		assert.ErrorIs(t, err, ledger.ErrAccountNotFound)
	})
}

func TestService_ApplyEvent_Dedup(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	store := ledger.NewMemoryStore()
	id := uuid.New()
	svc := newTestService(t, store, &mockProvider{},
		quota.WithEventDeduper(dedup.NewMemoryDeduper()),
	)

	period := billing.Period{Start: testNow, End: testNow.AddDate(0, 1, 0)}
	event := activationEvent(id, period)
	require.NoError(t, svc.ApplyEvent(ctx, event))

	// The duplicate is filtered before it reaches the store, so usage
	// recorded in between survives even without the structural no-op guard.
	svc.RecordUsage(ctx, id, 1234)
	require.NoError(t, svc.ApplyEvent(ctx, event))

	account, err := store.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, int64(1234), account.TokensUsed)
}
