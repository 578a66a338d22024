package quota

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/lexibly/quotakit/pkg/billing"
	"github.com/lexibly/quotakit/pkg/ledger"
)

// ApplyEvent dispatches a normalized subscription event to its transition.
//
// Events lacking a resolvable subject account or required data are logged
// and dropped with a nil return: the transport must not retry them, and
// nothing here is user-facing. Store failures are returned so an at-least-
// once transport can redeliver; redelivery is safe because every transition
// is idempotent.
func (s *service) ApplyEvent(ctx context.Context, event *billing.Event) error {
	if event == nil {
		return nil
	}

	log := s.log.With(
		slog.String("event_id", event.ID),
		slog.String("event_type", string(event.Type)),
		slog.String("provider_event", event.ProviderEvent),
	)

	if s.deduper != nil && event.ID != "" {
		seen, err := s.deduper.Seen(ctx, event.ID)
		switch {
		case err != nil:
			// Dedup is an optimization; transitions stay idempotent
			// without it, so process the event anyway.
			log.WarnContext(ctx, "event dedup unavailable, processing without it", slog.Any("error", err))
		case seen:
			log.DebugContext(ctx, "duplicate event dropped")
			return nil
		}
	}

	accountID, err := uuid.Parse(event.CustomerID)
	if err != nil {
		log.WarnContext(ctx, "dropping event without resolvable account",
			slog.String("customer_id", event.CustomerID))
		return nil
	}

	switch event.Type {
	case billing.EventActivated:
		return s.applyActivation(ctx, log, accountID, event)
	case billing.EventRenewalPaid:
		return s.applyRenewal(ctx, log, accountID, event)
	case billing.EventStatusUpdated:
		return s.applyStatusUpdate(ctx, log, accountID, event)
	case billing.EventCanceled:
		return s.applyCancellation(ctx, accountID)
	case billing.EventPaymentFailed:
		return s.applyPaymentFailure(ctx, accountID)
	default:
		log.DebugContext(ctx, "ignoring unhandled event type")
		return nil
	}
}

// applyActivation handles a newly started subscription: the account becomes
// pro with a fresh counter and the event's period bounds.
func (s *service) applyActivation(ctx context.Context, log *slog.Logger, accountID uuid.UUID, event *billing.Event) error {
	if event.SubscriptionID == "" || event.Period == nil {
		log.WarnContext(ctx, "dropping activation without subscription id or period bounds")
		return nil
	}
	period := *event.Period

	_, err := s.store.Transact(ctx, accountID, func(a ledger.Account) (ledger.Account, error) {
		// Re-delivery guard: the same activation applied twice must not
		// zero a counter that has accumulated usage since the first run.
		if a.Plan == ledger.PlanPro &&
			a.SubscriptionID == event.SubscriptionID &&
			a.HasPeriod() && a.PeriodStart.Equal(period.Start) && a.PeriodEnd.Equal(period.End) {
			return a, nil
		}

		a.Plan = ledger.PlanPro
		a.SubscriptionID = event.SubscriptionID
		a.SubscriptionStatus = billing.StatusActive
		a.TokensUsed = 0
		a.PeriodStart = &period.Start
		a.PeriodEnd = &period.End
		return a, nil
	})
	return err
}

// applyRenewal handles a paid billing-cycle renewal: the counter resets and
// the new period bounds are installed atomically. Bounds come from the event
// payload when present; otherwise they are fetched from the provider.
func (s *service) applyRenewal(ctx context.Context, log *slog.Logger, accountID uuid.UUID, event *billing.Event) error {
	if event.SubscriptionID == "" {
		log.WarnContext(ctx, "dropping renewal without subscription id")
		return nil
	}

	period := event.Period
	if period == nil {
		fetched, err := s.provider.GetSubscriptionPeriod(ctx, event.SubscriptionID)
		if err != nil {
			log.WarnContext(ctx, "dropping renewal without resolvable period bounds",
				slog.String("subscription_id", event.SubscriptionID),
				slog.Any("error", err))
			return nil
		}
		period = &fetched
	}

	_, err := s.store.Transact(ctx, accountID, func(a ledger.Account) (ledger.Account, error) {
		// Duplicate or out-of-order delivery: only bounds strictly newer
		// than the stored ones may roll the period forward.
		if a.PeriodEnd != nil && !period.End.After(*a.PeriodEnd) {
			return a, nil
		}

		a.Plan = ledger.PlanPro
		if a.SubscriptionID == "" {
			a.SubscriptionID = event.SubscriptionID
		}
		a.SubscriptionStatus = billing.StatusActive
		a.TokensUsed = 0
		a.PeriodStart = &period.Start
		a.PeriodEnd = &period.End
		return a, nil
	})
	return err
}

// applyStatusUpdate mirrors the provider's subscription status onto the
// account. Plan tier follows the status: active means pro, anything else
// drops the account to free.
func (s *service) applyStatusUpdate(ctx context.Context, log *slog.Logger, accountID uuid.UUID, event *billing.Event) error {
	if event.Status == "" {
		log.WarnContext(ctx, "dropping status update without status")
		return nil
	}

	_, err := s.store.Transact(ctx, accountID, func(a ledger.Account) (ledger.Account, error) {
		a.SubscriptionStatus = event.Status
		if event.Status == billing.StatusActive {
			a.Plan = ledger.PlanPro
		} else {
			a.Plan = ledger.PlanFree
		}
		return a, nil
	})
	return err
}

func (s *service) applyCancellation(ctx context.Context, accountID uuid.UUID) error {
	_, err := s.store.Transact(ctx, accountID, func(a ledger.Account) (ledger.Account, error) {
		a.Plan = ledger.PlanFree
		a.SubscriptionStatus = billing.StatusCanceled
		return a, nil
	})
	return err
}

// applyPaymentFailure marks the account past_due. The plan tier stays
// unchanged; whether a grace period applies is decided elsewhere.
func (s *service) applyPaymentFailure(ctx context.Context, accountID uuid.UUID) error {
	_, err := s.store.Transact(ctx, accountID, func(a ledger.Account) (ledger.Account, error) {
		a.SubscriptionStatus = billing.StatusPastDue
		return a, nil
	})
	return err
}
