package quota

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/lexibly/quotakit/pkg/async"
	"github.com/lexibly/quotakit/pkg/billing"
	"github.com/lexibly/quotakit/pkg/ledger"
	"github.com/lexibly/quotakit/pkg/logger"
)

// Service defines the public interface of the quota subsystem.
type Service interface {
	// CheckBudget decides whether an account may perform a metered
	// operation. The check is advisory and read-only: it does not reserve
	// capacity, so concurrent requests may all pass and later record usage.
	// Denial returns a *QuotaExceededError.
	CheckBudget(ctx context.Context, accountID uuid.UUID, op Operation) (*Snapshot, error)

	// RecordUsage folds the actual cost of a completed operation into the
	// account ledger. Best-effort: failures are logged and swallowed so a
	// failed accounting write never turns a successful operation into a
	// user-visible error.
	RecordUsage(ctx context.Context, accountID uuid.UUID, actualCost int64)

	// GetUsageSnapshot is the authoritative read path. It serves cached
	// billing-period bounds while they are current and lazily refreshes
	// them from the payments provider when absent or expired, falling back
	// to stale cached data if the provider is unreachable.
	GetUsageSnapshot(ctx context.Context, accountID uuid.UUID) (*Snapshot, error)

	// ApplyEvent applies a normalized subscription event to the account
	// record. Each transition is independently idempotent. Events that
	// cannot be resolved to an account or lack required data are logged
	// and dropped.
	ApplyEvent(ctx context.Context, event *billing.Event) error

	// HandleWebhook verifies, parses, and applies a raw provider webhook.
	HandleWebhook(ctx context.Context, payload []byte, signature string) error
}

// EventDeduper filters duplicate webhook deliveries by provider event ID.
// Dedup is an optimization on top of idempotent transitions, not the
// correctness mechanism, so implementations may be lossy.
type EventDeduper interface {
	// Seen marks the event ID as processed and reports whether it had
	// already been processed before this call.
	Seen(ctx context.Context, eventID string) (bool, error)
}

type service struct {
	policy   Policy
	store    ledger.Store
	provider billing.Provider
	deduper  EventDeduper
	log      *slog.Logger
	now      func() time.Time
}

// NewService creates a quota Service.
// Panics if required dependencies (src, store, provider) are nil to fail
// fast during initialization.
func NewService(ctx context.Context, src Source, store ledger.Store, provider billing.Provider, opts ...ServiceOption) (Service, error) {
	if src == nil {
		panic("quota: policy Source is required")
	}
	if store == nil {
		panic("quota: ledger Store is required")
	}
	if provider == nil {
		panic("quota: billing Provider is required")
	}

	policy, err := src.Load(ctx)
	if err != nil {
		return nil, errors.Join(ErrFailedToLoadPolicy, err)
	}
	if err := policy.Validate(); err != nil {
		return nil, err
	}

	s := &service{
		policy:   policy,
		store:    store,
		provider: provider,
		log:      slog.Default(),
		now:      func() time.Time { return time.Now().UTC() },
	}

	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// CheckBudget implements the pre-flight budget check.
func (s *service) CheckBudget(ctx context.Context, accountID uuid.UUID, op Operation) (*Snapshot, error) {
	cost, err := s.policy.EstimatedCost(op)
	if err != nil {
		return nil, err
	}

	account, err := s.loadOrDefault(ctx, accountID)
	if err != nil {
		return nil, err
	}

	limit, err := s.policy.LimitFor(account.Plan)
	if err != nil {
		return nil, err
	}

	now := s.now()

	// Free usage is cumulative. Pro usage counts toward the cached billing
	// period: once that period has elapsed the counter is logically zero
	// even though the authoritative reset happens later, on the next
	// refresh or renewal event. An account with no cached period at all is
	// in a legacy/uninitialized state and its counter is used as stored.
	used := account.TokensUsed
	if account.Plan == ledger.PlanPro && account.PeriodExpired(now) {
		used = 0
	}

	if used+cost > limit {
		return nil, &QuotaExceededError{
			Plan:           account.Plan,
			TokensUsed:     used,
			TokenLimit:     limit,
			EstimatedCost:  cost,
			PeriodEnd:      account.PeriodEnd,
			DaysUntilReset: s.resetDays(now, account),
		}
	}

	return &Snapshot{
		Plan:           account.Plan,
		TokensUsed:     used,
		TokenLimit:     limit,
		PeriodStart:    account.PeriodStart,
		PeriodEnd:      account.PeriodEnd,
		DaysUntilReset: s.resetDays(now, account),
	}, nil
}

// RecordUsage implements best-effort usage accounting.
func (s *service) RecordUsage(ctx context.Context, accountID uuid.UUID, actualCost int64) {
	async.BestEffort(ctx, s.log, "record usage", func(ctx context.Context) error {
		if actualCost < 0 {
			return ErrNegativeCost
		}

		_, err := s.store.Transact(ctx, accountID, func(a ledger.Account) (ledger.Account, error) {
			// The base must be decided inside the same transaction as the
			// write, otherwise concurrent recordings lose updates.
			base := a.TokensUsed
			if a.Plan == ledger.PlanPro && !a.PeriodContains(s.now()) {
				// Missing or elapsed window: this write starts the new
				// count. Period bounds stay untouched; only an
				// authoritative source may set them.
				base = 0
			}
			a.TokensUsed = base + actualCost
			return a, nil
		})
		return err
	}, logger.AccountID(accountID), slog.Int64("token_delta", actualCost))
}

// GetUsageSnapshot implements the authoritative usage read path.
func (s *service) GetUsageSnapshot(ctx context.Context, accountID uuid.UUID) (*Snapshot, error) {
	account, err := s.loadOrDefault(ctx, accountID)
	if err != nil {
		return nil, err
	}

	limit, err := s.policy.LimitFor(account.Plan)
	if err != nil {
		return nil, err
	}

	now := s.now()

	if account.Plan == ledger.PlanFree {
		return &Snapshot{
			Plan:           ledger.PlanFree,
			TokensUsed:     account.TokensUsed,
			TokenLimit:     limit,
			DaysUntilReset: -1,
		}, nil
	}

	// Cache hit: the cached window is authoritative until it ends.
	if account.PeriodEnd != nil && now.Before(*account.PeriodEnd) {
		return &Snapshot{
			Plan:           account.Plan,
			TokensUsed:     account.TokensUsed,
			TokenLimit:     limit,
			PeriodStart:    account.PeriodStart,
			PeriodEnd:      account.PeriodEnd,
			DaysUntilReset: daysUntilReset(now, account.PeriodEnd),
		}, nil
	}

	// Nothing to refresh from: the account has never completed checkout.
	if account.SubscriptionID == "" {
		return &Snapshot{
			Plan:           account.Plan,
			TokensUsed:     0,
			TokenLimit:     limit,
			DaysUntilReset: -1,
		}, nil
	}

	period, err := s.provider.GetSubscriptionPeriod(ctx, account.SubscriptionID)
	if err != nil {
		// Availability over strict correctness on a display path: serve
		// the stale cached bounds rather than surfacing a provider outage.
		s.log.WarnContext(ctx, "billing period refresh failed, serving cached bounds",
			logger.AccountID(accountID),
			slog.String("subscription_id", account.SubscriptionID),
			logger.Error(err),
		)
		return &Snapshot{
			Plan:           account.Plan,
			TokensUsed:     account.TokensUsed,
			TokenLimit:     limit,
			PeriodStart:    account.PeriodStart,
			PeriodEnd:      account.PeriodEnd,
			DaysUntilReset: daysUntilReset(now, account.PeriodEnd),
		}, nil
	}

	updated, err := s.store.Transact(ctx, accountID, func(a ledger.Account) (ledger.Account, error) {
		// A webhook may have landed between our read and this transaction.
		// If it already installed these bounds (or newer ones), keep its
		// result instead of re-zeroing the counter.
		if a.PeriodEnd != nil && !period.End.After(*a.PeriodEnd) {
			return a, nil
		}
		a.TokensUsed = 0
		a.PeriodStart = &period.Start
		a.PeriodEnd = &period.End
		return a, nil
	})
	if err != nil {
		s.log.ErrorContext(ctx, "failed to persist refreshed billing period",
			logger.AccountID(accountID),
			logger.Error(err),
		)
		return &Snapshot{
			Plan:           account.Plan,
			TokensUsed:     0,
			TokenLimit:     limit,
			PeriodStart:    &period.Start,
			PeriodEnd:      &period.End,
			DaysUntilReset: daysUntilReset(now, &period.End),
		}, nil
	}

	return &Snapshot{
		Plan:           updated.Plan,
		TokensUsed:     updated.TokensUsed,
		TokenLimit:     limit,
		PeriodStart:    updated.PeriodStart,
		PeriodEnd:      updated.PeriodEnd,
		DaysUntilReset: daysUntilReset(now, updated.PeriodEnd),
	}, nil
}

// HandleWebhook verifies and applies a raw provider webhook delivery.
func (s *service) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	event, err := s.provider.ParseWebhook(ctx, payload, signature)
	if err != nil {
		return err
	}
	return s.ApplyEvent(ctx, event)
}

// loadOrDefault reads the account, treating an absent record as the default
// free account with zero usage.
func (s *service) loadOrDefault(ctx context.Context, accountID uuid.UUID) (*ledger.Account, error) {
	account, err := s.store.Get(ctx, accountID)
	if errors.Is(err, ledger.ErrAccountNotFound) {
		a := ledger.NewAccount(accountID)
		return &a, nil
	}
	if err != nil {
		return nil, err
	}
	return account, nil
}

// resetDays computes days-until-reset for quota messages: -1 for free
// accounts, otherwise derived from the cached period end.
func (s *service) resetDays(now time.Time, account *ledger.Account) int {
	if account.Plan == ledger.PlanFree {
		return -1
	}
	return daysUntilReset(now, account.PeriodEnd)
}
