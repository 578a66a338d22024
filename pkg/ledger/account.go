package ledger

import (
	"time"

	"github.com/google/uuid"
)

// Plan identifies the account's pricing tier and determines how TokensUsed
// accumulates: free accounts count tokens for the lifetime of the account,
// pro accounts count tokens within the current billing period.
type Plan string

const (
	PlanFree Plan = "free"
	PlanPro  Plan = "pro"
)

// Account is the per-account quota ledger record. One record per account,
// created implicitly on first write and never deleted by this subsystem.
//
// PeriodStart/PeriodEnd cache the provider-owned billing period as a
// half-open [start, end) interval. They are only ever written by an
// authoritative source (billing-period refresh or a subscription event),
// never by the usage-recording path.
type Account struct {
	ID                 uuid.UUID
	Plan               Plan
	TokensUsed         int64
	PeriodStart        *time.Time
	PeriodEnd          *time.Time
	SubscriptionID     string
	SubscriptionStatus string
	UpdatedAt          time.Time
}

// NewAccount returns the default record used when no document exists yet.
// All writes are upserts, so an absent account behaves as free with zero usage.
func NewAccount(id uuid.UUID) Account {
	return Account{
		ID:         id,
		Plan:       PlanFree,
		TokensUsed: 0,
	}
}

// HasPeriod reports whether both billing-period bounds are cached.
func (a Account) HasPeriod() bool {
	return a.PeriodStart != nil && a.PeriodEnd != nil
}

// PeriodContains reports whether now falls inside the cached billing period.
// The interval is half-open: start <= now < end.
func (a Account) PeriodContains(now time.Time) bool {
	if !a.HasPeriod() {
		return false
	}
	return !now.Before(*a.PeriodStart) && now.Before(*a.PeriodEnd)
}

// PeriodExpired reports whether a cached billing period exists and has ended.
// An account with no cached period is not expired, it is uninitialized.
func (a Account) PeriodExpired(now time.Time) bool {
	return a.PeriodEnd != nil && !now.Before(*a.PeriodEnd)
}
