package quota

import (
	"errors"
	"fmt"
	"time"

	"github.com/lexibly/quotakit/pkg/ledger"
)

var (
	ErrQuotaExceeded    = errors.New("token quota exceeded")
	ErrUnknownPlan      = errors.New("no token limit configured for plan")
	ErrUnknownOperation = errors.New("no estimated cost configured for operation")
	ErrInvalidPolicy    = errors.New("invalid quota policy configuration")
	ErrNegativeCost     = errors.New("usage cost must not be negative")

	ErrFailedToLoadPolicy = errors.New("failed to load quota policy")
)

// QuotaExceededError is the only failure of this subsystem that surfaces to
// the end user. It carries everything needed to render a plan-specific quota
// message: current usage, the ceiling, and how long until the period resets.
type QuotaExceededError struct {
	Plan           ledger.Plan
	TokensUsed     int64
	TokenLimit     int64
	EstimatedCost  int64
	PeriodEnd      *time.Time
	DaysUntilReset int // -1 when there is no periodic reset (free plan)
}

func (e *QuotaExceededError) Error() string {
	if e.DaysUntilReset >= 0 {
		return fmt.Sprintf("token quota exceeded: %d of %d used on plan %s, resets in %d day(s)",
			e.TokensUsed, e.TokenLimit, e.Plan, e.DaysUntilReset)
	}
	return fmt.Sprintf("token quota exceeded: %d of %d used on plan %s",
		e.TokensUsed, e.TokenLimit, e.Plan)
}

// Unwrap makes errors.Is(err, ErrQuotaExceeded) work on the rich error.
func (e *QuotaExceededError) Unwrap() error {
	return ErrQuotaExceeded
}
