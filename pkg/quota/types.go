package quota

import (
	"time"

	"github.com/lexibly/quotakit/pkg/ledger"
)

// Snapshot is a read-only view of an account's quota state, suitable for
// rendering usage meters and quota messages.
type Snapshot struct {
	Plan           ledger.Plan `json:"plan"`
	TokensUsed     int64       `json:"tokens_used"`
	TokenLimit     int64       `json:"token_limit"`
	PeriodStart    *time.Time  `json:"period_start,omitempty"`
	PeriodEnd      *time.Time  `json:"period_end,omitempty"`
	DaysUntilReset int         `json:"days_until_reset"` // -1 when no periodic reset applies
}

// daysUntilReset returns ceil((periodEnd - now) / 24h) clamped to >= 0,
// or -1 when no period end is known.
func daysUntilReset(now time.Time, periodEnd *time.Time) int {
	if periodEnd == nil {
		return -1
	}
	remaining := periodEnd.Sub(now)
	if remaining <= 0 {
		return 0
	}
	const day = 24 * time.Hour
	days := int(remaining / day)
	if remaining%day != 0 {
		days++
	}
	return days
}
