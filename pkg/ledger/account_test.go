package ledger_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/lexibly/quotakit/pkg/ledger"
)

func TestNewAccount_Defaults(t *testing.T) {
	t.Parallel()

	id := uuid.New()
	account := ledger.NewAccount(id)

	assert.Equal(t, id, account.ID)
	assert.Equal(t, ledger.PlanFree, account.Plan)
	assert.Zero(t, account.TokensUsed)
	assert.Nil(t, account.PeriodStart)
	assert.Nil(t, account.PeriodEnd)
}

func TestAccount_PeriodContains(t *testing.T) {
	t.Parallel()

	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)

	account := ledger.Account{PeriodStart: &start, PeriodEnd: &end}

	t.Run("inside window", func(t *testing.T) {
		t.Parallel()
		assert.True(t, account.PeriodContains(start.Add(24*time.Hour)))
	})

	t.Run("start is inclusive", func(t *testing.T) {
		t.Parallel()
		assert.True(t, account.PeriodContains(start))
	})

	t.Run("end is exclusive", func(t *testing.T) {
		t.Parallel()
		assert.False(t, account.PeriodContains(end))
	})

	t.Run("before window", func(t *testing.T) {
		t.Parallel()
		assert.False(t, account.PeriodContains(start.Add(-time.Second)))
	})

	t.Run("missing bounds", func(t *testing.T) {
		t.Parallel()
		assert.False(t, ledger.Account{}.PeriodContains(start))
		assert.False(t, ledger.Account{PeriodStart: &start}.PeriodContains(start))
	})
}

func TestAccount_PeriodExpired(t *testing.T) {
	t.Parallel()

	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)
	account := ledger.Account{PeriodStart: &start, PeriodEnd: &end}

	assert.False(t, account.PeriodExpired(end.Add(-time.Second)))
	assert.True(t, account.PeriodExpired(end))
	assert.True(t, account.PeriodExpired(end.Add(time.Hour)))

	// Uninitialized accounts are not expired, they have no period at all.
	assert.False(t, ledger.Account{}.PeriodExpired(end))
}
