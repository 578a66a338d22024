package ledger

import (
	"context"

	"github.com/google/uuid"
)

// TransactFunc receives the current account record (defaults when the
// document is absent) and returns the record to persist. Returning an error
// aborts the transaction without writing.
type TransactFunc func(current Account) (Account, error)

// Store is the sole mutation path for account records. Implementations must
// guarantee single-document atomicity for Transact: no two Transact calls on
// the same account may interleave their read-modify-write cycles. Ordering
// across distinct accounts is not required.
type Store interface {
	// Get retrieves an account by ID.
	// Returns ErrAccountNotFound if no record exists.
	Get(ctx context.Context, id uuid.UUID) (*Account, error)

	// Transact executes fn atomically against the account document and
	// upserts the returned record. An absent document is presented to fn
	// as NewAccount(id). Returns the persisted record.
	Transact(ctx context.Context, id uuid.UUID, fn TransactFunc) (*Account, error)
}
