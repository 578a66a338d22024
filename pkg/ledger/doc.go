// Package ledger defines the per-account quota record and the transaction
// discipline applied to it.
//
// Every account maps to exactly one document holding its plan tier, token
// usage counter, and the cached billing-period bounds owned by the payments
// provider. The Store contract exposes two operations: a plain read and a
// single-document atomic read-modify-write (Transact). Transact is the only
// mutation path; all writes are upserts, so an account that was never written
// behaves as a free account with zero usage.
//
// Two implementations ship with the package: MongoStore, which delegates
// atomicity to MongoDB transactions, and MemoryStore for tests.
//
// Usage:
//
//	db, err := ledger.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	store := ledger.NewMongoStore(db, cfg.Collection)
//
//	updated, err := store.Transact(ctx, accountID, func(a ledger.Account) (ledger.Account, error) {
//		a.TokensUsed += 500
//		return a, nil
//	})
package ledger
