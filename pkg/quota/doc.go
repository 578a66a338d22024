// Package quota enforces per-account token budgets reconciled with
// billing periods owned by the payments provider.
//
// The service gates every metered operation behind a pre-flight budget check,
// folds actual consumption into the account ledger atomically, keeps the
// cached billing-period bounds fresh through a lazy refresh protocol, and
// applies asynchronous subscription events to the account's plan-tier state
// machine.
//
// # Accumulation rules
//
// Free accounts accumulate tokens for their lifetime; the counter never
// resets. Pro accounts accumulate within the cached [periodStart, periodEnd)
// window. When the window has elapsed, the counter is treated as zero for
// checks, and the first recording after expiry starts the new count — without
// touching the bounds themselves. Only an authoritative source (a renewal
// event or a provider refresh) moves the bounds, so the recording path can
// never fabricate incorrect periods.
//
// # Concurrency
//
// The check and the recording are deliberately not one atomic
// reserve-then-commit step. Concurrent requests near the limit can all pass
// the check and overshoot the ceiling by the sum of their in-flight costs.
// The quota bounds abuse, not billing precision, and serializing independent
// metered calls to close that window would cost more than it buys. The only
// serialization point is the ledger's per-document transaction.
//
// # Error posture
//
// Only *QuotaExceededError surfaces to the end user. Provider outages during
// refresh degrade to stale cached data, failed usage recordings are logged
// and swallowed, and unresolvable subscription events are logged and dropped.
// Failing to account for usage is lower severity than wrongly denying or
// wrongly granting it.
//
// Usage:
//
//	svc, err := quota.NewService(ctx,
//		quota.NewInMemSource(policy),
//		ledgerStore,
//		paddleProvider,
//		quota.WithLogger(log),
//	)
//	if err != nil {
//		return err
//	}
//
//	snap, err := svc.CheckBudget(ctx, accountID, quota.OperationGradeWriting)
//	if err != nil {
//		var quotaErr *quota.QuotaExceededError
//		if errors.As(err, &quotaErr) {
//			// Render the plan-specific quota message and abort.
//		}
//		return err
//	}
//
//	result, err := llm.Grade(ctx, input) // the metered operation
//	if err != nil {
//		return err // failed operations are not charged
//	}
//	svc.RecordUsage(ctx, accountID, result.TokenCost)
package quota
