package async

import (
	"context"
	"log/slog"
)

// BestEffort runs fn and logs any failure instead of propagating it.
//
// It exists to make error-swallowing explicit: side effects like usage
// accounting must never fail the request that triggered them, but the
// failure still has to land in the logs with enough context to reconcile
// later. The attrs are attached to the failure record.
func BestEffort(ctx context.Context, log *slog.Logger, name string, fn func(context.Context) error, attrs ...slog.Attr) {
	if fn == nil {
		return
	}
	if log == nil {
		log = slog.Default()
	}

	if err := fn(ctx); err != nil {
		args := make([]any, 0, len(attrs)+1)
		args = append(args, slog.Any("error", err))
		for _, attr := range attrs {
			args = append(args, attr)
		}
		log.ErrorContext(ctx, "best-effort operation failed: "+name, args...)
	}
}

// Fire runs fn on its own goroutine with BestEffort semantics, detached from
// the caller's cancellation. Use for side effects that should outlive the
// triggering request, like webhook-adjacent cache writes.
func Fire(ctx context.Context, log *slog.Logger, name string, fn func(context.Context) error, attrs ...slog.Attr) {
	go BestEffort(context.WithoutCancel(ctx), log, name, fn, attrs...)
}
