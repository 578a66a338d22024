package quota

import (
	"log/slog"
	"time"
)

// ServiceOption configures a Service instance.
type ServiceOption func(*service)

// WithLogger sets the logger used for swallowed failures (best-effort
// recording, dropped events, provider fallbacks). Defaults to slog.Default().
func WithLogger(log *slog.Logger) ServiceOption {
	return func(s *service) {
		if log != nil {
			s.log = log
		}
	}
}

// WithClock overrides the time source. Intended for tests that need
// deterministic billing-period math.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithEventDeduper installs a duplicate-delivery guard for webhook events.
// Without one, duplicate deliveries are still safe because every transition
// is idempotent, but they cost a store transaction each.
func WithEventDeduper(d EventDeduper) ServiceOption {
	return func(s *service) {
		if d != nil {
			s.deduper = d
		}
	}
}
