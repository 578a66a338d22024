// Package httpserver wraps net/http with graceful shutdown, configurable
// timeouts, and probe handlers for the quota service binary.
//
// Run blocks until the context is cancelled or an interrupt/TERM signal is
// received, then drains in-flight requests within the shutdown deadline.
// Listen failures are wrapped with ErrStart and shutdown failures with
// ErrShutdown so callers can inspect them with errors.Is.
//
// Usage:
//
//	srv := httpserver.NewFromConfig(cfg, httpserver.WithLogger(log))
//	if err := srv.Run(ctx, router); err != nil {
//		log.Error("server stopped", logger.Error(err))
//	}
package httpserver
