// Package logger provides a factory for configured slog.Logger instances
// with environment presets and shared attribute helpers, so every component
// of the quota subsystem logs the same fields for the same concepts.
package logger
