// Package async provides explicit fire-and-forget wrappers for side effects
// whose failures must be logged rather than propagated. Modeling the
// swallow as a named wrapper keeps the behavior visible at call sites and
// testable through the injected logger.
package async
