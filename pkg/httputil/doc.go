// Package httputil provides retry support for registry HTTP clients.
//
// # Retry
//
// [Retry] re-runs an operation for transient failures only. Callers mark
// a failure as transient by wrapping it in [RetryableError]:
//
//   - network errors (timeouts, connection resets)
//   - 5xx server responses
//
// Everything else (404s, decode errors) returns immediately. The delay
// doubles after each failed attempt.
//
// Audits default to a single attempt so a flaky registry surfaces as a
// missing-package record rather than a stall; retry is opt-in through
// the registry client.
package httputil
