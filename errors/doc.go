// Package errors provides standardized error handling patterns for the VDA5050 client runtime.
//
// # Overview
//
// The errors package implements a four-class error classification system for an
// MQTT-connected protocol client: Transient (temporary, retryable), Invalid (bad
// input, non-retryable), Fatal (unrecoverable, stop processing), and Internal
// (library bugs).
//
// This classification lets callers make informed decisions about retries and
// failure recovery without hardcoded error string matching: a publish that fails
// because the session is reconnecting is transient, a payload that fails schema
// validation is invalid, and a closed client is fatal.
//
// # Error Classification
//
// Errors are classified based on their type or content:
//
//   - Transient: broker unreachable, connection lost, publish before connect (retry recommended)
//   - Invalid: malformed topics, schema violations, late handler registration (do not retry)
//   - Fatal: closed client, broken configuration (stop processing)
//   - Internal: invariant violations inside the library itself (report upstream)
//
// The classification system integrates with Go's standard error handling,
// supporting errors.Is(), errors.As(), and error wrapping chains.
//
// # Quick Start
//
// Use standard error variables for common conditions:
//
//	if !session.IsConnected() {
//	    return errors.ErrNotConnected
//	}
//
// Wrap errors with context for debugging:
//
//	if err := transport.Publish(ctx, topic, payload); err != nil {
//	    return errors.WrapTransient(err, "Session", "Publish", "broker publish")
//	}
//
// Check classification for retry logic:
//
//	if err := client.Publish(ctx, msg); err != nil {
//	    if errors.IsTransient(err) {
//	        // Safe to retry after the session reconnects
//	    } else if errors.IsInvalid(err) {
//	        // Caller bug or malformed payload; retrying will not help
//	    }
//	}
//
// # Error Wrapping Pattern
//
// All error wrapping follows the standardized format:
//
//	"component.method: action failed: %w"
//
// Four wrapper functions provide classification-aware wrapping:
//
//	errors.WrapTransient(err, "Session", "Connect", "broker dial")
//	errors.WrapInvalid(err, "Validator", "Validate", "order payload")
//	errors.WrapFatal(err, "Client", "Connect", "load configuration")
//	errors.WrapInternal(err, "message", "Encode", "marshal state")
//
// The generic Wrap() preserves the original error's classification:
//
//	errors.Wrap(err, "AGV", "PublishState", "state publish")
//
// # Retry Configuration
//
// The package includes retry support with exponential backoff, convertible to
// the retry package's Config via ToRetryConfig:
//
//	cfg := errors.DefaultRetryConfig()
//	if cfg.ShouldRetry(err, attempt) {
//	    time.Sleep(cfg.BackoffDelay(attempt))
//	}
//
// # Thread Safety
//
// All classification and wrapping operations are thread-safe. Error variables
// are immutable and safe for concurrent access.
package errors
