// Package retry provides simple exponential backoff retry logic for transient failures.
//
// # Overview
//
// This package offers a minimal retry mechanism with exponential backoff, designed to
// handle transient failures in broker connections, publishes, and startup sequences.
//
// # Core Functions
//
//   - Do: Execute function with retry and exponential backoff
//   - DoWithResult: Execute function with retry, returns both result and error
//   - NewBackoff: Stateful backoff stepper for open-ended retry loops
//
// # Configuration Presets
//
//   - DefaultConfig(): 3 attempts, 100ms-5s delay (normal operations)
//   - Quick(): 10 attempts, 50ms-1s delay (startup)
//   - Persistent(): 30 attempts, 200ms-10s delay (critical resources)
//
// # Usage Examples
//
// Basic retry with defaults:
//
//	err := retry.Do(ctx, retry.DefaultConfig(), func() error {
//	    return client.Connect(ctx)
//	})
//
// Retry with result:
//
//	fs, err := retry.DoWithResult(ctx, retry.Quick(), func() (*message.Factsheet, error) {
//	    return loadFactsheet(path)
//	})
//
// Open-ended reconnect loop:
//
//	b := retry.NewBackoff(retry.Config{InitialDelay: time.Second, MaxDelay: 60 * time.Second, AddJitter: true})
//	for {
//	    if err := dial(); err == nil {
//	        b.Reset()
//	        break
//	    }
//	    select {
//	    case <-time.After(b.Next()):
//	    case <-stop:
//	        return
//	    }
//	}
//
// # Design Philosophy
//
// This package is intentionally minimal:
//
//   - No circuit breakers
//   - No metrics collection (use instrumentation at call site)
//   - No complex error classification (caller decides what to retry)
//   - Just exponential backoff with jitter
//
// # Context Cancellation
//
// All retry operations respect context cancellation and will immediately stop retrying
// when the context is cancelled, either during operation execution or during backoff delay.
//
// # Thread Safety
//
// Do and DoWithResult are safe for concurrent use. A Backoff stepper belongs to a
// single goroutine.
package retry
