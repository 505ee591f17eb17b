// Package clients provides the instrumented HTTP client used to reach upstream
// JSON:API services.
package clients

import "errors"

// Client errors describe infrastructure failures. The acl package translates them
// into domain errors.
var (
	// ErrCircuitOpen is returned without contacting the upstream while the breaker is open.
	ErrCircuitOpen = errors.New("circuit breaker open")

	// ErrRequestFailed wraps transport failures: DNS, connect, TLS, timeouts, resets.
	ErrRequestFailed = errors.New("request failed")

	// ErrResponseTooLarge is returned when a body exceeds the configured limit.
	ErrResponseTooLarge = errors.New("response body too large")
)
