package domain

import (
	"context"
	"errors"
)

var (
	// ErrNotFound signals a missing record.
	ErrNotFound = errors.New("not found")
	// ErrInvalidRecord signals a record that fails validation.
	ErrInvalidRecord = errors.New("invalid record")
	// ErrInvalidTemplate signals a query template without a usable placeholder.
	ErrInvalidTemplate = errors.New("invalid query template")
	// ErrInvalidPolicy signals an unparsable minimum-should-match policy.
	ErrInvalidPolicy = errors.New("invalid minimum_should_match policy")

	// ErrMalformedQuery signals that the catalog rejected a request (4xx).
	// It is a configuration defect and must not be retried.
	ErrMalformedQuery = errors.New("malformed query")
	// ErrUnavailable signals a transport or server-side failure (connection, 5xx, 429).
	ErrUnavailable = errors.New("catalog unavailable")
	// ErrQueryTimeout signals that a query exceeded its per-query deadline.
	ErrQueryTimeout = errors.New("query timeout")
	// ErrSuperseded signals that a newer query of the same session replaced this one.
	ErrSuperseded = errors.New("query superseded")
	// ErrDecode signals a catalog response whose shape does not match the expected structure.
	ErrDecode = errors.New("unexpected response shape")
	// ErrNotVisible signals that written records did not become searchable in time.
	ErrNotVisible = errors.New("records not visible")
)

// IsRetryable reports whether err is worth retrying with backoff.
// Malformed queries, decode errors and superseded queries are final.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrMalformedQuery) || errors.Is(err, ErrDecode) ||
		errors.Is(err, ErrSuperseded) || errors.Is(err, context.Canceled) {
		return false
	}
	return errors.Is(err, ErrUnavailable) || errors.Is(err, ErrQueryTimeout)
}
