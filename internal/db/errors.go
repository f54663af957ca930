package db

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/kailas-cloud/fuzzysuggest/internal/domain"
)

// Sentinel errors for namespace operations.
var (
	ErrNamespaceNotFound = errors.New("db: namespace not found")
	ErrNamespaceExists   = errors.New("db: namespace already exists")
)

// Op names identify the failing catalog operation in errors and metrics.
const (
	OpPing            = "ping"
	OpDeleteNamespace = "namespace.delete"
	OpCreateNamespace = "namespace.create"
	OpHealth          = "namespace.health"
	OpPutRecord       = "record.put"
	OpGetRecord       = "record.get"
	OpSearch          = "search"
	OpRefresh         = "refresh"
	OpCount           = "count"
)

// Error wraps an underlying error with the operation name for diagnostics.
// Status carries the HTTP status for HTTP backends (0 otherwise).
type Error struct {
	Op     string
	Status int
	Err    error
}

func (e *Error) Error() string {
	if e.Status != 0 {
		return e.Op + " (" + strconv.Itoa(e.Status) + "): " + e.Err.Error()
	}
	return e.Op + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

// StatusError classifies an HTTP status into a domain sentinel:
// 404 is ErrNotFound, 429 and 5xx are ErrUnavailable, other 4xx are ErrMalformedQuery.
func StatusError(op string, status int, reason string) *Error {
	var sentinel error
	switch {
	case status == http.StatusNotFound:
		sentinel = domain.ErrNotFound
	case status == http.StatusTooManyRequests || status >= http.StatusInternalServerError:
		sentinel = domain.ErrUnavailable
	default:
		sentinel = domain.ErrMalformedQuery
	}
	if reason == "" {
		reason = http.StatusText(status)
	}
	return &Error{Op: op, Status: status, Err: fmt.Errorf("%w: %s", sentinel, reason)}
}

// TransportError wraps a connection-level failure as ErrUnavailable.
func TransportError(op string, err error) *Error {
	return &Error{Op: op, Err: fmt.Errorf("%w: %w", domain.ErrUnavailable, err)}
}

// DecodeError reports a catalog response whose shape does not match expectations.
// It matches domain.ErrDecode with errors.Is and is never retried.
type DecodeError struct {
	Op  string
	Err error
}

func (e *DecodeError) Error() string { return e.Op + ": decode response: " + e.Err.Error() }
func (e *DecodeError) Unwrap() error { return e.Err }

// Is reports domain.ErrDecode as a match.
func (e *DecodeError) Is(target error) bool { return target == domain.ErrDecode }
