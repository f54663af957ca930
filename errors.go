package fuzzysuggest

import "github.com/kailas-cloud/fuzzysuggest/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrNotFound        = domain.ErrNotFound
	ErrInvalidRecord   = domain.ErrInvalidRecord
	ErrInvalidTemplate = domain.ErrInvalidTemplate
	ErrInvalidPolicy   = domain.ErrInvalidPolicy
	ErrMalformedQuery  = domain.ErrMalformedQuery
	ErrUnavailable     = domain.ErrUnavailable
	ErrQueryTimeout    = domain.ErrQueryTimeout
	ErrSuperseded      = domain.ErrSuperseded
	ErrDecode          = domain.ErrDecode
	ErrNotVisible      = domain.ErrNotVisible
)

// IsRetryable reports whether err is a transient catalog failure.
func IsRetryable(err error) bool { return domain.IsRetryable(err) }
