package domain

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"unavailable", ErrUnavailable, true},
		{"wrapped unavailable", fmt.Errorf("search: %w", ErrUnavailable), true},
		{"timeout", ErrQueryTimeout, true},
		{"malformed", ErrMalformedQuery, false},
		{"decode", ErrDecode, false},
		{"superseded", ErrSuperseded, false},
		{"canceled unavailable", fmt.Errorf("%w: %w", ErrUnavailable, context.Canceled), false},
		{"not found", ErrNotFound, false},
		{"plain", errors.New("boom"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRetryable(tt.err); got != tt.want {
				t.Errorf("IsRetryable(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}
