package db

import (
	"errors"
	"strings"

	"github.com/kailas-cloud/fuzzysuggest/internal/domain/analysis"
)

// Default field names.
const (
	DefaultMatchField      = "name"
	DefaultCompletionField = "suggest"
)

// NamespaceSchema describes a catalog namespace: a trigram-analysed match field
// with a completion sub-field.
type NamespaceSchema struct {
	Name            string
	MatchField      string
	CompletionField string
	Analysis        analysis.Options
}

// CompletionPath returns the full completion field path (e.g. "name.suggest").
func (s *NamespaceSchema) CompletionPath() string {
	return s.MatchField + "." + s.CompletionField
}

// Validate checks that the schema is well-formed.
func (s *NamespaceSchema) Validate() error {
	if s.Name == "" {
		return errors.New("namespace name is required")
	}
	if !IsValidNamespace(s.Name) {
		return errors.New("namespace name must match [a-z0-9][a-z0-9_-]*")
	}
	if !IsValidField(s.MatchField) {
		return errors.New("match field must match [a-zA-Z0-9_]+")
	}
	if !IsValidField(s.CompletionField) {
		return errors.New("completion field must match [a-zA-Z0-9_]+")
	}
	if s.MatchField == s.CompletionField {
		return errors.New("completion field must differ from match field")
	}
	return s.Analysis.Validate()
}

// IsValidNamespace returns true if s matches [a-z0-9][a-z0-9_-]*.
// The rule satisfies both index naming and key prefix constraints.
func IsValidNamespace(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		isLower := r >= 'a' && r <= 'z'
		isDigit := r >= '0' && r <= '9'
		if i == 0 && !isLower && !isDigit {
			return false
		}
		if !isLower && !isDigit && r != '_' && r != '-' {
			return false
		}
	}
	return true
}

// IsValidField returns true if s matches [a-zA-Z0-9_]+.
func IsValidField(s string) bool {
	if s == "" {
		return false
	}
	return strings.IndexFunc(s, func(r rune) bool {
		isAlpha := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
		isDigit := r >= '0' && r <= '9'
		return !isAlpha && !isDigit && r != '_'
	}) < 0
}
