// Package query builds the two-part fuzzy autocomplete request from a template.
//
// A Template is a typed skeleton: every slot is fixed except the match text and
// the completion prefix, which both receive the raw user input verbatim. Input is
// substituted as data, never spliced into serialized text, so no input can alter
// the request structure.
package query

import (
	"fmt"

	"github.com/kailas-cloud/fuzzysuggest/internal/db"
	"github.com/kailas-cloud/fuzzysuggest/internal/domain"
	"github.com/kailas-cloud/fuzzysuggest/internal/domain/msm"
)

// Placeholder marks the two input slots in a JSON template.
const Placeholder = "{{value}}"

// Defaults mirror the demo catalog.
const (
	DefaultField              = "name"
	DefaultCompletionField    = "name.suggest"
	DefaultSuggestName        = "suggest"
	DefaultMinimumShouldMatch = "60%"
	DefaultFuzziness          = 2
	DefaultSize               = 10
	MaxFuzziness              = 2
)

// Options are the tunables of a Template.
type Options struct {
	Field              string
	MinimumShouldMatch msm.Policy
	SuggestName        string
	CompletionField    string
	Fuzziness          int
	Size               int
	SkipDuplicates     bool
}

// DefaultOptions returns the demo settings: 60% trigram overlap, fuzziness 2,
// ten completion options with duplicates skipped.
func DefaultOptions() Options {
	return Options{
		Field:              DefaultField,
		MinimumShouldMatch: msm.MustParse(DefaultMinimumShouldMatch),
		SuggestName:        DefaultSuggestName,
		CompletionField:    DefaultCompletionField,
		Fuzziness:          DefaultFuzziness,
		Size:               DefaultSize,
		SkipDuplicates:     true,
	}
}

// Template is an immutable request skeleton.
type Template struct {
	opts Options
}

// NewTemplate validates opts and returns a Template.
func NewTemplate(opts Options) (Template, error) {
	if opts.Field == "" {
		return Template{}, fmt.Errorf("%w: match field is required", domain.ErrInvalidTemplate)
	}
	if opts.SuggestName == "" {
		return Template{}, fmt.Errorf("%w: suggest name is required", domain.ErrInvalidTemplate)
	}
	if opts.CompletionField == "" {
		return Template{}, fmt.Errorf("%w: completion field is required", domain.ErrInvalidTemplate)
	}
	if opts.Fuzziness < 0 || opts.Fuzziness > MaxFuzziness {
		return Template{}, fmt.Errorf("%w: fuzziness must be in [0, %d]", domain.ErrInvalidTemplate, MaxFuzziness)
	}
	if opts.Size <= 0 {
		return Template{}, fmt.Errorf("%w: size must be positive", domain.ErrInvalidTemplate)
	}
	return Template{opts: opts}, nil
}

// MustTemplate calls NewTemplate and panics on error.
func MustTemplate(opts Options) Template {
	t, err := NewTemplate(opts)
	if err != nil {
		panic(err)
	}
	return t
}

// Default returns the template built from DefaultOptions.
func Default() Template { return MustTemplate(DefaultOptions()) }

// Options returns the template tunables.
func (t Template) Options() Options { return t.opts }

// Build substitutes raw into the match text and completion prefix.
// Any input, including empty, whitespace or very long strings, yields a valid request.
func (t Template) Build(raw string) db.SearchRequest {
	return db.SearchRequest{
		Match: db.MatchClause{
			Field:              t.opts.Field,
			Text:               raw,
			MinimumShouldMatch: t.opts.MinimumShouldMatch,
		},
		Completion: db.CompletionClause{
			Name:           t.opts.SuggestName,
			Prefix:         raw,
			Field:          t.opts.CompletionField,
			Fuzziness:      t.opts.Fuzziness,
			Size:           t.opts.Size,
			SkipDuplicates: t.opts.SkipDuplicates,
		},
	}
}
