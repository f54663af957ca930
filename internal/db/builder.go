package db

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/fuzzysuggest/internal/domain/analysis"
)

// SchemaBuilder is a fluent builder for namespace schemas.
type SchemaBuilder struct {
	schema NamespaceSchema
}

// NewSchema starts building a schema with default fields and analysis.
func NewSchema(name string) *SchemaBuilder {
	return &SchemaBuilder{
		schema: NamespaceSchema{
			Name:            name,
			MatchField:      DefaultMatchField,
			CompletionField: DefaultCompletionField,
			Analysis:        analysis.Default(),
		},
	}
}

// MatchField sets the trigram-analysed field.
func (b *SchemaBuilder) MatchField(name string) *SchemaBuilder {
	b.schema.MatchField = name
	return b
}

// CompletionField sets the completion sub-field name.
func (b *SchemaBuilder) CompletionField(name string) *SchemaBuilder {
	b.schema.CompletionField = name
	return b
}

// Tokenizer selects the dedicated ngram tokenizer restricted to class.
func (b *SchemaBuilder) Tokenizer(class analysis.CharClass) *SchemaBuilder {
	b.schema.Analysis.Strategy = analysis.StrategyTokenizer
	b.schema.Analysis.CharClass = class
	return b
}

// Filter selects the standard tokenizer followed by an ngram token filter.
func (b *SchemaBuilder) Filter() *SchemaBuilder {
	b.schema.Analysis.Strategy = analysis.StrategyFilter
	if b.schema.Analysis.CharClass == "" {
		b.schema.Analysis.CharClass = analysis.CharClassAlnum
	}
	return b
}

// Lowercase toggles the lowercase filter.
func (b *SchemaBuilder) Lowercase(on bool) *SchemaBuilder {
	b.schema.Analysis.Lowercase = on
	return b
}

// Analysis replaces the analysis options wholesale.
func (b *SchemaBuilder) Analysis(opts analysis.Options) *SchemaBuilder {
	b.schema.Analysis = opts
	return b
}

// Build validates and returns the schema.
func (b *SchemaBuilder) Build() (*NamespaceSchema, error) {
	s := b.schema
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// MustBuild calls Build and panics on error.
func (b *SchemaBuilder) MustBuild() *NamespaceSchema {
	s, err := b.Build()
	if err != nil {
		panic(err)
	}
	return s
}

// String returns a compact debug representation.
func (s *NamespaceSchema) String() string {
	parts := []string{
		s.Name,
		"match=" + s.MatchField,
		"completion=" + s.CompletionPath(),
		fmt.Sprintf("analysis=%s/%s", s.Analysis.Strategy, s.Analysis.CharClass),
	}
	if s.Analysis.Lowercase {
		parts = append(parts, "lowercase")
	}
	return strings.Join(parts, " ")
}
