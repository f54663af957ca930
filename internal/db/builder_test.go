package db

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/kailas-cloud/fuzzysuggest/internal/domain"
	"github.com/kailas-cloud/fuzzysuggest/internal/domain/analysis"
	"github.com/kailas-cloud/fuzzysuggest/internal/domain/record"
)

func TestSchemaBuilder_Defaults(t *testing.T) {
	s := NewSchema("cities").MustBuild()

	if s.Name != "cities" {
		t.Errorf("name = %q, want cities", s.Name)
	}
	if s.MatchField != "name" {
		t.Errorf("match field = %q, want name", s.MatchField)
	}
	if s.CompletionPath() != "name.suggest" {
		t.Errorf("completion path = %q, want name.suggest", s.CompletionPath())
	}
	if s.Analysis != analysis.Default() {
		t.Errorf("analysis = %+v, want default", s.Analysis)
	}
}

func TestSchemaBuilder_Tokenizer(t *testing.T) {
	s := NewSchema("cities").
		Tokenizer(analysis.CharClassAlnum).
		Lowercase(false).
		MustBuild()

	if s.Analysis.Strategy != analysis.StrategyTokenizer {
		t.Errorf("strategy = %q", s.Analysis.Strategy)
	}
	if s.Analysis.CharClass != analysis.CharClassAlnum {
		t.Errorf("char class = %q", s.Analysis.CharClass)
	}
	if s.Analysis.Lowercase {
		t.Error("lowercase should be off")
	}
}

func TestSchemaBuilder_Filter(t *testing.T) {
	s := NewSchema("cities").Filter().MustBuild()
	if s.Analysis.Strategy != analysis.StrategyFilter {
		t.Errorf("strategy = %q, want filter", s.Analysis.Strategy)
	}
}

func TestSchemaBuilder_CustomFields(t *testing.T) {
	s := NewSchema("products").MatchField("title").CompletionField("complete").MustBuild()
	if s.CompletionPath() != "title.complete" {
		t.Errorf("completion path = %q", s.CompletionPath())
	}
}

func TestSchemaBuilder_Invalid(t *testing.T) {
	tests := []struct {
		name string
		b    *SchemaBuilder
	}{
		{"empty name", NewSchema("")},
		{"uppercase name", NewSchema("Cities")},
		{"leading dash", NewSchema("-cities")},
		{"slash", NewSchema("a/b")},
		{"empty match field", NewSchema("c").MatchField("")},
		{"dotted completion", NewSchema("c").CompletionField("a.b")},
		{"same fields", NewSchema("c").MatchField("x").CompletionField("x")},
		{"bad analysis", NewSchema("c").Analysis(analysis.Options{Strategy: "edge"})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.b.Build(); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestSchemaBuilder_MustBuildPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic")
		}
	}()
	NewSchema("").MustBuild()
}

func TestSchema_String(t *testing.T) {
	s := NewSchema("cities").MustBuild().String()
	for _, want := range []string{"cities", "match=name", "completion=name.suggest", "tokenizer/letter", "lowercase"} {
		if !strings.Contains(s, want) {
			t.Errorf("String() = %q, missing %q", s, want)
		}
	}
}

func TestIsValidNamespace(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"cities", true},
		{"cities_v2", true},
		{"9lives", true},
		{"a-b", true},
		{"", false},
		{"_x", false},
		{"UPPER", false},
		{"a:b", false},
	}
	for _, tt := range tests {
		if got := IsValidNamespace(tt.in); got != tt.want {
			t.Errorf("IsValidNamespace(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestStatusError(t *testing.T) {
	tests := []struct {
		status int
		want   error
	}{
		{404, domain.ErrNotFound},
		{400, domain.ErrMalformedQuery},
		{409, domain.ErrMalformedQuery},
		{429, domain.ErrUnavailable},
		{500, domain.ErrUnavailable},
		{503, domain.ErrUnavailable},
	}
	for _, tt := range tests {
		err := StatusError(OpSearch, tt.status, "")
		if !errors.Is(err, tt.want) {
			t.Errorf("status %d: got %v, want %v", tt.status, err, tt.want)
		}
		if err.Status != tt.status {
			t.Errorf("status %d: Status = %d", tt.status, err.Status)
		}
	}
}

func TestStatusError_Message(t *testing.T) {
	err := StatusError(OpSearch, 400, "parsing_exception")
	if got := err.Error(); got != "search (400): malformed query: parsing_exception" {
		t.Errorf("Error() = %q", got)
	}
}

func TestTransportError_Retryable(t *testing.T) {
	err := TransportError(OpPing, errors.New("connection refused"))
	if !domain.IsRetryable(err) {
		t.Errorf("transport error should be retryable: %v", err)
	}
}

func TestDecodeError(t *testing.T) {
	var err error = &DecodeError{Op: OpSearch, Err: errors.New("hits is not an array")}
	wrapped := fmt.Errorf("suggest: %w", err)
	if !errors.Is(wrapped, domain.ErrDecode) {
		t.Error("DecodeError must match domain.ErrDecode")
	}
	if domain.IsRetryable(wrapped) {
		t.Error("decode errors must not be retried")
	}
	var de *DecodeError
	if !errors.As(wrapped, &de) || de.Op != OpSearch {
		t.Errorf("errors.As failed: %v", wrapped)
	}
}

func TestDeleteOutcome(t *testing.T) {
	if Deleted().Status != DeleteDeleted || Deleted().Err != nil {
		t.Error("Deleted() mismatch")
	}
	if Absent().Status.String() != "absent" {
		t.Errorf("Absent status = %s", Absent().Status)
	}
	cause := errors.New("boom")
	f := Failed(cause)
	if f.Status != DeleteFailed || !errors.Is(f.Err, cause) {
		t.Errorf("Failed() = %+v", f)
	}
}

func TestSearchResult_Names(t *testing.T) {
	r := &SearchResult{
		Hits:    []Hit{{Record: recordOf("1", "Rio")}, {Record: recordOf("2", "Rome")}},
		Options: []Option{{Record: recordOf("1", "Rio")}},
	}
	if got := strings.Join(r.HitNames(), ","); got != "Rio,Rome" {
		t.Errorf("HitNames = %q", got)
	}
	if got := strings.Join(r.OptionNames(), ","); got != "Rio" {
		t.Errorf("OptionNames = %q", got)
	}
}

func recordOf(id, name string) record.Record { return record.Reconstruct(id, name) }
