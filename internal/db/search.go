package db

import (
	"sort"

	"github.com/kailas-cloud/fuzzysuggest/internal/domain/msm"
	"github.com/kailas-cloud/fuzzysuggest/internal/domain/record"
)

// MatchClause is the trigram fuzzy full-text part of a search.
type MatchClause struct {
	Field              string
	Text               string
	MinimumShouldMatch msm.Policy
}

// CompletionClause is the fuzzy prefix completion part of a search.
type CompletionClause struct {
	Name           string
	Prefix         string
	Field          string // full path, e.g. "name.suggest"
	Fuzziness      int
	Size           int
	SkipDuplicates bool
}

// SearchRequest carries both clauses; backends always issue both.
type SearchRequest struct {
	Match      MatchClause
	Completion CompletionClause
}

// SearchResult holds both result streams in backend order.
type SearchResult struct {
	Hits    []Hit
	Options []Option
}

// Hit is a match-sourced record, ordered by descending score.
type Hit struct {
	Record record.Record
	Score  float64
}

// Option is a completion-sourced record, ordered as returned.
type Option struct {
	Record record.Record
	Score  float64
}

// HitNames projects hits to names in order.
func (r *SearchResult) HitNames() []string {
	out := make([]string, len(r.Hits))
	for i := range r.Hits {
		out[i] = r.Hits[i].Record.Name()
	}
	return out
}

// OptionNames projects options to names in order.
func (r *SearchResult) OptionNames() []string {
	out := make([]string, len(r.Options))
	for i := range r.Options {
		out[i] = r.Options[i].Record.Name()
	}
	return out
}

// RankHits orders hits by descending score, then by fewer indexed terms (shorter
// fields rank higher, as with length-normalised relevance), then name and id.
// The result is truncated to size when size > 0.
func RankHits(hits []Hit, terms func(Hit) int, size int) []Hit {
	sort.SliceStable(hits, func(i, j int) bool {
		a, b := hits[i], hits[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if ta, tb := terms(a), terms(b); ta != tb {
			return ta < tb
		}
		if a.Record.Name() != b.Record.Name() {
			return a.Record.Name() < b.Record.Name()
		}
		return a.Record.ID() < b.Record.ID()
	})
	if size > 0 && len(hits) > size {
		hits = hits[:size]
	}
	return hits
}
