// Package suggestion holds the merged autocomplete result.
package suggestion

import "strings"

// NoResultsText is how an empty suggestion list renders.
const NoResultsText = "No results"

// List is an ordered sequence of distinct names.
// The zero value is not meaningful; use Merge, FromNames or NoResults.
type List struct {
	names     []string
	noResults bool
}

// NoResults returns the sentinel list for a query that produced nothing.
func NoResults() List { return List{noResults: true} }

// FromNames builds a list from already distinct names. An empty input yields NoResults.
func FromNames(names []string) List {
	if len(names) == 0 {
		return NoResults()
	}
	out := make([]string, len(names))
	copy(out, names)
	return List{names: out}
}

// Merge concatenates match-sourced names and suggest-sourced names and keeps the
// first occurrence of each exact string. Match names therefore win precedence
// over suggest names. An empty result yields NoResults.
func Merge(matchNames, suggestNames []string) List {
	seen := make(map[string]struct{}, len(matchNames)+len(suggestNames))
	out := make([]string, 0, len(matchNames)+len(suggestNames))
	for _, group := range [][]string{matchNames, suggestNames} {
		for _, n := range group {
			if _, ok := seen[n]; ok {
				continue
			}
			seen[n] = struct{}{}
			out = append(out, n)
		}
	}
	if len(out) == 0 {
		return NoResults()
	}
	return List{names: out}
}

// IsNoResults reports whether this is the no-results sentinel.
func (l List) IsNoResults() bool { return l.noResults }

// Names returns a copy of the names (nil for NoResults).
func (l List) Names() []string {
	if l.noResults {
		return nil
	}
	out := make([]string, len(l.names))
	copy(out, l.names)
	return out
}

// Len returns the number of names.
func (l List) Len() int { return len(l.names) }

// Contains reports whether name is in the list (exact match).
func (l List) Contains(name string) bool {
	for _, n := range l.names {
		if n == name {
			return true
		}
	}
	return false
}

// String renders the list as a comma-separated line, or NoResultsText.
func (l List) String() string {
	if l.noResults {
		return NoResultsText
	}
	return strings.Join(l.names, ", ")
}
