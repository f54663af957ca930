package memory

import (
	"context"
	"sort"
	"strings"

	"github.com/tchap/go-patricia/v2/patricia"

	"github.com/kailas-cloud/fuzzysuggest/internal/db"
	"github.com/kailas-cloud/fuzzysuggest/internal/domain/msm"
	"github.com/kailas-cloud/fuzzysuggest/internal/domain/record"
)

// Completion tuning matching the catalog's fuzzy completion defaults.
const (
	// fuzzyPrefixLength leading runes must match exactly.
	fuzzyPrefixLength = 1
	// fuzzyMinLength is the input length below which completion is exact-prefix only.
	fuzzyMinLength = 3
	// defaultHitsSize caps match hits, like the catalog's default search size.
	defaultHitsSize = 10
)

// Search runs the trigram match and the fuzzy completion over one namespace.
func (s *Store) Search(ctx context.Context, ns string, req *db.SearchRequest) (*db.SearchResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, &db.Error{Op: db.OpSearch, Err: err}
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, ok := s.namespaces[ns]
	if !ok {
		return nil, missing(db.OpSearch, ns)
	}

	hits := n.match(req.Match.Text, req.Match.MinimumShouldMatch, defaultHitsSize)
	options := n.complete(req.Completion)
	return &db.SearchResult{Hits: hits, Options: options}, nil
}

// SearchByName runs a plain match: any shared trigram qualifies.
func (s *Store) SearchByName(ctx context.Context, ns, name string, limit int) ([]record.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, &db.Error{Op: db.OpSearch, Err: err}
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, ok := s.namespaces[ns]
	if !ok {
		return nil, missing(db.OpSearch, ns)
	}
	if limit <= 0 {
		limit = defaultHitsSize
	}
	hits := n.match(name, msm.Policy{}, limit)
	out := make([]record.Record, len(hits))
	for i := range hits {
		out[i] = hits[i].Record
	}
	return out, nil
}

// match scores records by the fraction of distinct query trigrams they contain.
func (n *namespace) match(text string, policy msm.Policy, size int) []db.Hit {
	query := n.schema.Analysis.DistinctTrigrams(text)
	if len(query) == 0 {
		return nil
	}
	required := policy.Required(len(query))

	var hits []db.Hit
	for _, id := range n.order {
		grams := n.grams[id]
		matched := 0
		for _, g := range query {
			if _, ok := grams[g]; ok {
				matched++
			}
		}
		if matched == 0 || matched < required {
			continue
		}
		hits = append(hits, db.Hit{
			Record: n.records[id],
			Score:  float64(matched) / float64(len(query)),
		})
	}

	return db.RankHits(hits, func(h db.Hit) int { return len(n.grams[h.Record.ID()]) }, size)
}

type candidate struct {
	rec  record.Record
	dist int
}

// complete returns completion options whose key is within the edit budget of the
// input, measured against the best-matching key prefix.
func (n *namespace) complete(c db.CompletionClause) []db.Option {
	input := completionKey(c.Prefix)
	if strings.TrimSpace(input) == "" || c.Size <= 0 {
		return nil
	}
	in := []rune(input)

	fuzzy := c.Fuzziness > 0 && len(in) >= fuzzyMinLength
	visit := input
	if fuzzy {
		visit = string(in[:fuzzyPrefixLength])
	}

	var cands []candidate
	_ = n.trie.VisitSubtree(patricia.Prefix(visit), func(key patricia.Prefix, item patricia.Item) error {
		dist := 0
		if fuzzy {
			dist = prefixDistance(in, []rune(string(key)), c.Fuzziness)
			if dist > c.Fuzziness {
				return nil
			}
		}
		ids, _ := item.([]string)
		for _, id := range ids {
			cands = append(cands, candidate{rec: n.records[id], dist: dist})
		}
		return nil
	})

	sort.SliceStable(cands, func(i, j int) bool {
		a, b := cands[i], cands[j]
		if a.dist != b.dist {
			return a.dist < b.dist
		}
		if a.rec.Name() != b.rec.Name() {
			return a.rec.Name() < b.rec.Name()
		}
		return a.rec.ID() < b.rec.ID()
	})

	seen := make(map[string]struct{})
	var options []db.Option
	for _, cand := range cands {
		if c.SkipDuplicates {
			if _, dup := seen[cand.rec.Name()]; dup {
				continue
			}
			seen[cand.rec.Name()] = struct{}{}
		}
		options = append(options, db.Option{
			Record: cand.rec,
			Score:  1 / float64(1+cand.dist),
		})
		if len(options) == c.Size {
			break
		}
	}
	return options
}

func completionKey(s string) string { return strings.ToLower(s) }

// prefixDistance is the smallest optimal-string-alignment distance between in and
// any prefix of key. Returns limit+1 when every prefix exceeds limit.
func prefixDistance(in, key []rune, limit int) int {
	m := len(in)
	if maxLen := m + limit; len(key) > maxLen {
		key = key[:maxLen]
	}
	w := len(key)

	// rows over input, columns over key; three rows suffice for transpositions.
	prev2 := make([]int, w+1)
	prev := make([]int, w+1)
	cur := make([]int, w+1)
	for j := 0; j <= w; j++ {
		prev[j] = j
	}
	for i := 1; i <= m; i++ {
		cur[0] = i
		for j := 1; j <= w; j++ {
			cost := 1
			if in[i-1] == key[j-1] {
				cost = 0
			}
			cur[j] = min(prev[j]+1, cur[j-1]+1, prev[j-1]+cost)
			if i > 1 && j > 1 && in[i-1] == key[j-2] && in[i-2] == key[j-1] {
				cur[j] = min(cur[j], prev2[j-2]+1)
			}
		}
		prev2, prev, cur = prev, cur, prev2
	}

	best := limit + 1
	for _, d := range prev {
		best = min(best, d)
	}
	return best
}
