package redis

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/fuzzysuggest/internal/db"
	"github.com/kailas-cloud/fuzzysuggest/internal/domain/msm"
	"github.com/kailas-cloud/fuzzysuggest/internal/domain/record"
)

const (
	// candidatePage is the FT.SEARCH page size for trigram candidates.
	candidatePage = 1000
	// defaultHitsSize caps match hits.
	defaultHitsSize = 10
	// fuzzyMinLength is the input length below which completion is exact-prefix only.
	fuzzyMinLength = 3
)

// entry is one parsed FT.SEARCH document.
type entry struct {
	Key    string
	Fields map[string]string
}

// Search runs the trigram match (FT.SEARCH + client-side should-match) and the
// completion (FT.SUGGET) for one request.
//
// FT.SUGGET FUZZY allows a single edit regardless of the requested fuzziness.
func (s *Store) Search(ctx context.Context, ns string, req *db.SearchRequest) (*db.SearchResult, error) {
	schema, err := s.schema(ctx, db.OpSearch, ns)
	if err != nil {
		return nil, err
	}
	hits, err := s.match(ctx, schema, req.Match.Text, req.Match.MinimumShouldMatch, defaultHitsSize)
	if err != nil {
		return nil, err
	}
	options, err := s.complete(ctx, ns, req.Completion)
	if err != nil {
		return nil, err
	}
	return &db.SearchResult{Hits: hits, Options: options}, nil
}

// SearchByName runs the trigram match with any-overlap semantics.
func (s *Store) SearchByName(ctx context.Context, ns, name string, limit int) ([]record.Record, error) {
	schema, err := s.schema(ctx, db.OpSearch, ns)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultHitsSize
	}
	hits, err := s.match(ctx, schema, name, msm.Policy{}, limit)
	if err != nil {
		return nil, err
	}
	out := make([]record.Record, len(hits))
	for i := range hits {
		out[i] = hits[i].Record
	}
	return out, nil
}

// SearchCount returns the number of documents matching query via LIMIT 0 0.
func (s *Store) SearchCount(ctx context.Context, index, query string) (int, error) {
	cmd := s.b().Arbitrary("FT.SEARCH").Args(index, query, "LIMIT", "0", "0", "DIALECT", "2").Build()
	raw, err := s.do(ctx, cmd).ToArray()
	if err != nil {
		return 0, classify(db.OpCount, err)
	}
	if len(raw) == 0 {
		return 0, nil
	}
	total, err := raw[0].AsInt64()
	if err != nil {
		return 0, &db.DecodeError{Op: db.OpCount, Err: fmt.Errorf("parse count: %w", err)}
	}
	return int(total), nil
}

func (s *Store) match(
	ctx context.Context, schema *db.NamespaceSchema, text string, policy msm.Policy, size int,
) ([]db.Hit, error) {
	query := schema.Analysis.DistinctTrigrams(text)
	if len(query) == 0 {
		return nil, nil
	}
	required := policy.Required(len(query))
	if required > len(query) {
		return nil, nil
	}

	terms := make(map[string]int)
	var hits []db.Hit
	// every candidate is scored; the engine returns them unranked
	for offset := 0; ; offset += candidatePage {
		total, entries, err := s.candidates(ctx, schema, query, offset)
		if err != nil {
			return nil, err
		}
		for _, e := range entries {
			name, ok := e.Fields[schema.MatchField]
			if !ok {
				return nil, &db.DecodeError{Op: db.OpSearch, Err: fmt.Errorf("document %s has no %q field", e.Key, schema.MatchField)}
			}
			id := e.Fields[fieldID]
			if id == "" {
				id = strings.TrimPrefix(e.Key, docPrefix(schema.Name))
			}
			docGrams := strings.Split(e.Fields[fieldGrams], gramSep)
			set := make(map[string]struct{}, len(docGrams))
			for _, g := range docGrams {
				set[g] = struct{}{}
			}
			matched := 0
			for _, g := range query {
				if _, ok := set[g]; ok {
					matched++
				}
			}
			if matched == 0 || matched < required {
				continue
			}
			terms[id] = len(set)
			hits = append(hits, db.Hit{
				Record: record.Reconstruct(id, name),
				Score:  float64(matched) / float64(len(query)),
			})
		}
		if len(entries) == 0 || int64(offset+candidatePage) >= total {
			break
		}
	}
	return db.RankHits(hits, func(h db.Hit) int { return terms[h.Record.ID()] }, size), nil
}

// candidates fetches one page of documents sharing at least one trigram with query.
func (s *Store) candidates(
	ctx context.Context, schema *db.NamespaceSchema, query []string, offset int,
) (int64, []entry, error) {
	args := []string{
		indexKey(schema.Name), tagQuery(fieldGrams, query),
		"RETURN", "3", fieldID, schema.MatchField, fieldGrams,
		"LIMIT", strconv.Itoa(offset), strconv.Itoa(candidatePage),
		"DIALECT", "2",
	}
	raw, err := s.do(ctx, s.b().Arbitrary("FT.SEARCH").Args(args...).Build()).ToArray()
	if err != nil {
		return 0, nil, classify(db.OpSearch, err)
	}
	total, entries, err := parseListPage(raw)
	if err != nil {
		return 0, nil, &db.DecodeError{Op: db.OpSearch, Err: err}
	}
	return total, entries, nil
}

func (s *Store) complete(ctx context.Context, ns string, c db.CompletionClause) ([]db.Option, error) {
	if strings.TrimSpace(c.Prefix) == "" || c.Size <= 0 {
		return nil, nil
	}
	args := []string{suggestionKey(ns), c.Prefix}
	if c.Fuzziness > 0 && len([]rune(c.Prefix)) >= fuzzyMinLength {
		args = append(args, "FUZZY")
	}
	args = append(args, "MAX", strconv.Itoa(c.Size), "WITHSCORES", "WITHPAYLOADS")

	raw, err := s.do(ctx, s.b().Arbitrary("FT.SUGGET").Args(args...).Build()).ToArray()
	if err != nil {
		if isNil(err) {
			return nil, nil
		}
		return nil, classify(db.OpSearch, err)
	}
	options, err := parseSuggestions(raw)
	if err != nil {
		return nil, &db.DecodeError{Op: db.OpSearch, Err: err}
	}
	return options, nil
}

// --- Result parsing ---

func parseListResult(raw []rueidis.RedisMessage) ([]entry, error) {
	_, entries, err := parseListPage(raw)
	return entries, err
}

// parseListPage also returns the total match count, which spans all pages.
func parseListPage(raw []rueidis.RedisMessage) (int64, []entry, error) {
	if len(raw) == 0 {
		return 0, nil, nil
	}

	total, err := raw[0].AsInt64()
	if err != nil {
		return 0, nil, fmt.Errorf("parse total: %w", err)
	}
	if total == 0 {
		return 0, nil, nil
	}

	entries := make([]entry, 0, (len(raw)-1)/2)
	// 2-stride: [total, key1, fields1, key2, fields2, ...]
	for i := 1; i+1 < len(raw); i += 2 {
		key, err := raw[i].ToString()
		if err != nil {
			return 0, nil, fmt.Errorf("parse key at %d: %w", i, err)
		}

		fields, err := raw[i+1].ToArray()
		if err != nil {
			return 0, nil, fmt.Errorf("parse fields of %s: %w", key, err)
		}

		entries = append(entries, entry{Key: key, Fields: parseFieldPairs(fields)})
	}

	return total, entries, nil
}

// parseSuggestions reads the 3-stride [string, score, payload, ...] FT.SUGGET reply.
func parseSuggestions(raw []rueidis.RedisMessage) ([]db.Option, error) {
	if len(raw)%3 != 0 {
		return nil, fmt.Errorf("suggestion reply has %d elements, want a multiple of 3", len(raw))
	}
	options := make([]db.Option, 0, len(raw)/3)
	for i := 0; i+2 < len(raw); i += 3 {
		name, err := raw[i].ToString()
		if err != nil {
			return nil, fmt.Errorf("parse suggestion: %w", err)
		}
		scoreStr, err := raw[i+1].ToString()
		if err != nil {
			return nil, fmt.Errorf("parse score of %q: %w", name, err)
		}
		score, err := strconv.ParseFloat(scoreStr, 64)
		if err != nil {
			return nil, fmt.Errorf("parse score of %q: %w", name, err)
		}
		id, err := raw[i+2].ToString()
		if err != nil && !isNil(err) {
			return nil, fmt.Errorf("parse payload of %q: %w", name, err)
		}
		options = append(options, db.Option{Record: record.Reconstruct(id, name), Score: score})
	}
	return options, nil
}

func parseFieldPairs(fields []rueidis.RedisMessage) map[string]string {
	m := make(map[string]string, len(fields)/2)
	for j := 0; j+1 < len(fields); j += 2 {
		name, err := fields[j].ToString()
		if err != nil {
			continue
		}
		value, err := fields[j+1].ToString()
		if err != nil {
			continue
		}
		m[name] = value
	}
	return m
}

// --- Query helpers ---

// tagQuery renders @field:{v1 | v2 | ...} with escaped values.
func tagQuery(field string, values []string) string {
	escaped := make([]string, len(values))
	for i, v := range values {
		escaped[i] = tagEscaper.Replace(v)
	}
	return fmt.Sprintf("@%s:{%s}", field, strings.Join(escaped, " | "))
}

var tagEscaper = strings.NewReplacer(
	",", "\\,",
	".", "\\.",
	"<", "\\<",
	">", "\\>",
	"{", "\\{",
	"}", "\\}",
	"\"", "\\\"",
	"'", "\\'",
	":", "\\:",
	";", "\\;",
	"!", "\\!",
	"@", "\\@",
	"#", "\\#",
	"$", "\\$",
	"%", "\\%",
	"^", "\\^",
	"&", "\\&",
	"*", "\\*",
	"(", "\\(",
	")", "\\)",
	"-", "\\-",
	"+", "\\+",
	"=", "\\=",
	"~", "\\~",
	"|", "\\|",
	" ", "\\ ",
)
