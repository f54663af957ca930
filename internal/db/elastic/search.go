package elastic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/kailas-cloud/fuzzysuggest/internal/db"
	"github.com/kailas-cloud/fuzzysuggest/internal/domain/record"
)

type searchResponse struct {
	Hits    *hitsEnvelope              `json:"hits"`
	Suggest map[string][]suggestResult `json:"suggest"`
}

type hitsEnvelope struct {
	Hits []hitDoc `json:"hits"`
}

type hitDoc struct {
	ID     string                     `json:"_id"`
	Score  *float64                   `json:"_score"`
	Source map[string]json.RawMessage `json:"_source"`
}

type suggestResult struct {
	Text    string      `json:"text"`
	Options []optionDoc `json:"options"`
}

type optionDoc struct {
	ID     string                     `json:"_id"`
	Text   string                     `json:"text"`
	Score  float64                    `json:"_score"`
	Source map[string]json.RawMessage `json:"_source"`
}

// Search issues the match and completion clauses in one request.
// The minimum_should_match policy is passed through verbatim.
func (s *Store) Search(ctx context.Context, ns string, req *db.SearchRequest) (*db.SearchResult, error) {
	body, err := json.Marshal(searchBody(req))
	if err != nil {
		return nil, &db.Error{Op: db.OpSearch, Err: err}
	}

	raw, err := s.search(ctx, ns, body)
	if err != nil {
		return nil, err
	}

	var out searchResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, &db.DecodeError{Op: db.OpSearch, Err: err}
	}
	if out.Hits == nil || out.Hits.Hits == nil {
		return nil, &db.DecodeError{Op: db.OpSearch, Err: fmt.Errorf("response has no hits.hits array")}
	}
	entries, ok := out.Suggest[req.Completion.Name]
	if !ok {
		return nil, &db.DecodeError{Op: db.OpSearch, Err: fmt.Errorf("response has no suggest.%s", req.Completion.Name)}
	}

	result := &db.SearchResult{Hits: make([]db.Hit, 0, len(out.Hits.Hits))}
	for _, h := range out.Hits.Hits {
		name, err := s.sourceName(db.OpSearch, h.Source)
		if err != nil {
			return nil, err
		}
		hit := db.Hit{Record: record.Reconstruct(h.ID, name)}
		if h.Score != nil {
			hit.Score = *h.Score
		}
		result.Hits = append(result.Hits, hit)
	}
	for _, e := range entries {
		if e.Options == nil {
			return nil, &db.DecodeError{Op: db.OpSearch, Err: fmt.Errorf("suggest entry has no options array")}
		}
		for _, o := range e.Options {
			name, err := s.sourceName(db.OpSearch, o.Source)
			if err != nil {
				// completion options always carry text; fall back when _source is filtered
				if o.Text == "" {
					return nil, err
				}
				name = o.Text
			}
			result.Options = append(result.Options, db.Option{
				Record: record.Reconstruct(o.ID, name),
				Score:  o.Score,
			})
		}
	}
	return result, nil
}

// SearchByName runs a plain match query on the match field.
func (s *Store) SearchByName(ctx context.Context, ns, name string, limit int) ([]record.Record, error) {
	q := map[string]any{
		"query": map[string]any{"match": map[string]any{s.matchField: name}},
	}
	if limit > 0 {
		q["size"] = limit
	}
	body, err := json.Marshal(q)
	if err != nil {
		return nil, &db.Error{Op: db.OpSearch, Err: err}
	}

	raw, err := s.search(ctx, ns, body)
	if err != nil {
		return nil, err
	}
	var out searchResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, &db.DecodeError{Op: db.OpSearch, Err: err}
	}
	if out.Hits == nil || out.Hits.Hits == nil {
		return nil, &db.DecodeError{Op: db.OpSearch, Err: fmt.Errorf("response has no hits.hits array")}
	}
	records := make([]record.Record, 0, len(out.Hits.Hits))
	for _, h := range out.Hits.Hits {
		n, err := s.sourceName(db.OpSearch, h.Source)
		if err != nil {
			return nil, err
		}
		records = append(records, record.Reconstruct(h.ID, n))
	}
	return records, nil
}

func (s *Store) search(ctx context.Context, ns string, body []byte) ([]byte, error) {
	res, err := s.es.Search(
		s.es.Search.WithContext(ctx),
		s.es.Search.WithIndex(ns),
		s.es.Search.WithBody(bytes.NewReader(body)),
	)
	if err != nil {
		return nil, transport(db.OpSearch, err)
	}
	defer drain(res)
	if err := check(db.OpSearch, res); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(res.Body); err != nil {
		return nil, transport(db.OpSearch, err)
	}
	return buf.Bytes(), nil
}

// searchBody renders the two-clause request. Input strings are JSON values,
// never spliced into text.
func searchBody(req *db.SearchRequest) map[string]any {
	match := map[string]any{"query": req.Match.Text}
	if !req.Match.MinimumShouldMatch.IsZero() {
		match["minimum_should_match"] = req.Match.MinimumShouldMatch.String()
	}
	c := req.Completion
	return map[string]any{
		"query": map[string]any{
			"match": map[string]any{req.Match.Field: match},
		},
		"suggest": map[string]any{
			c.Name: map[string]any{
				"prefix": c.Prefix,
				"completion": map[string]any{
					"field":           c.Field,
					"fuzzy":           map[string]any{"fuzziness": c.Fuzziness},
					"size":            c.Size,
					"skip_duplicates": c.SkipDuplicates,
				},
			},
		},
	}
}
