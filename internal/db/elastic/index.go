package elastic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/kailas-cloud/fuzzysuggest/internal/db"
	"github.com/kailas-cloud/fuzzysuggest/internal/domain"
	"github.com/kailas-cloud/fuzzysuggest/internal/domain/analysis"
)

const trigramName = "trigram"

// DeleteNamespace deletes the index. A 404 means there was nothing to delete.
func (s *Store) DeleteNamespace(ctx context.Context, ns string) db.DeleteOutcome {
	res, err := s.es.Indices.Delete([]string{ns}, s.es.Indices.Delete.WithContext(ctx))
	if err != nil {
		return db.Failed(transport(db.OpDeleteNamespace, err))
	}
	defer drain(res)
	if res.StatusCode == http.StatusNotFound {
		return db.Absent()
	}
	if err := check(db.OpDeleteNamespace, res); err != nil {
		return db.Failed(err)
	}
	return db.Deleted()
}

// CreateNamespace creates the index with trigram analysis and a completion sub-field.
func (s *Store) CreateNamespace(ctx context.Context, schema *db.NamespaceSchema) error {
	if err := schema.Validate(); err != nil {
		return &db.Error{Op: db.OpCreateNamespace, Err: fmt.Errorf("%w: %w", domain.ErrMalformedQuery, err)}
	}
	body, err := json.Marshal(indexBody(schema))
	if err != nil {
		return &db.Error{Op: db.OpCreateNamespace, Err: err}
	}

	res, err := s.es.Indices.Create(schema.Name,
		s.es.Indices.Create.WithBody(bytes.NewReader(body)),
		s.es.Indices.Create.WithContext(ctx),
	)
	if err != nil {
		return transport(db.OpCreateNamespace, err)
	}
	defer drain(res)
	err = check(db.OpCreateNamespace, res)
	if err != nil && strings.Contains(err.Error(), "resource_already_exists_exception") {
		return &db.Error{Op: db.OpCreateNamespace, Status: res.StatusCode, Err: db.ErrNamespaceExists}
	}
	return err
}

type healthResponse struct {
	Status   string `json:"status"`
	TimedOut bool   `json:"timed_out"`
}

// AwaitReady polls cluster health for the index until it is yellow or green.
func (s *Store) AwaitReady(ctx context.Context, ns string) error {
	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	var last error
	for {
		ok, err := s.healthy(ctx, ns)
		if ok {
			return nil
		}
		if err != nil {
			last = err
		}
		select {
		case <-ctx.Done():
			cause := ctx.Err()
			if last != nil {
				cause = last
			}
			return &db.Error{Op: db.OpHealth, Err: fmt.Errorf("%w: namespace %q not ready: %w", domain.ErrUnavailable, ns, cause)}
		case <-ticker.C:
		}
	}
}

func (s *Store) healthy(ctx context.Context, ns string) (bool, error) {
	res, err := s.es.Cluster.Health(
		s.es.Cluster.Health.WithContext(ctx),
		s.es.Cluster.Health.WithIndex(ns),
		s.es.Cluster.Health.WithWaitForStatus("yellow"),
		s.es.Cluster.Health.WithTimeout(s.pollInterval),
	)
	if err != nil {
		return false, transport(db.OpHealth, err)
	}
	defer drain(res)
	// 408 is returned when wait_for_status times out; keep polling.
	if res.StatusCode == http.StatusRequestTimeout {
		return false, nil
	}
	if err := check(db.OpHealth, res); err != nil {
		return false, err
	}
	var h healthResponse
	if err := decode(db.OpHealth, res, &h); err != nil {
		return false, err
	}
	return h.Status == "yellow" || h.Status == "green", nil
}

// indexBody renders settings and mappings for the schema.
func indexBody(schema *db.NamespaceSchema) map[string]any {
	opts := schema.Analysis

	var filters []string
	if opts.Lowercase {
		filters = append(filters, "lowercase")
	}

	settings := map[string]any{}
	switch opts.Strategy {
	case analysis.StrategyFilter:
		filters = append(filters, trigramName)
		settings["analyzer"] = map[string]any{
			trigramName: map[string]any{"type": "custom", "tokenizer": "standard", "filter": filters},
		}
		settings["filter"] = map[string]any{
			trigramName: map[string]any{"type": "ngram", "min_gram": analysis.GramSize, "max_gram": analysis.GramSize},
		}
	default:
		analyzer := map[string]any{"type": "custom", "tokenizer": trigramName}
		if len(filters) > 0 {
			analyzer["filter"] = filters
		}
		settings["analyzer"] = map[string]any{trigramName: analyzer}
		settings["tokenizer"] = map[string]any{
			trigramName: map[string]any{
				"type":        "ngram",
				"min_gram":    analysis.GramSize,
				"max_gram":    analysis.GramSize,
				"token_chars": opts.TokenChars(),
			},
		}
	}

	return map[string]any{
		"settings": map[string]any{"analysis": settings},
		"mappings": map[string]any{
			"properties": map[string]any{
				schema.MatchField: map[string]any{
					"type":     "text",
					"analyzer": trigramName,
					"fields": map[string]any{
						schema.CompletionField: map[string]any{"type": "completion"},
					},
				},
			},
		},
	}
}
