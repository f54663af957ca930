package elastic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/elastic/go-elasticsearch/v8/esapi"

	"github.com/kailas-cloud/fuzzysuggest/internal/db"
	"github.com/kailas-cloud/fuzzysuggest/internal/domain"
	"github.com/kailas-cloud/fuzzysuggest/internal/domain/record"
)

type indexResponse struct {
	ID string `json:"_id"`
}

type getResponse struct {
	ID     string                     `json:"_id"`
	Found  bool                       `json:"found"`
	Source map[string]json.RawMessage `json:"_source"`
}

type countResponse struct {
	Count *int `json:"count"`
}

// PutRecord indexes one record: PUT with an id, POST without.
func (s *Store) PutRecord(ctx context.Context, ns string, r record.Record) (string, error) {
	body, err := json.Marshal(map[string]string{s.matchField: r.Name()})
	if err != nil {
		return "", &db.Error{Op: db.OpPutRecord, Err: err}
	}

	opts := []func(*esapi.IndexRequest){s.es.Index.WithContext(ctx)}
	if r.ID() != "" {
		opts = append(opts, s.es.Index.WithDocumentID(r.ID()))
	}
	res, err := s.es.Index(ns, bytes.NewReader(body), opts...)
	if err != nil {
		return "", transport(db.OpPutRecord, err)
	}
	defer drain(res)
	if err := check(db.OpPutRecord, res); err != nil {
		return "", err
	}
	var out indexResponse
	if err := decode(db.OpPutRecord, res, &out); err != nil {
		return "", err
	}
	if out.ID == "" {
		return "", &db.DecodeError{Op: db.OpPutRecord, Err: fmt.Errorf("response has no _id")}
	}
	return out.ID, nil
}

// GetRecord fetches one record by id.
func (s *Store) GetRecord(ctx context.Context, ns, id string) (record.Record, error) {
	res, err := s.es.Get(ns, id, s.es.Get.WithContext(ctx))
	if err != nil {
		return record.Record{}, transport(db.OpGetRecord, err)
	}
	defer drain(res)
	if res.StatusCode == http.StatusNotFound {
		return record.Record{}, fmt.Errorf("record %q: %w", id, domain.ErrNotFound)
	}
	if err := check(db.OpGetRecord, res); err != nil {
		return record.Record{}, err
	}
	var out getResponse
	if err := decode(db.OpGetRecord, res, &out); err != nil {
		return record.Record{}, err
	}
	if !out.Found {
		return record.Record{}, fmt.Errorf("record %q: %w", id, domain.ErrNotFound)
	}
	name, err := s.sourceName(db.OpGetRecord, out.Source)
	if err != nil {
		return record.Record{}, err
	}
	return record.Reconstruct(out.ID, name), nil
}

// AwaitVisible refreshes the index, then polls an ids count until all ids are searchable.
func (s *Store) AwaitVisible(ctx context.Context, ns string, ids []string) error {
	want := distinct(ids)
	if len(want) == 0 {
		return nil
	}

	if err := s.refresh(ctx, ns); err != nil && ctx.Err() == nil {
		return err
	}

	body, err := json.Marshal(map[string]any{
		"query": map[string]any{"ids": map[string]any{"values": want}},
	})
	if err != nil {
		return &db.Error{Op: db.OpCount, Err: err}
	}

	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	seen := 0
	for {
		n, err := s.count(ctx, ns, body)
		if err == nil && n >= len(want) {
			return nil
		}
		if err == nil {
			seen = n
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %d of %d records visible in %q: %w", domain.ErrNotVisible, seen, len(want), ns, ctx.Err())
		case <-ticker.C:
		}
	}
}

func (s *Store) refresh(ctx context.Context, ns string) error {
	res, err := s.es.Indices.Refresh(
		s.es.Indices.Refresh.WithIndex(ns),
		s.es.Indices.Refresh.WithContext(ctx),
	)
	if err != nil {
		return transport(db.OpRefresh, err)
	}
	defer drain(res)
	return check(db.OpRefresh, res)
}

func (s *Store) count(ctx context.Context, ns string, body []byte) (int, error) {
	res, err := s.es.Count(
		s.es.Count.WithIndex(ns),
		s.es.Count.WithBody(bytes.NewReader(body)),
		s.es.Count.WithContext(ctx),
	)
	if err != nil {
		return 0, transport(db.OpCount, err)
	}
	defer drain(res)
	if err := check(db.OpCount, res); err != nil {
		return 0, err
	}
	var out countResponse
	if err := decode(db.OpCount, res, &out); err != nil {
		return 0, err
	}
	if out.Count == nil {
		return 0, &db.DecodeError{Op: db.OpCount, Err: fmt.Errorf("response has no count")}
	}
	return *out.Count, nil
}

func (s *Store) sourceName(op string, src map[string]json.RawMessage) (string, error) {
	raw, ok := src[s.matchField]
	if !ok {
		return "", &db.DecodeError{Op: op, Err: fmt.Errorf("_source has no %q field", s.matchField)}
	}
	var name string
	if err := json.Unmarshal(raw, &name); err != nil {
		return "", &db.DecodeError{Op: op, Err: fmt.Errorf("_source.%s: %w", s.matchField, err)}
	}
	return name, nil
}

func distinct(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
