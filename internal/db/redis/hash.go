package redis

import (
	"context"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/fuzzysuggest/internal/db"
	"github.com/kailas-cloud/fuzzysuggest/internal/domain"
	"github.com/kailas-cloud/fuzzysuggest/internal/domain/record"
)

// PutRecord writes the record hash and its completion entry in one round-trip.
// Redis has no server-assigned ids, so an empty id gets a UUID.
func (s *Store) PutRecord(ctx context.Context, ns string, r record.Record) (string, error) {
	schema, err := s.schema(ctx, db.OpPutRecord, ns)
	if err != nil {
		return "", err
	}
	id := r.ID()
	if id == "" {
		id = s.newID()
	}
	key := docKey(ns, id)

	// a renamed record must not leave its old name in the dictionary
	old, err := s.do(ctx, s.b().Hget().Key(key).Field(schema.MatchField).Build()).ToString()
	if err != nil && !isNil(err) {
		return "", classify(db.OpPutRecord, err)
	}

	grams := schema.Analysis.DistinctTrigrams(r.Name())
	cmds := []rueidis.Completed{
		s.b().Hset().Key(key).FieldValue().
			FieldValue(fieldID, id).
			FieldValue(schema.MatchField, r.Name()).
			FieldValue(fieldNameKey, nameKey(r.Name())).
			FieldValue(fieldGrams, strings.Join(grams, gramSep)).
			Build(),
		s.b().Arbitrary("FT.SUGADD").Args(suggestionKey(ns), r.Name(), "1", "PAYLOAD", id).Build(),
	}
	for i, res := range s.client.DoMulti(ctx, cmds...) {
		if err := res.Error(); err != nil {
			return "", classify(db.OpPutRecord, fmt.Errorf("command %d for %s: %w", i, key, err))
		}
	}

	if old != "" && old != r.Name() {
		if err := s.releaseName(ctx, ns, old); err != nil {
			return "", err
		}
	}
	return id, nil
}

// releaseName drops name from the completion dictionary once no record holds
// it. The dictionary keeps one entry per distinct string, so while another
// record still carries the name the entry stays, re-pointed at that record.
func (s *Store) releaseName(ctx context.Context, ns, name string) error {
	args := []string{
		indexKey(ns), tagQuery(fieldNameKey, []string{nameKey(name)}),
		"RETURN", "1", fieldID,
		"LIMIT", "0", "1",
		"DIALECT", "2",
	}
	raw, err := s.do(ctx, s.b().Arbitrary("FT.SEARCH").Args(args...).Build()).ToArray()
	if err != nil {
		return classify(db.OpPutRecord, err)
	}
	holders, err := parseListResult(raw)
	if err != nil {
		return &db.DecodeError{Op: db.OpPutRecord, Err: err}
	}

	cmd := s.b().Arbitrary("FT.SUGDEL").Args(suggestionKey(ns), name).Build()
	if len(holders) > 0 {
		holder := holders[0].Fields[fieldID]
		if holder == "" {
			holder = strings.TrimPrefix(holders[0].Key, docPrefix(ns))
		}
		cmd = s.b().Arbitrary("FT.SUGADD").Args(suggestionKey(ns), name, "1", "PAYLOAD", holder).Build()
	}
	if err := s.do(ctx, cmd).Error(); err != nil {
		return classify(db.OpPutRecord, fmt.Errorf("release %q: %w", name, err))
	}
	return nil
}

// nameKey is the exact-match tag value of a name. Hex keeps it clear of the
// tag separator and query syntax, and comparison stays byte-exact.
func nameKey(name string) string { return hex.EncodeToString([]byte(name)) }

// GetRecord reads one record hash.
func (s *Store) GetRecord(ctx context.Context, ns, id string) (record.Record, error) {
	schema, err := s.schema(ctx, db.OpGetRecord, ns)
	if err != nil {
		return record.Record{}, err
	}
	m, err := s.do(ctx, s.b().Hgetall().Key(docKey(ns, id)).Build()).AsStrMap()
	if err != nil {
		return record.Record{}, classify(db.OpGetRecord, err)
	}
	if len(m) == 0 {
		return record.Record{}, fmt.Errorf("record %q: %w", id, domain.ErrNotFound)
	}
	name, ok := m[schema.MatchField]
	if !ok {
		return record.Record{}, &db.DecodeError{Op: db.OpGetRecord, Err: fmt.Errorf("hash has no %q field", schema.MatchField)}
	}
	return record.Reconstruct(id, name), nil
}

// AwaitVisible polls an FT.SEARCH count over the record ids until all are indexed.
func (s *Store) AwaitVisible(ctx context.Context, ns string, ids []string) error {
	want := distinct(ids)
	if len(want) == 0 {
		return nil
	}
	query := tagQuery(fieldID, want)

	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	seen := 0
	for {
		n, err := s.SearchCount(ctx, indexKey(ns), query)
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
