package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/kailas-cloud/fuzzysuggest/internal/db"
	"github.com/kailas-cloud/fuzzysuggest/internal/domain"
	"github.com/kailas-cloud/fuzzysuggest/internal/domain/analysis"
)

// Hash field names of a record.
const (
	fieldID      = "rid"
	fieldNameKey = "nkey"
	fieldGrams   = "grams"
	gramSep      = ","
)

// Schema hash field names.
const (
	metaMatchField      = "match_field"
	metaCompletionField = "completion_field"
	metaStrategy        = "strategy"
	metaCharClass       = "char_class"
	metaLowercase       = "lowercase"
)

// DeleteNamespace drops the index with its documents, then the suggestion
// dictionary and schema. "Unknown index name" means there was nothing to delete.
func (s *Store) DeleteNamespace(ctx context.Context, ns string) db.DeleteOutcome {
	s.schemas.Delete(ns)

	outcome := db.Deleted()
	cmd := s.b().Arbitrary("FT.DROPINDEX").Args(indexKey(ns), "DD").Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		if !isRedisErr(err, "unknown index name") && !isRedisErr(err, "no such index") {
			return db.Failed(classify(db.OpDeleteNamespace, err))
		}
		outcome = db.Absent()
	}

	del := s.b().Del().Key(suggestionKey(ns), metaKey(ns)).Build()
	if err := s.do(ctx, del).Error(); err != nil {
		return db.Failed(classify(db.OpDeleteNamespace, err))
	}
	return outcome
}

// CreateNamespace creates the FT index and records the schema.
func (s *Store) CreateNamespace(ctx context.Context, schema *db.NamespaceSchema) error {
	if err := schema.Validate(); err != nil {
		return &db.Error{Op: db.OpCreateNamespace, Err: fmt.Errorf("%w: %w", domain.ErrMalformedQuery, err)}
	}

	cmd := s.b().Arbitrary("FT.CREATE").Args(buildCreateArgs(schema)...).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		if isRedisErr(err, "index already exists") {
			return &db.Error{Op: db.OpCreateNamespace, Err: db.ErrNamespaceExists}
		}
		return classify(db.OpCreateNamespace, err)
	}

	meta := s.b().Hset().Key(metaKey(schema.Name)).FieldValue().
		FieldValue(metaMatchField, schema.MatchField).
		FieldValue(metaCompletionField, schema.CompletionField).
		FieldValue(metaStrategy, string(schema.Analysis.Strategy)).
		FieldValue(metaCharClass, string(schema.Analysis.CharClass)).
		FieldValue(metaLowercase, strconv.FormatBool(schema.Analysis.Lowercase)).
		Build()
	if err := s.do(ctx, meta).Error(); err != nil {
		return classify(db.OpCreateNamespace, err)
	}

	stored := *schema
	s.schemas.Store(schema.Name, &stored)
	return nil
}

// AwaitReady polls FT.INFO until the index exists and has finished indexing.
func (s *Store) AwaitReady(ctx context.Context, ns string) error {
	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	var last error
	for {
		ready, err := s.indexReady(ctx, ns)
		if ready {
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

func (s *Store) indexReady(ctx context.Context, ns string) (bool, error) {
	cmd := s.b().Arbitrary("FT.INFO").Args(indexKey(ns)).Build()
	info, err := s.do(ctx, cmd).ToArray()
	if err != nil {
		return false, classify(db.OpHealth, err)
	}
	for i := 0; i+1 < len(info); i += 2 {
		key, err := info[i].ToString()
		if err != nil || key != "indexing" {
			continue
		}
		if n, err := info[i+1].AsInt64(); err == nil {
			return n == 0, nil
		}
		v, _ := info[i+1].ToString()
		return v == "0", nil
	}
	return true, nil
}

// schema returns the namespace schema, loading it from the meta hash once.
func (s *Store) schema(ctx context.Context, op, ns string) (*db.NamespaceSchema, error) {
	if v, ok := s.schemas.Load(ns); ok {
		return v.(*db.NamespaceSchema), nil
	}

	cmd := s.b().Hgetall().Key(metaKey(ns)).Build()
	m, err := s.do(ctx, cmd).AsStrMap()
	if err != nil {
		return nil, classify(op, err)
	}
	if len(m) == 0 {
		return nil, &db.Error{Op: op, Err: fmt.Errorf("%w: %w %q", domain.ErrNotFound, db.ErrNamespaceNotFound, ns)}
	}

	lower, err := strconv.ParseBool(m[metaLowercase])
	if err != nil {
		return nil, &db.DecodeError{Op: op, Err: fmt.Errorf("%s: %w", metaLowercase, err)}
	}
	schema := &db.NamespaceSchema{
		Name:            ns,
		MatchField:      m[metaMatchField],
		CompletionField: m[metaCompletionField],
		Analysis: analysis.Options{
			Strategy:  analysis.Strategy(m[metaStrategy]),
			CharClass: analysis.CharClass(m[metaCharClass]),
			Lowercase: lower,
		},
	}
	if err := schema.Validate(); err != nil {
		return nil, &db.DecodeError{Op: op, Err: err}
	}
	s.schemas.Store(ns, schema)
	return schema, nil
}

func buildCreateArgs(schema *db.NamespaceSchema) []string {
	return []string{
		indexKey(schema.Name),
		"ON", "HASH",
		"PREFIX", "1", docPrefix(schema.Name),
		"SCHEMA",
		schema.MatchField, "TEXT",
		fieldID, "TAG",
		fieldNameKey, "TAG", "CASESENSITIVE",
		fieldGrams, "TAG", "SEPARATOR", gramSep, "CASESENSITIVE",
	}
}
