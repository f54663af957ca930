// Package memory is a process-local catalog engine. It reproduces the trigram
// match and fuzzy completion semantics of the HTTP catalog so the retrieval core
// can run offline and in tests. Nothing is persisted.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tchap/go-patricia/v2/patricia"

	"github.com/kailas-cloud/fuzzysuggest/internal/db"
	"github.com/kailas-cloud/fuzzysuggest/internal/domain"
	"github.com/kailas-cloud/fuzzysuggest/internal/domain/record"
)

// Compile-time check: Store implements db.Store.
var _ db.Store = (*Store)(nil)

// Store implements db.Store in memory. Safe for concurrent use.
type Store struct {
	mu         sync.RWMutex
	namespaces map[string]*namespace
	newID      func() string
}

type namespace struct {
	schema  db.NamespaceSchema
	records map[string]record.Record
	order   []string
	grams   map[string]map[string]struct{}
	// completion keys are lowercased names; items are []string record ids.
	trie *patricia.Trie
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		namespaces: make(map[string]*namespace),
		newID:      uuid.NewString,
	}
}

// Ping always succeeds.
func (s *Store) Ping(ctx context.Context) error { return ctx.Err() }

// Close is a no-op.
func (s *Store) Close() {}

// WaitForReady returns immediately.
func (s *Store) WaitForReady(ctx context.Context, _ time.Duration) error { return ctx.Err() }

// DeleteNamespace drops a namespace and all its records.
func (s *Store) DeleteNamespace(ctx context.Context, ns string) db.DeleteOutcome {
	if err := ctx.Err(); err != nil {
		return db.Failed(&db.Error{Op: db.OpDeleteNamespace, Err: err})
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.namespaces[ns]; !ok {
		return db.Absent()
	}
	delete(s.namespaces, ns)
	return db.Deleted()
}

// CreateNamespace registers an empty namespace.
func (s *Store) CreateNamespace(ctx context.Context, schema *db.NamespaceSchema) error {
	if err := ctx.Err(); err != nil {
		return &db.Error{Op: db.OpCreateNamespace, Err: err}
	}
	if err := schema.Validate(); err != nil {
		return &db.Error{Op: db.OpCreateNamespace, Err: fmt.Errorf("%w: %w", domain.ErrMalformedQuery, err)}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.namespaces[schema.Name]; ok {
		return &db.Error{Op: db.OpCreateNamespace, Err: db.ErrNamespaceExists}
	}
	s.namespaces[schema.Name] = &namespace{
		schema:  *schema,
		records: make(map[string]record.Record),
		grams:   make(map[string]map[string]struct{}),
		trie:    patricia.NewTrie(),
	}
	return nil
}

// AwaitReady succeeds as soon as the namespace exists.
func (s *Store) AwaitReady(ctx context.Context, ns string) error {
	if err := ctx.Err(); err != nil {
		return &db.Error{Op: db.OpHealth, Err: err}
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.namespaces[ns]; !ok {
		return missing(db.OpHealth, ns)
	}
	return nil
}

// PutRecord stores r, replacing any record with the same id.
func (s *Store) PutRecord(ctx context.Context, ns string, r record.Record) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", &db.Error{Op: db.OpPutRecord, Err: err}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.namespaces[ns]
	if !ok {
		return "", missing(db.OpPutRecord, ns)
	}
	id := r.ID()
	if id == "" {
		id = s.newID()
	}
	n.put(r.WithID(id))
	return id, nil
}

// GetRecord returns the record with the given id.
func (s *Store) GetRecord(ctx context.Context, ns, id string) (record.Record, error) {
	if err := ctx.Err(); err != nil {
		return record.Record{}, &db.Error{Op: db.OpGetRecord, Err: err}
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, ok := s.namespaces[ns]
	if !ok {
		return record.Record{}, missing(db.OpGetRecord, ns)
	}
	r, ok := n.records[id]
	if !ok {
		return record.Record{}, fmt.Errorf("record %q: %w", id, domain.ErrNotFound)
	}
	return r, nil
}

// AwaitVisible returns once every id is stored. Writes are visible immediately,
// so an unknown id means the write never happened.
func (s *Store) AwaitVisible(ctx context.Context, ns string, ids []string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrNotVisible, err)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, ok := s.namespaces[ns]
	if !ok {
		return missing(db.OpCount, ns)
	}
	for _, id := range ids {
		if _, ok := n.records[id]; !ok {
			return fmt.Errorf("%w: record %q not stored", domain.ErrNotVisible, id)
		}
	}
	return nil
}

func (n *namespace) put(r record.Record) {
	if old, ok := n.records[r.ID()]; ok {
		n.unindex(old)
	} else {
		n.order = append(n.order, r.ID())
	}
	n.records[r.ID()] = r

	set := make(map[string]struct{})
	for _, g := range n.schema.Analysis.Trigrams(r.Name()) {
		set[g] = struct{}{}
	}
	n.grams[r.ID()] = set

	key := patricia.Prefix(completionKey(r.Name()))
	ids, _ := n.trie.Get(key).([]string)
	n.trie.Set(key, append(ids, r.ID()))
}

func (n *namespace) unindex(r record.Record) {
	key := patricia.Prefix(completionKey(r.Name()))
	ids, _ := n.trie.Get(key).([]string)
	kept := ids[:0]
	for _, id := range ids {
		if id != r.ID() {
			kept = append(kept, id)
		}
	}
	if len(kept) == 0 {
		n.trie.Delete(key)
	} else {
		n.trie.Set(key, kept)
	}
	delete(n.grams, r.ID())
}

func missing(op, ns string) error {
	return &db.Error{Op: op, Err: fmt.Errorf("%w: %w %q", domain.ErrNotFound, db.ErrNamespaceNotFound, ns)}
}
