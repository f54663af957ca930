// Package record serves single-record reads and writes plus the name lookups
// exposed by the record API.
package record

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kailas-cloud/fuzzysuggest/internal/domain"
	domrec "github.com/kailas-cloud/fuzzysuggest/internal/domain/record"
	"github.com/kailas-cloud/fuzzysuggest/internal/domain/suggestion"
)

// Limits for SearchByName.
const (
	DefaultSearchLimit = 10
	MaxSearchLimit     = 100
)

// Service handles record operations for one namespace.
type Service struct {
	store             Store
	suggest           Suggester
	ns                string
	visibilityTimeout time.Duration
	newID             func() string
}

// New creates a record service.
func New(store Store, suggest Suggester, ns string, visibilityTimeout time.Duration) *Service {
	return &Service{
		store:             store,
		suggest:           suggest,
		ns:                ns,
		visibilityTimeout: visibilityTimeout,
		newID:             uuid.NewString,
	}
}

// Get returns a record by id.
func (s *Service) Get(ctx context.Context, id string) (domrec.Record, error) {
	if strings.TrimSpace(id) == "" {
		return domrec.Record{}, fmt.Errorf("%w: id is required", domain.ErrInvalidRecord)
	}
	r, err := s.store.GetRecord(ctx, s.ns, id)
	if err != nil {
		return domrec.Record{}, fmt.Errorf("get record: %w", err)
	}
	return r, nil
}

// Create stores a record and returns once it is visible to queries.
// An empty id is replaced with a random UUID.
func (s *Service) Create(ctx context.Context, id, name string) (domrec.Record, error) {
	if id == "" {
		id = s.newID()
	}
	r, err := domrec.New(id, name)
	if err != nil {
		return domrec.Record{}, err
	}

	stored, err := s.store.PutRecord(ctx, s.ns, r)
	if err != nil {
		return domrec.Record{}, fmt.Errorf("put record: %w", err)
	}
	r = r.WithID(stored)

	if s.visibilityTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.visibilityTimeout)
		defer cancel()
	}
	if err := s.store.AwaitVisible(ctx, s.ns, []string{stored}); err != nil {
		return r, fmt.Errorf("await visibility: %w", err)
	}
	return r, nil
}

// SearchByName returns records whose name shares trigrams with name, without a should-match policy.
func (s *Service) SearchByName(ctx context.Context, name string, limit int) ([]domrec.Record, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("%w: name is required", domain.ErrInvalidRecord)
	}
	switch {
	case limit <= 0:
		limit = DefaultSearchLimit
	case limit > MaxSearchLimit:
		limit = MaxSearchLimit
	}
	recs, err := s.store.SearchByName(ctx, s.ns, name, limit)
	if err != nil {
		return nil, fmt.Errorf("search by name: %w", err)
	}
	return recs, nil
}

// Suggest delegates to the suggest service. An empty sessionID runs a stateless query.
func (s *Service) Suggest(ctx context.Context, sessionID, raw string) (suggestion.List, error) {
	list, err := s.suggest.Suggest(ctx, sessionID, raw)
	if err != nil {
		return suggestion.List{}, fmt.Errorf("suggest: %w", err)
	}
	return list, nil
}
