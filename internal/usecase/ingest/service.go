// Package ingest writes records one by one through a bounded worker pool and
// blocks until the written records are visible to queries.
package ingest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"

	"github.com/kailas-cloud/fuzzysuggest/internal/domain/batch"
	"github.com/kailas-cloud/fuzzysuggest/internal/domain/record"
	"github.com/kailas-cloud/fuzzysuggest/internal/metrics"
)

// Defaults.
const (
	DefaultConcurrency       = 4
	DefaultVisibilityTimeout = 10 * time.Second
)

// Option configures a Service.
type Option func(*Service) error

// WithConcurrency sets the worker pool size.
func WithConcurrency(n int) Option {
	return func(s *Service) error {
		if n < 1 {
			return fmt.Errorf("concurrency must be positive, got %d", n)
		}
		s.concurrency = n
		return nil
	}
}

// WithVisibilityTimeout bounds the wait for written records to become searchable.
func WithVisibilityTimeout(d time.Duration) Option {
	return func(s *Service) error {
		if d <= 0 {
			return fmt.Errorf("visibility timeout must be positive, got %s", d)
		}
		s.visibilityTimeout = d
		return nil
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) error {
		if l != nil {
			s.logger = l
		}
		return nil
	}
}

// Service ingests records. It owns a worker pool; call Release when done.
type Service struct {
	store             Store
	pool              *ants.Pool
	concurrency       int
	visibilityTimeout time.Duration
	logger            *zap.Logger
}

// New creates an ingest service.
func New(store Store, opts ...Option) (*Service, error) {
	s := &Service{
		store:             store,
		concurrency:       DefaultConcurrency,
		visibilityTimeout: DefaultVisibilityTimeout,
		logger:            zap.NewNop(),
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	pool, err := ants.NewPool(s.concurrency)
	if err != nil {
		return nil, fmt.Errorf("create worker pool: %w", err)
	}
	s.pool = pool
	return s, nil
}

// Release stops the worker pool.
func (s *Service) Release() {
	if s.pool != nil {
		s.pool.Release()
	}
}

// Ingest writes each name as an independent record with a store-assigned id.
func (s *Service) Ingest(ctx context.Context, ns string, names []string) ([]batch.Result, error) {
	recs := make([]record.Record, len(names))
	for i, name := range names {
		recs[i] = record.Reconstruct("", name)
	}
	return s.IngestRecords(ctx, ns, recs)
}

// IngestRecords writes records concurrently, then waits until every successful
// write is visible. Results follow input order. A failed record does not undo
// the others; the returned error is only about visibility.
func (s *Service) IngestRecords(ctx context.Context, ns string, recs []record.Record) ([]batch.Result, error) {
	results := make([]batch.Result, len(recs))
	start := time.Now()

	var wg sync.WaitGroup
	for i, r := range recs {
		valid, err := record.New(r.ID(), r.Name())
		if err != nil {
			results[i] = batch.NewError(i, r.ID(), r.Name(), err)
			continue
		}
		wg.Add(1)
		task := func() {
			defer wg.Done()
			results[i] = s.put(ctx, ns, i, valid)
		}
		if err := s.pool.Submit(task); err != nil {
			wg.Done()
			results[i] = batch.NewError(i, r.ID(), r.Name(), fmt.Errorf("submit: %w", err))
		}
	}
	wg.Wait()

	sum := batch.Summarize(results)
	metrics.IngestRecordsTotal.WithLabelValues(ns, string(batch.StatusOK)).Add(float64(sum.OK))
	metrics.IngestRecordsTotal.WithLabelValues(ns, string(batch.StatusError)).Add(float64(sum.Failed))

	log := s.logger.With(zap.String("namespace", ns))
	if sum.Failed > 0 {
		log.Warn("Some records failed to ingest",
			zap.Int("ok", sum.OK), zap.Int("failed", sum.Failed),
			zap.NamedError("first_error", batch.FirstError(results)),
		)
	}

	ids := batch.SucceededIDs(results)
	if len(ids) == 0 {
		return results, nil
	}

	visCtx, cancel := context.WithTimeout(ctx, s.visibilityTimeout)
	defer cancel()
	if err := s.store.AwaitVisible(visCtx, ns, ids); err != nil {
		log.Error("Records not visible", zap.Int("records", len(ids)), zap.Error(err))
		return results, fmt.Errorf("await visibility of %d records: %w", len(ids), err)
	}

	log.Info("Records ingested",
		zap.Int("ok", sum.OK), zap.Int("failed", sum.Failed),
		zap.Duration("duration", time.Since(start)),
	)
	return results, nil
}

func (s *Service) put(ctx context.Context, ns string, i int, r record.Record) batch.Result {
	id, err := s.store.PutRecord(ctx, ns, r)
	if err != nil {
		return batch.NewError(i, r.ID(), r.Name(), fmt.Errorf("put record: %w", err))
	}
	return batch.NewOK(i, id, r.Name())
}
