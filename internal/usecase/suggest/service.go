// Package suggest executes autocomplete queries and merges their two result
// streams into one suggestion list.
package suggest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/kailas-cloud/fuzzysuggest/internal/db"
	"github.com/kailas-cloud/fuzzysuggest/internal/domain"
	"github.com/kailas-cloud/fuzzysuggest/internal/domain/query"
	"github.com/kailas-cloud/fuzzysuggest/internal/domain/suggestion"
	"github.com/kailas-cloud/fuzzysuggest/internal/logger"
	"github.com/kailas-cloud/fuzzysuggest/internal/metrics"
)

// Defaults.
const (
	DefaultQueryTimeout   = 2 * time.Second
	DefaultMaxAttempts    = 3
	DefaultInitialBackoff = 50 * time.Millisecond
	DefaultMaxBackoff     = 500 * time.Millisecond
)

// Query outcome labels.
const (
	outcomeOK         = "ok"
	outcomeNoResults  = "no_results"
	outcomeSuperseded = "superseded"
	outcomeTimeout    = "timeout"
	outcomeError      = "error"
)

// Option configures a Service.
type Option func(*Service)

// WithQueryTimeout sets the deadline of a single catalog call.
func WithQueryTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.queryTimeout = d
		}
	}
}

// WithRetry sets the attempt budget and the exponential backoff bounds.
func WithRetry(maxAttempts int, initial, maxInterval time.Duration) Option {
	return func(s *Service) {
		if maxAttempts > 0 {
			s.maxAttempts = maxAttempts
		}
		if initial > 0 {
			s.initialBackoff = initial
		}
		if maxInterval > 0 {
			s.maxBackoff = maxInterval
		}
	}
}

// WithLogger sets the fallback logger used when the context carries none.
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// Service runs suggest queries for one namespace. It keeps no state between calls.
type Service struct {
	store          Searcher
	ns             string
	tmpl           query.Template
	queryTimeout   time.Duration
	maxAttempts    int
	initialBackoff time.Duration
	maxBackoff     time.Duration
	logger         *zap.Logger
}

// New creates a suggest service.
func New(store Searcher, ns string, tmpl query.Template, opts ...Option) *Service {
	s := &Service{
		store:          store,
		ns:             ns,
		tmpl:           tmpl,
		queryTimeout:   DefaultQueryTimeout,
		maxAttempts:    DefaultMaxAttempts,
		initialBackoff: DefaultInitialBackoff,
		maxBackoff:     DefaultMaxBackoff,
		logger:         zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Template returns the configured query template.
func (s *Service) Template() query.Template { return s.tmpl }

// Namespace returns the namespace queries run against.
func (s *Service) Namespace() string { return s.ns }

// Suggest builds a request from raw input and executes it.
func (s *Service) Suggest(ctx context.Context, raw string) (suggestion.List, error) {
	req := s.tmpl.Build(raw)
	return s.Execute(ctx, &req)
}

// Execute sends req, then merges hit names and option names: match names
// first, first occurrence wins, NoResults when both are empty.
//
// Retryable failures are retried with exponential backoff. Every attempt is
// bounded by the query timeout; an attempt that hits it fails with
// domain.ErrQueryTimeout.
func (s *Service) Execute(ctx context.Context, req *db.SearchRequest) (suggestion.List, error) {
	start := time.Now()
	res, err := s.search(ctx, req)
	metrics.SuggestQueryDuration.WithLabelValues(s.ns).Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.SuggestQueriesTotal.WithLabelValues(s.ns, outcomeOf(err)).Inc()
		s.log(ctx).Debug("Suggest query failed",
			zap.String("input", req.Match.Text),
			zap.Error(err),
		)
		return suggestion.List{}, err
	}

	list := suggestion.Merge(res.HitNames(), res.OptionNames())
	if list.IsNoResults() {
		metrics.SuggestQueriesTotal.WithLabelValues(s.ns, outcomeNoResults).Inc()
	} else {
		metrics.SuggestQueriesTotal.WithLabelValues(s.ns, outcomeOK).Inc()
	}
	return list, nil
}

func (s *Service) search(ctx context.Context, req *db.SearchRequest) (*db.SearchResult, error) {
	var res *db.SearchResult
	var last error

	op := func() error {
		attemptCtx, cancel := context.WithTimeout(ctx, s.queryTimeout)
		defer cancel()

		r, err := s.store.Search(attemptCtx, s.ns, req)
		if err == nil {
			res = r
			return nil
		}
		if ctx.Err() == nil && errors.Is(attemptCtx.Err(), context.DeadlineExceeded) {
			err = fmt.Errorf("%w after %s: %w", domain.ErrQueryTimeout, s.queryTimeout, err)
		}
		last = err
		if !domain.IsRetryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}

	notify := func(err error, wait time.Duration) {
		metrics.SuggestRetriesTotal.WithLabelValues(s.ns).Inc()
		s.log(ctx).Debug("Retrying suggest query", zap.Duration("wait", wait), zap.Error(err))
	}

	err := backoff.RetryNotify(op, s.backoff(ctx), notify)
	if err == nil {
		return res, nil
	}
	if ctx.Err() != nil {
		return nil, contextError(ctx, last)
	}
	return nil, err
}

func (s *Service) backoff(ctx context.Context) backoff.BackOff {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = s.initialBackoff
	exp.MaxInterval = s.maxBackoff
	exp.MaxElapsedTime = 0
	return backoff.WithContext(backoff.WithMaxRetries(exp, uint64(s.maxAttempts-1)), ctx)
}

func (s *Service) log(ctx context.Context) *zap.Logger {
	return logger.FromContextOr(ctx, s.logger)
}

// contextError maps a finished caller context to a domain error.
func contextError(ctx context.Context, last error) error {
	cause := context.Cause(ctx)
	switch {
	case errors.Is(cause, domain.ErrSuperseded):
		return domain.ErrSuperseded
	case errors.Is(cause, context.DeadlineExceeded):
		if last != nil {
			return fmt.Errorf("%w: %w", domain.ErrQueryTimeout, last)
		}
		return fmt.Errorf("%w: %w", domain.ErrQueryTimeout, cause)
	default:
		return cause
	}
}

func outcomeOf(err error) string {
	switch {
	case errors.Is(err, domain.ErrSuperseded):
		return outcomeSuperseded
	case errors.Is(err, domain.ErrQueryTimeout):
		return outcomeTimeout
	default:
		return outcomeError
	}
}
