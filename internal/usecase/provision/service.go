// Package provision installs a catalog namespace: delete, create, await readiness.
package provision

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/fuzzysuggest/internal/db"
	"github.com/kailas-cloud/fuzzysuggest/internal/domain"
	"github.com/kailas-cloud/fuzzysuggest/internal/metrics"
)

// DefaultReadyTimeout bounds AwaitReady after create.
const DefaultReadyTimeout = 30 * time.Second

// Report describes one Install call.
type Report struct {
	Namespace string
	Delete    db.DeleteOutcome
	Duration  time.Duration
}

// Service provisions namespaces.
type Service struct {
	store        NamespaceManager
	logger       *zap.Logger
	readyTimeout time.Duration
}

// New creates a provisioning service.
func New(store NamespaceManager, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, logger: logger, readyTimeout: DefaultReadyTimeout}
}

// WithReadyTimeout configures how long Install waits for the namespace.
func (s *Service) WithReadyTimeout(d time.Duration) *Service {
	if d > 0 {
		s.readyTimeout = d
	}
	return s
}

// Install deletes the namespace, creates it from schema and waits until it
// accepts queries. Calling it twice leaves an empty namespace both times.
// A failed delete is logged and does not abort the install.
func (s *Service) Install(ctx context.Context, schema *db.NamespaceSchema) (Report, error) {
	if schema == nil {
		return Report{}, fmt.Errorf("%w: nil schema", domain.ErrMalformedQuery)
	}
	if err := schema.Validate(); err != nil {
		return Report{}, fmt.Errorf("%w: %w", domain.ErrMalformedQuery, err)
	}

	start := time.Now()
	ns := schema.Name
	log := s.logger.With(zap.String("namespace", ns))

	out := s.store.DeleteNamespace(ctx, ns)
	switch out.Status {
	case db.DeleteDeleted:
		log.Info("Namespace deleted")
	case db.DeleteAbsent:
		log.Debug("Namespace absent, nothing to delete")
	case db.DeleteFailed:
		log.Warn("Namespace delete failed, continuing with create", zap.Error(out.Err))
	}
	metrics.ProvisionTotal.WithLabelValues(ns, out.Status.String()).Inc()

	if err := s.store.CreateNamespace(ctx, schema); err != nil {
		log.Error("Namespace create failed", zap.Error(err))
		return Report{Namespace: ns, Delete: out}, fmt.Errorf("create namespace %q: %w", ns, err)
	}

	readyCtx, cancel := context.WithTimeout(ctx, s.readyTimeout)
	defer cancel()
	if err := s.store.AwaitReady(readyCtx, ns); err != nil {
		log.Error("Namespace not ready", zap.Duration("timeout", s.readyTimeout), zap.Error(err))
		return Report{Namespace: ns, Delete: out}, fmt.Errorf("await namespace %q: %w", ns, err)
	}

	report := Report{Namespace: ns, Delete: out, Duration: time.Since(start)}
	log.Info("Namespace installed",
		zap.String("schema", schema.String()),
		zap.Stringer("delete_outcome", out.Status),
		zap.Duration("duration", report.Duration),
	)
	return report, nil
}
