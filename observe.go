package fuzzysuggest

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// sdkMetrics holds prometheus metrics registered for the SDK.
type sdkMetrics struct {
	operations *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	empty      *prometheus.CounterVec
}

func newSDKMetrics(reg prometheus.Registerer) (*sdkMetrics, error) {
	m := &sdkMetrics{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fuzzysuggest",
			Subsystem: "sdk",
			Name:      "operations_total",
			Help:      "Total SDK operations by type, namespace and status.",
		}, []string{"operation", "namespace", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "fuzzysuggest",
			Subsystem: "sdk",
			Name:      "operation_duration_seconds",
			Help:      "SDK operation duration in seconds.",
			Buckets:   []float64{0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"operation"}),
		empty: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fuzzysuggest",
			Subsystem: "sdk",
			Name:      "no_results_total",
			Help:      "Suggest calls that returned no results.",
		}, []string{"namespace"}),
	}
	if err := registerOrReuse(reg, &m.operations); err != nil {
		return nil, err
	}
	if err := registerOrReuse(reg, &m.duration); err != nil {
		return nil, err
	}
	if err := registerOrReuse(reg, &m.empty); err != nil {
		return nil, err
	}
	return m, nil
}

// registerOrReuse registers a collector or swaps in the one already registered.
func registerOrReuse[T prometheus.Collector](reg prometheus.Registerer, c *T) error {
	if err := reg.Register(*c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			existing, ok := are.ExistingCollector.(T)
			if !ok {
				return fmt.Errorf("fuzzysuggest: metric already registered with incompatible type: %T", are.ExistingCollector)
			}
			*c = existing
			return nil
		}
		return fmt.Errorf("fuzzysuggest: register metric: %w", err)
	}
	return nil
}

// observer provides logging and metrics for SDK operations on one namespace.
type observer struct {
	namespace string
	logger    *slog.Logger
	metrics   *sdkMetrics
}

func newObserver(namespace string, logger *slog.Logger, reg prometheus.Registerer) (*observer, error) {
	o := &observer{namespace: namespace}
	if logger != nil {
		o.logger = logger.With("namespace", namespace)
	}
	if reg != nil {
		m, err := newSDKMetrics(reg)
		if err != nil {
			return nil, err
		}
		o.metrics = m
	}
	return o, nil
}

func (o *observer) observe(op string, start time.Time, err error) {
	if o == nil {
		return
	}
	dur := time.Since(start)

	if o.metrics != nil {
		status := "ok"
		if err != nil {
			status = "error"
		}
		o.metrics.operations.WithLabelValues(op, o.namespace, status).Inc()
		o.metrics.duration.WithLabelValues(op).Observe(dur.Seconds())
	}

	if o.logger != nil {
		if err != nil {
			o.logger.Warn("operation failed", "op", op, "duration", dur, "error", err)
		} else {
			o.logger.Debug("operation completed", "op", op, "duration", dur)
		}
	}
}

func (o *observer) noResults(query string) {
	if o == nil {
		return
	}
	if o.metrics != nil {
		o.metrics.empty.WithLabelValues(o.namespace).Inc()
	}
	if o.logger != nil {
		o.logger.Debug("no results", "query", query)
	}
}
