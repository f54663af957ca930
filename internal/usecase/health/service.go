package health

import (
	"context"
	"time"
)

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates partial failure.
	Degraded Status = "degraded"
	// Unhealthy indicates the catalog is unreachable.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// namespaceProbeTimeout bounds the namespace readiness probe.
const namespaceProbeTimeout = 500 * time.Millisecond

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// Service coordinates health checks.
type Service struct {
	catalog CatalogPinger
	ns      NamespaceChecker
	name    string
}

// New creates a Service. ns can be nil to skip the namespace probe.
func New(catalog CatalogPinger, ns NamespaceChecker, namespace string) *Service {
	return &Service{catalog: catalog, ns: ns, name: namespace}
}

// Check runs health checks against all components.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult)

	if err := s.catalog.Ping(ctx); err != nil {
		checks["catalog"] = CheckError
		return Report{Status: Unhealthy, Checks: checks}
	}
	checks["catalog"] = CheckOK

	if s.ns != nil {
		probeCtx, cancel := context.WithTimeout(ctx, namespaceProbeTimeout)
		defer cancel()
		if err := s.ns.AwaitReady(probeCtx, s.name); err != nil {
			checks["namespace"] = CheckError
		} else {
			checks["namespace"] = CheckOK
		}
	}

	status := Healthy
	for _, v := range checks {
		if v == CheckError {
			status = Degraded
			break
		}
	}

	return Report{Status: status, Checks: checks}
}
