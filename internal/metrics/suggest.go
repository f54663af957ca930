package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Catalog query and ingestion metrics.
var (
	SuggestQueriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fuzzysuggest",
			Name:      "suggest_queries_total",
			Help:      "Total number of suggest queries by outcome",
		},
		[]string{"namespace", "outcome"}, // ok / no_results / superseded / timeout / error
	)

	SuggestQueryDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "fuzzysuggest",
			Name:      "suggest_query_duration_seconds",
			Help:      "Suggest query duration in seconds, retries included",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"namespace"},
	)

	SuggestRetriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fuzzysuggest",
			Name:      "suggest_retries_total",
			Help:      "Catalog calls retried after a retryable failure",
		},
		[]string{"namespace"},
	)

	IngestRecordsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fuzzysuggest",
			Name:      "ingest_records_total",
			Help:      "Records written by the ingestor by status",
		},
		[]string{"namespace", "status"},
	)

	ProvisionTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fuzzysuggest",
			Name:      "provision_total",
			Help:      "Namespace installs by delete outcome",
		},
		[]string{"namespace", "delete_outcome"},
	)
)

var registerOnce sync.Once

// Register adds the record API, suggest, ingest and provision collectors to
// the default registry. Safe to call more than once.
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(HTTPRequestDuration)
		prometheus.MustRegister(HTTPRequestsTotal)
		prometheus.MustRegister(HTTPRequestsInFlight)
		prometheus.MustRegister(SuggestQueriesTotal)
		prometheus.MustRegister(SuggestQueryDuration)
		prometheus.MustRegister(SuggestRetriesTotal)
		prometheus.MustRegister(IngestRecordsTotal)
		prometheus.MustRegister(ProvisionTotal)
	})
}
