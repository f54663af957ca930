package fuzzysuggest

import "time"

// Record is a stored catalog entry.
type Record struct {
	ID   string
	Name string
}

// Suggestions is the merged answer to one query.
// NoResults is true exactly when Names is empty.
type Suggestions struct {
	Query     string
	Names     []string
	NoResults bool
}

// IngestResult is the outcome of storing one name.
type IngestResult struct {
	Index int
	ID    string
	Name  string
	Err   error
}

// OK reports whether the record was stored.
func (r IngestResult) OK() bool { return r.Err == nil }

// ProvisionReport describes a namespace installation.
type ProvisionReport struct {
	Namespace string
	// PreviousNamespace is "deleted", "absent" or "failed".
	PreviousNamespace string
	Duration          time.Duration
}

// HealthStatus represents the aggregated catalog health.
type HealthStatus struct {
	Status string            // "ok", "degraded", "error"
	Checks map[string]string // component → "ok"/"error"
}
