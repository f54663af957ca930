package db

import (
	"context"
	"time"

	"github.com/kailas-cloud/fuzzysuggest/internal/domain/record"
)

// Store is the catalog facade combining all sub-interfaces.
//
//nolint:interfacebloat // facade; consumers depend on the narrow sub-interfaces
type Store interface {
	Pinger
	NamespaceManager
	RecordWriter
	RecordReader
	Searcher
	VisibilityWaiter
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks catalog connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// NamespaceManager provides namespace lifecycle operations.
type NamespaceManager interface {
	// DeleteNamespace never returns an error: failures are reported in the outcome.
	DeleteNamespace(ctx context.Context, ns string) DeleteOutcome
	CreateNamespace(ctx context.Context, schema *NamespaceSchema) error
	// AwaitReady blocks until the namespace accepts queries or ctx is done.
	AwaitReady(ctx context.Context, ns string) error
}

// RecordWriter stores records one at a time.
type RecordWriter interface {
	// PutRecord stores r and returns its id. An empty id lets the store assign one.
	PutRecord(ctx context.Context, ns string, r record.Record) (string, error)
}

// RecordReader fetches records by id.
type RecordReader interface {
	// GetRecord returns domain.ErrNotFound when the id is unknown.
	GetRecord(ctx context.Context, ns, id string) (record.Record, error)
}

// Searcher runs the combined fuzzy match + completion request.
type Searcher interface {
	Search(ctx context.Context, ns string, req *SearchRequest) (*SearchResult, error)
	// SearchByName runs a plain match on the match field without a should-match policy.
	SearchByName(ctx context.Context, ns, name string, limit int) ([]record.Record, error)
}

// VisibilityWaiter makes written records query-visible.
type VisibilityWaiter interface {
	// AwaitVisible acknowledges pending writes and polls until every id is
	// visible to queries. When ctx is done first it returns domain.ErrNotVisible.
	AwaitVisible(ctx context.Context, ns string, ids []string) error
}
