package record

import (
	"context"

	"github.com/kailas-cloud/fuzzysuggest/internal/domain/record"
	"github.com/kailas-cloud/fuzzysuggest/internal/domain/suggestion"
)

// Store reads, writes and looks up records.
type Store interface {
	GetRecord(ctx context.Context, ns, id string) (record.Record, error)
	PutRecord(ctx context.Context, ns string, r record.Record) (string, error)
	AwaitVisible(ctx context.Context, ns string, ids []string) error
	SearchByName(ctx context.Context, ns, name string, limit int) ([]record.Record, error)
}

// Suggester answers autocomplete queries, optionally within a session.
type Suggester interface {
	Suggest(ctx context.Context, sessionID, raw string) (suggestion.List, error)
}
