package ingest

import (
	"context"

	"github.com/kailas-cloud/fuzzysuggest/internal/domain/record"
)

// Store writes records and waits for them to become query-visible.
type Store interface {
	PutRecord(ctx context.Context, ns string, r record.Record) (string, error)
	AwaitVisible(ctx context.Context, ns string, ids []string) error
}
