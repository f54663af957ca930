package demo

import (
	"context"

	"github.com/kailas-cloud/fuzzysuggest/internal/db"
	"github.com/kailas-cloud/fuzzysuggest/internal/domain/batch"
	"github.com/kailas-cloud/fuzzysuggest/internal/domain/query"
	"github.com/kailas-cloud/fuzzysuggest/internal/domain/suggestion"
	"github.com/kailas-cloud/fuzzysuggest/internal/usecase/provision"
)

// Provisioner installs the demo namespace.
type Provisioner interface {
	Install(ctx context.Context, schema *db.NamespaceSchema) (provision.Report, error)
}

// Ingestor loads the demo records.
type Ingestor interface {
	Ingest(ctx context.Context, ns string, names []string) ([]batch.Result, error)
}

// Suggester runs the demo queries.
type Suggester interface {
	Suggest(ctx context.Context, raw string) (suggestion.List, error)
	Template() query.Template
}
