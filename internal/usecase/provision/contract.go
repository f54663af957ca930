package provision

import (
	"context"

	"github.com/kailas-cloud/fuzzysuggest/internal/db"
)

// NamespaceManager deletes, creates and waits for catalog namespaces.
type NamespaceManager interface {
	DeleteNamespace(ctx context.Context, ns string) db.DeleteOutcome
	CreateNamespace(ctx context.Context, schema *db.NamespaceSchema) error
	AwaitReady(ctx context.Context, ns string) error
}
