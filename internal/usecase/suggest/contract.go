package suggest

import (
	"context"

	"github.com/kailas-cloud/fuzzysuggest/internal/db"
)

// Searcher runs the combined match + completion request against the catalog.
type Searcher interface {
	Search(ctx context.Context, ns string, req *db.SearchRequest) (*db.SearchResult, error)
}
