package health

import "context"

// CatalogPinger checks catalog availability.
type CatalogPinger interface {
	Ping(ctx context.Context) error
}

// NamespaceChecker reports whether a namespace accepts queries.
type NamespaceChecker interface {
	AwaitReady(ctx context.Context, ns string) error
}
