package fuzzysuggest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kailas-cloud/fuzzysuggest/internal/db"
	"github.com/kailas-cloud/fuzzysuggest/internal/db/elastic"
	"github.com/kailas-cloud/fuzzysuggest/internal/db/memory"
	dbRedis "github.com/kailas-cloud/fuzzysuggest/internal/db/redis"
	"github.com/kailas-cloud/fuzzysuggest/internal/domain/batch"
	"github.com/kailas-cloud/fuzzysuggest/internal/domain/msm"
	"github.com/kailas-cloud/fuzzysuggest/internal/domain/query"
	domrec "github.com/kailas-cloud/fuzzysuggest/internal/domain/record"
	"github.com/kailas-cloud/fuzzysuggest/internal/domain/suggestion"
	healthuc "github.com/kailas-cloud/fuzzysuggest/internal/usecase/health"
	"github.com/kailas-cloud/fuzzysuggest/internal/usecase/ingest"
	"github.com/kailas-cloud/fuzzysuggest/internal/usecase/provision"
	recorduc "github.com/kailas-cloud/fuzzysuggest/internal/usecase/record"
	"github.com/kailas-cloud/fuzzysuggest/internal/usecase/suggest"
)

const defaultReadinessTimeout = 10 * time.Second

// Internal interfaces, swapped for mocks in tests.
type provisionUseCase interface {
	Install(ctx context.Context, schema *db.NamespaceSchema) (provision.Report, error)
}

type ingestUseCase interface {
	Ingest(ctx context.Context, ns string, names []string) ([]batch.Result, error)
	Release()
}

type suggestUseCase interface {
	Suggest(ctx context.Context, raw string) (suggestion.List, error)
}

type sessionUseCase interface {
	Suggest(ctx context.Context, raw string) (suggestion.List, error)
	Close()
}

type recordUseCase interface {
	Get(ctx context.Context, id string) (domrec.Record, error)
	Create(ctx context.Context, id, name string) (domrec.Record, error)
	SearchByName(ctx context.Context, name string, limit int) ([]domrec.Record, error)
}

type healthUseCase interface {
	Check(ctx context.Context) healthuc.Report
}

// Client is the fuzzysuggest SDK entry point. It is bound to one namespace.
type Client struct {
	store        db.Store
	schema       *db.NamespaceSchema
	namespace    string
	provisionSvc provisionUseCase
	ingestSvc    ingestUseCase
	suggestSvc   suggestUseCase
	newSession   func() sessionUseCase
	recordSvc    recordUseCase
	healthSvc    healthUseCase
	obs          *observer
}

// New creates a Client and connects to the catalog.
// The provided context is used for the initial readiness check.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := defaultConfig()
	for _, o := range opts {
		o.apply(cfg)
	}

	if cfg.driver == "" {
		return nil, errors.New("fuzzysuggest: catalog required (use WithElastic, WithRedis or WithMemory)")
	}

	schema, err := db.NewSchema(cfg.namespace).Analysis(cfg.analysis).Build()
	if err != nil {
		return nil, fmt.Errorf("fuzzysuggest: %w", err)
	}
	tmpl, err := buildTemplate(cfg, schema)
	if err != nil {
		return nil, fmt.Errorf("fuzzysuggest: %w", err)
	}

	store, err := createStore(cfg)
	if err != nil {
		return nil, err
	}

	if err := store.WaitForReady(ctx, cfg.readinessTimeout); err != nil {
		store.Close()
		return nil, fmt.Errorf("fuzzysuggest: catalog not ready: %w", err)
	}

	obs, err := newObserver(cfg.namespace, cfg.logger, cfg.metricsReg)
	if err != nil {
		store.Close()
		return nil, err
	}

	c, err := wireClient(store, schema, tmpl, cfg, obs)
	if err != nil {
		store.Close()
		return nil, err
	}
	return c, nil
}

func buildTemplate(cfg *clientConfig, schema *db.NamespaceSchema) (query.Template, error) {
	policy, err := msm.Parse(cfg.msm)
	if err != nil {
		return query.Template{}, err
	}
	return query.NewTemplate(query.Options{
		Field:              schema.MatchField,
		MinimumShouldMatch: policy,
		SuggestName:        query.DefaultSuggestName,
		CompletionField:    schema.CompletionPath(),
		Fuzziness:          cfg.fuzziness,
		Size:               cfg.size,
		SkipDuplicates:     true,
	})
}

func createStore(cfg *clientConfig) (db.Store, error) {
	switch cfg.driver {
	case "elastic":
		s, err := elastic.NewStore(elastic.Config{
			Addrs:    cfg.addrs,
			Username: cfg.username,
			Password: cfg.password,
		})
		if err != nil {
			return nil, fmt.Errorf("fuzzysuggest: create elastic store: %w", err)
		}
		return s, nil
	case "redis":
		s, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.addrs,
			Username: cfg.username,
			Password: cfg.password,
		})
		if err != nil {
			return nil, fmt.Errorf("fuzzysuggest: create redis store: %w", err)
		}
		return s, nil
	case "memory":
		return memory.NewStore(), nil
	default:
		return nil, fmt.Errorf("fuzzysuggest: unknown driver %q", cfg.driver)
	}
}

func wireClient(
	store db.Store, schema *db.NamespaceSchema, tmpl query.Template, cfg *clientConfig, obs *observer,
) (*Client, error) {
	ingestOpts := []ingest.Option{ingest.WithVisibilityTimeout(cfg.visibilityTimeout)}
	if cfg.ingestConcurrency > 0 {
		ingestOpts = append(ingestOpts, ingest.WithConcurrency(cfg.ingestConcurrency))
	}
	ingestSvc, err := ingest.New(store, ingestOpts...)
	if err != nil {
		return nil, fmt.Errorf("fuzzysuggest: %w", err)
	}

	suggestSvc := suggest.New(store, schema.Name, tmpl,
		suggest.WithQueryTimeout(cfg.queryTimeout),
		suggest.WithRetry(cfg.retryAttempts, cfg.retryInitial, cfg.retryMax),
	)
	// Sessions are handed out directly; the registry only backs the record service.
	registry := suggest.NewSessions(suggestSvc, 0)

	return &Client{
		store:        store,
		schema:       schema,
		namespace:    schema.Name,
		provisionSvc: provision.New(store, nil).WithReadyTimeout(cfg.readinessTimeout),
		ingestSvc:    ingestSvc,
		suggestSvc:   suggestSvc,
		newSession:   func() sessionUseCase { return suggestSvc.NewSession() },
		recordSvc:    recorduc.New(store, registry, schema.Name, cfg.visibilityTimeout),
		healthSvc:    healthuc.New(store, store, schema.Name),
		obs:          obs,
	}, nil
}

// Close releases all resources.
func (c *Client) Close() {
	if c.ingestSvc != nil {
		c.ingestSvc.Release()
	}
	if c.store != nil {
		c.store.Close()
	}
}

// Namespace returns the namespace the client is bound to.
func (c *Client) Namespace() string { return c.namespace }

// Ping checks catalog connectivity.
func (c *Client) Ping(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("ping", start, err) }()

	if err = c.store.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Health checks the catalog and the namespace.
func (c *Client) Health(ctx context.Context) HealthStatus {
	report := c.healthSvc.Check(ctx)
	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}
	return HealthStatus{Status: string(report.Status), Checks: checks}
}

// Provision deletes the namespace if present, recreates it and waits until it
// accepts queries. All existing records are lost.
func (c *Client) Provision(ctx context.Context) (rep ProvisionReport, err error) {
	start := time.Now()
	defer func() { c.obs.observe("provision", start, err) }()

	r, err := c.provisionSvc.Install(ctx, c.schema)
	if err != nil {
		return ProvisionReport{}, fmt.Errorf("provision: %w", err)
	}
	return ProvisionReport{
		Namespace:         r.Namespace,
		PreviousNamespace: r.Delete.Status.String(),
		Duration:          r.Duration,
	}, nil
}

// Ingest stores one record per name and waits until all stored records are
// searchable. Results are in input order; a failed name does not stop the others.
func (c *Client) Ingest(ctx context.Context, names []string) (_ []IngestResult, err error) {
	start := time.Now()
	defer func() { c.obs.observe("ingest", start, err) }()

	results, err := c.ingestSvc.Ingest(ctx, c.namespace, names)
	out := make([]IngestResult, len(results))
	for i, r := range results {
		out[i] = IngestResult{Index: r.Index(), ID: r.ID(), Name: r.Name(), Err: r.Err()}
	}
	if err != nil {
		return out, fmt.Errorf("ingest: %w", err)
	}
	return out, nil
}

// Suggest answers one query without session tracking.
func (c *Client) Suggest(ctx context.Context, raw string) (_ Suggestions, err error) {
	start := time.Now()
	defer func() { c.obs.observe("suggest", start, err) }()

	list, err := c.suggestSvc.Suggest(ctx, raw)
	if err != nil {
		return Suggestions{}, fmt.Errorf("suggest: %w", err)
	}
	return c.toSuggestions(raw, list), nil
}

// Get returns a record by id.
func (c *Client) Get(ctx context.Context, id string) (_ Record, err error) {
	start := time.Now()
	defer func() { c.obs.observe("record.get", start, err) }()

	r, err := c.recordSvc.Get(ctx, id)
	if err != nil {
		return Record{}, err
	}
	return fromInternalRecord(r), nil
}

// Add stores a single record and waits until it is searchable.
// An empty id is replaced with a random UUID.
func (c *Client) Add(ctx context.Context, id, name string) (_ Record, err error) {
	start := time.Now()
	defer func() { c.obs.observe("record.add", start, err) }()

	r, err := c.recordSvc.Create(ctx, id, name)
	if err != nil {
		return Record{}, err
	}
	return fromInternalRecord(r), nil
}

// SearchByName returns records sharing at least one trigram with name, best first.
// limit <= 0 uses the default of 10; values above 100 are capped.
func (c *Client) SearchByName(ctx context.Context, name string, limit int) (_ []Record, err error) {
	start := time.Now()
	defer func() { c.obs.observe("record.search", start, err) }()

	recs, err := c.recordSvc.SearchByName(ctx, name, limit)
	if err != nil {
		return nil, err
	}
	out := make([]Record, len(recs))
	for i, r := range recs {
		out[i] = fromInternalRecord(r)
	}
	return out, nil
}

func (c *Client) toSuggestions(raw string, list suggestion.List) Suggestions {
	if list.IsNoResults() {
		c.obs.noResults(raw)
	}
	return Suggestions{Query: raw, Names: list.Names(), NoResults: list.IsNoResults()}
}

func fromInternalRecord(r domrec.Record) Record {
	return Record{ID: r.ID(), Name: r.Name()}
}
