package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/fuzzysuggest/internal/config"
	"github.com/kailas-cloud/fuzzysuggest/internal/db"
	"github.com/kailas-cloud/fuzzysuggest/internal/db/elastic"
	"github.com/kailas-cloud/fuzzysuggest/internal/db/memory"
	dbRedis "github.com/kailas-cloud/fuzzysuggest/internal/db/redis"
	"github.com/kailas-cloud/fuzzysuggest/internal/domain/analysis"
	"github.com/kailas-cloud/fuzzysuggest/internal/domain/msm"
	"github.com/kailas-cloud/fuzzysuggest/internal/domain/query"
	logpkg "github.com/kailas-cloud/fuzzysuggest/internal/logger"
	"github.com/kailas-cloud/fuzzysuggest/internal/metrics"
	"github.com/kailas-cloud/fuzzysuggest/internal/usecase/ingest"
	"github.com/kailas-cloud/fuzzysuggest/internal/usecase/provision"
	"github.com/kailas-cloud/fuzzysuggest/internal/usecase/suggest"
)

// app holds what every command needs: config, logger, an open catalog store,
// the namespace schema and the query template derived from config.
type app struct {
	env    string
	cfg    config.Config
	logger *zap.Logger
	store  db.Store
	schema *db.NamespaceSchema
	tmpl   query.Template
}

func newApp(ctx context.Context, g *globalFlags) (*app, error) {
	env := g.env
	if env == "" {
		env = config.GetEnv()
	}

	cfg, err := loadConfig(env, g)
	if err != nil {
		return nil, err
	}

	level := cfg.Logging.Level
	if g.logLevel != "" {
		level = g.logLevel
	}
	logger, err := logpkg.New(logpkg.Options{Env: env, Level: level, Driver: cfg.Catalog.Driver})
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	schema, err := buildSchema(cfg)
	if err != nil {
		return nil, err
	}
	tmpl, err := buildTemplate(cfg, schema)
	if err != nil {
		return nil, err
	}

	metrics.Register()

	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	return &app{env: env, cfg: cfg, logger: logger, store: store, schema: schema, tmpl: tmpl}, nil
}

func (a *app) close() {
	a.store.Close()
	_ = a.logger.Sync()
}

func (a *app) namespace() string { return a.cfg.Catalog.Namespace }

func (a *app) provisioner() *provision.Service {
	return provision.New(a.store, a.logger).
		WithReadyTimeout(time.Duration(a.cfg.Catalog.ReadinessTimeout) * time.Second)
}

func (a *app) ingestor() (*ingest.Service, error) {
	return ingest.New(a.store,
		ingest.WithConcurrency(a.cfg.Ingest.Concurrency),
		ingest.WithVisibilityTimeout(time.Duration(a.cfg.Ingest.VisibilityTimeoutSec)*time.Second),
		ingest.WithLogger(a.logger),
	)
}

func (a *app) suggester() *suggest.Service {
	sc := a.cfg.Suggest
	return suggest.New(a.store, a.namespace(), a.tmpl,
		suggest.WithQueryTimeout(time.Duration(sc.QueryTimeoutMs)*time.Millisecond),
		suggest.WithRetry(sc.RetryAttempts,
			time.Duration(sc.RetryInitialMs)*time.Millisecond,
			time.Duration(sc.RetryMaxMs)*time.Millisecond),
		suggest.WithLogger(a.logger),
	)
}

func loadConfig(env string, g *globalFlags) (config.Config, error) {
	var (
		cfg config.Config
		err error
	)
	if g.configPath != "" {
		cfg, err = config.LoadFile(g.configPath)
	} else {
		cfg, err = config.Load(env)
	}
	if err != nil {
		return config.Config{}, fmt.Errorf("failed to load config: %w", err)
	}

	if g.driver != "" || g.namespace != "" {
		if g.driver != "" {
			cfg.Catalog.Driver = g.driver
		}
		if g.namespace != "" {
			cfg.Catalog.Namespace = g.namespace
		}
		if err := cfg.Validate(); err != nil {
			return config.Config{}, fmt.Errorf("invalid config: %w", err)
		}
	}
	return cfg, nil
}

// buildSchema derives the namespace schema from the catalog and analysis sections.
func buildSchema(cfg config.Config) (*db.NamespaceSchema, error) {
	schema, err := db.NewSchema(cfg.Catalog.Namespace).
		MatchField(cfg.Catalog.MatchField).
		CompletionField(cfg.Catalog.CompletionField).
		Analysis(analysis.Options{
			Strategy:  analysis.Strategy(cfg.Analysis.Strategy),
			CharClass: analysis.CharClass(cfg.Analysis.CharClass),
			Lowercase: *cfg.Analysis.Lowercase,
		}).
		Build()
	if err != nil {
		return nil, fmt.Errorf("invalid schema: %w", err)
	}
	return schema, nil
}

// buildTemplate reads query.template_file when set, otherwise builds the
// template from the query section and the schema's field names.
func buildTemplate(cfg config.Config, schema *db.NamespaceSchema) (query.Template, error) {
	if path := cfg.Query.TemplateFile; path != "" {
		data, err := os.ReadFile(filepath.Clean(path))
		if err != nil {
			return query.Template{}, fmt.Errorf("failed to read template %s: %w", path, err)
		}
		tmpl, err := query.ParseTemplate(data)
		if err != nil {
			return query.Template{}, fmt.Errorf("template %s: %w", path, err)
		}
		return tmpl, nil
	}

	policy, err := msm.Parse(cfg.Query.MinimumShouldMatch)
	if err != nil {
		return query.Template{}, err
	}
	return query.NewTemplate(query.Options{
		Field:              schema.MatchField,
		MinimumShouldMatch: policy,
		SuggestName:        cfg.Query.SuggestName,
		CompletionField:    schema.CompletionPath(),
		Fuzziness:          *cfg.Query.Fuzziness,
		Size:               cfg.Query.Size,
		SkipDuplicates:     true,
	})
}

// openStore connects the configured driver and waits for it to answer.
func openStore(ctx context.Context, cfg config.Config, logger *zap.Logger) (db.Store, error) {
	cc := cfg.Catalog

	var (
		store db.Store
		err   error
	)
	switch cc.Driver {
	case config.DriverElastic:
		store, err = elastic.NewStore(elastic.Config{
			Addrs:      cc.Addrs,
			Username:   cc.Username,
			Password:   cc.Password,
			MatchField: cc.MatchField,
		})
	case config.DriverRedis:
		store, err = dbRedis.NewStore(dbRedis.Config{
			Addrs:    cc.Addrs,
			Username: cc.Username,
			Password: cc.Password,
		})
	case config.DriverMemory:
		store = memory.NewStore()
	default:
		return nil, fmt.Errorf("unsupported catalog driver: %s", cc.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create %s store: %w", cc.Driver, err)
	}

	logger.Info("Waiting for catalog readiness",
		zap.String("driver", cc.Driver),
		zap.Strings("addrs", cc.Addrs),
	)
	if err := store.WaitForReady(ctx, time.Duration(cc.ReadinessTimeout)*time.Second); err != nil {
		store.Close()
		return nil, fmt.Errorf("catalog not ready: %w", err)
	}
	return store, nil
}
