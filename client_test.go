package fuzzysuggest

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kailas-cloud/fuzzysuggest/internal/db"
	"github.com/kailas-cloud/fuzzysuggest/internal/domain"
	"github.com/kailas-cloud/fuzzysuggest/internal/domain/analysis"
	"github.com/kailas-cloud/fuzzysuggest/internal/domain/batch"
	"github.com/kailas-cloud/fuzzysuggest/internal/domain/suggestion"
	"github.com/kailas-cloud/fuzzysuggest/internal/usecase/provision"
)

// --- Mocks ---

type mockProvision struct {
	installFn func(ctx context.Context, schema *db.NamespaceSchema) (provision.Report, error)
}

func (m *mockProvision) Install(ctx context.Context, schema *db.NamespaceSchema) (provision.Report, error) {
	return m.installFn(ctx, schema)
}

type mockIngest struct {
	ingestFn func(ctx context.Context, ns string, names []string) ([]batch.Result, error)
	released bool
}

func (m *mockIngest) Ingest(ctx context.Context, ns string, names []string) ([]batch.Result, error) {
	return m.ingestFn(ctx, ns, names)
}

func (m *mockIngest) Release() { m.released = true }

type mockSuggest struct {
	suggestFn func(ctx context.Context, raw string) (suggestion.List, error)
	closed    bool
}

func (m *mockSuggest) Suggest(ctx context.Context, raw string) (suggestion.List, error) {
	return m.suggestFn(ctx, raw)
}

func (m *mockSuggest) Close() { m.closed = true }

// --- Tests ---

func TestNew_NoCatalog(t *testing.T) {
	_, err := New(context.Background())
	if err == nil || !strings.Contains(err.Error(), "catalog required") {
		t.Fatalf("got %v, want catalog required", err)
	}
}

func TestNew_InvalidPolicy(t *testing.T) {
	_, err := New(context.Background(), WithMemory(), WithMinimumShouldMatch("most"))
	if !errors.Is(err, ErrInvalidPolicy) {
		t.Fatalf("got %v, want ErrInvalidPolicy", err)
	}
}

func TestNew_InvalidFuzziness(t *testing.T) {
	_, err := New(context.Background(), WithMemory(), WithFuzziness(5))
	if !errors.Is(err, ErrInvalidTemplate) {
		t.Fatalf("got %v, want ErrInvalidTemplate", err)
	}
}

func TestCreateStore_UnknownDriver(t *testing.T) {
	cfg := &clientConfig{driver: "unknown", addrs: []string{"localhost:1234"}}
	if _, err := createStore(cfg); err == nil {
		t.Fatal("expected error for unknown driver")
	}
}

func TestCreateStore_ElasticNeedsAddrs(t *testing.T) {
	cfg := &clientConfig{driver: "elastic"}
	if _, err := createStore(cfg); err == nil {
		t.Fatal("expected error without addrs")
	}
}

func TestOptions(t *testing.T) {
	cfg := defaultConfig()
	WithElastic([]string{"http://a:9200", "http://b:9200"}, "elastic", "pw").apply(cfg)
	if cfg.driver != "elastic" || len(cfg.addrs) != 2 || cfg.username != "elastic" || cfg.password != "pw" {
		t.Errorf("elastic options = %+v", cfg)
	}

	WithRedis("localhost:6379", "secret").apply(cfg)
	if cfg.driver != "redis" || cfg.addrs[0] != "localhost:6379" || cfg.password != "secret" {
		t.Errorf("redis options = %+v", cfg)
	}

	WithMemory().apply(cfg)
	if cfg.driver != "memory" || cfg.addrs != nil {
		t.Errorf("memory options = %+v", cfg)
	}

	WithNamespace("streets").apply(cfg)
	WithAlphanumeric().apply(cfg)
	WithMinimumShouldMatch("2<-25%").apply(cfg)
	WithFuzziness(1).apply(cfg)
	WithSize(3).apply(cfg)
	WithQueryTimeout(time.Second).apply(cfg)
	WithRetry(5, time.Millisecond, time.Second).apply(cfg)
	WithIngestConcurrency(2).apply(cfg)
	WithVisibilityTimeout(time.Minute).apply(cfg)
	if cfg.namespace != "streets" || cfg.analysis.CharClass != analysis.CharClassAlnum {
		t.Errorf("schema options = %+v", cfg)
	}
	if cfg.msm != "2<-25%" || cfg.fuzziness != 1 || cfg.size != 3 {
		t.Errorf("query options = %+v", cfg)
	}
	if cfg.queryTimeout != time.Second || cfg.retryAttempts != 5 || cfg.retryMax != time.Second {
		t.Errorf("suggest options = %+v", cfg)
	}
	if cfg.ingestConcurrency != 2 || cfg.visibilityTimeout != time.Minute {
		t.Errorf("ingest options = %+v", cfg)
	}

	logger := slog.Default()
	WithLogger(logger).apply(cfg)
	if cfg.logger != logger {
		t.Error("expected logger to be set")
	}
	reg := prometheus.NewRegistry()
	WithPrometheus(reg).apply(cfg)
	if cfg.metricsReg != reg {
		t.Error("expected metricsReg to be set")
	}
}

func TestClient_Close_NilDeps(t *testing.T) {
	c := &Client{}
	c.Close()
}

func TestClient_Provision(t *testing.T) {
	schema := db.NewSchema("cities").MustBuild()
	c := &Client{
		schema: schema,
		provisionSvc: &mockProvision{installFn: func(_ context.Context, s *db.NamespaceSchema) (provision.Report, error) {
			if s != schema {
				t.Error("schema not passed through")
			}
			return provision.Report{Namespace: "cities", Delete: db.Absent(), Duration: time.Millisecond}, nil
		}},
	}

	rep, err := c.Provision(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rep.Namespace != "cities" || rep.PreviousNamespace != "absent" {
		t.Errorf("report = %+v", rep)
	}
}

func TestClient_Ingest_KeepsPartialResults(t *testing.T) {
	c := &Client{
		namespace: "cities",
		ingestSvc: &mockIngest{ingestFn: func(_ context.Context, ns string, names []string) ([]batch.Result, error) {
			if ns != "cities" {
				t.Errorf("ns = %q", ns)
			}
			return []batch.Result{
				batch.NewOK(0, "id-0", names[0]),
				batch.NewError(1, "", names[1], domain.ErrInvalidRecord),
			}, domain.ErrNotVisible
		}},
	}

	results, err := c.Ingest(context.Background(), []string{"Rio", ""})
	if !errors.Is(err, ErrNotVisible) {
		t.Fatalf("got %v, want ErrNotVisible", err)
	}
	if len(results) != 2 || !results[0].OK() || results[0].ID != "id-0" {
		t.Fatalf("results = %+v", results)
	}
	if results[1].OK() || !errors.Is(results[1].Err, ErrInvalidRecord) {
		t.Errorf("second result = %+v", results[1])
	}
}

func TestClient_Suggest(t *testing.T) {
	c := &Client{suggestSvc: &mockSuggest{suggestFn: func(_ context.Context, raw string) (suggestion.List, error) {
		switch raw {
		case "rio":
			return suggestion.FromNames([]string{"Rio", "Rio de Janeiro"}), nil
		case "boom":
			return suggestion.List{}, domain.ErrUnavailable
		default:
			return suggestion.NoResults(), nil
		}
	}}}

	res, err := c.Suggest(context.Background(), "rio")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.NoResults || len(res.Names) != 2 || res.Query != "rio" {
		t.Errorf("res = %+v", res)
	}

	res, err = c.Suggest(context.Background(), "xyz")
	if err != nil || !res.NoResults || len(res.Names) != 0 {
		t.Errorf("res = %+v, err = %v", res, err)
	}

	_, err = c.Suggest(context.Background(), "boom")
	if !errors.Is(err, ErrUnavailable) || !IsRetryable(err) {
		t.Errorf("got %v, want retryable ErrUnavailable", err)
	}
}

func TestSession_DelegatesAndCloses(t *testing.T) {
	inner := &mockSuggest{suggestFn: func(context.Context, string) (suggestion.List, error) {
		return suggestion.List{}, domain.ErrSuperseded
	}}
	c := &Client{newSession: func() sessionUseCase { return inner }}

	s := c.NewSession()
	if _, err := s.Suggest(context.Background(), "ri"); !errors.Is(err, ErrSuperseded) {
		t.Errorf("got %v, want ErrSuperseded", err)
	}
	s.Close()
	if !inner.closed {
		t.Error("Close not forwarded")
	}
}

func TestClient_MemoryCatalog(t *testing.T) {
	ctx := context.Background()
	c, err := New(ctx, WithMemory(), WithNamespace("towns"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer c.Close()

	if _, err := c.Provision(ctx); err != nil {
		t.Fatalf("Provision: %v", err)
	}
	results, err := c.Ingest(ctx, []string{"Rio", "Rome"})
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	for _, r := range results {
		if !r.OK() {
			t.Fatalf("ingest %q: %v", r.Name, r.Err)
		}
	}

	tests := []struct {
		input     string
		contains  string
		noResults bool
	}{
		{input: "rio", contains: "Rio"},
		{input: "riq", contains: "Rio"},
		{input: "xyz", noResults: true},
	}
	s := c.NewSession()
	defer s.Close()
	for _, tc := range tests {
		t.Run(tc.input, func(t *testing.T) {
			res, err := s.Suggest(ctx, tc.input)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if res.NoResults != tc.noResults {
				t.Errorf("NoResults = %v, want %v", res.NoResults, tc.noResults)
			}
			if tc.contains != "" && !slices.Contains(res.Names, tc.contains) {
				t.Errorf("names = %q, want %q", res.Names, tc.contains)
			}
		})
	}

	rec, err := c.Add(ctx, "42", "Oslo")
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	got, err := c.Get(ctx, rec.ID)
	if err != nil || got.Name != "Oslo" {
		t.Fatalf("Get = %+v, %v", got, err)
	}
	if _, err := c.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound", err)
	}

	found, err := c.SearchByName(ctx, "Rome", 0)
	if err != nil || len(found) == 0 || found[0].Name != "Rome" {
		t.Errorf("SearchByName = %+v, %v", found, err)
	}

	if h := c.Health(ctx); h.Status != "ok" {
		t.Errorf("health = %+v", h)
	}
}

func TestObserver_NilSafe(t *testing.T) {
	var obs *observer
	obs.observe("test", time.Now(), nil)
	obs.observe("test", time.Now(), errors.New("err"))
	obs.noResults("xyz")
}

func TestObserver_WithPrometheus(t *testing.T) {
	reg := prometheus.NewRegistry()
	obs, err := newObserver("cities", nil, reg)
	if err != nil {
		t.Fatalf("newObserver: %v", err)
	}

	obs.observe("suggest", time.Now().Add(-10*time.Millisecond), nil)
	obs.observe("suggest", time.Now(), errors.New("fail"))
	obs.noResults("xyz")

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	counts := map[string]int{}
	for _, f := range families {
		counts[f.GetName()] = len(f.GetMetric())
	}
	if counts["fuzzysuggest_sdk_operations_total"] != 2 {
		t.Errorf("operations samples = %d, want 2", counts["fuzzysuggest_sdk_operations_total"])
	}
	if counts["fuzzysuggest_sdk_no_results_total"] != 1 {
		t.Errorf("no_results samples = %d, want 1", counts["fuzzysuggest_sdk_no_results_total"])
	}
}

func TestObserver_ReusesRegisteredMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	if _, err := newObserver("a", nil, reg); err != nil {
		t.Fatal(err)
	}
	if _, err := newObserver("b", nil, reg); err != nil {
		t.Fatalf("second observer: %v", err)
	}
}

func TestObserver_WithLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	obs, err := newObserver("cities", logger, nil)
	if err != nil {
		t.Fatalf("newObserver: %v", err)
	}
	obs.observe("suggest", time.Now(), errors.New("test error"))

	out := buf.String()
	if !strings.Contains(out, "operation failed") || !strings.Contains(out, "namespace=cities") {
		t.Errorf("log = %q", out)
	}
}
