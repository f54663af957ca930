package suggest

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kailas-cloud/fuzzysuggest/internal/db"
	"github.com/kailas-cloud/fuzzysuggest/internal/db/memory"
	"github.com/kailas-cloud/fuzzysuggest/internal/domain"
	"github.com/kailas-cloud/fuzzysuggest/internal/domain/query"
	"github.com/kailas-cloud/fuzzysuggest/internal/domain/record"
)

// --- Mocks ---

type searchFunc func(ctx context.Context, ns string, req *db.SearchRequest) (*db.SearchResult, error)

func (f searchFunc) Search(ctx context.Context, ns string, req *db.SearchRequest) (*db.SearchResult, error) {
	return f(ctx, ns, req)
}

func result(hits, options []string) *db.SearchResult {
	res := &db.SearchResult{}
	for _, h := range hits {
		res.Hits = append(res.Hits, db.Hit{Record: record.Reconstruct("", h), Score: 1})
	}
	for _, o := range options {
		res.Options = append(res.Options, db.Option{Record: record.Reconstruct("", o), Score: 1})
	}
	return res
}

func fixed(res *db.SearchResult, err error) (searchFunc, *atomic.Int32) {
	var calls atomic.Int32
	return func(context.Context, string, *db.SearchRequest) (*db.SearchResult, error) {
		calls.Add(1)
		return res, err
	}, &calls
}

func fastRetry() Option { return WithRetry(3, time.Millisecond, time.Millisecond) }

// --- Tests ---

func TestExecute_MergesMatchBeforeSuggest(t *testing.T) {
	store, _ := fixed(result([]string{"Rio", "Rome"}, []string{"Rome", "Rio de Janeiro", "Rio"}), nil)
	svc := New(store, "cities", query.Default())

	req := query.Default().Build("rio")
	list, err := svc.Execute(context.Background(), &req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := list.String(); got != "Rio, Rome, Rio de Janeiro" {
		t.Errorf("list = %q", got)
	}
}

func TestExecute_EmptyIsNoResults(t *testing.T) {
	store, _ := fixed(result(nil, nil), nil)
	svc := New(store, "cities", query.Default())

	list, err := svc.Suggest(context.Background(), "xyz")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !list.IsNoResults() {
		t.Errorf("list = %q, want no results", list)
	}
}

func TestSuggest_BuildsRequestFromTemplate(t *testing.T) {
	var gotNS string
	var gotReq *db.SearchRequest
	store := searchFunc(func(_ context.Context, ns string, req *db.SearchRequest) (*db.SearchResult, error) {
		gotNS, gotReq = ns, req
		return result([]string{"Rio"}, nil), nil
	})
	svc := New(store, "cities", query.Default())

	if _, err := svc.Suggest(context.Background(), "ri"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotNS != "cities" {
		t.Errorf("namespace = %q", gotNS)
	}
	if gotReq.Match.Text != "ri" || gotReq.Completion.Prefix != "ri" {
		t.Errorf("request = %+v", gotReq)
	}
	if gotReq.Match.MinimumShouldMatch.String() != "60%" || gotReq.Completion.Fuzziness != 2 {
		t.Errorf("template tunables not applied: %+v", gotReq)
	}
}

func TestExecute_RetriesTransientFailures(t *testing.T) {
	var calls atomic.Int32
	store := searchFunc(func(context.Context, string, *db.SearchRequest) (*db.SearchResult, error) {
		if calls.Add(1) < 3 {
			return nil, db.TransportError(db.OpSearch, errors.New("connection reset"))
		}
		return result([]string{"Rio"}, nil), nil
	})
	svc := New(store, "cities", query.Default(), fastRetry())

	list, err := svc.Suggest(context.Background(), "rio")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !list.Contains("Rio") || calls.Load() != 3 {
		t.Errorf("list = %q after %d calls", list, calls.Load())
	}
}

func TestExecute_GivesUpAfterMaxAttempts(t *testing.T) {
	store, calls := fixed(nil, db.StatusError(db.OpSearch, 503, "unavailable"))
	svc := New(store, "cities", query.Default(), fastRetry())

	_, err := svc.Suggest(context.Background(), "rio")
	if !errors.Is(err, domain.ErrUnavailable) {
		t.Errorf("err = %v, want ErrUnavailable", err)
	}
	if calls.Load() != 3 {
		t.Errorf("calls = %d, want 3", calls.Load())
	}
}

func TestExecute_MalformedQueryNotRetried(t *testing.T) {
	store, calls := fixed(nil, db.StatusError(db.OpSearch, 400, "parsing_exception: bad fuzziness"))
	svc := New(store, "cities", query.Default(), fastRetry())

	_, err := svc.Suggest(context.Background(), "rio")
	if !errors.Is(err, domain.ErrMalformedQuery) {
		t.Errorf("err = %v, want ErrMalformedQuery", err)
	}
	if calls.Load() != 1 {
		t.Errorf("calls = %d, want 1", calls.Load())
	}
}

func TestExecute_DecodeErrorIsNotNoResults(t *testing.T) {
	store, calls := fixed(nil, &db.DecodeError{Op: db.OpSearch, Err: errors.New("suggest entry missing")})
	svc := New(store, "cities", query.Default(), fastRetry())

	list, err := svc.Suggest(context.Background(), "rio")
	if !errors.Is(err, domain.ErrDecode) {
		t.Errorf("err = %v, want ErrDecode", err)
	}
	if list.IsNoResults() {
		t.Error("decode failure must not look like NoResults")
	}
	if calls.Load() != 1 {
		t.Errorf("calls = %d, want 1", calls.Load())
	}
}

func TestExecute_QueryTimeoutIsRetryable(t *testing.T) {
	var calls atomic.Int32
	store := searchFunc(func(ctx context.Context, _ string, _ *db.SearchRequest) (*db.SearchResult, error) {
		calls.Add(1)
		<-ctx.Done()
		return nil, db.TransportError(db.OpSearch, ctx.Err())
	})
	svc := New(store, "cities", query.Default(),
		WithQueryTimeout(5*time.Millisecond), WithRetry(2, time.Millisecond, time.Millisecond))

	_, err := svc.Suggest(context.Background(), "rio")
	if !errors.Is(err, domain.ErrQueryTimeout) {
		t.Fatalf("err = %v, want ErrQueryTimeout", err)
	}
	if !domain.IsRetryable(err) {
		t.Error("timeout must be retryable")
	}
	if calls.Load() != 2 {
		t.Errorf("calls = %d, want 2", calls.Load())
	}
}

func TestExecute_CallerDeadline(t *testing.T) {
	store := searchFunc(func(ctx context.Context, _ string, _ *db.SearchRequest) (*db.SearchResult, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})
	svc := New(store, "cities", query.Default(), WithQueryTimeout(time.Second))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
	defer cancel()
	_, err := svc.Suggest(ctx, "rio")
	if !errors.Is(err, domain.ErrQueryTimeout) {
		t.Errorf("err = %v, want ErrQueryTimeout", err)
	}
}

func TestSession_LastKeystrokeWins(t *testing.T) {
	started := make(chan struct{})
	store := searchFunc(func(ctx context.Context, _ string, req *db.SearchRequest) (*db.SearchResult, error) {
		if req.Match.Text == "ri" {
			close(started)
			<-ctx.Done()
			return nil, ctx.Err()
		}
		return result([]string{"Rio"}, nil), nil
	})
	ss := New(store, "cities", query.Default()).NewSession()

	var wg sync.WaitGroup
	var firstErr error
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, firstErr = ss.Suggest(context.Background(), "ri")
	}()
	<-started

	list, err := ss.Suggest(context.Background(), "rio")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	wg.Wait()

	if !errors.Is(firstErr, domain.ErrSuperseded) {
		t.Errorf("first err = %v, want ErrSuperseded", firstErr)
	}
	if !list.Contains("Rio") {
		t.Errorf("list = %q", list)
	}
	raw, last, ok := ss.Last()
	if !ok || raw != "rio" || !last.Contains("Rio") {
		t.Errorf("last = %q %q %v", raw, last, ok)
	}
}

func TestSession_SupersededResultNeverOverwrites(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	store := searchFunc(func(_ context.Context, _ string, req *db.SearchRequest) (*db.SearchResult, error) {
		if req.Match.Text == "ro" {
			close(started)
			<-release // ignores cancellation and answers late
			return result([]string{"Rome"}, nil), nil
		}
		return result([]string{"Rio"}, nil), nil
	})
	ss := New(store, "cities", query.Default()).NewSession()

	done := make(chan error, 1)
	go func() {
		_, err := ss.Suggest(context.Background(), "ro")
		done <- err
	}()
	<-started

	if _, err := ss.Suggest(context.Background(), "rio"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	close(release)
	if err := <-done; !errors.Is(err, domain.ErrSuperseded) {
		t.Errorf("late err = %v, want ErrSuperseded", err)
	}
	if raw, _, _ := ss.Last(); raw != "rio" {
		t.Errorf("last input = %q, late answer overwrote it", raw)
	}
}

func TestSessions_EvictIdle(t *testing.T) {
	store, _ := fixed(result([]string{"Rio"}, nil), nil)
	reg := NewSessions(New(store, "cities", query.Default()), time.Minute)
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	reg.now = func() time.Time { return now }

	if _, err := reg.Suggest(context.Background(), "a", "rio"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	reg.Get("b")
	if reg.Len() != 2 {
		t.Fatalf("len = %d", reg.Len())
	}

	now = now.Add(30 * time.Second)
	reg.Get("b")
	if n := reg.Evict(); n != 0 {
		t.Errorf("evicted %d sessions too early", n)
	}

	now = now.Add(45 * time.Second)
	if n := reg.Evict(); n != 1 {
		t.Errorf("evicted %d, want 1", n)
	}
	if reg.Len() != 1 {
		t.Errorf("len = %d, want 1", reg.Len())
	}
}

func TestSessions_EmptyIDIsStateless(t *testing.T) {
	store, _ := fixed(result([]string{"Rio"}, nil), nil)
	reg := NewSessions(New(store, "cities", query.Default()), 0)

	list, err := reg.Suggest(context.Background(), "", "rio")
	if err != nil || !list.Contains("Rio") {
		t.Fatalf("list = %q, err = %v", list, err)
	}
	if reg.Len() != 0 {
		t.Error("empty id must not register a session")
	}
}

func TestSuggest_MemoryCatalogScenarios(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	if err := store.CreateNamespace(ctx, db.NewSchema("cities").MustBuild()); err != nil {
		t.Fatalf("create: %v", err)
	}
	for _, name := range []string{"Rio", "Rome"} {
		if _, err := store.PutRecord(ctx, "cities", record.Reconstruct("", name)); err != nil {
			t.Fatalf("put: %v", err)
		}
	}
	svc := New(store, "cities", query.Default())

	tests := []struct {
		input     string
		contains  string
		noResults bool
	}{
		{input: "rio", contains: "Rio"},
		{input: "riq", contains: "Rio"},
		{input: "xyz", noResults: true},
	}
	for _, tc := range tests {
		t.Run(tc.input, func(t *testing.T) {
			list, err := svc.Suggest(ctx, tc.input)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tc.noResults {
				if !list.IsNoResults() {
					t.Errorf("list = %q, want no results", list)
				}
				return
			}
			if !list.Contains(tc.contains) {
				t.Errorf("list = %q, want it to contain %q", list, tc.contains)
			}
		})
	}
}
