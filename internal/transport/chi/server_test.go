package chi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kailas-cloud/fuzzysuggest/internal/db"
	"github.com/kailas-cloud/fuzzysuggest/internal/db/memory"
	"github.com/kailas-cloud/fuzzysuggest/internal/domain"
	"github.com/kailas-cloud/fuzzysuggest/internal/domain/query"
	domrec "github.com/kailas-cloud/fuzzysuggest/internal/domain/record"
	"github.com/kailas-cloud/fuzzysuggest/internal/domain/suggestion"
	"github.com/kailas-cloud/fuzzysuggest/internal/usecase/health"
	recorduc "github.com/kailas-cloud/fuzzysuggest/internal/usecase/record"
	"github.com/kailas-cloud/fuzzysuggest/internal/usecase/suggest"
)

// --- Mocks ---

type mockRecords struct {
	getFn     func(ctx context.Context, id string) (domrec.Record, error)
	createFn  func(ctx context.Context, id, name string) (domrec.Record, error)
	searchFn  func(ctx context.Context, name string, limit int) ([]domrec.Record, error)
	suggestFn func(ctx context.Context, sessionID, raw string) (suggestion.List, error)
}

func (m *mockRecords) Get(ctx context.Context, id string) (domrec.Record, error) {
	return m.getFn(ctx, id)
}

func (m *mockRecords) Create(ctx context.Context, id, name string) (domrec.Record, error) {
	return m.createFn(ctx, id, name)
}

func (m *mockRecords) SearchByName(ctx context.Context, name string, limit int) ([]domrec.Record, error) {
	return m.searchFn(ctx, name, limit)
}

func (m *mockRecords) Suggest(ctx context.Context, sessionID, raw string) (suggestion.List, error) {
	return m.suggestFn(ctx, sessionID, raw)
}

type mockHealth struct {
	report health.Report
}

func (m *mockHealth) Check(context.Context) health.Report { return m.report }

func newTestRouter(t *testing.T, records RecordService, keys ...string) http.Handler {
	t.Helper()
	hc := &mockHealth{report: health.Report{Status: health.Healthy, Checks: map[string]health.CheckResult{"catalog": health.CheckOK}}}
	return NewRouter(NewServer(records, hc, zap.NewNop()), RouterConfig{APIKeys: keys}, zap.NewNop())
}

func do(t *testing.T, h http.Handler, method, target, body string, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, http.NoBody)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&v))
	return v
}

// --- Tests ---

func TestGetRecord(t *testing.T) {
	h := newTestRouter(t, &mockRecords{
		getFn: func(_ context.Context, id string) (domrec.Record, error) {
			if id == "7" {
				return domrec.Reconstruct("7", "Rio"), nil
			}
			return domrec.Record{}, fmt.Errorf("get %s: %w", id, domain.ErrNotFound)
		},
	})

	rr := do(t, h, http.MethodGet, "/records/7", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, Record{ID: "7", Name: "Rio"}, decode[Record](t, rr))
	assert.NotEmpty(t, rr.Header().Get("X-Request-ID"))

	rr = do(t, h, http.MethodGet, "/records/8", "")
	require.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, ErrorCodeNotFound, decode[ErrorResponse](t, rr).Code)
}

func TestCreateRecord(t *testing.T) {
	var gotID, gotName string
	h := newTestRouter(t, &mockRecords{
		createFn: func(_ context.Context, id, name string) (domrec.Record, error) {
			gotID, gotName = id, name
			if name == "" {
				return domrec.Record{}, domain.ErrInvalidRecord
			}
			return domrec.Reconstruct("gen-1", name), nil
		},
	})

	rr := do(t, h, http.MethodPost, "/records", `{"name":"Rome"}`)
	require.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, Record{ID: "gen-1", Name: "Rome"}, decode[Record](t, rr))
	assert.Empty(t, gotID)
	assert.Equal(t, "Rome", gotName)

	rr = do(t, h, http.MethodPost, "/records", `{"id":"x","name":""}`)
	require.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, ErrorCodeValidationFailed, decode[ErrorResponse](t, rr).Code)
	assert.Equal(t, "x", gotID)

	rr = do(t, h, http.MethodPost, "/records", `{not json`)
	require.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, ErrorCodeBadRequest, decode[ErrorResponse](t, rr).Code)
}

func TestSuggestRecords(t *testing.T) {
	var gotSession, gotRaw string
	h := newTestRouter(t, &mockRecords{
		suggestFn: func(_ context.Context, sessionID, raw string) (suggestion.List, error) {
			gotSession, gotRaw = sessionID, raw
			if raw == "xyz" {
				return suggestion.NoResults(), nil
			}
			return suggestion.FromNames([]string{"Rio de Janeiro", "Rio"}), nil
		},
	})

	rr := do(t, h, http.MethodGet, "/records/suggest/rio%20de", "", SessionHeader, "s-1")
	require.Equal(t, http.StatusOK, rr.Code)
	resp := decode[SuggestResponse](t, rr)
	assert.Equal(t, "rio de", resp.Query)
	assert.Equal(t, []string{"Rio de Janeiro", "Rio"}, resp.Suggestions)
	assert.False(t, resp.NoResults)
	assert.Equal(t, "s-1", gotSession)
	assert.Equal(t, "rio de", gotRaw)

	rr = do(t, h, http.MethodGet, "/records/suggest/xyz", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"query":"xyz","suggestions":[],"no_results":true}`, rr.Body.String())
	assert.Empty(t, gotSession)
}

func TestSearchRecords(t *testing.T) {
	var gotLimit int
	h := newTestRouter(t, &mockRecords{
		searchFn: func(_ context.Context, name string, limit int) ([]domrec.Record, error) {
			gotLimit = limit
			return []domrec.Record{domrec.Reconstruct("1", name)}, nil
		},
	})

	rr := do(t, h, http.MethodGet, "/records/search/Rio?limit=5", "")
	require.Equal(t, http.StatusOK, rr.Code)
	resp := decode[RecordListResponse](t, rr)
	assert.Equal(t, 1, resp.Total)
	assert.Equal(t, []Record{{ID: "1", Name: "Rio"}}, resp.Items)
	assert.Equal(t, 5, gotLimit)

	rr = do(t, h, http.MethodGet, "/records/search/Rio", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 0, gotLimit)

	rr = do(t, h, http.MethodGet, "/records/search/Rio?limit=many", "")
	require.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, ErrorCodeBadRequest, decode[ErrorResponse](t, rr).Code)
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   ErrorCode
	}{
		{domain.ErrNotFound, http.StatusNotFound, ErrorCodeNotFound},
		{domain.ErrInvalidRecord, http.StatusBadRequest, ErrorCodeValidationFailed},
		{domain.ErrInvalidTemplate, http.StatusBadRequest, ErrorCodeValidationFailed},
		{&db.Error{Op: "search", Status: 400, Err: domain.ErrMalformedQuery}, http.StatusBadGateway, ErrorCodeMalformedQuery},
		{domain.ErrDecode, http.StatusBadGateway, ErrorCodeDecodeError},
		{domain.ErrUnavailable, http.StatusServiceUnavailable, ErrorCodeUnavailable},
		{domain.ErrQueryTimeout, http.StatusServiceUnavailable, ErrorCodeQueryTimeout},
		{domain.ErrSuperseded, http.StatusConflict, ErrorCodeSuperseded},
		{fmt.Errorf("%w: %w", domain.ErrSuperseded, domain.ErrUnavailable), http.StatusConflict, ErrorCodeSuperseded},
		{errors.New("boom"), http.StatusInternalServerError, ErrorCodeInternalError},
	}
	for _, tc := range tests {
		t.Run(tc.err.Error(), func(t *testing.T) {
			h := newTestRouter(t, &mockRecords{
				suggestFn: func(context.Context, string, string) (suggestion.List, error) {
					return suggestion.List{}, tc.err
				},
			})
			rr := do(t, h, http.MethodGet, "/records/suggest/rio", "")
			require.Equal(t, tc.status, rr.Code)
			assert.Equal(t, tc.code, decode[ErrorResponse](t, rr).Code)
		})
	}
}

func TestHealthCheck(t *testing.T) {
	hc := &mockHealth{report: health.Report{Status: health.Unhealthy, Checks: map[string]health.CheckResult{"catalog": health.CheckError}}}
	h := NewRouter(NewServer(&mockRecords{}, hc, nil), RouterConfig{APIKeys: []string{"k"}}, zap.NewNop())

	rr := do(t, h, http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusServiceUnavailable, rr.Code)
	resp := decode[HealthResponse](t, rr)
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, map[string]string{"catalog": "error"}, resp.Checks)

	hc.report = health.Report{Status: health.Degraded, Checks: map[string]health.CheckResult{"catalog": health.CheckOK, "namespace": health.CheckError}}
	rr = do(t, h, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	h := newTestRouter(t, &mockRecords{}, "secret")

	rr := do(t, h, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "# TYPE")
}

func TestRouter_RecoversPanics(t *testing.T) {
	h := newTestRouter(t, &mockRecords{
		getFn: func(context.Context, string) (domrec.Record, error) { panic("kaboom") },
	})

	rr := do(t, h, http.MethodGet, "/records/1", "")
	require.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, ErrorCodeInternalError, decode[ErrorResponse](t, rr).Code)
}

func TestRecordAPI_MemoryCatalog(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	require.NoError(t, store.CreateNamespace(ctx, db.NewSchema("cities").MustBuild()))

	sessions := suggest.NewSessions(suggest.New(store, "cities", query.Default()), time.Minute)
	records := recorduc.New(store, sessions, "cities", time.Second)
	h := newTestRouter(t, records)

	for _, name := range []string{"Rio", "Rome"} {
		rr := do(t, h, http.MethodPost, "/records", fmt.Sprintf(`{"name":%q}`, name))
		require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
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
	for _, tc := range tests {
		t.Run(tc.input, func(t *testing.T) {
			rr := do(t, h, http.MethodGet, "/records/suggest/"+tc.input, "", SessionHeader, "typist")
			require.Equal(t, http.StatusOK, rr.Code)
			resp := decode[SuggestResponse](t, rr)
			assert.Equal(t, tc.noResults, resp.NoResults)
			if tc.contains != "" {
				assert.Contains(t, resp.Suggestions, tc.contains)
			}
		})
	}

	rr := do(t, h, http.MethodGet, "/records/search/Rome", "")
	require.Equal(t, http.StatusOK, rr.Code)
	list := decode[RecordListResponse](t, rr)
	require.NotEmpty(t, list.Items)
	assert.Equal(t, "Rome", list.Items[0].Name)

	rr = do(t, h, http.MethodGet, "/records/"+list.Items[0].ID, "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "Rome", decode[Record](t, rr).Name)
}
