package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/fuzzysuggest/internal/domain"
	domrec "github.com/kailas-cloud/fuzzysuggest/internal/domain/record"
	"github.com/kailas-cloud/fuzzysuggest/internal/domain/suggestion"
	logpkg "github.com/kailas-cloud/fuzzysuggest/internal/logger"
	"github.com/kailas-cloud/fuzzysuggest/internal/usecase/health"
)

// maxBodySize caps request bodies; records are short.
const maxBodySize = 64 << 10

// RecordService is the record use case consumed by the handlers.
type RecordService interface {
	Get(ctx context.Context, id string) (domrec.Record, error)
	Create(ctx context.Context, id, name string) (domrec.Record, error)
	SearchByName(ctx context.Context, name string, limit int) ([]domrec.Record, error)
	Suggest(ctx context.Context, sessionID, raw string) (suggestion.List, error)
}

// HealthChecker reports component health.
type HealthChecker interface {
	Check(ctx context.Context) health.Report
}

// Server implements ServerInterface.
type Server struct {
	records RecordService
	health  HealthChecker
	metrics http.Handler
	logger  *zap.Logger
}

var _ ServerInterface = (*Server)(nil)

// NewServer creates a Server.
func NewServer(records RecordService, healthSvc HealthChecker, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		records: records,
		health:  healthSvc,
		metrics: promhttp.Handler(),
		logger:  logger,
	}
}

// GetRecord returns one record by id.
func (s *Server) GetRecord(w http.ResponseWriter, r *http.Request, id string) {
	rec, err := s.records.Get(r.Context(), id)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, recordToAPI(rec))
}

// CreateRecord stores a record and returns it with its final id.
func (s *Server) CreateRecord(w http.ResponseWriter, r *http.Request) {
	var body CreateRecordRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize)).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "invalid JSON body")
		return
	}

	rec, err := s.records.Create(r.Context(), body.ID, body.Name)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, recordToAPI(rec))
}

// SuggestRecords runs the autocomplete query for one keystroke.
func (s *Server) SuggestRecords(w http.ResponseWriter, r *http.Request, query string, params SuggestRecordsParams) {
	var sessionID string
	if params.SessionID != nil {
		sessionID = *params.SessionID
	}

	list, err := s.records.Suggest(r.Context(), sessionID, query)
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	names := list.Names()
	if names == nil {
		names = []string{}
	}
	writeJSON(w, http.StatusOK, SuggestResponse{
		Query:       query,
		Suggestions: names,
		NoResults:   list.IsNoResults(),
	})
}

// SearchRecords returns records sharing trigrams with name.
func (s *Server) SearchRecords(w http.ResponseWriter, r *http.Request, name string, params SearchRecordsParams) {
	limit := 0
	if params.Limit != nil {
		limit = *params.Limit
	}

	recs, err := s.records.SearchByName(r.Context(), name, limit)
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	items := make([]Record, 0, len(recs))
	for _, rec := range recs {
		items = append(items, recordToAPI(rec))
	}
	writeJSON(w, http.StatusOK, RecordListResponse{Items: items, Total: len(items)})
}

// HealthCheck reports catalog and namespace health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	status := http.StatusOK
	if report.Status == health.Unhealthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, HealthResponse{Status: string(report.Status), Checks: checks})
}

// Metrics serves the Prometheus registry.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	s.metrics.ServeHTTP(w, r)
}

func (s *Server) handleError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := classify(err)
	log := logpkg.FromContextOr(r.Context(), s.logger)
	if status >= http.StatusInternalServerError {
		log.Error("Request failed", zap.String("code", string(code)), zap.Error(err))
	} else {
		log.Debug("Request rejected", zap.String("code", string(code)), zap.Error(err))
	}
	msg := err.Error()
	if code == ErrorCodeInternalError {
		msg = "internal error"
	}
	writeError(w, status, code, msg)
}

// classify maps domain errors to an HTTP status and error code.
// Superseded is checked first: a cancelled query may also wrap a transport error.
func classify(err error) (int, ErrorCode) {
	switch {
	case errors.Is(err, domain.ErrSuperseded):
		return http.StatusConflict, ErrorCodeSuperseded
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, ErrorCodeNotFound
	case errors.Is(err, domain.ErrInvalidRecord),
		errors.Is(err, domain.ErrInvalidTemplate),
		errors.Is(err, domain.ErrInvalidPolicy):
		return http.StatusBadRequest, ErrorCodeValidationFailed
	case errors.Is(err, domain.ErrMalformedQuery):
		return http.StatusBadGateway, ErrorCodeMalformedQuery
	case errors.Is(err, domain.ErrDecode):
		return http.StatusBadGateway, ErrorCodeDecodeError
	case errors.Is(err, domain.ErrQueryTimeout):
		return http.StatusServiceUnavailable, ErrorCodeQueryTimeout
	case errors.Is(err, domain.ErrUnavailable):
		return http.StatusServiceUnavailable, ErrorCodeUnavailable
	case errors.Is(err, domain.ErrNotVisible):
		return http.StatusServiceUnavailable, ErrorCodeNotVisible
	default:
		return http.StatusInternalServerError, ErrorCodeInternalError
	}
}

func recordToAPI(r domrec.Record) Record {
	return Record{ID: r.ID(), Name: r.Name()}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{Code: code, Message: message})
}
