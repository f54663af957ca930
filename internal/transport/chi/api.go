package chi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
)

// SessionHeader carries the client session id for last-keystroke-wins suggest.
const SessionHeader = "X-Session-ID"

// ErrorCode is a machine-readable error kind.
type ErrorCode string

// Error codes.
const (
	ErrorCodeBadRequest       ErrorCode = "bad_request"
	ErrorCodeValidationFailed ErrorCode = "validation_failed"
	ErrorCodeNotFound         ErrorCode = "not_found"
	ErrorCodeSuperseded       ErrorCode = "superseded"
	ErrorCodeMalformedQuery   ErrorCode = "malformed_query"
	ErrorCodeDecodeError      ErrorCode = "decode_error"
	ErrorCodeUnavailable      ErrorCode = "catalog_unavailable"
	ErrorCodeQueryTimeout     ErrorCode = "query_timeout"
	ErrorCodeNotVisible       ErrorCode = "not_visible"
	ErrorCodeUnauthorized     ErrorCode = "unauthorized"
	ErrorCodeInternalError    ErrorCode = "internal_error"
)

// ErrorResponse is the body of every error reply.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// Record is the wire form of a record.
type Record struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// CreateRecordRequest is the body of POST /records.
type CreateRecordRequest struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name"`
}

// RecordListResponse is the body of GET /records/search/{name}.
type RecordListResponse struct {
	Items []Record `json:"items"`
	Total int      `json:"total"`
}

// SuggestResponse is the body of GET /records/suggest/{query}.
type SuggestResponse struct {
	Query       string   `json:"query"`
	Suggestions []string `json:"suggestions"`
	NoResults   bool     `json:"no_results"`
}

// HealthResponse is the body of GET /healthz.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// SearchRecordsParams are the query parameters of GET /records/search/{name}.
type SearchRecordsParams struct {
	Limit *int `json:"limit,omitempty"`
}

// SuggestRecordsParams are the header parameters of GET /records/suggest/{query}.
type SuggestRecordsParams struct {
	SessionID *string
}

// ServerInterface is implemented by the HTTP handlers.
type ServerInterface interface {
	// GetRecord handles GET /records/{id}.
	GetRecord(w http.ResponseWriter, r *http.Request, id string)
	// CreateRecord handles POST /records.
	CreateRecord(w http.ResponseWriter, r *http.Request)
	// SuggestRecords handles GET /records/suggest/{query}.
	SuggestRecords(w http.ResponseWriter, r *http.Request, query string, params SuggestRecordsParams)
	// SearchRecords handles GET /records/search/{name}.
	SearchRecords(w http.ResponseWriter, r *http.Request, name string, params SearchRecordsParams)
	// HealthCheck handles GET /healthz.
	HealthCheck(w http.ResponseWriter, r *http.Request)
	// Metrics handles GET /metrics.
	Metrics(w http.ResponseWriter, r *http.Request)
}

// ServerInterfaceWrapper binds path, query and header parameters before
// calling the handler.
type ServerInterfaceWrapper struct {
	Handler          ServerInterface
	ErrorHandlerFunc func(w http.ResponseWriter, r *http.Request, err error)
}

// GetRecord binds {id}.
func (siw *ServerInterfaceWrapper) GetRecord(w http.ResponseWriter, r *http.Request) {
	var id string
	err := runtime.BindStyledParameterWithOptions("simple", "id", chi.URLParam(r, "id"), &id,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		siw.ErrorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: "id", Err: err})
		return
	}
	siw.Handler.GetRecord(w, r, id)
}

// CreateRecord has no parameters.
func (siw *ServerInterfaceWrapper) CreateRecord(w http.ResponseWriter, r *http.Request) {
	siw.Handler.CreateRecord(w, r)
}

// SuggestRecords binds {query} and the session header.
func (siw *ServerInterfaceWrapper) SuggestRecords(w http.ResponseWriter, r *http.Request) {
	var query string
	err := runtime.BindStyledParameterWithOptions("simple", "query", chi.URLParam(r, "query"), &query,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		siw.ErrorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: "query", Err: err})
		return
	}

	var params SuggestRecordsParams
	if values := r.Header.Values(SessionHeader); len(values) == 1 {
		var session string
		err = runtime.BindStyledParameterWithOptions("simple", SessionHeader, values[0], &session,
			runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationHeader, Explode: false, Required: false})
		if err != nil {
			siw.ErrorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: SessionHeader, Err: err})
			return
		}
		params.SessionID = &session
	} else if len(values) > 1 {
		siw.ErrorHandlerFunc(w, r, &TooManyValuesForParamError{ParamName: SessionHeader, Count: len(values)})
		return
	}

	siw.Handler.SuggestRecords(w, r, query, params)
}

// SearchRecords binds {name} and ?limit.
func (siw *ServerInterfaceWrapper) SearchRecords(w http.ResponseWriter, r *http.Request) {
	var name string
	err := runtime.BindStyledParameterWithOptions("simple", "name", chi.URLParam(r, "name"), &name,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		siw.ErrorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: "name", Err: err})
		return
	}

	var params SearchRecordsParams
	if err := runtime.BindQueryParameter("form", true, false, "limit", r.URL.Query(), &params.Limit); err != nil {
		siw.ErrorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: "limit", Err: err})
		return
	}

	siw.Handler.SearchRecords(w, r, name, params)
}

// HealthCheck has no parameters.
func (siw *ServerInterfaceWrapper) HealthCheck(w http.ResponseWriter, r *http.Request) {
	siw.Handler.HealthCheck(w, r)
}

// Metrics has no parameters.
func (siw *ServerInterfaceWrapper) Metrics(w http.ResponseWriter, r *http.Request) {
	siw.Handler.Metrics(w, r)
}

// InvalidParamFormatError reports a parameter that failed to bind.
type InvalidParamFormatError struct {
	ParamName string
	Err       error
}

func (e *InvalidParamFormatError) Error() string {
	return "invalid format for parameter " + e.ParamName + ": " + e.Err.Error()
}

func (e *InvalidParamFormatError) Unwrap() error { return e.Err }

// TooManyValuesForParamError reports a repeated single-valued parameter.
type TooManyValuesForParamError struct {
	ParamName string
	Count     int
}

func (e *TooManyValuesForParamError) Error() string {
	return "expected one value for " + e.ParamName
}

// ChiServerOptions configures HandlerWithOptions.
type ChiServerOptions struct {
	BaseRouter       chi.Router
	ErrorHandlerFunc func(w http.ResponseWriter, r *http.Request, err error)
}

// HandlerWithOptions mounts si on the base router (a new one when nil).
func HandlerWithOptions(si ServerInterface, options ChiServerOptions) http.Handler {
	r := options.BaseRouter
	if r == nil {
		r = chi.NewRouter()
	}
	if options.ErrorHandlerFunc == nil {
		options.ErrorHandlerFunc = func(w http.ResponseWriter, _ *http.Request, err error) {
			writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, err.Error())
		}
	}
	wrapper := ServerInterfaceWrapper{Handler: si, ErrorHandlerFunc: options.ErrorHandlerFunc}

	r.Group(func(r chi.Router) {
		r.Post("/records", wrapper.CreateRecord)
		r.Get("/records/suggest/{query}", wrapper.SuggestRecords)
		r.Get("/records/search/{name}", wrapper.SearchRecords)
		r.Get("/records/{id}", wrapper.GetRecord)
		r.Get("/healthz", wrapper.HealthCheck)
		r.Get("/metrics", wrapper.Metrics)
	})
	return r
}
