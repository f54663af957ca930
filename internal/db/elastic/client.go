// Package elastic implements db.Store over an Elasticsearch-compatible HTTP API.
package elastic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"github.com/kailas-cloud/fuzzysuggest/internal/db"
)

// Compile-time check: Store implements db.Store.
var _ db.Store = (*Store)(nil)

const defaultPollInterval = 100 * time.Millisecond

// Config holds connection parameters for an Elasticsearch store.
type Config struct {
	Addrs    []string
	Username string
	Password string
	// MatchField names the source field holding record names (default "name").
	MatchField string
	// PollInterval paces readiness and visibility polling (default 100ms).
	PollInterval time.Duration
	// Transport overrides the HTTP transport (tests).
	Transport http.RoundTripper
}

// Store implements db.Store via go-elasticsearch.
type Store struct {
	es           *elasticsearch.Client
	matchField   string
	pollInterval time.Duration
}

// NewStore creates an Elasticsearch store. Client-side retries are disabled:
// retry policy belongs to the caller.
func NewStore(cfg Config) (*Store, error) {
	if len(cfg.Addrs) == 0 {
		return nil, fmt.Errorf("addrs is required")
	}

	es, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses:    cfg.Addrs,
		Username:     cfg.Username,
		Password:     cfg.Password,
		Transport:    cfg.Transport,
		DisableRetry: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}

	s := &Store{es: es, matchField: cfg.MatchField, pollInterval: cfg.PollInterval}
	if s.matchField == "" {
		s.matchField = db.DefaultMatchField
	}
	if s.pollInterval <= 0 {
		s.pollInterval = defaultPollInterval
	}
	return s, nil
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	res, err := s.es.Ping(s.es.Ping.WithContext(ctx))
	if err != nil {
		return db.TransportError(db.OpPing, err)
	}
	defer drain(res)
	if res.IsError() {
		return db.StatusError(db.OpPing, res.StatusCode, "")
	}
	return nil
}

// Close releases idle connections.
func (s *Store) Close() {
	if c, ok := s.es.Transport.(interface{ CloseIdleConnections() }); ok {
		c.CloseIdleConnections()
	}
}

// WaitForReady polls Ping until the store responds or timeout expires.
func (s *Store) WaitForReady(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		if err := s.Ping(ctx); err == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("timeout waiting for catalog: %w", ctx.Err())
		case <-ticker.C:
		}
	}
}

// errorBody is the catalog's error envelope.
type errorBody struct {
	Error struct {
		Type   string `json:"type"`
		Reason string `json:"reason"`
	} `json:"error"`
}

// check closes nothing; it converts a non-2xx response into a classified db.Error.
func check(op string, res *esapi.Response) error {
	if !res.IsError() {
		return nil
	}
	var body errorBody
	reason := ""
	if raw, err := io.ReadAll(res.Body); err == nil && json.Unmarshal(raw, &body) == nil && body.Error.Type != "" {
		reason = body.Error.Type + ": " + body.Error.Reason
	}
	return db.StatusError(op, res.StatusCode, reason)
}

// decode reads a 2xx body into v; any mismatch is a DecodeError.
func decode(op string, res *esapi.Response, v any) error {
	if err := json.NewDecoder(res.Body).Decode(v); err != nil {
		return &db.DecodeError{Op: op, Err: err}
	}
	return nil
}

func drain(res *esapi.Response) {
	if res == nil || res.Body == nil {
		return
	}
	_, _ = io.Copy(io.Discard, res.Body)
	_ = res.Body.Close()
}

// transport classifies a client-side failure. Context errors pass through
// unchanged so deadlines surface as timeouts, not outages.
func transport(op string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return &db.Error{Op: op, Err: err}
	}
	return db.TransportError(op, err)
}
