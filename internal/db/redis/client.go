// Package redis implements db.Store over Redis Search (RESP) via rueidis.
//
// Layout per namespace ns:
//
//	ns:idx        FT index over hashes with prefix ns:doc:
//	ns:doc:<id>   record hash {rid, <match field>, nkey, grams}
//	ns:sug        FT.SUG completion dictionary (payload = record id)
//	ns:meta       schema hash, so queries tokenize the way writes did
package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/rueidis"

	"github.com/kailas-cloud/fuzzysuggest/internal/db"
	"github.com/kailas-cloud/fuzzysuggest/internal/domain"
)

// Compile-time check: Store implements db.Store.
var _ db.Store = (*Store)(nil)

const defaultPollInterval = 100 * time.Millisecond

// Config holds connection parameters for a Redis store.
type Config struct {
	Addrs        []string
	Username     string
	Password     string
	DB           int
	PollInterval time.Duration
}

// Store implements db.Store via rueidis for Redis 8+.
type Store struct {
	client       rueidis.Client
	schemas      sync.Map // namespace -> *db.NamespaceSchema
	newID        func() string
	pollInterval time.Duration
}

// NewStore creates a Redis store via rueidis.
func NewStore(cfg Config) (*Store, error) {
	if len(cfg.Addrs) == 0 {
		return nil, fmt.Errorf("addrs is required")
	}

	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress:  cfg.Addrs,
		Username:     cfg.Username,
		Password:     cfg.Password,
		SelectDB:     cfg.DB,
		DisableCache: true,
		AlwaysRESP2:  true, // FT.SEARCH / FT.SUGGET parsing expects RESP2 arrays
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}

	s := newStore(client)
	if cfg.PollInterval > 0 {
		s.pollInterval = cfg.PollInterval
	}
	return s, nil
}

func newStore(c rueidis.Client) *Store {
	return &Store{client: c, newID: uuid.NewString, pollInterval: defaultPollInterval}
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	cmd := s.b().Ping().Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		return classify(db.OpPing, err)
	}
	return nil
}

// Close shuts down the client.
func (s *Store) Close() {
	s.client.Close()
}

// WaitForReady polls Ping until the store responds or timeout expires.
func (s *Store) WaitForReady(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("timeout waiting for catalog: %w", ctx.Err())
		case <-ticker.C:
			if err := s.Ping(ctx); err == nil {
				return nil
			}
		}
	}
}

func (s *Store) do(ctx context.Context, cmd rueidis.Completed) rueidis.RedisResult {
	return s.client.Do(ctx, cmd)
}

func (s *Store) b() rueidis.Builder {
	return s.client.B()
}

func indexKey(ns string) string      { return ns + ":idx" }
func docPrefix(ns string) string     { return ns + ":doc:" }
func docKey(ns, id string) string    { return docPrefix(ns) + id }
func suggestionKey(ns string) string { return ns + ":sug" }
func metaKey(ns string) string       { return ns + ":meta" }

// classify maps a client error: server replies are request defects, anything
// else is the transport. Context errors pass through.
func classify(op string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return &db.Error{Op: op, Err: err}
	}
	if _, ok := rueidis.IsRedisErr(err); ok {
		return &db.Error{Op: op, Err: fmt.Errorf("%w: %w", domain.ErrMalformedQuery, err)}
	}
	return db.TransportError(op, err)
}

func isNil(err error) bool { return rueidis.IsRedisNil(err) }

// isRedisErr checks if err is a Redis server error containing substr (case-insensitive).
func isRedisErr(err error, substr string) bool {
	re, ok := rueidis.IsRedisErr(err)
	if !ok {
		return false
	}
	return strings.Contains(strings.ToLower(re.Error()), strings.ToLower(substr))
}
