package fuzzysuggest

import (
	"context"
	"fmt"
	"time"
)

// Session serializes the queries of one typing user: starting a query cancels
// the previous one, and a superseded query returns ErrSuperseded instead of
// its result. A Session is safe for concurrent use.
type Session struct {
	client *Client
	inner  sessionUseCase
}

// NewSession starts a typing session.
func (c *Client) NewSession() *Session {
	return &Session{client: c, inner: c.newSession()}
}

// Suggest answers raw as the session's newest query.
func (s *Session) Suggest(ctx context.Context, raw string) (_ Suggestions, err error) {
	start := time.Now()
	defer func() { s.client.obs.observe("session.suggest", start, err) }()

	list, err := s.inner.Suggest(ctx, raw)
	if err != nil {
		return Suggestions{}, fmt.Errorf("suggest: %w", err)
	}
	return s.client.toSuggestions(raw, list), nil
}

// Close cancels the in-flight query, if any.
func (s *Session) Close() { s.inner.Close() }
