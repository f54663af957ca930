package suggest

import (
	"context"
	"sync"
	"time"

	"github.com/kailas-cloud/fuzzysuggest/internal/domain"
	"github.com/kailas-cloud/fuzzysuggest/internal/domain/suggestion"
)

// DefaultSessionIdleTTL is how long an unused session stays registered.
const DefaultSessionIdleTTL = 5 * time.Minute

// Session serializes the keystrokes of one user: the last keystroke wins.
// Starting a Suggest cancels the one in flight, which then returns
// domain.ErrSuperseded and never replaces the session's last result.
type Session struct {
	svc *Service
	now func() time.Time

	mu       sync.Mutex
	seq      uint64
	cancel   context.CancelCauseFunc
	lastUsed time.Time
	lastRaw  string
	last     suggestion.List
	hasLast  bool
}

// NewSession creates a session bound to svc.
func (s *Service) NewSession() *Session {
	return &Session{svc: s, now: time.Now, lastUsed: time.Now()}
}

// Suggest runs raw as the session's newest query.
func (ss *Session) Suggest(ctx context.Context, raw string) (suggestion.List, error) {
	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	ss.mu.Lock()
	if ss.cancel != nil {
		ss.cancel(domain.ErrSuperseded)
	}
	ss.seq++
	seq := ss.seq
	ss.cancel = cancel
	ss.lastUsed = ss.now()
	ss.mu.Unlock()

	list, err := ss.svc.Suggest(ctx, raw)

	ss.mu.Lock()
	defer ss.mu.Unlock()
	if ss.seq != seq {
		return suggestion.List{}, domain.ErrSuperseded
	}
	ss.cancel = nil
	if err != nil {
		return suggestion.List{}, err
	}
	ss.lastRaw, ss.last, ss.hasLast = raw, list, true
	return list, nil
}

// Last returns the input and result of the newest completed query.
func (ss *Session) Last() (string, suggestion.List, bool) {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	return ss.lastRaw, ss.last, ss.hasLast
}

// Close cancels the in-flight query, if any.
func (ss *Session) Close() {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	if ss.cancel != nil {
		ss.cancel(domain.ErrSuperseded)
		ss.cancel = nil
	}
}

func (ss *Session) touch() {
	ss.mu.Lock()
	ss.lastUsed = ss.now()
	ss.mu.Unlock()
}

func (ss *Session) idleSince() time.Time {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	if ss.cancel != nil {
		return ss.now()
	}
	return ss.lastUsed
}

// Sessions is a registry of sessions keyed by client-supplied id.
type Sessions struct {
	svc     *Service
	idleTTL time.Duration
	now     func() time.Time

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewSessions creates a registry. Sessions unused for idleTTL are evicted.
func NewSessions(svc *Service, idleTTL time.Duration) *Sessions {
	if idleTTL <= 0 {
		idleTTL = DefaultSessionIdleTTL
	}
	return &Sessions{svc: svc, idleTTL: idleTTL, now: time.Now, sessions: make(map[string]*Session)}
}

// Get returns the session for id, creating it on first use. It counts as activity.
func (r *Sessions) Get(id string) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	ss, ok := r.sessions[id]
	if !ok {
		ss = r.svc.NewSession()
		ss.now = r.now
		r.sessions[id] = ss
	}
	ss.touch()
	return ss
}

// Suggest runs raw in the session identified by id. An empty id runs a
// stateless query.
func (r *Sessions) Suggest(ctx context.Context, id, raw string) (suggestion.List, error) {
	if id == "" {
		return r.svc.Suggest(ctx, raw)
	}
	return r.Get(id).Suggest(ctx, raw)
}

// Len returns the number of registered sessions.
func (r *Sessions) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Evict removes sessions idle for longer than the TTL and returns how many were removed.
func (r *Sessions) Evict() int {
	cutoff := r.now().Add(-r.idleTTL)

	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for id, ss := range r.sessions {
		if ss.idleSince().Before(cutoff) {
			ss.Close()
			delete(r.sessions, id)
			n++
		}
	}
	return n
}

// Run evicts idle sessions every interval until ctx is done.
func (r *Sessions) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = r.idleTTL / 2
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Evict()
		}
	}
}
