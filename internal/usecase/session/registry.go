package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"

	cartuc "example.com/storefront/internal/usecase/cart"
	categoryuc "example.com/storefront/internal/usecase/category"
)

// Registry creates sessions on demand and keeps them until dropped or evicted as idle.
type Registry struct {
	ctx  context.Context
	deps Deps
	now  func() time.Time

	mu       sync.Mutex
	sessions map[string]*Session
}

func NewRegistry(ctx context.Context, deps Deps) *Registry {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Attempts <= 0 {
		deps.Attempts = cartuc.DefaultAttempts
	}
	if deps.Categories == nil {
		deps.Categories = categoryuc.NewService()
	}
	if deps.Validate == nil {
		deps.Validate = validator.New()
	}
	return &Registry{
		ctx:      ctx,
		deps:     deps,
		now:      time.Now,
		sessions: make(map[string]*Session),
	}
}

// Get returns the session with id, creating it when unknown, and marks it as seen.
func (r *Registry) Get(id string) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		s = newSession(r.ctx, id, r.deps)
		r.sessions[id] = s
		r.deps.Logger.Debug("session created", slog.String("session_id", id))
	}
	s.touch(r.now())
	return s
}

func (r *Registry) Lookup(id string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	return s, ok
}

// Drop closes and forgets a session. Its persisted state stays in storage.
func (r *Registry) Drop(id string) {
	r.mu.Lock()
	s, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()
	if ok {
		s.Close()
	}
}

// Evict drops every session not looked up for longer than idle and returns how many were
// dropped. Persisted state survives, so a returning shopper gets their guest cart and
// filters back; the login does not.
func (r *Registry) Evict(idle time.Duration) int {
	now := r.now()
	r.mu.Lock()
	var stale []*Session
	for id, s := range r.sessions {
		if s.idleSince(now) > idle {
			stale = append(stale, s)
			delete(r.sessions, id)
		}
	}
	r.mu.Unlock()

	for _, s := range stale {
		s.Close()
		r.deps.Logger.Debug("session evicted", slog.String("session_id", s.ID()))
	}
	return len(stale)
}

// Run evicts idle sessions every interval until ctx is done.
func (r *Registry) Run(ctx context.Context, interval, idle time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if n := r.Evict(idle); n > 0 {
				r.deps.Logger.Info("idle sessions evicted", slog.Int("count", n), slog.Int("remaining", r.Len()))
			}
		case <-ctx.Done():
			return
		}
	}
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Close closes every session.
func (r *Registry) Close() {
	r.mu.Lock()
	sessions := r.sessions
	r.sessions = make(map[string]*Session)
	r.mu.Unlock()
	for _, s := range sessions {
		s.Close()
	}
}
