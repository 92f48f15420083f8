// Package persistence is the durable key-value store behind the guest cart, the cart
// snapshot and the held listing filters. Values are JSON-encoded.
package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"
)

var ErrNotFound = errors.New("key not found")

// Backend is a raw byte store. Load returns ErrNotFound for a missing key.
type Backend interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// Store never reports failures to its callers. When the backend fails, the value is kept
// in an in-process overlay so the rest of the session still sees it.
type Store struct {
	backend Backend
	prefix  string
	timeout time.Duration
	logger  *slog.Logger
	overlay *overlay
}

type Option func(*Store)

func WithTimeout(d time.Duration) Option {
	return func(s *Store) { s.timeout = d }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

func NewStore(backend Backend, opts ...Option) *Store {
	s := &Store{
		backend: backend,
		timeout: 2 * time.Second,
		logger:  slog.Default(),
		overlay: newOverlay(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Namespace returns a Store whose keys are prefixed, sharing backend and overlay.
func (s *Store) Namespace(prefix string) *Store {
	ns := *s
	ns.prefix = s.prefix + prefix + ":"
	return &ns
}

// Get decodes the value at key into dst and reports whether it was present and valid.
func (s *Store) Get(key string, dst any) bool {
	full := s.prefix + key
	if raw, ok := s.overlay.get(full); ok {
		return raw != nil && s.decode(full, raw, dst)
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	raw, err := s.backend.Load(ctx, full)
	if errors.Is(err, ErrNotFound) {
		return false
	}
	if err != nil {
		s.logger.Warn("storage load failed", slog.String("key", full), slog.Any("error", err))
		return false
	}
	return s.decode(full, raw, dst)
}

func (s *Store) Set(key string, value any) {
	full := s.prefix + key
	raw, err := json.Marshal(value)
	if err != nil {
		s.logger.Warn("storage encode failed", slog.String("key", full), slog.Any("error", err))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	if err := s.backend.Save(ctx, full, raw); err != nil {
		s.logger.Warn("storage save failed, keeping value in memory", slog.String("key", full), slog.Any("error", err))
		s.overlay.put(full, raw)
		return
	}
	s.overlay.forget(full)
}

func (s *Store) Remove(key string) {
	full := s.prefix + key
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	if err := s.backend.Delete(ctx, full); err != nil && !errors.Is(err, ErrNotFound) {
		s.logger.Warn("storage delete failed, masking key in memory", slog.String("key", full), slog.Any("error", err))
		s.overlay.put(full, nil)
		return
	}
	s.overlay.forget(full)
}

func (s *Store) decode(key string, raw []byte, dst any) bool {
	if err := json.Unmarshal(raw, dst); err != nil {
		s.logger.Warn("storage decode failed", slog.String("key", key), slog.Any("error", err))
		return false
	}
	return true
}

// overlay holds values the backend refused. A nil value masks a key whose delete failed.
type overlay struct {
	mu     sync.RWMutex
	values map[string][]byte
}

func newOverlay() *overlay {
	return &overlay{values: make(map[string][]byte)}
}

func (o *overlay) get(key string) ([]byte, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	v, ok := o.values[key]
	return v, ok
}

func (o *overlay) put(key string, value []byte) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.values[key] = value
}

func (o *overlay) forget(key string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.values, key)
}
