// Package listing holds the in-memory record collections behind each console
// screen and the filter/paginate view derived from them.
package listing

import (
	"context"
	"errors"
	"log/slog"
	"sync"
)

// Status is what a screen shows instead of (or as) its table. Exactly one
// applies at any time.
type Status string

const (
	StatusLoading   Status = "loading"
	StatusError     Status = "error"
	StatusEmpty     Status = "empty"
	StatusPopulated Status = "populated"
)

var (
	// ErrSuperseded is returned by a Load whose result was discarded because
	// a newer Load started first.
	ErrSuperseded = errors.New("load superseded by a newer request")
	// ErrClosed is returned once the store has been closed.
	ErrClosed = errors.New("store closed")
)

// Fetcher returns the complete collection in server order.
type Fetcher[T any] func(ctx context.Context) ([]T, error)

// Store owns the authoritative collection for one resource. Only Load
// completions and Prepend write to it.
type Store[T any] struct {
	name   string
	fetch  Fetcher[T]
	logger *slog.Logger

	mu         sync.RWMutex
	records    []T
	err        error
	loaded     bool
	generation uint64
	cancel     context.CancelFunc
	closed     bool
}

func NewStore[T any](name string, fetch Fetcher[T], logger *slog.Logger) *Store[T] {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store[T]{
		name:   name,
		fetch:  fetch,
		logger: logger.With("resource", name),
	}
}

// Load issues exactly one fetch. It cancels any load still in flight; the
// cancelled call returns ErrSuperseded and leaves the store untouched.
func (s *Store[T]) Load(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	if s.cancel != nil {
		s.cancel()
	}
	s.generation++
	gen := s.generation
	loadCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.mu.Unlock()

	records, err := s.fetch(loadCtx)
	cancel()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	if gen != s.generation {
		s.logger.Debug("discarding superseded load", "generation", gen)
		return ErrSuperseded
	}
	s.cancel = nil

	if err != nil {
		s.err = err
		s.loaded = true
		s.logger.Warn("failed to load records", "error", err)
		return err
	}

	if records == nil {
		records = []T{}
	}
	s.records = records
	s.err = nil
	s.loaded = true
	return nil
}

// Refresh is Load under the name used by the refresh action and the
// post-mutation reconciliation.
func (s *Store[T]) Refresh(ctx context.Context) error {
	return s.Load(ctx)
}

// Prepend inserts rec at the head and truncates to limit. It is reserved for
// optimistic widgets; screens always reconcile through Refresh. It applies
// only while the collection holds a successful load and reports whether rec
// was inserted.
func (s *Store[T]) Prepend(rec T, limit int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || !s.loaded || s.err != nil {
		return false
	}

	next := make([]T, 0, len(s.records)+1)
	next = append(next, rec)
	next = append(next, s.records...)
	if limit > 0 && len(next) > limit {
		next = next[:limit]
	}
	s.records = next
	return true
}

// Records returns a copy of the authoritative collection. It includes stale
// data retained after a failed load.
func (s *Store[T]) Records() []T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]T, len(s.records))
	copy(out, s.records)
	return out
}

func (s *Store[T]) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.err
}

func (s *Store[T]) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	switch {
	case s.err != nil:
		return StatusError
	case !s.loaded:
		return StatusLoading
	case len(s.records) == 0:
		return StatusEmpty
	default:
		return StatusPopulated
	}
}

// Close cancels any in-flight fetch. Results arriving afterwards are dropped.
func (s *Store[T]) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}
