// Package store holds the data behind each CLI view. A Store loads through
// a fetch function, reports failures through the shared normalizer, and
// drops results that arrive after the view was torn down.
package store

import (
	"context"
	"errors"
	"sync"

	"github.com/dmitrijs2005/cardkeeper/internal/client/apierr"
	"github.com/dmitrijs2005/cardkeeper/internal/logging"
)

// ErrDiscarded is returned by Load when its result was dropped because the
// store was unmounted or a newer load started.
var ErrDiscarded = errors.New("result discarded")

type FetchFunc[T any] func(ctx context.Context) (T, error)

// Snapshot is a read-only view of a store.
type Snapshot[T any] struct {
	Data    T
	Loaded  bool
	Loading bool
	Err     string
}

type Store[T any] struct {
	name  string
	fetch FetchFunc[T]
	log   logging.Logger

	mu      sync.Mutex
	snap    Snapshot[T]
	gen     uint64
	mounted bool
}

func New[T any](name string, fetch FetchFunc[T], log logging.Logger) *Store[T] {
	return &Store[T]{
		name:    name,
		fetch:   fetch,
		log:     log.With("store", name),
		mounted: true,
	}
}

// Load fetches and stores the result. Only the latest load of a mounted
// store may write; other results are returned with ErrDiscarded.
func (s *Store[T]) Load(ctx context.Context) (T, error) {
	s.mu.Lock()
	if !s.mounted {
		s.mu.Unlock()
		var zero T
		return zero, ErrDiscarded
	}
	s.gen++
	gen := s.gen
	s.snap.Loading = true
	s.mu.Unlock()

	v, err := s.fetch(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.mounted || gen != s.gen {
		s.log.Debug(ctx, "dropping stale result", "error", err)
		return v, ErrDiscarded
	}

	s.snap.Loading = false
	if err != nil {
		msg, surface := apierr.Report(ctx, s.log, err)
		if surface {
			s.snap.Err = msg
		}
		return v, err
	}

	s.snap.Data = v
	s.snap.Loaded = true
	s.snap.Err = ""
	return v, nil
}

// Set replaces the data without fetching, e.g. after a local delete.
func (s *Store[T]) Set(v T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.mounted {
		return
	}
	s.snap.Data = v
	s.snap.Loaded = true
}

func (s *Store[T]) Snapshot() Snapshot[T] {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap
}

// Unmount tears the store down; in-flight loads are discarded.
func (s *Store[T]) Unmount() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mounted = false
	s.gen++
	s.snap.Loading = false
}

func (s *Store[T]) Name() string { return s.name }
