package store

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// Handle grants one caller at a time exclusive use of a Store, so that a
// synchronization pass or a load never interleaves with another.
type Handle struct {
	store *Store
	sem   *semaphore.Weighted
}

func NewHandle(s *Store) *Handle {
	return &Handle{store: s, sem: semaphore.NewWeighted(1)}
}

// With blocks until the store is free or ctx is done, then runs fn.
func (h *Handle) With(ctx context.Context, fn func(s *Store) error) error {
	if err := h.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	defer h.sem.Release(1)
	return fn(h.store)
}
