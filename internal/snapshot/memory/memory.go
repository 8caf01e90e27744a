package memory

import (
	"context"
	"sync"

	"timetracker/internal/core"
)

// Store keeps the snapshot in process memory. Useful for tests and for
// throwaway sessions started with DATA_BACKEND=memory.
type Store struct {
	mu    sync.Mutex
	snap  core.Snapshot
	saves int
}

func New(initial core.Snapshot) *Store {
	return &Store{snap: clone(initial)}
}

func (s *Store) Load(_ context.Context) (core.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return clone(s.snap), nil
}

func (s *Store) Save(_ context.Context, snap core.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap = clone(snap)
	s.saves++
	return nil
}

// Saves reports how many times Save succeeded.
func (s *Store) Saves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}

// clone detaches the stored collections from the caller's slices.
func clone(s core.Snapshot) core.Snapshot {
	return core.Snapshot{
		Categories:  append([]core.Category{}, s.Categories...),
		Projects:    append([]core.Project{}, s.Projects...),
		TimeEntries: append([]core.TimeEntry{}, s.TimeEntries...),
	}
}
