package store

import (
	"errors"
	"testing"
	"time"

	"timetracker/internal/core"
)

func TestHolderDispatchCommits(t *testing.T) {
	h := NewHolder(core.Snapshot{})
	if h.Version() != 0 {
		t.Fatalf("expected version 0, got %d", h.Version())
	}

	var committed core.Snapshot
	snap, version, err := h.Dispatch(AddCategoryCmd(core.Category{ID: "c1", Name: "A", Color: "#000"}), func(next core.Snapshot) error {
		committed = next
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if version != 1 || h.Version() != 1 {
		t.Fatalf("expected version 1, got %d/%d", version, h.Version())
	}
	if len(snap.Categories) != 1 || len(committed.Categories) != 1 || len(h.Snapshot().Categories) != 1 {
		t.Fatalf("change not visible: %+v", h.Snapshot())
	}
}

func TestHolderDispatchRollsBackOnCommitError(t *testing.T) {
	h := NewHolder(core.Snapshot{})
	boom := errors.New("disk full")

	_, version, err := h.Dispatch(AddCategoryCmd(core.Category{ID: "c1"}), func(core.Snapshot) error { return boom })
	if !errors.Is(err, boom) {
		t.Fatalf("expected commit error, got %v", err)
	}
	if version != 0 || len(h.Snapshot().Categories) != 0 {
		t.Fatalf("failed commit must not change state")
	}
}

func TestHolderDispatchReducerError(t *testing.T) {
	h := NewHolder(core.Snapshot{})
	called := false
	_, _, err := h.Dispatch(DeleteProjectCmd("nope"), func(core.Snapshot) error {
		called = true
		return nil
	})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if called {
		t.Fatalf("commit must not run when the reducer fails")
	}
}

func TestHolderReplace(t *testing.T) {
	h := NewHolder(core.DefaultSnapshot(time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)))
	snap, version, err := h.Replace(core.Snapshot{}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if version != 1 || !snap.IsEmpty() || snap.Categories == nil {
		t.Fatalf("expected normalized empty snapshot at version 1, got %+v v%d", snap, version)
	}
}

func TestHolderCurrentMatchesVersion(t *testing.T) {
	h := NewHolder(core.Snapshot{})
	if _, _, err := h.Dispatch(AddCategoryCmd(core.Category{ID: "c1"}), nil); err != nil {
		t.Fatal(err)
	}
	snap, version := h.Current()
	if version != 1 || len(snap.Categories) != 1 {
		t.Fatalf("unexpected current state: %+v v%d", snap, version)
	}
}
