package jsonfile

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"timetracker/internal/core"
)

func TestLoadMissingFileIsEmpty(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "nested", "data.json"))
	snap, err := s.Load(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !snap.IsEmpty() || snap.Projects == nil {
		t.Fatalf("expected empty snapshot, got %+v", snap)
	}
}

func TestSaveThenLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "data.json")
	s := New(path)

	snap := core.DefaultSnapshot(time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC))
	snap.TimeEntries = []core.TimeEntry{{ID: "e1", ProjectID: "1", Date: core.NewDate(2024, time.January, 2), Hours: 1.5}}
	if err := s.Save(context.Background(), snap); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := s.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got.Categories) != 4 || len(got.Projects) != 5 || len(got.TimeEntries) != 1 {
		t.Fatalf("unexpected snapshot: %+v", got)
	}
	if got.TimeEntries[0].Date.String() != "2024-01-02" || got.TimeEntries[0].Hours != 1.5 {
		t.Fatalf("entry not preserved: %+v", got.TimeEntries[0])
	}

	raw, _ := os.ReadFile(path)
	if !strings.Contains(string(raw), "\n  \"timeEntries\"") {
		t.Fatalf("expected an indented document, got %s", raw)
	}
	entries, _ := os.ReadDir(filepath.Dir(path))
	if len(entries) != 1 {
		t.Fatalf("temporary files left behind: %v", entries)
	}
}

func TestLoadCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := New(path).Load(context.Background()); err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestDefaultPath(t *testing.T) {
	if !strings.HasSuffix(DefaultPath(), filepath.Join(".config", "time-tracker", "data.json")) {
		t.Fatalf("unexpected default path %q", DefaultPath())
	}
	if New("").Path() != DefaultPath() {
		t.Fatalf("empty path should fall back to the default")
	}
}
