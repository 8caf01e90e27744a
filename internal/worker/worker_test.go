package worker

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"timetracker/internal/amqp"
	"timetracker/internal/core"
	"timetracker/internal/log"
	sheetsmem "timetracker/internal/sheets/memory"
	snapmem "timetracker/internal/snapshot/memory"
)

func quietLogger() *log.Logger {
	return log.New(log.Config{Output: io.Discard})
}

func trackedSnapshot() core.Snapshot {
	return core.Snapshot{
		Categories: []core.Category{{ID: "c1", Name: "Reading", Color: "#000"}},
		Projects:   []core.Project{{ID: "p1", CategoryID: "c1", Name: "Book", TargetHours: 10}},
		TimeEntries: []core.TimeEntry{
			{ID: "e1", ProjectID: "p1", Date: core.NewDate(2024, 1, 2), Hours: 2},
			{ID: "e2", ProjectID: "p1", Date: core.NewDate(2024, 1, 1), Hours: 1},
		},
	}
}

type brokenLoader struct{}

func (brokenLoader) Load(context.Context) (core.Snapshot, error) {
	return core.Snapshot{}, errors.New("database is locked")
}

func TestMirrorWorkerHandlesMessage(t *testing.T) {
	mirror := sheetsmem.New()
	w := NewMirrorWorker(snapmem.New(trackedSnapshot()), mirror, quietLogger())

	msg := &amqp.SnapshotSavedMessage{Version: 3, TimeEntries: 2, Timestamp: time.Now()}
	if err := w.HandleSnapshotSaved(context.Background(), msg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// tables include their header row
	entries, projects := mirror.Tables()
	if len(entries) != 3 || len(projects) != 2 {
		t.Fatalf("unexpected tables: %v / %v", entries, projects)
	}

	stale := &amqp.SnapshotSavedMessage{Version: 2, Timestamp: time.Now().Add(-time.Hour)}
	if err := w.HandleSnapshotSaved(context.Background(), stale); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if mirror.Runs() != 1 {
		t.Fatalf("stale message should not trigger a mirror, runs=%d", mirror.Runs())
	}

	if err := w.Sync(context.Background()); err != nil || mirror.Runs() != 2 {
		t.Fatalf("sync should always mirror: runs=%d err=%v", mirror.Runs(), err)
	}
}

func TestMirrorWorkerErrors(t *testing.T) {
	msg := &amqp.SnapshotSavedMessage{Version: 1, Timestamp: time.Now()}

	w := NewMirrorWorker(brokenLoader{}, sheetsmem.New(), quietLogger())
	if err := w.HandleSnapshotSaved(context.Background(), msg); err == nil || !strings.Contains(err.Error(), "load snapshot") {
		t.Fatalf("expected load error, got %v", err)
	}

	mirror := sheetsmem.New()
	mirror.FailWith(errors.New("quota exceeded"))
	w = NewMirrorWorker(snapmem.New(trackedSnapshot()), mirror, quietLogger())
	if err := w.HandleSnapshotSaved(context.Background(), msg); err == nil || !strings.Contains(err.Error(), "mirror snapshot") {
		t.Fatalf("expected mirror error, got %v", err)
	}
}

func TestBackupJobWritesExport(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "backups")
	job := NewBackupJob(snapmem.New(trackedSnapshot()), dir, 3, quietLogger())
	job.now = func() time.Time { return time.Date(2024, time.March, 5, 3, 0, 0, 0, time.UTC) }

	path, err := job.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if filepath.Base(path) != "time-tracker-backup-2024-03-05.json" {
		t.Fatalf("unexpected path %s", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("backup is not JSON: %v", err)
	}
	for _, key := range []string{"categories", "projects", "timeEntries"} {
		if _, ok := doc[key]; !ok {
			t.Fatalf("backup misses %s", key)
		}
	}
}

func TestBackupJobPrunes(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{
		"time-tracker-backup-2024-01-01.json",
		"time-tracker-backup-2024-01-02.json",
		"time-tracker-backup-2024-01-03.json",
		"notes.txt",
	} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("{}"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	job := NewBackupJob(snapmem.New(trackedSnapshot()), dir, 2, quietLogger())
	job.now = func() time.Time { return time.Date(2024, time.January, 4, 3, 0, 0, 0, time.UTC) }
	if _, err := job.Run(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)
	want := []string{"notes.txt", "time-tracker-backup-2024-01-03.json", "time-tracker-backup-2024-01-04.json"}
	if strings.Join(names, ",") != strings.Join(want, ",") {
		t.Fatalf("got %v, want %v", names, want)
	}
}

func TestBackupJobLoadFailure(t *testing.T) {
	dir := t.TempDir()
	job := NewBackupJob(brokenLoader{}, dir, 2, quietLogger())
	if _, err := job.Run(context.Background()); err == nil {
		t.Fatalf("expected an error")
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Fatalf("failed backup left files behind")
	}
}

func TestSchedulerRunsJobs(t *testing.T) {
	s := NewScheduler(time.UTC, quietLogger())

	if err := s.Add("not a schedule", "bad", func(context.Context) error { return nil }); err == nil {
		t.Fatalf("expected an invalid schedule to be rejected")
	}

	var runs int32
	done := make(chan struct{}, 1)
	if err := s.Add("* * * * * *", "tick", func(context.Context) error {
		if atomic.AddInt32(&runs, 1) == 1 {
			done <- struct{}{}
		}
		return nil
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Entries() != 1 {
		t.Fatalf("expected 1 entry, got %d", s.Entries())
	}

	s.Start()
	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatalf("job did not run")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.Stop(ctx); err != nil {
		t.Fatalf("stop: %v", err)
	}
}
