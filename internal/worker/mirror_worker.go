package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"timetracker/internal/amqp"
	"timetracker/internal/log"
	"timetracker/internal/sheets"
	"timetracker/internal/snapshot"
)

// MirrorWorker copies the stored snapshot into the spreadsheet whenever the
// server announces a save.
type MirrorWorker struct {
	loader snapshot.Loader
	mirror sheets.SnapshotMirror
	logger *log.Logger
	events *log.StructuredLogger

	mu         sync.Mutex
	lastMirror time.Time
}

func NewMirrorWorker(loader snapshot.Loader, mirror sheets.SnapshotMirror, logger *log.Logger) *MirrorWorker {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	logger = logger.WithComponent(log.ComponentSheets)
	return &MirrorWorker{
		loader: loader,
		mirror: mirror,
		logger: logger,
		events: log.NewStructuredLogger(logger),
	}
}

// HandleSnapshotSaved mirrors the current snapshot. Messages published
// before the last successful mirror are acknowledged without work, since
// that mirror already read a newer snapshot.
func (w *MirrorWorker) HandleSnapshotSaved(ctx context.Context, msg *amqp.SnapshotSavedMessage) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !msg.Timestamp.IsZero() && msg.Timestamp.Before(w.lastMirror) {
		w.logger.DebugContext(ctx, "Skipping stale snapshot message",
			log.FieldVersion, msg.Version,
			"timestamp", msg.Timestamp)
		return nil
	}

	w.logger.InfoContext(ctx, "Processing snapshot saved message",
		log.FieldVersion, msg.Version,
		log.FieldEntries, msg.TimeEntries)
	return w.mirrorLocked(ctx)
}

// Sync mirrors the snapshot unconditionally. The worker runs it at startup
// to catch up on saves made while it was down.
func (w *MirrorWorker) Sync(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.mirrorLocked(ctx)
}

func (w *MirrorWorker) mirrorLocked(ctx context.Context) error {
	started := time.Now()

	snap, err := w.loader.Load(ctx)
	if err != nil {
		return fmt.Errorf("load snapshot: %w", err)
	}

	res, err := w.mirror.Mirror(ctx, snap)
	if err != nil {
		w.events.LogError(ctx, "Failed to mirror snapshot", err, log.ComponentSheets, log.OpMirror, nil)
		return fmt.Errorf("mirror snapshot: %w", err)
	}
	w.lastMirror = started

	w.logger.InfoContext(ctx, "Snapshot mirrored",
		"entry_rows", res.EntryRows,
		"project_rows", res.ProjectRows,
		log.FieldDuration, time.Since(started).Milliseconds())
	return nil
}
