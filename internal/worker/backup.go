package worker

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"timetracker/internal/log"
	"timetracker/internal/snapshot"
	"timetracker/internal/transfer"
)

// BackupJob writes the export document of the stored snapshot into a
// directory and keeps only the newest files.
type BackupJob struct {
	loader snapshot.Loader
	dir    string
	keep   int
	now    func() time.Time
	logger *log.Logger
}

func NewBackupJob(loader snapshot.Loader, dir string, keep int, logger *log.Logger) *BackupJob {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &BackupJob{
		loader: loader,
		dir:    dir,
		keep:   keep,
		now:    time.Now,
		logger: logger.WithComponent(log.ComponentBackup),
	}
}

// Run writes today's backup, replacing an earlier one from the same day,
// and prunes older files. It returns the path written.
func (j *BackupJob) Run(ctx context.Context) (string, error) {
	snap, err := j.loader.Load(ctx)
	if err != nil {
		return "", fmt.Errorf("load snapshot: %w", err)
	}
	data, err := transfer.Export(snap)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(j.dir, 0o755); err != nil {
		return "", fmt.Errorf("create backup dir: %w", err)
	}
	path := filepath.Join(j.dir, transfer.FileName(j.now()))
	if err := writeFileAtomic(path, data); err != nil {
		return "", err
	}

	removed, err := j.prune()
	if err != nil {
		return path, err
	}

	j.logger.InfoContext(ctx, "Backup written",
		log.FieldOperation, log.OpBackup,
		"path", path,
		"bytes", len(data),
		"pruned", removed,
		log.FieldCategories, len(snap.Categories),
		log.FieldProjects, len(snap.Projects),
		log.FieldEntries, len(snap.TimeEntries))
	return path, nil
}

// prune removes all but the newest keep backups. The date in the file name
// sorts lexically, so name order is age order. keep <= 0 keeps everything.
func (j *BackupJob) prune() (int, error) {
	if j.keep <= 0 {
		return 0, nil
	}
	entries, err := os.ReadDir(j.dir)
	if err != nil {
		return 0, fmt.Errorf("list backups: %w", err)
	}

	var names []string
	for _, e := range entries {
		name := e.Name()
		if e.Type().IsRegular() && strings.HasPrefix(name, transfer.FilePrefix) && strings.HasSuffix(name, ".json") {
			names = append(names, name)
		}
	}
	if len(names) <= j.keep {
		return 0, nil
	}
	sort.Sort(sort.Reverse(sort.StringSlice(names)))

	removed := 0
	for _, name := range names[j.keep:] {
		if err := os.Remove(filepath.Join(j.dir, name)); err != nil {
			return removed, fmt.Errorf("remove backup %s: %w", name, err)
		}
		removed++
	}
	return removed, nil
}

func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".backup-*.json")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write backup: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close backup: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename backup: %w", err)
	}
	return nil
}
