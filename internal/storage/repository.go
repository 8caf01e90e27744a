package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"timetracker/internal/core"

	_ "modernc.org/sqlite"
)

// SQLiteRepository persists the snapshot in three tables. A save replaces
// every row inside one transaction; the position column keeps the order in
// which records were added.
type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// A single writer avoids SQLITE_BUSY between concurrent saves.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database answers.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Load implements snapshot.Loader.
func (r *SQLiteRepository) Load(ctx context.Context) (core.Snapshot, error) {
	snap := core.EmptySnapshot()

	categories, err := r.loadCategories(ctx)
	if err != nil {
		return snap, err
	}
	projects, err := r.loadProjects(ctx)
	if err != nil {
		return snap, err
	}
	entries, err := r.loadTimeEntries(ctx)
	if err != nil {
		return snap, err
	}

	snap.Categories = categories
	snap.Projects = projects
	snap.TimeEntries = entries
	return snap, nil
}

// Save implements snapshot.Saver.
func (r *SQLiteRepository) Save(ctx context.Context, s core.Snapshot) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"time_entries", "projects", "categories"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	for i, c := range s.Categories {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO categories (position, id, name, description, color, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
			i, c.ID, c.Name, c.Description, c.Color, formatTime(c.CreatedAt)); err != nil {
			return fmt.Errorf("insert category %s: %w", c.ID, err)
		}
	}
	for i, p := range s.Projects {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO projects (position, id, category_id, name, description, target_hours, color, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			i, p.ID, p.CategoryID, p.Name, p.Description, p.TargetHours, p.Color, formatTime(p.CreatedAt)); err != nil {
			return fmt.Errorf("insert project %s: %w", p.ID, err)
		}
	}
	for i, e := range s.TimeEntries {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO time_entries (position, id, project_id, date, hours, notes, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			i, e.ID, e.ProjectID, e.Date.String(), e.Hours, e.Notes, formatTime(e.CreatedAt)); err != nil {
			return fmt.Errorf("insert time entry %s: %w", e.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit snapshot: %w", err)
	}

	slog.DebugContext(ctx, "Snapshot saved to SQLite",
		"categories", len(s.Categories),
		"projects", len(s.Projects),
		"time_entries", len(s.TimeEntries))
	return nil
}

func (r *SQLiteRepository) loadCategories(ctx context.Context) ([]core.Category, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, description, color, created_at FROM categories ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	defer rows.Close()

	out := []core.Category{}
	for rows.Next() {
		var c core.Category
		var created string
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.Color, &created); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		if c.CreatedAt, err = parseTime(created); err != nil {
			return nil, fmt.Errorf("category %s: %w", c.ID, err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) loadProjects(ctx context.Context) ([]core.Project, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, category_id, name, description, target_hours, color, created_at FROM projects ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("query projects: %w", err)
	}
	defer rows.Close()

	out := []core.Project{}
	for rows.Next() {
		var p core.Project
		var created string
		if err := rows.Scan(&p.ID, &p.CategoryID, &p.Name, &p.Description, &p.TargetHours, &p.Color, &created); err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		if p.CreatedAt, err = parseTime(created); err != nil {
			return nil, fmt.Errorf("project %s: %w", p.ID, err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) loadTimeEntries(ctx context.Context) ([]core.TimeEntry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, project_id, date, hours, notes, created_at FROM time_entries ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("query time entries: %w", err)
	}
	defer rows.Close()

	out := []core.TimeEntry{}
	for rows.Next() {
		var e core.TimeEntry
		var day, created string
		if err := rows.Scan(&e.ID, &e.ProjectID, &day, &e.Hours, &e.Notes, &created); err != nil {
			return nil, fmt.Errorf("scan time entry: %w", err)
		}
		if e.Date, err = core.ParseDate(day); err != nil {
			return nil, fmt.Errorf("time entry %s: %w", e.ID, err)
		}
		if e.CreatedAt, err = parseTime(created); err != nil {
			return nil, fmt.Errorf("time entry %s: %w", e.ID, err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return t, nil
}
