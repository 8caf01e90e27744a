package memory

import (
	"context"
	"sync"

	"timetracker/internal/core"
	ports "timetracker/internal/sheets"
)

// Mirror keeps the rendered tables in memory. It stands in for the Google
// client in tests and when no spreadsheet is configured but mirroring is
// still exercised.
type Mirror struct {
	mu       sync.Mutex
	entries  [][]any
	projects [][]any
	runs     int
	failWith error
}

var _ ports.SnapshotMirror = (*Mirror)(nil)

func New() *Mirror {
	return &Mirror{}
}

// FailWith makes subsequent runs return err; nil restores normal behavior.
func (m *Mirror) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failWith = err
}

func (m *Mirror) Mirror(_ context.Context, s core.Snapshot) (ports.Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failWith != nil {
		return ports.Result{}, m.failWith
	}
	m.entries = ports.EntryRows(s)
	m.projects = ports.ProjectRows(s)
	m.runs++
	return ports.Result{EntryRows: len(m.entries) - 1, ProjectRows: len(m.projects) - 1}, nil
}

// Tables returns copies of the last mirrored entries and project tables.
func (m *Mirror) Tables() (entries, projects [][]any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([][]any(nil), m.entries...), append([][]any(nil), m.projects...)
}

func (m *Mirror) Runs() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.runs
}
