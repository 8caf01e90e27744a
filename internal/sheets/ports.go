// Package sheets mirrors the tracker state into a spreadsheet so it can be
// browsed and charted outside the application.
package sheets

import (
	"context"

	"timetracker/internal/core"
)

// SnapshotMirror replaces the mirrored tables with the content of s.
type SnapshotMirror interface {
	Mirror(ctx context.Context, s core.Snapshot) (Result, error)
}

// Result describes what a mirror run wrote.
type Result struct {
	EntryRows   int
	ProjectRows int
}
