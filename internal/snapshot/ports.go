// Package snapshot defines where the tracker state lives between runs.
package snapshot

import (
	"context"

	"timetracker/internal/core"
)

// Ports for persistence adapters.
type (
	Loader interface {
		// Load returns the stored snapshot, or an empty one when nothing has
		// been saved yet.
		Load(ctx context.Context) (core.Snapshot, error)
	}

	Saver interface {
		// Save replaces the stored snapshot wholesale.
		Save(ctx context.Context, s core.Snapshot) error
	}

	Repository interface {
		Loader
		Saver
	}
)
