package backend

import (
	"context"
	"slices"

	"timetracker/internal/amqp"
	"timetracker/internal/snapshot"
)

// CleanupFunc releases the resources held by a backend.
type CleanupFunc func() error

// Result is a ready repository plus the optional broker client that
// announces its saves.
type Result struct {
	Repository snapshot.Repository
	AMQP       *amqp.Client // nil when AMQP is disabled or unreachable
	Cleanup    CleanupFunc
}

// Close runs Cleanup if there is one.
func (r *Result) Close() error {
	if r == nil || r.Cleanup == nil {
		return nil
	}
	return r.Cleanup()
}

type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*Result, error)
}

type Config struct {
	Type Type

	DataFile     string // file backend
	SQLiteDBPath string // sqlite backend

	// AMQP is optional for every backend.
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
}

// Type names a snapshot storage backend.
type Type string

const (
	FileBackend   Type = "file"
	MemoryBackend Type = "memory"
	SQLiteBackend Type = "sqlite"
)

func (t Type) String() string {
	return string(t)
}

func (t Type) IsValid() bool {
	return slices.Contains(Types(), t)
}
