package backend

import (
	"context"
	"errors"
	"fmt"

	"timetracker/internal/amqp"
	"timetracker/internal/core"
	"timetracker/internal/log"
	"timetracker/internal/snapshot/jsonfile"
	"timetracker/internal/snapshot/memory"
	"timetracker/internal/storage"
)

type DefaultFactory struct {
	logger *log.Logger
}

func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &DefaultFactory{logger: logger.WithComponent(log.ComponentBackend)}
}

// CreateBackend opens the configured repository and, when AMQP_URL is set,
// dials the broker. A broker that cannot be reached is logged and skipped.
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*Result, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var res *Result
	var err error
	switch config.Type {
	case SQLiteBackend:
		res, err = f.createSQLiteBackend(config)
	case FileBackend:
		res = f.createFileBackend(config)
	case MemoryBackend:
		res = f.createMemoryBackend()
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
	if err != nil {
		return nil, err
	}

	if config.AMQPURL != "" {
		client, err := amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue)
		if err != nil {
			f.logger.WarnContext(ctx, "Failed to initialize AMQP client, continuing without notifications",
				log.FieldError, err.Error())
		} else {
			f.logger.InfoContext(ctx, "Initialized AMQP client",
				"exchange", config.AMQPExchange,
				"queue", config.AMQPQueue)
			res.AMQP = client
			res.Cleanup = chainCleanup(res.Cleanup, client.Close)
		}
	}
	return res, nil
}

func (f *DefaultFactory) createSQLiteBackend(config Config) (*Result, error) {
	repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}
	f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)
	return &Result{Repository: repo, Cleanup: repo.Close}, nil
}

func (f *DefaultFactory) createFileBackend(config Config) *Result {
	store := jsonfile.New(config.DataFile)
	f.logger.Info("Initialized file backend", "path", store.Path())
	return &Result{Repository: store}
}

func (f *DefaultFactory) createMemoryBackend() *Result {
	f.logger.Info("Initialized memory backend, data will not survive a restart")
	return &Result{Repository: memory.New(core.EmptySnapshot())}
}

func chainCleanup(first, second CleanupFunc) CleanupFunc {
	if first == nil {
		return second
	}
	return func() error {
		return errors.Join(second(), first())
	}
}
