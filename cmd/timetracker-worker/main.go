package main

import (
	"context"
	"errors"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"timetracker/internal/backend"
	"timetracker/internal/cli"
	"timetracker/internal/config"
	"timetracker/internal/log"
	gsheet "timetracker/internal/sheets/google"
	"timetracker/internal/worker"
)

// mirrorSchedule re-mirrors hourly in case a notification was lost.
const mirrorSchedule = "0 0 * * * *"

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL")).WithComponent(log.ComponentWorker)
	cfg := cli.LoadAndValidateConfig(logger)

	logger.Info("Starting timetracker-worker")
	if cfg.DataBackend == config.BackendMemory {
		logger.Warn("Memory backend is private to each process, the worker sees an empty snapshot")
	}

	ctx, stop := cli.ShutdownContext(logger)
	defer stop()

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err)
		os.Exit(1)
	}
	res, err := backend.NewFactory(logger).CreateBackend(ctx, backendCfg)
	if err != nil {
		logger.Error("Failed to initialize backend", log.FieldError, err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	defer func() {
		if err := res.Close(); err != nil {
			logger.Error("Backend cleanup failed", log.FieldError, err)
		}
	}()

	scheduler := worker.NewScheduler(cfg.Location(), logger)
	backup := worker.NewBackupJob(res.Repository, cfg.BackupDir, cfg.BackupKeep, logger)
	if err := scheduler.Add(cfg.BackupSchedule, "backup", func(ctx context.Context) error {
		_, err := backup.Run(ctx)
		return err
	}); err != nil {
		logger.Error("Failed to schedule backup", log.FieldError, err)
		os.Exit(1)
	}

	var mirror *worker.MirrorWorker
	if cfg.SheetsEnabled() {
		client, err := gsheet.New(ctx, gsheet.Options{
			SpreadsheetID:   cfg.GoogleSpreadsheetID,
			EntriesSheet:    cfg.GoogleSheetName,
			SummarySheet:    cfg.GoogleSummarySheetName,
			CredentialsJSON: cfg.GoogleServiceAccountJSON,
			CredentialsFile: cfg.GoogleServiceAccountFile,
		})
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", log.FieldError, err)
			os.Exit(1)
		}
		logger.Info("Google Sheets mirror enabled", "spreadsheet_id", cfg.GoogleSpreadsheetID)

		mirror = worker.NewMirrorWorker(res.Repository, client, logger)
		if err := mirror.Sync(ctx); err != nil {
			logger.Error("Startup mirror failed", log.FieldError, err)
		}
		if err := scheduler.Add(mirrorSchedule, "mirror", mirror.Sync); err != nil {
			logger.Error("Failed to schedule mirror", log.FieldError, err)
			os.Exit(1)
		}
	} else {
		logger.Info("Google Sheets disabled - no GOOGLE_SPREADSHEET_ID provided")
	}

	scheduler.Start()
	logger.Info("Scheduler started", "jobs", scheduler.Entries(), "backup_schedule", cfg.BackupSchedule)

	g, gctx := errgroup.WithContext(ctx)
	if mirror != nil && res.AMQP != nil {
		g.Go(func() error {
			err := res.AMQP.ConsumeSnapshotSaved(gctx, mirror.HandleSnapshotSaved)
			if err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	} else {
		logger.Info("Skipping AMQP consumption", "amqp_enabled", res.AMQP != nil, "sheets_enabled", mirror != nil)
	}
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		logger.Info("Shutting down worker...")
		return scheduler.Stop(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Worker stopped with error", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Worker shutdown complete")
}
