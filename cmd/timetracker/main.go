package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"timetracker/internal/backend"
	"timetracker/internal/cache"
	"timetracker/internal/cli"
	apphttp "timetracker/internal/http"
	"timetracker/internal/log"
	"timetracker/internal/services"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"))
	cfg := cli.LoadAndValidateConfig(logger)

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

	reports := cache.NewLRUCache[services.Report](cfg.StatsCacheSize, cfg.StatsCacheTTL)
	cacheManager := cache.NewManager(logger)
	cacheManager.Register(reports)
	if cfg.StatsCacheTTL > 0 {
		cacheManager.StartCleanup(cfg.StatsCacheTTL)
	}
	defer cacheManager.Stop()

	var publisher services.Publisher
	if res.AMQP != nil {
		publisher = res.AMQP
	}

	tracker := services.NewTracker(services.Options{
		Repository: res.Repository,
		Publisher:  publisher,
		Reports:    reports,
		Logger:     logger,
		Location:   cfg.Location(),
	})
	loadCtx, cancelLoad := context.WithTimeout(ctx, 30*time.Second)
	err = tracker.Load(loadCtx, cfg.SeedDefaults)
	cancelLoad()
	if err != nil {
		logger.Error("Failed to load snapshot", log.FieldError, err)
		os.Exit(1)
	}

	srv := apphttp.NewServer(apphttp.Options{
		Addr:    ":" + cfg.Port,
		Tracker: tracker,
		Logger:  logger,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting timetracker server",
			"port", cfg.Port,
			"backend", cfg.DataBackend,
			"amqp_enabled", res.AMQP != nil)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}
