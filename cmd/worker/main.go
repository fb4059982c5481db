// Worker runs the queued-import consumer and the maintenance sweeps apart
// from the API server. The in-memory queue only sees jobs published in this
// process; a broker-backed queue would feed the consumer across instances,
// so until then this binary mainly earns its keep through the stale-import
// sweep.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	accountrepo "github.com/FACorreiaa/pocket-ledger/internal/domain/account/repository"
	"github.com/FACorreiaa/pocket-ledger/internal/domain/categorization"
	categoryrepo "github.com/FACorreiaa/pocket-ledger/internal/domain/category/repository"
	importrepo "github.com/FACorreiaa/pocket-ledger/internal/domain/import/repository"
	importservice "github.com/FACorreiaa/pocket-ledger/internal/domain/import/service"
	"github.com/FACorreiaa/pocket-ledger/internal/jobs/inmemory"
	"github.com/FACorreiaa/pocket-ledger/pkg/config"
	"github.com/FACorreiaa/pocket-ledger/pkg/cron"
	"github.com/FACorreiaa/pocket-ledger/pkg/db"
	"github.com/FACorreiaa/pocket-ledger/pkg/mailer"
	"github.com/FACorreiaa/pocket-ledger/pkg/storage"
)

func main() {
	if err := run(); err != nil {
		slog.Error("worker exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// .env is optional outside local development
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	database, err := db.New(db.Config{
		DSN:             cfg.Database.DSN(),
		MaxConns:        10,
		MinConns:        2,
		MaxConnLifetime: 5 * time.Minute,
		MaxConnIdleTime: 10 * time.Minute,
	}, logger)
	if err != nil {
		return err
	}
	defer database.Close()

	store, err := storage.New(ctx, &storage.Config{
		Type:      storage.StorageType(cfg.Storage.Type),
		LocalPath: cfg.Storage.LocalPath,
		GCSBucket: cfg.Storage.GCSBucket,
	})
	if err != nil {
		return fmt.Errorf("failed to init file storage: %w", err)
	}
	defer store.Close()

	index, err := categorization.NewMerchantIndex(cfg.Categorization.IndexPath)
	if err != nil {
		return fmt.Errorf("failed to init merchant index: %w", err)
	}
	defer index.Close()

	imports := importrepo.NewPostgresImportRepository(database.Pool)
	accounts := accountrepo.NewPostgresAccountRepository(database.Pool)
	categories := categoryrepo.NewPostgresCategoryRepository(database.Pool)

	categorizer := categorization.NewService(categorization.DefaultKeywords(), logger).
		WithIndex(index)

	svc := importservice.NewImportService(imports, accounts, categories, logger).
		WithStorage(store).
		WithCategorizer(categorizer)

	consumer := importservice.NewConsumer(svc, store, logger).
		WithMailer(mailer.New(cfg.Mail.ResendAPIKey, cfg.Mail.FromAddress, logger))

	queue := inmemory.NewQueue(cfg.Queue.BufferSize, cfg.Queue.Workers, logger).
		WithMaxRetries(cfg.Queue.MaxRetries)
	defer queue.Close()

	if err := queue.Start(ctx, consumer.Handle); err != nil {
		return fmt.Errorf("failed to start queue consumer: %w", err)
	}

	scheduler := cron.NewScheduler(imports, cfg.Worker.StaleImportAge, logger)
	if err := scheduler.Start(); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}
	scheduler.RunNow()

	logger.Info("worker started",
		"queue_workers", cfg.Queue.Workers,
		"stale_import_age", cfg.Worker.StaleImportAge.String())

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Worker.ShutdownTimeout)
	defer cancel()

	select {
	case <-scheduler.Stop().Done():
	case <-shutdownCtx.Done():
	}

	if err := queue.Stop(shutdownCtx); err != nil {
		logger.Warn("queue did not drain before deadline", "error", err)
	}

	logger.Info("shutdown complete")
	return nil
}
