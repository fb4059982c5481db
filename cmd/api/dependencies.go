package api

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	accountrepo "github.com/FACorreiaa/pocket-ledger/internal/domain/account/repository"
	"github.com/FACorreiaa/pocket-ledger/internal/domain/auth"
	"github.com/FACorreiaa/pocket-ledger/internal/domain/balance"
	balancehandler "github.com/FACorreiaa/pocket-ledger/internal/domain/balance/handler"
	"github.com/FACorreiaa/pocket-ledger/internal/domain/categorization"
	categoryrepo "github.com/FACorreiaa/pocket-ledger/internal/domain/category/repository"
	importhandler "github.com/FACorreiaa/pocket-ledger/internal/domain/import/handler"
	importrepo "github.com/FACorreiaa/pocket-ledger/internal/domain/import/repository"
	importservice "github.com/FACorreiaa/pocket-ledger/internal/domain/import/service"
	"github.com/FACorreiaa/pocket-ledger/internal/jobs/inmemory"
	"github.com/FACorreiaa/pocket-ledger/pkg/config"
	"github.com/FACorreiaa/pocket-ledger/pkg/cron"
	"github.com/FACorreiaa/pocket-ledger/pkg/db"
	"github.com/FACorreiaa/pocket-ledger/pkg/mailer"
	"github.com/FACorreiaa/pocket-ledger/pkg/metrics"
	"github.com/FACorreiaa/pocket-ledger/pkg/storage"
)

// Dependencies holds all application dependencies
type Dependencies struct {
	Config *config.Config
	DB     *db.DB
	Logger *slog.Logger

	// Repositories
	ImportRepo   importrepo.ImportRepository
	AccountRepo  accountrepo.AccountRepository
	CategoryRepo categoryrepo.CategoryRepository
	BalanceRepo  balance.Repository

	// Services
	TokenManager          *auth.TokenManager
	ImportService         *importservice.ImportService
	CategorizationService *categorization.Service
	MerchantIndex         *categorization.MerchantIndex
	ImportConsumer        *importservice.Consumer
	BalanceService        *balance.Service
	Mailer                *mailer.ResendMailer
	FileStorage           storage.Storage
	Queue                 *inmemory.Queue
	Metrics               *metrics.Metrics
	Scheduler             *cron.Scheduler

	// Handlers
	ImportHandler  *importhandler.ImportHandler
	BalanceHandler *balancehandler.BalanceHandler
}

// InitDependencies initializes all application dependencies
func InitDependencies(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
	}

	// Initialize database
	if err := deps.initDatabase(); err != nil {
		return nil, fmt.Errorf("failed to init database: %w", err)
	}

	// Initialize repositories
	if err := deps.initRepositories(); err != nil {
		return nil, fmt.Errorf("failed to init repositories: %w", err)
	}

	// Initialize services
	if err := deps.initServices(ctx); err != nil {
		return nil, fmt.Errorf("failed to init services: %w", err)
	}

	// Initialize handlers
	if err := deps.initHandlers(); err != nil {
		return nil, fmt.Errorf("failed to init handlers: %w", err)
	}

	logger.Info("all dependencies initialized successfully")

	return deps, nil
}

// initDatabase initializes the database connection and runs migrations
func (d *Dependencies) initDatabase() error {
	database, err := db.New(db.Config{
		DSN:             d.Config.Database.DSN(),
		MaxConns:        25,
		MinConns:        5,
		MaxConnLifetime: 5 * time.Minute,
		MaxConnIdleTime: 10 * time.Minute,
	}, d.Logger)
	if err != nil {
		return err
	}

	d.DB = database

	// Run migrations
	if err := d.DB.RunMigrations(); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	d.Logger.Info("database connected and migrations completed successfully")
	return nil
}

// initRepositories initializes all repository layer dependencies
func (d *Dependencies) initRepositories() error {
	d.ImportRepo = importrepo.NewPostgresImportRepository(d.DB.Pool)
	d.AccountRepo = accountrepo.NewPostgresAccountRepository(d.DB.Pool)
	d.CategoryRepo = categoryrepo.NewPostgresCategoryRepository(d.DB.Pool)
	d.BalanceRepo = balance.NewPostgresRepository(d.DB.Pool)

	d.Logger.Info("repositories initialized")
	return nil
}

// initServices initializes all service layer dependencies
func (d *Dependencies) initServices(ctx context.Context) error {
	if d.Config.Auth.JWTSecret == "" {
		return fmt.Errorf("jwt secret is required")
	}

	accessTokenTTL := 1 * time.Hour
	d.TokenManager = auth.NewTokenManager(d.Config.Auth.JWTSecret, accessTokenTTL)

	d.Metrics = metrics.New()

	// File storage for uploaded statements
	fileStorage, err := storage.New(ctx, &storage.Config{
		Type:      storage.StorageType(d.Config.Storage.Type),
		LocalPath: d.Config.Storage.LocalPath,
		GCSBucket: d.Config.Storage.GCSBucket,
	})
	if err != nil {
		return fmt.Errorf("failed to init file storage: %w", err)
	}
	d.FileStorage = fileStorage

	// In-memory job queue for async PDF imports
	d.Queue = inmemory.NewQueue(d.Config.Queue.BufferSize, d.Config.Queue.Workers, d.Logger).
		WithMaxRetries(d.Config.Queue.MaxRetries)
	d.Metrics.SetQueueDepthFunc(d.Queue.Depth)

	// Categorization service for suggesting categories on uncategorized rows
	index, err := categorization.NewMerchantIndex(d.Config.Categorization.IndexPath)
	if err != nil {
		return fmt.Errorf("failed to init merchant index: %w", err)
	}
	d.MerchantIndex = index
	d.CategorizationService = categorization.NewService(categorization.DefaultKeywords(), d.Logger).
		WithIndex(index)

	// Import service with storage, queue and categorization wired in
	d.ImportService = importservice.NewImportService(d.ImportRepo, d.AccountRepo, d.CategoryRepo, d.Logger).
		WithStorage(d.FileStorage).
		WithPublisher(d.Queue).
		WithCategorizer(d.CategorizationService).
		WithMetrics(d.Metrics)

	// Completion emails for queued imports
	d.Mailer = mailer.New(d.Config.Mail.ResendAPIKey, d.Config.Mail.FromAddress, d.Logger)

	// Worker-side handler for queued imports, run in-process
	d.ImportConsumer = importservice.NewConsumer(d.ImportService, d.FileStorage, d.Logger).
		WithMailer(d.Mailer)

	// Read side over the balances the importer maintains
	d.BalanceService = balance.NewService(d.BalanceRepo, d.Logger)

	// Daily sweep for imports whose worker died mid-run
	d.Scheduler = cron.NewScheduler(d.ImportRepo, d.Config.Worker.StaleImportAge, d.Logger)

	d.Logger.Info("services initialized")
	return nil
}

// initHandlers initializes all handler dependencies
func (d *Dependencies) initHandlers() error {
	d.ImportHandler = importhandler.NewImportHandler(d.ImportService, d.Logger).
		WithMaxUploadBytes(d.Config.Server.MaxUploadBytes)
	d.BalanceHandler = balancehandler.NewBalanceHandler(d.BalanceService, d.Logger)

	d.Logger.Info("handlers initialized")
	return nil
}

// Cleanup closes all resources
func (d *Dependencies) Cleanup() {
	if d.Queue != nil {
		_ = d.Queue.Close()
	}
	if d.MerchantIndex != nil {
		_ = d.MerchantIndex.Close()
	}
	if d.FileStorage != nil {
		_ = d.FileStorage.Close()
	}
	if d.DB != nil {
		d.DB.Close()
	}
	d.Logger.Info("cleanup completed")
}
