package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/pocket-ledger/internal/domain/import/parser"
	"github.com/FACorreiaa/pocket-ledger/internal/domain/import/repository"
	"github.com/FACorreiaa/pocket-ledger/internal/jobs"
	"github.com/FACorreiaa/pocket-ledger/pkg/mailer"
	"github.com/FACorreiaa/pocket-ledger/pkg/storage"
)

// Consumer handles queued PDF import jobs. A returned error asks the queue
// to retry; nil acknowledges the job, so deterministic failures finalize
// the import log and return nil instead of burning retries.
type Consumer struct {
	svc     *ImportService
	storage storage.Storage
	mailer  mailer.Mailer // optional
	tracer  trace.Tracer
	logger  *slog.Logger
}

// NewConsumer creates the worker-side handler for pdf imports
func NewConsumer(svc *ImportService, store storage.Storage, logger *slog.Logger) *Consumer {
	return &Consumer{
		svc:     svc,
		storage: store,
		tracer:  otel.Tracer("import-worker"),
		logger:  logger,
	}
}

// WithMailer adds completion emails for queued imports
func (c *Consumer) WithMailer(m mailer.Mailer) *Consumer {
	c.mailer = m
	return c
}

// Handle processes one queued pdf import end to end. Lookup errors before
// the file is read propagate for retry; everything after parsing starts is
// terminal and finalizes the log.
func (c *Consumer) Handle(ctx context.Context, job jobs.Job) error {
	ctx, span := c.tracer.Start(ctx, "import.consume")
	defer span.End()

	payload, ok := job.(*jobs.PDFImportJob)
	if !ok {
		c.logger.Warn("dropping job with unexpected payload", "type", string(job.GetType()))
		return nil
	}
	if err := payload.Validate(); err != nil {
		c.logger.Warn("dropping invalid pdf import job", "job_id", payload.JobID, "error", err)
		return nil
	}

	start := time.Now()

	log, err := c.svc.repo.GetImportLog(ctx, payload.TenantID, payload.LogID)
	if errors.Is(err, sql.ErrNoRows) {
		c.logger.Warn("dropping pdf import for unknown log", "log_id", payload.LogID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load import log: %w", err)
	}
	if log.Status != repository.StatusProcessing {
		// Duplicate delivery after a retry republish.
		c.logger.Info("import log already finalized, dropping job",
			"log_id", payload.LogID, "status", string(log.Status))
		return nil
	}

	account, err := c.svc.accountRepo.GetAccount(ctx, payload.TenantID, payload.AccountID)
	if errors.Is(err, sql.ErrNoRows) {
		c.fail(ctx, payload, "account not found", start)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load account: %w", err)
	}

	format, err := parser.DetectFormat(payload.FileName)
	if err != nil {
		c.fail(ctx, payload, err.Error(), start)
		return nil
	}

	reader, err := c.storage.Get(ctx, payload.FileKey)
	if errors.Is(err, storage.ErrNotFound) {
		c.fail(ctx, payload, "file missing from storage", start)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to open stored file: %w", err)
	}
	data, err := io.ReadAll(reader)
	reader.Close()
	if err != nil {
		return fmt.Errorf("failed to read stored file: %w", err)
	}

	parseStart := time.Now()
	parsed, err := parser.ParseStatement(format, data, parser.DefaultOptions())
	if c.svc.metrics != nil {
		c.svc.metrics.ParseDuration.WithLabelValues(format.String()).Observe(time.Since(parseStart).Seconds())
	}
	if err != nil {
		c.fail(ctx, payload, fmt.Sprintf("failed to parse file: %v", err), start)
		return nil
	}
	if len(parsed) == 0 {
		c.fail(ctx, payload, "no transactions found in file", start)
		return nil
	}

	c.svc.applyCategorySuggestions(ctx, parsed)

	result, err := c.svc.persistTransactionsFromImport(ctx, persistInput{
		TenantID:          payload.TenantID,
		Account:           account,
		DefaultCategoryID: payload.DefaultCategoryID,
		Transactions:      parsed,
		LogID:             &payload.LogID,
		StartedAt:         start,
		CheckDuplicates:   payload.CheckDuplicates,
	})
	if err != nil {
		// The engine already finalized the log; a retry would only be
		// dropped by the status check above.
		c.logger.Error("failed to persist pdf import", "log_id", payload.LogID, "error", err)
		return nil
	}

	c.logger.Info("pdf import completed",
		"log_id", payload.LogID,
		"imported", result.Imported,
		"skipped", result.Skipped,
		"status", string(result.Status),
	)
	c.notify(ctx, payload, string(result.Status), result.Imported, result.Skipped)
	return nil
}

// fail finalizes the log as failed and notifies the uploader.
func (c *Consumer) fail(ctx context.Context, payload *jobs.PDFImportJob, message string, start time.Time) {
	c.logger.Warn("pdf import failed", "log_id", payload.LogID, "reason", message)
	c.svc.finalizeFailed(ctx, payload.LogID, message, start, 0)
	c.notify(ctx, payload, string(repository.StatusFailed), 0, 0)
}

// notify sends the completion email. Failures are logged and never affect
// the import outcome.
func (c *Consumer) notify(ctx context.Context, payload *jobs.PDFImportJob, status string, imported, failed int) {
	if c.mailer == nil || payload.NotifyEmail == "" {
		return
	}
	summary := mailer.ImportSummary{
		FileName: payload.FileName,
		Status:   status,
		Imported: imported,
		Failed:   failed,
	}
	if err := c.mailer.SendImportCompleted(ctx, payload.NotifyEmail, summary); err != nil {
		c.logger.Warn("failed to send import completion email",
			"log_id", payload.LogID, "error", err)
	}
}
