// Package service provides the import orchestration logic.
package service

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	accountrepo "github.com/FACorreiaa/pocket-ledger/internal/domain/account/repository"
	categoryrepo "github.com/FACorreiaa/pocket-ledger/internal/domain/category/repository"
	"github.com/FACorreiaa/pocket-ledger/internal/domain/import/parser"
	"github.com/FACorreiaa/pocket-ledger/internal/domain/import/repository"
	"github.com/FACorreiaa/pocket-ledger/internal/jobs"
	"github.com/FACorreiaa/pocket-ledger/pkg/metrics"
	"github.com/FACorreiaa/pocket-ledger/pkg/storage"
)

// ErrorCode classifies import failures for API consumers.
type ErrorCode string

const (
	CodeValidationError    ErrorCode = "VALIDATION_ERROR"
	CodeUnsupportedFormat  ErrorCode = "UNSUPPORTED_FORMAT"
	CodeParseError         ErrorCode = "PARSE_ERROR"
	CodeEmptyFile          ErrorCode = "EMPTY_FILE"
	CodeNotFound           ErrorCode = "NOT_FOUND"
	CodeStorageUnavailable ErrorCode = "STORAGE_UNAVAILABLE"
	CodeQueueUnavailable   ErrorCode = "QUEUE_UNAVAILABLE"
	CodeInternalError      ErrorCode = "INTERNAL_ERROR"
)

// ImportError is the typed failure the import surface returns. Handlers map
// the code onto an HTTP status.
type ImportError struct {
	Code    ErrorCode
	Message string
}

func (e *ImportError) Error() string {
	return e.Message
}

// HTTPStatus maps the error code onto a response status.
func (e *ImportError) HTTPStatus() int {
	switch e.Code {
	case CodeValidationError, CodeUnsupportedFormat, CodeParseError, CodeEmptyFile:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func internalError(message string) *ImportError {
	return &ImportError{Code: CodeInternalError, Message: message}
}

// Categorizer suggests a category name for a bare transaction description.
type Categorizer interface {
	Suggest(ctx context.Context, description string) (category string, confidence float64, ok bool)
}

// defaultCategoryName is created per tenant on first use when an upload
// names no default category.
const defaultCategoryName = "Uncategorized"

// suggestionThreshold is the minimum categorizer confidence applied to a
// transaction without a source category hint.
const suggestionThreshold = 0.8

// ImportService orchestrates statement uploads: validation, format
// dispatch, queueing of heavy PDF work, and persistence.
type ImportService struct {
	repo         repository.ImportRepository
	accountRepo  accountrepo.AccountRepository
	categoryRepo categoryrepo.CategoryRepository
	storage      storage.Storage   // optional: nil disables archiving and async imports
	publisher    jobs.Publisher    // optional: nil forces PDFs through the sync path
	categorizer  Categorizer       // optional: nil skips suggestions
	metrics      *metrics.Metrics  // optional
	tracer       trace.Tracer
	logger       *slog.Logger
}

// NewImportService creates a new import service
func NewImportService(
	repo repository.ImportRepository,
	accountRepo accountrepo.AccountRepository,
	categoryRepo categoryrepo.CategoryRepository,
	logger *slog.Logger,
) *ImportService {
	return &ImportService{
		repo:         repo,
		accountRepo:  accountRepo,
		categoryRepo: categoryRepo,
		tracer:       otel.Tracer("import-service"),
		logger:       logger,
	}
}

// WithStorage adds object storage for archiving and async PDF imports
func (s *ImportService) WithStorage(store storage.Storage) *ImportService {
	s.storage = store
	return s
}

// WithPublisher adds the job queue used for async PDF imports
func (s *ImportService) WithPublisher(publisher jobs.Publisher) *ImportService {
	s.publisher = publisher
	return s
}

// WithCategorizer adds category suggestions for uncategorized rows
func (s *ImportService) WithCategorizer(categorizer Categorizer) *ImportService {
	s.categorizer = categorizer
	return s
}

// WithMetrics adds Prometheus instrumentation
func (s *ImportService) WithMetrics(m *metrics.Metrics) *ImportService {
	s.metrics = m
	return s
}

// ImportInput carries one uploaded statement.
type ImportInput struct {
	TenantID          uuid.UUID
	UserID            uuid.UUID
	AccountID         uuid.UUID
	DefaultCategoryID *uuid.UUID
	FileName          string
	Data              []byte
	CheckDuplicates   bool
	// NotifyEmail receives the completion email for async imports when the
	// mailer is configured.
	NotifyEmail string
}

// ImportOutcome is the API-facing result of an upload. Queued outcomes
// carry only the log id; synchronous outcomes carry the finalized counts.
type ImportOutcome struct {
	LogID            uuid.UUID
	Status           repository.ImportStatus
	Queued           bool
	Imported         int
	Skipped          int
	Total            int
	AccountID        uuid.UUID
	AccountName      string
	NewBalanceCents  int64
	Currency         string
	Transactions     []*repository.Transaction
	Errors           []string
	ProcessingTimeMs int64
}

// previewLimit bounds how many created transactions an upload response
// carries.
const previewLimit = 10

// Import processes one uploaded statement end to end. PDFs go through the
// queue when storage and a publisher are configured; everything else is
// parsed and persisted within the request.
func (s *ImportService) Import(ctx context.Context, input ImportInput) (*ImportOutcome, error) {
	start := time.Now()

	if len(input.Data) == 0 {
		return nil, &ImportError{Code: CodeValidationError, Message: "file is empty"}
	}
	if input.FileName == "" {
		return nil, &ImportError{Code: CodeValidationError, Message: "file name is required"}
	}
	if input.AccountID == uuid.Nil {
		return nil, &ImportError{Code: CodeValidationError, Message: "account id is required"}
	}

	format, err := parser.DetectFormat(input.FileName)
	if err != nil {
		return nil, &ImportError{Code: CodeUnsupportedFormat, Message: err.Error()}
	}

	account, err := s.accountRepo.GetAccount(ctx, input.TenantID, input.AccountID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &ImportError{Code: CodeNotFound, Message: "account not found"}
	}
	if err != nil {
		s.logger.Error("failed to load account", "account_id", input.AccountID, "error", err)
		return nil, internalError("failed to load account")
	}

	defaultCategoryID, impErr := s.resolveDefaultCategory(ctx, input.TenantID, input.DefaultCategoryID)
	if impErr != nil {
		return nil, impErr
	}

	log := &repository.ImportLog{
		TenantID:  input.TenantID,
		UserID:    input.UserID,
		AccountID: input.AccountID,
		FileName:  input.FileName,
		FileType:  format.String(),
		FileSize:  int64(len(input.Data)),
	}
	if err := s.repo.CreateImportLog(ctx, log); err != nil {
		s.logger.Error("failed to create import log", "error", err)
		return nil, internalError("failed to create import log")
	}

	if s.metrics != nil {
		s.metrics.ImportsStarted.WithLabelValues(format.String()).Inc()
	}

	if format.Queued() && s.storage != nil && s.publisher != nil {
		return s.enqueueImport(ctx, input, account, defaultCategoryID, log, start)
	}
	return s.importSync(ctx, input, format, account, defaultCategoryID, log, start)
}

// enqueueImport stores the raw file and hands the heavy parsing to the
// worker. The caller polls the import log for the outcome.
func (s *ImportService) enqueueImport(
	ctx context.Context,
	input ImportInput,
	account *accountrepo.Account,
	defaultCategoryID uuid.UUID,
	log *repository.ImportLog,
	start time.Time,
) (*ImportOutcome, error) {
	ctx, span := s.tracer.Start(ctx, "import.enqueue")
	defer span.End()

	key := fmt.Sprintf("imports/%s/%s/%s-%d-%s",
		input.TenantID, input.AccountID, log.ID, start.UnixMilli(),
		storage.SanitizeFilename(input.FileName))

	if _, err := s.storage.Put(ctx, key, "application/pdf", bytes.NewReader(input.Data)); err != nil {
		s.logger.Error("failed to store file for async import", "key", key, "error", err)
		s.finalizeFailed(ctx, log.ID, "could not store file for processing", start, 0)
		return nil, &ImportError{Code: CodeStorageUnavailable, Message: "could not store file for processing"}
	}

	job := &jobs.PDFImportJob{
		TenantID:          input.TenantID,
		UserID:            input.UserID,
		AccountID:         input.AccountID,
		LogID:             log.ID,
		FileKey:           key,
		FileName:          input.FileName,
		DefaultCategoryID: defaultCategoryID,
		CheckDuplicates:   input.CheckDuplicates,
		NotifyEmail:       input.NotifyEmail,
	}
	if err := s.publisher.PublishPDFImport(ctx, job); err != nil {
		s.logger.Error("failed to publish pdf import job", "log_id", log.ID, "error", err)
		s.finalizeFailed(ctx, log.ID, "could not queue file for processing", start, 0)
		return nil, &ImportError{Code: CodeQueueUnavailable, Message: "could not queue file for processing"}
	}

	s.logger.Info("pdf import queued",
		"log_id", log.ID,
		"file", input.FileName,
		"key", key,
	)

	return &ImportOutcome{
		LogID:       log.ID,
		Status:      repository.StatusProcessing,
		Queued:      true,
		AccountID:   account.ID,
		AccountName: account.Name,
		Currency:    account.Currency,
	}, nil
}

// importSync parses and persists within the request.
func (s *ImportService) importSync(
	ctx context.Context,
	input ImportInput,
	format parser.Format,
	account *accountrepo.Account,
	defaultCategoryID uuid.UUID,
	log *repository.ImportLog,
	start time.Time,
) (*ImportOutcome, error) {
	ctx, span := s.tracer.Start(ctx, "import.sync")
	defer span.End()

	parseStart := time.Now()
	parsed, err := parser.ParseStatement(format, input.Data, parser.DefaultOptions())
	if s.metrics != nil {
		s.metrics.ParseDuration.WithLabelValues(format.String()).Observe(time.Since(parseStart).Seconds())
	}
	if err != nil {
		s.logger.Warn("failed to parse statement", "format", format.String(), "error", err)
		message := fmt.Sprintf("failed to parse file: %v", err)
		s.finalizeFailed(ctx, log.ID, message, start, 0)
		return nil, &ImportError{Code: CodeParseError, Message: message}
	}
	if len(parsed) == 0 {
		s.finalizeFailed(ctx, log.ID, "no transactions found in file", start, 0)
		return nil, &ImportError{Code: CodeEmptyFile, Message: "no transactions found in file"}
	}

	s.applyCategorySuggestions(ctx, parsed)

	result, err := s.persistTransactionsFromImport(ctx, persistInput{
		TenantID:          input.TenantID,
		Account:           account,
		DefaultCategoryID: defaultCategoryID,
		Transactions:      parsed,
		LogID:             &log.ID,
		StartedAt:         start,
		CheckDuplicates:   input.CheckDuplicates,
	})
	if err != nil {
		s.logger.Error("failed to persist import", "log_id", log.ID, "error", err)
		return nil, internalError("failed to persist transactions")
	}

	s.archiveOriginal(ctx, input, start)

	preview := result.Created
	if len(preview) > previewLimit {
		preview = preview[:previewLimit]
	}

	return &ImportOutcome{
		LogID:            log.ID,
		Status:           result.Status,
		Imported:         result.Imported,
		Skipped:          result.Skipped,
		Total:            result.Imported + result.Skipped,
		AccountID:        account.ID,
		AccountName:      account.Name,
		NewBalanceCents:  result.FinalBalanceCents,
		Currency:         account.Currency,
		Transactions:     preview,
		Errors:           result.Errors,
		ProcessingTimeMs: result.ElapsedMs,
	}, nil
}

// resolveDefaultCategory validates a caller-provided category or falls back
// to the tenant's catch-all, creating it on first use.
func (s *ImportService) resolveDefaultCategory(ctx context.Context, tenantID uuid.UUID, provided *uuid.UUID) (uuid.UUID, *ImportError) {
	if provided != nil && *provided != uuid.Nil {
		category, err := s.categoryRepo.GetCategory(ctx, tenantID, *provided)
		if errors.Is(err, sql.ErrNoRows) {
			return uuid.Nil, &ImportError{Code: CodeNotFound, Message: "default category not found"}
		}
		if err != nil {
			s.logger.Error("failed to load default category", "category_id", *provided, "error", err)
			return uuid.Nil, internalError("failed to load default category")
		}
		return category.ID, nil
	}

	category, err := s.categoryRepo.FindByName(ctx, tenantID, defaultCategoryName)
	if err == nil {
		return category.ID, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		s.logger.Error("failed to look up default category", "error", err)
		return uuid.Nil, internalError("failed to resolve default category")
	}

	created, err := s.categoryRepo.CreateIfAbsent(ctx, &categoryrepo.Category{
		TenantID: tenantID,
		Name:     defaultCategoryName,
		Type:     "expense",
		Color:    categoryrepo.RandomColor(),
	})
	if err != nil {
		s.logger.Error("failed to create default category", "error", err)
		return uuid.Nil, internalError("failed to resolve default category")
	}
	return created.ID, nil
}

// applyCategorySuggestions fills missing category hints. Explicit hints
// from the source file are never overridden; they are fed back to the
// categorizer instead when it knows how to learn.
func (s *ImportService) applyCategorySuggestions(ctx context.Context, parsed []parser.ParsedTransaction) {
	if s.categorizer == nil {
		return
	}
	learner, canLearn := s.categorizer.(interface{ Learn(description, category string) })
	for i := range parsed {
		if parsed[i].Category != "" {
			if canLearn {
				learner.Learn(parsed[i].Description, parsed[i].Category)
			}
			continue
		}
		name, confidence, ok := s.categorizer.Suggest(ctx, parsed[i].Description)
		if ok && confidence >= suggestionThreshold {
			parsed[i].Category = name
		}
	}
}

// archiveOriginal keeps a copy of the uploaded bytes. Failure is logged and
// never fails the import.
func (s *ImportService) archiveOriginal(ctx context.Context, input ImportInput, start time.Time) {
	if s.storage == nil {
		return
	}
	key := fmt.Sprintf("%s/%s/%d-%s",
		input.TenantID, input.AccountID, start.UnixMilli(),
		storage.SanitizeFilename(input.FileName))
	if _, err := s.storage.Put(ctx, key, "", bytes.NewReader(input.Data)); err != nil {
		s.logger.Warn("failed to archive statement", "key", key, "error", err)
	}
}

// finalizeFailed closes an import log that never reached the persistence
// engine.
func (s *ImportService) finalizeFailed(ctx context.Context, logID uuid.UUID, message string, startedAt time.Time, total int) {
	errMsg := message
	fin := repository.ImportFinalization{
		Status:           repository.StatusFailed,
		Total:            total,
		ErrorMessage:     &errMsg,
		CompletedAt:      time.Now(),
		ProcessingTimeMs: time.Since(startedAt).Milliseconds(),
	}
	if err := s.repo.FinalizeImportLog(ctx, logID, fin); err != nil {
		s.logger.Warn("failed to finalize import log", "log_id", logID, "error", err)
	}
	if s.metrics != nil {
		s.metrics.ImportsCompleted.WithLabelValues(string(repository.StatusFailed)).Inc()
	}
}

// GetImport fetches one import log scoped to a tenant.
func (s *ImportService) GetImport(ctx context.Context, tenantID, id uuid.UUID) (*repository.ImportLog, error) {
	log, err := s.repo.GetImportLog(ctx, tenantID, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &ImportError{Code: CodeNotFound, Message: "import not found"}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get import log: %w", err)
	}
	return log, nil
}

// ListImports returns a tenant's import history, newest first.
func (s *ImportService) ListImports(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*repository.ImportLog, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.ListImportLogs(ctx, tenantID, limit, offset)
}
