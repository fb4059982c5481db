package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	accountrepo "github.com/FACorreiaa/pocket-ledger/internal/domain/account/repository"
	categoryrepo "github.com/FACorreiaa/pocket-ledger/internal/domain/category/repository"
	"github.com/FACorreiaa/pocket-ledger/internal/domain/import/parser"
	"github.com/FACorreiaa/pocket-ledger/internal/domain/import/repository"
)

// persistInput feeds one parsed batch into the persistence engine.
type persistInput struct {
	TenantID          uuid.UUID
	Account           *accountrepo.Account
	DefaultCategoryID uuid.UUID
	Transactions      []parser.ParsedTransaction
	// LogID, when set, is finalized with the run's outcome.
	LogID           *uuid.UUID
	StartedAt       time.Time
	CheckDuplicates bool
}

// persistResult is the engine's accounting of one batch.
type persistResult struct {
	Status            repository.ImportStatus
	Imported          int
	Skipped           int
	Created           []*repository.Transaction
	Errors            []string
	FinalBalanceCents int64
	ElapsedMs         int64
}

// persistTransactionsFromImport writes a parsed batch row by row. Each row
// is deduplicated, categorized, and inserted with its balance impact; a row
// that fails is skipped with a recorded error and never aborts the rest of
// the batch. The import log, when present, is finalized exactly once.
func (s *ImportService) persistTransactionsFromImport(ctx context.Context, input persistInput) (*persistResult, error) {
	categories, err := s.categoryRepo.ListCategories(ctx, input.TenantID)
	if err != nil {
		if input.LogID != nil {
			s.finalizeFailed(ctx, *input.LogID, "failed to load categories", input.StartedAt, len(input.Transactions))
		}
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	byName := make(map[string]uuid.UUID, len(categories))
	for _, c := range categories {
		byName[strings.ToLower(c.Name)] = c.ID
	}

	result := &persistResult{FinalBalanceCents: input.Account.BalanceCents}

	for _, tx := range input.Transactions {
		if input.CheckDuplicates && tx.ProviderTransactionID != "" {
			_, err := s.repo.FindTransactionByProviderID(ctx, input.TenantID, input.Account.ID, tx.ProviderTransactionID)
			if err == nil {
				result.Skipped++
				continue
			}
			if !errors.Is(err, sql.ErrNoRows) {
				s.recordRowFailure(result, tx, err)
				continue
			}
		}

		categoryID, err := s.resolveRowCategory(ctx, input.TenantID, tx, input.DefaultCategoryID, byName)
		if err != nil {
			s.recordRowFailure(result, tx, err)
			continue
		}

		row := &repository.Transaction{
			TenantID:              input.TenantID,
			AccountID:             input.Account.ID,
			CategoryID:            categoryID,
			Date:                  tx.Date,
			Description:           tx.Description,
			AmountCents:           tx.AmountCents,
			Type:                  string(tx.Type),
			Notes:                 optionalString(tx.Notes),
			ProviderTransactionID: optionalString(tx.ProviderTransactionID),
			ImportLogID:           input.LogID,
		}
		newBalance, err := s.repo.InsertTransactionWithBalance(ctx, row)
		if err != nil {
			s.recordRowFailure(result, tx, err)
			continue
		}

		result.FinalBalanceCents = newBalance
		result.Imported++
		result.Created = append(result.Created, row)
	}

	switch {
	case result.Imported == 0 && result.Skipped > 0:
		result.Status = repository.StatusFailed
	case result.Skipped > 0:
		result.Status = repository.StatusPartial
	default:
		result.Status = repository.StatusSuccess
	}
	result.ElapsedMs = time.Since(input.StartedAt).Milliseconds()

	if input.LogID != nil {
		var errMsg *string
		if result.Status == repository.StatusFailed {
			m := "no transactions were imported"
			errMsg = &m
		}
		fin := repository.ImportFinalization{
			Status:           result.Status,
			Total:            result.Imported + result.Skipped,
			Imported:         result.Imported,
			Failed:           result.Skipped,
			ErrorMessage:     errMsg,
			ErrorDetails:     result.Errors,
			CompletedAt:      time.Now(),
			ProcessingTimeMs: result.ElapsedMs,
		}
		if err := s.repo.FinalizeImportLog(ctx, *input.LogID, fin); err != nil {
			s.logger.Warn("failed to finalize import log", "log_id", *input.LogID, "error", err)
		}
	}

	if s.metrics != nil {
		s.metrics.RowsImported.Add(float64(result.Imported))
		s.metrics.RowsSkipped.Add(float64(result.Skipped))
		s.metrics.ImportsCompleted.WithLabelValues(string(result.Status)).Inc()
	}

	s.logger.Info("import persisted",
		"account_id", input.Account.ID,
		"imported", result.Imported,
		"skipped", result.Skipped,
		"status", string(result.Status),
	)
	return result, nil
}

// resolveRowCategory maps a source category hint onto a tenant category,
// creating the category on first sight. Hints match case-insensitively;
// rows without a hint fall back to the run's default category.
func (s *ImportService) resolveRowCategory(
	ctx context.Context,
	tenantID uuid.UUID,
	tx parser.ParsedTransaction,
	defaultCategoryID uuid.UUID,
	byName map[string]uuid.UUID,
) (uuid.UUID, error) {
	hint := strings.TrimSpace(tx.Category)
	if hint == "" {
		return defaultCategoryID, nil
	}
	key := strings.ToLower(hint)
	if id, ok := byName[key]; ok {
		return id, nil
	}

	created, err := s.categoryRepo.CreateIfAbsent(ctx, &categoryrepo.Category{
		TenantID: tenantID,
		Name:     hint,
		Type:     string(tx.Type),
		Color:    categoryrepo.RandomColor(),
	})
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to create category %q: %w", hint, err)
	}
	byName[key] = created.ID
	return created.ID, nil
}

func (s *ImportService) recordRowFailure(result *persistResult, tx parser.ParsedTransaction, err error) {
	result.Skipped++
	result.Errors = append(result.Errors, fmt.Sprintf("Failed to import: %s - %v", tx.Description, err))
	s.logger.Warn("skipped transaction", "description", tx.Description, "error", err)
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
