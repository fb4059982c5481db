// Package repository provides data access for import runs and the
// transactions they create.
package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ImportStatus is the lifecycle state of an import log.
type ImportStatus string

const (
	StatusProcessing ImportStatus = "processing"
	StatusSuccess    ImportStatus = "success"
	StatusPartial    ImportStatus = "partial"
	StatusFailed     ImportStatus = "failed"
)

// ImportLog records one statement upload from creation to its terminal
// state. Async callers poll it as the source of truth.
type ImportLog struct {
	ID                   uuid.UUID    `db:"id"`
	TenantID             uuid.UUID    `db:"tenant_id"`
	UserID               uuid.UUID    `db:"user_id"`
	AccountID            uuid.UUID    `db:"account_id"`
	FileName             string       `db:"file_name"`
	FileType             string       `db:"file_type"`
	FileSize             int64        `db:"file_size"`
	Status               ImportStatus `db:"status"`
	TransactionsTotal    int          `db:"transactions_total"`
	TransactionsImported int          `db:"transactions_imported"`
	TransactionsFailed   int          `db:"transactions_failed"`
	ErrorMessage         *string      `db:"error_message"`
	ErrorDetails         []string     `db:"error_details"`
	CreatedAt            time.Time    `db:"created_at"`
	CompletedAt          *time.Time   `db:"completed_at"`
	ProcessingTimeMs     *int64       `db:"processing_time_ms"`
}

// Transaction is a stored ledger transaction.
type Transaction struct {
	ID                    uuid.UUID  `db:"id"`
	TenantID              uuid.UUID  `db:"tenant_id"`
	AccountID             uuid.UUID  `db:"account_id"`
	CategoryID            uuid.UUID  `db:"category_id"`
	Date                  time.Time  `db:"date"`
	Description           string     `db:"description"`
	AmountCents           int64      `db:"amount_cents"`
	Type                  string     `db:"type"`
	Notes                 *string    `db:"notes"`
	ProviderTransactionID *string    `db:"provider_transaction_id"`
	ImportLogID           *uuid.UUID `db:"import_log_id"`
	CreatedAt             time.Time  `db:"created_at"`
	UpdatedAt             time.Time  `db:"updated_at"`
}

// ImportFinalization carries the terminal values written to an import log.
type ImportFinalization struct {
	Status           ImportStatus
	Total            int
	Imported         int
	Failed           int
	ErrorMessage     *string
	ErrorDetails     []string
	CompletedAt      time.Time
	ProcessingTimeMs int64
}

// ImportRepository defines data access operations for imports.
type ImportRepository interface {
	CreateImportLog(ctx context.Context, log *ImportLog) error
	// GetImportLog fetches a log scoped to its tenant; sql.ErrNoRows on miss.
	GetImportLog(ctx context.Context, tenantID, id uuid.UUID) (*ImportLog, error)
	// ListImportLogs returns a tenant's logs newest first.
	ListImportLogs(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*ImportLog, error)
	// FinalizeImportLog writes the terminal state of a log. Only rows still
	// in processing are touched, so a second finalize is a no-op.
	FinalizeImportLog(ctx context.Context, id uuid.UUID, fin ImportFinalization) error
	// FindTransactionByProviderID looks up a prior import of the same
	// provider transaction id; sql.ErrNoRows when none exists. Formats
	// without provider ids (CSV, spreadsheets, PDF) bypass this lookup and
	// therefore get no dedup on re-upload.
	FindTransactionByProviderID(ctx context.Context, tenantID, accountID uuid.UUID, providerTxID string) (*Transaction, error)
	// InsertTransactionWithBalance inserts the transaction and applies its
	// balance impact to the account in one database transaction, returning
	// the account's new balance.
	InsertTransactionWithBalance(ctx context.Context, tx *Transaction) (int64, error)
	// MarkStaleImportsFailed fails logs stuck in processing since before
	// the cutoff, returning how many were flipped.
	MarkStaleImportsFailed(ctx context.Context, olderThan time.Time) (int64, error)
}
