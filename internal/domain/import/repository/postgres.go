package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/FACorreiaa/pocket-ledger/pkg/db"
)

// PostgresImportRepository implements ImportRepository using PostgreSQL
type PostgresImportRepository struct {
	pool db.PgxPool
}

// NewPostgresImportRepository creates a new PostgreSQL import repository
func NewPostgresImportRepository(pool db.PgxPool) *PostgresImportRepository {
	return &PostgresImportRepository{pool: pool}
}

// CreateImportLog inserts a new import log in processing state
func (r *PostgresImportRepository) CreateImportLog(ctx context.Context, log *ImportLog) error {
	query := `
		INSERT INTO import_logs (id, tenant_id, user_id, account_id, file_name, file_type, file_size, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at`

	if log.ID == uuid.Nil {
		log.ID = uuid.New()
	}
	if log.Status == "" {
		log.Status = StatusProcessing
	}

	err := r.pool.QueryRow(ctx, query,
		log.ID,
		log.TenantID,
		log.UserID,
		log.AccountID,
		log.FileName,
		log.FileType,
		log.FileSize,
		log.Status,
	).Scan(&log.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to create import log: %w", err)
	}
	return nil
}

const importLogColumns = `id, tenant_id, user_id, account_id, file_name, file_type, file_size, status,
		transactions_total, transactions_imported, transactions_failed,
		error_message, error_details, created_at, completed_at, processing_time_ms`

// GetImportLog retrieves an import log by id within a tenant
func (r *PostgresImportRepository) GetImportLog(ctx context.Context, tenantID, id uuid.UUID) (*ImportLog, error) {
	query := `
		SELECT ` + importLogColumns + `
		FROM import_logs
		WHERE tenant_id = $1 AND id = $2`

	log, err := scanImportLog(r.pool.QueryRow(ctx, query, tenantID, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, sql.ErrNoRows
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get import log: %w", err)
	}
	return log, nil
}

// ListImportLogs retrieves a tenant's import logs, newest first
func (r *PostgresImportRepository) ListImportLogs(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*ImportLog, error) {
	query := `
		SELECT ` + importLogColumns + `
		FROM import_logs
		WHERE tenant_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`

	rows, err := r.pool.Query(ctx, query, tenantID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list import logs: %w", err)
	}
	defer rows.Close()

	var logs []*ImportLog
	for rows.Next() {
		log, err := scanImportLog(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan import log: %w", err)
		}
		logs = append(logs, log)
	}
	return logs, nil
}

// FinalizeImportLog writes the terminal state of a log. The status guard
// makes finalization idempotent: once a log left processing, later calls
// change nothing.
func (r *PostgresImportRepository) FinalizeImportLog(ctx context.Context, id uuid.UUID, fin ImportFinalization) error {
	query := `
		UPDATE import_logs
		SET status = $2, transactions_total = $3, transactions_imported = $4,
			transactions_failed = $5, error_message = $6, error_details = $7,
			completed_at = $8, processing_time_ms = $9
		WHERE id = $1 AND status = 'processing'`

	var details any
	if len(fin.ErrorDetails) > 0 {
		encoded, err := json.Marshal(fin.ErrorDetails)
		if err != nil {
			return fmt.Errorf("failed to encode error details: %w", err)
		}
		details = string(encoded)
	}

	_, err := r.pool.Exec(ctx, query,
		id,
		fin.Status,
		fin.Total,
		fin.Imported,
		fin.Failed,
		fin.ErrorMessage,
		details,
		fin.CompletedAt,
		fin.ProcessingTimeMs,
	)
	if err != nil {
		return fmt.Errorf("failed to finalize import log: %w", err)
	}
	return nil
}

// FindTransactionByProviderID looks up a transaction by its provider id
// within a tenant's account
func (r *PostgresImportRepository) FindTransactionByProviderID(ctx context.Context, tenantID, accountID uuid.UUID, providerTxID string) (*Transaction, error) {
	query := `
		SELECT id, tenant_id, account_id, category_id, date, description, amount_cents, type,
			notes, provider_transaction_id, import_log_id, created_at, updated_at
		FROM transactions
		WHERE tenant_id = $1 AND account_id = $2 AND provider_transaction_id = $3`

	tx := &Transaction{}
	err := r.pool.QueryRow(ctx, query, tenantID, accountID, providerTxID).Scan(
		&tx.ID,
		&tx.TenantID,
		&tx.AccountID,
		&tx.CategoryID,
		&tx.Date,
		&tx.Description,
		&tx.AmountCents,
		&tx.Type,
		&tx.Notes,
		&tx.ProviderTransactionID,
		&tx.ImportLogID,
		&tx.CreatedAt,
		&tx.UpdatedAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, sql.ErrNoRows
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find transaction by provider id: %w", err)
	}
	return tx, nil
}

// InsertTransactionWithBalance inserts a transaction and moves the account
// balance by its signed amount inside one database transaction. The
// increment runs against the stored value, so concurrent imports into the
// same account cannot lose updates.
func (r *PostgresImportRepository) InsertTransactionWithBalance(ctx context.Context, transaction *Transaction) (int64, error) {
	dbTx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer dbTx.Rollback(ctx)

	if transaction.ID == uuid.Nil {
		transaction.ID = uuid.New()
	}

	insertQuery := `
		INSERT INTO transactions (id, tenant_id, account_id, category_id, date, description,
			amount_cents, type, notes, provider_transaction_id, import_log_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING created_at`

	err = dbTx.QueryRow(ctx, insertQuery,
		transaction.ID,
		transaction.TenantID,
		transaction.AccountID,
		transaction.CategoryID,
		transaction.Date,
		transaction.Description,
		transaction.AmountCents,
		transaction.Type,
		transaction.Notes,
		transaction.ProviderTransactionID,
		transaction.ImportLogID,
	).Scan(&transaction.CreatedAt)
	if err != nil {
		return 0, fmt.Errorf("failed to insert transaction: %w", err)
	}

	delta := transaction.AmountCents
	if transaction.Type == "expense" {
		delta = -delta
	}

	updateQuery := `
		UPDATE accounts
		SET balance_cents = balance_cents + $2, updated_at = now()
		WHERE id = $1 AND tenant_id = $3
		RETURNING balance_cents`

	var newBalance int64
	err = dbTx.QueryRow(ctx, updateQuery, transaction.AccountID, delta, transaction.TenantID).Scan(&newBalance)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, sql.ErrNoRows
	}
	if err != nil {
		return 0, fmt.Errorf("failed to update account balance: %w", err)
	}

	if err := dbTx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return newBalance, nil
}

// MarkStaleImportsFailed fails logs stuck in processing since before the
// cutoff
func (r *PostgresImportRepository) MarkStaleImportsFailed(ctx context.Context, olderThan time.Time) (int64, error) {
	query := `
		UPDATE import_logs
		SET status = 'failed', error_message = 'import timed out', completed_at = now()
		WHERE status = 'processing' AND created_at < $1`

	result, err := r.pool.Exec(ctx, query, olderThan)
	if err != nil {
		return 0, fmt.Errorf("failed to mark stale imports: %w", err)
	}
	return result.RowsAffected(), nil
}

// rowScanner covers pgx.Row and pgx.Rows for the shared scan helper.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanImportLog(row rowScanner) (*ImportLog, error) {
	log := &ImportLog{}
	var details []byte

	err := row.Scan(
		&log.ID,
		&log.TenantID,
		&log.UserID,
		&log.AccountID,
		&log.FileName,
		&log.FileType,
		&log.FileSize,
		&log.Status,
		&log.TransactionsTotal,
		&log.TransactionsImported,
		&log.TransactionsFailed,
		&log.ErrorMessage,
		&details,
		&log.CreatedAt,
		&log.CompletedAt,
		&log.ProcessingTimeMs,
	)
	if err != nil {
		return nil, err
	}

	if len(details) > 0 {
		if err := json.Unmarshal(details, &log.ErrorDetails); err != nil {
			return nil, fmt.Errorf("failed to decode error details: %w", err)
		}
	}
	return log, nil
}
