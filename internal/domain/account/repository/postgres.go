package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/FACorreiaa/pocket-ledger/pkg/db"
)

// PostgresAccountRepository implements AccountRepository using PostgreSQL
type PostgresAccountRepository struct {
	pool db.PgxPool
}

// NewPostgresAccountRepository creates a new PostgreSQL account repository
func NewPostgresAccountRepository(pool db.PgxPool) *PostgresAccountRepository {
	return &PostgresAccountRepository{pool: pool}
}

// GetAccount retrieves an account by id within a tenant
func (r *PostgresAccountRepository) GetAccount(ctx context.Context, tenantID, id uuid.UUID) (*Account, error) {
	query := `
		SELECT id, tenant_id, name, balance_cents, currency, created_at, updated_at
		FROM accounts
		WHERE tenant_id = $1 AND id = $2`

	account := &Account{}
	err := r.pool.QueryRow(ctx, query, tenantID, id).Scan(
		&account.ID,
		&account.TenantID,
		&account.Name,
		&account.BalanceCents,
		&account.Currency,
		&account.CreatedAt,
		&account.UpdatedAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, sql.ErrNoRows
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return account, nil
}
