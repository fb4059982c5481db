// Package repository provides data access for accounts. Accounts are owned
// by the wider ledger; the import pipeline reads them and adjusts their
// balance through the import repository's atomic insert.
package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Account is a tenant-scoped ledger account.
type Account struct {
	ID           uuid.UUID `db:"id"`
	TenantID     uuid.UUID `db:"tenant_id"`
	Name         string    `db:"name"`
	BalanceCents int64     `db:"balance_cents"`
	Currency     string    `db:"currency"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

// AccountRepository defines the account operations the import pipeline
// consumes.
type AccountRepository interface {
	// GetAccount fetches an account scoped to its tenant. Returns
	// sql.ErrNoRows when the account does not exist or belongs to a
	// different tenant.
	GetAccount(ctx context.Context, tenantID, id uuid.UUID) (*Account, error)
}
