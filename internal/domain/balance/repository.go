// Package balance reads the account standings the import pipeline maintains
// and derives per-day history from imported transactions.
package balance

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/FACorreiaa/pocket-ledger/pkg/db"
)

// AccountBalance is one account's current standing together with its recent
// movement.
type AccountBalance struct {
	AccountID      uuid.UUID
	AccountName    string
	Currency       string
	BalanceCents   int64
	Change30dCents int64
	LastActivity   *time.Time
}

// DailyBalance is the end-of-day standing for a single day of a history
// window.
type DailyBalance struct {
	Date         time.Time
	BalanceCents int64
	ChangeCents  int64
}

// Repository defines the read queries behind the balance endpoints.
type Repository interface {
	// AccountBalances returns every account of the tenant with its current
	// balance, net change over the last 30 days and latest transaction date.
	AccountBalances(ctx context.Context, tenantID uuid.UUID) ([]AccountBalance, error)
	// DailyBalances returns one row per day of the window, oldest first.
	// A non-nil accountID narrows the series to a single account.
	DailyBalances(ctx context.Context, tenantID uuid.UUID, accountID *uuid.UUID, days int) ([]DailyBalance, error)
}

// PostgresRepository implements Repository using PostgreSQL
type PostgresRepository struct {
	pool db.PgxPool
}

// NewPostgresRepository creates a new PostgreSQL balance repository
func NewPostgresRepository(pool db.PgxPool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// AccountBalances reads accounts.balance_cents directly; the 30-day change
// and last activity come from the transaction rows the importer wrote.
func (r *PostgresRepository) AccountBalances(ctx context.Context, tenantID uuid.UUID) ([]AccountBalance, error) {
	query := `
		SELECT a.id, a.name, a.currency, a.balance_cents,
			COALESCE(m.change_30d, 0), m.last_activity
		FROM accounts a
		LEFT JOIN (
			SELECT t.account_id,
				SUM(CASE WHEN t.type = 'income' THEN t.amount_cents ELSE -t.amount_cents END)
					FILTER (WHERE t.date >= CURRENT_DATE - 30) AS change_30d,
				MAX(t.date) AS last_activity
			FROM transactions t
			WHERE t.tenant_id = $1
			GROUP BY t.account_id
		) m ON m.account_id = a.id
		WHERE a.tenant_id = $1
		ORDER BY a.balance_cents DESC, a.name`

	rows, err := r.pool.Query(ctx, query, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list account balances: %w", err)
	}
	defer rows.Close()

	var balances []AccountBalance
	for rows.Next() {
		var b AccountBalance
		if err := rows.Scan(&b.AccountID, &b.AccountName, &b.Currency,
			&b.BalanceCents, &b.Change30dCents, &b.LastActivity); err != nil {
			return nil, fmt.Errorf("failed to scan account balance: %w", err)
		}
		balances = append(balances, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read account balances: %w", err)
	}
	return balances, nil
}

// DailyBalances anchors the series on the current balance and walks it
// backwards: each day's standing is the current total minus every change
// recorded after that day. Days before the first import therefore show the
// account's opening balance instead of zero.
func (r *PostgresRepository) DailyBalances(ctx context.Context, tenantID uuid.UUID, accountID *uuid.UUID, days int) ([]DailyBalance, error) {
	query := `
		WITH days AS (
			SELECT generate_series(
				CURRENT_DATE - ($2::int - 1), CURRENT_DATE, interval '1 day'
			)::date AS day
		),
		changes AS (
			SELECT t.date::date AS day,
				SUM(CASE WHEN t.type = 'income' THEN t.amount_cents ELSE -t.amount_cents END) AS change_cents
			FROM transactions t
			WHERE t.tenant_id = $1
				AND ($3::uuid IS NULL OR t.account_id = $3)
			GROUP BY t.date::date
		),
		anchor AS (
			SELECT COALESCE(SUM(a.balance_cents), 0) AS balance_cents
			FROM accounts a
			WHERE a.tenant_id = $1
				AND ($3::uuid IS NULL OR a.id = $3)
		)
		SELECT d.day,
			anchor.balance_cents
				- COALESCE((SELECT SUM(c.change_cents) FROM changes c WHERE c.day > d.day), 0),
			COALESCE(dc.change_cents, 0)
		FROM days d
		CROSS JOIN anchor
		LEFT JOIN changes dc ON dc.day = d.day
		ORDER BY d.day`

	rows, err := r.pool.Query(ctx, query, tenantID, days, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to query balance history: %w", err)
	}
	defer rows.Close()

	var series []DailyBalance
	for rows.Next() {
		var d DailyBalance
		if err := rows.Scan(&d.Date, &d.BalanceCents, &d.ChangeCents); err != nil {
			return nil, fmt.Errorf("failed to scan balance history: %w", err)
		}
		series = append(series, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read balance history: %w", err)
	}
	return series, nil
}
