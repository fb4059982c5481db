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

// PostgresCategoryRepository implements CategoryRepository using PostgreSQL
type PostgresCategoryRepository struct {
	pool db.PgxPool
}

// NewPostgresCategoryRepository creates a new PostgreSQL category repository
func NewPostgresCategoryRepository(pool db.PgxPool) *PostgresCategoryRepository {
	return &PostgresCategoryRepository{pool: pool}
}

// ListCategories retrieves all categories for a tenant
func (r *PostgresCategoryRepository) ListCategories(ctx context.Context, tenantID uuid.UUID) ([]*Category, error) {
	query := `
		SELECT id, tenant_id, name, type, color, created_at
		FROM categories
		WHERE tenant_id = $1
		ORDER BY name ASC`

	rows, err := r.pool.Query(ctx, query, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	var categories []*Category
	for rows.Next() {
		c := &Category{}
		if err := rows.Scan(&c.ID, &c.TenantID, &c.Name, &c.Type, &c.Color, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, c)
	}
	return categories, nil
}

// GetCategory retrieves a category by id within a tenant
func (r *PostgresCategoryRepository) GetCategory(ctx context.Context, tenantID, id uuid.UUID) (*Category, error) {
	query := `
		SELECT id, tenant_id, name, type, color, created_at
		FROM categories
		WHERE tenant_id = $1 AND id = $2`

	return r.scanOne(r.pool.QueryRow(ctx, query, tenantID, id))
}

// FindByName retrieves a category by case-insensitive name within a tenant
func (r *PostgresCategoryRepository) FindByName(ctx context.Context, tenantID uuid.UUID, name string) (*Category, error) {
	query := `
		SELECT id, tenant_id, name, type, color, created_at
		FROM categories
		WHERE tenant_id = $1 AND lower(name) = lower($2)`

	return r.scanOne(r.pool.QueryRow(ctx, query, tenantID, name))
}

// CreateIfAbsent inserts a category, tolerating a concurrent insert of the
// same name, and returns the row that won.
func (r *PostgresCategoryRepository) CreateIfAbsent(ctx context.Context, category *Category) (*Category, error) {
	query := `
		INSERT INTO categories (id, tenant_id, name, type, color)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (tenant_id, lower(name)) DO NOTHING`

	if category.ID == uuid.Nil {
		category.ID = uuid.New()
	}

	_, err := r.pool.Exec(ctx, query,
		category.ID,
		category.TenantID,
		category.Name,
		category.Type,
		category.Color,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create category: %w", err)
	}

	return r.FindByName(ctx, category.TenantID, category.Name)
}

func (r *PostgresCategoryRepository) scanOne(row pgx.Row) (*Category, error) {
	c := &Category{}
	err := row.Scan(&c.ID, &c.TenantID, &c.Name, &c.Type, &c.Color, &c.CreatedAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, sql.ErrNoRows
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get category: %w", err)
	}
	return c, nil
}
