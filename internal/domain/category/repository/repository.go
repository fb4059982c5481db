// Package repository provides data access for transaction categories.
package repository

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
)

// Category is a tenant-scoped transaction category. Names are unique per
// tenant, compared case-insensitively.
type Category struct {
	ID        uuid.UUID `db:"id"`
	TenantID  uuid.UUID `db:"tenant_id"`
	Name      string    `db:"name"`
	Type      string    `db:"type"` // "income" or "expense"
	Color     string    `db:"color"`
	CreatedAt time.Time `db:"created_at"`
}

// CategoryRepository defines data access operations for categories.
type CategoryRepository interface {
	// ListCategories returns every category of a tenant, sorted by name.
	ListCategories(ctx context.Context, tenantID uuid.UUID) ([]*Category, error)
	// GetCategory fetches one category scoped to its tenant; sql.ErrNoRows
	// on miss.
	GetCategory(ctx context.Context, tenantID, id uuid.UUID) (*Category, error)
	// FindByName matches a category name case-insensitively; sql.ErrNoRows
	// on miss.
	FindByName(ctx context.Context, tenantID uuid.UUID, name string) (*Category, error)
	// CreateIfAbsent inserts the category unless a same-named one already
	// exists for the tenant, then returns the canonical row either way.
	// Safe under concurrent imports creating the same name.
	CreateIfAbsent(ctx context.Context, category *Category) (*Category, error)
}

// categoryPalette holds the colors assigned to categories created during
// imports.
var categoryPalette = []string{
	"#ef4444", "#f97316", "#f59e0b", "#84cc16", "#22c55e",
	"#14b8a6", "#0ea5e9", "#6366f1", "#a855f7", "#ec4899",
}

// RandomColor picks a palette color for a newly created category.
func RandomColor() string {
	return categoryPalette[rand.IntN(len(categoryPalette))]
}
