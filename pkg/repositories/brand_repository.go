// Package repositories provides data access for the catalog graph. All
// repositories read their connection (pool or per-row transaction) from the
// request context via database.GetQuerier.
package repositories

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/royana/catalog-engine/pkg/database"
	"github.com/royana/catalog-engine/pkg/models"
)

// BrandRepository provides data access for brands.
type BrandRepository interface {
	GetOrCreate(ctx context.Context, code, name string) (*models.Brand, error)
	GetByCode(ctx context.Context, code string) (*models.Brand, error)
}

type brandRepository struct{}

// NewBrandRepository creates a new BrandRepository.
func NewBrandRepository() BrandRepository {
	return &brandRepository{}
}

var _ BrandRepository = (*brandRepository)(nil)

func (r *brandRepository) GetOrCreate(ctx context.Context, code, name string) (*models.Brand, error) {
	q, ok := database.GetQuerier(ctx)
	if !ok {
		return nil, fmt.Errorf("no querier in context")
	}

	// The code is the natural key; a concurrent insert loses the race but
	// lands on the same row.
	query := `
		INSERT INTO catalog_brands (code, name)
		VALUES ($1, $2)
		ON CONFLICT (code) DO UPDATE SET name = EXCLUDED.name, updated_at = NOW()
		RETURNING id, code, name, description, created_at, updated_at`

	var b models.Brand
	err := q.QueryRow(ctx, query, code, name).Scan(
		&b.ID, &b.Code, &b.Name, &b.Description, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert brand: %w", err)
	}

	return &b, nil
}

func (r *brandRepository) GetByCode(ctx context.Context, code string) (*models.Brand, error) {
	q, ok := database.GetQuerier(ctx)
	if !ok {
		return nil, fmt.Errorf("no querier in context")
	}

	query := `
		SELECT id, code, name, description, created_at, updated_at
		FROM catalog_brands
		WHERE code = $1`

	var b models.Brand
	err := q.QueryRow(ctx, query, code).Scan(
		&b.ID, &b.Code, &b.Name, &b.Description, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get brand: %w", err)
	}

	return &b, nil
}
