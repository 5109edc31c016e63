package repositories

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/royana/catalog-engine/pkg/database"
	"github.com/royana/catalog-engine/pkg/models"
)

// CategoryRepository provides data access for categories.
type CategoryRepository interface {
	GetOrCreate(ctx context.Context, code, name string) (*models.Category, error)
	GetByCode(ctx context.Context, code string) (*models.Category, error)
}

type categoryRepository struct{}

// NewCategoryRepository creates a new CategoryRepository.
func NewCategoryRepository() CategoryRepository {
	return &categoryRepository{}
}

var _ CategoryRepository = (*categoryRepository)(nil)

func (r *categoryRepository) GetOrCreate(ctx context.Context, code, name string) (*models.Category, error) {
	q, ok := database.GetQuerier(ctx)
	if !ok {
		return nil, fmt.Errorf("no querier in context")
	}

	query := `
		INSERT INTO catalog_categories (code, name)
		VALUES ($1, $2)
		ON CONFLICT (code) DO UPDATE SET name = EXCLUDED.name, updated_at = NOW()
		RETURNING id, code, name, description, created_at, updated_at`

	var c models.Category
	err := q.QueryRow(ctx, query, code, name).Scan(
		&c.ID, &c.Code, &c.Name, &c.Description, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert category: %w", err)
	}

	return &c, nil
}

func (r *categoryRepository) GetByCode(ctx context.Context, code string) (*models.Category, error) {
	q, ok := database.GetQuerier(ctx)
	if !ok {
		return nil, fmt.Errorf("no querier in context")
	}

	query := `
		SELECT id, code, name, description, created_at, updated_at
		FROM catalog_categories
		WHERE code = $1`

	var c models.Category
	err := q.QueryRow(ctx, query, code).Scan(
		&c.ID, &c.Code, &c.Name, &c.Description, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get category: %w", err)
	}

	return &c, nil
}
