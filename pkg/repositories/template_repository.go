package repositories

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/royana/catalog-engine/pkg/database"
	"github.com/royana/catalog-engine/pkg/models"
)

// TemplateRepository provides data access for product templates (SPUs).
type TemplateRepository interface {
	// GetOrCreate upserts by template code and fills in the generated fields.
	GetOrCreate(ctx context.Context, template *models.Template) error
	GetByCode(ctx context.Context, code string) (*models.Template, error)
}

type templateRepository struct{}

// NewTemplateRepository creates a new TemplateRepository.
func NewTemplateRepository() TemplateRepository {
	return &templateRepository{}
}

var _ TemplateRepository = (*templateRepository)(nil)

func (r *templateRepository) GetOrCreate(ctx context.Context, template *models.Template) error {
	q, ok := database.GetQuerier(ctx)
	if !ok {
		return fmt.Errorf("no querier in context")
	}

	query := `
		INSERT INTO catalog_templates (brand_id, category_id, code, name, description, series, type_code)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (code) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			updated_at = NOW()
		RETURNING id, created_at, updated_at`

	err := q.QueryRow(ctx, query,
		template.BrandID,
		template.CategoryID,
		template.Code,
		template.Name,
		template.Description,
		template.Series,
		template.TypeCode,
	).Scan(&template.ID, &template.CreatedAt, &template.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert template: %w", err)
	}

	return nil
}

func (r *templateRepository) GetByCode(ctx context.Context, code string) (*models.Template, error) {
	q, ok := database.GetQuerier(ctx)
	if !ok {
		return nil, fmt.Errorf("no querier in context")
	}

	query := `
		SELECT id, brand_id, category_id, code, name, description, series, type_code, created_at, updated_at
		FROM catalog_templates
		WHERE code = $1`

	var t models.Template
	err := q.QueryRow(ctx, query, code).Scan(
		&t.ID, &t.BrandID, &t.CategoryID, &t.Code, &t.Name, &t.Description,
		&t.Series, &t.TypeCode, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get template: %w", err)
	}

	return &t, nil
}
