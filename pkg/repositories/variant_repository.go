package repositories

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/royana/catalog-engine/pkg/database"
	"github.com/royana/catalog-engine/pkg/models"
)

// VariantRepository provides data access for product variants (SKUs).
type VariantRepository interface {
	// Upsert inserts or updates by variant code. Re-imports refresh name,
	// description, price, remarks and active flag but never reset stock.
	Upsert(ctx context.Context, variant *models.Variant) error
	GetByCode(ctx context.Context, code string) (*models.Variant, error)
	ListByTemplate(ctx context.Context, templateID uuid.UUID) ([]*models.Variant, error)
}

type variantRepository struct{}

// NewVariantRepository creates a new VariantRepository.
func NewVariantRepository() VariantRepository {
	return &variantRepository{}
}

var _ VariantRepository = (*variantRepository)(nil)

func (r *variantRepository) Upsert(ctx context.Context, variant *models.Variant) error {
	q, ok := database.GetQuerier(ctx)
	if !ok {
		return fmt.Errorf("no querier in context")
	}

	query := `
		INSERT INTO catalog_variants (template_id, code, name, description, price, stock, min_stock, is_active, remarks)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (code) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			price = EXCLUDED.price,
			is_active = EXCLUDED.is_active,
			remarks = EXCLUDED.remarks,
			updated_at = NOW()
		RETURNING id, stock, min_stock, created_at, updated_at`

	err := q.QueryRow(ctx, query,
		variant.TemplateID,
		variant.Code,
		variant.Name,
		variant.Description,
		variant.Price,
		variant.Stock,
		variant.MinStock,
		variant.IsActive,
		variant.Remarks,
	).Scan(&variant.ID, &variant.Stock, &variant.MinStock, &variant.CreatedAt, &variant.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert variant: %w", err)
	}

	return nil
}

func (r *variantRepository) GetByCode(ctx context.Context, code string) (*models.Variant, error) {
	q, ok := database.GetQuerier(ctx)
	if !ok {
		return nil, fmt.Errorf("no querier in context")
	}

	query := `
		SELECT id, template_id, code, name, description, price, stock, min_stock, is_active, remarks, created_at, updated_at
		FROM catalog_variants
		WHERE code = $1`

	v, err := scanVariant(q.QueryRow(ctx, query, code))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	return v, nil
}

func (r *variantRepository) ListByTemplate(ctx context.Context, templateID uuid.UUID) ([]*models.Variant, error) {
	q, ok := database.GetQuerier(ctx)
	if !ok {
		return nil, fmt.Errorf("no querier in context")
	}

	query := `
		SELECT id, template_id, code, name, description, price, stock, min_stock, is_active, remarks, created_at, updated_at
		FROM catalog_variants
		WHERE template_id = $1
		ORDER BY code`

	rows, err := q.Query(ctx, query, templateID)
	if err != nil {
		return nil, fmt.Errorf("failed to query variants: %w", err)
	}
	defer rows.Close()

	var variants []*models.Variant
	for rows.Next() {
		v, err := scanVariant(rows)
		if err != nil {
			return nil, err
		}
		variants = append(variants, v)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating variants: %w", err)
	}

	return variants, nil
}

func scanVariant(row pgx.Row) (*models.Variant, error) {
	var v models.Variant
	err := row.Scan(
		&v.ID, &v.TemplateID, &v.Code, &v.Name, &v.Description, &v.Price,
		&v.Stock, &v.MinStock, &v.IsActive, &v.Remarks, &v.CreatedAt, &v.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan variant: %w", err)
	}
	return &v, nil
}
