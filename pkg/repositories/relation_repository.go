package repositories

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/royana/catalog-engine/pkg/apperrors"
	"github.com/royana/catalog-engine/pkg/database"
	"github.com/royana/catalog-engine/pkg/models"
)

// RelationRepository provides data access for variant-attribute and
// template-attribute associations.
type RelationRepository interface {
	// UpsertVariantAttribute writes the single value row for a
	// (variant, attribute) pair; re-imports overwrite the value. A predefined
	// value reference is checked to belong to the attribute.
	UpsertVariantAttribute(ctx context.Context, va *models.VariantAttribute) error
	ListVariantAttributes(ctx context.Context, variantID uuid.UUID) ([]*models.VariantAttribute, error)

	// EnsureTemplateAttribute records that the attribute applies to the
	// template. The display order is set on first insert and kept afterwards.
	EnsureTemplateAttribute(ctx context.Context, ta *models.TemplateAttribute) error
	ListTemplateAttributes(ctx context.Context, templateID uuid.UUID) ([]*models.TemplateAttribute, error)
}

type relationRepository struct{}

// NewRelationRepository creates a new RelationRepository.
func NewRelationRepository() RelationRepository {
	return &relationRepository{}
}

var _ RelationRepository = (*relationRepository)(nil)

func (r *relationRepository) UpsertVariantAttribute(ctx context.Context, va *models.VariantAttribute) error {
	q, ok := database.GetQuerier(ctx)
	if !ok {
		return fmt.Errorf("no querier in context")
	}

	if err := va.Validate(); err != nil {
		return err
	}

	if va.ValueID != nil {
		var ownerID uuid.UUID
		err := q.QueryRow(ctx,
			`SELECT attribute_id FROM catalog_attribute_values WHERE id = $1`,
			*va.ValueID,
		).Scan(&ownerID)
		if err != nil {
			if err == pgx.ErrNoRows {
				return apperrors.ErrNotFound
			}
			return fmt.Errorf("failed to check value ownership: %w", err)
		}
		if ownerID != va.AttributeID {
			return apperrors.ErrValueNotOwned
		}
	}

	query := `
		INSERT INTO catalog_variant_attributes (variant_id, attribute_id, value_id, custom_value)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (variant_id, attribute_id) DO UPDATE SET
			value_id = EXCLUDED.value_id,
			custom_value = EXCLUDED.custom_value,
			updated_at = NOW()
		RETURNING id, created_at, updated_at`

	err := q.QueryRow(ctx, query,
		va.VariantID,
		va.AttributeID,
		va.ValueID,
		va.CustomValue,
	).Scan(&va.ID, &va.CreatedAt, &va.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert variant attribute: %w", err)
	}

	return nil
}

func (r *relationRepository) ListVariantAttributes(ctx context.Context, variantID uuid.UUID) ([]*models.VariantAttribute, error) {
	q, ok := database.GetQuerier(ctx)
	if !ok {
		return nil, fmt.Errorf("no querier in context")
	}

	query := `
		SELECT id, variant_id, attribute_id, value_id, custom_value, created_at, updated_at
		FROM catalog_variant_attributes
		WHERE variant_id = $1`

	rows, err := q.Query(ctx, query, variantID)
	if err != nil {
		return nil, fmt.Errorf("failed to query variant attributes: %w", err)
	}
	defer rows.Close()

	var vas []*models.VariantAttribute
	for rows.Next() {
		var va models.VariantAttribute
		if err := rows.Scan(&va.ID, &va.VariantID, &va.AttributeID, &va.ValueID, &va.CustomValue, &va.CreatedAt, &va.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan variant attribute: %w", err)
		}
		vas = append(vas, &va)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating variant attributes: %w", err)
	}

	return vas, nil
}

func (r *relationRepository) EnsureTemplateAttribute(ctx context.Context, ta *models.TemplateAttribute) error {
	q, ok := database.GetQuerier(ctx)
	if !ok {
		return fmt.Errorf("no querier in context")
	}

	query := `
		INSERT INTO catalog_template_attributes (template_id, attribute_id, display_order)
		VALUES ($1, $2, $3)
		ON CONFLICT (template_id, attribute_id) DO UPDATE SET updated_at = NOW()
		RETURNING id, display_order, created_at, updated_at`

	err := q.QueryRow(ctx, query,
		ta.TemplateID,
		ta.AttributeID,
		ta.DisplayOrder,
	).Scan(&ta.ID, &ta.DisplayOrder, &ta.CreatedAt, &ta.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to ensure template attribute: %w", err)
	}

	return nil
}

func (r *relationRepository) ListTemplateAttributes(ctx context.Context, templateID uuid.UUID) ([]*models.TemplateAttribute, error) {
	q, ok := database.GetQuerier(ctx)
	if !ok {
		return nil, fmt.Errorf("no querier in context")
	}

	query := `
		SELECT id, template_id, attribute_id, display_order, created_at, updated_at
		FROM catalog_template_attributes
		WHERE template_id = $1
		ORDER BY display_order`

	rows, err := q.Query(ctx, query, templateID)
	if err != nil {
		return nil, fmt.Errorf("failed to query template attributes: %w", err)
	}
	defer rows.Close()

	var tas []*models.TemplateAttribute
	for rows.Next() {
		var ta models.TemplateAttribute
		if err := rows.Scan(&ta.ID, &ta.TemplateID, &ta.AttributeID, &ta.DisplayOrder, &ta.CreatedAt, &ta.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan template attribute: %w", err)
		}
		tas = append(tas, &ta)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating template attributes: %w", err)
	}

	return tas, nil
}
