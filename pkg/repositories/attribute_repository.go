package repositories

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/royana/catalog-engine/pkg/database"
	"github.com/royana/catalog-engine/pkg/models"
)

// AttributeRepository provides data access for the attribute taxonomy.
type AttributeRepository interface {
	// GetOrCreate upserts by attribute name. An existing attribute keeps its
	// stored classification; the input struct is overwritten with the stored
	// row either way.
	GetOrCreate(ctx context.Context, attr *models.Attribute) error
	GetByName(ctx context.Context, name string) (*models.Attribute, error)
	ListAll(ctx context.Context) ([]*models.Attribute, error)

	// GetOrCreateValue upserts a predefined value scoped to an attribute.
	GetOrCreateValue(ctx context.Context, attributeID uuid.UUID, value string) (*models.AttributeValue, error)
	ListValues(ctx context.Context, attributeID uuid.UUID) ([]*models.AttributeValue, error)
}

type attributeRepository struct{}

// NewAttributeRepository creates a new AttributeRepository.
func NewAttributeRepository() AttributeRepository {
	return &attributeRepository{}
}

var _ AttributeRepository = (*attributeRepository)(nil)

func (r *attributeRepository) GetOrCreate(ctx context.Context, attr *models.Attribute) error {
	q, ok := database.GetQuerier(ctx)
	if !ok {
		return fmt.Errorf("no querier in context")
	}

	// The first classification of a name wins; later rows reuse it unchanged.
	query := `
		INSERT INTO catalog_attributes (code, name, type, filterable, importance, source)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (name) DO UPDATE SET updated_at = NOW()
		RETURNING id, code, name, type, filterable, importance, source, created_at, updated_at`

	err := q.QueryRow(ctx, query,
		attr.Code,
		attr.Name,
		string(attr.Type),
		attr.Filterable,
		attr.Importance,
		string(attr.Source),
	).Scan(
		&attr.ID, &attr.Code, &attr.Name, &attr.Type, &attr.Filterable,
		&attr.Importance, &attr.Source, &attr.CreatedAt, &attr.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert attribute: %w", err)
	}

	return nil
}

func (r *attributeRepository) GetByName(ctx context.Context, name string) (*models.Attribute, error) {
	q, ok := database.GetQuerier(ctx)
	if !ok {
		return nil, fmt.Errorf("no querier in context")
	}

	query := `
		SELECT id, code, name, type, filterable, importance, source, created_at, updated_at
		FROM catalog_attributes
		WHERE name = $1`

	a, err := scanAttribute(q.QueryRow(ctx, query, name))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	return a, nil
}

func (r *attributeRepository) ListAll(ctx context.Context) ([]*models.Attribute, error) {
	q, ok := database.GetQuerier(ctx)
	if !ok {
		return nil, fmt.Errorf("no querier in context")
	}

	query := `
		SELECT id, code, name, type, filterable, importance, source, created_at, updated_at
		FROM catalog_attributes
		ORDER BY name`

	rows, err := q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query attributes: %w", err)
	}
	defer rows.Close()

	var attrs []*models.Attribute
	for rows.Next() {
		a, err := scanAttribute(rows)
		if err != nil {
			return nil, err
		}
		attrs = append(attrs, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating attributes: %w", err)
	}

	return attrs, nil
}

func (r *attributeRepository) GetOrCreateValue(ctx context.Context, attributeID uuid.UUID, value string) (*models.AttributeValue, error) {
	q, ok := database.GetQuerier(ctx)
	if !ok {
		return nil, fmt.Errorf("no querier in context")
	}

	query := `
		INSERT INTO catalog_attribute_values (attribute_id, value)
		VALUES ($1, $2)
		ON CONFLICT (attribute_id, value) DO UPDATE SET updated_at = NOW()
		RETURNING id, attribute_id, value, created_at, updated_at`

	var v models.AttributeValue
	err := q.QueryRow(ctx, query, attributeID, value).Scan(
		&v.ID, &v.AttributeID, &v.Value, &v.CreatedAt, &v.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert attribute value: %w", err)
	}

	return &v, nil
}

func (r *attributeRepository) ListValues(ctx context.Context, attributeID uuid.UUID) ([]*models.AttributeValue, error) {
	q, ok := database.GetQuerier(ctx)
	if !ok {
		return nil, fmt.Errorf("no querier in context")
	}

	query := `
		SELECT id, attribute_id, value, created_at, updated_at
		FROM catalog_attribute_values
		WHERE attribute_id = $1
		ORDER BY value`

	rows, err := q.Query(ctx, query, attributeID)
	if err != nil {
		return nil, fmt.Errorf("failed to query attribute values: %w", err)
	}
	defer rows.Close()

	var values []*models.AttributeValue
	for rows.Next() {
		var v models.AttributeValue
		if err := rows.Scan(&v.ID, &v.AttributeID, &v.Value, &v.CreatedAt, &v.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan attribute value: %w", err)
		}
		values = append(values, &v)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating attribute values: %w", err)
	}

	return values, nil
}

func scanAttribute(row pgx.Row) (*models.Attribute, error) {
	var a models.Attribute
	err := row.Scan(
		&a.ID, &a.Code, &a.Name, &a.Type, &a.Filterable,
		&a.Importance, &a.Source, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan attribute: %w", err)
	}
	return &a, nil
}
