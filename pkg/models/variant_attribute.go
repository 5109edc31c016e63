package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// VariantAttribute associates a variant with an attribute and exactly one
// value: either a reference to a predefined AttributeValue (enumerable
// attributes) or an inline custom value (text/number attributes). At most one
// row exists per (variant, attribute); re-imports overwrite the value.
type VariantAttribute struct {
	ID          uuid.UUID  `json:"id"`
	VariantID   uuid.UUID  `json:"variant_id"`
	AttributeID uuid.UUID  `json:"attribute_id"`
	ValueID     *uuid.UUID `json:"value_id,omitempty"`
	CustomValue *string    `json:"custom_value,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// NewPredefinedVariantAttribute builds an association referencing a
// predefined attribute value.
func NewPredefinedVariantAttribute(variantID, attributeID, valueID uuid.UUID) VariantAttribute {
	return VariantAttribute{
		VariantID:   variantID,
		AttributeID: attributeID,
		ValueID:     &valueID,
	}
}

// NewCustomVariantAttribute builds an association carrying an inline value.
func NewCustomVariantAttribute(variantID, attributeID uuid.UUID, value string) VariantAttribute {
	return VariantAttribute{
		VariantID:   variantID,
		AttributeID: attributeID,
		CustomValue: &value,
	}
}

// Validate checks the predefined/custom invariant: exactly one of ValueID and
// CustomValue must be set.
func (va *VariantAttribute) Validate() error {
	if va.ValueID == nil && va.CustomValue == nil {
		return fmt.Errorf("variant attribute has neither a value reference nor a custom value")
	}
	if va.ValueID != nil && va.CustomValue != nil {
		return fmt.Errorf("variant attribute has both a value reference and a custom value")
	}
	return nil
}

// TemplateAttribute declares that an attribute applies to a template, with a
// display position for listing surfaces.
type TemplateAttribute struct {
	ID           uuid.UUID `json:"id"`
	TemplateID   uuid.UUID `json:"template_id"`
	AttributeID  uuid.UUID `json:"attribute_id"`
	DisplayOrder int       `json:"display_order"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
