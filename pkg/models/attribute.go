package models

import (
	"time"

	"github.com/google/uuid"
)

// AttributeType classifies how an attribute's values behave.
type AttributeType string

const (
	AttributeTypeText    AttributeType = "text"
	AttributeTypeNumber  AttributeType = "number"
	AttributeTypeBoolean AttributeType = "boolean"
	AttributeTypeSelect  AttributeType = "select"
)

// ValidAttributeType reports whether t is one of the known attribute types.
// AI responses carrying anything else are rejected.
func ValidAttributeType(t AttributeType) bool {
	switch t {
	case AttributeTypeText, AttributeTypeNumber, AttributeTypeBoolean, AttributeTypeSelect:
		return true
	}
	return false
}

// ClassificationSource records which mechanism produced an attribute's
// classification.
type ClassificationSource string

const (
	SourceRule    ClassificationSource = "rule"
	SourceAI      ClassificationSource = "ai"
	SourceDefault ClassificationSource = "default"
)

// Attribute represents a catalog attribute definition (e.g. 宽度, 材质).
type Attribute struct {
	ID         uuid.UUID            `json:"id"`
	Code       string               `json:"code"`
	Name       string               `json:"name"`
	Type       AttributeType        `json:"type"`
	Filterable bool                 `json:"filterable"`
	Importance int                  `json:"importance"` // 1 .. 5 (highest)
	Source     ClassificationSource `json:"source"`
	CreatedAt  time.Time            `json:"created_at"`
	UpdatedAt  time.Time            `json:"updated_at"`
}

// AttributeValue represents a predefined value of an enumerable attribute.
type AttributeValue struct {
	ID          uuid.UUID `json:"id"`
	AttributeID uuid.UUID `json:"attribute_id"`
	Value       string    `json:"value"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
