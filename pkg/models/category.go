package models

import (
	"time"

	"github.com/google/uuid"
)

// Category represents a product category.
type Category struct {
	ID          uuid.UUID `json:"id"`
	Code        string    `json:"code"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// DefaultCategoryCode is the natural key every imported row resolves to.
const DefaultCategoryCode = "CUSTOM_WOOD"
