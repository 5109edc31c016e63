// Package models contains domain types for the catalog engine.
package models

import (
	"time"

	"github.com/google/uuid"
)

// Brand represents a product brand.
type Brand struct {
	ID          uuid.UUID `json:"id"`
	Code        string    `json:"code"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// DefaultBrandCode is the natural key every imported row resolves to.
const DefaultBrandCode = "ROYANA"
