package models

import (
	"time"

	"github.com/google/uuid"
)

// Template represents a product template (SPU): one per series + type code
// combination. Variants hang off a template.
type Template struct {
	ID          uuid.UUID `json:"id"`
	BrandID     uuid.UUID `json:"brand_id"`
	CategoryID  uuid.UUID `json:"category_id"`
	Code        string    `json:"code"` // "<series>_<typeCode>"
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Series      string    `json:"series"`
	TypeCode    string    `json:"type_code"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
