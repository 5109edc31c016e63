package models

import (
	"time"

	"github.com/google/uuid"
)

// Variant represents a sellable product variant (SKU). One variant is created
// per positive price tier of an imported row; the tier suffix is appended to
// the base product code.
type Variant struct {
	ID          uuid.UUID `json:"id"`
	TemplateID  uuid.UUID `json:"template_id"`
	Code        string    `json:"code"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Price       float64   `json:"price"`
	Stock       int       `json:"stock"`
	MinStock    int       `json:"min_stock"`
	IsActive    bool      `json:"is_active"`
	Remarks     string    `json:"remarks"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// PriceTier maps one of the five ordered price-level columns to a variant
// code suffix and its display name.
type PriceTier struct {
	Field       string // canonical input field, e.g. "价格等级I"
	Suffix      string // variant code suffix, e.g. "-E"
	DisplayName string // 板材级别 value, e.g. "经济型"
}

// PriceTiers lists the five tiers in column order. A variant is created for
// each tier whose price is positive.
var PriceTiers = []PriceTier{
	{Field: "价格等级I", Suffix: "-E", DisplayName: "经济型"},
	{Field: "价格等级II", Suffix: "-S", DisplayName: "标准型"},
	{Field: "价格等级III", Suffix: "-C", DisplayName: "舒适型"},
	{Field: "价格等级IV", Suffix: "-L", DisplayName: "豪华型"},
	{Field: "价格等级V", Suffix: "-P", DisplayName: "至尊型"},
}

// TierDisplayNameForCode returns the 板材级别 display name for a variant code
// by matching its tier suffix, or empty string when the code carries none.
func TierDisplayNameForCode(code string) string {
	for _, t := range PriceTiers {
		if len(code) >= len(t.Suffix) && code[len(code)-len(t.Suffix):] == t.Suffix {
			return t.DisplayName
		}
	}
	return ""
}
