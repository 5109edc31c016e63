// Package importer implements the batch catalog import pipeline: raw tabular
// rows are cleaned, quality-checked, classified and persisted as the
// Brand -> Category -> Template -> Variant -> Attribute graph.
package importer

import (
	"fmt"

	"github.com/royana/catalog-engine/pkg/models"
)

// Status tracks the lifecycle of one row inside the pipeline.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusSuccess    Status = "success"
	StatusFailed     Status = "failed"
	StatusSkipped    Status = "skipped"
)

// Record is the cleaned, typed form of one input row. Field names follow the
// canonical column names of the import format.
type Record struct {
	Description string // first line of 产品描述
	EnglishName string // second line of 产品描述, when present
	Code        string // 产品编码, uppercased, spaces removed
	Series      string
	TypeCode    string
	Width       float64
	Height      float64
	Depth       float64
	ConfigCode  string
	DoorSwing   string // already mapped to display form (左开, 右开, ...)
	Remarks     string // verbatim, <br> preserved

	// TierPrices maps the canonical tier field (价格等级I..V) to its parsed
	// price. Absent or dash-valued tiers are 0.
	TierPrices map[string]float64

	// Extra holds cleaned values of columns outside the canonical set. They
	// are the unknown-attribute candidates.
	Extra map[string]string
}

// HasPositivePrice reports whether at least one tier carries a positive price.
func (r *Record) HasPositivePrice() bool {
	for _, p := range r.TierPrices {
		if p > 0 {
			return true
		}
	}
	return false
}

// PreparedAttribute is one classified attribute ready for taxonomy
// resolution, produced by the analyzer, the completion stage or the rule code
// parser.
type PreparedAttribute struct {
	Name         string
	Value        string
	DisplayName  string
	DisplayValue string
	Type         models.AttributeType
	Filterable   bool
	Importance   int
	Confidence   float64
	Source       models.ClassificationSource

	// FallbackReason is set when a degraded path produced this result (AI
	// unreachable, low confidence, invalid response shape).
	FallbackReason string
}

// RowContext carries one row through the stage pipeline.
type RowContext struct {
	RowNumber int

	// Raw holds the canonical-keyed raw cell values exactly as read.
	Raw map[string]string

	Record   *Record
	Issues   []QualityIssue
	Prepared []PreparedAttribute

	Brand    *models.Brand
	Category *models.Category
	Template *models.Template
	Variants []*models.Variant

	Status Status
}

// NewRowContext builds the initial context for a row.
func NewRowContext(rowNumber int, raw map[string]string) *RowContext {
	return &RowContext{
		RowNumber: rowNumber,
		Raw:       raw,
		Status:    StatusPending,
	}
}

// RawSnapshot converts the raw row into the JSONB shape stored with import
// errors.
func (rc *RowContext) RawSnapshot() models.JSONBMap {
	snapshot := make(models.JSONBMap, len(rc.Raw))
	for k, v := range rc.Raw {
		snapshot[k] = v
	}
	return snapshot
}

// RowError is a reason-coded row failure. Stages return it to mark the row
// failed without aborting the job.
type RowError struct {
	Stage   string
	Kind    models.ErrorKind
	Field   string
	Message string
	Cause   error
}

func (e *RowError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Stage, e.Message, e.Field)
	}
	return fmt.Sprintf("%s: %s", e.Stage, e.Message)
}

func (e *RowError) Unwrap() error {
	return e.Cause
}
