package importer

import "context"

// Stage is one step of the per-row pipeline. Run mutates the row context; a
// returned error fails the row (and only the row). Stages must be safe to
// call sequentially across rows of one job.
type Stage interface {
	Name() string
	Run(ctx context.Context, row *RowContext) error
}

// Stage names, used in error records and progress events.
const (
	StagePreprocess = "preprocess"
	StageQuality    = "quality"
	StageAnalyze    = "analyze"
	StageEnhance    = "enhance"
	StageProduct    = "product"
	StageRelation   = "relation"
)
