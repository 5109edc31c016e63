package importer

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/royana/catalog-engine/pkg/config"
	"github.com/royana/catalog-engine/pkg/database"
	"github.com/royana/catalog-engine/pkg/llm"
	"github.com/royana/catalog-engine/pkg/models"
	"github.com/royana/catalog-engine/pkg/repositories"
)

// Report summarizes one import job.
type Report struct {
	TaskID  uuid.UUID
	Total   int
	Success int
	Failed  int
	Errors  []*models.ImportError
}

// Repositories bundles the persistence layer the pipeline writes through.
type Repositories struct {
	Brands     repositories.BrandRepository
	Categories repositories.CategoryRepository
	Templates  repositories.TemplateRepository
	Variants   repositories.VariantRepository
	Attributes repositories.AttributeRepository
	Relations  repositories.RelationRepository
	Imports    repositories.ImportRepository
}

// NewRepositories wires the default repository implementations.
func NewRepositories() *Repositories {
	return &Repositories{
		Brands:     repositories.NewBrandRepository(),
		Categories: repositories.NewCategoryRepository(),
		Templates:  repositories.NewTemplateRepository(),
		Variants:   repositories.NewVariantRepository(),
		Attributes: repositories.NewAttributeRepository(),
		Relations:  repositories.NewRelationRepository(),
		Imports:    repositories.NewImportRepository(),
	}
}

// Orchestrator drives the per-row pipeline: rows run sequentially in file
// order, each inside its own transaction; a failed row rolls back and is
// recorded, and the job proceeds.
type Orchestrator struct {
	cfg    *config.Config
	db     *database.DB
	client llm.LLMClient // nil when the AI path is disabled
	redis  *redis.Client // nil when progress publishing is disabled
	repos  *Repositories
	logger *zap.Logger
}

// NewOrchestrator builds an import orchestrator. client may be nil to force
// every AI-backed stage onto its rule fallback; redisClient may be nil to
// keep progress reporting log-only.
func NewOrchestrator(cfg *config.Config, db *database.DB, client llm.LLMClient, redisClient *redis.Client, repos *Repositories, logger *zap.Logger) *Orchestrator {
	return &Orchestrator{
		cfg:    cfg,
		db:     db,
		client: client,
		redis:  redisClient,
		repos:  repos,
		logger: logger.Named("importer"),
	}
}

// buildStages constructs the stage list for one run. Disabled stages are
// simply absent. The mapper carries the run-scoped taxonomy cache.
func (o *Orchestrator) buildStages(mapper *SmartMapper) []Stage {
	var caller *aiCaller
	if o.client != nil && o.cfg.AI.Enabled {
		caller = newAICaller(o.client, &o.cfg.AI, o.logger)
	}

	stages := []Stage{NewPreprocessStage(o.logger)}

	if o.cfg.Import.EnableQualityCheck {
		stages = append(stages, NewQualityStage(caller, o.logger))
	}
	if o.cfg.Import.EnableSmartAttributes {
		analyzer := NewAnalyzer(caller, &o.cfg.Import, &o.cfg.AI, o.logger)
		stages = append(stages, NewAnalyzeStage(analyzer, o.logger))
	}
	if o.cfg.Import.EnableAIEnhancement && caller != nil {
		stages = append(stages, NewEnhanceStage(caller, o.cfg.AI.ConfidenceThreshold, o.logger))
	}

	stages = append(stages,
		NewProductStage(o.repos.Brands, o.repos.Categories, o.repos.Templates, o.repos.Variants, o.cfg.Import.DefaultSeries, o.logger),
		NewRelationStage(mapper, o.repos.Relations, o.logger),
	)
	return stages
}

// Run imports the given rows as one tracked task. The returned report always
// describes what happened; the error is non-nil only when the job itself
// failed (no rows, or zero rows succeeded).
func (o *Orchestrator) Run(ctx context.Context, fileName string, rows []Row) (*Report, error) {
	poolCtx := database.WithQuerier(ctx, o.db.Pool)

	task := &models.ImportTask{FileName: fileName}
	if err := o.repos.Imports.CreateTask(poolCtx, task); err != nil {
		return nil, fmt.Errorf("failed to create import task: %w", err)
	}

	report := &Report{TaskID: task.ID, Total: len(rows)}
	reporter := NewProgressReporter(task.ID, o.redis, o.logger)

	if len(rows) == 0 {
		if err := o.repos.Imports.FinishTask(poolCtx, task.ID, models.ImportStatusFailed, 0, 0); err != nil {
			o.logger.Error("failed to finish empty task", zap.Error(err))
		}
		return report, fmt.Errorf("no data rows to import")
	}

	if err := o.repos.Imports.MarkRunning(poolCtx, task.ID, len(rows)); err != nil {
		return nil, fmt.Errorf("failed to mark task running: %w", err)
	}
	reporter.JobStarted(ctx, len(rows))

	cache := NewTaxonomyCache()
	mapper := NewSmartMapper(o.repos.Attributes, cache, o.cfg.Import.SimilarityThreshold, o.db.Pool, o.logger)
	if err := mapper.Preload(poolCtx); err != nil {
		return nil, err
	}
	stages := o.buildStages(mapper)

	start := time.Now()
	for _, row := range rows {
		rowCtx := NewRowContext(row.Number, row.Fields)

		rowError := o.processRow(ctx, stages, rowCtx, reporter)
		if rowError == nil {
			report.Success++
			reporter.RowCompleted(ctx, row.Number, true)
			continue
		}

		report.Failed++
		importErr := &models.ImportError{
			TaskID:    task.ID,
			RowNumber: row.Number,
			Stage:     rowError.Stage,
			Kind:      rowError.Kind,
			Field:     rowError.Field,
			Message:   rowError.Message,
			RawData:   rowCtx.RawSnapshot(),
		}
		if err := o.repos.Imports.RecordError(poolCtx, importErr); err != nil {
			o.logger.Error("failed to record row error",
				zap.Int("row", row.Number),
				zap.Error(err))
		}
		report.Errors = append(report.Errors, importErr)

		o.logger.Warn("row failed",
			zap.Int("row", row.Number),
			zap.String("stage", rowError.Stage),
			zap.String("kind", string(rowError.Kind)),
			zap.String("message", rowError.Message))
		reporter.RowCompleted(ctx, row.Number, false)
	}

	status := models.ImportStatusCompleted
	var jobErr error
	if report.Success == 0 {
		status = models.ImportStatusFailed
		jobErr = fmt.Errorf("import failed: none of %d rows succeeded", report.Total)
	}
	if err := o.repos.Imports.FinishTask(poolCtx, task.ID, status, report.Success, report.Failed); err != nil {
		o.logger.Error("failed to finish import task", zap.Error(err))
	}

	reporter.JobFinished(ctx, report)
	o.logger.Info("import job done",
		zap.String("task_id", task.ID.String()),
		zap.Int("success", report.Success),
		zap.Int("failed", report.Failed),
		zap.Duration("elapsed", time.Since(start)))
	return report, jobErr
}

// processRow runs the stage list for one row inside a transaction. Any
// failure rolls the row back and is reported as a RowError.
func (o *Orchestrator) processRow(ctx context.Context, stages []Stage, row *RowContext, reporter *ProgressReporter) *RowError {
	tx, err := o.db.Begin(ctx)
	if err != nil {
		return &RowError{
			Stage:   "transaction",
			Kind:    models.ErrorKindSystem,
			Message: "failed to begin transaction",
			Cause:   err,
		}
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback after commit is a no-op

	txCtx := database.WithQuerier(ctx, tx)
	row.Status = StatusProcessing

	if rowError := o.runStages(txCtx, stages, row, reporter); rowError != nil {
		row.Status = StatusFailed
		return rowError
	}

	if err := tx.Commit(ctx); err != nil {
		row.Status = StatusFailed
		return &RowError{
			Stage:   "transaction",
			Kind:    models.ErrorKindSystem,
			Message: "failed to commit row",
			Cause:   err,
		}
	}

	row.Status = StatusSuccess
	return nil
}

// runStages executes the stage list, converting stage errors and panics into
// RowErrors so one bad row never takes down the job.
func (o *Orchestrator) runStages(ctx context.Context, stages []Stage, row *RowContext, reporter *ProgressReporter) (rowError *RowError) {
	current := ""
	defer func() {
		if r := recover(); r != nil {
			o.logger.Error("stage panicked",
				zap.Int("row", row.RowNumber),
				zap.String("stage", current),
				zap.Any("panic", r),
				zap.ByteString("stack", debug.Stack()))
			rowError = &RowError{
				Stage:   current,
				Kind:    models.ErrorKindSystem,
				Message: fmt.Sprintf("unexpected failure: %v", r),
			}
		}
	}()

	for _, stage := range stages {
		current = stage.Name()
		reporter.StageStarted(ctx, row.RowNumber, current)
		if err := stage.Run(ctx, row); err != nil {
			if !errors.As(err, &rowError) {
				rowError = &RowError{
					Stage:   current,
					Kind:    models.ErrorKindSystem,
					Message: err.Error(),
					Cause:   err,
				}
			}
			return rowError
		}
	}
	return nil
}
