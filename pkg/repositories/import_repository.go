package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/royana/catalog-engine/pkg/apperrors"
	"github.com/royana/catalog-engine/pkg/database"
	"github.com/royana/catalog-engine/pkg/models"
)

// ImportRepository provides data access for import run bookkeeping.
type ImportRepository interface {
	CreateTask(ctx context.Context, task *models.ImportTask) error
	MarkRunning(ctx context.Context, taskID uuid.UUID, totalRows int) error
	FinishTask(ctx context.Context, taskID uuid.UUID, status models.ImportStatus, successRows, failedRows int) error
	GetTask(ctx context.Context, taskID uuid.UUID) (*models.ImportTask, error)
	RecordError(ctx context.Context, importErr *models.ImportError) error
	ListErrors(ctx context.Context, taskID uuid.UUID) ([]*models.ImportError, error)
}

type importRepository struct{}

// NewImportRepository creates a new ImportRepository.
func NewImportRepository() ImportRepository {
	return &importRepository{}
}

var _ ImportRepository = (*importRepository)(nil)

func (r *importRepository) CreateTask(ctx context.Context, task *models.ImportTask) error {
	q, ok := database.GetQuerier(ctx)
	if !ok {
		return fmt.Errorf("no querier in context")
	}

	query := `
		INSERT INTO catalog_import_tasks (file_name, status)
		VALUES ($1, $2)
		RETURNING id, started_at, created_at`

	if task.Status == "" {
		task.Status = models.ImportStatusPending
	}

	err := q.QueryRow(ctx, query, task.FileName, string(task.Status)).Scan(
		&task.ID, &task.StartedAt, &task.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create import task: %w", err)
	}

	return nil
}

func (r *importRepository) MarkRunning(ctx context.Context, taskID uuid.UUID, totalRows int) error {
	q, ok := database.GetQuerier(ctx)
	if !ok {
		return fmt.Errorf("no querier in context")
	}

	query := `
		UPDATE catalog_import_tasks
		SET status = $2, total_rows = $3, started_at = NOW()
		WHERE id = $1`

	result, err := q.Exec(ctx, query, taskID, string(models.ImportStatusRunning), totalRows)
	if err != nil {
		return fmt.Errorf("failed to mark import task running: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}

	return nil
}

func (r *importRepository) FinishTask(ctx context.Context, taskID uuid.UUID, status models.ImportStatus, successRows, failedRows int) error {
	q, ok := database.GetQuerier(ctx)
	if !ok {
		return fmt.Errorf("no querier in context")
	}

	query := `
		UPDATE catalog_import_tasks
		SET status = $2, success_rows = $3, failed_rows = $4, finished_at = NOW()
		WHERE id = $1`

	result, err := q.Exec(ctx, query, taskID, string(status), successRows, failedRows)
	if err != nil {
		return fmt.Errorf("failed to finish import task: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}

	return nil
}

func (r *importRepository) GetTask(ctx context.Context, taskID uuid.UUID) (*models.ImportTask, error) {
	q, ok := database.GetQuerier(ctx)
	if !ok {
		return nil, fmt.Errorf("no querier in context")
	}

	query := `
		SELECT id, file_name, status, total_rows, success_rows, failed_rows, started_at, finished_at, created_at
		FROM catalog_import_tasks
		WHERE id = $1`

	var t models.ImportTask
	var finishedAt *time.Time
	err := q.QueryRow(ctx, query, taskID).Scan(
		&t.ID, &t.FileName, &t.Status, &t.TotalRows, &t.SuccessRows,
		&t.FailedRows, &t.StartedAt, &finishedAt, &t.CreatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get import task: %w", err)
	}
	t.FinishedAt = finishedAt

	return &t, nil
}

func (r *importRepository) RecordError(ctx context.Context, importErr *models.ImportError) error {
	q, ok := database.GetQuerier(ctx)
	if !ok {
		return fmt.Errorf("no querier in context")
	}

	query := `
		INSERT INTO catalog_import_errors (task_id, row_number, stage, kind, field, message, raw_data)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`

	err := q.QueryRow(ctx, query,
		importErr.TaskID,
		importErr.RowNumber,
		importErr.Stage,
		string(importErr.Kind),
		importErr.Field,
		importErr.Message,
		importErr.RawData,
	).Scan(&importErr.ID, &importErr.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to record import error: %w", err)
	}

	return nil
}

func (r *importRepository) ListErrors(ctx context.Context, taskID uuid.UUID) ([]*models.ImportError, error) {
	q, ok := database.GetQuerier(ctx)
	if !ok {
		return nil, fmt.Errorf("no querier in context")
	}

	query := `
		SELECT id, task_id, row_number, stage, kind, field, message, raw_data, created_at
		FROM catalog_import_errors
		WHERE task_id = $1
		ORDER BY row_number`

	rows, err := q.Query(ctx, query, taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to query import errors: %w", err)
	}
	defer rows.Close()

	var errs []*models.ImportError
	for rows.Next() {
		var e models.ImportError
		if err := rows.Scan(&e.ID, &e.TaskID, &e.RowNumber, &e.Stage, &e.Kind, &e.Field, &e.Message, &e.RawData, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan import error: %w", err)
		}
		errs = append(errs, &e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating import errors: %w", err)
	}

	return errs, nil
}
