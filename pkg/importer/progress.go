package importer

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ProgressEvent is one progress notification of a running import job. Events
// are logged and, when Redis is configured, published for external consumers
// (admin dashboards, CLI watchers).
type ProgressEvent struct {
	TaskID    uuid.UUID `json:"task_id"`
	Event     string    `json:"event"` // job_started, stage_started, row_completed, job_finished
	Row       int       `json:"row,omitempty"`
	Stage     string    `json:"stage,omitempty"`
	Success   bool      `json:"success,omitempty"`
	Total     int       `json:"total,omitempty"`
	Processed int       `json:"processed,omitempty"`
	Failed    int       `json:"failed,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// ProgressReporter publishes job progress. A nil Redis client degrades to
// log-only reporting.
type ProgressReporter struct {
	taskID uuid.UUID
	redis  *redis.Client
	logger *zap.Logger

	processed int
	failed    int
}

// NewProgressReporter creates a reporter for one import task.
func NewProgressReporter(taskID uuid.UUID, redisClient *redis.Client, logger *zap.Logger) *ProgressReporter {
	return &ProgressReporter{
		taskID: taskID,
		redis:  redisClient,
		logger: logger.Named("progress"),
	}
}

// channel returns the Redis pub/sub channel for this task.
func (r *ProgressReporter) channel() string {
	return fmt.Sprintf("catalog:import:%s", r.taskID)
}

func (r *ProgressReporter) JobStarted(ctx context.Context, total int) {
	r.logger.Info("import started", zap.Int("total_rows", total))
	r.publish(ctx, ProgressEvent{Event: "job_started", Total: total})
}

func (r *ProgressReporter) StageStarted(ctx context.Context, row int, stage string) {
	r.logger.Debug("stage started", zap.Int("row", row), zap.String("stage", stage))
	r.publish(ctx, ProgressEvent{Event: "stage_started", Row: row, Stage: stage})
}

func (r *ProgressReporter) RowCompleted(ctx context.Context, row int, success bool) {
	r.processed++
	if !success {
		r.failed++
	}
	r.logger.Info("row completed",
		zap.Int("row", row),
		zap.Bool("success", success),
		zap.Int("processed", r.processed),
		zap.Int("failed", r.failed))
	r.publish(ctx, ProgressEvent{
		Event:     "row_completed",
		Row:       row,
		Success:   success,
		Processed: r.processed,
		Failed:    r.failed,
	})
}

func (r *ProgressReporter) JobFinished(ctx context.Context, report *Report) {
	r.logger.Info("import finished",
		zap.Int("total", report.Total),
		zap.Int("success", report.Success),
		zap.Int("failed", report.Failed))
	r.publish(ctx, ProgressEvent{
		Event:     "job_finished",
		Total:     report.Total,
		Processed: report.Success + report.Failed,
		Failed:    report.Failed,
	})
}

// publish sends the event to Redis. Publish failures are logged and ignored:
// progress is best-effort and never affects the import itself.
func (r *ProgressReporter) publish(ctx context.Context, event ProgressEvent) {
	if r.redis == nil {
		return
	}

	event.TaskID = r.taskID
	event.Timestamp = time.Now().UTC()

	payload, err := json.Marshal(event)
	if err != nil {
		r.logger.Warn("failed to marshal progress event", zap.Error(err))
		return
	}
	if err := r.redis.Publish(ctx, r.channel(), payload).Err(); err != nil {
		r.logger.Warn("failed to publish progress event", zap.Error(err))
	}
}
