package importer

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/royana/catalog-engine/pkg/models"
)

type fakeStage struct {
	name string
	run  func(ctx context.Context, row *RowContext) error
}

func (s *fakeStage) Name() string { return s.name }

func (s *fakeStage) Run(ctx context.Context, row *RowContext) error {
	return s.run(ctx, row)
}

func stageTestOrchestrator() (*Orchestrator, *ProgressReporter) {
	logger := zap.NewNop()
	o := &Orchestrator{logger: logger}
	return o, NewProgressReporter(uuid.New(), nil, logger)
}

func TestRunStages_PanicFailsOnlyTheRow(t *testing.T) {
	o, reporter := stageTestOrchestrator()

	ran := false
	stages := []Stage{
		&fakeStage{name: StagePreprocess, run: func(ctx context.Context, row *RowContext) error {
			ran = true
			return nil
		}},
		&fakeStage{name: StageProduct, run: func(ctx context.Context, row *RowContext) error {
			panic("nil template")
		}},
	}

	row := NewRowContext(2, map[string]string{})
	rowErr := o.runStages(context.Background(), stages, row, reporter)

	require.NotNil(t, rowErr)
	assert.True(t, ran)
	assert.Equal(t, StageProduct, rowErr.Stage)
	assert.Equal(t, models.ErrorKindSystem, rowErr.Kind)
	assert.Contains(t, rowErr.Message, "nil template")
}

func TestRunStages_PlainErrorBecomesSystemRowError(t *testing.T) {
	o, reporter := stageTestOrchestrator()

	cause := errors.New("connection reset")
	stages := []Stage{
		&fakeStage{name: StageRelation, run: func(ctx context.Context, row *RowContext) error {
			return cause
		}},
	}

	row := NewRowContext(3, map[string]string{})
	rowErr := o.runStages(context.Background(), stages, row, reporter)

	require.NotNil(t, rowErr)
	assert.Equal(t, StageRelation, rowErr.Stage)
	assert.Equal(t, models.ErrorKindSystem, rowErr.Kind)
	assert.ErrorIs(t, rowErr.Cause, cause)
}

func TestRunStages_RowErrorPassesThrough(t *testing.T) {
	o, reporter := stageTestOrchestrator()

	want := &RowError{
		Stage:   StagePreprocess,
		Kind:    models.ErrorKindValidation,
		Field:   FieldCode,
		Message: "product code is required",
	}
	stages := []Stage{
		&fakeStage{name: StagePreprocess, run: func(ctx context.Context, row *RowContext) error {
			return want
		}},
	}

	row := NewRowContext(2, map[string]string{})
	rowErr := o.runStages(context.Background(), stages, row, reporter)

	assert.Same(t, want, rowErr)
}
