package importer

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/royana/catalog-engine/pkg/llm"
	"github.com/royana/catalog-engine/pkg/models"
)

func TestMissingEssentials(t *testing.T) {
	t.Run("everything missing", func(t *testing.T) {
		assert.Equal(t, []string{"材质", "颜色", "风格"}, missingEssentials(nil))
	})

	t.Run("covered by name or display name", func(t *testing.T) {
		prepared := []PreparedAttribute{
			{Name: "材质", DisplayName: "材质类型"},
			{Name: "color", DisplayName: "产品颜色"},
		}
		assert.Equal(t, []string{"风格"}, missingEssentials(prepared))
	})

	t.Run("nothing missing", func(t *testing.T) {
		prepared := []PreparedAttribute{
			{DisplayName: "材质类型"},
			{DisplayName: "产品颜色"},
			{DisplayName: "设计风格"},
		}
		assert.Empty(t, missingEssentials(prepared))
	})
}

func enhanceStageWithMock(t *testing.T, mock *llm.MockLLMClient) Stage {
	t.Helper()
	caller := newAICaller(mock, testAIConfig(), zap.NewNop())
	return NewEnhanceStage(caller, 0.6, zap.NewNop())
}

func TestEnhanceStage_CompletesMissingAttributes(t *testing.T) {
	mock := llm.NewMockLLMClient()
	mock.GenerateResponseFunc = func(ctx context.Context, prompt, system string, temperature float64) (*llm.GenerateResponseResult, error) {
		return &llm.GenerateResponseResult{Content: `{
			"completed_attributes": [
				{"name": "材质", "value": "实木颗粒板", "confidence": 0.8},
				{"name": "颜色", "value": "白", "confidence": 0.3},
				{"name": "风格", "value": "", "confidence": 0.9}
			]
		}`}, nil
	}

	stage := enhanceStageWithMock(t, mock)
	row := &RowContext{
		RowNumber: 2,
		Record:    &Record{Description: "单门底柜", Code: "N-U30-7256", Series: "NOVO"},
	}

	err := stage.Run(context.Background(), row)
	require.NoError(t, err)

	// Only the confident, non-empty completion survives.
	require.Len(t, row.Prepared, 1)
	added := row.Prepared[0]
	assert.Equal(t, "材质", added.Name)
	assert.Equal(t, "实木颗粒板", added.Value)
	assert.Equal(t, "材质类型", added.DisplayName)
	assert.Equal(t, models.SourceAI, added.Source)
	assert.Equal(t, 0.8, added.Confidence)
}

func TestEnhanceStage_ToleratesNonStringValues(t *testing.T) {
	mock := llm.NewMockLLMClient()
	mock.GenerateResponseFunc = func(ctx context.Context, prompt, system string, temperature float64) (*llm.GenerateResponseResult, error) {
		return &llm.GenerateResponseResult{Content: `{
			"completed_attributes": [
				{"name": "板材厚度", "value": 18, "confidence": 0.9}
			]
		}`}, nil
	}

	stage := enhanceStageWithMock(t, mock)
	row := &RowContext{
		RowNumber: 2,
		Record:    &Record{Description: "单门底柜", Code: "N-U30-7256", Series: "NOVO"},
	}

	require.NoError(t, stage.Run(context.Background(), row))
	require.Len(t, row.Prepared, 1)
	assert.Equal(t, "18", row.Prepared[0].Value)
}

func TestEnhanceStage_SkipsWhenNothingMissing(t *testing.T) {
	mock := llm.NewMockLLMClient()
	stage := enhanceStageWithMock(t, mock)

	row := &RowContext{
		RowNumber: 2,
		Record:    &Record{Description: "单门底柜"},
		Prepared: []PreparedAttribute{
			{DisplayName: "材质类型"},
			{DisplayName: "产品颜色"},
			{DisplayName: "设计风格"},
		},
	}

	err := stage.Run(context.Background(), row)
	require.NoError(t, err)
	assert.Zero(t, mock.GenerateResponseCalls)
	assert.Len(t, row.Prepared, 3)
}

func TestEnhanceStage_FailuresAreAdditiveOnly(t *testing.T) {
	t.Run("endpoint failure", func(t *testing.T) {
		mock := llm.NewMockLLMClient()
		mock.GenerateResponseFunc = func(ctx context.Context, prompt, system string, temperature float64) (*llm.GenerateResponseResult, error) {
			return nil, errors.New("endpoint down")
		}

		stage := enhanceStageWithMock(t, mock)
		row := &RowContext{RowNumber: 2, Record: &Record{Description: "单门底柜"}}

		require.NoError(t, stage.Run(context.Background(), row))
		assert.Empty(t, row.Prepared)
	})

	t.Run("unparseable response", func(t *testing.T) {
		mock := llm.NewMockLLMClient()
		mock.GenerateResponseFunc = func(ctx context.Context, prompt, system string, temperature float64) (*llm.GenerateResponseResult, error) {
			return &llm.GenerateResponseResult{Content: "没有可补全的属性"}, nil
		}

		stage := enhanceStageWithMock(t, mock)
		row := &RowContext{RowNumber: 2, Record: &Record{Description: "单门底柜"}}

		require.NoError(t, stage.Run(context.Background(), row))
		assert.Empty(t, row.Prepared)
	})
}
