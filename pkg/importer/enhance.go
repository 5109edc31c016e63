package importer

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/royana/catalog-engine/pkg/jsonutil"
	"github.com/royana/catalog-engine/pkg/llm"
	"github.com/royana/catalog-engine/pkg/models"
)

// essentialAttributes are the attributes the completion stage tries to infer
// when no other stage produced them.
var essentialAttributes = []string{"材质", "颜色", "风格"}

// enhanceStage infers missing key attributes from the description and series
// context. It is strictly additive: every failure path contributes nothing
// and the row proceeds.
type enhanceStage struct {
	caller     *aiCaller
	confidence float64
	logger     *zap.Logger
}

// NewEnhanceStage builds the AI data-completion stage.
func NewEnhanceStage(caller *aiCaller, confidenceThreshold float64, logger *zap.Logger) Stage {
	return &enhanceStage{
		caller:     caller,
		confidence: confidenceThreshold,
		logger:     logger.Named("enhance"),
	}
}

func (s *enhanceStage) Name() string { return StageEnhance }

func (s *enhanceStage) Run(ctx context.Context, row *RowContext) error {
	missing := missingEssentials(row.Prepared)
	if len(missing) == 0 {
		return nil
	}

	content, err := s.caller.Generate(ctx, buildCompletionPrompt(missing, row.Record))
	if err != nil {
		s.logger.Warn("data completion unavailable, skipping",
			zap.Int("row", row.RowNumber),
			zap.Error(err))
		return nil
	}

	parsed, err := llm.ParseJSONResponse[completionResponse](content)
	if err != nil {
		s.logger.Warn("data completion returned unparseable content, skipping",
			zap.Int("row", row.RowNumber),
			zap.Error(err))
		return nil
	}

	added := 0
	for _, attr := range parsed.CompletedAttributes {
		name := strings.TrimSpace(attr.Name)
		value := strings.TrimSpace(jsonutil.FlexibleStringValue(attr.Value))
		if name == "" || value == "" {
			continue
		}
		if attr.Confidence < s.confidence {
			s.logger.Debug("completion below confidence threshold, discarded",
				zap.String("attribute", name),
				zap.Float64("confidence", attr.Confidence))
			continue
		}

		c := ruleClassify(name, value)
		row.Prepared = append(row.Prepared, PreparedAttribute{
			Name:         name,
			Value:        value,
			DisplayName:  c.DisplayName,
			DisplayValue: value,
			Type:         c.Type,
			Filterable:   c.Filterable,
			Importance:   c.Importance,
			Confidence:   attr.Confidence,
			Source:       models.SourceAI,
		})
		added++
	}

	if added > 0 {
		s.logger.Info("completed missing attributes",
			zap.Int("row", row.RowNumber),
			zap.Int("added", added))
	}
	return nil
}

type completionResponse struct {
	CompletedAttributes []struct {
		Name       string          `json:"name"`
		Value      json.RawMessage `json:"value"`
		Confidence float64         `json:"confidence"`
	} `json:"completed_attributes"`
}

// missingEssentials lists the essential attributes no prepared attribute
// covers yet.
func missingEssentials(prepared []PreparedAttribute) []string {
	var missing []string
	for _, essential := range essentialAttributes {
		found := false
		for _, p := range prepared {
			if strings.Contains(p.Name, essential) || strings.Contains(p.DisplayName, essential) {
				found = true
				break
			}
		}
		if !found {
			missing = append(missing, essential)
		}
	}
	return missing
}

func buildCompletionPrompt(missing []string, rec *Record) string {
	return fmt.Sprintf(`基于以下产品信息，请补全缺失的属性：

产品描述：%s
产品编码：%s
系列：%s

需要补全的属性：%s

请根据产品描述推断这些属性的合理值。返回JSON格式：
{
  "completed_attributes": [
    {"name": "材质", "value": "推断的材质", "confidence": 0.8},
    {"name": "颜色", "value": "推断的颜色", "confidence": 0.7}
  ]
}

只补全有把握的属性，不确定的请不要包含。`,
		rec.Description, rec.Code, rec.Series, strings.Join(missing, ", "))
}
