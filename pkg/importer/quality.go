package importer

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/royana/catalog-engine/pkg/llm"
	"github.com/royana/catalog-engine/pkg/models"
)

// Severity grades a quality finding. Only critical findings abort the row.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// QualityIssue is one finding of the quality checker.
type QualityIssue struct {
	Type     string
	Field    string
	Severity Severity
	Message  string
}

// dimensionRanges holds the plausible cm ranges per dimension field.
var dimensionRanges = []struct {
	field    string
	min, max float64
}{
	{FieldWidth, 10, 300},
	{FieldHeight, 50, 250},
	{FieldDepth, 30, 100},
}

var severityWeights = map[Severity]int{
	SeverityCritical: 30,
	SeverityHigh:     20,
	SeverityMedium:   10,
	SeverityLow:      5,
}

type qualityStage struct {
	aiCaller *aiCaller // nil disables the AI validation pass
	logger   *zap.Logger
}

// NewQualityStage builds the heuristic quality checker. When caller is
// non-nil, complex or high-value rows additionally get an AI business-logic
// validation pass whose failures contribute nothing.
func NewQualityStage(caller *aiCaller, logger *zap.Logger) Stage {
	return &qualityStage{aiCaller: caller, logger: logger.Named("quality")}
}

func (s *qualityStage) Name() string { return StageQuality }

func (s *qualityStage) Run(ctx context.Context, row *RowContext) error {
	rec := row.Record
	issues := checkHeuristics(rec)

	if s.aiCaller != nil && shouldUseAIValidation(rec) {
		issues = append(issues, s.aiValidate(ctx, row, rec)...)
	}

	row.Issues = append(row.Issues, issues...)

	score := QualityScore(issues)
	if len(issues) > 0 {
		s.logger.Info("quality findings",
			zap.Int("row", row.RowNumber),
			zap.Int("issues", len(issues)),
			zap.Float64("score", score))
	}

	for _, issue := range issues {
		if issue.Severity == SeverityCritical {
			return &RowError{
				Stage:   StageQuality,
				Kind:    models.ErrorKindQuality,
				Field:   issue.Field,
				Message: issue.Message,
			}
		}
	}
	return nil
}

// checkHeuristics runs the deterministic quality rules.
func checkHeuristics(rec *Record) []QualityIssue {
	var issues []QualityIssue

	if !rec.HasPositivePrice() {
		issues = append(issues, QualityIssue{
			Type:     "no_price_tier",
			Field:    "price_levels",
			Severity: SeverityHigh,
			Message:  "no price tier carries a positive price",
		})
	}

	// Tier prices should not decrease from one level to the next.
	var prev float64
	for _, tier := range tierFields {
		price := rec.TierPrices[tier]
		if price <= 0 {
			continue
		}
		if prev > 0 && price < prev {
			issues = append(issues, QualityIssue{
				Type:     "price_logic_error",
				Field:    "price_levels",
				Severity: SeverityMedium,
				Message:  fmt.Sprintf("tier prices are not increasing (%s is %.0f, previous tier %.0f)", tier, price, prev),
			})
			break
		}
		prev = price
	}

	for _, r := range dimensionRanges {
		value := dimensionValue(rec, r.field)
		if value <= 0 {
			continue
		}
		if value < r.min || value > r.max {
			issues = append(issues, QualityIssue{
				Type:     "dimension_out_of_range",
				Field:    r.field,
				Severity: SeverityHigh,
				Message:  fmt.Sprintf("%s %.0f outside plausible range %.0f-%.0f cm", r.field, value, r.min, r.max),
			})
		}
	}

	if rec.Code != "" && !ValidCodeFormat(rec.Code) {
		issues = append(issues, QualityIssue{
			Type:     "invalid_code_format",
			Field:    FieldCode,
			Severity: SeverityHigh,
			Message:  fmt.Sprintf("product code %q does not match the N-<TYPE><W>-<HHDD>[-SWING] convention", rec.Code),
		})
	}

	// Width encoded in the code should agree with the width column.
	if info := ParseProductCode(rec.Code); info.Width > 0 && rec.Width > 0 && info.Width != rec.Width {
		issues = append(issues, QualityIssue{
			Type:     "code_dimension_mismatch",
			Field:    FieldWidth,
			Severity: SeverityMedium,
			Message:  fmt.Sprintf("code encodes width %.0f but the width column says %.0f", info.Width, rec.Width),
		})
	}

	return issues
}

func dimensionValue(rec *Record, field string) float64 {
	switch field {
	case FieldWidth:
		return rec.Width
	case FieldHeight:
		return rec.Height
	case FieldDepth:
		return rec.Depth
	}
	return 0
}

// QualityScore grades a row 0-100 from its findings.
func QualityScore(issues []QualityIssue) float64 {
	score := 100
	for _, issue := range issues {
		weight, ok := severityWeights[issue.Severity]
		if !ok {
			weight = severityWeights[SeverityLow]
		}
		score -= weight
	}
	if score < 0 {
		score = 0
	}
	return float64(score)
}

// shouldUseAIValidation limits the AI pass to rows where it can add value:
// high-priced products and descriptions with complex features.
func shouldUseAIValidation(rec *Record) bool {
	var maxPrice float64
	for _, p := range rec.TierPrices {
		if p > maxPrice {
			maxPrice = p
		}
	}
	if maxPrice > 10000 {
		return true
	}

	desc := strings.ToLower(rec.Description)
	for _, keyword := range []string{"古典", "欧式", "美式", "led", "恒温", "智能", "定制"} {
		if strings.Contains(desc, keyword) {
			return true
		}
	}
	return false
}

type aiValidationResponse struct {
	Issues []struct {
		Type     string `json:"type"`
		Message  string `json:"message"`
		Severity string `json:"severity"`
	} `json:"issues"`
}

func (s *qualityStage) aiValidate(ctx context.Context, row *RowContext, rec *Record) []QualityIssue {
	prompt := buildValidationPrompt(rec)

	content, err := s.aiCaller.Generate(ctx, prompt)
	if err != nil {
		s.logger.Warn("AI business validation unavailable, skipping",
			zap.Int("row", row.RowNumber),
			zap.Error(err))
		return nil
	}

	parsed, err := llm.ParseJSONResponse[aiValidationResponse](content)
	if err != nil {
		s.logger.Warn("AI business validation returned unparseable content, skipping",
			zap.Int("row", row.RowNumber),
			zap.Error(err))
		return nil
	}

	issues := make([]QualityIssue, 0, len(parsed.Issues))
	for _, found := range parsed.Issues {
		severity := Severity(found.Severity)
		if _, ok := severityWeights[severity]; !ok {
			severity = SeverityMedium
		}
		// AI findings never abort a row.
		if severity == SeverityCritical {
			severity = SeverityHigh
		}
		issues = append(issues, QualityIssue{
			Type:     "ai_business_logic",
			Field:    "business_logic",
			Severity: severity,
			Message:  found.Message,
		})
	}
	return issues
}

func buildValidationPrompt(rec *Record) string {
	return fmt.Sprintf(`请验证以下产品数据的业务逻辑合理性：

产品描述：%s
产品编码：%s
尺寸：宽%.0fcm × 高%.0fcm × 深%.0fcm
价格等级：%.0f, %.0f, %.0f, %.0f, %.0f

请检查：
1. 尺寸与产品类型是否匹配
2. 价格与材质、工艺是否合理
3. 功能描述与产品类型是否一致
4. 是否存在明显的逻辑错误

如发现问题，请返回JSON格式：
{"issues": [{"type": "logic_error", "message": "具体问题描述", "severity": "medium"}]}

如无问题，返回：{"issues": []}`,
		rec.Description, rec.Code,
		rec.Width, rec.Height, rec.Depth,
		rec.TierPrices[FieldTier1], rec.TierPrices[FieldTier2], rec.TierPrices[FieldTier3],
		rec.TierPrices[FieldTier4], rec.TierPrices[FieldTier5])
}
