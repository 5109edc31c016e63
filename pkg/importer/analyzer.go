package importer

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/royana/catalog-engine/pkg/config"
	"github.com/royana/catalog-engine/pkg/llm"
	"github.com/royana/catalog-engine/pkg/models"
	"github.com/royana/catalog-engine/pkg/retry"
)

// skipValues are cell values that never count as an attribute value.
var skipValues = map[string]bool{
	"":    true,
	"-":   true,
	"N/A": true,
	"0":   true,
	"0.0": true,
}

// UnknownAttribute is an input column outside the canonical set, carrying a
// usable value.
type UnknownAttribute struct {
	Name  string
	Value string
}

// aiCaller wraps the chat-completion client with the per-call timeout, retry
// policy and circuit breaker shared by every AI-backed stage. A nil caller
// means the AI path is disabled and callers fall back to rules.
type aiCaller struct {
	client  llm.LLMClient
	breaker *llm.CircuitBreaker
	cfg     *config.AIConfig
	logger  *zap.Logger
}

func newAICaller(client llm.LLMClient, cfg *config.AIConfig, logger *zap.Logger) *aiCaller {
	return &aiCaller{
		client:  client,
		breaker: llm.NewCircuitBreaker(llm.DefaultCircuitBreakerConfig()),
		cfg:     cfg,
		logger:  logger.Named("ai"),
	}
}

// Generate runs one prompt through the classifier with retries. Non-retryable
// errors fail fast; every failure feeds the circuit breaker so a dead
// endpoint stops being called mid-job.
func (c *aiCaller) Generate(ctx context.Context, prompt string) (string, error) {
	if allowed, err := c.breaker.Allow(); !allowed {
		return "", err
	}

	retryCfg := &retry.Config{
		MaxRetries:   c.cfg.MaxRetries,
		InitialDelay: c.cfg.RetryDelay(),
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
		JitterFactor: 0.1,
	}

	var content string
	err := retry.DoIfRetryable(ctx, retryCfg, func() error {
		callCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout())
		defer cancel()

		res, callErr := c.client.GenerateResponse(callCtx, prompt, "", c.cfg.Temperature)
		if callErr != nil {
			return callErr
		}
		content = res.Content
		return nil
	})
	if err != nil {
		c.breaker.RecordFailure()
		return "", err
	}

	c.breaker.RecordSuccess()
	return content, nil
}

// Classification is the analyzed form of one unknown attribute. Classify
// never fails: degraded paths produce the default classification with the
// reason recorded instead of an error.
type Classification struct {
	DisplayName    string
	DisplayValue   string
	Type           models.AttributeType
	Filterable     bool
	Importance     int
	Confidence     float64
	Source         models.ClassificationSource
	FallbackReason string
}

// Analyzer identifies and classifies attributes outside the canonical column
// set, combining keyword rules with the AI classifier.
type Analyzer struct {
	caller     *aiCaller // nil disables the AI path
	maxUnknown int
	confidence float64
	logger     *zap.Logger
}

// NewAnalyzer builds the attribute analyzer. caller may be nil, in which case
// every classification comes from the rule tables.
func NewAnalyzer(caller *aiCaller, importCfg *config.ImportConfig, aiCfg *config.AIConfig, logger *zap.Logger) *Analyzer {
	return &Analyzer{
		caller:     caller,
		maxUnknown: importCfg.MaxUnknownAttributes,
		confidence: aiCfg.ConfidenceThreshold,
		logger:     logger.Named("analyzer"),
	}
}

// IdentifyUnknown returns the classifiable extra columns of a record, sorted
// by name for deterministic processing and capped at the configured per-row
// maximum.
func (a *Analyzer) IdentifyUnknown(rec *Record) []UnknownAttribute {
	names := make([]string, 0, len(rec.Extra))
	for name, value := range rec.Extra {
		if skipValues[strings.TrimSpace(value)] {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)

	if a.maxUnknown > 0 && len(names) > a.maxUnknown {
		a.logger.Warn("unknown attribute cap reached, ignoring the rest",
			zap.Int("found", len(names)),
			zap.Int("cap", a.maxUnknown))
		names = names[:a.maxUnknown]
	}

	unknown := make([]UnknownAttribute, len(names))
	for i, name := range names {
		unknown[i] = UnknownAttribute{Name: name, Value: rec.Extra[name]}
	}
	return unknown
}

// Classify analyzes one attribute. Rules run first; the AI result replaces
// them only when the response is complete, its type is valid and its
// confidence clears the threshold.
func (a *Analyzer) Classify(ctx context.Context, attr UnknownAttribute, rec *Record) Classification {
	result := ruleClassify(attr.Name, attr.Value)

	if a.caller == nil {
		return result
	}

	prompt := buildAnalysisPrompt(attr, rec)
	content, err := a.caller.Generate(ctx, prompt)
	if err != nil {
		result.FallbackReason = fmt.Sprintf("AI classifier unavailable: %v", err)
		a.logger.Warn("AI classification unavailable, keeping rule result",
			zap.String("attribute", attr.Name),
			zap.Error(err))
		return result
	}

	aiResult, reason := a.parseAnalysis(content, attr)
	if reason != "" {
		result.FallbackReason = reason
		a.logger.Warn("AI classification rejected, keeping rule result",
			zap.String("attribute", attr.Name),
			zap.String("reason", reason))
		return result
	}

	a.logger.Debug("AI classification accepted",
		zap.String("attribute", attr.Name),
		zap.String("display_name", aiResult.DisplayName),
		zap.Float64("confidence", aiResult.Confidence))
	return aiResult
}

// attributeNameDisplay standardizes common attribute names.
var attributeNameDisplay = map[string]string{
	"材质": "材质类型",
	"颜色": "产品颜色",
	"风格": "设计风格",
	"等级": "产品等级",
	"型号": "产品型号",
	"规格": "产品规格",
	"厚度": "板材厚度",
	"重量": "产品重量",
	"品牌": "品牌名称",
	"产地": "生产地区",
}

var materialValueDisplay = map[string]string{
	"实木":  "实木材质",
	"颗粒板": "实木颗粒板",
	"密度板": "中密度纤维板",
	"MDF": "中密度纤维板",
	"OSB": "定向刨花板",
}

var colorValueDisplay = map[string]string{
	"白":  "纯白色",
	"黑":  "经典黑",
	"灰":  "高级灰",
	"木色": "原木色",
	"胡桃": "胡桃木色",
}

// ruleClassify classifies an attribute from keyword tables alone. It never
// fails; when no rule recognizes the attribute the default classification is
// returned (name unchanged, text, importance 3, confidence 0.5).
func ruleClassify(name, value string) Classification {
	displayName, nameMatched := standardizeName(name)
	attrType, typeMatched := ruleType(name, value)
	displayValue := standardizeValue(name, value)

	if !nameMatched && !typeMatched {
		return Classification{
			DisplayName:  name,
			DisplayValue: value,
			Type:         models.AttributeTypeText,
			Filterable:   false,
			Importance:   3,
			Confidence:   0.5,
			Source:       models.SourceDefault,
		}
	}

	return Classification{
		DisplayName:  displayName,
		DisplayValue: displayValue,
		Type:         attrType,
		Filterable:   ruleFilterable(name, attrType),
		Importance:   ruleImportance(name),
		Confidence:   0.85,
		Source:       models.SourceRule,
	}
}

func standardizeName(name string) (string, bool) {
	if display, ok := attributeNameDisplay[name]; ok {
		return display, true
	}
	for keyword := range attributeNameDisplay {
		if strings.Contains(name, keyword) {
			return name, true
		}
	}
	return name, false
}

func standardizeValue(name, value string) string {
	if strings.Contains(name, "材质") {
		for keyword, display := range materialValueDisplay {
			if strings.Contains(value, keyword) {
				return display
			}
		}
	}
	if strings.Contains(name, "颜色") {
		for keyword, display := range colorValueDisplay {
			if strings.Contains(value, keyword) {
				return display
			}
		}
	}
	return value
}

func ruleType(name, value string) (models.AttributeType, bool) {
	lowerValue := strings.ToLower(strings.TrimSpace(value))

	for _, keyword := range []string{"尺寸", "长度", "宽度", "高度", "深度", "厚度", "重量"} {
		if strings.Contains(name, keyword) {
			return models.AttributeTypeNumber, true
		}
	}

	if strings.Contains(name, "颜色") || strings.Contains(name, "色彩") || strings.Contains(strings.ToLower(name), "color") {
		return models.AttributeTypeSelect, true
	}

	switch lowerValue {
	case "是", "否", "true", "false", "有", "无":
		return models.AttributeTypeBoolean, true
	}

	if len([]rune(lowerValue)) < 20 {
		for _, keyword := range []string{"材质", "类型", "风格", "等级", "规格", "型号"} {
			if strings.Contains(name, keyword) {
				return models.AttributeTypeSelect, true
			}
		}
	}

	return models.AttributeTypeText, false
}

func ruleFilterable(name string, attrType models.AttributeType) bool {
	for _, keyword := range []string{"材质", "颜色", "风格", "等级", "品牌", "系列", "类型"} {
		if strings.Contains(name, keyword) {
			return true
		}
	}
	return attrType == models.AttributeTypeSelect || attrType == models.AttributeTypeBoolean
}

func ruleImportance(name string) int {
	for _, keyword := range []string{"材质", "颜色", "风格", "等级"} {
		if strings.Contains(name, keyword) {
			return 5
		}
	}
	for _, keyword := range []string{"品牌", "系列", "型号", "规格"} {
		if strings.Contains(name, keyword) {
			return 4
		}
	}
	for _, keyword := range []string{"厚度", "重量", "产地"} {
		if strings.Contains(name, keyword) {
			return 3
		}
	}
	return 2
}

type aiAnalysis struct {
	DisplayName   string   `json:"display_name"`
	DisplayValue  string   `json:"display_value"`
	AttributeType string   `json:"attribute_type"`
	Filterable    bool     `json:"filterable"`
	Importance    *int     `json:"importance"`
	Confidence    *float64 `json:"confidence"`
}

// parseAnalysis validates an AI response. A non-empty reason means the
// response was rejected and the rule result stands.
func (a *Analyzer) parseAnalysis(content string, attr UnknownAttribute) (Classification, string) {
	parsed, err := llm.ParseJSONResponse[aiAnalysis](content)
	if err != nil {
		return Classification{}, fmt.Sprintf("unparseable response: %v", err)
	}

	if strings.TrimSpace(parsed.DisplayName) == "" || strings.TrimSpace(parsed.DisplayValue) == "" {
		return Classification{}, "missing display_name or display_value"
	}
	if parsed.Importance == nil || *parsed.Importance < 1 || *parsed.Importance > 5 {
		return Classification{}, "importance outside 1..5"
	}
	if parsed.Confidence == nil {
		return Classification{}, "missing confidence"
	}
	if *parsed.Confidence < a.confidence {
		return Classification{}, fmt.Sprintf("confidence %.2f below threshold %.2f", *parsed.Confidence, a.confidence)
	}

	attrType, ok := mapAnalysisType(parsed.AttributeType)
	if !ok {
		return Classification{}, fmt.Sprintf("invalid attribute_type %q", parsed.AttributeType)
	}

	return Classification{
		DisplayName:  strings.TrimSpace(parsed.DisplayName),
		DisplayValue: strings.TrimSpace(parsed.DisplayValue),
		Type:         attrType,
		Filterable:   parsed.Filterable,
		Importance:   *parsed.Importance,
		Confidence:   *parsed.Confidence,
		Source:       models.SourceAI,
	}, ""
}

// mapAnalysisType converts an AI type token to the stored attribute type.
// The classifier prompt also offers "color"; colors are enumerable so they
// are stored as select attributes.
func mapAnalysisType(token string) (models.AttributeType, bool) {
	switch strings.ToLower(strings.TrimSpace(token)) {
	case "text":
		return models.AttributeTypeText, true
	case "number":
		return models.AttributeTypeNumber, true
	case "boolean":
		return models.AttributeTypeBoolean, true
	case "select", "color":
		return models.AttributeTypeSelect, true
	}
	return "", false
}

func buildAnalysisPrompt(attr UnknownAttribute, rec *Record) string {
	return fmt.Sprintf(`请分析家具产品属性并返回JSON格式结果。

属性名: %s
属性值: %s
产品: %s

请返回JSON格式的分析结果，包含以下字段：
- display_name: 标准化属性名称
- display_value: 标准化属性值
- attribute_type: 数据类型(text/number/select/boolean/color)
- filterable: 是否可筛选(true/false)
- importance: 重要程度(1-5)
- confidence: 置信度(0.0-1.0)

只返回JSON，不要其他文字：`, attr.Name, attr.Value, rec.Description)
}

// analyzeStage runs code-derived completion and unknown-attribute
// classification, producing the prepared attribute list.
type analyzeStage struct {
	analyzer *Analyzer
	logger   *zap.Logger
}

// NewAnalyzeStage builds the smart attribute analysis stage.
func NewAnalyzeStage(analyzer *Analyzer, logger *zap.Logger) Stage {
	return &analyzeStage{analyzer: analyzer, logger: logger.Named("analyze")}
}

func (s *analyzeStage) Name() string { return StageAnalyze }

func (s *analyzeStage) Run(ctx context.Context, row *RowContext) error {
	// Rule extraction from the product code first, so missing dimensions are
	// completed before anything downstream reads them.
	FillFromCode(row.Record)

	unknown := s.analyzer.IdentifyUnknown(row.Record)
	if len(unknown) == 0 {
		return nil
	}

	s.logger.Info("classifying unknown attributes",
		zap.Int("row", row.RowNumber),
		zap.Int("count", len(unknown)))

	for _, attr := range unknown {
		c := s.analyzer.Classify(ctx, attr, row.Record)
		row.Prepared = append(row.Prepared, PreparedAttribute{
			Name:           attr.Name,
			Value:          attr.Value,
			DisplayName:    c.DisplayName,
			DisplayValue:   c.DisplayValue,
			Type:           c.Type,
			Filterable:     c.Filterable,
			Importance:     c.Importance,
			Confidence:     c.Confidence,
			Source:         c.Source,
			FallbackReason: c.FallbackReason,
		})
	}
	return nil
}
