package importer

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"

	"go.uber.org/zap"

	"github.com/royana/catalog-engine/pkg/apperrors"
	"github.com/royana/catalog-engine/pkg/models"
	"github.com/royana/catalog-engine/pkg/repositories"
)

// Canonical attribute names and codes.
const (
	attrWidth      = "宽度"
	attrHeight     = "高度"
	attrDepth      = "深度"
	attrDoorSwing  = "开门方向"
	attrSeries     = "产品系列"
	attrCabinet    = "柜体类型"
	attrConfig     = "产品配置"
	attrBoardGrade = "板材级别"
)

// displayOrderByCode positions canonical attributes on listing surfaces.
// Everything else defaults to 99; AI-discovered attributes are pushed past
// 100 ranked by importance.
var displayOrderByCode = map[string]int{
	"WIDTH":          1,
	"HEIGHT":         2,
	"DEPTH":          3,
	"DOOR_DIRECTION": 4,
	"PRODUCT_SERIES": 5,
}

const defaultDisplayOrder = 99

// configCodeDisplay maps configuration codes to their display form, with
// pattern fallbacks for codes outside the fixed table.
var configCodeDisplay = map[string]string{
	"STD-001": "标准配置A型",
	"STD-002": "标准配置B型",
	"STD-003": "标准配置C型",
	"PRE-001": "高级配置A型",
	"PRE-002": "高级配置B型",
	"CUS-001": "定制配置A型",
}

var configCodePatterns = []struct {
	pattern *regexp.Regexp
	display string
}{
	{regexp.MustCompile(`^STD-\d+$`), "标准配置"},
	{regexp.MustCompile(`^PRE-\d+$`), "高级配置"},
	{regexp.MustCompile(`^CUS-\d+$`), "定制配置"},
}

// attributeSpec is one canonical attribute of a variant, fully determined by
// rule tables.
type attributeSpec struct {
	name       string
	code       string
	value      string
	attrType   models.AttributeType
	filterable bool
	importance int
}

// relationStage associates attributes with the variants and template created
// by the product stage: canonical attributes through the display tables
// first, then the analyzer's prepared attributes through the smart mapper.
type relationStage struct {
	mapper    *SmartMapper
	relations repositories.RelationRepository
	logger    *zap.Logger
}

// NewRelationStage builds the attribute association stage.
func NewRelationStage(mapper *SmartMapper, relations repositories.RelationRepository, logger *zap.Logger) Stage {
	return &relationStage{
		mapper:    mapper,
		relations: relations,
		logger:    logger.Named("relation"),
	}
}

func (s *relationStage) Name() string { return StageRelation }

func (s *relationStage) Run(ctx context.Context, row *RowContext) error {
	if row.Template == nil || len(row.Variants) == 0 {
		return &RowError{
			Stage:   StageRelation,
			Kind:    models.ErrorKindSystem,
			Message: "product stage left no variants to associate",
		}
	}

	associated := 0
	for _, variant := range row.Variants {
		for _, spec := range canonicalAttributes(row, variant) {
			if spec.value == "" {
				continue
			}
			if err := s.associateCanonical(ctx, row, variant, spec); err != nil {
				return err
			}
			associated++
		}

		for _, prep := range row.Prepared {
			if err := s.associatePrepared(ctx, row, variant, prep); err != nil {
				return err
			}
			associated++
		}
	}

	s.logger.Info("attributes associated",
		zap.Int("row", row.RowNumber),
		zap.Int("variants", len(row.Variants)),
		zap.Int("associations", associated))
	return nil
}

func (s *relationStage) associateCanonical(ctx context.Context, row *RowContext, variant *models.Variant, spec attributeSpec) error {
	attr, err := s.mapper.ResolveFixed(ctx, spec.name, spec.code, spec.attrType, spec.filterable, spec.importance)
	if err != nil {
		return &RowError{Stage: StageRelation, Kind: models.ErrorKindSystem, Field: spec.name, Message: "failed to resolve attribute", Cause: err}
	}
	return s.associate(ctx, row, variant, attr, spec.value, canonicalDisplayOrder(attr.Code))
}

func (s *relationStage) associatePrepared(ctx context.Context, row *RowContext, variant *models.Variant, prep PreparedAttribute) error {
	attr, err := s.mapper.ResolveAttribute(ctx, prep)
	if err != nil {
		return &RowError{Stage: StageRelation, Kind: models.ErrorKindSystem, Field: prep.Name, Message: "failed to resolve attribute", Cause: err}
	}

	value := prep.DisplayValue
	if value == "" {
		value = prep.Value
	}
	return s.associate(ctx, row, variant, attr, value, discoveredDisplayOrder(prep.Importance))
}

// associate writes the variant association (predefined value for enumerable
// types, custom value otherwise) and ensures the template attribute record.
func (s *relationStage) associate(ctx context.Context, row *RowContext, variant *models.Variant, attr *models.Attribute, value string, displayOrder int) error {
	var va models.VariantAttribute
	switch attr.Type {
	case models.AttributeTypeSelect, models.AttributeTypeBoolean:
		predefined, err := s.mapper.ResolveValue(ctx, attr, value)
		if err != nil {
			return &RowError{Stage: StageRelation, Kind: models.ErrorKindSystem, Field: attr.Name, Message: "failed to resolve attribute value", Cause: err}
		}
		va = models.NewPredefinedVariantAttribute(variant.ID, attr.ID, predefined.ID)
	default:
		va = models.NewCustomVariantAttribute(variant.ID, attr.ID, value)
	}

	if err := s.relations.UpsertVariantAttribute(ctx, &va); err != nil {
		kind := models.ErrorKindSystem
		if errors.Is(err, apperrors.ErrValueNotOwned) || errors.Is(err, apperrors.ErrNotFound) {
			kind = models.ErrorKindReference
		}
		return &RowError{
			Stage:   StageRelation,
			Kind:    kind,
			Field:   attr.Name,
			Message: fmt.Sprintf("failed to associate attribute with variant %s", variant.Code),
			Cause:   err,
		}
	}

	ta := models.TemplateAttribute{
		TemplateID:   row.Template.ID,
		AttributeID:  attr.ID,
		DisplayOrder: displayOrder,
	}
	if err := s.relations.EnsureTemplateAttribute(ctx, &ta); err != nil {
		return &RowError{Stage: StageRelation, Kind: models.ErrorKindSystem, Field: attr.Name, Message: "failed to record template attribute", Cause: err}
	}
	return nil
}

// canonicalAttributes expands the record's fixed columns into attribute specs
// for one variant, applying the display tables.
func canonicalAttributes(row *RowContext, variant *models.Variant) []attributeSpec {
	rec := row.Record
	series := row.Template.Series

	doorSwing := rec.DoorSwing
	if doorSwing == "" {
		doorSwing = "双开"
	}

	specs := []attributeSpec{
		{name: attrWidth, code: "WIDTH", value: formatDimension(rec.Width), attrType: models.AttributeTypeNumber, importance: 4},
		{name: attrHeight, code: "HEIGHT", value: formatDimension(rec.Height), attrType: models.AttributeTypeNumber, importance: 4},
		{name: attrDepth, code: "DEPTH", value: formatDimension(rec.Depth), attrType: models.AttributeTypeNumber, importance: 4},
		{name: attrDoorSwing, code: "DOOR_DIRECTION", value: doorSwing, attrType: models.AttributeTypeSelect, filterable: true, importance: 4},
		{name: attrSeries, code: "PRODUCT_SERIES", value: seriesDisplayValue(series), attrType: models.AttributeTypeSelect, filterable: true, importance: 4},
		{name: attrCabinet, code: "CABINET_TYPE", value: cabinetTypeDisplay(rec.TypeCode, series), attrType: models.AttributeTypeSelect, filterable: true, importance: 4},
		{name: attrConfig, code: "PRODUCT_CONFIG", value: configDisplay(rec.ConfigCode), attrType: models.AttributeTypeSelect, importance: 3},
		{name: attrBoardGrade, code: "BOARD_GRADE", value: models.TierDisplayNameForCode(variant.Code), attrType: models.AttributeTypeSelect, filterable: true, importance: 5},
	}
	return specs
}

func canonicalDisplayOrder(code string) int {
	if order, ok := displayOrderByCode[code]; ok {
		return order
	}
	return defaultDisplayOrder
}

// discoveredDisplayOrder ranks AI/rule-discovered attributes after every
// canonical attribute, more important ones first.
func discoveredDisplayOrder(importance int) int {
	if importance < 1 || importance > 5 {
		importance = 3
	}
	return 100 + (5-importance)*10
}

func formatDimension(value float64) string {
	if value <= 0 {
		return ""
	}
	return strconv.FormatFloat(value, 'f', -1, 64)
}

func seriesDisplayValue(series string) string {
	if display, ok := seriesDisplay[series]; ok {
		return display
	}
	return series
}

// cabinetTypeDisplay maps a type code to its display form, refined by the
// per-series prefix rule.
func cabinetTypeDisplay(typeCode, series string) string {
	display, ok := typeCodeDisplay[typeCode]
	if !ok {
		return typeCode
	}
	if prefix, ok := typeCodeSeriesPrefix[series]; ok {
		return prefix + " " + display
	}
	return display
}

func configDisplay(configCode string) string {
	if configCode == "" {
		return ""
	}
	if display, ok := configCodeDisplay[configCode]; ok {
		return display
	}
	for _, rule := range configCodePatterns {
		if rule.pattern.MatchString(configCode) {
			return rule.display + " " + configCode
		}
	}
	return configCode
}
