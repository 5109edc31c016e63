package importer

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/royana/catalog-engine/pkg/apperrors"
	"github.com/royana/catalog-engine/pkg/models"
	"github.com/royana/catalog-engine/pkg/repositories"
)

const (
	defaultBrandName    = "ROYANA整木定制"
	defaultCategoryName = "整木定制产品"
)

// seriesDisplay maps series codes to their catalog display form.
var seriesDisplay = map[string]string{
	"NOVO":    "NOVO现代系列",
	"CLASSIC": "CLASSIC经典系列",
	"MODERN":  "MODERN时尚系列",
	"LUXURY":  "LUXURY奢华系列",
	"SIMPLE":  "SIMPLE简约系列",
}

// typeCodeDisplay maps cabinet type codes to their display form.
var typeCodeDisplay = map[string]string{
	"U":  "单门底柜",
	"US": "单门单抽底柜",
	"UC": "内置抽屉柜",
	"D":  "双门底柜",
	"DS": "双门单抽底柜",
	"DC": "双门内置抽屉柜",
	"T":  "三门底柜",
	"W":  "吊柜",
	"WS": "单抽吊柜",
}

// typeCodeSeriesPrefix refines the cabinet type display per series.
var typeCodeSeriesPrefix = map[string]string{
	"NOVO":    "NOVO系列",
	"CLASSIC": "经典系列",
	"MODERN":  "现代系列",
}

// productStage resolves the Brand -> Category -> Template chain and fans one
// variant out per positive price tier.
type productStage struct {
	brands        repositories.BrandRepository
	categories    repositories.CategoryRepository
	templates     repositories.TemplateRepository
	variants      repositories.VariantRepository
	defaultSeries string
	logger        *zap.Logger
}

// NewProductStage builds the product construction stage.
func NewProductStage(
	brands repositories.BrandRepository,
	categories repositories.CategoryRepository,
	templates repositories.TemplateRepository,
	variants repositories.VariantRepository,
	defaultSeries string,
	logger *zap.Logger,
) Stage {
	return &productStage{
		brands:        brands,
		categories:    categories,
		templates:     templates,
		variants:      variants,
		defaultSeries: defaultSeries,
		logger:        logger.Named("product"),
	}
}

func (s *productStage) Name() string { return StageProduct }

func (s *productStage) Run(ctx context.Context, row *RowContext) error {
	rec := row.Record

	if !rec.HasPositivePrice() {
		return &RowError{
			Stage:   StageProduct,
			Kind:    models.ErrorKindValidation,
			Field:   "price_levels",
			Message: "no positive price tier, nothing to import",
			Cause:   apperrors.ErrNoPriceTier,
		}
	}

	brand, err := s.brands.GetOrCreate(ctx, models.DefaultBrandCode, defaultBrandName)
	if err != nil {
		return &RowError{Stage: StageProduct, Kind: models.ErrorKindSystem, Message: "failed to resolve brand", Cause: err}
	}

	category, err := s.categories.GetOrCreate(ctx, models.DefaultCategoryCode, defaultCategoryName)
	if err != nil {
		return &RowError{Stage: StageProduct, Kind: models.ErrorKindSystem, Message: "failed to resolve category", Cause: err}
	}

	series := rec.Series
	if series == "" {
		series = s.defaultSeries
	}

	template := &models.Template{
		BrandID:     brand.ID,
		CategoryID:  category.ID,
		Code:        fmt.Sprintf("%s_%s", series, rec.TypeCode),
		Name:        templateName(rec.Description, series, rec.TypeCode),
		Description: fmt.Sprintf("%s系列 %s类型产品", series, rec.TypeCode),
		Series:      series,
		TypeCode:    rec.TypeCode,
	}
	if err := s.templates.GetOrCreate(ctx, template); err != nil {
		return &RowError{Stage: StageProduct, Kind: models.ErrorKindSystem, Message: "failed to resolve template", Cause: err}
	}

	var variants []*models.Variant
	for _, tier := range models.PriceTiers {
		price := rec.TierPrices[tier.Field]
		if price <= 0 {
			continue
		}

		variant := &models.Variant{
			TemplateID:  template.ID,
			Code:        rec.Code + tier.Suffix,
			Name:        fmt.Sprintf("%s (%s)", rec.Description, tier.DisplayName),
			Description: rec.EnglishName,
			Price:       price,
			Stock:       0,
			MinStock:    10,
			IsActive:    true,
			Remarks:     rec.Remarks,
		}
		if err := s.variants.Upsert(ctx, variant); err != nil {
			return &RowError{
				Stage:   StageProduct,
				Kind:    models.ErrorKindSystem,
				Field:   tier.Field,
				Message: fmt.Sprintf("failed to upsert variant %s", variant.Code),
				Cause:   err,
			}
		}
		variants = append(variants, variant)
	}

	row.Brand = brand
	row.Category = category
	row.Template = template
	row.Variants = variants

	s.logger.Info("products built",
		zap.Int("row", row.RowNumber),
		zap.String("template", template.Code),
		zap.Int("variants", len(variants)))
	return nil
}

var (
	sizeNoisePattern = regexp.MustCompile(`\d+cm`)
	codeNoisePattern = regexp.MustCompile(`N-[A-Z0-9/-]+`)
)

// templateName derives a template name from the row description, stripping
// variant-level noise (sizes, product codes). Falls back to the display forms
// of series and type code when the description gives nothing usable.
func templateName(description, series, typeCode string) string {
	cleaned := sizeNoisePattern.ReplaceAllString(description, "")
	cleaned = codeNoisePattern.ReplaceAllString(cleaned, "")
	cleaned = spacePattern.ReplaceAllString(strings.TrimSpace(cleaned), " ")

	if runes := []rune(cleaned); len(runes) > 5 {
		if len(runes) > 30 {
			return string(runes[:30]) + "..."
		}
		return cleaned
	}

	seriesName := seriesDisplay[series]
	if seriesName == "" {
		seriesName = series
	}
	typeName := typeCodeDisplay[typeCode]
	if typeName == "" {
		typeName = typeCode
	}
	return strings.TrimSpace(seriesName + " " + typeName)
}
