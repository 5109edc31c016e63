package importer

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/royana/catalog-engine/pkg/models"
)

// doorSwingDisplay maps raw door swing codes to their display form. Unmapped
// tokens are kept as-is. An empty cell stays empty here: the product code may
// still carry the swing, and the 双开 default applies only after that.
var doorSwingDisplay = map[string]string{
	"L":   "左开",
	"R":   "右开",
	"L/R": "左开/右开",
	"LR":  "左开/右开",
	"-":   "无门板",
}

// nullTokens are raw cell values meaning "no value".
var nullTokens = map[string]bool{
	"-":    true,
	"N/A":  true,
	"NULL": true,
	"null": true,
}

var codeFormatPattern = regexp.MustCompile(`^N-[A-Z]+\d+(-\d+)?-\d+(-[A-Z/]+)?$`)

type preprocessStage struct {
	logger *zap.Logger
}

// NewPreprocessStage builds the cleaning and validation stage. It is the only
// stage whose validation aborts a row: a missing description or a missing
// code fails the row before anything touches the database. Dimensions are
// not required here; the code parser can still recover them.
func NewPreprocessStage(logger *zap.Logger) Stage {
	return &preprocessStage{logger: logger.Named("preprocess")}
}

func (s *preprocessStage) Name() string { return StagePreprocess }

func (s *preprocessStage) Run(ctx context.Context, row *RowContext) error {
	rec := &Record{
		TierPrices: make(map[string]float64, len(tierFields)),
		Extra:      make(map[string]string),
	}

	rec.Description, rec.EnglishName = splitDescription(row.Raw[FieldDescription])
	rec.Code = normalizeCode(row.Raw[FieldCode])
	rec.Series = cleanValue(row.Raw[FieldSeries])
	rec.TypeCode = strings.ToUpper(cleanValue(row.Raw[FieldTypeCode]))
	rec.Width = parseDimension(row.Raw[FieldWidth])
	rec.Height = parseDimension(row.Raw[FieldHeight])
	rec.Depth = parseDimension(row.Raw[FieldDepth])
	rec.ConfigCode = strings.ToUpper(cleanValue(row.Raw[FieldConfigCode]))
	rec.DoorSwing = mapDoorSwing(row.Raw[FieldDoorSwing])
	rec.Remarks = strings.TrimSpace(row.Raw[FieldRemarks])

	for _, tier := range tierFields {
		rec.TierPrices[tier] = parsePrice(row.Raw[tier])
	}

	for name, value := range row.Raw {
		if IsCanonicalField(name) {
			continue
		}
		cleaned := cleanValue(value)
		if cleaned != "" {
			rec.Extra[name] = cleaned
		}
	}

	if rec.Description == "" {
		return &RowError{
			Stage:   StagePreprocess,
			Kind:    models.ErrorKindValidation,
			Field:   FieldDescription,
			Message: "product description is required",
		}
	}
	if rec.Code == "" {
		return &RowError{
			Stage:   StagePreprocess,
			Kind:    models.ErrorKindValidation,
			Field:   FieldCode,
			Message: "product code is required",
		}
	}
	row.Record = rec
	s.logger.Debug("row preprocessed",
		zap.Int("row", row.RowNumber),
		zap.String("code", rec.Code),
		zap.Int("extra_fields", len(rec.Extra)))
	return nil
}

// cleanValue trims a raw cell and collapses the null tokens to empty.
func cleanValue(value string) string {
	trimmed := strings.TrimSpace(value)
	if nullTokens[trimmed] {
		return ""
	}
	return trimmed
}

// splitDescription splits a <br>-separated description. The first line is the
// primary description; the second, when present, is the English name.
func splitDescription(raw string) (primary, english string) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" || nullTokens[trimmed] {
		return "", ""
	}

	parts := strings.Split(trimmed, "<br>")
	primary = strings.TrimSpace(parts[0])
	if len(parts) > 1 {
		english = strings.TrimSpace(parts[1])
	}
	return primary, english
}

// parsePrice parses a tier price, stripping thousands separators and currency
// marks. Dashes, empty cells and unparseable values all become 0.
func parsePrice(raw string) float64 {
	cleaned := cleanValue(raw)
	if cleaned == "" {
		return 0
	}

	cleaned = strings.NewReplacer(",", "", "￥", "", "元", "", " ", "").Replace(cleaned)
	price, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || price < 0 {
		return 0
	}
	return price
}

// parseDimension parses a size cell, tolerating unit suffixes. Invalid values
// become 0.
func parseDimension(raw string) float64 {
	cleaned := cleanValue(raw)
	if cleaned == "" {
		return 0
	}

	for _, suffix := range []string{"cm", "CM", "mm", "MM"} {
		cleaned = strings.TrimSuffix(cleaned, suffix)
	}
	cleaned = strings.TrimSpace(cleaned)

	dim, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || dim < 0 {
		return 0
	}
	return dim
}

// mapDoorSwing maps a raw door swing code to its display form.
func mapDoorSwing(raw string) string {
	trimmed := strings.ToUpper(strings.TrimSpace(raw))
	if display, ok := doorSwingDisplay[trimmed]; ok {
		return display
	}
	return strings.TrimSpace(raw)
}

// normalizeCode uppercases a product code and removes inner spaces.
func normalizeCode(raw string) string {
	cleaned := cleanValue(raw)
	if cleaned == "" {
		return ""
	}
	return strings.ToUpper(strings.ReplaceAll(cleaned, " ", ""))
}

// ValidCodeFormat reports whether code matches the product code convention
// (e.g. N-U30-7256-L/R). Used by the quality checker, never as a hard
// validation.
func ValidCodeFormat(code string) bool {
	return codeFormatPattern.MatchString(code)
}
