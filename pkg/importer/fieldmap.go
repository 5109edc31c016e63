package importer

import "strings"

// Canonical field names of the import format. Raw headers of the upstream
// export carry bilingual annotations (产品描述 (Description)); internally only
// the canonical short names are used.
const (
	FieldDescription = "产品描述"
	FieldCode        = "产品编码"
	FieldSeries      = "系列"
	FieldTypeCode    = "类型代码"
	FieldWidth       = "宽度"
	FieldHeight      = "高度"
	FieldDepth       = "深度"
	FieldConfigCode  = "配置代码"
	FieldDoorSwing   = "开门方向"
	FieldRemarks     = "备注"

	FieldTier1 = "价格等级I"
	FieldTier2 = "价格等级II"
	FieldTier3 = "价格等级III"
	FieldTier4 = "价格等级IV"
	FieldTier5 = "价格等级V"
)

// headerToCanonical maps raw export headers to canonical field names.
var headerToCanonical = map[string]string{
	"产品描述 (Description)": FieldDescription,
	"产品编码 (Code)":        FieldCode,
	"系列 (Series)":        FieldSeries,
	"类型代码 (Type_Code)":    FieldTypeCode,
	"宽度 (Width_cm)":      FieldWidth,
	"高度 (Height_cm)":     FieldHeight,
	"深度 (Depth_cm)":      FieldDepth,
	"配置代码 (Config_Code)":  FieldConfigCode,
	"开门方向 (Door_Swing)":   FieldDoorSwing,
	"备注 (Remarks)":       FieldRemarks,
	"等级Ⅰ":                FieldTier1,
	"等级Ⅱ":                FieldTier2,
	"等级Ⅲ":                FieldTier3,
	"等级Ⅳ":                FieldTier4,
	"等级Ⅴ":                FieldTier5,
}

var canonicalToHeader = func() map[string]string {
	m := make(map[string]string, len(headerToCanonical))
	for header, canonical := range headerToCanonical {
		m[canonical] = header
	}
	return m
}()

// canonicalFields is the set of every canonical column name.
var canonicalFields = func() map[string]bool {
	m := make(map[string]bool, len(headerToCanonical))
	for _, canonical := range headerToCanonical {
		m[canonical] = true
	}
	return m
}()

// tierFields lists the price tier columns in tier order.
var tierFields = []string{FieldTier1, FieldTier2, FieldTier3, FieldTier4, FieldTier5}

// CanonicalField resolves a raw header to its canonical name. Unmapped
// headers pass through trimmed, so extra columns survive as
// unknown-attribute candidates.
func CanonicalField(header string) string {
	trimmed := strings.TrimSpace(header)
	if canonical, ok := headerToCanonical[trimmed]; ok {
		return canonical
	}
	return trimmed
}

// RawHeader returns the raw export header for a canonical field, or the
// field itself when it never had an annotated form.
func RawHeader(canonical string) string {
	if header, ok := canonicalToHeader[canonical]; ok {
		return header
	}
	return canonical
}

// IsCanonicalField reports whether name is one of the fixed import columns.
func IsCanonicalField(name string) bool {
	return canonicalFields[name]
}
