package importer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/royana/catalog-engine/pkg/models"
)

func TestCanonicalDisplayOrder(t *testing.T) {
	assert.Equal(t, 1, canonicalDisplayOrder("WIDTH"))
	assert.Equal(t, 4, canonicalDisplayOrder("DOOR_DIRECTION"))
	assert.Equal(t, defaultDisplayOrder, canonicalDisplayOrder("BOARD_GRADE"))
	assert.Equal(t, defaultDisplayOrder, canonicalDisplayOrder("UNKNOWN"))
}

func TestDiscoveredDisplayOrder(t *testing.T) {
	// Discovered attributes always sort after the canonical block, most
	// important first.
	assert.Equal(t, 100, discoveredDisplayOrder(5))
	assert.Equal(t, 110, discoveredDisplayOrder(4))
	assert.Equal(t, 130, discoveredDisplayOrder(2))
	assert.Equal(t, 120, discoveredDisplayOrder(0), "out-of-range importance is treated as 3")
	assert.Equal(t, 120, discoveredDisplayOrder(7))
}

func TestFormatDimension(t *testing.T) {
	assert.Equal(t, "30", formatDimension(30))
	assert.Equal(t, "72.5", formatDimension(72.5))
	assert.Equal(t, "", formatDimension(0))
	assert.Equal(t, "", formatDimension(-5))
}

func TestSeriesDisplayValue(t *testing.T) {
	assert.Equal(t, "NOVO现代系列", seriesDisplayValue("NOVO"))
	assert.Equal(t, "CLASSIC经典系列", seriesDisplayValue("CLASSIC"))
	assert.Equal(t, "RUSTIC", seriesDisplayValue("RUSTIC"))
}

func TestCabinetTypeDisplay(t *testing.T) {
	tests := []struct {
		typeCode string
		series   string
		want     string
	}{
		{"U", "NOVO", "NOVO系列 单门底柜"},
		{"W", "CLASSIC", "经典系列 吊柜"},
		{"WS", "MODERN", "现代系列 单抽吊柜"},
		{"D", "LUXURY", "双门底柜"}, // no series prefix rule
		{"X", "NOVO", "X"},
	}

	for _, tt := range tests {
		t.Run(tt.typeCode+"/"+tt.series, func(t *testing.T) {
			assert.Equal(t, tt.want, cabinetTypeDisplay(tt.typeCode, tt.series))
		})
	}
}

func TestConfigDisplay(t *testing.T) {
	tests := []struct {
		code string
		want string
	}{
		{"STD-001", "标准配置A型"},
		{"PRE-002", "高级配置B型"},
		{"CUS-001", "定制配置A型"},
		{"STD-017", "标准配置 STD-017"},
		{"PRE-099", "高级配置 PRE-099"},
		{"CUS-123", "定制配置 CUS-123"},
		{"SPECIAL-1", "SPECIAL-1"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.want, configDisplay(tt.code))
		})
	}
}

func TestCanonicalAttributes(t *testing.T) {
	row := &RowContext{
		Record: &Record{
			Description: "单门底柜",
			Code:        "N-U30-7256-L",
			TypeCode:    "U",
			Width:       30,
			Height:      72,
			Depth:       56,
			ConfigCode:  "STD-001",
			DoorSwing:   "左开",
		},
		Template: &models.Template{Series: "NOVO", TypeCode: "U"},
	}
	variant := &models.Variant{Code: "N-U30-7256-L-S"}

	specs := canonicalAttributes(row, variant)
	byCode := make(map[string]attributeSpec, len(specs))
	for _, spec := range specs {
		byCode[spec.code] = spec
	}

	require.Len(t, specs, 8)
	assert.Equal(t, "30", byCode["WIDTH"].value)
	assert.Equal(t, models.AttributeTypeNumber, byCode["WIDTH"].attrType)
	assert.Equal(t, "72", byCode["HEIGHT"].value)
	assert.Equal(t, "56", byCode["DEPTH"].value)
	assert.Equal(t, "左开", byCode["DOOR_DIRECTION"].value)
	assert.Equal(t, "NOVO现代系列", byCode["PRODUCT_SERIES"].value)
	assert.Equal(t, "NOVO系列 单门底柜", byCode["CABINET_TYPE"].value)
	assert.Equal(t, "标准配置A型", byCode["PRODUCT_CONFIG"].value)
	assert.Equal(t, "标准型", byCode["BOARD_GRADE"].value)
	assert.Equal(t, 5, byCode["BOARD_GRADE"].importance)
	assert.True(t, byCode["BOARD_GRADE"].filterable)
}

func TestCanonicalAttributes_DoorSwingDefault(t *testing.T) {
	row := &RowContext{
		Record: &Record{
			Description: "双门底柜",
			Code:        "N-D60-7256",
			TypeCode:    "D",
			Width:       60,
		},
		Template: &models.Template{Series: "NOVO", TypeCode: "D"},
	}
	variant := &models.Variant{Code: "N-D60-7256-E"}

	specs := canonicalAttributes(row, variant)
	for _, spec := range specs {
		if spec.code == "DOOR_DIRECTION" {
			assert.Equal(t, "双开", spec.value)
			return
		}
	}
	t.Fatal("DOOR_DIRECTION spec missing")
}
