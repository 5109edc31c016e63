package importer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseProductCode(t *testing.T) {
	tests := []struct {
		code string
		want CodeInfo
	}{
		{"N-U30-7256-L/R", CodeInfo{Width: 30, Height: 72, Depth: 56, DoorSwing: "左开/右开"}},
		{"N-U30-7256-L", CodeInfo{Width: 30, Height: 72, Depth: 56, DoorSwing: "左开"}},
		{"N-D60-7256-R", CodeInfo{Width: 60, Height: 72, Depth: 56, DoorSwing: "右开"}},
		{"N-WS45-3530", CodeInfo{Width: 45, Height: 35, Depth: 30}},
		{"N-U30", CodeInfo{}},
		{"", CodeInfo{}},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseProductCode(tt.code))
		})
	}
}

func TestFillFromCode(t *testing.T) {
	t.Run("fills missing fields", func(t *testing.T) {
		rec := &Record{Code: "N-U30-7256-L", Width: 30}
		FillFromCode(rec)
		assert.Equal(t, 72.0, rec.Height)
		assert.Equal(t, 56.0, rec.Depth)
		assert.Equal(t, "左开", rec.DoorSwing)
	})

	t.Run("width recovered when the column is empty", func(t *testing.T) {
		rec := &Record{Code: "N-U30-7256"}
		FillFromCode(rec)
		assert.Equal(t, 30.0, rec.Width)
	})

	t.Run("explicit values win", func(t *testing.T) {
		rec := &Record{Code: "N-U30-7256-L", Width: 30, Height: 80, Depth: 60, DoorSwing: "右开"}
		FillFromCode(rec)
		assert.Equal(t, 80.0, rec.Height)
		assert.Equal(t, 60.0, rec.Depth)
		assert.Equal(t, "右开", rec.DoorSwing)
	})

	t.Run("unparseable code leaves the record alone", func(t *testing.T) {
		rec := &Record{Code: "CUSTOM-1", Width: 30}
		FillFromCode(rec)
		assert.Equal(t, 0.0, rec.Height)
		assert.Empty(t, rec.DoorSwing)
	})
}
