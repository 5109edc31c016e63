package importer

import (
	"regexp"
	"strconv"
	"strings"
)

// CodeInfo holds the fields a product code encodes. Zero values mean the code
// did not carry that piece.
type CodeInfo struct {
	Width     float64
	Height    float64
	Depth     float64
	DoorSwing string // display form
}

var (
	codeWidthPattern  = regexp.MustCompile(`-[A-Z]+(\d+)-`)
	codeHeightPattern = regexp.MustCompile(`-(\d{2})(\d{2})(?:-|$)`)
)

// ParseProductCode extracts dimensions and door swing from a product code
// like N-U30-7256-L/R: the digits after the type letters are the width, the
// 4-digit group splits into height and depth, and the suffix names the door
// swing. Deterministic rule extraction runs before any AI classification so
// the AI only sees what rules could not cover.
func ParseProductCode(code string) CodeInfo {
	var info CodeInfo
	if code == "" {
		return info
	}

	if m := codeWidthPattern.FindStringSubmatch(code); m != nil {
		if w, err := strconv.Atoi(m[1]); err == nil {
			info.Width = float64(w)
		}
	}

	if m := codeHeightPattern.FindStringSubmatch(code); m != nil {
		if h, err := strconv.Atoi(m[1]); err == nil {
			info.Height = float64(h)
		}
		if d, err := strconv.Atoi(m[2]); err == nil {
			info.Depth = float64(d)
		}
	}

	switch {
	case strings.Contains(code, "L/R"):
		info.DoorSwing = "左开/右开"
	case strings.HasSuffix(code, "-L"):
		info.DoorSwing = "左开"
	case strings.HasSuffix(code, "-R"):
		info.DoorSwing = "右开"
	}

	return info
}

// FillFromCode completes missing record fields from the parsed code. Values
// present in the record always win over code-derived ones.
func FillFromCode(rec *Record) {
	info := ParseProductCode(rec.Code)

	if rec.Width <= 0 && info.Width > 0 {
		rec.Width = info.Width
	}
	if rec.Height <= 0 && info.Height > 0 {
		rec.Height = info.Height
	}
	if rec.Depth <= 0 && info.Depth > 0 {
		rec.Depth = info.Depth
	}
	if rec.DoorSwing == "" && info.DoorSwing != "" {
		rec.DoorSwing = info.DoorSwing
	}
}
