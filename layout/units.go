package layout

import (
	"fmt"
	"strconv"
	"strings"
)

// This file defines unit-safe types and helpers for lengths and line spacing.
// All layout math runs in pixels of the base image; the canvas renderer maps
// 1px to 1mm and talks to the font system in points.

// Unit is the unit a length value was written in.
type Unit int

const (
	UnitNone Unit = iota // unit-less numbers like factors
	UnitPX               // pixels of the base image
	UnitMM               // millimeters
	UnitPT               // points
)

// Conversion constants between pt and mm.
const (
	PtToMm = 0.352777
	MmToPt = 1.0 / PtToMm
)

// UnitToString returns a short string for a Unit value.
func UnitToString(u Unit) string {
	switch u {
	case UnitPX:
		return "px"
	case UnitMM:
		return "mm"
	case UnitPT:
		return "pt"
	default:
		return ""
	}
}

// Length preserves a numeric value with its unit.
type Length struct {
	Value float64 `json:"value"`
	Unit  Unit    `json:"unit"`
}

func (l Length) IsZero() bool { return l.Value == 0 }

// Pixels converts the length to base-image pixels. Millimeters are taken at
// 1px per mm, the resolution the renderer rasterizes at.
func (l Length) Pixels() float64 {
	switch l.Unit {
	case UnitPT:
		return l.Value * PtToMm
	default:
		return l.Value
	}
}

// Points converts the length to points.
func (l Length) Points() float64 {
	if l.Unit == UnitPT {
		return l.Value
	}
	return l.Pixels() * MmToPt
}

// ParseLength parses a length such as "64", "64px", "48pt" or "12mm".
// A bare number is read as pixels.
func ParseLength(value string) (Length, error) {
	v := strings.ToLower(strings.TrimSpace(value))
	if v == "" {
		return Length{}, fmt.Errorf("长度为空")
	}
	unit := UnitPX
	num := v
	for _, suf := range []struct {
		s string
		u Unit
	}{{"px", UnitPX}, {"mm", UnitMM}, {"pt", UnitPT}} {
		if strings.HasSuffix(v, suf.s) {
			unit = suf.u
			num = strings.TrimSpace(strings.TrimSuffix(v, suf.s))
			break
		}
	}
	f, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return Length{}, fmt.Errorf("无法解析长度 %q: %w", value, err)
	}
	return Length{Value: f, Unit: unit}, nil
}

// SpacingKind distinguishes factor-based vs absolute line spacing.
type SpacingKind int

const (
	SpacingFactor SpacingKind = iota
	SpacingAbsolute
)

// Spacing is the gap inserted between two wrapped lines: either a factor of
// the font size (e.g. 0.15x) or an absolute length (e.g. 6px).
type Spacing struct {
	Kind   SpacingKind `json:"kind"`
	Factor float64     `json:"factor,omitempty"`
	Len    Length      `json:"len,omitempty"`
}

// Resolve computes the gap in pixels for the given font size in pixels.
func (s Spacing) Resolve(fontSize float64) float64 {
	switch s.Kind {
	case SpacingAbsolute:
		return s.Len.Pixels()
	default:
		return fontSize * s.Factor
	}
}

// ParseSpacing accepts "0.15x" for a factor and any ParseLength form for an
// absolute gap.
func ParseSpacing(value string) (Spacing, error) {
	v := strings.TrimSpace(value)
	if strings.HasSuffix(v, "x") {
		f, err := strconv.ParseFloat(strings.TrimSuffix(v, "x"), 64)
		if err != nil || f < 0 {
			return Spacing{}, fmt.Errorf("无法解析行距 %q", value)
		}
		return Spacing{Kind: SpacingFactor, Factor: f}, nil
	}
	l, err := ParseLength(v)
	if err != nil {
		return Spacing{}, err
	}
	if l.Value < 0 {
		return Spacing{}, fmt.Errorf("行距不能为负: %q", value)
	}
	return Spacing{Kind: SpacingAbsolute, Len: l}, nil
}
