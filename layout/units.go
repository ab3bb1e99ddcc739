package layout

import (
	"fmt"
	"strconv"
	"strings"
)

// This file defines lengths as written in book markup and their resolution to pixels.

// LengthUnit represents the original unit of a length value.
type LengthUnit int

const (
	UnitPX      LengthUnit = iota // pixels, the layout's native unit
	UnitPT                        // points
	UnitPercent                   // percent of a reference length
)

// Conversion constants between pt and px (96 dpi).
const (
	PtToPx = 96.0 / 72.0
	PxToPt = 1.0 / PtToPx
)

func (u LengthUnit) String() string {
	switch u {
	case UnitPT:
		return "pt"
	case UnitPercent:
		return "%"
	default:
		return "px"
	}
}

// Length preserves a numeric value with its unit.
type Length struct {
	Value float64    `json:"value"`
	Unit  LengthUnit `json:"unit"`
}

func Px(v float64) Length { return Length{Value: v, Unit: UnitPX} }

func (l Length) IsZero() bool { return l.Value == 0 }

// Resolve converts to pixels; percentages are taken of reference.
func (l Length) Resolve(reference float64) float64 {
	switch l.Unit {
	case UnitPT:
		return l.Value * PtToPx
	case UnitPercent:
		return reference * l.Value / 100
	default:
		return l.Value
	}
}

func (l Length) String() string {
	return strconv.FormatFloat(l.Value, 'f', -1, 64) + l.Unit.String()
}

// ParseLength parses "12", "12px", "9pt" or "50%". A bare number is pixels.
func ParseLength(value string) (Length, error) {
	v := strings.ToLower(strings.TrimSpace(value))
	if v == "" {
		return Length{}, fmt.Errorf("empty length")
	}
	unit := UnitPX
	num := v
	for _, suf := range []struct {
		s string
		u LengthUnit
	}{{"px", UnitPX}, {"pt", UnitPT}, {"%", UnitPercent}} {
		if strings.HasSuffix(v, suf.s) {
			unit = suf.u
			num = strings.TrimSpace(strings.TrimSuffix(v, suf.s))
			break
		}
	}
	f, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return Length{}, fmt.Errorf("invalid length %q: %w", value, err)
	}
	if f < 0 {
		return Length{}, fmt.Errorf("negative length %q", value)
	}
	return Length{Value: f, Unit: unit}, nil
}
