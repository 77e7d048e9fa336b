// Package genui turns a synthesized taste model into generation artifacts:
// a deterministic design-token sheet, an assembled generation brief, and
// LLM-generated component code.
package genui

import (
	"fmt"
	"math"
	"strings"

	"github.com/adalundhe/patina/core/taste"
)

// Token defaults, used when the model carries no reading for an axis.
const (
	defaultSpacingUnit = 8.0
	defaultRadius      = 8.0
	defaultTypeRatio   = 1.25
	defaultBaseFont    = 16.0
)

// Type-ratio clamp range. Extraction noise outside this band produces
// unusable scales.
const (
	minTypeRatio = 1.05
	maxTypeRatio = 1.8
)

// typeSteps are the emitted font-size tokens, base index 2.
var typeSteps = []string{"xs", "sm", "base", "lg", "xl", "2xl", "3xl"}

// Tokens is the deterministic design-token reading of a DTM. Every field has
// a usable default so token emission never depends on extraction coverage.
type Tokens struct {
	SpacingUnit  float64
	Radius       float64
	RadiusFull   float64
	TypeRatio    float64
	BaseFontSize float64

	Density     string
	Elevation   string
	BorderUse   string
	ButtonShape string
}

// TokensFromDTM derives tokens from the model's consensus axes. No LLM is
// involved: the same DTM always yields the same tokens.
func TokensFromDTM(m *taste.DTM) Tokens {
	t := Tokens{
		SpacingUnit:  defaultSpacingUnit,
		Radius:       defaultRadius,
		RadiusFull:   9999,
		TypeRatio:    defaultTypeRatio,
		BaseFontSize: defaultBaseFont,
		Density:      "balanced",
		Elevation:    "subtle",
		BorderUse:    "hairline",
		ButtonShape:  "rounded",
	}

	if axis := m.ConsensusAxisByName("surface.corner_radius"); axis != nil && axis.Number > 0 {
		t.Radius = math.Round(axis.Number)
	}
	if axis := m.ConsensusAxisByName("typography.size_ratio"); axis != nil && axis.Number > 0 {
		t.TypeRatio = clampRatio(axis.Number)
	}
	if axis := m.ConsensusAxisByName("structure.whitespace_use"); axis != nil {
		switch axis.Value {
		case "tight":
			t.SpacingUnit = 4
		case "generous":
			t.SpacingUnit = 12
		}
	}
	if axis := m.ConsensusAxisByName("structure.density"); axis != nil && axis.Value != "" {
		t.Density = axis.Value
	}
	if axis := m.ConsensusAxisByName("surface.elevation_style"); axis != nil && axis.Value != "" {
		t.Elevation = axis.Value
	}
	if axis := m.ConsensusAxisByName("surface.border_use"); axis != nil && axis.Value != "" {
		t.BorderUse = axis.Value
	}
	if axis := m.ConsensusAxisByName("components.button_shape"); axis != nil && axis.Value != "" {
		t.ButtonShape = axis.Value
		if axis.Value == "sharp" {
			t.Radius = math.Min(t.Radius, 2)
		}
	}
	return t
}

func clampRatio(r float64) float64 {
	if r < minTypeRatio {
		return minTypeRatio
	}
	if r > maxTypeRatio {
		return maxTypeRatio
	}
	return r
}

// CSS renders the tokens as custom properties. Output order is fixed so the
// same tokens always produce the same file.
func (t Tokens) CSS() string {
	var sb strings.Builder
	sb.WriteString(":root {\n")

	for i := 1; i <= 8; i++ {
		fmt.Fprintf(&sb, "  --space-%d: %spx;\n", i, formatPx(t.SpacingUnit*float64(i)))
	}

	fmt.Fprintf(&sb, "  --radius: %spx;\n", formatPx(t.Radius))
	fmt.Fprintf(&sb, "  --radius-sm: %spx;\n", formatPx(math.Max(t.Radius/2, 1)))
	fmt.Fprintf(&sb, "  --radius-lg: %spx;\n", formatPx(t.Radius*1.5))
	if t.ButtonShape == "pill" {
		fmt.Fprintf(&sb, "  --radius-button: %spx;\n", formatPx(t.RadiusFull))
	} else {
		fmt.Fprintf(&sb, "  --radius-button: %spx;\n", formatPx(t.Radius))
	}

	// Base sits at index 2: two steps down, four steps up.
	for i, step := range typeSteps {
		size := t.BaseFontSize * math.Pow(t.TypeRatio, float64(i-2))
		fmt.Fprintf(&sb, "  --text-%s: %spx;\n", step, formatPx(size))
	}

	fmt.Fprintf(&sb, "  --shadow: %s;\n", shadowValue(t.Elevation))
	fmt.Fprintf(&sb, "  --border-width: %s;\n", borderWidth(t.BorderUse))

	sb.WriteString("}\n")
	return sb.String()
}

// formatPx trims trailing zeros so 8.0 renders as "8" and 12.8 stays "12.8".
func formatPx(v float64) string {
	s := fmt.Sprintf("%.2f", v)
	s = strings.TrimRight(s, "0")
	return strings.TrimRight(s, ".")
}

func shadowValue(elevation string) string {
	switch elevation {
	case "flat":
		return "none"
	case "layered":
		return "0 4px 12px rgb(0 0 0 / 0.10)"
	case "dramatic":
		return "0 12px 32px rgb(0 0 0 / 0.18)"
	default:
		return "0 1px 3px rgb(0 0 0 / 0.08)"
	}
}

func borderWidth(use string) string {
	switch use {
	case "none":
		return "0"
	case "pronounced":
		return "2px"
	default:
		return "1px"
	}
}
