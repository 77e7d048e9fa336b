package passes

import "github.com/adalundhe/patina/core/taste"

const fallbackNarrative = "A restrained, conventional interface. Extraction " +
	"was degraded for this resource; qualities beyond the code metrics could " +
	"not be assessed."

// fallbackAxes are the neutral defaults substituted when a pass fails. Every
// categorical axis gets its middle value at zero confidence so downstream
// consensus treats the section as present but uninformative.
var fallbackAxes = map[string][]taste.Axis{
	taste.SectionStructure: {
		{Name: "structure.density", Kind: taste.AxisCategorical, Value: "balanced"},
		{Name: "structure.alignment", Kind: taste.AxisCategorical, Value: "mixed"},
		{Name: "structure.whitespace_use", Kind: taste.AxisCategorical, Value: "moderate"},
	},
	taste.SectionSurface: {
		{Name: "surface.elevation_style", Kind: taste.AxisCategorical, Value: "subtle"},
		{Name: "surface.border_use", Kind: taste.AxisCategorical, Value: "hairline"},
		{Name: "surface.contrast", Kind: taste.AxisCategorical, Value: "medium"},
	},
	taste.SectionTypography: {
		{Name: "typography.voice", Kind: taste.AxisCategorical, Value: "neutral"},
		{Name: "typography.weight_contrast", Kind: taste.AxisCategorical, Value: "medium"},
		{Name: "typography.line_tightness", Kind: taste.AxisCategorical, Value: "normal"},
	},
	taste.SectionImagery: {
		{Name: "imagery.style", Kind: taste.AxisCategorical, Value: "none"},
		{Name: "imagery.decoration", Kind: taste.AxisCategorical, Value: "minimal"},
	},
	taste.SectionComponents: {
		{Name: "components.button_shape", Kind: taste.AxisCategorical, Value: "rounded"},
		{Name: "components.input_style", Kind: taste.AxisCategorical, Value: "outline"},
		{Name: "components.card_anatomy", Kind: taste.AxisCategorical, Value: "outlined"},
	},
	taste.SectionPersonality: {
		{Name: "personality.register", Kind: taste.AxisCategorical, Value: "neutral"},
		{Name: "personality.energy", Kind: taste.AxisCategorical, Value: "measured"},
		{Name: "personality.era", Kind: taste.AxisCategorical, Value: "current"},
	},
}

// FallbackSection returns the degraded stand-in for a failed pass.
func FallbackSection(sectionKey string) *taste.Section {
	axes := fallbackAxes[sectionKey]
	out := make([]taste.Axis, len(axes))
	copy(out, axes)
	return &taste.Section{
		Pass:     sectionKey,
		Summary:  "extraction degraded; neutral defaults substituted",
		Axes:     out,
		Degraded: true,
	}
}
