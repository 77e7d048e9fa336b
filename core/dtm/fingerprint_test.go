package dtm

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/adalundhe/patina/core/figma"
	"github.com/adalundhe/patina/core/taste"
)

// fullDTR builds a valid six-section DTR for merge and fingerprint tests.
func fullDTR(name, hash string, mutate func(*taste.DTR)) *taste.DTR {
	d := &taste.DTR{
		SchemaVersion: taste.SchemaVersion,
		Resource:      taste.ResourceRef{Name: name, Hash: hash, Kind: taste.SourceFigmaExport},
		Sections: map[string]*taste.Section{
			taste.SectionStructure: {Pass: taste.SectionStructure, Summary: "grid", Axes: []taste.Axis{
				{Name: "structure.density", Kind: taste.AxisCategorical, Value: "dense", Confidence: 0.9},
			}},
			taste.SectionSurface: {Pass: taste.SectionSurface, Summary: "flat", Axes: []taste.Axis{
				{Name: "surface.corner_radius", Kind: taste.AxisNumeric, Number: 8, Confidence: 0.8},
			}},
			taste.SectionTypography: {Pass: taste.SectionTypography, Summary: "geometric", Axes: []taste.Axis{
				{Name: "typography.voice", Kind: taste.AxisCategorical, Value: "geometric", Confidence: 0.85},
			}},
			taste.SectionImagery: {Pass: taste.SectionImagery, Summary: "photo", Axes: []taste.Axis{
				{Name: "imagery.style", Kind: taste.AxisCategorical, Value: "photo", Confidence: 0.7},
			}},
			taste.SectionComponents: {Pass: taste.SectionComponents, Summary: "pills", Axes: []taste.Axis{
				{Name: "components.button_shape", Kind: taste.AxisCategorical, Value: "pill", Confidence: 0.9},
			}},
			taste.SectionPersonality: {Pass: taste.SectionPersonality, Summary: "confident", Axes: []taste.Axis{
				{Name: "personality.register", Kind: taste.AxisCategorical, Value: "serious", Confidence: 0.8},
			}},
		},
		Narrative: "Dense and confident.",
		Provenance: taste.Provenance{
			Model:         "mock-model",
			Provider:      "mock",
			PromptVersion: "p7",
			ExtractedAt:   time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
		},
	}
	if mutate != nil {
		mutate(d)
	}
	return d
}

func TestFingerprintStable(t *testing.T) {
	a := fullDTR("checkout", "hash-a", nil)
	b := fullDTR("checkout", "hash-a", nil)
	assert.Equal(t, Fingerprint(a), Fingerprint(b))
}

func TestFingerprintIgnoresAxisOrder(t *testing.T) {
	a := fullDTR("checkout", "hash-a", func(d *taste.DTR) {
		d.Section(taste.SectionStructure).Axes = []taste.Axis{
			{Name: "structure.density", Kind: taste.AxisCategorical, Value: "dense", Confidence: 0.9},
			{Name: "structure.alignment", Kind: taste.AxisCategorical, Value: "left", Confidence: 0.7},
		}
	})
	b := fullDTR("checkout", "hash-a", func(d *taste.DTR) {
		d.Section(taste.SectionStructure).Axes = []taste.Axis{
			{Name: "structure.alignment", Kind: taste.AxisCategorical, Value: "left", Confidence: 0.7},
			{Name: "structure.density", Kind: taste.AxisCategorical, Value: "dense", Confidence: 0.9},
		}
	})
	assert.Equal(t, Fingerprint(a), Fingerprint(b))
}

func TestFingerprintIgnoresNarrative(t *testing.T) {
	a := fullDTR("checkout", "hash-a", nil)
	b := fullDTR("checkout", "hash-a", func(d *taste.DTR) {
		d.Narrative = "A completely different paragraph."
	})
	assert.Equal(t, Fingerprint(a), Fingerprint(b))
}

func TestFingerprintChangesWithAxisValue(t *testing.T) {
	a := fullDTR("checkout", "hash-a", nil)
	b := fullDTR("checkout", "hash-a", func(d *taste.DTR) {
		d.Section(taste.SectionStructure).Axis("structure.density").Value = "sparse"
	})
	assert.NotEqual(t, Fingerprint(a), Fingerprint(b))
}

func TestFingerprintChangesWithResourceHash(t *testing.T) {
	a := fullDTR("checkout", "hash-a", nil)
	b := fullDTR("checkout", "hash-b", nil)
	assert.NotEqual(t, Fingerprint(a), Fingerprint(b))
}

func TestFingerprintIncludesMetrics(t *testing.T) {
	a := fullDTR("checkout", "hash-a", func(d *taste.DTR) {
		d.Metrics = &figma.Metrics{Spacing: figma.SpacingQuantum{Quantum: 8, Source: "gcd"}}
	})
	b := fullDTR("checkout", "hash-a", func(d *taste.DTR) {
		d.Metrics = &figma.Metrics{Spacing: figma.SpacingQuantum{Quantum: 4, Source: "gcd"}}
	})
	assert.NotEqual(t, Fingerprint(a), Fingerprint(b))
}

func TestFingerprintSetOrderIndependent(t *testing.T) {
	a := fullDTR("checkout", "hash-a", nil)
	b := fullDTR("settings", "hash-b", nil)

	first := FingerprintSet([]*taste.DTR{a, b})
	second := FingerprintSet([]*taste.DTR{b, a})
	assert.Equal(t, first, second)
	assert.Len(t, first, 2)
}
