package dtm

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adalundhe/patina/core/figma"
	"github.com/adalundhe/patina/core/taste"
)

func TestResolveConflictsMetricsWin(t *testing.T) {
	a := fullDTR("checkout", "hash-a", func(d *taste.DTR) {
		d.Section(taste.SectionSurface).Axis("surface.corner_radius").Number = 8
		d.Metrics = &figma.Metrics{Radii: figma.RadiusProfile{MedianRadius: 8, Samples: 5}}
	})
	b := fullDTR("settings", "hash-b", func(d *taste.DTR) {
		d.Section(taste.SectionSurface).Axis("surface.corner_radius").Number = 16
		d.Metrics = &figma.Metrics{Radii: figma.RadiusProfile{MedianRadius: 12, Samples: 3}}
	})
	dtrs := []*taste.DTR{a, b}

	consensus, conflicts := Merge(dtrs)
	require.NotNil(t, conflictByAxis(conflicts, "surface.corner_radius"))

	ResolveConflicts(conflicts, consensus, dtrs)

	conflict := conflictByAxis(conflicts, "surface.corner_radius")
	assert.Equal(t, ResolvedByMetrics, conflict.ResolvedBy)
	assert.Equal(t, "10", conflict.Resolution)

	axis := consensusByName(consensus, "surface.corner_radius")
	require.NotNil(t, axis)
	assert.InDelta(t, 10.0, axis.Number, 0.001)
	assert.InDelta(t, 1.0, axis.Agreement, 0.001)
}

func TestResolveConflictsCategoricalMajority(t *testing.T) {
	a := fullDTR("checkout", "hash-a", func(d *taste.DTR) {
		d.Section(taste.SectionStructure).Axis("structure.density").Confidence = 0.5
	})
	b := fullDTR("settings", "hash-b", func(d *taste.DTR) {
		axis := d.Section(taste.SectionStructure).Axis("structure.density")
		axis.Value = "sparse"
		axis.Confidence = 0.5
	})
	dtrs := []*taste.DTR{a, b}

	consensus, conflicts := Merge(dtrs)
	ResolveConflicts(conflicts, consensus, dtrs)

	conflict := conflictByAxis(conflicts, "structure.density")
	require.NotNil(t, conflict)
	assert.Equal(t, ResolvedByMajority, conflict.ResolvedBy)
	assert.Equal(t, "dense", conflict.Resolution)
}

func TestResolveConflictsRecency(t *testing.T) {
	confidences := map[string]float64{"hash-a": 0.4, "hash-b": 0.3, "hash-c": 0.3}
	values := map[string]string{"hash-a": "dense", "hash-b": "sparse", "hash-c": "airy"}
	extracted := map[string]time.Time{
		"hash-a": time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC),
		"hash-b": time.Date(2026, 8, 1, 11, 0, 0, 0, time.UTC),
		"hash-c": time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
	}

	var dtrs []*taste.DTR
	for _, hash := range []string{"hash-a", "hash-b", "hash-c"} {
		hash := hash
		dtrs = append(dtrs, fullDTR(hash, hash, func(d *taste.DTR) {
			axis := d.Section(taste.SectionStructure).Axis("structure.density")
			axis.Value = values[hash]
			axis.Confidence = confidences[hash]
			d.Provenance.ExtractedAt = extracted[hash]
		}))
	}

	consensus, conflicts := Merge(dtrs)
	require.NotNil(t, conflictByAxis(conflicts, "structure.density"))

	ResolveConflicts(conflicts, consensus, dtrs)

	conflict := conflictByAxis(conflicts, "structure.density")
	assert.Equal(t, ResolvedByRecency, conflict.ResolvedBy)
	assert.Equal(t, "airy", conflict.Resolution)

	axis := consensusByName(consensus, "structure.density")
	require.NotNil(t, axis)
	assert.Equal(t, "airy", axis.Value)
}

func TestResolveConflictsNumericWithoutMetricsGoesToLLM(t *testing.T) {
	a := fullDTR("checkout", "hash-a", func(d *taste.DTR) {
		d.Section(taste.SectionSurface).Axis("surface.corner_radius").Number = 8
	})
	b := fullDTR("settings", "hash-b", func(d *taste.DTR) {
		d.Section(taste.SectionSurface).Axis("surface.corner_radius").Number = 16
	})
	dtrs := []*taste.DTR{a, b}

	consensus, conflicts := Merge(dtrs)
	ResolveConflicts(conflicts, consensus, dtrs)

	conflict := conflictByAxis(conflicts, "surface.corner_radius")
	require.NotNil(t, conflict)
	assert.Equal(t, ResolvedByLLM, conflict.ResolvedBy)
	assert.Empty(t, conflict.Resolution)
}
