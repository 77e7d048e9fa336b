package dtm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adalundhe/patina/core/taste"
)

func consensusByName(axes []taste.ConsensusAxis, name string) *taste.ConsensusAxis {
	for i := range axes {
		if axes[i].Name == name {
			return &axes[i]
		}
	}
	return nil
}

func conflictByAxis(conflicts []taste.Conflict, name string) *taste.Conflict {
	for i := range conflicts {
		if conflicts[i].Axis == name {
			return &conflicts[i]
		}
	}
	return nil
}

func TestMergeNumericWeightedMean(t *testing.T) {
	a := fullDTR("checkout", "hash-a", func(d *taste.DTR) {
		d.Section(taste.SectionSurface).Axis("surface.corner_radius").Number = 8
		d.Section(taste.SectionSurface).Axis("surface.corner_radius").Confidence = 0.8
	})
	b := fullDTR("settings", "hash-b", func(d *taste.DTR) {
		d.Section(taste.SectionSurface).Axis("surface.corner_radius").Number = 10
		d.Section(taste.SectionSurface).Axis("surface.corner_radius").Confidence = 0.4
	})

	consensus, conflicts := Merge([]*taste.DTR{a, b})

	radius := consensusByName(consensus, "surface.corner_radius")
	require.NotNil(t, radius)
	// (8*0.8 + 10*0.4) / 1.2
	assert.InDelta(t, 8.667, radius.Number, 0.001)
	assert.Equal(t, 2, radius.Sources)
	assert.Nil(t, conflictByAxis(conflicts, "surface.corner_radius"))
}

func TestMergeNumericSpreadConflict(t *testing.T) {
	a := fullDTR("checkout", "hash-a", func(d *taste.DTR) {
		d.Section(taste.SectionSurface).Axis("surface.corner_radius").Number = 8
	})
	b := fullDTR("settings", "hash-b", func(d *taste.DTR) {
		d.Section(taste.SectionSurface).Axis("surface.corner_radius").Number = 16
	})

	_, conflicts := Merge([]*taste.DTR{a, b})

	conflict := conflictByAxis(conflicts, "surface.corner_radius")
	require.NotNil(t, conflict)
	assert.Len(t, conflict.Values, 2)
	assert.Empty(t, conflict.ResolvedBy)
}

func TestMergeCategoricalMajority(t *testing.T) {
	a := fullDTR("checkout", "hash-a", nil)
	b := fullDTR("settings", "hash-b", nil)
	c := fullDTR("profile", "hash-c", func(d *taste.DTR) {
		axis := d.Section(taste.SectionStructure).Axis("structure.density")
		axis.Value = "sparse"
		axis.Confidence = 0.3
	})

	consensus, conflicts := Merge([]*taste.DTR{a, b, c})

	density := consensusByName(consensus, "structure.density")
	require.NotNil(t, density)
	assert.Equal(t, "dense", density.Value)
	// 1.8 / 2.1
	assert.InDelta(t, 0.857, density.Agreement, 0.001)
	assert.Equal(t, 3, density.Sources)
	assert.Nil(t, conflictByAxis(conflicts, "structure.density"))
}

func TestMergeCategoricalSplitConflict(t *testing.T) {
	a := fullDTR("checkout", "hash-a", func(d *taste.DTR) {
		d.Section(taste.SectionStructure).Axis("structure.density").Confidence = 0.5
	})
	b := fullDTR("settings", "hash-b", func(d *taste.DTR) {
		axis := d.Section(taste.SectionStructure).Axis("structure.density")
		axis.Value = "sparse"
		axis.Confidence = 0.5
	})

	consensus, conflicts := Merge([]*taste.DTR{a, b})

	density := consensusByName(consensus, "structure.density")
	require.NotNil(t, density)
	assert.InDelta(t, 0.5, density.Agreement, 0.001)
	require.NotNil(t, conflictByAxis(conflicts, "structure.density"))
}

func TestMergeDegradedSectionsCarryNoWeight(t *testing.T) {
	a := fullDTR("checkout", "hash-a", func(d *taste.DTR) {
		d.Section(taste.SectionStructure).Axis("structure.density").Confidence = 0.6
	})
	b := fullDTR("settings", "hash-b", func(d *taste.DTR) {
		section := d.Section(taste.SectionStructure)
		section.Degraded = true
		axis := section.Axis("structure.density")
		axis.Value = "sparse"
		axis.Confidence = 0.9
	})

	consensus, conflicts := Merge([]*taste.DTR{a, b})

	density := consensusByName(consensus, "structure.density")
	require.NotNil(t, density)
	assert.Equal(t, "dense", density.Value)
	assert.InDelta(t, 1.0, density.Agreement, 0.001)
	assert.Nil(t, conflictByAxis(conflicts, "structure.density"))
}

func TestMergeOnlyDegradedObservations(t *testing.T) {
	a := fullDTR("checkout", "hash-a", func(d *taste.DTR) {
		d.Section(taste.SectionImagery).Degraded = true
	})

	consensus, conflicts := Merge([]*taste.DTR{a})

	style := consensusByName(consensus, "imagery.style")
	require.NotNil(t, style)
	assert.Equal(t, "photo", style.Value)
	assert.Zero(t, style.Agreement)
	assert.Empty(t, conflicts)
}

func TestMergeAxesSortedByName(t *testing.T) {
	consensus, _ := Merge([]*taste.DTR{fullDTR("checkout", "hash-a", nil)})
	for i := 1; i < len(consensus); i++ {
		assert.Less(t, consensus[i-1].Name, consensus[i].Name)
	}
}
