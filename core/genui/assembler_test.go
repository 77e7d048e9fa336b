package genui

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/adalundhe/patina/core/dtm"
	"github.com/adalundhe/patina/core/taste"
)

func TestAssembleBriefSections(t *testing.T) {
	m := sampleDTM()
	m.Conflicts = []taste.Conflict{
		{Axis: "surface.corner_radius", Resolution: "12", ResolvedBy: dtm.ResolvedByMetrics},
	}

	brief := AssembleBrief(m)

	assert.Contains(t, brief, "## TASTE")
	assert.Contains(t, brief, "Personality: Dense, geometric, confident.")
	assert.Contains(t, brief, "A taut, grid-driven system")
	assert.Contains(t, brief, "## DESIGN TOKENS")
	assert.Contains(t, brief, "--radius: 12px;")
	assert.Contains(t, brief, "## TASTE AXES")
	assert.Contains(t, brief, "### structure")
	assert.Contains(t, brief, "- density: dense (agreement 0.90)")
	assert.Contains(t, brief, "- corner_radius: 12 (agreement 0.85)")
	assert.Contains(t, brief, "## SETTLED DISAGREEMENTS")
	assert.Contains(t, brief, "- surface.corner_radius: 12 (via measured metrics)")
}

func TestAssembleBriefDeterministic(t *testing.T) {
	m := sampleDTM()
	assert.Equal(t, AssembleBrief(m), AssembleBrief(m))
}

func TestAssembleBriefGroupsSectionsInOrder(t *testing.T) {
	brief := AssembleBrief(sampleDTM())

	components := strings.Index(brief, "### components")
	structure := strings.Index(brief, "### structure")
	surface := strings.Index(brief, "### surface")
	typography := strings.Index(brief, "### typography")

	assert.Greater(t, components, 0)
	assert.Greater(t, structure, components)
	assert.Greater(t, surface, structure)
	assert.Greater(t, typography, surface)
}

func TestAssembleBriefNoConflictsOmitsSection(t *testing.T) {
	brief := AssembleBrief(sampleDTM())
	assert.NotContains(t, brief, "## SETTLED DISAGREEMENTS")
}
