package genui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/adalundhe/patina/core/dtm"
	"github.com/adalundhe/patina/core/taste"
)

// AssembleBrief renders a DTM into the generation brief: personality,
// narrative, token sheet, consensus axes grouped by section, and how
// conflicted axes were settled. Rendering is deterministic so briefs are
// diffable across runs.
func AssembleBrief(m *taste.DTM) string {
	var sb strings.Builder

	sb.WriteString("## TASTE\n")
	fmt.Fprintf(&sb, "Personality: %s\n", m.Personality)
	if m.Narrative != "" {
		sb.WriteString("\n")
		sb.WriteString(m.Narrative)
		sb.WriteString("\n")
	}

	sb.WriteString("\n## DESIGN TOKENS\n")
	sb.WriteString("```css\n")
	sb.WriteString(TokensFromDTM(m).CSS())
	sb.WriteString("```\n")

	sb.WriteString("\n## TASTE AXES\n")
	for _, group := range groupAxes(m.Consensus) {
		fmt.Fprintf(&sb, "\n### %s\n", group.section)
		for _, axis := range group.axes {
			if axis.Kind == taste.AxisNumeric {
				fmt.Fprintf(&sb, "- %s: %.4g (agreement %.2f)\n",
					shortName(axis.Name), axis.Number, axis.Agreement)
				continue
			}
			fmt.Fprintf(&sb, "- %s: %s (agreement %.2f)\n",
				shortName(axis.Name), axis.Value, axis.Agreement)
		}
	}

	if len(m.Conflicts) > 0 {
		sb.WriteString("\n## SETTLED DISAGREEMENTS\n")
		for _, c := range sortedConflicts(m.Conflicts) {
			resolution := c.Resolution
			if resolution == "" {
				resolution = "unresolved"
			}
			fmt.Fprintf(&sb, "- %s: %s (via %s)\n", c.Axis, resolution, resolvedByLabel(c.ResolvedBy))
		}
	}
	return sb.String()
}

type axisGroup struct {
	section string
	axes    []taste.ConsensusAxis
}

// groupAxes splits axes by their section prefix, sections and axes both in
// name order.
func groupAxes(axes []taste.ConsensusAxis) []axisGroup {
	bySection := make(map[string][]taste.ConsensusAxis)
	for _, axis := range axes {
		section := axis.Name
		if i := strings.IndexByte(axis.Name, '.'); i > 0 {
			section = axis.Name[:i]
		}
		bySection[section] = append(bySection[section], axis)
	}

	sections := make([]string, 0, len(bySection))
	for section := range bySection {
		sections = append(sections, section)
	}
	sort.Strings(sections)

	groups := make([]axisGroup, 0, len(sections))
	for _, section := range sections {
		group := axisGroup{section: section, axes: bySection[section]}
		sort.Slice(group.axes, func(i, j int) bool {
			return group.axes[i].Name < group.axes[j].Name
		})
		groups = append(groups, group)
	}
	return groups
}

func shortName(name string) string {
	if i := strings.IndexByte(name, '.'); i > 0 {
		return name[i+1:]
	}
	return name
}

func sortedConflicts(conflicts []taste.Conflict) []taste.Conflict {
	out := make([]taste.Conflict, len(conflicts))
	copy(out, conflicts)
	sort.Slice(out, func(i, j int) bool { return out[i].Axis < out[j].Axis })
	return out
}

func resolvedByLabel(resolvedBy string) string {
	switch resolvedBy {
	case dtm.ResolvedByMetrics:
		return "measured metrics"
	case dtm.ResolvedByMajority:
		return "majority"
	case dtm.ResolvedByRecency:
		return "most recent resource"
	case dtm.ResolvedByLLM:
		return "synthesis"
	default:
		return "unknown"
	}
}
