package dtm

import (
	"math"
	"sort"

	"github.com/adalundhe/patina/core/taste"
)

// Agreement below which a categorical axis is a conflict.
const categoricalConflictThreshold = 0.6

// Relative spread above which a numeric axis is a conflict.
const numericConflictSpread = 0.35

// observation is one resource's view of an axis.
type observation struct {
	resourceHash string
	axis         taste.Axis
	degraded     bool
	order        int // DTR position, for recency tie-breaks
}

// Merge folds the axes of multiple DTRs into consensus values and conflicts.
// Degraded sections contribute at zero weight: present, never decisive.
func Merge(dtrs []*taste.DTR) ([]taste.ConsensusAxis, []taste.Conflict) {
	grouped := groupObservations(dtrs)

	names := make([]string, 0, len(grouped))
	for name := range grouped {
		names = append(names, name)
	}
	sort.Strings(names)

	consensus := make([]taste.ConsensusAxis, 0, len(names))
	var conflicts []taste.Conflict
	for _, name := range names {
		obs := grouped[name]
		if obs[0].axis.Kind == taste.AxisNumeric {
			axis, conflict := mergeNumeric(name, obs)
			consensus = append(consensus, axis)
			if conflict != nil {
				conflicts = append(conflicts, *conflict)
			}
			continue
		}
		axis, conflict := mergeCategorical(name, obs)
		consensus = append(consensus, axis)
		if conflict != nil {
			conflicts = append(conflicts, *conflict)
		}
	}
	return consensus, conflicts
}

func groupObservations(dtrs []*taste.DTR) map[string][]observation {
	grouped := make(map[string][]observation)
	for order, d := range dtrs {
		for _, key := range taste.RequiredSections {
			section := d.Section(key)
			if section == nil {
				continue
			}
			for _, axis := range section.Axes {
				grouped[axis.Name] = append(grouped[axis.Name], observation{
					resourceHash: d.Resource.Hash,
					axis:         axis,
					degraded:     section.Degraded,
					order:        order,
				})
			}
		}
	}
	return grouped
}

func weightOf(o observation) float64 {
	if o.degraded {
		return 0
	}
	return o.axis.Confidence
}

// mergeNumeric produces a confidence-weighted mean. Agreement reflects the
// relative spread of the contributing values; past the spread threshold the
// axis is also reported as a conflict.
func mergeNumeric(name string, obs []observation) (taste.ConsensusAxis, *taste.Conflict) {
	var weightSum, valueSum float64
	var minV, maxV float64 = math.Inf(1), math.Inf(-1)
	contributors := 0
	for _, o := range obs {
		w := weightOf(o)
		if w <= 0 {
			continue
		}
		contributors++
		weightSum += w
		valueSum += o.axis.Number * w
		minV = math.Min(minV, o.axis.Number)
		maxV = math.Max(maxV, o.axis.Number)
	}

	axis := taste.ConsensusAxis{
		Name:    name,
		Kind:    taste.AxisNumeric,
		Sources: len(obs),
	}
	if weightSum == 0 {
		// Only degraded observations: keep the axis with no agreement.
		axis.Number = obs[0].axis.Number
		return axis, nil
	}

	mean := valueSum / weightSum
	axis.Number = mean

	spread := 0.0
	if contributors > 1 && mean != 0 {
		spread = (maxV - minV) / math.Abs(mean)
	}
	axis.Agreement = clamp01(1 - spread)

	if contributors > 1 && spread > numericConflictSpread {
		return axis, numericConflict(name, obs)
	}
	return axis, nil
}

func numericConflict(name string, obs []observation) *taste.Conflict {
	c := &taste.Conflict{Axis: name}
	for _, o := range obs {
		if weightOf(o) <= 0 {
			continue
		}
		c.Values = append(c.Values, taste.ConflictValue{
			ResourceHash: o.resourceHash,
			Number:       o.axis.Number,
			Confidence:   o.axis.Confidence,
		})
	}
	return c
}

// mergeCategorical takes the confidence-weighted majority. Agreement is the
// winner's weight share; a low share with real disagreement is a conflict.
func mergeCategorical(name string, obs []observation) (taste.ConsensusAxis, *taste.Conflict) {
	votes := make(map[string]float64)
	var total float64
	for _, o := range obs {
		w := weightOf(o)
		votes[o.axis.Value] += w
		total += w
	}

	axis := taste.ConsensusAxis{
		Name:    name,
		Kind:    taste.AxisCategorical,
		Sources: len(obs),
	}
	if total == 0 {
		axis.Value = obs[0].axis.Value
		return axis, nil
	}

	values := make([]string, 0, len(votes))
	for v := range votes {
		values = append(values, v)
	}
	// Deterministic winner under vote ties.
	sort.Strings(values)
	winner, best := "", -1.0
	for _, v := range values {
		if votes[v] > best {
			winner, best = v, votes[v]
		}
	}

	axis.Value = winner
	axis.Agreement = best / total

	if len(values) > 1 && axis.Agreement < categoricalConflictThreshold {
		c := &taste.Conflict{Axis: name}
		for _, o := range obs {
			if weightOf(o) <= 0 {
				continue
			}
			c.Values = append(c.Values, taste.ConflictValue{
				ResourceHash: o.resourceHash,
				Value:        o.axis.Value,
				Confidence:   o.axis.Confidence,
			})
		}
		return axis, c
	}
	return axis, nil
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
