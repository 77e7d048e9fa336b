package dtm

import (
	"fmt"

	"github.com/adalundhe/patina/core/taste"
)

// Resolution sources, in priority order.
const (
	ResolvedByMetrics  = "code-metrics"
	ResolvedByMajority = "majority"
	ResolvedByRecency  = "recency"
	ResolvedByLLM      = "llm"
)

// metricAxes maps conflictable axes to their deterministic counterpart in the
// code-based metrics. When a conflicted axis has a metrics reading, the
// metrics win: code measured it, the models guessed.
var metricAxes = map[string]func(*taste.DTR) (float64, bool){
	"surface.corner_radius": func(d *taste.DTR) (float64, bool) {
		if d.Metrics == nil || d.Metrics.Radii.Samples == 0 {
			return 0, false
		}
		return d.Metrics.Radii.MedianRadius, true
	},
	"typography.size_ratio": func(d *taste.DTR) (float64, bool) {
		if d.Metrics == nil || d.Metrics.TypeScale.DistinctSize < 2 {
			return 0, false
		}
		return d.Metrics.TypeScale.MeanRatio, true
	},
	"structure.grid_columns": func(d *taste.DTR) (float64, bool) {
		// No direct metric; spacing quantum presence signals grid
		// discipline but not column count.
		return 0, false
	},
}

// ResolveConflicts settles conflicts in place and updates the matching
// consensus axes. Order: code metrics, then confident majority, then recency.
// Conflicts none of these settle are tagged for the LLM synthesis pass.
func ResolveConflicts(conflicts []taste.Conflict, consensus []taste.ConsensusAxis, dtrs []*taste.DTR) {
	byName := make(map[string]*taste.ConsensusAxis, len(consensus))
	for i := range consensus {
		byName[consensus[i].Name] = &consensus[i]
	}

	for i := range conflicts {
		c := &conflicts[i]
		axis := byName[c.Axis]

		if value, ok := metricsResolution(c.Axis, dtrs); ok {
			c.ResolvedBy = ResolvedByMetrics
			c.Resolution = fmt.Sprintf("%.4g", value)
			if axis != nil {
				axis.Number = value
				axis.Agreement = 1.0
			}
			continue
		}

		if axis != nil && axis.Kind == taste.AxisCategorical && axis.Agreement >= 0.5 {
			c.ResolvedBy = ResolvedByMajority
			c.Resolution = axis.Value
			continue
		}

		if value, ok := recencyResolution(c, dtrs); ok {
			c.ResolvedBy = ResolvedByRecency
			c.Resolution = value
			if axis != nil && axis.Kind == taste.AxisCategorical {
				axis.Value = value
			}
			continue
		}

		c.ResolvedBy = ResolvedByLLM
	}
}

// metricsResolution averages the metric reading across the DTRs that have
// one.
func metricsResolution(axisName string, dtrs []*taste.DTR) (float64, bool) {
	read, ok := metricAxes[axisName]
	if !ok {
		return 0, false
	}
	var sum float64
	var n int
	for _, d := range dtrs {
		if v, ok := read(d); ok {
			sum += v
			n++
		}
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}

// recencyResolution takes the value from the most recently extracted
// resource among the conflict participants.
func recencyResolution(c *taste.Conflict, dtrs []*taste.DTR) (string, bool) {
	participants := make(map[string]bool, len(c.Values))
	valueByHash := make(map[string]string, len(c.Values))
	for _, v := range c.Values {
		if v.Value == "" {
			return "", false // numeric conflicts are not settled by recency
		}
		participants[v.ResourceHash] = true
		valueByHash[v.ResourceHash] = v.Value
	}

	var latestHash string
	var latest int64
	for _, d := range dtrs {
		if !participants[d.Resource.Hash] {
			continue
		}
		if ts := d.Provenance.ExtractedAt.UnixNano(); latestHash == "" || ts > latest {
			latestHash, latest = d.Resource.Hash, ts
		}
	}
	if latestHash == "" {
		return "", false
	}
	return valueByHash[latestHash], true
}
