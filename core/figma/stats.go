package figma

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Quantum clamp range. Real design systems sit on 4/8/12/16 grids; a GCD
// outside this range means the export has no usable rhythm signal.
const (
	MinQuantum = 4
	MaxQuantum = 16
)

// quantumCandidates is the fallback set tried by majority fit when the GCD
// degenerates. Ordered coarse to fine: every multiple of 8 also divides by 4,
// so a fit tie must go to the larger grid.
var quantumCandidates = []int{16, 12, 8, 4}

// Named type-scale ratios, ordered by value.
var namedScales = []struct {
	Name  string
	Ratio float64
}{
	{"minor-third", 1.2},
	{"major-third", 1.25},
	{"perfect-fourth", 1.333},
	{"golden", 1.618},
}

// scaleSnapTolerance is the maximum distance between the measured mean ratio
// and a named scale for the snap to apply.
const scaleSnapTolerance = 0.04

// SpacingQuantum holds the detected spacing grid for an export.
type SpacingQuantum struct {
	Quantum    int     `json:"quantum"`
	Source     string  `json:"source"` // "gcd" or "majority"
	FitPercent float64 `json:"fit_percent"`
	Samples    int     `json:"samples"`
}

// DetectSpacingQuantum computes the spacing quantum from observed gaps.
// The GCD of all samples is used when it lands in [MinQuantum, MaxQuantum];
// otherwise the candidate grid with the highest share of divisible samples
// wins. Returns a zero-sample result when there is nothing to measure.
func DetectSpacingQuantum(spacings []float64) SpacingQuantum {
	if len(spacings) == 0 {
		return SpacingQuantum{Quantum: 8, Source: "default", Samples: 0}
	}

	values := make([]int, 0, len(spacings))
	for _, s := range spacings {
		if v := int(math.Round(s)); v > 0 {
			values = append(values, v)
		}
	}
	if len(values) == 0 {
		return SpacingQuantum{Quantum: 8, Source: "default", Samples: 0}
	}

	g := values[0]
	for _, v := range values[1:] {
		g = gcd(g, v)
	}

	if g >= MinQuantum && g <= MaxQuantum {
		return SpacingQuantum{
			Quantum:    g,
			Source:     "gcd",
			FitPercent: 1.0,
			Samples:    len(values),
		}
	}

	best, bestFit := quantumCandidates[0], -1.0
	for _, candidate := range quantumCandidates {
		fit := divisibleShare(values, candidate)
		if fit > bestFit {
			best, bestFit = candidate, fit
		}
	}
	return SpacingQuantum{
		Quantum:    best,
		Source:     "majority",
		FitPercent: bestFit,
		Samples:    len(values),
	}
}

func gcd(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

func divisibleShare(values []int, quantum int) float64 {
	hits := 0
	for _, v := range values {
		if v%quantum == 0 {
			hits++
		}
	}
	return float64(hits) / float64(len(values))
}

// TypeScale holds the detected typographic scale.
type TypeScale struct {
	MeanRatio    float64   `json:"mean_ratio"`
	RatioStddev  float64   `json:"ratio_stddev"`
	NamedScale   string    `json:"named_scale,omitempty"`
	DistinctSize int       `json:"distinct_sizes"`
	Sizes        []float64 `json:"sizes"`
}

// DetectTypeScale sorts the distinct font sizes, averages adjacent ratios and
// snaps the mean to the nearest named scale within tolerance. Fewer than two
// distinct sizes yields a scale with no ratio.
func DetectTypeScale(fontSizes []float64) TypeScale {
	distinct := distinctSorted(fontSizes)
	ts := TypeScale{DistinctSize: len(distinct), Sizes: distinct}
	if len(distinct) < 2 {
		return ts
	}

	ratios := make([]float64, 0, len(distinct)-1)
	for i := 1; i < len(distinct); i++ {
		ratios = append(ratios, distinct[i]/distinct[i-1])
	}
	ts.MeanRatio = stat.Mean(ratios, nil)
	if len(ratios) > 1 {
		ts.RatioStddev = stat.StdDev(ratios, nil)
	}

	bestDist := scaleSnapTolerance
	for _, scale := range namedScales {
		if d := math.Abs(ts.MeanRatio - scale.Ratio); d <= bestDist {
			bestDist = d
			ts.NamedScale = scale.Name
		}
	}
	return ts
}

func distinctSorted(values []float64) []float64 {
	seen := make(map[float64]struct{}, len(values))
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if v <= 0 {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Float64s(out)
	return out
}

// Temperature classifies a palette as warm, cool, or neutral.
type Temperature string

const (
	TemperatureWarm    Temperature = "warm"
	TemperatureCool    Temperature = "cool"
	TemperatureNeutral Temperature = "neutral"
)

// temperatureMargin is the red/blue channel separation below which a color is
// considered neutral.
const temperatureMargin = 0.08

// ColorStats summarizes the sampled palette of an export.
type ColorStats struct {
	Temperature   Temperature `json:"temperature"`
	WarmShare     float64     `json:"warm_share"`
	CoolShare     float64     `json:"cool_share"`
	NeutralShare  float64     `json:"neutral_share"`
	MeanSaturat   float64     `json:"mean_saturation"`
	SaturatStddev float64     `json:"saturation_stddev"`
	MeanLightness float64     `json:"mean_lightness"`
	Samples       int         `json:"samples"`
}

// ClassifyColor buckets a single color by red/blue channel balance.
func ClassifyColor(c Color) Temperature {
	diff := c.R - c.B
	switch {
	case diff > temperatureMargin:
		return TemperatureWarm
	case diff < -temperatureMargin:
		return TemperatureCool
	default:
		return TemperatureNeutral
	}
}

// AnalyzeColors computes palette temperature and saturation/lightness summary
// statistics over the sampled solid fills.
func AnalyzeColors(colors []Color) ColorStats {
	cs := ColorStats{Temperature: TemperatureNeutral, Samples: len(colors)}
	if len(colors) == 0 {
		return cs
	}

	var warm, cool, neutral int
	saturations := make([]float64, 0, len(colors))
	lightnesses := make([]float64, 0, len(colors))
	for _, c := range colors {
		switch ClassifyColor(c) {
		case TemperatureWarm:
			warm++
		case TemperatureCool:
			cool++
		default:
			neutral++
		}
		s, l := saturationLightness(c)
		saturations = append(saturations, s)
		lightnesses = append(lightnesses, l)
	}

	total := float64(len(colors))
	cs.WarmShare = float64(warm) / total
	cs.CoolShare = float64(cool) / total
	cs.NeutralShare = float64(neutral) / total
	cs.MeanSaturat = stat.Mean(saturations, nil)
	if len(saturations) > 1 {
		cs.SaturatStddev = stat.StdDev(saturations, nil)
	}
	cs.MeanLightness = stat.Mean(lightnesses, nil)

	switch {
	case cs.WarmShare > cs.CoolShare && cs.WarmShare > cs.NeutralShare:
		cs.Temperature = TemperatureWarm
	case cs.CoolShare > cs.WarmShare && cs.CoolShare > cs.NeutralShare:
		cs.Temperature = TemperatureCool
	default:
		cs.Temperature = TemperatureNeutral
	}
	return cs
}

// saturationLightness converts RGB to HSL saturation and lightness.
func saturationLightness(c Color) (float64, float64) {
	maxC := math.Max(c.R, math.Max(c.G, c.B))
	minC := math.Min(c.R, math.Min(c.G, c.B))
	l := (maxC + minC) / 2
	if maxC == minC {
		return 0, l
	}
	d := maxC - minC
	var s float64
	if l > 0.5 {
		s = d / (2 - maxC - minC)
	} else {
		s = d / (maxC + minC)
	}
	return s, l
}

// RadiusProfile summarizes corner rounding.
type RadiusProfile struct {
	MedianRadius float64 `json:"median_radius"`
	MaxRadius    float64 `json:"max_radius"`
	Style        string  `json:"style"` // sharp, soft, rounded, pill
	Samples      int     `json:"samples"`
}

// AnalyzeRadii computes the corner rounding profile from observed radii.
func AnalyzeRadii(radii []float64) RadiusProfile {
	rp := RadiusProfile{Style: "sharp", Samples: len(radii)}
	if len(radii) == 0 {
		return rp
	}
	sorted := make([]float64, len(radii))
	copy(sorted, radii)
	sort.Float64s(sorted)
	rp.MedianRadius = stat.Quantile(0.5, stat.Empirical, sorted, nil)
	rp.MaxRadius = sorted[len(sorted)-1]
	switch {
	case rp.MedianRadius >= 24:
		rp.Style = "pill"
	case rp.MedianRadius >= 12:
		rp.Style = "rounded"
	case rp.MedianRadius >= 4:
		rp.Style = "soft"
	}
	return rp
}
