package figma

import (
	"log/slog"
	"sort"
)

// Metrics is the deterministic, code-derived section of a DTR. Everything in
// it comes from tree statistics; no LLM is involved.
type Metrics struct {
	Spacing     SpacingQuantum   `json:"spacing"`
	TypeScale   TypeScale        `json:"type_scale"`
	Colors      ColorStats       `json:"colors"`
	Radii       RadiusProfile    `json:"radii"`
	FontStacks  []FontUse        `json:"font_stacks"`
	NodeCounts  map[string]int   `json:"node_counts"`
	Density     float64          `json:"density"` // nodes per depth level
	ImageHeavy  bool             `json:"image_heavy"`
	Confidence  MetricConfidence `json:"confidence"`
	SampleSizes SampleSizes      `json:"sample_sizes"`
}

// FontUse records a font family and its share of text nodes.
type FontUse struct {
	Family string  `json:"family"`
	Share  float64 `json:"share"`
}

// MetricConfidence scores each axis in [0,1] by sample support.
type MetricConfidence struct {
	Spacing    float64 `json:"spacing"`
	Typography float64 `json:"typography"`
	Color      float64 `json:"color"`
	Shape      float64 `json:"shape"`
}

// SampleSizes records how many observations backed each axis.
type SampleSizes struct {
	Spacings  int `json:"spacings"`
	FontSizes int `json:"font_sizes"`
	Colors    int `json:"colors"`
	Radii     int `json:"radii"`
}

// Sample counts at which an axis reaches full confidence.
const (
	fullConfidenceSpacings = 20
	fullConfidenceFonts    = 8
	fullConfidenceColors   = 15
	fullConfidenceRadii    = 6
)

// Analyzer computes the code-based DTR fragment from parser observations.
type Analyzer struct {
	parser *Parser
	logger *slog.Logger
}

// NewAnalyzer returns an Analyzer backed by the given parser.
func NewAnalyzer(parser *Parser, logger *slog.Logger) *Analyzer {
	if logger == nil {
		logger = slog.Default()
	}
	if parser == nil {
		parser = NewParser(logger)
	}
	return &Analyzer{parser: parser, logger: logger}
}

// Analyze parses the export and derives the metrics section.
func (a *Analyzer) Analyze(data []byte) (*Metrics, error) {
	file, err := a.parser.ParseFile(data)
	if err != nil {
		return nil, err
	}
	obs, err := a.parser.Collect(file.Document)
	if err != nil {
		return nil, err
	}
	return a.FromObservations(obs), nil
}

// FromObservations derives metrics from already-collected observations.
func (a *Analyzer) FromObservations(obs *Observations) *Metrics {
	m := &Metrics{
		Spacing:   DetectSpacingQuantum(obs.Spacings),
		TypeScale: DetectTypeScale(obs.FontSizes),
		Colors:    AnalyzeColors(obs.Colors),
		Radii:     AnalyzeRadii(obs.CornerRadii),
		SampleSizes: SampleSizes{
			Spacings:  len(obs.Spacings),
			FontSizes: len(obs.FontSizes),
			Colors:    len(obs.Colors),
			Radii:     len(obs.CornerRadii),
		},
	}

	m.NodeCounts = make(map[string]int, len(obs.NodeCounts))
	for nt, count := range obs.NodeCounts {
		m.NodeCounts[string(nt)] = count
	}
	if obs.MaxDepth > 0 {
		m.Density = float64(obs.TotalNodes) / float64(obs.MaxDepth)
	}
	m.ImageHeavy = obs.ImageUses*4 > obs.TotalNodes

	m.FontStacks = fontShares(obs.FontFamilies, obs.TextNodes)
	m.Confidence = MetricConfidence{
		Spacing:    ratioConfidence(len(obs.Spacings), fullConfidenceSpacings),
		Typography: ratioConfidence(len(obs.FontSizes), fullConfidenceFonts),
		Color:      ratioConfidence(len(obs.Colors), fullConfidenceColors),
		Shape:      ratioConfidence(len(obs.CornerRadii), fullConfidenceRadii),
	}

	a.logger.Debug("code-based analysis complete",
		"quantum", m.Spacing.Quantum,
		"quantum_source", m.Spacing.Source,
		"named_scale", m.TypeScale.NamedScale,
		"temperature", m.Colors.Temperature)
	return m
}

func ratioConfidence(samples, full int) float64 {
	if samples >= full {
		return 1.0
	}
	return float64(samples) / float64(full)
}

func fontShares(families map[string]int, textNodes int) []FontUse {
	if textNodes == 0 || len(families) == 0 {
		return nil
	}
	uses := make([]FontUse, 0, len(families))
	for family, count := range families {
		uses = append(uses, FontUse{
			Family: family,
			Share:  float64(count) / float64(textNodes),
		})
	}
	sort.Slice(uses, func(i, j int) bool {
		if uses[i].Share != uses[j].Share {
			return uses[i].Share > uses[j].Share
		}
		return uses[i].Family < uses[j].Family
	})
	return uses
}
