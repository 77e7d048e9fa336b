// Package taste defines the Design Taste Representation (DTR) and Design
// Taste Model (DTM) documents and their validation rules.
package taste

import (
	"time"

	"github.com/adalundhe/patina/core/figma"
)

// SchemaVersion is stamped into every document this build produces. Bump when
// a section shape or axis semantics change.
const SchemaVersion = "2026.2"

// Pass section keys, in pipeline order. Passes 1-5 are independent; the
// personality pass consumes their output.
const (
	SectionStructure   = "structure"
	SectionSurface     = "surface"
	SectionTypography  = "typography"
	SectionImagery     = "imagery"
	SectionComponents  = "components"
	SectionPersonality = "personality"
)

// RequiredSections lists the sections a complete DTR must carry.
var RequiredSections = []string{
	SectionStructure,
	SectionSurface,
	SectionTypography,
	SectionImagery,
	SectionComponents,
	SectionPersonality,
}

// SourceKind identifies what a resource was extracted from.
type SourceKind string

const (
	SourceFigmaExport SourceKind = "figma-export"
	SourceScreenshot  SourceKind = "screenshot"
)

// ResourceRef identifies the design resource a DTR was extracted from.
type ResourceRef struct {
	Name string     `json:"name"`
	Hash string     `json:"hash"` // sha256 of the raw resource bytes
	Kind SourceKind `json:"kind"`
}

// AxisKind discriminates how an axis value merges across resources.
type AxisKind string

const (
	AxisNumeric     AxisKind = "numeric"
	AxisCategorical AxisKind = "categorical"
)

// Axis is a single extracted taste dimension. Numeric axes carry Number,
// categorical axes carry Value; Confidence is the extractor's own score in
// [0,1].
type Axis struct {
	Name       string   `json:"name"`
	Kind       AxisKind `json:"kind"`
	Number     float64  `json:"number,omitempty"`
	Value      string   `json:"value,omitempty"`
	Confidence float64  `json:"confidence"`
}

// Section is the output of one extraction pass.
type Section struct {
	Pass     string `json:"pass"`
	Summary  string `json:"summary"`
	Axes     []Axis `json:"axes"`
	Degraded bool   `json:"degraded,omitempty"`
}

// Axis looks up an axis by name. Returns nil when absent.
func (s *Section) Axis(name string) *Axis {
	for i := range s.Axes {
		if s.Axes[i].Name == name {
			return &s.Axes[i]
		}
	}
	return nil
}

// Provenance records how a DTR was produced.
type Provenance struct {
	Model          string    `json:"model"`
	Provider       string    `json:"provider"`
	PromptVersion  string    `json:"prompt_version"`
	ExtractedAt    time.Time `json:"extracted_at"`
	DegradedPasses []string  `json:"degraded_passes,omitempty"`
}

// DTR is the per-resource Design Taste Representation.
type DTR struct {
	SchemaVersion string              `json:"schema_version"`
	Resource      ResourceRef         `json:"resource"`
	Metrics       *figma.Metrics      `json:"metrics,omitempty"`
	Sections      map[string]*Section `json:"sections"`
	Narrative     string              `json:"narrative"`
	Provenance    Provenance          `json:"provenance"`
}

// Section returns the named section or nil.
func (d *DTR) Section(key string) *Section {
	if d.Sections == nil {
		return nil
	}
	return d.Sections[key]
}

// ConsensusAxis is a merged axis across multiple DTRs. Agreement is the share
// of resources backing the winning value, in [0,1].
type ConsensusAxis struct {
	Name      string   `json:"name"`
	Kind      AxisKind `json:"kind"`
	Number    float64  `json:"number,omitempty"`
	Value     string   `json:"value,omitempty"`
	Agreement float64  `json:"agreement"`
	Sources   int      `json:"sources"`
}

// ConflictValue is one side of an unresolved axis disagreement.
type ConflictValue struct {
	ResourceHash string  `json:"resource_hash"`
	Number       float64 `json:"number,omitempty"`
	Value        string  `json:"value,omitempty"`
	Confidence   float64 `json:"confidence"`
}

// Conflict records an axis whose values disagreed past threshold and how the
// disagreement was settled.
type Conflict struct {
	Axis       string          `json:"axis"`
	Values     []ConflictValue `json:"values"`
	Resolution string          `json:"resolution,omitempty"`
	ResolvedBy string          `json:"resolved_by,omitempty"` // code-metrics | majority | recency | llm
}

// DTM is the synthesized multi-resource Design Taste Model.
type DTM struct {
	ID            string          `json:"id"`
	SchemaVersion string          `json:"schema_version"`
	Fingerprints  []string        `json:"fingerprints"` // sorted DTR fingerprints
	Consensus     []ConsensusAxis `json:"consensus"`
	Conflicts     []Conflict      `json:"conflicts,omitempty"`
	Personality   string          `json:"personality"`
	Narrative     string          `json:"narrative,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	SynthModel    string          `json:"synth_model,omitempty"`
}

// ConsensusAxisByName looks up a merged axis. Returns nil when absent.
func (m *DTM) ConsensusAxisByName(name string) *ConsensusAxis {
	for i := range m.Consensus {
		if m.Consensus[i].Name == name {
			return &m.Consensus[i]
		}
	}
	return nil
}
