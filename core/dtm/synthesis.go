package dtm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/adalundhe/patina/core/errors"
	"github.com/adalundhe/patina/core/passes"
	"github.com/adalundhe/patina/core/providers"
	"github.com/adalundhe/patina/core/taste"
)

// SynthPromptVersion is folded into the DTM cache key.
const SynthPromptVersion = "s3"

const synthesisSystemPrompt = `# THE TASTE SYNTHESIZER

You are a design director consolidating several per-resource taste analyses
of one product into a single taste model. You receive the merged consensus
axes, the unresolved conflicts, and the per-resource narratives.

Reply with a single JSON object, nothing else:

{
  "personality": "<one line: the taste in a design director's words>",
  "narrative": "<one paragraph synthesizing the shared taste>",
  "resolutions": [
    {"axis": "<conflicted axis name>", "value": "<chosen value>",
     "reason": "<one short sentence>"}
  ]
}

Only include resolutions for the conflicts listed as unresolved. Choose the
value best supported by the overall taste, not a compromise between them.`

// synthResult is the wire shape of the synthesis reply.
type synthResult struct {
	Personality string `json:"personality"`
	Narrative   string `json:"narrative"`
	Resolutions []struct {
		Axis   string `json:"axis"`
		Value  string `json:"value"`
		Reason string `json:"reason"`
	} `json:"resolutions"`
}

// Synthesizer runs the LLM consolidation over merged consensus output.
type Synthesizer struct {
	provider providers.Provider
	retrier  *errors.Retrier
	logger   *slog.Logger
}

// NewSynthesizer builds a Synthesizer.
func NewSynthesizer(provider providers.Provider, retrier *errors.Retrier, logger *slog.Logger) *Synthesizer {
	if retrier == nil {
		retrier = errors.NewRetrier(nil, logger)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Synthesizer{provider: provider, retrier: retrier, logger: logger}
}

// Synthesize fills the DTM's personality and narrative and applies LLM
// resolutions to conflicts the deterministic rules left open. A failed
// synthesis degrades to a consensus-derived personality instead of failing
// the build.
func (s *Synthesizer) Synthesize(ctx context.Context, m *taste.DTM, dtrs []*taste.DTR) {
	req := &providers.Request{
		SystemPrompt: synthesisSystemPrompt,
		Messages:     []providers.Message{providers.UserText(s.renderInput(m, dtrs))},
		JSONOnly:     true,
	}

	var resp *providers.Response
	err := s.retrier.Do(ctx, "dtm:synthesize", func(ctx context.Context) error {
		var callErr error
		resp, callErr = s.provider.Complete(ctx, req)
		return callErr
	})
	if err == nil {
		var raw json.RawMessage
		raw, err = passes.ExtractJSON(resp.Content)
		if err == nil {
			var result synthResult
			if err = json.Unmarshal(raw, &result); err == nil {
				s.apply(m, &result)
				m.SynthModel = resp.Model
				return
			}
		}
	}

	s.logger.Warn("synthesis degraded to consensus fallback", "error", err)
	m.Personality = fallbackPersonality(m)
	m.Narrative = fallbackSynthNarrative(dtrs)
}

func (s *Synthesizer) apply(m *taste.DTM, result *synthResult) {
	m.Personality = strings.TrimSpace(result.Personality)
	m.Narrative = strings.TrimSpace(result.Narrative)
	if m.Personality == "" {
		m.Personality = fallbackPersonality(m)
	}

	chosen := make(map[string]string, len(result.Resolutions))
	for _, res := range result.Resolutions {
		if res.Axis != "" && res.Value != "" {
			chosen[res.Axis] = res.Value
		}
	}
	for i := range m.Conflicts {
		c := &m.Conflicts[i]
		if c.ResolvedBy != ResolvedByLLM {
			continue
		}
		if value, ok := chosen[c.Axis]; ok {
			c.Resolution = value
			if axis := m.ConsensusAxisByName(c.Axis); axis != nil && axis.Kind == taste.AxisCategorical {
				axis.Value = value
			}
		}
	}
}

func (s *Synthesizer) renderInput(m *taste.DTM, dtrs []*taste.DTR) string {
	var sb strings.Builder

	sb.WriteString("## CONSENSUS AXES\n")
	for _, axis := range m.Consensus {
		if axis.Kind == taste.AxisNumeric {
			fmt.Fprintf(&sb, "- %s = %.4g (agreement %.2f, %d sources)\n",
				axis.Name, axis.Number, axis.Agreement, axis.Sources)
			continue
		}
		fmt.Fprintf(&sb, "- %s = %s (agreement %.2f, %d sources)\n",
			axis.Name, axis.Value, axis.Agreement, axis.Sources)
	}

	unresolved := 0
	sb.WriteString("\n## UNRESOLVED CONFLICTS\n")
	for _, c := range m.Conflicts {
		if c.ResolvedBy != ResolvedByLLM {
			continue
		}
		unresolved++
		fmt.Fprintf(&sb, "- %s:", c.Axis)
		for _, v := range c.Values {
			if v.Value != "" {
				fmt.Fprintf(&sb, " %q(conf %.2f)", v.Value, v.Confidence)
			} else {
				fmt.Fprintf(&sb, " %.4g(conf %.2f)", v.Number, v.Confidence)
			}
		}
		sb.WriteByte('\n')
	}
	if unresolved == 0 {
		sb.WriteString("(none)\n")
	}

	sb.WriteString("\n## PER-RESOURCE NARRATIVES\n")
	for _, d := range dtrs {
		fmt.Fprintf(&sb, "- %s: %s\n", d.Resource.Name, d.Narrative)
	}
	return sb.String()
}

// fallbackPersonality builds a terse personality line from the
// highest-agreement personality axes when synthesis fails.
func fallbackPersonality(m *taste.DTM) string {
	var parts []string
	for _, name := range []string{"personality.register", "personality.energy", "personality.era"} {
		if axis := m.ConsensusAxisByName(name); axis != nil && axis.Value != "" {
			parts = append(parts, axis.Value)
		}
	}
	if len(parts) == 0 {
		return "neutral, measured"
	}
	return strings.Join(parts, ", ")
}

func fallbackSynthNarrative(dtrs []*taste.DTR) string {
	for _, d := range dtrs {
		if d.Narrative != "" {
			return d.Narrative
		}
	}
	return ""
}
