package genui

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/adalundhe/patina/core/errors"
	"github.com/adalundhe/patina/core/events"
	"github.com/adalundhe/patina/core/providers"
	"github.com/adalundhe/patina/core/taste"
)

// Target names a code generation output flavor.
type Target string

const (
	TargetReactTailwind Target = "react-tailwind"
	TargetHTMLCSS       Target = "html-css"
)

// targetInstructions carry the per-target coding conventions appended to the
// system prompt.
var targetInstructions = map[Target]string{
	TargetReactTailwind: `## TARGET: react-tailwind

Produce a single self-contained React function component in TypeScript using
Tailwind utility classes. Use the design tokens through arbitrary-value
classes (e.g. rounded-[var(--radius)]) where Tailwind's scale does not match.
No imports beyond react. Export the component as the default export.`,

	TargetHTMLCSS: `## TARGET: html-css

Produce a single self-contained HTML fragment with a <style> block. Reference
the design tokens as CSS custom properties. No external assets, no scripts.`,
}

// targetLanguage maps a target to the fence language expected in replies.
var targetLanguage = map[Target]string{
	TargetReactTailwind: "tsx",
	TargetHTMLCSS:       "html",
}

const generationSystemPrompt = `# THE TASTE RENDERER

You are a senior product engineer who renders a design taste model into
component code. The taste brief below is the contract: its tokens, axes, and
personality override any defaults you would normally reach for.

## RULES

1. **Honor the tokens.** Spacing, radii, and type sizes come from the token
   sheet, never from habit.
2. **Honor the axes.** A "dense" structure axis means dense code output; a
   "pill" button shape means pill buttons. Do not average the taste toward
   generic defaults.
3. **One code block.** Reply with exactly one fenced code block containing
   the complete component. A short sentence before or after is acceptable;
   a second code block is not.`

// Request describes one generation call.
type Request struct {
	// Component is what to build ("pricing card", "settings form").
	Component string

	// Target selects the output flavor. Empty means react-tailwind.
	Target Target

	// Instructions carries optional caller guidance appended to the brief.
	Instructions string
}

// Artifact is generated component code plus its provenance.
type Artifact struct {
	Code     string         `json:"code"`
	Language string         `json:"language"`
	Target   Target         `json:"target"`
	Model    string         `json:"model"`
	Usage    providers.Usage `json:"usage"`
}

// Generator produces component code from a DTM through an LLM provider.
type Generator struct {
	provider providers.Provider
	retrier  *errors.Retrier
	bus      *events.Bus
	logger   *slog.Logger
}

// NewGenerator builds a Generator. A nil bus disables progress events.
func NewGenerator(provider providers.Provider, retrier *errors.Retrier, bus *events.Bus, logger *slog.Logger) *Generator {
	if retrier == nil {
		retrier = errors.NewRetrier(nil, logger)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{provider: provider, retrier: retrier, bus: bus, logger: logger}
}

// Generate renders the model into component code for the requested target.
func (g *Generator) Generate(ctx context.Context, m *taste.DTM, req Request) (*Artifact, error) {
	if req.Component == "" {
		return nil, errors.Newf(errors.TierUserFixable, "generate: component description is required")
	}
	if req.Target == "" {
		req.Target = TargetReactTailwind
	}
	instructions, ok := targetInstructions[req.Target]
	if !ok {
		return nil, errors.Newf(errors.TierUserFixable, "generate: unknown target %q", req.Target)
	}

	g.emit(events.GenerationStarted, m.ID)

	var sb strings.Builder
	sb.WriteString(AssembleBrief(m))
	sb.WriteString("\n## COMPONENT REQUEST\n")
	sb.WriteString(req.Component)
	sb.WriteString("\n")
	if req.Instructions != "" {
		sb.WriteString("\n## ADDITIONAL INSTRUCTIONS\n")
		sb.WriteString(req.Instructions)
		sb.WriteString("\n")
	}

	llmReq := &providers.Request{
		SystemPrompt: generationSystemPrompt + "\n\n" + instructions,
		Messages:     []providers.Message{providers.UserText(sb.String())},
	}

	var resp *providers.Response
	err := g.retrier.Do(ctx, "genui:generate", func(ctx context.Context) error {
		var callErr error
		resp, callErr = g.provider.Complete(ctx, llmReq)
		return callErr
	})
	if err != nil {
		return nil, fmt.Errorf("generating %q: %w", req.Component, err)
	}

	code, language := ExtractCode(resp.Content)
	if code == "" {
		return nil, fmt.Errorf("generating %q: reply contained no code", req.Component)
	}
	if language == "" {
		language = targetLanguage[req.Target]
	}

	g.emit(events.GenerationComplete, m.ID)
	g.logger.Info("component generated",
		"dtm", m.ID,
		"component", req.Component,
		"target", req.Target,
		"bytes", len(code),
	)
	return &Artifact{
		Code:     code,
		Language: language,
		Target:   req.Target,
		Model:    resp.Model,
		Usage:    resp.Usage,
	}, nil
}

func (g *Generator) emit(t events.Type, resource string) {
	if g.bus != nil {
		g.bus.Emit(t, resource, "")
	}
}

// ExtractCode pulls the first fenced code block from a reply, returning the
// block body and its language tag. A reply with no fence is treated as bare
// code when it does not read like prose.
func ExtractCode(reply string) (string, string) {
	reply = strings.TrimSpace(reply)

	start := strings.Index(reply, "```")
	if start < 0 {
		if looksLikeCode(reply) {
			return reply, ""
		}
		return "", ""
	}

	rest := reply[start+3:]
	language := ""
	if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
		tag := strings.TrimSpace(rest[:nl])
		if tag != "" && len(tag) <= 16 && !strings.ContainsAny(tag, " \t") {
			language = tag
		}
		rest = rest[nl+1:]
	}

	end := strings.Index(rest, "```")
	if end < 0 {
		// Unterminated fence: take everything after the opener.
		return strings.TrimSpace(rest), language
	}
	return strings.TrimSpace(rest[:end]), language
}

// looksLikeCode is a cheap prose filter for fenceless replies.
func looksLikeCode(s string) bool {
	if s == "" {
		return false
	}
	return strings.ContainsAny(s, "{<") || strings.Contains(s, "function ") ||
		strings.Contains(s, "const ") || strings.Contains(s, "export ")
}
