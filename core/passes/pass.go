// Package passes runs the multi-pass LLM taste extraction. Passes 1-5 fan
// out concurrently; the personality pass consumes their sections.
package passes

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/adalundhe/patina/core/errors"
	"github.com/adalundhe/patina/core/providers"
	"github.com/adalundhe/patina/core/taste"
	lru "github.com/hashicorp/golang-lru/v2"
)

// Pass is one extraction stage.
type Pass struct {
	ID      int
	Section string
	Prompt  string
	// NeedsPriors marks passes that consume earlier sections (personality).
	NeedsPriors bool
}

// Pipeline is the fixed pass order. IDs match the stage numbering used in
// provenance and logs.
var Pipeline = []Pass{
	{ID: 1, Section: taste.SectionStructure, Prompt: structurePrompt},
	{ID: 2, Section: taste.SectionSurface, Prompt: surfacePrompt},
	{ID: 3, Section: taste.SectionTypography, Prompt: typographyPrompt},
	{ID: 4, Section: taste.SectionImagery, Prompt: imageryPrompt},
	{ID: 5, Section: taste.SectionComponents, Prompt: componentsPrompt},
	{ID: 6, Section: taste.SectionPersonality, Prompt: personalityPrompt, NeedsPriors: true},
}

// Input is the per-resource material passed to every pass.
type Input struct {
	ResourceName string
	ResourceHash string
	// MetricsJSON is the serialized code-based metrics section.
	MetricsJSON []byte
	// ExportExcerpt is a trimmed textual rendering of the export tree.
	ExportExcerpt string
	// Screenshot is an optional rendered image of the resource.
	Screenshot     []byte
	ScreenshotMIME string
}

// DefaultCacheSize bounds the pass-result cache when no size is configured.
const DefaultCacheSize = 512

// cachedPass is a completed pass result. The model is kept so cache hits
// still report which model produced the section.
type cachedPass struct {
	section *taste.Section
	model   string
}

// Extractor runs individual passes against a provider with tier-aware retry
// and an LRU result cache so re-runs do not re-bill completed passes.
type Extractor struct {
	provider providers.Provider
	retrier  *errors.Retrier
	cache    *lru.Cache[string, cachedPass]
	logger   *slog.Logger
}

// NewExtractor builds an Extractor. Nil retrier and logger get defaults; a
// non-positive cacheSize uses DefaultCacheSize.
func NewExtractor(provider providers.Provider, retrier *errors.Retrier, cacheSize int, logger *slog.Logger) (*Extractor, error) {
	if provider == nil {
		return nil, fmt.Errorf("extractor: nil provider")
	}
	if retrier == nil {
		retrier = errors.NewRetrier(nil, logger)
	}
	if logger == nil {
		logger = slog.Default()
	}
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}
	cache, err := lru.New[string, cachedPass](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("extractor cache: %w", err)
	}
	return &Extractor{
		provider: provider,
		retrier:  retrier,
		cache:    cache,
		logger:   logger,
	}, nil
}

// passResult is the wire shape each pass must reply with.
type passResult struct {
	Summary   string       `json:"summary"`
	Narrative string       `json:"narrative,omitempty"`
	Axes      []taste.Axis `json:"axes"`
}

// RunPass executes one pass. Failures degrade to a neutral fallback section
// rather than failing the extraction; the returned bool reports a cache hit.
// The narrative return is non-empty only for the personality pass; the model
// return names the vendor model that produced the section (empty when
// degraded).
func (e *Extractor) RunPass(ctx context.Context, pass Pass, input *Input, priors map[string]*taste.Section) (*taste.Section, string, string, bool) {
	key := cacheKey(input.ResourceHash, pass)
	if !pass.NeedsPriors {
		if cached, ok := e.cache.Get(key); ok {
			return cached.section, "", cached.model, true
		}
	}

	section, narrative, model, err := e.runPassOnce(ctx, pass, input, priors)
	if err != nil {
		e.logger.Warn("pass degraded to fallback",
			"pass", pass.Section,
			"resource", input.ResourceName,
			"error", err)
		return FallbackSection(pass.Section), fallbackNarrative, "", false
	}

	if !pass.NeedsPriors {
		e.cache.Add(key, cachedPass{section: section, model: model})
	}
	return section, narrative, model, false
}

func (e *Extractor) runPassOnce(ctx context.Context, pass Pass, input *Input, priors map[string]*taste.Section) (*taste.Section, string, string, error) {
	req := e.buildRequest(pass, input, priors)

	var resp *providers.Response
	err := e.retrier.Do(ctx, "pass:"+pass.Section, func(ctx context.Context) error {
		var callErr error
		resp, callErr = e.provider.Complete(ctx, req)
		return callErr
	})
	if err != nil {
		return nil, "", "", fmt.Errorf("pass %s: %w", pass.Section, err)
	}

	raw, err := ExtractJSON(resp.Content)
	if err != nil {
		return nil, "", "", fmt.Errorf("pass %s: %w", pass.Section, err)
	}

	var result passResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, "", "", fmt.Errorf("pass %s decode: %w", pass.Section, err)
	}

	section := &taste.Section{
		Pass:    pass.Section,
		Summary: result.Summary,
		Axes:    normalizeAxes(pass.Section, result.Axes),
	}
	return section, result.Narrative, resp.Model, nil
}

func (e *Extractor) buildRequest(pass Pass, input *Input, priors map[string]*taste.Section) *providers.Request {
	var sb strings.Builder
	sb.WriteString(pass.Prompt)
	sb.WriteString("\n\n## RESOURCE: ")
	sb.WriteString(input.ResourceName)

	if len(input.MetricsJSON) > 0 {
		sb.WriteString("\n\n## CODE METRICS (ground truth)\n")
		sb.Write(input.MetricsJSON)
	}
	if input.ExportExcerpt != "" {
		sb.WriteString("\n\n## EXPORT EXCERPT\n")
		sb.WriteString(input.ExportExcerpt)
	}
	if pass.NeedsPriors && len(priors) > 0 {
		sb.WriteString("\n\n## EARLIER PASS OUTPUT\n")
		sb.WriteString(renderPriors(priors))
	}

	parts := []providers.Part{providers.TextPart(sb.String())}
	if len(input.Screenshot) > 0 {
		mime := input.ScreenshotMIME
		if mime == "" {
			mime = "image/png"
		}
		parts = append(parts, providers.ImagePart(input.Screenshot, mime))
	}

	return &providers.Request{
		SystemPrompt: SystemPrompt,
		Messages:     []providers.Message{{Role: providers.RoleUser, Parts: parts}},
		JSONOnly:     true,
	}
}

// renderPriors serializes earlier sections in stable order for the
// personality prompt.
func renderPriors(priors map[string]*taste.Section) string {
	keys := make([]string, 0, len(priors))
	for k := range priors {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	for _, k := range keys {
		data, err := json.Marshal(priors[k])
		if err != nil {
			continue
		}
		sb.Write(data)
		sb.WriteByte('\n')
	}
	return sb.String()
}

// normalizeAxes drops malformed axes and clamps confidence. Models sometimes
// return an axis with both representations populated; the declared kind wins.
func normalizeAxes(section string, axes []taste.Axis) []taste.Axis {
	out := make([]taste.Axis, 0, len(axes))
	for _, a := range axes {
		if a.Name == "" {
			continue
		}
		if !strings.HasPrefix(a.Name, section+".") {
			a.Name = section + "." + a.Name
		}
		switch a.Kind {
		case taste.AxisNumeric:
			a.Value = ""
		case taste.AxisCategorical:
			if a.Value == "" {
				continue
			}
			a.Number = 0
		default:
			// Infer kind for models that omit it.
			if a.Value != "" {
				a.Kind = taste.AxisCategorical
				a.Number = 0
			} else {
				a.Kind = taste.AxisNumeric
			}
		}
		if a.Confidence < 0 {
			a.Confidence = 0
		}
		if a.Confidence > 1 {
			a.Confidence = 1
		}
		out = append(out, a)
	}
	return out
}

func cacheKey(resourceHash string, pass Pass) string {
	return fmt.Sprintf("%s|%d|%s", resourceHash, pass.ID, PromptVersion)
}
