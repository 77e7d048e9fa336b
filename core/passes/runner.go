package passes

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/adalundhe/patina/core/events"
	"github.com/adalundhe/patina/core/figma"
	"github.com/adalundhe/patina/core/taste"
)

// Runner executes the full pass pipeline for one resource and assembles the
// DTR.
type Runner struct {
	extractor *Extractor
	bus       *events.Bus
	logger    *slog.Logger
}

// NewRunner builds a Runner. A nil bus disables progress events.
func NewRunner(extractor *Extractor, bus *events.Bus, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{extractor: extractor, bus: bus, logger: logger}
}

// Extract runs passes 1-5 concurrently, then the personality pass over their
// output, and assembles the DTR. Individual pass failures degrade; Extract
// itself fails only on context cancellation.
func (r *Runner) Extract(ctx context.Context, input *Input, resource taste.ResourceRef, metrics *figma.Metrics) (*taste.DTR, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.emit(events.ExtractionStarted, resource.Hash, "")

	parallel := make([]Pass, 0, len(Pipeline)-1)
	var personality Pass
	for _, pass := range Pipeline {
		if pass.NeedsPriors {
			personality = pass
			continue
		}
		parallel = append(parallel, pass)
	}

	type passOutput struct {
		section *taste.Section
		model   string
		hit     bool
	}
	outputs := make([]passOutput, len(parallel))

	var wg sync.WaitGroup
	for i, pass := range parallel {
		wg.Add(1)
		go func(i int, pass Pass) {
			defer wg.Done()
			r.emit(events.PassStarted, resource.Hash, pass.Section)
			section, _, model, hit := r.extractor.RunPass(ctx, pass, input, nil)
			outputs[i] = passOutput{section: section, model: model, hit: hit}
			r.emitPassDone(resource.Hash, pass.Section, section, hit)
		}(i, pass)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sections := make(map[string]*taste.Section, len(Pipeline))
	for _, out := range outputs {
		sections[out.section.Pass] = out.section
	}

	r.emit(events.PassStarted, resource.Hash, personality.Section)
	personalitySection, narrative, model, hit := r.extractor.RunPass(ctx, personality, input, sections)
	sections[personality.Section] = personalitySection
	r.emitPassDone(resource.Hash, personality.Section, personalitySection, hit)

	// Degraded passes report no model; take the first one a pass saw.
	if model == "" {
		for _, out := range outputs {
			if out.model != "" {
				model = out.model
				break
			}
		}
	}

	dtr := &taste.DTR{
		SchemaVersion: taste.SchemaVersion,
		Resource:      resource,
		Metrics:       metrics,
		Sections:      sections,
		Narrative:     narrative,
		Provenance: taste.Provenance{
			Model:          model,
			Provider:       r.extractor.provider.Name(),
			PromptVersion:  PromptVersion,
			ExtractedAt:    time.Now().UTC(),
			DegradedPasses: degradedPasses(sections),
		},
	}

	r.emit(events.ExtractionComplete, resource.Hash, "")
	return dtr, nil
}

func degradedPasses(sections map[string]*taste.Section) []string {
	var degraded []string
	for key, section := range sections {
		if section.Degraded {
			degraded = append(degraded, key)
		}
	}
	sort.Strings(degraded)
	return degraded
}

func (r *Runner) emit(t events.Type, resource, pass string) {
	if r.bus != nil {
		r.bus.Emit(t, resource, pass)
	}
}

func (r *Runner) emitPassDone(resource, pass string, section *taste.Section, hit bool) {
	switch {
	case hit:
		r.emit(events.PassCacheHit, resource, pass)
	case section.Degraded:
		r.emit(events.PassDegraded, resource, pass)
	default:
		r.emit(events.PassCompleted, resource, pass)
	}
}
