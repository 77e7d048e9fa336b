// Package pipeline orchestrates the end-to-end flow: read a design resource,
// compute code metrics, fan out the extraction passes, persist the DTR, and
// synthesize models across resources.
package pipeline

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/adalundhe/patina/core/dtm"
	"github.com/adalundhe/patina/core/events"
	"github.com/adalundhe/patina/core/figma"
	"github.com/adalundhe/patina/core/passes"
	"github.com/adalundhe/patina/core/store"
	"github.com/adalundhe/patina/core/taste"
)

// Options tune pipeline behavior. Zero values get usable defaults.
type Options struct {
	// MaxParallel bounds concurrent resource extractions.
	MaxParallel int
	// ExcerptMaxBytes bounds the export excerpt handed to the LLM passes.
	ExcerptMaxBytes int
}

const (
	defaultMaxParallel = 4
	defaultExcerptMax  = 48 * 1024
)

// screenshotMIMEs maps accepted screenshot extensions.
var screenshotMIMEs = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".webp": "image/webp",
}

// Pipeline wires the analyzer, the pass runner, the DTM builder, and the
// store into the operations the CLI calls.
type Pipeline struct {
	analyzer *figma.Analyzer
	runner   *passes.Runner
	builder  *dtm.Builder
	store    *store.Store
	bus      *events.Bus
	logger   *slog.Logger
	opts     Options
}

// New builds a Pipeline. The builder may be nil when only extraction is
// needed.
func New(analyzer *figma.Analyzer, runner *passes.Runner, builder *dtm.Builder, st *store.Store, bus *events.Bus, logger *slog.Logger, opts Options) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.MaxParallel <= 0 {
		opts.MaxParallel = defaultMaxParallel
	}
	if opts.ExcerptMaxBytes <= 0 {
		opts.ExcerptMaxBytes = defaultExcerptMax
	}
	return &Pipeline{
		analyzer: analyzer,
		runner:   runner,
		builder:  builder,
		store:    st,
		bus:      bus,
		logger:   logger,
		opts:     opts,
	}
}

// Result is the outcome of extracting one resource file.
type Result struct {
	Path        string
	Resource    taste.ResourceRef
	Fingerprint string
	DTR         *taste.DTR
	Err         error
}

// ExtractFile extracts one resource file, persists the DTR, and returns its
// fingerprint.
func (p *Pipeline) ExtractFile(ctx context.Context, path string) (*Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading resource: %w", err)
	}

	sum := sha256.Sum256(data)
	resource := taste.ResourceRef{
		Name: resourceName(path),
		Hash: hex.EncodeToString(sum[:]),
	}

	input := &passes.Input{
		ResourceName: resource.Name,
		ResourceHash: resource.Hash,
	}
	var metrics *figma.Metrics

	ext := strings.ToLower(filepath.Ext(path))
	switch {
	case ext == ".json":
		resource.Kind = taste.SourceFigmaExport
		metrics, err = p.analyzer.Analyze(data)
		if err != nil {
			return nil, fmt.Errorf("analyzing %s: %w", resource.Name, err)
		}
		input.MetricsJSON, err = json.Marshal(metrics)
		if err != nil {
			return nil, fmt.Errorf("encoding metrics: %w", err)
		}
		input.ExportExcerpt = exportExcerpt(data, p.opts.ExcerptMaxBytes)
	case screenshotMIMEs[ext] != "":
		resource.Kind = taste.SourceScreenshot
		input.Screenshot = data
		input.ScreenshotMIME = screenshotMIMEs[ext]
	default:
		return nil, fmt.Errorf("unsupported resource type %q", ext)
	}

	d, err := p.runner.Extract(ctx, input, resource, metrics)
	if err != nil {
		return nil, err
	}

	fingerprint, err := p.store.SaveDTR(ctx, d)
	if err != nil {
		return nil, err
	}

	p.logger.Info("resource extracted",
		"resource", resource.Name,
		"kind", resource.Kind,
		"fingerprint", fingerprint,
		"degraded", len(d.Provenance.DegradedPasses),
	)
	return &Result{
		Path:        path,
		Resource:    resource,
		Fingerprint: fingerprint,
		DTR:         d,
	}, nil
}

// ExtractAll extracts multiple resource files with bounded parallelism.
// Per-file failures land in their Result; the slice preserves input order.
func (p *Pipeline) ExtractAll(ctx context.Context, paths []string) []Result {
	results := make([]Result, len(paths))
	sem := make(chan struct{}, p.opts.MaxParallel)

	var wg sync.WaitGroup
	for i, path := range paths {
		wg.Add(1)
		go func(i int, path string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			if err := ctx.Err(); err != nil {
				results[i] = Result{Path: path, Err: err}
				return
			}
			r, err := p.ExtractFile(ctx, path)
			if err != nil {
				results[i] = Result{Path: path, Err: err}
				return
			}
			results[i] = *r
		}(i, path)
	}
	wg.Wait()
	return results
}

// Synthesize loads the latest DTR for each resource hash, builds a DTM, and
// persists it.
func (p *Pipeline) Synthesize(ctx context.Context, resourceHashes []string) (*taste.DTM, error) {
	if p.builder == nil {
		return nil, fmt.Errorf("synthesize: no builder configured")
	}
	if len(resourceHashes) == 0 {
		return nil, fmt.Errorf("synthesize: no resources given")
	}

	dtrs := make([]*taste.DTR, 0, len(resourceHashes))
	for _, hash := range resourceHashes {
		d, err := p.store.LoadLatestDTR(ctx, hash)
		if err != nil {
			return nil, fmt.Errorf("synthesize: %w", err)
		}
		dtrs = append(dtrs, d)
	}

	m, err := p.builder.Build(ctx, dtrs)
	if err != nil {
		return nil, err
	}
	if err := p.store.SaveDTM(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

// resourceName derives a resource name from its filename.
func resourceName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// exportExcerpt trims raw export JSON to the pass budget. The cut lands on a
// byte boundary; the passes treat the excerpt as illustrative text, not as a
// parseable document.
func exportExcerpt(data []byte, max int) string {
	if len(data) <= max {
		return string(data)
	}
	return string(data[:max]) + "\n… (export truncated)"
}
