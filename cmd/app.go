package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/adalundhe/patina/core/config"
	"github.com/adalundhe/patina/core/dtm"
	"github.com/adalundhe/patina/core/errors"
	"github.com/adalundhe/patina/core/events"
	"github.com/adalundhe/patina/core/figma"
	"github.com/adalundhe/patina/core/genui"
	"github.com/adalundhe/patina/core/passes"
	"github.com/adalundhe/patina/core/pipeline"
	"github.com/adalundhe/patina/core/providers"
	"github.com/adalundhe/patina/core/store"
)

// app holds the wired-up subsystems a command needs. Commands that never
// touch an LLM pass needLLM=false and skip provider registration.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	bus      *events.Bus
	store    *store.Store
	registry *providers.Registry
	pipeline *pipeline.Pipeline

	busCancel func()
}

func newApp(ctx context.Context, needLLM bool) (*app, error) {
	level := slog.LevelInfo
	if flagVerbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	dirs := store.ResolveDirs()
	manager := config.NewManager(dirs)
	if err := manager.Load(); err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	cfg := manager.Get()

	st, err := store.Open(dirs, logger)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, logger: logger, bus: events.NewBus(), store: st}
	a.busCancel = a.renderProgress()

	if !needLLM {
		return a, nil
	}

	registry, err := buildRegistry(ctx, cfg)
	if err != nil {
		st.Close()
		return nil, err
	}
	a.registry = registry

	provider, err := registry.Default()
	if err != nil {
		a.Close()
		return nil, err
	}

	retrier := errors.NewRetrier(errors.PoliciesWithMaxAttempts(cfg.LLM.MaxRetries), logger)
	extractor, err := passes.NewExtractor(provider, retrier, cfg.Extraction.PassCacheSize, logger)
	if err != nil {
		a.Close()
		return nil, err
	}
	runner := passes.NewRunner(extractor, a.bus, logger)
	analyzer := figma.NewAnalyzer(figma.NewParser(logger), logger)

	builder, err := dtm.NewBuilder(dtm.NewSynthesizer(provider, retrier, logger), a.bus, logger)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.pipeline = pipeline.New(analyzer, runner, builder, st, a.bus, logger, pipeline.Options{
		MaxParallel:     cfg.Extraction.MaxParallelResources,
		ExcerptMaxBytes: cfg.Extraction.ExcerptMaxBytes,
	})
	return a, nil
}

func (a *app) Close() {
	if a.busCancel != nil {
		a.busCancel()
	}
	if a.registry != nil {
		a.registry.Close()
	}
	if a.store != nil {
		a.store.Close()
	}
}

// generator builds a genui.Generator on the default provider.
func (a *app) generator() (*genui.Generator, error) {
	provider, err := a.registry.Default()
	if err != nil {
		return nil, err
	}
	retrier := errors.NewRetrier(errors.PoliciesWithMaxAttempts(a.cfg.LLM.MaxRetries), a.logger)
	return genui.NewGenerator(provider, retrier, a.bus, a.logger), nil
}

// buildRegistry registers every provider with an API key and applies the
// configured or flag-selected default.
func buildRegistry(ctx context.Context, cfg *config.Config) (*providers.Registry, error) {
	registry := providers.NewRegistry()

	if key := cfg.Providers.Anthropic.APIKey; key != "" {
		pc := providers.DefaultAnthropicConfig()
		pc.APIKey = key
		pc.BaseURL = cfg.Providers.Anthropic.BaseURL
		if cfg.Providers.Anthropic.Model != "" {
			pc.Model = cfg.Providers.Anthropic.Model
		}
		if cfg.LLM.Timeout > 0 {
			pc.Timeout = cfg.LLM.Timeout
		}
		if err := registry.RegisterAnthropic(pc); err != nil {
			return nil, err
		}
	}
	if key := cfg.Providers.OpenAI.APIKey; key != "" {
		pc := providers.DefaultOpenAIConfig()
		pc.APIKey = key
		pc.BaseURL = cfg.Providers.OpenAI.BaseURL
		if cfg.Providers.OpenAI.Model != "" {
			pc.Model = cfg.Providers.OpenAI.Model
		}
		if cfg.LLM.Timeout > 0 {
			pc.Timeout = cfg.LLM.Timeout
		}
		if err := registry.RegisterOpenAI(pc); err != nil {
			return nil, err
		}
	}
	if key := cfg.Providers.Google.APIKey; key != "" {
		pc := providers.DefaultGoogleConfig()
		pc.APIKey = key
		if cfg.Providers.Google.Model != "" {
			pc.Model = cfg.Providers.Google.Model
		}
		if cfg.LLM.Timeout > 0 {
			pc.Timeout = cfg.LLM.Timeout
		}
		if err := registry.RegisterGoogle(ctx, pc); err != nil {
			return nil, err
		}
	}

	if len(registry.Available()) == 0 {
		return nil, fmt.Errorf("no provider configured: set ANTHROPIC_API_KEY, OPENAI_API_KEY, or GEMINI_API_KEY")
	}

	selected := cfg.LLM.DefaultProvider
	if flagProvider != "" {
		selected = flagProvider
	}
	if selected != "" {
		if err := registry.SetDefault(providers.ProviderType(selected)); err != nil {
			// Fall back to whichever provider has a key rather than
			// failing a run the user can complete.
			slog.Warn("configured provider unavailable, using first registered",
				"provider", selected)
		}
	}
	return registry, nil
}

// renderProgress streams pipeline events to the log at a pass granularity.
func (a *app) renderProgress() func() {
	ch, cancel := a.bus.Subscribe(256)
	go func() {
		for ev := range ch {
			switch ev.Type {
			case events.PassCompleted:
				a.logger.Info("pass complete", "resource", ev.Resource, "pass", ev.Pass)
			case events.PassDegraded:
				a.logger.Warn("pass degraded", "resource", ev.Resource, "pass", ev.Pass)
			case events.PassCacheHit:
				a.logger.Debug("pass cache hit", "resource", ev.Resource, "pass", ev.Pass)
			case events.SynthesisCacheHit:
				a.logger.Info("synthesis cache hit", "dtm", ev.Resource)
			case events.SynthesisComplete:
				a.logger.Info("synthesis complete", "dtm", ev.Resource)
			}
		}
	}()
	return cancel
}
