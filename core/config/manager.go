// Package config loads patina configuration: defaults, a user config.yaml
// under the XDG config dir, then environment overrides. The active config is
// swapped atomically so readers never see a partial reload.
package config

import (
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"
	"unsafe"

	"gopkg.in/yaml.v3"

	"github.com/adalundhe/patina/core/store"
)

type Manager struct {
	configPtr unsafe.Pointer
	dirs      *store.Dirs
	watchers  []func(*Config)
	watcherMu sync.RWMutex
}

type Config struct {
	LLM        LLMConfig        `yaml:"llm"`
	Providers  ProvidersConfig  `yaml:"providers"`
	Extraction ExtractionConfig `yaml:"extraction"`
	Generation GenerationConfig `yaml:"generation"`
}

type LLMConfig struct {
	Timeout         time.Duration `yaml:"timeout"`
	DefaultProvider string        `yaml:"default_provider"`
	MaxRetries      int           `yaml:"max_retries"`
}

type ProviderConfig struct {
	APIKey  string `yaml:"api_key"`
	Model   string `yaml:"model"`
	BaseURL string `yaml:"base_url"`
}

type ProvidersConfig struct {
	Anthropic ProviderConfig `yaml:"anthropic"`
	OpenAI    ProviderConfig `yaml:"openai"`
	Google    ProviderConfig `yaml:"google"`
}

type ExtractionConfig struct {
	PassCacheSize        int `yaml:"pass_cache_size"`
	ExcerptMaxBytes      int `yaml:"excerpt_max_bytes"`
	MaxParallelResources int `yaml:"max_parallel_resources"`
}

type GenerationConfig struct {
	DefaultTarget string `yaml:"default_target"`
}

func NewManager(dirs *store.Dirs) *Manager {
	m := &Manager{dirs: dirs}
	cfg := DefaultConfig()
	atomic.StorePointer(&m.configPtr, unsafe.Pointer(cfg))
	return m
}

func DefaultConfig() *Config {
	return &Config{
		LLM: LLMConfig{
			Timeout:         2 * time.Minute,
			DefaultProvider: "anthropic",
			MaxRetries:      4,
		},
		Extraction: ExtractionConfig{
			PassCacheSize:        512,
			ExcerptMaxBytes:      48 * 1024,
			MaxParallelResources: 4,
		},
		Generation: GenerationConfig{
			DefaultTarget: "react-tailwind",
		},
	}
}

// Get returns the active config. The pointer is immutable; a reload swaps in
// a fresh Config rather than mutating this one.
func (m *Manager) Get() *Config {
	return (*Config)(atomic.LoadPointer(&m.configPtr))
}

// Path returns the user config file location.
func (m *Manager) Path() string {
	return m.dirs.ConfigDir("config.yaml")
}

// Load reads defaults, overlays the user config file, applies environment
// overrides, and swaps the result in.
func (m *Manager) Load() error {
	cfg := DefaultConfig()

	if err := loadYAMLFile(m.Path(), cfg); err != nil {
		return fmt.Errorf("user config: %w", err)
	}
	applyEnvironment(cfg)

	atomic.StorePointer(&m.configPtr, unsafe.Pointer(cfg))
	m.notifyWatchers(cfg)
	return nil
}

// Reload is Load under a name that reads better at watch sites.
func (m *Manager) Reload() error {
	return m.Load()
}

// loadYAMLFile unmarshals over the already-defaulted cfg, so file values
// overlay defaults field by field.
func loadYAMLFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

func applyEnvironment(cfg *Config) {
	if v := os.Getenv("PATINA_LLM_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.LLM.Timeout = d
		}
	}
	if v := os.Getenv("PATINA_DEFAULT_PROVIDER"); v != "" {
		cfg.LLM.DefaultProvider = v
	}
	if v := os.Getenv("PATINA_DEFAULT_TARGET"); v != "" {
		cfg.Generation.DefaultTarget = v
	}

	// API keys prefer the vendor-conventional variables over the file.
	if v := os.Getenv("ANTHROPIC_API_KEY"); v != "" {
		cfg.Providers.Anthropic.APIKey = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.Providers.OpenAI.APIKey = v
	}
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		cfg.Providers.Google.APIKey = v
	} else if v := os.Getenv("GOOGLE_API_KEY"); v != "" {
		cfg.Providers.Google.APIKey = v
	}
}

// OnChange registers a callback invoked after every successful (re)load.
func (m *Manager) OnChange(fn func(*Config)) {
	m.watcherMu.Lock()
	m.watchers = append(m.watchers, fn)
	m.watcherMu.Unlock()
}

func (m *Manager) notifyWatchers(cfg *Config) {
	m.watcherMu.RLock()
	watchers := m.watchers
	m.watcherMu.RUnlock()

	for _, fn := range watchers {
		fn(cfg)
	}
}
