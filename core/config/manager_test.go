package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adalundhe/patina/core/store"
)

func testManager(t *testing.T) (*Manager, string) {
	t.Helper()
	tmpDir := t.TempDir()
	dirs := &store.Dirs{
		Config: filepath.Join(tmpDir, "config"),
		Data:   filepath.Join(tmpDir, "data"),
		Cache:  filepath.Join(tmpDir, "cache"),
		State:  filepath.Join(tmpDir, "state"),
	}
	require.NoError(t, dirs.EnsureAll())
	return NewManager(dirs), dirs.ConfigDir("config.yaml")
}

func TestDefaults(t *testing.T) {
	m, _ := testManager(t)
	cfg := m.Get()

	assert.Equal(t, 2*time.Minute, cfg.LLM.Timeout)
	assert.Equal(t, "anthropic", cfg.LLM.DefaultProvider)
	assert.Equal(t, 512, cfg.Extraction.PassCacheSize)
	assert.Equal(t, "react-tailwind", cfg.Generation.DefaultTarget)
}

func TestLoadOverlaysFile(t *testing.T) {
	m, path := testManager(t)

	content := `
llm:
  default_provider: openai
providers:
  openai:
    model: gpt-5.2
extraction:
  pass_cache_size: 64
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	require.NoError(t, m.Load())

	cfg := m.Get()
	assert.Equal(t, "openai", cfg.LLM.DefaultProvider)
	assert.Equal(t, "gpt-5.2", cfg.Providers.OpenAI.Model)
	assert.Equal(t, 64, cfg.Extraction.PassCacheSize)
	// Untouched fields keep defaults.
	assert.Equal(t, 2*time.Minute, cfg.LLM.Timeout)
	assert.Equal(t, "react-tailwind", cfg.Generation.DefaultTarget)
}

func TestLoadMissingFileKeepsDefaults(t *testing.T) {
	m, _ := testManager(t)
	require.NoError(t, m.Load())
	assert.Equal(t, "anthropic", m.Get().LLM.DefaultProvider)
}

func TestLoadInvalidYAMLFails(t *testing.T) {
	m, path := testManager(t)
	require.NoError(t, os.WriteFile(path, []byte("llm: [not a map"), 0600))
	assert.Error(t, m.Load())
}

func TestEnvironmentOverrides(t *testing.T) {
	m, path := testManager(t)

	content := `
providers:
  anthropic:
    api_key: file-key
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	t.Setenv("ANTHROPIC_API_KEY", "env-key")
	t.Setenv("PATINA_DEFAULT_PROVIDER", "google")
	t.Setenv("PATINA_LLM_TIMEOUT", "30s")

	require.NoError(t, m.Load())

	cfg := m.Get()
	assert.Equal(t, "env-key", cfg.Providers.Anthropic.APIKey)
	assert.Equal(t, "google", cfg.LLM.DefaultProvider)
	assert.Equal(t, 30*time.Second, cfg.LLM.Timeout)
}

func TestOnChangeFiresOnLoad(t *testing.T) {
	m, _ := testManager(t)

	var seen *Config
	m.OnChange(func(cfg *Config) { seen = cfg })

	require.NoError(t, m.Load())
	require.NotNil(t, seen)
	assert.Equal(t, m.Get(), seen)
}

func TestLoadSwapsPointer(t *testing.T) {
	m, _ := testManager(t)
	before := m.Get()
	require.NoError(t, m.Load())
	assert.NotSame(t, before, m.Get())
}

func TestWatcherReloadsOnFileChange(t *testing.T) {
	m, path := testManager(t)
	require.NoError(t, m.Load())

	w, err := Watch(m, nil)
	require.NoError(t, err)
	defer w.Close()

	content := "llm:\n  default_provider: google\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	assert.Eventually(t, func() bool {
		return m.Get().LLM.DefaultProvider == "google"
	}, 3*time.Second, 50*time.Millisecond)
}
