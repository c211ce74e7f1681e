package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsWhenFileMissing(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 8000, cfg.Server.Port)
	assert.Equal(t, 3, cfg.Orchestrator.MaxRetries)
	assert.Equal(t, 2.0, cfg.Orchestrator.BackoffFactor)
	assert.Equal(t, 500, cfg.Cache.Capacity)
	assert.Equal(t, 24*time.Hour, cfg.Session.TTL)
	assert.Equal(t, 60*time.Second, cfg.Session.GenerationTimeout)
	assert.Equal(t, "memory", cfg.Storage.Type)
	assert.Equal(t, 60, cfg.Retrieval.FusionK)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
server:
  port: 9090
providers:
  primary:
    name: main
    kind: qwen
    model: qwen-plus
  fallbacks:
    - name: backup
      kind: openai
      model: gpt-4o-mini
orchestrator:
  max_retries: 5
  base_delay: 250ms
cache:
  ttl: 1h
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "qwen", cfg.Providers.Primary.Kind)
	require.Len(t, cfg.Providers.Fallbacks, 1)
	assert.Equal(t, "backup", cfg.Providers.Fallbacks[0].Name)
	assert.Equal(t, 5, cfg.Orchestrator.MaxRetries)
	assert.Equal(t, 250*time.Millisecond, cfg.Orchestrator.BaseDelay)
	assert.Equal(t, time.Hour, cfg.Cache.TTL)
}

func TestLoad_APIKeyFromEnvironment(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("ARK_API_KEY", "ark-test")

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
providers:
  primary:
    kind: openai
  fallbacks:
    - name: doubao
      kind: doubao
      api_key: from-file
    - name: doubao-2
      kind: doubao
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "sk-test", cfg.Providers.Primary.APIKey)
	assert.Equal(t, "from-file", cfg.Providers.Fallbacks[0].APIKey)
	assert.Equal(t, "ark-test", cfg.Providers.Fallbacks[1].APIKey)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [unclosed"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}
