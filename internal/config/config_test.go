package config

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"APRX_EXPLORER_CONFIG", "APRX_EXPLORER_PROVIDER", "APRX_EXPLORER_MODEL",
		"OPENAI_API_KEY", "ANTHROPIC_API_KEY", "OLLAMA_HOST", "AWS_REGION",
		"APRX_EXPLORER_LOG_FILE", "APRX_EXPLORER_LOG_LEVEL",
	} {
		t.Setenv(k, "")
	}
	t.Setenv("HOME", t.TempDir())
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ProviderOpenAI, cfg.LLMProvider)
	assert.Equal(t, DefaultModel, cfg.LLMModel)
	assert.Equal(t, "http://localhost:11434", cfg.OllamaHost)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.Empty(t, cfg.LogFile)
	assert.True(t, cfg.NeedsAPIKey())
}

func TestLoad_Env(t *testing.T) {
	clearEnv(t)
	t.Setenv("APRX_EXPLORER_PROVIDER", "Anthropic")
	t.Setenv("ANTHROPIC_API_KEY", "ak")
	t.Setenv("APRX_EXPLORER_LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ProviderAnthropic, cfg.LLMProvider)
	assert.Equal(t, "ak", cfg.AnthropicAPIKey)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.False(t, cfg.NeedsAPIKey())
}

func TestLoad_FileOverridesEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("APRX_EXPLORER_MODEL", "env-model")
	t.Setenv("OPENAI_API_KEY", "env-key")

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
provider: ollama
model: llama3
system_prompt: |
  Summarize briefly.
log_level: warn
`), 0644))
	t.Setenv("APRX_EXPLORER_CONFIG", path)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ProviderOllama, cfg.LLMProvider)
	assert.Equal(t, "llama3", cfg.LLMModel)
	assert.Equal(t, "env-key", cfg.OpenAIAPIKey, "unset file keys keep env values")
	assert.Equal(t, "Summarize briefly.\n", cfg.SystemPrompt)
	assert.Equal(t, slog.LevelWarn, cfg.LogLevel)
	assert.False(t, cfg.NeedsAPIKey())
}

func TestLoad_DefaultFileLocation(t *testing.T) {
	clearEnv(t)
	home := t.TempDir()
	t.Setenv("HOME", home)

	dir := filepath.Join(home, ".config", "aprx-explorer")
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("aws_region: eu-west-1\n"), 0644))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "eu-west-1", cfg.AWSRegion)
}

func TestLoad_Errors(t *testing.T) {
	t.Run("explicit file missing", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("APRX_EXPLORER_CONFIG", filepath.Join(t.TempDir(), "nope.yaml"))
		_, err := Load()
		assert.ErrorContains(t, err, "read config")
	})

	t.Run("malformed yaml", func(t *testing.T) {
		clearEnv(t)
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte("provider: [unclosed"), 0644))
		t.Setenv("APRX_EXPLORER_CONFIG", path)
		_, err := Load()
		assert.ErrorContains(t, err, "parse config")
	})
}

func TestSetAPIKey(t *testing.T) {
	cfg := Config{LLMProvider: ProviderAnthropic}
	cfg.SetAPIKey("a")
	assert.Equal(t, "a", cfg.AnthropicAPIKey)
	assert.Empty(t, cfg.OpenAIAPIKey)

	cfg = Config{LLMProvider: ProviderOpenAI}
	cfg.SetAPIKey("o")
	assert.Equal(t, "o", cfg.OpenAIAPIKey)

	assert.False(t, Config{LLMProvider: ProviderBedrock}.NeedsAPIKey())
	assert.False(t, Config{LLMProvider: ProviderOllama}.NeedsAPIKey())
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"Warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"verbose", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, parseLogLevel(tt.in))
		})
	}
}

func TestSetupLogger_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.log")
	logger, cleanup := SetupLogger(path, slog.LevelInfo)
	logger.Debug("hidden")
	logger.Info("extracted", "records", 3)
	require.NoError(t, cleanup())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "hidden")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(data, &entry))
	assert.Equal(t, "extracted", entry["msg"])
	assert.Equal(t, float64(3), entry["records"])
}

func TestSetupLogger_StderrOnly(t *testing.T) {
	logger, cleanup := SetupLogger("", slog.LevelInfo)
	require.NotNil(t, logger)
	assert.NoError(t, cleanup())
}
