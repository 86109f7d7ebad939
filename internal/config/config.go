// Package config loads settings from the environment and an optional YAML file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Provider identifies an LLM backend.
type Provider string

const (
	ProviderOpenAI    Provider = "openai"
	ProviderAnthropic Provider = "anthropic"
	ProviderOllama    Provider = "ollama"
	ProviderBedrock   Provider = "bedrock"
)

// Defaults.
const (
	DefaultProvider = ProviderOpenAI
	DefaultModel    = "gpt-4-0125-preview"
)

// Config holds all configuration values.
type Config struct {
	// LLM
	LLMProvider     Provider
	LLMModel        string
	OpenAIAPIKey    string
	AnthropicAPIKey string
	OllamaHost      string
	AWSRegion       string

	// Prompt overrides (empty uses the built-in prompts)
	SystemPrompt string
	HumanPrompt  string

	// Logging
	LogFile  string
	LogLevel slog.Level
}

// fileConfig is the YAML config file layout. Unset keys leave the
// environment-derived value in place.
type fileConfig struct {
	Provider        string `yaml:"provider"`
	Model           string `yaml:"model"`
	OpenAIAPIKey    string `yaml:"openai_api_key"`
	AnthropicAPIKey string `yaml:"anthropic_api_key"`
	OllamaHost      string `yaml:"ollama_host"`
	AWSRegion       string `yaml:"aws_region"`
	SystemPrompt    string `yaml:"system_prompt"`
	HumanPrompt     string `yaml:"human_prompt"`
	LogFile         string `yaml:"log_file"`
	LogLevel        string `yaml:"log_level"`
}

// Load reads configuration from environment variables, then overlays the
// YAML file named by APRX_EXPLORER_CONFIG (default
// ~/.config/aprx-explorer/config.yaml). A missing file is not an error.
func Load() (Config, error) {
	cfg := FromEnv()

	path := getEnv("APRX_EXPLORER_CONFIG", "")
	explicit := path != ""
	if !explicit {
		home, err := os.UserHomeDir()
		if err != nil {
			return cfg, nil
		}
		path = filepath.Join(home, ".config", "aprx-explorer", "config.yaml")
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) && !explicit {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := cfg.merge(data); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// FromEnv reads configuration from environment variables only.
func FromEnv() Config {
	return Config{
		LLMProvider:     Provider(strings.ToLower(getEnv("APRX_EXPLORER_PROVIDER", string(DefaultProvider)))),
		LLMModel:        getEnv("APRX_EXPLORER_MODEL", DefaultModel),
		OpenAIAPIKey:    getEnv("OPENAI_API_KEY", ""),
		AnthropicAPIKey: getEnv("ANTHROPIC_API_KEY", ""),
		OllamaHost:      getEnv("OLLAMA_HOST", "http://localhost:11434"),
		AWSRegion:       getEnv("AWS_REGION", ""),

		LogFile:  getEnv("APRX_EXPLORER_LOG_FILE", ""),
		LogLevel: parseLogLevel(getEnv("APRX_EXPLORER_LOG_LEVEL", "INFO")),
	}
}

func (c *Config) merge(data []byte) error {
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return err
	}

	if fc.Provider != "" {
		c.LLMProvider = Provider(strings.ToLower(fc.Provider))
	}
	setIf(&c.LLMModel, fc.Model)
	setIf(&c.OpenAIAPIKey, fc.OpenAIAPIKey)
	setIf(&c.AnthropicAPIKey, fc.AnthropicAPIKey)
	setIf(&c.OllamaHost, fc.OllamaHost)
	setIf(&c.AWSRegion, fc.AWSRegion)
	setIf(&c.SystemPrompt, fc.SystemPrompt)
	setIf(&c.HumanPrompt, fc.HumanPrompt)
	setIf(&c.LogFile, fc.LogFile)
	if fc.LogLevel != "" {
		c.LogLevel = parseLogLevel(fc.LogLevel)
	}
	return nil
}

// NeedsAPIKey reports whether the provider authenticates with an API key
// and none is configured.
func (c Config) NeedsAPIKey() bool {
	switch c.LLMProvider {
	case ProviderOpenAI:
		return c.OpenAIAPIKey == ""
	case ProviderAnthropic:
		return c.AnthropicAPIKey == ""
	default:
		return false
	}
}

// SetAPIKey stores key for the configured provider.
func (c *Config) SetAPIKey(key string) {
	switch c.LLMProvider {
	case ProviderAnthropic:
		c.AnthropicAPIKey = key
	default:
		c.OpenAIAPIKey = key
	}
}

func setIf(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
