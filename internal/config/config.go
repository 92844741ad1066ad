// Package config loads and holds all docmask configuration.
// Settings are layered: built-in defaults, then docmask.yaml, then
// environment variables. API keys are read from the environment only and
// never from the config file.
package config

import (
	"log"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds the full docmask configuration.
type Config struct {
	ServerPort  int    `yaml:"serverPort"`
	BindAddress string `yaml:"bindAddress"`
	LogLevel    string `yaml:"logLevel"`

	DefaultModel          string `yaml:"defaultModel"`
	MaxTokens             int    `yaml:"maxTokens"`
	RequestTimeoutSeconds int    `yaml:"requestTimeoutSeconds"`

	AnthropicBaseURL string `yaml:"anthropicBaseURL"`
	OpenAIBaseURL    string `yaml:"openaiBaseURL"`
	GeminiBaseURL    string `yaml:"geminiBaseURL"`

	// IncludeEndWord selects the extraction policy default: with true the
	// end word is part of the extracted slice, with false it is excluded.
	IncludeEndWord bool `yaml:"includeEndWord"`

	StorePath  string `yaml:"storePath"`
	LedgerPath string `yaml:"ledgerPath"`

	// API keys, environment only.
	AnthropicAPIKey string `yaml:"-"`
	OpenAIAPIKey    string `yaml:"-"`
	GeminiAPIKey    string `yaml:"-"`
}

// Load returns config with defaults overridden by docmask.yaml and env vars.
func Load() *Config {
	cfg := defaults()
	loadFile(cfg, "docmask.yaml")
	loadEnv(cfg)
	return cfg
}

func defaults() *Config {
	return &Config{
		ServerPort:            8090,
		BindAddress:           "127.0.0.1",
		LogLevel:              "info",
		DefaultModel:          "claude-sonnet-4-5-20250929",
		MaxTokens:             4096,
		RequestTimeoutSeconds: 120,
		AnthropicBaseURL:      "https://api.anthropic.com",
		OpenAIBaseURL:         "https://api.openai.com",
		GeminiBaseURL:         "https://generativelanguage.googleapis.com",
		IncludeEndWord:        true,
		StorePath:             "docmask.db",
		LedgerPath:            "ledger.json",
	}
}

func loadFile(cfg *Config, path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		return // file is optional
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		log.Printf("[CONFIG] Warning: could not parse %s: %v", path, err)
	}
}

func loadEnv(cfg *Config) {
	if v := os.Getenv("DOCMASK_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.ServerPort = n
		}
	}
	if v := os.Getenv("DOCMASK_BIND"); v != "" {
		cfg.BindAddress = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("DOCMASK_MODEL"); v != "" {
		cfg.DefaultModel = v
	}
	if v := os.Getenv("DOCMASK_MAX_TOKENS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.MaxTokens = n
		}
	}
	if v := os.Getenv("DOCMASK_TIMEOUT_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.RequestTimeoutSeconds = n
		}
	}
	if v := os.Getenv("DOCMASK_INCLUDE_END_WORD"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.IncludeEndWord = b
		}
	}
	if v := os.Getenv("DOCMASK_STORE"); v != "" {
		cfg.StorePath = v
	}
	if v := os.Getenv("DOCMASK_LEDGER"); v != "" {
		cfg.LedgerPath = v
	}

	cfg.AnthropicAPIKey = os.Getenv("ANTHROPIC_API_KEY")
	cfg.OpenAIAPIKey = os.Getenv("OPENAI_API_KEY")
	cfg.GeminiAPIKey = os.Getenv("GEMINI_API_KEY")
}
