package config

import (
	"strings"
	"time"
)

// Supported LLM providers.
const (
	ProviderGemini    = "gemini"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	// ProviderOffline answers from retrieved context without calling a model.
	ProviderOffline = "offline"
)

// DefaultModels maps each provider to the model used when none is configured.
var DefaultModels = map[string]string{
	ProviderGemini:    "gemini-2.0-flash-exp",
	ProviderOpenAI:    "gpt-4o-mini",
	ProviderAnthropic: "claude-3-5-haiku-latest",
	ProviderOffline:   "offline",
}

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.RequestTimeout == 0 {
		cfg.Server.RequestTimeout = 60 * time.Second
	}
	cfg.LLM.Provider = strings.ToLower(strings.TrimSpace(cfg.LLM.Provider))
	if cfg.LLM.Provider == "" {
		cfg.LLM.Provider = ProviderGemini
	}
	if cfg.LLM.Model == "" {
		cfg.LLM.Model = DefaultModels[cfg.LLM.Provider]
	}
	if cfg.LLM.Temperature == 0 {
		cfg.LLM.Temperature = 0.7
	}
	if cfg.LLM.TopP == 0 {
		cfg.LLM.TopP = 0.95
	}
	if cfg.LLM.TopK == 0 {
		cfg.LLM.TopK = 40
	}
	if cfg.LLM.MaxOutputTokens == 0 {
		cfg.LLM.MaxOutputTokens = 2048
	}
	if cfg.LLM.Timeout == 0 {
		cfg.LLM.Timeout = 30 * time.Second
	}
	if cfg.LLM.StreamTimeout == 0 {
		cfg.LLM.StreamTimeout = 120 * time.Second
	}
	if cfg.Search.DefaultLimit == 0 {
		cfg.Search.DefaultLimit = 5
	}
	if cfg.Search.ListDefaultLimit == 0 {
		cfg.Search.ListDefaultLimit = 20
	}
	if cfg.Search.ListMaxLimit == 0 {
		cfg.Search.ListMaxLimit = 100
	}
}
