// Package config provides configuration loading and structs for the campusbot server.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Debug     bool            `yaml:"debug" env:"CAMPUSBOT_DEBUG"`
	Server    ServerConfig    `yaml:"server"`
	LLM       LLMConfig       `yaml:"llm"`
	Reference ReferenceConfig `yaml:"reference"`
	Search    SearchConfig    `yaml:"search"`
	Storage   StorageConfig   `yaml:"storage"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host" env:"CAMPUSBOT_HOST"`
	Port int    `yaml:"port" env:"CAMPUSBOT_PORT"`
	// RequestTimeout bounds non-streaming handlers.
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

// Addr returns host:port for net/http.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// LLMConfig selects the text generation provider and its sampling parameters.
// API keys are read from the environment only and are never written back by Save.
type LLMConfig struct {
	Provider        string        `yaml:"provider" env:"LLM_PROVIDER"`
	Model           string        `yaml:"model" env:"LLM_MODEL"`
	BaseURL         string        `yaml:"base_url,omitempty" env:"LLM_BASE_URL"`
	Temperature     float32       `yaml:"temperature"`
	TopP            float32       `yaml:"top_p"`
	TopK            int           `yaml:"top_k"`
	MaxOutputTokens int           `yaml:"max_output_tokens"`
	Timeout         time.Duration `yaml:"timeout"`
	StreamTimeout   time.Duration `yaml:"stream_timeout"`

	GeminiAPIKey    string `yaml:"-" env:"GEMINI_API_KEY"`
	OpenAIAPIKey    string `yaml:"-" env:"OPENAI_API_KEY"`
	AnthropicAPIKey string `yaml:"-" env:"ANTHROPIC_API_KEY"`
}

// APIKey returns the key for the configured provider.
func (c *LLMConfig) APIKey() string {
	switch c.Provider {
	case ProviderOpenAI:
		return c.OpenAIAPIKey
	case ProviderAnthropic:
		return c.AnthropicAPIKey
	case ProviderGemini:
		return c.GeminiAPIKey
	}
	return ""
}

// ReferenceConfig locates the reference dataset. An empty path uses the embedded dataset.
type ReferenceConfig struct {
	Path string `yaml:"path" env:"CAMPUSBOT_REFERENCE_PATH"`
}

// SearchConfig holds retrieval and listing limits.
type SearchConfig struct {
	DefaultLimit     int `yaml:"default_limit"`
	ListDefaultLimit int `yaml:"list_default_limit"`
	ListMaxLimit     int `yaml:"list_max_limit"`
}

// StorageConfig holds the question log location. An empty path disables the log.
type StorageConfig struct {
	DatabasePath string `yaml:"database_path" env:"CAMPUSBOT_DATABASE_PATH"`
}

// Load reads and parses the config file at path, overlays environment variables,
// applies defaults and expands paths.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := finish(&cfg, filepath.Dir(path)); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadOrDefault behaves like Load but falls back to defaults plus environment when path does not exist.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if err == nil {
		return cfg, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}
	cfg = &Config{}
	wd, _ := os.Getwd()
	if err := finish(cfg, wd); err != nil {
		return nil, err
	}
	return cfg, nil
}

func finish(cfg *Config, configDir string) error {
	if err := cleanenv.ReadEnv(cfg); err != nil {
		return fmt.Errorf("failed to read environment: %w", err)
	}
	ApplyDefaults(cfg)
	if err := Validate(cfg); err != nil {
		return err
	}
	if cfg.Reference.Path != "" {
		cfg.Reference.Path = expandPath(cfg.Reference.Path, configDir)
	}
	if cfg.Storage.DatabasePath != "" {
		cfg.Storage.DatabasePath = expandPath(cfg.Storage.DatabasePath, configDir)
	}
	return nil
}

// Validate rejects settings that defaults cannot repair.
func Validate(cfg *Config) error {
	switch cfg.LLM.Provider {
	case ProviderGemini, ProviderOpenAI, ProviderAnthropic, ProviderOffline:
	default:
		return fmt.Errorf("unknown llm provider %q", cfg.LLM.Provider)
	}
	if cfg.Server.Port < 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", cfg.Server.Port)
	}
	if cfg.Search.ListDefaultLimit > cfg.Search.ListMaxLimit {
		return fmt.Errorf("search.list_default_limit %d exceeds list_max_limit %d",
			cfg.Search.ListDefaultLimit, cfg.Search.ListMaxLimit)
	}
	return nil
}

// Save writes the config to path. API keys are not written.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
