// -----------------------------------------------------------------------
// Configuration - TOML file loading with environment overrides
// -----------------------------------------------------------------------

package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// LLMProvider identifies which text-model backend drives extraction and scoring.
type LLMProvider string

const (
	LLMProviderGemini LLMProvider = "gemini"
	LLMProviderClaude LLMProvider = "claude"
)

// Config is the root application configuration
type Config struct {
	Environment string         `toml:"environment"`
	Server      ServerConfig   `toml:"server"`
	Logging     LoggingConfig  `toml:"logging"`
	Storage     StorageConfig  `toml:"storage"`
	Gemini      GeminiConfig   `toml:"gemini"`
	Claude      ClaudeConfig   `toml:"claude"`
	LLM         LLMConfig      `toml:"llm"`
	EODHD       EODHDConfig    `toml:"eodhd"`
	Video       VideoConfig    `toml:"video"`
	Analysis    AnalysisConfig `toml:"analysis"`
	Retention   RetentionConfig `toml:"retention"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Port int    `toml:"port"`
	Host string `toml:"host"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level  string   `toml:"level"`  // debug|info|warn|error
	Format string   `toml:"format"` // text|json
	Output []string `toml:"output"` // stdout, file
}

// StorageConfig contains storage settings
type StorageConfig struct {
	Badger    BadgerConfig    `toml:"badger"`
	Artifacts ArtifactsConfig `toml:"artifacts"`
}

// BadgerConfig contains BadgerDB settings
type BadgerConfig struct {
	Path           string `toml:"path"`
	ResetOnStartup bool   `toml:"reset_on_startup"`
}

// ArtifactsConfig contains report artifact storage settings
type ArtifactsConfig struct {
	Dir string `toml:"dir"`
}

// GeminiConfig contains Google Gemini settings
type GeminiConfig struct {
	APIKey      string  `toml:"api_key"`
	Model       string  `toml:"model"`       // text model for extraction and scoring
	VideoModel  string  `toml:"video_model"` // multimodal model for video understanding
	Temperature float32 `toml:"temperature"`
	Timeout     string  `toml:"timeout"`
}

// ClaudeConfig contains Anthropic Claude settings
type ClaudeConfig struct {
	APIKey      string  `toml:"api_key"`
	Model       string  `toml:"model"`
	Temperature float32 `toml:"temperature"`
	Timeout     string  `toml:"timeout"`
	MaxTokens   int     `toml:"max_tokens"`
}

// LLMConfig selects the default text-model provider
type LLMConfig struct {
	DefaultProvider LLMProvider `toml:"default_provider"` // "gemini" or "claude"
}

// EODHDConfig contains EODHD market data API settings
type EODHDConfig struct {
	APIKey    string  `toml:"api_key"`
	BaseURL   string  `toml:"base_url"`
	RateLimit float64 `toml:"rate_limit"` // requests per second
	Timeout   string  `toml:"timeout"`
}

// VideoConfig contains video platform settings
type VideoConfig struct {
	ChannelAPIBaseURL string `toml:"channel_api_base_url"`
	ChannelAPIKey     string `toml:"channel_api_key"`
	LookupTimeout     string `toml:"lookup_timeout"`
}

// AnalysisConfig contains orchestrator tuning
type AnalysisConfig struct {
	DefaultRangeDays int    `toml:"default_range_days"` // market snapshot window when no dates given
	MaxBatchSize     int    `toml:"max_batch_size"`     // hard cap on references per batch run
	DefaultLanguage  string `toml:"default_language"`
}

// RetentionConfig controls the artifact retention sweeper
type RetentionConfig struct {
	Enabled  bool   `toml:"enabled"`
	Schedule string `toml:"schedule"` // cron format
	MaxAge   string `toml:"max_age"`  // duration, e.g. "720h"
}

// NewDefaultConfig creates a configuration with default values.
// Technical parameters are hardcoded here for production stability.
// Only user-facing settings should be exposed in specto.toml.
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Port: 8080,
			Host: "localhost",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: []string{"stdout", "file"},
		},
		Storage: StorageConfig{
			Badger: BadgerConfig{
				Path: "./data",
			},
			Artifacts: ArtifactsConfig{
				Dir: "./data/reports",
			},
		},
		Gemini: GeminiConfig{
			Model:       "gemini-2.5-flash",
			VideoModel:  "gemini-2.5-flash",
			Temperature: 0.2,
			Timeout:     "120s",
		},
		Claude: ClaudeConfig{
			Model:     "claude-sonnet-4-20250514",
			Timeout:   "120s",
			MaxTokens: 8192,
		},
		LLM: LLMConfig{
			DefaultProvider: LLMProviderGemini,
		},
		EODHD: EODHDConfig{
			BaseURL:   "https://eodhd.com/api",
			RateLimit: 10,
			Timeout:   "30s",
		},
		Video: VideoConfig{
			ChannelAPIBaseURL: "https://api.tikhub.io",
			LookupTimeout:     "15s",
		},
		Analysis: AnalysisConfig{
			DefaultRangeDays: 30,
			MaxBatchSize:     10,
			DefaultLanguage:  "en",
		},
		Retention: RetentionConfig{
			Enabled:  false,
			Schedule: "0 0 3 * * *", // daily at 3am
			MaxAge:   "720h",
		},
	}
}

// LoadFromFile loads configuration from a single file
func LoadFromFile(path string) (*Config, error) {
	return LoadFromFiles(path)
}

// LoadFromFiles loads configuration from multiple files with priority:
// defaults -> file1 -> file2 -> ... -> env.
// Later files override earlier files; environment variables override all files.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("SPECTO_ENV"); env != "" {
		config.Environment = env
	} else if env := os.Getenv("GO_ENV"); env != "" {
		config.Environment = env
	}

	if port := os.Getenv("SPECTO_SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if host := os.Getenv("SPECTO_SERVER_HOST"); host != "" {
		config.Server.Host = host
	}

	if level := os.Getenv("SPECTO_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}

	if path := os.Getenv("SPECTO_BADGER_PATH"); path != "" {
		config.Storage.Badger.Path = path
	}
	if dir := os.Getenv("SPECTO_ARTIFACTS_DIR"); dir != "" {
		config.Storage.Artifacts.Dir = dir
	}

	if key := os.Getenv("SPECTO_GEMINI_API_KEY"); key != "" {
		config.Gemini.APIKey = key
	} else if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		config.Gemini.APIKey = key
	}
	if model := os.Getenv("SPECTO_GEMINI_MODEL"); model != "" {
		config.Gemini.Model = model
	}

	if key := os.Getenv("SPECTO_CLAUDE_API_KEY"); key != "" {
		config.Claude.APIKey = key
	} else if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" {
		config.Claude.APIKey = key
	}

	if provider := os.Getenv("SPECTO_LLM_PROVIDER"); provider != "" {
		config.LLM.DefaultProvider = LLMProvider(strings.ToLower(provider))
	}

	if key := os.Getenv("SPECTO_EODHD_API_KEY"); key != "" {
		config.EODHD.APIKey = key
	} else if key := os.Getenv("EODHD_API_KEY"); key != "" {
		config.EODHD.APIKey = key
	}

	if key := os.Getenv("SPECTO_CHANNEL_API_KEY"); key != "" {
		config.Video.ChannelAPIKey = key
	}
}

// ApplyFlagOverrides applies command-line flag overrides to config.
// Flags have the highest priority, above environment variables and files.
func ApplyFlagOverrides(config *Config, port int, host string) {
	if port > 0 {
		config.Server.Port = port
	}
	if host != "" {
		config.Server.Host = host
	}
}

// Validate checks the configuration for fatal misconfiguration
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	switch c.LLM.DefaultProvider {
	case LLMProviderGemini, LLMProviderClaude:
	default:
		return fmt.Errorf("invalid llm provider: %s", c.LLM.DefaultProvider)
	}
	if c.Analysis.MaxBatchSize < 1 {
		return fmt.Errorf("invalid analysis max_batch_size: %d", c.Analysis.MaxBatchSize)
	}
	return nil
}

// IsProduction returns true when running in production mode
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}
