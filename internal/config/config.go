// Package config handles configuration loading for NewsLens.
// It supports YAML config files with environment variable overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config represents the complete application configuration.
type Config struct {
	LLM     LLMConfig     `mapstructure:"llm"     yaml:"llm"`
	Scraper ScraperConfig `mapstructure:"scraper" yaml:"scraper"`
	Store   StoreConfig   `mapstructure:"store"   yaml:"store"`
	Speech  SpeechConfig  `mapstructure:"speech"  yaml:"speech"`
	API     APIConfig     `mapstructure:"api"     yaml:"api"`
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`
}

// LLMConfig holds text-generation provider configuration.
type LLMConfig struct {
	Primary     string  `mapstructure:"primary"     yaml:"primary"` // "gemini" or "openai"
	GeminiKey   string  `mapstructure:"gemini_key"  yaml:"gemini_key"`
	OpenAIKey   string  `mapstructure:"openai_key"  yaml:"openai_key"`
	BaseURL     string  `mapstructure:"base_url"    yaml:"base_url"` // optional override for OpenAI-compatible endpoints
	Model       string  `mapstructure:"model"       yaml:"model"`
	Temperature float64 `mapstructure:"temperature" yaml:"temperature"`
	MaxTokens   int     `mapstructure:"max_tokens"  yaml:"max_tokens"`
	TimeoutSec  int     `mapstructure:"timeout_sec" yaml:"timeout_sec"`
}

// ScraperConfig holds article discovery and extraction settings.
// The search result selector is configuration, not contract: Google's markup
// changes and the selector must be swappable without a rebuild.
type ScraperConfig struct {
	Provider       string   `mapstructure:"provider"        yaml:"provider"` // "google" or "rss"
	MaxArticles    int      `mapstructure:"max_articles"    yaml:"max_articles"`
	FetchTimeout   int      `mapstructure:"fetch_timeout"   yaml:"fetch_timeout"` // seconds, per-article
	UserAgent      string   `mapstructure:"user_agent"      yaml:"user_agent"`
	ResultSelector string   `mapstructure:"result_selector" yaml:"result_selector"`
	BlockedDomains []string `mapstructure:"blocked_domains" yaml:"blocked_domains"`
	RequestsPerSec int      `mapstructure:"requests_per_sec" yaml:"requests_per_sec"`
}

// StoreConfig holds report persistence settings.
type StoreConfig struct {
	Dir string `mapstructure:"dir" yaml:"dir"`
}

// SpeechConfig holds translation and text-to-speech settings.
type SpeechConfig struct {
	TargetLang string `mapstructure:"target_lang" yaml:"target_lang"` // BCP-47-ish code, default "hi"
	CacheTTL   int    `mapstructure:"cache_ttl"   yaml:"cache_ttl"`   // seconds, generated audio
}

// APIConfig holds HTTP API server settings.
type APIConfig struct {
	Host        string   `mapstructure:"host"         yaml:"host"`
	Port        int      `mapstructure:"port"         yaml:"port"`
	CORSOrigins []string `mapstructure:"cors_origins" yaml:"cors_origins"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `mapstructure:"format" yaml:"format"` // "text" or "json"
	File   string `mapstructure:"file"   yaml:"file"`   // optional log file
}

// Load reads the configuration from file and environment variables.
// Config file search order:
//  1. ./config/config.yaml (project root)
//  2. ~/.newslens/config.yaml (home directory)
//  3. /etc/newslens/config.yaml (system)
//
// Environment variables override config file values.
// Format: NEWSLENS_<SECTION>_<KEY>, e.g., NEWSLENS_LLM_GEMINI_KEY.
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(filepath.Join(homeDir(), ".newslens"))
	v.AddConfigPath("/etc/newslens")

	v.SetEnvPrefix("NEWSLENS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found — that's fine, use defaults + env vars
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	overrideFromEnv(&cfg)
	return &cfg, nil
}

// LoadFromFile reads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(path)
	v.SetEnvPrefix("NEWSLENS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", path, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	overrideFromEnv(&cfg)
	return &cfg, nil
}

// setDefaults sets sensible defaults for all config values.
func setDefaults(v *viper.Viper) {
	// LLM defaults
	v.SetDefault("llm.primary", "gemini")
	v.SetDefault("llm.model", "gemini-1.5-pro")
	v.SetDefault("llm.temperature", 0.2)
	v.SetDefault("llm.max_tokens", 4096)
	v.SetDefault("llm.timeout_sec", 120)

	// Scraper defaults
	v.SetDefault("scraper.provider", "google")
	v.SetDefault("scraper.max_articles", 10)
	v.SetDefault("scraper.fetch_timeout", 10)
	v.SetDefault("scraper.user_agent",
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36")
	v.SetDefault("scraper.result_selector", "div.SoaBEf")
	v.SetDefault("scraper.blocked_domains", []string{
		"bloomberg.com",
		"wsj.com",
		"ft.com",
		"nytimes.com",
		"washingtonpost.com",
	})
	v.SetDefault("scraper.requests_per_sec", 2)

	// Store defaults
	v.SetDefault("store.dir", "data/output")

	// Speech defaults
	v.SetDefault("speech.target_lang", "hi")
	v.SetDefault("speech.cache_ttl", 600) // 10 minutes

	// API defaults
	v.SetDefault("api.host", "0.0.0.0")
	v.SetDefault("api.port", 8080)
	v.SetDefault("api.cors_origins", []string{"*"})

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

// overrideFromEnv explicitly reads sensitive keys from environment variables.
// GOOGLE_API_KEY is honored as a bare fallback for the Gemini key so existing
// deployments keep working.
func overrideFromEnv(cfg *Config) {
	if key := os.Getenv("NEWSLENS_LLM_GEMINI_KEY"); key != "" {
		cfg.LLM.GeminiKey = key
	}
	if cfg.LLM.GeminiKey == "" {
		if key := os.Getenv("GOOGLE_API_KEY"); key != "" {
			cfg.LLM.GeminiKey = key
		}
	}
	if key := os.Getenv("NEWSLENS_LLM_OPENAI_KEY"); key != "" {
		cfg.LLM.OpenAIKey = key
	}
}

// homeDir returns the user's home directory.
func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
