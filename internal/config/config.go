// Package config handles global configuration for refcheck.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// GlobalConfig represents configuration stored in
// $XDG_CONFIG_HOME/refcheck/config.yml. Every field is optional; flags and
// environment variables override what is set here.
type GlobalConfig struct {
	// API keys and endpoints for the external collaborators.
	S2APIKey       string `yaml:"s2_api_key,omitempty"`
	OpenAIAPIKey   string `yaml:"openai_api_key,omitempty"`
	LLMBaseURL     string `yaml:"llm_base_url,omitempty"`
	LLMModel       string `yaml:"llm_model,omitempty"`
	ScholarBaseURL string `yaml:"scholar_base_url,omitempty"`
	ArxivBaseURL   string `yaml:"arxiv_base_url,omitempty"`

	// Pipeline defaults.
	MinScore      *float64 `yaml:"min_score,omitempty"`
	Workers       int      `yaml:"workers,omitempty"`
	RetryAttempts int      `yaml:"retry_attempts,omitempty"`

	// Timeouts and backoff ceiling in seconds.
	LookupTimeoutSecs  int `yaml:"lookup_timeout_seconds,omitempty"`
	LLMTimeoutSecs     int `yaml:"llm_timeout_seconds,omitempty"`
	BackoffCeilingSecs int `yaml:"backoff_ceiling_seconds,omitempty"`

	Debug bool `yaml:"debug,omitempty"`
}

const (
	// GlobalConfigDir is the directory name under XDG_CONFIG_HOME.
	GlobalConfigDir = "refcheck"
	// GlobalConfigFile is the config file name.
	GlobalConfigFile = "config.yml"
)

// DataDir returns the directory for persisted run data.
// Respects XDG_DATA_HOME, defaults to ~/.local/share/refcheck.
func DataDir() string {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		dataHome = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataHome, GlobalConfigDir)
}

// DBPath returns the path to the run database.
func DBPath() string {
	dir := DataDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "runs.db")
}

// globalConfigCache caches the loaded global config.
var globalConfigCache *GlobalConfig

// GlobalConfigPath returns the path to the global config file.
// Respects XDG_CONFIG_HOME, defaults to ~/.config/refcheck/config.yml.
func GlobalConfigPath() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, GlobalConfigDir, GlobalConfigFile)
}

// LoadGlobalConfig loads the global configuration file.
// Returns an empty config (not an error) if the file doesn't exist.
func LoadGlobalConfig() (*GlobalConfig, error) {
	if globalConfigCache != nil {
		return globalConfigCache, nil
	}

	path := GlobalConfigPath()
	if path == "" {
		return &GlobalConfig{}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &GlobalConfig{}, nil
		}
		return nil, fmt.Errorf("reading global config: %w", err)
	}

	var cfg GlobalConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing global config: %w", err)
	}

	globalConfigCache = &cfg
	return &cfg, nil
}

// ResetGlobalConfigCache clears the cached global config.
// Useful for testing.
func ResetGlobalConfigCache() {
	globalConfigCache = nil
}

// GetS2APIKey returns the Semantic Scholar API key from global config.
func GetS2APIKey() string {
	cfg, _ := LoadGlobalConfig()
	return cfg.S2APIKey
}

// GetOpenAIAPIKey returns the completion-service API key from global config.
func GetOpenAIAPIKey() string {
	cfg, _ := LoadGlobalConfig()
	return cfg.OpenAIAPIKey
}

// MinScoreOrDefault returns the configured acceptance threshold clamped to
// [0,1], or def when unset.
func (c *GlobalConfig) MinScoreOrDefault(def float64) float64 {
	if c.MinScore == nil {
		return def
	}
	s := *c.MinScore
	if s < 0 {
		return 0
	}
	if s > 1 {
		return 1
	}
	return s
}

// LookupTimeout returns the configured lookup timeout, or def when unset.
func (c *GlobalConfig) LookupTimeout(def time.Duration) time.Duration {
	if c.LookupTimeoutSecs <= 0 {
		return def
	}
	return time.Duration(c.LookupTimeoutSecs) * time.Second
}

// LLMTimeout returns the configured completion timeout, or def when unset.
func (c *GlobalConfig) LLMTimeout(def time.Duration) time.Duration {
	if c.LLMTimeoutSecs <= 0 {
		return def
	}
	return time.Duration(c.LLMTimeoutSecs) * time.Second
}

// BackoffCeiling returns the configured backoff ceiling, or def when unset.
func (c *GlobalConfig) BackoffCeiling(def time.Duration) time.Duration {
	if c.BackoffCeilingSecs <= 0 {
		return def
	}
	return time.Duration(c.BackoffCeilingSecs) * time.Second
}
