package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// withConfigFile points XDG_CONFIG_HOME at a temp dir containing the given
// config content and resets the cache around the test.
func withConfigFile(t *testing.T, content string) {
	t.Helper()
	dir := t.TempDir()
	cfgDir := filepath.Join(dir, GlobalConfigDir)
	if err := os.MkdirAll(cfgDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(cfgDir, GlobalConfigFile), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("XDG_CONFIG_HOME", dir)
	ResetGlobalConfigCache()
	t.Cleanup(ResetGlobalConfigCache)
}

func TestLoadGlobalConfig(t *testing.T) {
	withConfigFile(t, `
s2_api_key: s2-key
openai_api_key: oa-key
llm_model: test-model
min_score: 0.7
workers: 6
retry_attempts: 5
lookup_timeout_seconds: 10
debug: true
`)

	cfg, err := LoadGlobalConfig()
	if err != nil {
		t.Fatalf("LoadGlobalConfig() error = %v", err)
	}

	if cfg.S2APIKey != "s2-key" || cfg.OpenAIAPIKey != "oa-key" {
		t.Errorf("keys = %q, %q", cfg.S2APIKey, cfg.OpenAIAPIKey)
	}
	if cfg.LLMModel != "test-model" {
		t.Errorf("LLMModel = %q", cfg.LLMModel)
	}
	if got := cfg.MinScoreOrDefault(0.5); got != 0.7 {
		t.Errorf("MinScoreOrDefault() = %v, want 0.7", got)
	}
	if cfg.Workers != 6 || cfg.RetryAttempts != 5 {
		t.Errorf("Workers = %d, RetryAttempts = %d", cfg.Workers, cfg.RetryAttempts)
	}
	if got := cfg.LookupTimeout(20 * time.Second); got != 10*time.Second {
		t.Errorf("LookupTimeout() = %v", got)
	}
	if !cfg.Debug {
		t.Error("Debug = false")
	}
}

func TestLoadGlobalConfigMissingFile(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	ResetGlobalConfigCache()
	t.Cleanup(ResetGlobalConfigCache)

	cfg, err := LoadGlobalConfig()
	if err != nil {
		t.Fatalf("LoadGlobalConfig() error = %v", err)
	}
	if got := cfg.MinScoreOrDefault(0.5); got != 0.5 {
		t.Errorf("MinScoreOrDefault() = %v, want default 0.5", got)
	}
	if got := cfg.LLMTimeout(90 * time.Second); got != 90*time.Second {
		t.Errorf("LLMTimeout() = %v, want default", got)
	}
}

func TestLoadGlobalConfigInvalidYAML(t *testing.T) {
	withConfigFile(t, "min_score: [not a number")

	if _, err := LoadGlobalConfig(); err == nil {
		t.Error("LoadGlobalConfig() error = nil, want parse error")
	}
}

func TestMinScoreOrDefaultClamps(t *testing.T) {
	low := -0.5
	high := 2.0

	cfg := &GlobalConfig{MinScore: &low}
	if got := cfg.MinScoreOrDefault(0.5); got != 0 {
		t.Errorf("MinScoreOrDefault(-0.5) = %v, want 0", got)
	}

	cfg = &GlobalConfig{MinScore: &high}
	if got := cfg.MinScoreOrDefault(0.5); got != 1 {
		t.Errorf("MinScoreOrDefault(2.0) = %v, want 1", got)
	}
}

func TestGlobalConfigPath(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg-test")
	want := filepath.Join("/tmp/xdg-test", GlobalConfigDir, GlobalConfigFile)
	if got := GlobalConfigPath(); got != want {
		t.Errorf("GlobalConfigPath() = %q, want %q", got, want)
	}
}

func TestDBPath(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "/tmp/xdg-data-test")
	want := filepath.Join("/tmp/xdg-data-test", GlobalConfigDir, "runs.db")
	if got := DBPath(); got != want {
		t.Errorf("DBPath() = %q, want %q", got, want)
	}
}
