package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Throttle != 200*time.Millisecond {
		t.Errorf("expected 200ms throttle, got %v", cfg.Throttle)
	}
	if cfg.Concurrency <= 0 {
		t.Errorf("expected positive default concurrency, got %d", cfg.Concurrency)
	}
	if cfg.Out != "." {
		t.Errorf("expected default out '.', got %q", cfg.Out)
	}
	if cfg.Retry.Attempts != 3 {
		t.Errorf("expected 3 retry attempts, got %d", cfg.Retry.Attempts)
	}
}

func TestLoadFromFile(t *testing.T) {
	path := writeConfigFile(t, `
token: file-token
out: /var/log/archives
concurrency: 2
throttle: 1s
decode: true
retry:
  attempts: 7
  backoff: 250ms
  max_backoff: 5s
`)

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile: %v", err)
	}

	if cfg.Token != "file-token" {
		t.Errorf("token = %q", cfg.Token)
	}
	if cfg.Out != "/var/log/archives" {
		t.Errorf("out = %q", cfg.Out)
	}
	if cfg.Concurrency != 2 {
		t.Errorf("concurrency = %d", cfg.Concurrency)
	}
	if cfg.Throttle != time.Second {
		t.Errorf("throttle = %v", cfg.Throttle)
	}
	if !cfg.Decode {
		t.Error("expected decode enabled")
	}
	if cfg.Retry.Attempts != 7 || cfg.Retry.Backoff != 250*time.Millisecond || cfg.Retry.MaxBackoff != 5*time.Second {
		t.Errorf("retry = %+v", cfg.Retry)
	}
}

func TestLoadFromFilePartialKeepsDefaults(t *testing.T) {
	path := writeConfigFile(t, "token: x\n")

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile: %v", err)
	}

	def := Default()
	if cfg.Throttle != def.Throttle {
		t.Errorf("throttle = %v, want default %v", cfg.Throttle, def.Throttle)
	}
	if cfg.Retry != def.Retry {
		t.Errorf("retry = %+v, want default %+v", cfg.Retry, def.Retry)
	}
}

func TestLoadFromFileBadDuration(t *testing.T) {
	path := writeConfigFile(t, "throttle: not-a-duration\n")
	if _, err := LoadFromFile(path); err == nil {
		t.Error("expected error for bad duration")
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PAPERTRAIL_API_TOKEN", "env-token")
	t.Setenv("PAPERTRAIL_CONCURRENCY", "3")
	t.Setenv("PAPERTRAIL_THROTTLE_DURATION", "750ms")
	t.Setenv("PAPERTRAIL_DECODE", "true")
	t.Setenv("PAPERTRAIL_RETRY_ATTEMPTS", "9")

	cfg := Default()
	if err := cfg.LoadFromEnv(); err != nil {
		t.Fatalf("LoadFromEnv: %v", err)
	}

	if cfg.Token != "env-token" {
		t.Errorf("token = %q", cfg.Token)
	}
	if cfg.Concurrency != 3 {
		t.Errorf("concurrency = %d", cfg.Concurrency)
	}
	if cfg.Throttle != 750*time.Millisecond {
		t.Errorf("throttle = %v", cfg.Throttle)
	}
	if !cfg.Decode {
		t.Error("expected decode enabled")
	}
	if cfg.Retry.Attempts != 9 {
		t.Errorf("retry.attempts = %d", cfg.Retry.Attempts)
	}
}

func TestLoadFromEnvLeavesUnsetAlone(t *testing.T) {
	cfg := Default()
	cfg.Token = "keep-me"
	if err := cfg.LoadFromEnv(); err != nil {
		t.Fatalf("LoadFromEnv: %v", err)
	}
	if cfg.Token != "keep-me" {
		t.Errorf("token = %q, want keep-me", cfg.Token)
	}
}

func TestValidate(t *testing.T) {
	valid := Default()
	valid.Token = "x"
	if err := valid.Validate(); err != nil {
		t.Errorf("valid config rejected: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing token", func(c *Config) { c.Token = "" }},
		{"zero concurrency", func(c *Config) { c.Concurrency = 0 }},
		{"negative throttle", func(c *Config) { c.Throttle = -time.Second }},
		{"empty out", func(c *Config) { c.Out = "" }},
		{"zero retry attempts", func(c *Config) { c.Retry.Attempts = 0 }},
	}

	for _, tt := range tests {
		cfg := Default()
		cfg.Token = "x"
		tt.mutate(&cfg)
		if err := cfg.Validate(); err == nil {
			t.Errorf("%s: expected validation error", tt.name)
		}
	}
}

func TestClientOptions(t *testing.T) {
	cfg := Default()
	cfg.Token = "x"
	cfg.Retry.Attempts = 5

	opts := cfg.ClientOptions()
	if opts.Token != "x" {
		t.Errorf("token = %q", opts.Token)
	}
	if opts.RetryAttempts != 5 {
		t.Errorf("retry attempts = %d", opts.RetryAttempts)
	}
	if opts.BaseURL != cfg.BaseURL {
		t.Errorf("base URL = %q", opts.BaseURL)
	}
}
