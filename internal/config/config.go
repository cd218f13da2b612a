package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/oatmealdealer/download-papertrail/internal/client"
	"github.com/oatmealdealer/download-papertrail/internal/download"
)

// Config defines configuration for the download-papertrail CLI.
type Config struct {
	// Token is the Papertrail API token. Required; never logged.
	Token string `yaml:"token" envconfig:"PAPERTRAIL_API_TOKEN"`

	// BaseURL is the Papertrail API root.
	BaseURL string `yaml:"base_url" envconfig:"PAPERTRAIL_BASE_URL"`

	// Out is where archives are written: a local directory, or a bucket
	// URL with a scheme (e.g. "s3://logs").
	Out string `yaml:"out" envconfig:"PAPERTRAIL_OUT"`

	// Concurrency is the number of files downloaded at once.
	Concurrency int `yaml:"concurrency" envconfig:"PAPERTRAIL_CONCURRENCY"`

	// Throttle is the minimum spacing between successive requests.
	Throttle time.Duration `yaml:"throttle" envconfig:"PAPERTRAIL_THROTTLE_DURATION"`

	// Decode decompresses archives from gzip before writing.
	Decode bool `yaml:"decode" envconfig:"PAPERTRAIL_DECODE"`

	// Progress enables the periodic progress display.
	Progress bool `yaml:"progress" envconfig:"PAPERTRAIL_PROGRESS"`

	// Retry defines retry behavior for transient fetch failures.
	Retry RetryConfig `yaml:"retry"`
}

// RetryConfig defines retry behavior.
type RetryConfig struct {
	Attempts   int           `yaml:"attempts" envconfig:"PAPERTRAIL_RETRY_ATTEMPTS"`
	Backoff    time.Duration `yaml:"backoff" envconfig:"PAPERTRAIL_RETRY_BACKOFF"`
	MaxBackoff time.Duration `yaml:"max_backoff" envconfig:"PAPERTRAIL_RETRY_MAX_BACKOFF"`
}

// Default returns a Config with sensible defaults. The throttle and retry
// values match the original service limits; concurrency follows the host's
// core count.
func Default() Config {
	return Config{
		BaseURL:     client.DefaultBaseURL,
		Out:         ".",
		Concurrency: download.DefaultWorkers(),
		Throttle:    200 * time.Millisecond,
		Retry: RetryConfig{
			Attempts:   3,
			Backoff:    500 * time.Millisecond,
			MaxBackoff: 10 * time.Second,
		},
	}
}

// yamlConfig is used for YAML unmarshaling with string durations.
type yamlConfig struct {
	Token       string          `yaml:"token"`
	BaseURL     string          `yaml:"base_url"`
	Out         string          `yaml:"out"`
	Concurrency int             `yaml:"concurrency"`
	Throttle    string          `yaml:"throttle"`
	Decode      *bool           `yaml:"decode"`
	Progress    *bool           `yaml:"progress"`
	Retry       yamlRetryConfig `yaml:"retry"`
}

type yamlRetryConfig struct {
	Attempts   int    `yaml:"attempts"`
	Backoff    string `yaml:"backoff"`
	MaxBackoff string `yaml:"max_backoff"`
}

// LoadFromFile loads configuration from a YAML file on top of the
// defaults.
func LoadFromFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}

	var yc yamlConfig
	if err := yaml.Unmarshal(data, &yc); err != nil {
		return Config{}, fmt.Errorf("parse config file: %w", err)
	}

	cfg := Default()

	if yc.Token != "" {
		cfg.Token = yc.Token
	}
	if yc.BaseURL != "" {
		cfg.BaseURL = yc.BaseURL
	}
	if yc.Out != "" {
		cfg.Out = yc.Out
	}
	if yc.Concurrency != 0 {
		cfg.Concurrency = yc.Concurrency
	}
	if yc.Throttle != "" {
		d, err := time.ParseDuration(yc.Throttle)
		if err != nil {
			return Config{}, fmt.Errorf("parse throttle: %w", err)
		}
		cfg.Throttle = d
	}
	if yc.Decode != nil {
		cfg.Decode = *yc.Decode
	}
	if yc.Progress != nil {
		cfg.Progress = *yc.Progress
	}
	if yc.Retry.Attempts != 0 {
		cfg.Retry.Attempts = yc.Retry.Attempts
	}
	if yc.Retry.Backoff != "" {
		d, err := time.ParseDuration(yc.Retry.Backoff)
		if err != nil {
			return Config{}, fmt.Errorf("parse retry.backoff: %w", err)
		}
		cfg.Retry.Backoff = d
	}
	if yc.Retry.MaxBackoff != "" {
		d, err := time.ParseDuration(yc.Retry.MaxBackoff)
		if err != nil {
			return Config{}, fmt.Errorf("parse retry.max_backoff: %w", err)
		}
		cfg.Retry.MaxBackoff = d
	}

	return cfg, nil
}

// LoadFromEnv overlays PAPERTRAIL_* environment variables onto c. Unset
// variables leave the existing values untouched.
func (c *Config) LoadFromEnv() error {
	if err := envconfig.Process("", c); err != nil {
		return fmt.Errorf("load environment: %w", err)
	}
	return nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Token == "" {
		return errors.New("config: API token is required (set PAPERTRAIL_API_TOKEN)")
	}
	if c.BaseURL == "" {
		return errors.New("config: base URL is required")
	}
	if c.Out == "" {
		return errors.New("config: output location is required")
	}
	if c.Concurrency <= 0 {
		return errors.New("config: concurrency must be positive")
	}
	if c.Throttle < 0 {
		return errors.New("config: throttle must not be negative")
	}
	if c.Retry.Attempts <= 0 {
		return errors.New("config: retry.attempts must be positive")
	}
	return nil
}

// ClientOptions maps the configuration onto remote-client options. The
// throttle is attached separately by the caller.
func (c *Config) ClientOptions() client.Options {
	opts := client.DefaultOptions()
	opts.Token = c.Token
	opts.BaseURL = c.BaseURL
	opts.RetryAttempts = c.Retry.Attempts
	opts.RetryBackoff = c.Retry.Backoff
	opts.RetryMaxBackoff = c.Retry.MaxBackoff
	return opts
}
