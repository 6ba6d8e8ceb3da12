// Package config loads taskquest settings from a YAML file.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/bryan-cox/taskquest/internal/effects"
)

// Scorer providers.
const (
	ProviderHeuristic = "heuristic"
	ProviderHTTP      = "http"
	ProviderGemini    = "gemini"
)

// Config is the top-level settings file.
type Config struct {
	Vault           string                `yaml:"vault"`
	StorageFolder   string                `yaml:"storage_folder"`
	TrackedFolders  []string              `yaml:"tracked_folders"`
	ScanInterval    time.Duration         `yaml:"scan_interval"`
	DeductOnUncheck bool                  `yaml:"deduct_on_uncheck"`
	Scoring         Scoring               `yaml:"scoring"`
	RateLimit       RateLimit             `yaml:"rate_limit"`
	Achievements    []effects.Achievement `yaml:"achievements"`
}

// Scoring configures how completed tasks are turned into points.
type Scoring struct {
	Provider       string             `yaml:"provider"`
	Endpoint       string             `yaml:"endpoint"`
	Model          string             `yaml:"model"`
	APIKeyEnv      string             `yaml:"api_key_env"`
	Timeout        time.Duration      `yaml:"timeout"`
	BaseValue      float64            `yaml:"base_value"`
	TagMultipliers map[string]float64 `yaml:"tag_multipliers"`
}

// APIKey returns the scorer API key from the configured environment variable.
func (s Scoring) APIKey() string {
	if s.APIKeyEnv == "" {
		return ""
	}
	return os.Getenv(s.APIKeyEnv)
}

// RateLimit throttles calls to the scorer.
type RateLimit struct {
	Enabled           bool `yaml:"enabled"`
	RequestsPerMinute int  `yaml:"requests_per_minute"`
}

// Default returns the settings used when no file is present.
func Default() *Config {
	return &Config{
		Vault:           ".",
		StorageFolder:   ".taskquest",
		ScanInterval:    5 * time.Minute,
		DeductOnUncheck: true,
		Scoring: Scoring{
			Provider:       ProviderHeuristic,
			APIKeyEnv:      "TASKQUEST_API_KEY",
			Timeout:        30 * time.Second,
			BaseValue:      10,
			TagMultipliers: map[string]float64{},
		},
		RateLimit: RateLimit{
			Enabled:           true,
			RequestsPerMinute: 10,
		},
	}
}

// Load reads the YAML file at path on top of the defaults. A missing file
// yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("could not read config '%s': %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		safeData, _ := json.Marshal(string(data))
		return nil, fmt.Errorf("could not parse YAML from '%s': %w. Content: %s", path, err, safeData)
	}
	if cfg.Scoring.TagMultipliers == nil {
		cfg.Scoring.TagMultipliers = map[string]float64{}
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config '%s': %w", path, err)
	}
	return cfg, nil
}

// Validate checks settings that would otherwise fail at run time.
func (c *Config) Validate() error {
	if c.StorageFolder == "" {
		return errors.New("storage_folder must not be empty")
	}
	if c.ScanInterval < 0 {
		return fmt.Errorf("scan_interval must not be negative, got %s", c.ScanInterval)
	}
	if c.RateLimit.Enabled && c.RateLimit.RequestsPerMinute <= 0 {
		return fmt.Errorf("rate_limit.requests_per_minute must be positive, got %d", c.RateLimit.RequestsPerMinute)
	}
	if c.Scoring.BaseValue < 0 {
		return fmt.Errorf("scoring.base_value must not be negative, got %v", c.Scoring.BaseValue)
	}
	for tag, m := range c.Scoring.TagMultipliers {
		if m < 0 {
			return fmt.Errorf("scoring.tag_multipliers[%s] must not be negative", tag)
		}
	}
	switch c.Scoring.Provider {
	case ProviderHeuristic:
	case ProviderHTTP:
		if c.Scoring.Endpoint == "" {
			return errors.New("scoring.endpoint is required for the http provider")
		}
	case ProviderGemini:
	default:
		return fmt.Errorf("unknown scoring.provider %q", c.Scoring.Provider)
	}
	seen := make(map[string]bool)
	for _, a := range c.Achievements {
		if err := a.Validate(); err != nil {
			return err
		}
		if seen[a.ID] {
			return fmt.Errorf("duplicate achievement id %q", a.ID)
		}
		seen[a.ID] = true
	}
	return nil
}
