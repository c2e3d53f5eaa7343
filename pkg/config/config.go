package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/tokenwise-ai/tokenwise/pkg/audit"
	"github.com/tokenwise-ai/tokenwise/pkg/budget"
	"github.com/tokenwise-ai/tokenwise/pkg/cache"
)

// Config holds all tokenwise configuration.
type Config struct {
	LedgerPath string          `yaml:"ledger_path"`
	CacheDir   string          `yaml:"cache_dir"`
	Tokenizer  TokenizerConfig `yaml:"tokenizer"`
	Budget     BudgetConfig    `yaml:"budget"`
	Cache      CacheConfig     `yaml:"cache"`
	Events     audit.Config    `yaml:"events"`
}

// TokenizerConfig selects the tokenizer profile used for counting.
type TokenizerConfig struct {
	Profile string `yaml:"profile"`
}

// BudgetConfig controls budget tracking.
type BudgetConfig struct {
	Enabled bool          `yaml:"enabled"`
	Limits  budget.Limits `yaml:"limits"`
}

// CacheConfig controls the response cache.
type CacheConfig struct {
	Enabled bool          `yaml:"enabled"`
	TTL     time.Duration `yaml:"ttl"`
	MaxSize int           `yaml:"max_size"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		LedgerPath: budget.DefaultLedgerPath(),
		CacheDir:   cache.DefaultDir(),
		Tokenizer: TokenizerConfig{
			Profile: "gpt-4",
		},
		Budget: BudgetConfig{
			Enabled: true,
		},
		Cache: CacheConfig{
			Enabled: true,
			TTL:     cache.DefaultTTL,
			MaxSize: cache.DefaultMaxSize,
		},
		Events: audit.Config{
			Enabled:       false,
			DBPath:        "tokenwise_events.db",
			RetentionDays: 30,
		},
	}
}

// Load reads a YAML config file and expands environment variables.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	cfg := Default()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return cfg, nil
}
