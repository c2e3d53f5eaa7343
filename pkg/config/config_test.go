package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/tokenwise-ai/tokenwise/pkg/cache"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Tokenizer.Profile != "gpt-4" {
		t.Errorf("default profile = %q", cfg.Tokenizer.Profile)
	}
	if !cfg.Budget.Enabled {
		t.Error("budget should be enabled by default")
	}
	if cfg.Budget.Limits.Hourly != 0 || cfg.Budget.Limits.Daily != 0 || cfg.Budget.Limits.Total != 0 {
		t.Errorf("default limits should be unset, got %+v", cfg.Budget.Limits)
	}
	if !cfg.Cache.Enabled {
		t.Error("cache should be enabled by default")
	}
	if cfg.Cache.TTL != cache.DefaultTTL {
		t.Errorf("default TTL = %v", cfg.Cache.TTL)
	}
	if cfg.Cache.MaxSize != cache.DefaultMaxSize {
		t.Errorf("default max size = %d", cfg.Cache.MaxSize)
	}
	if cfg.Events.Enabled {
		t.Error("event log should be disabled by default")
	}
	if cfg.LedgerPath == "" || cfg.CacheDir == "" {
		t.Error("default paths should not be empty")
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
ledger_path: /tmp/ledger.json
tokenizer:
  profile: gpt-3.5-turbo
budget:
  enabled: true
  limits:
    hourly: 1000
    daily: 10000
cache:
  ttl: 1h
  max_size: 50
events:
  enabled: true
  db_path: /tmp/events.db
`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.LedgerPath != "/tmp/ledger.json" {
		t.Errorf("ledger path = %q", cfg.LedgerPath)
	}
	if cfg.Tokenizer.Profile != "gpt-3.5-turbo" {
		t.Errorf("profile = %q", cfg.Tokenizer.Profile)
	}
	if cfg.Budget.Limits.Hourly != 1000 || cfg.Budget.Limits.Daily != 10000 {
		t.Errorf("limits = %+v", cfg.Budget.Limits)
	}
	if cfg.Budget.Limits.Total != 0 {
		t.Errorf("total limit should stay unset, got %d", cfg.Budget.Limits.Total)
	}
	if cfg.Cache.TTL != time.Hour {
		t.Errorf("ttl = %v", cfg.Cache.TTL)
	}
	if cfg.Cache.MaxSize != 50 {
		t.Errorf("max size = %d", cfg.Cache.MaxSize)
	}
	if !cfg.Events.Enabled || cfg.Events.DBPath != "/tmp/events.db" {
		t.Errorf("events = %+v", cfg.Events)
	}
}

func TestLoadExpandsEnv(t *testing.T) {
	t.Setenv("TOKENWISE_TEST_DIR", "/data/tokenwise")

	path := filepath.Join(t.TempDir(), "config.yaml")
	data := "cache_dir: ${TOKENWISE_TEST_DIR}/cache\n"
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.CacheDir != "/data/tokenwise/cache" {
		t.Errorf("cache dir = %q", cfg.CacheDir)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}
