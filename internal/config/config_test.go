package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Server.Address != ":8080" {
		t.Fatalf("unexpected server address %q", cfg.Server.Address)
	}
	if cfg.Pipeline.Workers != 4 {
		t.Fatalf("unexpected worker count %d", cfg.Pipeline.Workers)
	}
	if got := cfg.Sentiment.Strategies; len(got) != 2 || got[0] != "remote" || got[1] != "lexicon" {
		t.Fatalf("unexpected strategies %v", got)
	}
	if cfg.Severity.NegativeHigh != 0.70 {
		t.Fatalf("unexpected severity threshold %v", cfg.Severity.NegativeHigh)
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	body := `
server:
  address: ":9090"
pipeline:
  workers: 8
  keywordTopN: 5
sentiment:
  strategies: ["lexicon"]
  timeout: 1s
`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Server.Address != ":9090" {
		t.Fatalf("unexpected server address %q", cfg.Server.Address)
	}
	if cfg.Pipeline.Workers != 8 || cfg.Pipeline.KeywordTopN != 5 {
		t.Fatalf("pipeline overrides not applied: %+v", cfg.Pipeline)
	}
	if len(cfg.Sentiment.Strategies) != 1 || cfg.Sentiment.Strategies[0] != "lexicon" {
		t.Fatalf("unexpected strategies %v", cfg.Sentiment.Strategies)
	}
	if cfg.Sentiment.Timeout.Std() != time.Second {
		t.Fatalf("unexpected sentiment timeout %v", cfg.Sentiment.Timeout)
	}
	// Untouched sections keep defaults.
	if cfg.Server.MetricsAddress != ":2112" {
		t.Fatalf("metrics address default lost: %q", cfg.Server.MetricsAddress)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("REVIEW_INSIGHTS_SERVER_ADDRESS", ":7070")
	t.Setenv("REVIEW_INSIGHTS_SENTIMENT_STRATEGIES", "lexicon, remote")
	t.Setenv("REVIEW_INSIGHTS_PIPELINE_WORKERS", "12")
	t.Setenv("REVIEW_INSIGHTS_CACHE_ENABLED", "true")
	t.Setenv("REVIEW_INSIGHTS_CACHE_INGEST_TTL", "90s")
	t.Setenv("REVIEW_INSIGHTS_LOG_FORMAT", "json")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Server.Address != ":7070" {
		t.Fatalf("env override not applied: %q", cfg.Server.Address)
	}
	if got := cfg.Sentiment.Strategies; len(got) != 2 || got[0] != "lexicon" || got[1] != "remote" {
		t.Fatalf("unexpected strategies %v", got)
	}
	if cfg.Pipeline.Workers != 12 {
		t.Fatalf("unexpected worker count %d", cfg.Pipeline.Workers)
	}
	if !cfg.Cache.Enabled || cfg.Cache.IngestTTL.Std() != 90*time.Second {
		t.Fatalf("cache overrides not applied: %+v", cfg.Cache)
	}
	if !cfg.Logging.JSON {
		t.Fatal("log format override not applied")
	}
}
