package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration so YAML values like "500ms" or "10s" parse.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", value.Value, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the wrapped value as a plain time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Config captures the settings required to boot the insights service.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Clients   ClientsConfig   `yaml:"clients"`
	Sentiment SentimentConfig `yaml:"sentiment"`
	Store     StoreConfig     `yaml:"store"`
	Taxonomy  TaxonomyConfig  `yaml:"taxonomy"`
	Pipeline  PipelineConfig  `yaml:"pipeline"`
	Severity  SeverityConfig  `yaml:"severity"`
	Logging   LoggingConfig   `yaml:"logging"`
	Cache     CacheConfig     `yaml:"cache"`
}

// ServerConfig controls HTTP listener behaviour.
type ServerConfig struct {
	Address         string   `yaml:"address"`
	MetricsAddress  string   `yaml:"metricsAddress"`
	GracefulTimeout Duration `yaml:"gracefulTimeout"`
}

// ClientsConfig groups integrations with upstream review sources.
type ClientsConfig struct {
	Ingest IngestClientConfig `yaml:"ingest"`
}

// IngestClientConfig configures access to the review platform export API.
type IngestClientConfig struct {
	BaseURL     string   `yaml:"baseURL"`
	ReviewsPath string   `yaml:"reviewsPath"`
	PageSize    int      `yaml:"pageSize"`
	Timeout     Duration `yaml:"timeout"`
}

// SentimentConfig controls the classifier cascade.
type SentimentConfig struct {
	// Strategies lists classifier names in fall-through order.
	Strategies []string `yaml:"strategies"`
	ModelURL   string   `yaml:"modelURL"`
	Timeout    Duration `yaml:"timeout"`
}

// StoreConfig controls persistence of runs and annotated reviews.
type StoreConfig struct {
	Path string `yaml:"path"`
}

// TaxonomyConfig controls theme taxonomy loading.
type TaxonomyConfig struct {
	Path string `yaml:"path"`
}

// PipelineConfig tunes the analysis pipeline.
type PipelineConfig struct {
	Workers            int  `yaml:"workers"`
	KeywordTopN        int  `yaml:"keywordTopN"`
	GroupKeywordTopN   int  `yaml:"groupKeywordTopN"`
	MinTokens          int  `yaml:"minTokens"`
	CaseSensitiveDedup bool `yaml:"caseSensitiveDedup"`
	Representatives    int  `yaml:"representatives"`
}

// SeverityConfig tunes theme severity grading thresholds.
type SeverityConfig struct {
	NegativeMedium float64 `yaml:"negativeMedium"`
	NegativeHigh   float64 `yaml:"negativeHigh"`
	FrequencyHigh  float64 `yaml:"frequencyHigh"`
}

// LoggingConfig controls structured logging.
type LoggingConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// CacheConfig controls Valkey-backed caching of ingest pages.
type CacheConfig struct {
	Enabled      bool     `yaml:"enabled"`
	Addr         string   `yaml:"addr"`
	Username     string   `yaml:"username"`
	Password     string   `yaml:"password"`
	DB           int      `yaml:"db"`
	DialTimeout  Duration `yaml:"dialTimeout"`
	ReadTimeout  Duration `yaml:"readTimeout"`
	WriteTimeout Duration `yaml:"writeTimeout"`
	MaxRetries   int      `yaml:"maxRetries"`
	TLS          bool     `yaml:"tls"`
	IngestTTL    Duration `yaml:"ingestTTL"`
}

// Load initialises Config from a YAML file and optional environment overrides.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv("REVIEW_INSIGHTS_CONFIG")
	}

	cfg := defaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("config file %s not found: %w", path, err)
			}
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnvOverrides(&cfg)
	return &cfg, nil
}

func defaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Address:         ":8080",
			MetricsAddress:  ":2112",
			GracefulTimeout: Duration(10 * time.Second),
		},
		Clients: ClientsConfig{
			Ingest: IngestClientConfig{
				ReviewsPath: "/api/v1/reviews/export",
				PageSize:    500,
				Timeout:     Duration(5 * time.Second),
			},
		},
		Sentiment: SentimentConfig{
			Strategies: []string{"remote", "lexicon"},
			Timeout:    Duration(3 * time.Second),
		},
		Store:    StoreConfig{Path: "data/insights.db"},
		Taxonomy: TaxonomyConfig{},
		Pipeline: PipelineConfig{
			Workers:          4,
			KeywordTopN:      10,
			GroupKeywordTopN: 30,
			MinTokens:        2,
			Representatives:  5,
		},
		Severity: SeverityConfig{
			NegativeMedium: 0.40,
			NegativeHigh:   0.70,
			FrequencyHigh:  30.0,
		},
		Logging: LoggingConfig{Level: "info", JSON: false},
		Cache: CacheConfig{
			Enabled:      false,
			IngestTTL:    Duration(5 * time.Minute),
			DialTimeout:  Duration(2 * time.Second),
			ReadTimeout:  Duration(500 * time.Millisecond),
			WriteTimeout: Duration(500 * time.Millisecond),
			MaxRetries:   2,
		},
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("REVIEW_INSIGHTS_SERVER_ADDRESS"); v != "" {
		cfg.Server.Address = v
	}
	if v := os.Getenv("REVIEW_INSIGHTS_METRICS_ADDRESS"); v != "" {
		cfg.Server.MetricsAddress = v
	}
	if v := os.Getenv("REVIEW_INSIGHTS_INGEST_BASE_URL"); v != "" {
		cfg.Clients.Ingest.BaseURL = v
	}
	if v := os.Getenv("REVIEW_INSIGHTS_INGEST_REVIEWS_PATH"); v != "" {
		cfg.Clients.Ingest.ReviewsPath = v
	}
	if v := os.Getenv("REVIEW_INSIGHTS_INGEST_PAGE_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Clients.Ingest.PageSize = n
		}
	}
	if v := os.Getenv("REVIEW_INSIGHTS_SENTIMENT_STRATEGIES"); v != "" {
		parts := strings.Split(v, ",")
		names := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				names = append(names, p)
			}
		}
		if len(names) > 0 {
			cfg.Sentiment.Strategies = names
		}
	}
	if v := os.Getenv("REVIEW_INSIGHTS_SENTIMENT_MODEL_URL"); v != "" {
		cfg.Sentiment.ModelURL = v
	}
	if v := os.Getenv("REVIEW_INSIGHTS_STORE_PATH"); v != "" {
		cfg.Store.Path = v
	}
	if v := os.Getenv("REVIEW_INSIGHTS_TAXONOMY_PATH"); v != "" {
		cfg.Taxonomy.Path = v
	}
	if v := os.Getenv("REVIEW_INSIGHTS_PIPELINE_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Pipeline.Workers = n
		}
	}
	if v := os.Getenv("REVIEW_INSIGHTS_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("REVIEW_INSIGHTS_LOG_FORMAT"); v == "json" {
		cfg.Logging.JSON = true
	}
	if v := os.Getenv("REVIEW_INSIGHTS_CACHE_ADDR"); v != "" {
		cfg.Cache.Addr = v
	}
	if v := os.Getenv("REVIEW_INSIGHTS_CACHE_ENABLED"); v != "" {
		cfg.Cache.Enabled = strings.EqualFold(v, "true") || strings.EqualFold(v, "1")
	}
	if v := os.Getenv("REVIEW_INSIGHTS_CACHE_USERNAME"); v != "" {
		cfg.Cache.Username = v
	}
	if v := os.Getenv("REVIEW_INSIGHTS_CACHE_PASSWORD"); v != "" {
		cfg.Cache.Password = v
	}
	if v := os.Getenv("REVIEW_INSIGHTS_CACHE_DB"); v != "" {
		if db, err := strconv.Atoi(v); err == nil {
			cfg.Cache.DB = db
		}
	}
	if v := os.Getenv("REVIEW_INSIGHTS_CACHE_TLS"); strings.EqualFold(v, "true") || strings.EqualFold(v, "1") {
		cfg.Cache.TLS = true
	}
	if v := os.Getenv("REVIEW_INSIGHTS_CACHE_INGEST_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Cache.IngestTTL = Duration(d)
		}
	}
}
