// Package config loads the wiring configuration from a YAML file, with
// environment variables overriding the secrets so keys never need to live
// on disk.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the full config.yaml structure.
type Config struct {
	Log struct {
		Level string `yaml:"level"` // debug, info, warn, error
	} `yaml:"log"`

	Store struct {
		Backend     string        `yaml:"backend"` // memory, sqlite, postgres, redis
		SQLitePath  string        `yaml:"sqlite_path"`
		PostgresURL string        `yaml:"postgres_url"`
		RedisURL    string        `yaml:"redis_url"`
		RedisTTL    time.Duration `yaml:"redis_ttl"` // 0 = keep forever
	} `yaml:"store"`

	YouTube struct {
		APIKey         string  `yaml:"api_key"`
		APIKeyFallback string  `yaml:"api_key_fallback"`
		RatePerSecond  float64 `yaml:"rate_per_second"`
	} `yaml:"youtube"`

	Vimeo struct {
		Token         string  `yaml:"token"`
		RatePerSecond float64 `yaml:"rate_per_second"`
	} `yaml:"vimeo"`

	// SearchService picks the adapter for free-text queries.
	SearchService string        `yaml:"search_service"`
	FetchTimeout  time.Duration `yaml:"fetch_timeout"`
}

// Load reads the YAML file at path (empty path = defaults only) and
// applies environment overrides.
func Load(path string) (*Config, error) {
	cfg := defaults()

	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	if path == "" {
		if _, err := os.Stat("config.yaml"); err == nil {
			path = "config.yaml"
		}
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	applyEnv(cfg)
	return cfg, nil
}

func defaults() *Config {
	cfg := &Config{}
	cfg.Log.Level = "info"
	cfg.Store.Backend = "memory"
	cfg.Store.SQLitePath = "videograph.db"
	cfg.SearchService = "youtube"
	cfg.FetchTimeout = 15 * time.Second
	return cfg
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("YOUTUBE_API_KEY"); v != "" {
		cfg.YouTube.APIKey = v
	}
	if v := os.Getenv("YOUTUBE_API_KEY_FALLBACK"); v != "" {
		cfg.YouTube.APIKeyFallback = v
	}
	if v := os.Getenv("VIMEO_TOKEN"); v != "" {
		cfg.Vimeo.Token = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Store.PostgresURL = v
	}
	if v := os.Getenv("REDIS_URL"); v != "" {
		cfg.Store.RedisURL = v
	}
}
