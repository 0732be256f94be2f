// videograph — video metadata resolution CLI.
//
// Resolves a URL or free-text query into normalized video records via the
// cache-fronted resolution engine in internal/resolver. This binary is
// pure wiring: config, logging, store backend, adapters. The engine itself
// is a library and can be embedded behind any request-handling layer.
//
// Usage:
//
//	videograph [-config config.yaml] [-search youtube] <url or query>
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/videograph/videograph/internal/config"
	"github.com/videograph/videograph/internal/resolver"
	"github.com/videograph/videograph/internal/resolver/sources"
	"github.com/videograph/videograph/internal/store"
)

// defaultSchema declares, per provider, which metadata fields a complete
// record carries. The resolver fetches only the fields a cached record is
// missing against this schema.
var defaultSchema = store.Schema{
	"youtube": {
		resolver.FieldTitle, resolver.FieldDuration, resolver.FieldThumbnail,
		resolver.FieldMime, resolver.FieldChannel,
	},
	"vimeo": {
		resolver.FieldTitle, resolver.FieldDuration, resolver.FieldThumbnail,
		resolver.FieldMime, resolver.FieldChannel,
	},
}

func main() {
	configPath := flag.String("config", "", "path to config.yaml")
	searchService := flag.String("search", "", "service for free-text queries (overrides config)")
	flag.Parse()

	if flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "usage: videograph [-config config.yaml] [-search youtube] <url or query>")
		os.Exit(2)
	}
	query := strings.Join(flag.Args(), " ")

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("config load failed", slog.Any("error", err))
		os.Exit(1)
	}
	initLogging(cfg.Log.Level)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	st, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		slog.Error("store init failed", slog.Any("error", err))
		os.Exit(1)
	}
	defer closeStore()

	httpClient := &http.Client{
		Timeout: cfg.FetchTimeout,
		Transport: &http.Transport{
			MaxIdleConns:        20,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     60 * time.Second,
		},
	}

	registry := resolver.NewRegistry(
		sources.NewYouTube(sources.YouTubeConfig{
			APIKey:         cfg.YouTube.APIKey,
			APIKeyFallback: cfg.YouTube.APIKeyFallback,
			HTTPClient:     httpClient,
			Limiter:        limiterFor(cfg.YouTube.RatePerSecond),
		}),
		sources.NewVimeo(sources.VimeoConfig{
			Token:      cfg.Vimeo.Token,
			HTTPClient: httpClient,
			Limiter:    limiterFor(cfg.Vimeo.RatePerSecond),
		}),
	)

	search := cfg.SearchService
	if *searchService != "" {
		search = *searchService
	}

	r := resolver.New(st, registry)
	videos, err := r.ResolveQuery(ctx, query, search)
	if err != nil {
		slog.Error("resolution failed", slog.String("query", query), slog.Any("error", err))
		os.Exit(1)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(videos); err != nil {
		slog.Error("encode output", slog.Any("error", err))
		os.Exit(1)
	}
	slog.Debug("metrics\n" + resolver.FormatMetrics())
}

func initLogging(level string) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})))
}

func limiterFor(perSecond float64) *rate.Limiter {
	if perSecond <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Limit(perSecond), 1)
}

// openStore builds the configured cache backend.
func openStore(ctx context.Context, cfg *config.Config) (resolver.Store, func(), error) {
	switch cfg.Store.Backend {
	case "", "memory":
		return store.NewMemory(defaultSchema), func() {}, nil
	case "sqlite":
		s, err := store.OpenSQLite(cfg.Store.SQLitePath, defaultSchema)
		if err != nil {
			return nil, nil, err
		}
		return s, func() { s.Close() }, nil
	case "postgres":
		s, err := store.ConnectPostgres(ctx, cfg.Store.PostgresURL, defaultSchema)
		if err != nil {
			return nil, nil, err
		}
		return s, func() { s.Close() }, nil
	case "redis":
		s, err := store.ConnectRedis(ctx, cfg.Store.RedisURL, cfg.Store.RedisTTL, defaultSchema)
		if err != nil {
			return nil, nil, err
		}
		return s, func() { s.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}
