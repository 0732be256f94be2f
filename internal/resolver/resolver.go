// Package resolver implements the video metadata resolution engine: cache
// lookup, gap detection, partial-field fetch dispatch to provider
// adapters, right-biased merge, cache write-back, and quota-aware
// degradation.
//
// The engine is split across files by responsibility:
//
//	video.go    — the canonical Video record and merge semantics
//	adapter.go  — the provider capability contract
//	registry.go — priority-ordered adapter routing
//	resolver.go — the per-item resolution algorithm
//	query.go    — the top-level URL / search entry point
//	retry.go    — HTTP retry with backoff for adapter calls
//	metrics.go  — operational counters
package resolver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// Store is the persistent cache collaborator, keyed by (service, id). The
// engine only reads, declares schemas, and upserts — it never deletes
// records and never manages connections or migrations.
type Store interface {
	// Get returns the cached record and whether one exists. Absence is
	// not an error.
	Get(ctx context.Context, service, id string) (Video, bool, error)

	// Fields returns the metadata fields the given provider's schema
	// declares. A record is complete for the provider when every
	// declared field is populated.
	Fields(service string) []string

	// UpsertOne creates or updates the record keyed by (Service, ID).
	UpsertOne(ctx context.Context, v Video) error

	// UpsertMany upserts a batch of records.
	UpsertMany(ctx context.Context, vs []Video) error
}

// Resolver orchestrates cache lookup, adapter fetches and write-back for
// single video records. Both collaborators are injected; Resolver holds no
// other state and is safe for concurrent use. Concurrent resolutions of
// the same key may race on the write-back; last-write-wins is acceptable
// because resolution is idempotent given stable provider responses.
type Resolver struct {
	store    Store
	registry *Registry
}

// New builds a Resolver over the given store and adapter registry.
func New(store Store, registry *Registry) *Resolver {
	return &Resolver{store: store, registry: registry}
}

// Resolve returns the metadata record for (service, id), fetching only the
// fields the cache is missing.
//
// Failure policy: a transient provider outage must never destroy
// previously known-good partial data, and no result is ever fabricated
// when no data exists at all. Concretely, on ErrQuotaExceeded the stale
// cached record is returned as a degraded result if it has at least one
// populated schema field; with nothing cached the quota error propagates.
// Every other adapter error propagates unmasked.
func (r *Resolver) Resolve(ctx context.Context, service, id string) (Video, error) {
	adapter, err := r.registry.ByServiceID(service)
	if err != nil {
		return Video{}, err
	}

	cached, found, err := r.store.Get(ctx, service, id)
	if err != nil {
		return Video{}, fmt.Errorf("cache read %s/%s: %w", service, id, err)
	}
	if !found {
		cached = Video{Service: service, ID: id}
	}

	// A cached-but-unplayable record must never be silently returned,
	// however complete it is.
	if cached.Has(FieldMime) && !MimeSupported(cached.Mime) {
		metrics.MimeRejections.Add(1)
		return Video{}, fmt.Errorf("%s/%s mime %q: %w", service, id, cached.Mime, ErrUnsupportedMime)
	}

	schema := r.store.Fields(service)
	missing := cached.Missing(schema)
	if len(missing) == 0 {
		// Fast path: complete record, zero adapter calls.
		metrics.CacheHits.Add(1)
		return cached, nil
	}
	metrics.CacheMisses.Add(1)

	metrics.AdapterFetches.Add(1)
	fetched, err := adapter.FetchVideoInfo(ctx, id, missing)
	if err != nil {
		if errors.Is(err, ErrQuotaExceeded) {
			if cached.HasAny(schema) {
				metrics.QuotaDegradations.Add(1)
				slog.Warn("quota exceeded, serving stale cached record",
					slog.String("service", service),
					slog.String("id", id),
					slog.Int("missing_fields", len(missing)))
				return cached, nil
			}
			metrics.QuotaFailures.Add(1)
			return Video{}, &ProviderError{Service: service, Op: "fetch_video_info", Err: err}
		}
		return Video{}, &ProviderError{Service: service, Op: "fetch_video_info", Err: err}
	}

	merged := cached.Merge(fetched)

	// Write-back: the upsert is issued before returning, but a storage
	// failure does not invalidate the merged record already in hand.
	if err := r.store.UpsertOne(ctx, merged); err != nil {
		slog.Error("cache write-back failed",
			slog.String("service", service),
			slog.String("id", id),
			slog.Any("error", err))
	}
	return merged, nil
}
