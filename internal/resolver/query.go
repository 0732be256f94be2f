package resolver

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
)

// ResolveQuery is the top-level entry point. A query that parses as a URL
// with a non-empty host is routed to the matching adapter: single-item
// URLs go through the per-item Resolve path, collection URLs through the
// adapter's ResolveURL (collection fetches are assumed complete, so the
// cache-gap logic is bypassed). Anything else is treated as free text and
// dispatched to SearchVideos on the searchService adapter.
//
// Every record obtained — single or batch — is upserted into the store
// before being returned, keeping the cache warm for subsequent single-item
// lookups on the same ids.
func (r *Resolver) ResolveQuery(ctx context.Context, query, searchService string) ([]Video, error) {
	if u, err := url.Parse(query); err == nil && u.Host != "" {
		return r.resolveLink(ctx, query)
	}
	return r.search(ctx, query, searchService)
}

func (r *Resolver) resolveLink(ctx context.Context, rawURL string) ([]Video, error) {
	adapter, err := r.registry.ByURL(rawURL)
	if err != nil {
		return nil, err
	}

	if !adapter.IsCollectionURL(rawURL) {
		id, err := adapter.VideoIDFromURL(rawURL)
		if err != nil {
			return nil, fmt.Errorf("extract video id from %q: %w", rawURL, err)
		}
		v, err := r.Resolve(ctx, adapter.ServiceID(), id)
		if err != nil {
			return nil, err
		}
		return []Video{v}, nil
	}

	metrics.CollectionFetches.Add(1)
	videos, err := adapter.ResolveURL(ctx, rawURL)
	if err != nil {
		return nil, &ProviderError{Service: adapter.ServiceID(), Op: "resolve_url", Err: err}
	}
	r.warmCache(ctx, adapter.ServiceID(), videos)
	return videos, nil
}

func (r *Resolver) search(ctx context.Context, query, searchService string) ([]Video, error) {
	adapter, err := r.registry.ByServiceID(searchService)
	if err != nil {
		return nil, err
	}

	metrics.SearchRequests.Add(1)
	videos, err := adapter.SearchVideos(ctx, query)
	if err != nil {
		return nil, &ProviderError{Service: searchService, Op: "search_videos", Err: err}
	}
	r.warmCache(ctx, searchService, videos)
	return videos, nil
}

// warmCache upserts a batch of records; storage failures are logged, not
// propagated, since the records themselves are already in hand.
func (r *Resolver) warmCache(ctx context.Context, service string, videos []Video) {
	if len(videos) == 0 {
		return
	}
	if err := r.store.UpsertMany(ctx, videos); err != nil {
		slog.Error("cache warm failed",
			slog.String("service", service),
			slog.Int("count", len(videos)),
			slog.Any("error", err))
	}
}
