package resolver

import (
	"fmt"
	"sort"
	"strings"
	"sync/atomic"
)

// Metrics tracks operational counters across the resolution engine.
var metrics struct {
	CacheHits         atomic.Int64
	CacheMisses       atomic.Int64
	AdapterFetches    atomic.Int64
	QuotaDegradations atomic.Int64
	QuotaFailures     atomic.Int64
	SearchRequests    atomic.Int64
	CollectionFetches atomic.Int64
	MimeRejections    atomic.Int64
}

// GetMetrics returns a snapshot of all counters.
func GetMetrics() map[string]int64 {
	return map[string]int64{
		"cache_hits":         metrics.CacheHits.Load(),
		"cache_misses":       metrics.CacheMisses.Load(),
		"adapter_fetches":    metrics.AdapterFetches.Load(),
		"quota_degradations": metrics.QuotaDegradations.Load(),
		"quota_failures":     metrics.QuotaFailures.Load(),
		"search_requests":    metrics.SearchRequests.Load(),
		"collection_fetches": metrics.CollectionFetches.Load(),
		"mime_rejections":    metrics.MimeRejections.Load(),
	}
}

// FormatMetrics renders the counters as sorted "name value" lines.
func FormatMetrics() string {
	snap := GetMetrics()
	names := make([]string, 0, len(snap))
	for name := range snap {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	for _, name := range names {
		fmt.Fprintf(&b, "%s %d\n", name, snap[name])
	}
	return b.String()
}
