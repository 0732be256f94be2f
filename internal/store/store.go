// Package store provides the persistent cache backends for video records,
// keyed by (service, id). Every backend satisfies resolver.Store:
//
//	memory.go   — in-process map, used by tests and as the default
//	sqlite.go   — embedded SQLite file (modernc.org/sqlite)
//	postgres.go — pgx connection pool
//	redis.go    — go-redis, one JSON blob per key with optional TTL
//
// Backends never delete records; the engine only reads and upserts.
package store

// Schema declares, per service id, which metadata fields that provider
// guarantees. The resolver computes cache gaps against it.
type Schema map[string][]string

// Fields returns the declared field list for a service; unknown services
// have an empty schema, which makes every cached record complete.
func (s Schema) Fields(service string) []string {
	return s[service]
}

func cacheKey(service, id string) string {
	return service + "/" + id
}
