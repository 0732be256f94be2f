package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/videograph/videograph/internal/resolver"
)

// Redis stores each record as a JSON blob under video:{service}:{id}.
// TTL zero keeps records forever; a positive TTL turns the store into an
// expiring cache, which still satisfies the engine (absence is tolerated).
type Redis struct {
	schema Schema
	rdb    *redis.Client
	ttl    time.Duration
}

// ConnectRedis parses the URL, pings the server and returns the store.
func ConnectRedis(ctx context.Context, redisURL string, ttl time.Duration, schema Schema) (*Redis, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	slog.Info("video cache redis connected", slog.String("addr", opts.Addr))
	return &Redis{schema: schema, rdb: rdb, ttl: ttl}, nil
}

func (r *Redis) Close() error { return r.rdb.Close() }

func redisKey(service, id string) string {
	return "video:" + service + ":" + id
}

func (r *Redis) Get(ctx context.Context, service, id string) (resolver.Video, bool, error) {
	data, err := r.rdb.Get(ctx, redisKey(service, id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return resolver.Video{}, false, nil
	}
	if err != nil {
		return resolver.Video{}, false, fmt.Errorf("redis get %s/%s: %w", service, id, err)
	}
	var v resolver.Video
	if err := json.Unmarshal(data, &v); err != nil {
		// Corrupt entry: treat as absent, the resolver will refetch.
		slog.Warn("redis: corrupt video record", slog.String("service", service), slog.String("id", id))
		return resolver.Video{}, false, nil
	}
	return v, true, nil
}

func (r *Redis) Fields(service string) []string {
	return r.schema.Fields(service)
}

func (r *Redis) UpsertOne(ctx context.Context, v resolver.Video) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s/%s: %w", v.Service, v.ID, err)
	}
	if err := r.rdb.Set(ctx, redisKey(v.Service, v.ID), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s/%s: %w", v.Service, v.ID, err)
	}
	return nil
}

func (r *Redis) UpsertMany(ctx context.Context, vs []resolver.Video) error {
	if len(vs) == 0 {
		return nil
	}
	pipe := r.rdb.Pipeline()
	for _, v := range vs {
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("encode %s/%s: %w", v.Service, v.ID, err)
		}
		pipe.Set(ctx, redisKey(v.Service, v.ID), data, r.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis upsert batch: %w", err)
	}
	return nil
}
