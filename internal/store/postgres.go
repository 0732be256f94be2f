package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/videograph/videograph/internal/resolver"
)

// Postgres stores records in a shared database via a pgx pool.
type Postgres struct {
	schema Schema
	pool   *pgxpool.Pool
}

// ConnectPostgres creates the pool, pings it and bootstraps the videos
// table.
func ConnectPostgres(ctx context.Context, databaseURL string, schema Schema) (*Postgres, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}
	cfg.MaxConns = 10
	cfg.MinConns = 1

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pgx pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	if _, err := pool.Exec(ctx, `CREATE TABLE IF NOT EXISTS videos (
		service     TEXT NOT NULL,
		video_id    TEXT NOT NULL,
		title       TEXT NOT NULL DEFAULT '',
		duration    INTEGER NOT NULL DEFAULT 0,
		thumbnail   TEXT NOT NULL DEFAULT '',
		mime        TEXT NOT NULL DEFAULT '',
		channel     TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT '',
		PRIMARY KEY (service, video_id)
	)`); err != nil {
		pool.Close()
		return nil, fmt.Errorf("init postgres schema: %w", err)
	}

	slog.Info("video cache postgres connected", slog.String("host", cfg.ConnConfig.Host))
	return &Postgres{schema: schema, pool: pool}, nil
}

func (p *Postgres) Close() { p.pool.Close() }

func (p *Postgres) Get(ctx context.Context, service, id string) (resolver.Video, bool, error) {
	v := resolver.Video{Service: service, ID: id}
	err := p.pool.QueryRow(ctx,
		`SELECT title, duration, thumbnail, mime, channel, description
		 FROM videos WHERE service = $1 AND video_id = $2`,
		service, id,
	).Scan(&v.Title, &v.Duration, &v.Thumbnail, &v.Mime, &v.Channel, &v.Description)
	if errors.Is(err, pgx.ErrNoRows) {
		return resolver.Video{}, false, nil
	}
	if err != nil {
		return resolver.Video{}, false, fmt.Errorf("postgres get %s/%s: %w", service, id, err)
	}
	return v, true, nil
}

func (p *Postgres) Fields(service string) []string {
	return p.schema.Fields(service)
}

const pgUpsert = `
	INSERT INTO videos (service, video_id, title, duration, thumbnail, mime, channel, description)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	ON CONFLICT (service, video_id) DO UPDATE SET
		title       = excluded.title,
		duration    = excluded.duration,
		thumbnail   = excluded.thumbnail,
		mime        = excluded.mime,
		channel     = excluded.channel,
		description = excluded.description`

func (p *Postgres) UpsertOne(ctx context.Context, v resolver.Video) error {
	_, err := p.pool.Exec(ctx, pgUpsert,
		v.Service, v.ID, v.Title, v.Duration, v.Thumbnail, v.Mime, v.Channel, v.Description)
	if err != nil {
		return fmt.Errorf("postgres upsert %s/%s: %w", v.Service, v.ID, err)
	}
	return nil
}

func (p *Postgres) UpsertMany(ctx context.Context, vs []resolver.Video) error {
	if len(vs) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, v := range vs {
		batch.Queue(pgUpsert,
			v.Service, v.ID, v.Title, v.Duration, v.Thumbnail, v.Mime, v.Channel, v.Description)
	}
	if err := p.pool.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("postgres upsert batch: %w", err)
	}
	return nil
}
