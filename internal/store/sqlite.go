package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/videograph/videograph/internal/resolver"
)

// SQLite stores records in an embedded database file.
type SQLite struct {
	schema Schema
	db     *sql.DB
}

// OpenSQLite opens (or creates) the database at path and bootstraps the
// videos table. Pass ":memory:" for an ephemeral store.
func OpenSQLite(path string, schema Schema) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	db.SetMaxOpenConns(1) // SQLite: single writer

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS videos (
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
		db.Close()
		return nil, fmt.Errorf("init sqlite schema: %w", err)
	}
	return &SQLite{schema: schema, db: db}, nil
}

func (s *SQLite) Close() error { return s.db.Close() }

func (s *SQLite) Get(ctx context.Context, service, id string) (resolver.Video, bool, error) {
	v := resolver.Video{Service: service, ID: id}
	err := s.db.QueryRowContext(ctx,
		`SELECT title, duration, thumbnail, mime, channel, description
		 FROM videos WHERE service = ? AND video_id = ?`,
		service, id,
	).Scan(&v.Title, &v.Duration, &v.Thumbnail, &v.Mime, &v.Channel, &v.Description)
	if errors.Is(err, sql.ErrNoRows) {
		return resolver.Video{}, false, nil
	}
	if err != nil {
		return resolver.Video{}, false, fmt.Errorf("sqlite get %s/%s: %w", service, id, err)
	}
	return v, true, nil
}

func (s *SQLite) Fields(service string) []string {
	return s.schema.Fields(service)
}

const sqliteUpsert = `
	INSERT INTO videos (service, video_id, title, duration, thumbnail, mime, channel, description)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT (service, video_id) DO UPDATE SET
		title       = excluded.title,
		duration    = excluded.duration,
		thumbnail   = excluded.thumbnail,
		mime        = excluded.mime,
		channel     = excluded.channel,
		description = excluded.description`

func (s *SQLite) UpsertOne(ctx context.Context, v resolver.Video) error {
	_, err := s.db.ExecContext(ctx, sqliteUpsert,
		v.Service, v.ID, v.Title, v.Duration, v.Thumbnail, v.Mime, v.Channel, v.Description)
	if err != nil {
		return fmt.Errorf("sqlite upsert %s/%s: %w", v.Service, v.ID, err)
	}
	return nil
}

func (s *SQLite) UpsertMany(ctx context.Context, vs []resolver.Video) error {
	if len(vs) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite upsert batch: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, sqliteUpsert)
	if err != nil {
		return fmt.Errorf("sqlite upsert batch: %w", err)
	}
	defer stmt.Close()

	for _, v := range vs {
		if _, err := stmt.ExecContext(ctx,
			v.Service, v.ID, v.Title, v.Duration, v.Thumbnail, v.Mime, v.Channel, v.Description); err != nil {
			return fmt.Errorf("sqlite upsert %s/%s: %w", v.Service, v.ID, err)
		}
	}
	return tx.Commit()
}
