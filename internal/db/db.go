// Package db provides PostgreSQL persistence for the BPM catalog.
package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Common errors.
var (
	ErrNotFound = errors.New("not found")
)

// schema is the single catalog table. Tracks are unique by spotify_id;
// conflicting upserts overwrite every mutable field and refresh fetched_at.
const schema = `
CREATE TABLE IF NOT EXISTS artist_tracks (
	id           BIGSERIAL PRIMARY KEY,
	spotify_id   TEXT NOT NULL UNIQUE,
	name         TEXT NOT NULL,
	artists      TEXT[] NOT NULL DEFAULT '{}',
	artist_main  TEXT NOT NULL,
	album        TEXT NOT NULL DEFAULT '',
	release_date DATE,
	duration_ms  INTEGER NOT NULL DEFAULT 0,
	bpm          DOUBLE PRECISION,
	genres       TEXT[] NOT NULL DEFAULT '{}',
	preview_url  TEXT,
	cover_url    TEXT,
	fetched_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS artist_tracks_artist_main_idx ON artist_tracks (artist_main);
`

// DB wraps a PostgreSQL connection pool.
type DB struct {
	pool *pgxpool.Pool
}

// New creates a new database connection pool and verifies connectivity.
func New(ctx context.Context, databaseURL string) (*DB, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing database URL: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return &DB{pool: pool}, nil
}

// EnsureSchema creates the catalog table if it does not exist.
func (db *DB) EnsureSchema(ctx context.Context) error {
	if _, err := db.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}

// Close closes the database connection pool.
func (db *DB) Close() {
	db.pool.Close()
}

// Tracks returns a TrackRepository.
func (db *DB) Tracks() *TrackRepository {
	return &TrackRepository{pool: db.pool}
}
