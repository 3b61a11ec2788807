package db

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nrivara/spotify-bpm-catalog/internal/catalog"
)

// upsertBatchSize bounds how many rows go into one upsert statement.
const upsertBatchSize = 50

// TrackRepository handles track persistence. Writes are idempotent:
// spotify_id is the conflict key and re-ingestion overwrites all mutable
// fields and refreshes fetched_at.
type TrackRepository struct {
	pool *pgxpool.Pool
}

const trackColumns = `id, spotify_id, name, artists, artist_main, album,
	release_date::text, duration_ms, bpm, genres, preview_url, cover_url, fetched_at`

// UpsertBatch writes tracks to the store. The input is first collapsed to
// one record per spotify_id (last write wins), then written in batches of
// 50. Any batch failure aborts the call and propagates the store's error;
// batches already written stay written.
//
// An existing-ID pre-check is only used to log a nothing-new short
// circuit; the ON CONFLICT clause is what actually guarantees idempotence,
// so a pre-check failure is not fatal.
func (r *TrackRepository) UpsertBatch(ctx context.Context, tracks []catalog.Track) error {
	unique := collapseBySpotifyID(tracks)
	if len(unique) == 0 {
		return nil
	}

	if existing, err := r.ExistingSpotifyIDs(ctx); err == nil {
		known := 0
		for _, t := range unique {
			if existing[t.SpotifyID] {
				known++
			}
		}
		if known == len(unique) {
			log.Printf("all %d tracks already stored, refreshing them anyway", known)
		} else {
			log.Printf("upserting %d tracks (%d new, %d refreshed)", len(unique), len(unique)-known, known)
		}
	} else {
		log.Printf("existing-ID pre-check failed (%v), continuing with upsert", err)
	}

	for _, batch := range chunkTracks(unique, upsertBatchSize) {
		if err := r.upsertChunk(ctx, batch); err != nil {
			return err
		}
	}
	return nil
}

// upsertChunk sends one pgx batch (a single round trip) for up to
// upsertBatchSize rows.
func (r *TrackRepository) upsertChunk(ctx context.Context, tracks []catalog.Track) error {
	query := `
		INSERT INTO artist_tracks
			(spotify_id, name, artists, artist_main, album, release_date,
			 duration_ms, bpm, genres, preview_url, cover_url, fetched_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (spotify_id) DO UPDATE SET
			name = EXCLUDED.name,
			artists = EXCLUDED.artists,
			artist_main = EXCLUDED.artist_main,
			album = EXCLUDED.album,
			release_date = EXCLUDED.release_date,
			duration_ms = EXCLUDED.duration_ms,
			bpm = EXCLUDED.bpm,
			genres = EXCLUDED.genres,
			preview_url = EXCLUDED.preview_url,
			cover_url = EXCLUDED.cover_url,
			fetched_at = EXCLUDED.fetched_at
	`

	now := time.Now()
	batch := &pgx.Batch{}
	for _, t := range tracks {
		batch.Queue(query,
			t.SpotifyID, t.Name, t.Artists, t.ArtistMain, t.Album, t.ReleaseDate,
			t.DurationMs, t.BPM, t.Genres, t.PreviewURL, t.CoverURL, now)
	}

	results := r.pool.SendBatch(ctx, batch)
	defer results.Close()

	for range tracks {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("batch upserting tracks: %w", err)
		}
	}
	return results.Close()
}

// List retrieves all tracks ordered by fetch time, newest first.
func (r *TrackRepository) List(ctx context.Context) ([]catalog.Track, error) {
	query := `SELECT ` + trackColumns + ` FROM artist_tracks ORDER BY fetched_at DESC, id`
	return r.queryTracks(ctx, query)
}

// ListByArtist retrieves tracks filed under the given primary artist.
func (r *TrackRepository) ListByArtist(ctx context.Context, artistName string) ([]catalog.Track, error) {
	query := `SELECT ` + trackColumns + ` FROM artist_tracks
		WHERE artist_main = $1 ORDER BY fetched_at DESC, id`
	return r.queryTracks(ctx, query, artistName)
}

// GetBySpotifyID retrieves a track by its Spotify ID.
func (r *TrackRepository) GetBySpotifyID(ctx context.Context, spotifyID string) (*catalog.Track, error) {
	query := `SELECT ` + trackColumns + ` FROM artist_tracks WHERE spotify_id = $1`
	return r.queryTrack(ctx, query, spotifyID)
}

// GetByRowID retrieves a track by its internal row ID.
func (r *TrackRepository) GetByRowID(ctx context.Context, id int64) (*catalog.Track, error) {
	query := `SELECT ` + trackColumns + ` FROM artist_tracks WHERE id = $1`
	return r.queryTrack(ctx, query, id)
}

// ExistingSpotifyIDs returns the set of Spotify IDs already stored.
func (r *TrackRepository) ExistingSpotifyIDs(ctx context.Context) (map[string]bool, error) {
	rows, err := r.pool.Query(ctx, `SELECT spotify_id FROM artist_tracks`)
	if err != nil {
		return nil, fmt.Errorf("querying existing spotify IDs: %w", err)
	}
	defer rows.Close()

	ids := make(map[string]bool)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning spotify ID: %w", err)
		}
		ids[id] = true
	}
	return ids, rows.Err()
}

// DeleteByArtists removes all tracks filed under the given primary
// artists. Used only by the manual label-purge maintenance path; nothing
// deletes tracks automatically.
func (r *TrackRepository) DeleteByArtists(ctx context.Context, artistNames []string) (int64, error) {
	if len(artistNames) == 0 {
		return 0, nil
	}
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM artist_tracks WHERE artist_main = ANY($1)`, artistNames)
	if err != nil {
		return 0, fmt.Errorf("deleting tracks by artist: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *TrackRepository) queryTrack(ctx context.Context, query string, args ...any) (*catalog.Track, error) {
	row := r.pool.QueryRow(ctx, query, args...)
	track, err := scanTrack(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying track: %w", err)
	}
	return track, nil
}

func (r *TrackRepository) queryTracks(ctx context.Context, query string, args ...any) ([]catalog.Track, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying tracks: %w", err)
	}
	defer rows.Close()

	tracks := []catalog.Track{}
	for rows.Next() {
		track, err := scanTrack(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning track: %w", err)
		}
		tracks = append(tracks, *track)
	}
	return tracks, rows.Err()
}

func scanTrack(row pgx.Row) (*catalog.Track, error) {
	var t catalog.Track
	err := row.Scan(
		&t.ID,
		&t.SpotifyID,
		&t.Name,
		&t.Artists,
		&t.ArtistMain,
		&t.Album,
		&t.ReleaseDate,
		&t.DurationMs,
		&t.BPM,
		&t.Genres,
		&t.PreviewURL,
		&t.CoverURL,
		&t.FetchedAt,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// collapseBySpotifyID reduces the input to one record per Spotify ID.
// Later list positions win, preserving first-seen order of the keys.
func collapseBySpotifyID(tracks []catalog.Track) []catalog.Track {
	index := make(map[string]int, len(tracks))
	unique := make([]catalog.Track, 0, len(tracks))
	for _, t := range tracks {
		if pos, ok := index[t.SpotifyID]; ok {
			unique[pos] = t
			continue
		}
		index[t.SpotifyID] = len(unique)
		unique = append(unique, t)
	}
	return unique
}

// chunkTracks splits tracks into slices of at most size.
func chunkTracks(tracks []catalog.Track, size int) [][]catalog.Track {
	var chunks [][]catalog.Track
	for start := 0; start < len(tracks); start += size {
		end := min(start+size, len(tracks))
		chunks = append(chunks, tracks[start:end])
	}
	return chunks
}
