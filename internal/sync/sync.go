// Package sync orchestrates one crawl of the configured artist roster:
// resolve each name, fetch genres and top tracks, attach tempos, then hand
// the accumulated batch to the persistence gateway.
package sync

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/nrivara/spotify-bpm-catalog/internal/catalog"
	"github.com/nrivara/spotify-bpm-catalog/internal/spotify"
)

// PrimaryArtistPolicy decides when a track counts as "by" the requested
// artist rather than merely featuring them.
type PrimaryArtistPolicy int

const (
	// PolicyAnyCredit files a track under the requested artist when the
	// name appears anywhere in the credit list.
	PolicyAnyCredit PrimaryArtistPolicy = iota
	// PolicyLeadOnly requires the requested artist to be the first
	// credited artist.
	PolicyLeadOnly
)

// ParsePolicy maps the config strings "any" and "lead" to a policy.
func ParsePolicy(s string) (PrimaryArtistPolicy, error) {
	switch s {
	case "any", "":
		return PolicyAnyCredit, nil
	case "lead":
		return PolicyLeadOnly, nil
	}
	return 0, fmt.Errorf("unknown primary artist policy %q", s)
}

// CatalogClient is the remote-API surface the orchestrator needs.
type CatalogClient interface {
	SearchArtist(ctx context.Context, name string) (*spotify.Artist, error)
	GetArtist(ctx context.Context, artistID string) (*spotify.Artist, error)
	GetArtistTopTracks(ctx context.Context, artistID string) ([]spotify.Track, error)
	GetTempos(ctx context.Context, trackIDs []string) (map[string]float64, error)
}

// TrackStore is the persistence surface the orchestrator needs.
type TrackStore interface {
	UpsertBatch(ctx context.Context, tracks []catalog.Track) error
}

// Defaults for the orchestrator.
const (
	DefaultArtistDelay = 500 * time.Millisecond
	DefaultTimeout     = 180 * time.Second
)

// Service runs sync passes over a fixed artist roster.
type Service struct {
	client  CatalogClient
	store   TrackStore
	artists []string

	policy      PrimaryArtistPolicy
	artistDelay time.Duration
	timeout     time.Duration
	maxTracks   int
}

// Option configures a Service.
type Option func(*Service)

// WithPolicy sets the primary-artist classification policy.
func WithPolicy(p PrimaryArtistPolicy) Option {
	return func(s *Service) { s.policy = p }
}

// WithArtistDelay sets the pause between artists, used as crude
// rate-limit avoidance against the provider.
func WithArtistDelay(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.artistDelay = d
		}
	}
}

// WithTimeout sets the wall-clock budget for a whole run. The deadline is
// carried by the context through every request, so hitting it stops
// further I/O instead of merely abandoning the result.
func WithTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithMaxTracks caps how many tracks one run may accumulate. Zero means
// no cap.
func WithMaxTracks(n int) Option {
	return func(s *Service) { s.maxTracks = n }
}

// New creates a sync service for the given roster.
func New(client CatalogClient, store TrackStore, artists []string, opts ...Option) *Service {
	s := &Service{
		client:      client,
		store:       store,
		artists:     artists,
		artistDelay: DefaultArtistDelay,
		timeout:     DefaultTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Result summarizes one sync run. It exists only in memory for the
// duration of the run.
type Result struct {
	RunID      uuid.UUID `json:"run_id"`
	Found      int       `json:"found"`
	Processed  int       `json:"processed"`
	Saved      int       `json:"saved"`
	Duplicates int       `json:"duplicates"`
	Errors     int       `json:"errors"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// Run executes one sync pass. Artists are processed in roster order; one
// artist failing is logged and skipped, never aborting the run. The
// accumulated list is upserted in a single call at the end. Rows written
// before a timeout fires stay written; upserts are not transactional
// across the run.
func (s *Service) Run(ctx context.Context) (*Result, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	result := &Result{
		RunID:     uuid.New(),
		StartedAt: time.Now(),
	}
	log.Printf("sync run %s: starting for %d artists", result.RunID, len(s.artists))

	limiter := rate.NewLimiter(rate.Every(s.artistDelay), 1)
	seen := make(map[string]bool)
	var collected []catalog.Track

	for _, name := range s.artists {
		if err := limiter.Wait(ctx); err != nil {
			result.FinishedAt = time.Now()
			return result, fmt.Errorf("sync run %s: %w", result.RunID, err)
		}
		if s.maxTracks > 0 && len(collected) >= s.maxTracks {
			log.Printf("sync run %s: track cap %d reached, stopping roster", result.RunID, s.maxTracks)
			break
		}

		tracks, err := s.processArtist(ctx, name, seen, result)
		if err != nil {
			if ctx.Err() != nil {
				result.FinishedAt = time.Now()
				return result, fmt.Errorf("sync run %s: %w", result.RunID, ctx.Err())
			}
			log.Printf("sync run %s: artist %q failed, skipping: %v", result.RunID, name, err)
			result.Errors++
			continue
		}
		collected = append(collected, tracks...)
	}

	if len(collected) == 0 {
		log.Printf("sync run %s: no tracks to save", result.RunID)
		result.FinishedAt = time.Now()
		return result, nil
	}

	if err := s.store.UpsertBatch(ctx, collected); err != nil {
		result.FinishedAt = time.Now()
		return result, fmt.Errorf("sync run %s: saving tracks: %w", result.RunID, err)
	}
	result.Saved = len(collected)
	result.FinishedAt = time.Now()
	log.Printf("sync run %s: done, %d tracks saved (%d duplicates, %d errors)",
		result.RunID, result.Saved, result.Duplicates, result.Errors)
	return result, nil
}

// processArtist handles one roster entry end to end.
func (s *Service) processArtist(ctx context.Context, name string, seen map[string]bool, result *Result) ([]catalog.Track, error) {
	artist, err := s.client.SearchArtist(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("searching: %w", err)
	}
	if artist == nil {
		return nil, fmt.Errorf("artist not found")
	}
	log.Printf("artist %q resolved to %s (%s)", name, artist.Name, artist.ID)

	// Search results don't always carry genres; the detail endpoint does.
	genres := artist.Genres
	if len(genres) == 0 {
		detail, err := s.client.GetArtist(ctx, artist.ID)
		if err != nil {
			log.Printf("artist %q: genre lookup failed, continuing without genres: %v", name, err)
		} else {
			genres = detail.Genres
		}
	}

	topTracks, err := s.client.GetArtistTopTracks(ctx, artist.ID)
	if err != nil {
		return nil, fmt.Errorf("fetching top tracks: %w", err)
	}
	if len(topTracks) == 0 {
		return nil, fmt.Errorf("no tracks returned")
	}
	result.Found += len(topTracks)

	trackIDs := make([]string, len(topTracks))
	for i, t := range topTracks {
		trackIDs[i] = t.ID
	}

	// A tempo fetch failure downgrades to tracks without BPM, it never
	// loses the tracks themselves.
	tempos, err := s.client.GetTempos(ctx, trackIDs)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		log.Printf("artist %q: tempo fetch failed, saving tracks without BPM: %v", name, err)
		tempos = nil
	}

	var built []catalog.Track
	for _, t := range topTracks {
		if seen[t.ID] {
			result.Duplicates++
			continue
		}
		seen[t.ID] = true
		built = append(built, s.buildTrack(t, name, genres, tempos))
		result.Processed++
	}
	log.Printf("artist %q: %d tracks processed", name, len(built))
	return built, nil
}

// buildTrack shapes one provider track into a catalog record. The
// requested roster name becomes the primary artist only when the policy
// passes; otherwise the track is kept, filed under its first credited
// artist.
func (s *Service) buildTrack(t spotify.Track, requestedName string, genres []string, tempos map[string]float64) catalog.Track {
	artistNames := make([]string, len(t.Artists))
	for i, a := range t.Artists {
		artistNames[i] = a.Name
	}

	main := requestedName
	if !primaryMatch(s.policy, artistNames, requestedName) {
		if len(artistNames) > 0 {
			main = artistNames[0]
		}
	}

	track := catalog.Track{
		SpotifyID:   t.ID,
		Name:        t.Name,
		Artists:     artistNames,
		ArtistMain:  main,
		Album:       t.Album.Name,
		ReleaseDate: catalog.NormalizeReleaseDate(t.Album.ReleaseDate),
		DurationMs:  t.DurationMs,
		Genres:      genres,
		PreviewURL:  t.PreviewURL,
	}
	if len(t.Album.Images) > 0 {
		url := t.Album.Images[0].URL
		track.CoverURL = &url
	}
	if tempo, ok := tempos[t.ID]; ok {
		track.BPM = &tempo
	}
	return track
}

func primaryMatch(policy PrimaryArtistPolicy, artistNames []string, requestedName string) bool {
	switch policy {
	case PolicyLeadOnly:
		return len(artistNames) > 0 && strings.EqualFold(artistNames[0], requestedName)
	default:
		for _, n := range artistNames {
			if strings.EqualFold(n, requestedName) {
				return true
			}
		}
		return false
	}
}
