// Package config loads and validates environment configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Sentinel errors for missing required configuration.
var (
	// ErrMissingSpotifyCredentials is returned when SPOTIFY_CLIENT_ID or
	// SPOTIFY_CLIENT_SECRET is not set.
	ErrMissingSpotifyCredentials = errors.New("missing SPOTIFY_CLIENT_ID or SPOTIFY_CLIENT_SECRET environment variable")

	// ErrMissingDatabaseURL is returned when DATABASE_URL is not set.
	ErrMissingDatabaseURL = errors.New("missing DATABASE_URL environment variable")
)

// DefaultArtists is the roster synced when SYNC_ARTISTS is not set.
var DefaultArtists = []string{"Duki", "Bizarrap", "Airbag", "Emilia"}

// Config holds all runtime configuration, read from the environment.
type Config struct {
	Addr string

	SpotifyClientID     string
	SpotifyClientSecret string
	SpotifyRedirectURI  string
	SpotifyUserToken    string

	DatabaseURL string

	// Remote API retry behavior.
	RateLimitRetries int
	RateLimitDelay   time.Duration

	// Sync orchestration.
	Artists       []string
	ArtistDelay   time.Duration
	SyncTimeout   time.Duration
	ArtistPolicy  string // "lead" or "any"
	MaxTracks     int
	StartYear     int
	LabelTerm     string
	TestMode      bool

	CronSecret string
}

// Load reads configuration from environment variables.
// Spotify credentials and the database URL are required; everything else
// has a default.
func Load() (*Config, error) {
	cfg := &Config{
		Addr:                envOr("ADDR", "127.0.0.1:3000"),
		SpotifyClientID:     os.Getenv("SPOTIFY_CLIENT_ID"),
		SpotifyClientSecret: os.Getenv("SPOTIFY_CLIENT_SECRET"),
		SpotifyRedirectURI:  os.Getenv("SPOTIFY_REDIRECT_URI"),
		SpotifyUserToken:    os.Getenv("SPOTIFY_USER_TOKEN"),
		DatabaseURL:         os.Getenv("DATABASE_URL"),
		RateLimitRetries:    envInt("SPOTIFY_RATE_LIMIT_RETRIES", 5),
		RateLimitDelay:      time.Duration(envInt("SPOTIFY_RATE_LIMIT_DELAY", 1000)) * time.Millisecond,
		ArtistDelay:         time.Duration(envInt("SYNC_ARTIST_DELAY_MS", 500)) * time.Millisecond,
		SyncTimeout:         time.Duration(envInt("SYNC_TIMEOUT_S", 180)) * time.Second,
		ArtistPolicy:        envOr("PRIMARY_ARTIST_POLICY", "any"),
		MaxTracks:           envInt("MAX_TRACKS_TO_PROCESS", 50),
		StartYear:           envInt("START_YEAR", 2010),
		LabelTerm:           envOr("LABEL_SEARCH_TERM", "dale play records"),
		TestMode:            os.Getenv("TEST_MODE") == "true",
		CronSecret:          os.Getenv("CRON_SECRET"),
	}

	if cfg.SpotifyClientID == "" || cfg.SpotifyClientSecret == "" {
		return nil, ErrMissingSpotifyCredentials
	}
	if cfg.DatabaseURL == "" {
		return nil, ErrMissingDatabaseURL
	}
	if cfg.ArtistPolicy != "lead" && cfg.ArtistPolicy != "any" {
		return nil, fmt.Errorf("invalid PRIMARY_ARTIST_POLICY %q (want \"lead\" or \"any\")", cfg.ArtistPolicy)
	}

	if raw := os.Getenv("SYNC_ARTISTS"); raw != "" {
		for _, name := range strings.Split(raw, ",") {
			if name = strings.TrimSpace(name); name != "" {
				cfg.Artists = append(cfg.Artists, name)
			}
		}
	}
	if len(cfg.Artists) == 0 {
		cfg.Artists = append([]string(nil), DefaultArtists...)
	}

	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
