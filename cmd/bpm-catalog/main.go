// Command bpm-catalog runs the catalog HTTP server.
package main

import (
	"context"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"

	"github.com/nrivara/spotify-bpm-catalog/internal/config"
	"github.com/nrivara/spotify-bpm-catalog/internal/db"
	"github.com/nrivara/spotify-bpm-catalog/internal/spotify"
	catsync "github.com/nrivara/spotify-bpm-catalog/internal/sync"
	"github.com/nrivara/spotify-bpm-catalog/internal/web"
	webfs "github.com/nrivara/spotify-bpm-catalog/web"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx := context.Background()

	database, err := db.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer database.Close()

	if err := database.EnsureSchema(ctx); err != nil {
		return err
	}

	client, err := spotify.NewClient(spotify.Config{
		ClientID:     cfg.SpotifyClientID,
		ClientSecret: cfg.SpotifyClientSecret,
		MaxRetries:   cfg.RateLimitRetries,
		RetryDelay:   cfg.RateLimitDelay,
		UserToken:    cfg.SpotifyUserToken,
	})
	if err != nil {
		return fmt.Errorf("creating Spotify client: %w", err)
	}

	policy, err := catsync.ParsePolicy(cfg.ArtistPolicy)
	if err != nil {
		return err
	}

	syncer := catsync.New(client, database.Tracks(), cfg.Artists,
		catsync.WithPolicy(policy),
		catsync.WithArtistDelay(cfg.ArtistDelay),
		catsync.WithTimeout(cfg.SyncTimeout),
		catsync.WithMaxTracks(cfg.MaxTracks),
	)

	static, err := fs.Sub(webfs.StaticFS, "static")
	if err != nil {
		return fmt.Errorf("creating static filesystem: %w", err)
	}

	server, err := web.NewServer(web.ServerConfig{
		Addr:         cfg.Addr,
		ClientID:     cfg.SpotifyClientID,
		ClientSecret: cfg.SpotifyClientSecret,
		RedirectURI:  cfg.SpotifyRedirectURI,
		CronSecret:   cfg.CronSecret,
		StaticFS:     static,
		Store:        database.Tracks(),
		Syncer:       syncer,
		Tokens:       client,
	})
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	return server.Run()
}
