// Command bpm-sync runs one sync pass from the command line, or the
// manual label-purge maintenance. Unlike the background trigger in the
// server, failures here exit non-zero.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/nrivara/spotify-bpm-catalog/internal/catalog"
	"github.com/nrivara/spotify-bpm-catalog/internal/config"
	"github.com/nrivara/spotify-bpm-catalog/internal/db"
	"github.com/nrivara/spotify-bpm-catalog/internal/label"
	"github.com/nrivara/spotify-bpm-catalog/internal/spotify"
	catsync "github.com/nrivara/spotify-bpm-catalog/internal/sync"
)

// purgeSimilarity is the Jaro-Winkler score above which a stored artist
// name is considered a spelling variant of a roster name and kept.
const purgeSimilarity = 0.9

func main() {
	artistsFlag := flag.String("artists", "", "comma-separated artist roster (overrides SYNC_ARTISTS)")
	purge := flag.Bool("purge", false, "delete tracks whose primary artist is not on the roster instead of syncing")
	dryRun := flag.Bool("dry-run", false, "with -purge, only report what would be deleted")
	flag.Parse()

	if err := run(*artistsFlag, *purge, *dryRun); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(artistsFlag string, purge, dryRun bool) error {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if artistsFlag != "" {
		cfg.Artists = nil
		for _, name := range strings.Split(artistsFlag, ",") {
			if name = strings.TrimSpace(name); name != "" {
				cfg.Artists = append(cfg.Artists, name)
			}
		}
	}
	if cfg.TestMode && len(cfg.Artists) > 1 {
		log.Printf("test mode: limiting roster to %q", cfg.Artists[0])
		cfg.Artists = cfg.Artists[:1]
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	database, err := db.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer database.Close()

	if err := database.EnsureSchema(ctx); err != nil {
		return err
	}

	if purge {
		return runPurge(ctx, database.Tracks(), cfg.Artists, cfg.LabelTerm, dryRun)
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

	result, err := syncer.Run(ctx)
	if err != nil {
		return err
	}

	log.Printf("sync %s: %d found, %d processed, %d saved, %d duplicates, %d errors",
		result.RunID, result.Found, result.Processed, result.Saved, result.Duplicates, result.Errors)
	return nil
}

// runPurge deletes tracks filed under artists that do not belong to the
// roster. The check is a best-effort classifier: spelling variants and
// annotated names survive, and LABEL_SEARCH_TERM acts as one extra keep
// pattern.
func runPurge(ctx context.Context, tracks *db.TrackRepository, roster []string, labelTerm string, dryRun bool) error {
	stored, err := tracks.List(ctx)
	if err != nil {
		return err
	}

	var toDelete []string
	for _, artist := range catalog.DistinctArtists(stored) {
		if keepArtist(artist.Name, roster, labelTerm) {
			continue
		}
		toDelete = append(toDelete, artist.Name)
	}

	if len(toDelete) == 0 {
		log.Printf("purge: nothing to delete, all %d stored artists are on the roster", len(catalog.DistinctArtists(stored)))
		return nil
	}

	log.Printf("purge: %d artists not on the roster: %s", len(toDelete), strings.Join(toDelete, ", "))
	if dryRun {
		log.Printf("purge: dry run, nothing deleted")
		return nil
	}

	deleted, err := tracks.DeleteByArtists(ctx, toDelete)
	if err != nil {
		return err
	}
	log.Printf("purge: deleted %d tracks", deleted)
	return nil
}

// keepArtist reports whether a stored primary artist survives the purge.
// A roster name keeps an artist on an exact case-insensitive match, a
// substring match against the extracted main name (catches "Duki / Sony
// Music" style entries), or a high similarity score (catches spelling
// variants). A non-empty label term keeps any artist whose name contains
// it.
func keepArtist(name string, roster []string, labelTerm string) bool {
	main := label.ExtractMain(name)
	for _, r := range roster {
		if strings.EqualFold(name, r) || label.Matches(main, r) {
			return true
		}
		if label.Similarity(main, r) >= purgeSimilarity {
			return true
		}
	}
	return labelTerm != "" && label.Matches(name, labelTerm)
}
