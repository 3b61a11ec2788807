// Package catalog defines the track data model and read-side aggregation.
package catalog

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"
)

// Track is one song fetched from Spotify and stored in the catalog.
// SpotifyID is the natural key: re-ingesting a track with the same ID
// overwrites every mutable field and refreshes FetchedAt.
type Track struct {
	ID          int64     `json:"id"`
	SpotifyID   string    `json:"spotify_id"`
	Name        string    `json:"name"`
	Artists     []string  `json:"artists"`
	ArtistMain  string    `json:"artist_main"`
	Album       string    `json:"album"`
	ReleaseDate *string   `json:"release_date"`
	DurationMs  int       `json:"duration_ms"`
	BPM         *float64  `json:"bpm"`
	Genres      []string  `json:"genres"`
	PreviewURL  *string   `json:"preview_url"`
	CoverURL    *string   `json:"cover_url"`
	FetchedAt   time.Time `json:"fetched_at"`
}

// Artist is a distinct primary artist derived from stored tracks.
// Artists are not stored independently; the name doubles as the ID.
type Artist struct {
	Name string `json:"name"`
	ID   string `json:"id"`
}

var (
	yearOnly  = regexp.MustCompile(`^\d{4}$`)
	yearMonth = regexp.MustCompile(`^\d{4}-\d{2}$`)
	fullDate  = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
)

// NormalizeReleaseDate converts Spotify release dates to YYYY-MM-DD.
// Spotify returns "2004", "2004-01" or "2004-01-01" depending on the
// album's release_date_precision. Malformed input normalizes to nil,
// never an error.
func NormalizeReleaseDate(raw string) *string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil
	}

	var normalized string
	switch {
	case yearOnly.MatchString(trimmed):
		normalized = trimmed + "-01-01"
	case yearMonth.MatchString(trimmed):
		normalized = trimmed + "-01"
	case fullDate.MatchString(trimmed):
		normalized = trimmed
	default:
		return nil
	}
	return &normalized
}

// FilterByGenre returns the tracks whose genre list contains genre,
// compared case-insensitively. Returns an empty slice, not nil, when
// nothing matches.
func FilterByGenre(tracks []Track, genre string) []Track {
	filtered := []Track{}
	for _, t := range tracks {
		for _, g := range t.Genres {
			if strings.EqualFold(g, genre) {
				filtered = append(filtered, t)
				break
			}
		}
	}
	return filtered
}

// DistinctArtists derives the set of primary artists from stored tracks,
// sorted by name. The name is used as the ID since artist Spotify IDs are
// not persisted.
func DistinctArtists(tracks []Track) []Artist {
	seen := make(map[string]bool)
	artists := []Artist{}
	for _, t := range tracks {
		if t.ArtistMain == "" || seen[t.ArtistMain] {
			continue
		}
		seen[t.ArtistMain] = true
		artists = append(artists, Artist{Name: t.ArtistMain, ID: t.ArtistMain})
	}
	sort.Slice(artists, func(i, j int) bool { return artists[i].Name < artists[j].Name })
	return artists
}

// FormatDuration renders a millisecond total as "3h 12m" or "45m".
func FormatDuration(totalMs int64) string {
	minutes := totalMs / 60000
	hours := minutes / 60
	if hours > 0 {
		return fmt.Sprintf("%dh %dm", hours, minutes%60)
	}
	return fmt.Sprintf("%dm", minutes)
}
