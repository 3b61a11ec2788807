package db

import (
	"testing"

	"github.com/nrivara/spotify-bpm-catalog/internal/catalog"
)

func TestCollapseBySpotifyID(t *testing.T) {
	tracks := []catalog.Track{
		{SpotifyID: "a", Name: "first a"},
		{SpotifyID: "b", Name: "only b"},
		{SpotifyID: "a", Name: "second a"},
	}

	got := collapseBySpotifyID(tracks)
	if len(got) != 2 {
		t.Fatalf("collapsed to %d tracks, want 2", len(got))
	}
	// Later list position wins; first-seen key order is preserved.
	if got[0].SpotifyID != "a" || got[0].Name != "second a" {
		t.Errorf("got[0] = %+v, want spotify_id a with the later record", got[0])
	}
	if got[1].SpotifyID != "b" {
		t.Errorf("got[1] = %+v, want spotify_id b", got[1])
	}
}

func TestCollapseBySpotifyID_Empty(t *testing.T) {
	if got := collapseBySpotifyID(nil); len(got) != 0 {
		t.Errorf("collapseBySpotifyID(nil) = %v, want empty", got)
	}
}

func TestChunkTracks(t *testing.T) {
	tests := []struct {
		name      string
		total     int
		size      int
		wantSizes []int
	}{
		{"empty", 0, 50, nil},
		{"under one batch", 10, 50, []int{10}},
		{"exact batch", 50, 50, []int{50}},
		{"one over", 51, 50, []int{50, 1}},
		{"several batches", 120, 50, []int{50, 50, 20}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tracks := make([]catalog.Track, tt.total)
			chunks := chunkTracks(tracks, tt.size)
			if len(chunks) != len(tt.wantSizes) {
				t.Fatalf("got %d chunks, want %d", len(chunks), len(tt.wantSizes))
			}
			for i, want := range tt.wantSizes {
				if len(chunks[i]) != want {
					t.Errorf("chunk %d has %d tracks, want %d", i, len(chunks[i]), want)
				}
			}
		})
	}
}
