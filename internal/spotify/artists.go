package spotify

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// SearchArtist resolves an artist name to the best match among up to 10
// candidates: an exact case-insensitive name match wins, otherwise the
// most popular result. Returns (nil, nil) when nothing matches.
func (c *Client) SearchArtist(ctx context.Context, name string) (*Artist, error) {
	var body searchArtistsResponse
	err := c.doGet(ctx, "/search", map[string]string{
		"q":     name,
		"type":  "artist",
		"limit": "10",
	}, false, &body)
	if err != nil {
		return nil, fmt.Errorf("searching artist %q: %w", name, err)
	}

	items := body.Artists.Items
	if len(items) == 0 {
		return nil, nil
	}

	for i := range items {
		if strings.EqualFold(items[i].Name, name) {
			return &items[i], nil
		}
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Popularity > items[j].Popularity
	})
	return &items[0], nil
}

// GetArtist fetches full artist detail, including genres.
func (c *Client) GetArtist(ctx context.Context, artistID string) (*Artist, error) {
	var artist Artist
	if err := c.doGet(ctx, "/artists/"+artistID, nil, false, &artist); err != nil {
		return nil, fmt.Errorf("getting artist %s: %w", artistID, err)
	}
	return &artist, nil
}

// GetArtistTopTracks fetches the artist's top tracks for the configured
// market.
func (c *Client) GetArtistTopTracks(ctx context.Context, artistID string) ([]Track, error) {
	var body topTracksResponse
	err := c.doGet(ctx, "/artists/"+artistID+"/top-tracks", map[string]string{
		"market": market,
	}, false, &body)
	if err != nil {
		return nil, fmt.Errorf("getting top tracks for artist %s: %w", artistID, err)
	}
	return body.Tracks, nil
}
