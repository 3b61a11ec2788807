package spotify

import (
	"context"
	"log"
	"strings"
)

// maxFeaturesPerRequest is the Spotify batch limit for /audio-features.
const maxFeaturesPerRequest = 100

// GetTempos fetches the tempo (BPM) for the given track IDs, batching up
// to 100 IDs per request. When a batch fails, each ID in it is retried
// individually; IDs whose tempo still cannot be obtained are silently
// omitted — a missing tempo is "unknown", not an error. Uses the user
// token when one is installed, since the audio-features endpoint is
// restricted for newer app registrations.
func (c *Client) GetTempos(ctx context.Context, trackIDs []string) (map[string]float64, error) {
	tempos := make(map[string]float64, len(trackIDs))

	for start := 0; start < len(trackIDs); start += maxFeaturesPerRequest {
		end := min(start+maxFeaturesPerRequest, len(trackIDs))
		batch := trackIDs[start:end]

		var body audioFeaturesResponse
		err := c.doGet(ctx, "/audio-features", map[string]string{
			"ids": strings.Join(batch, ","),
		}, true, &body)

		if err != nil {
			if ctx.Err() != nil {
				return tempos, ctx.Err()
			}
			log.Printf("audio-features batch %d-%d failed (%v), falling back to per-track requests", start+1, end, err)
			c.fetchTemposIndividually(ctx, batch, tempos)
			if ctx.Err() != nil {
				return tempos, ctx.Err()
			}
			continue
		}

		for _, f := range body.AudioFeatures {
			if f == nil {
				continue // track has no audio features
			}
			tempos[f.ID] = f.Tempo
		}
	}

	return tempos, nil
}

// fetchTemposIndividually is the per-ID fallback for a failed batch.
// Individual failures are logged and skipped.
func (c *Client) fetchTemposIndividually(ctx context.Context, trackIDs []string, tempos map[string]float64) {
	for _, id := range trackIDs {
		if ctx.Err() != nil {
			return
		}
		var f AudioFeatures
		if err := c.doGet(ctx, "/audio-features/"+id, nil, true, &f); err != nil {
			log.Printf("audio features unavailable for track %s: %v", id, err)
			continue
		}
		tempos[f.ID] = f.Tempo
	}
}
