package catalog

import (
	"sort"

	"github.com/muesli/clusters"
	"github.com/muesli/kmeans"
)

// DefaultTempoClusterCount is used when the caller does not specify k.
const DefaultTempoClusterCount = 3

// TempoCluster groups tracks with similar BPM.
type TempoCluster struct {
	CenterBPM  float64  `json:"center_bpm"`
	MinBPM     float64  `json:"min_bpm"`
	MaxBPM     float64  `json:"max_bpm"`
	TrackCount int      `json:"track_count"`
	Tracks     []string `json:"tracks"` // track names, provider order preserved within cluster
}

// tempoObservation wraps a track's BPM to satisfy clusters.Observation.
type tempoObservation struct {
	track  *Track
	coords clusters.Coordinates
}

func (o tempoObservation) Coordinates() clusters.Coordinates {
	return o.coords
}

func (o tempoObservation) Distance(point clusters.Coordinates) float64 {
	return o.coords.Distance(point)
}

// TempoClusters partitions tracks with a known BPM into k groups using
// k-means. Tracks without BPM are skipped. Returns nil when there are
// fewer usable tracks than clusters, or when partitioning fails; tempo
// clustering is a descriptive metric, not a correctness path.
func TempoClusters(tracks []Track, k int) []TempoCluster {
	if k <= 0 {
		k = DefaultTempoClusterCount
	}

	var obs clusters.Observations
	for i := range tracks {
		t := &tracks[i]
		if t.BPM == nil {
			continue
		}
		obs = append(obs, tempoObservation{
			track:  t,
			coords: clusters.Coordinates{*t.BPM},
		})
	}

	if len(obs) < k {
		return nil
	}

	km := kmeans.New()
	result, err := km.Partition(obs, k)
	if err != nil {
		return nil
	}

	out := make([]TempoCluster, 0, len(result))
	for _, c := range result {
		if len(c.Observations) == 0 {
			continue
		}
		tc := TempoCluster{
			CenterBPM:  c.Center[0],
			TrackCount: len(c.Observations),
		}
		for i, o := range c.Observations {
			track := o.(tempoObservation).track
			bpm := *track.BPM
			if i == 0 || bpm < tc.MinBPM {
				tc.MinBPM = bpm
			}
			if i == 0 || bpm > tc.MaxBPM {
				tc.MaxBPM = bpm
			}
			tc.Tracks = append(tc.Tracks, track.Name)
		}
		out = append(out, tc)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].CenterBPM < out[j].CenterBPM })
	return out
}
