package catalog

import "sort"

// topN limits the top-artists and top-albums rankings.
const topN = 20

// ArtistRanking is one entry in the global top-artists ranking.
type ArtistRanking struct {
	Name              string   `json:"name"`
	TrackCount        int      `json:"trackCount"`
	TotalDuration     int64    `json:"totalDuration"`
	DurationFormatted string   `json:"durationFormatted"`
	AvgBPM            *float64 `json:"avgBpm"`
}

// AlbumRanking is one entry in the global top-albums ranking.
type AlbumRanking struct {
	Name       string  `json:"name"`
	Artist     string  `json:"artist"`
	TrackCount int     `json:"trackCount"`
	Cover      *string `json:"cover"`
}

// GlobalMetrics aggregates the whole stored catalog.
type GlobalMetrics struct {
	TotalTracks            int                 `json:"total_tracks"`
	BPMAverage             *float64            `json:"bpm_average"`
	GenreDistribution      map[string]int      `json:"genre_distribution"`
	TracksByArtist         map[string]int      `json:"tracks_by_artist"`
	AvgBPMByArtist         map[string]float64  `json:"avg_bpm_by_artist"`
	TopArtists             []ArtistRanking     `json:"top_artists"`
	TopAlbums              []AlbumRanking      `json:"top_albums"`
	TotalDuration          int64               `json:"total_duration"`
	TotalDurationFormatted string              `json:"total_duration_formatted"`
	UniqueArtists          int                 `json:"unique_artists"`
	UniqueAlbums           int                 `json:"unique_albums"`
}

// ArtistMetrics aggregates one primary artist's stored tracks.
type ArtistMetrics struct {
	TotalTracks       int            `json:"total_tracks"`
	BPMAverage        *float64       `json:"bpm_average"`
	TopGenres         []string       `json:"top_genres"`
	ReleaseYearCounts map[string]int `json:"release_year_counts"`
}

// ComputeGlobalMetrics recomputes all aggregates from the given tracks.
// The computation is deterministic: the same input always yields the same
// output. O(n) over the catalog, which is fine at personal-catalog scale.
func ComputeGlobalMetrics(tracks []Track) GlobalMetrics {
	m := GlobalMetrics{
		TotalTracks:       len(tracks),
		GenreDistribution: make(map[string]int),
		TracksByArtist:    make(map[string]int),
		AvgBPMByArtist:    make(map[string]float64),
		TopArtists:        []ArtistRanking{},
		TopAlbums:         []AlbumRanking{},
	}

	type artistAgg struct {
		count    int
		duration int64
		bpmSum   float64
		bpmCount int
	}
	type albumAgg struct {
		artist string
		count  int
		cover  *string
	}

	byArtist := make(map[string]*artistAgg)
	byAlbum := make(map[string]*albumAgg)

	var bpmSum float64
	var bpmCount int

	for i := range tracks {
		t := &tracks[i]

		if t.BPM != nil {
			bpmSum += *t.BPM
			bpmCount++
		}
		m.TotalDuration += int64(t.DurationMs)

		for _, g := range t.Genres {
			m.GenreDistribution[g]++
		}

		if t.ArtistMain != "" {
			agg := byArtist[t.ArtistMain]
			if agg == nil {
				agg = &artistAgg{}
				byArtist[t.ArtistMain] = agg
			}
			agg.count++
			agg.duration += int64(t.DurationMs)
			if t.BPM != nil {
				agg.bpmSum += *t.BPM
				agg.bpmCount++
			}
		}

		if t.Album != "" {
			key := t.Album + "|" + t.ArtistMain
			agg := byAlbum[key]
			if agg == nil {
				agg = &albumAgg{artist: t.ArtistMain, cover: t.CoverURL}
				byAlbum[key] = agg
			}
			agg.count++
		}
	}

	if bpmCount > 0 {
		avg := bpmSum / float64(bpmCount)
		m.BPMAverage = &avg
	}

	for name, agg := range byArtist {
		m.TracksByArtist[name] = agg.count
		if agg.bpmCount > 0 {
			m.AvgBPMByArtist[name] = agg.bpmSum / float64(agg.bpmCount)
		}
	}

	for name, agg := range byArtist {
		ranking := ArtistRanking{
			Name:              name,
			TrackCount:        agg.count,
			TotalDuration:     agg.duration,
			DurationFormatted: FormatDuration(agg.duration),
		}
		if agg.bpmCount > 0 {
			avg := agg.bpmSum / float64(agg.bpmCount)
			ranking.AvgBPM = &avg
		}
		m.TopArtists = append(m.TopArtists, ranking)
	}
	sort.Slice(m.TopArtists, func(i, j int) bool {
		if m.TopArtists[i].TrackCount != m.TopArtists[j].TrackCount {
			return m.TopArtists[i].TrackCount > m.TopArtists[j].TrackCount
		}
		return m.TopArtists[i].Name < m.TopArtists[j].Name
	})
	if len(m.TopArtists) > topN {
		m.TopArtists = m.TopArtists[:topN]
	}

	for key, agg := range byAlbum {
		name := key[:len(key)-len(agg.artist)-1]
		m.TopAlbums = append(m.TopAlbums, AlbumRanking{
			Name:       name,
			Artist:     agg.artist,
			TrackCount: agg.count,
			Cover:      agg.cover,
		})
	}
	sort.Slice(m.TopAlbums, func(i, j int) bool {
		if m.TopAlbums[i].TrackCount != m.TopAlbums[j].TrackCount {
			return m.TopAlbums[i].TrackCount > m.TopAlbums[j].TrackCount
		}
		return m.TopAlbums[i].Name < m.TopAlbums[j].Name
	})
	if len(m.TopAlbums) > topN {
		m.TopAlbums = m.TopAlbums[:topN]
	}

	m.TotalDurationFormatted = FormatDuration(m.TotalDuration)
	m.UniqueArtists = len(byArtist)
	m.UniqueAlbums = len(byAlbum)

	return m
}

// ComputeArtistMetrics aggregates the tracks of a single primary artist.
// Callers pass the already-filtered track list.
func ComputeArtistMetrics(tracks []Track) ArtistMetrics {
	m := ArtistMetrics{
		TotalTracks:       len(tracks),
		TopGenres:         []string{},
		ReleaseYearCounts: make(map[string]int),
	}

	var bpmSum float64
	var bpmCount int
	genreCounts := make(map[string]int)

	for i := range tracks {
		t := &tracks[i]
		if t.BPM != nil {
			bpmSum += *t.BPM
			bpmCount++
		}
		for _, g := range t.Genres {
			genreCounts[g]++
		}
		if t.ReleaseDate != nil && len(*t.ReleaseDate) >= 4 {
			m.ReleaseYearCounts[(*t.ReleaseDate)[:4]]++
		}
	}

	if bpmCount > 0 {
		avg := bpmSum / float64(bpmCount)
		m.BPMAverage = &avg
	}

	type genreCount struct {
		name  string
		count int
	}
	ranked := make([]genreCount, 0, len(genreCounts))
	for name, count := range genreCounts {
		ranked = append(ranked, genreCount{name, count})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].count != ranked[j].count {
			return ranked[i].count > ranked[j].count
		}
		return ranked[i].name < ranked[j].name
	})
	for i := 0; i < len(ranked) && i < 5; i++ {
		m.TopGenres = append(m.TopGenres, ranked[i].name)
	}

	return m
}
