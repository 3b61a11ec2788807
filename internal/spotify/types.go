package spotify

// Artist is a Spotify artist with the fields the catalog cares about.
type Artist struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Popularity int      `json:"popularity"`
	Genres     []string `json:"genres"`
}

// TrackArtist is one credited artist on a track.
type TrackArtist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// AlbumImage is one cover image variant.
type AlbumImage struct {
	URL string `json:"url"`
}

// Album is the album block embedded in a track response.
type Album struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	ReleaseDate string       `json:"release_date"`
	Images      []AlbumImage `json:"images"`
}

// Track is a track as returned by the top-tracks endpoint.
type Track struct {
	ID         string        `json:"id"`
	Name       string        `json:"name"`
	Artists    []TrackArtist `json:"artists"`
	Album      Album         `json:"album"`
	DurationMs int           `json:"duration_ms"`
	PreviewURL *string       `json:"preview_url"`
}

// AudioFeatures carries the tempo (BPM) for one track.
type AudioFeatures struct {
	ID         string  `json:"id"`
	Tempo      float64 `json:"tempo"`
	DurationMs int     `json:"duration_ms"`
}

// Wire formats.

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

type searchArtistsResponse struct {
	Artists struct {
		Items []Artist `json:"items"`
	} `json:"artists"`
}

type topTracksResponse struct {
	Tracks []Track `json:"tracks"`
}

type audioFeaturesResponse struct {
	AudioFeatures []*AudioFeatures `json:"audio_features"`
}
