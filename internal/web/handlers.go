package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	spotifyauth "github.com/zmb3/spotify/v2/auth"

	"github.com/nrivara/spotify-bpm-catalog/internal/catalog"
	"github.com/nrivara/spotify-bpm-catalog/internal/db"
)

// Handlers contains the HTTP handlers for the catalog API.
type Handlers struct {
	store      TrackStore
	syncer     Syncer
	tokens     TokenHolder
	auth       *spotifyauth.Authenticator
	cronSecret string

	syncRunning atomic.Bool
}

// NewHandlers creates a Handlers instance.
func NewHandlers(store TrackStore, syncer Syncer, tokens TokenHolder, auth *spotifyauth.Authenticator, cronSecret string) *Handlers {
	return &Handlers{
		store:      store,
		syncer:     syncer,
		tokens:     tokens,
		auth:       auth,
		cronSecret: cronSecret,
	}
}

// Health handles GET /health.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// ListTracks handles GET /tracks, with an optional ?genre= filter
// (case-insensitive exact match against any genre tag).
func (h *Handlers) ListTracks(w http.ResponseWriter, r *http.Request) {
	tracks, err := h.store.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Error fetching tracks", err)
		return
	}

	if genre := r.URL.Query().Get("genre"); genre != "" {
		tracks = catalog.FilterByGenre(tracks, genre)
	}

	writeJSON(w, http.StatusOK, tracks)
}

// GetTrack handles GET /tracks/{id}. The id can be a Spotify ID or an
// internal row ID; the Spotify ID is tried first since that is what the
// frontend links with.
func (h *Handlers) GetTrack(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	track, err := h.store.GetBySpotifyID(r.Context(), id)
	if errors.Is(err, db.ErrNotFound) {
		if rowID, convErr := strconv.ParseInt(id, 10, 64); convErr == nil {
			track, err = h.store.GetByRowID(r.Context(), rowID)
		}
	}
	if errors.Is(err, db.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Track not found", nil)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Error fetching track", err)
		return
	}

	writeJSON(w, http.StatusOK, track)
}

// ListArtists handles GET /artists: the distinct primary artists derived
// from stored tracks.
func (h *Handlers) ListArtists(w http.ResponseWriter, r *http.Request) {
	tracks, err := h.store.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Error fetching artists", err)
		return
	}
	writeJSON(w, http.StatusOK, catalog.DistinctArtists(tracks))
}

// ListArtistTracks handles GET /artists/{name}/tracks.
func (h *Handlers) ListArtistTracks(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	tracks, err := h.store.ListByArtist(r.Context(), name)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Error fetching artist tracks", err)
		return
	}
	writeJSON(w, http.StatusOK, tracks)
}

// GlobalMetrics handles GET /metrics/global. Aggregates are recomputed in
// memory on every request; fine at personal-catalog scale.
func (h *Handlers) GlobalMetrics(w http.ResponseWriter, r *http.Request) {
	tracks, err := h.store.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Error computing metrics", err)
		return
	}
	writeJSON(w, http.StatusOK, catalog.ComputeGlobalMetrics(tracks))
}

// ArtistMetrics handles GET /metrics/artist/{name}.
func (h *Handlers) ArtistMetrics(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	tracks, err := h.store.ListByArtist(r.Context(), name)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Error computing artist metrics", err)
		return
	}
	writeJSON(w, http.StatusOK, catalog.ComputeArtistMetrics(tracks))
}

// TempoClusters handles GET /metrics/tempo-clusters, grouping stored
// tracks with known BPM into ?k= clusters (default 3).
func (h *Handlers) TempoClusters(w http.ResponseWriter, r *http.Request) {
	k := 0
	if raw := r.URL.Query().Get("k"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "k must be a positive integer", nil)
			return
		}
		k = n
	}

	tracks, err := h.store.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Error computing tempo clusters", err)
		return
	}

	clusters := catalog.TempoClusters(tracks, k)
	if clusters == nil {
		clusters = []catalog.TempoCluster{}
	}
	writeJSON(w, http.StatusOK, clusters)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string, err error) {
	body := map[string]string{"error": msg}
	if err != nil {
		body["message"] = err.Error()
	}
	writeJSON(w, status, body)
}
