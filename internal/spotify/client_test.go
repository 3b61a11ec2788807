package spotify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

// seedAppToken short-circuits the token fetch so API tests exercise only
// the request path.
func seedAppToken(c *Client) {
	c.appToken.set("seeded-token", time.Hour)
}

func TestDoGet_RateLimitWaitsRetryAfter(t *testing.T) {
	var requestCount atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if requestCount.Add(1) == 1 {
			w.Header().Set("Retry-After", "300")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"id": "x"})
	}))
	defer server.Close()

	client := newTestClient(t, "", server.URL)
	seedAppToken(client)

	var out struct {
		ID string `json:"id"`
	}
	start := time.Now()
	if err := client.doGet(context.Background(), "/thing", nil, false, &out); err != nil {
		t.Fatalf("doGet() error = %v", err)
	}
	elapsed := time.Since(start)

	if elapsed < 300*time.Millisecond {
		t.Errorf("expected >=300ms wait for Retry-After, elapsed %v", elapsed)
	}
	if count := requestCount.Load(); count != 2 {
		t.Errorf("expected 2 requests, got %d", count)
	}
	if out.ID != "x" {
		t.Errorf("decoded id = %q, want x", out.ID)
	}
}

func TestDoGet_RateLimitExhausted(t *testing.T) {
	var requestCount atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestCount.Add(1)
		w.Header().Set("Retry-After", "10")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := newTestClient(t, "", server.URL)
	seedAppToken(client)

	err := client.doGet(context.Background(), "/thing", nil, false, &struct{}{})
	if !errors.Is(err, ErrRateLimited) {
		t.Fatalf("doGet() error = %v, want ErrRateLimited", err)
	}
	if count := requestCount.Load(); count != 5 {
		t.Errorf("expected 5 total attempts, got %d", count)
	}
}

func TestDoGet_UnauthorizedRefreshesTokenOnce(t *testing.T) {
	var apiRequests, tokenRequests atomic.Int32

	accounts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenRequests.Add(1)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(tokenResponse{AccessToken: "fresh-token", ExpiresIn: 3600})
	}))
	defer accounts.Close()

	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		apiRequests.Add(1)
		if r.Header.Get("Authorization") != "Bearer fresh-token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"id": "ok"})
	}))
	defer api.Close()

	client := newTestClient(t, accounts.URL, api.URL)
	client.appToken.set("stale-token", time.Hour)

	var out struct {
		ID string `json:"id"`
	}
	if err := client.doGet(context.Background(), "/thing", nil, false, &out); err != nil {
		t.Fatalf("doGet() error = %v", err)
	}
	if out.ID != "ok" {
		t.Errorf("decoded id = %q, want ok", out.ID)
	}
	if count := apiRequests.Load(); count != 2 {
		t.Errorf("expected 2 API requests (401 then success), got %d", count)
	}
	if count := tokenRequests.Load(); count != 1 {
		t.Errorf("expected 1 token refresh, got %d", count)
	}
}

func TestDoGet_PermanentStatusesDoNotRetry(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		wantErr error
	}{
		{"forbidden", http.StatusForbidden, ErrForbidden},
		{"not found", http.StatusNotFound, ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var requestCount atomic.Int32
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				requestCount.Add(1)
				w.WriteHeader(tt.status)
			}))
			defer server.Close()

			client := newTestClient(t, "", server.URL)
			seedAppToken(client)

			err := client.doGet(context.Background(), "/thing", nil, false, &struct{}{})
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("doGet() error = %v, want %v", err, tt.wantErr)
			}
			if count := requestCount.Load(); count != 1 {
				t.Errorf("expected 1 request (no retry), got %d", count)
			}
		})
	}
}

func TestSearchArtist(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		items    []Artist
		wantID   string
		wantNil  bool
	}{
		{
			name:  "exact case-insensitive match wins over popularity",
			query: "duki",
			items: []Artist{
				{ID: "pop", Name: "Duki Tribute Band", Popularity: 95},
				{ID: "exact", Name: "Duki", Popularity: 80},
			},
			wantID: "exact",
		},
		{
			name:  "highest popularity when no exact match",
			query: "bizarr",
			items: []Artist{
				{ID: "low", Name: "Bizarrap Covers", Popularity: 20},
				{ID: "high", Name: "Bizarrap", Popularity: 90},
			},
			wantID: "high",
		},
		{
			name:    "no candidates",
			query:   "nobody",
			items:   []Artist{},
			wantNil: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if got := r.URL.Query().Get("q"); got != tt.query {
					t.Errorf("search q = %q, want %q", got, tt.query)
				}
				var body searchArtistsResponse
				body.Artists.Items = tt.items
				w.Header().Set("Content-Type", "application/json")
				json.NewEncoder(w).Encode(body)
			}))
			defer server.Close()

			client := newTestClient(t, "", server.URL)
			seedAppToken(client)

			artist, err := client.SearchArtist(context.Background(), tt.query)
			if err != nil {
				t.Fatalf("SearchArtist() error = %v", err)
			}
			if tt.wantNil {
				if artist != nil {
					t.Fatalf("SearchArtist() = %+v, want nil", artist)
				}
				return
			}
			if artist == nil || artist.ID != tt.wantID {
				t.Errorf("SearchArtist() = %+v, want ID %s", artist, tt.wantID)
			}
		})
	}
}

func TestGetArtistTopTracks(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/artists/a1/top-tracks" {
			t.Errorf("path = %s, want /artists/a1/top-tracks", r.URL.Path)
		}
		if got := r.URL.Query().Get("market"); got != market {
			t.Errorf("market = %q, want %q", got, market)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(topTracksResponse{Tracks: []Track{
			{ID: "t1", Name: "Song One"},
			{ID: "t2", Name: "Song Two"},
		}})
	}))
	defer server.Close()

	client := newTestClient(t, "", server.URL)
	seedAppToken(client)

	tracks, err := client.GetArtistTopTracks(context.Background(), "a1")
	if err != nil {
		t.Fatalf("GetArtistTopTracks() error = %v", err)
	}
	if len(tracks) != 2 || tracks[0].ID != "t1" {
		t.Errorf("GetArtistTopTracks() = %+v, want tracks t1, t2", tracks)
	}
}
