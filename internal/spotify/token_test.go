package spotify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-resty/resty/v2"
)

func newTestClient(t *testing.T, accountsURL, baseURL string) *Client {
	t.Helper()
	return &Client{
		clientID:     "test-id",
		clientSecret: "test-secret",
		httpClient:   resty.New().SetTimeout(250 * time.Millisecond),
		accountsURL:  accountsURL,
		baseURL:      baseURL,
		maxRetries:   5,
		retryDelay:   time.Second,
	}
}

func TestFetchAppToken(t *testing.T) {
	var requestCount atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestCount.Add(1)

		if user, pass, ok := r.BasicAuth(); !ok || user != "test-id" || pass != "test-secret" {
			t.Errorf("token request basic auth = %q/%q, want test-id/test-secret", user, pass)
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(tokenResponse{
			AccessToken: "app-token",
			TokenType:   "Bearer",
			ExpiresIn:   3600,
		})
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, "")

	token, ttl, err := client.fetchAppToken(context.Background())
	if err != nil {
		t.Fatalf("fetchAppToken() error = %v", err)
	}
	if token != "app-token" {
		t.Errorf("fetchAppToken() token = %q, want app-token", token)
	}

	// Expiry is the provider TTL minus the 5-minute slack.
	want := 3600*time.Second - tokenExpirySlack
	if ttl != want {
		t.Errorf("fetchAppToken() ttl = %v, want %v", ttl, want)
	}
	if count := requestCount.Load(); count != 1 {
		t.Errorf("expected 1 request, got %d", count)
	}
}

func TestFetchAppToken_TimeoutRetries(t *testing.T) {
	var requestCount atomic.Int32

	// Every request hangs past the client timeout.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestCount.Add(1)
		time.Sleep(time.Second)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, "")

	start := time.Now()
	_, _, err := client.fetchAppToken(context.Background())
	elapsed := time.Since(start)

	if err == nil {
		t.Fatal("fetchAppToken() expected error, got nil")
	}
	if !strings.Contains(err.Error(), "timeout after 3 attempts") {
		t.Errorf("fetchAppToken() error = %v, want a descriptive timeout error", err)
	}
	if count := requestCount.Load(); count != 3 {
		t.Errorf("expected exactly 3 attempts, got %d", count)
	}
	// Waits of 1s and 2s between the three attempts.
	if elapsed < 3*time.Second {
		t.Errorf("expected >=3s of linear backoff, elapsed %v", elapsed)
	}
}

func TestFetchAppToken_NonTimeoutFailsImmediately(t *testing.T) {
	var requestCount atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestCount.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"invalid_client"}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, "")

	_, _, err := client.fetchAppToken(context.Background())
	if err == nil {
		t.Fatal("fetchAppToken() expected error, got nil")
	}
	if count := requestCount.Load(); count != 1 {
		t.Errorf("expected 1 attempt for a non-timeout failure, got %d", count)
	}
}

func TestTokenCache(t *testing.T) {
	var cache tokenCache

	if _, ok := cache.get(); ok {
		t.Error("empty cache reported a token")
	}

	cache.set("tok", time.Hour)
	if got, ok := cache.get(); !ok || got != "tok" {
		t.Errorf("get() = %q, %v; want tok, true", got, ok)
	}

	cache.invalidate()
	if _, ok := cache.get(); ok {
		t.Error("invalidated cache still reported a token")
	}

	// Zero ttl means unknown expiry, the token is still served.
	cache.set("unknown-ttl", 0)
	if got, ok := cache.get(); !ok || got != "unknown-ttl" {
		t.Errorf("get() after zero-ttl set = %q, %v; want unknown-ttl, true", got, ok)
	}

	// A negative ttl stores the token already expired, not never-expiring.
	cache.set("old", -time.Second)
	if _, ok := cache.get(); ok {
		t.Error("expired token was returned")
	}
	if has, _ := cache.status(); has {
		t.Error("status() reported an expired token as present")
	}
}

func TestTokenCache_GetOrFetchCachesResult(t *testing.T) {
	var cache tokenCache
	var fetches atomic.Int32

	fetch := func(ctx context.Context) (string, time.Duration, error) {
		fetches.Add(1)
		return "fetched", time.Hour, nil
	}

	for i := 0; i < 3; i++ {
		token, err := cache.getOrFetch(context.Background(), fetch)
		if err != nil {
			t.Fatalf("getOrFetch() error = %v", err)
		}
		if token != "fetched" {
			t.Fatalf("getOrFetch() = %q, want fetched", token)
		}
	}

	if count := fetches.Load(); count != 1 {
		t.Errorf("expected 1 fetch, got %d", count)
	}
}
