package spotify

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"
)

const (
	// tokenExpirySlack is subtracted from the provider-stated TTL so the
	// token is refreshed before it actually expires.
	tokenExpirySlack = 5 * time.Minute

	maxTokenAttempts = 3
)

// tokenCache owns one bearer token behind a mutex. Refreshing happens
// under the lock, so concurrent callers never race a 401 invalidation
// against an in-flight refresh.
type tokenCache struct {
	mu        sync.Mutex
	value     string
	expiresAt time.Time // zero means unknown expiry
}

func (t *tokenCache) get() (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.value == "" {
		return "", false
	}
	if !t.expiresAt.IsZero() && time.Now().After(t.expiresAt) {
		return "", false
	}
	return t.value, true
}

func (t *tokenCache) getOrFetch(ctx context.Context, fetch func(context.Context) (string, time.Duration, error)) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.value != "" && (t.expiresAt.IsZero() || time.Now().Before(t.expiresAt)) {
		return t.value, nil
	}

	value, ttl, err := fetch(ctx)
	if err != nil {
		return "", err
	}
	t.value = value
	if ttl > 0 {
		t.expiresAt = time.Now().Add(ttl)
	} else {
		t.expiresAt = time.Time{}
	}
	return t.value, nil
}

// set stores a token. ttl == 0 means unknown expiry; a negative ttl marks
// the token already expired, so get refuses it.
func (t *tokenCache) set(value string, ttl time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.value = value
	if ttl != 0 {
		t.expiresAt = time.Now().Add(ttl)
	} else {
		t.expiresAt = time.Time{}
	}
}

func (t *tokenCache) invalidate() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.value = ""
	t.expiresAt = time.Time{}
}

func (t *tokenCache) status() (bool, time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.value == "" {
		return false, time.Time{}
	}
	if !t.expiresAt.IsZero() && time.Now().After(t.expiresAt) {
		return false, time.Time{}
	}
	return true, t.expiresAt
}

// fetchAppToken exchanges the client ID/secret pair for a bearer token via
// the client-credentials flow. Timeouts are retried up to 3 attempts with
// linearly increasing waits (1s, 2s); any other failure is a configuration
// problem and propagates immediately.
func (c *Client) fetchAppToken(ctx context.Context) (string, time.Duration, error) {
	var lastErr error

	for attempt := 1; attempt <= maxTokenAttempts; attempt++ {
		var body tokenResponse
		resp, err := c.httpClient.R().
			SetContext(ctx).
			SetBasicAuth(c.clientID, c.clientSecret).
			SetHeader("Content-Type", "application/x-www-form-urlencoded").
			SetBody("grant_type=client_credentials").
			SetResult(&body).
			Post(c.accountsURL)

		if err != nil {
			if ctx.Err() != nil {
				return "", 0, ctx.Err()
			}
			if !isTimeout(err) {
				return "", 0, fmt.Errorf("requesting access token: %w", err)
			}
			lastErr = err
			if attempt < maxTokenAttempts {
				if err := sleep(ctx, time.Duration(attempt)*time.Second); err != nil {
					return "", 0, err
				}
			}
			continue
		}

		if resp.StatusCode() != http.StatusOK {
			return "", 0, fmt.Errorf("requesting access token: status %d: %s", resp.StatusCode(), resp.String())
		}
		if body.AccessToken == "" {
			return "", 0, fmt.Errorf("requesting access token: empty token in response")
		}

		ttl := time.Duration(body.ExpiresIn)*time.Second - tokenExpirySlack
		if ttl <= 0 {
			ttl = time.Minute
		}
		return body.AccessToken, ttl, nil
	}

	return "", 0, fmt.Errorf("requesting access token: timeout after %d attempts: %w", maxTokenAttempts, lastErr)
}
