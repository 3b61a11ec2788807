// Package spotify is a client for the Spotify Web API using the
// client-credentials flow, with rate-limit handling and retries.
package spotify

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	accountsURL = "https://accounts.spotify.com/api/token"
	apiURL      = "https://api.spotify.com/v1"

	// Market passed to search and top-tracks so preview URLs come back.
	market = "US"

	requestTimeout = 20 * time.Second
)

// Sentinel errors.
var (
	// ErrMissingCredentials is returned when the client is constructed
	// without a client ID/secret pair.
	ErrMissingCredentials = errors.New("missing Spotify client ID or secret")

	// ErrRateLimited is returned when the rate-limit retry budget is exhausted.
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrForbidden is returned on HTTP 403. Retrying cannot fix a
	// permission problem, so the caller sees it immediately.
	ErrForbidden = errors.New("forbidden")

	// ErrNotFound is returned on HTTP 404.
	ErrNotFound = errors.New("resource not found")
)

// Config holds client construction parameters.
type Config struct {
	ClientID     string
	ClientSecret string

	// MaxRetries bounds attempts for rate-limited requests (default 5).
	MaxRetries int
	// RetryDelay is the wait used when the 429 response carries no
	// Retry-After header (default 1s).
	RetryDelay time.Duration

	// UserToken optionally pre-seeds a user-scoped bearer token, which
	// unlocks the audio-features endpoint on restricted apps.
	UserToken string
}

// Client talks to the Spotify Web API. The app token is owned by the
// client and refreshed on demand; all methods are safe for concurrent use.
type Client struct {
	clientID     string
	clientSecret string

	httpClient  *resty.Client
	accountsURL string
	baseURL     string

	maxRetries int
	retryDelay time.Duration

	appToken  tokenCache
	userToken tokenCache
}

// NewClient creates a Spotify client. Returns ErrMissingCredentials when
// the ID/secret pair is incomplete: that is a configuration error, not
// something retries can fix.
func NewClient(cfg Config) (*Client, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, ErrMissingCredentials
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 5
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = time.Second
	}

	c := &Client{
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		httpClient:   resty.New().SetTimeout(requestTimeout),
		accountsURL:  accountsURL,
		baseURL:      apiURL,
		maxRetries:   cfg.MaxRetries,
		retryDelay:   cfg.RetryDelay,
	}
	if cfg.UserToken != "" {
		c.userToken.set(cfg.UserToken, 0)
	}
	return c, nil
}

// SetUserToken installs a user-scoped bearer token. expiresIn is in
// seconds; zero means unknown expiry.
func (c *Client) SetUserToken(token string, expiresIn int) {
	c.userToken.set(token, time.Duration(expiresIn)*time.Second)
}

// UserTokenStatus reports whether a user token is present and when it
// expires (zero time when the expiry is unknown).
func (c *Client) UserTokenStatus() (bool, time.Time) {
	return c.userToken.status()
}

// doGet issues an authenticated GET and decodes the JSON response into out.
//
// Retry policy, bounded by maxRetries attempts in total:
//   - 429: sleep for the Retry-After duration (milliseconds; retryDelay
//     when the header is absent) and retry.
//   - 401: discard the cached token and retry once with a fresh one.
//   - timeout: pause 1s and retry.
//   - 403/404: fail immediately, retries cannot help.
func (c *Client) doGet(ctx context.Context, path string, params map[string]string, useUserToken bool, out any) error {
	refreshed := false

	for attempt := 0; attempt < c.maxRetries; attempt++ {
		token, isUser, err := c.bearerToken(ctx, useUserToken)
		if err != nil {
			return err
		}

		resp, err := c.httpClient.R().
			SetContext(ctx).
			SetAuthToken(token).
			SetQueryParams(params).
			SetResult(out).
			Get(c.baseURL + path)

		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if isTimeout(err) {
				if err := sleep(ctx, time.Second); err != nil {
					return err
				}
				continue
			}
			return fmt.Errorf("requesting %s: %w", path, err)
		}

		switch resp.StatusCode() {
		case http.StatusOK:
			return nil

		case http.StatusTooManyRequests:
			wait := c.retryDelay
			if raw := resp.Header().Get("Retry-After"); raw != "" {
				if ms, err := strconv.Atoi(raw); err == nil && ms > 0 {
					wait = time.Duration(ms) * time.Millisecond
				}
			}
			if err := sleep(ctx, wait); err != nil {
				return err
			}
			continue

		case http.StatusUnauthorized:
			if refreshed {
				return fmt.Errorf("requesting %s: unauthorized after token refresh", path)
			}
			refreshed = true
			if isUser {
				c.userToken.invalidate()
			} else {
				c.appToken.invalidate()
			}
			continue

		case http.StatusForbidden:
			return fmt.Errorf("requesting %s: %w", path, ErrForbidden)

		case http.StatusNotFound:
			return fmt.Errorf("requesting %s: %w", path, ErrNotFound)

		default:
			return fmt.Errorf("requesting %s: unexpected status %d", path, resp.StatusCode())
		}
	}

	return fmt.Errorf("requesting %s after %d attempts: %w", path, c.maxRetries, ErrRateLimited)
}

// bearerToken picks the user token when requested and available, falling
// back to the app token.
func (c *Client) bearerToken(ctx context.Context, useUserToken bool) (token string, isUser bool, err error) {
	if useUserToken {
		if tok, ok := c.userToken.get(); ok {
			return tok, true, nil
		}
	}
	tok, err := c.appToken.getOrFetch(ctx, c.fetchAppToken)
	return tok, false, err
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || os.IsTimeout(err) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// sleep waits for d or until ctx is cancelled.
func sleep(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
