package web

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// Login handles GET /api/auth/login, starting the Spotify
// authorization-code flow.
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	if h.auth == nil {
		writeError(w, http.StatusServiceUnavailable, "OAuth is not configured", nil)
		return
	}

	state, err := generateOAuthState()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to generate state", err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     "oauth_state",
		Value:    state,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   300,
	})

	http.Redirect(w, r, h.auth.AuthURL(state), http.StatusTemporaryRedirect)
}

// Callback handles GET /api/auth/callback. On success the user token is
// installed server-side (it unlocks the tempo endpoint) and the browser
// is redirected home with the token material in the URL fragment. The
// fragment never reaches server logs or Referer headers, unlike a query
// string.
func (h *Handlers) Callback(w http.ResponseWriter, r *http.Request) {
	if h.auth == nil {
		writeError(w, http.StatusServiceUnavailable, "OAuth is not configured", nil)
		return
	}

	stateCookie, err := r.Cookie("oauth_state")
	if err != nil {
		redirectAuthError(w, r, "missing state cookie")
		return
	}
	state := r.URL.Query().Get("state")
	if state != stateCookie.Value {
		redirectAuthError(w, r, "state mismatch")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     "oauth_state",
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})

	if errMsg := r.URL.Query().Get("error"); errMsg != "" {
		redirectAuthError(w, r, errMsg)
		return
	}

	token, err := h.auth.Token(r.Context(), state, r)
	if err != nil {
		redirectAuthError(w, r, "token exchange failed")
		return
	}

	expiresIn := int(time.Until(token.Expiry).Seconds())
	if h.tokens != nil {
		h.tokens.SetUserToken(token.AccessToken, expiresIn)
	}

	fragment := url.Values{
		"auth":         {"success"},
		"access_token": {token.AccessToken},
		"expires_in":   {fmt.Sprint(expiresIn)},
	}
	http.Redirect(w, r, "/#"+fragment.Encode(), http.StatusTemporaryRedirect)
}

func redirectAuthError(w http.ResponseWriter, r *http.Request, msg string) {
	http.Redirect(w, r, "/#auth=error&message="+url.QueryEscape(msg), http.StatusTemporaryRedirect)
}

// SetToken handles POST /api/token, manually injecting a user-scoped
// bearer token.
func (h *Handlers) SetToken(w http.ResponseWriter, r *http.Request) {
	if h.tokens == nil {
		writeError(w, http.StatusServiceUnavailable, "Token store is not configured", nil)
		return
	}

	var body struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body", err)
		return
	}
	if body.AccessToken == "" {
		writeError(w, http.StatusBadRequest, "access_token is required", nil)
		return
	}

	h.tokens.SetUserToken(body.AccessToken, body.ExpiresIn)
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// TokenStatus handles GET /api/token/status.
func (h *Handlers) TokenStatus(w http.ResponseWriter, r *http.Request) {
	if h.tokens == nil {
		writeError(w, http.StatusServiceUnavailable, "Token store is not configured", nil)
		return
	}

	hasToken, expiresAt := h.tokens.UserTokenStatus()
	status := map[string]any{"hasUserToken": hasToken}
	if hasToken && !expiresAt.IsZero() {
		status["expiresAt"] = expiresAt.UTC().Format(time.RFC3339)
	}
	writeJSON(w, http.StatusOK, status)
}

func generateOAuthState() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
