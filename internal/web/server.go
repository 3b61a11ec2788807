// Package web exposes the stored catalog over HTTP.
package web

import (
	"context"
	"fmt"
	"io/fs"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	spotifyauth "github.com/zmb3/spotify/v2/auth"

	"github.com/nrivara/spotify-bpm-catalog/internal/catalog"
	catsync "github.com/nrivara/spotify-bpm-catalog/internal/sync"
)

// DefaultAddr is the default server address.
const DefaultAddr = "127.0.0.1:3000"

// TrackStore is the read/write persistence surface the handlers need.
type TrackStore interface {
	List(ctx context.Context) ([]catalog.Track, error)
	ListByArtist(ctx context.Context, artistName string) ([]catalog.Track, error)
	GetBySpotifyID(ctx context.Context, spotifyID string) (*catalog.Track, error)
	GetByRowID(ctx context.Context, id int64) (*catalog.Track, error)
}

// Syncer runs one background sync pass.
type Syncer interface {
	Run(ctx context.Context) (*catsync.Result, error)
}

// TokenHolder manages the user-scoped bearer token that unlocks the
// tempo endpoint.
type TokenHolder interface {
	SetUserToken(token string, expiresIn int)
	UserTokenStatus() (bool, time.Time)
}

// ServerConfig holds server construction parameters.
type ServerConfig struct {
	Addr         string
	ClientID     string
	ClientSecret string
	RedirectURI  string
	CronSecret   string
	StaticFS     fs.FS

	Store  TrackStore
	Syncer Syncer
	Tokens TokenHolder
}

// Server is the catalog HTTP server.
type Server struct {
	router   chi.Router
	server   *http.Server
	handlers *Handlers
}

// NewServer creates the catalog web server.
func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}
	if cfg.Store == nil {
		return nil, fmt.Errorf("server requires a track store")
	}

	var auth *spotifyauth.Authenticator
	if cfg.ClientID != "" && cfg.RedirectURI != "" {
		auth = spotifyauth.New(
			spotifyauth.WithClientID(cfg.ClientID),
			spotifyauth.WithClientSecret(cfg.ClientSecret),
			spotifyauth.WithRedirectURL(cfg.RedirectURI),
			spotifyauth.WithScopes(
				spotifyauth.ScopeUserReadPrivate,
				spotifyauth.ScopeUserReadEmail,
			),
		)
	}

	handlers := NewHandlers(cfg.Store, cfg.Syncer, cfg.Tokens, auth, cfg.CronSecret)

	router := chi.NewRouter()
	s := &Server{
		router:   router,
		handlers: handlers,
	}

	s.setupMiddleware()
	s.setupRoutes(cfg.StaticFS)

	s.server = &http.Server{
		Addr:         cfg.Addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s, nil
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))
}

func (s *Server) setupRoutes(staticFS fs.FS) {
	s.router.Get("/health", s.handlers.Health)

	s.router.Get("/tracks", s.handlers.ListTracks)
	s.router.Get("/tracks/{id}", s.handlers.GetTrack)
	s.router.Get("/artists", s.handlers.ListArtists)
	s.router.Get("/artists/{name}/tracks", s.handlers.ListArtistTracks)
	s.router.Get("/metrics/global", s.handlers.GlobalMetrics)
	s.router.Get("/metrics/artist/{name}", s.handlers.ArtistMetrics)
	s.router.Get("/metrics/tempo-clusters", s.handlers.TempoClusters)

	s.router.Post("/api/sync", s.handlers.TriggerSync)
	s.router.Get("/api/cron", s.handlers.CronSync)

	s.router.Get("/api/auth/login", s.handlers.Login)
	s.router.Get("/api/auth/callback", s.handlers.Callback)
	s.router.Post("/api/token", s.handlers.SetToken)
	s.router.Get("/api/token/status", s.handlers.TokenStatus)

	if staticFS != nil {
		fileServer := http.FileServer(http.FS(staticFS))
		s.router.Handle("/*", fileServer)
	}
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	log.Printf("Starting server at http://%s", s.server.Addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// Run starts the server and handles graceful shutdown on interrupt signals.
func (s *Server) Run() error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		if err := s.Start(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-stop:
		log.Println("Shutting down server...")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	log.Println("Server stopped")
	return nil
}
