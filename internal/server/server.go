// Package server exposes the story pipeline over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"storyweaver/internal/app"
	"storyweaver/internal/imagegen"
	"storyweaver/internal/story"
	"storyweaver/pkg/httputil"
)

const (
	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 15 * time.Second
	maxBodyBytes      = 1 << 20
)

// Pipeline is the subset of app.Pipeline served over HTTP.
type Pipeline interface {
	GenerateStory(ctx context.Context, req story.Request, opts ...app.GenerateOption) (*story.Story, error)
	AcquireImage(ctx context.Context, req app.ImageRequest) (*app.ImageResponse, error)
	ProbeProviders(ctx context.Context) []imagegen.ProviderStatus
}

type Config struct {
	Addr        string
	Development bool
}

type Server struct {
	cfg      Config
	pipeline Pipeline
	proxy    *httputil.RetryClient
	http     *http.Server
}

func New(cfg Config, pipeline Pipeline, proxy *httputil.RetryClient) *Server {
	s := &Server{
		cfg:      cfg,
		pipeline: pipeline,
		proxy:    proxy,
	}
	s.http = &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
	}
	return s
}

// Handler returns the routed handler wrapped in the middleware stack.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/stories/generate-text", s.handleGenerateText)
	mux.HandleFunc("POST /api/stories/generate-image", s.handleGenerateImage)
	mux.HandleFunc("GET /api/stories/image-proxy", s.handleImageProxy)
	mux.HandleFunc("GET /api/stories/{$}", s.handleAPIStatus)
	mux.HandleFunc("GET /health/providers", s.handleProviderHealth)
	mux.HandleFunc("GET /{$}", s.handleRoot)

	return Chain(mux, RecoverPanic(), LogRequests(), CORS())
}

// Run serves until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		slog.Info("Server listening", "addr", s.cfg.Addr)
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.http.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
