// Package web serves the single-page designer and the JSON API behind it.
package web

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/iamvkosarev/ai-interior-designer/config"
	"github.com/iamvkosarev/ai-interior-designer/internal/logging"
	"github.com/iamvkosarev/ai-interior-designer/internal/usecase"
	"github.com/iamvkosarev/ai-interior-designer/pkg/local"
)

//go:embed templates/* static/*
var embeddedFS embed.FS

type Server struct {
	cfg       config.HTTP
	sessions  *usecase.SessionUsecase
	language  local.Language
	logger    *slog.Logger
	templates *template.Template
	server    *http.Server
}

func NewServer(
	cfg config.HTTP, sessions *usecase.SessionUsecase, language local.Language, logger *slog.Logger,
) (*Server, error) {
	if logger == nil {
		logger = logging.Discard()
	}
	tmpl, err := template.ParseFS(embeddedFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	s := &Server{
		cfg:       cfg,
		sessions:  sessions,
		language:  language,
		logger:    logger.With("component", "http"),
		templates: tmpl,
	}

	mux := http.NewServeMux()
	s.registerRoutes(mux)

	s.server = &http.Server{
		Addr:        cfg.Addr,
		Handler:     chainMiddlewares(mux, withCORS, withRecover(s.logger), withRequestLog(s.logger)),
		ReadTimeout: cfg.ReadTimeout,
		IdleTimeout: cfg.IdleTimeout,
	}
	return s, nil
}

// Handler is the fully wrapped request handler.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

func (s *Server) registerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.Handle("GET /static/", http.FileServer(http.FS(embeddedFS)))
	mux.HandleFunc("GET /healthz", s.handleHealthz)

	mux.HandleFunc("GET /api/styles", s.handleStyles)
	mux.HandleFunc("POST /api/sessions", s.handleCreateSession)
	mux.HandleFunc("GET /api/sessions/{id}", s.handleGetSession)
	mux.HandleFunc("POST /api/sessions/{id}/image", s.handleUploadImage)
	mux.HandleFunc("POST /api/sessions/{id}/reimagine", s.handleReimagine)
	mux.HandleFunc("POST /api/sessions/{id}/messages", s.handleSendMessage)
	mux.HandleFunc("GET /api/sessions/{id}/images/{kind}", s.handleImage)
}

// ListenAndServe serves until ctx is done, then shuts down within the configured timeout.
func (s *Server) ListenAndServe(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting web server", "addr", "http://"+s.cfg.Addr)
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("shutting down web server")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.ShutdownTimeout)
		defer cancel()
		if err := s.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}
		s.logger.Info("web server stopped")
		return nil
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	}
}
