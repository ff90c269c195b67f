// Package api exposes the engine over HTTP: listing CRUD behind the
// gatekeeper chain, manual policy triggers, previews, queue control, and
// job history.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/flipflow/flipflow/internal/config"
	"github.com/flipflow/flipflow/internal/engine"
	"github.com/flipflow/flipflow/internal/gateway"
	"github.com/flipflow/flipflow/internal/store"
)

// Server is the HTTP front of the engine.
type Server struct {
	config  config.ServerConfig
	handler http.Handler
	server  *http.Server
	router  *chi.Mux
}

// NewServer wires handlers and routes.
func NewServer(cfg *config.Config, st store.Store, gw gateway.Gateway, coord *engine.Coordinator) *Server {
	handlers := NewHandlers(cfg, st, gw, coord)
	router := SetupRoutes(handlers)

	return &Server{
		config:  cfg.Server,
		handler: router,
		router:  router,
	}
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe(addr string) error {
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.handler,
		ReadTimeout:       30 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Handler returns the HTTP handler for testing.
func (s *Server) Handler() http.Handler {
	return s.handler
}
