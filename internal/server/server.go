// Package server exposes the application over HTTP and streams status and
// chat events to websocket clients.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"codearh/internal/app"
	"codearh/internal/config"
	"codearh/internal/logging"
)

// Server is the HTTP API.
type Server struct {
	app    *app.App
	cfg    config.ServerConfig
	router chi.Router
}

// New creates a server over a.
func New(a *app.App, cfg config.ServerConfig) *Server {
	s := &Server{app: a, cfg: cfg}
	s.router = s.routes()
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(requestLogger)
	r.Use(chiMiddleware.Recoverer)

	timeout := s.cfg.WriteTimeout
	if timeout <= 0 {
		timeout = config.DefaultWriteTimeout
	}

	r.Route("/api", func(r chi.Router) {
		// Model calls and the event stream outlive the regular timeout.
		r.Post("/messages", s.postMessage)
		r.Get("/events", s.events)

		r.Group(func(r chi.Router) {
			r.Use(chiMiddleware.Timeout(timeout))
			r.Get("/health", s.health)
			r.Get("/state", s.state)

			r.Get("/agents", s.listAgents)
			r.Post("/agents/{id}/toggle", s.toggleAgent)
			r.Put("/agents/{id}/model", s.setAgentModel)
			r.Post("/agents/{id}/instructions", s.addInstruction)
			r.Delete("/agents/{id}/instructions/{name}", s.removeInstruction)

			r.Get("/files", s.listFiles)
			r.Get("/files/*", s.getFile)
			r.Get("/messages", s.listMessages)

			r.Get("/history", s.history)
			r.Post("/undo", s.undo)
			r.Post("/redo", s.redo)
		})
	})
	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:        s.cfg.Addr,
		Handler:     s.router,
		ReadTimeout: 30 * time.Second,
		// 0: model calls and websocket streams are long-lived
		WriteTimeout: 0,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logging.Info("http server listening", "addr", s.cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.DefaultGracefulShutdown)
	defer cancel()
	logging.Info("http server shutting down")
	return srv.Shutdown(shutdownCtx)
}

// requestLogger logs each request through the application logger.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		logging.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"elapsed", time.Since(start),
			"request_id", chiMiddleware.GetReqID(r.Context()))
	})
}
