// Package api exposes the status tracker and the orchestrator over HTTP.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/httplog"
	"github.com/gorilla/mux"

	"ufunda-orchestrator/internal/application/port/output"
)

const shutdownTimeout = 10 * time.Second

type ServerConfig struct {
	Addr string
	// WriteTimeout bounds a synchronous POST /v1/runs, so it should exceed the bot timeout.
	WriteTimeout time.Duration
}

type Server struct {
	srv    *http.Server
	logger output.LoggerPort
}

// SetupRoutes wires every endpoint. The event stream is registered ahead of the /v1
// subrouter so request logging never wraps the websocket.
func (h *Handler) SetupRoutes(hub *Hub, requestLogger func(http.Handler) http.Handler) *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/healthz", Health).Methods("GET")
	r.HandleFunc("/v1/events", hub.ServeWS).Methods("GET")

	api := r.PathPrefix("/v1").Subrouter()
	if requestLogger != nil {
		api.Use(requestLogger)
	}

	api.HandleFunc("/notifications", h.CreateNotification).Methods("POST")
	api.HandleFunc("/applications", h.ListApplications).Methods("GET")
	api.HandleFunc("/applications/{id}", h.GetApplication).Methods("GET")
	api.HandleFunc("/applications/{id}/update", h.UpdateApplication).Methods("POST")
	api.HandleFunc("/bot/status", h.UpdateBotStatus).Methods("POST")
	api.HandleFunc("/bots", h.ListBots).Methods("GET")
	api.HandleFunc("/runs", h.CreateRun).Methods("POST")
	api.HandleFunc("/runs/latest", h.LatestRun).Methods("GET")

	return r
}

// RequestLogger returns the httplog middleware used for the /v1 routes.
func RequestLogger(level string) func(http.Handler) http.Handler {
	l := httplog.NewLogger("ufunda-orchestrator", httplog.Options{
		LogLevel: level,
		JSON:     true,
		Concise:  true,
	})
	return httplog.RequestLogger(l)
}

func NewServer(cfg ServerConfig, handler http.Handler, logger output.LoggerPort) *Server {
	if cfg.Addr == "" {
		cfg.Addr = ":8080"
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 10 * time.Minute
	}
	return &Server{
		srv: &http.Server{
			Addr:         cfg.Addr,
			Handler:      handler,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: cfg.WriteTimeout,
			IdleTimeout:  60 * time.Second,
		},
		logger: logger,
	}
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP server starting", "addr", s.srv.Addr)
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("HTTP server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
