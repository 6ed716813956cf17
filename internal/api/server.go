package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/snarg/stt-serve/internal/config"
	"github.com/snarg/stt-serve/internal/engine"
	"github.com/snarg/stt-serve/internal/metrics"
	"github.com/snarg/stt-serve/internal/stt"
)

type Server struct {
	http *http.Server
	log  zerolog.Logger
}

func NewServer(cfg *config.Config, model engine.Model, version string, startTime time.Time, log zerolog.Logger) *Server {
	r := chi.NewRouter()

	// Global middleware
	r.Use(RequestID)
	r.Use(Recoverer)
	r.Use(Logger(log))
	r.Use(metrics.InstrumentHandler)

	gate := stt.NewGate(cfg.STT.MaxConcurrent)

	// Health and metrics — no auth
	health := NewHealthHandler(model, gate, version, startTime)
	r.Get("/api/v1/health", health.ServeHTTP)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	// Transcription endpoint
	r.Group(func(r chi.Router) {
		r.Use(BearerAuth(cfg.Server.AuthToken))
		r.Post("/stt", NewSTTHandler(model, gate).ServeHTTP)
	})

	return &Server{
		http: &http.Server{
			Addr:         cfg.Server.Addr(),
			Handler:      r,
			ReadTimeout:  cfg.Server.GetReadTimeout(),
			WriteTimeout: cfg.Server.GetWriteTimeout(),
			IdleTimeout:  cfg.Server.GetIdleTimeout(),
		},
		log: log,
	}
}

func (s *Server) Start() error {
	s.log.Info().Str("addr", s.http.Addr).Msg("http server starting")
	err := s.http.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("http server shutting down")
	return s.http.Shutdown(ctx)
}
