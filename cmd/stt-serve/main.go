package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/snarg/stt-serve/internal/api"
	"github.com/snarg/stt-serve/internal/config"
	"github.com/snarg/stt-serve/internal/engine"
)

var version = "dev"

func main() {
	startTime := time.Now()

	var overrides config.Overrides
	flag.StringVar(&overrides.ConfigFile, "config", "", "path to config.yaml")
	flag.StringVar(&overrides.EnvFile, "env-file", "", "path to .env file")
	flag.StringVar(&overrides.Host, "host", "", "listen host (overrides config)")
	flag.IntVar(&overrides.Port, "port", 0, "listen port (overrides config)")
	flag.StringVar(&overrides.LogLevel, "log-level", "", "log level (overrides config)")
	flag.StringVar(&overrides.ModelPath, "model", "", "model path (overrides config)")
	flag.Parse()

	// Config
	cfg, err := config.Load(overrides)
	if err != nil {
		early := zerolog.New(os.Stderr).With().Timestamp().Logger()
		early.Fatal().Err(err).Msg("failed to load config")
	}

	// Logger
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	log := zerolog.New(os.Stdout).With().Timestamp().Logger().Level(level)
	log.Info().Str("version", version).Msg("stt-serve starting")

	// Context for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Decoding model — loaded once, immutable for the life of the process
	engineLog := log.With().Str("component", "engine").Logger()
	loadStart := time.Now()
	model, err := engine.New(engine.ModelConfig{
		ModelPath:            cfg.STT.Model,
		BeamWidth:            cfg.STT.BeamWidth,
		ScorerPath:           cfg.STT.Scorer,
		ScorerAlpha:          cfg.STT.ScorerAlpha,
		ScorerBeta:           cfg.STT.ScorerBeta,
		LMWeight:             cfg.STT.LMWeight,
		ValidWordCountWeight: cfg.STT.ValidWordCountWeight,
	}, engineLog)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load model")
	}
	defer model.Close()
	log.Info().Dur("load_ms", time.Since(loadStart)).Msg("model loaded")

	// HTTP Server
	httpLog := log.With().Str("component", "http").Logger()
	srv := api.NewServer(cfg, model, version, startTime, httpLog)

	// Start HTTP server in background
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	// Wait for shutdown signal or server error
	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			log.Error().Err(err).Msg("http server error")
		}
	}

	// Graceful shutdown with 10s timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http server shutdown error")
	}

	log.Info().Msg("stt-serve stopped")
}
