// Package main is the entry point for the cycleview server.
// It serves interactive cycle overlay sessions over the analysis pipeline's
// published artifacts (summary, series, spectrum, cycles and waves per series).
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aristath/cycleview/internal/config"
	"github.com/aristath/cycleview/internal/di"
	"github.com/aristath/cycleview/internal/server"
	"github.com/aristath/cycleview/pkg/logger"
)

func main() {
	// Load configuration first to get log level
	cfg, err := config.Load()
	if err != nil {
		// Use fallback logger if config fails
		fallbackLog := logger.New(logger.Config{
			Level:  "info",
			Pretty: true,
		})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})
	logger.SetGlobalLogger(log)

	log.Info().
		Str("source", cfg.Source.Kind).
		Str("data_dir", cfg.DataDir).
		Msg("Starting cycleview")

	// Wire all dependencies using DI container
	// (cache database, source chain, catalog, events, sessions, jobs)
	container, _, err := di.Wire(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to wire dependencies")
	}

	srv := server.New(server.Config{
		Log:       log,
		Config:    cfg,
		Container: container,
		Port:      cfg.Port,
		DevMode:   cfg.DevMode,
	})

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	container.Scheduler.Start()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// No new maintenance runs; waits for a running job
	container.Scheduler.Stop()

	// Graceful shutdown
	// In-flight requests get up to 10 seconds; open streams are ended.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	// Ends every session (cancels outstanding retrievals) and closes the cache database
	if err := container.Close(); err != nil {
		log.Error().Err(err).Msg("Failed to close cache database")
	}

	log.Info().Msg("Server stopped")
}
