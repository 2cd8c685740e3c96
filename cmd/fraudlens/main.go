// Package main is the entry point for the FraudLens transaction intelligence
// service. It sits between the UPI fraud-engine backend and the analyst
// dashboard, maintaining the live transaction window, the notification ledger
// and the cached views the dashboard reads.
//
// The application follows clean architecture principles:
// - Domain layer is pure (no infrastructure dependencies)
// - Dependency injection via DI container
// - Session layer owns all per-login state
// - HTTP handlers and an SSE stream serve the dashboard
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fdtlabs/fraudlens/internal/config"
	"github.com/fdtlabs/fraudlens/internal/di"
	"github.com/fdtlabs/fraudlens/internal/server"
	"github.com/fdtlabs/fraudlens/pkg/logger"
)

// main orchestrates the startup sequence:
// 1. Loads configuration from environment variables
// 2. Initializes logging
// 3. Wires all dependencies via the DI container
// 4. Starts the job scheduler and HTTP server
// 5. Waits for a shutdown signal and tears everything down
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

	// Initialize logger with config level
	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.LogPretty,
	})
	logger.SetGlobalLogger(log)

	log.Info().Msg("Starting FraudLens")

	// Wire all dependencies using DI container
	container, err := di.Wire(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to wire dependencies")
	}

	// Start the job scheduler. The delayed-transaction poll is registered at
	// wire time but only does work while a session is active.
	container.Jobs.Start()

	// Initialize HTTP server
	srv := server.New(server.Config{
		Port:    cfg.Port,
		DevMode: cfg.DevMode,
		Log:     log,
		Manager: container.Sessions,
		Ledger:  container.Ledger,
		Cache:   container.Cache,
		Bus:     container.Bus,
	})

	// Start server in goroutine so the shutdown handling below can run
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	log.Info().Int("port", cfg.Port).Msg("Server started successfully")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down...")

	// End the active session, if any. This closes the stream connection,
	// halts the delayed-transaction watcher and wipes the shared cache and
	// notification ledger.
	container.Sessions.EndSession()

	// Stop the scheduler and wait for running jobs to finish
	container.Jobs.Stop()

	// Graceful shutdown with a deadline for in-flight requests
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}
