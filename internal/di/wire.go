// Package di provides dependency injection wiring and initialization.
package di

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/fdtlabs/fraudlens/internal/cache"
	"github.com/fdtlabs/fraudlens/internal/clients/fraudapi"
	"github.com/fdtlabs/fraudlens/internal/clock"
	"github.com/fdtlabs/fraudlens/internal/config"
	"github.com/fdtlabs/fraudlens/internal/events"
	"github.com/fdtlabs/fraudlens/internal/notify"
	"github.com/fdtlabs/fraudlens/internal/sched"
	"github.com/fdtlabs/fraudlens/internal/scheduler"
	"github.com/fdtlabs/fraudlens/internal/session"
	"github.com/fdtlabs/fraudlens/internal/stream"
)

// Wire initializes all dependencies and returns a fully configured container.
// This is the main entry point for dependency injection.
// Order of operations:
// 1. Core runtime (clock, event bus, job scheduler)
// 2. Shared state (TTL cache, notification ledger)
// 3. Backend clients (HTTP API, WebSocket dialer)
// 4. Session manager and job registration
func Wire(cfg *config.Config, log zerolog.Logger) (*Container, error) {
	// Step 1: Core runtime
	clk := clock.System()
	bus := events.NewBus(log)
	jobs := scheduler.New(log)

	// Step 2: Shared state
	dataCache := cache.New(clk, log)
	ledger := notify.New(clk, sched.New(), log)

	// Step 3: Backend clients
	backend := fraudapi.NewClient(cfg.BackendURL, log)
	dialer := stream.NewWebsocketDialer()

	// Step 4: Session manager and job registration
	sessions := session.NewManager(session.ManagerConfig{
		Backend:        backend,
		Cache:          dataCache,
		Ledger:         ledger,
		Bus:            bus,
		Scheduler:      jobs,
		Dialer:         dialer,
		StreamURL:      cfg.StreamURL,
		Log:            log,
		PollSchedule:   fmt.Sprintf("@every %s", cfg.PollInterval),
		ReconnectDelay: cfg.ReconnectDelay,
		RingCapacity:   cfg.RingCapacity,
	})
	if err := sessions.RegisterJobs(); err != nil {
		return nil, fmt.Errorf("failed to register jobs: %w", err)
	}

	log.Info().Msg("Dependency injection wiring completed successfully")

	return &Container{
		Config:   cfg,
		Log:      log,
		Clock:    clk,
		Bus:      bus,
		Jobs:     jobs,
		Cache:    dataCache,
		Ledger:   ledger,
		Backend:  backend,
		Dialer:   dialer,
		Sessions: sessions,
	}, nil
}
