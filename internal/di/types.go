/**
 * Package di provides dependency injection type definitions.
 *
 * This package defines the Container type which holds all application
 * dependencies. The Container is the single source of truth for all
 * long-lived instances and is created once by Wire() at startup.
 */
package di

import (
	"github.com/rs/zerolog"

	"github.com/fdtlabs/fraudlens/internal/cache"
	"github.com/fdtlabs/fraudlens/internal/clock"
	"github.com/fdtlabs/fraudlens/internal/config"
	"github.com/fdtlabs/fraudlens/internal/domain"
	"github.com/fdtlabs/fraudlens/internal/events"
	"github.com/fdtlabs/fraudlens/internal/notify"
	"github.com/fdtlabs/fraudlens/internal/scheduler"
	"github.com/fdtlabs/fraudlens/internal/session"
	"github.com/fdtlabs/fraudlens/internal/stream"
)

/**
 * Container holds all dependencies for the application.
 *
 * Architecture:
 * - Shared state: TTL cache and notification ledger, wiped on login and logout
 * - Clients: fraud-engine HTTP backend and WebSocket stream dialer
 * - Sessions: manager owning the per-login session lifecycle
 * - Events: synchronous bus feeding the SSE stream
 *
 * All dependencies are injected via constructor injection.
 */
type Container struct {
	Config *config.Config
	Log    zerolog.Logger

	// Core runtime
	Clock clock.Clock
	Bus   *events.Bus
	Jobs  *scheduler.Scheduler

	// Shared client state, cleared on session boundaries
	Cache  *cache.Cache
	Ledger *notify.Ledger

	// Clients - external integrations
	Backend domain.Backend // fraud-engine HTTP API
	Dialer  stream.Dialer  // WebSocket transaction feed

	// Session lifecycle
	Sessions *session.Manager
}
