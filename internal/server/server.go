// Package server provides the HTTP gateway the dashboard UI talks to.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/fdtlabs/fraudlens/internal/cache"
	"github.com/fdtlabs/fraudlens/internal/events"
	"github.com/fdtlabs/fraudlens/internal/notify"
	"github.com/fdtlabs/fraudlens/internal/session"
)

// statusMonitorInterval is how often the background monitor samples
// system load and the stream state.
const statusMonitorInterval = 60 * time.Second

var validate = validator.New()

// Config holds server configuration
type Config struct {
	Port    int
	DevMode bool
	Log     zerolog.Logger

	Manager *session.Manager
	Ledger  *notify.Ledger
	Cache   *cache.Cache
	Bus     *events.Bus
}

// Server represents the HTTP server
type Server struct {
	router  *chi.Mux
	server  *http.Server
	log     zerolog.Logger
	port    int
	manager *session.Manager
	ledger  *notify.Ledger
	bus     *events.Bus

	systemHandlers *SystemHandlers
	statusMonitor  *StatusMonitor
}

// New creates a new HTTP server
func New(cfg Config) *Server {
	s := &Server{
		router:         chi.NewRouter(),
		log:            cfg.Log.With().Str("component", "server").Logger(),
		port:           cfg.Port,
		manager:        cfg.Manager,
		ledger:         cfg.Ledger,
		bus:            cfg.Bus,
		systemHandlers: NewSystemHandlers(cfg.Log, cfg.Manager, cfg.Cache),
	}

	s.statusMonitor = NewStatusMonitor(cfg.Bus, s.systemHandlers, cfg.Manager, cfg.Log)

	s.setupMiddleware(cfg.DevMode)
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// setupMiddleware configures middleware
func (s *Server) setupMiddleware(devMode bool) {
	// Recovery from panics
	s.router.Use(middleware.Recoverer)

	// Request ID
	s.router.Use(middleware.RequestID)

	// Real IP
	s.router.Use(middleware.RealIP)

	// Logging
	s.router.Use(s.loggingMiddleware)

	// Timeout
	s.router.Use(middleware.Timeout(60 * time.Second))

	// CORS
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Compress responses
	if !devMode {
		s.router.Use(middleware.Compress(5))
	}
}

// setupRoutes configures all routes
func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		// Unified events stream (SSE). The handler hijacks the write
		// deadline, so it sits outside the JSON helpers.
		eventsStreamHandler := NewEventsStreamHandler(s.bus, s.log)
		r.Get("/events/stream", eventsStreamHandler.ServeHTTP)

		r.Post("/session", s.handleLogin)
		r.Delete("/session", s.handleLogout)
		r.Get("/session", s.handleSessionStatus)

		r.Get("/transactions", s.handleTransactions)
		r.Get("/transactions/live", s.handleLiveWindow)

		r.Get("/dashboard", s.handleDashboard)
		r.Get("/dashboard/recent", s.handleRecentTransactions)

		r.Get("/analytics", s.handleAnalytics)

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", s.handleNotifications)
			r.Post("/{id}/read", s.handleMarkNotificationRead)
			r.Delete("/{id}", s.handleDeleteNotification)
			r.Delete("/", s.handleClearNotifications)
		})

		r.Post("/decision", s.handleDecision)

		r.Get("/system/status", s.systemHandlers.HandleSystemStatus)
	})
}

// Start begins listening for requests. It blocks until the server is
// shut down.
func (s *Server) Start() error {
	if s.statusMonitor != nil {
		s.statusMonitor.Start(statusMonitorInterval)
		s.log.Info().Msg("Status monitor started")
	}

	s.log.Info().Int("port", s.port).Msg("Starting HTTP server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("Shutting down HTTP server")
	if s.statusMonitor != nil {
		s.statusMonitor.Stop()
	}
	return s.server.Shutdown(ctx)
}

// Router exposes the handler tree, mainly for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "healthy",
		"service": "fraudlens",
		"version": "1.0.0",
	})
}

// writeJSON writes a JSON response
func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// writeError writes a JSON error response
func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{
		"status": "error",
		"error":  message,
	})
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration_ms", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("HTTP request")
	})
}
