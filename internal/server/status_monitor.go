package server

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/fdtlabs/fraudlens/internal/events"
	"github.com/fdtlabs/fraudlens/internal/session"
)

// StatusMonitor periodically samples system load and the stream
// connection, emitting events the dashboard's status widgets consume.
type StatusMonitor struct {
	bus            *events.Bus
	systemHandlers *SystemHandlers
	manager        *session.Manager
	log            zerolog.Logger

	mu              sync.Mutex
	lastStreamState string
	stopChan        chan struct{}
	stopped         bool
}

// NewStatusMonitor creates a new status monitor.
func NewStatusMonitor(bus *events.Bus, systemHandlers *SystemHandlers, manager *session.Manager, log zerolog.Logger) *StatusMonitor {
	return &StatusMonitor{
		bus:            bus,
		systemHandlers: systemHandlers,
		manager:        manager,
		log:            log.With().Str("component", "status_monitor").Logger(),
		stopChan:       make(chan struct{}),
	}
}

// Start begins periodic status monitoring.
func (m *StatusMonitor) Start(interval time.Duration) {
	go m.monitor(interval)
}

// Stop halts the monitoring loop. Safe to call more than once.
func (m *StatusMonitor) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stopped {
		return
	}
	m.stopped = true
	close(m.stopChan)
}

// monitor runs the periodic monitoring loop.
func (m *StatusMonitor) monitor(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	m.checkStatuses()

	for {
		select {
		case <-m.stopChan:
			return
		case <-ticker.C:
			m.checkStatuses()
		}
	}
}

// checkStatuses samples everything once and emits what changed.
func (m *StatusMonitor) checkStatuses() {
	m.checkStreamStatus()
	m.emitSystemStatus()
}

// checkStreamStatus emits an event when the feed connection state moved
// since the last check.
func (m *StatusMonitor) checkStreamStatus() {
	state := m.manager.Status().StreamState

	m.mu.Lock()
	changed := state != m.lastStreamState
	m.lastStreamState = state
	m.mu.Unlock()

	if !changed {
		return
	}

	m.log.Info().Str("state", state).Msg("Stream connection state changed")
	m.bus.Emit(events.StreamStatusChanged, "status_monitor", &events.StreamStatusChangedData{
		State: state,
	})
}

// emitSystemStatus publishes a periodic load sample.
func (m *StatusMonitor) emitSystemStatus() {
	cpuPercent, memPercent := m.systemHandlers.getSystemStats()

	m.bus.Emit(events.SystemStatusChanged, "status_monitor", &events.SystemStatusChangedData{
		Status:        "ok",
		CPUPercent:    cpuPercent,
		MemoryPercent: memPercent,
		Timestamp:     time.Now().Format(time.RFC3339),
	})
}
