package di

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fdtlabs/fraudlens/internal/config"
)

func TestWire(t *testing.T) {
	cfg := &config.Config{
		Port:           8080,
		BackendURL:     "http://localhost:8000",
		StreamURL:      "ws://localhost:8000/ws/transactions",
		LogLevel:       "info",
		PollInterval:   config.DefaultPollInterval,
		ReconnectDelay: config.DefaultReconnectDelay,
		RingCapacity:   config.DefaultRingCapacity,
	}
	log := zerolog.Nop()

	container, err := Wire(cfg, log)
	require.NoError(t, err)
	require.NotNil(t, container)

	// Verify container is fully populated
	assert.NotNil(t, container.Clock)
	assert.NotNil(t, container.Bus)
	assert.NotNil(t, container.Jobs)
	assert.NotNil(t, container.Cache)
	assert.NotNil(t, container.Ledger)
	assert.NotNil(t, container.Backend)
	assert.NotNil(t, container.Dialer)
	assert.NotNil(t, container.Sessions)
	assert.Same(t, cfg, container.Config)

	// No session yet, so nothing should be active
	status := container.Sessions.Status()
	assert.False(t, status.Active)
	assert.Equal(t, "disconnected", status.StreamState)
}
