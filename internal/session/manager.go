package session

import (
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/fdtlabs/fraudlens/internal/cache"
	"github.com/fdtlabs/fraudlens/internal/domain"
	"github.com/fdtlabs/fraudlens/internal/events"
	"github.com/fdtlabs/fraudlens/internal/notify"
	"github.com/fdtlabs/fraudlens/internal/scheduler"
	"github.com/fdtlabs/fraudlens/internal/stream"
	"github.com/fdtlabs/fraudlens/internal/watch"
)

// Manager owns the session lifecycle: login wipes shared state and
// brings up a fresh session with its stream and poll, logout tears it
// all down. It also serves as the token source for the polling job.
type Manager struct {
	backend   domain.Backend
	cache     *cache.Cache
	ledger    *notify.Ledger
	bus       *events.Bus
	sched     *scheduler.Scheduler
	dialer    stream.Dialer
	streamURL string
	log       zerolog.Logger

	pollSchedule   string
	reconnectDelay time.Duration
	ringCapacity   int

	mu      sync.Mutex
	current *Session
	stream  *stream.Client
	watcher *watch.DelayedWatcher
	token   string
}

// ManagerConfig holds the manager's dependencies. PollSchedule,
// ReconnectDelay and RingCapacity are optional operational overrides;
// zero values mean the contract defaults.
type ManagerConfig struct {
	Backend   domain.Backend
	Cache     *cache.Cache
	Ledger    *notify.Ledger
	Bus       *events.Bus
	Scheduler *scheduler.Scheduler
	Dialer    stream.Dialer
	StreamURL string
	Log       zerolog.Logger

	PollSchedule   string
	ReconnectDelay time.Duration
	RingCapacity   int
}

// NewManager creates a session manager.
func NewManager(cfg ManagerConfig) *Manager {
	pollSchedule := cfg.PollSchedule
	if pollSchedule == "" {
		pollSchedule = watch.Schedule
	}

	return &Manager{
		backend:        cfg.Backend,
		cache:          cfg.Cache,
		ledger:         cfg.Ledger,
		bus:            cfg.Bus,
		sched:          cfg.Scheduler,
		dialer:         cfg.Dialer,
		streamURL:      cfg.StreamURL,
		log:            cfg.Log.With().Str("component", "session_manager").Logger(),
		pollSchedule:   pollSchedule,
		reconnectDelay: cfg.ReconnectDelay,
		ringCapacity:   cfg.RingCapacity,
	}
}

// Token implements domain.TokenSource for the polling job.
func (m *Manager) Token() (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token, m.token != ""
}

// RegisterJobs adds the delayed-transaction poll to the scheduler. The
// job itself stays registered across sessions; it forwards ticks to the
// active session's watcher and no-ops when there is none.
func (m *Manager) RegisterJobs() error {
	return m.sched.AddJob(m.pollSchedule, &watchJob{m: m})
}

// watchJob forwards scheduler ticks to the active session's watcher.
type watchJob struct {
	m *Manager
}

// Name returns the job name
func (j *watchJob) Name() string {
	return "delayed_watch"
}

// Run executes one poll against the active watcher, if any
func (j *watchJob) Run() error {
	j.m.mu.Lock()
	watcher := j.m.watcher
	j.m.mu.Unlock()

	if watcher == nil {
		return nil
	}
	return watcher.Run()
}

// StartSession begins a session for the given user, replacing any active
// one. Shared state is wiped first, then the stream connects and the
// initial transaction load and delayed-transaction poll run in the
// background.
func (m *Manager) StartSession(userID, token string) (*Session, error) {
	if userID == "" {
		return nil, errors.New("user id required")
	}
	if token == "" {
		return nil, errors.New("token required")
	}

	m.mu.Lock()
	m.endSessionLocked()

	// Nothing cached or alerted may leak across logins.
	m.cache.Clear()
	m.ledger.ClearAll()
	m.token = token

	sess := newSession(m, userID, token)
	client := stream.NewClient(m.streamURL, m.dialer, sess, m.log)
	client.SetReconnectDelay(m.reconnectDelay)
	watcher := watch.NewDelayedWatcher(m.backend, m, m.ledger, m.bus, m.log)

	m.current = sess
	m.stream = client
	m.watcher = watcher
	m.mu.Unlock()

	// The dial and the first fetches can block for seconds; none of them
	// may hold the manager lock.
	go func() { _ = client.Start() }()
	go func() {
		if err := sess.Reload(); err != nil {
			m.log.Warn().Err(err).Msg("Initial transaction load failed")
		}
	}()
	go func() { _ = m.sched.RunNow(&watchJob{m: m}) }()

	m.log.Info().Str("user_id", userID).Msg("Session started")
	m.bus.Emit(events.SessionStarted, "session_manager", &events.SessionStartedData{UserID: userID})
	return sess, nil
}

// EndSession tears down the active session. Safe to call when none is
// active.
func (m *Manager) EndSession() {
	m.mu.Lock()
	ended := m.endSessionLocked()
	m.mu.Unlock()

	if ended {
		m.bus.Emit(events.SessionEnded, "session_manager", nil)
	}
}

// endSessionLocked stops the stream and the poll and wipes shared state.
// Callers hold m.mu.
func (m *Manager) endSessionLocked() bool {
	if m.current == nil {
		return false
	}

	userID := m.current.UserID()
	m.current.close()

	if m.stream != nil {
		if err := m.stream.Stop(); err != nil {
			m.log.Warn().Err(err).Msg("Stream shutdown reported an error")
		}
	}

	m.current = nil
	m.stream = nil
	m.watcher = nil
	m.token = ""

	m.cache.Clear()
	m.ledger.ClearAll()

	m.log.Info().Str("user_id", userID).Msg("Session ended")
	return true
}

// Current returns the active session, or nil.
func (m *Manager) Current() *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// Active reports whether a session is live.
func (m *Manager) Active() bool {
	return m.Current() != nil
}

// Status describes the live session for the status endpoint.
type Status struct {
	Active        bool   `json:"active"`
	UserID        string `json:"user_id,omitempty"`
	StreamState   string `json:"stream_state"`
	WatcherHalted bool   `json:"watcher_halted"`
	WindowSize    int    `json:"window_size"`
	UnreadAlerts  int    `json:"unread_alerts"`
}

// Status reports the state of the current session.
func (m *Manager) Status() Status {
	m.mu.Lock()
	sess := m.current
	client := m.stream
	watcher := m.watcher
	m.mu.Unlock()

	status := Status{StreamState: stream.StateDisconnected.String()}
	if sess == nil {
		return status
	}

	status.Active = true
	status.UserID = sess.UserID()
	status.WindowSize = sess.WindowSize()
	status.UnreadAlerts = m.ledger.UnreadCount()
	if client != nil {
		status.StreamState = client.State().String()
	}
	if watcher != nil {
		status.WatcherHalted = watcher.Halted()
	}
	return status
}

// Verify interface implementations
var (
	_ domain.TokenSource = (*Manager)(nil)
	_ scheduler.Job      = (*watchJob)(nil)
)
