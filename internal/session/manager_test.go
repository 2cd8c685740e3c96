package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fdtlabs/fraudlens/internal/cache"
	"github.com/fdtlabs/fraudlens/internal/domain"
	"github.com/fdtlabs/fraudlens/internal/events"
	"github.com/fdtlabs/fraudlens/internal/notify"
	"github.com/fdtlabs/fraudlens/internal/scheduler"
	"github.com/fdtlabs/fraudlens/internal/stream"
	testingpkg "github.com/fdtlabs/fraudlens/internal/testing"
	"github.com/fdtlabs/fraudlens/internal/txbuffer"
)

// idleConn stays open and silent until closed, like a healthy feed with
// no traffic.
type idleConn struct {
	done chan struct{}
	once sync.Once
}

func (c *idleConn) ReadMessage(ctx context.Context) ([]byte, error) {
	select {
	case <-c.done:
		return nil, errors.New("connection closed")
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *idleConn) Close() error {
	c.once.Do(func() { close(c.done) })
	return nil
}

func (c *idleConn) isClosed() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

type idleDialer struct {
	mu    sync.Mutex
	conns []*idleConn
}

func (d *idleDialer) Dial(ctx context.Context, url string) (stream.Conn, error) {
	conn := &idleConn{done: make(chan struct{})}
	d.mu.Lock()
	d.conns = append(d.conns, conn)
	d.mu.Unlock()
	return conn, nil
}

func (d *idleDialer) dials() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.conns)
}

func (d *idleDialer) conn(i int) *idleConn {
	d.mu.Lock()
	defer d.mu.Unlock()
	if i >= len(d.conns) {
		return nil
	}
	return d.conns[i]
}

type managerFixture struct {
	manager *Manager
	backend *testingpkg.MockBackend
	cache   *cache.Cache
	ledger  *notify.Ledger
	bus     *events.Bus
	dialer  *idleDialer
}

func setupManager(t *testing.T) *managerFixture {
	t.Helper()

	clk := testingpkg.NewFakeClock(baseTime)
	backend := testingpkg.NewMockBackend()
	bus := events.NewBus(zerolog.Nop())
	dialer := &idleDialer{}
	c := cache.New(clk, zerolog.Nop())
	ledger := notify.New(clk, testingpkg.NewFakeScheduler(), zerolog.Nop())

	m := NewManager(ManagerConfig{
		Backend:   backend,
		Cache:     c,
		Ledger:    ledger,
		Bus:       bus,
		Scheduler: scheduler.New(zerolog.Nop()),
		Dialer:    dialer,
		StreamURL: "ws://feed.test/stream",
		Log:       zerolog.Nop(),
	})

	return &managerFixture{
		manager: m,
		backend: backend,
		cache:   c,
		ledger:  ledger,
		bus:     bus,
		dialer:  dialer,
	}
}

func delayedPage(ids ...string) *domain.TransactionPage {
	page := pageOf(ids...)
	for i := range page.Transactions {
		page.Transactions[i].Action = domain.ActionDelay
		page.Transactions[i].RiskScore = 0.7
	}
	return page
}

// waitForSessionBoot blocks until the stream is connected and the
// background window load and delayed poll have both reached the backend.
func waitForSessionBoot(t *testing.T, f *managerFixture) {
	t.Helper()
	require.Eventually(t, func() bool {
		if f.manager.Status().StreamState != stream.StateConnected.String() {
			return false
		}
		var reload, poll bool
		for _, call := range f.backend.TransactionsCalls() {
			switch {
			case call.Limit == txbuffer.DefaultCapacity:
				reload = true
			case call.StatusFilter == domain.ActionDelay:
				poll = true
			}
		}
		return reload && poll
	}, time.Second, 5*time.Millisecond)
}

func TestStartSessionValidatesArguments(t *testing.T) {
	f := setupManager(t)

	_, err := f.manager.StartSession("", "token123")
	require.Error(t, err)
	_, err = f.manager.StartSession("user1", "")
	require.Error(t, err)
	assert.False(t, f.manager.Active())
}

func TestStartSessionWipesSharedState(t *testing.T) {
	f := setupManager(t)

	require.NoError(t, f.cache.Set("lingering:key", "value", cache.CategoryTransactions))
	f.ledger.AddDelayedTransaction(domain.Transaction{TxID: "old-tx", Action: domain.ActionDelay})
	require.Equal(t, 1, f.ledger.Len())

	sess, err := f.manager.StartSession("user1", "token123")
	require.NoError(t, err)
	require.NotNil(t, sess)

	_, hit := f.cache.Get("lingering:key")
	assert.False(t, hit, "cache must be wiped on login")
	assert.Zero(t, f.ledger.Len(), "alerts must be wiped on login")

	token, ok := f.manager.Token()
	assert.True(t, ok)
	assert.Equal(t, "token123", token)

	waitForSessionBoot(t, f)

	calls := f.backend.TransactionsCalls()
	var pollCall *testingpkg.TransactionsCall
	for i := range calls {
		if calls[i].StatusFilter == domain.ActionDelay {
			pollCall = &calls[i]
		}
	}
	require.NotNil(t, pollCall)
	assert.Equal(t, "token123", pollCall.Token)
	assert.Equal(t, 20, pollCall.Limit)
}

func TestStartSessionReplacesActiveSession(t *testing.T) {
	f := setupManager(t)

	var started []string
	endedEvents := 0
	f.bus.Subscribe(events.SessionStarted, func(e *events.Event) {
		started = append(started, e.Data.(*events.SessionStartedData).UserID)
	})
	f.bus.Subscribe(events.SessionEnded, func(*events.Event) { endedEvents++ })

	first, err := f.manager.StartSession("user_a", "token-a")
	require.NoError(t, err)
	require.Eventually(t, func() bool { return f.dialer.dials() == 1 }, time.Second, 5*time.Millisecond)

	second, err := f.manager.StartSession("user_b", "token-b")
	require.NoError(t, err)

	assert.Equal(t, "user_b", f.manager.Status().UserID)
	assert.Same(t, second, f.manager.Current())

	// The replaced session is dead: its stream is closed and late events
	// are dropped.
	require.Eventually(t, func() bool { return f.dialer.conn(0).isClosed() }, time.Second, 5*time.Millisecond)
	first.TransactionInserted(domain.Transaction{TxID: "late"})
	assert.Zero(t, first.WindowSize())

	assert.Equal(t, []string{"user_a", "user_b"}, started)
	assert.Zero(t, endedEvents, "a replacement login is not a logout")

	token, _ := f.manager.Token()
	assert.Equal(t, "token-b", token)
}

func TestEndSessionTearsEverythingDown(t *testing.T) {
	f := setupManager(t)

	endedEvents := 0
	f.bus.Subscribe(events.SessionEnded, func(*events.Event) { endedEvents++ })

	sess, err := f.manager.StartSession("user1", "token123")
	require.NoError(t, err)
	waitForSessionBoot(t, f)

	f.ledger.AddDelayedTransaction(domain.Transaction{TxID: "tx1", Action: domain.ActionDelay})
	_, err = sess.LoadDashboard(context.Background(), domain.TimeRange24H)
	require.NoError(t, err)
	require.NotZero(t, f.cache.Len())

	f.manager.EndSession()

	assert.False(t, f.manager.Active())
	_, ok := f.manager.Token()
	assert.False(t, ok, "token must be gone after logout")
	assert.Zero(t, f.cache.Len(), "cache must be wiped on logout")
	assert.Zero(t, f.ledger.Len(), "alerts must be wiped on logout")

	require.Eventually(t, func() bool { return f.dialer.conn(0).isClosed() }, time.Second, 5*time.Millisecond)
	assert.Equal(t, stream.StateDisconnected.String(), f.manager.Status().StreamState)

	sess.TransactionInserted(domain.Transaction{TxID: "late"})
	assert.Zero(t, f.manager.Status().WindowSize)

	// A second logout is a no-op.
	f.manager.EndSession()
	assert.Equal(t, 1, endedEvents)
}

func TestWatchJobWithoutSessionIsNoOp(t *testing.T) {
	f := setupManager(t)

	job := &watchJob{m: f.manager}
	require.NoError(t, job.Run())
	assert.Empty(t, f.backend.TransactionsCalls())
}

func TestWatchJobPollsActiveSession(t *testing.T) {
	f := setupManager(t)
	f.backend.SetTransactionPage(delayedPage("d1", "d2"))

	_, err := f.manager.StartSession("user1", "token123")
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return f.ledger.UnreadCount() == 2
	}, time.Second, 5*time.Millisecond)

	// Further ticks must not duplicate the alerts.
	job := &watchJob{m: f.manager}
	require.NoError(t, job.Run())
	require.NoError(t, job.Run())
	assert.Equal(t, 2, f.ledger.UnreadCount())

	for _, n := range f.ledger.All() {
		assert.Equal(t, domain.NotificationDelayedTransaction, n.Type)
	}
}

func TestRegisterJobs(t *testing.T) {
	f := setupManager(t)
	require.NoError(t, f.manager.RegisterJobs())
}

func TestStatusWithoutSession(t *testing.T) {
	f := setupManager(t)

	status := f.manager.Status()
	assert.False(t, status.Active)
	assert.Empty(t, status.UserID)
	assert.Equal(t, stream.StateDisconnected.String(), status.StreamState)
	assert.Zero(t, status.WindowSize)
}

func TestStatusWithActiveSession(t *testing.T) {
	f := setupManager(t)
	f.backend.SetTransactionPage(delayedPage("d1"))

	_, err := f.manager.StartSession("user1", "token123")
	require.NoError(t, err)
	waitForSessionBoot(t, f)

	require.Eventually(t, func() bool {
		s := f.manager.Status()
		return s.Active && s.WindowSize == 1 && s.UnreadAlerts == 1
	}, time.Second, 5*time.Millisecond)

	status := f.manager.Status()
	assert.Equal(t, "user1", status.UserID)
	assert.Equal(t, stream.StateConnected.String(), status.StreamState)
	assert.False(t, status.WatcherHalted)
}
