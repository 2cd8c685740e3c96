// Package session coordinates one authenticated dashboard session: the
// in-memory transaction window, cache-first reads, stream consumption
// and the decision flow on delayed payments.
package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/fdtlabs/fraudlens/internal/analytics"
	"github.com/fdtlabs/fraudlens/internal/cache"
	"github.com/fdtlabs/fraudlens/internal/domain"
	"github.com/fdtlabs/fraudlens/internal/events"
	"github.com/fdtlabs/fraudlens/internal/notify"
	"github.com/fdtlabs/fraudlens/internal/stream"
	"github.com/fdtlabs/fraudlens/internal/txbuffer"
	"github.com/fdtlabs/fraudlens/internal/utils"
)

const requestTimeout = 15 * time.Second

// Session is the per-login coordinator. It consumes stream events, keeps
// the transaction window and its derived analytics current, and serves
// cache-first reads for the dashboard endpoints.
type Session struct {
	userID string
	token  string

	backend domain.Backend
	cache   *cache.Cache
	ledger  *notify.Ledger
	ring    *txbuffer.Ring
	bus     *events.Bus
	log     zerolog.Logger

	mu        sync.Mutex
	closed    bool
	reloadGen uint64
}

func newSession(m *Manager, userID, token string) *Session {
	return &Session{
		userID:  userID,
		token:   token,
		backend: m.backend,
		cache:   m.cache,
		ledger:  m.ledger,
		bus:     m.bus,
		ring:    txbuffer.NewRing(m.ringCapacity),
		log:     m.log.With().Str("component", "session").Str("user_id", userID).Logger(),
	}
}

// UserID returns the session owner.
func (s *Session) UserID() string {
	return s.userID
}

// close stops the session from applying further mutations. In-flight
// reloads finish but their results are dropped.
func (s *Session) close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}

func (s *Session) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Transactions returns the current transaction window, newest first.
func (s *Session) Transactions() []domain.Transaction {
	return s.ring.Snapshot()
}

// WindowSize returns how many transactions the window currently holds.
func (s *Session) WindowSize() int {
	return s.ring.Len()
}

// Analytics derives the fraud-pattern report from the current window.
func (s *Session) Analytics() analytics.Report {
	return analytics.Compute(s.ring.Snapshot())
}

// TransactionInserted handles a tx_inserted stream event: the new
// transaction enters the window and every derived view is refreshed.
func (s *Session) TransactionInserted(tx domain.Transaction) {
	if s.isClosed() {
		return
	}

	s.ring.Push(tx)

	// Cached pages and counters predate this transaction.
	s.cache.Invalidate("transactions")
	s.cache.InvalidateCategory(cache.CategoryDashboard)

	s.log.Debug().
		Str("tx_id", tx.TxID).
		Float64("risk_score", tx.RiskScore).
		Msg("Stream transaction inserted")

	s.emitWindowChanged(&events.TransactionsChangedData{
		Total:  s.ring.Len(),
		TxID:   tx.TxID,
		Origin: "stream",
	})
}

// TransactionUpdated handles a tx_updated stream event. An update gives
// no guarantee about the rest of the window, so the whole list is
// refetched in the background.
func (s *Session) TransactionUpdated(tx domain.Transaction) {
	if s.isClosed() {
		return
	}

	s.log.Info().Str("tx_id", tx.TxID).Msg("Transaction updated upstream, reloading window")
	go func() {
		if err := s.Reload(); err != nil {
			s.log.Warn().Err(err).Msg("Window reload failed")
		}
	}()
}

// Reload refetches the transaction window and replaces the in-memory
// copy. Concurrent reloads may finish out of order; only the newest one
// is applied.
func (s *Session) Reload() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.reloadGen++
	gen := s.reloadGen
	s.mu.Unlock()

	defer utils.OperationTimer("session_reload", s.log)()

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	// One full page fills the window exactly.
	page, err := s.backend.Transactions(ctx, s.token, s.ring.Capacity(), "")
	if err != nil {
		return fmt.Errorf("failed to reload transactions: %w", err)
	}

	s.mu.Lock()
	if s.closed || gen != s.reloadGen {
		s.mu.Unlock()
		s.log.Debug().Uint64("generation", gen).Msg("Dropping stale reload result")
		return nil
	}
	s.ring.ReplaceAll(page.Transactions)
	s.cache.Invalidate("transactions")
	s.cache.InvalidateCategory(cache.CategoryDashboard)
	s.mu.Unlock()

	s.log.Info().Int("count", len(page.Transactions)).Msg("Transaction window reloaded")
	s.emitWindowChanged(&events.TransactionsChangedData{
		Total:  s.ring.Len(),
		Origin: "reload",
	})
	return nil
}

// LoadTransactions serves the paginated transaction list, cache first.
func (s *Session) LoadTransactions(ctx context.Context, limit int, statusFilter domain.Action) (*domain.TransactionPage, error) {
	key := fmt.Sprintf("transactions:limit=%d:filter=%s", limit, statusFilter)
	if v, ok := s.cache.Get(key); ok {
		return v.(*domain.TransactionPage), nil
	}

	page, err := s.backend.Transactions(ctx, s.token, limit, statusFilter)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(key, page, cache.CategoryTransactions); err != nil {
		s.log.Error().Err(err).Str("key", key).Msg("Failed to cache transaction page")
	}
	return page, nil
}

// LoadDashboard serves the dashboard counters, cache first.
func (s *Session) LoadDashboard(ctx context.Context, timeRange string) (*domain.DashboardData, error) {
	key := "dashboard:stats:range=" + timeRange
	if v, ok := s.cache.Get(key); ok {
		return v.(*domain.DashboardData), nil
	}

	data, err := s.backend.DashboardData(ctx, s.token, timeRange)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(key, data, cache.CategoryDashboard); err != nil {
		s.log.Error().Err(err).Str("key", key).Msg("Failed to cache dashboard data")
	}
	return data, nil
}

// RecentTransactions serves the dashboard's recent-activity list, cache
// first. It shares the dashboard category so both expire together.
func (s *Session) RecentTransactions(ctx context.Context, limit int, timeRange string) ([]domain.Transaction, error) {
	key := fmt.Sprintf("dashboard:recent:limit=%d:range=%s", limit, timeRange)
	if v, ok := s.cache.Get(key); ok {
		return v.([]domain.Transaction), nil
	}

	txs, err := s.backend.RecentTransactions(ctx, s.token, limit, timeRange)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(key, txs, cache.CategoryDashboard); err != nil {
		s.log.Error().Err(err).Str("key", key).Msg("Failed to cache recent transactions")
	}
	return txs, nil
}

// SubmitDecision resolves a delayed transaction. On success the matching
// alerts are cleared and stale cached views dropped; on failure the user
// gets an error notification and the alert stays.
func (s *Session) SubmitDecision(ctx context.Context, txID string, decision domain.Decision) error {
	if !decision.Valid() {
		return fmt.Errorf("invalid decision %q", decision)
	}

	if err := s.backend.SubmitDecision(ctx, s.token, txID, decision); err != nil {
		s.ledger.Add(domain.NotificationDraft{
			Type:          domain.NotificationDecision,
			Title:         "Decision failed",
			Message:       fmt.Sprintf("Could not submit your decision for transaction %s", txID),
			Category:      domain.CategoryError,
			TransactionID: txID,
		})
		s.emitNotificationsChanged()
		return fmt.Errorf("failed to submit decision: %w", err)
	}

	cleared := s.ledger.ResolveTransaction(txID)
	s.cache.Invalidate("transactions")
	s.cache.InvalidateCategory(cache.CategoryDashboard)

	verb := "confirmed"
	if decision == domain.DecisionCancel {
		verb = "cancelled"
	}
	s.ledger.Add(domain.NotificationDraft{
		Type:          domain.NotificationDecision,
		Title:         "Decision submitted",
		Message:       fmt.Sprintf("Transaction %s %s", txID, verb),
		Category:      domain.CategorySuccess,
		TransactionID: txID,
	})

	s.log.Info().
		Str("tx_id", txID).
		Str("decision", string(decision)).
		Int("alerts_cleared", cleared).
		Msg("Decision applied")

	s.emitNotificationsChanged()
	s.bus.Emit(events.DashboardChanged, "session", nil)
	return nil
}

// emitWindowChanged publishes the events downstream views refresh on
// whenever the transaction window moves.
func (s *Session) emitWindowChanged(data *events.TransactionsChangedData) {
	s.bus.Emit(events.TransactionsChanged, "session", data)

	report := analytics.Compute(s.ring.Snapshot())
	s.bus.Emit(events.AnalyticsUpdated, "session", &events.AnalyticsUpdatedData{
		UnusualAmount:       report.Patterns.UnusualAmount,
		SuspiciousRecipient: report.Patterns.SuspiciousRecipient,
		RapidTransactions:   report.Patterns.RapidTransactions,
		NewDevice:           report.Patterns.NewDevice,
		LocationMismatch:    report.Patterns.LocationMismatch,
		HighRisk:            len(report.HighRisk),
	})
	s.bus.Emit(events.DashboardChanged, "session", nil)
}

func (s *Session) emitNotificationsChanged() {
	s.bus.Emit(events.NotificationsChanged, "session", &events.NotificationsChangedData{
		Unread: s.ledger.UnreadCount(),
		Total:  s.ledger.Len(),
	})
}

// Verify interface implementation
var _ stream.Sink = (*Session)(nil)
