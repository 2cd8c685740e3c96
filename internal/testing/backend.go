package testing

import (
	"context"
	"sync"

	"github.com/fdtlabs/fraudlens/internal/domain"
)

// TransactionsCall records one Transactions request made against the mock.
type TransactionsCall struct {
	Token        string
	Limit        int
	StatusFilter domain.Action
}

// DecisionCall records one SubmitDecision request made against the mock.
type DecisionCall struct {
	Token    string
	TxID     string
	Decision domain.Decision
}

// MockBackend is a mock implementation of domain.Backend for testing
type MockBackend struct {
	mu sync.RWMutex

	page         *domain.TransactionPage
	pageErr      error
	dashboard    *domain.DashboardData
	dashboardErr error
	recent       []domain.Transaction
	recentErr    error
	decisionErr  error

	transactionsCalls []TransactionsCall
	decisionCalls     []DecisionCall
	dashboardCalls    int
	recentCalls       int
}

// NewMockBackend creates a new mock backend
func NewMockBackend() *MockBackend {
	return &MockBackend{
		page:      &domain.TransactionPage{Status: "success"},
		dashboard: &domain.DashboardData{},
	}
}

// SetTransactionPage sets the page returned by Transactions
func (m *MockBackend) SetTransactionPage(page *domain.TransactionPage) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.page = page
}

// SetTransactionsError sets the error returned by Transactions
func (m *MockBackend) SetTransactionsError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pageErr = err
}

// SetDashboard sets the payload returned by DashboardData
func (m *MockBackend) SetDashboard(data *domain.DashboardData) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dashboard = data
}

// SetDashboardError sets the error returned by DashboardData
func (m *MockBackend) SetDashboardError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dashboardErr = err
}

// SetRecent sets the transactions returned by RecentTransactions
func (m *MockBackend) SetRecent(txs []domain.Transaction) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recent = txs
}

// SetRecentError sets the error returned by RecentTransactions
func (m *MockBackend) SetRecentError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recentErr = err
}

// SetDecisionError sets the error returned by SubmitDecision
func (m *MockBackend) SetDecisionError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.decisionErr = err
}

// Transactions returns the configured page and records the call
func (m *MockBackend) Transactions(ctx context.Context, token string, limit int, statusFilter domain.Action) (*domain.TransactionPage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transactionsCalls = append(m.transactionsCalls, TransactionsCall{
		Token:        token,
		Limit:        limit,
		StatusFilter: statusFilter,
	})
	if m.pageErr != nil {
		return nil, m.pageErr
	}
	return m.page, nil
}

// DashboardData returns the configured dashboard payload
func (m *MockBackend) DashboardData(ctx context.Context, token string, timeRange string) (*domain.DashboardData, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dashboardCalls++
	if m.dashboardErr != nil {
		return nil, m.dashboardErr
	}
	return m.dashboard, nil
}

// RecentTransactions returns the configured transaction list
func (m *MockBackend) RecentTransactions(ctx context.Context, token string, limit int, timeRange string) ([]domain.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recentCalls++
	if m.recentErr != nil {
		return nil, m.recentErr
	}
	return m.recent, nil
}

// SubmitDecision records the call and returns the configured error
func (m *MockBackend) SubmitDecision(ctx context.Context, token string, txID string, decision domain.Decision) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.decisionCalls = append(m.decisionCalls, DecisionCall{
		Token:    token,
		TxID:     txID,
		Decision: decision,
	})
	return m.decisionErr
}

// TransactionsCalls returns a copy of the recorded Transactions calls
func (m *MockBackend) TransactionsCalls() []TransactionsCall {
	m.mu.RLock()
	defer m.mu.RUnlock()
	calls := make([]TransactionsCall, len(m.transactionsCalls))
	copy(calls, m.transactionsCalls)
	return calls
}

// DecisionCalls returns a copy of the recorded SubmitDecision calls
func (m *MockBackend) DecisionCalls() []DecisionCall {
	m.mu.RLock()
	defer m.mu.RUnlock()
	calls := make([]DecisionCall, len(m.decisionCalls))
	copy(calls, m.decisionCalls)
	return calls
}

// DashboardCalls returns how many times DashboardData was called
func (m *MockBackend) DashboardCalls() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.dashboardCalls
}

// RecentCalls returns how many times RecentTransactions was called
func (m *MockBackend) RecentCalls() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.recentCalls
}

// FakeTokenSource is a controllable domain.TokenSource for testing
type FakeTokenSource struct {
	mu    sync.RWMutex
	token string
	ok    bool
}

// NewFakeTokenSource creates a token source holding the given token.
// An empty token means "no session".
func NewFakeTokenSource(token string) *FakeTokenSource {
	return &FakeTokenSource{token: token, ok: token != ""}
}

// Token returns the current token, if any
func (s *FakeTokenSource) Token() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token, s.ok
}

// Set replaces the current token
func (s *FakeTokenSource) Set(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	s.ok = token != ""
}

// Clear drops the current token
func (s *FakeTokenSource) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	s.ok = false
}

// Verify interface implementations
var (
	_ domain.Backend     = (*MockBackend)(nil)
	_ domain.TokenSource = (*FakeTokenSource)(nil)
)
