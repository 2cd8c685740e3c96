package domain

import (
	"context"
	"errors"
)

// ErrUnauthorized is returned by Backend implementations when the backend
// rejects the session token. Session-gated callers treat it as "session
// ended" and halt rather than retry.
var ErrUnauthorized = errors.New("unauthorized")

// Decision is the user's resolution of a delayed transaction.
type Decision string

const (
	DecisionConfirm Decision = "confirm"
	DecisionCancel  Decision = "cancel"
)

// Valid reports whether the decision is one the backend accepts.
func (d Decision) Valid() bool {
	return d == DecisionConfirm || d == DecisionCancel
}

// TransactionPage is the backend's transaction-list payload.
type TransactionPage struct {
	Status       string        `json:"status"`
	Transactions []Transaction `json:"transactions"`
	Count        int           `json:"count"`
}

// DashboardStats holds the scalar counters shown on the dashboard header.
// Field names follow the backend payload, which mixes cases.
type DashboardStats struct {
	TotalTransactions int     `json:"totalTransactions"`
	Blocked           int     `json:"blocked"`
	Delayed           int     `json:"delayed"`
	Allowed           int     `json:"allowed"`
	MeanRisk          float64 `json:"mean_risk"`
}

// DashboardData is the backend's dashboard payload.
type DashboardData struct {
	Status string         `json:"status"`
	Stats  DashboardStats `json:"stats"`
}

// Backend defines the fraud-engine API surface this layer consumes.
// It abstracts the HTTP client so session and watch logic can be tested
// against a mock.
type Backend interface {
	// Transactions fetches the user's transactions, optionally filtered
	// by action. A zero statusFilter means no filter.
	Transactions(ctx context.Context, token string, limit int, statusFilter Action) (*TransactionPage, error)

	// DashboardData fetches the scalar dashboard counters for a time range.
	DashboardData(ctx context.Context, token string, timeRange string) (*DashboardData, error)

	// RecentTransactions fetches the most recent transactions for a time range.
	RecentTransactions(ctx context.Context, token string, limit int, timeRange string) ([]Transaction, error)

	// SubmitDecision resolves a delayed transaction with confirm or cancel.
	SubmitDecision(ctx context.Context, token string, txID string, decision Decision) error
}

// TokenSource exposes the current session token, if any. Token presence is a
// precondition checked on every session-gated call, not owned state.
type TokenSource interface {
	Token() (string, bool)
}

// TimeRange values accepted by the dashboard endpoints.
const (
	TimeRange1H  = "1h"
	TimeRange24H = "24h"
	TimeRange7D  = "7d"
)
