package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/fdtlabs/fraudlens/internal/domain"
)

const (
	defaultPageLimit   = 50
	defaultRecentLimit = 10
)

// handleTransactions handles GET /api/transactions. The page comes from
// the session's cache when fresh, the backend otherwise.
func (s *Server) handleTransactions(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.activeSession(w)
	if !ok {
		return
	}

	limit := queryInt(r, "limit", defaultPageLimit)

	statusFilter := domain.Action(r.URL.Query().Get("status"))
	if statusFilter != "" && !statusFilter.Valid() {
		s.writeError(w, http.StatusBadRequest, "unknown status filter")
		return
	}

	page, err := sess.LoadTransactions(r.Context(), limit, statusFilter)
	if err != nil {
		s.writeBackendError(w, err, "failed to load transactions")
		return
	}

	s.writeJSON(w, http.StatusOK, page)
}

// handleLiveWindow handles GET /api/transactions/live: the in-memory
// window the stream keeps current, no backend round trip.
func (s *Server) handleLiveWindow(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.activeSession(w)
	if !ok {
		return
	}

	txs := sess.Transactions()
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"transactions": txs,
		"count":        len(txs),
	})
}

// handleDashboard handles GET /api/dashboard.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.activeSession(w)
	if !ok {
		return
	}

	timeRange, ok := queryTimeRange(r, domain.TimeRange24H)
	if !ok {
		s.writeError(w, http.StatusBadRequest, "unknown time range")
		return
	}

	data, err := sess.LoadDashboard(r.Context(), timeRange)
	if err != nil {
		s.writeBackendError(w, err, "failed to load dashboard data")
		return
	}

	s.writeJSON(w, http.StatusOK, data)
}

// handleRecentTransactions handles GET /api/dashboard/recent.
func (s *Server) handleRecentTransactions(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.activeSession(w)
	if !ok {
		return
	}

	timeRange, ok := queryTimeRange(r, domain.TimeRange24H)
	if !ok {
		s.writeError(w, http.StatusBadRequest, "unknown time range")
		return
	}

	txs, err := sess.RecentTransactions(r.Context(), queryInt(r, "limit", defaultRecentLimit), timeRange)
	if err != nil {
		s.writeBackendError(w, err, "failed to load recent transactions")
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"transactions": txs,
		"count":        len(txs),
	})
}

// handleAnalytics handles GET /api/analytics with the report derived
// from the live window.
func (s *Server) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.activeSession(w)
	if !ok {
		return
	}

	s.writeJSON(w, http.StatusOK, sess.Analytics())
}

// decisionRequest is the POST /api/decision body.
type decisionRequest struct {
	TxID     string `json:"tx_id" validate:"required"`
	Decision string `json:"decision" validate:"required,oneof=confirm cancel"`
}

// handleDecision handles POST /api/decision: the analyst confirms or
// cancels a delayed transaction.
func (s *Server) handleDecision(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.activeSession(w)
	if !ok {
		return
	}

	var req decisionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := validate.Struct(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := sess.SubmitDecision(r.Context(), req.TxID, domain.Decision(req.Decision)); err != nil {
		s.writeBackendError(w, err, "failed to submit decision")
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]string{
		"status":   "success",
		"tx_id":    req.TxID,
		"decision": req.Decision,
	})
}

// writeBackendError maps backend failures to HTTP statuses: a rejected
// token is the caller's problem, everything else is a gateway failure.
func (s *Server) writeBackendError(w http.ResponseWriter, err error, message string) {
	if errors.Is(err, domain.ErrUnauthorized) {
		s.writeError(w, http.StatusUnauthorized, "session token rejected")
		return
	}
	s.log.Error().Err(err).Msg(message)
	s.writeError(w, http.StatusBadGateway, message)
}
