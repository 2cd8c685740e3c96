package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/fdtlabs/fraudlens/internal/domain"
	"github.com/fdtlabs/fraudlens/internal/session"
)

// loginRequest is the POST /api/session body.
type loginRequest struct {
	UserID string `json:"user_id" validate:"required"`
	Token  string `json:"token" validate:"required"`
}

// handleLogin handles POST /api/session. A login replaces any active
// session and starts the stream and the delayed-transaction poll.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := validate.Struct(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if _, err := s.manager.StartSession(req.UserID, req.Token); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]string{
		"status":  "success",
		"user_id": req.UserID,
	})
}

// handleLogout handles DELETE /api/session.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.manager.EndSession()
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "success"})
}

// handleSessionStatus handles GET /api/session.
func (s *Server) handleSessionStatus(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.manager.Status())
}

// activeSession resolves the current session or answers 401.
func (s *Server) activeSession(w http.ResponseWriter) (*session.Session, bool) {
	sess := s.manager.Current()
	if sess == nil {
		s.writeError(w, http.StatusUnauthorized, "no active session")
		return nil, false
	}
	return sess, true
}

// queryInt reads a positive integer query parameter, falling back to a
// default on absence or garbage.
func queryInt(r *http.Request, key string, def int) int {
	if v := r.URL.Query().Get(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return def
}

// queryTimeRange reads the dashboard time range parameter.
func queryTimeRange(r *http.Request, def string) (string, bool) {
	v := r.URL.Query().Get("range")
	if v == "" {
		return def, true
	}
	switch v {
	case domain.TimeRange1H, domain.TimeRange24H, domain.TimeRange7D:
		return v, true
	}
	return "", false
}
