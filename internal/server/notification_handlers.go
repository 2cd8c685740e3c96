package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/fdtlabs/fraudlens/internal/events"
)

// handleNotifications handles GET /api/notifications. Alerts are listed
// newest first with the unread badge count in the payload.
func (s *Server) handleNotifications(w http.ResponseWriter, r *http.Request) {
	notifications := s.ledger.All()
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"notifications": notifications,
		"total":         len(notifications),
		"unread_count":  s.ledger.UnreadCount(),
	})
}

// handleMarkNotificationRead handles POST /api/notifications/{id}/read.
func (s *Server) handleMarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !s.ledger.MarkRead(id) {
		s.writeError(w, http.StatusNotFound, "notification not found")
		return
	}

	s.emitNotificationsChanged()
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "success"})
}

// handleDeleteNotification handles DELETE /api/notifications/{id}.
func (s *Server) handleDeleteNotification(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !s.ledger.Remove(id) {
		s.writeError(w, http.StatusNotFound, "notification not found")
		return
	}

	s.emitNotificationsChanged()
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "success"})
}

// handleClearNotifications handles DELETE /api/notifications.
func (s *Server) handleClearNotifications(w http.ResponseWriter, r *http.Request) {
	s.ledger.ClearAll()
	s.emitNotificationsChanged()
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "success"})
}

func (s *Server) emitNotificationsChanged() {
	s.bus.Emit(events.NotificationsChanged, "server", &events.NotificationsChangedData{
		Unread: s.ledger.UnreadCount(),
		Total:  s.ledger.Len(),
	})
}
