package server

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/jonathan/pfe-match/internal/db"
	"github.com/jonathan/pfe-match/internal/types"
)

// handleListNotifications handles GET /notifications?limit=&unread_only=
func (s *Server) handleListNotifications(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUserID(r)
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	limit, err := queryInt(r, "limit", 50, 1, 100)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	var unreadOnly bool
	if raw := r.URL.Query().Get("unread_only"); raw != "" {
		if unreadOnly, err = strconv.ParseBool(raw); err != nil {
			s.handleError(w, r, &ErrValidation{Field: "unread_only", Message: "must be a boolean"})
			return
		}
	}

	items, err := s.store.ListNotifications(r.Context(), userID, unreadOnly, limit)
	if err != nil {
		s.handleError(w, r, fmt.Errorf("failed to list notifications: %w", err))
		return
	}
	if items == nil {
		items = []db.Notification{}
	}
	s.jsonResponse(w, http.StatusOK, items)
}

// handleUnreadCount handles GET /notifications/unread-count
func (s *Server) handleUnreadCount(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUserID(r)
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	n, err := s.store.CountUnreadNotifications(r.Context(), userID)
	if err != nil {
		s.handleError(w, r, fmt.Errorf("failed to count notifications: %w", err))
		return
	}
	s.jsonResponse(w, http.StatusOK, types.UnreadCountResponse{UnreadCount: n})
}

// handleMarkRead handles POST /notifications/{id}/read
func (s *Server) handleMarkRead(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	userID, err := currentUserID(r)
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	if err := s.store.MarkNotificationRead(r.Context(), userID, id); err != nil {
		s.handleError(w, r, fmt.Errorf("failed to mark notification read: %w", err))
		return
	}
	s.jsonResponse(w, http.StatusOK, types.MessageResponse{Message: "Notification marked as read"})
}

// handleMarkAllRead handles POST /notifications/read-all
func (s *Server) handleMarkAllRead(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUserID(r)
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	n, err := s.store.MarkAllNotificationsRead(r.Context(), userID)
	if err != nil {
		s.handleError(w, r, fmt.Errorf("failed to mark notifications read: %w", err))
		return
	}
	s.jsonResponse(w, http.StatusOK, types.ReadAllResponse{Message: "All notifications marked as read", Updated: n})
}
