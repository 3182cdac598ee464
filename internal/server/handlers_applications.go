package server

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/jonathan/pfe-match/internal/db"
	"github.com/jonathan/pfe-match/internal/events"
	"github.com/jonathan/pfe-match/internal/types"
)

// acceptsApplications reports whether l is open and its deadline, if any, has not passed.
func acceptsApplications(l *db.Listing, now time.Time) bool {
	if l.Status != db.ListingOpen {
		return false
	}
	if l.Deadline == nil || l.Deadline.IsZero() {
		return true
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return !l.Deadline.Before(today)
}

// handleApply handles POST /listings/{id}/apply
func (s *Server) handleApply(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	st, err := s.currentStudent(r)
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	var req types.ApplyRequest
	if err := decodeRequest(r, &req); err != nil {
		s.handleError(w, r, err)
		return
	}

	l, err := s.loadListing(r.Context(), id)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	if !acceptsApplications(l, time.Now()) {
		s.handleError(w, r, &ErrValidation{Message: "this listing is not accepting applications"})
		return
	}

	res, err := s.matches.Preview(r.Context(), st, l)
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	app, err := s.store.CreateApplication(r.Context(), db.ApplicationInput{
		StudentID:       st.ID,
		ListingID:       l.ID,
		CoverLetter:     req.CoverLetter,
		MatchRate:       res.Score,
		Explanation:     res.Explanation,
		MatchedSkills:   res.MatchedSkills,
		MissingSkills:   res.MissingSkills,
		Recommendations: res.Recommendations,
	})
	if err != nil {
		if errors.Is(err, db.ErrDuplicate) {
			s.handleError(w, r, &ErrConflict{Message: "you have already applied to this listing"})
			return
		}
		s.handleError(w, r, fmt.Errorf("failed to create application: %w", err))
		return
	}

	if ent, err := s.store.GetEnterprise(r.Context(), l.EnterpriseID); err == nil && ent != nil {
		s.notify(r.Context(), db.NotificationInput{
			UserID:    ent.UserID,
			Type:      db.NotificationNewApplication,
			Title:     "New application",
			Message:   fmt.Sprintf("%s applied to %q (match %.0f%%)", st.FullName(), l.Title, app.MatchRate),
			RelatedID: &app.ID,
		})
	}
	_ = s.events.Publish(r.Context(), events.ApplicationCreated, events.ApplicationEvent{
		ApplicationID: app.ID,
		ListingID:     l.ID,
		StudentID:     st.ID,
		EnterpriseID:  l.EnterpriseID,
		Status:        app.Status,
		MatchRate:     app.MatchRate,
	})

	s.jsonResponse(w, http.StatusCreated, app)
}

// handleListMyApplications handles GET /applications/me
func (s *Server) handleListMyApplications(w http.ResponseWriter, r *http.Request) {
	st, err := s.currentStudent(r)
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	apps, err := s.store.ListApplicationsByStudent(r.Context(), st.ID)
	if err != nil {
		s.handleError(w, r, fmt.Errorf("failed to list applications: %w", err))
		return
	}
	if apps == nil {
		apps = []db.ApplicationView{}
	}
	s.jsonResponse(w, http.StatusOK, apps)
}

// handleListApplicants handles GET /listings/{id}/applicants, best match first.
func (s *Server) handleListApplicants(w http.ResponseWriter, r *http.Request) {
	l, _, err := s.ownedListing(r)
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	var minRate float64
	if raw := r.URL.Query().Get("min_match_rate"); raw != "" {
		if minRate, err = strconv.ParseFloat(raw, 64); err != nil || minRate < 0 || minRate > 100 {
			s.handleError(w, r, &ErrValidation{Field: "min_match_rate", Message: "must be a number between 0 and 100"})
			return
		}
	}

	apps, err := s.store.ListApplicationsByListing(r.Context(), l.ID, minRate)
	if err != nil {
		s.handleError(w, r, fmt.Errorf("failed to list applicants: %w", err))
		return
	}
	if apps == nil {
		apps = []db.ApplicationView{}
	}
	s.jsonResponse(w, http.StatusOK, apps)
}

// handleUpdateApplicationStatus handles PATCH /applications/{id}/status
func (s *Server) handleUpdateApplicationStatus(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	ent, err := s.currentEnterprise(r)
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	var req types.StatusUpdateRequest
	if err := decodeRequest(r, &req); err != nil {
		s.handleError(w, r, err)
		return
	}

	app, err := s.store.GetApplication(r.Context(), id)
	if err != nil {
		s.handleError(w, r, fmt.Errorf("failed to load application: %w", err))
		return
	}
	if app == nil {
		s.handleError(w, r, &ErrNotFound{Resource: "application"})
		return
	}
	l, err := s.loadListing(r.Context(), app.ListingID)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	if l.EnterpriseID != ent.ID {
		s.handleError(w, r, &ErrForbidden{Message: "you do not own this listing"})
		return
	}

	updated, err := s.store.UpdateApplicationStatus(r.Context(), app.ID, req.Status, req.ReviewerNotes)
	if err != nil {
		s.handleError(w, r, fmt.Errorf("failed to update application: %w", err))
		return
	}

	if st, err := s.store.GetStudent(r.Context(), app.StudentID); err == nil && st != nil {
		s.notify(r.Context(), db.NotificationInput{
			UserID:    st.UserID,
			Type:      db.NotificationApplicationStatus,
			Title:     "Application status updated",
			Message:   fmt.Sprintf("Your application to %q is now %s", l.Title, updated.Status),
			RelatedID: &updated.ID,
		})
	}
	_ = s.events.Publish(r.Context(), events.ApplicationStatusChanged, events.ApplicationEvent{
		ApplicationID:  updated.ID,
		ListingID:      l.ID,
		StudentID:      updated.StudentID,
		EnterpriseID:   ent.ID,
		Status:         updated.Status,
		PreviousStatus: app.Status,
		MatchRate:      updated.MatchRate,
	})

	s.jsonResponse(w, http.StatusOK, updated)
}

// handleWithdrawApplication handles DELETE /applications/{id}
func (s *Server) handleWithdrawApplication(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	st, err := s.currentStudent(r)
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	app, err := s.store.GetApplication(r.Context(), id)
	if err != nil {
		s.handleError(w, r, fmt.Errorf("failed to load application: %w", err))
		return
	}
	if app == nil {
		s.handleError(w, r, &ErrNotFound{Resource: "application"})
		return
	}
	if app.StudentID != st.ID {
		s.handleError(w, r, &ErrForbidden{Message: "you do not own this application"})
		return
	}

	if err := s.store.DeleteApplication(r.Context(), app.ID); err != nil {
		s.handleError(w, r, fmt.Errorf("failed to withdraw application: %w", err))
		return
	}
	_ = s.events.Publish(r.Context(), events.ApplicationWithdrawn, events.ApplicationEvent{
		ApplicationID: app.ID,
		ListingID:     app.ListingID,
		StudentID:     st.ID,
		Status:        app.Status,
		MatchRate:     app.MatchRate,
	})
	w.WriteHeader(http.StatusNoContent)
}
