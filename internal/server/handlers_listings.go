package server

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jonathan/pfe-match/internal/db"
	"github.com/jonathan/pfe-match/internal/events"
	"github.com/jonathan/pfe-match/internal/logger"
	"github.com/jonathan/pfe-match/internal/types"
)

// exploreLimit caps how many open listings are scored per explore request.
const exploreLimit = db.MaxListingLimit

func toDate(s string) (*db.Date, error) {
	t, err := types.ParseDeadline(s)
	if err != nil {
		return nil, &ErrValidation{Field: "deadline", Message: "must be YYYY-MM-DD"}
	}
	if t == nil {
		return nil, nil
	}
	return &db.Date{Time: *t}, nil
}

// loadListing fetches a listing or returns ErrNotFound.
func (s *Server) loadListing(ctx context.Context, id uuid.UUID) (*db.Listing, error) {
	l, err := s.store.GetListing(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load listing: %w", err)
	}
	if l == nil {
		return nil, &ErrNotFound{Resource: "listing"}
	}
	return l, nil
}

// ownedListing loads the listing in the URL and checks it belongs to the caller.
func (s *Server) ownedListing(r *http.Request) (*db.Listing, *db.Enterprise, error) {
	id, err := uuidParam(r, "id")
	if err != nil {
		return nil, nil, err
	}
	ent, err := s.currentEnterprise(r)
	if err != nil {
		return nil, nil, err
	}
	l, err := s.loadListing(r.Context(), id)
	if err != nil {
		return nil, nil, err
	}
	if l.EnterpriseID != ent.ID {
		return nil, nil, &ErrForbidden{Message: "you do not own this listing"}
	}
	return l, ent, nil
}

// handleListListings handles GET /listings
func (s *Server) handleListListings(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filters := db.ListingFilters{
		Status:   strings.ToLower(q.Get("status")),
		Category: q.Get("category"),
		Query:    strings.TrimSpace(q.Get("q")),
	}
	if filters.Status != "" && filters.Status != db.ListingOpen && filters.Status != db.ListingClosed {
		s.handleError(w, r, &ErrValidation{Field: "status", Message: "oneof=open closed"})
		return
	}
	if raw := q.Get("enterprise_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			s.handleError(w, r, &ErrValidation{Field: "enterprise_id", Message: "invalid id"})
			return
		}
		filters.EnterpriseID = id
	}

	var err error
	if filters.Limit, err = queryInt(r, "limit", 50, 1, db.MaxListingLimit); err != nil {
		s.handleError(w, r, err)
		return
	}
	if filters.Offset, err = queryInt(r, "offset", 0, 0, 1<<31-1); err != nil {
		s.handleError(w, r, err)
		return
	}

	listings, err := s.store.ListListings(r.Context(), filters)
	if err != nil {
		s.handleError(w, r, fmt.Errorf("failed to list listings: %w", err))
		return
	}
	if listings == nil {
		listings = []db.Listing{}
	}
	s.jsonResponse(w, http.StatusOK, listings)
}

// handleGetListing handles GET /listings/{id}
func (s *Server) handleGetListing(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	l, err := s.loadListing(r.Context(), id)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, l)
}

// handleCreateListing handles POST /listings
func (s *Server) handleCreateListing(w http.ResponseWriter, r *http.Request) {
	ent, err := s.currentEnterprise(r)
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	var req types.ListingRequest
	if err := decodeRequest(r, &req); err != nil {
		s.handleError(w, r, err)
		return
	}
	deadline, err := toDate(req.Deadline)
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	l, err := s.store.CreateListing(r.Context(), ent.ID, db.ListingInput{
		Title:       req.Title,
		Category:    req.Category,
		Duration:    req.Duration,
		Description: req.Description,
		Department:  req.Department,
		Location:    req.Location,
		Skills:      req.Skills,
		Deadline:    deadline,
	})
	if err != nil {
		s.handleError(w, r, fmt.Errorf("failed to create listing: %w", err))
		return
	}

	_ = s.events.Publish(r.Context(), events.ListingCreated, events.ListingEvent{
		ListingID: l.ID, EnterpriseID: ent.ID, Title: l.Title, Status: l.Status,
	})
	s.jsonResponse(w, http.StatusCreated, l)
}

// handleUpdateListing handles PUT /listings/{id}
func (s *Server) handleUpdateListing(w http.ResponseWriter, r *http.Request) {
	existing, ent, err := s.ownedListing(r)
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	var req types.ListingUpdateRequest
	if err := decodeRequest(r, &req); err != nil {
		s.handleError(w, r, err)
		return
	}

	upd := db.ListingUpdate{
		Title:       req.Title,
		Category:    req.Category,
		Duration:    req.Duration,
		Description: req.Description,
		Department:  req.Department,
		Location:    req.Location,
		Status:      req.Status,
		Skills:      req.Skills,
	}
	if req.Deadline != nil {
		if upd.Deadline, err = toDate(*req.Deadline); err != nil {
			s.handleError(w, r, err)
			return
		}
	}

	l, err := s.store.UpdateListing(r.Context(), existing.ID, upd)
	if err != nil {
		s.handleError(w, r, fmt.Errorf("failed to update listing: %w", err))
		return
	}

	if existing.Status != db.ListingClosed && l.Status == db.ListingClosed {
		_ = s.events.Publish(r.Context(), events.ListingClosed, events.ListingEvent{
			ListingID: l.ID, EnterpriseID: ent.ID, Title: l.Title, Status: l.Status,
		})
		s.notifyApplicants(r.Context(), l, fmt.Sprintf("The listing %q has been closed", l.Title))
	}
	s.jsonResponse(w, http.StatusOK, l)
}

// handleDeleteListing handles DELETE /listings/{id}
func (s *Server) handleDeleteListing(w http.ResponseWriter, r *http.Request) {
	l, _, err := s.ownedListing(r)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	if err := s.store.DeleteListing(r.Context(), l.ID); err != nil {
		s.handleError(w, r, fmt.Errorf("failed to delete listing: %w", err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// notifyApplicants sends a pfe_update notification to every student who applied to l.
func (s *Server) notifyApplicants(ctx context.Context, l *db.Listing, message string) {
	apps, err := s.store.ListApplicationsByListing(ctx, l.ID, 0)
	if err != nil {
		s.log.Warn("failed to load applicants for notification",
			zap.String(logger.FieldListingID, l.ID.String()), zap.Error(err))
		return
	}
	for _, a := range apps {
		st, err := s.store.GetStudent(ctx, a.StudentID)
		if err != nil || st == nil {
			continue
		}
		related := l.ID
		s.notify(ctx, db.NotificationInput{
			UserID:    st.UserID,
			Type:      db.NotificationListingUpdate,
			Title:     "Listing update",
			Message:   message,
			RelatedID: &related,
		})
	}
}

// handleExploreListings handles GET /listings/explore: open listings scored against the
// caller's skills, best match first.
func (s *Server) handleExploreListings(w http.ResponseWriter, r *http.Request) {
	st, err := s.currentStudent(r)
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	q := r.URL.Query()
	now := time.Now().UTC()
	listings, err := s.store.ListListings(r.Context(), db.ListingFilters{
		Status:      db.ListingOpen,
		Category:    q.Get("category"),
		Query:       strings.TrimSpace(q.Get("q")),
		AcceptingOn: time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC),
		Limit:       exploreLimit,
	})
	if err != nil {
		s.handleError(w, r, fmt.Errorf("failed to list listings: %w", err))
		return
	}
	accepting := listings[:0]
	for i := range listings {
		if acceptsApplications(&listings[i], now) {
			accepting = append(accepting, listings[i])
		}
	}
	listings = accepting

	items, err := s.matches.Explore(r.Context(), st, listings)
	if err != nil {
		s.handleError(w, r, fmt.Errorf("failed to score listings: %w", err))
		return
	}

	if raw := q.Get("min_score"); raw != "" {
		minScore, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			s.handleError(w, r, &ErrValidation{Field: "min_score", Message: "must be a number"})
			return
		}
		filtered := items[:0]
		for _, it := range items {
			if it.MatchScore >= minScore {
				filtered = append(filtered, it)
			}
		}
		items = filtered
	}
	s.jsonResponse(w, http.StatusOK, items)
}

// handleMatchPreview handles GET /listings/{id}/match
func (s *Server) handleMatchPreview(w http.ResponseWriter, r *http.Request) {
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
	l, err := s.loadListing(r.Context(), id)
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	res, err := s.matches.Preview(r.Context(), st, l)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, res)
}
