package server

import (
	"fmt"
	"net/http"

	"github.com/jonathan/pfe-match/internal/db"
	"github.com/jonathan/pfe-match/internal/storage"
	"github.com/jonathan/pfe-match/internal/types"
)

// handleGetMyEnterpriseProfile handles GET /enterprises/me
func (s *Server) handleGetMyEnterpriseProfile(w http.ResponseWriter, r *http.Request) {
	ent, err := s.currentEnterprise(r)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, ent)
}

// handleUpdateEnterpriseProfile handles PUT /enterprises/me/profile
func (s *Server) handleUpdateEnterpriseProfile(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUserID(r)
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	var req types.EnterpriseProfileRequest
	if err := decodeRequest(r, &req); err != nil {
		s.handleError(w, r, err)
		return
	}

	ent, err := s.store.UpdateEnterpriseProfile(r.Context(), userID, db.EnterpriseProfileUpdate{
		CompanyName:        req.CompanyName,
		Industry:           req.Industry,
		Location:           req.Location,
		EmployeeCount:      req.EmployeeCount,
		CompanyDescription: req.CompanyDescription,
		TechnologiesUsed:   req.TechnologiesUsed,
		Website:            req.Website,
		LinkedinURL:        req.LinkedinURL,
		FoundedYear:        req.FoundedYear,
	})
	if err != nil {
		s.handleError(w, r, fmt.Errorf("failed to update enterprise profile: %w", err))
		return
	}
	s.jsonResponse(w, http.StatusOK, ent)
}

// handleUploadLogo handles POST /enterprises/me/logo
func (s *Server) handleUploadLogo(w http.ResponseWriter, r *http.Request) {
	ent, err := s.currentEnterprise(r)
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	u, err := s.readUpload(w, r, storage.CategoryCompanyLogo)
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	url, err := s.storeUpload(r, storage.CategoryCompanyLogo, ent.UserID, u)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	if _, err := s.store.SetEnterpriseLogo(r.Context(), ent.UserID, url); err != nil {
		s.handleError(w, r, fmt.Errorf("failed to save company logo: %w", err))
		return
	}
	s.removeStoredFile(r, ent.CompanyLogo)

	s.jsonResponse(w, http.StatusOK, types.UploadResponse{Message: "Company logo uploaded successfully", URL: url})
}

// handleDashboardStats handles GET /dashboard/statistics
func (s *Server) handleDashboardStats(w http.ResponseWriter, r *http.Request) {
	ent, err := s.currentEnterprise(r)
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	stats, err := s.store.GetDashboardStats(r.Context(), ent.ID)
	if err != nil {
		s.handleError(w, r, fmt.Errorf("failed to compute dashboard statistics: %w", err))
		return
	}
	s.jsonResponse(w, http.StatusOK, stats)
}
