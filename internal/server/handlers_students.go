package server

import (
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jonathan/pfe-match/internal/db"
	"github.com/jonathan/pfe-match/internal/logger"
	"github.com/jonathan/pfe-match/internal/resume"
	"github.com/jonathan/pfe-match/internal/storage"
	"github.com/jonathan/pfe-match/internal/types"
)

// Parsing statuses reported after a resume upload.
const (
	parsingSuccess      = "success"
	parsingFailedPrefix = "failed: "
)

// handleListStudents handles GET /students
func (s *Server) handleListStudents(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", 50, 1, 100)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	offset, err := queryInt(r, "offset", 0, 0, 1<<31-1)
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	students, err := s.store.ListStudents(r.Context(), limit, offset)
	if err != nil {
		s.handleError(w, r, fmt.Errorf("failed to list students: %w", err))
		return
	}
	if students == nil {
		students = []db.Student{}
	}
	s.jsonResponse(w, http.StatusOK, students)
}

// handleGetMyStudentProfile handles GET /students/me
func (s *Server) handleGetMyStudentProfile(w http.ResponseWriter, r *http.Request) {
	st, err := s.currentStudent(r)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, st)
}

// handleUpdateStudentProfile handles PUT /students/me/profile
func (s *Server) handleUpdateStudentProfile(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUserID(r)
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	var req types.StudentProfileRequest
	if err := decodeRequest(r, &req); err != nil {
		s.handleError(w, r, err)
		return
	}

	st, err := s.store.UpdateStudentProfile(r.Context(), userID, db.StudentProfileUpdate{
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		University:     req.University,
		ShortBio:       req.ShortBio,
		DesiredJobRole: req.DesiredJobRole,
		LinkedinURL:    req.LinkedinURL,
		GithubURL:      req.GithubURL,
		PortfolioURL:   req.PortfolioURL,
		Skills:         req.Skills,
		Technologies:   req.Technologies,
	})
	if err != nil {
		s.handleError(w, r, fmt.Errorf("failed to update student profile: %w", err))
		return
	}
	s.jsonResponse(w, http.StatusOK, st)
}

// handleUploadResume handles POST /students/me/resume. The file is stored first; a
// document that cannot be parsed is kept and reported through parsing_status.
func (s *Server) handleUploadResume(w http.ResponseWriter, r *http.Request) {
	st, err := s.currentStudent(r)
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	u, err := s.readUpload(w, r, storage.CategoryResume)
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	url, err := s.storeUpload(r, storage.CategoryResume, st.UserID, u)
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	resp, err := s.applyResume(r, st.UserID, url, u.ContentType, u.Data)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	if st.ResumeURL != url {
		s.removeStoredFile(r, st.ResumeURL)
	}
	resp.Message = "Resume uploaded successfully"
	s.jsonResponse(w, http.StatusOK, resp)
}

// handleReparseResume handles POST /students/me/parse-resume by parsing the stored
// resume again.
func (s *Server) handleReparseResume(w http.ResponseWriter, r *http.Request) {
	st, err := s.currentStudent(r)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	if st.ResumeURL == "" {
		s.handleError(w, r, &ErrValidation{Message: "no resume uploaded"})
		return
	}

	key := storage.KeyFromURL(s.filesBase, st.ResumeURL)
	if key == "" {
		s.handleError(w, r, &ErrNotFound{Resource: "resume file"})
		return
	}
	data, err := s.files.Get(r.Context(), key)
	if err != nil {
		s.handleError(w, r, fmt.Errorf("failed to read stored resume: %w", err))
		return
	}
	mime, _, err := storage.ResolveContentType(storage.CategoryResume, key, "")
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	resp, err := s.applyResume(r, st.UserID, st.ResumeURL, mime, data)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	resp.Message = "Resume parsed"
	s.jsonResponse(w, http.StatusOK, resp)
}

// applyResume extracts profile data from a resume and saves it with the resume URL.
// Parse failures are reported in the response and leave the profile skills untouched.
func (s *Server) applyResume(r *http.Request, userID uuid.UUID, url, mime string, data []byte) (*types.ResumeUploadResponse, error) {
	resp := &types.ResumeUploadResponse{ResumeURL: url}

	extracted, parseErr := parseResume(mime, data)
	var resumeData *db.ResumeData
	if parseErr != nil {
		s.log.Info("resume parsing failed",
			zap.String(logger.FieldUserID, userID.String()), zap.Error(parseErr))
		resp.ParsingStatus = parsingFailedPrefix + parseErr.Error()
	} else {
		resp.ParsingStatus = parsingSuccess
		resp.ExtractedData = extracted
		resumeData = &db.ResumeData{
			GithubURL:    extracted.GithubURL,
			LinkedinURL:  extracted.LinkedinURL,
			Skills:       extracted.Skills,
			Technologies: extracted.Technologies,
		}
	}

	if _, err := s.store.SetStudentResume(r.Context(), userID, url, resumeData); err != nil {
		return nil, fmt.Errorf("failed to save resume: %w", err)
	}
	return resp, nil
}

// parseResume extracts text from a document and parses it.
func parseResume(mime string, data []byte) (*types.ExtractedResume, error) {
	text, err := resume.ExtractText(mime, data)
	if err != nil {
		return nil, err
	}
	ex := resume.Parse(text)
	return &types.ExtractedResume{
		GithubURL:    ex.GithubURL,
		LinkedinURL:  ex.LinkedinURL,
		Skills:       ex.Skills,
		Technologies: ex.Technologies,
	}, nil
}

// handleParseCV handles POST /students/parse-cv: parses an uploaded resume without
// storing anything.
func (s *Server) handleParseCV(w http.ResponseWriter, r *http.Request) {
	u, err := s.readUpload(w, r, storage.CategoryResume)
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	extracted, err := parseResume(u.ContentType, u.Data)
	if err != nil {
		s.handleError(w, r, &ErrValidation{Field: formFileField, Message: err.Error()})
		return
	}
	s.jsonResponse(w, http.StatusOK, extracted)
}

// handleUploadProfilePicture handles POST /students/me/profile-picture
func (s *Server) handleUploadProfilePicture(w http.ResponseWriter, r *http.Request) {
	st, err := s.currentStudent(r)
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	u, err := s.readUpload(w, r, storage.CategoryProfilePicture)
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	url, err := s.storeUpload(r, storage.CategoryProfilePicture, st.UserID, u)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	if _, err := s.store.SetStudentProfilePicture(r.Context(), st.UserID, url); err != nil {
		s.handleError(w, r, fmt.Errorf("failed to save profile picture: %w", err))
		return
	}
	s.removeStoredFile(r, st.ProfilePicture)

	s.jsonResponse(w, http.StatusOK, types.UploadResponse{Message: "Profile picture uploaded successfully", URL: url})
}
