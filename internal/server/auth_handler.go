package server

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/jonathan/pfe-match/internal/db"
	"github.com/jonathan/pfe-match/internal/types"
)

// AuthHandler handles authentication-related HTTP requests.
type AuthHandler struct {
	userService *UserService
	jwtService  *JWTService
	log         *zap.Logger
}

// NewAuthHandler creates a new AuthHandler with the given dependencies.
func NewAuthHandler(userService *UserService, jwtService *JWTService, log *zap.Logger) *AuthHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &AuthHandler{
		userService: userService,
		jwtService:  jwtService,
		log:         log,
	}
}

// RegisterStudent handles POST /auth/register/student.
func (h *AuthHandler) RegisterStudent(w http.ResponseWriter, r *http.Request) {
	var req types.RegisterStudentRequest
	if err := decodeRequest(r, &req); err != nil {
		h.writeError(w, err)
		return
	}

	user, err := h.userService.RegisterStudent(r.Context(), &req)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.log.Info("student registered", zap.String("user_id", user.ID.String()))
	h.respondWithToken(w, http.StatusCreated, user)
}

// RegisterEnterprise handles POST /auth/register/enterprise.
func (h *AuthHandler) RegisterEnterprise(w http.ResponseWriter, r *http.Request) {
	var req types.RegisterEnterpriseRequest
	if err := decodeRequest(r, &req); err != nil {
		h.writeError(w, err)
		return
	}

	user, err := h.userService.RegisterEnterprise(r.Context(), &req)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.log.Info("enterprise registered", zap.String("user_id", user.ID.String()))
	h.respondWithToken(w, http.StatusCreated, user)
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req types.LoginRequest
	if err := decodeRequest(r, &req); err != nil {
		h.writeError(w, err)
		return
	}

	user, err := h.userService.Login(r.Context(), &req)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.respondWithToken(w, http.StatusOK, user)
}

// UpdatePassword handles PUT /auth/password for the authenticated user.
func (h *AuthHandler) UpdatePassword(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUserID(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	var req types.UpdatePasswordRequest
	if err := decodeRequest(r, &req); err != nil {
		h.writeError(w, err)
		return
	}

	if err := h.userService.UpdatePassword(r.Context(), userID, req.CurrentPassword, req.NewPassword); err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, types.MessageResponse{Message: "Password updated successfully"})
}

func (h *AuthHandler) respondWithToken(w http.ResponseWriter, status int, user *db.User) {
	token, err := h.jwtService.GenerateToken(user.ID, string(user.Role), user.Email)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, status, types.TokenResponse{
		AccessToken:      token,
		TokenType:        types.TokenTypeBearer,
		UserType:         string(user.Role),
		ProfileCompleted: user.ProfileCompleted,
		User:             toTypesUser(user),
	})
}

func (h *AuthHandler) writeError(w http.ResponseWriter, err error) {
	status := HTTPStatus(err)
	message := err.Error()
	if status >= http.StatusInternalServerError {
		h.log.Error("auth request failed", zap.Error(err))
		message = "internal server error"
	}
	h.writeJSON(w, status, map[string]string{"error": message})
}

func (h *AuthHandler) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.log.Error("failed to encode JSON response", zap.Error(err))
	}
}
