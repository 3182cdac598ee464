package server

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jonathan/pfe-match/internal/config"
	"github.com/jonathan/pfe-match/internal/db"
	"github.com/jonathan/pfe-match/internal/types"
)

// UserService provides business logic for account registration and authentication.
type UserService struct {
	store          Store
	passwordConfig *config.PasswordConfig
}

// NewUserService creates a new UserService with the given dependencies
func NewUserService(store Store, passwordConfig *config.PasswordConfig) *UserService {
	return &UserService{
		store:          store,
		passwordConfig: passwordConfig,
	}
}

// toTypesUser converts db.User to types.User, excluding the password hash.
func toTypesUser(u *db.User) *types.User {
	if u == nil {
		return nil
	}
	return &types.User{
		ID:               u.ID,
		Email:            u.Email,
		UserType:         string(u.Role),
		IsActive:         u.IsActive,
		ProfileCompleted: u.ProfileCompleted,
		CreatedAt:        u.CreatedAt,
	}
}

// hashNewPassword enforces the strength policy and hashes pw.
func (s *UserService) hashNewPassword(pw string) (string, error) {
	if err := s.passwordConfig.CheckStrength(pw); err != nil {
		return "", &ErrValidation{Field: "password", Message: err.Error()}
	}
	hash, err := s.passwordConfig.HashPassword(pw)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return hash, nil
}

// RegisterStudent creates a student account and its empty profile.
func (s *UserService) RegisterStudent(ctx context.Context, req *types.RegisterStudentRequest) (*db.User, error) {
	hash, err := s.hashNewPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user, _, err := s.store.CreateStudentAccount(ctx, req.Email, hash, req.FirstName, req.LastName)
	if err != nil {
		if errors.Is(err, db.ErrDuplicate) {
			return nil, &ErrEmailAlreadyExists{Email: req.Email}
		}
		return nil, fmt.Errorf("failed to create student account: %w", err)
	}
	return user, nil
}

// RegisterEnterprise creates an enterprise account and its company profile.
func (s *UserService) RegisterEnterprise(ctx context.Context, req *types.RegisterEnterpriseRequest) (*db.User, error) {
	hash, err := s.hashNewPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user, _, err := s.store.CreateEnterpriseAccount(ctx, req.Email, hash, req.CompanyName, req.Industry)
	if err != nil {
		if errors.Is(err, db.ErrDuplicate) {
			return nil, &ErrEmailAlreadyExists{Email: req.Email}
		}
		return nil, fmt.Errorf("failed to create enterprise account: %w", err)
	}
	return user, nil
}

// Login authenticates a user and returns the account.
func (s *UserService) Login(ctx context.Context, req *types.LoginRequest) (*db.User, error) {
	user, err := s.store.GetUserByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}

	// Unknown email and wrong password are indistinguishable to the caller.
	if user == nil || !s.passwordConfig.VerifyPassword(req.Password, user.PasswordHash) {
		return nil, &ErrInvalidCredentials{}
	}
	if !user.IsActive {
		return nil, &ErrAccountInactive{}
	}
	return user, nil
}

// UpdatePassword updates a user's password after checking the current one.
func (s *UserService) UpdatePassword(ctx context.Context, userID uuid.UUID, currentPassword, newPassword string) error {
	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return &ErrNotFound{Resource: "user"}
	}

	if !s.passwordConfig.VerifyPassword(currentPassword, user.PasswordHash) {
		return &ErrPasswordMismatch{}
	}

	hash, err := s.hashNewPassword(newPassword)
	if err != nil {
		return err
	}

	if err := s.store.UpdatePassword(ctx, userID, hash); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	return nil
}
