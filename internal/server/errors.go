// Package server provides the HTTP REST API of PFE Match.
package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jonathan/pfe-match/internal/config"
	"github.com/jonathan/pfe-match/internal/db"
	"github.com/jonathan/pfe-match/internal/resume"
	"github.com/jonathan/pfe-match/internal/storage"
)

// ErrEmailAlreadyExists indicates email is already registered
type ErrEmailAlreadyExists struct {
	Email string
}

func (e *ErrEmailAlreadyExists) Error() string {
	return fmt.Sprintf("email already registered: %s", e.Email)
}

// ErrInvalidCredentials indicates invalid login credentials
type ErrInvalidCredentials struct{}

func (e *ErrInvalidCredentials) Error() string {
	return "invalid email or password"
}

// ErrAccountInactive indicates a deactivated account tried to log in.
type ErrAccountInactive struct{}

func (e *ErrAccountInactive) Error() string {
	return "account is inactive"
}

// ErrPasswordMismatch indicates current password is incorrect
type ErrPasswordMismatch struct{}

func (e *ErrPasswordMismatch) Error() string {
	return "current password is incorrect"
}

// ErrNotFound indicates a missing resource.
type ErrNotFound struct {
	Resource string
}

func (e *ErrNotFound) Error() string {
	return e.Resource + " not found"
}

// ErrForbidden indicates the caller does not own the resource.
type ErrForbidden struct {
	Message string
}

func (e *ErrForbidden) Error() string {
	if e.Message == "" {
		return "forbidden"
	}
	return e.Message
}

// ErrConflict indicates the request collides with existing state.
type ErrConflict struct {
	Message string
}

func (e *ErrConflict) Error() string {
	return e.Message
}

// ErrValidation indicates request validation failure
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	var (
		emailExists   *ErrEmailAlreadyExists
		invalidCreds  *ErrInvalidCredentials
		inactive      *ErrAccountInactive
		mismatch      *ErrPasswordMismatch
		notFound      *ErrNotFound
		forbidden     *ErrForbidden
		conflict      *ErrConflict
		validationErr *ErrValidation
	)

	switch {
	case err == nil:
		return http.StatusOK
	case errors.As(err, &emailExists), errors.As(err, &conflict), errors.Is(err, db.ErrDuplicate):
		return http.StatusConflict
	case errors.As(err, &invalidCreds), errors.As(err, &mismatch):
		return http.StatusUnauthorized
	case errors.As(err, &inactive), errors.As(err, &forbidden):
		return http.StatusForbidden
	case errors.As(err, &notFound), errors.Is(err, db.ErrNotFound), errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound
	case errors.As(err, &validationErr),
		errors.Is(err, config.ErrWeakPassword),
		errors.Is(err, storage.ErrUnsupportedType),
		errors.Is(err, resume.ErrUnsupportedType):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
