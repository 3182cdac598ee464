// Package types provides the request and response payloads of the PFE Match API.
package types

import (
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// validate is shared by every payload; validator.Validate caches struct metadata and is
// safe for concurrent use.
var validate = newValidator()

// newValidator reports fields by their JSON names.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// RegisterStudentRequest is the body of POST /auth/register/student.
type RegisterStudentRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8"`
	FirstName string `json:"first_name" validate:"required,min=2,max=100"`
	LastName  string `json:"last_name" validate:"required,min=2,max=100"`
}

// RegisterEnterpriseRequest is the body of POST /auth/register/enterprise.
type RegisterEnterpriseRequest struct {
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=8"`
	CompanyName string `json:"company_name" validate:"required,min=2,max=200"`
	Industry    string `json:"industry" validate:"required,min=2,max=100"`
}

// LoginRequest represents the login request.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// UpdatePasswordRequest represents a password update request.
type UpdatePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8"`
}

// User is the public view of an account; the password hash never leaves the db package.
type User struct {
	ID               uuid.UUID `json:"id"`
	Email            string    `json:"email"`
	UserType         string    `json:"user_type"`
	IsActive         bool      `json:"is_active"`
	ProfileCompleted bool      `json:"profile_completed"`
	CreatedAt        time.Time `json:"created_at"`
}

// TokenResponse is returned by registration and login.
type TokenResponse struct {
	AccessToken      string `json:"access_token"`
	TokenType        string `json:"token_type"`
	UserType         string `json:"user_type"`
	ProfileCompleted bool   `json:"profile_completed"`
	User             *User  `json:"user"`
}

// TokenTypeBearer is the only token type issued.
const TokenTypeBearer = "bearer"

// Validate validates the RegisterStudentRequest.
func (r *RegisterStudentRequest) Validate() error {
	return validate.Struct(r)
}

// Validate validates the RegisterEnterpriseRequest.
func (r *RegisterEnterpriseRequest) Validate() error {
	return validate.Struct(r)
}

// Validate validates the LoginRequest.
func (r *LoginRequest) Validate() error {
	return validate.Struct(r)
}

// Validate validates the UpdatePasswordRequest.
func (r *UpdatePasswordRequest) Validate() error {
	return validate.Struct(r)
}
