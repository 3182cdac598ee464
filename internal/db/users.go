package db

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const userColumns = `id, email, password_hash, role, is_active, profile_completed, created_at, updated_at`

func scanUser(row rowScanner) (*User, error) {
	var u User
	if err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Role, &u.IsActive, &u.ProfileCompleted, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}

func insertUser(ctx context.Context, tx pgx.Tx, email, passwordHash string, role Role) (*User, error) {
	u, err := scanUser(tx.QueryRow(ctx,
		`INSERT INTO users (email, password_hash, role)
		 VALUES ($1, $2, $3)
		 RETURNING `+userColumns,
		strings.ToLower(strings.TrimSpace(email)), passwordHash, role,
	))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return u, nil
}

// CreateStudentAccount creates a student user and its profile in one transaction.
// It returns ErrDuplicate when the email is already registered.
func (db *DB) CreateStudentAccount(ctx context.Context, email, passwordHash, firstName, lastName string) (*User, *Student, error) {
	var (
		user    *User
		student *Student
	)
	err := db.inTx(ctx, func(tx pgx.Tx) error {
		var err error
		if user, err = insertUser(ctx, tx, email, passwordHash, RoleStudent); err != nil {
			return err
		}
		student, err = scanStudent(tx.QueryRow(ctx,
			`WITH s AS (
				INSERT INTO students (user_id, first_name, last_name) VALUES ($1, $2, $3)
				RETURNING *
			 )
			 SELECT `+studentColumns("s")+`, $4::text FROM s`,
			user.ID, firstName, lastName, user.Email,
		))
		if err != nil {
			return fmt.Errorf("failed to create student profile: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return user, student, nil
}

// CreateEnterpriseAccount creates an enterprise user and its profile in one transaction.
// It returns ErrDuplicate when the email is already registered.
func (db *DB) CreateEnterpriseAccount(ctx context.Context, email, passwordHash, companyName, industry string) (*User, *Enterprise, error) {
	var (
		user       *User
		enterprise *Enterprise
	)
	err := db.inTx(ctx, func(tx pgx.Tx) error {
		var err error
		if user, err = insertUser(ctx, tx, email, passwordHash, RoleEnterprise); err != nil {
			return err
		}
		enterprise, err = scanEnterprise(tx.QueryRow(ctx,
			`WITH e AS (
				INSERT INTO enterprises (user_id, company_name, industry) VALUES ($1, $2, $3)
				RETURNING *
			 )
			 SELECT `+enterpriseColumns("e")+`, $4::text FROM e`,
			user.ID, companyName, industry, user.Email,
		))
		if err != nil {
			return fmt.Errorf("failed to create enterprise profile: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return user, enterprise, nil
}

// GetUserByID retrieves a user by ID. Returns nil, nil when not found.
func (db *DB) GetUserByID(ctx context.Context, id uuid.UUID) (*User, error) {
	u, err := scanUser(db.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return u, nil
}

// GetUserByEmail retrieves a user by email, case-insensitively. Returns nil, nil when
// not found.
func (db *DB) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, nil
	}
	u, err := scanUser(db.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE LOWER(email) = $1`, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	return u, nil
}

// UpdatePassword replaces a user's password hash.
func (db *DB) UpdatePassword(ctx context.Context, userID uuid.UUID, passwordHash string) error {
	result, err := db.pool.Exec(ctx,
		`UPDATE users SET password_hash = $1, updated_at = NOW() WHERE id = $2`,
		passwordHash, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SetUserActive enables or disables login for a user.
func (db *DB) SetUserActive(ctx context.Context, userID uuid.UUID, active bool) error {
	result, err := db.pool.Exec(ctx,
		`UPDATE users SET is_active = $1, updated_at = NOW() WHERE id = $2`,
		active, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteUser deletes a user and, by cascade, its profile and everything it owns.
func (db *DB) DeleteUser(ctx context.Context, userID uuid.UUID) error {
	result, err := db.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, userID)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func markProfileCompleted(ctx context.Context, tx pgx.Tx, userID uuid.UUID) error {
	if _, err := tx.Exec(ctx,
		`UPDATE users SET profile_completed = TRUE, updated_at = NOW() WHERE id = $1`, userID,
	); err != nil {
		return fmt.Errorf("failed to mark profile completed: %w", err)
	}
	return nil
}
