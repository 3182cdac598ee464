package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

func enterpriseColumns(alias string) string {
	return qualify(alias,
		"id", "user_id", "company_name", "industry", "company_logo", "location",
		"employee_count", "company_description", "technologies_used", "website",
		"linkedin_url", "founded_year", "created_at", "updated_at",
	)
}

func scanEnterprise(row rowScanner) (*Enterprise, error) {
	var e Enterprise
	err := row.Scan(
		&e.ID, &e.UserID, &e.CompanyName, &e.Industry, &e.CompanyLogo, &e.Location,
		&e.EmployeeCount, &e.CompanyDescription, &e.TechnologiesUsed, &e.Website,
		&e.LinkedinURL, &e.FoundedYear, &e.CreatedAt, &e.UpdatedAt,
		&e.Email,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

var enterpriseSelect = `SELECT ` + enterpriseColumns("e") + `, u.email
	FROM enterprises e JOIN users u ON u.id = e.user_id`

func (db *DB) getEnterprise(ctx context.Context, where string, arg any) (*Enterprise, error) {
	e, err := scanEnterprise(db.pool.QueryRow(ctx, enterpriseSelect+` WHERE `+where, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get enterprise: %w", err)
	}
	return e, nil
}

// GetEnterprise retrieves an enterprise profile by ID. Returns nil, nil when not found.
func (db *DB) GetEnterprise(ctx context.Context, id uuid.UUID) (*Enterprise, error) {
	return db.getEnterprise(ctx, `e.id = $1`, id)
}

// GetEnterpriseByUserID retrieves the enterprise profile of a user. Returns nil, nil
// when not found.
func (db *DB) GetEnterpriseByUserID(ctx context.Context, userID uuid.UUID) (*Enterprise, error) {
	return db.getEnterprise(ctx, `e.user_id = $1`, userID)
}

// UpdateEnterpriseProfile applies the non-nil fields of upd and marks the user's profile
// as completed. Returns ErrNotFound when the user has no enterprise profile.
func (db *DB) UpdateEnterpriseProfile(ctx context.Context, userID uuid.UUID, upd EnterpriseProfileUpdate) (*Enterprise, error) {
	var enterprise *Enterprise
	err := db.inTx(ctx, func(tx pgx.Tx) error {
		result, err := tx.Exec(ctx,
			`UPDATE enterprises SET
				company_name        = COALESCE($2::text, company_name),
				industry            = COALESCE($3::text, industry),
				location            = COALESCE($4::text, location),
				employee_count      = COALESCE($5::text, employee_count),
				company_description = COALESCE($6::text, company_description),
				technologies_used   = COALESCE($7::jsonb, technologies_used),
				website             = COALESCE($8::text, website),
				linkedin_url        = COALESCE($9::text, linkedin_url),
				founded_year        = COALESCE($10::integer, founded_year),
				updated_at          = NOW()
			 WHERE user_id = $1`,
			userID, upd.CompanyName, upd.Industry, upd.Location, upd.EmployeeCount,
			upd.CompanyDescription, optionalArray(upd.TechnologiesUsed), upd.Website,
			upd.LinkedinURL, upd.FoundedYear,
		)
		if err != nil {
			return fmt.Errorf("failed to update enterprise profile: %w", err)
		}
		if result.RowsAffected() == 0 {
			return ErrNotFound
		}
		if err := markProfileCompleted(ctx, tx, userID); err != nil {
			return err
		}

		enterprise, err = scanEnterprise(tx.QueryRow(ctx, enterpriseSelect+` WHERE e.user_id = $1`, userID))
		if err != nil {
			return fmt.Errorf("failed to reload enterprise: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return enterprise, nil
}

// SetEnterpriseLogo stores the company logo URL.
func (db *DB) SetEnterpriseLogo(ctx context.Context, userID uuid.UUID, url string) (*Enterprise, error) {
	e, err := scanEnterprise(db.pool.QueryRow(ctx,
		`WITH e AS (
			UPDATE enterprises SET company_logo = $2, updated_at = NOW()
			WHERE user_id = $1
			RETURNING *
		 )
		 SELECT `+enterpriseColumns("e")+`, u.email FROM e JOIN users u ON u.id = e.user_id`,
		userID, url,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to set company logo: %w", err)
	}
	return e, nil
}
