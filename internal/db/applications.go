package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const applicationColumns = `a.id, a.student_id, a.listing_id, a.cover_letter, a.status, a.match_rate,
	a.explanation, a.matched_skills, a.missing_skills, a.recommendations, a.reviewer_notes,
	a.applied_at, a.updated_at`

func applicationFields(a *Application) []any {
	return []any{
		&a.ID, &a.StudentID, &a.ListingID, &a.CoverLetter, &a.Status, &a.MatchRate,
		&a.Explanation, &a.MatchedSkills, &a.MissingSkills, &a.Recommendations, &a.ReviewerNotes,
		&a.AppliedAt, &a.UpdatedAt,
	}
}

func scanApplication(row rowScanner) (*Application, error) {
	var a Application
	if err := row.Scan(applicationFields(&a)...); err != nil {
		return nil, err
	}
	return &a, nil
}

const applicationViewSelect = `SELECT ` + applicationColumns + `,
		l.title, e.company_name, s.first_name || ' ' || s.last_name, u.email, s.university, s.resume_url
	FROM applications a
	JOIN pfe_listings l ON l.id = a.listing_id
	JOIN enterprises e ON e.id = l.enterprise_id
	JOIN students s ON s.id = a.student_id
	JOIN users u ON u.id = s.user_id`

func scanApplicationView(row rowScanner) (*ApplicationView, error) {
	var v ApplicationView
	dest := append(applicationFields(&v.Application),
		&v.ListingTitle, &v.CompanyName, &v.StudentName, &v.StudentEmail, &v.University, &v.ResumeURL,
	)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	return &v, nil
}

// ApplicationInput holds a new application and its computed match result.
type ApplicationInput struct {
	StudentID       uuid.UUID
	ListingID       uuid.UUID
	CoverLetter     string
	MatchRate       float64
	Explanation     string
	MatchedSkills   []string
	MissingSkills   []string
	Recommendations string
}

// CreateApplication stores a pending application. Returns ErrDuplicate when the student
// already applied to the listing.
func (db *DB) CreateApplication(ctx context.Context, in ApplicationInput) (*Application, error) {
	a, err := scanApplication(db.pool.QueryRow(ctx,
		`INSERT INTO applications AS a (student_id, listing_id, cover_letter, match_rate, explanation,
			matched_skills, missing_skills, recommendations)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING `+applicationColumns,
		in.StudentID, in.ListingID, in.CoverLetter, in.MatchRate, in.Explanation,
		StringArray(in.MatchedSkills), StringArray(in.MissingSkills), in.Recommendations,
	))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, fmt.Errorf("failed to create application: %w", err)
	}
	return a, nil
}

// GetApplication retrieves an application by ID. Returns nil, nil when not found.
func (db *DB) GetApplication(ctx context.Context, id uuid.UUID) (*Application, error) {
	a, err := scanApplication(db.pool.QueryRow(ctx,
		`SELECT `+applicationColumns+` FROM applications a WHERE a.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get application: %w", err)
	}
	return a, nil
}

func (db *DB) listApplicationViews(ctx context.Context, query string, args ...any) ([]ApplicationView, error) {
	rows, err := db.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list applications: %w", err)
	}
	defer rows.Close()

	views := []ApplicationView{}
	for rows.Next() {
		v, err := scanApplicationView(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan application: %w", err)
		}
		views = append(views, *v)
	}
	return views, rows.Err()
}

// ListApplicationsByStudent returns a student's applications, newest first.
func (db *DB) ListApplicationsByStudent(ctx context.Context, studentID uuid.UUID) ([]ApplicationView, error) {
	return db.listApplicationViews(ctx,
		applicationViewSelect+` WHERE a.student_id = $1 ORDER BY a.applied_at DESC`, studentID)
}

// ListApplicationsByListing returns the applicants of a listing with a match rate of at
// least minMatchRate, best match first.
func (db *DB) ListApplicationsByListing(ctx context.Context, listingID uuid.UUID, minMatchRate float64) ([]ApplicationView, error) {
	return db.listApplicationViews(ctx,
		applicationViewSelect+` WHERE a.listing_id = $1 AND a.match_rate >= $2
		 ORDER BY a.match_rate DESC, a.applied_at ASC`, listingID, minMatchRate)
}

// UpdateApplicationStatus sets the status and, when notes is non-nil, the reviewer notes.
// Returns ErrNotFound when the application does not exist.
func (db *DB) UpdateApplicationStatus(ctx context.Context, id uuid.UUID, status string, notes *string) (*Application, error) {
	a, err := scanApplication(db.pool.QueryRow(ctx,
		`UPDATE applications AS a SET
			status         = $2,
			reviewer_notes = COALESCE($3::text, reviewer_notes),
			updated_at     = NOW()
		 WHERE a.id = $1
		 RETURNING `+applicationColumns,
		id, status, notes,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to update application: %w", err)
	}
	return a, nil
}

// DeleteApplication removes an application.
func (db *DB) DeleteApplication(ctx context.Context, id uuid.UUID) error {
	result, err := db.pool.Exec(ctx, `DELETE FROM applications WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete application: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
