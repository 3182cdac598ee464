package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// studentColumns lists student columns qualified by alias; the user email must follow.
func studentColumns(alias string) string {
	return qualify(alias,
		"id", "user_id", "first_name", "last_name", "university", "profile_picture",
		"resume_url", "short_bio", "desired_job_role", "linkedin_url", "github_url",
		"portfolio_url", "skills", "technologies", "resume_parsed", "created_at", "updated_at",
	)
}

func scanStudent(row rowScanner) (*Student, error) {
	var s Student
	err := row.Scan(
		&s.ID, &s.UserID, &s.FirstName, &s.LastName, &s.University, &s.ProfilePicture,
		&s.ResumeURL, &s.ShortBio, &s.DesiredJobRole, &s.LinkedinURL, &s.GithubURL,
		&s.PortfolioURL, &s.Skills, &s.Technologies, &s.ResumeParsed, &s.CreatedAt, &s.UpdatedAt,
		&s.Email,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

var studentSelect = `SELECT ` + studentColumns("s") + `, u.email
	FROM students s JOIN users u ON u.id = s.user_id`

func (db *DB) getStudent(ctx context.Context, where string, arg any) (*Student, error) {
	s, err := scanStudent(db.pool.QueryRow(ctx, studentSelect+` WHERE `+where, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get student: %w", err)
	}
	return s, nil
}

// GetStudent retrieves a student profile by ID. Returns nil, nil when not found.
func (db *DB) GetStudent(ctx context.Context, id uuid.UUID) (*Student, error) {
	return db.getStudent(ctx, `s.id = $1`, id)
}

// GetStudentByUserID retrieves the student profile of a user. Returns nil, nil when not
// found.
func (db *DB) GetStudentByUserID(ctx context.Context, userID uuid.UUID) (*Student, error) {
	return db.getStudent(ctx, `s.user_id = $1`, userID)
}

// ListStudents returns active students ordered by last name.
func (db *DB) ListStudents(ctx context.Context, limit, offset int) ([]Student, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := db.pool.Query(ctx,
		studentSelect+` WHERE u.is_active ORDER BY s.last_name, s.first_name LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list students: %w", err)
	}
	defer rows.Close()

	students := []Student{}
	for rows.Next() {
		s, err := scanStudent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan student: %w", err)
		}
		students = append(students, *s)
	}
	return students, rows.Err()
}

// UpdateStudentProfile applies the non-nil fields of upd and marks the user's profile as
// completed. Returns ErrNotFound when the user has no student profile.
func (db *DB) UpdateStudentProfile(ctx context.Context, userID uuid.UUID, upd StudentProfileUpdate) (*Student, error) {
	var student *Student
	err := db.inTx(ctx, func(tx pgx.Tx) error {
		result, err := tx.Exec(ctx,
			`UPDATE students SET
				first_name       = COALESCE($2::text, first_name),
				last_name        = COALESCE($3::text, last_name),
				university       = COALESCE($4::text, university),
				short_bio        = COALESCE($5::text, short_bio),
				desired_job_role = COALESCE($6::text, desired_job_role),
				linkedin_url     = COALESCE($7::text, linkedin_url),
				github_url       = COALESCE($8::text, github_url),
				portfolio_url    = COALESCE($9::text, portfolio_url),
				skills           = COALESCE($10::jsonb, skills),
				technologies     = COALESCE($11::jsonb, technologies),
				updated_at       = NOW()
			 WHERE user_id = $1`,
			userID, upd.FirstName, upd.LastName, upd.University, upd.ShortBio, upd.DesiredJobRole,
			upd.LinkedinURL, upd.GithubURL, upd.PortfolioURL,
			optionalArray(upd.Skills), optionalArray(upd.Technologies),
		)
		if err != nil {
			return fmt.Errorf("failed to update student profile: %w", err)
		}
		if result.RowsAffected() == 0 {
			return ErrNotFound
		}
		if err := markProfileCompleted(ctx, tx, userID); err != nil {
			return err
		}

		student, err = scanStudent(tx.QueryRow(ctx, studentSelect+` WHERE s.user_id = $1`, userID))
		if err != nil {
			return fmt.Errorf("failed to reload student: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return student, nil
}

// SetStudentResume stores the resume URL. When data is non-nil the parsed links, skills
// and technologies are written too and the resume is flagged as parsed.
func (db *DB) SetStudentResume(ctx context.Context, userID uuid.UUID, resumeURL string, data *ResumeData) (*Student, error) {
	var (
		github, linkedin *string
		skills, techs    any
		parsed           bool
	)
	if data != nil {
		parsed = true
		if data.GithubURL != "" {
			github = &data.GithubURL
		}
		if data.LinkedinURL != "" {
			linkedin = &data.LinkedinURL
		}
		skills = StringArray(data.Skills)
		techs = StringArray(data.Technologies)
	}

	s, err := scanStudent(db.pool.QueryRow(ctx,
		`WITH s AS (
			UPDATE students SET
				resume_url    = $2,
				github_url    = COALESCE($3::text, github_url),
				linkedin_url  = COALESCE($4::text, linkedin_url),
				skills        = COALESCE($5::jsonb, skills),
				technologies  = COALESCE($6::jsonb, technologies),
				resume_parsed = resume_parsed OR $7,
				updated_at    = NOW()
			WHERE user_id = $1
			RETURNING *
		 )
		 SELECT `+studentColumns("s")+`, u.email FROM s JOIN users u ON u.id = s.user_id`,
		userID, resumeURL, github, linkedin, skills, techs, parsed,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to set resume: %w", err)
	}
	return s, nil
}

// SetStudentProfilePicture stores the profile picture URL.
func (db *DB) SetStudentProfilePicture(ctx context.Context, userID uuid.UUID, url string) (*Student, error) {
	s, err := scanStudent(db.pool.QueryRow(ctx,
		`WITH s AS (
			UPDATE students SET profile_picture = $2, updated_at = NOW()
			WHERE user_id = $1
			RETURNING *
		 )
		 SELECT `+studentColumns("s")+`, u.email FROM s JOIN users u ON u.id = s.user_id`,
		userID, url,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to set profile picture: %w", err)
	}
	return s, nil
}

// optionalArray converts an optional list into a JSONB parameter; nil stays NULL.
func optionalArray(v *[]string) any {
	if v == nil {
		return nil
	}
	return StringArray(*v)
}
