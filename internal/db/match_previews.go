package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// GetMatchPreview returns the cached match for a student and listing. Returns nil, nil
// when nothing is cached.
func (db *DB) GetMatchPreview(ctx context.Context, studentID, listingID uuid.UUID) (*MatchPreview, error) {
	var p MatchPreview
	err := db.pool.QueryRow(ctx,
		`SELECT student_id, listing_id, fingerprint, score, explanation, matched_skills,
			missing_skills, recommendations, source, updated_at
		 FROM match_previews WHERE student_id = $1 AND listing_id = $2`,
		studentID, listingID,
	).Scan(&p.StudentID, &p.ListingID, &p.Fingerprint, &p.Score, &p.Explanation, &p.MatchedSkills,
		&p.MissingSkills, &p.Recommendations, &p.Source, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get match preview: %w", err)
	}
	return &p, nil
}

// UpsertMatchPreview stores p, replacing any cached result for the same pair.
func (db *DB) UpsertMatchPreview(ctx context.Context, p *MatchPreview) error {
	_, err := db.pool.Exec(ctx,
		`INSERT INTO match_previews (student_id, listing_id, fingerprint, score, explanation,
			matched_skills, missing_skills, recommendations, source)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 ON CONFLICT (student_id, listing_id) DO UPDATE SET
			fingerprint = $3, score = $4, explanation = $5, matched_skills = $6,
			missing_skills = $7, recommendations = $8, source = $9, updated_at = NOW()`,
		p.StudentID, p.ListingID, p.Fingerprint, p.Score, p.Explanation,
		p.MatchedSkills, p.MissingSkills, p.Recommendations, p.Source,
	)
	if err != nil {
		return fmt.Errorf("failed to save match preview: %w", err)
	}
	return nil
}
