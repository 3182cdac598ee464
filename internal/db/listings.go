package db

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// MaxListingLimit caps page sizes of ListListings.
const MaxListingLimit = 100

const listingSelect = `SELECT l.id, l.enterprise_id, e.company_name, e.company_logo, l.title, l.category,
		l.duration, l.description, l.department, l.location, l.status, l.skills, l.deadline,
		(SELECT COUNT(*) FROM applications a WHERE a.listing_id = l.id) AS applicant_count,
		l.created_at, l.updated_at
	FROM pfe_listings l JOIN enterprises e ON e.id = l.enterprise_id`

func scanListing(row rowScanner) (*Listing, error) {
	var l Listing
	err := row.Scan(
		&l.ID, &l.EnterpriseID, &l.CompanyName, &l.CompanyLogo, &l.Title, &l.Category,
		&l.Duration, &l.Description, &l.Department, &l.Location, &l.Status, &l.Skills, &l.Deadline,
		&l.ApplicantCount, &l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// CreateListing creates an open listing owned by enterpriseID.
func (db *DB) CreateListing(ctx context.Context, enterpriseID uuid.UUID, in ListingInput) (*Listing, error) {
	var id uuid.UUID
	err := db.pool.QueryRow(ctx,
		`INSERT INTO pfe_listings (enterprise_id, title, category, duration, description, department, location, skills, deadline)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING id`,
		enterpriseID, in.Title, in.Category, in.Duration, in.Description, in.Department,
		in.Location, StringArray(in.Skills), in.Deadline,
	).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("failed to create listing: %w", err)
	}
	return db.GetListing(ctx, id)
}

// GetListing retrieves a listing with its company and applicant count. Returns nil, nil
// when not found.
func (db *DB) GetListing(ctx context.Context, id uuid.UUID) (*Listing, error) {
	l, err := scanListing(db.pool.QueryRow(ctx, listingSelect+` WHERE l.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get listing: %w", err)
	}
	return l, nil
}

// ListListings returns listings matching filters, newest first.
func (db *DB) ListListings(ctx context.Context, filters ListingFilters) ([]Listing, error) {
	if filters.Limit <= 0 || filters.Limit > MaxListingLimit {
		filters.Limit = MaxListingLimit
	}

	query := listingSelect + ` WHERE 1=1`
	args := []any{}
	argNum := 1

	if filters.Status != "" {
		query += fmt.Sprintf(" AND l.status = $%d", argNum)
		args = append(args, filters.Status)
		argNum++
	}
	if filters.Category != "" {
		query += fmt.Sprintf(` AND l.category ILIKE $%d ESCAPE '\'`, argNum)
		args = append(args, escapeLike(filters.Category))
		argNum++
	}
	if filters.EnterpriseID != uuid.Nil {
		query += fmt.Sprintf(" AND l.enterprise_id = $%d", argNum)
		args = append(args, filters.EnterpriseID)
		argNum++
	}
	if q := strings.TrimSpace(filters.Query); q != "" {
		query += fmt.Sprintf(` AND (l.title ILIKE $%[1]d ESCAPE '\' OR l.description ILIKE $%[1]d ESCAPE '\' OR e.company_name ILIKE $%[1]d ESCAPE '\')`, argNum)
		args = append(args, "%"+escapeLike(q)+"%")
		argNum++
	}
	if !filters.AcceptingOn.IsZero() {
		query += fmt.Sprintf(" AND (l.deadline IS NULL OR l.deadline >= $%d)", argNum)
		args = append(args, filters.AcceptingOn)
		argNum++
	}

	query += fmt.Sprintf(" ORDER BY l.created_at DESC LIMIT $%d OFFSET $%d", argNum, argNum+1)
	args = append(args, filters.Limit, filters.Offset)

	rows, err := db.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list listings: %w", err)
	}
	defer rows.Close()

	listings := []Listing{}
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan listing: %w", err)
		}
		listings = append(listings, *l)
	}
	return listings, rows.Err()
}

// UpdateListing applies the non-nil fields of upd. Returns ErrNotFound when the listing
// does not exist.
func (db *DB) UpdateListing(ctx context.Context, id uuid.UUID, upd ListingUpdate) (*Listing, error) {
	result, err := db.pool.Exec(ctx,
		`UPDATE pfe_listings SET
			title       = COALESCE($2::text, title),
			category    = COALESCE($3::text, category),
			duration    = COALESCE($4::text, duration),
			description = COALESCE($5::text, description),
			department  = COALESCE($6::text, department),
			location    = COALESCE($7::text, location),
			status      = COALESCE($8::text, status),
			skills      = COALESCE($9::jsonb, skills),
			deadline    = COALESCE($10::date, deadline),
			updated_at  = NOW()
		 WHERE id = $1`,
		id, upd.Title, upd.Category, upd.Duration, upd.Description, upd.Department,
		upd.Location, upd.Status, optionalArray(upd.Skills), upd.Deadline,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update listing: %w", err)
	}
	if result.RowsAffected() == 0 {
		return nil, ErrNotFound
	}
	return db.GetListing(ctx, id)
}

// DeleteListing deletes a listing and, by cascade, its applications and previews.
func (db *DB) DeleteListing(ctx context.Context, id uuid.UUID) error {
	result, err := db.pool.Exec(ctx, `DELETE FROM pfe_listings WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete listing: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
