package db

import (
	"context"
	"fmt"
	"math"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// GetDashboardStats aggregates an enterprise's listings and applicants.
func (db *DB) GetDashboardStats(ctx context.Context, enterpriseID uuid.UUID) (*DashboardStats, error) {
	var stats DashboardStats
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		err := db.pool.QueryRow(gctx,
			`SELECT COUNT(*) FROM pfe_listings WHERE enterprise_id = $1 AND status = 'open'`,
			enterpriseID,
		).Scan(&stats.ActiveListings)
		if err != nil {
			return fmt.Errorf("failed to count active listings: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		var avg float64
		err := db.pool.QueryRow(gctx,
			`SELECT COUNT(*),
				COUNT(*) FILTER (WHERE a.match_rate >= $2),
				COALESCE(AVG(a.match_rate), 0)
			 FROM applications a JOIN pfe_listings l ON l.id = a.listing_id
			 WHERE l.enterprise_id = $1`,
			enterpriseID, TopApplicantThreshold,
		).Scan(&stats.TotalApplicants, &stats.TopApplicants, &avg)
		if err != nil {
			return fmt.Errorf("failed to aggregate applicants: %w", err)
		}
		stats.AverageMatchRate = math.Round(avg*100) / 100
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &stats, nil
}
