package server

import (
	"context"
	"sort"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/pfe-match/internal/db"
	"github.com/jonathan/pfe-match/internal/logger"
	"github.com/jonathan/pfe-match/internal/matching"
)

// matchService computes match results and keeps the per-(student, listing) cache
// consistent with the current skill sets.
type matchService struct {
	store     Store
	estimator matching.Estimator
	// source is what the estimator reports when healthy. When set, only results from
	// that source are cached or served from the cache.
	source  string
	log     *zap.Logger
	workers int
}

func (m *matchService) cacheable(source string) bool {
	return m.source == "" || source == m.source
}

func candidateFor(st *db.Student) matching.Candidate {
	return matching.Candidate{
		Skills:       st.Skills,
		Technologies: st.Technologies,
		DesiredRole:  st.DesiredJobRole,
	}
}

func listingFor(l *db.Listing) matching.Listing {
	return matching.Listing{
		Title:          l.Title,
		Description:    l.Description,
		RequiredSkills: l.Skills,
	}
}

// Preview returns the match result for st and l. A cached result is reused only while
// its fingerprint equals the fingerprint of the current skill sets and it came from the
// configured estimator; otherwise the result is recomputed and the cache refreshed.
// Degraded results (a semantic provider falling back to the local scorer) are returned
// but not cached, so the next call retries the provider.
func (m *matchService) Preview(ctx context.Context, st *db.Student, l *db.Listing) (*matching.Result, error) {
	candidate := candidateFor(st)
	fingerprint := matching.Fingerprint(l.Skills, candidate.AllSkills())

	cached, err := m.store.GetMatchPreview(ctx, st.ID, l.ID)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		m.log.Warn("failed to load match preview, recomputing",
			zap.String(logger.FieldListingID, l.ID.String()), zap.Error(err))
		cached = nil
	}
	if cached != nil && cached.Fingerprint == fingerprint && m.cacheable(cached.Source) {
		return &matching.Result{
			Score:           cached.Score,
			Explanation:     cached.Explanation,
			MatchedSkills:   nonNil(cached.MatchedSkills),
			MissingSkills:   nonNil(cached.MissingSkills),
			Recommendations: cached.Recommendations,
			Source:          cached.Source,
		}, nil
	}

	res, err := m.estimator.Estimate(ctx, candidate, listingFor(l))
	if err != nil || res == nil {
		// Only a misconfigured estimator gets here; FallbackEstimator never fails.
		m.log.Warn("estimator failed, using deterministic score",
			zap.String(logger.FieldListingID, l.ID.String()), zap.Error(err))
		res = matching.Breakdown(l.Skills, candidate.AllSkills())
	}
	if !m.cacheable(res.Source) {
		m.log.Debug("not caching degraded match result",
			zap.String(logger.FieldListingID, l.ID.String()), zap.String("source", res.Source))
		return res, nil
	}

	err = m.store.UpsertMatchPreview(ctx, &db.MatchPreview{
		StudentID:       st.ID,
		ListingID:       l.ID,
		Fingerprint:     fingerprint,
		Score:           res.Score,
		Explanation:     res.Explanation,
		MatchedSkills:   res.MatchedSkills,
		MissingSkills:   res.MissingSkills,
		Recommendations: res.Recommendations,
		Source:          res.Source,
	})
	if err != nil {
		m.log.Warn("failed to cache match preview",
			zap.String(logger.FieldListingID, l.ID.String()), zap.Error(err))
	}
	return res, nil
}

// exploreItem is a listing annotated with the caller's match result.
type exploreItem struct {
	db.Listing
	MatchScore float64          `json:"match_score"`
	Match      *matching.Result `json:"match"`
}

// Explore scores every listing for st with at most m.workers estimations in flight
// and returns them best match first. A listing whose preview cannot be loaded is scored
// deterministically.
func (m *matchService) Explore(ctx context.Context, st *db.Student, listings []db.Listing) ([]exploreItem, error) {
	items := make([]exploreItem, len(listings))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.workers)
	for i := range listings {
		g.Go(func() error {
			l := &listings[i]
			res, err := m.Preview(gctx, st, l)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				m.log.Warn("match preview unavailable",
					zap.String(logger.FieldListingID, l.ID.String()), zap.Error(err))
				res = matching.Breakdown(l.Skills, candidateFor(st).AllSkills())
			}
			items[i] = exploreItem{Listing: *l, MatchScore: res.Score, Match: res}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.SliceStable(items, func(a, b int) bool {
		return items[a].MatchScore > items[b].MatchScore
	})
	return items, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
