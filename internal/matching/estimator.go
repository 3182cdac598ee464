package matching

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

// Result sources
const (
	SourceLocal    = "local"
	SourceSemantic = "semantic"
)

// Result is the outcome of a match estimation.
type Result struct {
	Score           float64  `json:"score"`
	Explanation     string   `json:"explanation"`
	MatchedSkills   []string `json:"matched_skills"`
	MissingSkills   []string `json:"missing_skills"`
	Recommendations string   `json:"recommendations,omitempty"`
	Source          string   `json:"source"`
}

// Candidate is the skill profile of a student.
type Candidate struct {
	Skills       []string
	Technologies []string
	DesiredRole  string
}

// AllSkills returns skills and technologies as one list. Duplicates are left for the
// scorer to collapse.
func (c Candidate) AllSkills() []string {
	all := make([]string, 0, len(c.Skills)+len(c.Technologies))
	all = append(all, c.Skills...)
	return append(all, c.Technologies...)
}

// Listing is the requirement profile of a PFE listing.
type Listing struct {
	Title          string
	Description    string
	RequiredSkills []string
}

// Estimator produces a match result for a candidate and a listing.
type Estimator interface {
	Estimate(ctx context.Context, candidate Candidate, listing Listing) (*Result, error)
}

// Sourcer is implemented by estimators that know the Source of the results they
// produce when nothing goes wrong.
type Sourcer interface {
	Source() string
}

// SourceOf returns the Source a healthy e reports, or "" when e does not say.
func SourceOf(e Estimator) string {
	if s, ok := e.(Sourcer); ok {
		return s.Source()
	}
	return ""
}

// LocalEstimator is the deterministic estimator backed by Breakdown. It never fails.
type LocalEstimator struct{}

// Source implements Sourcer.
func (LocalEstimator) Source() string { return SourceLocal }

// Estimate implements Estimator.
func (LocalEstimator) Estimate(_ context.Context, candidate Candidate, listing Listing) (*Result, error) {
	return Breakdown(listing.RequiredSkills, candidate.AllSkills()), nil
}

// FallbackEstimator tries Primary under its own timeout and falls back to the
// deterministic estimator on any failure. Estimate never returns an error.
type FallbackEstimator struct {
	Primary  Estimator
	Fallback Estimator
	Timeout  time.Duration
	Logger   *zap.Logger
}

// NewFallbackEstimator wires primary in front of the local estimator.
func NewFallbackEstimator(primary Estimator, timeout time.Duration, logger *zap.Logger) *FallbackEstimator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FallbackEstimator{
		Primary:  primary,
		Fallback: LocalEstimator{},
		Timeout:  timeout,
		Logger:   logger,
	}
}

// Source implements Sourcer. It is the primary's source, since fallback results are
// the degraded case.
func (e *FallbackEstimator) Source() string {
	if e.Primary == nil {
		return SourceLocal
	}
	return SourceOf(e.Primary)
}

// Estimate implements Estimator.
func (e *FallbackEstimator) Estimate(ctx context.Context, candidate Candidate, listing Listing) (*Result, error) {
	if e.Primary != nil {
		res, err := e.tryPrimary(ctx, candidate, listing)
		if err == nil {
			return res, nil
		}
		e.logger().Warn("semantic matching unavailable, using deterministic scorer",
			zap.String("listing_title", listing.Title),
			zap.Error(err),
		)
	}

	fallback := e.Fallback
	if fallback == nil {
		fallback = LocalEstimator{}
	}
	res, err := fallback.Estimate(ctx, candidate, listing)
	if err != nil || res == nil {
		return LocalEstimator{}.Estimate(ctx, candidate, listing)
	}
	return res, nil
}

func (e *FallbackEstimator) tryPrimary(ctx context.Context, candidate Candidate, listing Listing) (*Result, error) {
	if e.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.Timeout)
		defer cancel()
	}

	res, err := e.Primary.Estimate(ctx, candidate, listing)
	if err != nil {
		return nil, err
	}
	if res == nil {
		return nil, errors.New("estimator returned no result")
	}
	return res, nil
}

func (e *FallbackEstimator) logger() *zap.Logger {
	if e.Logger == nil {
		return zap.NewNop()
	}
	return e.Logger
}
