// Package matching computes compatibility scores between a candidate's skills and a
// listing's required skills.
package matching

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"sort"
	"strings"
)

// Scoring constants
const (
	// NeutralScore is returned when a listing declares no required skills.
	NeutralScore = 50.0
	// MaxScore is the upper bound of every score.
	MaxScore = 100.0
	// extraSkillBonus is awarded per candidate skill beyond the requirements.
	extraSkillBonus = 2.0
	// maxBonus caps the total extra-skill bonus.
	maxBonus = 10.0
)

// skillSet is a normalized set of skill labels.
type skillSet map[string]struct{}

// normalizeSkills lower-cases and trims every label, dropping empty ones.
// Duplicates collapse into a single entry.
func normalizeSkills(skills []string) skillSet {
	set := make(skillSet, len(skills))
	for _, s := range skills {
		n := strings.ToLower(strings.TrimSpace(s))
		if n == "" {
			continue
		}
		set[n] = struct{}{}
	}
	return set
}

// sortedKeys returns the set members in lexical order.
func (s skillSet) sortedKeys() []string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Score returns the 0-100 match score of candidate against required.
//
// Coverage of the required skills dominates; each extra candidate skill adds 2 points up
// to 10, and the total is clamped to 100 and rounded to two decimals. An empty required
// set yields NeutralScore. Nil slices are treated as empty sets.
func Score(required, candidate []string) float64 {
	return Breakdown(required, candidate).Score
}

// Breakdown computes the same score as Score along with the matched and missing skills.
func Breakdown(required, candidate []string) *Result {
	req := normalizeSkills(required)
	cand := normalizeSkills(candidate)

	if len(req) == 0 {
		return &Result{
			Score:           NeutralScore,
			Explanation:     "No specific skills required for this position",
			MatchedSkills:   []string{},
			MissingSkills:   []string{},
			Recommendations: "Apply and highlight your relevant experience",
			Source:          SourceLocal,
		}
	}

	matched := make(skillSet)
	missing := make(skillSet)
	for s := range req {
		if _, ok := cand[s]; ok {
			matched[s] = struct{}{}
		} else {
			missing[s] = struct{}{}
		}
	}

	extra := 0
	for s := range cand {
		if _, ok := req[s]; !ok {
			extra++
		}
	}

	coverage := float64(len(matched)) / float64(len(req)) * 100
	bonus := math.Min(float64(extra)*extraSkillBonus, maxBonus)
	final := math.Min(coverage+bonus, MaxScore)

	rec := "Consider learning the missing skills to improve your chances"
	if len(missing) == 0 {
		rec = "Your skills cover every requirement of this listing"
	}

	return &Result{
		Score:           round2(final),
		Explanation:     fmt.Sprintf("Matched %d out of %d required skills", len(matched), len(req)),
		MatchedSkills:   matched.sortedKeys(),
		MissingSkills:   missing.sortedKeys(),
		Recommendations: rec,
		Source:          SourceLocal,
	}
}

// round2 rounds to two decimal places.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// clampScore bounds v to [0, MaxScore]; NaN becomes 0.
func clampScore(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > MaxScore {
		return MaxScore
	}
	return v
}

// Fingerprint returns a stable digest of the normalized skill sets. It changes whenever
// either set changes, so a cached score is valid only while its fingerprint matches.
func Fingerprint(required, candidate []string) string {
	req := normalizeSkills(required).sortedKeys()
	cand := normalizeSkills(candidate).sortedKeys()
	sum := sha256.Sum256([]byte(strings.Join(req, "\x00") + "\x01" + strings.Join(cand, "\x00")))
	return hex.EncodeToString(sum[:])
}
