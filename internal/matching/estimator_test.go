package matching

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/jonathan/pfe-match/internal/llm"
)

// fakeClient is an llm.Client returning canned output.
type fakeClient struct {
	response string
	err      error
	delay    time.Duration
	prompts  []string
}

func (f *fakeClient) GenerateJSON(ctx context.Context, prompt string, _ llm.ModelTier) (string, error) {
	f.prompts = append(f.prompts, prompt)
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return f.response, f.err
}

func (f *fakeClient) GetModel(llm.ModelTier) string { return "fake" }
func (f *fakeClient) Close() error                  { return nil }

type nilEstimator struct{}

func (nilEstimator) Estimate(context.Context, Candidate, Listing) (*Result, error) { return nil, nil }

var (
	testCandidate = Candidate{Skills: []string{"Python"}, Technologies: []string{"Rust"}}
	testListing   = Listing{Title: "Backend intern", RequiredSkills: []string{"python", "go"}}
)

func TestLocalEstimator(t *testing.T) {
	res, err := LocalEstimator{}.Estimate(context.Background(), testCandidate, testListing)
	require.NoError(t, err)
	assert.Equal(t, 52.0, res.Score)
	assert.Equal(t, SourceLocal, res.Source)
}

func TestCandidate_AllSkills(t *testing.T) {
	c := Candidate{Skills: []string{"go"}, Technologies: []string{"docker", "go"}}
	assert.Equal(t, []string{"go", "docker", "go"}, c.AllSkills())
}

func TestFallbackEstimator_UsesPrimaryOnSuccess(t *testing.T) {
	client := &fakeClient{response: `{"score": 87.456, "explanation": "strong", "matched_skills": ["python"], "missing_skills": ["go"]}`}
	est := NewFallbackEstimator(NewSemanticEstimator(client, nil), time.Second, nil)

	res, err := est.Estimate(context.Background(), testCandidate, testListing)
	require.NoError(t, err)
	assert.Equal(t, SourceSemantic, res.Source)
	assert.Equal(t, 87.46, res.Score)
	assert.Len(t, client.prompts, 1)
}

func TestFallbackEstimator_FallsBack(t *testing.T) {
	tests := []struct {
		name   string
		client *fakeClient
	}{
		{"transport error", &fakeClient{err: errors.New("connection refused")}},
		{"malformed json", &fakeClient{response: "not json at all"}},
		{"schema violation", &fakeClient{response: `{"score": "high"}`}},
		{"missing fields", &fakeClient{response: `{"score": 90}`}},
		{"timeout", &fakeClient{delay: time.Second, response: `{"score": 90, "explanation": "x", "matched_skills": [], "missing_skills": []}`}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, observed := observer.New(zapcore.WarnLevel)
			est := NewFallbackEstimator(NewSemanticEstimator(tt.client, nil), 20*time.Millisecond, zap.New(core))

			res, err := est.Estimate(context.Background(), testCandidate, testListing)
			require.NoError(t, err)
			require.NotNil(t, res)
			assert.Equal(t, SourceLocal, res.Source)
			assert.Equal(t, Score(testListing.RequiredSkills, testCandidate.AllSkills()), res.Score)
			assert.Equal(t, 1, observed.Len())
		})
	}
}

func TestFallbackEstimator_NilPrimaryResult(t *testing.T) {
	est := NewFallbackEstimator(nilEstimator{}, 0, nil)
	res, err := est.Estimate(context.Background(), testCandidate, testListing)
	require.NoError(t, err)
	assert.Equal(t, SourceLocal, res.Source)
}

func TestFallbackEstimator_BrokenFallbackStillScores(t *testing.T) {
	est := &FallbackEstimator{Primary: nilEstimator{}, Fallback: nilEstimator{}}
	res, err := est.Estimate(context.Background(), testCandidate, testListing)
	require.NoError(t, err)
	assert.Equal(t, 52.0, res.Score)
}

func TestNewEstimator(t *testing.T) {
	est, err := NewEstimator("local", &fakeClient{}, time.Second, nil)
	require.NoError(t, err)
	assert.IsType(t, LocalEstimator{}, est)

	est, err = NewEstimator("", nil, time.Second, nil)
	require.NoError(t, err)
	assert.IsType(t, LocalEstimator{}, est)

	est, err = NewEstimator("Semantic", nil, time.Second, nil)
	require.NoError(t, err)
	assert.IsType(t, LocalEstimator{}, est)

	est, err = NewEstimator("semantic", &fakeClient{}, time.Second, nil)
	require.NoError(t, err)
	assert.IsType(t, &FallbackEstimator{}, est)

	_, err = NewEstimator("magic", nil, time.Second, nil)
	assert.Error(t, err)
}

func TestSourceOf(t *testing.T) {
	assert.Equal(t, SourceLocal, SourceOf(LocalEstimator{}))
	assert.Equal(t, SourceSemantic, SourceOf(NewSemanticEstimator(&fakeClient{}, nil)))
	assert.Equal(t, SourceSemantic, SourceOf(NewFallbackEstimator(NewSemanticEstimator(&fakeClient{}, nil), time.Second, nil)))
	assert.Equal(t, SourceLocal, SourceOf(&FallbackEstimator{}))
	assert.Empty(t, SourceOf(nilEstimator{}))

	est, err := NewEstimator("semantic", &fakeClient{}, time.Second, nil)
	require.NoError(t, err)
	assert.Equal(t, SourceSemantic, SourceOf(est))
}
