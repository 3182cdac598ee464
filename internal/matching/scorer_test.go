package matching

import (
	"math/rand"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScore(t *testing.T) {
	tests := []struct {
		name      string
		required  []string
		candidate []string
		want      float64
	}{
		{"both empty", nil, nil, 50},
		{"no requirements", nil, []string{"go", "sql"}, 50},
		{"blank requirements", []string{"  ", ""}, []string{"go"}, 50},
		{"no candidate skills", []string{"go", "sql"}, nil, 0},
		{"exact match", []string{"go", "sql"}, []string{"go", "sql"}, 100},
		{"case and whitespace", []string{"Python"}, []string{"  python "}, 100},
		{"half coverage plus one extra", []string{"python", "go"}, []string{"python", "rust"}, 52},
		{"bonus capped at ten", []string{"a", "b", "c", "d"}, []string{"a", "e", "f", "g", "h", "i", "j", "k"}, 35},
		{"clamped to hundred", []string{"python"}, []string{"python", "go", "rust", "java", "c", "ruby"}, 100},
		{"duplicates collapse", []string{"go", "go", "GO"}, []string{"go"}, 100},
		{"only extras", []string{"go"}, []string{"rust", "java"}, 4},
		{"one third", []string{"a", "b", "c"}, []string{"a"}, 33.33},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Score(tt.required, tt.candidate))
		})
	}
}

func TestScore_Bounds(t *testing.T) {
	pool := []string{"go", "python", "rust", "sql", "docker", "react", "java", "c", "aws", "git"}
	rng := rand.New(rand.NewSource(42))

	pick := func() []string {
		n := rng.Intn(len(pool) + 1)
		out := make([]string, 0, n)
		for i := 0; i < n; i++ {
			out = append(out, pool[rng.Intn(len(pool))])
		}
		return out
	}

	for i := 0; i < 500; i++ {
		req, cand := pick(), pick()
		s := Score(req, cand)
		assert.GreaterOrEqual(t, s, 0.0)
		assert.LessOrEqual(t, s, 100.0)
	}
}

func TestScore_SelfMatchIsFull(t *testing.T) {
	req := []string{"Docker", "Kubernetes", "Go"}
	assert.Equal(t, 100.0, Score(req, req))
}

func TestScore_IdempotentAndOrderIndependent(t *testing.T) {
	req := []string{"python", "go", "sql"}
	cand := []string{"rust", "go", "docker"}

	first := Score(req, cand)
	assert.Equal(t, first, Score(req, cand))
	assert.Equal(t, first, Score([]string{"sql", "go", "python"}, []string{"docker", "go", "rust"}))
}

func TestScore_ConcurrentCallsAgree(t *testing.T) {
	required := []string{"Go", "PostgreSQL", "Docker", "Kubernetes"}
	candidate := []string{"go", "docker", "rust", "python"}
	want := Breakdown(required, candidate)

	const workers = 32
	var wg sync.WaitGroup
	scores := make([]float64, workers)
	results := make([]*Result, workers)
	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 50 {
				scores[i] = Score(required, candidate)
				results[i] = Breakdown(required, candidate)
			}
		}()
	}
	wg.Wait()

	for i := range workers {
		assert.Equal(t, want.Score, scores[i])
		assert.Equal(t, want, results[i])
	}
}

func TestScore_DoesNotMutateInputs(t *testing.T) {
	req := []string{" Go ", "SQL"}
	cand := []string{"go"}
	Score(req, cand)
	assert.Equal(t, []string{" Go ", "SQL"}, req)
	assert.Equal(t, []string{"go"}, cand)
}

func TestBreakdown(t *testing.T) {
	res := Breakdown([]string{"Python", "Go"}, []string{"python", "Rust"})

	assert.Equal(t, 52.0, res.Score)
	assert.Equal(t, []string{"python"}, res.MatchedSkills)
	assert.Equal(t, []string{"go"}, res.MissingSkills)
	assert.Equal(t, "Matched 1 out of 2 required skills", res.Explanation)
	assert.Equal(t, SourceLocal, res.Source)
	assert.NotEmpty(t, res.Recommendations)
}

func TestBreakdown_NoRequirements(t *testing.T) {
	res := Breakdown(nil, []string{"go"})

	assert.Equal(t, NeutralScore, res.Score)
	assert.Empty(t, res.MatchedSkills)
	assert.Empty(t, res.MissingSkills)
	assert.NotNil(t, res.MatchedSkills)
}

func TestClampScore(t *testing.T) {
	assert.Equal(t, 0.0, clampScore(-5))
	assert.Equal(t, 100.0, clampScore(140))
	assert.Equal(t, 42.5, clampScore(42.5))
}

func TestFingerprint(t *testing.T) {
	a := Fingerprint([]string{"Go", "sql"}, []string{"python"})
	b := Fingerprint([]string{"sql", " go", "go"}, []string{"PYTHON"})
	assert.Equal(t, a, b)

	assert.NotEqual(t, a, Fingerprint([]string{"go", "sql"}, []string{"python", "rust"}))
	// required and candidate sets are not interchangeable
	assert.NotEqual(t, Fingerprint([]string{"go"}, nil), Fingerprint(nil, []string{"go"}))
}
