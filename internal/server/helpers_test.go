package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jonathan/pfe-match/internal/config"
	"github.com/jonathan/pfe-match/internal/events"
	"github.com/jonathan/pfe-match/internal/matching"
	"github.com/jonathan/pfe-match/internal/server/ratelimit"
	"github.com/jonathan/pfe-match/internal/storage"
	"github.com/jonathan/pfe-match/internal/types"
)

// recordingPublisher keeps published events for assertions.
type recordingPublisher struct {
	mu   sync.Mutex
	keys []string
}

func (p *recordingPublisher) Publish(_ context.Context, key string, _ any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.keys = append(p.keys, key)
	return nil
}

func (p *recordingPublisher) published() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.keys...)
}

func (p *recordingPublisher) Close() error { return nil }

type testEnv struct {
	srv       *Server
	store     *fakeStore
	events    *recordingPublisher
	uploadDir string
}

type testOption func(*Config)

func withEstimator(e matching.Estimator) testOption {
	return func(c *Config) { c.Estimator = e }
}

func withRateLimit(rl *ratelimit.Config) testOption {
	return func(c *Config) { c.RateLimit = rl }
}

func withMaxUpload(n int64) testOption {
	return func(c *Config) { c.MaxUploadBytes = n }
}

func newTestEnv(t *testing.T, opts ...testOption) *testEnv {
	t.Helper()

	dir := t.TempDir()
	files, err := storage.NewLocalStore(dir, "/uploads")
	require.NoError(t, err)

	env := &testEnv{store: newFakeStore(), events: &recordingPublisher{}, uploadDir: dir}
	cfg := Config{
		Store:        env.store,
		Files:        files,
		FilesBaseURL: "/uploads",
		UploadDir:    dir,
		Events:       env.events,
		JWT:          &config.JWTConfig{Secret: testJWTSecret, ExpirationHours: 24},
		Passwords:    testPasswordConfig(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	env.srv, err = New(cfg)
	require.NoError(t, err)
	t.Cleanup(env.srv.Close)
	return env
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var r io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		r = bytes.NewBufferString(b)
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		r = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.srv.Handler().ServeHTTP(w, req)
	return w
}

func decodeBody[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func errorMessage(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	return decodeBody[map[string]string](t, w)["error"]
}

// registerStudent creates a student account and returns its access token.
func (e *testEnv) registerStudent(t *testing.T, email string) string {
	t.Helper()
	w := e.do(t, http.MethodPost, "/auth/register/student", "", types.RegisterStudentRequest{
		Email: email, Password: testPassword, FirstName: "Ada", LastName: "Lovelace",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decodeBody[types.TokenResponse](t, w).AccessToken
}

// registerEnterprise creates an enterprise account and returns its access token.
func (e *testEnv) registerEnterprise(t *testing.T, email string) string {
	t.Helper()
	w := e.do(t, http.MethodPost, "/auth/register/enterprise", "", types.RegisterEnterpriseRequest{
		Email: email, Password: testPassword, CompanyName: "Acme Corp", Industry: "Software",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decodeBody[types.TokenResponse](t, w).AccessToken
}

// setSkills replaces the student's skills through the profile endpoint.
func (e *testEnv) setSkills(t *testing.T, token string, skills ...string) {
	t.Helper()
	w := e.do(t, http.MethodPut, "/students/me/profile", token, map[string]any{"skills": skills})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

// createListing posts a listing and returns its ID.
func (e *testEnv) createListing(t *testing.T, token, title string, skills ...string) string {
	t.Helper()
	w := e.do(t, http.MethodPost, "/listings", token, types.ListingRequest{
		Title: title, Category: "engineering", Description: "Build things with " + title, Skills: skills,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decodeBody[map[string]any](t, w)["id"].(string)
}

var _ events.Publisher = (*recordingPublisher)(nil)
