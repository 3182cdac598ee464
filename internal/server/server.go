package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jonathan/pfe-match/internal/config"
	"github.com/jonathan/pfe-match/internal/db"
	"github.com/jonathan/pfe-match/internal/events"
	"github.com/jonathan/pfe-match/internal/logger"
	"github.com/jonathan/pfe-match/internal/matching"
	"github.com/jonathan/pfe-match/internal/server/middleware"
	"github.com/jonathan/pfe-match/internal/server/ratelimit"
	"github.com/jonathan/pfe-match/internal/storage"
)

// Defaults applied by New.
const (
	defaultMaxUploadBytes = 10 << 20
	defaultScoreWorkers   = 8
)

// Config holds the server's settings and collaborators.
type Config struct {
	Port int

	Store Store
	Files storage.Store
	// FilesBaseURL is the public prefix of URLs returned by Files; it maps stored URLs
	// back to object keys.
	FilesBaseURL string
	// UploadDir, when set, is served under /uploads/ (local storage backend).
	UploadDir string

	Estimator matching.Estimator
	Events    events.Publisher
	Logger    *zap.Logger

	JWT       *config.JWTConfig
	Passwords *config.PasswordConfig
	RateLimit *ratelimit.Config

	MaxUploadBytes int64
	AllowedOrigins []string
	// ScoreWorkers bounds concurrent match estimations when exploring listings.
	ScoreWorkers int
}

// Server represents the HTTP server
type Server struct {
	httpServer  *http.Server
	router      chi.Router
	store       Store
	files       storage.Store
	filesBase   string
	events      events.Publisher
	log         *zap.Logger
	jwtService  *JWTService
	userService *UserService
	authHandler *AuthHandler
	matches     *matchService
	rateLimiter *ratelimit.Limiter
	maxUpload   int64
}

// New creates a new server instance
func New(cfg Config) (*Server, error) {
	if cfg.Store == nil {
		return nil, errors.New("server: store is required")
	}
	if cfg.Files == nil {
		return nil, errors.New("server: file store is required")
	}
	if cfg.JWT == nil || cfg.Passwords == nil {
		return nil, errors.New("server: JWT and password configuration are required")
	}

	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	estimator := cfg.Estimator
	if estimator == nil {
		estimator = matching.LocalEstimator{}
	}
	publisher := cfg.Events
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	if _, ok := publisher.(events.BestEffort); !ok {
		publisher = events.BestEffort{Publisher: publisher, Logger: log}
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = defaultMaxUploadBytes
	}
	if cfg.ScoreWorkers <= 0 {
		cfg.ScoreWorkers = defaultScoreWorkers
	}
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = []string{"*"}
	}

	s := &Server{
		store:     cfg.Store,
		files:     cfg.Files,
		filesBase: cfg.FilesBaseURL,
		events:    publisher,
		log:       log,
		maxUpload: cfg.MaxUploadBytes,
		matches: &matchService{
			store:     cfg.Store,
			estimator: estimator,
			source:    matching.SourceOf(estimator),
			log:       log,
			workers:   cfg.ScoreWorkers,
		},
	}

	s.jwtService = NewJWTService(cfg.JWT)
	s.userService = NewUserService(cfg.Store, cfg.Passwords)
	s.authHandler = NewAuthHandler(s.userService, s.jwtService, log)

	rl := cfg.RateLimit
	if rl == nil {
		rl = &ratelimit.Config{Enabled: false}
	}
	s.rateLimiter = ratelimit.NewLimiter(rl)

	s.router = s.routes(cfg)
	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s, nil
}

func (s *Server) routes(cfg Config) chi.Router {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(s.withLogging)
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset", "Retry-After"},
		AllowCredentials: !containsWildcard(cfg.AllowedOrigins),
		MaxAge:           300,
	}))
	r.Use(s.withRateLimit)

	auth := middleware.AuthMiddleware(s.jwtService.AsTokenValidator())
	student := middleware.RequireRole(string(db.RoleStudent))
	enterprise := middleware.RequireRole(string(db.RoleEnterprise))

	r.Get("/", s.handleRoot)
	r.Get("/health", s.handleHealth)
	if cfg.UploadDir != "" {
		fileServer(r, "/uploads", http.Dir(cfg.UploadDir))
	}

	r.Route("/auth", func(r chi.Router) {
		r.Post("/register/student", s.authHandler.RegisterStudent)
		r.Post("/register/enterprise", s.authHandler.RegisterEnterprise)
		r.Post("/login", s.authHandler.Login)
		r.With(auth).Put("/password", s.authHandler.UpdatePassword)
	})

	r.Post("/students/parse-cv", s.handleParseCV)
	r.Get("/listings", s.handleListListings)

	r.Group(func(r chi.Router) {
		r.Use(auth)

		r.Get("/students", s.handleListStudents)
		r.Route("/students/me", func(r chi.Router) {
			r.Use(student)
			r.Get("/", s.handleGetMyStudentProfile)
			r.Put("/profile", s.handleUpdateStudentProfile)
			r.Post("/resume", s.handleUploadResume)
			r.Post("/parse-resume", s.handleReparseResume)
			r.Post("/profile-picture", s.handleUploadProfilePicture)
		})

		r.Route("/enterprises/me", func(r chi.Router) {
			r.Use(enterprise)
			r.Get("/", s.handleGetMyEnterpriseProfile)
			r.Put("/profile", s.handleUpdateEnterpriseProfile)
			r.Post("/logo", s.handleUploadLogo)
		})

		r.With(student).Get("/listings/explore", s.handleExploreListings)
		r.With(enterprise).Post("/listings", s.handleCreateListing)
		r.Get("/listings/{id}", s.handleGetListing)
		r.With(enterprise).Put("/listings/{id}", s.handleUpdateListing)
		r.With(enterprise).Delete("/listings/{id}", s.handleDeleteListing)
		r.With(student).Get("/listings/{id}/match", s.handleMatchPreview)
		r.With(student).Post("/listings/{id}/apply", s.handleApply)
		r.With(enterprise).Get("/listings/{id}/applicants", s.handleListApplicants)

		r.With(student).Get("/applications/me", s.handleListMyApplications)
		r.With(enterprise).Patch("/applications/{id}/status", s.handleUpdateApplicationStatus)
		r.With(student).Delete("/applications/{id}", s.handleWithdrawApplication)

		r.Get("/notifications", s.handleListNotifications)
		r.Get("/notifications/unread-count", s.handleUnreadCount)
		r.Post("/notifications/read-all", s.handleMarkAllRead)
		r.Post("/notifications/{id}/read", s.handleMarkRead)

		r.With(enterprise).Get("/dashboard/statistics", s.handleDashboardStats)
	})

	return r
}

// Handler returns the HTTP handler with every route and middleware installed.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("server starting", zap.String("addr", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	case <-ctx.Done():
	}

	s.log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	s.Close()
	s.log.Info("server stopped")
	return nil
}

// Close releases background resources owned by the server.
func (s *Server) Close() {
	if s.rateLimiter != nil {
		s.rateLimiter.Stop()
	}
}

// withLogging logs every request with its status and latency.
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		fields := []zap.Field{
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("duration", time.Since(start)),
			zap.String(logger.FieldRequestID, chimw.GetReqID(r.Context())),
		}
		if ww.Status() >= http.StatusInternalServerError {
			s.log.Warn("request failed", fields...)
			return
		}
		s.log.Info("request", fields...)
	})
}

// withRateLimit applies the per-client limiter and sets X-RateLimit-* headers.
func (s *Server) withRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		allowed, info := s.rateLimiter.Allow(clientIP(r), r.URL.Path, r.Method)
		setRateLimitHeaders(w, info)
		if !allowed {
			s.rateLimitResponse(w, info)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientIP returns the host part of RemoteAddr, which RealIP has already resolved.
func clientIP(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

func setRateLimitHeaders(w http.ResponseWriter, info ratelimit.Info) {
	if info.Limit > 0 {
		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(info.Limit))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(info.Remaining))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(info.ResetTime.Unix(), 10))
	}
}

func (s *Server) rateLimitResponse(w http.ResponseWriter, info ratelimit.Info) {
	response := map[string]any{
		"error":     "rate limit exceeded, please try again later",
		"limit":     info.Limit,
		"remaining": info.Remaining,
	}
	if !info.ResetTime.IsZero() {
		response["reset_at"] = info.ResetTime.Format(time.RFC3339)
	}
	if info.RetryAfter > 0 {
		seconds := int(info.RetryAfter.Seconds()) + 1
		response["retry_after"] = seconds
		w.Header().Set("Retry-After", strconv.Itoa(seconds))
	}
	s.jsonResponse(w, http.StatusTooManyRequests, response)
}

// fileServer serves a static directory under path.
func fileServer(r chi.Router, path string, root http.FileSystem) {
	fs := http.StripPrefix(path, http.FileServer(root))
	r.Get(path+"/*", func(w http.ResponseWriter, r *http.Request) {
		// No directory listings.
		if strings.HasSuffix(r.URL.Path, "/") {
			http.NotFound(w, r)
			return
		}
		fs.ServeHTTP(w, r)
	})
}

func containsWildcard(origins []string) bool {
	for _, o := range origins {
		if o == "*" {
			return true
		}
	}
	return false
}

func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]string{"message": "Welcome to the PFE Match API"})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

// jsonResponse writes a JSON response
func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Error("failed to encode JSON response", zap.Error(err))
	}
}

// errorResponse writes an error JSON response
func (s *Server) errorResponse(w http.ResponseWriter, status int, message string) {
	s.jsonResponse(w, status, map[string]string{"error": message})
}

// handleError maps err to a status code. Internal errors are logged and hidden from
// the client.
func (s *Server) handleError(w http.ResponseWriter, r *http.Request, err error) {
	status := HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		s.log.Error("request error",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String(logger.FieldRequestID, chimw.GetReqID(r.Context())),
			zap.Error(err),
		)
		s.errorResponse(w, status, "internal server error")
		return
	}
	s.errorResponse(w, status, err.Error())
}

type validatable interface {
	Validate() error
}

// decodeRequest decodes the JSON body into dst and validates it.
func decodeRequest(r *http.Request, dst validatable) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return &ErrValidation{Message: "invalid request body"}
	}
	if err := dst.Validate(); err != nil {
		return validationError(err)
	}
	return nil
}

// validationError converts the first validator failure into an ErrValidation.
func validationError(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		ve := verrs[0]
		msg := ve.Tag()
		if ve.Param() != "" {
			msg += "=" + ve.Param()
		}
		return &ErrValidation{Field: ve.Field(), Message: msg}
	}
	return &ErrValidation{Message: "invalid request"}
}

// uuidParam parses the named URL parameter.
func uuidParam(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		return uuid.Nil, &ErrValidation{Field: name, Message: "invalid id"}
	}
	return id, nil
}

// currentUserID returns the authenticated user.
func currentUserID(r *http.Request) (uuid.UUID, error) {
	id, err := middleware.GetUserID(r)
	if err != nil {
		return uuid.Nil, fmt.Errorf("missing authenticated user: %w", err)
	}
	return id, nil
}

// queryInt parses an integer query parameter, returning def when absent and clamping
// to [lo, hi].
func queryInt(r *http.Request, name string, def, lo, hi int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &ErrValidation{Field: name, Message: "must be an integer"}
	}
	return min(max(v, lo), hi), nil
}

// currentStudent loads the student profile of the authenticated user.
func (s *Server) currentStudent(r *http.Request) (*db.Student, error) {
	userID, err := currentUserID(r)
	if err != nil {
		return nil, err
	}
	st, err := s.store.GetStudentByUserID(r.Context(), userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load student profile: %w", err)
	}
	if st == nil {
		return nil, &ErrNotFound{Resource: "student profile"}
	}
	return st, nil
}

// currentEnterprise loads the enterprise profile of the authenticated user.
func (s *Server) currentEnterprise(r *http.Request) (*db.Enterprise, error) {
	userID, err := currentUserID(r)
	if err != nil {
		return nil, err
	}
	ent, err := s.store.GetEnterpriseByUserID(r.Context(), userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load enterprise profile: %w", err)
	}
	if ent == nil {
		return nil, &ErrNotFound{Resource: "enterprise profile"}
	}
	return ent, nil
}

// notify stores a notification; failures are logged, never returned.
func (s *Server) notify(ctx context.Context, in db.NotificationInput) {
	if _, err := s.store.CreateNotification(ctx, in); err != nil {
		s.log.Warn("failed to create notification",
			zap.String(logger.FieldUserID, in.UserID.String()),
			zap.String("type", in.Type),
			zap.Error(err),
		)
	}
}
