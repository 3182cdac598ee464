package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jonathan/pfe-match/internal/config"
	"github.com/jonathan/pfe-match/internal/db"
	"github.com/jonathan/pfe-match/internal/events"
	"github.com/jonathan/pfe-match/internal/llm"
	"github.com/jonathan/pfe-match/internal/logger"
	"github.com/jonathan/pfe-match/internal/matching"
	"github.com/jonathan/pfe-match/internal/server"
	"github.com/jonathan/pfe-match/internal/server/ratelimit"
	"github.com/jonathan/pfe-match/internal/storage"
)

const localFilesBase = "/uploads"

var (
	servePort    int
	serveMigrate bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long:  `Start an HTTP server that exposes the authentication, profile, listing, application and notification endpoints.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (overrides PORT)")
	serveCmd.Flags().BoolVar(&serveMigrate, "migrate", true, "Apply the database schema before serving")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if servePort != 0 {
		cfg.Port = servePort
	}
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL environment variable is required")
	}

	log, err := logger.New(cfg.LogJSON, cfg.LogDebug)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	database, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer database.Close()

	if serveMigrate {
		if err := database.Migrate(ctx); err != nil {
			return err
		}
		log.Info("database schema applied")
	}

	files, filesBase, uploadDir, err := openFileStore(ctx, cfg)
	if err != nil {
		return err
	}

	client, err := openLLMClient(ctx, cfg, log)
	if err != nil {
		return err
	}
	if client != nil {
		defer func() { _ = client.Close() }()
	}

	estimator, err := matching.NewEstimator(cfg.MatchStrategy, client, cfg.MatchTimeout, log)
	if err != nil {
		return err
	}

	publisher, err := openPublisher(cfg, log)
	if err != nil {
		return err
	}
	defer func() { _ = publisher.Close() }()

	jwtCfg, err := config.NewJWTConfig()
	if err != nil {
		return err
	}
	pwCfg, err := config.NewPasswordConfig()
	if err != nil {
		return err
	}

	srv, err := server.New(server.Config{
		Port:           cfg.Port,
		Store:          database,
		Files:          files,
		FilesBaseURL:   filesBase,
		UploadDir:      uploadDir,
		Estimator:      estimator,
		Events:         publisher,
		Logger:         log,
		JWT:            jwtCfg,
		Passwords:      pwCfg,
		RateLimit:      ratelimit.LoadConfig(),
		MaxUploadBytes: cfg.MaxUploadBytes(),
		AllowedOrigins: cfg.AllowedOrigins,
	})
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	return srv.Start(ctx)
}

// openFileStore returns the configured blob store, the base URL its objects are served
// under and, for local storage, the directory served by the API.
func openFileStore(ctx context.Context, cfg *config.AppConfig) (storage.Store, string, string, error) {
	if cfg.StorageBackend == config.StorageS3 {
		s3Store, err := storage.NewS3Store(ctx, storage.S3Config{
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			PublicURL: cfg.S3PublicURL,
		})
		if err != nil {
			return nil, "", "", err
		}
		return s3Store, s3Store.PublicURL(), "", nil
	}

	local, err := storage.NewLocalStore(cfg.UploadDir, localFilesBase)
	if err != nil {
		return nil, "", "", err
	}
	return local, localFilesBase, cfg.UploadDir, nil
}

// openLLMClient returns nil when no API key is configured for the provider.
func openLLMClient(ctx context.Context, cfg *config.AppConfig, log *zap.Logger) (llm.Client, error) {
	apiKey := cfg.LLMAPIKey()
	if apiKey == "" {
		if cfg.MatchStrategy == matching.StrategySemantic {
			log.Warn("no API key configured for LLM provider", zap.String("provider", cfg.LLMProvider))
		}
		return nil, nil
	}

	llmCfg, err := llm.ConfigFor(cfg.LLMProvider)
	if err != nil {
		return nil, err
	}
	if cfg.OpenAIBaseURL != "" && llmCfg.Provider == llm.ProviderOpenAI {
		llmCfg.BaseURL = cfg.OpenAIBaseURL
	}
	client, err := llm.NewClient(ctx, llmCfg, apiKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}
	return client, nil
}

func openPublisher(cfg *config.AppConfig, log *zap.Logger) (events.Publisher, error) {
	if cfg.RabbitMQURL == "" {
		log.Info("RABBITMQ_URL not set, domain events are disabled")
		return events.NopPublisher{}, nil
	}
	p, err := events.NewAMQPPublisher(cfg.RabbitMQURL)
	if err != nil {
		return nil, err
	}
	return p, nil
}
