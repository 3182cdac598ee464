// Package config loads the application configuration from the environment and an
// optional config file.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Storage backends
const (
	StorageLocal = "local"
	StorageS3    = "s3"
)

// AppConfig is the runtime configuration of the API server and CLI.
type AppConfig struct {
	Port        int    `mapstructure:"port"`
	DatabaseURL string `mapstructure:"database_url"`

	// Blob storage
	StorageBackend string `mapstructure:"storage_backend"`
	UploadDir      string `mapstructure:"upload_dir"`
	S3Bucket       string `mapstructure:"s3_bucket"`
	S3Region       string `mapstructure:"s3_region"`
	S3Endpoint     string `mapstructure:"s3_endpoint"`
	S3AccessKey    string `mapstructure:"s3_access_key"`
	S3SecretKey    string `mapstructure:"s3_secret_key"`
	S3PublicURL    string `mapstructure:"s3_public_url"`
	MaxUploadMB    int64  `mapstructure:"max_upload_mb"`

	// Matching
	MatchStrategy string        `mapstructure:"match_strategy"`
	MatchTimeout  time.Duration `mapstructure:"match_timeout"`
	LLMProvider   string        `mapstructure:"llm_provider"`
	GeminiAPIKey  string        `mapstructure:"gemini_api_key"`
	OpenAIAPIKey  string        `mapstructure:"openai_api_key"`
	OpenAIBaseURL string        `mapstructure:"openai_base_url"`

	// Events
	RabbitMQURL string `mapstructure:"rabbitmq_url"`

	// Logging
	LogJSON  bool `mapstructure:"log_json"`
	LogDebug bool `mapstructure:"log_debug"`

	// CORS
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

var defaults = map[string]any{
	"port":            8080,
	"upload_dir":      "uploads",
	"storage_backend": StorageLocal,
	"s3_region":       "auto",
	"max_upload_mb":   10,
	"match_strategy":  "local",
	"match_timeout":   30 * time.Second,
	"llm_provider":    "gemini",
	"log_json":        false,
	"log_debug":       false,
	"allowed_origins": []string{"*"},
}

// envKeys lists every key that may be supplied through the environment. viper only
// resolves environment values during Unmarshal for keys it already knows about.
var envKeys = []string{
	"port", "database_url", "storage_backend", "upload_dir",
	"s3_bucket", "s3_region", "s3_endpoint", "s3_access_key", "s3_secret_key", "s3_public_url",
	"max_upload_mb", "match_strategy", "match_timeout", "llm_provider",
	"gemini_api_key", "openai_api_key", "openai_base_url", "rabbitmq_url",
	"log_json", "log_debug", "allowed_origins",
}

// Load reads configuration from the environment, layered over the file at path when
// path is non-empty. Environment variables use the upper-cased key (PORT, DATABASE_URL).
func Load(path string) (*AppConfig, error) {
	return LoadWith(viper.New(), path)
}

// LoadWith is Load on a caller-supplied viper instance, so that CLI flags bound to v
// take precedence.
func LoadWith(v *viper.Viper, path string) (*AppConfig, error) {
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	for _, k := range envKeys {
		if err := v.BindEnv(k, strings.ToUpper(k)); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", k, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	var cfg AppConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.normalize()

	return &cfg, nil
}

func (c *AppConfig) normalize() {
	c.StorageBackend = strings.ToLower(strings.TrimSpace(c.StorageBackend))
	c.MatchStrategy = strings.ToLower(strings.TrimSpace(c.MatchStrategy))
	c.LLMProvider = strings.ToLower(strings.TrimSpace(c.LLMProvider))

	// Comma separated lists may arrive from the environment unsplit or with padding.
	origins := make([]string, 0, len(c.AllowedOrigins))
	for _, o := range c.AllowedOrigins {
		for _, p := range strings.Split(o, ",") {
			if p = strings.TrimSpace(p); p != "" {
				origins = append(origins, p)
			}
		}
	}
	c.AllowedOrigins = origins
}

// Validate checks value ranges and cross-field requirements.
// DATABASE_URL is checked by the commands that need it.
func (c *AppConfig) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("config error: port out of range: %d", c.Port)
	}
	if c.MaxUploadMB < 1 {
		return fmt.Errorf("config error: max_upload_mb must be positive, got %d", c.MaxUploadMB)
	}

	switch c.StorageBackend {
	case StorageLocal:
		if c.UploadDir == "" {
			return fmt.Errorf("config error: upload_dir is required for local storage")
		}
	case StorageS3:
		if c.S3Bucket == "" {
			return fmt.Errorf("config error: s3_bucket is required for s3 storage")
		}
	default:
		return fmt.Errorf("config error: unknown storage backend %q", c.StorageBackend)
	}

	switch c.MatchStrategy {
	case "local", "semantic":
	default:
		return fmt.Errorf("config error: unknown match strategy %q", c.MatchStrategy)
	}
	if c.MatchTimeout <= 0 {
		return fmt.Errorf("config error: match_timeout must be positive")
	}

	switch c.LLMProvider {
	case "gemini", "openai":
	default:
		return fmt.Errorf("config error: unknown llm provider %q", c.LLMProvider)
	}

	return nil
}

// LLMAPIKey returns the API key of the configured provider, or "" when unset.
func (c *AppConfig) LLMAPIKey() string {
	if c.LLMProvider == "openai" {
		return c.OpenAIAPIKey
	}
	return c.GeminiAPIKey
}

// MaxUploadBytes returns the upload size limit in bytes.
func (c *AppConfig) MaxUploadBytes() int64 {
	return c.MaxUploadMB << 20
}
