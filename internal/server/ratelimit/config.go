package ratelimit

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// EndpointConfig represents rate limiting configuration for a specific endpoint.
type EndpointConfig struct {
	Path   string        // Endpoint path; a trailing "/" makes it a prefix
	Method string        // HTTP method (GET, POST, etc.)
	Limit  int           // Maximum requests per window
	Window time.Duration // Time window
	Burst  int           // Burst capacity (defaults to Limit if 0)
}

// Config holds rate limiting configuration.
type Config struct {
	Enabled         bool
	DefaultLimit    int
	DefaultWindow   time.Duration
	CleanupInterval time.Duration
	// IdleTTL is how long an unused bucket survives cleanup.
	IdleTTL         time.Duration
	Whitelist       map[string]bool
	Blacklist       map[string]bool
	EndpointConfigs []EndpointConfig
}

// LoadConfig loads rate limiting configuration from environment variables.
func LoadConfig() *Config {
	enabled := getEnvBool("RATE_LIMIT_ENABLED", true)
	if !enabled {
		return &Config{Enabled: false}
	}

	return &Config{
		Enabled:         true,
		DefaultLimit:    getEnvInt("RATE_LIMIT_DEFAULT_LIMIT", 300),
		DefaultWindow:   getEnvDuration("RATE_LIMIT_DEFAULT_WINDOW", time.Minute),
		CleanupInterval: getEnvDuration("RATE_LIMIT_CLEANUP_INTERVAL", 5*time.Minute),
		IdleTTL:         getEnvDuration("RATE_LIMIT_IDLE_TTL", time.Hour),
		Whitelist:       parseIPList(os.Getenv("RATE_LIMIT_WHITELIST")),
		Blacklist:       parseIPList(os.Getenv("RATE_LIMIT_BLACKLIST")),
		EndpointConfigs: DefaultEndpointConfigs(),
	}
}

// DefaultEndpointConfigs returns the endpoint-specific limits. Reads fall through to the
// default limit.
func DefaultEndpointConfigs() []EndpointConfig {
	return []EndpointConfig{
		// Credentials: strict, to slow down guessing.
		{Path: "/auth/login", Method: "POST", Limit: 10, Window: time.Minute, Burst: 5},
		{Path: "/auth/register/", Method: "POST", Limit: 5, Window: time.Minute, Burst: 3},
		{Path: "/auth/password", Method: "PUT", Limit: 5, Window: time.Minute, Burst: 3},

		// Uploads and parsing
		{Path: "/students/me/resume", Method: "POST", Limit: 20, Window: time.Hour, Burst: 5},
		{Path: "/students/me/parse-resume", Method: "POST", Limit: 20, Window: time.Hour, Burst: 5},
		{Path: "/students/parse-cv", Method: "POST", Limit: 20, Window: time.Hour, Burst: 5},
		{Path: "/students/me/profile-picture", Method: "POST", Limit: 20, Window: time.Hour, Burst: 5},
		{Path: "/enterprises/me/logo", Method: "POST", Limit: 20, Window: time.Hour, Burst: 5},

		// Writes
		{Path: "/listings", Method: "POST", Limit: 60, Window: time.Minute, Burst: 10},
		{Path: "/listings/", Method: "POST", Limit: 60, Window: time.Minute, Burst: 10},
		{Path: "/listings/", Method: "PUT", Limit: 60, Window: time.Minute, Burst: 10},
		{Path: "/listings/", Method: "DELETE", Limit: 60, Window: time.Minute, Burst: 10},
		{Path: "/applications/", Method: "PATCH", Limit: 60, Window: time.Minute, Burst: 10},
		{Path: "/applications/", Method: "DELETE", Limit: 60, Window: time.Minute, Burst: 10},
	}
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// parseIPList parses a comma-separated list of IP addresses into a set.
func parseIPList(list string) map[string]bool {
	result := make(map[string]bool)
	for _, ip := range strings.Split(list, ",") {
		if ip = strings.TrimSpace(ip); ip != "" {
			result[ip] = true
		}
	}
	return result
}
