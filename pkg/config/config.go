// Package config loads gateway configuration from the environment into an
// explicit struct built once at process start. Request-handling code never
// reads the environment directly.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/lycosidae/gateway/pkg/observability"
)

// Config holds all application configuration
type Config struct {
	Server      ServerConfig
	Auth        AuthConfig
	Interpreter InterpreterConfig
	Redis       RedisConfig

	Observability ObservabilityConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	// Health/metrics server (separate port for k8s probes)
	HealthPort string

	CORSAllowedOrigins []string
}

// AuthConfig holds the session token and password hashing configuration.
// JWTSecret and PassSalt are required: the process refuses to start without
// them rather than run with undefined security properties.
type AuthConfig struct {
	JWTSecret string
	TokenTTL  time.Duration
	PassSalt  string

	// CookieMaxAge is the max-age of the session cookie, independent of the
	// token TTL embedded in the claims.
	CookieMaxAge time.Duration
}

// InterpreterConfig holds the downstream data-service client configuration
type InterpreterConfig struct {
	BaseURL string
	Timeout time.Duration
}

// RedisConfig holds the optional Redis connection for login rate limiting.
// Rate limiting is disabled when URL is empty.
type RedisConfig struct {
	URL      string
	Password string
	DB       int
}

// ObservabilityConfig holds observability settings
type ObservabilityConfig struct {
	LogLevel       observability.LogLevel
	MetricsEnabled bool
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Server:        loadServerConfig(),
		Auth:          loadAuthConfig(),
		Interpreter:   loadInterpreterConfig(),
		Redis:         loadRedisConfig(),
		Observability: loadObservabilityConfig(),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func loadServerConfig() ServerConfig {
	return ServerConfig{
		Host:               getEnv("LYCOSIDAE_HOST", "0.0.0.0"),
		Port:               getEnv("LYCOSIDAE_PORT", "8080"),
		ReadTimeout:        getEnvDuration("LYCOSIDAE_READ_TIMEOUT", 15*time.Second),
		WriteTimeout:       getEnvDuration("LYCOSIDAE_WRITE_TIMEOUT", 15*time.Second),
		IdleTimeout:        getEnvDuration("LYCOSIDAE_IDLE_TIMEOUT", 60*time.Second),
		ShutdownTimeout:    getEnvDuration("LYCOSIDAE_SHUTDOWN_TIMEOUT", 30*time.Second),
		HealthPort:         getEnv("LYCOSIDAE_HEALTH_PORT", "9090"),
		CORSAllowedOrigins: splitAndTrim(getEnv("LYCOSIDAE_CORS_ORIGINS", "*")),
	}
}

func loadAuthConfig() AuthConfig {
	return AuthConfig{
		JWTSecret:    os.Getenv("LYCOSIDAE_JWT_SECRET"),
		TokenTTL:     time.Duration(getEnvInt("LYCOSIDAE_JWT_TTL", 1800)) * time.Second,
		PassSalt:     os.Getenv("LYCOSIDAE_PASS_SALT"),
		CookieMaxAge: getEnvDuration("LYCOSIDAE_COOKIE_MAX_AGE", time.Hour),
	}
}

func loadInterpreterConfig() InterpreterConfig {
	return InterpreterConfig{
		BaseURL: getEnv("LYCOSIDAE_INTERPRETER_URL", "http://interpreter:8000"),
		Timeout: getEnvDuration("LYCOSIDAE_INTERPRETER_TIMEOUT", 10*time.Second),
	}
}

func loadRedisConfig() RedisConfig {
	return RedisConfig{
		URL:      getEnv("LYCOSIDAE_REDIS_URL", ""),
		Password: getEnv("LYCOSIDAE_REDIS_PASSWORD", ""),
		DB:       getEnvInt("LYCOSIDAE_REDIS_DB", 0),
	}
}

func loadObservabilityConfig() ObservabilityConfig {
	return ObservabilityConfig{
		LogLevel:       parseLogLevel(getEnv("LYCOSIDAE_LOG_LEVEL", "info")),
		MetricsEnabled: getEnvBool("LYCOSIDAE_METRICS_ENABLED", true),
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}
	if c.Server.HealthPort == "" {
		return fmt.Errorf("health port is required")
	}
	if c.Server.Port == c.Server.HealthPort {
		return fmt.Errorf("server port and health port must be different")
	}

	// Missing secrets are a fatal misconfiguration, not a runtime error.
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("LYCOSIDAE_JWT_SECRET is required")
	}
	if c.Auth.PassSalt == "" {
		return fmt.Errorf("LYCOSIDAE_PASS_SALT is required")
	}
	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("token TTL must be positive, got %v", c.Auth.TokenTTL)
	}

	if c.Interpreter.BaseURL == "" {
		return fmt.Errorf("interpreter base URL is required")
	}
	if !strings.HasPrefix(c.Interpreter.BaseURL, "http://") && !strings.HasPrefix(c.Interpreter.BaseURL, "https://") {
		return fmt.Errorf("interpreter base URL must be http(s), got %q", c.Interpreter.BaseURL)
	}
	if c.Interpreter.Timeout <= 0 {
		return fmt.Errorf("interpreter timeout must be positive, got %v", c.Interpreter.Timeout)
	}

	return nil
}

// parseLogLevel parses a log level string
func parseLogLevel(level string) observability.LogLevel {
	switch strings.ToLower(level) {
	case "debug":
		return observability.DebugLevel
	case "info":
		return observability.InfoLevel
	case "warn", "warning":
		return observability.WarnLevel
	case "error":
		return observability.ErrorLevel
	default:
		return observability.InfoLevel
	}
}

func splitAndTrim(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// getEnv returns an environment variable value or a default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool returns a boolean environment variable or a default
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return strings.ToLower(value) == "true" || value == "1"
	}
	return defaultValue
}

// getEnvInt returns an integer environment variable or a default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvDuration returns a duration environment variable or a default
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
