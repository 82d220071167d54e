package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

const (
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

// Config is the process configuration read from the environment.
// Binaries call godotenv.Load() before Load so a local .env file is honoured.
type Config struct {
	// HTTP server
	Port           string
	AllowedOrigins string

	// Storage
	DataBackend string
	DatabaseURL string

	// Auth
	JWTSecret     string
	WebhookSecret string

	LogLevel string
}

func Load() *Config {
	return &Config{
		Port:           getEnv("SERVER_PORT", "8080"),
		AllowedOrigins: getEnv("ALLOWED_ORIGINS", ""),
		DataBackend:    strings.ToLower(getEnv("DATA_BACKEND", BackendPostgres)),
		DatabaseURL:    getEnv("DATABASE_URL", ""),
		JWTSecret:      getEnv("JWT_SECRET", ""),
		WebhookSecret:  getEnv("WEBHOOK_SECRET", ""),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
	}
}

// Validate reports every configuration problem in a single error.
func (c *Config) Validate() error {
	var problems []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		problems = append(problems, fmt.Sprintf("invalid port %q: must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		problems = append(problems, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	switch c.DataBackend {
	case BackendPostgres:
		if c.DatabaseURL == "" {
			problems = append(problems, "DATABASE_URL is required when DATA_BACKEND=postgres")
		}
	case BackendMemory:
	default:
		problems = append(problems, fmt.Sprintf("invalid data backend %q: must be one of [%s %s]", c.DataBackend, BackendPostgres, BackendMemory))
	}

	if c.JWTSecret != "" && len(c.JWTSecret) < 32 {
		problems = append(problems, "JWT_SECRET must be at least 32 characters")
	}

	if len(problems) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(problems, "; "))
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return fallback
}
