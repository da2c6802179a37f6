package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Session storage backends.
const (
	SessionBackendMemory   = "memory"
	SessionBackendFile     = "file"
	SessionBackendPostgres = "postgres"
)

// Config holds application configuration
type Config struct {
	Port                string
	APIBaseURL          string
	APITimeout          time.Duration
	APIRateLimit        float64
	APIRateBurst        int
	SessionBackend      string // memory, file, postgres
	SessionDir          string
	SessionSecret       string
	DatabaseURL         string
	RabbitMQURL         string
	AllowedOrigins      string
	Environment         string // development, staging, production
	WorkspaceIdleTTL    time.Duration
	MaintenanceSchedule string
	SessionRetention    time.Duration
	LogLevel            string
	LogFormat           string // json, text, pretty
	PublicURL           string
	OpenAPIValidation   bool
	AuditorPort         string
}

// Load loads configuration from environment variables and validates for production
func Load() *Config {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := &Config{
		Port:                getEnv("PORT", "8080"),
		APIBaseURL:          getEnv("API_BASE_URL", "https://dae-mobile-assignment.hkit.cc/api"),
		APITimeout:          getEnvDuration("API_TIMEOUT", 10*time.Second),
		APIRateLimit:        getEnvFloat("API_RATE_LIMIT", 10),
		APIRateBurst:        getEnvInt("API_RATE_BURST", 20),
		SessionBackend:      getEnv("SESSION_BACKEND", SessionBackendMemory),
		SessionDir:          getEnv("SESSION_DIR", ".sessions"),
		SessionSecret:       getEnv("SESSION_SECRET", ""),
		DatabaseURL:         getEnv("DATABASE_URL", ""),
		RabbitMQURL:         getEnv("RABBITMQ_URL", ""),
		AllowedOrigins:      getEnv("ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:8080"),
		Environment:         getEnv("ENVIRONMENT", "development"),
		WorkspaceIdleTTL:    getEnvDuration("WORKSPACE_IDLE_TTL", 30*time.Minute),
		MaintenanceSchedule: getEnv("MAINTENANCE_SCHEDULE", "@every 5m"),
		SessionRetention:    getEnvDuration("SESSION_RETENTION", 720*time.Hour),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		LogFormat:           getEnv("LOG_FORMAT", "json"),
		PublicURL:           getEnv("PUBLIC_URL", ""),
		OpenAPIValidation:   getEnvBool("OPENAPI_VALIDATION", true),
		AuditorPort:         getEnv("AUDITOR_PORT", "9090"),
	}

	if err := cfg.Validate(); err != nil {
		log.Fatalf("Configuration validation failed: %v", err)
	}

	return cfg
}

// Validate checks configuration for security and correctness
func (c *Config) Validate() error {
	switch c.SessionBackend {
	case SessionBackendMemory, SessionBackendFile:
	case SessionBackendPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when SESSION_BACKEND=postgres")
		}
	default:
		return fmt.Errorf("unknown SESSION_BACKEND %q (want memory, file or postgres)", c.SessionBackend)
	}

	if c.APIBaseURL == "" {
		return fmt.Errorf("API_BASE_URL must not be empty")
	}

	switch c.LogFormat {
	case "json", "text", "pretty":
	default:
		return fmt.Errorf("unknown LOG_FORMAT %q (want json, text or pretty)", c.LogFormat)
	}

	if c.IsProduction() {
		if c.SessionSecret == "" || c.SessionSecret == "change-this-in-production" {
			return fmt.Errorf("SESSION_SECRET must be set to a strong random value in production")
		}

		if len(c.SessionSecret) < 32 {
			return fmt.Errorf("SESSION_SECRET must be at least 32 characters in production (got %d)", len(c.SessionSecret))
		}

		if c.AllowedOrigins != "" {
			log.Println("WARNING: Ensure ALLOWED_ORIGINS uses HTTPS in production")
		}
	} else if c.SessionSecret == "" && c.SessionBackend == SessionBackendFile {
		// Stored tokens stay readable on disk without a secret.
		log.Println("SESSION_SECRET not set, session files will be stored unencrypted")
	}

	return nil
}

// IsProduction returns true if running in production environment
func (c *Config) IsProduction() bool {
	return c.Environment == "production" || c.Environment == "prod"
}

// IsDevelopment returns true if running in development environment
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development" || c.Environment == "dev" || c.Environment == ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
		log.Printf("invalid integer for %s=%q, using %d", key, value, defaultValue)
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
		log.Printf("invalid number for %s=%q, using %v", key, value, defaultValue)
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
		log.Printf("invalid boolean for %s=%q, using %t", key, value, defaultValue)
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
		log.Printf("invalid duration for %s=%q, using %s", key, value, defaultValue)
	}
	return defaultValue
}
