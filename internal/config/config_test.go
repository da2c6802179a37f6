package config

import (
	"os"
	"strings"
	"testing"
	"time"
)

func TestConfig_IsProduction(t *testing.T) {
	tests := []struct {
		name        string
		environment string
		expected    bool
	}{
		{"production", "production", true},
		{"prod", "prod", true},
		{"development", "development", false},
		{"dev", "dev", false},
		{"staging", "staging", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{Environment: tt.environment}
			if got := cfg.IsProduction(); got != tt.expected {
				t.Errorf("IsProduction() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestConfig_IsDevelopment(t *testing.T) {
	tests := []struct {
		name        string
		environment string
		expected    bool
	}{
		{"development", "development", true},
		{"dev", "dev", true},
		{"empty", "", true},
		{"production", "production", false},
		{"staging", "staging", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{Environment: tt.environment}
			if got := cfg.IsDevelopment(); got != tt.expected {
				t.Errorf("IsDevelopment() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func validConfig() *Config {
	return &Config{
		APIBaseURL:     "http://localhost:9000/api",
		SessionBackend: SessionBackendMemory,
		Environment:    "development",
		LogFormat:      "json",
	}
}

func TestConfig_Validate_Production(t *testing.T) {
	tests := []struct {
		name          string
		sessionSecret string
		wantError     bool
		errorContains string
	}{
		{
			name:          "valid_secret",
			sessionSecret: "this-is-a-very-secure-secret-with-32-plus-characters",
		},
		{
			name:          "empty_secret",
			sessionSecret: "",
			wantError:     true,
			errorContains: "SESSION_SECRET must be set",
		},
		{
			name:          "default_secret",
			sessionSecret: "change-this-in-production",
			wantError:     true,
			errorContains: "SESSION_SECRET must be set",
		},
		{
			name:          "short_secret",
			sessionSecret: "short",
			wantError:     true,
			errorContains: "at least 32 characters",
		},
		{
			name:          "exactly_32_chars",
			sessionSecret: "12345678901234567890123456789012",
		},
		{
			name:          "31_chars",
			sessionSecret: "1234567890123456789012345678901",
			wantError:     true,
			errorContains: "at least 32 characters",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			cfg.Environment = "production"
			cfg.SessionSecret = tt.sessionSecret

			err := cfg.Validate()

			if tt.wantError {
				if err == nil {
					t.Error("Expected error, got nil")
				} else if !strings.Contains(err.Error(), tt.errorContains) {
					t.Errorf("Expected error containing %q, got %q", tt.errorContains, err.Error())
				}
			} else if err != nil {
				t.Errorf("Expected no error, got %v", err)
			}
		})
	}
}

func TestConfig_Validate_SessionBackend(t *testing.T) {
	tests := []struct {
		name        string
		backend     string
		databaseURL string
		wantError   bool
	}{
		{"memory", SessionBackendMemory, "", false},
		{"file", SessionBackendFile, "", false},
		{"postgres_with_url", SessionBackendPostgres, "postgres://localhost/db", false},
		{"postgres_without_url", SessionBackendPostgres, "", true},
		{"unknown", "redis", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			cfg.SessionBackend = tt.backend
			cfg.DatabaseURL = tt.databaseURL

			err := cfg.Validate()
			if tt.wantError && err == nil {
				t.Error("Expected error, got nil")
			} else if !tt.wantError && err != nil {
				t.Errorf("Expected no error, got %v", err)
			}
		})
	}
}

func TestConfig_Validate_EmptyBaseURL(t *testing.T) {
	cfg := validConfig()
	cfg.APIBaseURL = ""

	if err := cfg.Validate(); err == nil {
		t.Error("Expected error for empty API_BASE_URL")
	}
}

func TestConfig_Validate_LogFormat(t *testing.T) {
	for _, format := range []string{"json", "text", "pretty"} {
		cfg := validConfig()
		cfg.LogFormat = format
		if err := cfg.Validate(); err != nil {
			t.Errorf("LogFormat %q: expected no error, got %v", format, err)
		}
	}

	cfg := validConfig()
	cfg.LogFormat = "xml"
	if err := cfg.Validate(); err == nil {
		t.Error("Expected error for unknown LOG_FORMAT")
	}
}

func TestGetEnv(t *testing.T) {
	tests := []struct {
		name         string
		key          string
		defaultValue string
		envValue     string
		expected     string
	}{
		{"env_set", "TEST_KEY", "default", "custom", "custom"},
		{"env_not_set", "TEST_KEY_NOT_SET", "default", "", "default"},
		{"empty_default", "TEST_KEY_EMPTY", "", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.envValue != "" {
				os.Setenv(tt.key, tt.envValue)
				defer os.Unsetenv(tt.key)
			}

			got := getEnv(tt.key, tt.defaultValue)
			if got != tt.expected {
				t.Errorf("getEnv() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestGetEnvTyped(t *testing.T) {
	t.Setenv("TEST_INT", "42")
	t.Setenv("TEST_BAD_INT", "forty-two")
	t.Setenv("TEST_FLOAT", "2.5")
	t.Setenv("TEST_DURATION", "3s")
	t.Setenv("TEST_BAD_DURATION", "soon")
	t.Setenv("TEST_BOOL", "false")
	t.Setenv("TEST_BAD_BOOL", "nope")

	if got := getEnvInt("TEST_INT", 1); got != 42 {
		t.Errorf("getEnvInt() = %d, want 42", got)
	}
	if got := getEnvInt("TEST_BAD_INT", 7); got != 7 {
		t.Errorf("getEnvInt() with bad value = %d, want default 7", got)
	}
	if got := getEnvFloat("TEST_FLOAT", 1); got != 2.5 {
		t.Errorf("getEnvFloat() = %v, want 2.5", got)
	}
	if got := getEnvDuration("TEST_DURATION", time.Second); got != 3*time.Second {
		t.Errorf("getEnvDuration() = %v, want 3s", got)
	}
	if got := getEnvDuration("TEST_BAD_DURATION", time.Second); got != time.Second {
		t.Errorf("getEnvDuration() with bad value = %v, want default 1s", got)
	}
	if got := getEnvBool("TEST_BOOL", true); got {
		t.Error("getEnvBool() = true, want false")
	}
	if got := getEnvBool("TEST_BAD_BOOL", true); !got {
		t.Error("getEnvBool() with bad value = false, want default true")
	}
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("ENVIRONMENT", "development")
	t.Setenv("SESSION_BACKEND", "")
	t.Setenv("LOG_FORMAT", "")
	t.Setenv("SESSION_RETENTION", "")

	cfg := Load()

	if cfg.SessionBackend != SessionBackendMemory {
		t.Errorf("SessionBackend = %q, want memory", cfg.SessionBackend)
	}
	if cfg.SessionRetention != 720*time.Hour {
		t.Errorf("SessionRetention = %v, want 720h", cfg.SessionRetention)
	}
	if !cfg.OpenAPIValidation {
		t.Error("OpenAPIValidation should default to true")
	}
	if cfg.LogFormat != "json" {
		t.Errorf("LogFormat = %q, want json", cfg.LogFormat)
	}
}
