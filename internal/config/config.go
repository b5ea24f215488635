package config

import (
	"os"
	"strconv"
)

// AgentConfig holds settings for the LLM agent boundary.
// ManagedCredentials selects the managed-cloud credential mode, where the
// hosting platform injects the credential and BaseURL points at the managed
// endpoint; otherwise APIKey is used directly against the provider API.
type AgentConfig struct {
	APIKey             string
	BaseURL            string
	Model              string
	ManagedCredentials bool
	TimeoutSec         int
}

// StagingConfig selects the file-handling mode for one analysis request.
// Mode is "object" (stage uploads in object storage for the duration of the
// request) or "inline" (pass bytes in memory, storage untouched).
type StagingConfig struct {
	Mode    string
	TTLDays int
}

// MinIOConfig holds object storage settings for the S3-compatible backend.
type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// AnalyticsConfig holds the opt-in usage analytics settings.
type AnalyticsConfig struct {
	OptIn         bool
	MeasurementID string
	APISecret     string
	DeployID      string
}

// FrontendConfig holds settings for the form service.
type FrontendConfig struct {
	BackendURL string
	TimeoutSec int
}

const (
	StagingModeObject = "object"
	StagingModeInline = "inline"
)

// AppConfig is the centralized configuration struct for both services.
// It is populated from environment variables. Sensitive values are not hardcoded.
type AppConfig struct {
	Port      string
	Agent     AgentConfig
	Staging   StagingConfig
	MinIO     MinIOConfig
	Analytics AnalyticsConfig
	Frontend  FrontendConfig
}

// Load reads configuration from environment variables.
// A .env file can be auto-loaded by importing: _ "github.com/joho/godotenv/autoload"
// This function does not require a .env file; real environment variables take precedence.
func Load() *AppConfig {
	return &AppConfig{
		Port: getEnv("PORT", "8080"), // default only for non-sensitive value
		Agent: AgentConfig{
			APIKey:             getEnv("OPENAI_API_KEY", ""),
			BaseURL:            getEnv("OPENAI_BASE_URL", ""),
			Model:              getEnv("AGENT_MODEL", "gpt-4o"),
			ManagedCredentials: getEnvBool("AGENT_USE_MANAGED_CREDENTIALS", false),
			TimeoutSec:         getEnvInt("AGENT_TIMEOUT_SEC", 300),
		},
		Staging: StagingConfig{
			Mode:    getEnv("STAGING_MODE", StagingModeObject),
			TTLDays: getEnvInt("STAGING_TTL_DAYS", 3),
		},
		MinIO: MinIOConfig{
			Endpoint:  getEnv("MINIO_ENDPOINT", ""),
			AccessKey: getEnv("MINIO_ACCESS_KEY", ""),
			SecretKey: getEnv("MINIO_SECRET_KEY", ""),
			Bucket:    getEnv("MINIO_BUCKET", ""),
			UseSSL:    getEnvBool("MINIO_USE_SSL", false),
		},
		Analytics: AnalyticsConfig{
			OptIn:         getEnvBool("ANALYTICS_OPT_IN", false),
			MeasurementID: getEnv("ANALYTICS_MEASUREMENT_ID", ""),
			APISecret:     getEnv("ANALYTICS_API_SECRET", ""),
			DeployID:      getEnv("DEPLOY_ID", ""),
		},
		Frontend: FrontendConfig{
			BackendURL: getEnv("BACKEND_URL", "http://localhost:8080"),
			TimeoutSec: getEnvInt("BACKEND_TIMEOUT_SEC", 300),
		},
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err == nil {
			return i
		}
	}
	return def
}
