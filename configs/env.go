package configs

import (
	"os"
	"strconv"
)

// Config holds all configuration for the converter core.
type Config struct {
	// Prefetch / fabric tuning (C8)
	PrefetchWindow  int
	StallTimeoutSec int

	// Conversion budget enforced by the caller around pipeline.Convert
	ConversionBudgetSec int

	// Default GS1 mapping policy applied when no header overrides it
	DefaultEPCFormat string
	DefaultCBVFormat string

	// Default failure mode for the event collector ("abort" | "skip")
	DefaultOnFailure string

	// GCP Configuration (optional Cloud Logging sink)
	GCPProjectID    string
	CloudRunService string
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		PrefetchWindow:      getEnvInt("PREFETCH_WINDOW", 16),
		StallTimeoutSec:     getEnvInt("STALL_TIMEOUT_SEC", 300),
		ConversionBudgetSec: getEnvInt("CONVERSION_BUDGET_SEC", 600),

		DefaultEPCFormat: getEnv("DEFAULT_GS1_EPC_FORMAT", "No_Preference"),
		DefaultCBVFormat: getEnv("DEFAULT_GS1_CBV_FORMAT", "No_Preference"),
		DefaultOnFailure: getEnv("DEFAULT_ON_FAILURE", "abort"),

		GCPProjectID:    os.Getenv("GCP_PROJECT_ID"),
		CloudRunService: os.Getenv("CLOUD_RUN_SERVICE"),
	}

	return cfg, nil
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt gets an integer environment variable or returns a default value.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}
