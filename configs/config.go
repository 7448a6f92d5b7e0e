// config.go - Configuration loaded from environment variables

package configs

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

var (
	// AI provider selection: gemini, anthropic, mistral or none
	AI_PROVIDER string

	// Gemini AI Configuration
	GEMINI_API_KEY string
	MODEL_NAME     string

	// Anthropic Configuration
	ANTHROPIC_API_KEY string
	ANTHROPIC_MODEL   string

	// Mistral Configuration
	MISTRAL_API_KEY    string
	MISTRAL_MODEL_NAME string

	// Analysis policy
	PRIMARY_TIMEOUT int  // Bound on the model call in seconds
	REQUIRE_IMAGE   bool // Text-only complaints go straight to keyword classification
	VOCABULARY_PATH string

	// Image preprocessing settings
	ENABLE_IMAGE_PREPROCESSING bool
	MAX_IMAGE_DIMENSION        int

	// Caller-side throttling of model calls
	AI_MAX_CONCURRENT int
	AI_BURST          int
	AI_REFILL_SECONDS int

	// Server Configuration
	PORT            string
	ALLOWED_ORIGINS string
	MAX_UPLOAD_MB   int

	// Audit log: none, mongo or sqlite
	AUDIT_STORE          string
	MONGO_URI            string
	MONGO_DB_NAME        string
	SQLITE_PATH          string
	AUDIT_RETENTION_DAYS int
	AUDIT_PRUNE_SCHEDULE string

	// Duplicate-submission cache, 0 disables
	RESULT_CACHE_TTL int
)

// LoadConfig loads configuration from environment variables.
// A missing API key is not fatal: analysis then runs on keyword classification only.
func LoadConfig() {
	// Load .env file if exists (for local development)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	AI_PROVIDER = strings.ToLower(getEnv("AI_PROVIDER", "gemini"))

	GEMINI_API_KEY = getEnv("GEMINI_API_KEY", "")
	MODEL_NAME = getEnv("MODEL_NAME", "gemini-2.5-flash")

	ANTHROPIC_API_KEY = getEnv("ANTHROPIC_API_KEY", "")
	ANTHROPIC_MODEL = getEnv("ANTHROPIC_MODEL", "claude-sonnet-4-5-20250929")

	MISTRAL_API_KEY = getEnv("MISTRAL_API_KEY", "")
	MISTRAL_MODEL_NAME = getEnv("MISTRAL_MODEL_NAME", "pixtral-12b-2409")

	PRIMARY_TIMEOUT = getEnvInt("PRIMARY_TIMEOUT", 45)
	REQUIRE_IMAGE = getEnvBool("REQUIRE_IMAGE", true)
	VOCABULARY_PATH = getEnv("VOCABULARY_PATH", "")

	// Image Processing
	ENABLE_IMAGE_PREPROCESSING = getEnvBool("ENABLE_IMAGE_PREPROCESSING", true)
	MAX_IMAGE_DIMENSION = getEnvInt("MAX_IMAGE_DIMENSION", 1600)

	AI_MAX_CONCURRENT = getEnvInt("AI_MAX_CONCURRENT", 4)
	AI_BURST = getEnvInt("AI_BURST", 12)
	AI_REFILL_SECONDS = getEnvInt("AI_REFILL_SECONDS", 5)

	PORT = getEnv("PORT", "8080")
	ALLOWED_ORIGINS = getEnv("ALLOWED_ORIGINS", "*")
	MAX_UPLOAD_MB = getEnvInt("MAX_UPLOAD_MB", 10)

	AUDIT_STORE = strings.ToLower(getEnv("AUDIT_STORE", "none"))
	MONGO_URI = getEnv("MONGO_URI", "mongodb://localhost:27017")
	MONGO_DB_NAME = getEnv("MONGO_DB_NAME", "townsquare")
	SQLITE_PATH = getEnv("SQLITE_PATH", "./analysis_audit.db")
	AUDIT_RETENTION_DAYS = getEnvInt("AUDIT_RETENTION_DAYS", 30)
	AUDIT_PRUNE_SCHEDULE = getEnv("AUDIT_PRUNE_SCHEDULE", "@daily")

	RESULT_CACHE_TTL = getEnvInt("RESULT_CACHE_TTL", 300)

	if !PrimaryConfigured() {
		log.Printf("⚠️  No API key for AI_PROVIDER=%s, running keyword classification only", AI_PROVIDER)
	}
	log.Println("✓ Configuration loaded successfully")
}

// PrimaryConfigured reports whether the selected provider has credentials.
func PrimaryConfigured() bool {
	switch AI_PROVIDER {
	case "gemini":
		return GEMINI_API_KEY != ""
	case "anthropic":
		return ANTHROPIC_API_KEY != ""
	case "mistral":
		return MISTRAL_API_KEY != ""
	}
	return false
}

// PrimaryTimeout returns PRIMARY_TIMEOUT as a duration.
func PrimaryTimeout() time.Duration {
	return time.Duration(PRIMARY_TIMEOUT) * time.Second
}

// MaxUploadBytes returns MAX_UPLOAD_MB in bytes.
func MaxUploadBytes() int64 {
	return int64(MAX_UPLOAD_MB) << 20
}

// AuditRetention returns AUDIT_RETENTION_DAYS as a duration.
func AuditRetention() time.Duration {
	return time.Duration(AUDIT_RETENTION_DAYS) * 24 * time.Hour
}

// ResultCacheTTL returns RESULT_CACHE_TTL as a duration.
func ResultCacheTTL() time.Duration {
	return time.Duration(RESULT_CACHE_TTL) * time.Second
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
