package config

import (
	"flag"
	"log"
	"os"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	DatabaseURL string
	RedisURL    string
	LogLevel    string

	// AI extraction
	GeminiAPIKey   string
	GeminiEndpoint string

	// Image enhancement
	PhotoroomAPIKey   string
	PhotoroomEndpoint string

	// Meta Graph API (Instagram/Facebook official connection)
	MetaAppID       string
	MetaAppSecret   string
	MetaRedirectURI string
	MetaGraphURL    string

	// Blob storage for enhanced images
	S3Bucket    string
	S3PublicURL string

	// Fetch strategy toggles
	BrowserFetch      bool
	StrictSocialGuard bool

	DashboardURL string
}

const (
	defaultGeminiEndpoint    = "https://generativelanguage.googleapis.com/v1beta/models/gemini-1.5-flash:generateContent"
	defaultPhotoroomEndpoint = "https://sdk.photoroom.com/v1/segment"
	defaultMetaGraphURL      = "https://graph.facebook.com/v19.0"
)

func Load() *Config {
	// Local development convenience; a missing .env is not an error
	_ = godotenv.Load()

	config := &Config{
		Port:     getEnvWithDefault("PORT", "8080"),
		LogLevel: getEnvWithDefault("LOG_LEVEL", "info"),

		GeminiAPIKey:   getEnvWithDefault("GEMINI_API_KEY", ""),
		GeminiEndpoint: getEnvWithDefault("GEMINI_ENDPOINT", defaultGeminiEndpoint),

		PhotoroomAPIKey:   getEnvWithDefault("PHOTOROOM_API_KEY", ""),
		PhotoroomEndpoint: getEnvWithDefault("PHOTOROOM_ENDPOINT", defaultPhotoroomEndpoint),

		MetaAppID:       getEnvWithDefault("META_APP_ID", ""),
		MetaAppSecret:   getEnvWithDefault("META_APP_SECRET", ""),
		MetaRedirectURI: getEnvWithDefault("META_REDIRECT_URI", ""),
		MetaGraphURL:    getEnvWithDefault("META_GRAPH_URL", defaultMetaGraphURL),

		S3Bucket:    getEnvWithDefault("S3_BUCKET", ""),
		S3PublicURL: getEnvWithDefault("S3_PUBLIC_URL", ""),

		BrowserFetch:      getEnvWithDefault("BROWSER_FETCH", "false") == "true",
		StrictSocialGuard: getEnvWithDefault("STRICT_SOCIAL_GUARD", "false") == "true",

		DashboardURL: getEnvWithDefault("DASHBOARD_URL", "/dashboard"),
	}

	// Required environment variables (for database/redis services)
	config.DatabaseURL = mustGetEnv("DATABASE_URL")
	config.RedisURL = mustGetEnv("REDIS_URL")

	// Command line flags override environment
	flag.StringVar(&config.Port, "port", config.Port, "Server port")
	flag.StringVar(&config.LogLevel, "log-level", config.LogLevel, "Log level")
	flag.Parse()

	return config
}

func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func mustGetEnv(key string) string {
	value := os.Getenv(key)
	if value == "" {
		log.Fatalf("Environment variable %s is required", key)
	}
	return value
}

// ValidateForAPI ensures all required fields for the API service are present
func (c *Config) ValidateForAPI() error {
	if c.GeminiAPIKey == "" {
		log.Printf("Warning: GEMINI_API_KEY not set - URL extraction will fail until configured")
	}
	return nil
}

// ValidateForWorker ensures all required fields for the worker service are present
func (c *Config) ValidateForWorker() error {
	if c.PhotoroomAPIKey == "" {
		log.Printf("Warning: PHOTOROOM_API_KEY not set - enhancement jobs will fail until configured")
	}
	return nil
}
