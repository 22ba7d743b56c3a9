package config

import (
	"log"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

// Config stores runtime configuration loaded from environment variables.
type Config struct {
	Port string
	Mode string

	// Default model credential; a request may override it per call via the
	// X-Model-Api-Key header.
	ModelAPIKey   string
	ModelName     string
	ModelEndpoint string

	// StoreDriver selects the guide store backend: "file" or "sqlite".
	StoreDriver string
	GuideDir    string
	SQLitePath  string

	JWTSecret string

	GCSBucket         string
	GoogleCredentials string
}

// Load reads configuration from the environment, providing sensible defaults.
func Load() Config {
	// Load .env file if it exists (useful for development)
	_ = godotenv.Load()
	cfg := Config{
		Port:              getEnv("PORT", "8080"),
		Mode:              getEnv("APP_ENV", "dev"),
		ModelAPIKey:       os.Getenv("MODEL_API_KEY"),
		ModelName:         getEnv("MODEL_NAME", "gemini-2.0-flash-lite"),
		ModelEndpoint:     getEnv("MODEL_ENDPOINT", "https://generativelanguage.googleapis.com/v1beta/openai/"),
		StoreDriver:       getEnv("STORE_DRIVER", "file"),
		GuideDir:          getEnv("GUIDE_DIR", "./data/guides"),
		SQLitePath:        getEnv("SQLITE_PATH", "./data/guides.db"),
		JWTSecret:         os.Getenv("AUTH_JWT_SECRET"),
		GCSBucket:         os.Getenv("GCS_BUCKET_NAME"),
		GoogleCredentials: os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"),
	}

	if err := os.MkdirAll(cfg.GuideDir, 0o755); err != nil {
		log.Fatalf("failed to ensure guide dir %s: %v", cfg.GuideDir, err)
	}
	if err := os.MkdirAll(filepath.Dir(cfg.SQLitePath), 0o755); err != nil {
		log.Fatalf("failed to ensure database dir %s: %v", cfg.SQLitePath, err)
	}

	return cfg
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok && val != "" {
		return val
	}
	return fallback
}
