package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerAddress   string
	ShutdownTimeout time.Duration
	CORSOrigins     []string

	// Outbox storage
	DBDriver string // "sqlite" or "postgres"
	DBDSN    string

	// Quiz settings file, hot-reloaded
	SettingsPath string

	// Notion upload. Credentials only ever come from the environment.
	NotionAPIKey        string
	NotionDatabaseID    string
	NotionBaseURL       string
	NotionTimeout       time.Duration
	UploadRetryInterval time.Duration
	UploadMaxAttempts   int
	UploadWorkers       int

	LogFile string // optional, rotated
}

// Load reads the server configuration. SERVER_ADDRESS and
// SHUTDOWN_TIMEOUT are required.
func Load() *Config {
	cfg := LoadLocal()
	cfg.ServerAddress = mustGetenv("SERVER_ADDRESS")
	cfg.ShutdownTimeout = mustGetDuration("SHUTDOWN_TIMEOUT")
	cfg.CORSOrigins = splitList(getenvDefault("CORS_ORIGINS", "*"))
	return cfg
}

// LoadLocal reads everything but the HTTP server settings, for tools that
// run the quiz in-process.
func LoadLocal() *Config {
	// Load .env file if it exists
	_ = godotenv.Load()
	return &Config{
		DBDriver:            getenvDefault("DB_DRIVER", "sqlite"),
		DBDSN:               getenvDefault("DB_DSN", "keisan.db"),
		SettingsPath:        getenvDefault("SETTINGS_PATH", "settings/config.json"),
		NotionAPIKey:        os.Getenv("NOTION_API_KEY"),
		NotionDatabaseID:    os.Getenv("NOTION_DATABASE_ID"),
		NotionBaseURL:       getenvDefault("NOTION_BASE_URL", "https://api.notion.com/v1"),
		NotionTimeout:       getDurationDefault("NOTION_TIMEOUT", 30*time.Second),
		UploadRetryInterval: getDurationDefault("UPLOAD_RETRY_INTERVAL", time.Minute),
		UploadMaxAttempts:   getIntDefault("UPLOAD_MAX_ATTEMPTS", 5),
		UploadWorkers:       getIntDefault("UPLOAD_WORKERS", 2),
		LogFile:             os.Getenv("LOG_FILE"),
	}
}

// UploadEnabled reports whether both Notion credentials are present.
func (c *Config) UploadEnabled() bool {
	return c.NotionAPIKey != "" && c.NotionDatabaseID != ""
}

func mustGetenv(k string) string {
	v := os.Getenv(k)
	if v == "" {
		log.Fatalf("config: required environment variable %s is not set", k)
	}
	return v
}

func mustGetDuration(k string) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		log.Fatalf("config: required environment variable %s is not set", k)
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Fatalf("config: %s=%q is not a valid duration: %v", k, v, err)
	}
	return d
}

func getenvDefault(k, fallback string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return fallback
}

func getDurationDefault(k string, fallback time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Fatalf("config: %s=%q is not a valid duration: %v", k, v, err)
	}
	return d
}

func getIntDefault(k string, fallback int) int {
	v := os.Getenv(k)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		log.Fatalf("config: %s=%q is not a positive integer", k, v)
	}
	return n
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
