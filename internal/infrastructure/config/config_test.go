package config_test

import (
	"testing"
	"time"

	"github.com/keisan-drill/backend/internal/infrastructure/config"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("SERVER_ADDRESS", ":5000")
	t.Setenv("SHUTDOWN_TIMEOUT", "5s")
	t.Setenv("NOTION_API_KEY", "")
	t.Setenv("NOTION_DATABASE_ID", "")

	cfg := config.Load()

	if cfg.ServerAddress != ":5000" || cfg.ShutdownTimeout != 5*time.Second {
		t.Errorf("unexpected server settings %+v", cfg)
	}
	if cfg.DBDriver != "sqlite" {
		t.Errorf("expected sqlite driver, got %q", cfg.DBDriver)
	}
	if cfg.NotionTimeout != 30*time.Second {
		t.Errorf("expected 30s notion timeout, got %s", cfg.NotionTimeout)
	}
	if cfg.UploadRetryInterval != time.Minute || cfg.UploadMaxAttempts != 5 {
		t.Errorf("unexpected upload settings %+v", cfg)
	}
	if cfg.UploadEnabled() {
		t.Error("expected upload to be disabled without credentials")
	}
}

func TestLoad_NotionCredentialsFromEnv(t *testing.T) {
	t.Setenv("SERVER_ADDRESS", ":5000")
	t.Setenv("SHUTDOWN_TIMEOUT", "5s")
	t.Setenv("NOTION_API_KEY", "secret_abc")
	t.Setenv("NOTION_DATABASE_ID", "db123")
	t.Setenv("CORS_ORIGINS", "http://localhost:3000, http://example.com")

	cfg := config.Load()

	if !cfg.UploadEnabled() {
		t.Error("expected upload to be enabled")
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "http://example.com" {
		t.Errorf("unexpected origins %v", cfg.CORSOrigins)
	}
}

func TestLoadLocal_SkipsServerSettings(t *testing.T) {
	t.Setenv("SERVER_ADDRESS", "")
	t.Setenv("SHUTDOWN_TIMEOUT", "")
	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("UPLOAD_WORKERS", "4")
	t.Setenv("NOTION_TIMEOUT", "5s")

	cfg := config.LoadLocal()

	if cfg.ServerAddress != "" || cfg.CORSOrigins != nil {
		t.Errorf("expected no server settings, got %+v", cfg)
	}
	if cfg.DBDriver != "postgres" || cfg.UploadWorkers != 4 || cfg.NotionTimeout != 5*time.Second {
		t.Errorf("unexpected settings %+v", cfg)
	}
}
