package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func setServerEnv(t *testing.T, dir string) {
	t.Helper()
	t.Setenv("SERVER_ADDRESS", "127.0.0.1:0")
	t.Setenv("SHUTDOWN_TIMEOUT", "2s")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DB_DSN", filepath.Join(dir, "server.db"))
	t.Setenv("SETTINGS_PATH", filepath.Join(dir, "missing.json"))
	t.Setenv("LOG_FILE", filepath.Join(dir, "server.log"))
	t.Setenv("NOTION_API_KEY", "")
	t.Setenv("NOTION_DATABASE_ID", "")
}

func TestRun_ReturnsCleanlyOnShutdown(t *testing.T) {
	dir := t.TempDir()
	setServerEnv(t, dir)

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(100*time.Millisecond, cancel)

	done := make(chan int, 1)
	go func() { done <- run(ctx) }()

	select {
	case code := <-done:
		if code != 0 {
			t.Fatalf("expected exit code 0, got %d", code)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("run did not return after cancel")
	}

	logs, err := os.ReadFile(filepath.Join(dir, "server.log"))
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(logs), "server stopped") {
		t.Errorf("expected the final log line in the file, got:\n%s", logs)
	}
	if _, err := os.Stat(filepath.Join(dir, "server.db")); err != nil {
		t.Errorf("expected the database file to exist: %v", err)
	}
}

func TestRun_ReturnsErrorCodeOnBadDriver(t *testing.T) {
	dir := t.TempDir()
	setServerEnv(t, dir)
	t.Setenv("DB_DRIVER", "mysql")

	if code := run(context.Background()); code != 1 {
		t.Errorf("expected exit code 1, got %d", code)
	}
}
