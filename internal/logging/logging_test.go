package logging_test

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/keisan-drill/backend/internal/logging"
)

func TestNewWithWriter_Level(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewWithWriter(&buf, false)
	logger.Debug("hidden")
	logger.Info("shown", "question_type", "division")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected 1 line, got %d: %q", len(lines), buf.String())
	}

	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("expected JSON output: %v", err)
	}
	if entry["msg"] != "shown" || entry["question_type"] != "division" {
		t.Errorf("unexpected entry %v", entry)
	}
}

func TestNewWithWriter_Debug(t *testing.T) {
	var buf bytes.Buffer
	logging.NewWithWriter(&buf, true).Debug("visible")
	if !strings.Contains(buf.String(), "visible") {
		t.Errorf("expected debug entry, got %q", buf.String())
	}
}

func TestNew_WritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "drill.log")
	logger, closer := logging.New(logging.Options{File: path})
	logger.Info("upload scheduled", "upload_id", "abc")
	if err := closer.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(data), `"upload_id":"abc"`) {
		t.Errorf("expected entry in file, got %q", data)
	}
}
