package logging

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/kingrea/kondate/internal/config"
)

func TestPrintfAppendsTimestampedLines(t *testing.T) {
	dir := t.TempDir()
	cfg := &config.Config{ProjectDir: dir, KondateProjectDir: filepath.Join(dir, config.KondateDir)}
	logger, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	logger.clock = func() time.Time { return time.Date(2024, 6, 13, 8, 0, 0, 0, time.UTC) }
	logger.Printf("GET /api/menu-list/%s -> %d\n", "plan-1", 200)
	if err := logger.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(cfg.LogsDir(), FileName))
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	want := "[2024-06-13T08:00:00Z] GET /api/menu-list/plan-1 -> 200\n"
	if string(data) != want {
		t.Fatalf("log = %q, want %q", string(data), want)
	}
}

func TestNilLoggerIsSafe(t *testing.T) {
	var logger *Logger
	logger.Printf("ignored")
	if err := logger.Close(); err != nil {
		t.Fatalf("nil close: %v", err)
	}
	if logger.Path() != "" {
		t.Fatalf("nil logger path should be empty")
	}
	if _, err := New(nil); err == nil {
		t.Fatalf("expected error without config")
	}
}
