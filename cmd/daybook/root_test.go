package main

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/daybookapp/daybook/internal/config"
)

func TestParseLogLevel(t *testing.T) {
	cases := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"nonsense", slog.LevelInfo},
		{"", slog.LevelInfo},
	}
	for _, tc := range cases {
		if got := parseLogLevel(tc.in); got != tc.want {
			t.Errorf("parseLogLevel(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestBuildService_WiresChangeLog(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Database.Path = filepath.Join(dir, "daybook.db")
	cfg.Sync.ChangeLogPath = filepath.Join(dir, "changes.jsonl")

	logger := newLogger(cfg.Log)
	svc, db, err := buildService(cfg, logger)
	if err != nil {
		t.Fatalf("buildService failed: %v", err)
	}
	defer db.Close()

	// A mutation through the service should append to the change log.
	if _, err := svc.QuickAdd("Write journal entry", "", time.Now()); err != nil {
		t.Fatalf("quick add failed: %v", err)
	}
	data, err := os.ReadFile(cfg.Sync.ChangeLogPath)
	if err != nil {
		t.Fatalf("change log not written: %v", err)
	}
	if len(data) == 0 {
		t.Error("change log is empty after a mutation")
	}
}

func TestBuildService_NoChangeLogPath(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Database.Path = filepath.Join(dir, "daybook.db")
	cfg.Sync.ChangeLogPath = ""

	_, db, err := buildService(cfg, newLogger(cfg.Log))
	if err != nil {
		t.Fatalf("buildService failed: %v", err)
	}
	db.Close()
}
