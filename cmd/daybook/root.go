package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/daybookapp/daybook/internal/api"
	"github.com/daybookapp/daybook/internal/config"
	"github.com/daybookapp/daybook/internal/core"
	"github.com/daybookapp/daybook/internal/store"
	daybooksync "github.com/daybookapp/daybook/internal/sync"
)

// Version is set at build time via ldflags: -ldflags "-X main.Version=1.0.0"
var Version = "dev"

var rootCmd = &cobra.Command{
	Use:   "daybook",
	Short: "Daybook - personal task planning backend",
	RunE:  runServe,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the localhost HTTP API for the desktop UI",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(mcpCmd)
}

const shutdownTimeout = 10 * time.Second

func runServe(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(),
		syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := newLogger(cfg.Log)
	slog.SetDefault(logger)
	slog.Info("configuration loaded")

	svc, db, err := buildService(cfg, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	handler := api.NewHandler(svc, Version)
	router := api.NewRouter(handler)

	// Loopback only: the API serves the local desktop UI, nothing else.
	addr := fmt.Sprintf("127.0.0.1:%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeoutSeconds) * time.Second,
	}

	go func() {
		slog.Info("server starting", "address", addr)
		// ErrServerClosed is the expected error after a graceful Shutdown.
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			cancel()
		}
	}()

	<-ctx.Done()
	slog.Info("shutdown initiated")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	slog.Info("shutdown complete")
	return nil
}

// buildService opens the store, attaches the change signal, and wires
// the core service both adapters share.
func buildService(cfg *config.Config, logger *slog.Logger) (*core.Service, *store.Store, error) {
	db, err := store.New(cfg.Database.Path)
	if err != nil {
		return nil, nil, err
	}
	slog.Info("store initialized", "path", cfg.Database.Path)

	if cfg.Sync.ChangeLogPath != "" {
		db.SetChangeLog(daybooksync.NewChangeLog(cfg.Sync.ChangeLogPath))
		slog.Info("change log attached", "path", cfg.Sync.ChangeLogPath)
	}

	return core.New(db, cfg.Planner, logger), db, nil
}

func newLogger(cfg config.LogConfig) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLogLevel(cfg.Level)}
	if cfg.Format == "text" {
		return slog.New(slog.NewTextHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, opts))
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
