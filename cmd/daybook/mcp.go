package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/daybookapp/daybook/internal/config"
	"github.com/daybookapp/daybook/internal/mcp"
)

var mcpListen string

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the MCP tool server for LLM clients",
	Long: "Speaks line-delimited JSON-RPC 2.0 over stdio, or over loopback TCP " +
		"when --listen is given. Both processes share the same SQLite database.",
	RunE: runMCP,
}

func init() {
	mcpCmd.Flags().StringVar(&mcpListen, "listen", "",
		"Loopback TCP address to listen on (e.g. 127.0.0.1:7421) instead of stdio")
}

func runMCP(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(),
		syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// Stdout carries the protocol on stdio, so logs go to stderr.
	logger := newLogger(cfg.Log)
	slog.SetDefault(logger)

	svc, db, err := buildService(cfg, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	srv := mcp.NewServer(svc, logger, Version)

	if mcpListen != "" {
		return srv.ListenAndServe(ctx, mcpListen)
	}
	return srv.Serve(ctx, os.Stdin, os.Stdout)
}
