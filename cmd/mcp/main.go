package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/mark3labs/mcp-go/server"

	mcpadapter "github.com/kirillkom/medref-rag/internal/adapters/mcp"
	"github.com/kirillkom/medref-rag/internal/bootstrap"
	"github.com/kirillkom/medref-rag/internal/config"
	"github.com/kirillkom/medref-rag/internal/observability/logging"
)

const version = "1.0.0"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		slog.Error("mcp_exit", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load()
	// stdout is the MCP transport
	logger := logging.NewJSONLoggerTo(os.Stderr, "medref-mcp", cfg.LogLevel)
	slog.SetDefault(logger)
	if err != nil {
		return err
	}
	// the process is short-lived and driven by one client
	cfg.WatchArtifacts = false

	app, err := bootstrap.New(cfg, "mcp", logger)
	if err != nil {
		return err
	}
	defer app.Close()

	if _, err := app.LoadCorpus(ctx); err != nil {
		return err
	}
	go func() {
		if err := app.RunReloadTriggers(ctx); err != nil {
			logger.Warn("reload_triggers_stopped", "error", err)
		}
	}()

	stdio := server.NewStdioServer(mcpadapter.NewServer(version, app.Retriever, app.Reloader))
	stdio.SetErrorLogger(slog.NewLogLogger(logger.Handler(), slog.LevelError))
	logger.Info("mcp_serving", "transport", "stdio")
	return stdio.Listen(ctx, os.Stdin, os.Stdout)
}
