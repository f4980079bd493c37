package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/net/netutil"

	httpadapter "github.com/kirillkom/medref-rag/internal/adapters/http"
	"github.com/kirillkom/medref-rag/internal/bootstrap"
	"github.com/kirillkom/medref-rag/internal/config"
	"github.com/kirillkom/medref-rag/internal/observability/logging"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		slog.Error("api_exit", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load()
	logger := logging.NewJSONLogger("medref-api", cfg.LogLevel)
	slog.SetDefault(logger)
	if err != nil {
		return err
	}

	app, err := bootstrap.New(cfg, "api", logger)
	if err != nil {
		return err
	}
	defer app.Close()

	// a missing corpus is served as 503 until a reload succeeds
	if _, err := app.LoadCorpus(ctx); err != nil {
		logger.Error("corpus_startup_load_failed", "error", err)
	}

	router, err := httpadapter.NewRouter(cfg, app.Retriever, app.Answerer, app.Reloader, app.Metrics)
	if err != nil {
		return err
	}

	listener, err := net.Listen("tcp", ":"+cfg.APIPort)
	if err != nil {
		return err
	}
	if cfg.APIMaxConnections > 0 {
		listener = netutil.LimitListener(listener, cfg.APIMaxConnections)
	}

	server := &http.Server{
		Handler:           router.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      cfg.APIRequestTimeout + 10*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		if err := app.RunReloadTriggers(ctx); err != nil {
			logger.Error("reload_triggers_stopped", "error", err)
		}
	}()

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("api_listening", "port", cfg.APIPort, "max_connections", cfg.APIMaxConnections)
		serveErr <- server.Serve(listener)
	}()

	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("api_shutdown_error", "error", err)
	}
	return nil
}
