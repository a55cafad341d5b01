package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/MrEthical07/goSession/cmd/sessiond/internal/config"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", os.Getenv("SESSIOND_CONFIG"), "path to the YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "sessiond: config: %v\n", err)
		os.Exit(1)
	}

	logger, err := initLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "sessiond: logger: %v\n", err)
		os.Exit(1)
	}

	if err := run(cfg, logger); err != nil {
		logger.Error("sessiond stopped", zap.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}
	_ = logger.Sync()
}

func run(cfg *config.Config, logger *zap.Logger) error {
	rootCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("starting sessiond",
		zap.String("env", cfg.App.Env),
		zap.String("ver", cfg.App.Version),
		zap.String("store", cfg.Store.Backend),
		zap.String("session", cfg.Session.Backend),
	)

	deps, err := initBackends(rootCtx, cfg, logger)
	if err != nil {
		return fmt.Errorf("backends: %w", err)
	}
	defer deps.close()

	engine, err := buildEngine(cfg, logger, deps)
	if err != nil {
		return fmt.Errorf("build engine: %w", err)
	}
	defer func() {
		if err := engine.Close(); err != nil {
			logger.Warn("engine close", zap.Error(err))
		}
	}()

	otelShutdown, err := initOTelMetrics(cfg, logger, engine)
	if err != nil {
		return fmt.Errorf("otel metrics: %w", err)
	}

	httpSrv := buildHTTPServer(cfg, logger, engine)

	httpErrCh := make(chan error, 1)
	go func() { httpErrCh <- serveHTTP(httpSrv, cfg, logger) }()

	var runErr error
	select {
	case <-rootCtx.Done():
		logger.Info("shutdown signal", zap.String("reason", "context canceled"))
	case err := <-httpErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			runErr = fmt.Errorf("http serve: %w", err)
		}
	}

	shCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.GracefulTimeout)
	defer cancel()
	_ = httpSrv.Shutdown(shCtx)
	if err := otelShutdown(shCtx); err != nil {
		logger.Warn("otel shutdown", zap.Error(err))
	}

	logger.Info("bye")
	return runErr
}
