package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	log "github.com/charmbracelet/log"
	"github.com/ticketcore/promoengine/infra/initializer"
	"github.com/ticketcore/promoengine/pkg/app"
	"github.com/ticketcore/promoengine/pkg/config"
	"github.com/ticketcore/promoengine/webapi"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg, err := config.Load(".env")
	if err != nil {
		return fmt.Errorf("failed to load application configuration: %w", err)
	}

	deps, err := initializer.InitializeDependencies(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize dependencies: %w", err)
	}
	logger := deps.Logger
	defer func() {
		if err := deps.Close(); err != nil {
			logger.Error("Failed to release dependencies", "error", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	engine := app.New(deps, cfg)
	if err := engine.Start(ctx); err != nil {
		return err
	}
	fiberApp := webapi.SetupApp(engine)

	addr := listenAddr(cfg.Server)
	logger.Info("Starting server",
		"env", cfg.Env,
		"address", addr,
		"scheme", schemeOf(cfg.Server),
	)

	errCh := make(chan error, 1)
	go func() { errCh <- fiberApp.Listen(addr) }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := fiberApp.ShutdownWithContext(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	logger.Info("Server stopped")
	return nil
}

func listenAddr(s *config.Server) string {
	if s == nil {
		return ":3000"
	}
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

func schemeOf(s *config.Server) string {
	if s == nil || s.Scheme == "" {
		return "http"
	}
	return s.Scheme
}
