package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/VasilyPolyuhovich/ToxityFilter/internal/config"
	"github.com/VasilyPolyuhovich/ToxityFilter/internal/core"
	"github.com/VasilyPolyuhovich/ToxityFilter/internal/di"
	"github.com/VasilyPolyuhovich/ToxityFilter/internal/server"
)

func main() {
	// Build the dependency injection container
	container, err := di.BuildContainer()
	if err != nil {
		fmt.Printf("Failed to build dependency container: %v\n", err)
		os.Exit(1)
	}

	// Run the application
	if err := container.Invoke(run); err != nil {
		fmt.Printf("Application error: %v\n", err)
		os.Exit(1)
	}
}

// run is the main application function that gets all dependencies injected
func run(
	cfg *config.Config,
	logger *zap.Logger,
	srv *server.Server,
	escalator core.Escalator,
	decisionLog core.DecisionLog,
	resultCache core.ResultCache,
	events core.EventPublisher,
) error {
	defer logger.Sync()

	// Start the HTTP server
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	// Handle graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		logger.Error("HTTP server stopped unexpectedly", zap.Error(err))
		return err
	case sig := <-sigCh:
		logger.Info("Shutting down...", zap.String("signal", sig.String()))
	}

	shutdownTimeout, err := cfg.GetDuration("server.shutdown_timeout")
	if err != nil {
		shutdownTimeout = 15 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Stop(ctx); err != nil {
		logger.Error("Failed to stop HTTP server", zap.Error(err))
	}

	// Drain the escalation queue before closing what it writes to
	if stopper, ok := escalator.(interface{ Stop() }); ok {
		stopper.Stop()
	}

	// Close any resources that need closing
	if closer, ok := events.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			logger.Error("Failed to close event publisher", zap.Error(err))
		}
	}
	if stopper, ok := decisionLog.(interface{ Stop() }); ok {
		stopper.Stop()
	}
	if closer, ok := decisionLog.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			logger.Error("Failed to close audit log", zap.Error(err))
		}
	}
	if closer, ok := resultCache.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			logger.Error("Failed to close result cache", zap.Error(err))
		}
	}

	logger.Info("Shutdown complete")
	return nil
}
