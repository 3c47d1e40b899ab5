package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"

	"github.com/allisson/newsletter/internal/app"
	"github.com/allisson/newsletter/internal/config"
)

// RunServer starts the API server, the metrics server when enabled and,
// with withWorker, the delivery worker in the same process. It blocks until
// SIGINT/SIGTERM or until one of them fails, then shuts the rest down within
// DBConnMaxLifetime.
func RunServer(ctx context.Context, version string, withWorker bool) error {
	cfg := config.Load()
	gin.SetMode(cfg.GetGinMode())

	container := app.NewContainer(cfg)
	logger := container.Logger()
	logger.Info("starting server", slog.String("version", version), slog.Bool("with_worker", withWorker))
	defer closeContainer(container, logger)

	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	server, err := container.HTTPServer(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize HTTP server: %w", err)
	}

	metricsServer, err := container.MetricsServer()
	if err != nil {
		return fmt.Errorf("failed to initialize metrics server: %w", err)
	}

	serverErr := make(chan error, 3)
	go func() {
		if err := server.Start(ctx); err != nil {
			serverErr <- fmt.Errorf("api server error: %w", err)
		}
	}()

	if metricsServer != nil {
		go func() {
			if err := metricsServer.Start(ctx); err != nil {
				serverErr <- fmt.Errorf("metrics server error: %w", err)
			}
		}()
	}

	var workerDone <-chan struct{}
	if withWorker {
		worker, err := container.Worker()
		if err != nil {
			return fmt.Errorf("failed to initialize delivery worker: %w", err)
		}
		workerDone = startWorker(ctx, worker, serverErr)
	}

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case runErr = <-serverErr:
		logger.Error("server error, initiating shutdown", slog.Any("error", runErr))
		cancel()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.DBConnMaxLifetime)
	defer shutdownCancel()

	shutdownErrors := []error{runErr}
	if err := server.Shutdown(shutdownCtx); err != nil {
		shutdownErrors = append(shutdownErrors, fmt.Errorf("api server shutdown: %w", err))
	}
	if metricsServer != nil {
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("metrics server shutdown: %w", err))
		}
	}

	// The deferred container close shuts the pool the worker is using.
	if workerDone != nil {
		select {
		case <-workerDone:
		case <-shutdownCtx.Done():
			shutdownErrors = append(shutdownErrors, errors.New("delivery worker did not stop before the shutdown deadline"))
		}
	}

	return errors.Join(shutdownErrors...)
}
