package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/allisson/newsletter/internal/app"
	"github.com/allisson/newsletter/internal/config"
	deliveryUseCase "github.com/allisson/newsletter/internal/delivery/usecase"
)

// RunWorker runs the delivery worker until SIGINT/SIGTERM. Several worker
// processes may run against the same database.
func RunWorker(ctx context.Context, version string) error {
	cfg := config.Load()

	container := app.NewContainer(cfg)
	logger := container.Logger()
	logger.Info("starting delivery worker", slog.String("version", version))
	defer closeContainer(container, logger)

	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	worker, err := container.Worker()
	if err != nil {
		return fmt.Errorf("failed to initialize delivery worker: %w", err)
	}

	metricsServer, err := container.MetricsServer()
	if err != nil {
		return fmt.Errorf("failed to initialize metrics server: %w", err)
	}
	if metricsServer != nil {
		go func() {
			if err := metricsServer.Start(ctx); err != nil {
				logger.Error("metrics server error", slog.Any("error", err))
			}
		}()
	}

	runErr := worker.Run(ctx)

	if metricsServer != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.DBConnMaxLifetime)
		defer shutdownCancel()
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			return errors.Join(runErr, fmt.Errorf("metrics server shutdown: %w", err))
		}
	}
	return runErr
}

// startWorker runs the worker in the background and reports its failure on
// errs, which must have room for one error. The returned channel is closed
// once Run has returned, so callers can wait for in-flight deliveries before
// closing the database.
func startWorker(ctx context.Context, worker deliveryUseCase.Worker, errs chan<- error) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := worker.Run(ctx); err != nil {
			errs <- fmt.Errorf("delivery worker error: %w", err)
		}
	}()
	return done
}

// RunDrainQueue delivers every queue entry that is ready now and exits. Entries
// rescheduled for later are left in the queue.
func RunDrainQueue(
	ctx context.Context,
	worker deliveryUseCase.Worker,
	logger *slog.Logger,
	writer io.Writer,
	format string,
) error {
	logger.Info("draining delivery queue")

	processed, err := worker.RunUntilEmpty(ctx)
	if err != nil {
		return fmt.Errorf("failed to drain delivery queue after %d entries: %w", processed, err)
	}

	if format == "json" {
		if err := writeJSON(writer, map[string]any{"processed": processed}); err != nil {
			return err
		}
	} else {
		_, _ = fmt.Fprintf(writer, "Processed %d delivery task(s)\n", processed)
	}

	logger.Info("delivery queue drained", slog.Int("processed", processed))
	return nil
}
