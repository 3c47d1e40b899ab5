package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	idempotencyUseCase "github.com/allisson/newsletter/internal/idempotency/usecase"
)

// RunCleanIdempotencyKeys deletes completed idempotency keys older than days.
// A purged key behaves as never used, so a late retry with it publishes again.
func RunCleanIdempotencyKeys(
	ctx context.Context,
	keyUseCase idempotencyUseCase.KeyUseCase,
	logger *slog.Logger,
	writer io.Writer,
	days int,
	dryRun bool,
	format string,
) error {
	if days < 0 {
		return fmt.Errorf("days must be a positive number, got: %d", days)
	}

	logger.Info("cleaning idempotency keys",
		slog.Int("days", days),
		slog.Bool("dry_run", dryRun),
	)

	count, err := keyUseCase.DeleteOlderThan(ctx, days, dryRun)
	if err != nil {
		return fmt.Errorf("failed to delete idempotency keys: %w", err)
	}

	if format == "json" {
		result := map[string]any{
			"count":   count,
			"days":    days,
			"dry_run": dryRun,
		}
		if err := writeJSON(writer, result); err != nil {
			return err
		}
	} else if dryRun {
		_, _ = fmt.Fprintf(writer, "Dry-run mode: Would delete %d idempotency key(s) older than %d day(s)\n", count, days)
	} else {
		_, _ = fmt.Fprintf(writer, "Successfully deleted %d idempotency key(s) older than %d day(s)\n", count, days)
	}

	logger.Info("cleanup completed",
		slog.Int64("count", count),
		slog.Int("days", days),
		slog.Bool("dry_run", dryRun),
	)
	return nil
}
