package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	subscriberUseCase "github.com/allisson/newsletter/internal/subscriber/usecase"
)

// RunAddSubscriber adds a recipient to the directory. Only confirmed
// subscribers are included in issues published afterwards.
func RunAddSubscriber(
	ctx context.Context,
	useCase subscriberUseCase.SubscriberUseCase,
	logger *slog.Logger,
	writer io.Writer,
	email, name string,
	confirmed bool,
	format string,
) error {
	subscriber, err := useCase.Add(ctx, email, name, confirmed)
	if err != nil {
		return fmt.Errorf("failed to add subscriber: %w", err)
	}

	if format == "json" {
		result := map[string]any{
			"id":     subscriber.ID.String(),
			"email":  subscriber.Email,
			"name":   subscriber.Name,
			"status": string(subscriber.Status),
		}
		if err := writeJSON(writer, result); err != nil {
			return err
		}
	} else {
		_, _ = fmt.Fprintf(writer, "Subscriber %s added with status %s\n", subscriber.ID.String(), subscriber.Status)
	}

	logger.Info("subscriber added",
		slog.String("subscriber_id", subscriber.ID.String()),
		slog.String("status", string(subscriber.Status)),
	)
	return nil
}
