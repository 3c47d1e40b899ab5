package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	operatorUseCase "github.com/allisson/newsletter/internal/operator/usecase"
)

// RunCreateOperator registers an operator allowed to publish and prints its
// bearer token. The token is not stored and cannot be shown again.
func RunCreateOperator(
	ctx context.Context,
	useCase operatorUseCase.OperatorUseCase,
	logger *slog.Logger,
	writer io.Writer,
	name string,
	format string,
) error {
	logger.Info("creating new operator", slog.String("name", name))

	operator, plainToken, err := useCase.Create(ctx, name)
	if err != nil {
		return fmt.Errorf("failed to create operator: %w", err)
	}

	if format == "json" {
		result := map[string]any{
			"id":    operator.ID.String(),
			"name":  operator.Name,
			"token": plainToken,
		}
		if err := writeJSON(writer, result); err != nil {
			return err
		}
	} else {
		_, _ = fmt.Fprintln(writer, "\nOperator created successfully!")
		_, _ = fmt.Fprintf(writer, "Operator ID: %s\n", operator.ID.String())
		_, _ = fmt.Fprintf(writer, "Token: %s\n", plainToken)
		_, _ = fmt.Fprintln(writer, "\nIMPORTANT: The token is shown only once. Store it securely.")
	}

	logger.Info("operator created successfully",
		slog.String("operator_id", operator.ID.String()),
		slog.String("name", operator.Name),
	)
	return nil
}
