package email

import (
	"context"
	"log/slog"
)

// LogTransport logs messages instead of sending them. Used in development.
type LogTransport struct {
	logger *slog.Logger
}

// NewLogTransport creates a LogTransport.
func NewLogTransport(logger *slog.Logger) *LogTransport {
	return &LogTransport{logger: logger}
}

// Send logs the message and always succeeds.
func (t *LogTransport) Send(ctx context.Context, msg Message) error {
	t.logger.InfoContext(ctx, "email sent",
		slog.String("to", msg.To),
		slog.String("subject", msg.Subject),
		slog.Int("html_bytes", len(msg.HTMLBody)),
		slog.Int("text_bytes", len(msg.TextBody)),
	)
	return nil
}
