package mail

import (
	"context"

	"go.uber.org/zap"
)

// LogTransport writes messages to the logger instead of delivering them.
// Used in development when no SMTP credentials are configured.
type LogTransport struct {
	logger *zap.Logger
}

func NewLogTransport(logger *zap.Logger) *LogTransport {
	return &LogTransport{logger: logger}
}

func (t *LogTransport) Send(_ context.Context, msg Message) error {
	t.logger.Info("Email (not delivered)",
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
		zap.Int("html_bytes", len(msg.HTML)),
	)
	t.logger.Debug("Email body", zap.String("html", msg.HTML))
	return nil
}
