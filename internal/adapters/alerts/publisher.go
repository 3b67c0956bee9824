package alerts

import (
	"context"
	"log/slog"
)

// LoggingPublisher emits alert events to the structured log. It stands in for
// the platform alerting transport in local and test environments.
type LoggingPublisher struct {
	logger *slog.Logger
}

func NewLoggingPublisher(logger *slog.Logger) *LoggingPublisher {
	return &LoggingPublisher{logger: logger}
}

func (p *LoggingPublisher) Publish(ctx context.Context, eventType string, payload []byte) error {
	p.logger.InfoContext(ctx, "published alert event",
		"module", "alerts.publisher",
		"layer", "adapter",
		"operation", "publish_alert",
		"outcome", "success",
		"event_type", eventType,
		"payload_bytes", len(payload),
	)
	return nil
}
