package app

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/pharmalink/golang_services/internal/platform/messagebroker"
)

// publishEvent emits a domain event. Failures are logged and swallowed: the
// database write that preceded the event is the source of truth.
func publishEvent(ctx context.Context, pub messagebroker.Publisher, logger *slog.Logger, subject string, event any) {
	if pub == nil {
		return
	}
	data, err := json.Marshal(event)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to marshal event", "subject", subject, "error", err)
		return
	}
	if err := pub.Publish(ctx, subject, data); err != nil {
		logger.WarnContext(ctx, "Failed to publish event", "subject", subject, "error", err)
	}
}
