package app

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/pharmalink/golang_services/internal/messaging_service/domain"
	"github.com/pharmalink/golang_services/internal/platform/messagebroker"
)

// StatusTracker applies carrier delivery status callbacks to messages,
// correlated by tracking id only.
type StatusTracker struct {
	messages  domain.MessageRepository
	numbers   domain.PhoneNumberRepository
	publisher messagebroker.Publisher
	logger    *slog.Logger
	now       func() time.Time
}

func NewStatusTracker(messages domain.MessageRepository, numbers domain.PhoneNumberRepository, publisher messagebroker.Publisher, logger *slog.Logger) *StatusTracker {
	return &StatusTracker{
		messages:  messages,
		numbers:   numbers,
		publisher: publisher,
		logger:    logger.With("component", "status_tracker"),
		now:       time.Now,
	}
}

// Apply is idempotent: the same event applied twice leaves the same state.
// Events are not ordered; the last one applied wins. An unknown tracking id
// yields domain.ErrMessageNotFound and changes nothing.
func (t *StatusTracker) Apply(ctx context.Context, ev domain.StatusEvent) (*domain.Message, error) {
	ev.TrackingID = strings.TrimSpace(ev.TrackingID)
	if ev.TrackingID == "" {
		return nil, domain.BadRequestf("MessageSid is required")
	}
	if strings.TrimSpace(ev.ProviderStatus) == "" {
		return nil, domain.BadRequestf("MessageStatus is required")
	}

	update := domain.BuildStatusUpdate(ev, t.displayName(ctx, ev.From), t.now())

	m, err := t.messages.UpdateDeliveryStatus(ctx, update)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			statusUpdatesCounter.WithLabelValues(string(update.Status), "unknown_tracking_id").Inc()
			t.logger.InfoContext(ctx, "Status callback for unknown tracking id", "tracking_id", ev.TrackingID, "provider_status", ev.ProviderStatus)
			return nil, err
		}
		statusUpdatesCounter.WithLabelValues(string(update.Status), "error").Inc()
		t.logger.ErrorContext(ctx, "Failed to apply delivery status", "tracking_id", ev.TrackingID, "error", err)
		return nil, err
	}

	statusUpdatesCounter.WithLabelValues(string(update.Status), "applied").Inc()
	t.logger.InfoContext(ctx, "Applied delivery status",
		"message_id", m.ID,
		"tracking_id", ev.TrackingID,
		"provider_status", ev.ProviderStatus,
		"status", update.Status,
	)

	event := domain.MessageStatusEvent{
		MessageID:  m.ID,
		TrackingID: ev.TrackingID,
		Status:     m.Status,
		ErrorCode:  ev.ErrorCode,
		UpdatedAt:  m.UpdatedAt,
	}
	if m.DeliveredAt.Valid {
		deliveredAt := m.DeliveredAt.Time
		event.DeliveredAt = &deliveredAt
	}
	publishEvent(ctx, t.publisher, t.logger, domain.SubjectMessageStatus, event)
	return m, nil
}

// displayName looks up the sending number's display name. A missing
// configuration is not an error here.
func (t *StatusTracker) displayName(ctx context.Context, from string) string {
	if strings.TrimSpace(from) == "" {
		return ""
	}
	n, err := t.numbers.FindByNumber(ctx, from)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			t.logger.WarnContext(ctx, "Phone number lookup failed for status callback", "from", from, "error", err)
		}
		return ""
	}
	return n.DisplayName
}
