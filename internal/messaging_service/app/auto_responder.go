package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/pharmalink/golang_services/internal/messaging_service/domain"
	"github.com/pharmalink/golang_services/internal/platform/messagebroker"
)

// NATSAutoResponseScheduler publishes auto-response requests for the
// AutoResponder to pick up.
type NATSAutoResponseScheduler struct {
	publisher messagebroker.Publisher
}

func NewNATSAutoResponseScheduler(publisher messagebroker.Publisher) *NATSAutoResponseScheduler {
	return &NATSAutoResponseScheduler{publisher: publisher}
}

func (s *NATSAutoResponseScheduler) Schedule(ctx context.Context, req domain.AutoResponseRequest) error {
	data, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshalling auto-response request: %w", err)
	}
	return s.publisher.Publish(ctx, domain.SubjectAutoResponseRequested, data)
}

// MessageSender is the dispatcher contract the auto-responder needs.
type MessageSender interface {
	Send(ctx context.Context, req SendRequest) (*SendResult, error)
}

// QueueSubscriber blocks delivering subject messages to handler until ctx is done.
type QueueSubscriber interface {
	QueueSubscribe(ctx context.Context, subject, queueGroup string, handler func(msg *nats.Msg)) error
}

// AutoResponder consumes auto-response requests and sends each as its own
// outbound message. Failed sends are logged and not retried.
type AutoResponder struct {
	subscriber QueueSubscriber
	sender     MessageSender
	queueGroup string
	timeout    time.Duration
	logger     *slog.Logger
}

func NewAutoResponder(subscriber QueueSubscriber, sender MessageSender, queueGroup string, logger *slog.Logger) *AutoResponder {
	return &AutoResponder{
		subscriber: subscriber,
		sender:     sender,
		queueGroup: queueGroup,
		timeout:    30 * time.Second,
		logger:     logger.With("component", "auto_responder"),
	}
}

// Run consumes until ctx is cancelled.
func (a *AutoResponder) Run(ctx context.Context) error {
	a.logger.Info("Starting auto-responder", "subject", domain.SubjectAutoResponseRequested, "queue_group", a.queueGroup)
	return a.subscriber.QueueSubscribe(ctx, domain.SubjectAutoResponseRequested, a.queueGroup, func(msg *nats.Msg) {
		msgCtx, cancel := context.WithTimeout(ctx, a.timeout)
		defer cancel()
		if err := a.Handle(msgCtx, msg.Data); err != nil {
			a.logger.ErrorContext(msgCtx, "Auto-response failed", "error", err)
		}
	})
}

// Handle delivers one encoded domain.AutoResponseRequest.
func (a *AutoResponder) Handle(ctx context.Context, data []byte) error {
	var req domain.AutoResponseRequest
	if err := json.Unmarshal(data, &req); err != nil {
		autoResponsesCounter.WithLabelValues("invalid_payload").Inc()
		return fmt.Errorf("decoding auto-response request: %w", err)
	}

	numberID := req.PhoneNumberID
	res, err := a.sender.Send(ctx, SendRequest{
		To:            req.To,
		Body:          req.Body,
		PatientID:     req.PatientID,
		PhoneNumberID: &numberID,
		SenderName:    "Auto-response",
	})
	if err != nil {
		autoResponsesCounter.WithLabelValues("send_error").Inc()
		return fmt.Errorf("sending auto-response for message %s: %w", req.InboundMessageID, err)
	}

	autoResponsesCounter.WithLabelValues("sent").Inc()
	a.logger.InfoContext(ctx, "Sent auto-response",
		"inbound_message_id", req.InboundMessageID,
		"tracking_id", res.TrackingID,
	)
	return nil
}
