package app

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/pharmalink/golang_services/internal/messaging_service/domain"
	"github.com/pharmalink/golang_services/internal/platform/messagebroker"
)

// InboundEvent is a message received by one of our numbers.
type InboundEvent struct {
	From       string
	To         string
	Body       string
	TrackingID string
}

// InboundResult describes what ingestion did. Duplicate is true when the
// tracking id had already been ingested and nothing was written.
type InboundResult struct {
	Message   *domain.Message
	Patient   domain.PatientResolution
	Duplicate bool
}

// AutoResponseScheduler hands an auto-response off for delivery outside the
// ingestion request.
type AutoResponseScheduler interface {
	Schedule(ctx context.Context, req domain.AutoResponseRequest) error
}

// InboundProcessor stores inbound messages against the resolved patient.
type InboundProcessor struct {
	messages    domain.MessageRepository
	numbers     domain.PhoneNumberRepository
	resolver    *PatientResolver
	replayGuard domain.ReplayGuard
	autoReplies AutoResponseScheduler
	publisher   messagebroker.Publisher
	logger      *slog.Logger
}

// NewInboundProcessor wires the processor. replayGuard and autoReplies may be
// nil, disabling replay short-circuiting and auto-responses respectively.
func NewInboundProcessor(
	messages domain.MessageRepository,
	numbers domain.PhoneNumberRepository,
	resolver *PatientResolver,
	replayGuard domain.ReplayGuard,
	autoReplies AutoResponseScheduler,
	publisher messagebroker.Publisher,
	logger *slog.Logger,
) *InboundProcessor {
	return &InboundProcessor{
		messages:    messages,
		numbers:     numbers,
		resolver:    resolver,
		replayGuard: replayGuard,
		autoReplies: autoReplies,
		publisher:   publisher,
		logger:      logger.With("component", "inbound_processor"),
	}
}

func (p *InboundProcessor) Process(ctx context.Context, ev InboundEvent) (*InboundResult, error) {
	timer := prometheus.NewTimer(inboundProcessingDurationHist)
	defer timer.ObserveDuration()

	res, err := p.process(ctx, ev)
	switch {
	case err == nil && res.Duplicate:
		inboundProcessedCounter.WithLabelValues("duplicate").Inc()
	case err == nil:
		inboundProcessedCounter.WithLabelValues("stored").Inc()
	case errors.Is(err, domain.ErrBadRequest):
		inboundProcessedCounter.WithLabelValues("bad_request").Inc()
	default:
		inboundProcessedCounter.WithLabelValues("error").Inc()
	}
	return res, err
}

func (p *InboundProcessor) process(ctx context.Context, ev InboundEvent) (*InboundResult, error) {
	ev.From = strings.TrimSpace(ev.From)
	ev.To = strings.TrimSpace(ev.To)
	ev.TrackingID = strings.TrimSpace(ev.TrackingID)
	switch {
	case ev.From == "":
		return nil, domain.BadRequestf("From is required")
	case ev.To == "":
		return nil, domain.BadRequestf("To is required")
	case strings.TrimSpace(ev.Body) == "":
		return nil, domain.BadRequestf("Body is required")
	}

	if p.replayGuard != nil && ev.TrackingID != "" {
		seen, err := p.replayGuard.Seen(ctx, ev.TrackingID)
		if err != nil {
			p.logger.WarnContext(ctx, "Replay guard unavailable, continuing", "tracking_id", ev.TrackingID, "error", err)
		} else if seen {
			p.logger.InfoContext(ctx, "Inbound message already ingested", "tracking_id", ev.TrackingID)
			return &InboundResult{Duplicate: true}, nil
		}
	}

	number, err := p.numbers.FindByNumber(ctx, ev.To)
	if err != nil {
		number = nil
		if errors.Is(err, domain.ErrNotFound) {
			p.logger.WarnContext(ctx, "Inbound message to unconfigured number", "to", ev.To)
		} else {
			p.logger.ErrorContext(ctx, "Receiving number lookup failed, continuing without it", "to", ev.To, "error", err)
		}
	}

	resolution := p.resolver.Resolve(ctx, ev.From, number)

	msg := domain.NewInboundMessage(ev.From, ev.To, ev.Body, ev.TrackingID, number)
	if resolution.Temporary {
		msg.Metadata[domain.MetaTemporaryPatientID] = resolution.Patient.ID.String()
	} else {
		msg.PatientID = uuid.NullUUID{UUID: resolution.Patient.ID, Valid: true}
	}

	inserted, err := p.messages.CreateInbound(ctx, msg)
	if err != nil {
		p.logger.ErrorContext(ctx, "Failed to store inbound message", "tracking_id", ev.TrackingID, "error", err)
		return nil, err
	}
	p.markSeen(ctx, ev.TrackingID)
	if !inserted {
		return &InboundResult{Patient: resolution, Duplicate: true}, nil
	}

	p.logger.InfoContext(ctx, "Stored inbound message",
		"message_id", msg.ID,
		"patient_id", resolution.Patient.ID,
		"patient_created", resolution.Created,
		"temporary_patient", resolution.Temporary,
		"tracking_id", ev.TrackingID,
	)

	received := domain.MessageReceivedEvent{
		MessageID:        msg.ID,
		PatientID:        resolution.Patient.ID,
		TemporaryPatient: resolution.Temporary,
		PatientCreated:   resolution.Created,
		TrackingID:       ev.TrackingID,
		From:             ev.From,
		To:               ev.To,
		Body:             ev.Body,
		ReceivedAt:       msg.CreatedAt,
	}
	if number != nil {
		received.PhoneNumberID = &number.ID
	}
	publishEvent(ctx, p.publisher, p.logger, domain.SubjectMessageReceived, received)

	p.scheduleAutoResponse(ctx, msg, resolution, number)

	return &InboundResult{Message: msg, Patient: resolution}, nil
}

func (p *InboundProcessor) markSeen(ctx context.Context, trackingID string) {
	if p.replayGuard == nil || trackingID == "" {
		return
	}
	if err := p.replayGuard.Mark(ctx, trackingID); err != nil {
		p.logger.WarnContext(ctx, "Failed to mark tracking id in replay guard", "tracking_id", trackingID, "error", err)
	}
}

func (p *InboundProcessor) scheduleAutoResponse(ctx context.Context, msg *domain.Message, resolution domain.PatientResolution, number *domain.PhoneNumber) {
	if !number.WantsAutoResponse() {
		if number != nil && number.AutoResponseEnabled && !number.IsActive {
			p.logger.InfoContext(ctx, "Skipping auto-response from inactive number", "phone_number_id", number.ID)
		}
		return
	}
	if p.autoReplies == nil {
		p.logger.DebugContext(ctx, "Auto-response configured but no scheduler available", "phone_number_id", number.ID)
		return
	}

	req := domain.AutoResponseRequest{
		InboundMessageID: msg.ID,
		PhoneNumberID:    number.ID,
		To:               msg.FromNumber,
		Body:             number.AutoResponseText,
	}
	if !resolution.Temporary {
		id := resolution.Patient.ID
		req.PatientID = &id
	}

	// Not tied to the webhook request lifetime.
	scheduleCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := p.autoReplies.Schedule(scheduleCtx, req); err != nil {
		autoResponsesCounter.WithLabelValues("schedule_error").Inc()
		p.logger.ErrorContext(ctx, "Failed to schedule auto-response", "message_id", msg.ID, "error", err)
		return
	}
	autoResponsesCounter.WithLabelValues("scheduled").Inc()
}
