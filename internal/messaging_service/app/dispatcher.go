package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/pharmalink/golang_services/internal/messaging_service/domain"
	"github.com/pharmalink/golang_services/internal/messaging_service/provider"
	"github.com/pharmalink/golang_services/internal/platform/messagebroker"
)

// CarrierCredentials are the account used when a number has none of its own.
type CarrierCredentials struct {
	AccountSID string
	AuthToken  string
}

// SendRequest is one outbound send. MessageID correlates the send with an
// existing outbound message; otherwise a message row is created when
// PatientID is set.
type SendRequest struct {
	To            string
	Body          string
	PatientID     *uuid.UUID
	PhoneNumberID *uuid.UUID
	MessageID     *uuid.UUID
	SenderName    string
}

// SendResult describes an accepted send. MessageID is nil when the send was
// not persisted.
type SendResult struct {
	TrackingID             string
	Status                 domain.MessageStatus
	ProviderStatus         string
	MessageID              *uuid.UUID
	PhoneNumberID          uuid.UUID
	PhoneNumberUsed        string
	PhoneNumberDisplayName string
}

// Dispatcher sends messages through the carrier and records the tracking id
// on the message it was told about.
type Dispatcher struct {
	selector       *NumberSelector
	patients       domain.PatientRepository
	messages       domain.MessageRepository
	sender         provider.Sender
	publisher      messagebroker.Publisher
	defaults       CarrierCredentials
	statusCallback string
	logger         *slog.Logger
}

func NewDispatcher(
	selector *NumberSelector,
	patients domain.PatientRepository,
	messages domain.MessageRepository,
	sender provider.Sender,
	publisher messagebroker.Publisher,
	defaults CarrierCredentials,
	statusCallback string,
	logger *slog.Logger,
) *Dispatcher {
	return &Dispatcher{
		selector:       selector,
		patients:       patients,
		messages:       messages,
		sender:         sender,
		publisher:      publisher,
		defaults:       defaults,
		statusCallback: statusCallback,
		logger:         logger.With("component", "dispatcher"),
	}
}

func (d *Dispatcher) Send(ctx context.Context, req SendRequest) (*SendResult, error) {
	timer := prometheus.NewTimer(sendDurationHist)
	defer timer.ObserveDuration()

	res, err := d.send(ctx, req)
	messagesSentCounter.WithLabelValues(sendOutcome(err)).Inc()
	return res, err
}

func (d *Dispatcher) send(ctx context.Context, req SendRequest) (*SendResult, error) {
	req.To = strings.TrimSpace(req.To)
	if req.To == "" {
		return nil, domain.BadRequestf("to is required")
	}
	if strings.TrimSpace(req.Body) == "" {
		return nil, domain.BadRequestf("message is required")
	}

	number, err := d.selector.Select(ctx, req.PhoneNumberID)
	if err != nil {
		d.logger.WarnContext(ctx, "Could not select outbound number", "error", err)
		return nil, err
	}

	creds := CarrierCredentials{AccountSID: number.AccountSID, AuthToken: number.AuthToken}
	if !number.HasCredentials() {
		creds = d.defaults
	}
	if creds.AccountSID == "" || creds.AuthToken == "" {
		d.logger.ErrorContext(ctx, "No carrier credentials for outbound number", "phone_number_id", number.ID)
		return nil, domain.ErrMissingCredentials
	}

	messageID, err := d.correlate(ctx, req, number)
	if err != nil {
		return nil, err
	}

	callback := number.CallbackURL
	if callback == "" {
		callback = d.statusCallback
	}
	internalID := ""
	if messageID != nil {
		internalID = messageID.String()
	}

	resp, err := d.sender.Send(ctx, provider.SendRequest{
		AccountSID:        creds.AccountSID,
		AuthToken:         creds.AuthToken,
		From:              number.Number,
		To:                req.To,
		Body:              req.Body,
		StatusCallback:    callback,
		InternalMessageID: internalID,
	})
	if err != nil {
		var perr *domain.ProviderError
		if !errors.As(err, &perr) {
			err = &domain.ProviderError{Message: err.Error(), Err: err}
		}
		return nil, err
	}

	if messageID != nil {
		err := d.messages.AttachSendResult(ctx, domain.SendAttachment{
			MessageID:     *messageID,
			TrackingID:    resp.TrackingID,
			PhoneNumberID: number.ID,
			FromNumber:    number.Number,
			ToNumber:      req.To,
			DisplayName:   number.DisplayName,
		})
		if err != nil {
			d.logger.ErrorContext(ctx, "Carrier accepted message but recording the tracking id failed",
				"error", err,
				"message_id", messageID,
				"tracking_id", resp.TrackingID,
			)
			return nil, err
		}
	} else {
		d.logger.InfoContext(ctx, "Send not linked to a message record", "tracking_id", resp.TrackingID)
	}

	publishEvent(ctx, d.publisher, d.logger, domain.SubjectMessageSent, domain.MessageSentEvent{
		MessageID:     messageID,
		PatientID:     req.PatientID,
		TrackingID:    resp.TrackingID,
		PhoneNumberID: number.ID,
		From:          number.Number,
		To:            req.To,
		SentAt:        time.Now().UTC(),
	})

	return &SendResult{
		TrackingID:             resp.TrackingID,
		Status:                 domain.MessageStatusSent,
		ProviderStatus:         resp.Status,
		MessageID:              messageID,
		PhoneNumberID:          number.ID,
		PhoneNumberUsed:        number.Number,
		PhoneNumberDisplayName: number.DisplayName,
	}, nil
}

// correlate returns the id of the message this send belongs to, creating a
// queued outbound message when only a patient is given. The patient must
// exist; an unknown one is ErrPatientNotFound rather than a failed insert.
func (d *Dispatcher) correlate(ctx context.Context, req SendRequest, number *domain.PhoneNumber) (*uuid.UUID, error) {
	if req.MessageID != nil {
		m, err := d.messages.GetByID(ctx, *req.MessageID)
		if err != nil {
			return nil, err
		}
		if m.Direction != domain.DirectionOutbound {
			return nil, fmt.Errorf("outbound %w: %s", domain.ErrMessageNotFound, m.ID)
		}
		return &m.ID, nil
	}
	if req.PatientID == nil {
		return nil, nil
	}
	if _, err := d.patients.GetByID(ctx, *req.PatientID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			d.logger.WarnContext(ctx, "Send references unknown patient", "patient_id", *req.PatientID)
		}
		return nil, err
	}

	m := domain.NewOutboundMessage(*req.PatientID, req.To, req.Body, req.SenderName)
	m.PhoneNumberID = uuid.NullUUID{UUID: number.ID, Valid: true}
	m.FromNumber = number.Number
	if err := d.messages.Create(ctx, m); err != nil {
		return nil, err
	}
	return &m.ID, nil
}

func sendOutcome(err error) string {
	var perr *domain.ProviderError
	switch {
	case err == nil:
		return "sent"
	case errors.Is(err, domain.ErrNoActiveNumbers):
		return "no_number"
	case errors.Is(err, domain.ErrBadRequest), errors.Is(err, domain.ErrNotFound):
		return "bad_request"
	case errors.Is(err, domain.ErrConfiguration):
		return "config_error"
	case errors.As(err, &perr):
		return "provider_error"
	default:
		return "datastore_error"
	}
}
