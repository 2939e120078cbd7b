package domain

import (
	"time"

	"github.com/google/uuid"
)

// NATS subjects for events this service emits and consumes.
const (
	SubjectMessageSent           = "sms.message.sent"
	SubjectMessageStatus         = "sms.message.status"
	SubjectMessageReceived       = "sms.message.received"
	SubjectAutoResponseRequested = "sms.autoresponse.requested"
)

// MessageSentEvent is published once the carrier accepted an outbound message.
type MessageSentEvent struct {
	MessageID     *uuid.UUID `json:"message_id,omitempty"`
	PatientID     *uuid.UUID `json:"patient_id,omitempty"`
	TrackingID    string     `json:"tracking_id"`
	PhoneNumberID uuid.UUID  `json:"phone_number_id"`
	From          string     `json:"from"`
	To            string     `json:"to"`
	SentAt        time.Time  `json:"sent_at"`
}

// MessageStatusEvent is published after a delivery status was applied.
type MessageStatusEvent struct {
	MessageID   uuid.UUID     `json:"message_id"`
	TrackingID  string        `json:"tracking_id"`
	Status      MessageStatus `json:"status"`
	ErrorCode   string        `json:"error_code,omitempty"`
	DeliveredAt *time.Time    `json:"delivered_at,omitempty"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// MessageReceivedEvent is published for every newly stored inbound message.
type MessageReceivedEvent struct {
	MessageID        uuid.UUID  `json:"message_id"`
	PatientID        uuid.UUID  `json:"patient_id"`
	TemporaryPatient bool       `json:"temporary_patient"`
	PatientCreated   bool       `json:"patient_created"`
	PhoneNumberID    *uuid.UUID `json:"phone_number_id,omitempty"`
	TrackingID       string     `json:"tracking_id,omitempty"`
	From             string     `json:"from"`
	To               string     `json:"to"`
	Body             string     `json:"body"`
	ReceivedAt       time.Time  `json:"received_at"`
}

// AutoResponseRequest asks the auto-responder to answer an inbound message.
type AutoResponseRequest struct {
	InboundMessageID uuid.UUID  `json:"inbound_message_id"`
	PatientID        *uuid.UUID `json:"patient_id,omitempty"`
	PhoneNumberID    uuid.UUID  `json:"phone_number_id"`
	To               string     `json:"to"`
	Body             string     `json:"body"`
}
