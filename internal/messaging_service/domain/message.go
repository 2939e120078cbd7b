package domain

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Channel is a communication medium.
type Channel string

const (
	ChannelSMS   Channel = "sms"
	ChannelEmail Channel = "email"
)

// Direction of a message relative to the pharmacy.
type Direction string

const (
	DirectionInbound  Direction = "inbound"
	DirectionOutbound Direction = "outbound"
)

// MessageStatus is the lifecycle status of a message. Values outside the
// constants below are carrier statuses passed through lower-cased.
type MessageStatus string

const (
	MessageStatusQueued    MessageStatus = "queued"
	MessageStatusSending   MessageStatus = "sending"
	MessageStatusSent      MessageStatus = "sent"
	MessageStatusDelivered MessageStatus = "delivered"
	MessageStatusFailed    MessageStatus = "failed"
	MessageStatusReceived  MessageStatus = "received"
)

// Metadata keys written onto Message.Metadata.
const (
	MetaProviderStatus         = "provider_status"
	MetaErrorCode              = "error_code"
	MetaErrorMessage           = "error_message"
	MetaPhoneNumberDisplayName = "phone_number_display_name"
	MetaTemporaryPatientID     = "temporary_patient_id"
)

// Message is a single directional communication with a patient.
type Message struct {
	ID            uuid.UUID         `json:"id"`
	PatientID     uuid.NullUUID     `json:"patient_id"`
	Channel       Channel           `json:"channel"`
	Direction     Direction         `json:"direction"`
	Body          string            `json:"body"`
	Status        MessageStatus     `json:"status"`
	SenderName    string            `json:"sender_name,omitempty"`
	TrackingID    sql.NullString    `json:"tracking_id"` // carrier message id
	FromNumber    string            `json:"from_number,omitempty"`
	ToNumber      string            `json:"to_number,omitempty"`
	PhoneNumberID uuid.NullUUID     `json:"phone_number_id"`
	ErrorCode     sql.NullString    `json:"error_code"`
	Metadata      map[string]string `json:"metadata,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
	DeliveredAt   sql.NullTime      `json:"delivered_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

// NewOutboundMessage creates a queued outbound message for a patient.
func NewOutboundMessage(patientID uuid.UUID, to, body, senderName string) *Message {
	now := time.Now().UTC()
	return &Message{
		ID:         uuid.New(),
		PatientID:  uuid.NullUUID{UUID: patientID, Valid: true},
		Channel:    ChannelSMS,
		Direction:  DirectionOutbound,
		Body:       body,
		Status:     MessageStatusQueued,
		SenderName: senderName,
		ToNumber:   to,
		Metadata:   map[string]string{},
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// NewInboundMessage creates a received message. number may be nil when the
// receiving number is not configured.
func NewInboundMessage(from, to, body, trackingID string, number *PhoneNumber) *Message {
	now := time.Now().UTC()
	m := &Message{
		ID:         uuid.New(),
		Channel:    number.ChannelOrDefault(),
		Direction:  DirectionInbound,
		Body:       body,
		Status:     MessageStatusReceived,
		SenderName: from,
		FromNumber: from,
		ToNumber:   to,
		Metadata:   map[string]string{},
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if trackingID != "" {
		m.TrackingID = sql.NullString{String: trackingID, Valid: true}
	}
	if number != nil {
		m.PhoneNumberID = uuid.NullUUID{UUID: number.ID, Valid: true}
		m.Metadata[MetaPhoneNumberDisplayName] = number.DisplayName
	}
	return m
}

// MetadataJSON encodes Metadata for a jsonb column.
func (m *Message) MetadataJSON() ([]byte, error) {
	if m.Metadata == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(m.Metadata)
}

// SendAttachment is what the dispatcher records on a message after the
// carrier accepted it.
type SendAttachment struct {
	MessageID     uuid.UUID
	TrackingID    string
	PhoneNumberID uuid.UUID
	FromNumber    string
	ToNumber      string
	DisplayName   string
}

// StatusUpdate is the persisted effect of a delivery status callback.
type StatusUpdate struct {
	TrackingID  string
	Status      MessageStatus
	DeliveredAt sql.NullTime
	ErrorCode   sql.NullString
	Metadata    map[string]string
}
