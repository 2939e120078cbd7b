package domain

import (
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"
)

// PatientStatus is the lifecycle status of a patient record.
type PatientStatus string

const (
	PatientStatusActive   PatientStatus = "active"
	PatientStatusInactive PatientStatus = "inactive"
)

// Patient is the identity record staff communicate with.
type Patient struct {
	ID                    uuid.UUID      `json:"id"`
	Name                  string         `json:"name"`
	Phone                 sql.NullString `json:"phone"` // canonical form, see NormalizePhone
	Email                 sql.NullString `json:"email"`
	PreferredChannel      Channel        `json:"preferred_channel"`
	Status                PatientStatus  `json:"status"`
	Notes                 string         `json:"notes,omitempty"`
	AssignedPhoneNumberID uuid.NullUUID  `json:"assigned_phone_number_id"`
	CreatedAt             time.Time      `json:"created_at"`
	UpdatedAt             time.Time      `json:"updated_at"`
}

// NewInboundPatient builds the record provisioned on first contact from an
// unknown sender. assignedNumber may be nil when the receiving number is not
// configured.
func NewInboundPatient(rawPhone string, assignedNumber *PhoneNumber) *Patient {
	now := time.Now().UTC()
	p := &Patient{
		ID:               uuid.New(),
		Name:             SynthesizedPatientName(rawPhone),
		PreferredChannel: ChannelSMS,
		Status:           PatientStatusActive,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if normalized := NormalizePhone(rawPhone); normalized != "" {
		p.Phone = sql.NullString{String: normalized, Valid: true}
	}
	if assignedNumber != nil {
		p.AssignedPhoneNumberID = uuid.NullUUID{UUID: assignedNumber.ID, Valid: true}
	}
	return p
}

// SynthesizedPatientName is the display name given to auto-created patients.
func SynthesizedPatientName(rawPhone string) string {
	return "SMS " + strings.TrimSpace(rawPhone)
}

// PatientResolution is the outcome of matching an inbound sender.
type PatientResolution struct {
	Patient *Patient
	// Created is true when this resolution inserted the patient row.
	Created bool
	// Temporary is true when no patient row could be matched or created and
	// Patient carries a locally generated identity only.
	Temporary bool
}
