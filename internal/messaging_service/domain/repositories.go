package domain

import (
	"context"

	"github.com/google/uuid"
)

// PatientRepository stores patients.
type PatientRepository interface {
	// UpsertByPhone inserts p unless a patient with the same canonical phone
	// exists, in which case the oldest such patient is returned and created is false.
	UpsertByPhone(ctx context.Context, p *Patient) (patient *Patient, created bool, err error)
	GetByID(ctx context.Context, id uuid.UUID) (*Patient, error)
}

// MessageRepository stores messages.
type MessageRepository interface {
	Create(ctx context.Context, m *Message) error
	GetByID(ctx context.Context, id uuid.UUID) (*Message, error)
	// CreateInbound inserts m unless its tracking id was already stored.
	// inserted is false for a duplicate.
	CreateInbound(ctx context.Context, m *Message) (inserted bool, err error)
	// AttachSendResult records the carrier tracking id and sending number on
	// an outbound message and marks it sent.
	AttachSendResult(ctx context.Context, a SendAttachment) error
	// UpdateDeliveryStatus applies u to the message with u.TrackingID and
	// returns it. ErrMessageNotFound when no message carries that tracking id.
	UpdateDeliveryStatus(ctx context.Context, u StatusUpdate) (*Message, error)
}

// PhoneNumberRepository reads outbound number configuration.
type PhoneNumberRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*PhoneNumber, error)
	ListActive(ctx context.Context) ([]*PhoneNumber, error)
	// FindByNumber matches on canonical phone. Returns ErrPhoneNumberNotFound
	// when nothing matches.
	FindByNumber(ctx context.Context, raw string) (*PhoneNumber, error)
}

// ReplayGuard remembers carrier tracking ids already ingested.
type ReplayGuard interface {
	Seen(ctx context.Context, trackingID string) (bool, error)
	Mark(ctx context.Context, trackingID string) error
}
