package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/pharmalink/golang_services/internal/messaging_service/domain"
	"github.com/pharmalink/golang_services/internal/platform/database"
)

const messageColumns = `id, patient_id, channel, direction, body, status, sender_name, tracking_id,
	from_number, to_number, phone_number_id, error_code, metadata, created_at, delivered_at, updated_at`

// messagePatientFK is PostgreSQL's default name for the messages.patient_id reference.
const messagePatientFK = "messages_patient_id_fkey"

const insertMessage = `
	INSERT INTO messages (` + messageColumns + `)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`

type PgMessageRepository struct {
	db     database.Querier
	logger *slog.Logger
}

// NewPgMessageRepository creates a PostgreSQL MessageRepository.
func NewPgMessageRepository(db database.Querier, logger *slog.Logger) *PgMessageRepository {
	return &PgMessageRepository{
		db:     db,
		logger: logger.With("repository", "messages"),
	}
}

func (r *PgMessageRepository) insertArgs(m *domain.Message) ([]any, error) {
	meta, err := m.MetadataJSON()
	if err != nil {
		return nil, fmt.Errorf("encoding message metadata: %w", err)
	}
	return []any{
		m.ID, m.PatientID, string(m.Channel), string(m.Direction), m.Body, string(m.Status), m.SenderName, m.TrackingID,
		m.FromNumber, m.ToNumber, m.PhoneNumberID, m.ErrorCode, string(meta), m.CreatedAt, m.DeliveredAt, m.UpdatedAt,
	}, nil
}

func (r *PgMessageRepository) Create(ctx context.Context, m *domain.Message) error {
	args, err := r.insertArgs(m)
	if err != nil {
		return err
	}
	if _, err := r.db.Exec(ctx, insertMessage, args...); err != nil {
		// The patient can be removed between the caller's lookup and this insert.
		if database.IsForeignKeyViolation(err, messagePatientFK) {
			return domain.ErrPatientNotFound
		}
		return domain.DatastoreError("insert message", err)
	}
	return nil
}

// CreateInbound skips the insert when the carrier redelivers a tracking id
// that is already stored.
func (r *PgMessageRepository) CreateInbound(ctx context.Context, m *domain.Message) (bool, error) {
	args, err := r.insertArgs(m)
	if err != nil {
		return false, err
	}
	query := insertMessage + `
	ON CONFLICT (tracking_id) WHERE tracking_id IS NOT NULL DO NOTHING`
	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return false, domain.DatastoreError("insert inbound message", err)
	}
	if tag.RowsAffected() == 0 {
		r.logger.InfoContext(ctx, "Inbound message already stored", "tracking_id", m.TrackingID.String)
		return false, nil
	}
	return true, nil
}

func (r *PgMessageRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Message, error) {
	query := `SELECT ` + messageColumns + ` FROM messages WHERE id = $1`
	m, err := scanMessage(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrMessageNotFound
		}
		return nil, domain.DatastoreError("select message", err)
	}
	return m, nil
}

func (r *PgMessageRepository) AttachSendResult(ctx context.Context, a domain.SendAttachment) error {
	meta, err := json.Marshal(map[string]string{domain.MetaPhoneNumberDisplayName: a.DisplayName})
	if err != nil {
		return fmt.Errorf("encoding message metadata: %w", err)
	}
	query := `
		UPDATE messages
		SET tracking_id = $2, phone_number_id = $3, from_number = $4, to_number = $5, status = $6,
		    metadata = COALESCE(metadata, '{}'::jsonb) || $7::jsonb, updated_at = $8
		WHERE id = $1
	`
	tag, err := r.db.Exec(ctx, query,
		a.MessageID, a.TrackingID, a.PhoneNumberID, a.FromNumber, a.ToNumber,
		string(domain.MessageStatusSent), string(meta), time.Now().UTC(),
	)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return domain.DatastoreError("attach send result", fmt.Errorf("tracking id %s already assigned: %w", a.TrackingID, err))
		}
		return domain.DatastoreError("attach send result", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrMessageNotFound
	}
	return nil
}

// UpdateDeliveryStatus matches outbound messages by tracking id. Inbound rows
// are never touched, so a callback carrying an inbound sid is not found.
// Metadata keys are merged into the stored object so earlier keys survive. A
// repeated delivered event keeps the first delivery time.
func (r *PgMessageRepository) UpdateDeliveryStatus(ctx context.Context, u domain.StatusUpdate) (*domain.Message, error) {
	meta, err := json.Marshal(u.Metadata)
	if err != nil {
		return nil, fmt.Errorf("encoding status metadata: %w", err)
	}
	query := `
		UPDATE messages
		SET status = $2,
		    delivered_at = CASE WHEN $3::timestamptz IS NULL THEN NULL ELSE COALESCE(delivered_at, $3::timestamptz) END,
		    error_code = $4,
		    metadata = COALESCE(metadata, '{}'::jsonb) || $5::jsonb, updated_at = $6
		WHERE tracking_id = $1 AND direction = 'outbound'
		RETURNING ` + messageColumns
	m, err := scanMessage(r.db.QueryRow(ctx, query,
		u.TrackingID, string(u.Status), u.DeliveredAt, u.ErrorCode, string(meta), time.Now().UTC(),
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrMessageNotFound
		}
		return nil, domain.DatastoreError("update delivery status", err)
	}
	return m, nil
}

func scanMessage(row pgx.Row) (*domain.Message, error) {
	var (
		m         domain.Message
		channel   string
		direction string
		status    string
		meta      []byte
	)
	err := row.Scan(
		&m.ID, &m.PatientID, &channel, &direction, &m.Body, &status, &m.SenderName, &m.TrackingID,
		&m.FromNumber, &m.ToNumber, &m.PhoneNumberID, &m.ErrorCode, &meta, &m.CreatedAt, &m.DeliveredAt, &m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	m.Channel = domain.Channel(channel)
	m.Direction = domain.Direction(direction)
	m.Status = domain.MessageStatus(status)
	m.Metadata = map[string]string{}
	if len(meta) > 0 {
		if err := json.Unmarshal(meta, &m.Metadata); err != nil {
			return nil, fmt.Errorf("decoding message metadata: %w", err)
		}
	}
	return &m, nil
}
