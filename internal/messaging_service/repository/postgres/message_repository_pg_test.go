package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pharmalink/golang_services/internal/messaging_service/domain"
)

var messageCols = []string{
	"id", "patient_id", "channel", "direction", "body", "status", "sender_name", "tracking_id",
	"from_number", "to_number", "phone_number_id", "error_code", "metadata", "created_at", "delivered_at", "updated_at",
}

func TestPgMessageRepository_Create(t *testing.T) {
	mockPool, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mockPool.Close()
	repo := NewPgMessageRepository(mockPool, testLogger())

	msg := domain.NewOutboundMessage(uuid.New(), "+13472074064", "Your order is ready", "Front desk")
	args := anyArgs(16)
	args[0] = msg.ID
	args[5] = "queued"
	args[12] = "{}"
	mockPool.ExpectExec(`INSERT INTO messages`).
		WithArgs(args...).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, repo.Create(context.Background(), msg))
	assert.NoError(t, mockPool.ExpectationsWereMet())
}

func TestPgMessageRepository_Create_UnknownPatient(t *testing.T) {
	mockPool, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mockPool.Close()
	repo := NewPgMessageRepository(mockPool, testLogger())

	msg := domain.NewOutboundMessage(uuid.New(), "+13472074064", "Your order is ready", "")
	mockPool.ExpectExec(`INSERT INTO messages`).
		WithArgs(anyArgs(16)...).
		WillReturnError(&pgconn.PgError{Code: "23503", ConstraintName: "messages_patient_id_fkey"})

	err = repo.Create(context.Background(), msg)
	assert.ErrorIs(t, err, domain.ErrPatientNotFound)
	assert.NotErrorIs(t, err, domain.ErrDatastore)
	assert.NoError(t, mockPool.ExpectationsWereMet())
}

func TestPgMessageRepository_CreateInbound(t *testing.T) {
	msg := domain.NewInboundMessage("+13472074064", "+12125550100", "hello", "SM1", nil)

	t.Run("Inserted", func(t *testing.T) {
		mockPool, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mockPool.Close()
		repo := NewPgMessageRepository(mockPool, testLogger())

		mockPool.ExpectExec(`INSERT INTO messages .* ON CONFLICT \(tracking_id\) WHERE tracking_id IS NOT NULL DO NOTHING`).
			WithArgs(anyArgs(16)...).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))

		inserted, err := repo.CreateInbound(context.Background(), msg)
		require.NoError(t, err)
		assert.True(t, inserted)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("DuplicateTrackingID", func(t *testing.T) {
		mockPool, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mockPool.Close()
		repo := NewPgMessageRepository(mockPool, testLogger())

		mockPool.ExpectExec(`INSERT INTO messages`).
			WithArgs(anyArgs(16)...).
			WillReturnResult(pgxmock.NewResult("INSERT", 0))

		inserted, err := repo.CreateInbound(context.Background(), msg)
		require.NoError(t, err)
		assert.False(t, inserted)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})
}

func TestPgMessageRepository_AttachSendResult(t *testing.T) {
	a := domain.SendAttachment{
		MessageID:     uuid.New(),
		TrackingID:    "SM42",
		PhoneNumberID: uuid.New(),
		FromNumber:    "+12125550100",
		ToNumber:      "+13472074064",
		DisplayName:   "Main",
	}

	t.Run("Success", func(t *testing.T) {
		mockPool, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mockPool.Close()
		repo := NewPgMessageRepository(mockPool, testLogger())

		mockPool.ExpectExec(`UPDATE messages\s+SET tracking_id = \$2`).
			WithArgs(a.MessageID, "SM42", a.PhoneNumberID, a.FromNumber, a.ToNumber, "sent",
				`{"phone_number_display_name":"Main"}`, pgxmock.AnyArg()).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		require.NoError(t, repo.AttachSendResult(context.Background(), a))
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("MessageMissing", func(t *testing.T) {
		mockPool, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mockPool.Close()
		repo := NewPgMessageRepository(mockPool, testLogger())

		mockPool.ExpectExec(`UPDATE messages`).
			WithArgs(anyArgs(8)...).
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		err = repo.AttachSendResult(context.Background(), a)
		assert.ErrorIs(t, err, domain.ErrMessageNotFound)
	})

	t.Run("TrackingIDTaken", func(t *testing.T) {
		mockPool, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mockPool.Close()
		repo := NewPgMessageRepository(mockPool, testLogger())

		mockPool.ExpectExec(`UPDATE messages`).
			WithArgs(anyArgs(8)...).
			WillReturnError(&pgconn.PgError{Code: "23505"})

		err = repo.AttachSendResult(context.Background(), a)
		assert.ErrorIs(t, err, domain.ErrDatastore)
	})
}

func TestPgMessageRepository_UpdateDeliveryStatus(t *testing.T) {
	now := time.Date(2024, 2, 1, 12, 0, 0, 0, time.UTC)
	update := domain.BuildStatusUpdate(domain.StatusEvent{TrackingID: "SM77", ProviderStatus: "delivered"}, "Main", now)

	t.Run("Updated", func(t *testing.T) {
		mockPool, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mockPool.Close()
		repo := NewPgMessageRepository(mockPool, testLogger())

		id := uuid.New()
		patientID := uuid.New()
		rows := mockPool.NewRows(messageCols).AddRow(
			id, uuid.NullUUID{UUID: patientID, Valid: true}, "sms", "outbound", "Your order is ready", "delivered", "Front desk",
			sql.NullString{String: "SM77", Valid: true}, "+12125550100", "+13472074064", uuid.NullUUID{}, sql.NullString{},
			[]byte(`{"provider_status":"delivered","phone_number_display_name":"Main"}`),
			now.Add(-time.Minute), sql.NullTime{Time: now, Valid: true}, now,
		)
		mockPool.ExpectQuery(`UPDATE messages\s+SET status = \$2,\s+delivered_at = CASE WHEN \$3::timestamptz IS NULL THEN NULL ELSE COALESCE\(delivered_at, \$3::timestamptz\) END,.*WHERE tracking_id = \$1 AND direction = 'outbound'\s+RETURNING`).
			WithArgs("SM77", "delivered", update.DeliveredAt, update.ErrorCode, pgxmock.AnyArg(), pgxmock.AnyArg()).
			WillReturnRows(rows)

		got, err := repo.UpdateDeliveryStatus(context.Background(), update)
		require.NoError(t, err)
		assert.Equal(t, id, got.ID)
		assert.Equal(t, domain.MessageStatusDelivered, got.Status)
		assert.Equal(t, domain.DirectionOutbound, got.Direction)
		assert.True(t, got.DeliveredAt.Valid)
		assert.Equal(t, "Main", got.Metadata[domain.MetaPhoneNumberDisplayName])
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("UnknownTrackingID", func(t *testing.T) {
		mockPool, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mockPool.Close()
		repo := NewPgMessageRepository(mockPool, testLogger())

		mockPool.ExpectQuery(`UPDATE messages`).
			WithArgs(anyArgs(6)...).
			WillReturnError(pgx.ErrNoRows)

		got, err := repo.UpdateDeliveryStatus(context.Background(), update)
		assert.Nil(t, got)
		assert.ErrorIs(t, err, domain.ErrMessageNotFound)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("InboundTrackingIDIsNotFound", func(t *testing.T) {
		mockPool, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mockPool.Close()
		repo := NewPgMessageRepository(mockPool, testLogger())

		inbound := domain.BuildStatusUpdate(domain.StatusEvent{TrackingID: "SMinbound", ProviderStatus: "failed"}, "", now)
		mockPool.ExpectQuery(`WHERE tracking_id = \$1 AND direction = 'outbound'`).
			WithArgs("SMinbound", "failed", pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
			WillReturnError(pgx.ErrNoRows)

		got, err := repo.UpdateDeliveryStatus(context.Background(), inbound)
		assert.Nil(t, got)
		assert.ErrorIs(t, err, domain.ErrMessageNotFound)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("DatabaseFailure", func(t *testing.T) {
		mockPool, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mockPool.Close()
		repo := NewPgMessageRepository(mockPool, testLogger())

		mockPool.ExpectQuery(`UPDATE messages`).
			WithArgs(anyArgs(6)...).
			WillReturnError(errors.New("deadlock detected"))

		_, err = repo.UpdateDeliveryStatus(context.Background(), update)
		assert.ErrorIs(t, err, domain.ErrDatastore)
	})
}

func TestPgMessageRepository_GetByID_NotFound(t *testing.T) {
	mockPool, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mockPool.Close()
	repo := NewPgMessageRepository(mockPool, testLogger())

	id := uuid.New()
	mockPool.ExpectQuery(`SELECT (.+) FROM messages WHERE id = \$1`).
		WithArgs(id).
		WillReturnError(pgx.ErrNoRows)

	_, err = repo.GetByID(context.Background(), id)
	assert.ErrorIs(t, err, domain.ErrMessageNotFound)
	assert.NoError(t, mockPool.ExpectationsWereMet())
}
