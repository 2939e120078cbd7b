package postgres

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/pharmalink/golang_services/internal/messaging_service/domain"
	"github.com/pharmalink/golang_services/internal/platform/database"
)

const phoneNumberColumns = `id, number, channel, COALESCE(account_sid, ''), COALESCE(auth_token, ''), is_active, is_primary,
	display_name, COALESCE(callback_url, ''), auto_response_enabled, COALESCE(auto_response_text, ''), created_at`

type PgPhoneNumberRepository struct {
	db     database.Querier
	logger *slog.Logger
}

// NewPgPhoneNumberRepository creates a PostgreSQL PhoneNumberRepository.
func NewPgPhoneNumberRepository(db database.Querier, logger *slog.Logger) *PgPhoneNumberRepository {
	return &PgPhoneNumberRepository{
		db:     db,
		logger: logger.With("repository", "phone_numbers"),
	}
}

func (r *PgPhoneNumberRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.PhoneNumber, error) {
	query := `SELECT ` + phoneNumberColumns + ` FROM phone_numbers WHERE id = $1`
	n, err := scanPhoneNumber(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrPhoneNumberNotFound
		}
		return nil, domain.DatastoreError("select phone number", err)
	}
	return n, nil
}

// ListActive returns active numbers ordered primary first, then oldest.
func (r *PgPhoneNumberRepository) ListActive(ctx context.Context) ([]*domain.PhoneNumber, error) {
	query := `SELECT ` + phoneNumberColumns + ` FROM phone_numbers WHERE is_active ORDER BY is_primary DESC, created_at ASC`
	return r.list(ctx, query)
}

// FindByNumber compares canonical forms in Go; stored numbers may carry any
// formatting.
func (r *PgPhoneNumberRepository) FindByNumber(ctx context.Context, raw string) (*domain.PhoneNumber, error) {
	numbers, err := r.list(ctx, `SELECT `+phoneNumberColumns+` FROM phone_numbers ORDER BY created_at ASC`)
	if err != nil {
		return nil, err
	}
	if n := domain.FindByNumber(numbers, raw); n != nil {
		return n, nil
	}
	r.logger.DebugContext(ctx, "No phone number configuration matches", "number", raw)
	return nil, domain.ErrPhoneNumberNotFound
}

func (r *PgPhoneNumberRepository) list(ctx context.Context, query string) ([]*domain.PhoneNumber, error) {
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, domain.DatastoreError("list phone numbers", err)
	}
	defer rows.Close()

	var numbers []*domain.PhoneNumber
	for rows.Next() {
		n, err := scanPhoneNumber(rows)
		if err != nil {
			return nil, domain.DatastoreError("scan phone number", err)
		}
		numbers = append(numbers, n)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.DatastoreError("list phone numbers", err)
	}
	return numbers, nil
}

func scanPhoneNumber(row pgx.Row) (*domain.PhoneNumber, error) {
	var (
		n       domain.PhoneNumber
		channel string
	)
	err := row.Scan(
		&n.ID, &n.Number, &channel, &n.AccountSID, &n.AuthToken, &n.IsActive, &n.IsPrimary,
		&n.DisplayName, &n.CallbackURL, &n.AutoResponseEnabled, &n.AutoResponseText, &n.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	n.Channel = domain.Channel(channel)
	return &n, nil
}
