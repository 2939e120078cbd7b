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

const patientColumns = `id, name, phone, email, preferred_channel, status, notes, assigned_phone_number_id, created_at, updated_at`

type PgPatientRepository struct {
	db     database.Querier
	logger *slog.Logger
}

// NewPgPatientRepository creates a PostgreSQL PatientRepository.
func NewPgPatientRepository(db database.Querier, logger *slog.Logger) *PgPatientRepository {
	return &PgPatientRepository{
		db:     db,
		logger: logger.With("repository", "patients"),
	}
}

// UpsertByPhone relies on the partial unique index over patients.phone: the
// insert is skipped when the canonical phone is already taken, and the oldest
// matching patient is read back instead.
func (r *PgPatientRepository) UpsertByPhone(ctx context.Context, p *domain.Patient) (*domain.Patient, bool, error) {
	query := `
		INSERT INTO patients (` + patientColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (phone) WHERE phone IS NOT NULL DO NOTHING
		RETURNING id
	`
	var insertedID uuid.UUID
	err := r.db.QueryRow(ctx, query,
		p.ID, p.Name, p.Phone, p.Email, string(p.PreferredChannel), string(p.Status), p.Notes,
		p.AssignedPhoneNumberID, p.CreatedAt, p.UpdatedAt,
	).Scan(&insertedID)
	if err == nil {
		r.logger.InfoContext(ctx, "Created patient", "patient_id", insertedID)
		return p, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, false, domain.DatastoreError("insert patient", err)
	}

	existing, err := r.getOldestByPhone(ctx, p.Phone.String)
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

func (r *PgPatientRepository) getOldestByPhone(ctx context.Context, phone string) (*domain.Patient, error) {
	query := `SELECT ` + patientColumns + ` FROM patients WHERE phone = $1 ORDER BY created_at ASC LIMIT 1`
	p, err := scanPatient(r.db.QueryRow(ctx, query, phone))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrPatientNotFound
		}
		return nil, domain.DatastoreError("select patient by phone", err)
	}
	return p, nil
}

func (r *PgPatientRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Patient, error) {
	query := `SELECT ` + patientColumns + ` FROM patients WHERE id = $1`
	p, err := scanPatient(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrPatientNotFound
		}
		return nil, domain.DatastoreError("select patient", err)
	}
	return p, nil
}

func scanPatient(row pgx.Row) (*domain.Patient, error) {
	var (
		p       domain.Patient
		channel string
		status  string
	)
	err := row.Scan(
		&p.ID, &p.Name, &p.Phone, &p.Email, &channel, &status, &p.Notes,
		&p.AssignedPhoneNumberID, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	p.PreferredChannel = domain.Channel(channel)
	p.Status = domain.PatientStatus(status)
	return &p, nil
}
