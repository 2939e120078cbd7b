package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/pharmalink/golang_services/internal/messaging_service/domain"
)

// PatientResolver maps an inbound sender phone to a patient, creating the
// patient on first contact.
type PatientResolver struct {
	patients domain.PatientRepository
	logger   *slog.Logger
}

func NewPatientResolver(patients domain.PatientRepository, logger *slog.Logger) *PatientResolver {
	return &PatientResolver{
		patients: patients,
		logger:   logger.With("component", "patient_resolver"),
	}
}

// Resolve never fails: when the store cannot match or create a patient, a
// temporary identity is returned so ingestion can still complete.
func (r *PatientResolver) Resolve(ctx context.Context, rawPhone string, receivingNumber *domain.PhoneNumber) domain.PatientResolution {
	normalized := domain.NormalizePhone(rawPhone)
	if normalized == "" {
		r.logger.WarnContext(ctx, "Sender phone has no digits, using temporary identity", "from", rawPhone)
		return r.temporary(rawPhone)
	}

	candidate := domain.NewInboundPatient(rawPhone, receivingNumber)
	patient, created, err := r.patients.UpsertByPhone(ctx, candidate)
	if err != nil {
		r.logger.ErrorContext(ctx, "Patient lookup or creation failed, using temporary identity",
			"error", err,
			"normalized_phone", normalized,
		)
		return r.temporary(rawPhone)
	}

	if created {
		patientResolutionsCounter.WithLabelValues("created").Inc()
		r.logger.InfoContext(ctx, "Created patient for new sender", "patient_id", patient.ID, "normalized_phone", normalized)
	} else {
		patientResolutionsCounter.WithLabelValues("matched").Inc()
	}
	return domain.PatientResolution{Patient: patient, Created: created}
}

func (r *PatientResolver) temporary(rawPhone string) domain.PatientResolution {
	patientResolutionsCounter.WithLabelValues("temporary").Inc()
	now := time.Now().UTC()
	return domain.PatientResolution{
		Patient: &domain.Patient{
			ID:               uuid.New(),
			Name:             domain.SynthesizedPatientName(rawPhone),
			PreferredChannel: domain.ChannelSMS,
			Status:           domain.PatientStatusActive,
			CreatedAt:        now,
			UpdatedAt:        now,
		},
		Temporary: true,
	}
}
