package app

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/pharmalink/golang_services/internal/messaging_service/domain"
)

// NumberSelector chooses the outbound number for a send. It reads the
// repository on every call.
type NumberSelector struct {
	numbers domain.PhoneNumberRepository
	logger  *slog.Logger
}

func NewNumberSelector(numbers domain.PhoneNumberRepository, logger *slog.Logger) *NumberSelector {
	return &NumberSelector{
		numbers: numbers,
		logger:  logger.With("component", "number_selector"),
	}
}

// Select returns the explicitly requested number, which must exist and be
// active, or the default among active numbers when explicitID is nil. An
// explicit number that cannot be used is ErrSendingNumberUnavailable.
func (s *NumberSelector) Select(ctx context.Context, explicitID *uuid.UUID) (*domain.PhoneNumber, error) {
	if explicitID != nil {
		n, err := s.numbers.GetByID(ctx, *explicitID)
		if errors.Is(err, domain.ErrNotFound) {
			s.logger.WarnContext(ctx, "Requested phone number does not exist", "phone_number_id", *explicitID)
			return nil, domain.ErrSendingNumberUnavailable
		}
		if err != nil {
			return nil, err
		}
		if !n.IsActive {
			s.logger.WarnContext(ctx, "Requested phone number is inactive", "phone_number_id", n.ID)
			return nil, domain.ErrSendingNumberUnavailable
		}
		return n, nil
	}

	active, err := s.numbers.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	return domain.SelectDefaultNumber(active)
}
