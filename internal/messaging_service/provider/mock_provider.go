package provider

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/pharmalink/golang_services/internal/messaging_service/domain"
)

// MockSMSProvider accepts every message without contacting a carrier. It is
// selected with CARRIER_PROVIDER=mock for local runs.
type MockSMSProvider struct {
	logger         *slog.Logger
	FailSend       bool
	SimulatedDelay time.Duration
}

func NewMockSMSProvider(logger *slog.Logger, failSend bool, delay time.Duration) *MockSMSProvider {
	return &MockSMSProvider{
		logger:         logger.With("provider", "mock"),
		FailSend:       failSend,
		SimulatedDelay: delay,
	}
}

func (p *MockSMSProvider) Send(ctx context.Context, req SendRequest) (*SendResponse, error) {
	timer := prometheus.NewTimer(providerRequestDurationHist.WithLabelValues(p.GetName()))
	defer timer.ObserveDuration()

	p.logger.InfoContext(ctx, "MockSMSProvider: Send called",
		"internal_message_id", req.InternalMessageID,
		"from", req.From,
		"to", req.To,
		"body_length", len(req.Body))

	if p.SimulatedDelay > 0 {
		select {
		case <-time.After(p.SimulatedDelay):
		case <-ctx.Done():
			return nil, &domain.ProviderError{Message: ctx.Err().Error(), Err: ctx.Err()}
		}
	}

	if p.FailSend {
		providerRequestsCounter.WithLabelValues(p.GetName(), "rejected").Inc()
		return nil, &domain.ProviderError{
			Message:    "mock provider simulated send failure",
			Code:       "MOCK_FAILURE",
			StatusCode: 400,
		}
	}

	providerRequestsCounter.WithLabelValues(p.GetName(), "accepted").Inc()
	return &SendResponse{TrackingID: "SM" + uuid.NewString(), Status: "queued"}, nil
}

func (p *MockSMSProvider) GetName() string {
	return "mock"
}
