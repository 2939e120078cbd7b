package app

import (
	"context"
	"io"
	"log/slog"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/mock"

	"github.com/pharmalink/golang_services/internal/messaging_service/domain"
	"github.com/pharmalink/golang_services/internal/messaging_service/provider"
)

// --- Mocks ---

type MockPatientRepository struct {
	mock.Mock
}

func (m *MockPatientRepository) UpsertByPhone(ctx context.Context, p *domain.Patient) (*domain.Patient, bool, error) {
	args := m.Called(ctx, p)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*domain.Patient), args.Bool(1), args.Error(2)
}

func (m *MockPatientRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Patient, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Patient), args.Error(1)
}

type MockMessageRepository struct {
	mock.Mock
}

func (m *MockMessageRepository) Create(ctx context.Context, msg *domain.Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

func (m *MockMessageRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Message, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Message), args.Error(1)
}

func (m *MockMessageRepository) CreateInbound(ctx context.Context, msg *domain.Message) (bool, error) {
	args := m.Called(ctx, msg)
	return args.Bool(0), args.Error(1)
}

func (m *MockMessageRepository) AttachSendResult(ctx context.Context, a domain.SendAttachment) error {
	args := m.Called(ctx, a)
	return args.Error(0)
}

func (m *MockMessageRepository) UpdateDeliveryStatus(ctx context.Context, u domain.StatusUpdate) (*domain.Message, error) {
	args := m.Called(ctx, u)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Message), args.Error(1)
}

type MockPhoneNumberRepository struct {
	mock.Mock
}

func (m *MockPhoneNumberRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.PhoneNumber, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PhoneNumber), args.Error(1)
}

func (m *MockPhoneNumberRepository) ListActive(ctx context.Context) ([]*domain.PhoneNumber, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.PhoneNumber), args.Error(1)
}

func (m *MockPhoneNumberRepository) FindByNumber(ctx context.Context, raw string) (*domain.PhoneNumber, error) {
	args := m.Called(ctx, raw)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PhoneNumber), args.Error(1)
}

type MockSender struct {
	mock.Mock
}

func (m *MockSender) Send(ctx context.Context, req provider.SendRequest) (*provider.SendResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*provider.SendResponse), args.Error(1)
}

func (m *MockSender) GetName() string { return "mock" }

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, subject string, data []byte) error {
	args := m.Called(ctx, subject, data)
	return args.Error(0)
}

type MockReplayGuard struct {
	mock.Mock
}

func (m *MockReplayGuard) Seen(ctx context.Context, trackingID string) (bool, error) {
	args := m.Called(ctx, trackingID)
	return args.Bool(0), args.Error(1)
}

func (m *MockReplayGuard) Mark(ctx context.Context, trackingID string) error {
	args := m.Called(ctx, trackingID)
	return args.Error(0)
}

type MockAutoResponseScheduler struct {
	mock.Mock
}

func (m *MockAutoResponseScheduler) Schedule(ctx context.Context, req domain.AutoResponseRequest) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}

type MockMessageSender struct {
	mock.Mock
}

func (m *MockMessageSender) Send(ctx context.Context, req SendRequest) (*SendResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*SendResult), args.Error(1)
}

type MockQueueSubscriber struct {
	mock.Mock
}

func (m *MockQueueSubscriber) QueueSubscribe(ctx context.Context, subject, queueGroup string, handler func(msg *nats.Msg)) error {
	args := m.Called(ctx, subject, queueGroup, handler)
	return args.Error(0)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
