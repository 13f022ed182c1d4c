package mocks

import (
	"context"

	sharedDomain "github.com/davicafu/dddlab/internal/shared/domain"
	"github.com/davicafu/dddlab/internal/shared/infra/messaging"
	"github.com/stretchr/testify/mock"
)

// MockProvider simula el bus de mensajes con expectativas.
type MockProvider struct {
	mock.Mock
}

func (m *MockProvider) Publish(ctx context.Context, topic string, message []byte) error {
	args := m.Called(ctx, topic, message)
	return args.Error(0)
}

func (m *MockProvider) Subscribe(ctx context.Context, topic, group string, handler messaging.Handler) (messaging.Subscription, error) {
	args := m.Called(ctx, topic, group, handler)
	sub, _ := args.Get(0).(messaging.Subscription)
	return sub, args.Error(1)
}

var _ messaging.Provider = (*MockProvider)(nil)

// MockDeliveryLog simula el sink de auditoría de entregas del dispatcher.
type MockDeliveryLog struct {
	mock.Mock
}

func (m *MockDeliveryLog) LogDelivered(ctx context.Context, entries []sharedDomain.OutboxEntry) error {
	args := m.Called(ctx, entries)
	return args.Error(0)
}
