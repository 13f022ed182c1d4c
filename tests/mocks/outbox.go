package mocks

import (
	"context"

	sharedDomain "github.com/davicafu/dddlab/internal/shared/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockOutboxRepository simula el repositorio outbox con expectativas.
type MockOutboxRepository struct {
	mock.Mock
}

func (m *MockOutboxRepository) SaveEvent(ctx context.Context, evt sharedDomain.Event) error {
	args := m.Called(ctx, evt)
	return args.Error(0)
}

func (m *MockOutboxRepository) PendingEntries(ctx context.Context, limit int) ([]sharedDomain.OutboxEntry, error) {
	args := m.Called(ctx, limit)
	entries, _ := args.Get(0).([]sharedDomain.OutboxEntry)
	return entries, args.Error(1)
}

func (m *MockOutboxRepository) MarkProcessed(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

var _ sharedDomain.OutboxRepository = (*MockOutboxRepository)(nil)

// RecordingOutboxRepo registra los eventos guardados en orden de llegada.
// Útil para verificar el orden de volcado del UnitOfWork sin expectativas.
type RecordingOutboxRepo struct {
	Saved   []sharedDomain.Event
	SaveErr error // si no es nil, SaveEvent falla
	Marked  []uuid.UUID
}

func (r *RecordingOutboxRepo) SaveEvent(ctx context.Context, evt sharedDomain.Event) error {
	if r.SaveErr != nil {
		return r.SaveErr
	}
	if evt == nil {
		return sharedDomain.ErrNilEvent
	}
	r.Saved = append(r.Saved, evt)
	return nil
}

func (r *RecordingOutboxRepo) PendingEntries(ctx context.Context, limit int) ([]sharedDomain.OutboxEntry, error) {
	return nil, nil
}

func (r *RecordingOutboxRepo) MarkProcessed(ctx context.Context, id uuid.UUID) error {
	r.Marked = append(r.Marked, id)
	return nil
}

var _ sharedDomain.OutboxRepository = (*RecordingOutboxRepo)(nil)
