package application

import (
	"context"
	"errors"
	"testing"

	sharedDomain "github.com/davicafu/dddlab/internal/shared/domain"
	"github.com/davicafu/dddlab/tests/mocks"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

// Evento mínimo para los tests de la capa de aplicación.
type stubEvent struct {
	sharedDomain.EventBase
	Value string `json:"value"`
}

func newStubEvent(name string, kind sharedDomain.EventKind, value string) stubEvent {
	return stubEvent{
		EventBase: sharedDomain.NewEventBase(name, kind, "Test"),
		Value:     value,
	}
}

func newTestUoW(session *mocks.FakeSession, repo *mocks.RecordingOutboxRepo) (*UnitOfWork, *EventBuffer, *EventBuffer) {
	domainPub := NewEventBuffer()
	integrationPub := NewEventBuffer()
	uow := NewUnitOfWork(session, domainPub, integrationPub, repo, zap.NewNop())
	return uow, domainPub, integrationPub
}

func TestUnitOfWork_CommitDrainsInOrder(t *testing.T) {
	session := &mocks.FakeSession{}
	repo := &mocks.RecordingOutboxRepo{}
	uow, domainPub, integrationPub := newTestUoW(session, repo)
	ctx := context.Background()

	assert.NoError(t, uow.Begin(ctx))

	d1 := newStubEvent("First", sharedDomain.KindDomain, "d1")
	d2 := newStubEvent("Second", sharedDomain.KindDomain, "d2")
	i1 := newStubEvent("Crossed", sharedDomain.KindIntegration, "i1")

	// Intercalamos publicaciones: integración antes que el segundo de dominio.
	assert.NoError(t, domainPub.Publish(d1))
	assert.NoError(t, integrationPub.Publish(i1))
	assert.NoError(t, domainPub.Publish(d2))

	assert.NoError(t, uow.Commit(ctx))

	// ✅ Primero TODO dominio en orden de publicación, después integración.
	assert.Len(t, repo.Saved, 3)
	assert.Equal(t, d1, repo.Saved[0])
	assert.Equal(t, d2, repo.Saved[1])
	assert.Equal(t, i1, repo.Saved[2])
	assert.Equal(t, 1, session.Commits)
	assert.Equal(t, 0, session.Rollbacks)
}

func TestUnitOfWork_RollbackDropsEvents(t *testing.T) {
	session := &mocks.FakeSession{}
	repo := &mocks.RecordingOutboxRepo{}
	uow, domainPub, _ := newTestUoW(session, repo)
	ctx := context.Background()

	assert.NoError(t, uow.Begin(ctx))
	assert.NoError(t, domainPub.Publish(newStubEvent("Dropped", sharedDomain.KindDomain, "x")))
	assert.NoError(t, uow.Rollback(ctx))

	// ✅ Nada llegó a la outbox.
	assert.Empty(t, repo.Saved)
	assert.Equal(t, 0, session.Commits)
	assert.Equal(t, 1, session.Rollbacks)
}

func TestUnitOfWork_StateMachine(t *testing.T) {
	ctx := context.Background()

	t.Run("commit sin begin", func(t *testing.T) {
		uow, _, _ := newTestUoW(&mocks.FakeSession{}, &mocks.RecordingOutboxRepo{})
		assert.ErrorIs(t, uow.Commit(ctx), ErrUnitOfWorkState)
	})

	t.Run("rollback sin begin", func(t *testing.T) {
		uow, _, _ := newTestUoW(&mocks.FakeSession{}, &mocks.RecordingOutboxRepo{})
		assert.ErrorIs(t, uow.Rollback(ctx), ErrUnitOfWorkState)
	})

	t.Run("begin dos veces", func(t *testing.T) {
		uow, _, _ := newTestUoW(&mocks.FakeSession{}, &mocks.RecordingOutboxRepo{})
		assert.NoError(t, uow.Begin(ctx))
		assert.ErrorIs(t, uow.Begin(ctx), ErrUnitOfWorkState)
	})

	t.Run("commit dos veces", func(t *testing.T) {
		uow, _, _ := newTestUoW(&mocks.FakeSession{}, &mocks.RecordingOutboxRepo{})
		assert.NoError(t, uow.Begin(ctx))
		assert.NoError(t, uow.Commit(ctx))
		assert.ErrorIs(t, uow.Commit(ctx), ErrUnitOfWorkState)
	})

	t.Run("rollback tras commit", func(t *testing.T) {
		uow, _, _ := newTestUoW(&mocks.FakeSession{}, &mocks.RecordingOutboxRepo{})
		assert.NoError(t, uow.Begin(ctx))
		assert.NoError(t, uow.Commit(ctx))
		assert.ErrorIs(t, uow.Rollback(ctx), ErrUnitOfWorkState)
	})
}

func TestUnitOfWork_OutboxFailureRollsBack(t *testing.T) {
	session := &mocks.FakeSession{}
	saveErr := errors.New("disco lleno")
	repo := &mocks.RecordingOutboxRepo{SaveErr: saveErr}
	uow, domainPub, _ := newTestUoW(session, repo)
	ctx := context.Background()

	assert.NoError(t, uow.Begin(ctx))
	assert.NoError(t, domainPub.Publish(newStubEvent("Broken", sharedDomain.KindDomain, "x")))

	err := uow.Commit(ctx)
	assert.ErrorIs(t, err, saveErr)
	assert.Equal(t, 0, session.Commits)
	assert.Equal(t, 1, session.Rollbacks)

	// Tras el fallo el uow queda terminado: no admite otro commit.
	assert.ErrorIs(t, uow.Commit(ctx), ErrUnitOfWorkState)
}

func TestUnitOfWork_SessionCommitFailureRollsBack(t *testing.T) {
	commitErr := errors.New("conexión perdida")
	session := &mocks.FakeSession{CommitErr: commitErr}
	repo := &mocks.RecordingOutboxRepo{}
	uow, domainPub, _ := newTestUoW(session, repo)
	ctx := context.Background()

	assert.NoError(t, uow.Begin(ctx))
	assert.NoError(t, domainPub.Publish(newStubEvent("Lost", sharedDomain.KindDomain, "x")))

	assert.ErrorIs(t, uow.Commit(ctx), commitErr)
	assert.Equal(t, 1, session.Rollbacks)
}

func TestUnitOfWork_CloseRollsBackLeakedTransaction(t *testing.T) {
	session := &mocks.FakeSession{}
	uow, _, _ := newTestUoW(session, &mocks.RecordingOutboxRepo{})
	ctx := context.Background()

	assert.NoError(t, uow.Begin(ctx))
	uow.Close(ctx)
	assert.Equal(t, 1, session.Rollbacks)

	// Close es inocuo sobre un uow ya terminado.
	uow.Close(ctx)
	assert.Equal(t, 1, session.Rollbacks)
}

func TestScope_ExecuteCommitsOnSuccess(t *testing.T) {
	session := &mocks.FakeSession{}
	repo := &mocks.RecordingOutboxRepo{}
	scope := NewScope(session, repo, zap.NewNop())
	ctx := context.Background()

	evt := newStubEvent("Done", sharedDomain.KindDomain, "ok")
	err := scope.Execute(ctx, func(ctx context.Context) error {
		return scope.Domain.Publish(evt)
	})

	assert.NoError(t, err)
	assert.Equal(t, 1, session.Commits)
	assert.Len(t, repo.Saved, 1)
}

func TestScope_ExecuteRollsBackOnError(t *testing.T) {
	session := &mocks.FakeSession{}
	repo := &mocks.RecordingOutboxRepo{}
	scope := NewScope(session, repo, zap.NewNop())
	ctx := context.Background()

	boom := errors.New("negocio roto")
	err := scope.Execute(ctx, func(ctx context.Context) error {
		if pubErr := scope.Domain.Publish(newStubEvent("Never", sharedDomain.KindDomain, "x")); pubErr != nil {
			return pubErr
		}
		return boom
	})

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, session.Commits)
	assert.Equal(t, 1, session.Rollbacks)
	assert.Empty(t, repo.Saved)
}
