package inmemory

import (
	"context"
	"testing"

	sharedDomain "github.com/davicafu/dddlab/internal/shared/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

type pingEvent struct {
	sharedDomain.EventBase
	Seq int `json:"seq"`
}

func newPingEvent(name string, seq int) pingEvent {
	return pingEvent{
		EventBase: sharedDomain.NewEventBase(name, sharedDomain.KindDomain, "Test"),
		Seq:       seq,
	}
}

func TestOutboxRepo_CommitMakesEntriesVisible(t *testing.T) {
	store := NewOutboxStore()
	session := NewSession(store)
	repo := NewOutboxRepo(store, session)
	ctx := context.Background()

	assert.NoError(t, session.Begin(ctx))
	assert.NoError(t, repo.SaveEvent(ctx, newPingEvent("First", 1)))
	assert.NoError(t, repo.SaveEvent(ctx, newPingEvent("Second", 2)))

	// Antes del commit nada es visible.
	pending, err := repo.PendingEntries(ctx, 0)
	assert.NoError(t, err)
	assert.Empty(t, pending)

	assert.NoError(t, session.Commit(ctx))

	// ✅ Tras el commit las entradas aparecen en orden FIFO.
	pending, err = repo.PendingEntries(ctx, 0)
	assert.NoError(t, err)
	assert.Len(t, pending, 2)
	assert.Equal(t, "First", pending[0].EventName)
	assert.Equal(t, "Second", pending[1].EventName)
}

func TestOutboxRepo_RollbackDiscardsStagedEntries(t *testing.T) {
	store := NewOutboxStore()
	session := NewSession(store)
	repo := NewOutboxRepo(store, session)
	ctx := context.Background()

	assert.NoError(t, session.Begin(ctx))
	assert.NoError(t, repo.SaveEvent(ctx, newPingEvent("Ghost", 1)))
	assert.NoError(t, session.Rollback(ctx))

	assert.Empty(t, store.Entries())
}

func TestOutboxRepo_PendingEntriesHonorsLimit(t *testing.T) {
	store := NewOutboxStore()
	repo := NewOutboxRepo(store, NewSession(store))
	ctx := context.Background()

	for i := 1; i <= 5; i++ {
		assert.NoError(t, repo.SaveEvent(ctx, newPingEvent("Ping", i)))
	}

	pending, err := repo.PendingEntries(ctx, 3)
	assert.NoError(t, err)
	assert.Len(t, pending, 3)
}

func TestOutboxRepo_MarkProcessed(t *testing.T) {
	store := NewOutboxStore()
	repo := NewOutboxRepo(store, NewSession(store))
	ctx := context.Background()

	assert.NoError(t, repo.SaveEvent(ctx, newPingEvent("Ping", 1)))
	entry := store.Entries()[0]
	assert.True(t, entry.Pending())

	assert.NoError(t, repo.MarkProcessed(ctx, entry.ID))

	// La fila no se borra: queda con processed_at informado.
	all := store.Entries()
	assert.Len(t, all, 1)
	assert.NotNil(t, all[0].ProcessedAt)

	pending, err := repo.PendingEntries(ctx, 0)
	assert.NoError(t, err)
	assert.Empty(t, pending)

	// ✅ Marcar dos veces es idempotente y conserva el primer timestamp.
	first := *all[0].ProcessedAt
	assert.NoError(t, repo.MarkProcessed(ctx, entry.ID))
	assert.Equal(t, first, *store.Entries()[0].ProcessedAt)
}

func TestOutboxRepo_MarkProcessedUnknownID(t *testing.T) {
	store := NewOutboxStore()
	repo := NewOutboxRepo(store, NewSession(store))

	assert.Error(t, repo.MarkProcessed(context.Background(), uuid.New()))
}

func TestSession_TransactionProtocol(t *testing.T) {
	store := NewOutboxStore()
	session := NewSession(store)
	ctx := context.Background()

	// Commit y rollback requieren transacción activa.
	assert.Error(t, session.Commit(ctx))
	assert.Error(t, session.Rollback(ctx))

	assert.NoError(t, session.Begin(ctx))
	assert.Error(t, session.Begin(ctx)) // begin anidado

	assert.NoError(t, session.Commit(ctx))
	assert.Error(t, session.Commit(ctx)) // ya cerrada
}

func TestSession_StageDefersUntilCommit(t *testing.T) {
	store := NewOutboxStore()
	session := NewSession(store)
	ctx := context.Background()

	applied := false
	assert.NoError(t, session.Begin(ctx))
	session.Stage(func() { applied = true })
	assert.False(t, applied)

	assert.NoError(t, session.Commit(ctx))
	assert.True(t, applied)
}

func TestSession_StageAppliesImmediatelyWithoutTransaction(t *testing.T) {
	session := NewSession(NewOutboxStore())

	applied := false
	session.Stage(func() { applied = true })
	assert.True(t, applied)
}
