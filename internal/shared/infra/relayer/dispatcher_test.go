package relayer

import (
	"context"
	"errors"
	"testing"
	"time"

	sharedDomain "github.com/davicafu/dddlab/internal/shared/domain"
	"github.com/davicafu/dddlab/internal/shared/infra/events"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"github.com/davicafu/dddlab/tests/mocks"
)

func testResolver(t *testing.T) *events.TopicResolver {
	t.Helper()
	resolver, err := events.NewTopicResolver("app.domain.{EventName}", "app.interchange.{EventName}")
	if err != nil {
		t.Fatalf("resolver inválido: %v", err)
	}
	return resolver
}

func pendingEntry(kind sharedDomain.EventKind, name, payload string) sharedDomain.OutboxEntry {
	return sharedDomain.OutboxEntry{
		ID:        uuid.New(),
		EventType: kind,
		EventName: name,
		Payload:   payload,
		CreatedAt: time.Now().UTC(),
	}
}

func TestDispatcher_ProcessBatch_Success(t *testing.T) {
	// ARRANGE
	repo := new(mocks.MockOutboxRepository)
	provider := new(mocks.MockProvider)

	entry := pendingEntry(sharedDomain.KindDomain, "CustomerRegistered", `{"header":{}}`)

	repo.On("PendingEntries", mock.Anything, 10).
		Return([]sharedDomain.OutboxEntry{entry}, nil).Once()
	provider.On("Publish", mock.Anything, "app.domain.CustomerRegistered", []byte(entry.Payload)).
		Return(nil).Once()
	repo.On("MarkProcessed", mock.Anything, entry.ID).Return(nil).Once()

	dispatcher := NewDispatcher(repo, provider, testResolver(t), time.Second, 10, zap.NewNop())

	// ACT
	dispatcher.ProcessBatch(context.Background())

	// ASSERT
	repo.AssertExpectations(t)
	provider.AssertExpectations(t)
}

func TestDispatcher_ProcessBatch_IntegrationTemplate(t *testing.T) {
	repo := new(mocks.MockOutboxRepository)
	provider := new(mocks.MockProvider)

	entry := pendingEntry(sharedDomain.KindIntegration, "CustomerRegistered", `{"header":{}}`)

	repo.On("PendingEntries", mock.Anything, 10).
		Return([]sharedDomain.OutboxEntry{entry}, nil).Once()
	// ✅ Los eventos de integración usan la plantilla inter-contexto.
	provider.On("Publish", mock.Anything, "app.interchange.CustomerRegistered", []byte(entry.Payload)).
		Return(nil).Once()
	repo.On("MarkProcessed", mock.Anything, entry.ID).Return(nil).Once()

	dispatcher := NewDispatcher(repo, provider, testResolver(t), time.Second, 10, zap.NewNop())
	dispatcher.ProcessBatch(context.Background())

	repo.AssertExpectations(t)
	provider.AssertExpectations(t)
}

func TestDispatcher_ProcessBatch_PublishFailureLeavesPending(t *testing.T) {
	repo := new(mocks.MockOutboxRepository)
	provider := new(mocks.MockProvider)

	entry := pendingEntry(sharedDomain.KindDomain, "CustomerRegistered", `{"header":{}}`)

	repo.On("PendingEntries", mock.Anything, 10).
		Return([]sharedDomain.OutboxEntry{entry}, nil).Once()
	provider.On("Publish", mock.Anything, mock.Anything, mock.Anything).
		Return(errors.New("broker caído")).Once()

	dispatcher := NewDispatcher(repo, provider, testResolver(t), time.Second, 10, zap.NewNop())
	dispatcher.ProcessBatch(context.Background())

	// ✅ Si el publish falla, la entrada NO se marca: reintento en el
	// siguiente ciclo.
	repo.AssertNotCalled(t, "MarkProcessed", mock.Anything, mock.Anything)
	repo.AssertExpectations(t)
	provider.AssertExpectations(t)
}

func TestDispatcher_ProcessBatch_ContinuesAfterFailedEntry(t *testing.T) {
	repo := new(mocks.MockOutboxRepository)
	provider := new(mocks.MockProvider)

	bad := pendingEntry(sharedDomain.KindDomain, "First", `{"header":{}}`)
	good := pendingEntry(sharedDomain.KindDomain, "Second", `{"header":{}}`)

	repo.On("PendingEntries", mock.Anything, 10).
		Return([]sharedDomain.OutboxEntry{bad, good}, nil).Once()
	provider.On("Publish", mock.Anything, "app.domain.First", mock.Anything).
		Return(errors.New("broker caído")).Once()
	provider.On("Publish", mock.Anything, "app.domain.Second", mock.Anything).
		Return(nil).Once()
	repo.On("MarkProcessed", mock.Anything, good.ID).Return(nil).Once()

	dispatcher := NewDispatcher(repo, provider, testResolver(t), time.Second, 10, zap.NewNop())
	dispatcher.ProcessBatch(context.Background())

	// El fallo de una entrada no bloquea al resto del lote.
	repo.AssertExpectations(t)
	provider.AssertExpectations(t)
}

func TestDispatcher_ProcessBatch_AuditReceivesDeliveredOnly(t *testing.T) {
	repo := new(mocks.MockOutboxRepository)
	provider := new(mocks.MockProvider)
	audit := new(mocks.MockDeliveryLog)

	ok := pendingEntry(sharedDomain.KindDomain, "Delivered", `{"header":{}}`)
	ko := pendingEntry(sharedDomain.KindDomain, "Stuck", `{"header":{}}`)

	repo.On("PendingEntries", mock.Anything, 10).
		Return([]sharedDomain.OutboxEntry{ok, ko}, nil).Once()
	provider.On("Publish", mock.Anything, "app.domain.Delivered", mock.Anything).Return(nil).Once()
	provider.On("Publish", mock.Anything, "app.domain.Stuck", mock.Anything).
		Return(errors.New("broker caído")).Once()
	repo.On("MarkProcessed", mock.Anything, ok.ID).Return(nil).Once()
	audit.On("LogDelivered", mock.Anything, []sharedDomain.OutboxEntry{ok}).Return(nil).Once()

	dispatcher := NewDispatcher(repo, provider, testResolver(t), time.Second, 10, zap.NewNop()).
		WithDeliveryLog(audit)
	dispatcher.ProcessBatch(context.Background())

	audit.AssertExpectations(t)
}

func TestDispatcher_WakeNeverBlocks(t *testing.T) {
	repo := new(mocks.MockOutboxRepository)
	provider := new(mocks.MockProvider)
	dispatcher := NewDispatcher(repo, provider, testResolver(t), time.Second, 10, zap.NewNop())

	// Sin bucle corriendo nadie drena el canal: los avisos extra se descartan.
	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			dispatcher.Wake()
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Wake bloqueó")
	}
}
