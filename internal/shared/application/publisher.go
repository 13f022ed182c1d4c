package application

import (
	"sync"

	sharedDomain "github.com/davicafu/dddlab/internal/shared/domain"
)

// EventBuffer es el publisher en memoria con ámbito de operación: una lista
// ordenada que conserva el orden de publicación. No se vacía al leerla; el
// ámbito nuevo de cada operación crea buffers nuevos.
type EventBuffer struct {
	mu     sync.Mutex
	events []sharedDomain.Event
}

func NewEventBuffer() *EventBuffer {
	return &EventBuffer{}
}

// Publish añade el evento al final del buffer.
func (b *EventBuffer) Publish(evt sharedDomain.Event) error {
	if evt == nil {
		return sharedDomain.ErrNilEvent
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, evt)
	return nil
}

// Events devuelve una copia del buffer en orden de publicación; ese orden es
// el orden de intento de entrega.
func (b *EventBuffer) Events() []sharedDomain.Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]sharedDomain.Event, len(b.events))
	copy(out, b.events)
	return out
}

// Verificación en tiempo de compilación.
var _ sharedDomain.DomainPublisher = (*EventBuffer)(nil)
var _ sharedDomain.IntegrationPublisher = (*EventBuffer)(nil)
