package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// OutboxEntry representa un evento pendiente de publicar en el broker.
// Una vez creada, la fila es inmutable salvo ProcessedAt, que pasa de nil a
// no-nil exactamente una vez. Las filas procesadas se conservan como auditoría.
type OutboxEntry struct {
	ID          uuid.UUID  `json:"id"`
	EventType   EventKind  `json:"event_type"` // "Domain" o "Integration"
	EventName   string     `json:"event_name"` // ej. "CustomerRegistered"
	Payload     string     `json:"payload"`    // envelope JSON serializado
	CreatedAt   time.Time  `json:"created_at"`
	ProcessedAt *time.Time `json:"processed_at"` // nil = pendiente de entrega
}

// Pending indica si la entrada sigue sin entregarse.
func (e OutboxEntry) Pending() bool { return e.ProcessedAt == nil }

// OutboxRepository define el contrato para acceder a la tabla outbox.
type OutboxRepository interface {
	// SaveEvent serializa el evento y lo inserta dentro de la transacción
	// gestionada externamente por la Session; nunca abre la suya propia.
	SaveEvent(ctx context.Context, evt Event) error

	// PendingEntries devuelve las entradas con ProcessedAt nil, ordenadas
	// por CreatedAt ascendente (FIFO, best-effort), hasta un máximo.
	PendingEntries(ctx context.Context, limit int) ([]OutboxEntry, error)

	// MarkProcessed fija ProcessedAt. Es idempotente: marcar una entrada ya
	// procesada es un no-op, no un error.
	MarkProcessed(ctx context.Context, id uuid.UUID) error
}
