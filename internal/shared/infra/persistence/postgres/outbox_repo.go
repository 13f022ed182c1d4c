package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	sharedDomain "github.com/davicafu/dddlab/internal/shared/domain"
	"github.com/davicafu/dddlab/internal/shared/infra/events"
	"github.com/google/uuid"
)

// InitSchema crea la tabla outbox si no existe. Las columnas claimed_* cubren
// el despliegue multi-dispatcher: cada instancia reclama filas con un lease
// antes de publicarlas, evitando la doble entrega entre procesos.
func InitSchema(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS outbox_entries (
			id           UUID PRIMARY KEY,
			event_type   TEXT NOT NULL,
			event_name   TEXT NOT NULL,
			payload      JSONB NOT NULL,
			created_at   TIMESTAMPTZ NOT NULL,
			processed_at TIMESTAMPTZ,
			claimed_by   TEXT,
			claimed_at   TIMESTAMPTZ
		);
		CREATE INDEX IF NOT EXISTS idx_outbox_pending
			ON outbox_entries (created_at) WHERE processed_at IS NULL;`)
	if err != nil {
		return fmt.Errorf("failed to create outbox schema: %w", err)
	}
	return nil
}

// OutboxRepo implementa el repositorio outbox sobre Postgres. Los SaveEvent
// pasan por la Session (misma transacción que el agregado); las lecturas del
// dispatcher reclaman filas con FOR UPDATE SKIP LOCKED.
type OutboxRepo struct {
	session    *Session
	instanceID string
	claimLease time.Duration
}

func NewOutboxRepo(session *Session, instanceID string, claimLease time.Duration) *OutboxRepo {
	if claimLease <= 0 {
		claimLease = 30 * time.Second
	}
	return &OutboxRepo{session: session, instanceID: instanceID, claimLease: claimLease}
}

// SaveEvent inserta la entrada dentro de la transacción gestionada por la
// Session; no abre transacción propia.
func (r *OutboxRepo) SaveEvent(ctx context.Context, evt sharedDomain.Event) error {
	if evt == nil {
		return sharedDomain.ErrNilEvent
	}

	payload, err := events.Serialize(evt)
	if err != nil {
		return err
	}

	header := evt.EventHeader()
	_, err = r.session.querier().ExecContext(ctx,
		`INSERT INTO outbox_entries (id, event_type, event_name, payload, created_at, processed_at)
		 VALUES ($1, $2, $3, $4, $5, NULL)`,
		uuid.New(), string(header.Kind), header.Name, payload, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert outbox entry: %w", err)
	}
	return nil
}

// PendingEntries reclama hasta limit filas pendientes cuyo lease expiró (o
// nunca fueron reclamadas) y las devuelve por created_at ascendente. SKIP
// LOCKED evita que dos dispatchers concurrentes reclamen la misma fila.
func (r *OutboxRepo) PendingEntries(ctx context.Context, limit int) ([]sharedDomain.OutboxEntry, error) {
	lease := fmt.Sprintf("%d seconds", int(r.claimLease.Seconds()))

	rows, err := r.session.querier().QueryContext(ctx,
		`UPDATE outbox_entries
		 SET claimed_by = $1, claimed_at = NOW()
		 WHERE id IN (
		     SELECT id FROM outbox_entries
		     WHERE processed_at IS NULL
		       AND (claimed_at IS NULL OR claimed_at < NOW() - $2::interval)
		     ORDER BY created_at
		     LIMIT $3
		     FOR UPDATE SKIP LOCKED
		 )
		 RETURNING id, event_type, event_name, payload, created_at, processed_at`,
		r.instanceID, lease, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to claim pending outbox entries: %w", err)
	}
	defer rows.Close()

	var entries []sharedDomain.OutboxEntry
	for rows.Next() {
		var entry sharedDomain.OutboxEntry
		var eventType string
		var processedAt sql.NullTime

		if err := rows.Scan(&entry.ID, &eventType, &entry.EventName, &entry.Payload, &entry.CreatedAt, &processedAt); err != nil {
			return nil, fmt.Errorf("failed to scan outbox row: %w", err)
		}
		entry.EventType = sharedDomain.EventKind(eventType)
		if processedAt.Valid {
			t := processedAt.Time
			entry.ProcessedAt = &t
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// UPDATE ... RETURNING no garantiza orden; reordenamos por created_at.
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].CreatedAt.Before(entries[j].CreatedAt)
	})
	return entries, nil
}

// MarkProcessed fija processed_at una sola vez; repetir la llamada sobre una
// entrada ya procesada no afecta filas y no es error.
func (r *OutboxRepo) MarkProcessed(ctx context.Context, id uuid.UUID) error {
	_, err := r.session.querier().ExecContext(ctx,
		`UPDATE outbox_entries SET processed_at = NOW()
		 WHERE id = $1 AND processed_at IS NULL`,
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to mark outbox entry as processed: %w", err)
	}
	return nil
}

// Verificación en tiempo de compilación.
var _ sharedDomain.OutboxRepository = (*OutboxRepo)(nil)
