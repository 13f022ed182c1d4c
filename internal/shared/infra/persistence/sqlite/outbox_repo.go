package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sharedDomain "github.com/davicafu/dddlab/internal/shared/domain"
	"github.com/davicafu/dddlab/internal/shared/infra/events"
	"github.com/google/uuid"
)

// InitSchema crea la tabla outbox si no existe. El backend SQLite asume un
// único dispatcher por fichero de base de datos, así que no lleva columnas
// de claim.
func InitSchema(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS outbox_entries (
			id           TEXT PRIMARY KEY,
			event_type   TEXT NOT NULL,
			event_name   TEXT NOT NULL,
			payload      TEXT NOT NULL,
			created_at   TIMESTAMP NOT NULL,
			processed_at TIMESTAMP
		)`)
	if err != nil {
		return fmt.Errorf("failed to create outbox schema: %w", err)
	}
	return nil
}

// OutboxRepo implementa el repositorio outbox sobre SQLite a través de la
// Session compartida con el UnitOfWork.
type OutboxRepo struct {
	session *Session
}

func NewOutboxRepo(session *Session) *OutboxRepo {
	return &OutboxRepo{session: session}
}

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
		 VALUES (?, ?, ?, ?, ?, NULL)`,
		uuid.New().String(), string(header.Kind), header.Name, payload, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert outbox entry: %w", err)
	}
	return nil
}

func (r *OutboxRepo) PendingEntries(ctx context.Context, limit int) ([]sharedDomain.OutboxEntry, error) {
	rows, err := r.session.querier().QueryContext(ctx,
		`SELECT id, event_type, event_name, payload, created_at, processed_at
		 FROM outbox_entries
		 WHERE processed_at IS NULL
		 ORDER BY created_at
		 LIMIT ?`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []sharedDomain.OutboxEntry
	for rows.Next() {
		var entry sharedDomain.OutboxEntry
		var id, eventType string
		var processedAt sql.NullTime

		if err := rows.Scan(&id, &eventType, &entry.EventName, &entry.Payload, &entry.CreatedAt, &processedAt); err != nil {
			return nil, fmt.Errorf("failed to scan outbox row: %w", err)
		}

		// El id se guarda como TEXT; lo parseamos de vuelta.
		parsedID, err := uuid.Parse(id)
		if err != nil {
			return nil, fmt.Errorf("invalid UUID in outbox row: %w", err)
		}
		entry.ID = parsedID
		entry.EventType = sharedDomain.EventKind(eventType)
		if processedAt.Valid {
			t := processedAt.Time
			entry.ProcessedAt = &t
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func (r *OutboxRepo) MarkProcessed(ctx context.Context, id uuid.UUID) error {
	_, err := r.session.querier().ExecContext(ctx,
		`UPDATE outbox_entries SET processed_at = ?
		 WHERE id = ? AND processed_at IS NULL`,
		time.Now().UTC(), id.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to mark outbox entry as processed: %w", err)
	}
	return nil
}

// Verificación en tiempo de compilación.
var _ sharedDomain.OutboxRepository = (*OutboxRepo)(nil)
