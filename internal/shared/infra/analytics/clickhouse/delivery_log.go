package clickhouse

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sharedDomain "github.com/davicafu/dddlab/internal/shared/domain"

	"github.com/ClickHouse/clickhouse-go/v2"
)

// DeliveryLog registra en ClickHouse cada entrada de la outbox ya entregada,
// como histórico analítico de publicaciones (la tabla outbox conserva la
// verdad operacional; esto es solo reporting).
type DeliveryLog struct {
	db *sql.DB
}

func NewDeliveryLog(addr string, dbName string) (*DeliveryLog, error) {
	conn := clickhouse.OpenDB(&clickhouse.Options{
		Addr: []string{addr},
		Auth: clickhouse.Auth{
			Database: dbName,
		},
		Settings: clickhouse.Settings{
			"max_execution_time": 60,
		},
	})

	if err := conn.Ping(); err != nil {
		return nil, fmt.Errorf("could not ping clickhouse: %w", err)
	}

	return &DeliveryLog{db: conn}, nil
}

// LogDelivered inserta un lote de entregas. ClickHouse rinde mejor con
// inserciones en lotes, así que el dispatcher acumula el batch completo.
func (l *DeliveryLog) LogDelivered(ctx context.Context, entries []sharedDomain.OutboxEntry) error {
	tx, err := l.db.Begin()
	if err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO event_deliveries (entry_id, event_type, event_name, created_at, delivered_at)")
	if err != nil {
		return err
	}
	defer stmt.Close()

	deliveredAt := time.Now().UTC()
	for _, entry := range entries {
		if _, err := stmt.ExecContext(
			ctx,
			entry.ID.String(),
			string(entry.EventType),
			entry.EventName,
			entry.CreatedAt,
			deliveredAt,
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to insert delivery row: %w", err)
		}
	}

	return tx.Commit()
}
