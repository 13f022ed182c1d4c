package relayer

import (
	"context"
	"fmt"
	"time"

	sharedDomain "github.com/davicafu/dddlab/internal/shared/domain"
	"github.com/davicafu/dddlab/internal/shared/infra/events"
	"github.com/davicafu/dddlab/internal/shared/infra/messaging"
	"go.uber.org/zap"
)

// DeliveryLog recibe las entradas ya entregadas y confirmadas, para auditoría
// o analítica. Es opcional y sus fallos nunca afectan a la entrega.
type DeliveryLog interface {
	LogDelivered(ctx context.Context, entries []sharedDomain.OutboxEntry) error
}

// Dispatcher es el puente entre la tabla outbox y el bus: un bucle de polling
// por proceso que publica las entradas pendientes y las marca como procesadas
// solo tras confirmarse el envío. Un fallo de publicación deja la entrada
// pendiente para el siguiente ciclo (entrega at-least-once: los consumidores
// deben ser idempotentes). Un crash entre publicar y marcar produce redelivery
// al reiniciar, que es exactamente el comportamiento buscado.
type Dispatcher struct {
	repo      sharedDomain.OutboxRepository
	provider  messaging.Provider
	topics    *events.TopicResolver
	interval  time.Duration
	batchSize int
	audit     DeliveryLog // puede ser nil
	wake      chan struct{}
	log       *zap.Logger
}

func NewDispatcher(
	repo sharedDomain.OutboxRepository,
	provider messaging.Provider,
	topics *events.TopicResolver,
	interval time.Duration,
	batchSize int,
	log *zap.Logger,
) *Dispatcher {
	return &Dispatcher{
		repo:      repo,
		provider:  provider,
		topics:    topics,
		interval:  interval,
		batchSize: batchSize,
		wake:      make(chan struct{}, 1),
		log:       log,
	}
}

// WithDeliveryLog engancha un sink de auditoría de entregas.
func (d *Dispatcher) WithDeliveryLog(audit DeliveryLog) *Dispatcher {
	d.audit = audit
	return d
}

// Start inicia el bucle de polling y bloquea hasta que se cancele el contexto.
func (d *Dispatcher) Start(ctx context.Context) {
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	d.log.Info("🚀 Outbox dispatcher iniciado",
		zap.Duration("interval", d.interval),
		zap.Int("batch_size", d.batchSize),
	)

	for {
		select {
		case <-ctx.Done():
			d.log.Info("🛑 Outbox dispatcher detenido.")
			return
		case <-ticker.C:
			d.ProcessBatch(ctx)
		case <-d.wake:
			// Aviso post-commit: adelanta la entrega sin sustituir al polling.
			d.ProcessBatch(ctx)
		}
	}
}

// Wake avisa al dispatcher de que acaba de hacerse commit de una operación con
// eventos. Nunca bloquea; si ya hay un aviso en vuelo, con ese basta.
func (d *Dispatcher) Wake() {
	select {
	case d.wake <- struct{}{}:
	default:
	}
}

// ProcessBatch procesa un lote de entradas pendientes.
func (d *Dispatcher) ProcessBatch(ctx context.Context) {
	entries, err := d.repo.PendingEntries(ctx, d.batchSize)
	if err != nil {
		d.log.Warn("⚠️ Error al obtener entradas pendientes de la outbox", zap.Error(err))
		return
	}
	if len(entries) > 0 {
		d.log.Info(fmt.Sprintf("📬 %d entradas pendientes encontradas", len(entries)))
	}

	var delivered []sharedDomain.OutboxEntry
	for _, entry := range entries {
		if ctx.Err() != nil {
			// Cancelación a mitad de lote: lo no marcado queda pendiente
			// y se retoma en el siguiente ciclo.
			return
		}
		if d.publishAndMark(ctx, entry) {
			delivered = append(delivered, entry)
		}
	}

	if d.audit != nil && len(delivered) > 0 {
		if err := d.audit.LogDelivered(ctx, delivered); err != nil {
			d.log.Warn("⚠️ No se pudo registrar auditoría de entregas", zap.Error(err))
		}
	}
}

func (d *Dispatcher) publishAndMark(ctx context.Context, entry sharedDomain.OutboxEntry) bool {
	topic, err := d.topics.Resolve(entry.EventType, entry.EventName)
	if err != nil {
		d.log.Error("No se pudo resolver el topic de la entrada",
			zap.String("entry_id", entry.ID.String()),
			zap.String("event_name", entry.EventName),
			zap.Error(err),
		)
		return false
	}

	if err := d.provider.Publish(ctx, topic, []byte(entry.Payload)); err != nil {
		// No se marca como procesada: se reintenta en el siguiente ciclo.
		d.log.Warn("⚠️ No se pudo publicar entrada de la outbox",
			zap.String("entry_id", entry.ID.String()),
			zap.String("topic", topic),
			zap.Error(err),
		)
		return false
	}

	if err := d.repo.MarkProcessed(ctx, entry.ID); err != nil {
		// La publicación ya salió; si no se pudo marcar habrá redelivery,
		// que el consumidor idempotente absorbe.
		d.log.Warn("⚠️ No se pudo marcar entrada como procesada",
			zap.String("entry_id", entry.ID.String()),
			zap.Error(err),
		)
		return false
	}

	d.log.Info("✅ Entrada publicada y marcada",
		zap.String("entry_id", entry.ID.String()),
		zap.String("topic", topic),
	)
	return true
}
