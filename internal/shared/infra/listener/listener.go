package listener

import (
	"context"
	"errors"
	"sync"

	sharedDomain "github.com/davicafu/dddlab/internal/shared/domain"
	"github.com/davicafu/dddlab/internal/shared/infra/events"
	"github.com/davicafu/dddlab/internal/shared/infra/messaging"
	"go.uber.org/zap"
)

var (
	ErrAlreadyStarted = errors.New("listener already started")
	ErrNotStarted     = errors.New("listener is not subscribed")
)

type state int

const (
	stateCreated state = iota
	stateSubscribed
	stateStopped
)

// Listener ata un tipo de evento a una acción de aplicación: resuelve el
// topic a partir del tipo/nombre del evento, se suscribe con el consumer
// group configurado y, por cada mensaje, deserializa el envelope e invoca el
// handle. El handle de la aplicación debe ejecutar su acción en un Scope
// nuevo (su propio UnitOfWork); si devuelve error, este se propaga al adapter
// del broker y aplica su política nativa de reintentos.
type Listener[E sharedDomain.Event] struct {
	provider  messaging.Provider
	topics    *events.TopicResolver
	kind      sharedDomain.EventKind
	eventName string
	group     string
	handle    func(ctx context.Context, evt E) error
	log       *zap.Logger

	mu    sync.Mutex
	state state
	sub   messaging.Subscription
}

func New[E sharedDomain.Event](
	provider messaging.Provider,
	topics *events.TopicResolver,
	kind sharedDomain.EventKind,
	eventName string,
	group string,
	handle func(ctx context.Context, evt E) error,
	log *zap.Logger,
) *Listener[E] {
	return &Listener[E]{
		provider:  provider,
		topics:    topics,
		kind:      kind,
		eventName: eventName,
		group:     group,
		handle:    handle,
		log:       log,
	}
}

// Start resuelve el topic y se suscribe. Solo es válido una vez.
func (l *Listener[E]) Start(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.state != stateCreated {
		return ErrAlreadyStarted
	}

	topic, err := l.topics.Resolve(l.kind, l.eventName)
	if err != nil {
		return err
	}

	sub, err := l.provider.Subscribe(ctx, topic, l.group, l.onMessage)
	if err != nil {
		return err
	}

	l.sub = sub
	l.state = stateSubscribed
	l.log.Info("🎧 Listener suscrito",
		zap.String("event", l.eventName),
		zap.String("topic", topic),
		zap.String("consumer_group", l.group),
	)
	return nil
}

func (l *Listener[E]) onMessage(ctx context.Context, message []byte) error {
	evt, err := events.Deserialize[E](message)
	if err != nil {
		// Mensaje envenenado: reintentarlo localmente no lo arreglaría.
		l.log.Error("No se pudo deserializar el evento, mensaje descartado",
			zap.String("event", l.eventName),
			zap.Error(err),
		)
		return nil
	}

	l.log.Debug("Evento recibido", zap.String("event", l.eventName))
	return l.handle(ctx, evt)
}

// Stop cancela la suscripción y libera recursos.
func (l *Listener[E]) Stop(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.state != stateSubscribed {
		return ErrNotStarted
	}
	if err := l.sub.Unsubscribe(ctx); err != nil {
		return err
	}
	l.state = stateStopped
	l.log.Info("🛑 Listener detenido", zap.String("event", l.eventName))
	return nil
}
