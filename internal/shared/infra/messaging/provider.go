package messaging

import (
	"context"
	"errors"
)

// Errores de validación: fallan rápido, antes de tocar el broker.
var (
	ErrEmptyTopic    = errors.New("topic must not be empty")
	ErrEmptyGroup    = errors.New("consumer group must not be empty")
	ErrNilHandler    = errors.New("message handler must not be nil")
	ErrEmptyMessage  = errors.New("message must not be empty")
	ErrUnsubscribed  = errors.New("subscription is no longer active")
	ErrUnknownBroker = errors.New("unknown messaging provider")
)

// Handler procesa el cuerpo de un mensaje. Si devuelve error, el adapter
// decide: los brokers reales reintentan/redelivran según su política nativa;
// el adapter en memoria solo lo registra (limitación documentada).
type Handler func(ctx context.Context, message []byte) error

// Subscription representa el binding vivo de un listener a (topic, grupo).
type Subscription interface {
	Topic() string
	Group() string
	// Unsubscribe retira el handler; no se le entregan más mensajes.
	Unsubscribe(ctx context.Context) error
}

// Provider abstrae el bus de mensajes. Publish entrega de forma asíncrona y
// no bloquea esperando a los handlers; el orden solo se conserva, best-effort,
// dentro de un mismo topic.
type Provider interface {
	Publish(ctx context.Context, topic string, message []byte) error
	Subscribe(ctx context.Context, topic, consumerGroup string, handler Handler) (Subscription, error)
}

func validateSubscribe(topic, group string, handler Handler) error {
	if topic == "" {
		return ErrEmptyTopic
	}
	if group == "" {
		return ErrEmptyGroup
	}
	if handler == nil {
		return ErrNilHandler
	}
	return nil
}
