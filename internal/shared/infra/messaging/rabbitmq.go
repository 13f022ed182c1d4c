package messaging

import (
	"context"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// Exchange de tipo "topic" por el que viajan todos los eventos.
const rabbitExchange = "dddlab.events"

// RabbitProvider implementa el bus sobre RabbitMQ. El topic se usa como
// routing key; cada (topic, grupo) obtiene una cola durable propia, así los
// grupos distintos reciben todos el mensaje y dentro de cada grupo el broker
// lo reparte a un solo consumidor.
type RabbitProvider struct {
	conn *amqp.Connection
	ch   *amqp.Channel // canal dedicado a publicar
	log  *zap.Logger
}

func NewRabbitProvider(url string, log *zap.Logger) (*RabbitProvider, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ at %s: %w", url, err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open RabbitMQ channel: %w", err)
	}

	if err := ch.ExchangeDeclare(rabbitExchange, "topic", true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange %q: %w", rabbitExchange, err)
	}

	log.Info("✅ Conectado a RabbitMQ", zap.String("url", url))
	return &RabbitProvider{conn: conn, ch: ch, log: log}, nil
}

func (p *RabbitProvider) Publish(ctx context.Context, topic string, message []byte) error {
	if topic == "" {
		return ErrEmptyTopic
	}
	if len(message) == 0 {
		return ErrEmptyMessage
	}

	err := p.ch.PublishWithContext(ctx, rabbitExchange, topic, false, false, amqp.Publishing{
		ContentType:  "application/json",
		Body:         message,
		DeliveryMode: amqp.Persistent,
	})
	if err != nil {
		p.log.Error("Error publicando en RabbitMQ", zap.String("topic", topic), zap.Error(err))
		return err
	}
	p.log.Debug("Mensaje publicado en RabbitMQ", zap.String("topic", topic))
	return nil
}

func (p *RabbitProvider) Subscribe(ctx context.Context, topic, group string, handler Handler) (Subscription, error) {
	if err := validateSubscribe(topic, group, handler); err != nil {
		return nil, err
	}

	ch, err := p.conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("failed to open channel for subscription: %w", err)
	}

	queueName := fmt.Sprintf("%s.%s", topic, group)
	if _, err := ch.QueueDeclare(queueName, true, false, false, false, nil); err != nil {
		ch.Close()
		return nil, fmt.Errorf("failed to declare queue %q: %w", queueName, err)
	}
	if err := ch.QueueBind(queueName, topic, rabbitExchange, false, nil); err != nil {
		ch.Close()
		return nil, fmt.Errorf("failed to bind queue %q: %w", queueName, err)
	}

	consumerTag := fmt.Sprintf("%s-consumer", queueName)
	deliveries, err := ch.Consume(queueName, consumerTag, false, false, false, false, nil)
	if err != nil {
		ch.Close()
		return nil, fmt.Errorf("failed to start consuming from %q: %w", queueName, err)
	}

	p.log.Info("🎧 Suscrito a cola de RabbitMQ",
		zap.String("queue", queueName),
		zap.String("topic", topic),
		zap.String("consumer_group", group),
	)

	go func() {
		for d := range deliveries {
			if err := handler(ctx, d.Body); err != nil {
				// Nack con requeue: la redelivery la gestiona el broker.
				p.log.Error("Handler falló, mensaje devuelto a la cola",
					zap.String("queue", queueName),
					zap.Error(err),
				)
				if nackErr := d.Nack(false, true); nackErr != nil {
					p.log.Warn("⚠️ No se pudo hacer nack del mensaje", zap.Error(nackErr))
				}
				continue
			}
			if ackErr := d.Ack(false); ackErr != nil {
				p.log.Warn("⚠️ No se pudo hacer ack del mensaje", zap.Error(ackErr))
			}
		}
	}()

	return &rabbitSubscription{topic: topic, group: group, tag: consumerTag, ch: ch}, nil
}

// Close libera el canal de publicación y la conexión.
func (p *RabbitProvider) Close() error {
	if err := p.ch.Close(); err != nil {
		return err
	}
	return p.conn.Close()
}

type rabbitSubscription struct {
	topic string
	group string
	tag   string
	ch    *amqp.Channel
}

func (s *rabbitSubscription) Topic() string { return s.topic }
func (s *rabbitSubscription) Group() string { return s.group }

func (s *rabbitSubscription) Unsubscribe(ctx context.Context) error {
	if err := s.ch.Cancel(s.tag, false); err != nil {
		return err
	}
	return s.ch.Close()
}

// Verificación estática
var _ Provider = (*RabbitProvider)(nil)
var _ Subscription = (*rabbitSubscription)(nil)
