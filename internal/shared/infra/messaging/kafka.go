package messaging

import (
	"context"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// KafkaProvider implementa el bus sobre Kafka con kafka-go. Un único writer
// genérico publica en cualquier topic (el topic va en el mensaje); cada
// suscripción crea su propio reader con GroupID, de modo que el broker
// reparte cada mensaje a un solo consumidor del grupo.
type KafkaProvider struct {
	writer  *kafka.Writer
	brokers []string
	log     *zap.Logger
}

func NewKafkaProvider(brokers []string, log *zap.Logger) *KafkaProvider {
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: true,
	}
	return &KafkaProvider{writer: writer, brokers: brokers, log: log}
}

func (p *KafkaProvider) Publish(ctx context.Context, topic string, message []byte) error {
	if topic == "" {
		return ErrEmptyTopic
	}
	if len(message) == 0 {
		return ErrEmptyMessage
	}

	msg := kafka.Message{
		Topic: topic,
		Value: message,
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.log.Error("Error publicando en Kafka", zap.String("topic", topic), zap.Error(err))
		return err
	}
	p.log.Debug("Mensaje publicado en Kafka", zap.String("topic", topic))
	return nil
}

func (p *KafkaProvider) Subscribe(ctx context.Context, topic, group string, handler Handler) (Subscription, error) {
	if err := validateSubscribe(topic, group, handler); err != nil {
		return nil, err
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  p.brokers,
		Topic:    topic,
		GroupID:  group,
		MinBytes: 10e3, // 10KB
		MaxBytes: 10e6, // 10MB
	})

	loopCtx, cancel := context.WithCancel(ctx)
	sub := &kafkaSubscription{
		topic:  topic,
		group:  group,
		reader: reader,
		cancel: cancel,
	}

	p.log.Info("🎧 Suscrito a topic de Kafka",
		zap.String("topic", topic),
		zap.String("consumer_group", group),
	)

	go p.consume(loopCtx, reader, handler)
	return sub, nil
}

// consume procesa mensajes uno a uno y solo confirma el offset cuando el
// handler termina sin error; un fallo deja el offset sin avanzar y Kafka
// vuelve a entregar el mensaje al grupo.
func (p *KafkaProvider) consume(ctx context.Context, reader *kafka.Reader, handler Handler) {
	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				p.log.Info("Consumidor de Kafka detenido", zap.String("topic", reader.Config().Topic))
				return
			}
			p.log.Error("Error leyendo mensaje de Kafka", zap.Error(err))
			continue
		}

		if err := handler(ctx, msg.Value); err != nil {
			p.log.Error("Handler falló, offset sin confirmar para redelivery",
				zap.String("topic", msg.Topic),
				zap.Int64("offset", msg.Offset),
				zap.Error(err),
			)
			continue
		}

		if err := reader.CommitMessages(ctx, msg); err != nil {
			p.log.Warn("⚠️ No se pudo confirmar offset", zap.Error(err))
		}
	}
}

// Close libera el writer compartido.
func (p *KafkaProvider) Close() error {
	return p.writer.Close()
}

type kafkaSubscription struct {
	topic  string
	group  string
	reader *kafka.Reader
	cancel context.CancelFunc
}

func (s *kafkaSubscription) Topic() string { return s.topic }
func (s *kafkaSubscription) Group() string { return s.group }

func (s *kafkaSubscription) Unsubscribe(ctx context.Context) error {
	s.cancel()
	return s.reader.Close()
}

// Verificación estática
var _ Provider = (*KafkaProvider)(nil)
var _ Subscription = (*kafkaSubscription)(nil)
