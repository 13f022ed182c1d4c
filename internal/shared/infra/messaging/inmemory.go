package messaging

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// InMemoryProvider implementa el bus sin broker externo, con semántica real
// de consumer group: cada mensaje se entrega a UN solo suscriptor de cada
// grupo (round-robin), no a todos. No hay reintentos: si el handler falla, la
// entrega se pierde y queda registrada en el log (limitación del adapter en
// memoria, los adapters de broker delegan en la redelivery nativa).
type InMemoryProvider struct {
	mu     sync.RWMutex
	topics map[string]map[string]*consumerGroup // topic -> grupo -> estado
	log    *zap.Logger
}

type consumerGroup struct {
	subs []*inMemorySubscription
	next int // cursor round-robin
}

type inMemorySubscription struct {
	id       uuid.UUID
	topic    string
	group    string
	handler  Handler
	provider *InMemoryProvider
}

func NewInMemoryProvider(log *zap.Logger) *InMemoryProvider {
	return &InMemoryProvider{
		topics: make(map[string]map[string]*consumerGroup),
		log:    log,
	}
}

func (p *InMemoryProvider) Subscribe(ctx context.Context, topic, group string, handler Handler) (Subscription, error) {
	if err := validateSubscribe(topic, group, handler); err != nil {
		return nil, err
	}

	sub := &inMemorySubscription{
		id:       uuid.New(),
		topic:    topic,
		group:    group,
		handler:  handler,
		provider: p,
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	groups, ok := p.topics[topic]
	if !ok {
		groups = make(map[string]*consumerGroup)
		p.topics[topic] = groups
	}
	cg, ok := groups[group]
	if !ok {
		cg = &consumerGroup{}
		groups[group] = cg
	}
	cg.subs = append(cg.subs, sub)

	p.log.Info("Suscripción registrada en bus en memoria",
		zap.String("topic", topic),
		zap.String("consumer_group", group),
	)
	return sub, nil
}

// Publish elige un suscriptor por grupo y le entrega el mensaje en una
// goroutine: no bloquea esperando a los handlers.
func (p *InMemoryProvider) Publish(ctx context.Context, topic string, message []byte) error {
	if topic == "" {
		return ErrEmptyTopic
	}
	if len(message) == 0 {
		return ErrEmptyMessage
	}

	p.mu.Lock()
	var targets []*inMemorySubscription
	for _, cg := range p.topics[topic] {
		if len(cg.subs) == 0 {
			continue
		}
		targets = append(targets, cg.subs[cg.next%len(cg.subs)])
		cg.next++
	}
	p.mu.Unlock()

	for _, sub := range targets {
		go func(s *inMemorySubscription) {
			if err := s.handler(ctx, message); err != nil {
				// Un handler que falla no tumba el bucle de publicación.
				p.log.Error("Handler falló procesando mensaje en memoria, entrega perdida",
					zap.String("topic", s.topic),
					zap.String("consumer_group", s.group),
					zap.Error(err),
				)
			}
		}(sub)
	}
	return nil
}

func (s *inMemorySubscription) Topic() string { return s.topic }
func (s *inMemorySubscription) Group() string { return s.group }

func (s *inMemorySubscription) Unsubscribe(ctx context.Context) error {
	p := s.provider
	p.mu.Lock()
	defer p.mu.Unlock()

	groups, ok := p.topics[s.topic]
	if !ok {
		return ErrUnsubscribed
	}
	cg, ok := groups[s.group]
	if !ok {
		return ErrUnsubscribed
	}
	for i, candidate := range cg.subs {
		if candidate.id == s.id {
			cg.subs = append(cg.subs[:i], cg.subs[i+1:]...)
			return nil
		}
	}
	return ErrUnsubscribed
}

// Verificación estática
var _ Provider = (*InMemoryProvider)(nil)
var _ Subscription = (*inMemorySubscription)(nil)
