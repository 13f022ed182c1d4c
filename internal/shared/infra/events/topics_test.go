package events

import (
	"testing"

	sharedDomain "github.com/davicafu/dddlab/internal/shared/domain"
	"github.com/stretchr/testify/assert"
)

func TestNewTopicResolver_RequiresPlaceholder(t *testing.T) {
	_, err := NewTopicResolver("app.domain.events", "app.interchange.{EventName}")
	assert.ErrorIs(t, err, ErrInvalidTemplate)

	_, err = NewTopicResolver("app.domain.{EventName}", "app.interchange.events")
	assert.ErrorIs(t, err, ErrInvalidTemplate)

	_, err = NewTopicResolver("app.domain.{EventName}", "app.interchange.{EventName}")
	assert.NoError(t, err)
}

func TestTopicResolver_ResolvePerKind(t *testing.T) {
	resolver, err := NewTopicResolver("app.domain.{EventName}", "app.interchange.{EventName}")
	assert.NoError(t, err)

	topic, err := resolver.Resolve(sharedDomain.KindDomain, "CustomerRegistered")
	assert.NoError(t, err)
	assert.Equal(t, "app.domain.CustomerRegistered", topic)

	topic, err = resolver.Resolve(sharedDomain.KindIntegration, "CustomerRegistered")
	assert.NoError(t, err)
	assert.Equal(t, "app.interchange.CustomerRegistered", topic)
}

func TestTopicResolver_EmptyEventName(t *testing.T) {
	resolver, err := NewTopicResolver("d.{EventName}", "i.{EventName}")
	assert.NoError(t, err)

	_, err = resolver.Resolve(sharedDomain.KindDomain, "")
	assert.Error(t, err)
}

func TestTopicResolver_ResolveFor(t *testing.T) {
	resolver, err := NewTopicResolver("d.{EventName}", "i.{EventName}")
	assert.NoError(t, err)

	evt := orderShipped{
		EventBase: sharedDomain.NewEventBase("OrderShipped", sharedDomain.KindIntegration, "Shipping"),
	}
	topic, err := resolver.ResolveFor(evt)
	assert.NoError(t, err)
	assert.Equal(t, "i.OrderShipped", topic)
}
