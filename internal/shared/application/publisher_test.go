package application

import (
	"testing"

	sharedDomain "github.com/davicafu/dddlab/internal/shared/domain"
	"github.com/stretchr/testify/assert"
)

func TestEventBuffer_PreservesPublicationOrder(t *testing.T) {
	buf := NewEventBuffer()

	e1 := newStubEvent("One", sharedDomain.KindDomain, "1")
	e2 := newStubEvent("Two", sharedDomain.KindDomain, "2")
	e3 := newStubEvent("Three", sharedDomain.KindDomain, "3")

	assert.NoError(t, buf.Publish(e1))
	assert.NoError(t, buf.Publish(e2))
	assert.NoError(t, buf.Publish(e3))

	events := buf.Events()
	assert.Len(t, events, 3)
	assert.Equal(t, e1, events[0])
	assert.Equal(t, e2, events[1])
	assert.Equal(t, e3, events[2])
}

func TestEventBuffer_RejectsNilEvent(t *testing.T) {
	buf := NewEventBuffer()
	assert.ErrorIs(t, buf.Publish(nil), sharedDomain.ErrNilEvent)
	assert.Empty(t, buf.Events())
}

func TestEventBuffer_EventsReturnsCopy(t *testing.T) {
	buf := NewEventBuffer()
	assert.NoError(t, buf.Publish(newStubEvent("Kept", sharedDomain.KindDomain, "x")))

	snapshot := buf.Events()
	snapshot[0] = newStubEvent("Tampered", sharedDomain.KindDomain, "y")

	// El buffer no se ve afectado por mutaciones del snapshot.
	assert.Equal(t, "Kept", buf.Events()[0].EventHeader().Name)
}
