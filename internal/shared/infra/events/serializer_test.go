package events

import (
	"testing"

	sharedDomain "github.com/davicafu/dddlab/internal/shared/domain"
	"github.com/stretchr/testify/assert"
)

type orderShipped struct {
	sharedDomain.EventBase
	OrderID string `json:"order_id"`
	Items   int    `json:"items"`
}

func TestSerialize_RoundTrip(t *testing.T) {
	original := orderShipped{
		EventBase: sharedDomain.NewEventBase("OrderShipped", sharedDomain.KindDomain, "Shipping"),
		OrderID:   "ord-42",
		Items:     3,
	}

	payload, err := Serialize(original)
	assert.NoError(t, err)

	decoded, err := Deserialize[orderShipped]([]byte(payload))
	assert.NoError(t, err)

	// ✅ Igualdad completa: header y payload sobreviven el round-trip.
	assert.Equal(t, original, decoded)
}

func TestSerialize_NilEvent(t *testing.T) {
	_, err := Serialize(nil)
	assert.ErrorIs(t, err, sharedDomain.ErrNilEvent)
}

func TestPeek_ReadsHeaderOnly(t *testing.T) {
	evt := orderShipped{
		EventBase: sharedDomain.NewEventBase("OrderShipped", sharedDomain.KindIntegration, "Shipping"),
		OrderID:   "ord-7",
	}
	payload, err := Serialize(evt)
	assert.NoError(t, err)

	header, err := Peek([]byte(payload))
	assert.NoError(t, err)
	assert.Equal(t, "OrderShipped", header.Name)
	assert.Equal(t, sharedDomain.KindIntegration, header.Kind)
	assert.Equal(t, "Shipping", header.Context)
	assert.Equal(t, "1.0.0", header.ModelVersion)
}

func TestPeek_RejectsEnvelopeWithoutHeader(t *testing.T) {
	_, err := Peek([]byte(`{"order_id":"ord-1"}`))
	assert.Error(t, err)
}

func TestPeek_RejectsMalformedJSON(t *testing.T) {
	_, err := Peek([]byte(`{"header":`))
	assert.Error(t, err)
}

func TestDeserialize_MalformedJSON(t *testing.T) {
	_, err := Deserialize[orderShipped]([]byte("not json"))
	assert.Error(t, err)
}
