package events

import (
	"encoding/json"
	"fmt"

	sharedDomain "github.com/davicafu/dddlab/internal/shared/domain"
)

// El evento serializado es un documento auto-descriptivo: el header viaja
// embebido bajo la clave "header", así que el mismo JSON sirve como payload
// de la outbox y como cuerpo del mensaje en el bus.

// Serialize convierte un evento en su envelope JSON.
func Serialize(evt sharedDomain.Event) (string, error) {
	if evt == nil {
		return "", sharedDomain.ErrNilEvent
	}
	data, err := json.Marshal(evt)
	if err != nil {
		return "", fmt.Errorf("failed to serialize event %q: %w", evt.EventHeader().Name, err)
	}
	return string(data), nil
}

// Peek extrae solo el header del envelope, sin deserializar el payload.
// Sirve para decidir tipo/topic antes de conocer el tipo concreto.
func Peek(payload []byte) (sharedDomain.Header, error) {
	var probe struct {
		Header sharedDomain.Header `json:"header"`
	}
	if err := json.Unmarshal(payload, &probe); err != nil {
		return sharedDomain.Header{}, fmt.Errorf("failed to read event header: %w", err)
	}
	if probe.Header.Name == "" {
		return sharedDomain.Header{}, fmt.Errorf("event envelope has no header")
	}
	return probe.Header, nil
}

// Deserialize reconstruye el evento concreto desde el envelope. El tipo E debe
// embeber EventBase para recuperar también el header: deserialize(serialize(e))
// devuelve un evento igual a e, header y payload incluidos.
func Deserialize[E any](payload []byte) (E, error) {
	var evt E
	if err := json.Unmarshal(payload, &evt); err != nil {
		return evt, fmt.Errorf("failed to deserialize event: %w", err)
	}
	return evt, nil
}
