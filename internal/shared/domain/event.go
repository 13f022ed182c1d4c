package domain

import (
	"time"
)

// EventKind distingue eventos de dominio (internos a un contexto) de eventos
// de integración (cruzan fronteras de contexto y usan otra plantilla de topic).
type EventKind string

const (
	KindDomain      EventKind = "Domain"
	KindIntegration EventKind = "Integration"
)

// Header acompaña a todo evento: es la parte auto-descriptiva del envelope
// que viaja por el bus y se guarda en la tabla outbox.
type Header struct {
	Name          string    `json:"name"`
	Kind          EventKind `json:"kind"`
	Context       string    `json:"context"`
	OccurredAt    time.Time `json:"occurred_at"`
	ModelVersion  string    `json:"model_version"`
	CorrelationID string    `json:"correlation_id,omitempty"`
	Actor         string    `json:"actor,omitempty"`
}

// Event es el contrato mínimo que cumple cualquier evento publicable.
type Event interface {
	EventHeader() Header
}

// EventBase se embebe en los eventos concretos para aportar el header.
// La igualdad de dos eventos es igualdad de header + payload (structs planos).
type EventBase struct {
	Header Header `json:"header"`
}

func (b EventBase) EventHeader() Header { return b.Header }

// NewEventBase construye el header de un evento nuevo con timestamp UTC
// truncado a milisegundos, para que el round-trip JSON preserve igualdad.
func NewEventBase(name string, kind EventKind, context string) EventBase {
	return EventBase{Header: Header{
		Name:         name,
		Kind:         kind,
		Context:      context,
		OccurredAt:   time.Now().UTC().Truncate(time.Millisecond),
		ModelVersion: "1.0.0",
	}}
}
