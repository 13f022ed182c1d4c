package domain

import (
	"context"
	"errors"
)

// ---------- Errores compartidos ----------
var (
	ErrNilEvent = errors.New("event must not be nil")
)

// ---------- Interfaces (Ports) ----------

// DomainPublisher acumula eventos de dominio durante una operación de negocio.
// No toca almacenamiento ni bus: el UnitOfWork drena el buffer al hacer commit.
type DomainPublisher interface {
	Publish(evt Event) error
	Events() []Event
}

// IntegrationPublisher acumula eventos de integración con el mismo contrato.
type IntegrationPublisher interface {
	Publish(evt Event) error
	Events() []Event
}

// Session abstrae la sesión de almacenamiento con su transacción.
// Una Session pertenece en exclusiva a un UnitOfWork durante su vida;
// los backends sin transacciones (memoria, mongo) hacen no-op en Begin/Commit.
type Session interface {
	Begin(ctx context.Context) error
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}
