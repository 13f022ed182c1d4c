package application

import (
	"context"
	"fmt"

	sharedDomain "github.com/davicafu/dddlab/internal/shared/domain"
	"go.uber.org/zap"
)

// Scope agrupa las piezas con ámbito de operación: un UnitOfWork recién
// creado y sus dos publishers. Cada petición HTTP o cada mensaje consumido
// obtiene su propio Scope; nada de esto se comparte entre operaciones.
type Scope struct {
	UoW         *UnitOfWork
	Domain      sharedDomain.DomainPublisher
	Integration sharedDomain.IntegrationPublisher
}

// ScopeFactory fabrica Scopes. La sesión y el repositorio outbox que devuelve
// sessions() deben compartir la misma conexión/transacción de almacenamiento.
type ScopeFactory struct {
	sessions func() (sharedDomain.Session, sharedDomain.OutboxRepository)
	log      *zap.Logger
}

func NewScopeFactory(
	sessions func() (sharedDomain.Session, sharedDomain.OutboxRepository),
	log *zap.Logger,
) *ScopeFactory {
	return &ScopeFactory{sessions: sessions, log: log}
}

func (f *ScopeFactory) New() *Scope {
	session, outbox := f.sessions()
	return NewScope(session, outbox, f.log)
}

// NewScope monta un Scope sobre una sesión y un repositorio outbox concretos,
// para composiciones que ya tienen la pareja en la mano.
func NewScope(session sharedDomain.Session, outbox sharedDomain.OutboxRepository, log *zap.Logger) *Scope {
	domainPub := NewEventBuffer()
	integrationPub := NewEventBuffer()
	return &Scope{
		UoW:         NewUnitOfWork(session, domainPub, integrationPub, outbox, log),
		Domain:      domainPub,
		Integration: integrationPub,
	}
}

// Execute ejecuta fn dentro de la transacción del Scope: Begin, lógica de
// negocio, Commit; si fn o el commit fallan, se revierte y el error sube al
// llamador sin reintentos (reintentar es responsabilidad de quien llama).
func (s *Scope) Execute(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := s.UoW.Begin(ctx); err != nil {
		return err
	}
	defer s.UoW.Close(ctx)

	if err := fn(ctx); err != nil {
		if rbErr := s.UoW.Rollback(ctx); rbErr != nil {
			return fmt.Errorf("rollback failed (%v) after error: %w", rbErr, err)
		}
		return err
	}

	return s.UoW.Commit(ctx)
}
