package application

import (
	"context"
	"errors"
	"fmt"

	sharedDomain "github.com/davicafu/dddlab/internal/shared/domain"
	"go.uber.org/zap"
)

// Estados del UnitOfWork. Exactamente un Begin es válido por instancia;
// Commit y Rollback son transiciones terminales mutuamente excluyentes.
type uowState int

const (
	stateIdle uowState = iota
	stateActive
	stateCommitted
	stateRolledBack
)

var ErrUnitOfWorkState = errors.New("unit of work is not in a valid state for this operation")

// UnitOfWork envuelve una operación de negocio en una transacción y garantiza
// que el cambio de estado del agregado y sus eventos se confirman juntos o
// ninguno: en Commit se drenan los publishers hacia la tabla outbox usando la
// misma Session antes de confirmar la transacción.
type UnitOfWork struct {
	session        sharedDomain.Session
	domainPub      sharedDomain.DomainPublisher
	integrationPub sharedDomain.IntegrationPublisher
	outbox         sharedDomain.OutboxRepository
	log            *zap.Logger
	state          uowState
}

func NewUnitOfWork(
	session sharedDomain.Session,
	domainPub sharedDomain.DomainPublisher,
	integrationPub sharedDomain.IntegrationPublisher,
	outbox sharedDomain.OutboxRepository,
	log *zap.Logger,
) *UnitOfWork {
	return &UnitOfWork{
		session:        session,
		domainPub:      domainPub,
		integrationPub: integrationPub,
		outbox:         outbox,
		log:            log,
	}
}

// Begin abre la transacción de almacenamiento. Falla si ya hubo un Begin.
func (u *UnitOfWork) Begin(ctx context.Context) error {
	if u.state != stateIdle {
		return fmt.Errorf("%w: begin on state %d", ErrUnitOfWorkState, u.state)
	}
	if err := u.session.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	u.state = stateActive
	return nil
}

// Commit guarda en la outbox todos los eventos publicados (primero dominio,
// después integración, en orden de publicación) y confirma la transacción.
// Cualquier fallo revierte la operación completa: nada queda a medias.
func (u *UnitOfWork) Commit(ctx context.Context) error {
	if u.state != stateActive {
		return fmt.Errorf("%w: commit on state %d", ErrUnitOfWorkState, u.state)
	}

	for _, evt := range u.domainPub.Events() {
		u.log.Debug("Guardando evento de dominio en outbox",
			zap.String("event", evt.EventHeader().Name))
		if err := u.outbox.SaveEvent(ctx, evt); err != nil {
			u.rollbackAfterFailure(ctx)
			return fmt.Errorf("failed to save domain event to outbox: %w", err)
		}
	}

	for _, evt := range u.integrationPub.Events() {
		u.log.Debug("Guardando evento de integración en outbox",
			zap.String("event", evt.EventHeader().Name))
		if err := u.outbox.SaveEvent(ctx, evt); err != nil {
			u.rollbackAfterFailure(ctx)
			return fmt.Errorf("failed to save integration event to outbox: %w", err)
		}
	}

	if err := u.session.Commit(ctx); err != nil {
		u.rollbackAfterFailure(ctx)
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	u.state = stateCommitted
	return nil
}

// Rollback descarta la transacción; los eventos del buffer simplemente se
// pierden porque nunca llegaron a persistirse.
func (u *UnitOfWork) Rollback(ctx context.Context) error {
	if u.state != stateActive {
		return fmt.Errorf("%w: rollback on state %d", ErrUnitOfWorkState, u.state)
	}
	if err := u.session.Rollback(ctx); err != nil {
		return fmt.Errorf("failed to rollback transaction: %w", err)
	}
	u.state = stateRolledBack
	return nil
}

// Close es la red de seguridad contra transacciones fugadas: si nadie hizo
// Commit ni Rollback explícitos, revierte.
func (u *UnitOfWork) Close(ctx context.Context) {
	if u.state != stateActive {
		return
	}
	if err := u.Rollback(ctx); err != nil {
		u.log.Warn("⚠️ No se pudo revertir la transacción al cerrar el unit of work", zap.Error(err))
	}
}

func (u *UnitOfWork) rollbackAfterFailure(ctx context.Context) {
	if err := u.session.Rollback(ctx); err != nil {
		u.log.Warn("⚠️ Rollback tras fallo de commit también falló", zap.Error(err))
	}
	u.state = stateRolledBack
}
