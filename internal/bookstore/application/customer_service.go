package application

import (
	"context"
	"fmt"

	bookDomain "github.com/davicafu/dddlab/internal/bookstore/domain"
	sharedApp "github.com/davicafu/dddlab/internal/shared/application"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Operation agrupa las piezas con ámbito de una operación sobre clientes: el
// Scope (UnitOfWork + publishers) y un repositorio montado sobre la MISMA
// sesión de almacenamiento, para que agregado y outbox viajen juntos.
type Operation struct {
	Scope     *sharedApp.Scope
	Customers bookDomain.CustomerRepository
}

// OperationFactory fabrica una Operation nueva por cada petición o mensaje.
type OperationFactory func() *Operation

// CustomerService orquesta los casos de uso de clientes.
type CustomerService struct {
	ops      OperationFactory
	cache    bookDomain.CustomerCache // puede ser nil
	onCommit func()                   // aviso post-commit al dispatcher; puede ser nil
	log      *zap.Logger
}

func NewCustomerService(ops OperationFactory, cache bookDomain.CustomerCache, log *zap.Logger) *CustomerService {
	return &CustomerService{ops: ops, cache: cache, log: log}
}

// WithCommitHook registra un aviso que se dispara tras cada commit con
// eventos (típicamente Dispatcher.Wake, para acortar la latencia de entrega).
func (s *CustomerService) WithCommitHook(hook func()) *CustomerService {
	s.onCommit = hook
	return s
}

// RegisterCustomer da de alta un cliente: dentro de una única transacción se
// inserta el agregado y se publican el evento de dominio y el de integración,
// que el UnitOfWork persiste en la outbox al hacer commit.
func (s *CustomerService) RegisterCustomer(ctx context.Context, name, email string) (*bookDomain.Customer, error) {
	op := s.ops()

	var customer *bookDomain.Customer
	err := op.Scope.Execute(ctx, func(ctx context.Context) error {
		var err error
		customer, err = bookDomain.NewCustomer(name, email)
		if err != nil {
			return err
		}
		if err := op.Customers.Save(ctx, customer); err != nil {
			return err
		}
		if err := op.Scope.Domain.Publish(bookDomain.NewCustomerRegistered(customer)); err != nil {
			return err
		}
		return op.Scope.Integration.Publish(bookDomain.NewCustomerRegisteredIntegration(customer))
	})
	if err != nil {
		return nil, fmt.Errorf("failed to register customer: %w", err)
	}

	if s.onCommit != nil {
		s.onCommit()
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, bookDomain.CacheKeyByID(customer.ID), customer, 300); err != nil {
			s.log.Warn("⚠️ No se pudo cachear el cliente", zap.Error(err))
		}
	}

	s.log.Info("✅ Cliente registrado",
		zap.String("customer_id", customer.ID.String()),
		zap.String("email", customer.Email),
	)
	return customer, nil
}

// GetCustomer lee con cache-aside; la lectura no necesita transacción.
func (s *CustomerService) GetCustomer(ctx context.Context, id uuid.UUID) (*bookDomain.Customer, error) {
	if s.cache != nil {
		var cached bookDomain.Customer
		hit, err := s.cache.Get(ctx, bookDomain.CacheKeyByID(id), &cached)
		if err != nil {
			s.log.Warn("⚠️ Error leyendo cache de clientes", zap.Error(err))
		} else if hit {
			return &cached, nil
		}
	}

	op := s.ops()
	customer, err := op.Customers.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, bookDomain.CacheKeyByID(id), customer, 300); err != nil {
			s.log.Warn("⚠️ No se pudo cachear el cliente", zap.Error(err))
		}
	}
	return customer, nil
}
