package domain

import (
	"time"

	sharedDomain "github.com/davicafu/dddlab/internal/shared/domain"
	"github.com/google/uuid"
)

// Nombre del bounded context; forma parte del header de todos sus eventos.
const ContextName = "Bookstore"

// Nombre lógico compartido por el evento de dominio y el de integración:
// cada uno resuelve a un topic distinto por su plantilla.
const CustomerRegisteredName = "CustomerRegistered"

// CustomerRegistered es el hecho de dominio: un cliente nuevo quedó
// registrado dentro del contexto de la librería.
type CustomerRegistered struct {
	sharedDomain.EventBase
	CustomerID   uuid.UUID `json:"customer_id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	RegisteredAt time.Time `json:"registered_at"`
}

func NewCustomerRegistered(c *Customer) CustomerRegistered {
	return CustomerRegistered{
		EventBase:    sharedDomain.NewEventBase(CustomerRegisteredName, sharedDomain.KindDomain, ContextName),
		CustomerID:   c.ID,
		Name:         c.Name,
		Email:        c.Email,
		RegisteredAt: c.RegisteredAt,
	}
}

// CustomerRegisteredIntegration es el contrato plano que cruza la frontera
// del contexto; deliberadamente expone menos campos que el evento de dominio.
type CustomerRegisteredIntegration struct {
	sharedDomain.EventBase
	CustomerID uuid.UUID `json:"customer_id"`
	Email      string    `json:"email"`
}

func NewCustomerRegisteredIntegration(c *Customer) CustomerRegisteredIntegration {
	return CustomerRegisteredIntegration{
		EventBase:  sharedDomain.NewEventBase(CustomerRegisteredName, sharedDomain.KindIntegration, ContextName),
		CustomerID: c.ID,
		Email:      c.Email,
	}
}

// Verificación en tiempo de compilación.
var _ sharedDomain.Event = CustomerRegistered{}
var _ sharedDomain.Event = CustomerRegisteredIntegration{}
