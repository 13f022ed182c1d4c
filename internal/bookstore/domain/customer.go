package domain

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ---------- Errores de dominio ----------
var (
	ErrCustomerNotFound      = errors.New("customer not found")
	ErrCustomerAlreadyExists = errors.New("customer already exists")
	ErrInvalidCustomer       = errors.New("invalid customer")
)

// Customer es el agregado de ejemplo de la librería.
type Customer struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	RegisteredAt time.Time `json:"registered_at"`
}

// NewCustomer valida y construye el agregado.
func NewCustomer(name, email string) (*Customer, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("%w: name must not be empty", ErrInvalidCustomer)
	}
	if strings.TrimSpace(email) == "" || !strings.Contains(email, "@") {
		return nil, fmt.Errorf("%w: invalid email %q", ErrInvalidCustomer, email)
	}
	return &Customer{
		ID:           uuid.New(),
		Name:         name,
		Email:        email,
		RegisteredAt: time.Now().UTC().Truncate(time.Millisecond),
	}, nil
}

// ---------- Interfaces (Ports) ----------

// CustomerRepository define las operaciones persistentes para Customer.
// Save debe ejecutarse dentro de la transacción de la Session compartida con
// el UnitOfWork de la operación.
type CustomerRepository interface {
	// Debe devolver ErrCustomerAlreadyExists si la entidad ya existe.
	Save(ctx context.Context, c *Customer) error

	// Debe devolver ErrCustomerNotFound si no existe.
	GetByID(ctx context.Context, id uuid.UUID) (*Customer, error)
}

// CustomerCache es la cache de lectura, opcional.
type CustomerCache interface {
	// Get intenta poblar dest (puntero). (true, nil) = hit, (false, nil) = miss.
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, val interface{}, ttlSecs int) error
	Delete(ctx context.Context, key string) error
}

// CacheKeyByID forma una key consistente para cache usando ID.
func CacheKeyByID(id uuid.UUID) string {
	return fmt.Sprintf("customer:id:%s", id.String())
}
