package inmemory

import (
	"context"
	"sync"

	bookDomain "github.com/davicafu/dddlab/internal/bookstore/domain"
	sharedInMemory "github.com/davicafu/dddlab/internal/shared/infra/persistence/inmemory"
	"github.com/google/uuid"
)

// CustomerStore es la "tabla" de clientes en memoria, a nivel de proceso.
type CustomerStore struct {
	mu        sync.RWMutex
	customers map[uuid.UUID]bookDomain.Customer
}

func NewCustomerStore() *CustomerStore {
	return &CustomerStore{customers: make(map[uuid.UUID]bookDomain.Customer)}
}

// CustomerRepo implementa el repositorio sobre el store en memoria. Las
// escrituras se difieren vía Session.Stage para que compartan la atomicidad
// del UnitOfWork: un rollback las descarta junto con la outbox.
type CustomerRepo struct {
	store   *CustomerStore
	session *sharedInMemory.Session
}

func NewCustomerRepo(store *CustomerStore, session *sharedInMemory.Session) *CustomerRepo {
	return &CustomerRepo{store: store, session: session}
}

func (r *CustomerRepo) Save(ctx context.Context, c *bookDomain.Customer) error {
	r.store.mu.RLock()
	_, exists := r.store.customers[c.ID]
	if !exists {
		// Unicidad de email, como el UNIQUE de los backends SQL.
		for _, existing := range r.store.customers {
			if existing.Email == c.Email {
				exists = true
				break
			}
		}
	}
	r.store.mu.RUnlock()
	if exists {
		return bookDomain.ErrCustomerAlreadyExists
	}

	snapshot := *c
	r.session.Stage(func() {
		r.store.mu.Lock()
		defer r.store.mu.Unlock()
		r.store.customers[snapshot.ID] = snapshot
	})
	return nil
}

func (r *CustomerRepo) GetByID(ctx context.Context, id uuid.UUID) (*bookDomain.Customer, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	c, ok := r.store.customers[id]
	if !ok {
		return nil, bookDomain.ErrCustomerNotFound
	}
	out := c
	return &out, nil
}

// Verificación en tiempo de compilación.
var _ bookDomain.CustomerRepository = (*CustomerRepo)(nil)
