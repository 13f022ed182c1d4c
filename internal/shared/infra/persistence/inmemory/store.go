package inmemory

import (
	"context"
	"fmt"
	"sync"
	"time"

	sharedDomain "github.com/davicafu/dddlab/internal/shared/domain"
	"github.com/davicafu/dddlab/internal/shared/infra/events"
	"github.com/google/uuid"
)

// OutboxStore es la "tabla" outbox en memoria, compartida a nivel de proceso.
// Las Sessions preparan escrituras contra ella y solo se vuelven visibles al
// hacer commit, imitando la visibilidad transaccional de un backend real.
type OutboxStore struct {
	mu      sync.Mutex
	entries []sharedDomain.OutboxEntry // orden de inserción = orden FIFO
}

func NewOutboxStore() *OutboxStore {
	return &OutboxStore{}
}

func (s *OutboxStore) append(entries []sharedDomain.OutboxEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entries...)
}

// Entries devuelve una copia de todas las filas, procesadas incluidas.
func (s *OutboxStore) Entries() []sharedDomain.OutboxEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]sharedDomain.OutboxEntry, len(s.entries))
	copy(out, s.entries)
	return out
}

// Session implementa la transacción en memoria: las escrituras de la outbox
// y cualquier escritura diferida con Stage se acumulan y no se aplican hasta
// Commit; Rollback las descarta.
type Session struct {
	store    *OutboxStore
	staged   []sharedDomain.OutboxEntry
	deferred []func()
	active   bool
}

func NewSession(store *OutboxStore) *Session {
	return &Session{store: store}
}

func (s *Session) Begin(ctx context.Context) error {
	if s.active {
		return fmt.Errorf("in-memory session: transaction already in progress")
	}
	s.active = true
	s.staged = nil
	s.deferred = nil
	return nil
}

func (s *Session) Commit(ctx context.Context) error {
	if !s.active {
		return fmt.Errorf("in-memory session: no transaction in progress")
	}
	s.store.append(s.staged)
	for _, apply := range s.deferred {
		apply()
	}
	s.staged = nil
	s.deferred = nil
	s.active = false
	return nil
}

func (s *Session) Rollback(ctx context.Context) error {
	if !s.active {
		return fmt.Errorf("in-memory session: no transaction in progress")
	}
	s.staged = nil
	s.deferred = nil
	s.active = false
	return nil
}

// Stage difiere una escritura arbitraria hasta el commit de la transacción;
// sin transacción activa la aplica de inmediato. Lo usan los repositorios en
// memoria para que sus escrituras compartan la atomicidad del UnitOfWork.
func (s *Session) Stage(apply func()) {
	if !s.active {
		apply()
		return
	}
	s.deferred = append(s.deferred, apply)
}

// OutboxRepo implementa el repositorio outbox sobre el store en memoria.
// Comparte la Session con el UnitOfWork: sus escrituras viven y mueren con
// la transacción de este.
type OutboxRepo struct {
	store   *OutboxStore
	session *Session
}

func NewOutboxRepo(store *OutboxStore, session *Session) *OutboxRepo {
	return &OutboxRepo{store: store, session: session}
}

func (r *OutboxRepo) SaveEvent(ctx context.Context, evt sharedDomain.Event) error {
	if evt == nil {
		return sharedDomain.ErrNilEvent
	}

	payload, err := events.Serialize(evt)
	if err != nil {
		return err
	}

	header := evt.EventHeader()
	entry := sharedDomain.OutboxEntry{
		ID:        uuid.New(),
		EventType: header.Kind,
		EventName: header.Name,
		Payload:   payload,
		CreatedAt: time.Now().UTC(),
	}

	if r.session != nil && r.session.active {
		r.session.staged = append(r.session.staged, entry)
		return nil
	}
	// Sin transacción activa la escritura es directa (solo tests).
	r.store.append([]sharedDomain.OutboxEntry{entry})
	return nil
}

func (r *OutboxRepo) PendingEntries(ctx context.Context, limit int) ([]sharedDomain.OutboxEntry, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	var pending []sharedDomain.OutboxEntry
	for _, entry := range r.store.entries {
		if entry.Pending() {
			pending = append(pending, entry)
			if limit > 0 && len(pending) == limit {
				break
			}
		}
	}
	return pending, nil
}

func (r *OutboxRepo) MarkProcessed(ctx context.Context, id uuid.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for i := range r.store.entries {
		if r.store.entries[i].ID == id {
			if r.store.entries[i].ProcessedAt != nil {
				return nil // ya procesada: no-op
			}
			now := time.Now().UTC()
			r.store.entries[i].ProcessedAt = &now
			return nil
		}
	}
	return fmt.Errorf("outbox entry not found: %s", id)
}

// Verificación en tiempo de compilación.
var _ sharedDomain.Session = (*Session)(nil)
var _ sharedDomain.OutboxRepository = (*OutboxRepo)(nil)
