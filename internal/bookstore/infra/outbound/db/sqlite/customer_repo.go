package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	bookDomain "github.com/davicafu/dddlab/internal/bookstore/domain"
	sharedSqlite "github.com/davicafu/dddlab/internal/shared/infra/persistence/sqlite"
	"github.com/google/uuid"
)

// InitSchema crea la tabla de clientes si no existe.
func InitSchema(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS customers (
			id            TEXT PRIMARY KEY,
			name          TEXT NOT NULL,
			email         TEXT NOT NULL UNIQUE,
			registered_at TIMESTAMP NOT NULL
		)`)
	if err != nil {
		return fmt.Errorf("failed to create customers schema: %w", err)
	}
	return nil
}

// CustomerRepo comparte la Session del UnitOfWork, igual que la outbox.
type CustomerRepo struct {
	session *sharedSqlite.Session
}

func NewCustomerRepo(session *sharedSqlite.Session) *CustomerRepo {
	return &CustomerRepo{session: session}
}

func (r *CustomerRepo) Save(ctx context.Context, c *bookDomain.Customer) error {
	_, err := r.session.Exec(ctx,
		`INSERT INTO customers (id, name, email, registered_at)
		 VALUES (?, ?, ?, ?)`,
		c.ID.String(), c.Name, c.Email, c.RegisteredAt,
	)
	if err != nil {
		// modernc.org/sqlite no expone códigos tipados; el mensaje basta.
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return bookDomain.ErrCustomerAlreadyExists
		}
		return fmt.Errorf("failed to insert customer: %w", err)
	}
	return nil
}

func (r *CustomerRepo) GetByID(ctx context.Context, id uuid.UUID) (*bookDomain.Customer, error) {
	row := r.session.QueryRow(ctx,
		`SELECT id, name, email, registered_at FROM customers WHERE id = ?`, id.String())

	var (
		rawID        string
		c            bookDomain.Customer
		registeredAt time.Time
	)
	if err := row.Scan(&rawID, &c.Name, &c.Email, &registeredAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, bookDomain.ErrCustomerNotFound
		}
		return nil, fmt.Errorf("failed to query customer: %w", err)
	}
	parsed, err := uuid.Parse(rawID)
	if err != nil {
		return nil, fmt.Errorf("failed to parse customer id: %w", err)
	}
	c.ID = parsed
	c.RegisteredAt = registeredAt
	return &c, nil
}

// Verificación en tiempo de compilación.
var _ bookDomain.CustomerRepository = (*CustomerRepo)(nil)
