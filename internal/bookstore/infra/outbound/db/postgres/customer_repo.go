package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	bookDomain "github.com/davicafu/dddlab/internal/bookstore/domain"
	sharedPostgres "github.com/davicafu/dddlab/internal/shared/infra/persistence/postgres"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

// InitSchema crea la tabla de clientes si no existe.
func InitSchema(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS customers (
			id            UUID PRIMARY KEY,
			name          TEXT NOT NULL,
			email         TEXT NOT NULL UNIQUE,
			registered_at TIMESTAMPTZ NOT NULL
		)`)
	if err != nil {
		return fmt.Errorf("failed to create customers schema: %w", err)
	}
	return nil
}

// CustomerRepo escribe a través de la Session compartida con el UnitOfWork:
// el INSERT del cliente y el de la outbox se confirman o revierten juntos.
type CustomerRepo struct {
	session *sharedPostgres.Session
}

func NewCustomerRepo(session *sharedPostgres.Session) *CustomerRepo {
	return &CustomerRepo{session: session}
}

func (r *CustomerRepo) Save(ctx context.Context, c *bookDomain.Customer) error {
	_, err := r.session.Exec(ctx,
		`INSERT INTO customers (id, name, email, registered_at)
		 VALUES ($1, $2, $3, $4)`,
		c.ID, c.Name, c.Email, c.RegisteredAt,
	)
	if err != nil {
		// El UNIQUE de email delata el duplicado.
		if isUniqueViolation(err) {
			return bookDomain.ErrCustomerAlreadyExists
		}
		return fmt.Errorf("failed to insert customer: %w", err)
	}
	return nil
}

func (r *CustomerRepo) GetByID(ctx context.Context, id uuid.UUID) (*bookDomain.Customer, error) {
	row := r.session.QueryRow(ctx,
		`SELECT id, name, email, registered_at FROM customers WHERE id = $1`, id)

	var c bookDomain.Customer
	if err := row.Scan(&c.ID, &c.Name, &c.Email, &c.RegisteredAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, bookDomain.ErrCustomerNotFound
		}
		return nil, fmt.Errorf("failed to query customer: %w", err)
	}
	return &c, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505" // unique_violation
}

// Verificación en tiempo de compilación.
var _ bookDomain.CustomerRepository = (*CustomerRepo)(nil)
