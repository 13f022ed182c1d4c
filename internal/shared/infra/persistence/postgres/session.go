package postgres

import (
	"context"
	"database/sql"
	"fmt"

	sharedDomain "github.com/davicafu/dddlab/internal/shared/domain"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// Session envuelve la conexión Postgres y su transacción activa. La posee en
// exclusiva un UnitOfWork: el repositorio outbox escribe a través de ella para
// que sus inserts viajen en la misma transacción que el agregado.
type Session struct {
	db *sql.DB
	tx *sql.Tx
}

func NewSession(db *sql.DB) *Session {
	return &Session{db: db}
}

func (s *Session) Begin(ctx context.Context) error {
	if s.tx != nil {
		return fmt.Errorf("postgres session: transaction already in progress")
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}
	s.tx = tx
	return nil
}

func (s *Session) Commit(ctx context.Context) error {
	if s.tx == nil {
		return fmt.Errorf("postgres session: no transaction in progress")
	}
	err := s.tx.Commit()
	s.tx = nil
	return err
}

func (s *Session) Rollback(ctx context.Context) error {
	if s.tx == nil {
		return fmt.Errorf("postgres session: no transaction in progress")
	}
	err := s.tx.Rollback()
	s.tx = nil
	return err
}

// querier devuelve la transacción activa, o la conexión directa fuera de
// transacción (lecturas del dispatcher, mark processed).
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *Session) querier() querier {
	if s.tx != nil {
		return s.tx
	}
	return s.db
}

// Exec, Query y QueryRow dan acceso a los repositorios de agregados que
// comparten esta sesión, dirigiendo cada sentencia a la transacción activa.

func (s *Session) Exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return s.querier().ExecContext(ctx, query, args...)
}

func (s *Session) Query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return s.querier().QueryContext(ctx, query, args...)
}

func (s *Session) QueryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return s.querier().QueryRowContext(ctx, query, args...)
}

// Verificación en tiempo de compilación.
var _ sharedDomain.Session = (*Session)(nil)
