package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	sharedDomain "github.com/davicafu/dddlab/internal/shared/domain"

	_ "modernc.org/sqlite"
)

// Session envuelve la conexión SQLite y su transacción activa; misma
// disciplina que la sesión de Postgres, propietario único por UnitOfWork.
type Session struct {
	db *sql.DB
	tx *sql.Tx
}

func NewSession(db *sql.DB) *Session {
	return &Session{db: db}
}

func (s *Session) Begin(ctx context.Context) error {
	if s.tx != nil {
		return fmt.Errorf("sqlite session: transaction already in progress")
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
		return fmt.Errorf("sqlite session: no transaction in progress")
	}
	err := s.tx.Commit()
	s.tx = nil
	return err
}

func (s *Session) Rollback(ctx context.Context) error {
	if s.tx == nil {
		return fmt.Errorf("sqlite session: no transaction in progress")
	}
	err := s.tx.Rollback()
	s.tx = nil
	return err
}

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
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
	if s.tx != nil {
		return s.tx.QueryRowContext(ctx, query, args...)
	}
	return s.db.QueryRowContext(ctx, query, args...)
}

// Verificación en tiempo de compilación.
var _ sharedDomain.Session = (*Session)(nil)
