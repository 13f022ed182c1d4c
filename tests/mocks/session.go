package mocks

import (
	"context"

	sharedDomain "github.com/davicafu/dddlab/internal/shared/domain"
)

// FakeSession cuenta las llamadas al protocolo transaccional y permite
// inyectar fallos en cada fase.
type FakeSession struct {
	Begins    int
	Commits   int
	Rollbacks int

	BeginErr    error
	CommitErr   error
	RollbackErr error
}

func (s *FakeSession) Begin(ctx context.Context) error {
	s.Begins++
	return s.BeginErr
}

func (s *FakeSession) Commit(ctx context.Context) error {
	s.Commits++
	return s.CommitErr
}

func (s *FakeSession) Rollback(ctx context.Context) error {
	s.Rollbacks++
	return s.RollbackErr
}

var _ sharedDomain.Session = (*FakeSession)(nil)
