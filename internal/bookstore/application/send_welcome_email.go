package application

import (
	"context"

	sharedApp "github.com/davicafu/dddlab/internal/shared/application"
	"go.uber.org/zap"
)

// SendWelcomeEmailCommand es el comando que el listener construye a partir
// del evento CustomerRegistered.
type SendWelcomeEmailCommand struct {
	Email string
	Name  string
}

// Mailer es el puerto de salida hacia el sistema de correo.
type Mailer interface {
	SendWelcome(ctx context.Context, email, name string) error
}

// SendWelcomeEmailAction es la acción downstream que dispara el listener.
// Se ejecuta en un Scope nuevo (su propio UnitOfWork), independiente de la
// operación que registró al cliente.
type SendWelcomeEmailAction struct {
	mailer Mailer
	scopes *sharedApp.ScopeFactory
	log    *zap.Logger
}

func NewSendWelcomeEmailAction(mailer Mailer, scopes *sharedApp.ScopeFactory, log *zap.Logger) *SendWelcomeEmailAction {
	return &SendWelcomeEmailAction{mailer: mailer, scopes: scopes, log: log}
}

func (a *SendWelcomeEmailAction) Execute(ctx context.Context, cmd SendWelcomeEmailCommand) error {
	scope := a.scopes.New()
	return scope.Execute(ctx, func(ctx context.Context) error {
		a.log.Info("Enviando email de bienvenida", zap.String("email", cmd.Email))
		return a.mailer.SendWelcome(ctx, cmd.Email, cmd.Name)
	})
}
