package application

import (
	"context"

	bookDomain "github.com/davicafu/dddlab/internal/bookstore/domain"
	sharedDomain "github.com/davicafu/dddlab/internal/shared/domain"
	"github.com/davicafu/dddlab/internal/shared/infra/events"
	"github.com/davicafu/dddlab/internal/shared/infra/listener"
	"github.com/davicafu/dddlab/internal/shared/infra/messaging"
	"go.uber.org/zap"
)

// NewCustomerRegisteredListener ata el evento de dominio CustomerRegistered a
// la acción de bienvenida: por cada mensaje construye el comando y ejecuta la
// acción; si esta falla, el error sube al adapter del broker y se aplica su
// política de reintentos.
func NewCustomerRegisteredListener(
	provider messaging.Provider,
	topics *events.TopicResolver,
	consumerGroup string,
	action *SendWelcomeEmailAction,
	log *zap.Logger,
) *listener.Listener[bookDomain.CustomerRegistered] {
	return listener.New(
		provider,
		topics,
		sharedDomain.KindDomain,
		bookDomain.CustomerRegisteredName,
		consumerGroup,
		func(ctx context.Context, evt bookDomain.CustomerRegistered) error {
			cmd := SendWelcomeEmailCommand{Email: evt.Email, Name: evt.Name}
			return action.Execute(ctx, cmd)
		},
		log,
	)
}
