package mailer

import (
	"context"

	bookApp "github.com/davicafu/dddlab/internal/bookstore/application"
	"go.uber.org/zap"
)

// LogMailer es el adapter de correo de la muestra: no envía nada, registra.
type LogMailer struct {
	log *zap.Logger
}

func NewLogMailer(log *zap.Logger) *LogMailer {
	return &LogMailer{log: log}
}

func (m *LogMailer) SendWelcome(ctx context.Context, email, name string) error {
	m.log.Info("📧 Email de bienvenida enviado",
		zap.String("to", email),
		zap.String("name", name),
	)
	return nil
}

// Verificación en tiempo de compilación.
var _ bookApp.Mailer = (*LogMailer)(nil)
