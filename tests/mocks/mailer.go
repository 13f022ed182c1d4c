package mocks

import (
	"context"
	"sync"
)

// RecordingMailer registra los correos de bienvenida enviados.
// Implementa el puerto Mailer de la capa de aplicación.
type RecordingMailer struct {
	mu   sync.Mutex
	Sent []string // emails en orden de envío
	Err  error    // si no es nil, SendWelcome falla
}

func (m *RecordingMailer) SendWelcome(ctx context.Context, email, name string) error {
	if m.Err != nil {
		return m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Sent = append(m.Sent, email)
	return nil
}
