package retry

import (
	"context"
	"time"
)

// Do ejecuta fn hasta que tenga éxito, con un máximo de intentos y una espera
// fija entre ellos. Devuelve el último error si se agotan los intentos.
func Do(ctx context.Context, attempts int, delay time.Duration, fn func() error) error {
	var err error
	for i := 0; i < attempts; i++ {
		err = fn()
		if err == nil {
			return nil
		}

		select {
		case <-time.After(delay):
			// espera antes del siguiente intento
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}
