package sensor

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.bug.st/serial"
	"go.uber.org/zap"
)

// OpenFunc opens the line source for a port
type OpenFunc func(port string, baudRate int) (io.ReadCloser, error)

// OpenSerial opens a serial port in 8N1 mode at baudRate
func OpenSerial(port string, baudRate int) (io.ReadCloser, error) {
	p, err := serial.Open(port, &serial.Mode{BaudRate: baudRate})
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", port, err)
	}
	return p, nil
}

// openPort tries to open the configured port with exponential backoff.
// The device often enumerates a moment after the service starts.
func (r *Reader) openPort(ctx context.Context) (io.ReadCloser, error) {
	expBackoff := backoff.NewExponentialBackOff()
	expBackoff.InitialInterval = 500 * time.Millisecond
	expBackoff.MaxInterval = 5 * time.Second

	var port io.ReadCloser
	operation := func() error {
		p, err := r.open(r.cfg.Port, r.cfg.BaudRate)
		if err != nil {
			r.log.Debug("serial open failed", zap.String("port", r.cfg.Port), zap.Error(err))
			return err
		}
		port = p
		return nil
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(expBackoff, r.openRetries), ctx)
	if err := backoff.Retry(operation, policy); err != nil {
		return nil, err
	}
	return port, nil
}
