package relay

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"time"
)

const hello = "SLCANRELAYv1"

// Handshake performs the required hello exchange before a relay client is
// admitted, grounded on the teacher's internal/cnl.Handshake.
func Handshake(ctx context.Context, c net.Conn, timeout time.Duration) error {
	if err := c.SetDeadline(time.Now().Add(timeout)); err != nil {
		return fmt.Errorf("relay: set deadline: %w", err)
	}
	defer c.SetDeadline(time.Time{})

	errCh := make(chan error, 2)
	go func() {
		_, err := io.WriteString(c, hello)
		errCh <- err
	}()
	go func() {
		buf := make([]byte, len(hello))
		_, err := io.ReadFull(c, buf)
		if err == nil && string(buf) != hello {
			err = errors.New("relay: bad hello")
		}
		errCh <- err
	}()
	for i := 0; i < 2; i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-errCh:
			if err != nil {
				return fmt.Errorf("relay: handshake: %w", err)
			}
		}
	}
	return nil
}
