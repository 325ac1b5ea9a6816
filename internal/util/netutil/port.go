// Package netutil provides network reachability checks for launched instances.
package netutil

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"
)

// WebServerWaitTimeout is the default time a booting instance gets to accept
// connections on its web port. Package installation runs first.
const WebServerWaitTimeout = 10 * time.Minute

// DefaultDialInterval is the pause between connection attempts.
const DefaultDialInterval = time.Second

// ErrPortTimeout is returned when the port did not open before the timeout.
var ErrPortTimeout = errors.New("timed out waiting for port")

// WaitForPort waits until a TCP connection to host:port succeeds. It dials
// immediately, then every interval, until timeout. A non-positive interval
// uses DefaultDialInterval.
func WaitForPort(ctx context.Context, host string, port int, timeout, interval time.Duration) error {
	if interval <= 0 {
		interval = DefaultDialInterval
	}
	address := net.JoinHostPort(host, strconv.Itoa(port))

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var dialer net.Dialer
	for {
		dialCtx, dialCancel := context.WithTimeout(ctx, 2*time.Second)
		conn, err := dialer.DialContext(dialCtx, "tcp", address)
		dialCancel()
		if err == nil {
			_ = conn.Close()
			return nil
		}

		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return fmt.Errorf("%w %s after %s", ErrPortTimeout, address, timeout)
			}
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
