package supervisor

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/gorilla/websocket"
)

const (
	probeAttemptTimeout = time.Second
	probeMinBackoff     = 50 * time.Millisecond
	probeMaxBackoff     = time.Second
)

// Probe checks whether a just-spawned stage accepts connections.
type Probe interface {
	Probe(ctx context.Context) error
	String() string
}

type dialProbe struct {
	network string
	addr    string
}

// DialProbe succeeds once network/addr accepts a connection.
func DialProbe(network, addr string) Probe { return dialProbe{network: network, addr: addr} }

func (p dialProbe) Probe(ctx context.Context) error {
	var d net.Dialer
	c, err := d.DialContext(ctx, p.network, p.addr)
	if err != nil {
		return err
	}
	return c.Close()
}

func (p dialProbe) String() string { return p.network + "://" + p.addr }

type websocketProbe struct {
	url string
}

// WebSocketProbe succeeds once url answers an upgrade request with any HTTP
// response. A refused handshake still proves the bridge is listening.
func WebSocketProbe(url string) Probe { return websocketProbe{url: url} }

func (p websocketProbe) Probe(ctx context.Context) error {
	d := websocket.Dialer{HandshakeTimeout: probeAttemptTimeout}
	c, resp, err := d.DialContext(ctx, p.url, nil)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		if errors.Is(err, websocket.ErrBadHandshake) && resp != nil {
			return nil
		}
		return err
	}
	return c.Close()
}

func (p websocketProbe) String() string { return p.url }

// probeFor returns the readiness probe for a core role.
func (c Config) probeFor(role Role) Probe {
	switch role {
	case RoleDisplay:
		return DialProbe("unix", c.displaySocket())
	case RoleDesktop:
		return DialProbe("tcp", c.desktopAddr())
	case RoleBridge:
		return WebSocketProbe("ws://" + c.bridgeAddr() + "/")
	}
	return nil
}

// waitReady polls probe with exponential backoff until it succeeds, the
// process exits, ctx is done or timeout elapses.
func waitReady(ctx context.Context, p *ManagedProcess, probe Probe, timeout time.Duration) error {
	if probe == nil || timeout <= 0 {
		return nil
	}
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	backoff := probeMinBackoff
	var last error
	for {
		select {
		case <-p.Done():
			return fmt.Errorf("%w: %s", errExitedBeforeReady, p.Info().ExitErr)
		default:
		}
		attemptCtx, cancel := context.WithTimeout(ctx, probeAttemptTimeout)
		last = probe.Probe(attemptCtx)
		cancel()
		if last == nil {
			return nil
		}
		select {
		case <-p.Done():
			return fmt.Errorf("%w: %s", errExitedBeforeReady, p.Info().ExitErr)
		case <-ctx.Done():
			return ctx.Err()
		case <-deadline.C:
			return probeTimeoutError{target: probe.String(), timeout: timeout, last: last}
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > probeMaxBackoff {
			backoff = probeMaxBackoff
		}
	}
}
