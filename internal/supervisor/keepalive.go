package supervisor

import (
	"context"
	"time"
)

// RunKeepalive logs the aggregate status every interval until ctx is done.
// A non-positive interval returns immediately.
func (s *Supervisor) RunKeepalive(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			st := s.Status()
			s.log.Info().
				Bool("running", st.Running).
				Str("display", st.Display).
				Int("vnc_port", st.VNCPort).
				Int("ws_port", st.WSPort).
				Msg("keepalive")
		}
	}
}
