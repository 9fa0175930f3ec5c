package supervisor

import (
	"vncd/pkg/types"
)

// aggregate derives the stack view from per-process liveness. It holds no
// state: running is true iff all three core stages are alive.
func aggregate(display, desktop, bridge bool, cfg Config) types.VNCStatus {
	return types.VNCStatus{
		Running: display && desktop && bridge,
		Display: cfg.Display.ID,
		VNCPort: cfg.Desktop.Port,
		WSPort:  cfg.Bridge.Port,
	}
}

// Status returns the aggregate view, computed from current handle liveness.
func (s *Supervisor) Status() types.VNCStatus {
	s.mu.RLock()
	d, v, b := s.display, s.desktop, s.bridge
	s.mu.RUnlock()
	return aggregate(d.Alive(), v.Alive(), b.Alive(), s.cfg)
}

// Running is shorthand for Status().Running.
func (s *Supervisor) Running() bool { return s.Status().Running }

// Ready reports whether the stack is fully running; used by /readyz.
func (s *Supervisor) Ready() bool { return s.Running() }

// Processes returns per-role detail in start order.
func (s *Supervisor) Processes() []ProcessInfo {
	s.mu.RLock()
	handles := map[Role]*ManagedProcess{RoleDisplay: s.display, RoleDesktop: s.desktop, RoleBridge: s.bridge}
	hadLifecycle := s.lifecycle != ""
	s.mu.RUnlock()
	out := make([]ProcessInfo, 0, len(coreRoles))
	for _, role := range coreRoles {
		if p := handles[role]; p != nil {
			out = append(out, p.Info())
			continue
		}
		st := StateNotStarted
		if hadLifecycle {
			st = StateStopped
		}
		out = append(out, ProcessInfo{Role: role, Name: string(role), State: st})
	}
	return out
}

// Detail builds the supervisor part of the /status response. Tunnel and
// uptime fields are filled in by the caller.
func (s *Supervisor) Detail() types.StatusResponse {
	resp := types.StatusResponse{VNCStatus: s.Status()}
	for _, info := range s.Processes() {
		ps := types.ProcessStatus{
			Role:      string(info.Role),
			State:     string(info.State),
			PID:       info.PID,
			Program:   s.programFor(info.Role),
			ExitError: info.ExitErr,
		}
		if !info.StartedAt.IsZero() {
			ps.StartedAt = info.StartedAt.Unix()
		}
		resp.Processes = append(resp.Processes, ps)
	}
	s.mu.RLock()
	resp.Lifecycle = s.lifecycle
	resp.LastError = s.lastErr
	sc := s.sidecars
	s.mu.RUnlock()
	if sc != nil {
		resp.Sidecars = sc.status()
	}
	return resp
}

func (s *Supervisor) programFor(role Role) string {
	switch role {
	case RoleDisplay:
		return s.cfg.Display.Bin
	case RoleDesktop:
		return s.cfg.Desktop.Bin
	case RoleBridge:
		return s.cfg.Bridge.Bin
	}
	return ""
}
