package supervisor

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"vncd/pkg/types"
)

// sidecarPool runs helper processes in their own failure domain: spawn errors
// and exits are recorded and logged but never reach the pipeline state.
type sidecarPool struct {
	mu    sync.Mutex
	procs []*ManagedProcess
	// errs[i] is the spawn error of procs[i]; names may repeat.
	errs []string
}

func newSidecarPool() *sidecarPool {
	return &sidecarPool{}
}

func (sp *sidecarPool) startAll(cfg Config, log zerolog.Logger, onExit func(exitEvent)) {
	for _, s := range cfg.Sidecars {
		name := s.Name
		if name == "" {
			name = s.Bin
		}
		p := newManagedProcess(RoleSidecar, name, cfg.sidecarSpec(s), log)
		sp.mu.Lock()
		idx := len(sp.procs)
		sp.procs = append(sp.procs, p)
		sp.errs = append(sp.errs, "")
		sp.mu.Unlock()
		if err := p.spawn(onExit); err != nil {
			log.Warn().Err(err).Str("sidecar", name).Msg("sidecar failed to start; continuing")
			sp.record(idx, err.Error())
			spawnsTotal.WithLabelValues(string(RoleSidecar), "error").Inc()
			continue
		}
		spawnsTotal.WithLabelValues(string(RoleSidecar), "ok").Inc()
	}
}

func (sp *sidecarPool) record(idx int, msg string) {
	sp.mu.Lock()
	sp.errs[idx] = msg
	sp.mu.Unlock()
}

// stopAll terminates every helper; errors are logged only.
func (sp *sidecarPool) stopAll(timeout time.Duration, log zerolog.Logger) {
	sp.mu.Lock()
	procs := append([]*ManagedProcess(nil), sp.procs...)
	sp.mu.Unlock()
	for i := len(procs) - 1; i >= 0; i-- {
		if err := procs[i].terminate(timeout); err != nil {
			log.Error().Err(err).Str("sidecar", procs[i].name).Msg("sidecar stop failed")
		}
	}
}

func (sp *sidecarPool) status() []types.SidecarStatus {
	sp.mu.Lock()
	defer sp.mu.Unlock()
	out := make([]types.SidecarStatus, 0, len(sp.procs))
	for i, p := range sp.procs {
		info := p.Info()
		st := types.SidecarStatus{Name: info.Name, Running: p.Alive(), PID: info.PID, Error: sp.errs[i]}
		if st.Error == "" {
			st.Error = info.ExitErr
		}
		out = append(out, st)
	}
	return out
}
