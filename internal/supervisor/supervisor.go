package supervisor

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Supervisor owns the display, desktop-server and bridge handles. Start and
// Stop are serialized: one transition is in flight at a time.
type Supervisor struct {
	cfg Config
	log zerolog.Logger
	pub EventPublisher

	opMu sync.Mutex

	mu        sync.RWMutex
	display   *ManagedProcess
	desktop   *ManagedProcess
	bridge    *ManagedProcess
	sidecars  *sidecarPool
	lifecycle string
	lastErr   string
}

// New constructs a Supervisor from Config. Nothing is spawned until Start.
func New(cfg Config) *Supervisor {
	cfg = cfg.withDefaults()
	return &Supervisor{
		cfg: cfg,
		log: cfg.Logger.With().Str("component", "supervisor").Logger(),
		pub: cfg.Publisher,
	}
}

// Start brings the pipeline up in dependency order. It fails with a
// configuration error, spawning nothing, when the VNC password is unset. When
// the stack is already fully running it returns AlreadyRunning. Any other
// start supersedes the previous handles. On a spawn failure the stages that
// did come up are stopped again.
func (s *Supervisor) Start(ctx context.Context) (StartResult, error) {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	if strings.TrimSpace(s.cfg.Desktop.Password) == "" {
		err := ErrConfig("VNC password is not set")
		s.log.Error().Err(err).Msg("start refused")
		s.stopLocked()
		s.setLastErr(err)
		transitionsTotal.WithLabelValues("start", "config_error").Inc()
		return StartResult{Status: s.Status()}, err
	}
	if st := s.Status(); st.Running {
		transitionsTotal.WithLabelValues("start", "already_running").Inc()
		return StartResult{AlreadyRunning: true, Status: st}, nil
	}

	// a partially alive stack from an earlier cycle is torn down first
	s.stopLocked()

	lifecycle := uuid.NewString()
	log := s.log.With().Str("lifecycle", lifecycle).Logger()
	display := newManagedProcess(RoleDisplay, "", s.cfg.displaySpec(), log)
	desktop := newManagedProcess(RoleDesktop, "", s.cfg.desktopSpec(), log)
	bridge := newManagedProcess(RoleBridge, "", s.cfg.bridgeSpec(), log)
	sidecars := newSidecarPool()

	s.mu.Lock()
	s.display, s.desktop, s.bridge, s.sidecars = display, desktop, bridge, sidecars
	s.lifecycle = lifecycle
	s.lastErr = ""
	s.mu.Unlock()

	log.Info().Str("display", s.cfg.Display.ID).Int("vnc_port", s.cfg.Desktop.Port).Int("ws_port", s.cfg.Bridge.Port).Msg("starting stack")

	if err := s.bringUp(ctx, display); err != nil {
		return s.abortStart(err)
	}
	sidecars.startAll(s.cfg, log, s.handleExit)
	if err := s.bringUp(ctx, desktop); err != nil {
		return s.abortStart(err)
	}
	if err := s.bringUp(ctx, bridge); err != nil {
		return s.abortStart(err)
	}

	st := s.Status()
	stackRunning.Set(1)
	transitionsTotal.WithLabelValues("start", "ok").Inc()
	s.pub.Publish(Event{Name: EventStackStarted, Fields: map[string]any{"lifecycle": lifecycle}})
	log.Info().Msg("stack running")
	return StartResult{Started: true, Status: st}, nil
}

// bringUp spawns p and waits for its readiness probe.
func (s *Supervisor) bringUp(ctx context.Context, p *ManagedProcess) error {
	s.pub.Publish(Event{Name: EventSpawnStart, Role: p.role, Fields: map[string]any{"program": p.spec.Program}})
	if err := p.spawn(s.handleExit); err != nil {
		spawnsTotal.WithLabelValues(string(p.role), "error").Inc()
		s.pub.Publish(Event{Name: EventSpawnError, Role: p.role, Fields: map[string]any{"error": err.Error()}})
		return ErrSpawn(p.role, err)
	}
	probe := s.cfg.probeFor(p.role)
	if err := waitReady(ctx, p, probe, s.cfg.ReadyTimeout); err != nil {
		spawnsTotal.WithLabelValues(string(p.role), "not_ready").Inc()
		s.pub.Publish(Event{Name: EventSpawnError, Role: p.role, Fields: map[string]any{"error": err.Error(), "pid": p.Info().PID}})
		return ErrSpawn(p.role, err)
	}
	spawnsTotal.WithLabelValues(string(p.role), "ok").Inc()
	fields := map[string]any{"pid": p.Info().PID}
	if probe != nil && s.cfg.ReadyTimeout > 0 {
		fields["probe"] = probe.String()
	}
	s.pub.Publish(Event{Name: EventSpawnReady, Role: p.role, Fields: fields})
	return nil
}

func (s *Supervisor) abortStart(err error) (StartResult, error) {
	s.log.Error().Err(err).Msg("start failed; stopping spawned stages")
	s.stopLocked()
	s.setLastErr(err)
	transitionsTotal.WithLabelValues("start", "spawn_error").Inc()
	return StartResult{Status: s.Status()}, err
}

// Stop terminates bridge, desktop server, sidecars and display, in that order.
// It is a no-op when nothing is running and always clears the handles.
func (s *Supervisor) Stop(ctx context.Context) StopResult {
	s.opMu.Lock()
	defer s.opMu.Unlock()
	s.stopLocked()
	transitionsTotal.WithLabelValues("stop", "ok").Inc()
	return StopResult{Stopped: true, Status: s.Status()}
}

// stopLocked must be called with opMu held.
func (s *Supervisor) stopLocked() {
	s.mu.RLock()
	display, desktop, bridge, sidecars := s.display, s.desktop, s.bridge, s.sidecars
	s.mu.RUnlock()
	if display == nil && desktop == nil && bridge == nil && sidecars == nil {
		return
	}
	s.log.Info().Msg("stopping stack")
	for _, p := range []*ManagedProcess{bridge, desktop} {
		s.terminate(p)
	}
	if sidecars != nil {
		sidecars.stopAll(s.cfg.StopTimeout, s.log)
	}
	s.terminate(display)

	s.mu.Lock()
	s.display, s.desktop, s.bridge, s.sidecars = nil, nil, nil, nil
	s.mu.Unlock()
	stackRunning.Set(0)
	s.pub.Publish(Event{Name: EventStackStopped})
}

func (s *Supervisor) terminate(p *ManagedProcess) {
	if p == nil {
		return
	}
	if err := p.terminate(s.cfg.StopTimeout); err != nil {
		s.log.Error().Err(err).Str("proc", p.name).Msg("termination error")
	}
	if pid := p.Info().PID; pid != 0 {
		s.pub.Publish(Event{Name: EventStop, Role: p.role, Fields: map[string]any{"pid": pid}})
	}
}

// handleExit receives exit events from process watchers.
func (s *Supervisor) handleExit(ev exitEvent) {
	exitsTotal.WithLabelValues(string(ev.role), boolLabel(ev.expected)).Inc()
	fields := map[string]any{"pid": ev.pid, "expected": ev.expected}
	if ev.err != nil {
		fields["error"] = ev.err.Error()
	}
	s.pub.Publish(Event{Name: EventExit, Role: ev.role, Fields: fields})
	if ev.expected {
		s.log.Info().Str("proc", ev.name).Int("pid", ev.pid).Msg("exited")
		return
	}
	s.log.Error().Err(ev.err).Str("proc", ev.name).Int("pid", ev.pid).Msg("exited unexpectedly")
	if ev.role == RoleSidecar {
		return
	}
	stackRunning.Set(0)
	s.mu.Lock()
	s.lastErr = string(ev.role) + " exited: " + errString(ev.err)
	s.mu.Unlock()
}

func (s *Supervisor) setLastErr(err error) {
	s.mu.Lock()
	s.lastErr = errString(err)
	s.mu.Unlock()
}

// Config returns the effective configuration (defaults applied).
func (s *Supervisor) Config() Config { return s.cfg }

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
