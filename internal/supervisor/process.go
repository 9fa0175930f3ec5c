package supervisor

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// waitDelay bounds how long Wait keeps copying stderr after the child exits
// when a grandchild still holds the pipe open.
const waitDelay = time.Second

// exitEvent is pushed by a process watcher when the program terminates.
type exitEvent struct {
	role     Role
	name     string
	pid      int
	err      error
	expected bool
}

// ManagedProcess wraps one spawned external program.
type ManagedProcess struct {
	role Role
	name string
	spec LaunchSpec
	log  zerolog.Logger

	mu       sync.Mutex
	state    State
	cmd      *exec.Cmd
	pid      int
	started  time.Time
	stopping bool
	exitErr  error
	done     chan struct{}
}

func newManagedProcess(role Role, name string, spec LaunchSpec, log zerolog.Logger) *ManagedProcess {
	if name == "" {
		name = string(role)
	}
	return &ManagedProcess{
		role:  role,
		name:  name,
		spec:  spec,
		log:   log.With().Str("proc", name).Logger(),
		state: StateNotStarted,
		done:  make(chan struct{}),
	}
}

// spawn starts the program and installs the exit watcher. It does not wait for
// readiness. onExit is called once from the watcher goroutine after the state
// has been updated.
func (p *ManagedProcess) spawn(onExit func(exitEvent)) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state != StateNotStarted {
		return fmt.Errorf("%s already spawned (state %s)", p.name, p.state)
	}
	cmd := exec.Command(p.spec.Program, p.spec.Args...)
	cmd.Env = append(os.Environ(), p.spec.Env...)
	cmd.SysProcAttr = sysProcAttr()
	cmd.Stderr = &stderrLineWriter{log: p.log}
	cmd.WaitDelay = waitDelay
	if err := cmd.Start(); err != nil {
		p.state = StateFailed
		p.exitErr = err
		close(p.done)
		return err
	}
	p.cmd = cmd
	p.pid = cmd.Process.Pid
	p.started = time.Now()
	p.state = StateRunning
	p.log.Info().Int("pid", p.pid).Str("cmd", p.spec.commandLine()).Msg("spawned")

	go p.watch(cmd, onExit)
	return nil
}

func (p *ManagedProcess) watch(cmd *exec.Cmd, onExit func(exitEvent)) {
	err := cmd.Wait()
	if w, ok := cmd.Stderr.(*stderrLineWriter); ok {
		w.flush()
	}
	p.mu.Lock()
	expected := p.stopping
	if expected {
		p.state = StateStopped
	} else {
		p.state = StateFailed
		if err == nil {
			err = errors.New("exited with status 0")
		}
	}
	p.exitErr = err
	ev := exitEvent{role: p.role, name: p.name, pid: p.pid, err: err, expected: expected}
	close(p.done)
	p.mu.Unlock()
	if onExit != nil {
		onExit(ev)
	}
}

// Alive reports whether the process has a pid, has not exited and has not
// been asked to terminate.
func (p *ManagedProcess) Alive() bool {
	if p == nil {
		return false
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state == StateRunning && !p.stopping
}

// Done is closed once the process has exited (or failed to spawn).
func (p *ManagedProcess) Done() <-chan struct{} { return p.done }

// Info returns a point-in-time copy of the handle.
func (p *ManagedProcess) Info() ProcessInfo {
	p.mu.Lock()
	defer p.mu.Unlock()
	info := ProcessInfo{Role: p.role, Name: p.name, State: p.state, PID: p.pid, StartedAt: p.started}
	if p.state == StateRunning && p.stopping {
		info.State = StateStopped
	}
	if p.exitErr != nil && p.state == StateFailed {
		info.ExitErr = p.exitErr.Error()
	}
	return info
}

// terminate sends SIGTERM to the process group, waits up to timeout for the
// exit, then escalates to SIGKILL. Safe to call on a handle that never spawned
// or already exited.
func (p *ManagedProcess) terminate(timeout time.Duration) error {
	p.mu.Lock()
	if p.cmd == nil || p.state != StateRunning {
		p.mu.Unlock()
		return nil
	}
	p.stopping = true
	proc := p.cmd.Process
	p.mu.Unlock()

	p.log.Info().Int("pid", proc.Pid).Msg("terminating")
	sigErr := terminateProcess(proc)
	if sigErr != nil {
		p.log.Error().Err(sigErr).Int("pid", proc.Pid).Msg("sigterm failed")
	}
	select {
	case <-p.done:
		return sigErr
	case <-time.After(timeout):
	}
	p.log.Warn().Int("pid", proc.Pid).Dur("after", timeout).Msg("did not exit, killing")
	if err := killProcess(proc); err != nil {
		return fmt.Errorf("kill %s: %w", p.name, err)
	}
	select {
	case <-p.done:
		return sigErr
	case <-time.After(timeout):
		return fmt.Errorf("%s pid %d still running after SIGKILL", p.name, proc.Pid)
	}
}

// stderrLineWriter forwards complete stderr lines to the logger. Output is
// never inspected for control decisions.
type stderrLineWriter struct {
	mu  sync.Mutex
	log zerolog.Logger
	buf []byte
}

func (w *stderrLineWriter) Write(b []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.buf = append(w.buf, b...)
	for {
		idx := bytes.IndexByte(w.buf, '\n')
		if idx < 0 {
			break
		}
		w.emit(w.buf[:idx])
		w.buf = w.buf[idx+1:]
	}
	// keep a runaway line from growing without bound
	if len(w.buf) > 64<<10 {
		w.emit(w.buf)
		w.buf = nil
	}
	return len(b), nil
}

func (w *stderrLineWriter) flush() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.buf) > 0 {
		w.emit(w.buf)
		w.buf = nil
	}
}

func (w *stderrLineWriter) emit(line []byte) {
	line = bytes.TrimRight(line, "\r")
	if len(bytes.TrimSpace(line)) == 0 {
		return
	}
	w.log.Info().Str("stream", "stderr").Msg(string(line))
}
