package supervisor

import (
	"errors"
	"fmt"
	"time"
)

// configError signals a configuration problem detected before anything was spawned.
type configError struct{ msg string }

func (e configError) Error() string { return "configuration error: " + e.msg }

// ErrConfig constructs a configuration error.
func ErrConfig(msg string) error { return configError{msg: msg} }

// IsConfigError reports whether err is (or wraps) a configuration error.
func IsConfigError(err error) bool {
	var ce configError
	return errors.As(err, &ce)
}

// spawnError signals that a stage could not be brought up: the program was
// not found, exited early or never became ready.
type spawnError struct {
	role Role
	err  error
}

func (e spawnError) Error() string { return fmt.Sprintf("spawn %s: %v", e.role, e.err) }

func (e spawnError) Unwrap() error { return e.err }

// ErrSpawn wraps err as a spawn failure of role.
func ErrSpawn(role Role, err error) error { return spawnError{role: role, err: err} }

// IsSpawnError reports whether err is (or wraps) a spawn failure.
func IsSpawnError(err error) bool {
	var se spawnError
	return errors.As(err, &se)
}

// SpawnRole returns the failing role of a spawn error.
func SpawnRole(err error) (Role, bool) {
	var se spawnError
	if errors.As(err, &se) {
		return se.role, true
	}
	return "", false
}

// probeTimeoutError signals a readiness probe that never succeeded in time.
type probeTimeoutError struct {
	target  string
	timeout time.Duration
	last    error
}

func (e probeTimeoutError) Error() string {
	return fmt.Sprintf("%s not ready after %s: %v", e.target, e.timeout, e.last)
}

func (e probeTimeoutError) Unwrap() error { return e.last }

// IsProbeTimeout reports whether err is (or wraps) a readiness timeout.
func IsProbeTimeout(err error) bool {
	var pe probeTimeoutError
	return errors.As(err, &pe)
}

// errExitedBeforeReady is returned by readiness waits when the process died first.
var errExitedBeforeReady = errors.New("exited before ready")
