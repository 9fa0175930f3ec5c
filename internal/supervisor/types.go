package supervisor

import (
	"time"

	"vncd/pkg/types"
)

// State represents the lifecycle state of a managed process.
type State string

const (
	StateNotStarted State = "not_started"
	StateRunning    State = "running"
	StateStopped    State = "stopped"
	StateFailed     State = "failed"
)

// Role names a stage of the pipeline.
type Role string

const (
	RoleDisplay Role = "display"
	RoleDesktop Role = "desktop"
	RoleBridge  Role = "bridge"
	// RoleSidecar is used for helper processes; they never count towards Running.
	RoleSidecar Role = "sidecar"
)

// coreRoles lists the pipeline in start order.
var coreRoles = []Role{RoleDisplay, RoleDesktop, RoleBridge}

// LaunchSpec is everything needed to spawn one external program.
type LaunchSpec struct {
	Program string
	Args    []string
	// Env entries (KEY=VALUE) appended to the inherited environment.
	Env []string
	// Secrets are replaced by "***" when the command line is logged.
	Secrets []string
}

// ProcessInfo is a point-in-time copy of a ManagedProcess.
type ProcessInfo struct {
	Role      Role
	Name      string
	State     State
	PID       int
	StartedAt time.Time
	ExitErr   string
}

// StartResult reports what Start did.
type StartResult struct {
	AlreadyRunning bool
	Started        bool
	Status         types.VNCStatus
}

// StopResult reports the state after Stop.
type StopResult struct {
	Stopped bool
	Status  types.VNCStatus
}
