package types

// ProcessStatus describes one managed external process for /status.
type ProcessStatus struct {
	// Role of the process in the pipeline (display, desktop, bridge).
	// example: display
	Role string `json:"role" example:"display"`
	// Lifecycle state (not_started, running, stopped, failed).
	// example: running
	State string `json:"state" example:"running"`
	// Process ID while a handle exists.
	// example: 4242
	PID int `json:"pid,omitempty" example:"4242"`
	// Program invoked for this role.
	// example: Xvfb
	Program string `json:"program" example:"Xvfb"`
	// Spawn time (unix seconds); zero when never spawned.
	// example: 1700000000
	StartedAt int64 `json:"started_at_unix,omitempty" example:"1700000000"`
	// Exit error reported by the last handle, if it failed.
	ExitError string `json:"exit_error,omitempty"`
}

// SidecarStatus describes a best-effort helper process.
type SidecarStatus struct {
	// Configured sidecar name.
	// example: wm
	Name string `json:"name" example:"wm"`
	// example: true
	Running bool `json:"running" example:"true"`
	// example: 4250
	PID int `json:"pid,omitempty" example:"4250"`
	// Last spawn or exit error, recorded but never fatal.
	Error string `json:"error,omitempty"`
}

// VNCStatus is the aggregate stack view consumed by health and admin endpoints.
type VNCStatus struct {
	// True iff display, desktop server and bridge are all alive.
	// example: true
	Running bool `json:"running" example:"true"`
	// X display identifier.
	// example: :99
	Display string `json:"display" example:":99"`
	// Internal VNC (desktop-protocol) port.
	// example: 5900
	VNCPort int `json:"vnc_port" example:"5900"`
	// Bridge (websocket) port.
	// example: 6080
	WSPort int `json:"ws_port" example:"6080"`
}

// StartResponse is returned by POST /_admin/vnc/start.
type StartResponse struct {
	OK             bool `json:"ok"`
	AlreadyRunning bool `json:"already_running,omitempty"`
	Started        bool `json:"started,omitempty"`
	VNCStatus
}

// StopResponse is returned by POST /_admin/vnc/stop.
type StopResponse struct {
	OK      bool `json:"ok"`
	Stopped bool `json:"stopped"`
	VNCStatus
}

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	OK bool `json:"ok"`
	// example: 1234
	PID int `json:"pid" example:"1234"`
	// Process uptime in seconds.
	// example: 12.5
	Uptime float64   `json:"uptime" example:"12.5"`
	VNC    VNCStatus `json:"vnc"`
}

// SanityReport describes whether required external programs resolve.
type SanityReport struct {
	OK       bool              `json:"ok"`
	Programs map[string]string `json:"programs,omitempty"`
	Missing  []string          `json:"missing,omitempty"`
}

// StatusResponse is returned by GET /status.
type StatusResponse struct {
	VNCStatus
	// Per-process detail in start order.
	Processes []ProcessStatus `json:"processes"`
	// Helper processes, outside the aggregate running flag.
	Sidecars []SidecarStatus `json:"sidecars,omitempty"`
	// Identifier of the current stack lifecycle; empty before the first start.
	// example: 9b2f6a8e-9a4e-4c36-9d59-0f3b2f1f9a10
	Lifecycle string `json:"lifecycle,omitempty"`
	// Last start error observed by the supervisor.
	LastError string `json:"last_error,omitempty"`
	// Currently open tunnel sessions.
	// example: 1
	TunnelSessions int `json:"tunnel_sessions" example:"1"`
	// Uptime of the server in seconds.
	// example: 3600
	UptimeSeconds int64 `json:"uptime_seconds" example:"3600"`
	// Server time in unix seconds.
	// example: 1700000000
	ServerTimeUnix int64         `json:"server_time_unix" example:"1700000000"`
	Sanity         *SanityReport `json:"sanity,omitempty"`
}

// ErrorResponse is the JSON error payload used by admin endpoints.
type ErrorResponse struct {
	// example: false
	OK bool `json:"ok" example:"false"`
	// Error message.
	// example: unauthorized
	Error string `json:"error" example:"unauthorized"`
}

// ServiceInfo is returned by GET /.
type ServiceInfo struct {
	OK bool `json:"ok"`
	// example: vncd
	Service string `json:"service" example:"vncd"`
	// Deployment mode label.
	// example: private
	Mode string `json:"mode" example:"private"`
}
