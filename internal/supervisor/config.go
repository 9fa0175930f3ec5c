package supervisor

import (
	"time"

	"github.com/rs/zerolog"
)

// Defaults applied when corresponding Config fields are unset.
const (
	defaultStopTimeout = 2 * time.Second
	defaultSocketDir   = "/tmp/.X11-unix"
	defaultLoopback    = "127.0.0.1"
)

// DisplaySpec configures the virtual display server.
type DisplaySpec struct {
	Bin        string
	ID         string
	Resolution string
	Depth      int
	ExtraArgs  []string
	Env        []string
	// SocketDir is probed for the X<n> socket of the display.
	SocketDir string
}

// DesktopSpec configures the desktop-protocol server.
type DesktopSpec struct {
	Bin       string
	Port      int
	Password  string
	ExtraArgs []string
	Env       []string
}

// BridgeSpec configures the websocket bridge.
type BridgeSpec struct {
	Bin       string
	Port      int
	ExtraArgs []string
	Env       []string
}

// SidecarSpec configures a best-effort helper started on the display.
type SidecarSpec struct {
	Name string
	Bin  string
	Args []string
	Env  []string
}

// Config encapsulates all tunables for Supervisor construction.
type Config struct {
	Display  DisplaySpec
	Desktop  DesktopSpec
	Bridge   BridgeSpec
	Sidecars []SidecarSpec
	// ReadyTimeout bounds each stage's readiness probe. Zero disables probes:
	// stages are spawned back to back without waiting.
	ReadyTimeout time.Duration
	// StopTimeout bounds the wait after SIGTERM before escalating to SIGKILL.
	StopTimeout time.Duration
	// Loopback is the address the bridge forwards to and probes dial.
	Loopback  string
	Logger    zerolog.Logger
	Publisher EventPublisher
}

func (c Config) withDefaults() Config {
	if c.StopTimeout <= 0 {
		c.StopTimeout = defaultStopTimeout
	}
	if c.Display.SocketDir == "" {
		c.Display.SocketDir = defaultSocketDir
	}
	if c.Loopback == "" {
		c.Loopback = defaultLoopback
	}
	if c.Publisher == nil {
		c.Publisher = noopPublisher{}
	}
	return c
}
