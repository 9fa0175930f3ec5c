package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Config holds runtime parameters for the service.
type Config struct {
	Addr string `json:"addr" yaml:"addr" toml:"addr" envconfig:"VNCD_ADDR"`
	// Port is the platform-provided listen port; when set it wins over Addr.
	Port int `json:"-" yaml:"-" toml:"-" envconfig:"PORT"`

	AdminToken  string `json:"admin_token" yaml:"admin_token" toml:"admin_token" envconfig:"VNCD_ADMIN_TOKEN"`
	AdminHeader string `json:"admin_header" yaml:"admin_header" toml:"admin_header" envconfig:"VNCD_ADMIN_HEADER"`

	Display  DisplayConfig   `json:"display" yaml:"display" toml:"display"`
	Desktop  DesktopConfig   `json:"desktop" yaml:"desktop" toml:"desktop"`
	Bridge   BridgeConfig    `json:"bridge" yaml:"bridge" toml:"bridge"`
	Sidecars []SidecarConfig `json:"sidecars" yaml:"sidecars" toml:"sidecars" ignored:"true"`

	ReadyTimeout      Duration `json:"ready_timeout" yaml:"ready_timeout" toml:"ready_timeout" envconfig:"VNCD_READY_TIMEOUT"`
	StopTimeout       Duration `json:"stop_timeout" yaml:"stop_timeout" toml:"stop_timeout" envconfig:"VNCD_STOP_TIMEOUT"`
	KeepaliveInterval Duration `json:"keepalive_interval" yaml:"keepalive_interval" toml:"keepalive_interval" envconfig:"VNCD_KEEPALIVE_INTERVAL"`

	Tunnel TunnelConfig `json:"tunnel" yaml:"tunnel" toml:"tunnel"`

	// ViewerDir holds the static browser viewer (vnc.html). Empty disables /novnc.
	ViewerDir string `json:"viewer_dir" yaml:"viewer_dir" toml:"viewer_dir" envconfig:"VNCD_VIEWER_DIR"`

	// Mode is the deployment label reported by GET /.
	Mode string `json:"mode" yaml:"mode" toml:"mode" envconfig:"VNCD_MODE"`

	CORS CORSConfig `json:"cors" yaml:"cors" toml:"cors"`
	Log  LogConfig  `json:"log" yaml:"log" toml:"log"`
}

// DisplayConfig describes the virtual display server (Xvfb).
type DisplayConfig struct {
	Bin        string   `json:"bin" yaml:"bin" toml:"bin" envconfig:"VNC_DISPLAY_BIN"`
	ID         string   `json:"id" yaml:"id" toml:"id" envconfig:"VNC_DISPLAY"`
	Resolution string   `json:"resolution" yaml:"resolution" toml:"resolution" envconfig:"VNC_RESOLUTION"`
	Depth      int      `json:"depth" yaml:"depth" toml:"depth" envconfig:"VNC_DEPTH"`
	ExtraArgs  []string `json:"extra_args" yaml:"extra_args" toml:"extra_args" ignored:"true"`
	// SocketDir is where the display server creates X<n> unix sockets.
	SocketDir string `json:"socket_dir" yaml:"socket_dir" toml:"socket_dir" envconfig:"VNC_X11_SOCKET_DIR"`
}

// DesktopConfig describes the desktop-protocol server (x11vnc).
type DesktopConfig struct {
	Bin       string   `json:"bin" yaml:"bin" toml:"bin" envconfig:"VNC_SERVER_BIN"`
	Port      int      `json:"port" yaml:"port" toml:"port" envconfig:"VNC_PORT"`
	Password  string   `json:"password" yaml:"password" toml:"password" envconfig:"VNC_PASSWORD"`
	ExtraArgs []string `json:"extra_args" yaml:"extra_args" toml:"extra_args" ignored:"true"`
}

// BridgeConfig describes the websocket bridge (websockify).
type BridgeConfig struct {
	Bin       string   `json:"bin" yaml:"bin" toml:"bin" envconfig:"VNC_BRIDGE_BIN"`
	Port      int      `json:"port" yaml:"port" toml:"port" envconfig:"VNC_WS_PORT"`
	ExtraArgs []string `json:"extra_args" yaml:"extra_args" toml:"extra_args" ignored:"true"`
}

// SidecarConfig describes a best-effort helper launched on the display.
type SidecarConfig struct {
	Name string   `json:"name" yaml:"name" toml:"name"`
	Bin  string   `json:"bin" yaml:"bin" toml:"bin"`
	Args []string `json:"args" yaml:"args" toml:"args"`
}

// TunnelConfig configures the public websocket tunnel.
type TunnelConfig struct {
	Path         string   `json:"path" yaml:"path" toml:"path" envconfig:"VNCD_TUNNEL_PATH"`
	UpstreamPath string   `json:"upstream_path" yaml:"upstream_path" toml:"upstream_path" envconfig:"VNCD_TUNNEL_UPSTREAM_PATH"`
	DialTimeout  Duration `json:"dial_timeout" yaml:"dial_timeout" toml:"dial_timeout" envconfig:"VNCD_TUNNEL_DIAL_TIMEOUT"`
	// IdleTimeout closes sessions without traffic in either direction. Zero disables.
	IdleTimeout Duration `json:"idle_timeout" yaml:"idle_timeout" toml:"idle_timeout" envconfig:"VNCD_TUNNEL_IDLE_TIMEOUT"`
	// MaxLifetime caps a session's total duration. Zero disables.
	MaxLifetime Duration `json:"max_lifetime" yaml:"max_lifetime" toml:"max_lifetime" envconfig:"VNCD_TUNNEL_MAX_LIFETIME"`
	// StartRate limits lazy stack starts per second. Zero means unlimited.
	StartRate  float64 `json:"start_rate" yaml:"start_rate" toml:"start_rate" envconfig:"VNCD_TUNNEL_START_RATE"`
	StartBurst int     `json:"start_burst" yaml:"start_burst" toml:"start_burst" envconfig:"VNCD_TUNNEL_START_BURST"`
}

// CORSConfig is opt-in; when disabled no CORS middleware is installed.
type CORSConfig struct {
	Enabled bool     `json:"enabled" yaml:"enabled" toml:"enabled" envconfig:"VNCD_CORS_ENABLED"`
	Origins []string `json:"origins" yaml:"origins" toml:"origins" envconfig:"VNCD_CORS_ORIGINS"`
}

// LogConfig selects the root logger level and output format (json|console).
type LogConfig struct {
	Level  string `json:"level" yaml:"level" toml:"level" envconfig:"VNCD_LOG_LEVEL"`
	Format string `json:"format" yaml:"format" toml:"format" envconfig:"VNCD_LOG_FORMAT"`
}

// Default returns the configuration used when nothing overrides it.
// The VNC password and admin token have no default.
func Default() Config {
	return Config{
		Addr:        ":8080",
		AdminHeader: "X-Admin-Token",
		Display: DisplayConfig{
			Bin:        "Xvfb",
			ID:         ":99",
			Resolution: "1280x720",
			Depth:      24,
			SocketDir:  "/tmp/.X11-unix",
		},
		Desktop: DesktopConfig{
			Bin:       "x11vnc",
			Port:      5900,
			ExtraArgs: []string{"-forever", "-shared", "-noxdamage", "-quiet"},
		},
		Bridge: BridgeConfig{
			Bin:  "websockify",
			Port: 6080,
		},
		ReadyTimeout:      Duration(10 * time.Second),
		StopTimeout:       Duration(2 * time.Second),
		KeepaliveInterval: Duration(15 * time.Second),
		Tunnel: TunnelConfig{
			Path:         "/websockify",
			UpstreamPath: "/",
			DialTimeout:  Duration(5 * time.Second),
		},
		Mode: "private",
		Log:  LogConfig{Level: "info", Format: "json"},
	}
}

// Validate reports configuration that can never produce a working service.
// A missing VNC password is deliberately not checked here: the server still
// boots and the supervisor refuses to start the stack.
func (c Config) Validate() error {
	var errs []error
	if c.Addr == "" {
		errs = append(errs, errors.New("addr is empty"))
	}
	if strings.TrimSpace(c.Display.ID) == "" || !strings.HasPrefix(c.Display.ID, ":") {
		errs = append(errs, fmt.Errorf("display id %q must look like :N", c.Display.ID))
	}
	if c.Display.Depth <= 0 {
		errs = append(errs, fmt.Errorf("display depth %d must be positive", c.Display.Depth))
	}
	if !validPort(c.Desktop.Port) {
		errs = append(errs, fmt.Errorf("desktop port %d out of range", c.Desktop.Port))
	}
	if !validPort(c.Bridge.Port) {
		errs = append(errs, fmt.Errorf("bridge port %d out of range", c.Bridge.Port))
	}
	if c.Desktop.Port == c.Bridge.Port {
		errs = append(errs, fmt.Errorf("desktop and bridge share port %d", c.Bridge.Port))
	}
	if !strings.HasPrefix(c.Tunnel.Path, "/") {
		errs = append(errs, fmt.Errorf("tunnel path %q must start with /", c.Tunnel.Path))
	}
	if !strings.HasPrefix(c.Tunnel.UpstreamPath, "/") {
		errs = append(errs, fmt.Errorf("tunnel upstream path %q must start with /", c.Tunnel.UpstreamPath))
	}
	seen := make(map[string]int, len(c.Sidecars))
	for i, s := range c.Sidecars {
		if s.Bin == "" {
			errs = append(errs, fmt.Errorf("sidecar %d (%s) has no bin", i, s.Name))
			continue
		}
		name := s.Name
		if name == "" {
			name = s.Bin
		}
		if j, dup := seen[name]; dup {
			errs = append(errs, fmt.Errorf("sidecars %d and %d share the name %q", j, i, name))
			continue
		}
		seen[name] = i
	}
	switch c.Log.Format {
	case "", "json", "console":
	default:
		errs = append(errs, fmt.Errorf("unknown log format %q", c.Log.Format))
	}
	return errors.Join(errs...)
}

func validPort(p int) bool { return p > 0 && p <= 65535 }

// Duration is a time.Duration that reads and writes as text ("10s") in every
// supported config format and in the environment.
type Duration time.Duration

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

func (d *Duration) UnmarshalText(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "" || s == "0" {
		*d = 0
		return nil
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(v)
	return nil
}
