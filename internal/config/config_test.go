package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, "X-Admin-Token", cfg.AdminHeader)
	assert.Equal(t, "private", cfg.Mode)
	assert.Empty(t, cfg.AdminToken)

	assert.Equal(t, ":99", cfg.Display.ID)
	assert.Equal(t, "1280x720", cfg.Display.Resolution)
	assert.Equal(t, 24, cfg.Display.Depth)
	assert.Equal(t, 5900, cfg.Desktop.Port)
	assert.Empty(t, cfg.Desktop.Password)
	assert.Equal(t, 6080, cfg.Bridge.Port)

	assert.Equal(t, "/websockify", cfg.Tunnel.Path)
	assert.Equal(t, 15*time.Second, cfg.KeepaliveInterval.Std())
	assert.Zero(t, cfg.Tunnel.IdleTimeout)
	assert.NoError(t, cfg.Validate())
}

// unsetEnv removes key for the duration of the test.
func unsetEnv(t *testing.T, key string) {
	t.Helper()
	t.Setenv(key, "")
	require.NoError(t, os.Unsetenv(key))
}

func TestApplyEnv(t *testing.T) {
	unsetEnv(t, "PORT")
	unsetEnv(t, "VNCD_ADDR")
	t.Setenv("VNC_PASSWORD", "s3cret")
	t.Setenv("VNC_DISPLAY", ":5")
	t.Setenv("VNC_RESOLUTION", "1024x768")
	t.Setenv("VNC_DEPTH", "16")
	t.Setenv("VNC_PORT", "5999")
	t.Setenv("VNC_WS_PORT", "6999")
	t.Setenv("VNCD_ADMIN_TOKEN", "admin")
	t.Setenv("VNCD_TUNNEL_IDLE_TIMEOUT", "30s")
	t.Setenv("VNCD_CORS_ORIGINS", "https://a.example,https://b.example")

	cfg := Default()
	require.NoError(t, ApplyEnv(&cfg))

	assert.Equal(t, "s3cret", cfg.Desktop.Password)
	assert.Equal(t, ":5", cfg.Display.ID)
	assert.Equal(t, "1024x768", cfg.Display.Resolution)
	assert.Equal(t, 16, cfg.Display.Depth)
	assert.Equal(t, 5999, cfg.Desktop.Port)
	assert.Equal(t, 6999, cfg.Bridge.Port)
	assert.Equal(t, "admin", cfg.AdminToken)
	assert.Equal(t, 30*time.Second, cfg.Tunnel.IdleTimeout.Std())
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORS.Origins)

	// untouched values keep defaults
	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, "Xvfb", cfg.Display.Bin)
}

func TestApplyEnvPortWinsOverAddr(t *testing.T) {
	t.Setenv("PORT", "3000")

	cfg := Default()
	cfg.Addr = ":9000"
	require.NoError(t, ApplyEnv(&cfg))
	assert.Equal(t, ":3000", cfg.Addr)
}

func TestApplyEnvInvalidValue(t *testing.T) {
	t.Setenv("VNC_PORT", "not-a-port")

	cfg := Default()
	assert.Error(t, ApplyEnv(&cfg))
}

func TestResolveFileThenEnv(t *testing.T) {
	d := t.TempDir()
	p := writeTempFile(t, d, "cfg.yaml", "desktop:\n  password: from-file\n  port: 5901\n")
	t.Setenv("VNC_PASSWORD", "from-env")

	cfg, err := Resolve(p)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Desktop.Password)
	assert.Equal(t, 5901, cfg.Desktop.Port)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{name: "missing password is fine", mutate: func(c *Config) { c.Desktop.Password = "" }},
		{name: "bad display", mutate: func(c *Config) { c.Display.ID = "99" }, wantErr: true},
		{name: "zero depth", mutate: func(c *Config) { c.Display.Depth = 0 }, wantErr: true},
		{name: "port out of range", mutate: func(c *Config) { c.Desktop.Port = 70000 }, wantErr: true},
		{name: "shared port", mutate: func(c *Config) { c.Bridge.Port = c.Desktop.Port }, wantErr: true},
		{name: "relative tunnel path", mutate: func(c *Config) { c.Tunnel.Path = "websockify" }, wantErr: true},
		{name: "sidecar without bin", mutate: func(c *Config) { c.Sidecars = []SidecarConfig{{Name: "wm"}} }, wantErr: true},
		{name: "distinct sidecars", mutate: func(c *Config) {
			c.Sidecars = []SidecarConfig{{Name: "wm", Bin: "fluxbox"}, {Bin: "xterm"}}
		}},
		{name: "duplicate sidecar name", mutate: func(c *Config) {
			c.Sidecars = []SidecarConfig{{Name: "wm", Bin: "fluxbox"}, {Name: "wm", Bin: "openbox"}}
		}, wantErr: true},
		{name: "duplicate sidecar bin without name", mutate: func(c *Config) {
			c.Sidecars = []SidecarConfig{{Bin: "xterm"}, {Bin: "xterm", Args: []string{"-e", "top"}}}
		}, wantErr: true},
		{name: "unknown log format", mutate: func(c *Config) { c.Log.Format = "xml" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestDurationText(t *testing.T) {
	var d Duration
	require.NoError(t, d.UnmarshalText([]byte("1m30s")))
	assert.Equal(t, 90*time.Second, d.Std())

	require.NoError(t, d.UnmarshalText([]byte("0")))
	assert.Zero(t, d)

	b, err := Duration(2 * time.Second).MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "2s", string(b))

	assert.Error(t, d.UnmarshalText([]byte("later")))
}
