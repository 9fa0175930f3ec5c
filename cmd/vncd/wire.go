package main

import (
	"io"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"vncd/internal/config"
	"vncd/internal/supervisor"
	"vncd/internal/tunnel"
)

const loopback = "127.0.0.1"

// loadConfig resolves defaults, file and environment, then applies flag
// overrides and validates.
func loadConfig(opts *cliOptions) (config.Config, error) {
	cfg, err := config.Resolve(opts.configPath)
	if err != nil {
		return cfg, err
	}
	if opts.logLevel != "" {
		cfg.Log.Level = opts.logLevel
	}
	if opts.logFormat != "" {
		cfg.Log.Format = opts.logFormat
	}
	if opts.addr != "" {
		cfg.Addr = opts.addr
	}
	if origins := splitCSV(opts.corsOrigins); len(origins) > 0 {
		cfg.CORS.Enabled = true
		cfg.CORS.Origins = origins
	}
	return cfg, cfg.Validate()
}

// newLogger builds the root logger. Console format is meant for terminals.
func newLogger(lc config.LogConfig, w io.Writer) zerolog.Logger {
	if lc.Format == "console" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	lvl, err := zerolog.ParseLevel(strings.ToLower(lc.Level))
	if err != nil || lc.Level == "" {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(w).Level(lvl).With().Timestamp().Str("service", "vncd").Logger()
}

// supervisorConfig maps the file/env configuration onto the supervisor.
func supervisorConfig(cfg config.Config, log zerolog.Logger) supervisor.Config {
	sc := supervisor.Config{
		Display: supervisor.DisplaySpec{
			Bin:        cfg.Display.Bin,
			ID:         cfg.Display.ID,
			Resolution: cfg.Display.Resolution,
			Depth:      cfg.Display.Depth,
			ExtraArgs:  cfg.Display.ExtraArgs,
			SocketDir:  cfg.Display.SocketDir,
		},
		Desktop: supervisor.DesktopSpec{
			Bin:       cfg.Desktop.Bin,
			Port:      cfg.Desktop.Port,
			Password:  cfg.Desktop.Password,
			ExtraArgs: cfg.Desktop.ExtraArgs,
		},
		Bridge: supervisor.BridgeSpec{
			Bin:       cfg.Bridge.Bin,
			Port:      cfg.Bridge.Port,
			ExtraArgs: cfg.Bridge.ExtraArgs,
		},
		ReadyTimeout: cfg.ReadyTimeout.Std(),
		StopTimeout:  cfg.StopTimeout.Std(),
		Loopback:     loopback,
		Logger:       log,
	}
	for _, s := range cfg.Sidecars {
		sc.Sidecars = append(sc.Sidecars, supervisor.SidecarSpec{Name: s.Name, Bin: s.Bin, Args: s.Args})
	}
	return sc
}

// tunnelOptions points the tunnel at the bridge's loopback port.
func tunnelOptions(cfg config.Config, log zerolog.Logger) tunnel.Options {
	return tunnel.Options{
		UpstreamAddr: net.JoinHostPort(loopback, strconv.Itoa(cfg.Bridge.Port)),
		UpstreamPath: cfg.Tunnel.UpstreamPath,
		DialTimeout:  cfg.Tunnel.DialTimeout.Std(),
		IdleTimeout:  cfg.Tunnel.IdleTimeout.Std(),
		MaxLifetime:  cfg.Tunnel.MaxLifetime.Std(),
		StartRate:    cfg.Tunnel.StartRate,
		StartBurst:   cfg.Tunnel.StartBurst,
		Logger:       log,
	}
}

// splitCSV splits a comma-separated list, trimming blanks and dropping empties.
func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
