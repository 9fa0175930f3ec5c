package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"vncd/internal/config"
	"vncd/internal/httpapi"
	"vncd/internal/supervisor"
	"vncd/internal/tunnel"
)

const shutdownTimeout = 5 * time.Second

func runServe(parent context.Context, cfg config.Config, opts *cliOptions) error {
	log := newLogger(cfg.Log, opts.stderr)
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sup := supervisor.New(supervisorConfig(cfg, log))
	tunOpts := tunnelOptions(cfg, log)
	tunOpts.BaseContext = ctx
	tun := tunnel.New(sup, tunOpts)

	httpapi.SetLogger(log.With().Str("component", "http").Logger())
	httpapi.SetRequestLogLevel(requestLogLevel(cfg.Log.Level))
	httpapi.SetBaseContext(ctx)
	httpapi.SetCORSOptions(cfg.CORS.Enabled, cfg.CORS.Origins, nil, nil)

	mux := httpapi.NewMux(sup, tun, httpapi.Options{
		TunnelPath:  cfg.Tunnel.Path,
		AdminToken:  cfg.AdminToken,
		AdminHeader: cfg.AdminHeader,
		ViewerDir:   cfg.ViewerDir,
		Mode:        cfg.Mode,
		StartedAt:   time.Now(),
	})
	srv := &http.Server{Addr: cfg.Addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	logBoot(log, cfg)
	if cfg.AdminToken == "" {
		log.Warn().Msg("admin token not set; admin endpoints reject every request")
	}
	if cfg.Desktop.Password == "" {
		log.Warn().Msg("VNC password not set; the stack will refuse to start")
	}

	go sup.RunKeepalive(ctx, cfg.KeepaliveInterval.Std())
	if opts.startAtBoot {
		go func() {
			if _, err := sup.Start(ctx); err != nil {
				log.Error().Err(err).Msg("boot start failed")
			}
		}()
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.Addr).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	var serveErr error
	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown requested")
	case serveErr = <-errCh:
		if serveErr != nil {
			log.Error().Err(serveErr).Msg("server error")
		}
	}

	// Graceful shutdown: stop accepting requests, then tear the stack down.
	shCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown error")
	}
	sup.Stop(shCtx)
	log.Info().Msg("bye")
	return serveErr
}

// requestLogLevel maps the root level onto the HTTP per-request default.
func requestLogLevel(level string) string {
	switch level {
	case "debug":
		return "debug"
	case "warn", "error":
		return "error"
	case "off", "disabled":
		return "off"
	}
	return "info"
}

func logBoot(log zerolog.Logger, cfg config.Config) {
	log.Info().
		Str("version", version).
		Int("pid", os.Getpid()).
		Str("addr", cfg.Addr).
		Str("display", cfg.Display.ID).
		Int("vnc_port", cfg.Desktop.Port).
		Int("ws_port", cfg.Bridge.Port).
		Str("tunnel_path", cfg.Tunnel.Path).
		Bool("admin_enabled", cfg.AdminToken != "").
		Bool("password_set", cfg.Desktop.Password != "").
		Msg("boot")
}
