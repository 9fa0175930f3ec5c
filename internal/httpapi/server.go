package httpapi

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"vncd/internal/supervisor"
	"vncd/internal/tunnel"
	"vncd/pkg/types"
)

// Service defines the supervisor methods required by the HTTP API layer.
type Service interface {
	Start(ctx context.Context) (supervisor.StartResult, error)
	Stop(ctx context.Context) supervisor.StopResult
	Status() types.VNCStatus
	Detail() types.StatusResponse
	Ready() bool
	SanityCheck() types.SanityReport
}

// Tunnel is the websocket tunnel endpoint.
type Tunnel interface {
	http.Handler
	Sessions() *tunnel.Registry
}

// Options configures routes that depend on runtime configuration.
type Options struct {
	// TunnelPath is where Tunnel is mounted; upgrades elsewhere are dropped.
	TunnelPath  string
	AdminToken  string
	AdminHeader string
	// ViewerDir serves the static browser viewer under /novnc when set.
	ViewerDir string
	// Mode is reported by GET /.
	Mode      string
	StartedAt time.Time
}

const defaultTunnelPath = "/websockify"

func NewMux(svc Service, tun Tunnel, opts Options) http.Handler {
	if opts.TunnelPath == "" {
		opts.TunnelPath = defaultTunnelPath
	}
	if opts.StartedAt.IsZero() {
		opts.StartedAt = time.Now()
	}
	if opts.Mode == "" {
		opts.Mode = "private"
	}
	guardLog := zerolog.Nop()
	if zlog != nil {
		guardLog = *zlog
	}

	r := chi.NewRouter()
	// Basic middlewares: request id, real ip, recoverer
	r.Use(middleware.RequestID)
	// The tunnel forwards the TCP peer, which RealIP would overwrite.
	r.Use(tunnel.CapturePeer)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(MetricsMiddleware)
	r.Use(LoggingMiddleware)
	// Upgrades anywhere but the tunnel path are closed before routing.
	r.Use(tunnel.Guard(opts.TunnelPath, guardLog))
	// Security headers
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			next.ServeHTTP(w, r)
		})
	})
	if corsEnabled {
		methods, headers := corsDefaults()
		if opts.AdminHeader != "" {
			headers = append(append([]string(nil), headers...), opts.AdminHeader)
		}
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: corsAllowedOrigins,
			AllowedMethods: methods,
			AllowedHeaders: headers,
		}))
	}

	// the tunnel hijacks the connection, keep it out of the compressed group
	if tun != nil {
		r.Handle(opts.TunnelPath, tun)
	}

	r.Group(func(r chi.Router) {
		// Compression for JSON endpoints
		r.Use(middleware.Compress(5))

		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, types.ServiceInfo{OK: true, Service: "vncd", Mode: opts.Mode})
		})

		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, types.HealthResponse{
				OK:     true,
				PID:    os.Getpid(),
				Uptime: time.Since(opts.StartedAt).Seconds(),
				VNC:    svc.Status(),
			})
		})

		r.Get("/status", func(w http.ResponseWriter, r *http.Request) {
			resp := svc.Detail()
			if tun != nil {
				resp.TunnelSessions = tun.Sessions().Active()
			}
			resp.UptimeSeconds = int64(time.Since(opts.StartedAt).Seconds())
			resp.ServerTimeUnix = time.Now().Unix()
			sanity := svc.SanityCheck()
			resp.Sanity = &sanity
			writeJSON(w, http.StatusOK, resp)
		})

		r.Route("/_admin/vnc", func(r chi.Router) {
			r.Use(requireAdmin(opts.AdminToken, opts.AdminHeader))
			r.Post("/start", func(w http.ResponseWriter, r *http.Request) {
				res, err := svc.Start(serverBaseCtx)
				if err != nil {
					logAdminError(r, "start", err)
					writeJSONError(w, statusForError(err), err.Error())
					return
				}
				writeJSON(w, http.StatusOK, types.StartResponse{
					OK:             true,
					AlreadyRunning: res.AlreadyRunning,
					Started:        res.Started,
					VNCStatus:      res.Status,
				})
			})
			r.Post("/stop", func(w http.ResponseWriter, r *http.Request) {
				res := svc.Stop(serverBaseCtx)
				writeJSON(w, http.StatusOK, types.StopResponse{OK: true, Stopped: res.Stopped, VNCStatus: res.Status})
			})
		})

		if opts.ViewerDir != "" {
			mountViewer(r, opts.ViewerDir)
		}
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if svc.Ready() {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("ready"))
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("not running"))
	})

	// Prometheus metrics endpoint
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	MountSwagger(r)
	return r
}

// mountViewer serves the static viewer: /novnc is vnc.html itself, /novnc/*
// maps into dir.
func mountViewer(r chi.Router, dir string) {
	files := http.StripPrefix("/novnc/", http.FileServer(http.Dir(dir)))
	r.Get("/novnc", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, filepath.Join(dir, "vnc.html"))
	})
	r.Get("/novnc/*", files.ServeHTTP)
}

func logAdminError(r *http.Request, op string, err error) {
	if zlog == nil {
		return
	}
	ev := zlog.Error().Err(err).Str("op", op)
	if supervisor.IsConfigError(err) {
		ev = ev.Str("kind", "config")
	} else if role, ok := supervisor.SpawnRole(err); ok {
		ev = ev.Str("kind", "spawn").Str("role", string(role))
	}
	if rid := middleware.GetReqID(r.Context()); rid != "" {
		ev = ev.Str("request_id", rid)
	}
	ev.Msg("admin operation failed")
}
