package tunnel

import (
	"bufio"
	"context"
	"io"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"vncd/internal/supervisor"
)

const defaultDialTimeout = 5 * time.Second

// Stack is the part of the supervisor the proxy needs for lazy start.
type Stack interface {
	Running() bool
	Start(ctx context.Context) (supervisor.StartResult, error)
}

// Options configures a Proxy.
type Options struct {
	// UpstreamAddr is the bridge's loopback address, host:port.
	UpstreamAddr string
	// UpstreamPath is the request path used in the synthesized handshake.
	UpstreamPath string
	DialTimeout  time.Duration
	// IdleTimeout closes a session after no traffic in either direction. Zero disables.
	IdleTimeout time.Duration
	// MaxLifetime closes a session after this long regardless of traffic. Zero disables.
	MaxLifetime time.Duration
	// StartRate limits lazy starts per second; zero means unlimited.
	StartRate  float64
	StartBurst int
	// BaseContext bounds lazy starts. Nil detaches them from the request only.
	BaseContext context.Context
	Logger      zerolog.Logger
}

// Proxy serves the public tunnel endpoint.
type Proxy struct {
	stack   Stack
	opts    Options
	log     zerolog.Logger
	limiter *rate.Limiter
	reg     *Registry
	// startMu collapses concurrent lazy starts from simultaneous connects.
	startMu sync.Mutex
}

// New returns a Proxy that lazily starts stack and forwards to opts.UpstreamAddr.
func New(stack Stack, opts Options) *Proxy {
	if opts.DialTimeout <= 0 {
		opts.DialTimeout = defaultDialTimeout
	}
	if opts.UpstreamPath == "" {
		opts.UpstreamPath = "/"
	}
	p := &Proxy{
		stack: stack,
		opts:  opts,
		log:   opts.Logger.With().Str("component", "tunnel").Logger(),
		reg:   NewRegistry(),
	}
	if opts.StartRate > 0 {
		burst := opts.StartBurst
		if burst <= 0 {
			burst = 1
		}
		p.limiter = rate.NewLimiter(rate.Limit(opts.StartRate), burst)
	}
	return p
}

// Sessions returns the live session registry.
func (p *Proxy) Sessions() *Registry { return p.reg }

// ServeHTTP handles one upgrade request on the mount path. Anything other
// than a websocket upgrade gets 426.
func (p *Proxy) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !isWebSocketUpgrade(r) {
		reason := "not_upgrade"
		if isUpgrade(r) {
			reason = "protocol"
		}
		rejectedTotal.WithLabelValues(reason).Inc()
		w.Header().Set("Upgrade", "websocket")
		http.Error(w, "upgrade required", http.StatusUpgradeRequired)
		return
	}
	hj, ok := w.(http.Hijacker)
	if !ok {
		rejectedTotal.WithLabelValues("no_hijack").Inc()
		http.Error(w, "connection cannot be upgraded", http.StatusInternalServerError)
		return
	}

	// Start outlives the request: a client giving up must not abort a
	// half-built stack. Shutdown still does.
	startCtx := p.opts.BaseContext
	if startCtx == nil {
		startCtx = context.WithoutCancel(r.Context())
	}
	p.ensureStarted(startCtx)

	client, brw, err := hj.Hijack()
	if err != nil {
		rejectedTotal.WithLabelValues("no_hijack").Inc()
		p.log.Error().Err(err).Msg("hijack failed")
		return
	}
	_ = client.SetDeadline(time.Time{})

	peer := peerAddr(r)
	s := newSession(peer)
	p.reg.add(s)
	defer p.reg.remove(s)
	log := p.log.With().Str("session", s.ID).Str("remote", peer).Logger()

	hs := NewHandshake(p.opts.UpstreamAddr, p.opts.UpstreamPath, r.Header, clientIP(peer))
	result := p.run(s, client, brw.Reader, hs, log)
	s.advance(StateClosed)
	sessionsTotal.WithLabelValues(result).Inc()
	log.Info().
		Str("result", result).
		Int64("bytes_up", s.up.Load()).
		Int64("bytes_down", s.down.Load()).
		Dur("dur", time.Since(s.Started)).
		Msg("tunnel closed")
}

// ensureStarted invokes Start when the stack is not running. Failures are
// logged and otherwise ignored; the subsequent dial decides the outcome.
func (p *Proxy) ensureStarted(ctx context.Context) {
	if p.stack == nil || p.stack.Running() {
		return
	}
	p.startMu.Lock()
	defer p.startMu.Unlock()
	if p.stack.Running() {
		return
	}
	if p.limiter != nil && !p.limiter.Allow() {
		rejectedTotal.WithLabelValues("start_rate_limited").Inc()
		p.log.Warn().Msg("lazy start rate limited; dialing anyway")
		return
	}
	p.log.Info().Msg("stack not running; starting for tunnel")
	if _, err := p.stack.Start(ctx); err != nil {
		p.log.Error().Err(err).Msg("lazy start failed")
	}
}

// run dials the bridge, replays the handshake and any look-ahead bytes, then
// pipes until either side closes. It returns the session result label.
func (p *Proxy) run(s *Session, client net.Conn, lookahead *bufio.Reader, hs Handshake, log zerolog.Logger) string {
	defer client.Close()

	d := net.Dialer{Timeout: p.opts.DialTimeout}
	upstream, err := d.Dial("tcp", p.opts.UpstreamAddr)
	if err != nil {
		log.Error().Err(err).Str("upstream", p.opts.UpstreamAddr).Msg("upstream dial failed")
		return "dial_error"
	}
	defer upstream.Close()

	if _, err := upstream.Write(hs.Bytes()); err != nil {
		log.Error().Err(err).Msg("writing handshake upstream failed")
		return "upstream_error"
	}
	if n := lookahead.Buffered(); n > 0 {
		head, _ := lookahead.Peek(n)
		if _, err := upstream.Write(head); err != nil {
			log.Error().Err(err).Msg("writing buffered client bytes failed")
			return "upstream_error"
		}
		_, _ = lookahead.Discard(n)
		s.up.Add(int64(n))
		bytesTotal.WithLabelValues("upstream").Add(float64(n))
	}

	s.advance(StatePiping)
	log.Info().Str("upstream", p.opts.UpstreamAddr).Msg("tunnel piping")
	return p.pipe(s, client, upstream)
}

// pipe copies in both directions. The first direction to finish closes both
// connections so the other copy returns too.
func (p *Proxy) pipe(s *Session, client, upstream net.Conn) string {
	var lastActive atomic.Int64
	lastActive.Store(time.Now().UnixNano())

	var once sync.Once
	reason := "closed"
	closeBoth := func(why string) {
		once.Do(func() {
			reason = why
			_ = client.Close()
			_ = upstream.Close()
		})
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, _ = io.Copy(&countingWriter{w: upstream, n: &s.up, dir: "upstream", active: &lastActive}, client)
		closeBoth("closed")
	}()
	go func() {
		defer wg.Done()
		_, _ = io.Copy(&countingWriter{w: client, n: &s.down, dir: "downstream", active: &lastActive}, upstream)
		closeBoth("closed")
	}()

	stop := make(chan struct{})
	if p.opts.IdleTimeout > 0 || p.opts.MaxLifetime > 0 {
		go p.watchdog(&lastActive, s.Started, stop, closeBoth)
	}
	wg.Wait()
	close(stop)
	return reason
}

// watchdog closes the session on idle timeout or max lifetime.
func (p *Proxy) watchdog(lastActive *atomic.Int64, started time.Time, stop <-chan struct{}, closeBoth func(string)) {
	tick := p.opts.IdleTimeout
	if tick <= 0 || (p.opts.MaxLifetime > 0 && p.opts.MaxLifetime < tick) {
		tick = p.opts.MaxLifetime
	}
	tick /= 4
	if tick < 10*time.Millisecond {
		tick = 10 * time.Millisecond
	}
	t := time.NewTicker(tick)
	defer t.Stop()
	for {
		select {
		case <-stop:
			return
		case now := <-t.C:
			if p.opts.MaxLifetime > 0 && now.Sub(started) >= p.opts.MaxLifetime {
				closeBoth("max_lifetime")
				return
			}
			if p.opts.IdleTimeout > 0 && now.Sub(time.Unix(0, lastActive.Load())) >= p.opts.IdleTimeout {
				closeBoth("idle_timeout")
				return
			}
		}
	}
}

type countingWriter struct {
	w      io.Writer
	n      *atomic.Int64
	dir    string
	active *atomic.Int64
}

func (c *countingWriter) Write(b []byte) (int, error) {
	n, err := c.w.Write(b)
	if n > 0 {
		c.n.Add(int64(n))
		c.active.Store(time.Now().UnixNano())
		bytesTotal.WithLabelValues(c.dir).Add(float64(n))
	}
	return n, err
}
