package tunnel

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"vncd/internal/supervisor"
)

const mount = "/websockify"

// fakeStack counts Start calls. When startErr is nil a start flips running.
type fakeStack struct {
	mu       sync.Mutex
	running  bool
	starts   int
	startErr error
	delay    time.Duration
	lastCtx  context.Context
}

func (f *fakeStack) Running() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.running
}

func (f *fakeStack) Start(ctx context.Context) (supervisor.StartResult, error) {
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.starts++
	f.lastCtx = ctx
	if f.startErr != nil {
		return supervisor.StartResult{}, f.startErr
	}
	f.running = true
	return supervisor.StartResult{Started: true}, nil
}

func (f *fakeStack) startCtx() context.Context {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastCtx
}

func (f *fakeStack) Starts() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.starts
}

type hello struct {
	Path      string `json:"path"`
	Host      string `json:"host"`
	Origin    string `json:"origin"`
	Cookie    string `json:"cookie"`
	UserAgent string `json:"user_agent"`
	Forwarded string `json:"forwarded"`
	Admin     string `json:"admin"`
	Protocol  string `json:"protocol"`
}

// fakeBridge is a websocket server that greets with the handshake it saw and
// then echoes. closed receives once per connection when the peer goes away.
type fakeBridge struct {
	srv       *httptest.Server
	closed    chan struct{}
	hangUpNow bool
}

func newFakeBridge(t *testing.T, hangUp bool) *fakeBridge {
	t.Helper()
	b := &fakeBridge{closed: make(chan struct{}, 16), hangUpNow: hangUp}
	up := websocket.Upgrader{Subprotocols: []string{"binary"}, CheckOrigin: func(*http.Request) bool { return true }}
	b.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := up.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		msg, _ := json.Marshal(hello{
			Path:      r.URL.Path,
			Host:      r.Host,
			Origin:    r.Header.Get("Origin"),
			Cookie:    r.Header.Get("Cookie"),
			UserAgent: r.Header.Get("User-Agent"),
			Forwarded: r.Header.Get("X-Forwarded-For"),
			Admin:     r.Header.Get("X-Admin-Token"),
			Protocol:  conn.Subprotocol(),
		})
		if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
		if b.hangUpNow {
			return
		}
		for {
			mt, data, err := conn.ReadMessage()
			if err != nil {
				b.closed <- struct{}{}
				return
			}
			if err := conn.WriteMessage(mt, data); err != nil {
				return
			}
		}
	}))
	t.Cleanup(b.srv.Close)
	return b
}

func (b *fakeBridge) addr() string { return strings.TrimPrefix(b.srv.URL, "http://") }

// newFront serves p behind Guard the way the HTTP layer mounts it.
func newFront(t *testing.T, p *Proxy) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.Handle(mount, p)
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte("ok")) })
	srv := httptest.NewServer(Guard(mount, zerolog.Nop())(mux))
	t.Cleanup(srv.Close)
	return srv
}

func wsURL(srv *httptest.Server, path string) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http") + path
}

func dialTunnel(t *testing.T, srv *httptest.Server) (*websocket.Conn, hello) {
	t.Helper()
	h := http.Header{}
	h.Set("Origin", "http://viewer.example")
	h.Set("Cookie", "sid=abc")
	h.Set("User-Agent", "viewer-test")
	h.Set("X-Admin-Token", "must-not-leak")
	d := websocket.Dialer{Subprotocols: []string{"binary"}, HandshakeTimeout: 5 * time.Second}
	conn, _, err := d.Dial(wsURL(srv, mount), h)
	if err != nil {
		t.Fatalf("dial tunnel: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read hello: %v", err)
	}
	var hi hello
	if err := json.Unmarshal(msg, &hi); err != nil {
		t.Fatalf("decode hello %q: %v", msg, err)
	}
	return conn, hi
}

func closedPort(t *testing.T) string {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := l.Addr().String()
	l.Close()
	return addr
}

// rawUpstream accepts one connection, reads the handshake head and reports it
// together with the next extra bytes. It never writes back.
func rawUpstream(t *testing.T, extra int) (string, <-chan string) {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { l.Close() })
	out := make(chan string, 1)
	go func() {
		c, err := l.Accept()
		if err != nil {
			return
		}
		defer c.Close()
		br := bufio.NewReader(c)
		var head strings.Builder
		for {
			line, err := br.ReadString('\n')
			if err != nil {
				return
			}
			head.WriteString(line)
			if line == "\r\n" {
				break
			}
		}
		buf := make([]byte, extra)
		if extra > 0 {
			if _, err := io.ReadFull(br, buf); err != nil {
				return
			}
		}
		out <- head.String() + string(buf)
		// hold the connection open until the peer closes it
		_, _ = br.ReadByte()
	}()
	return l.Addr().String(), out
}

func waitFor(d time.Duration, cond func() bool) bool {
	deadline := time.Now().Add(d)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return cond()
}

const upgradeRequest = "GET " + mount + " HTTP/1.1\r\n" +
	"Host: tunnel.test\r\n" +
	"Upgrade: websocket\r\n" +
	"Connection: Upgrade\r\n" +
	"Sec-WebSocket-Key: dGhlIHNhbXBsZSBub25jZQ==\r\n" +
	"Sec-WebSocket-Version: 13\r\n" +
	"X-Secret: dropped\r\n" +
	"\r\n"
