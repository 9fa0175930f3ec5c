// Command fake_stage stands in for Xvfb, x11vnc, websockify and helper
// processes in tests. The role is inferred from the command line:
//
//	:N -screen ...            display: listens on $FAKE_X11_DIR/XN
//	-display :N -rfbport P    desktop: TCP echo on 127.0.0.1:P (requires -passwd)
//	P host:port               bridge: websocket server on 127.0.0.1:P
//	--sidecar                 helper: sleeps
//
// Environment knobs: FAKE_EXIT_CODE exits immediately, FAKE_NO_LISTEN runs
// without listening, FAKE_IGNORE_TERM ignores SIGTERM.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/gorilla/websocket"
)

func main() {
	args := os.Args[1:]
	if code := os.Getenv("FAKE_EXIT_CODE"); code != "" {
		n, _ := strconv.Atoi(code)
		fmt.Fprintln(os.Stderr, "fake_stage: exiting early")
		os.Exit(n)
	}
	ignoreTerm := os.Getenv("FAKE_IGNORE_TERM") == "1"
	if ignoreTerm {
		signal.Ignore(syscall.SIGTERM)
	}

	mode, ln, err := listen(args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "fake_stage: %v\n", err)
		os.Exit(2)
	}
	if ln != nil {
		fmt.Fprintf(os.Stderr, "fake_stage %s listening on %s\n", mode, ln.Addr())
		switch mode {
		case "desktop":
			go serveEcho(ln)
		case "bridge":
			go func() { _ = http.Serve(ln, http.HandlerFunc(serveWebsocket)) }()
		default:
			go acceptAndHold(ln)
		}
	} else {
		fmt.Fprintf(os.Stderr, "fake_stage %s running\n", mode)
	}

	sigCh := make(chan os.Signal, 1)
	if ignoreTerm {
		signal.Notify(sigCh, syscall.SIGINT)
	} else {
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	}
	<-sigCh
	if ln != nil {
		_ = ln.Close()
	}
}

func listen(args []string) (string, net.Listener, error) {
	noListen := os.Getenv("FAKE_NO_LISTEN") == "1"
	switch {
	case len(args) > 0 && args[0] == "--sidecar":
		return "sidecar", nil, nil
	case len(args) > 0 && strings.HasPrefix(args[0], ":"):
		if noListen {
			return "display", nil, nil
		}
		path := filepath.Join(os.Getenv("FAKE_X11_DIR"), "X"+strings.TrimPrefix(args[0], ":"))
		_ = os.Remove(path)
		ln, err := net.Listen("unix", path)
		return "display", ln, err
	case flagValue(args, "-rfbport") != "":
		if flagValue(args, "-passwd") == "" {
			return "desktop", nil, fmt.Errorf("-passwd is required")
		}
		if noListen {
			return "desktop", nil, nil
		}
		ln, err := net.Listen("tcp", "127.0.0.1:"+flagValue(args, "-rfbport"))
		return "desktop", ln, err
	case len(args) >= 2:
		if noListen {
			return "bridge", nil, nil
		}
		ln, err := net.Listen("tcp", "127.0.0.1:"+args[0])
		return "bridge", ln, err
	}
	return "", nil, fmt.Errorf("unrecognized command line %q", args)
}

func flagValue(args []string, name string) string {
	for i := 0; i+1 < len(args); i++ {
		if args[i] == name {
			return args[i+1]
		}
	}
	return ""
}

func acceptAndHold(ln net.Listener) {
	for {
		c, err := ln.Accept()
		if err != nil {
			return
		}
		go func() { _, _ = io.Copy(io.Discard, c); _ = c.Close() }()
	}
}

func serveEcho(ln net.Listener) {
	for {
		c, err := ln.Accept()
		if err != nil {
			return
		}
		go func() { _, _ = io.Copy(c, c); _ = c.Close() }()
	}
}

var upgrader = websocket.Upgrader{
	Subprotocols: []string{"binary"},
	CheckOrigin:  func(r *http.Request) bool { return true },
}

// serveWebsocket reports the handshake it received as the first text message,
// then echoes every message back.
func serveWebsocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()
	hello, _ := json.Marshal(map[string]string{
		"path":       r.URL.Path,
		"host":       r.Host,
		"origin":     r.Header.Get("Origin"),
		"cookie":     r.Header.Get("Cookie"),
		"user_agent": r.Header.Get("User-Agent"),
		"forwarded":  r.Header.Get("X-Forwarded-For"),
		"admin":      r.Header.Get("X-Admin-Token"),
		"protocol":   conn.Subprotocol(),
	})
	if err := conn.WriteMessage(websocket.TextMessage, hello); err != nil {
		return
	}
	for {
		mt, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		if err := conn.WriteMessage(mt, msg); err != nil {
			return
		}
	}
}
