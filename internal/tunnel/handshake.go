package tunnel

import (
	"bytes"
	"net"
	"net/http"
	"strings"
)

// forwardedHeaders are copied from the client request, in this order, when
// present. Everything else the client sent is dropped.
var forwardedHeaders = []string{
	"Sec-WebSocket-Key",
	"Sec-WebSocket-Version",
	"Sec-WebSocket-Protocol",
	"Sec-WebSocket-Extensions",
	"Origin",
	"User-Agent",
	"Cookie",
}

var renderOrder = append(append([]string(nil), forwardedHeaders...), "X-Forwarded-For")

// Handshake is the upstream request synthesized for one session.
type Handshake struct {
	// Host is the bridge address, host:port.
	Host string
	// Path is the fixed internal request path.
	Path string
	// Header holds the filtered client headers.
	Header http.Header
}

// NewHandshake filters in down to the forwarded set and appends clientIP to
// X-Forwarded-For. It does not touch the network.
func NewHandshake(host, path string, in http.Header, clientIP string) Handshake {
	h := Handshake{Host: host, Path: path, Header: make(http.Header)}
	for _, name := range forwardedHeaders {
		for _, v := range in.Values(name) {
			h.Header.Add(name, v)
		}
	}
	xff := strings.TrimSpace(strings.Join(in.Values("X-Forwarded-For"), ", "))
	if clientIP != "" {
		if xff != "" {
			xff += ", "
		}
		xff += clientIP
	}
	if xff != "" {
		h.Header.Set("X-Forwarded-For", xff)
	}
	return h
}

// Bytes renders the HTTP/1.1 upgrade request. Header order is stable.
func (h Handshake) Bytes() []byte {
	var b bytes.Buffer
	path := h.Path
	if path == "" {
		path = "/"
	}
	b.WriteString("GET " + path + " HTTP/1.1\r\n")
	b.WriteString("Host: " + h.Host + "\r\n")
	b.WriteString("Upgrade: websocket\r\n")
	b.WriteString("Connection: Upgrade\r\n")
	for _, name := range renderOrder {
		for _, v := range h.Header.Values(name) {
			b.WriteString(name + ": " + sanitize(v) + "\r\n")
		}
	}
	b.WriteString("\r\n")
	return b.Bytes()
}

// BuildHandshake is NewHandshake followed by Bytes.
func BuildHandshake(host, path string, in http.Header, clientIP string) []byte {
	return NewHandshake(host, path, in, clientIP).Bytes()
}

// sanitize strips CR and LF so a header value cannot inject lines.
func sanitize(v string) string {
	return strings.NewReplacer("\r", "", "\n", "").Replace(v)
}

// clientIP returns the host part of a request's RemoteAddr.
func clientIP(remoteAddr string) string {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		return remoteAddr
	}
	return host
}

// isUpgrade reports whether r asks for a protocol switch of any kind.
func isUpgrade(r *http.Request) bool {
	if r.Header.Get("Upgrade") == "" {
		return false
	}
	for _, v := range r.Header.Values("Connection") {
		for _, tok := range strings.Split(v, ",") {
			if strings.EqualFold(strings.TrimSpace(tok), "upgrade") {
				return true
			}
		}
	}
	return false
}

// isWebSocketUpgrade reports whether r is an upgrade to the websocket protocol.
func isWebSocketUpgrade(r *http.Request) bool {
	if !isUpgrade(r) {
		return false
	}
	for _, v := range r.Header.Values("Upgrade") {
		for _, tok := range strings.Split(v, ",") {
			if strings.EqualFold(strings.TrimSpace(tok), "websocket") {
				return true
			}
		}
	}
	return false
}
