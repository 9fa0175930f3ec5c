// Package tunnel forwards public websocket upgrades to the loopback bridge.
//
// The proxy never parses websocket frames. It hijacks the client connection,
// writes a freshly built handshake to the bridge followed by any bytes the
// client already sent, and then copies bytes in both directions until either
// side goes away.
package tunnel
