// Package h2 is the protocol engine: a single-threaded, I/O-agnostic
// connection state machine that unifies HTTP/1.1 and HTTP/2 behind one
// synchronous consume_bytes/write_* surface. It owns no socket and starts
// no goroutine; callers (cmd/h2demo, or any embedder) push bytes in and
// drain frames/events out.
package h2

// ConnState is the connection's top-level lifecycle position. A
// Connection moves forward through these states, except that
// StateHTTP1Reading returns to StateHTTP1Ready after each HTTP/1 message
// header block.
type ConnState int8

const (
	// StateUndefined is the zero value before the connection has seen
	// any bytes and before on_connect has told it which role it plays.
	StateUndefined ConnState = iota

	// StateHTTP1Ready means the connection will interpret incoming
	// bytes as an HTTP/1.x message unless/until an h2c upgrade or a
	// raw HTTP/2 client preface is detected.
	StateHTTP1Ready

	// StateHTTP1Reading means an HTTP/1 request/response is being
	// parsed and the byte stream cannot yet be reinterpreted.
	StateHTTP1Reading

	// StateHTTP1ReadingUpgrade means an h2c upgrade request has been
	// fully parsed and is pending the 101 response / HTTP2-Settings
	// preface exchange before flipping to HTTP/2 framing.
	StateHTTP1ReadingUpgrade

	// StateUnknownProtocolUpgrade means this side sent the Upgrade
	// response and is now waiting for the client's HTTP/2 preface.
	StateUnknownProtocolUpgrade

	// StateUnknownProtocol means the first bytes matched neither an
	// HTTP/1 request line nor the HTTP/2 preface; the connection is
	// dead and only feeds an error back to the caller.
	StateUnknownProtocol

	// StateInit means HTTP/2 has been selected (via ALPN or upgrade)
	// and the connection is waiting for the 24-byte client preface
	// (server role) or is about to send it (client role).
	StateInit

	// StatePreface means the preface has been validated and the
	// connection is waiting to send (or has sent) its initial SETTINGS
	// frame.
	StatePreface

	// StateReadyNoSettings means our initial SETTINGS has been sent but
	// the peer's initial SETTINGS has not yet arrived — streams may not
	// be opened outbound yet since peer limits are unknown.
	StateReadyNoSettings

	// StateReady is full steady-state HTTP/2 operation.
	StateReady

	// StateClosed means the connection is torn down; no further bytes
	// will be consumed or frames written.
	StateClosed
)

func (s ConnState) String() string {
	switch s {
	case StateUndefined:
		return "undefined"
	case StateHTTP1Ready:
		return "http1-ready"
	case StateHTTP1Reading:
		return "http1-reading"
	case StateHTTP1ReadingUpgrade:
		return "http1-reading-upgrade"
	case StateUnknownProtocolUpgrade:
		return "unknown-protocol-upgrade"
	case StateUnknownProtocol:
		return "unknown-protocol"
	case StateInit:
		return "init"
	case StatePreface:
		return "preface"
	case StateReadyNoSettings:
		return "ready-no-settings"
	case StateReady:
		return "ready"
	case StateClosed:
		return "closed"
	default:
		return "invalid"
	}
}

// Role distinguishes which side of the connection this engine plays.
type Role int8

const (
	RoleServer Role = iota
	RoleClient
)
