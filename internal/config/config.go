// Package config holds the tunable constants referenced throughout the
// engine (spec.md §6 "Tunable constants").
package config

const (
	// BufferAllocMin is the inbound buffer's initial capacity; buffer.Buffer
	// also uses it to decide when to compact consumed head-space.
	BufferAllocMin = 256
	// BufferAllocMinExp is a buffer growth factor. No code in this module
	// reads it; buffer.Buffer grows with Go's append.
	BufferAllocMinExp = 1.5

	// MaxHTTP1HeaderSize is a bound on a single HTTP/1 header line. No code
	// in this module reads it; the h1 oracle does not enforce it.
	MaxHTTP1HeaderSize = 2048
	// MaxHeaders is a bound on the number of headers in one message. No
	// code in this module reads it; neither h1 nor hpack enforces it.
	MaxHeaders = 64

	// MaxContinuations bounds how many CONTINUATION frames may follow one
	// HEADERS/PUSH_PROMISE block before ENHANCE_YOUR_CALM.
	MaxContinuations = 3

	// StreamBuckets is the bucket count of the stream table's hash map.
	// Prime, per spec.md §2.
	StreamBuckets = 61

	// StreamResetHistory is the capacity of the "recently reset" ring.
	StreamResetHistory = 7

	// DefaultFrameSize is the 9-byte frame header size.
	DefaultFrameSize = 9

	// MinMaxFrameSize and MaxMaxFrameSize bound SETTINGS_MAX_FRAME_SIZE.
	MinMaxFrameSize = 1 << 14
	MaxMaxFrameSize = 1<<24 - 1

	// MaxWindowSize is the largest legal flow-control window value.
	MaxWindowSize = 1<<31 - 1

	// DefaultConnectionWindow is the implicit initial connection-level
	// flow-control window (RFC 7540 §6.9.2), distinct from the
	// per-stream INITIAL_WINDOW_SIZE setting.
	DefaultConnectionWindow = 65535

	// ClientPreface is the fixed 24-byte connection opener a client sends
	// before any HTTP/2 frame.
	ClientPreface = "PRI * HTTP/2.0\r\n\r\nSM\r\n\r\n"
)
