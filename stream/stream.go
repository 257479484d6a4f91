// Package stream holds per-stream state for the HTTP/2 connection state
// machine: lifecycle, flow-control window, and the capability bitmask that
// decides which frame kinds a stream may legally accept or emit next.
package stream

import "github.com/quillh2/engine/herr"

// State is a stream's RFC 7540 §5.1 lifecycle state.
type State int8

const (
	StateIdle State = iota
	StateReservedLocal
	StateReservedRemote
	StateOpen
	StateHalfClosedLocal
	StateHalfClosedRemote
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateReservedLocal:
		return "reserved(local)"
	case StateReservedRemote:
		return "reserved(remote)"
	case StateOpen:
		return "open"
	case StateHalfClosedLocal:
		return "half-closed(local)"
	case StateHalfClosedRemote:
		return "half-closed(remote)"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Accept is a bitmask of the frame kinds a stream may legally process or
// emit in its current state. The connection state machine consults it
// before dispatching a frame to a stream (inbound) or before the caller is
// allowed to write one (outbound), instead of re-deriving legality from
// State on every call.
type Accept uint16

const (
	AcceptInbound Accept = 1 << iota
	AcceptHeaders
	AcceptNopHeaders // HEADERS that only carry trailers/informational status
	AcceptTrailers
	AcceptData
	AcceptPush
	AcceptOutbound
	AcceptWriteHeaders
	AcceptWriteData
	AcceptWritePush
)

func (a Accept) Has(flag Accept) bool { return a&flag == flag }

// Stream is one HTTP/2 stream's state.
type Stream struct {
	id     uint32
	state  State
	accept Accept

	// windowSend is this side's remaining credit to send DATA on this
	// stream; windowRecv is the credit we have advertised to the peer.
	windowSend int64
	windowRecv int64

	// resetCode is set once RST_STREAM has been sent or received, so a
	// frame arriving for an already-reset stream can be told apart from
	// one for a stream that never existed (RFC 7540 §5.1 "closed").
	resetCode herr.Code
	wasReset  bool

	manualRecv bool // true once the application takes over window replenishment

	headersEnded bool
	data         interface{}
}

// New creates a Stream in the idle state with the given initial send/recv
// window (typically SETTINGS_INITIAL_WINDOW_SIZE).
func New(id uint32, initialWindow int64) *Stream {
	return &Stream{
		id:         id,
		state:      StateIdle,
		accept:     AcceptInbound | AcceptHeaders | AcceptOutbound | AcceptWriteHeaders,
		windowSend: initialWindow,
		windowRecv: initialWindow,
	}
}

func (s *Stream) ID() uint32    { return s.id }
func (s *Stream) State() State  { return s.state }
func (s *Stream) SetState(st State) { s.state = st }

func (s *Stream) Accept() Accept        { return s.accept }
func (s *Stream) SetAccept(a Accept)    { s.accept = a }
func (s *Stream) AddAccept(a Accept)    { s.accept |= a }
func (s *Stream) DelAccept(a Accept)    { s.accept &^= a }

func (s *Stream) WindowSend() int64     { return s.windowSend }
func (s *Stream) WindowRecv() int64     { return s.windowRecv }
func (s *Stream) AddWindowSend(n int64) { s.windowSend += n }
func (s *Stream) AddWindowRecv(n int64) { s.windowRecv += n }
func (s *Stream) SetWindowRecv(n int64) { s.windowRecv = n }

func (s *Stream) ManualRecv() bool     { return s.manualRecv }
func (s *Stream) SetManualRecv(v bool) { s.manualRecv = v }

func (s *Stream) HeadersEnded() bool     { return s.headersEnded }
func (s *Stream) SetHeadersEnded(v bool) { s.headersEnded = v }

func (s *Stream) Data() interface{}      { return s.data }
func (s *Stream) SetData(d interface{})  { s.data = d }

func (s *Stream) WasReset() bool       { return s.wasReset }
func (s *Stream) ResetCode() herr.Code { return s.resetCode }

// MarkReset records that the stream was terminated by RST_STREAM (sent or
// received) with the given code, transitioning it to closed.
func (s *Stream) MarkReset(code herr.Code) {
	s.wasReset = true
	s.resetCode = code
	s.state = StateClosed
	s.accept = 0
}

// Closed reports whether neither side may send anything further on s.
func (s *Stream) Closed() bool { return s.state == StateClosed }

// Active reports whether a stream with this ID still counts against
// MAX_CONCURRENT_STREAMS (idle/reserved/open/half-closed, not closed).
func (s *Stream) Active() bool { return s.state != StateClosed }
