package h2

import (
	"github.com/quillh2/engine/herr"
	"github.com/quillh2/engine/hpack"
)

// EventSink receives callbacks from a Connection as it consumes bytes.
// Every method is called synchronously, from within consume_bytes, and
// must not block or call ConsumeBytes; it may call the Connection's Write*
// methods.
type EventSink interface {
	// OnHeaders fires once a stream's header block (HEADERS plus any
	// CONTINUATION frames) has been fully reassembled and HPACK-decoded.
	OnHeaders(streamID uint32, fields []hpack.Field, endStream bool)

	// OnData fires for each DATA frame payload delivered to a stream,
	// after padding has been stripped.
	OnData(streamID uint32, data []byte, endStream bool)

	// OnPush fires when a PUSH_PROMISE's header block has been
	// reassembled, announcing a server-initiated stream.
	OnPush(streamID, promisedStreamID uint32, fields []hpack.Field)

	// OnStreamClosed fires once a stream will receive no further
	// frames, whether by END_STREAM, RST_STREAM, or connection teardown.
	OnStreamClosed(streamID uint32, code herr.Code)

	// OnGoAway fires when a GOAWAY frame is received.
	OnGoAway(lastStreamID uint32, code herr.Code, debugData []byte)

	// OnSettingsAcked fires once the peer has acknowledged a SETTINGS
	// frame this side sent.
	OnSettingsAcked()

	// OnWindowUpdate fires after this side's send window (for
	// streamID, or 0 for the connection) is increased.
	OnWindowUpdate(streamID uint32, newWindow int64)
}

// NopEventSink implements EventSink with no-op methods, useful as an
// embeddable default for callers that only care about a subset of events.
type NopEventSink struct{}

func (NopEventSink) OnHeaders(uint32, []hpack.Field, bool)      {}
func (NopEventSink) OnData(uint32, []byte, bool)                {}
func (NopEventSink) OnPush(uint32, uint32, []hpack.Field)       {}
func (NopEventSink) OnStreamClosed(uint32, herr.Code)           {}
func (NopEventSink) OnGoAway(uint32, herr.Code, []byte)         {}
func (NopEventSink) OnSettingsAcked()                           {}
func (NopEventSink) OnWindowUpdate(uint32, int64)               {}
