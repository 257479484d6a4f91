package h2

import (
	"bufio"
	"bytes"
	"errors"
	"io"

	"github.com/hashicorp/go-multierror"
	"github.com/quillh2/engine/buffer"
	"github.com/quillh2/engine/frame"
	"github.com/quillh2/engine/h1"
	"github.com/quillh2/engine/h2log"
	"github.com/quillh2/engine/herr"
	"github.com/quillh2/engine/hpack"
	"github.com/quillh2/engine/internal/config"
	"github.com/quillh2/engine/metrics"
	"github.com/quillh2/engine/stream"
)

var (
	ErrClosed       = errors.New("h2: connection closed")
	ErrBadPreface   = errors.New("h2: invalid client preface")
	ErrUnexpectedFrame = errors.New("h2: frame not valid for current connection state")
)

// Connection is the HTTP/1/HTTP/2-unifying protocol engine (spec.md's
// central component). It is strictly single-threaded: ConsumeBytes must not
// be called again while a call is still in progress, but EventSink
// callbacks may call the Write* methods (cmd/h2demo's sink answers requests
// from OnHeaders this way). Concurrency, if wanted, belongs to the caller
// (see cmd/h2demo), which may run many Connections on many goroutines as
// long as each one is driven serially.
type Connection struct {
	role  Role
	state ConnState

	sink EventSink
	log  *h2log.Logger
	mx   *metrics.Collector

	// incoming buffers bytes that did not yet form a complete frame or
	// HTTP/1 message.
	incoming *buffer.Buffer

	oracle *h1.Oracle

	ours   negotiated
	theirs negotiated

	enc *hpack.Encoder
	dec *hpack.Decoder

	streams    stream.Table
	nextID     uint32
	lastPeerID uint32

	connWindowSend int64
	connWindowRecv int64
	manualRecv     bool // set by SetManualFlowControl(0, ...); connection-level replenishment does not consult it

	headerBlock struct {
		active        bool
		streamID      uint32
		isPush        bool
		isTrailer     bool
		endStream     bool
		promisedID    uint32
		fragment      []byte
		continuations int
	}

	settingsInFlight int
	theirsSeen       bool
	lastGoAwaySent   bool
	lastGoAwayRecv   bool

	// lastFrameStream is the stream ID of the frame currently being
	// dispatched; fail uses it to report the offending stream in GOAWAY.
	lastFrameStream uint32

	writeBuf []byte
}

// Option configures a new Connection.
type Option func(*Connection)

func WithEventSink(sink EventSink) Option { return func(c *Connection) { c.sink = sink } }
func WithLogger(l *h2log.Logger) Option   { return func(c *Connection) { c.log = l } }
func WithMetrics(m *metrics.Collector) Option { return func(c *Connection) { c.mx = m } }

// New creates a Connection in its initial, protocol-undetermined state.
func New(role Role, opts ...Option) *Connection {
	c := &Connection{
		role:           role,
		state:          StateUndefined,
		sink:           NopEventSink{},
		incoming:       buffer.New(),
		oracle:         h1.NewOracle(),
		ours:           defaultSettings(),
		theirs:         defaultSettings(),
		connWindowSend: config.DefaultConnectionWindow,
		connWindowRecv: config.DefaultConnectionWindow,
	}
	for _, o := range opts {
		o(c)
	}
	if role == RoleClient {
		c.nextID = 1
	} else {
		c.nextID = 2
	}
	c.enc = hpack.NewEncoder(int(c.ours.headerTableSize))
	c.dec = hpack.NewDecoder(int(c.ours.headerTableSize))
	return c
}

// OnConnect tells the Connection which protocol to start in: plain HTTP/1
// (with the possibility of an h2c upgrade), or HTTP/2 directly (e.g. after
// ALPN has already selected "h2").
func (c *Connection) OnConnect(directHTTP2 bool) {
	if directHTTP2 {
		c.state = StateInit
	} else {
		c.state = StateHTTP1Ready
	}
}

// State returns the connection's current lifecycle state.
func (c *Connection) State() ConnState { return c.state }

// ConsumeBytes feeds newly-arrived bytes into the connection. It parses
// and dispatches as many complete frames (or HTTP/1 messages) as are
// present, firing EventSink callbacks along the way, and returns the
// number of bytes consumed. It never retains a reference to data past the
// call — all of it is either copied out or already fully consumed.
func (c *Connection) ConsumeBytes(data []byte) (int, error) {
	if c.state == StateClosed {
		return 0, ErrClosed
	}

	c.incoming.Append(data)
	total := 0

	for {
		prev := c.state
		n, err := c.consumeOnce()
		total += n
		if err != nil {
			if errors.Is(err, errNeedMore) {
				return total, nil
			}
			c.fail(err)
			return total, err
		}
		if n == 0 && c.state == prev {
			return total, nil
		}
	}
}

var errNeedMore = errors.New("h2: need more bytes")

func (c *Connection) consumeOnce() (int, error) {
	switch c.state {
	case StateHTTP1Ready, StateHTTP1Reading:
		return c.consumeHTTP1()
	case StateInit:
		return c.consumePreface()
	case StatePreface, StateReadyNoSettings, StateReady:
		return c.consumeFrame()
	case StateUnknownProtocolUpgrade:
		return c.consumePreface()
	default:
		return 0, ErrUnexpectedFrame
	}
}

func (c *Connection) consumeHTTP1() (int, error) {
	buf := c.incoming.Bytes()
	if len(buf) == 0 {
		return 0, errNeedMore
	}

	if bytes.HasPrefix(buf, []byte(config.ClientPreface)) {
		c.state = StateInit
		return 0, nil
	}

	c.state = StateHTTP1Reading
	result, n, err := c.oracle.Feed(buf)
	switch result {
	case h1.NeedMore:
		c.state = StateHTTP1Ready
		return 0, errNeedMore
	case h1.Failed:
		return 0, err
	}

	c.incoming.Discard(n)

	if c.oracle.IsH2CUpgrade() {
		c.state = StateHTTP1ReadingUpgrade
		if c.log != nil {
			c.log.Debug("h2c upgrade requested")
		}
		return n, nil
	}

	c.state = StateHTTP1Ready
	return n, nil
}

func (c *Connection) consumePreface() (int, error) {
	need := len(config.ClientPreface)
	buf := c.incoming.Bytes()
	if len(buf) < need {
		return 0, errNeedMore
	}
	if !bytes.Equal(buf[:need], []byte(config.ClientPreface)) {
		return 0, ErrBadPreface
	}
	c.incoming.Discard(need)
	c.state = StatePreface
	c.sendInitialSettings()
	return need, nil
}

// Handshake begins the HTTP/2 part of the connection: a client writes the
// preface and its initial SETTINGS; a server only sends its initial
// SETTINGS; in both cases the peer's SETTINGS is awaited before the
// connection is StateReady. The returned bytes must be written to the
// transport before any further ConsumeBytes call for this connection.
func (c *Connection) Handshake() []byte {
	if c.role == RoleClient {
		c.writeBuf = append(c.writeBuf, []byte(config.ClientPreface)...)
		c.state = StatePreface
	} else {
		c.state = StatePreface
	}
	c.sendInitialSettings()
	return c.Flush()
}

func (c *Connection) sendInitialSettings() {
	s := frame.AcquireSettings()
	s.Add(frame.SettingHeaderTableSize, c.ours.headerTableSize)
	s.Add(frame.SettingInitialWindowSize, c.ours.initialWindowSize)
	s.Add(frame.SettingMaxFrameSize, c.ours.maxFrameSize)
	if !c.ours.enablePush {
		s.Add(frame.SettingEnablePush, 0)
	}
	c.settingsInFlight++
	c.queueFrame(0, s)
	c.state = StateReadyNoSettings
}

func (c *Connection) consumeFrame() (int, error) {
	buf := c.incoming.Bytes()
	if len(buf) < config.DefaultFrameSize {
		return 0, errNeedMore
	}

	h := frame.AcquireHeader()
	h.SetMaxLen(c.ours.maxFrameSize)

	br := bufio.NewReader(bytes.NewReader(buf))
	n, err := h.ReadFrom(br)
	c.lastFrameStream = h.Stream()
	if err != nil {
		// The 9-byte header is guaranteed present (checked above), but the
		// payload may still be arriving: io.ReadFull (and Peek, for a
		// header split across two ConsumeBytes calls) report a short read
		// as io.EOF/io.ErrUnexpectedEOF, not a parse failure. Treat both
		// the same as errNeedMore and wait for more bytes.
		if errors.Is(err, errNeedMore) || errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
			frame.ReleaseHeader(h)
			return 0, errNeedMore
		}
		if errors.Is(err, frame.ErrUnknownType) {
			c.incoming.Discard(int(n))
			frame.ReleaseHeader(h)
			return int(n), nil
		}
		frame.ReleaseHeader(h)
		return 0, err
	}

	c.incoming.Discard(int(n))

	if c.mx != nil {
		c.mx.FramesReceived.WithLabelValues(h.Type().String()).Inc()
	}

	dispatchErr := c.dispatch(h)
	frame.ReleaseHeader(h)

	if c.state == StateReadyNoSettings && c.settingsReceived() {
		c.state = StateReady
	}

	return int(n), dispatchErr
}

func (c *Connection) settingsReceived() bool { return c.settingsInFlight == 0 && c.theirsSeen }

// fail tears the connection down on an unrecoverable protocol error. Per
// spec.md's tier 2/3 error model, a connection-fatal error must announce
// itself to the peer: fail queues a GOAWAY naming the offending stream and
// error code, flushing it into writeBuf before the connection is marked
// closed, then notifies every still-open stream locally. Secondary
// teardown errors are aggregated rather than dropped.
func (c *Connection) fail(err error) {
	var agg *multierror.Error
	agg = multierror.Append(agg, err)

	if !c.lastGoAwaySent && c.state != StateClosed {
		c.lastGoAwaySent = true
		c.queueGoAway(c.lastFrameStream, errorCode(err), []byte(err.Error()))
	}

	c.streams.Each(func(s *stream.Stream) {
		if !s.Closed() {
			c.sink.OnStreamClosed(s.ID(), herr.InternalError)
		}
	})

	c.state = StateClosed
	if c.log != nil {
		c.log.Error("connection failed", h2log.Err(agg.ErrorOrNil()))
	}
}

// errorCode maps a connection-fatal error to the HTTP/2 error code its
// GOAWAY should carry, defaulting to INTERNAL_ERROR for anything that
// didn't already choose a code for itself.
func errorCode(err error) herr.Code {
	var he *herr.Error
	if errors.As(err, &he) {
		return he.Code
	}
	switch {
	case errors.Is(err, frame.ErrPayloadTooLong), errors.Is(err, frame.ErrFrameSize), errors.Is(err, frame.ErrBadPadding):
		return herr.FrameSizeError
	case errors.Is(err, ErrBadPreface), errors.Is(err, ErrUnexpectedFrame):
		return herr.ProtocolError
	default:
		return herr.InternalError
	}
}

// Stop begins a graceful shutdown: a GOAWAY announcing the highest stream
// ID processed so far is queued, but already-open streams are allowed to
// finish rather than being reset immediately. The connection moves to
// StateClosed here only if no stream is active; no second GOAWAY is sent
// and the connection is not closed automatically when the remaining
// streams finish later.
func (c *Connection) Stop() []byte {
	if c.state == StateClosed {
		return nil
	}
	c.lastGoAwaySent = true
	out := c.writeGoAway(c.lastPeerID, herr.NoError, nil)

	if c.streams.Len() == 0 {
		c.state = StateClosed
	}
	return out
}

// ConnectionLost reports that the underlying transport died; all open
// streams are reported closed with InternalError and the connection moves
// to StateClosed immediately, without attempting a graceful GOAWAY
// exchange (that requires a writable transport, which is gone).
func (c *Connection) ConnectionLost() {
	if c.state == StateClosed {
		return
	}
	c.streams.Each(func(s *stream.Stream) {
		if !s.Closed() {
			c.sink.OnStreamClosed(s.ID(), herr.InternalError)
		}
	})
	c.state = StateClosed
}

// NextStreamID returns the next stream ID this side will use to initiate a
// stream (odd for clients, even for servers, per RFC 7540 §5.1.1), without
// consuming it.
func (c *Connection) NextStreamID() uint32 { return c.nextID }

func (c *Connection) allocStreamID() uint32 {
	id := c.nextID
	c.nextID += 2
	return id
}

