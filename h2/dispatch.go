package h2

import (
	"github.com/quillh2/engine/frame"
	"github.com/quillh2/engine/h2log"
	"github.com/quillh2/engine/herr"
	"github.com/quillh2/engine/internal/config"
	"github.com/quillh2/engine/stream"
)

// dispatch routes one decoded frame to its handler. Frame arrival while a
// header block is in progress is restricted to CONTINUATION on the same
// stream (RFC 7540 §6.2 "A HEADERS frame... without the END_HEADERS flag
// set MUST be followed by a CONTINUATION frame"); anything else is a
// connection error.
//
// A non-nil return from dispatch is always connection-fatal: it reaches
// ConsumeBytes and tears the connection down via fail (GOAWAY + close).
// Violations recoverable at the stream level (RFC 7540 §7 tier 1) are
// handled inline by calling resetStream and returning nil — they must
// never propagate up as a plain error.
func (c *Connection) dispatch(h *frame.Header) error {
	if c.headerBlock.active && h.Type() != frame.TypeContinuation {
		return herr.New(herr.ProtocolError, "frame interleaved with header block")
	}

	switch h.Type() {
	case frame.TypeData:
		return c.handleData(h)
	case frame.TypeHeaders:
		return c.handleHeaders(h)
	case frame.TypeContinuation:
		return c.handleContinuation(h)
	case frame.TypePushPromise:
		return c.handlePushPromise(h)
	case frame.TypePriority:
		return c.handlePriority(h)
	case frame.TypeRstStream:
		return c.handleRstStream(h)
	case frame.TypeSettings:
		return c.handleSettings(h)
	case frame.TypePing:
		return c.handlePing(h)
	case frame.TypeGoAway:
		return c.handleGoAway(h)
	case frame.TypeWindowUpdate:
		return c.handleWindowUpdate(h)
	default:
		return nil
	}
}

func (c *Connection) streamFor(id uint32, create bool) *stream.Stream {
	s := c.streams.Get(id)
	if s == nil && create {
		s = stream.New(id, int64(c.theirs.initialWindowSize))
		c.streams.Insert(s)
	}
	return s
}

// resetStream implements RFC 7540 §7 tier 1: the offending stream is torn
// down with RST_STREAM(code) and the connection keeps running. Callers
// must return nil afterward so ConsumeBytes/consumeFrame do not also treat
// the violation as connection-fatal.
func (c *Connection) resetStream(streamID uint32, code herr.Code, msg string) {
	if c.log != nil {
		c.log.Debug("resetting stream", h2log.Stream(streamID), h2log.Err(herr.New(code, msg)))
	}
	c.WriteReset(streamID, code)
	c.sink.OnStreamClosed(streamID, code)
}

func (c *Connection) handleData(h *frame.Header) error {
	d := h.Body().(*frame.Data)
	n := int64(len(d.Bytes()))

	s := c.streamFor(h.Stream(), false)
	if s == nil {
		if c.streams.WasRecentlyReset(h.Stream()) {
			return nil
		}
		return herr.New(herr.StreamClosed, "DATA on unknown stream")
	}
	if !s.Accept().Has(stream.AcceptData) && !s.Accept().Has(stream.AcceptInbound) {
		// The bytes still count against the connection-level flow-control
		// window even though the stream itself rejects the frame (RFC 7540
		// §6.9): the sender already spent this quota, and it must be
		// credited back so the connection-wide window does not leak.
		c.connWindowRecv -= n
		c.replenishConnWindow(n)
		c.resetStream(h.Stream(), herr.StreamClosed, "DATA not acceptable in current stream state")
		return nil
	}

	c.connWindowRecv -= n
	s.AddWindowRecv(-n)

	c.sink.OnData(h.Stream(), d.Bytes(), d.EndStream())

	// Connection-level replenishment is never gated by manual flow
	// control (see SetManualFlowControl): starving it would stall every
	// stream sharing the connection, not just the one being backpressured.
	c.replenishConnWindow(n)
	if !s.ManualRecv() {
		c.replenishStreamWindow(s)
	}

	if d.EndStream() {
		c.closeRemote(s)
	}
	return nil
}

func (c *Connection) handleHeaders(h *frame.Header) error {
	hf := h.Body().(*frame.Headers)

	s := c.streamFor(h.Stream(), true)
	isTrailer := s.HeadersEnded()
	s.SetState(stream.StateOpen)

	c.headerBlock.active = true
	c.headerBlock.streamID = h.Stream()
	c.headerBlock.isPush = false
	c.headerBlock.isTrailer = isTrailer
	c.headerBlock.endStream = hf.EndStream()
	c.headerBlock.fragment = append(c.headerBlock.fragment[:0], hf.HeaderBlockFragment()...)
	c.headerBlock.continuations = 0

	if hf.EndHeaders() {
		return c.finishHeaderBlock()
	}
	return nil
}

func (c *Connection) handleContinuation(h *frame.Header) error {
	if !c.headerBlock.active || h.Stream() != c.headerBlock.streamID {
		return herr.New(herr.ProtocolError, "CONTINUATION without matching header block")
	}
	cf := h.Body().(*frame.Continuation)

	c.headerBlock.continuations++
	if c.headerBlock.continuations > config.MaxContinuations {
		return herr.New(herr.EnhanceYourCalm, "too many CONTINUATION frames")
	}

	c.headerBlock.fragment = append(c.headerBlock.fragment, cf.HeaderBlockFragment()...)

	if cf.EndHeaders() {
		return c.finishHeaderBlock()
	}
	return nil
}

// finishHeaderBlock decodes the accumulated HPACK block and validates it
// against RFC 7540 §8.1.2.x. The two failure modes are handled
// differently: a decode failure desynchronizes both peers' dynamic tables
// and is always connection-fatal (tier 3, COMPRESSION_ERROR); a semantic
// violation in an otherwise well-formed block (bad pseudo-headers, mixed
// case, a trailer block missing END_STREAM, ...) only invalidates that one
// stream, so it is reported with RST_STREAM and the connection keeps
// running (tier 1).
func (c *Connection) finishHeaderBlock() error {
	fields, err := c.dec.Decode(nil, c.headerBlock.fragment)
	c.headerBlock.active = false
	if err != nil {
		return herr.New(herr.CompressionError, err.Error())
	}

	streamID := c.headerBlock.streamID
	isTrailer := c.headerBlock.isTrailer
	endStream := c.headerBlock.endStream

	if c.headerBlock.isPush {
		// A pushed header block is always request-shaped, regardless of
		// which side initiated the push (RFC 7540 §8.2.1).
		if verr := validateHeaderBlock(fields, false, true, false); verr != nil {
			c.resetStream(c.headerBlock.promisedID, herr.ProtocolError, verr.Error())
			return nil
		}
		c.sink.OnPush(streamID, c.headerBlock.promisedID, fields)
		return nil
	}

	isResponse := c.role == RoleClient
	if verr := validateHeaderBlock(fields, isTrailer, endStream, isResponse); verr != nil {
		c.resetStream(streamID, herr.ProtocolError, verr.Error())
		return nil
	}

	c.sink.OnHeaders(streamID, fields, endStream)

	if s := c.streams.Get(streamID); s != nil {
		if !isTrailer {
			s.SetHeadersEnded(true)
		}
		if endStream {
			c.closeRemote(s)
		}
	}
	return nil
}

func (c *Connection) handlePushPromise(h *frame.Header) error {
	if c.role == RoleServer {
		return herr.New(herr.ProtocolError, "client must not send PUSH_PROMISE")
	}
	pp := h.Body().(*frame.PushPromise)

	parent := c.streamFor(h.Stream(), false)
	if parent == nil {
		return herr.New(herr.ProtocolError, "PUSH_PROMISE on unknown stream")
	}

	promised := stream.New(pp.PromisedStreamID(), int64(c.theirs.initialWindowSize))
	promised.SetState(stream.StateReservedRemote)
	c.streams.Insert(promised)

	c.headerBlock.active = true
	c.headerBlock.streamID = h.Stream()
	c.headerBlock.isPush = true
	c.headerBlock.isTrailer = false
	c.headerBlock.endStream = false
	c.headerBlock.promisedID = pp.PromisedStreamID()
	c.headerBlock.fragment = append(c.headerBlock.fragment[:0], pp.HeaderBlockFragment()...)
	c.headerBlock.continuations = 0

	if pp.EndHeaders() {
		return c.finishHeaderBlock()
	}
	return nil
}

func (c *Connection) handlePriority(h *frame.Header) error {
	// Parsed for protocol compliance; the chosen scheduling policy does
	// not act on it (documented Non-goal).
	_ = h.Body().(*frame.Priority)
	return nil
}

func (c *Connection) handleRstStream(h *frame.Header) error {
	rst := h.Body().(*frame.RstStream)
	s := c.streamFor(h.Stream(), false)
	if s == nil {
		if c.streams.WasRecentlyReset(h.Stream()) {
			return nil
		}
		return herr.New(herr.ProtocolError, "RST_STREAM on unknown stream")
	}

	s.MarkReset(rst.Code())
	c.streams.Del(s.ID())
	c.streams.MarkRecentlyReset(s.ID())
	c.sink.OnStreamClosed(s.ID(), rst.Code())
	return nil
}

func (c *Connection) handleSettings(h *frame.Header) error {
	s := h.Body().(*frame.Settings)
	if s.Ack() {
		if c.settingsInFlight > 0 {
			c.settingsInFlight--
		}
		c.sink.OnSettingsAcked()
		return nil
	}

	prevWindow := c.theirs.initialWindowSize
	if err := c.theirs.apply(s); err != nil {
		return err
	}
	c.theirsSeen = true

	if v, ok := s.Get(frameSettingHeaderTableSize); ok {
		c.enc.SetMaxDynamicTableSize(int(v))
	}

	if c.theirs.initialWindowSize != prevWindow {
		delta := int64(c.theirs.initialWindowSize) - int64(prevWindow)
		c.streams.Each(func(st *stream.Stream) {
			st.AddWindowSend(delta)
		})
	}

	ack := frame.AcquireSettings()
	ack.SetAck(true)
	c.queueFrame(0, ack)
	return nil
}

const frameSettingHeaderTableSize = 0x1

func (c *Connection) handlePing(h *frame.Header) error {
	p := h.Body().(*frame.Ping)
	if p.Ack() {
		return nil
	}
	reply := frame.AcquirePing()
	reply.SetAck(true)
	reply.SetData(p.Data())
	c.queueFrame(0, reply)
	return nil
}

func (c *Connection) handleGoAway(h *frame.Header) error {
	g := h.Body().(*frame.GoAway)
	c.lastGoAwayRecv = true
	c.sink.OnGoAway(g.LastStreamID(), g.Code(), g.DebugData())
	return nil
}

func (c *Connection) handleWindowUpdate(h *frame.Header) error {
	wu := h.Body().(*frame.WindowUpdate)

	if h.Stream() == 0 {
		c.connWindowSend += int64(wu.Increment())
		if c.connWindowSend > config.MaxWindowSize {
			return herr.New(herr.FlowControlError, "connection window overflow")
		}
		c.sink.OnWindowUpdate(0, c.connWindowSend)
		return nil
	}

	s := c.streamFor(h.Stream(), false)
	if s == nil {
		if c.streams.WasRecentlyReset(h.Stream()) {
			return nil
		}
		return nil
	}
	s.AddWindowSend(int64(wu.Increment()))
	if s.WindowSend() > config.MaxWindowSize {
		c.resetStream(h.Stream(), herr.FlowControlError, "stream window overflow")
		return nil
	}
	c.sink.OnWindowUpdate(h.Stream(), s.WindowSend())
	return nil
}

func (c *Connection) closeRemote(s *stream.Stream) {
	switch s.State() {
	case stream.StateOpen:
		s.SetState(stream.StateHalfClosedRemote)
	case stream.StateHalfClosedLocal:
		s.SetState(stream.StateClosed)
		c.streams.Del(s.ID())
		c.sink.OnStreamClosed(s.ID(), herr.NoError)
	}
}
