package h2

import (
	"bufio"
	"bytes"

	"github.com/quillh2/engine/frame"
	"github.com/quillh2/engine/herr"
	"github.com/quillh2/engine/hpack"
	"github.com/quillh2/engine/internal/config"
	"github.com/quillh2/engine/stream"
)

// queueFrame serializes h on streamID and appends the bytes to the
// connection's pending output. The caller drains pending output with
// Flush; nothing is written to a real transport from inside the core.
func (c *Connection) queueFrame(streamID uint32, body frame.Body) {
	h := frame.AcquireHeader()
	h.SetStream(streamID)
	h.SetMaxLen(0)
	h.SetBody(body)

	var buf bytes.Buffer
	bw := bufio.NewWriter(&buf)
	h.WriteTo(bw)
	bw.Flush()

	c.writeBuf = append(c.writeBuf, buf.Bytes()...)
	frame.ReleaseHeader(h)
}

// Flush returns and clears all bytes queued for the transport since the
// last Flush call.
func (c *Connection) Flush() []byte {
	out := c.writeBuf
	c.writeBuf = nil
	return out
}

// WriteMessage encodes fields as a HEADERS frame (fragmenting into
// CONTINUATION frames if the block exceeds the peer's negotiated
// SETTINGS_MAX_FRAME_SIZE) and queues it for streamID. If streamID is 0, a
// new outbound stream ID is allocated.
func (c *Connection) WriteMessage(streamID uint32, fields []hpack.Field, endStream bool) (uint32, error) {
	if streamID == 0 {
		streamID = c.allocStreamID()
		s := stream.New(streamID, int64(c.theirs.initialWindowSize))
		s.SetState(stream.StateOpen)
		c.streams.Insert(s)
	}

	block := c.enc.Encode(nil, fields)
	c.writeHeaderBlock(streamID, block, endStream, false, 0)
	return streamID, nil
}

// WritePush encodes a PUSH_PROMISE announcing promisedID on streamID.
func (c *Connection) WritePush(streamID, promisedID uint32, fields []hpack.Field) error {
	if !c.theirs.enablePush {
		return herr.New(herr.RefusedStream, "push disabled by peer")
	}

	s := stream.New(promisedID, int64(c.ours.initialWindowSize))
	s.SetState(stream.StateReservedLocal)
	c.streams.Insert(s)

	block := c.enc.Encode(nil, fields)
	c.writeHeaderBlock(streamID, block, false, true, promisedID)
	return nil
}

func (c *Connection) writeHeaderBlock(streamID uint32, block []byte, endStream, isPush bool, promisedID uint32) {
	maxFrame := int(c.theirs.maxFrameSize)
	if maxFrame <= 0 {
		maxFrame = config.MinMaxFrameSize
	}

	first := block
	rest := []byte(nil)
	if len(first) > maxFrame {
		first, rest = block[:maxFrame], block[maxFrame:]
	}

	if isPush {
		pp := frame.AcquirePushPromise()
		pp.SetPromisedStreamID(promisedID)
		pp.SetHeaderBlockFragment(first)
		pp.SetEndHeaders(len(rest) == 0)
		c.queueFrame(streamID, pp)
	} else {
		hf := frame.AcquireHeaders()
		hf.SetHeaderBlockFragment(first)
		hf.SetEndStream(endStream)
		hf.SetEndHeaders(len(rest) == 0)
		c.queueFrame(streamID, hf)
	}

	for len(rest) > 0 {
		chunk := rest
		if len(chunk) > maxFrame {
			chunk = rest[:maxFrame]
		}
		rest = rest[len(chunk):]

		cf := frame.AcquireContinuation()
		cf.SetHeaderBlockFragment(chunk)
		cf.SetEndHeaders(len(rest) == 0)
		c.queueFrame(streamID, cf)
	}
}

// WriteData queues a DATA frame on streamID, fragmenting across the
// negotiated max frame size and respecting both the connection- and
// stream-level send windows (RFC 7540 §6.9). It returns the number of
// bytes actually queued, which may be less than len(data) if the send
// window is exhausted; the caller should retry the remainder once
// OnWindowUpdate fires.
func (c *Connection) WriteData(streamID uint32, data []byte, endStream bool) (int, error) {
	s := c.streamFor(streamID, false)
	if s == nil {
		return 0, herr.New(herr.StreamClosed, "WriteData on unknown stream")
	}

	avail := c.connWindowSend
	if s.WindowSend() < avail {
		avail = s.WindowSend()
	}
	if avail <= 0 {
		return 0, nil
	}

	n := len(data)
	if int64(n) > avail {
		n = int(avail)
	}

	maxFrame := int(c.theirs.maxFrameSize)
	if maxFrame <= 0 {
		maxFrame = config.MinMaxFrameSize
	}

	sent := 0
	for sent < n {
		chunk := n - sent
		if chunk > maxFrame {
			chunk = maxFrame
		}
		d := frame.AcquireData()
		d.SetBytes(data[sent : sent+chunk])
		last := sent+chunk == n
		d.SetEndStream(last && endStream && n == len(data))
		c.queueFrame(streamID, d)
		sent += chunk
	}

	c.connWindowSend -= int64(sent)
	s.AddWindowSend(-int64(sent))

	if endStream && sent == len(data) {
		switch s.State() {
		case stream.StateOpen:
			s.SetState(stream.StateHalfClosedLocal)
		case stream.StateHalfClosedRemote:
			s.SetState(stream.StateClosed)
			c.streams.Del(streamID)
			c.sink.OnStreamClosed(streamID, herr.NoError)
		}
	}

	return sent, nil
}

// WriteReset queues RST_STREAM on streamID with code.
func (c *Connection) WriteReset(streamID uint32, code herr.Code) {
	r := frame.AcquireRstStream()
	r.SetCode(code)
	c.queueFrame(streamID, r)

	if s := c.streams.Get(streamID); s != nil {
		s.MarkReset(code)
		c.streams.Del(streamID)
		c.streams.MarkRecentlyReset(streamID)
	}
}

// WritePing queues a new PING probe (ACK flag clear) carrying data.
// Replies to a peer's PING are queued by handlePing, not by this method.
func (c *Connection) WritePing(data [8]byte) {
	p := frame.AcquirePing()
	p.SetData(data[:])
	c.queueFrame(0, p)
}

// WriteFrame queues an arbitrary already-built frame body on streamID, for
// callers that need direct control (e.g. a hand-built PRIORITY frame).
func (c *Connection) WriteFrame(streamID uint32, body frame.Body) {
	c.queueFrame(streamID, body)
}

// queueGoAway appends a GOAWAY frame to the pending output without
// flushing it, so it rides out with whatever else the caller is about to
// Flush (e.g. fail, where ConsumeBytes has no side channel for bytes
// besides the next Flush call).
func (c *Connection) queueGoAway(lastStreamID uint32, code herr.Code, debug []byte) {
	g := frame.AcquireGoAway()
	g.SetLastStreamID(lastStreamID)
	g.SetCode(code)
	g.SetDebugData(debug)
	c.queueFrame(0, g)
}

// writeGoAway queues a GOAWAY frame and immediately flushes all pending
// output, since GOAWAY is often sent outside the normal queue/flush cycle
// (e.g. right before closing).
func (c *Connection) writeGoAway(lastStreamID uint32, code herr.Code, debug []byte) []byte {
	c.queueGoAway(lastStreamID, code, debug)
	return c.Flush()
}

// IncreaseFlowWindow grants additional flow-control credit to the peer,
// either connection-wide (streamID 0) or for one stream, queuing a
// WINDOW_UPDATE frame.
func (c *Connection) IncreaseFlowWindow(streamID uint32, n uint32) {
	wu := frame.AcquireWindowUpdate()
	wu.SetIncrement(n)
	c.queueFrame(streamID, wu)

	if streamID == 0 {
		c.connWindowRecv += int64(n)
		return
	}
	if s := c.streams.Get(streamID); s != nil {
		s.AddWindowRecv(int64(n))
	}
}

// SetManualFlowControl disables automatic window replenishment, handing
// the application responsibility for calling IncreaseFlowWindow itself —
// the mechanism spec.md's libcno lineage calls "manual" receive-window
// management, useful for an application that wants backpressure to
// propagate to the peer instead of being hidden by auto-replenishment.
// Per that same lineage, only stream-level auto-replenishment is gated by
// this; the connection-level window still refills automatically, since
// starving it would stall every stream, not just the slow one.
func (c *Connection) SetManualFlowControl(streamID uint32, manual bool) {
	if streamID == 0 {
		c.manualRecv = manual
		return
	}
	if s := c.streams.Get(streamID); s != nil {
		s.SetManualRecv(manual)
	}
}

// replenishConnWindow grants back exactly what a DATA frame's payload just
// consumed, unconditionally (no threshold): the connection-level window is
// never subject to manual flow control, so holding back replenishment here
// would stall every stream sharing the connection, not just the one the
// application wants to backpressure.
func (c *Connection) replenishConnWindow(n int64) {
	if n <= 0 {
		return
	}
	c.IncreaseFlowWindow(0, uint32(n))
}

func (c *Connection) replenishStreamWindow(s *stream.Stream) {
	threshold := int64(c.ours.initialWindowSize) / 2
	if s.WindowRecv() < threshold {
		delta := int64(c.ours.initialWindowSize) - s.WindowRecv()
		c.IncreaseFlowWindow(s.ID(), uint32(delta))
	}
}

// SetSettings updates our own SETTINGS and queues the frame announcing the
// change to the peer.
func (c *Connection) SetSettings(s *frame.Settings) {
	c.ours.apply(s)
	c.dec.SetMaxDynamicTableSize(int(c.ours.headerTableSize))
	c.settingsInFlight++
	c.queueFrame(0, s)
}
