package frame

import (
	"bufio"
	"io"
	"sync"

	"github.com/quillh2/engine/internal/bytesconv"
	"github.com/quillh2/engine/internal/config"
)

var headerPool = sync.Pool{
	New: func() interface{} { return &Header{} },
}

// Header is one HTTP/2 frame: the 9-byte fixed header (RFC 7540 §4.1) plus
// its decoded body. Use AcquireHeader/ReleaseHeader to pool instances; a
// Header must not be used from more than one goroutine at a time.
type Header struct {
	length uint32 // 24 bits
	kind   Type   // 8 bits
	flags  Flags  // 8 bits
	stream uint32 // 31 bits

	maxLen  uint32
	payload []byte
	body    Body
}

// AcquireHeader returns a pooled, reset Header.
func AcquireHeader() *Header {
	h := headerPool.Get().(*Header)
	h.Reset()
	return h
}

// ReleaseHeader releases h's body (if any) and returns h to the pool.
func ReleaseHeader(h *Header) {
	if h.body != nil {
		releaseBody(h.body)
	}
	headerPool.Put(h)
}

func (h *Header) Reset() {
	h.length = 0
	h.kind = 0
	h.flags = 0
	h.stream = 0
	h.maxLen = config.MinMaxFrameSize
	h.payload = h.payload[:0]
	h.body = nil
}

func (h *Header) Type() Type       { return h.kind }
func (h *Header) Flags() Flags     { return h.flags }
func (h *Header) SetFlags(f Flags) { h.flags = f }
func (h *Header) Stream() uint32   { return h.stream }
func (h *Header) SetStream(id uint32) { h.stream = id }
func (h *Header) Len() int         { return int(h.length) }
func (h *Header) MaxLen() uint32   { return h.maxLen }
func (h *Header) SetMaxLen(n uint32) { h.maxLen = n }
func (h *Header) Body() Body       { return h.body }

// SetBody attaches a payload body to h, adopting its Type.
func (h *Header) SetBody(b Body) {
	h.body = b
	h.kind = b.Type()
}

func (h *Header) setPayload(b []byte) {
	h.payload = append(h.payload[:0], b...)
	h.length = uint32(len(h.payload))
}

func (h *Header) appendPayload(dst, src []byte) ([]byte, error) {
	if h.maxLen > 0 && uint32(len(dst)+len(src)) > h.maxLen {
		return dst, ErrPayloadTooLong
	}
	return append(dst, src...), nil
}

// ReadFrom reads one frame header and its payload from br, decoding the
// payload into the matching Body. It returns ErrUnknownType for frame
// types above TypeContinuation (RFC 7540 §4.1 requires unknown types be
// discarded, not rejected — callers should treat this as "skip, not fail").
func (h *Header) ReadFrom(br *bufio.Reader) (int64, error) {
	raw, err := br.Peek(config.DefaultFrameSize)
	if err != nil {
		return 0, err
	}
	br.Discard(config.DefaultFrameSize)

	h.length = bytesconv.BytesToUint24(raw[:3])
	h.kind = Type(raw[3])
	h.flags = Flags(raw[4])
	h.stream = bytesconv.BytesToUint32(raw[5:]) & (1<<31 - 1)

	n := int64(config.DefaultFrameSize)

	if h.maxLen != 0 && h.length > h.maxLen {
		br.Discard(int(h.length))
		return n, ErrPayloadTooLong
	}

	if int(h.length) > 0 {
		if cap(h.payload) < int(h.length) {
			h.payload = make([]byte, h.length)
		} else {
			h.payload = h.payload[:h.length]
		}
		rn, err := io.ReadFull(br, h.payload)
		n += int64(rn)
		if err != nil {
			return n, err
		}
	}

	if h.kind < minType || h.kind > maxType {
		return n, ErrUnknownType
	}

	body := newBody(h.kind)
	h.body = body
	return n, body.Deserialize(h)
}

// WriteTo serializes h's body into the payload and writes header+payload
// to bw.
func (h *Header) WriteTo(bw *bufio.Writer) (int64, error) {
	h.body.Serialize(h)
	h.length = uint32(len(h.payload))

	var raw [config.DefaultFrameSize]byte
	bytesconv.Uint24(raw[:3], h.length)
	raw[3] = byte(h.kind)
	raw[4] = byte(h.flags)
	bytesconv.Uint32(raw[5:], h.stream)

	n, err := bw.Write(raw[:])
	if err != nil {
		return int64(n), err
	}
	pn, err := bw.Write(h.payload)
	return int64(n + pn), err
}
