package frame

import (
	"sync"

	"github.com/quillh2/engine/internal/bytesconv"
)

var headersPool = sync.Pool{New: func() interface{} { return &Headers{} }}

func AcquireHeaders() *Headers {
	h := headersPool.Get().(*Headers)
	h.Reset()
	return h
}

func ReleaseHeaders(h *Headers) { headersPool.Put(h) }

// Headers carries an HPACK-compressed header block for a stream, possibly
// fragmented across following CONTINUATION frames (RFC 7540 §6.2).
// Flags: END_STREAM, END_HEADERS, PADDED, PRIORITY.
type Headers struct {
	padded        bool
	hasPriority   bool
	streamDep     uint32
	exclusiveDep  bool
	weight        uint8
	endStream     bool
	endHeaders    bool
	rawHeaders    []byte
}

func (h *Headers) Type() Type { return TypeHeaders }

func (h *Headers) Reset() {
	h.padded = false
	h.hasPriority = false
	h.streamDep = 0
	h.exclusiveDep = false
	h.weight = 0
	h.endStream = false
	h.endHeaders = false
	h.rawHeaders = h.rawHeaders[:0]
}

func (h *Headers) CopyTo(dst *Headers) {
	dst.padded = h.padded
	dst.hasPriority = h.hasPriority
	dst.streamDep = h.streamDep
	dst.exclusiveDep = h.exclusiveDep
	dst.weight = h.weight
	dst.endStream = h.endStream
	dst.endHeaders = h.endHeaders
	dst.rawHeaders = append(dst.rawHeaders[:0], h.rawHeaders...)
}

func (h *Headers) HeaderBlockFragment() []byte { return h.rawHeaders }
func (h *Headers) SetHeaderBlockFragment(b []byte) {
	h.rawHeaders = append(h.rawHeaders[:0], b...)
}
func (h *Headers) AppendHeaderBlockFragment(b []byte) {
	h.rawHeaders = append(h.rawHeaders, b...)
}

func (h *Headers) EndStream() bool     { return h.endStream }
func (h *Headers) SetEndStream(v bool) { h.endStream = v }
func (h *Headers) EndHeaders() bool    { return h.endHeaders }
func (h *Headers) SetEndHeaders(v bool) { h.endHeaders = v }
func (h *Headers) Padded() bool        { return h.padded }
func (h *Headers) SetPadded(v bool)    { h.padded = v }

func (h *Headers) Priority() (dep uint32, exclusive bool, weight uint8, ok bool) {
	return h.streamDep, h.exclusiveDep, h.weight, h.hasPriority
}

func (h *Headers) SetPriority(dep uint32, exclusive bool, weight uint8) {
	h.hasPriority = true
	h.streamDep = dep
	h.exclusiveDep = exclusive
	h.weight = weight
}

func (h *Headers) Deserialize(hd *Header) error {
	flags := hd.flags
	payload := hd.payload

	if flags.Has(FlagPadded) {
		var err error
		payload, err = cutPadding(payload)
		if err != nil {
			return err
		}
	}

	if flags.Has(FlagPriority) {
		if len(payload) < 5 {
			return ErrFrameSize
		}
		dep := bytesconv.BytesToUint32(payload)
		h.exclusiveDep = dep&(1<<31) != 0
		h.streamDep = dep & (1<<31 - 1)
		h.weight = payload[4]
		h.hasPriority = true
		payload = payload[5:]
	}

	h.endStream = flags.Has(FlagEndStream)
	h.endHeaders = flags.Has(FlagEndHeaders)
	h.rawHeaders = append(h.rawHeaders[:0], payload...)
	return nil
}

func (h *Headers) Serialize(hd *Header) {
	if h.endStream {
		hd.flags = hd.flags.Add(FlagEndStream)
	}
	if h.endHeaders {
		hd.flags = hd.flags.Add(FlagEndHeaders)
	}

	payload := h.rawHeaders
	if h.hasPriority {
		hd.flags = hd.flags.Add(FlagPriority)
		dep := h.streamDep
		if h.exclusiveDep {
			dep |= 1 << 31
		}
		prefix := make([]byte, 5)
		bytesconv.Uint32(prefix[:4], dep)
		prefix[4] = h.weight
		payload = append(prefix, payload...)
	}
	if h.padded {
		hd.flags = hd.flags.Add(FlagPadded)
		payload = addPadding(payload)
	}

	hd.setPayload(payload)
}
