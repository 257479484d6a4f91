package frame

import (
	"sync"

	"github.com/quillh2/engine/internal/bytesconv"
)

var pushPromisePool = sync.Pool{New: func() interface{} { return &PushPromise{} }}

func AcquirePushPromise() *PushPromise {
	p := pushPromisePool.Get().(*PushPromise)
	p.Reset()
	return p
}

func ReleasePushPromise(p *PushPromise) { pushPromisePool.Put(p) }

// PushPromise announces a server-initiated stream before its response
// headers arrive (RFC 7540 §6.6). Flags: END_HEADERS, PADDED.
type PushPromise struct {
	padded       bool
	endHeaders   bool
	promisedID   uint32
	rawHeaders   []byte
}

func (p *PushPromise) Type() Type { return TypePushPromise }

func (p *PushPromise) Reset() {
	p.padded = false
	p.endHeaders = false
	p.promisedID = 0
	p.rawHeaders = p.rawHeaders[:0]
}

func (p *PushPromise) CopyTo(dst *PushPromise) {
	dst.padded = p.padded
	dst.endHeaders = p.endHeaders
	dst.promisedID = p.promisedID
	dst.rawHeaders = append(dst.rawHeaders[:0], p.rawHeaders...)
}

func (p *PushPromise) PromisedStreamID() uint32     { return p.promisedID }
func (p *PushPromise) SetPromisedStreamID(id uint32) { p.promisedID = id }
func (p *PushPromise) EndHeaders() bool              { return p.endHeaders }
func (p *PushPromise) SetEndHeaders(v bool)          { p.endHeaders = v }
func (p *PushPromise) Padded() bool                  { return p.padded }
func (p *PushPromise) SetPadded(v bool)              { p.padded = v }
func (p *PushPromise) HeaderBlockFragment() []byte   { return p.rawHeaders }
func (p *PushPromise) SetHeaderBlockFragment(b []byte) {
	p.rawHeaders = append(p.rawHeaders[:0], b...)
}

func (p *PushPromise) Deserialize(h *Header) error {
	payload := h.payload
	if h.flags.Has(FlagPadded) {
		var err error
		payload, err = cutPadding(payload)
		if err != nil {
			return err
		}
	}
	if len(payload) < 4 {
		return ErrFrameSize
	}

	p.promisedID = bytesconv.BytesToUint32(payload) & (1<<31 - 1)
	p.endHeaders = h.flags.Has(FlagEndHeaders)
	p.rawHeaders = append(p.rawHeaders[:0], payload[4:]...)
	return nil
}

func (p *PushPromise) Serialize(h *Header) {
	if p.endHeaders {
		h.flags = h.flags.Add(FlagEndHeaders)
	}

	prefix := make([]byte, 4)
	bytesconv.Uint32(prefix, p.promisedID)
	payload := append(prefix, p.rawHeaders...)

	if p.padded {
		h.flags = h.flags.Add(FlagPadded)
		payload = addPadding(payload)
	}
	h.setPayload(payload)
}
