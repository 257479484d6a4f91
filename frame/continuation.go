package frame

import "sync"

var continuationPool = sync.Pool{New: func() interface{} { return &Continuation{} }}

func AcquireContinuation() *Continuation {
	c := continuationPool.Get().(*Continuation)
	c.Reset()
	return c
}

func ReleaseContinuation(c *Continuation) { continuationPool.Put(c) }

// Continuation carries the overflow of a header block that did not fit in
// a single HEADERS or PUSH_PROMISE frame (RFC 7540 §6.10). Flags: END_HEADERS.
type Continuation struct {
	endHeaders bool
	rawHeaders []byte
}

func (c *Continuation) Type() Type { return TypeContinuation }

func (c *Continuation) Reset() {
	c.endHeaders = false
	c.rawHeaders = c.rawHeaders[:0]
}

func (c *Continuation) CopyTo(dst *Continuation) {
	dst.endHeaders = c.endHeaders
	dst.rawHeaders = append(dst.rawHeaders[:0], c.rawHeaders...)
}

func (c *Continuation) HeaderBlockFragment() []byte { return c.rawHeaders }
func (c *Continuation) SetHeaderBlockFragment(b []byte) {
	c.rawHeaders = append(c.rawHeaders[:0], b...)
}
func (c *Continuation) EndHeaders() bool     { return c.endHeaders }
func (c *Continuation) SetEndHeaders(v bool) { c.endHeaders = v }

func (c *Continuation) Deserialize(h *Header) error {
	c.endHeaders = h.flags.Has(FlagEndHeaders)
	c.rawHeaders = append(c.rawHeaders[:0], h.payload...)
	return nil
}

func (c *Continuation) Serialize(h *Header) {
	if c.endHeaders {
		h.flags = h.flags.Add(FlagEndHeaders)
	}
	h.setPayload(c.rawHeaders)
}
