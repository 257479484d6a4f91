package frame

import "sync"

var dataPool = sync.Pool{New: func() interface{} { return &Data{} }}

func AcquireData() *Data {
	d := dataPool.Get().(*Data)
	d.Reset()
	return d
}

func ReleaseData(d *Data) { dataPool.Put(d) }

// Data carries a stream's request/response body (RFC 7540 §6.1).
// Flags: END_STREAM, PADDED.
type Data struct {
	endStream bool
	padded    bool
	b         []byte
}

func (d *Data) Type() Type { return TypeData }

func (d *Data) Reset() {
	d.endStream = false
	d.padded = false
	d.b = d.b[:0]
}

func (d *Data) CopyTo(dst *Data) {
	dst.endStream = d.endStream
	dst.padded = d.padded
	dst.b = append(dst.b[:0], d.b...)
}

func (d *Data) EndStream() bool          { return d.endStream }
func (d *Data) SetEndStream(v bool)      { d.endStream = v }
func (d *Data) Padded() bool             { return d.padded }
func (d *Data) SetPadded(v bool)         { d.padded = v }
func (d *Data) Bytes() []byte            { return d.b }
func (d *Data) SetBytes(b []byte)        { d.b = append(d.b[:0], b...) }
func (d *Data) Len() int                 { return len(d.b) }

func (d *Data) Deserialize(h *Header) error {
	payload := h.payload
	if h.flags.Has(FlagPadded) {
		var err error
		payload, err = cutPadding(payload)
		if err != nil {
			return err
		}
	}
	d.endStream = h.flags.Has(FlagEndStream)
	d.b = append(d.b[:0], payload...)
	return nil
}

func (d *Data) Serialize(h *Header) {
	if d.endStream {
		h.flags = h.flags.Add(FlagEndStream)
	}
	payload := d.b
	if d.padded {
		h.flags = h.flags.Add(FlagPadded)
		payload = addPadding(payload)
	}
	h.setPayload(payload)
}
