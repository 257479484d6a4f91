package frame

import "sync"

var pingPool = sync.Pool{New: func() interface{} { return &Ping{} }}

func AcquirePing() *Ping {
	p := pingPool.Get().(*Ping)
	p.Reset()
	return p
}

func ReleasePing(p *Ping) { pingPool.Put(p) }

// Ping is an 8-byte round-trip probe (RFC 7540 §6.7). Flags: ACK.
type Ping struct {
	ack  bool
	data [8]byte
}

func (p *Ping) Type() Type { return TypePing }

func (p *Ping) Reset() {
	p.ack = false
	p.data = [8]byte{}
}

func (p *Ping) CopyTo(dst *Ping) {
	dst.ack = p.ack
	dst.data = p.data
}

func (p *Ping) Ack() bool       { return p.ack }
func (p *Ping) SetAck(v bool)   { p.ack = v }
func (p *Ping) Data() []byte    { return p.data[:] }
func (p *Ping) SetData(b []byte) { copy(p.data[:], b) }

func (p *Ping) Deserialize(h *Header) error {
	if len(h.payload) != 8 {
		return ErrFrameSize
	}
	p.ack = h.flags.Has(FlagAck)
	copy(p.data[:], h.payload)
	return nil
}

func (p *Ping) Serialize(h *Header) {
	if p.ack {
		h.flags = h.flags.Add(FlagAck)
	}
	h.setPayload(p.data[:])
}
