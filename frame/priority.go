package frame

import (
	"sync"

	"github.com/quillh2/engine/internal/bytesconv"
)

var priorityPool = sync.Pool{New: func() interface{} { return &Priority{} }}

func AcquirePriority() *Priority {
	p := priorityPool.Get().(*Priority)
	p.Reset()
	return p
}

func ReleasePriority(p *Priority) { priorityPool.Put(p) }

// Priority advertises a stream dependency and weight (RFC 7540 §6.3). This
// engine parses it but does not act on the prioritization hint, matching
// the documented Non-goal of scheduling by priority.
type Priority struct {
	streamDep    uint32
	exclusiveDep bool
	weight       byte
}

func (p *Priority) Type() Type { return TypePriority }

func (p *Priority) Reset() {
	p.streamDep = 0
	p.exclusiveDep = false
	p.weight = 0
}

func (p *Priority) CopyTo(dst *Priority) {
	dst.streamDep = p.streamDep
	dst.exclusiveDep = p.exclusiveDep
	dst.weight = p.weight
}

func (p *Priority) StreamDependency() uint32 { return p.streamDep }
func (p *Priority) Exclusive() bool          { return p.exclusiveDep }
func (p *Priority) Weight() byte             { return p.weight }

func (p *Priority) SetStreamDependency(dep uint32, exclusive bool) {
	p.streamDep = dep & (1<<31 - 1)
	p.exclusiveDep = exclusive
}
func (p *Priority) SetWeight(w byte) { p.weight = w }

func (p *Priority) Deserialize(h *Header) error {
	if len(h.payload) < 5 {
		return ErrFrameSize
	}
	dep := bytesconv.BytesToUint32(h.payload)
	p.exclusiveDep = dep&(1<<31) != 0
	p.streamDep = dep & (1<<31 - 1)
	p.weight = h.payload[4]
	return nil
}

func (p *Priority) Serialize(h *Header) {
	dep := p.streamDep
	if p.exclusiveDep {
		dep |= 1 << 31
	}
	payload := bytesconv.AppendUint32(nil, dep)
	payload = append(payload, p.weight)
	h.setPayload(payload)
}
