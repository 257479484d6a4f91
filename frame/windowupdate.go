package frame

import (
	"sync"

	"github.com/quillh2/engine/internal/bytesconv"
)

var windowUpdatePool = sync.Pool{New: func() interface{} { return &WindowUpdate{} }}

func AcquireWindowUpdate() *WindowUpdate {
	w := windowUpdatePool.Get().(*WindowUpdate)
	w.Reset()
	return w
}

func ReleaseWindowUpdate(w *WindowUpdate) { windowUpdatePool.Put(w) }

// WindowUpdate grants additional flow-control credit, either connection-wide
// (stream 0) or for one stream (RFC 7540 §6.9).
type WindowUpdate struct {
	increment uint32
}

func (w *WindowUpdate) Type() Type { return TypeWindowUpdate }

func (w *WindowUpdate) Reset() { w.increment = 0 }

func (w *WindowUpdate) CopyTo(dst *WindowUpdate) { dst.increment = w.increment }

func (w *WindowUpdate) Increment() uint32     { return w.increment }
func (w *WindowUpdate) SetIncrement(n uint32) { w.increment = n & (1<<31 - 1) }

func (w *WindowUpdate) Deserialize(h *Header) error {
	if len(h.payload) != 4 {
		return ErrFrameSize
	}
	w.increment = bytesconv.BytesToUint32(h.payload) & (1<<31 - 1)
	return nil
}

func (w *WindowUpdate) Serialize(h *Header) {
	h.setPayload(bytesconv.AppendUint32(nil, w.increment))
}
