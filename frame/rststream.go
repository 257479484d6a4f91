package frame

import (
	"sync"

	"github.com/quillh2/engine/herr"
	"github.com/quillh2/engine/internal/bytesconv"
)

var rstStreamPool = sync.Pool{New: func() interface{} { return &RstStream{} }}

func AcquireRstStream() *RstStream {
	r := rstStreamPool.Get().(*RstStream)
	r.Reset()
	return r
}

func ReleaseRstStream(r *RstStream) { rstStreamPool.Put(r) }

// RstStream abruptly terminates a stream (RFC 7540 §6.4).
type RstStream struct {
	code herr.Code
}

func (r *RstStream) Type() Type { return TypeRstStream }

func (r *RstStream) Reset() { r.code = 0 }

func (r *RstStream) CopyTo(dst *RstStream) { dst.code = r.code }

func (r *RstStream) Code() herr.Code     { return r.code }
func (r *RstStream) SetCode(c herr.Code) { r.code = c }

func (r *RstStream) Deserialize(h *Header) error {
	if len(h.payload) < 4 {
		return ErrFrameSize
	}
	r.code = herr.Code(bytesconv.BytesToUint32(h.payload))
	return nil
}

func (r *RstStream) Serialize(h *Header) {
	h.setPayload(bytesconv.AppendUint32(nil, uint32(r.code)))
}
