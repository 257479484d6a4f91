package frame

import (
	"sync"

	"github.com/quillh2/engine/herr"
	"github.com/quillh2/engine/internal/bytesconv"
)

var goAwayPool = sync.Pool{New: func() interface{} { return &GoAway{} }}

func AcquireGoAway() *GoAway {
	g := goAwayPool.Get().(*GoAway)
	g.Reset()
	return g
}

func ReleaseGoAway(g *GoAway) { goAwayPool.Put(g) }

// GoAway announces connection shutdown along with the last stream the
// sender processed (RFC 7540 §6.8).
type GoAway struct {
	lastStreamID uint32
	code         herr.Code
	debugData    []byte
}

func (g *GoAway) Type() Type { return TypeGoAway }

func (g *GoAway) Reset() {
	g.lastStreamID = 0
	g.code = 0
	g.debugData = g.debugData[:0]
}

func (g *GoAway) CopyTo(dst *GoAway) {
	dst.lastStreamID = g.lastStreamID
	dst.code = g.code
	dst.debugData = append(dst.debugData[:0], g.debugData...)
}

func (g *GoAway) LastStreamID() uint32       { return g.lastStreamID }
func (g *GoAway) SetLastStreamID(id uint32)  { g.lastStreamID = id & (1<<31 - 1) }
func (g *GoAway) Code() herr.Code            { return g.code }
func (g *GoAway) SetCode(c herr.Code)        { g.code = c }
func (g *GoAway) DebugData() []byte          { return g.debugData }
func (g *GoAway) SetDebugData(b []byte)      { g.debugData = append(g.debugData[:0], b...) }

func (g *GoAway) Deserialize(h *Header) error {
	if len(h.payload) < 8 {
		return ErrFrameSize
	}
	g.lastStreamID = bytesconv.BytesToUint32(h.payload[:4]) & (1<<31 - 1)
	g.code = herr.Code(bytesconv.BytesToUint32(h.payload[4:8]))
	g.debugData = append(g.debugData[:0], h.payload[8:]...)
	return nil
}

func (g *GoAway) Serialize(h *Header) {
	payload := bytesconv.AppendUint32(nil, g.lastStreamID)
	payload = bytesconv.AppendUint32(payload, uint32(g.code))
	payload = append(payload, g.debugData...)
	h.setPayload(payload)
}
