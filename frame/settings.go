package frame

import (
	"sync"

	"github.com/quillh2/engine/internal/bytesconv"
)

// Settings parameter identifiers (RFC 7540 §6.5.2).
const (
	SettingHeaderTableSize      uint16 = 0x1
	SettingEnablePush           uint16 = 0x2
	SettingMaxConcurrentStreams uint16 = 0x3
	SettingInitialWindowSize    uint16 = 0x4
	SettingMaxFrameSize         uint16 = 0x5
	SettingMaxHeaderListSize    uint16 = 0x6
)

var settingsPool = sync.Pool{New: func() interface{} { return &Settings{} }}

func AcquireSettings() *Settings {
	s := settingsPool.Get().(*Settings)
	s.Reset()
	return s
}

func ReleaseSettings(s *Settings) { settingsPool.Put(s) }

// Param is one (identifier, value) pair within a SETTINGS frame.
type Param struct {
	ID    uint16
	Value uint32
}

// Settings is the SETTINGS frame (RFC 7540 §6.5). It carries an ordered
// list of parameters rather than a fixed struct, so that unrecognized
// parameter identifiers are preserved and forwarded unmolested rather than
// silently dropped, per §6.5.2's "An endpoint that receives a SETTINGS
// frame with any unknown or unsupported identifier MUST ignore that
// setting" — ignoring is the receiver's job, not the codec's.
type Settings struct {
	ack    bool
	params []Param
}

func (s *Settings) Type() Type { return TypeSettings }

func (s *Settings) Reset() {
	s.ack = false
	s.params = s.params[:0]
}

func (s *Settings) CopyTo(dst *Settings) {
	dst.ack = s.ack
	dst.params = append(dst.params[:0], s.params...)
}

func (s *Settings) Ack() bool     { return s.ack }
func (s *Settings) SetAck(v bool) { s.ack = v }

func (s *Settings) Params() []Param { return s.params }

func (s *Settings) Add(id uint16, value uint32) {
	s.params = append(s.params, Param{ID: id, Value: value})
}

// Get returns the value of the first occurrence of id, if present.
func (s *Settings) Get(id uint16) (uint32, bool) {
	for _, p := range s.params {
		if p.ID == id {
			return p.Value, true
		}
	}
	return 0, false
}

func (s *Settings) Deserialize(h *Header) error {
	s.ack = h.flags.Has(FlagAck)
	if s.ack {
		if len(h.payload) != 0 {
			return ErrFrameSize
		}
		return nil
	}
	if len(h.payload)%6 != 0 {
		return ErrFrameSize
	}
	for off := 0; off < len(h.payload); off += 6 {
		id := uint16(h.payload[off])<<8 | uint16(h.payload[off+1])
		val := bytesconv.BytesToUint32(h.payload[off+2 : off+6])
		s.params = append(s.params, Param{ID: id, Value: val})
	}
	return nil
}

func (s *Settings) Serialize(h *Header) {
	if s.ack {
		h.flags = h.flags.Add(FlagAck)
		h.setPayload(nil)
		return
	}

	payload := make([]byte, 0, len(s.params)*6)
	for _, p := range s.params {
		payload = append(payload, byte(p.ID>>8), byte(p.ID))
		payload = bytesconv.AppendUint32(payload, p.Value)
	}
	h.setPayload(payload)
}
