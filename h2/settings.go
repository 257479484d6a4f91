package h2

import (
	"github.com/quillh2/engine/frame"
	"github.com/quillh2/engine/herr"
	"github.com/quillh2/engine/internal/config"
)

// negotiated tracks one side's SETTINGS values: ours (what we have told the
// peer) and theirs (what the peer has told us). Both start at the RFC 7540
// §6.5.2 defaults until a SETTINGS frame updates them.
type negotiated struct {
	headerTableSize      uint32
	enablePush           bool
	maxConcurrentStreams uint32
	initialWindowSize    uint32
	maxFrameSize         uint32
	maxHeaderListSize    uint32
}

func defaultSettings() negotiated {
	return negotiated{
		headerTableSize:      4096,
		enablePush:           true,
		maxConcurrentStreams: 1 << 31, // unlimited unless peer says otherwise
		initialWindowSize:    65535,
		maxFrameSize:         1 << 14,
		maxHeaderListSize:    0, // 0 == no limit advertised
	}
}

// apply updates n from s, rejecting out-of-range values per RFC 7540
// §6.5.2. A bad value is a connection error (PROTOCOL_ERROR, or
// FLOW_CONTROL_ERROR for SETTINGS_INITIAL_WINDOW_SIZE): the peer is never
// allowed to desynchronize flow-control or framing bounds silently.
func (n *negotiated) apply(s *frame.Settings) error {
	if v, ok := s.Get(frame.SettingHeaderTableSize); ok {
		n.headerTableSize = v
	}
	if v, ok := s.Get(frame.SettingEnablePush); ok {
		if v > 1 {
			return herr.New(herr.ProtocolError, "SETTINGS_ENABLE_PUSH must be 0 or 1")
		}
		n.enablePush = v != 0
	}
	if v, ok := s.Get(frame.SettingMaxConcurrentStreams); ok {
		n.maxConcurrentStreams = v
	}
	if v, ok := s.Get(frame.SettingInitialWindowSize); ok {
		if v > config.MaxWindowSize {
			return herr.New(herr.FlowControlError, "SETTINGS_INITIAL_WINDOW_SIZE exceeds 2^31-1")
		}
		n.initialWindowSize = v
	}
	if v, ok := s.Get(frame.SettingMaxFrameSize); ok {
		if v < config.MinMaxFrameSize || v > config.MaxMaxFrameSize {
			return herr.New(herr.ProtocolError, "SETTINGS_MAX_FRAME_SIZE out of range")
		}
		n.maxFrameSize = v
	}
	if v, ok := s.Get(frame.SettingMaxHeaderListSize); ok {
		n.maxHeaderListSize = v
	}
	return nil
}
