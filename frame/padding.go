package frame

import (
	"crypto/rand"

	"github.com/valyala/fastrand"
)

// cutPadding strips a PADDED frame's 1-byte pad-length prefix and trailing
// pad bytes from payload, returning just the real content (RFC 7540 §6.1).
func cutPadding(payload []byte) ([]byte, error) {
	if len(payload) == 0 {
		return nil, ErrBadPadding
	}
	padLen := int(payload[0])
	if padLen > len(payload)-1 {
		return nil, ErrBadPadding
	}
	return payload[1 : len(payload)-padLen], nil
}

// addPadding prepends a random pad length byte and appends that many random
// bytes to b, mirroring the teacher's randomized-padding behavior.
func addPadding(b []byte) []byte {
	n := int(fastrand.Uint32n(256-9)) + 9
	out := make([]byte, 1+len(b)+n)
	out[0] = byte(n)
	copy(out[1:], b)
	rand.Read(out[1+len(b):])
	return out
}
