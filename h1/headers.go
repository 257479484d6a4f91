package h1

import (
	"github.com/quillh2/engine/hpack"
	"github.com/quillh2/engine/internal/bytesconv"
)

// hopByHopHeaders are HTTP/1-only connection-management headers that must
// never cross into an HTTP/2 header block (RFC 7540 §8.1.2.2).
var hopByHopHeaders = map[string]bool{
	"connection":        true,
	"keep-alive":        true,
	"proxy-connection":  true,
	"transfer-encoding": true,
	"upgrade":           true,
	"http2-settings":    true,
}

// ToFields translates a parsed HTTP/1 request (method, path, authority,
// ordinary headers) into HPACK Fields with HTTP/2 pseudo-headers, so the
// same downstream handler code sees one shape regardless of which wire
// version the request arrived on.
func ToFields(dst []hpack.Field, method, path, authority, scheme []byte, rawHeaders [][2][]byte) []hpack.Field {
	dst = append(dst,
		hpack.Field{Name: []byte(":method"), Value: append([]byte(nil), method...)},
		hpack.Field{Name: []byte(":scheme"), Value: append([]byte(nil), scheme...)},
		hpack.Field{Name: []byte(":path"), Value: append([]byte(nil), path...)},
	)
	if len(authority) > 0 {
		dst = append(dst, hpack.Field{Name: []byte(":authority"), Value: append([]byte(nil), authority...)})
	}

	for _, kv := range rawHeaders {
		name := bytesconv.LowerInPlace(append([]byte(nil), kv[0]...))
		if hopByHopHeaders[string(name)] {
			continue
		}
		dst = append(dst, hpack.Field{Name: name, Value: append([]byte(nil), kv[1]...)})
	}
	return dst
}

// FromFields renders decoded HPACK Fields back into an HTTP/1 status-line
// plus header block, for responses going out (or coming in, for an h2
// client fronting an h1 origin) on an HTTP/1-only peer.
func FromFields(dst []byte, fields []hpack.Field) []byte {
	var status []byte
	var ordinary []hpack.Field

	for _, f := range fields {
		if string(f.Name) == ":status" {
			status = f.Value
			continue
		}
		if f.IsPseudo() {
			continue
		}
		ordinary = append(ordinary, f)
	}

	dst = append(dst, "HTTP/1.1 "...)
	if len(status) > 0 {
		dst = append(dst, status...)
	} else {
		dst = append(dst, "200"...)
	}
	dst = append(dst, " \r\n"...)

	for _, f := range ordinary {
		dst = append(dst, f.Name...)
		dst = append(dst, ": "...)
		dst = append(dst, f.Value...)
		dst = append(dst, "\r\n"...)
	}
	dst = append(dst, "\r\n"...)
	return dst
}
