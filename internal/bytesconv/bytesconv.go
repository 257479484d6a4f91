// Package bytesconv holds the low-level byte/integer helpers shared by the
// frame, hpack and h1 packages: big-endian 24/32-bit packing and zero-copy
// byte<->string conversions.
package bytesconv

import "unsafe"

// Uint24 packs the low 24 bits of n into b (big-endian).
func Uint24(b []byte, n uint32) {
	_ = b[2]
	b[0] = byte(n >> 16)
	b[1] = byte(n >> 8)
	b[2] = byte(n)
}

// BytesToUint24 reads a big-endian 24-bit integer from b.
func BytesToUint24(b []byte) uint32 {
	_ = b[2]
	return uint32(b[0])<<16 | uint32(b[1])<<8 | uint32(b[2])
}

// Uint32 packs n into b (big-endian).
func Uint32(b []byte, n uint32) {
	_ = b[3]
	b[0] = byte(n >> 24)
	b[1] = byte(n >> 16)
	b[2] = byte(n >> 8)
	b[3] = byte(n)
}

// BytesToUint32 reads a big-endian 32-bit integer from b.
func BytesToUint32(b []byte) uint32 {
	_ = b[3]
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
}

// AppendUint32 appends the big-endian encoding of n to dst.
func AppendUint32(dst []byte, n uint32) []byte {
	return append(dst, byte(n>>24), byte(n>>16), byte(n>>8), byte(n))
}

// AppendUint24 appends the big-endian encoding of the low 24 bits of n to dst.
func AppendUint24(dst []byte, n uint32) []byte {
	return append(dst, byte(n>>16), byte(n>>8), byte(n))
}

// B2S converts a byte slice to a string without allocating.
//
// The returned string MUST NOT outlive b, and b must not be mutated while
// the string is in use. Copied from the idiom valyala/fasthttp popularized.
func B2S(b []byte) string {
	return unsafe.String(unsafe.SliceData(b), len(b))
}

// S2B converts a string to a byte slice without allocating.
//
// The returned slice MUST NOT be mutated.
func S2B(s string) []byte {
	return unsafe.Slice(unsafe.StringData(s), len(s))
}

// EqualFold reports whether a and b are equal ignoring ASCII case, without
// the overhead of bytes.EqualFold's unicode case folding (header names and
// values are ASCII per RFC 7230/7540).
func EqualFold(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		ca, cb := a[i], b[i]
		if 'A' <= ca && ca <= 'Z' {
			ca += 'a' - 'A'
		}
		if 'A' <= cb && cb <= 'Z' {
			cb += 'a' - 'A'
		}
		if ca != cb {
			return false
		}
	}
	return true
}

// LowerInPlace lowercases the ASCII letters in b and returns b.
func LowerInPlace(b []byte) []byte {
	for i, c := range b {
		if 'A' <= c && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return b
}

// IsLower reports whether b contains no ASCII uppercase letters.
func IsLower(b []byte) bool {
	for _, c := range b {
		if 'A' <= c && c <= 'Z' {
			return false
		}
	}
	return true
}
