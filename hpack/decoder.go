package hpack

import "errors"

var (
	errIndexNotFound    = errors.New("hpack: header field index not found")
	errStringTruncated  = errors.New("hpack: truncated string literal")
	errTableSizeTooLarge = errors.New("hpack: dynamic table size update exceeds negotiated maximum")
)

// Decoder holds one side's dynamic table and decodes header blocks
// (RFC 7541 §3-6). It is not safe for concurrent use; each Connection owns
// exactly one Decoder, matching the single-threaded, non-reentrant core
// spec.md §5 requires.
type Decoder struct {
	table      dynamicTable
	limitUpper int
}

// NewDecoder returns a Decoder whose dynamic table starts at, and may never
// be grown past, limitUpper octets (the HEADER_TABLE_SIZE we advertise).
func NewDecoder(limitUpper int) *Decoder {
	d := &Decoder{limitUpper: limitUpper}
	d.table.limit = limitUpper
	return d
}

// SetMaxDynamicTableSize updates the upper bound an incoming dynamic-table
// size update may not exceed, e.g. when our local SETTINGS HEADER_TABLE_SIZE
// changes. It does not itself shrink the live table; a table-size-update
// instruction on the wire still has to arrive to actually do that, per
// RFC 7541 §4.2.
func (d *Decoder) SetMaxDynamicTableSize(limitUpper int) {
	d.limitUpper = limitUpper
}

// TableSize reports the dynamic table's current total cost, for tests.
func (d *Decoder) TableSize() int { return d.table.size }

// Decode appends the header fields represented by data to dst.
func (d *Decoder) Decode(dst []Field, data []byte) ([]Field, error) {
	b := data

	for len(b) > 0 {
		c := b[0]
		var err error

		switch {
		case c&0x80 != 0: // indexed header field — 1xxxxxxx
			var idx uint64
			b, idx, err = readVarint(7, b)
			if err != nil {
				return dst, err
			}
			f, ok := lookup(&d.table, idx)
			if !ok {
				return dst, errIndexNotFound
			}
			dst = append(dst, cloneField(f))

		case c&0xC0 == 0x40: // literal with incremental indexing — 01xxxxxx
			var idx uint64
			b, idx, err = readVarint(6, b)
			if err != nil {
				return dst, err
			}

			var name []byte
			if idx == 0 {
				b, name, err = readLiteralString(b)
				if err != nil {
					return dst, err
				}
			} else {
				f, ok := lookup(&d.table, idx)
				if !ok {
					return dst, errIndexNotFound
				}
				name = f.Name
			}

			var value []byte
			b, value, err = readLiteralString(b)
			if err != nil {
				return dst, err
			}

			field := Field{Name: append([]byte(nil), name...), Value: value}
			d.table.insert(field)
			dst = append(dst, field)

		case c&0xE0 == 0x20: // dynamic table size update — 001xxxxx
			var n uint64
			b, n, err = readVarint(5, b)
			if err != nil {
				return dst, err
			}
			if n > uint64(d.limitUpper) {
				return dst, errTableSizeTooLarge
			}
			d.table.setLimit(int(n))

		default: // literal without (0000xxxx) / never (0001xxxx) indexing
			var idx uint64
			b, idx, err = readVarint(4, b)
			if err != nil {
				return dst, err
			}

			var name []byte
			if idx == 0 {
				b, name, err = readLiteralString(b)
				if err != nil {
					return dst, err
				}
			} else {
				f, ok := lookup(&d.table, idx)
				if !ok {
					return dst, errIndexNotFound
				}
				name = f.Name
			}

			var value []byte
			b, value, err = readLiteralString(b)
			if err != nil {
				return dst, err
			}

			dst = append(dst, Field{Name: append([]byte(nil), name...), Value: value})
		}
	}

	return dst, nil
}

func cloneField(f Field) Field {
	return Field{
		Name:  append([]byte(nil), f.Name...),
		Value: append([]byte(nil), f.Value...),
	}
}

// readLiteralString reads a 1-bit Huffman flag, a 7-bit-prefixed length, and
// then that many bytes (Huffman-decoding them if the flag was set).
func readLiteralString(b []byte) (rest, value []byte, err error) {
	if len(b) == 0 {
		return b, nil, errStringTruncated
	}

	huff := b[0]&0x80 != 0

	var length uint64
	rest, length, err = readVarint(7, b)
	if err != nil {
		return b, nil, err
	}
	if uint64(len(rest)) < length {
		return b, nil, errStringTruncated
	}

	raw := rest[:length]
	rest = rest[length:]

	if !huff {
		return rest, append([]byte(nil), raw...), nil
	}

	dst := make([]byte, 0, 2*len(raw)+8)
	dst, err = huffmanDecode(dst, raw)
	if err != nil {
		return rest, nil, err
	}
	return rest, dst, nil
}
