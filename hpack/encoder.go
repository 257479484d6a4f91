package hpack

// Encoder holds the sender-side dynamic table and the pending-size-update
// bookkeeping spec.md §4.3 describes: changing the advertised table size
// between header blocks does not take effect immediately. Instead the
// encoder remembers the smallest size seen (limitMin) and the final size
// (limitEnd), and emits up to two dynamic-table-size-update instructions
// the next time a header block is flushed, so a client never sees the table
// grow past a bound it briefly passed through on its way somewhere else.
type Encoder struct {
	table    dynamicTable
	limitMin int
	limitEnd int
	pending  bool
}

// NewEncoder returns an Encoder with dynamic table capacity limit.
func NewEncoder(limit int) *Encoder {
	e := &Encoder{limitMin: limit, limitEnd: limit}
	e.table.limit = limit
	return e
}

// SetMaxDynamicTableSize records a new negotiated dynamic table size. It does
// not resize the table itself; that happens when the pending update is
// flushed ahead of the next header block, mirroring RFC 7541 §4.2's
// requirement that a size change be signalled on the wire before use.
func (e *Encoder) SetMaxDynamicTableSize(n int) {
	e.limitEnd = n
	if n < e.limitMin {
		e.limitMin = n
	}
	e.pending = true
}

// flushPendingSizeUpdate emits the dynamic-table-size-update instructions
// needed since the last flush, in the order spec.md §4.3 requires: first
// shrink to the smallest size passed through, then move to the final size.
func (e *Encoder) flushPendingSizeUpdate(dst []byte) []byte {
	if !e.pending {
		return dst
	}

	if e.limitMin != e.table.limit {
		dst = appendInt(dst, 0x20, 5, uint64(e.limitMin))
		e.table.setLimit(e.limitMin)
	}
	if e.limitEnd != e.table.limit {
		dst = appendInt(dst, 0x20, 5, uint64(e.limitEnd))
		e.table.setLimit(e.limitEnd)
	}

	e.limitMin = e.limitEnd
	e.pending = false
	return dst
}

// Encode appends the HPACK representation of fields to dst.
func (e *Encoder) Encode(dst []byte, fields []Field) []byte {
	dst = e.flushPendingSizeUpdate(dst)

	for _, f := range fields {
		dst = e.encodeField(dst, f)
	}
	return dst
}

func (e *Encoder) encodeField(dst []byte, f Field) []byte {
	key := string(f.Name) + "\x00" + string(f.Value)

	if idx, ok := staticFullIndex[key]; ok {
		return appendInt(dst, 0x80, 7, uint64(idx))
	}
	if idx, ok := e.findDynamicFull(f); ok {
		return appendInt(dst, 0x80, 7, uint64(idx))
	}

	// No exact match: emit a literal, indexed by name when we have one.
	// Header fields likely to repeat (most non-pseudo headers) get indexed
	// into the dynamic table; one-off values such as :path skip indexing.
	nameIdx, hasName := staticNameIndex[string(f.Name)]
	if !hasName {
		if i, ok := e.findDynamicName(f.Name); ok {
			nameIdx, hasName = i, true
		}
	}

	index := !f.IsPseudo()

	if index {
		if hasName {
			dst = appendInt(dst, 0x40, 6, uint64(nameIdx))
		} else {
			dst = appendInt(dst, 0x40, 6, 0)
			dst = e.appendString(dst, f.Name)
		}
		dst = e.appendString(dst, f.Value)
		e.table.insert(f)
		return dst
	}

	if hasName {
		dst = appendInt(dst, 0x00, 4, uint64(nameIdx))
	} else {
		dst = appendInt(dst, 0x00, 4, 0)
		dst = e.appendString(dst, f.Name)
	}
	return e.appendString(dst, f.Value)
}

func (e *Encoder) findDynamicFull(f Field) (int, bool) {
	for i := 0; i < e.table.len(); i++ {
		entry, _ := e.table.at(i)
		if string(entry.Name) == string(f.Name) && string(entry.Value) == string(f.Value) {
			return staticTableSize + i + 1, true
		}
	}
	return 0, false
}

func (e *Encoder) findDynamicName(name []byte) (int, bool) {
	for i := 0; i < e.table.len(); i++ {
		entry, _ := e.table.at(i)
		if string(entry.Name) == string(name) {
			return staticTableSize + i + 1, true
		}
	}
	return 0, false
}

// appendString appends a length-prefixed string, Huffman-encoding it
// whenever that is shorter, per RFC 7541 §5.2.
func (e *Encoder) appendString(dst []byte, s []byte) []byte {
	if hlen := huffmanEncodedLen(s); hlen < len(s) {
		dst = appendInt(dst, 0x80, 7, uint64(hlen))
		return huffmanEncode(dst, s)
	}
	dst = appendInt(dst, 0x00, 7, uint64(len(s)))
	return append(dst, s...)
}
