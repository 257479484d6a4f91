package hpack

// dynamicTable is the per-connection HPACK dynamic table (RFC 7541 §2.3.2):
// an ordered sequence of (name, value) entries, 1-indexed, newest first.
// spec.md §3 and §9 both note an array-plus-head-index ring is equally valid
// to a doubly linked list; we use a plain slice with index 0 == most
// recently inserted, which makes prepend O(n) (the slice is copied on every
// insert) and eviction from the tail O(1) per entry, matching the teacher's preference for slices
// over intrusive lists (streams.go) while satisfying the "evict from the
// tail only, prepend on insert" discipline.
type dynamicTable struct {
	entries []Field
	size    int
	limit   int
}

func (t *dynamicTable) insert(f Field) {
	cp := Field{Name: append([]byte(nil), f.Name...), Value: append([]byte(nil), f.Value...)}
	t.entries = append([]Field{cp}, t.entries...)
	t.size += cp.Size()
	t.evict()
}

func (t *dynamicTable) setLimit(limit int) {
	t.limit = limit
	t.evict()
}

func (t *dynamicTable) evict() {
	for t.size > t.limit && len(t.entries) > 0 {
		last := t.entries[len(t.entries)-1]
		t.entries = t.entries[:len(t.entries)-1]
		t.size -= last.Size()
	}
}

// at returns the i-th (0-based, newest-first) dynamic entry.
func (t *dynamicTable) at(i int) (Field, bool) {
	if i < 0 || i >= len(t.entries) {
		return Field{}, false
	}
	return t.entries[i], true
}

func (t *dynamicTable) len() int {
	return len(t.entries)
}

// lookup resolves a combined static+dynamic 1-based HPACK index.
func lookup(t *dynamicTable, index uint64) (Field, bool) {
	if index == 0 {
		return Field{}, false
	}
	if index <= uint64(staticTableSize) {
		return staticTable[index-1], true
	}
	return t.at(int(index) - staticTableSize - 1)
}
