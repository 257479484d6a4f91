package stream

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
	"github.com/quillh2/engine/internal/config"
)

// Table is the per-connection set of live streams, bucketed by a hash of
// the stream ID rather than kept in one flat slice or map: this keeps
// lookup and deletion O(bucket length) without forcing Go's built-in map
// (with its randomized iteration and larger per-entry overhead) onto what
// is, per stream, a handful of struct fields mutated very frequently.
type Table struct {
	buckets [config.StreamBuckets][]*Stream

	// recentlyReset is a fixed-size ring of the last few stream IDs reset
	// by either side, so a DATA, RST_STREAM or WINDOW_UPDATE frame
	// straggling in for a stream already torn down can be recognized as
	// "late, not a protocol error"
	// (RFC 7540 §5.1 closed-stream tolerance) without keeping the full
	// Stream alive.
	recentlyReset [config.StreamResetHistory]uint32
	resetCursor   int
}

func bucketFor(id uint32) int {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], id)
	return int(xxhash.Sum64(b[:]) % config.StreamBuckets)
}

// Insert adds s to the table. It does not check for a pre-existing entry
// with the same ID; callers are expected to have already rejected stream ID
// reuse per RFC 7540 §5.1.1.
func (t *Table) Insert(s *Stream) {
	i := bucketFor(s.id)
	t.buckets[i] = append(t.buckets[i], s)
}

// Get returns the stream with id, or nil.
func (t *Table) Get(id uint32) *Stream {
	bucket := t.buckets[bucketFor(id)]
	for _, s := range bucket {
		if s.id == id {
			return s
		}
	}
	return nil
}

// Del removes and returns the stream with id, or nil if absent.
func (t *Table) Del(id uint32) *Stream {
	i := bucketFor(id)
	bucket := t.buckets[i]
	for j, s := range bucket {
		if s.id == id {
			t.buckets[i] = append(bucket[:j], bucket[j+1:]...)
			return s
		}
	}
	return nil
}

// Len returns the number of active (non-closed) streams, the value
// compared against SETTINGS_MAX_CONCURRENT_STREAMS.
func (t *Table) Len() int {
	n := 0
	for _, bucket := range t.buckets {
		for _, s := range bucket {
			if s.Active() {
				n++
			}
		}
	}
	return n
}

// Each calls fn for every stream currently in the table, in no particular
// order. fn must not mutate the table.
func (t *Table) Each(fn func(*Stream)) {
	for _, bucket := range t.buckets {
		for _, s := range bucket {
			fn(s)
		}
	}
}

// MarkRecentlyReset records id in the reset-history ring, evicting the
// oldest entry once it is full.
func (t *Table) MarkRecentlyReset(id uint32) {
	t.recentlyReset[t.resetCursor] = id
	t.resetCursor = (t.resetCursor + 1) % config.StreamResetHistory
}

// WasRecentlyReset reports whether id appears in the reset-history ring.
func (t *Table) WasRecentlyReset(id uint32) bool {
	for _, r := range t.recentlyReset {
		if r == id {
			return true
		}
	}
	return false
}
