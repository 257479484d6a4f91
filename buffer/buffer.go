// Package buffer implements the growable byte queue the connection state
// machine uses for its inbound byte stream (spec.md §2, §3). The
// HEADERS/CONTINUATION reassembly accumulator is a plain byte slice on the
// connection, not a Buffer.
package buffer

import "github.com/quillh2/engine/internal/config"

// Buffer is a growable FIFO byte queue supporting append at the tail and
// consumption (shift) from the head. It imposes no size limit of its own;
// bounding its growth is left to the caller.
type Buffer struct {
	buf  []byte
	head int
}

// New returns an empty Buffer with a small initial allocation.
func New() *Buffer {
	return &Buffer{buf: make([]byte, 0, config.BufferAllocMin)}
}

// Append adds b to the tail of the queue.
func (q *Buffer) Append(b []byte) {
	if q.head > 0 && q.head == len(q.buf) {
		// fully drained: reuse from the start instead of growing forever.
		q.buf = q.buf[:0]
		q.head = 0
	}
	q.buf = append(q.buf, b...)
}

// Len returns the number of unread bytes.
func (q *Buffer) Len() int {
	return len(q.buf) - q.head
}

// Bytes returns the unread bytes. The slice is invalidated by the next
// Append or Discard call.
func (q *Buffer) Bytes() []byte {
	return q.buf[q.head:]
}

// Peek returns up to n unread bytes without consuming them.
func (q *Buffer) Peek(n int) []byte {
	b := q.Bytes()
	if n > len(b) {
		n = len(b)
	}
	return b[:n]
}

// Discard removes the first n unread bytes from the queue.
func (q *Buffer) Discard(n int) {
	if n <= 0 {
		return
	}
	q.head += n
	if q.head > len(q.buf) {
		q.head = len(q.buf)
	}
	q.compact()
}

// Reset empties the queue, keeping its backing array.
func (q *Buffer) Reset() {
	q.buf = q.buf[:0]
	q.head = 0
}

// compact reclaims head-space once it dominates the backing array, so a
// connection that receives a steady trickle of small frames doesn't grow
// its buffer without bound.
func (q *Buffer) compact() {
	if q.head == 0 {
		return
	}
	if q.head < len(q.buf)/2 && len(q.buf) < config.BufferAllocMin*4 {
		return
	}
	n := copy(q.buf, q.buf[q.head:])
	q.buf = q.buf[:n]
	q.head = 0
}
