// Package iostream holds the serial ingress/egress queue plumbing and the
// egress send-lock discipline from §4.5/§5: owned byte buffers, bounded
// queues, and a single-writer actor that guarantees at most one transport
// write is ever in flight.
package iostream

import "sync/atomic"

// Buffer is a move-only byte container modeling the "owned pointer passed
// through a queue" contract in §6: whoever dequeues it is responsible for
// releasing it exactly once. Release is idempotent and safe to call from
// any goroutine, replacing the original firmware's heap pointer + manual
// free with an explicit, checked handoff (Design Notes redesign flag).
type Buffer struct {
	data      []byte
	released  atomic.Bool
	onRelease func([]byte)
}

// NewBuffer takes ownership of data. onRelease, if non-nil, runs exactly
// once when the buffer is released.
func NewBuffer(data []byte, onRelease func([]byte)) *Buffer {
	return &Buffer{data: data, onRelease: onRelease}
}

// Bytes returns the buffer's contents. Calling it after Release is a usage
// error in the caller, but returns the already-released slice rather than
// panicking, since the data itself is still valid Go memory.
func (b *Buffer) Bytes() []byte { return b.data }

// Release marks the buffer consumed and runs the release callback exactly
// once even under concurrent calls.
func (b *Buffer) Release() {
	if b.released.CompareAndSwap(false, true) {
		if b.onRelease != nil {
			b.onRelease(b.data)
		}
	}
}
