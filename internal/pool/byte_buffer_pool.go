package pool

import (
	"sync"
)

const (
	// PayloadBufferDefaultSize is the default capacity of a pooled payload buffer.
	// Block payloads are usually a few KiB; 16KiB covers the common case without
	// reallocation.
	PayloadBufferDefaultSize = 1024 * 16 // 16KiB

	// PayloadBufferMaxThreshold is the largest buffer returned to the pool.
	// Oversized buffers (e.g. from an unusually large decompressed payload)
	// are dropped so the pool does not pin large allocations.
	PayloadBufferMaxThreshold = 1024 * 256 // 256KiB
)

// ByteBuffer is a reusable byte buffer for payload decompression and sample
// decode scratch space.
type ByteBuffer struct {
	// B is the underlying byte slice.
	B []byte
}

// NewByteBuffer creates a new ByteBuffer with the specified initial capacity.
func NewByteBuffer(defaultSize int) *ByteBuffer {
	return &ByteBuffer{
		B: make([]byte, 0, defaultSize),
	}
}

// Bytes returns the underlying byte slice.
func (bb *ByteBuffer) Bytes() []byte {
	return bb.B
}

// Reset empties the buffer while keeping its capacity for reuse.
func (bb *ByteBuffer) Reset() {
	bb.B = bb.B[:0]
}

// Len returns the current length of the buffer.
func (bb *ByteBuffer) Len() int {
	return len(bb.B)
}

// Cap returns the current capacity of the buffer.
func (bb *ByteBuffer) Cap() int {
	return cap(bb.B)
}

// MustWrite appends data to the buffer, growing it if necessary.
func (bb *ByteBuffer) MustWrite(data []byte) {
	bb.B = append(bb.B, data...)
}

// SetLength sets the length of the buffer to n.
// Panics if n is negative or greater than the capacity.
func (bb *ByteBuffer) SetLength(n int) {
	if n < 0 || n > cap(bb.B) {
		panic("SetLength: invalid length")
	}
	bb.B = bb.B[:n]
}

// Grow grows the buffer to ensure it can hold requiredBytes more bytes
// without reallocating. If the buffer already has sufficient capacity,
// Grow does nothing.
func (bb *ByteBuffer) Grow(requiredBytes int) {
	curLen := len(bb.B)
	if cap(bb.B)-curLen >= requiredBytes {
		return
	}

	// Small buffers grow by the default size to amortize reallocations;
	// larger buffers grow by 25% of current capacity.
	growBy := PayloadBufferDefaultSize
	if cap(bb.B) >= PayloadBufferDefaultSize*2 {
		growBy = cap(bb.B) / 4
	}
	if growBy < requiredBytes {
		growBy = requiredBytes
	}

	newBuf := make([]byte, curLen, cap(bb.B)+growBy)
	copy(newBuf, bb.B)
	bb.B = newBuf
}

var payloadBufferPool = sync.Pool{
	New: func() any {
		return NewByteBuffer(PayloadBufferDefaultSize)
	},
}

// GetPayloadBuffer obtains a reset ByteBuffer from the pool.
func GetPayloadBuffer() *ByteBuffer {
	bb, _ := payloadBufferPool.Get().(*ByteBuffer)
	bb.Reset()

	return bb
}

// PutPayloadBuffer returns a ByteBuffer to the pool.
// Buffers above PayloadBufferMaxThreshold are dropped.
func PutPayloadBuffer(bb *ByteBuffer) {
	if bb == nil || cap(bb.B) > PayloadBufferMaxThreshold {
		return
	}
	payloadBufferPool.Put(bb)
}
