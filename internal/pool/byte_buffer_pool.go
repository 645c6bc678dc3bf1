// Package pool provides a reusable byte buffer to cut allocations on the
// fragment encode hot path.
package pool

import "sync"

const (
	// FragmentBufferDefaultSize is the starting capacity handed out by the
	// default fragment buffer pool.
	FragmentBufferDefaultSize = 1024 * 16 // 16KiB
	// FragmentBufferMaxThreshold is the largest buffer the pool retains;
	// anything bigger is discarded on Put rather than pooled.
	FragmentBufferMaxThreshold = 1024 * 128 // 128KiB
)

// ByteBuffer is a growable byte slice usable as a sync.Pool element.
type ByteBuffer struct {
	// B is the underlying byte slice.
	B []byte
}

// NewByteBuffer creates a new ByteBuffer with the specified default size.
func NewByteBuffer(defaultSize int) *ByteBuffer {
	return &ByteBuffer{
		B: make([]byte, 0, defaultSize),
	}
}

// Bytes returns the underlying byte slice.
func (bb *ByteBuffer) Bytes() []byte {
	return bb.B
}

// Reset resets the buffer to be empty, but retains the allocated memory for reuse.
func (bb *ByteBuffer) Reset() {
	bb.B = bb.B[:0]
}

// MustWrite appends data to the buffer, growing it if necessary.
func (bb *ByteBuffer) MustWrite(data []byte) {
	bb.B = append(bb.B, data...)
}

// Grow ensures the buffer can hold requiredBytes more bytes without a
// reallocation.
//
// For small buffers, it grows by FragmentBufferDefaultSize to minimize
// reallocations; for larger buffers it grows by 25% of current capacity to
// balance memory usage and reallocation cost.
func (bb *ByteBuffer) Grow(requiredBytes int) {
	available := cap(bb.B) - len(bb.B)
	if available >= requiredBytes {
		return
	}

	growBy := FragmentBufferDefaultSize
	if cap(bb.B) > 4*FragmentBufferDefaultSize {
		growBy = cap(bb.B) / 4
	}
	if growBy < requiredBytes {
		growBy = requiredBytes
	}

	newBuf := make([]byte, len(bb.B), len(bb.B)+growBy)
	copy(newBuf, bb.B)
	bb.B = newBuf
}

// ByteBufferPool is a pool of ByteBuffers to minimize allocations.
//
// It uses sync.Pool internally to manage the buffers. The pool can be
// configured with a maximum size threshold to avoid retaining overly large
// buffers that could lead to memory bloat.
type ByteBufferPool struct {
	pool         sync.Pool
	maxThreshold int
}

// NewByteBufferPool creates a new ByteBufferPool with buffers of the specified default size.
func NewByteBufferPool(defaultSize int, maxThreshold int) *ByteBufferPool {
	return &ByteBufferPool{
		pool: sync.Pool{
			New: func() any {
				return NewByteBuffer(defaultSize)
			},
		},
		maxThreshold: maxThreshold,
	}
}

// Get retrieves a ByteBuffer from the pool.
func (bbp *ByteBufferPool) Get() *ByteBuffer {
	bb, _ := bbp.pool.Get().(*ByteBuffer)
	return bb
}

// Put returns a ByteBuffer to the pool for reuse.
func (bbp *ByteBufferPool) Put(bb *ByteBuffer) {
	if bb == nil {
		return
	}

	if bbp.maxThreshold > 0 && cap(bb.B) > bbp.maxThreshold {
		return
	}

	bb.Reset()
	bbp.pool.Put(bb)
}

var fragmentBufferPool = NewByteBufferPool(FragmentBufferDefaultSize, FragmentBufferMaxThreshold)

// GetFragmentBuffer retrieves a ByteBuffer from the default fragment encode pool.
func GetFragmentBuffer() *ByteBuffer {
	return fragmentBufferPool.Get()
}

// PutFragmentBuffer returns a ByteBuffer to the default fragment encode pool.
func PutFragmentBuffer(bb *ByteBuffer) {
	fragmentBufferPool.Put(bb)
}
