// Package pool provides reusable byte buffers to reduce allocations on the
// transfer paths. Part uploads and download copies churn through buffers at
// a high rate, so they draw from size-tiered pools instead of allocating.
package pool

import (
	"sync"
)

const (
	// SmallBufferSize covers content sniffing and header-sized reads (4KB)
	SmallBufferSize = 4 * 1024
	// MediumBufferSize covers download copy loops (64KB)
	MediumBufferSize = 64 * 1024
	// LargeBufferSize covers buffered staging reads (1MB)
	LargeBufferSize = 1024 * 1024
	// PartBufferSize covers multipart part staging at the default part size (8MB)
	PartBufferSize = 8 * 1024 * 1024
)

// BufferPool manages reusable buffers in size tiers.
type BufferPool struct {
	small  *sync.Pool
	medium *sync.Pool
	large  *sync.Pool
	part   *sync.Pool
}

// NewBufferPool creates a buffer pool with the default tier sizes.
func NewBufferPool() *BufferPool {
	newPool := func(size int) *sync.Pool {
		return &sync.Pool{
			New: func() interface{} {
				buf := make([]byte, size)
				return &buf
			},
		}
	}

	return &BufferPool{
		small:  newPool(SmallBufferSize),
		medium: newPool(MediumBufferSize),
		large:  newPool(LargeBufferSize),
		part:   newPool(PartBufferSize),
	}
}

// GetBuffer returns a zero-length buffer with capacity of at least size.
// Requests above PartBufferSize are allocated fresh and never pooled.
// The caller must hand the buffer back with PutBuffer.
func (bp *BufferPool) GetBuffer(size int) []byte {
	var p *sync.Pool
	switch {
	case size <= SmallBufferSize:
		p = bp.small
	case size <= MediumBufferSize:
		p = bp.medium
	case size <= LargeBufferSize:
		p = bp.large
	case size <= PartBufferSize:
		p = bp.part
	default:
		return make([]byte, 0, size)
	}

	bufPtr := p.Get().(*[]byte)
	// Reset length to 0 but keep capacity
	*bufPtr = (*bufPtr)[:0]
	return *bufPtr
}

// PutBuffer returns a buffer to the pool matching its capacity. Buffers
// with off-tier capacities are dropped for the collector.
func (bp *BufferPool) PutBuffer(buf []byte) {
	var p *sync.Pool
	switch cap(buf) {
	case SmallBufferSize:
		p = bp.small
	case MediumBufferSize:
		p = bp.medium
	case LargeBufferSize:
		p = bp.large
	case PartBufferSize:
		p = bp.part
	default:
		return
	}

	buf = buf[:0]
	p.Put(&buf)
}

// Global buffer pool instance shared by the transfer paths.
var globalBufferPool = NewBufferPool()

// GetBuffer returns a buffer from the global pool for the specified size.
func GetBuffer(size int) []byte {
	return globalBufferPool.GetBuffer(size)
}

// PutBuffer returns a buffer to the global pool.
func PutBuffer(buf []byte) {
	globalBufferPool.PutBuffer(buf)
}
