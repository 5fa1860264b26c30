package ring

import "sync/atomic"

// Ring is the record discipline used on the parser-to-filter and
// filter-to-transformer edges: one slot per record, claimed and published
// one at a time. Capacity must be a power of two.
type Ring[T any] struct {
	buf  []T
	size uint64

	written    uint64
	writtenSeq atomic.Uint64
	readCursor uint64
	readSeq    atomic.Uint64

	consumerDoorbell chan struct{}
	producerDoorbell chan struct{}
}

// NewRing returns a Ring with the given capacity, which must be a power of two.
func NewRing[T any](capacity int) *Ring[T] {
	checkCapacity(capacity)
	return &Ring[T]{
		buf:              make([]T, capacity),
		size:             uint64(capacity),
		consumerDoorbell: make(chan struct{}, 1),
		producerDoorbell: make(chan struct{}, 1),
	}
}

// Put claims the next slot, blocking while the ring is full, writes v into
// it, and publishes.
func (r *Ring[T]) Put(v T) {
	for r.written-r.readSeq.Load() >= r.size {
		<-r.producerDoorbell
	}
	idx := r.written % r.size
	r.buf[idx] = v
	r.written++
	r.writtenSeq.Store(r.written)
	notify(r.consumerDoorbell)
}

// Get blocks until the next published record is available and returns it.
func (r *Ring[T]) Get() T {
	for r.writtenSeq.Load() <= r.readCursor {
		<-r.consumerDoorbell
	}
	idx := r.readCursor % r.size
	v := r.buf[idx]
	r.readCursor++
	r.readSeq.Store(r.readCursor)
	notify(r.producerDoorbell)
	return v
}
