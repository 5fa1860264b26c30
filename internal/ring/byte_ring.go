package ring

import "sync/atomic"

// ByteSentinelFirst and ByteSentinelSecond are the two consecutive bytes
// that mark end-of-stream on a ByteRing. 0x89 never appears in ASCII text;
// in UTF-8 it is a continuation byte, and the pair 0x89 0x89 occurs inside
// some three-byte characters (e.g. U+6249, encoded E6 89 89), which a
// reader of the ring cannot tell apart from the sentinel.
const (
	ByteSentinelFirst  = 0x89
	ByteSentinelSecond = 0x89
)

// ByteRing is the bulk-byte discipline used on the loader-to-parser edge.
// The producer claims up to half the ring's capacity per call (bounding
// consumer latency), copies with wraparound, and publishes; the consumer
// reads one byte at a time and frees space as it goes. Capacity must be a
// power of two.
type ByteRing struct {
	buf  []byte
	size uint64

	written     uint64 // producer-owned running total of published bytes
	writtenSeq  atomic.Uint64
	readCursor  uint64 // consumer-owned running total of consumed bytes
	readSeq     atomic.Uint64

	consumerDoorbell chan struct{}
	producerDoorbell chan struct{}
}

// NewByteRing returns a ByteRing with the given capacity, which must be a
// power of two.
func NewByteRing(capacity int) *ByteRing {
	checkCapacity(capacity)
	return &ByteRing{
		buf:              make([]byte, capacity),
		size:             uint64(capacity),
		consumerDoorbell: make(chan struct{}, 1),
		producerDoorbell: make(chan struct{}, 1),
	}
}

// Write implements io.Writer so an HTTP response body can be copied
// directly into the ring: the loader's write-callback is just io.Copy's
// destination. Write claims at most half the ring's capacity per chunk and
// blocks (parking on the producer doorbell) while the consumer hasn't
// freed enough space. A single producer and a single consumer must not be
// shared across goroutines beyond that role.
func (r *ByteRing) Write(p []byte) (int, error) {
	total := len(p)
	half := int(r.size / 2)
	if half == 0 {
		half = 1
	}
	for len(p) > 0 {
		n := len(p)
		if n > half {
			n = half
		}
		r.claim(p[:n])
		p = p[n:]
	}
	return total, nil
}

func (r *ByteRing) claim(chunk []byte) {
	n := uint64(len(chunk))
	for r.written-r.readSeq.Load()+n > r.size {
		<-r.producerDoorbell
	}
	start := r.written % r.size
	if start+n <= r.size {
		copy(r.buf[start:start+n], chunk)
	} else {
		firstPart := r.size - start
		copy(r.buf[start:], chunk[:firstPart])
		copy(r.buf[:n-firstPart], chunk[firstPart:])
	}
	r.written += n
	r.writtenSeq.Store(r.written)
	notify(r.consumerDoorbell)
}

// WriteSentinel writes the two-byte end-of-stream marker. The loader calls
// this on every exit path, including after a transport error, so the
// parser always terminates.
func (r *ByteRing) WriteSentinel() {
	_, _ = r.Write([]byte{ByteSentinelFirst, ByteSentinelSecond})
}

// ReadByte blocks until the next published byte is available and returns
// it, freeing the slot for the producer as it advances.
func (r *ByteRing) ReadByte() byte {
	for r.writtenSeq.Load() <= r.readCursor {
		<-r.consumerDoorbell
	}
	idx := r.readCursor % r.size
	b := r.buf[idx]
	r.readCursor++
	r.readSeq.Store(r.readCursor)
	notify(r.producerDoorbell)
	return b
}
