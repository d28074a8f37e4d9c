package audio

import "sync"

// ring is a fixed-size single-writer sample ring buffer.
//
// The writer (sample ingestion) only ever appends; readers take a copy of
// the most recent window. The mutex guards only index bookkeeping and the
// window copy, so ingestion never blocks behind a running transform.
type ring struct {
	mu      sync.Mutex
	buf     []float64
	pos     int
	written uint64 // total samples ever written
}

func newRing(size int) *ring {
	return &ring{buf: make([]float64, size)}
}

// write appends samples, overwriting the oldest.
func (r *ring) write(samples []float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range samples {
		r.buf[r.pos] = s
		r.pos = (r.pos + 1) % len(r.buf)
	}
	r.written += uint64(len(samples))
}

// snapshot copies the most recent len(buf) samples in arrival order into
// dst, which must be exactly ring-sized. Returns the total-written counter
// so the caller can tell how much is new since its last snapshot.
func (r *ring) snapshot(dst []float64) uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := copy(dst, r.buf[r.pos:])
	copy(dst[n:], r.buf[:r.pos])
	return r.written
}
