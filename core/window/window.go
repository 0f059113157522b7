// Package window turns a series of scaled readings into fixed-length windows,
// either all at once for batch evaluation or incrementally for the live monitor.
package window

import (
	"github.com/SohamS7S/Smart-factory-ai/schema"
)

// Count returns how many windows MakeWindows produces for n readings.
func Count(n, size int) int {
	if size < 1 || n <= size {
		return 0
	}
	return n - size
}

// EndIndex returns the reading index that identifies window i.
func EndIndex(i, size int) int {
	return i + size
}

// MakeWindows builds every window of the given size over series.
// Window i holds readings i+1 through i+size, so a series of n readings yields n-size windows
// and window i ends on reading i+size. Windows share no storage with series.
func MakeWindows(series []schema.Vector, size int) []schema.Window {
	n := Count(len(series), size)
	if n == 0 {
		return nil
	}

	// All windows share one backing array, capped so appends cannot spill over.
	backing := make([]schema.Vector, n*size)
	windows := make([]schema.Window, n)
	for i := range n {
		w := schema.Window(backing[i*size : (i+1)*size : (i+1)*size])
		copy(w, series[i+1:i+1+size])
		windows[i] = w
	}
	return windows
}

// Ring keeps the most recent readings of a stream in a fixed-size buffer.
type Ring struct {
	buf  []schema.Vector
	head int // next write position
	n    int
}

// NewRing creates a ring holding up to size readings.
func NewRing(size int) *Ring {
	if size < 1 {
		size = 1
	}
	return &Ring{buf: make([]schema.Vector, size)}
}

// Size returns the capacity of the ring.
func (r *Ring) Size() int { return len(r.buf) }

// Len returns how many readings the ring currently holds.
func (r *Ring) Len() int { return r.n }

// Full reports whether the ring holds a complete window.
func (r *Ring) Full() bool { return r.n == len(r.buf) }

// Push appends a reading, evicting the oldest when full.
func (r *Ring) Push(v schema.Vector) {
	r.buf[r.head] = v
	r.head = (r.head + 1) % len(r.buf)
	if r.n < len(r.buf) {
		r.n++
	}
}

// Window returns the held readings oldest first, or false when the ring is not full.
func (r *Ring) Window() (schema.Window, bool) {
	if !r.Full() {
		return nil, false
	}
	out := make(schema.Window, len(r.buf))
	k := copy(out, r.buf[r.head:])
	copy(out[k:], r.buf[:r.head])
	return out, true
}

// Reset empties the ring.
func (r *Ring) Reset() {
	r.head = 0
	r.n = 0
}
