// Package ring implements the fixed-capacity byte and file-descriptor
// buffers used by a connection's send and receive halves.
//
// Each buffer tracks a read index (start of filled data) and a write index
// (start of free space) into a preallocated backing array. Byte indices
// stay word-aligned at message boundaries; a short read can leave a
// partial-word tail in the buffer, but that tail is never exposed to a
// parser. Neither buffer grows: once capacity is exhausted and a
// compaction pass still does not make room, callers see ErrBackpressure
// instead of blocking.
package ring

import (
	"errors"

	"github.com/waylandd/waylandd/internal/wire"
)

// ErrBackpressure is returned when a reservation cannot be satisfied after
// a flush attempt and a compaction pass.
var ErrBackpressure = errors.New("ring: backpressure")

// ErrCapacity is returned when a requested capacity is not a positive
// multiple of the wire word size.
var ErrCapacity = errors.New("ring: capacity must be a positive multiple of the word size")

// Flusher drains bytes starting at buf[0:n] from the outgoing side of a
// transport, returning how many bytes it actually wrote.
type Flusher func(buf []byte) (n int, err error)

// Bytes is a fixed-capacity, word-aligned byte ring.
type Bytes struct {
	buf   []byte
	read  int
	write int
}

// NewBytes allocates a byte ring of the given capacity, which must be a
// positive multiple of wire.WordSize.
func NewBytes(capacity int) (*Bytes, error) {
	if capacity <= 0 || capacity%wire.WordSize != 0 {
		return nil, ErrCapacity
	}
	return &Bytes{buf: make([]byte, capacity)}, nil
}

// Len returns the number of filled bytes.
func (b *Bytes) Len() int { return b.write - b.read }

// Free returns the number of bytes available at the tail without
// compaction.
func (b *Bytes) Free() int { return len(b.buf) - b.write }

// Cap returns the buffer's total capacity.
func (b *Bytes) Cap() int { return len(b.buf) }

// Filled returns the view of currently-filled bytes. The slice aliases the
// ring's backing array and is invalidated by the next Compact, Reserve, or
// Consume call.
func (b *Bytes) Filled() []byte { return b.buf[b.read:b.write] }

// Consume advances the read index past n already-parsed bytes.
func (b *Bytes) Consume(n int) {
	b.read += n
	if b.read == b.write {
		b.read, b.write = 0, 0
	}
}

// Compact shifts the filled region down to offset 0, preserving word
// alignment: the read index is rounded down to the nearest word boundary
// so only whole words move.
func (b *Bytes) Compact() {
	if b.read == 0 {
		return
	}
	aligned := b.read - (b.read % wire.WordSize)
	if aligned == 0 {
		return
	}
	n := copy(b.buf, b.buf[aligned:b.write])
	b.read -= aligned
	b.write = n
}

// Reserve makes room for n bytes at the tail, attempting in order: a
// non-blocking flush via flush, then a compaction pass, then reporting
// ErrBackpressure. flush may be nil, in which case only compaction is
// tried. On success it returns the offset at which the caller should write
// the n bytes; the caller must call Commit(n) afterward.
func (b *Bytes) Reserve(n int, flush Flusher) (offset int, err error) {
	if n > len(b.buf) {
		return 0, ErrBackpressure
	}
	if b.Free() < n && flush != nil {
		if ferr := b.tryFlush(flush); ferr != nil {
			return 0, ferr
		}
	}
	if b.Free() < n {
		b.Compact()
	}
	if b.Free() < n {
		return 0, ErrBackpressure
	}
	return b.write, nil
}

// Commit advances the write index past n bytes placed at the offset
// returned by Reserve.
func (b *Bytes) Commit(n int) { b.write += n }

// Tail returns the writable region at and after the write index, sized at
// least to the last Reserve call's request. Callers write into this slice
// directly rather than through Reserve's returned offset when they prefer
// a slice over an index.
func (b *Bytes) Tail() []byte { return b.buf[b.write:] }

func (b *Bytes) tryFlush(flush Flusher) error {
	for b.read < b.write {
		n, err := flush(b.buf[b.read:b.write])
		if n > 0 {
			b.read += n
			if b.read == b.write {
				b.read, b.write = 0, 0
			}
		}
		if err != nil {
			return err
		}
		if n == 0 {
			return nil
		}
	}
	return nil
}

// FDs is a fixed-capacity file-descriptor ring. Descriptors carry no
// alignment requirement and are shifted rather than reinterpreted.
type FDs struct {
	fds   []int
	read  int
	write int
}

// NewFDs allocates an fd ring with room for capacity descriptors.
func NewFDs(capacity int) (*FDs, error) {
	if capacity <= 0 {
		return nil, ErrCapacity
	}
	return &FDs{fds: make([]int, capacity)}, nil
}

// Len returns the number of queued descriptors.
func (f *FDs) Len() int { return f.write - f.read }

// Free returns the number of descriptor slots available at the tail.
func (f *FDs) Free() int { return len(f.fds) - f.write }

// Cap returns the ring's total descriptor capacity.
func (f *FDs) Cap() int { return len(f.fds) }

// Push appends one descriptor, compacting first if necessary. It reports
// ErrBackpressure if the ring is at capacity even after compaction.
func (f *FDs) Push(fd int) error {
	if f.Free() == 0 {
		f.Compact()
	}
	if f.Free() == 0 {
		return ErrBackpressure
	}
	f.fds[f.write] = fd
	f.write++
	return nil
}

// Peek returns the currently-queued descriptors without consuming them.
// The slice aliases the ring's backing array and is invalidated by the
// next Push, Compact, or Drop call.
func (f *FDs) Peek() []int { return f.fds[f.read:f.write] }

// Drop consumes n queued descriptors from the head without returning them,
// for callers that already observed them via Peek.
func (f *FDs) Drop(n int) {
	f.read += n
	if f.read == f.write {
		f.read, f.write = 0, 0
	}
}

// Pop removes and returns the oldest queued descriptor.
func (f *FDs) Pop() (int, bool) {
	if f.read == f.write {
		return 0, false
	}
	fd := f.fds[f.read]
	f.read++
	if f.read == f.write {
		f.read, f.write = 0, 0
	}
	return fd, true
}

// Compact shifts the filled region down to offset 0.
func (f *FDs) Compact() {
	if f.read == 0 {
		return
	}
	n := copy(f.fds, f.fds[f.read:f.write])
	f.read = 0
	f.write = n
}

// Reserve makes room for n descriptor slots at the tail, compacting if
// necessary, and reports ErrBackpressure if the ring's capacity cannot
// accommodate n descriptors at all.
func (f *FDs) Reserve(n int) error {
	if n > len(f.fds) {
		return ErrBackpressure
	}
	if f.Free() < n {
		f.Compact()
	}
	if f.Free() < n {
		return ErrBackpressure
	}
	return nil
}

// Drain removes and returns up to max queued descriptors in FIFO order.
func (f *FDs) Drain(max int) []int {
	n := f.Len()
	if n > max {
		n = max
	}
	out := make([]int, n)
	copy(out, f.fds[f.read:f.read+n])
	f.read += n
	if f.read == f.write {
		f.read, f.write = 0, 0
	}
	return out
}
