package ring

import (
	"bytes"
	"errors"
	"testing"
)

func TestBytesRejectsBadCapacity(t *testing.T) {
	tests := []struct {
		name string
		cap  int
	}{
		{"zero", 0},
		{"negative", -4},
		{"unaligned", 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewBytes(tt.cap); !errors.Is(err, ErrCapacity) {
				t.Errorf("NewBytes(%d) error = %v, want ErrCapacity", tt.cap, err)
			}
		})
	}
}

func TestBytesReserveCommitConsume(t *testing.T) {
	b, err := NewBytes(16)
	if err != nil {
		t.Fatalf("NewBytes() error = %v", err)
	}

	off, err := b.Reserve(8, nil)
	if err != nil {
		t.Fatalf("Reserve(8) error = %v", err)
	}
	if off != 0 {
		t.Fatalf("Reserve(8) offset = %d, want 0", off)
	}
	copy(b.Tail(), []byte{1, 2, 3, 4, 5, 6, 7, 8})
	b.Commit(8)

	if got := b.Len(); got != 8 {
		t.Fatalf("Len() = %d, want 8", got)
	}
	if !bytes.Equal(b.Filled(), []byte{1, 2, 3, 4, 5, 6, 7, 8}) {
		t.Fatalf("Filled() = %v", b.Filled())
	}

	b.Consume(4)
	if !bytes.Equal(b.Filled(), []byte{5, 6, 7, 8}) {
		t.Fatalf("Filled() after Consume(4) = %v", b.Filled())
	}
}

func TestBytesCompactPreservesWordAlignment(t *testing.T) {
	b, err := NewBytes(16)
	if err != nil {
		t.Fatalf("NewBytes() error = %v", err)
	}
	off, _ := b.Reserve(12, nil)
	_ = off
	copy(b.Tail(), []byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12})
	b.Commit(12)

	b.Consume(5) // leaves read at 5, not word-aligned
	b.Compact()

	// Compact only moves whole words: read=5 rounds down to 4, so one
	// stray byte (value 5) remains ahead of the live data after the shift.
	want := []byte{6, 7, 8, 9, 10, 11, 12}
	got := b.Filled()
	if !bytes.Equal(got, want) {
		t.Fatalf("Filled() after Compact() = %v, want %v", got, want)
	}
}

func TestBytesReserveInvokesFlushWhenTailIsFull(t *testing.T) {
	b, err := NewBytes(8)
	if err != nil {
		t.Fatalf("NewBytes() error = %v", err)
	}
	off, _ := b.Reserve(8, nil)
	_ = off
	b.Commit(8)
	b.Consume(4) // read=4, write=8, free-at-tail=0

	flushed := false
	flush := func(buf []byte) (int, error) {
		flushed = true
		return len(buf), nil
	}

	if _, err := b.Reserve(4, flush); err != nil {
		t.Fatalf("Reserve(4) with flush error = %v", err)
	}
	if !flushed {
		t.Fatalf("expected flush to be invoked before compaction")
	}
}

func TestBytesReserveBackpressureWhenTooLarge(t *testing.T) {
	b, err := NewBytes(8)
	if err != nil {
		t.Fatalf("NewBytes() error = %v", err)
	}
	if _, err := b.Reserve(9, nil); !errors.Is(err, ErrBackpressure) {
		t.Fatalf("Reserve(9) error = %v, want ErrBackpressure", err)
	}
}

func TestBytesReserveBackpressureAfterFlushAndCompactFail(t *testing.T) {
	b, err := NewBytes(8)
	if err != nil {
		t.Fatalf("NewBytes() error = %v", err)
	}
	off, _ := b.Reserve(8, nil)
	_ = off
	b.Commit(8) // full, nothing consumed: compaction cannot help

	noopFlush := func(buf []byte) (int, error) { return 0, nil }
	if _, err := b.Reserve(4, noopFlush); !errors.Is(err, ErrBackpressure) {
		t.Fatalf("Reserve(4) error = %v, want ErrBackpressure", err)
	}
}

func TestFDsPushPopFIFO(t *testing.T) {
	f, err := NewFDs(4)
	if err != nil {
		t.Fatalf("NewFDs() error = %v", err)
	}
	for _, fd := range []int{3, 4, 5} {
		if err := f.Push(fd); err != nil {
			t.Fatalf("Push(%d) error = %v", fd, err)
		}
	}
	for _, want := range []int{3, 4, 5} {
		got, ok := f.Pop()
		if !ok || got != want {
			t.Fatalf("Pop() = (%d, %v), want (%d, true)", got, ok, want)
		}
	}
	if _, ok := f.Pop(); ok {
		t.Fatalf("Pop() on empty ring returned ok")
	}
}

func TestFDsPushCompactsBeforeBackpressure(t *testing.T) {
	f, err := NewFDs(2)
	if err != nil {
		t.Fatalf("NewFDs() error = %v", err)
	}
	if err := f.Push(1); err != nil {
		t.Fatalf("Push(1) error = %v", err)
	}
	if err := f.Push(2); err != nil {
		t.Fatalf("Push(2) error = %v", err)
	}
	if _, ok := f.Pop(); !ok {
		t.Fatalf("Pop() failed")
	}
	// one free slot after popping; compaction should make room without
	// reaching backpressure.
	if err := f.Push(3); err != nil {
		t.Fatalf("Push(3) error = %v, want nil (compaction should free room)", err)
	}
}

func TestFDsReserveBackpressureWhenExceedsCapacity(t *testing.T) {
	f, err := NewFDs(2)
	if err != nil {
		t.Fatalf("NewFDs() error = %v", err)
	}
	if err := f.Reserve(3); !errors.Is(err, ErrBackpressure) {
		t.Fatalf("Reserve(3) error = %v, want ErrBackpressure", err)
	}
}

func TestFDsDrain(t *testing.T) {
	f, err := NewFDs(4)
	if err != nil {
		t.Fatalf("NewFDs() error = %v", err)
	}
	f.Push(1)
	f.Push(2)
	f.Push(3)

	got := f.Drain(2)
	want := []int{1, 2}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("Drain(2) = %v, want %v", got, want)
	}
	if f.Len() != 1 {
		t.Fatalf("Len() after Drain(2) = %d, want 1", f.Len())
	}
}
