//go:build linux

package wlclient

import (
	"sync"
)

// wl_shm opcodes (requests)
const (
	shmCreatePool Opcode = 0 // create_pool(id: new_id<wl_shm_pool>, fd: fd, size: int)
)

// wl_shm event opcodes
const (
	shmEventFormat Opcode = 0 // format(format: uint)
)

// wl_shm_pool opcodes (requests)
const (
	shmPoolCreateBuffer Opcode = 0 // create_buffer(id: new_id, offset: int, width: int, height: int, stride: int, format: uint)
)

// ShmFormat represents a pixel format supported by wl_shm.
// These match the wl_shm_format enum from wayland.xml.
type ShmFormat uint32

// Common wl_shm_format values.
const (
	// ShmFormatARGB8888 is 32-bit ARGB (8-8-8-8), little-endian.
	ShmFormatARGB8888 ShmFormat = 0

	// ShmFormatXRGB8888 is 32-bit RGB (8-8-8-8), little-endian, no alpha.
	ShmFormatXRGB8888 ShmFormat = 1
)

// WlShm represents the wl_shm interface.
// It provides shared memory support for creating buffers.
type WlShm struct {
	display *Display
	id      ObjectID

	mu      sync.RWMutex
	formats []ShmFormat
}

// NewWlShm creates a WlShm from a bound object ID.
// The objectID should be obtained from Registry.BindShm().
func NewWlShm(display *Display, objectID ObjectID) *WlShm {
	s := &WlShm{
		display: display,
		id:      objectID,
		formats: make([]ShmFormat, 0, 16),
	}
	display.registerDispatcher(objectID, s)
	return s
}

// CreatePool creates a new shared memory pool from a file descriptor.
// The fd should be a file descriptor to a shared memory object (e.g., from
// shm_open or memfd_create). The size is the size of the pool in bytes.
// The file descriptor is consumed by this call and should not be used afterward.
func (s *WlShm) CreatePool(fd int, size int32) (*WlShmPool, error) {
	poolID := s.display.AllocID()

	builder := NewMessageBuilder()
	builder.PutNewID(poolID)
	builder.PutFD(fd)
	builder.PutInt32(size)
	msg := builder.BuildMessage(s.id, shmCreatePool)

	if err := s.display.SendMessage(msg); err != nil {
		return nil, err
	}

	return NewWlShmPool(s.display, poolID), nil
}

// Formats returns a copy of the supported pixel formats.
// This list is populated by format events from the compositor.
// Call Display.Roundtrip() after binding to ensure formats are received.
func (s *WlShm) Formats() []ShmFormat {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]ShmFormat, len(s.formats))
	copy(result, s.formats)
	return result
}

// HasFormat returns true if the given format is supported.
func (s *WlShm) HasFormat(format ShmFormat) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, f := range s.formats {
		if f == format {
			return true
		}
	}
	return false
}

// dispatch handles wl_shm events.
func (s *WlShm) dispatch(msg *Message) error {
	if msg.Opcode == shmEventFormat {
		return s.handleFormat(msg)
	}
	return nil
}

func (s *WlShm) handleFormat(msg *Message) error {
	decoder := NewDecoder(msg.Args)
	formatVal, err := decoder.Uint32()
	if err != nil {
		return err
	}

	format := ShmFormat(formatVal)

	s.mu.Lock()
	s.formats = append(s.formats, format)
	s.mu.Unlock()

	return nil
}

// WlShmPool represents the wl_shm_pool interface.
// A pool is a chunk of shared memory from which buffers can be created.
type WlShmPool struct {
	display *Display
	id      ObjectID
}

// NewWlShmPool creates a WlShmPool from an object ID.
func NewWlShmPool(display *Display, objectID ObjectID) *WlShmPool {
	return &WlShmPool{
		display: display,
		id:      objectID,
	}
}

// CreateBuffer creates a buffer from this pool.
// Parameters:
//   - offset: byte offset within the pool
//   - width: width of the buffer in pixels
//   - height: height of the buffer in pixels
//   - stride: number of bytes per row
//   - format: pixel format
func (p *WlShmPool) CreateBuffer(offset, width, height, stride int32, format ShmFormat) (*WlBuffer, error) {
	bufferID := p.display.AllocID()

	builder := NewMessageBuilder()
	builder.PutNewID(bufferID)
	builder.PutInt32(offset)
	builder.PutInt32(width)
	builder.PutInt32(height)
	builder.PutInt32(stride)
	builder.PutUint32(uint32(format))
	msg := builder.BuildMessage(p.id, shmPoolCreateBuffer)

	if err := p.display.SendMessage(msg); err != nil {
		return nil, err
	}

	return NewWlBuffer(p.display, bufferID), nil
}

// WlBuffer represents the wl_buffer interface.
// A buffer contains pixel data that can be attached to a surface.
type WlBuffer struct {
	display *Display
	id      ObjectID
}

// NewWlBuffer creates a WlBuffer from an object ID. Buffer release events
// are never asserted by the harness, so no dispatcher is registered.
func NewWlBuffer(display *Display, objectID ObjectID) *WlBuffer {
	return &WlBuffer{
		display: display,
		id:      objectID,
	}
}

// ID returns the object ID of the buffer.
func (b *WlBuffer) ID() ObjectID {
	return b.id
}
