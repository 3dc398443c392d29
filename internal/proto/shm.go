package proto

import (
	"fmt"

	"github.com/waylandd/waylandd/internal/object"
	"github.com/waylandd/waylandd/internal/wire"
)

// wl_shm request opcodes.
const ShmCreatePool wire.Opcode = 0

// wl_shm event opcodes.
const ShmEventFormat wire.Opcode = 0

// wl_shm error codes.
const (
	ShmErrorInvalidFormat uint32 = 0
	ShmErrorInvalidStride uint32 = 1
	ShmErrorInvalidFD     uint32 = 2
)

// wl_shm.format values actually advertised; ARGB8888 and XRGB8888 are
// mandatory per the core protocol.
const (
	ShmFormatArgb8888 uint32 = 0
	ShmFormatXrgb8888 uint32 = 1
)

// ShmHandler is the handler contract for wl_shm.
type ShmHandler interface {
	HandleCreatePool(table *object.Table, sender wire.ObjectID, id wire.ObjectID, fd int, size int32) error
}

// DispatchShm decodes opcode and invokes the matching method of h.
func DispatchShm(h ShmHandler, table *object.Table, sender wire.ObjectID, opcode wire.Opcode, dec *wire.Decoder) error {
	switch opcode {
	case ShmCreatePool:
		id, err := dec.NewID()
		if err != nil {
			return err
		}
		fd, err := dec.FD()
		if err != nil {
			return err
		}
		size, err := dec.Int32()
		if err != nil {
			return err
		}
		return h.HandleCreatePool(table, sender, id, fd, size)
	default:
		return fmt.Errorf("wl_shm: unknown request opcode %d", opcode)
	}
}

// SendShmFormat encodes the format event.
func SendShmFormat(format uint32) (body []byte, fds []int) {
	enc := wire.NewEncoder(4)
	enc.PutUint32(format)
	return enc.Bytes(), enc.FDs()
}

// wl_shm_pool request opcodes.
const (
	ShmPoolCreateBuffer wire.Opcode = 0
	ShmPoolDestroy      wire.Opcode = 1
	ShmPoolResize       wire.Opcode = 2
)

// ShmPoolHandler is the handler contract for wl_shm_pool.
type ShmPoolHandler interface {
	HandleCreateBuffer(table *object.Table, sender wire.ObjectID, id wire.ObjectID, offset, width, height, stride int32, format uint32) error
	HandleDestroy(table *object.Table, sender wire.ObjectID) error
	HandleResize(table *object.Table, sender wire.ObjectID, size int32) error
}

// DispatchShmPool decodes opcode and invokes the matching method of h.
func DispatchShmPool(h ShmPoolHandler, table *object.Table, sender wire.ObjectID, opcode wire.Opcode, dec *wire.Decoder) error {
	switch opcode {
	case ShmPoolCreateBuffer:
		id, err := dec.NewID()
		if err != nil {
			return err
		}
		offset, err := dec.Int32()
		if err != nil {
			return err
		}
		width, err := dec.Int32()
		if err != nil {
			return err
		}
		height, err := dec.Int32()
		if err != nil {
			return err
		}
		stride, err := dec.Int32()
		if err != nil {
			return err
		}
		format, err := dec.Uint32()
		if err != nil {
			return err
		}
		return h.HandleCreateBuffer(table, sender, id, offset, width, height, stride, format)
	case ShmPoolDestroy:
		return h.HandleDestroy(table, sender)
	case ShmPoolResize:
		size, err := dec.Int32()
		if err != nil {
			return err
		}
		return h.HandleResize(table, sender, size)
	default:
		return fmt.Errorf("wl_shm_pool: unknown request opcode %d", opcode)
	}
}

// wl_buffer request opcodes.
const BufferDestroy wire.Opcode = 0

// wl_buffer event opcodes.
const BufferEventRelease wire.Opcode = 0

// BufferHandler is the handler contract for wl_buffer.
type BufferHandler interface {
	HandleDestroy(table *object.Table, sender wire.ObjectID) error
}

// DispatchBuffer decodes opcode and invokes the matching method of h.
func DispatchBuffer(h BufferHandler, table *object.Table, sender wire.ObjectID, opcode wire.Opcode, dec *wire.Decoder) error {
	switch opcode {
	case BufferDestroy:
		return h.HandleDestroy(table, sender)
	default:
		return fmt.Errorf("wl_buffer: unknown request opcode %d", opcode)
	}
}

// SendBufferRelease encodes the release event.
func SendBufferRelease() (body []byte, fds []int) {
	enc := wire.NewEncoder(0)
	return enc.Bytes(), enc.FDs()
}
