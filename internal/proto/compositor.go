package proto

import (
	"fmt"

	"github.com/waylandd/waylandd/internal/object"
	"github.com/waylandd/waylandd/internal/wire"
)

// wl_compositor request opcodes.
const (
	CompositorCreateSurface wire.Opcode = 0
	CompositorCreateRegion  wire.Opcode = 1
)

// CompositorHandler is the handler contract for wl_compositor.
type CompositorHandler interface {
	HandleCreateSurface(table *object.Table, sender wire.ObjectID, id wire.ObjectID) error
	HandleCreateRegion(table *object.Table, sender wire.ObjectID, id wire.ObjectID) error
}

// DispatchCompositor decodes opcode and invokes the matching method of h.
func DispatchCompositor(h CompositorHandler, table *object.Table, sender wire.ObjectID, opcode wire.Opcode, dec *wire.Decoder) error {
	switch opcode {
	case CompositorCreateSurface:
		id, err := dec.NewID()
		if err != nil {
			return err
		}
		return h.HandleCreateSurface(table, sender, id)
	case CompositorCreateRegion:
		id, err := dec.NewID()
		if err != nil {
			return err
		}
		return h.HandleCreateRegion(table, sender, id)
	default:
		return fmt.Errorf("wl_compositor: unknown request opcode %d", opcode)
	}
}

// wl_surface request opcodes.
const (
	SurfaceDestroy            wire.Opcode = 0
	SurfaceAttach             wire.Opcode = 1
	SurfaceDamage             wire.Opcode = 2
	SurfaceFrame              wire.Opcode = 3
	SurfaceSetOpaqueRegion    wire.Opcode = 4
	SurfaceSetInputRegion     wire.Opcode = 5
	SurfaceCommit             wire.Opcode = 6
	SurfaceSetBufferTransform wire.Opcode = 7
	SurfaceSetBufferScale     wire.Opcode = 8
	SurfaceDamageBuffer       wire.Opcode = 9
)

// wl_surface event opcodes.
const (
	SurfaceEventEnter wire.Opcode = 0
	SurfaceEventLeave wire.Opcode = 1
)

// wl_surface error codes.
const (
	SurfaceErrorInvalidScale     uint32 = 0
	SurfaceErrorInvalidTransform uint32 = 1
	SurfaceErrorInvalidSize      uint32 = 2
	SurfaceErrorInvalidOffset    uint32 = 3
)

// SurfaceHandler is the handler contract for wl_surface.
type SurfaceHandler interface {
	HandleDestroy(table *object.Table, sender wire.ObjectID) error
	HandleAttach(table *object.Table, sender wire.ObjectID, buffer wire.ObjectID, x, y int32) error
	HandleDamage(table *object.Table, sender wire.ObjectID, x, y, width, height int32) error
	HandleFrame(table *object.Table, sender wire.ObjectID, callback wire.ObjectID) error
	HandleSetOpaqueRegion(table *object.Table, sender wire.ObjectID, region wire.ObjectID) error
	HandleSetInputRegion(table *object.Table, sender wire.ObjectID, region wire.ObjectID) error
	HandleCommit(table *object.Table, sender wire.ObjectID) error
	HandleSetBufferTransform(table *object.Table, sender wire.ObjectID, transform int32) error
	HandleSetBufferScale(table *object.Table, sender wire.ObjectID, scale int32) error
	HandleDamageBuffer(table *object.Table, sender wire.ObjectID, x, y, width, height int32) error
}

// DispatchSurface decodes opcode and invokes the matching method of h.
func DispatchSurface(h SurfaceHandler, table *object.Table, sender wire.ObjectID, opcode wire.Opcode, dec *wire.Decoder) error {
	switch opcode {
	case SurfaceDestroy:
		return h.HandleDestroy(table, sender)
	case SurfaceAttach:
		buffer, err := dec.Object(true)
		if err != nil {
			return err
		}
		x, err := dec.Int32()
		if err != nil {
			return err
		}
		y, err := dec.Int32()
		if err != nil {
			return err
		}
		return h.HandleAttach(table, sender, buffer, x, y)
	case SurfaceDamage:
		x, err := dec.Int32()
		if err != nil {
			return err
		}
		y, err := dec.Int32()
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
		return h.HandleDamage(table, sender, x, y, width, height)
	case SurfaceFrame:
		callback, err := dec.NewID()
		if err != nil {
			return err
		}
		return h.HandleFrame(table, sender, callback)
	case SurfaceSetOpaqueRegion:
		region, err := dec.Object(true)
		if err != nil {
			return err
		}
		return h.HandleSetOpaqueRegion(table, sender, region)
	case SurfaceSetInputRegion:
		region, err := dec.Object(true)
		if err != nil {
			return err
		}
		return h.HandleSetInputRegion(table, sender, region)
	case SurfaceCommit:
		return h.HandleCommit(table, sender)
	case SurfaceSetBufferTransform:
		transform, err := dec.Int32()
		if err != nil {
			return err
		}
		return h.HandleSetBufferTransform(table, sender, transform)
	case SurfaceSetBufferScale:
		scale, err := dec.Int32()
		if err != nil {
			return err
		}
		return h.HandleSetBufferScale(table, sender, scale)
	case SurfaceDamageBuffer:
		x, err := dec.Int32()
		if err != nil {
			return err
		}
		y, err := dec.Int32()
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
		return h.HandleDamageBuffer(table, sender, x, y, width, height)
	default:
		return fmt.Errorf("wl_surface: unknown request opcode %d", opcode)
	}
}

// SendSurfaceEnter encodes the enter event.
func SendSurfaceEnter(output wire.ObjectID) (body []byte, fds []int) {
	enc := wire.NewEncoder(4)
	enc.PutObject(output)
	return enc.Bytes(), enc.FDs()
}

// SendSurfaceLeave encodes the leave event.
func SendSurfaceLeave(output wire.ObjectID) (body []byte, fds []int) {
	enc := wire.NewEncoder(4)
	enc.PutObject(output)
	return enc.Bytes(), enc.FDs()
}
