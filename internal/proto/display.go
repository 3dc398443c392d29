// Package proto is the dispatch glue of §4.2: per-interface opcode tables,
// handler contracts, and typed event encoders for the interfaces of the
// schema in protocol/ that internal/objects implements. It is written by
// hand, not emitted by internal/codegen, and its shape differs from the
// generator's: wl_* names carry no "Wl" prefix (DisplayHandler,
// DispatchDisplay), Send functions return only the body and fds (callers
// pass the event opcode constant), and enum values are plain uint32
// constants.
package proto

import (
	"fmt"

	"github.com/waylandd/waylandd/internal/object"
	"github.com/waylandd/waylandd/internal/wire"
)

// wl_display request opcodes.
const (
	DisplaySync        wire.Opcode = 0
	DisplayGetRegistry  wire.Opcode = 1
)

// wl_display event opcodes.
const (
	DisplayEventError    wire.Opcode = 0
	DisplayEventDeleteID wire.Opcode = 1
)

// wl_display error codes, shared with every other interface's protocol
// errors (the error event always names wl_display as sender).
const (
	DisplayErrorInvalidObject  uint32 = 0
	DisplayErrorInvalidMethod  uint32 = 1
	DisplayErrorNoMemory       uint32 = 2
	DisplayErrorImplementation uint32 = 3
)

// wl_callback event opcode.
const CallbackEventDone wire.Opcode = 0

// DisplayHandler is the handler contract for wl_display.
type DisplayHandler interface {
	HandleSync(table *object.Table, sender wire.ObjectID, callback wire.ObjectID) error
	HandleGetRegistry(table *object.Table, sender wire.ObjectID, registry wire.ObjectID) error
}

// DispatchDisplay decodes opcode and invokes the matching method of h.
func DispatchDisplay(h DisplayHandler, table *object.Table, sender wire.ObjectID, opcode wire.Opcode, dec *wire.Decoder) error {
	switch opcode {
	case DisplaySync:
		callback, err := dec.NewID()
		if err != nil {
			return err
		}
		return h.HandleSync(table, sender, callback)
	case DisplayGetRegistry:
		registry, err := dec.NewID()
		if err != nil {
			return err
		}
		return h.HandleGetRegistry(table, sender, registry)
	default:
		return fmt.Errorf("wl_display: unknown request opcode %d", opcode)
	}
}

// SendDisplayError encodes the error event.
func SendDisplayError(objectID wire.ObjectID, code uint32, message string) (body []byte, fds []int) {
	enc := wire.NewEncoder(32)
	enc.PutObject(objectID)
	enc.PutUint32(code)
	enc.PutString(message)
	return enc.Bytes(), enc.FDs()
}

// SendDisplayDeleteID encodes the delete_id event.
func SendDisplayDeleteID(id uint32) (body []byte, fds []int) {
	enc := wire.NewEncoder(4)
	enc.PutUint32(id)
	return enc.Bytes(), enc.FDs()
}

// SendCallbackDone encodes a wl_callback done event.
func SendCallbackDone(data uint32) (body []byte, fds []int) {
	enc := wire.NewEncoder(4)
	enc.PutUint32(data)
	return enc.Bytes(), enc.FDs()
}

// RegistryHandler is the handler contract for wl_registry.
type RegistryHandler interface {
	HandleBind(table *object.Table, sender wire.ObjectID, name uint32, ifaceName string, version uint32, id wire.ObjectID) error
}

// wl_registry request opcodes.
const RegistryBind wire.Opcode = 0

// wl_registry event opcodes.
const (
	RegistryEventGlobal       wire.Opcode = 0
	RegistryEventGlobalRemove wire.Opcode = 1
)

// DispatchRegistry decodes opcode and invokes the matching method of h.
func DispatchRegistry(h RegistryHandler, table *object.Table, sender wire.ObjectID, opcode wire.Opcode, dec *wire.Decoder) error {
	switch opcode {
	case RegistryBind:
		name, err := dec.Uint32()
		if err != nil {
			return err
		}
		ifaceName, err := dec.StringArg(false)
		if err != nil {
			return err
		}
		version, err := dec.Uint32()
		if err != nil {
			return err
		}
		id, err := dec.NewID()
		if err != nil {
			return err
		}
		return h.HandleBind(table, sender, name, ifaceName, version, id)
	default:
		return fmt.Errorf("wl_registry: unknown request opcode %d", opcode)
	}
}

// SendRegistryGlobal encodes the global event.
func SendRegistryGlobal(name uint32, ifaceName string, version uint32) (body []byte, fds []int) {
	enc := wire.NewEncoder(32)
	enc.PutUint32(name)
	enc.PutString(ifaceName)
	enc.PutUint32(version)
	return enc.Bytes(), enc.FDs()
}

// SendRegistryGlobalRemove encodes the global_remove event.
func SendRegistryGlobalRemove(name uint32) (body []byte, fds []int) {
	enc := wire.NewEncoder(4)
	enc.PutUint32(name)
	return enc.Bytes(), enc.FDs()
}
