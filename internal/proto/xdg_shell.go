package proto

import (
	"fmt"

	"github.com/waylandd/waylandd/internal/object"
	"github.com/waylandd/waylandd/internal/wire"
)

// xdg_wm_base request opcodes.
const (
	XdgWmBaseDestroy          wire.Opcode = 0
	XdgWmBaseCreatePositioner wire.Opcode = 1
	XdgWmBaseGetXdgSurface    wire.Opcode = 2
	XdgWmBasePong             wire.Opcode = 3
)

// xdg_wm_base event opcodes.
const XdgWmBaseEventPing wire.Opcode = 0

// xdg_wm_base error codes.
const (
	XdgWmBaseErrorRole               uint32 = 0
	XdgWmBaseErrorDefunctSurfaces    uint32 = 1
	XdgWmBaseErrorNotTheTopmostPopup uint32 = 2
	XdgWmBaseErrorInvalidPopupParent uint32 = 3
	XdgWmBaseErrorInvalidSurfaceState uint32 = 4
	XdgWmBaseErrorInvalidPositioner  uint32 = 5
	XdgWmBaseErrorUnresponsive       uint32 = 6
)

// XdgWmBaseHandler is the handler contract for xdg_wm_base. CreatePositioner
// is accepted and acknowledged but positioners play no role in the
// supported toplevel-only shell surface flow; popups are refused by
// XdgSurfaceHandler.HandleGetPopup.
type XdgWmBaseHandler interface {
	HandleDestroy(table *object.Table, sender wire.ObjectID) error
	HandleCreatePositioner(table *object.Table, sender wire.ObjectID, id wire.ObjectID) error
	HandleGetXdgSurface(table *object.Table, sender wire.ObjectID, id wire.ObjectID, surface wire.ObjectID) error
	HandlePong(table *object.Table, sender wire.ObjectID, serial uint32) error
}

// DispatchXdgWmBase decodes opcode and invokes the matching method of h.
func DispatchXdgWmBase(h XdgWmBaseHandler, table *object.Table, sender wire.ObjectID, opcode wire.Opcode, dec *wire.Decoder) error {
	switch opcode {
	case XdgWmBaseDestroy:
		return h.HandleDestroy(table, sender)
	case XdgWmBaseCreatePositioner:
		id, err := dec.NewID()
		if err != nil {
			return err
		}
		return h.HandleCreatePositioner(table, sender, id)
	case XdgWmBaseGetXdgSurface:
		id, err := dec.NewID()
		if err != nil {
			return err
		}
		surface, err := dec.Object(false)
		if err != nil {
			return err
		}
		return h.HandleGetXdgSurface(table, sender, id, surface)
	case XdgWmBasePong:
		serial, err := dec.Uint32()
		if err != nil {
			return err
		}
		return h.HandlePong(table, sender, serial)
	default:
		return fmt.Errorf("xdg_wm_base: unknown request opcode %d", opcode)
	}
}

// SendXdgWmBasePing encodes the ping event.
func SendXdgWmBasePing(serial uint32) (body []byte, fds []int) {
	enc := wire.NewEncoder(4)
	enc.PutUint32(serial)
	return enc.Bytes(), enc.FDs()
}

// xdg_surface request opcodes.
const (
	XdgSurfaceDestroy            wire.Opcode = 0
	XdgSurfaceGetToplevel        wire.Opcode = 1
	XdgSurfaceGetPopup           wire.Opcode = 2
	XdgSurfaceSetWindowGeometry  wire.Opcode = 3
	XdgSurfaceAckConfigure       wire.Opcode = 4
)

// xdg_surface event opcodes.
const XdgSurfaceEventConfigure wire.Opcode = 0

// xdg_surface error codes.
const (
	XdgSurfaceErrorNotConstructed        uint32 = 1
	XdgSurfaceErrorAlreadyConstructed     uint32 = 2
	XdgSurfaceErrorUnconfiguredBuffer     uint32 = 3
	XdgSurfaceErrorInvalidSerial          uint32 = 4
	XdgSurfaceErrorInvalidSize            uint32 = 5
	XdgSurfaceErrorDefunctRoleObject      uint32 = 6
)

// XdgSurfaceHandler is the handler contract for xdg_surface. GetPopup is
// accepted only to produce the correct protocol error (no role object is
// ever created from it): popups are out of scope for the supported
// toplevel-only shell.
type XdgSurfaceHandler interface {
	HandleDestroy(table *object.Table, sender wire.ObjectID) error
	HandleGetToplevel(table *object.Table, sender wire.ObjectID, id wire.ObjectID) error
	HandleGetPopup(table *object.Table, sender wire.ObjectID, id wire.ObjectID, parent wire.ObjectID, positioner wire.ObjectID) error
	HandleSetWindowGeometry(table *object.Table, sender wire.ObjectID, x, y, width, height int32) error
	HandleAckConfigure(table *object.Table, sender wire.ObjectID, serial uint32) error
}

// DispatchXdgSurface decodes opcode and invokes the matching method of h.
func DispatchXdgSurface(h XdgSurfaceHandler, table *object.Table, sender wire.ObjectID, opcode wire.Opcode, dec *wire.Decoder) error {
	switch opcode {
	case XdgSurfaceDestroy:
		return h.HandleDestroy(table, sender)
	case XdgSurfaceGetToplevel:
		id, err := dec.NewID()
		if err != nil {
			return err
		}
		return h.HandleGetToplevel(table, sender, id)
	case XdgSurfaceGetPopup:
		id, err := dec.NewID()
		if err != nil {
			return err
		}
		parent, err := dec.Object(true)
		if err != nil {
			return err
		}
		positioner, err := dec.Object(false)
		if err != nil {
			return err
		}
		return h.HandleGetPopup(table, sender, id, parent, positioner)
	case XdgSurfaceSetWindowGeometry:
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
		return h.HandleSetWindowGeometry(table, sender, x, y, width, height)
	case XdgSurfaceAckConfigure:
		serial, err := dec.Uint32()
		if err != nil {
			return err
		}
		return h.HandleAckConfigure(table, sender, serial)
	default:
		return fmt.Errorf("xdg_surface: unknown request opcode %d", opcode)
	}
}

// SendXdgSurfaceConfigure encodes the configure event.
func SendXdgSurfaceConfigure(serial uint32) (body []byte, fds []int) {
	enc := wire.NewEncoder(4)
	enc.PutUint32(serial)
	return enc.Bytes(), enc.FDs()
}

// xdg_toplevel request opcodes.
const (
	XdgToplevelDestroy         wire.Opcode = 0
	XdgToplevelSetParent       wire.Opcode = 1
	XdgToplevelSetTitle        wire.Opcode = 2
	XdgToplevelSetAppID        wire.Opcode = 3
	XdgToplevelShowWindowMenu  wire.Opcode = 4
	XdgToplevelMove            wire.Opcode = 5
	XdgToplevelResize          wire.Opcode = 6
	XdgToplevelSetMaxSize      wire.Opcode = 7
	XdgToplevelSetMinSize      wire.Opcode = 8
	XdgToplevelSetMaximized    wire.Opcode = 9
	XdgToplevelUnsetMaximized  wire.Opcode = 10
	XdgToplevelSetFullscreen   wire.Opcode = 11
	XdgToplevelUnsetFullscreen wire.Opcode = 12
	XdgToplevelSetMinimized    wire.Opcode = 13
)

// xdg_toplevel event opcodes.
const (
	XdgToplevelEventConfigure wire.Opcode = 0
	XdgToplevelEventClose     wire.Opcode = 1
)

// XdgToplevelHandler is the handler contract for xdg_toplevel. Move,
// resize and show_window_menu are accepted as no-ops: there is no input
// seat driving an interactive grab in this implementation, but clients
// are not expected to handle a protocol error for requests the core
// protocol defines as always available.
type XdgToplevelHandler interface {
	HandleDestroy(table *object.Table, sender wire.ObjectID) error
	HandleSetParent(table *object.Table, sender wire.ObjectID, parent wire.ObjectID) error
	HandleSetTitle(table *object.Table, sender wire.ObjectID, title string) error
	HandleSetAppID(table *object.Table, sender wire.ObjectID, appID string) error
	HandleShowWindowMenu(table *object.Table, sender wire.ObjectID, seat wire.ObjectID, serial uint32, x, y int32) error
	HandleMove(table *object.Table, sender wire.ObjectID, seat wire.ObjectID, serial uint32) error
	HandleResize(table *object.Table, sender wire.ObjectID, seat wire.ObjectID, serial uint32, edges uint32) error
	HandleSetMaxSize(table *object.Table, sender wire.ObjectID, width, height int32) error
	HandleSetMinSize(table *object.Table, sender wire.ObjectID, width, height int32) error
	HandleSetMaximized(table *object.Table, sender wire.ObjectID) error
	HandleUnsetMaximized(table *object.Table, sender wire.ObjectID) error
	HandleSetFullscreen(table *object.Table, sender wire.ObjectID, output wire.ObjectID) error
	HandleUnsetFullscreen(table *object.Table, sender wire.ObjectID) error
	HandleSetMinimized(table *object.Table, sender wire.ObjectID) error
}

// DispatchXdgToplevel decodes opcode and invokes the matching method of h.
func DispatchXdgToplevel(h XdgToplevelHandler, table *object.Table, sender wire.ObjectID, opcode wire.Opcode, dec *wire.Decoder) error {
	switch opcode {
	case XdgToplevelDestroy:
		return h.HandleDestroy(table, sender)
	case XdgToplevelSetParent:
		parent, err := dec.Object(true)
		if err != nil {
			return err
		}
		return h.HandleSetParent(table, sender, parent)
	case XdgToplevelSetTitle:
		title, err := dec.StringArg(false)
		if err != nil {
			return err
		}
		return h.HandleSetTitle(table, sender, title)
	case XdgToplevelSetAppID:
		appID, err := dec.StringArg(false)
		if err != nil {
			return err
		}
		return h.HandleSetAppID(table, sender, appID)
	case XdgToplevelShowWindowMenu:
		seat, err := dec.Object(false)
		if err != nil {
			return err
		}
		serial, err := dec.Uint32()
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
		return h.HandleShowWindowMenu(table, sender, seat, serial, x, y)
	case XdgToplevelMove:
		seat, err := dec.Object(false)
		if err != nil {
			return err
		}
		serial, err := dec.Uint32()
		if err != nil {
			return err
		}
		return h.HandleMove(table, sender, seat, serial)
	case XdgToplevelResize:
		seat, err := dec.Object(false)
		if err != nil {
			return err
		}
		serial, err := dec.Uint32()
		if err != nil {
			return err
		}
		edges, err := dec.Uint32()
		if err != nil {
			return err
		}
		return h.HandleResize(table, sender, seat, serial, edges)
	case XdgToplevelSetMaxSize:
		width, err := dec.Int32()
		if err != nil {
			return err
		}
		height, err := dec.Int32()
		if err != nil {
			return err
		}
		return h.HandleSetMaxSize(table, sender, width, height)
	case XdgToplevelSetMinSize:
		width, err := dec.Int32()
		if err != nil {
			return err
		}
		height, err := dec.Int32()
		if err != nil {
			return err
		}
		return h.HandleSetMinSize(table, sender, width, height)
	case XdgToplevelSetMaximized:
		return h.HandleSetMaximized(table, sender)
	case XdgToplevelUnsetMaximized:
		return h.HandleUnsetMaximized(table, sender)
	case XdgToplevelSetFullscreen:
		output, err := dec.Object(true)
		if err != nil {
			return err
		}
		return h.HandleSetFullscreen(table, sender, output)
	case XdgToplevelUnsetFullscreen:
		return h.HandleUnsetFullscreen(table, sender)
	case XdgToplevelSetMinimized:
		return h.HandleSetMinimized(table, sender)
	default:
		return fmt.Errorf("xdg_toplevel: unknown request opcode %d", opcode)
	}
}

// SendXdgToplevelConfigure encodes the configure event.
func SendXdgToplevelConfigure(width, height int32, states []byte) (body []byte, fds []int) {
	enc := wire.NewEncoder(32)
	enc.PutInt32(width)
	enc.PutInt32(height)
	enc.PutArray(states)
	return enc.Bytes(), enc.FDs()
}

// SendXdgToplevelClose encodes the close event.
func SendXdgToplevelClose() (body []byte, fds []int) {
	enc := wire.NewEncoder(0)
	return enc.Bytes(), enc.FDs()
}
