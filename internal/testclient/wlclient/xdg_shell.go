//go:build linux

package wlclient

import (
	"encoding/binary"
	"fmt"
	"sync"
)

// xdg_wm_base opcodes (requests)
const (
	xdgWmBaseGetXdgSurface Opcode = 2 // get_xdg_surface(id: new_id<xdg_surface>, surface: object<wl_surface>)
)

// xdg_surface opcodes (requests)
const (
	xdgSurfaceGetToplevel  Opcode = 1 // get_toplevel(id: new_id<xdg_toplevel>)
	xdgSurfaceAckConfigure Opcode = 4 // ack_configure(serial: uint)
)

// xdg_surface event opcodes
const (
	xdgSurfaceEventConfigure Opcode = 0 // configure(serial: uint)
)

// xdg_toplevel event opcodes
const (
	xdgToplevelEventConfigure Opcode = 0 // configure(width: int, height: int, states: array)
)

// XdgWmBase represents the xdg_wm_base interface.
// This is the main interface for creating XDG shell surfaces (windows).
// No surface in this implementation ever pings, so no dispatcher is
// registered for it.
type XdgWmBase struct {
	display *Display
	id      ObjectID
}

// NewXdgWmBase creates an XdgWmBase from a bound object ID.
// The objectID should be obtained from Registry.BindXdgWmBase().
func NewXdgWmBase(display *Display, objectID ObjectID) *XdgWmBase {
	return &XdgWmBase{
		display: display,
		id:      objectID,
	}
}

// GetXdgSurface creates an XdgSurface for the given wl_surface.
// The xdg_surface interface is the basis for toplevel windows.
func (x *XdgWmBase) GetXdgSurface(surface *WlSurface) (*XdgSurface, error) {
	xdgSurfaceID := x.display.AllocID()

	builder := NewMessageBuilder()
	builder.PutNewID(xdgSurfaceID)
	builder.PutObject(surface.ID())
	msg := builder.BuildMessage(x.id, xdgWmBaseGetXdgSurface)

	if err := x.display.SendMessage(msg); err != nil {
		return nil, err
	}

	return NewXdgSurface(x.display, xdgSurfaceID, surface), nil
}

// XdgSurface represents the xdg_surface interface.
// An xdg_surface wraps a wl_surface and provides the foundation for
// toplevel windows.
type XdgSurface struct {
	display *Display
	id      ObjectID
	surface *WlSurface

	mu sync.Mutex

	// Event handlers
	onConfigure func(serial uint32)

	// Pending configure serial
	pendingSerial uint32
	configured    bool
}

// NewXdgSurface creates an XdgSurface from an object ID.
func NewXdgSurface(display *Display, objectID ObjectID, surface *WlSurface) *XdgSurface {
	s := &XdgSurface{
		display: display,
		id:      objectID,
		surface: surface,
	}
	display.registerDispatcher(objectID, s)
	return s
}

// IsConfigured returns true if the surface has received at least one configure event.
func (s *XdgSurface) IsConfigured() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.configured
}

// GetToplevel creates an xdg_toplevel role for this surface.
func (s *XdgSurface) GetToplevel() (*XdgToplevel, error) {
	toplevelID := s.display.AllocID()

	builder := NewMessageBuilder()
	builder.PutNewID(toplevelID)
	msg := builder.BuildMessage(s.id, xdgSurfaceGetToplevel)

	if err := s.display.SendMessage(msg); err != nil {
		return nil, err
	}

	return NewXdgToplevel(s.display, toplevelID, s), nil
}

// AckConfigure acknowledges a configure event.
// This must be called after receiving a configure event and applying
// the new state. The surface cannot be committed until this is done.
func (s *XdgSurface) AckConfigure(serial uint32) error {
	builder := NewMessageBuilder()
	builder.PutUint32(serial)
	msg := builder.BuildMessage(s.id, xdgSurfaceAckConfigure)

	return s.display.SendMessage(msg)
}

// SetConfigureHandler sets a callback for the configure event.
// The handler receives the serial number that must be acknowledged.
func (s *XdgSurface) SetConfigureHandler(handler func(serial uint32)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onConfigure = handler
}

// dispatch handles xdg_surface events.
func (s *XdgSurface) dispatch(msg *Message) error {
	switch msg.Opcode {
	case xdgSurfaceEventConfigure:
		return s.handleConfigure(msg)
	default:
		return nil
	}
}

// handleConfigure handles the xdg_surface.configure event.
func (s *XdgSurface) handleConfigure(msg *Message) error {
	decoder := NewDecoder(msg.Args)
	serial, err := decoder.Uint32()
	if err != nil {
		return fmt.Errorf("wayland: xdg_surface.configure: failed to decode serial: %w", err)
	}

	s.mu.Lock()
	s.pendingSerial = serial
	s.configured = true
	handler := s.onConfigure
	s.mu.Unlock()

	if handler != nil {
		handler(serial)
	}

	return nil
}

// XdgToplevelConfig holds the configuration from a toplevel configure event.
type XdgToplevelConfig struct {
	// Width is the suggested width (0 means client chooses).
	Width int32

	// Height is the suggested height (0 means client chooses).
	Height int32

	// States contains the current window states.
	States []uint32
}

// XdgToplevel represents the xdg_toplevel interface.
// This is the interface for top-level application windows.
type XdgToplevel struct {
	display    *Display
	id         ObjectID
	xdgSurface *XdgSurface

	mu sync.Mutex

	onConfigure func(config *XdgToplevelConfig)
}

// NewXdgToplevel creates an XdgToplevel from an object ID.
func NewXdgToplevel(display *Display, objectID ObjectID, xdgSurface *XdgSurface) *XdgToplevel {
	t := &XdgToplevel{
		display:    display,
		id:         objectID,
		xdgSurface: xdgSurface,
	}
	display.registerDispatcher(objectID, t)
	return t
}

// SetConfigureHandler sets a callback for the configure event.
// The handler receives the suggested dimensions and window states.
func (t *XdgToplevel) SetConfigureHandler(handler func(config *XdgToplevelConfig)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onConfigure = handler
}

// dispatch handles xdg_toplevel events.
func (t *XdgToplevel) dispatch(msg *Message) error {
	switch msg.Opcode {
	case xdgToplevelEventConfigure:
		return t.handleConfigure(msg)
	default:
		return nil
	}
}

// handleConfigure handles the xdg_toplevel.configure event.
func (t *XdgToplevel) handleConfigure(msg *Message) error {
	decoder := NewDecoder(msg.Args)

	width, err := decoder.Int32()
	if err != nil {
		return fmt.Errorf("wayland: xdg_toplevel.configure: failed to decode width: %w", err)
	}

	height, err := decoder.Int32()
	if err != nil {
		return fmt.Errorf("wayland: xdg_toplevel.configure: failed to decode height: %w", err)
	}

	statesData, err := decoder.Array()
	if err != nil {
		return fmt.Errorf("wayland: xdg_toplevel.configure: failed to decode states: %w", err)
	}

	states := make([]uint32, len(statesData)/4)
	for i := range states {
		states[i] = binary.LittleEndian.Uint32(statesData[i*4:])
	}

	config := &XdgToplevelConfig{
		Width:  width,
		Height: height,
		States: states,
	}

	t.mu.Lock()
	handler := t.onConfigure
	t.mu.Unlock()

	if handler != nil {
		handler(config)
	}

	return nil
}
