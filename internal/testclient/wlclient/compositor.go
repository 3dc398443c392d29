//go:build linux

package wlclient

// wl_compositor opcodes (requests)
const (
	compositorCreateSurface Opcode = 0 // create_surface(id: new_id<wl_surface>)
)

// wl_surface opcodes (requests)
const (
	surfaceAttach Opcode = 1 // attach(buffer: object<wl_buffer>, x: int, y: int)
	surfaceCommit Opcode = 6 // commit()
)

// WlCompositor represents the wl_compositor interface.
// It is responsible for creating surfaces.
type WlCompositor struct {
	display *Display
	id      ObjectID
}

// NewWlCompositor creates a WlCompositor from a bound object ID.
// The objectID should be obtained from Registry.BindCompositor().
func NewWlCompositor(display *Display, objectID ObjectID) *WlCompositor {
	return &WlCompositor{
		display: display,
		id:      objectID,
	}
}

// CreateSurface creates a new surface.
func (c *WlCompositor) CreateSurface() (*WlSurface, error) {
	surfaceID := c.display.AllocID()

	builder := NewMessageBuilder()
	builder.PutNewID(surfaceID)
	msg := builder.BuildMessage(c.id, compositorCreateSurface)

	if err := c.display.SendMessage(msg); err != nil {
		return nil, err
	}

	return NewWlSurface(c.display, surfaceID), nil
}

// WlSurface represents the wl_surface interface.
// A surface is a rectangular area used to display content.
type WlSurface struct {
	display *Display
	id      ObjectID
}

// NewWlSurface creates a WlSurface from an object ID. wl_output/wl_seat are
// not implemented server-side, so surfaces never receive enter/leave events
// and need no dispatcher registration.
func NewWlSurface(display *Display, objectID ObjectID) *WlSurface {
	return &WlSurface{
		display: display,
		id:      objectID,
	}
}

// ID returns the object ID of the surface.
func (s *WlSurface) ID() ObjectID {
	return s.id
}

// Attach attaches a buffer to the surface.
// The x and y arguments specify the offset from the new buffer's position
// to the current surface position.
// If buffer is 0, the surface is unmapped.
func (s *WlSurface) Attach(buffer ObjectID, x, y int32) error {
	builder := NewMessageBuilder()
	builder.PutObject(buffer)
	builder.PutInt32(x)
	builder.PutInt32(y)
	msg := builder.BuildMessage(s.id, surfaceAttach)

	return s.display.SendMessage(msg)
}

// Commit commits the pending surface state.
// This atomically applies all pending changes (buffer, damage, etc.)
// and submits them to the compositor.
func (s *WlSurface) Commit() error {
	builder := NewMessageBuilder()
	msg := builder.BuildMessage(s.id, surfaceCommit)

	return s.display.SendMessage(msg)
}
