package objects

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/waylandd/waylandd/internal/object"
	"github.com/waylandd/waylandd/internal/proto"
	"github.com/waylandd/waylandd/internal/wire"
)

// Compositor is the per-client wl_compositor factory object.
type Compositor struct {
	sink Sink
}

// NewCompositor constructs a wl_compositor bound via the registry.
func NewCompositor(sink Sink) *Compositor {
	return &Compositor{sink: sink}
}

func (c *Compositor) Kind() proto.AnyObjectKind { return proto.KindCompositor }

func (c *Compositor) HandleRequest(table *object.Table, sender wire.ObjectID, opcode wire.Opcode, dec *wire.Decoder) error {
	return proto.DispatchCompositor(c, table, sender, opcode, dec)
}

func (c *Compositor) HandleCreateSurface(table *object.Table, sender wire.ObjectID, id wire.ObjectID) error {
	entries, err := table.GetMany([]wire.ObjectID{id})
	if err != nil {
		return err
	}
	entries[0].Insert(NewSurface(c.sink))
	return nil
}

func (c *Compositor) HandleCreateRegion(table *object.Table, sender wire.ObjectID, id wire.ObjectID) error {
	entries, err := table.GetMany([]wire.ObjectID{id})
	if err != nil {
		return err
	}
	entries[0].Insert(newPassiveStub("wl_region"))
	return nil
}

// surfaceState is a surface's double-buffered request state: everything
// a client can set between two commits.
type surfaceState struct {
	buffer           wire.ObjectID
	bufferX, bufferY int32
	bufferScale      int32
	bufferTransform  int32
}

// Surface is a per-client wl_surface. Request state lands in pending and
// moves to current atomically on commit (§9, S5).
type Surface struct {
	sink    Sink
	pending surfaceState
	current surfaceState
}

// NewSurface constructs a wl_surface with the protocol's documented
// default buffer scale and transform.
func NewSurface(sink Sink) *Surface {
	init := surfaceState{bufferScale: 1, bufferTransform: 0}
	return &Surface{sink: sink, pending: init, current: init}
}

// Current returns the surface's last-committed state, for tests and
// debug tracing.
func (s *Surface) Current() (buffer wire.ObjectID, x, y, scale, transform int32) {
	c := s.current
	return c.buffer, c.bufferX, c.bufferY, c.bufferScale, c.bufferTransform
}

func (s *Surface) Kind() proto.AnyObjectKind { return proto.KindSurface }

func (s *Surface) HandleRequest(table *object.Table, sender wire.ObjectID, opcode wire.Opcode, dec *wire.Decoder) error {
	return proto.DispatchSurface(s, table, sender, opcode, dec)
}

func (s *Surface) HandleDestroy(table *object.Table, sender wire.ObjectID) error {
	entries, err := table.GetMany([]wire.ObjectID{sender})
	if err != nil {
		return err
	}
	entries[0].Take()
	return nil
}

func (s *Surface) HandleAttach(table *object.Table, sender wire.ObjectID, buffer wire.ObjectID, x, y int32) error {
	s.pending.buffer = buffer
	s.pending.bufferX = x
	s.pending.bufferY = y
	return nil
}

func (s *Surface) HandleDamage(table *object.Table, sender wire.ObjectID, x, y, width, height int32) error {
	return nil
}

func (s *Surface) HandleDamageBuffer(table *object.Table, sender wire.ObjectID, x, y, width, height int32) error {
	return nil
}

// HandleFrame fires the frame callback immediately: there is no vsync
// clock to synchronize against in this implementation.
func (s *Surface) HandleFrame(table *object.Table, sender wire.ObjectID, callback wire.ObjectID) error {
	entries, err := table.GetMany([]wire.ObjectID{callback})
	if err != nil {
		return err
	}
	entries[0].Insert(&Callback{})

	body, fds := proto.SendCallbackDone(0)
	if err := s.sink.Send(callback, proto.CallbackEventDone, body, fds); err != nil {
		return err
	}
	entries[0].Take()
	return nil
}

func (s *Surface) HandleSetOpaqueRegion(table *object.Table, sender wire.ObjectID, region wire.ObjectID) error {
	return nil
}

func (s *Surface) HandleSetInputRegion(table *object.Table, sender wire.ObjectID, region wire.ObjectID) error {
	return nil
}

// HandleCommit moves pending state to current (S5). Rendering is a
// non-goal, so an attached buffer's contents are dumped to a file under
// the sink's DumpDir rather than composited, standing in for a real
// scanout path.
func (s *Surface) HandleCommit(table *object.Table, sender wire.ObjectID) error {
	s.current = s.pending
	if s.current.buffer == 0 {
		return nil
	}

	entries, err := table.GetMany([]wire.ObjectID{s.current.buffer})
	if err != nil {
		return err
	}
	buf, ok := object.As[*Buffer](entries[0])
	if !ok {
		return nil
	}
	return s.dumpBuffer(sender, buf)
}

func (s *Surface) dumpBuffer(sender wire.ObjectID, buf *Buffer) error {
	dir := s.sink.DumpDir()
	if dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("wl_surface: commit: dump dir: %w", err)
	}
	name := filepath.Join(dir, fmt.Sprintf("surface-%d-commit-%d.raw", sender, s.sink.NextSerial()))
	return os.WriteFile(name, buf.Bytes(), 0o644)
}

func (s *Surface) HandleSetBufferTransform(table *object.Table, sender wire.ObjectID, transform int32) error {
	s.pending.bufferTransform = transform
	return nil
}

func (s *Surface) HandleSetBufferScale(table *object.Table, sender wire.ObjectID, scale int32) error {
	s.pending.bufferScale = scale
	return nil
}
