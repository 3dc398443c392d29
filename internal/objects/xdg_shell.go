package objects

import (
	"fmt"

	"github.com/waylandd/waylandd/internal/object"
	"github.com/waylandd/waylandd/internal/proto"
	"github.com/waylandd/waylandd/internal/wire"
)

// XdgWmBase is the per-client xdg_wm_base factory object.
type XdgWmBase struct {
	sink         Sink
	lastPingSent uint32
}

// NewXdgWmBase constructs an xdg_wm_base bound via the registry.
func NewXdgWmBase(sink Sink) *XdgWmBase {
	return &XdgWmBase{sink: sink}
}

func (w *XdgWmBase) Kind() proto.AnyObjectKind { return proto.KindXdgWmBase }

func (w *XdgWmBase) HandleRequest(table *object.Table, sender wire.ObjectID, opcode wire.Opcode, dec *wire.Decoder) error {
	return proto.DispatchXdgWmBase(w, table, sender, opcode, dec)
}

func (w *XdgWmBase) HandleDestroy(table *object.Table, sender wire.ObjectID) error {
	entries, err := table.GetMany([]wire.ObjectID{sender})
	if err != nil {
		return err
	}
	entries[0].Take()
	return nil
}

func (w *XdgWmBase) HandleCreatePositioner(table *object.Table, sender wire.ObjectID, id wire.ObjectID) error {
	entries, err := table.GetMany([]wire.ObjectID{id})
	if err != nil {
		return err
	}
	entries[0].Insert(newPassiveStub("xdg_positioner"))
	return nil
}

// HandleGetXdgSurface implements xdg_wm_base.get_xdg_surface. It checks
// only that surface names a wl_surface; whether that surface already has
// a role or an xdg_surface is not checked, so a second request against
// the same surface creates a second, independent xdg_surface. No
// configure is sent here; get_toplevel sends it.
func (w *XdgWmBase) HandleGetXdgSurface(table *object.Table, sender wire.ObjectID, id wire.ObjectID, surface wire.ObjectID) error {
	entries, err := table.GetMany([]wire.ObjectID{surface, id})
	if err != nil {
		return err
	}
	if _, ok := object.As[*Surface](entries[0]); !ok {
		return fmt.Errorf("xdg_wm_base: get_xdg_surface: id %d is not a wl_surface", surface)
	}
	entries[1].Insert(NewXdgSurface(w.sink, surface))
	return nil
}

// HandlePong implements xdg_wm_base.pong: acknowledges the matching
// ping; unresponsive-client termination is not implemented since there
// is no timer driving ping in this server.
func (w *XdgWmBase) HandlePong(table *object.Table, sender wire.ObjectID, serial uint32) error {
	return nil
}

// SendPing emits xdg_wm_base.ping with the given serial.
func (w *XdgWmBase) SendPing(id wire.ObjectID, serial uint32) error {
	w.lastPingSent = serial
	body, fds := proto.SendXdgWmBasePing(serial)
	return w.sink.Send(id, proto.XdgWmBaseEventPing, body, fds)
}

// XdgSurface is a per-client xdg_surface: the window-system role
// wrapper around one wl_surface.
type XdgSurface struct {
	sink      Sink
	surfaceID wire.ObjectID
}

// NewXdgSurface constructs an xdg_surface wrapping surfaceID.
func NewXdgSurface(sink Sink, surfaceID wire.ObjectID) *XdgSurface {
	return &XdgSurface{sink: sink, surfaceID: surfaceID}
}

func (s *XdgSurface) Kind() proto.AnyObjectKind { return proto.KindXdgSurface }

func (s *XdgSurface) HandleRequest(table *object.Table, sender wire.ObjectID, opcode wire.Opcode, dec *wire.Decoder) error {
	return proto.DispatchXdgSurface(s, table, sender, opcode, dec)
}

func (s *XdgSurface) HandleDestroy(table *object.Table, sender wire.ObjectID) error {
	entries, err := table.GetMany([]wire.ObjectID{sender})
	if err != nil {
		return err
	}
	entries[0].Take()
	return nil
}

// HandleGetToplevel implements xdg_surface.get_toplevel: the new
// toplevel is inserted and both it and its xdg_surface are immediately
// sent a configure, advertising the fixed default size window placement
// is out of scope for this server.
func (s *XdgSurface) HandleGetToplevel(table *object.Table, sender wire.ObjectID, id wire.ObjectID) error {
	entries, err := table.GetMany([]wire.ObjectID{id})
	if err != nil {
		return err
	}
	entries[0].Insert(NewXdgToplevel(s.sink, sender))

	tlBody, tlFDs := proto.SendXdgToplevelConfigure(0, 0, nil)
	if err := s.sink.Send(id, proto.XdgToplevelEventConfigure, tlBody, tlFDs); err != nil {
		return err
	}

	serial := s.sink.NextSerial()
	cfgBody, cfgFDs := proto.SendXdgSurfaceConfigure(serial)
	return s.sink.Send(sender, proto.XdgSurfaceEventConfigure, cfgBody, cfgFDs)
}

// HandleGetPopup always fails: popups are out of scope (window
// placement is a non-goal).
func (s *XdgSurface) HandleGetPopup(table *object.Table, sender wire.ObjectID, id wire.ObjectID, parent wire.ObjectID, positioner wire.ObjectID) error {
	return fmt.Errorf("xdg_surface: get_popup: popups are not supported")
}

func (s *XdgSurface) HandleSetWindowGeometry(table *object.Table, sender wire.ObjectID, x, y, width, height int32) error {
	return nil
}

func (s *XdgSurface) HandleAckConfigure(table *object.Table, sender wire.ObjectID, serial uint32) error {
	return nil
}

// XdgToplevel is a per-client xdg_toplevel.
type XdgToplevel struct {
	sink         Sink
	xdgSurfaceID wire.ObjectID
	title, appID string
}

// NewXdgToplevel constructs an xdg_toplevel rooted at xdgSurfaceID.
func NewXdgToplevel(sink Sink, xdgSurfaceID wire.ObjectID) *XdgToplevel {
	return &XdgToplevel{sink: sink, xdgSurfaceID: xdgSurfaceID}
}

func (t *XdgToplevel) Kind() proto.AnyObjectKind { return proto.KindXdgToplevel }

func (t *XdgToplevel) HandleRequest(table *object.Table, sender wire.ObjectID, opcode wire.Opcode, dec *wire.Decoder) error {
	return proto.DispatchXdgToplevel(t, table, sender, opcode, dec)
}

func (t *XdgToplevel) HandleDestroy(table *object.Table, sender wire.ObjectID) error {
	entries, err := table.GetMany([]wire.ObjectID{sender})
	if err != nil {
		return err
	}
	entries[0].Take()
	return nil
}

func (t *XdgToplevel) HandleSetParent(table *object.Table, sender wire.ObjectID, parent wire.ObjectID) error {
	return nil
}

func (t *XdgToplevel) HandleSetTitle(table *object.Table, sender wire.ObjectID, title string) error {
	t.title = title
	return nil
}

func (t *XdgToplevel) HandleSetAppID(table *object.Table, sender wire.ObjectID, appID string) error {
	t.appID = appID
	return nil
}

// HandleShowWindowMenu, HandleMove and HandleResize are no-ops: there is
// no input seat in this implementation to drive an interactive grab.
func (t *XdgToplevel) HandleShowWindowMenu(table *object.Table, sender wire.ObjectID, seat wire.ObjectID, serial uint32, x, y int32) error {
	return nil
}

func (t *XdgToplevel) HandleMove(table *object.Table, sender wire.ObjectID, seat wire.ObjectID, serial uint32) error {
	return nil
}

func (t *XdgToplevel) HandleResize(table *object.Table, sender wire.ObjectID, seat wire.ObjectID, serial uint32, edges uint32) error {
	return nil
}

func (t *XdgToplevel) HandleSetMaxSize(table *object.Table, sender wire.ObjectID, width, height int32) error {
	return nil
}

func (t *XdgToplevel) HandleSetMinSize(table *object.Table, sender wire.ObjectID, width, height int32) error {
	return nil
}

func (t *XdgToplevel) HandleSetMaximized(table *object.Table, sender wire.ObjectID) error { return nil }

func (t *XdgToplevel) HandleUnsetMaximized(table *object.Table, sender wire.ObjectID) error {
	return nil
}

func (t *XdgToplevel) HandleSetFullscreen(table *object.Table, sender wire.ObjectID, output wire.ObjectID) error {
	return nil
}

func (t *XdgToplevel) HandleUnsetFullscreen(table *object.Table, sender wire.ObjectID) error {
	return nil
}

func (t *XdgToplevel) HandleSetMinimized(table *object.Table, sender wire.ObjectID) error { return nil }

// SendClose emits xdg_toplevel.close.
func (t *XdgToplevel) SendClose(id wire.ObjectID) error {
	body, fds := proto.SendXdgToplevelClose()
	return t.sink.Send(id, proto.XdgToplevelEventClose, body, fds)
}
