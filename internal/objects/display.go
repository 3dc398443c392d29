package objects

import (
	"github.com/waylandd/waylandd/internal/object"
	"github.com/waylandd/waylandd/internal/proto"
	"github.com/waylandd/waylandd/internal/wire"
)

// Display is the singleton wl_display object seeded into every client's
// table at id 1.
type Display struct {
	sink    Sink
	globals *Globals
}

// NewDisplay constructs the wl_display singleton for one client.
func NewDisplay(sink Sink, globals *Globals) *Display {
	return &Display{sink: sink, globals: globals}
}

func (d *Display) Kind() proto.AnyObjectKind { return proto.KindDisplay }

func (d *Display) HandleRequest(table *object.Table, sender wire.ObjectID, opcode wire.Opcode, dec *wire.Decoder) error {
	return proto.DispatchDisplay(d, table, sender, opcode, dec)
}

// HandleSync implements wl_display.sync: the callback fires immediately
// since there is no frame clock to wait on, then its slot is
// destructor-emptied (S1).
func (d *Display) HandleSync(table *object.Table, sender wire.ObjectID, callback wire.ObjectID) error {
	entries, err := table.GetMany([]wire.ObjectID{callback})
	if err != nil {
		return err
	}
	entries[0].Insert(&Callback{})

	body, fds := proto.SendCallbackDone(0)
	if err := d.sink.Send(callback, proto.CallbackEventDone, body, fds); err != nil {
		return err
	}
	entries[0].Take()
	return nil
}

// HandleGetRegistry implements wl_display.get_registry: the new registry
// is inserted and immediately told about every known global (S2).
func (d *Display) HandleGetRegistry(table *object.Table, sender wire.ObjectID, registry wire.ObjectID) error {
	entries, err := table.GetMany([]wire.ObjectID{registry})
	if err != nil {
		return err
	}
	entries[0].Insert(NewRegistry(d.sink, d.globals))

	for _, g := range d.globals.Entries {
		body, fds := proto.SendRegistryGlobal(g.Name, g.Interface, g.Version)
		if err := d.sink.Send(registry, proto.RegistryEventGlobal, body, fds); err != nil {
			return err
		}
	}
	return nil
}

// SendError emits wl_display.error naming this connection's display
// object as sender, matching the protocol's convention that fatal
// protocol errors are always reported against id 1.
func (d *Display) SendError(objectID wire.ObjectID, code uint32, message string) error {
	body, fds := proto.SendDisplayError(objectID, code, message)
	return d.sink.Send(1, proto.DisplayEventError, body, fds)
}

// Callback is the one-shot wl_callback object created by sync and
// surface.frame. It defines no requests of its own, so it never
// implements object.Dispatcher; a stray request to a callback id
// surfaces as object.ErrWrongType.
type Callback struct{}

func (c *Callback) Kind() proto.AnyObjectKind { return proto.KindCallback }
