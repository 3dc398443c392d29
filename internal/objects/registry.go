package objects

import (
	"fmt"

	"github.com/waylandd/waylandd/internal/object"
	"github.com/waylandd/waylandd/internal/proto"
	"github.com/waylandd/waylandd/internal/wire"
)

// GlobalEntry is one advertised name in the registry: a stable numeric
// name, the interface it binds to, and the version advertised.
type GlobalEntry struct {
	Name      uint32
	Interface string
	Version   uint32
}

// Globals is the fixed set of globals this server advertises. There is
// no dynamic global add/remove: compositing, input and output are
// non-goals, so the set of interfaces with a concrete implementation
// never changes at runtime.
type Globals struct {
	Entries []GlobalEntry
}

// NewGlobals returns the server's fixed global list.
func NewGlobals() *Globals {
	return &Globals{Entries: []GlobalEntry{
		{Name: 0, Interface: "wl_shm", Version: 1},
		{Name: 1, Interface: "wl_compositor", Version: 4},
		{Name: 2, Interface: "xdg_wm_base", Version: 3},
	}}
}

func (g *Globals) find(ifaceName string) (GlobalEntry, bool) {
	for _, e := range g.Entries {
		if e.Interface == ifaceName {
			return e, true
		}
	}
	return GlobalEntry{}, false
}

// Registry is a per-client wl_registry, created by display.get_registry.
type Registry struct {
	sink    Sink
	globals *Globals
}

// NewRegistry constructs a registry bound to the server's fixed globals.
func NewRegistry(sink Sink, globals *Globals) *Registry {
	return &Registry{sink: sink, globals: globals}
}

func (r *Registry) Kind() proto.AnyObjectKind { return proto.KindRegistry }

func (r *Registry) HandleRequest(table *object.Table, sender wire.ObjectID, opcode wire.Opcode, dec *wire.Decoder) error {
	return proto.DispatchRegistry(r, table, sender, opcode, dec)
}

// HandleBind implements wl_registry.bind: the new object's concrete type
// is chosen by the interface name the client requested (S3).
func (r *Registry) HandleBind(table *object.Table, sender wire.ObjectID, name uint32, ifaceName string, version uint32, id wire.ObjectID) error {
	if _, ok := r.globals.find(ifaceName); !ok {
		return fmt.Errorf("wl_registry: bind: unknown global interface %q", ifaceName)
	}

	entries, err := table.GetMany([]wire.ObjectID{id})
	if err != nil {
		return err
	}

	switch ifaceName {
	case "wl_shm":
		entries[0].Insert(NewShm(r.sink))
		for _, format := range []uint32{proto.ShmFormatArgb8888, proto.ShmFormatXrgb8888} {
			body, fds := proto.SendShmFormat(format)
			if err := r.sink.Send(id, proto.ShmEventFormat, body, fds); err != nil {
				return err
			}
		}
	case "wl_compositor":
		entries[0].Insert(NewCompositor(r.sink))
	case "xdg_wm_base":
		entries[0].Insert(NewXdgWmBase(r.sink))
	default:
		return fmt.Errorf("wl_registry: bind: unsupported global interface %q", ifaceName)
	}
	return nil
}
