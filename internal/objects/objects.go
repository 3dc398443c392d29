// Package objects holds the reference handler implementations: the
// concrete types that sit in a client's object table and satisfy the
// generated interfaces of internal/proto. They implement the "object
// implementations (stubs)" collaborator named abstractly by the core
// spec and supplemented concretely here with the real core protocol
// plus xdg-shell, per the teacher's own client-side coverage of both.
package objects

import (
	"github.com/waylandd/waylandd/internal/proto"
	"github.com/waylandd/waylandd/internal/wire"
)

// Sink is how an object implementation submits events and mints
// serials, without depending on internal/server (which depends on
// objects, not the other way around).
type Sink interface {
	// Send queues an event for target; the caller already holds the
	// encoded body and any fds from the matching proto.Send<Iface><Event>
	// call.
	Send(target wire.ObjectID, opcode wire.Opcode, body []byte, fds []int) error
	// NextSerial returns a monotonically increasing per-connection
	// serial, used for configure/ping events.
	NextSerial() uint32
	// DumpDir returns the directory surface commits write buffer
	// contents into, standing in for real compositing (spec.md §1:
	// "surface rendering (buffer contents are dumped to a file as a
	// debugging stub)").
	DumpDir() string
}

// Named is implemented by object types outside the generated AnyObject
// enumeration (region and positioner stubs), so InterfaceName can still
// report a name for them. The server's debug tracer does not use it and
// prints "?" for these objects.
type Named interface {
	InterfaceName() string
}

// InterfaceName returns the best interface name available for obj: the
// generated AnyObject kind if obj implements it, the stub's own name
// otherwise, or "unknown".
func InterfaceName(obj any) string {
	switch v := obj.(type) {
	case proto.AnyObject:
		return v.Kind().String()
	case Named:
		return v.InterfaceName()
	default:
		return "unknown"
	}
}
