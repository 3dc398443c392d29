package server

import (
	"errors"
	"fmt"
	"io"

	"github.com/rs/zerolog"

	"github.com/waylandd/waylandd/internal/object"
	"github.com/waylandd/waylandd/internal/objects"
	"github.com/waylandd/waylandd/internal/proto"
	"github.com/waylandd/waylandd/internal/transport"
	"github.com/waylandd/waylandd/internal/wire"
)

// client is one connected peer: its transport half, object table and
// serial counter. It implements objects.Sink so the object graph can
// submit events without knowing about the transport layer directly.
type client struct {
	id      uint32
	conn    *transport.Conn
	table   *object.Table
	serial  uint32
	dumpDir string

	trace *tracer
	log   zerolog.Logger
}

func newClient(id uint32, conn *transport.Conn, dumpDir string, trace *tracer, log zerolog.Logger) *client {
	c := &client{id: id, conn: conn, table: object.New(), dumpDir: dumpDir, trace: trace, log: log}
	c.table.Insert(1, objects.NewDisplay(c, objects.NewGlobals()))
	return c
}

func (c *client) DumpDir() string { return c.dumpDir }

func (c *client) Send(target wire.ObjectID, opcode wire.Opcode, body []byte, fds []int) error {
	if c.trace != nil {
		c.trace.event(c.table, target, opcode)
	}
	return c.conn.Submit(target, opcode, body, fds)
}

func (c *client) NextSerial() uint32 {
	c.serial++
	return c.serial
}

// errClientDone signals the event loop to drop this client, without
// itself being a transport or protocol failure worth logging as one
// (e.g. a clean peer-initiated close).
var errClientDone = errors.New("server: client connection closed")

// tick drains one readiness notification: fill the receive half, dispatch
// every fully-buffered message, then best-effort flush the send half. It
// returns errClientDone (or a wrapped I/O/protocol error) when the client
// must be dropped.
func (c *client) tick() (err error) {
	defer func() {
		if r := recover(); r != nil {
			c.log.Error().Interface("panic", r).Uint32("client", c.id).Msg("recovered from panic in client dispatch")
			err = fmt.Errorf("server: client %d: panicked: %v", c.id, r)
		}
	}()

	if err := c.conn.Fill(); err != nil {
		if errors.Is(err, io.EOF) {
			return errClientDone
		}
		return fmt.Errorf("server: client %d: %w", c.id, err)
	}

	for {
		target, opcode, dec, totalSize, ok, err := c.conn.NextMessage()
		if err != nil {
			return fmt.Errorf("server: client %d: %w", c.id, err)
		}
		if !ok {
			break
		}

		if c.trace != nil {
			c.trace.request(c.table, target, opcode)
		}
		dispatchErr := object.DispatchRequest(c.table, target, opcode, dec)
		c.conn.ConsumeMessage(totalSize, dec.FDsConsumed())
		if dispatchErr != nil {
			return fmt.Errorf("server: client %d: dispatch: %w", c.id, dispatchErr)
		}
	}

	if err := c.conn.Flush(); err != nil {
		return fmt.Errorf("server: client %d: %w", c.id, err)
	}
	return nil
}

func (c *client) close() error { return c.conn.Close() }

// kindOf reports the AnyObjectKind of the object at id, for tracing. It
// returns (0, false) for an empty or out-of-range slot, or for an object
// that does not implement proto.AnyObject.
func kindOf(table *object.Table, id wire.ObjectID) (proto.AnyObjectKind, bool) {
	obj, err := table.Lookup(id)
	if err != nil || obj == nil {
		return 0, false
	}
	a, ok := obj.(proto.AnyObject)
	if !ok {
		return 0, false
	}
	return a.Kind(), true
}
