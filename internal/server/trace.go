package server

import (
	"fmt"
	"io"
	"time"

	"github.com/waylandd/waylandd/internal/object"
	"github.com/waylandd/waylandd/internal/proto"
	"github.com/waylandd/waylandd/internal/wire"
)

// traceEnvVar is the environment toggle for the debug trace (§6.3). Its
// value must be "1" or "server", matching the reference implementation's
// WAYLAND_DEBUG convention.
const traceEnvVar = "WAYLAND_DEBUG"

func traceEnabled(value string) bool {
	return value == "1" || value == "server"
}

// tracer writes one line per dispatched request and submitted event to
// out, in the `[sssssss.mmm] [→ ]interface@id.name` shape documented in
// §6.3. now is injectable so tests can supply a fixed clock.
type tracer struct {
	out io.Writer
	now func() time.Time
}

func newTracer(out io.Writer) *tracer {
	return &tracer{out: out, now: time.Now}
}

func (t *tracer) timestamp() string {
	d := t.now()
	return fmt.Sprintf("%7d.%03d", d.Unix(), d.Nanosecond()/1e6)
}

func (t *tracer) request(table *object.Table, target wire.ObjectID, opcode wire.Opcode) {
	kind, ok := kindOf(table, target)
	name := "?"
	ifaceName := "?"
	if ok {
		ifaceName = kind.String()
		name = proto.RequestName(kind, uint16(opcode))
	}
	fmt.Fprintf(t.out, "[%s] %s@%d.%s()\n", t.timestamp(), ifaceName, target, name)
}

func (t *tracer) event(table *object.Table, target wire.ObjectID, opcode wire.Opcode) {
	kind, ok := kindOf(table, target)
	name := "?"
	ifaceName := "?"
	if ok {
		ifaceName = kind.String()
		name = proto.EventName(kind, uint16(opcode))
	}
	fmt.Fprintf(t.out, "[%s] → %s@%d.%s()\n", t.timestamp(), ifaceName, target, name)
}
