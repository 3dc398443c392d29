// Package codegen emits Go dispatch glue from a parsed protocol (§4.2): for
// every selected interface, a handler contract (<Iface>Handler, one method
// per request), a Dispatch<Iface> function that decodes a request's
// arguments and calls the matching method, typed Send<Iface><Event>
// encoders and enums, plus the AnyObjectKind enumeration. Dispatch<Iface>
// passes the target and object-typed arguments as raw ids; it borrows
// nothing from the object table, which is left to each handler. The
// checked-in internal/proto package is written by hand in a different
// shape and is not this generator's output. The template-driven shape here follows the reference
// XML-to-Go scanner's approach of building one text/template per emitted
// construct and executing them interface by interface.
package codegen

import (
	"bytes"
	"fmt"
	"go/format"
	"sort"
	"strings"
	"text/template"

	"github.com/waylandd/waylandd/internal/schema"
)

// Options configures one generation pass.
type Options struct {
	Package string
	// Implemented restricts generation to this set of interface names:
	// interfaces outside it get no handler, dispatch function, event
	// encoders, enums or AnyObjectKind constant. An empty set means "every interface in the
	// protocol". Interfaces named here but absent from the input protocol
	// are ignored.
	Implemented map[string]bool
}

// Generate renders the Go source for proto's interfaces per opts, gofmt'd.
func Generate(proto *schema.Protocol, opts Options) ([]byte, error) {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "// Code generated from %s; DO NOT EDIT.\n\n", proto.Name)
	fmt.Fprintf(&buf, "package %s\n\n", opts.Package)
	buf.WriteString(`import (
	"fmt"

	"github.com/waylandd/waylandd/internal/object"
	"github.com/waylandd/waylandd/internal/wire"
)

`)

	names := make([]string, 0, len(proto.Interfaces))
	byName := make(map[string]schema.Interface, len(proto.Interfaces))
	for _, iface := range proto.Interfaces {
		if len(opts.Implemented) > 0 && !opts.Implemented[iface.Name] {
			continue
		}
		names = append(names, iface.Name)
		byName[iface.Name] = iface
	}
	sort.Strings(names)

	for _, name := range names {
		iface := byName[name]
		if err := emitInterface(&buf, iface); err != nil {
			return nil, fmt.Errorf("codegen: interface %q: %w", iface.Name, err)
		}
	}

	emitAnyObject(&buf, names)

	out, err := format.Source(buf.Bytes())
	if err != nil {
		// Surface the unformatted source alongside the error: a
		// generator bug is easier to find in raw, unindented output.
		return buf.Bytes(), fmt.Errorf("codegen: gofmt: %w", err)
	}
	return out, nil
}

type tmplIface struct {
	GoName   string
	Requests []tmplMessage
	Events   []tmplMessage
	Enums    []tmplEnum
}

type tmplMessage struct {
	GoName      string
	Opcode      int
	Destructor  bool
	Args        []tmplArg
	ParamList   string
	DecodeStmts []string
	CallArgs    string
	EncodeStmts []string
	ArgWords    []string // encoder statements contributing to body length, for doc purposes only
}

type tmplArg struct {
	GoName string
	Type   schema.ArgType
}

type tmplEnum struct {
	GoName  string
	Entries []tmplEntry
}

type tmplEntry struct {
	GoName string
	Value  uint32
}

func goName(s string) string {
	parts := strings.Split(s, "_")
	var b strings.Builder
	for _, p := range parts {
		if p == "" {
			continue
		}
		b.WriteString(strings.ToUpper(p[:1]))
		b.WriteString(p[1:])
	}
	out := b.String()
	if out == "" {
		return "X"
	}
	if out[0] >= '0' && out[0] <= '9' {
		return "_" + out
	}
	return out
}

const ifaceTypePrefixTemplate = `// {{.GoName}}Handler is the handler contract for {{.GoName}}, one
// method per request.
type {{.GoName}}Handler interface {
{{- range .Requests}}
	Handle{{.GoName}}(table *object.Table, sender wire.ObjectID{{.ParamList}}) error
{{- end}}
}

`

const dispatchTemplate = `// Dispatch{{.GoName}} decodes opcode and invokes the matching method of h.
func Dispatch{{.GoName}}(h {{.GoName}}Handler, table *object.Table, sender wire.ObjectID, opcode wire.Opcode, dec *wire.Decoder) error {
	switch opcode {
{{- range .Requests}}
	case {{.Opcode}}:
{{- range .DecodeStmts}}
		{{.}}
{{- end}}
		return h.Handle{{.GoName}}(table, sender{{.CallArgs}})
{{- end}}
	default:
		return fmt.Errorf("{{.GoName}}: unknown request opcode %d", opcode)
	}
}

`

const eventTemplate = `{{range .Events}}
// Send{{$.GoName}}{{.GoName}} encodes the {{.GoName}} event and returns its body, fds and opcode.
func Send{{$.GoName}}{{.GoName}}(sender wire.ObjectID{{.ParamList}}) ([]byte, []int, wire.Opcode) {
	enc := wire.NewEncoder(32)
{{- range .EncodeStmts}}
	{{.}}
{{- end}}
	return enc.Bytes(), enc.FDs(), {{.Opcode}}
}
{{end}}`

const enumTemplate = `{{$iface := .GoName}}{{range .Enums}}{{$enumType := printf "%s%s" $iface .GoName}}
// {{$enumType}} is a closed tagged enum.
type {{$enumType}} uint32

const (
{{- range .Entries}}
	{{$enumType}}{{.GoName}} {{$enumType}} = {{.Value}}
{{- end}}
)

// Decode{{$enumType}} maps a wire value to its variant, failing on
// unknown values.
func Decode{{$enumType}}(v uint32) ({{$enumType}}, error) {
	switch {{$enumType}}(v) {
{{- range .Entries}}
	case {{$enumType}}{{.GoName}}:
		return {{$enumType}}{{.GoName}}, nil
{{- end}}
	default:
		return 0, fmt.Errorf("{{$enumType}}: invalid value %d", v)
	}
}
{{end}}`

func emitInterface(buf *bytes.Buffer, iface schema.Interface) error {
	data := tmplIface{GoName: goName(iface.Name)}

	for i, req := range iface.Requests {
		m, err := buildMessage(req, i, false)
		if err != nil {
			return err
		}
		data.Requests = append(data.Requests, m)
	}
	for i, ev := range iface.Events {
		m, err := buildMessage(ev, i, true)
		if err != nil {
			return err
		}
		data.Events = append(data.Events, m)
	}
	for _, enum := range iface.Enums {
		e := tmplEnum{GoName: goName(enum.Name)}
		for _, entry := range enum.Entries {
			e.Entries = append(e.Entries, tmplEntry{GoName: goName(entry.Name), Value: entry.Value})
		}
		data.Enums = append(data.Enums, e)
	}

	for _, tpl := range []string{ifaceTypePrefixTemplate, dispatchTemplate, eventTemplate, enumTemplate} {
		t := template.Must(template.New("x").Parse(tpl))
		if err := t.Execute(buf, data); err != nil {
			return err
		}
	}
	return nil
}

func buildMessage(msg schema.Message, opcode int, isEvent bool) (tmplMessage, error) {
	m := tmplMessage{
		GoName:     goName(msg.Name),
		Opcode:     opcode,
		Destructor: msg.Kind == schema.MessageDestructor,
	}

	var params, callArgs []string
	for idx, arg := range msg.Args {
		an := goName(arg.Name)
		if an == "Interface" {
			an = fmt.Sprintf("Interface%d", idx)
		}
		m.Args = append(m.Args, tmplArg{GoName: an, Type: arg.Type})

		goType, decodeExpr, encodeStmt := argShape(arg, an)
		params = append(params, fmt.Sprintf("%s %s", strings.ToLower(an[:1])+an[1:], goType))
		callArgs = append(callArgs, strings.ToLower(an[:1])+an[1:])

		if !isEvent {
			m.DecodeStmts = append(m.DecodeStmts, fmt.Sprintf("%s, err := %s", strings.ToLower(an[:1])+an[1:], decodeExpr))
			m.DecodeStmts = append(m.DecodeStmts, "if err != nil { return err }")
		} else {
			m.EncodeStmts = append(m.EncodeStmts, encodeStmt)
		}
	}

	if !isEvent {
		if len(params) > 0 {
			m.ParamList = ", " + strings.Join(params, ", ")
		}
		if len(callArgs) > 0 {
			m.CallArgs = ", " + strings.Join(callArgs, ", ")
		}
	} else {
		if len(params) > 0 {
			m.ParamList = ", " + strings.Join(params, ", ")
		}
	}
	return m, nil
}

// argShape returns the Go parameter type, the Decoder expression used to
// read it (requests only), and the Encoder statement used to write it
// (events only).
func argShape(arg schema.Arg, goArgName string) (goType, decodeExpr, encodeStmt string) {
	local := strings.ToLower(goArgName[:1]) + goArgName[1:]
	switch arg.Type {
	case schema.ArgInt:
		return "int32", "dec.Int32()", fmt.Sprintf("enc.PutInt32(%s)", local)
	case schema.ArgUint:
		return "uint32", "dec.Uint32()", fmt.Sprintf("enc.PutUint32(%s)", local)
	case schema.ArgFixed:
		return "wire.Fixed", "dec.FixedArg()", fmt.Sprintf("enc.PutFixed(%s)", local)
	case schema.ArgString:
		return "string", fmt.Sprintf("dec.StringArg(%t)", arg.AllowNull), fmt.Sprintf("enc.PutString(%s)", local)
	case schema.ArgObject:
		return "wire.ObjectID", fmt.Sprintf("dec.Object(%t)", arg.AllowNull), fmt.Sprintf("enc.PutObject(%s)", local)
	case schema.ArgNewID:
		return "wire.ObjectID", "dec.NewID()", fmt.Sprintf("enc.PutNewID(%s)", local)
	case schema.ArgArray:
		return "[]byte", "dec.Array()", fmt.Sprintf("enc.PutArray(%s)", local)
	case schema.ArgFD:
		return "int", "dec.FD()", fmt.Sprintf("enc.PutFD(%s)", local)
	default:
		return "any", "nil, fmt.Errorf(\"unsupported arg type\")", "_ = " + local
	}
}

func emitAnyObject(buf *bytes.Buffer, names []string) {
	buf.WriteString("// AnyObjectKind enumerates every interface with a concrete implementation.\n")
	buf.WriteString("type AnyObjectKind int\n\nconst (\n")
	for i, n := range names {
		fmt.Fprintf(buf, "\tKind%s AnyObjectKind = %d\n", goName(n), i)
	}
	buf.WriteString(")\n")
}
