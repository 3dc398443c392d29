// Package schema parses Wayland protocol XML files into the in-memory
// protocol model that internal/codegen consumes. The reader walks raw XML
// tokens rather than unmarshaling into tagged structs so that it can
// enforce the stricter contracts of §4.1: required/unknown/duplicate
// attribute checks, and rejection of stray text outside <description> and
// <copyright>. The type shapes (Protocol/Interface/Message/Arg/Enum)
// mirror the reference XML-to-Go scanner's struct layout.
package schema

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strconv"
)

// ArgType is the closed set of Wayland wire argument types.
type ArgType int

const (
	ArgInt ArgType = iota
	ArgUint
	ArgFixed
	ArgString
	ArgObject
	ArgNewID
	ArgArray
	ArgFD
)

func (t ArgType) String() string {
	switch t {
	case ArgInt:
		return "int"
	case ArgUint:
		return "uint"
	case ArgFixed:
		return "fixed"
	case ArgString:
		return "string"
	case ArgObject:
		return "object"
	case ArgNewID:
		return "new_id"
	case ArgArray:
		return "array"
	case ArgFD:
		return "fd"
	default:
		return "unknown"
	}
}

func argTypeFromXML(s string) (ArgType, bool) {
	switch s {
	case "int":
		return ArgInt, true
	case "uint":
		return ArgUint, true
	case "fixed":
		return ArgFixed, true
	case "string":
		return ArgString, true
	case "object":
		return ArgObject, true
	case "new_id":
		return ArgNewID, true
	case "array":
		return ArgArray, true
	case "fd":
		return ArgFD, true
	default:
		return 0, false
	}
}

// Arg is one typed argument of a Request, Event, or the synthetic args the
// reader injects ahead of an interface-less new_id.
type Arg struct {
	Name      string
	Type      ArgType
	Interface string // set for object/new_id args naming a target interface
	Enum      string // set for int/uint args tagged with an enum, possibly "iface.enum_name"
	AllowNull bool
	Summary   string
}

// MessageKind distinguishes an ordinary request/event from a destructor.
type MessageKind int

const (
	MessageNormal MessageKind = iota
	MessageDestructor
)

// Message is a Request or an Event: a name, optional kind and minimum
// version, and ordered args.
type Message struct {
	Name    string
	Kind    MessageKind
	Since   int // 0 means unspecified; the interface's version 1 applies
	Summary string
	Args    []Arg
}

// EnumEntry is one named value of an Enum.
type EnumEntry struct {
	Name    string
	Value   uint32
	Hex     bool // rendering hint: the source spelled the value in hex
	Since   int
	Summary string
}

// Enum is a named, optionally bitfield, set of u32 entries.
type Enum struct {
	Name     string
	BitField bool
	Since    int
	Entries  []EnumEntry
}

// Interface is a named, versioned collection of requests, events, and
// enums.
type Interface struct {
	Name     string
	Version  int
	Requests []Message
	Events   []Message
	Enums    []Enum
}

// Protocol is the root of one parsed XML schema file.
type Protocol struct {
	Name       string
	Copyright  string
	Interfaces []Interface
}

// ParseError carries the byte offset of the XML token being processed when
// parsing failed, matching §4.1's requirement that schema errors carry the
// offending node's position. encoding/xml exposes only a single running
// InputOffset, not a begin/end range, so a point offset is reported rather
// than a true range.
type ParseError struct {
	Msg    string
	Offset int64
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("schema: %s (byte offset %d)", e.Msg, e.Offset)
}

func parseErrorAt(dec *xml.Decoder, format string, args ...any) error {
	return &ParseError{Msg: fmt.Sprintf(format, args...), Offset: dec.InputOffset()}
}

// Read parses one XML schema document into a Protocol.
func Read(r io.Reader) (*Protocol, error) {
	dec := xml.NewDecoder(r)
	var proto *Protocol

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &ParseError{Msg: err.Error(), Offset: dec.InputOffset()}
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local != "protocol" {
				return nil, parseErrorAt(dec, "unexpected root element <%s>, want <protocol>", t.Name.Local)
			}
			if proto != nil {
				return nil, parseErrorAt(dec, "document contains more than one <protocol> element")
			}
			p, err := parseProtocol(dec, t)
			if err != nil {
				return nil, err
			}
			proto = p
		case xml.CharData:
			if len(bytes.TrimSpace(t)) > 0 {
				return nil, parseErrorAt(dec, "unexpected text outside <protocol>: %q", string(t))
			}
		case xml.Comment:
			// skipped
		}
	}
	if proto == nil {
		return nil, errors.New("schema: document contains no <protocol> element")
	}
	return proto, nil
}

// attrSet validates el's attributes against required/optional allow-lists,
// rejecting unknown and duplicate attributes, and returns the resolved
// name->value map.
func attrSet(dec *xml.Decoder, el xml.StartElement, required, optional []string) (map[string]string, error) {
	allowed := make(map[string]bool, len(required)+len(optional))
	for _, a := range required {
		allowed[a] = true
	}
	for _, a := range optional {
		allowed[a] = true
	}

	seen := make(map[string]string, len(el.Attr))
	for _, attr := range el.Attr {
		name := attr.Name.Local
		if !allowed[name] {
			return nil, parseErrorAt(dec, "unknown attribute %q on <%s>", name, el.Name.Local)
		}
		if _, dup := seen[name]; dup {
			return nil, parseErrorAt(dec, "duplicate attribute %q on <%s>", name, el.Name.Local)
		}
		seen[name] = attr.Value
	}
	for _, name := range required {
		if _, ok := seen[name]; !ok {
			return nil, parseErrorAt(dec, "missing required attribute %q on <%s>", name, el.Name.Local)
		}
	}
	return seen, nil
}

func parseBoolAttr(val string) bool { return val == "true" || val == "1" }

func parseIntAttr(val string) int {
	n, _ := strconv.Atoi(val)
	return n
}

// readChildren walks start's content up to its matching end tag, passing
// each child element to handle. Comments are skipped and any
// non-whitespace text is rejected, since for these elements (other than
// description and copyright) textual content has no meaning.
func readChildren(dec *xml.Decoder, start xml.StartElement, handle func(xml.StartElement) error) error {
	for {
		tok, err := dec.Token()
		if err != nil {
			return &ParseError{Msg: err.Error(), Offset: dec.InputOffset()}
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if err := handle(t); err != nil {
				return err
			}
		case xml.EndElement:
			if t.Name == start.Name {
				return nil
			}
		case xml.CharData:
			if len(bytes.TrimSpace(t)) > 0 {
				return parseErrorAt(dec, "unexpected text in <%s>: %q", start.Name.Local, string(t))
			}
		case xml.Comment:
			// skipped
		}
	}
}

// readText consumes and concatenates CharData until start's matching
// EndElement, for the two elements (description, copyright) whose text
// content is meaningful.
func readText(dec *xml.Decoder, start xml.StartElement) (string, error) {
	var buf bytes.Buffer
	for {
		tok, err := dec.Token()
		if err != nil {
			return "", &ParseError{Msg: err.Error(), Offset: dec.InputOffset()}
		}
		switch t := tok.(type) {
		case xml.CharData:
			buf.Write(t)
		case xml.EndElement:
			if t.Name == start.Name {
				return buf.String(), nil
			}
		case xml.StartElement:
			return "", parseErrorAt(dec, "unexpected element <%s> inside <%s>", t.Name.Local, start.Name.Local)
		case xml.Comment:
			// skipped
		}
	}
}

func parseProtocol(dec *xml.Decoder, start xml.StartElement) (*Protocol, error) {
	attrs, err := attrSet(dec, start, []string{"name"}, nil)
	if err != nil {
		return nil, err
	}
	proto := &Protocol{Name: attrs["name"]}

	err = readChildren(dec, start, func(child xml.StartElement) error {
		switch child.Name.Local {
		case "copyright":
			if _, err := attrSet(dec, child, nil, nil); err != nil {
				return err
			}
			text, err := readText(dec, child)
			if err != nil {
				return err
			}
			proto.Copyright = text
			return nil
		case "description":
			if _, err := attrSet(dec, child, nil, []string{"summary"}); err != nil {
				return err
			}
			if _, err := readText(dec, child); err != nil {
				return err
			}
			return nil
		case "interface":
			iface, err := parseInterface(dec, child)
			if err != nil {
				return err
			}
			proto.Interfaces = append(proto.Interfaces, *iface)
			return nil
		default:
			return parseErrorAt(dec, "unexpected element <%s> in <protocol>", child.Name.Local)
		}
	})
	if err != nil {
		return nil, err
	}
	return proto, nil
}

func parseInterface(dec *xml.Decoder, start xml.StartElement) (*Interface, error) {
	attrs, err := attrSet(dec, start, []string{"name", "version"}, nil)
	if err != nil {
		return nil, err
	}
	iface := &Interface{Name: attrs["name"], Version: parseIntAttr(attrs["version"])}
	if iface.Version <= 0 {
		return nil, parseErrorAt(dec, "interface %q has non-positive version", iface.Name)
	}

	requestNames := map[string]bool{}
	eventNames := map[string]bool{}
	enumNames := map[string]bool{}

	err = readChildren(dec, start, func(child xml.StartElement) error {
		switch child.Name.Local {
		case "description":
			if _, err := attrSet(dec, child, nil, []string{"summary"}); err != nil {
				return err
			}
			_, err := readText(dec, child)
			return err
		case "request":
			msg, err := parseMessage(dec, child)
			if err != nil {
				return err
			}
			if requestNames[msg.Name] {
				return parseErrorAt(dec, "duplicate request name %q in interface %q", msg.Name, iface.Name)
			}
			requestNames[msg.Name] = true
			iface.Requests = append(iface.Requests, *msg)
			return nil
		case "event":
			msg, err := parseMessage(dec, child)
			if err != nil {
				return err
			}
			if eventNames[msg.Name] {
				return parseErrorAt(dec, "duplicate event name %q in interface %q", msg.Name, iface.Name)
			}
			eventNames[msg.Name] = true
			iface.Events = append(iface.Events, *msg)
			return nil
		case "enum":
			enum, err := parseEnum(dec, child)
			if err != nil {
				return err
			}
			if enumNames[enum.Name] {
				return parseErrorAt(dec, "duplicate enum name %q in interface %q", enum.Name, iface.Name)
			}
			enumNames[enum.Name] = true
			iface.Enums = append(iface.Enums, *enum)
			return nil
		default:
			return parseErrorAt(dec, "unexpected element <%s> in <interface>", child.Name.Local)
		}
	})
	if err != nil {
		return nil, err
	}
	return iface, nil
}

func parseMessage(dec *xml.Decoder, start xml.StartElement) (*Message, error) {
	attrs, err := attrSet(dec, start, []string{"name"}, []string{"type", "since"})
	if err != nil {
		return nil, err
	}
	msg := &Message{Name: attrs["name"]}
	if attrs["type"] == "destructor" {
		msg.Kind = MessageDestructor
	} else if t, ok := attrs["type"]; ok && t != "" {
		return nil, parseErrorAt(dec, "unknown request/event type %q on %q", t, msg.Name)
	}
	if since, ok := attrs["since"]; ok {
		msg.Since = parseIntAttr(since)
	}

	argNames := map[string]bool{}
	err = readChildren(dec, start, func(child xml.StartElement) error {
		switch child.Name.Local {
		case "description":
			if _, err := attrSet(dec, child, nil, []string{"summary"}); err != nil {
				return err
			}
			text, err := readText(dec, child)
			if err != nil {
				return err
			}
			msg.Summary = text
			return nil
		case "arg":
			args, err := parseArg(dec, child)
			if err != nil {
				return err
			}
			for _, a := range args {
				if argNames[a.Name] {
					return parseErrorAt(dec, "duplicate arg name %q in %q", a.Name, msg.Name)
				}
				argNames[a.Name] = true
				msg.Args = append(msg.Args, a)
			}
			return nil
		default:
			return parseErrorAt(dec, "unexpected element <%s> in request/event %q", child.Name.Local, msg.Name)
		}
	})
	if err != nil {
		return nil, err
	}
	return msg, nil
}

// parseArg returns one or more Args: a bare new_id without an interface
// attribute expands into the synthetic (interface string, version uint,
// id new_id) triple per §4.1, which MUST be preserved by the reader.
func parseArg(dec *xml.Decoder, start xml.StartElement) ([]Arg, error) {
	attrs, err := attrSet(dec, start, []string{"name", "type"},
		[]string{"interface", "enum", "allow-null", "summary"})
	if err != nil {
		return nil, err
	}
	// Consume (and validate) any children; args carry no meaningful
	// sub-elements in the schema but a <description> sometimes appears.
	if err := readChildren(dec, start, func(child xml.StartElement) error {
		if child.Name.Local != "description" {
			return parseErrorAt(dec, "unexpected element <%s> in <arg>", child.Name.Local)
		}
		if _, err := attrSet(dec, child, nil, []string{"summary"}); err != nil {
			return err
		}
		_, err := readText(dec, child)
		return err
	}); err != nil {
		return nil, err
	}

	typ, ok := argTypeFromXML(attrs["type"])
	if !ok {
		return nil, parseErrorAt(dec, "arg %q has unknown type %q", attrs["name"], attrs["type"])
	}

	arg := Arg{
		Name:      attrs["name"],
		Type:      typ,
		Interface: attrs["interface"],
		Enum:      attrs["enum"],
		AllowNull: parseBoolAttr(attrs["allow-null"]),
		Summary:   attrs["summary"],
	}

	if typ == ArgNewID && arg.Interface == "" {
		return []Arg{
			{Name: "interface", Type: ArgString, Summary: "interface name of the new object"},
			{Name: "version", Type: ArgUint, Summary: "interface version of the new object"},
			arg,
		}, nil
	}
	return []Arg{arg}, nil
}

func parseEnum(dec *xml.Decoder, start xml.StartElement) (*Enum, error) {
	attrs, err := attrSet(dec, start, []string{"name"}, []string{"bitfield", "since"})
	if err != nil {
		return nil, err
	}
	enum := &Enum{Name: attrs["name"], BitField: parseBoolAttr(attrs["bitfield"])}
	if since, ok := attrs["since"]; ok {
		enum.Since = parseIntAttr(since)
	}

	entryNames := map[string]bool{}
	err = readChildren(dec, start, func(child xml.StartElement) error {
		switch child.Name.Local {
		case "description":
			if _, err := attrSet(dec, child, nil, []string{"summary"}); err != nil {
				return err
			}
			_, err := readText(dec, child)
			return err
		case "entry":
			entry, err := parseEntry(dec, child)
			if err != nil {
				return err
			}
			if entryNames[entry.Name] {
				return parseErrorAt(dec, "duplicate entry name %q in enum %q", entry.Name, enum.Name)
			}
			entryNames[entry.Name] = true
			enum.Entries = append(enum.Entries, *entry)
			return nil
		default:
			return parseErrorAt(dec, "unexpected element <%s> in <enum>", child.Name.Local)
		}
	})
	if err != nil {
		return nil, err
	}
	return enum, nil
}

func parseEntry(dec *xml.Decoder, start xml.StartElement) (*EnumEntry, error) {
	attrs, err := attrSet(dec, start, []string{"name", "value"}, []string{"summary", "since"})
	if err != nil {
		return nil, err
	}
	if err := readChildren(dec, start, func(child xml.StartElement) error {
		if child.Name.Local != "description" {
			return parseErrorAt(dec, "unexpected element <%s> in <entry>", child.Name.Local)
		}
		if _, err := attrSet(dec, child, nil, []string{"summary"}); err != nil {
			return err
		}
		_, err := readText(dec, child)
		return err
	}); err != nil {
		return nil, err
	}

	raw := attrs["value"]
	v, err := strconv.ParseUint(raw, 0, 32)
	if err != nil {
		return nil, parseErrorAt(dec, "entry %q has invalid value %q: %v", attrs["name"], raw, err)
	}
	entry := &EnumEntry{
		Name:    attrs["name"],
		Value:   uint32(v),
		Hex:     len(raw) > 1 && (raw[1] == 'x' || raw[1] == 'X'),
		Summary: attrs["summary"],
	}
	if since, ok := attrs["since"]; ok {
		entry.Since = parseIntAttr(since)
	}
	return entry, nil
}
