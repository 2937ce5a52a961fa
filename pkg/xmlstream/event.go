package xmlstream

import "strings"

// EventKind identifies the structural kind of an Event.
type EventKind uint8

const (
	EventNone EventKind = iota
	EventStartElement
	EventEndElement
	EventEmptyElement
	EventText
	EventCData
	EventComment
	EventPI
	EventDocType
	EventEntityRef
	EventDecl
)

// String returns a stable name for the kind, suitable for debugging.
func (k EventKind) String() string {
	switch k {
	case EventStartElement:
		return "StartElement"
	case EventEndElement:
		return "EndElement"
	case EventEmptyElement:
		return "EmptyElement"
	case EventText:
		return "Text"
	case EventCData:
		return "CData"
	case EventComment:
		return "Comment"
	case EventPI:
		return "PI"
	case EventDocType:
		return "DocType"
	case EventEntityRef:
		return "EntityRef"
	case EventDecl:
		return "Decl"
	default:
		return "None"
	}
}

// Attr is an attribute with its value expanded.
type Attr struct {
	Name  string
	Value string
}

// Decl holds XML declaration fields. Absent fields are empty.
type Decl struct {
	Version    string
	Encoding   string
	Standalone string
}

// Event is one structural XML event.
//
// Name holds the element name for element events, the target for PI, and
// the reference name for EntityRef. Text holds character data, CDATA and
// comment content, PI data, and the DOCTYPE body. Strings are views into
// reader buffers and are only valid until the next Next call; use Clone to
// retain an event.
type Event struct {
	Name   string
	Text   string
	Attrs  []Attr
	Decl   Decl
	Line   int
	Column int
	Kind   EventKind
}

// Clone returns a copy of e that owns its strings.
func (e Event) Clone() Event {
	out := e
	out.Name = strings.Clone(e.Name)
	out.Text = strings.Clone(e.Text)
	out.Decl = Decl{
		Version:    strings.Clone(e.Decl.Version),
		Encoding:   strings.Clone(e.Decl.Encoding),
		Standalone: strings.Clone(e.Decl.Standalone),
	}
	if e.Attrs != nil {
		out.Attrs = make([]Attr, len(e.Attrs))
		for i, attr := range e.Attrs {
			out.Attrs[i] = Attr{Name: strings.Clone(attr.Name), Value: strings.Clone(attr.Value)}
		}
	}
	return out
}
