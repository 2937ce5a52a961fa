package xmltext

// Token is one lexical XML token. Byte slices alias decoder buffers and are
// only valid until the next ReadToken or ReadTokenInto call.
type Token struct {
	// Name holds the element name, PI target, or entity reference name.
	// Entity reference names keep a leading '#' for character references.
	Name []byte
	// Attrs holds start element attributes in document order, values expanded.
	Attrs []Attr
	// Text holds character data, CDATA or comment content, PI data, or the
	// directive body following the DOCTYPE keyword.
	Text []byte
	// Decl is set for KindXMLDecl.
	Decl        XMLDecl
	Offset      int64
	Line        int
	Column      int
	Kind        Kind
	SelfClosing bool
}

// Attr is one attribute of a start element.
type Attr struct {
	Name  []byte
	Value []byte
}

// XMLDecl holds the pseudo-attributes of an XML declaration.
// Missing pseudo-attributes are nil.
type XMLDecl struct {
	Version    []byte
	Encoding   []byte
	Standalone []byte
}

// Clone returns a copy of t that does not alias decoder buffers.
func (t Token) Clone() Token {
	out := t
	out.Name = cloneBytes(t.Name)
	out.Text = cloneBytes(t.Text)
	out.Decl = XMLDecl{
		Version:    cloneBytes(t.Decl.Version),
		Encoding:   cloneBytes(t.Decl.Encoding),
		Standalone: cloneBytes(t.Decl.Standalone),
	}
	if t.Attrs != nil {
		out.Attrs = make([]Attr, len(t.Attrs))
		for i, attr := range t.Attrs {
			out.Attrs[i] = Attr{Name: cloneBytes(attr.Name), Value: cloneBytes(attr.Value)}
		}
	}
	return out
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	return append([]byte(nil), b...)
}
