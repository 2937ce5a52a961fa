package xmlstream

import (
	"errors"
	"io"

	"github.com/rhythmcache/xml2abx/pkg/xmltext"
)

const readerAttrCapacity = 8

var errNilReader = errors.New("nil XML reader")

// Reader provides a streaming XML event interface.
type Reader struct {
	dec     *xmltext.Decoder
	tok     xmltext.Token
	attrBuf []Attr
}

// NewReader creates a new streaming reader for r.
func NewReader(r io.Reader, opts ...Option) (*Reader, error) {
	if r == nil {
		return nil, errNilReader
	}
	return &Reader{
		dec:     xmltext.NewDecoder(r, buildOptions(opts...)...),
		attrBuf: make([]Attr, 0, readerAttrCapacity),
	}, nil
}

// Reset prepares the reader for a new input stream.
func (r *Reader) Reset(src io.Reader, opts ...Option) error {
	if r == nil {
		return errNilReader
	}
	if src == nil {
		return errNilReader
	}
	options := buildOptions(opts...)
	if r.dec == nil {
		r.dec = xmltext.NewDecoder(src, options...)
	} else {
		r.dec.Reset(src, options...)
	}
	r.tok = xmltext.Token{}
	r.attrBuf = r.attrBuf[:0]
	return nil
}

// Next returns the next XML event, or io.EOF after the last one.
// Tokenizer failures are returned as *xmltext.SyntaxError.
func (r *Reader) Next() (Event, error) {
	if r == nil || r.dec == nil {
		return Event{}, errNilReader
	}
	if err := r.dec.ReadTokenInto(&r.tok); err != nil {
		return Event{}, err
	}
	tok := &r.tok
	ev := Event{
		Name:   unsafeString(tok.Name),
		Text:   unsafeString(tok.Text),
		Line:   tok.Line,
		Column: tok.Column,
	}
	switch tok.Kind {
	case xmltext.KindStartElement:
		ev.Kind = EventStartElement
		if tok.SelfClosing {
			ev.Kind = EventEmptyElement
		}
		ev.Attrs = r.attrs(tok.Attrs)
	case xmltext.KindEndElement:
		ev.Kind = EventEndElement
	case xmltext.KindCharData:
		ev.Kind = EventText
	case xmltext.KindCDATA:
		ev.Kind = EventCData
	case xmltext.KindComment:
		ev.Kind = EventComment
	case xmltext.KindPI:
		ev.Kind = EventPI
	case xmltext.KindDirective:
		ev.Kind = EventDocType
	case xmltext.KindEntityRef:
		ev.Kind = EventEntityRef
	case xmltext.KindXMLDecl:
		ev.Kind = EventDecl
		ev.Decl = Decl{
			Version:    unsafeString(tok.Decl.Version),
			Encoding:   unsafeString(tok.Decl.Encoding),
			Standalone: unsafeString(tok.Decl.Standalone),
		}
	}
	return ev, nil
}

// Depth reports the number of open elements.
func (r *Reader) Depth() int {
	if r == nil || r.dec == nil {
		return 0
	}
	return r.dec.StackDepth()
}

// InputOffset reports the byte offset of the next unread input byte.
func (r *Reader) InputOffset() int64 {
	if r == nil || r.dec == nil {
		return 0
	}
	return r.dec.InputOffset()
}

func (r *Reader) attrs(src []xmltext.Attr) []Attr {
	if len(src) == 0 {
		return nil
	}
	out := r.attrBuf[:0]
	for _, attr := range src {
		out = append(out, Attr{Name: unsafeString(attr.Name), Value: unsafeString(attr.Value)})
	}
	r.attrBuf = out
	return out
}
