package xml2abx

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	abxerrors "github.com/rhythmcache/xml2abx/errors"
	"github.com/rhythmcache/xml2abx/internal/whitespace"
	"github.com/rhythmcache/xml2abx/internal/xmllex"
	"github.com/rhythmcache/xml2abx/pkg/abx"
	"github.com/rhythmcache/xml2abx/pkg/xmlstream"
	"github.com/rhythmcache/xml2abx/pkg/xmltext"
)

// EventSource yields XML events in document order and io.EOF after the last.
// *xmlstream.Reader implements it.
type EventSource interface {
	Next() (xmlstream.Event, error)
}

// Converter turns XML documents into ABX streams.
// A Converter holds no per-document state and may be used concurrently;
// the configured Warner must then tolerate concurrent calls.
type Converter struct {
	opts resolvedOptions
}

// NewConverter validates opts and returns a Converter using them.
func NewConverter(opts Options) (*Converter, error) {
	resolved, err := opts.withDefaults()
	if err != nil {
		return nil, fmt.Errorf("converter options: %w", err)
	}
	return &Converter{opts: resolved}, nil
}

// Convert reads one XML document from r and writes its ABX encoding to w.
func (c *Converter) Convert(r io.Reader, w io.Writer) (Stats, error) {
	return c.ConvertContext(context.Background(), r, w)
}

// ConvertContext is Convert with cancellation checked between events.
// On failure the returned Stats describe what was written before the error.
func (c *Converter) ConvertContext(ctx context.Context, r io.Reader, w io.Writer) (Stats, error) {
	reader, err := xmlstream.NewReader(r, c.opts.xmlOpts...)
	if err != nil {
		return Stats{}, abxerrors.Wrap(abxerrors.ErrIO, "read input", err)
	}
	return c.ConvertEvents(ctx, reader, w)
}

// ConvertEvents writes the ABX encoding of the events produced by src.
func (c *Converter) ConvertEvents(ctx context.Context, src EventSource, w io.Writer) (Stats, error) {
	if src == nil {
		return Stats{}, abxerrors.New(abxerrors.ErrIO, "nil event source")
	}
	if w == nil {
		return Stats{}, abxerrors.New(abxerrors.ErrIO, "nil output writer")
	}
	s, err := abx.NewSerializer(w)
	if err != nil {
		return Stats{}, err
	}
	conv := &conversion{s: s, opts: &c.opts}
	err = conv.run(ctx, src)
	stats := newStats(s, conv.warnings)
	if err != nil {
		c.opts.logger.Debug("conversion failed", append(stats.fields(), zap.Error(err))...)
		return stats, err
	}
	c.opts.logger.Debug("converted document", stats.fields()...)
	return stats, nil
}

type conversion struct {
	s        *abx.Serializer
	opts     *resolvedOptions
	warnings int
}

func (c *conversion) run(ctx context.Context, src EventSource) error {
	if err := c.s.StartDocument(); err != nil {
		return err
	}
	for {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("convert: %w", err)
		}
		ev, err := src.Next()
		if errors.Is(err, io.EOF) {
			return c.s.EndDocument()
		}
		if err != nil {
			return readFailure(err)
		}
		if err := c.event(&ev); err != nil {
			return withPosition(err, ev.Line, ev.Column)
		}
	}
}

func (c *conversion) event(ev *xmlstream.Event) error {
	switch ev.Kind {
	case xmlstream.EventStartElement:
		return c.startElement(ev)
	case xmlstream.EventEmptyElement:
		if err := c.startElement(ev); err != nil {
			return err
		}
		return c.s.EndTag(ev.Name)
	case xmlstream.EventEndElement:
		return c.s.EndTag(ev.Name)
	case xmlstream.EventText:
		return c.text(ev.Text)
	case xmlstream.EventCData:
		return c.s.CDSect(ev.Text)
	case xmlstream.EventComment:
		return c.s.Comment(ev.Text)
	case xmlstream.EventPI:
		c.checkPIEncoding(ev.Name, ev.Text)
		return c.s.ProcessingInstruction(ev.Name, ev.Text)
	case xmlstream.EventDocType:
		return c.s.DocDecl(ev.Text)
	case xmlstream.EventEntityRef:
		return c.s.EntityRef(ev.Name)
	case xmlstream.EventDecl:
		if enc := ev.Decl.Encoding; enc != "" && !strings.Contains(strings.ToLower(enc), "utf-8") {
			c.warn(featureEncoding, "Found encoding: "+enc)
		}
		return nil
	default:
		return nil
	}
}

func (c *conversion) startElement(ev *xmlstream.Event) error {
	if xmllex.HasPrefix(ev.Name) {
		c.warn(featureNamespaces, "Found prefixed element: "+ev.Name)
	}
	if err := c.s.StartTag(ev.Name); err != nil {
		return err
	}
	for _, attr := range ev.Attrs {
		if xmllex.IsNamespaceAttr(attr.Name) {
			c.warn(featureNamespaces, "Found namespace declaration or prefixed attribute: "+attr.Name)
		}
		if err := c.s.AttributeValue(attr.Name, attr.Value, abx.InferValue(attr.Value)); err != nil {
			return err
		}
	}
	return nil
}

func (c *conversion) text(text string) error {
	if !whitespace.IsBlank(text) {
		return c.s.Text(text)
	}
	if c.opts.wsMode.Preserving() {
		return c.s.IgnorableWhitespace(text)
	}
	return nil
}

// checkPIEncoding catches declarations the tokenizer passed through as PIs.
func (c *conversion) checkPIEncoding(target, data string) {
	if target != "xml" || !strings.Contains(data, "encoding") {
		return
	}
	if !strings.Contains(strings.ToLower(data), "utf-8") {
		c.warn(featureEncoding, "Found in declaration: "+data)
	}
}

func (c *conversion) warn(feature, detail string) {
	c.warnings++
	c.opts.warner.Warn(feature, detail)
}

func readFailure(err error) error {
	var syntax *xmltext.SyntaxError
	if !errors.As(err, &syntax) {
		return abxerrors.Wrap(abxerrors.ErrIO, "read input", err)
	}
	code, msg := abxerrors.ErrMalformedInput, "malformed XML"
	if errors.Is(err, xmltext.ErrInvalidUTF8) {
		code, msg = abxerrors.ErrInvalidEncoding, "invalid UTF-8 input"
	}
	out := abxerrors.Wrap(code, msg, err)
	out.Line = syntax.Line
	out.Column = syntax.Column
	return out
}

func withPosition(err error, line, column int) error {
	if e, ok := abxerrors.AsError(err); ok && e.Line == 0 {
		e.Line = line
		e.Column = column
	}
	return err
}
