package xmltext

import (
	"bytes"
	"io"

	"github.com/rhythmcache/xml2abx/internal/whitespace"
)

func (d *Decoder) scanToken(dst *Token) (bool, error) {
	b, err := d.peekByte()
	if err != nil {
		if err == errUnexpectedEOF {
			return false, d.finish()
		}
		return false, err
	}
	switch b {
	case '<':
		return d.scanMarkup(dst)
	case '&':
		if !d.opts.resolveEntities {
			return true, d.scanEntityRef(dst)
		}
	}
	return d.scanCharData(dst)
}

// finish validates document-level constraints at end of input.
func (d *Decoder) finish() error {
	if len(d.stack) > 0 {
		return errUnexpectedEOF
	}
	if d.opts.strict && !d.state.RootSeen() {
		return errMissingRoot
	}
	return io.EOF
}

func (d *Decoder) scanMarkup(dst *Token) (bool, error) {
	if err := d.ensure(2); err != nil {
		return false, eofErr(err)
	}
	switch d.buf[d.pos+1] {
	case '/':
		return true, d.scanEndTag(dst)
	case '?':
		return true, d.scanPI(dst)
	case '!':
		return true, d.scanBang(dst)
	default:
		return true, d.scanStartTag(dst)
	}
}

func (d *Decoder) scanStartTag(dst *Token) error {
	if !d.state.StartElementAllowed() {
		return errMultipleRoots
	}
	if limit := d.opts.maxDepth; limit > 0 && len(d.stack) >= limit {
		return errDepthLimit
	}
	d.advance(1)
	nameStart, nameEnd, err := d.scanName()
	if err != nil {
		return err
	}
	d.attrSpans = d.attrSpans[:0]
	for {
		ws := d.skipWhitespace()
		b, err := d.peekByte()
		if err != nil {
			return err
		}
		if b == '>' {
			d.advance(1)
			break
		}
		if b == '/' {
			d.advance(1)
			if err := d.expectByte('>'); err != nil {
				return err
			}
			dst.SelfClosing = true
			break
		}
		if !ws {
			return errInvalidToken
		}
		if err := d.scanAttr(); err != nil {
			return err
		}
	}

	name := d.buf[nameStart:nameEnd]
	attrs := d.attrs[:0]
	for _, sp := range d.attrSpans {
		attrs = append(attrs, Attr{
			Name:  d.buf[sp.nameStart:sp.nameEnd],
			Value: d.valueBuf[sp.valueStart:sp.valueEnd],
		})
	}
	d.attrs = attrs
	dst.Kind = KindStartElement
	dst.Name = name
	dst.Attrs = attrs

	d.state.OnStartElement()
	if dst.SelfClosing {
		if len(d.stack) == 0 {
			d.state.OnEndElement(true)
		}
		return nil
	}
	d.pushStack(name)
	return nil
}

func (d *Decoder) scanAttr() error {
	if limit := d.opts.maxAttrs; limit > 0 && len(d.attrSpans) >= limit {
		return errAttrLimit
	}
	nameStart, nameEnd, err := d.scanName()
	if err != nil {
		return err
	}
	for _, prev := range d.attrSpans {
		if bytes.Equal(d.buf[prev.nameStart:prev.nameEnd], d.buf[nameStart:nameEnd]) {
			return errDuplicateAttr
		}
	}
	d.skipWhitespace()
	if err := d.expectByte('='); err != nil {
		return err
	}
	d.skipWhitespace()
	quote, err := d.peekByte()
	if err != nil {
		return err
	}
	if quote != '"' && quote != '\'' {
		return errInvalidToken
	}
	d.advance(1)
	valueStart := d.pos
	end, err := d.indexFrom(valueStart, quote)
	if err != nil {
		return err
	}
	raw := d.buf[valueStart:end]
	if bytes.IndexByte(raw, '<') >= 0 {
		return errInvalidToken
	}
	if err := validateXMLChars(raw); err != nil {
		return err
	}
	start := len(d.valueBuf)
	if bytes.IndexByte(raw, '&') >= 0 {
		d.valueBuf, err = unescapeInto(d.valueBuf, raw, unknownEntityKeep, d.opts.maxTokenSize)
		if err != nil {
			return err
		}
	} else {
		d.valueBuf = append(d.valueBuf, raw...)
	}
	d.attrSpans = append(d.attrSpans, attrSpan{
		nameStart:  nameStart,
		nameEnd:    nameEnd,
		valueStart: start,
		valueEnd:   len(d.valueBuf),
	})
	d.advance(end - valueStart + 1)
	return nil
}

func (d *Decoder) scanEndTag(dst *Token) error {
	d.advance(2)
	nameStart, nameEnd, err := d.scanName()
	if err != nil {
		return err
	}
	d.skipWhitespace()
	if err := d.expectByte('>'); err != nil {
		return err
	}
	name := d.buf[nameStart:nameEnd]
	if len(d.stack) == 0 || !bytes.Equal(d.stackName(len(d.stack)-1), name) {
		return errMismatchedEndTag
	}
	d.popStack()
	d.state.OnEndElement(len(d.stack) == 0)
	dst.Kind = KindEndElement
	dst.Name = name
	return nil
}

func (d *Decoder) scanPI(dst *Token) error {
	d.advance(2)
	targetStart, targetEnd, err := d.scanName()
	if err != nil {
		if err == errInvalidName {
			return errInvalidPI
		}
		return err
	}
	ws := d.skipWhitespace()
	end, err := d.indexSeq(d.pos, litPIEnd)
	if err != nil {
		return err
	}
	if !ws && end != d.pos {
		return errInvalidPI
	}
	data := d.buf[d.pos:end]
	if err := validateXMLChars(data); err != nil {
		return err
	}
	d.advance(end - d.pos + len(litPIEnd))

	target := d.buf[targetStart:targetEnd]
	if bytes.Equal(target, litXML) {
		handled, err := d.xmlDecl(dst, data)
		if handled || err != nil {
			return err
		}
	} else if d.opts.strict && bytes.EqualFold(target, litXML) {
		return errInvalidPI
	}
	if len(d.stack) == 0 {
		d.state.OnOutsideMarkup()
	}
	dst.Kind = KindPI
	dst.Name = target
	dst.Text = data
	return nil
}

// xmlDecl turns an "xml" PI into a declaration token when it is the first
// construct of the document. Out of place declarations are errors in strict
// mode and plain PIs otherwise.
func (d *Decoder) xmlDecl(dst *Token, data []byte) (bool, error) {
	if d.declSeen {
		if d.opts.strict {
			return false, errDuplicateXMLDecl
		}
		return false, nil
	}
	if !d.state.AtDocumentStart() {
		if d.opts.strict {
			return false, errMisplacedXMLDecl
		}
		return false, nil
	}
	decl, err := parseXMLDecl(data, d.opts.strict)
	if err != nil {
		return false, err
	}
	d.declSeen = true
	d.state.OnOutsideMarkup()
	dst.Kind = KindXMLDecl
	dst.Name = litXML
	dst.Text = whitespace.TrimXMLBytes(data)
	dst.Decl = decl
	return true, nil
}

func (d *Decoder) scanBang(dst *Token) error {
	if ok, err := d.matchLiteral(litComStart); err != nil || ok {
		if err != nil {
			return err
		}
		return d.scanComment(dst)
	}
	if ok, err := d.matchLiteral(litCDStart); err != nil || ok {
		if err != nil {
			return err
		}
		return d.scanCDATA(dst)
	}
	if ok, err := d.matchLiteral(litDoctype); err != nil || ok {
		if err != nil {
			return err
		}
		return d.scanDoctype(dst)
	}
	return errInvalidToken
}

func (d *Decoder) scanComment(dst *Token) error {
	d.advance(len(litComStart))
	end, err := d.indexSeq(d.pos, litComEnd)
	if err != nil {
		return err
	}
	text := d.buf[d.pos:end]
	if d.opts.strict && (bytes.Contains(text, litDDash) || bytes.HasSuffix(text, []byte{'-'})) {
		return errInvalidComment
	}
	if err := validateXMLChars(text); err != nil {
		return err
	}
	d.advance(end - d.pos + len(litComEnd))
	if len(d.stack) == 0 {
		d.state.OnOutsideMarkup()
	}
	dst.Kind = KindComment
	dst.Text = text
	return nil
}

func (d *Decoder) scanCDATA(dst *Token) error {
	if len(d.stack) == 0 {
		return errContentOutsideRoot
	}
	d.advance(len(litCDStart))
	end, err := d.indexSeq(d.pos, litCDEnd)
	if err != nil {
		return err
	}
	text := d.buf[d.pos:end]
	if err := validateXMLChars(text); err != nil {
		return err
	}
	d.advance(end - d.pos + len(litCDEnd))
	dst.Kind = KindCDATA
	dst.Text = text
	return nil
}

func (d *Decoder) scanDoctype(dst *Token) error {
	if !d.state.DoctypeAllowed() {
		if d.state.DoctypeSeen() {
			return errDuplicateDirective
		}
		return errMisplacedDirective
	}
	d.advance(len(litDoctype))
	b, err := d.peekByte()
	if err != nil {
		return err
	}
	if !isWhitespace(b) {
		return errInvalidToken
	}
	end, err := d.doctypeEnd()
	if err != nil {
		return err
	}
	body := d.buf[d.pos:end]
	if err := validateXMLChars(body); err != nil {
		return err
	}
	d.advance(end - d.pos + 1)
	d.state.OnDoctype()
	dst.Kind = KindDirective
	dst.Text = whitespace.TrimXMLBytes(body)
	return nil
}

// doctypeEnd finds the '>' closing a DOCTYPE declaration, skipping quoted
// literals and the bracketed internal subset.
func (d *Decoder) doctypeEnd() (int, error) {
	depth := 0
	var quote byte
	for i := d.pos; ; i++ {
		for i >= len(d.buf) {
			if err := d.readMore(); err != nil {
				return 0, eofErr(err)
			}
		}
		c := d.buf[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'':
			quote = c
		case c == '[':
			depth++
		case c == ']':
			if depth > 0 {
				depth--
			}
		case c == '>' && depth == 0:
			return i, nil
		}
	}
}

func (d *Decoder) scanEntityRef(dst *Token) error {
	if len(d.stack) == 0 {
		return errContentOutsideRoot
	}
	i := d.pos + 1
	for {
		for i >= len(d.buf) {
			if err := d.readMore(); err != nil {
				if err == io.EOF {
					return errInvalidEntity
				}
				return err
			}
		}
		c := d.buf[i]
		if c == ';' {
			break
		}
		if c == '<' || c == '&' || isWhitespace(c) {
			return errInvalidEntity
		}
		i++
	}
	consumed, _, _, _, err := parseEntityRef(d.buf[d.pos:i+1], 0)
	if err != nil {
		return err
	}
	name := d.buf[d.pos+1 : i]
	d.advance(consumed)
	dst.Kind = KindEntityRef
	dst.Name = name
	return nil
}

func (d *Decoder) scanCharData(dst *Token) (bool, error) {
	start := d.pos
	stop := "<"
	if !d.opts.resolveEntities {
		stop = "<&"
	}
	i := start
	for {
		if j := bytes.IndexAny(d.buf[i:], stop); j >= 0 {
			i += j
			break
		}
		i = len(d.buf)
		if err := d.readMore(); err != nil {
			if err == io.EOF {
				break
			}
			return false, err
		}
	}

	raw := d.buf[start:i]
	if err := validateXMLChars(raw); err != nil {
		return false, err
	}
	text := raw
	if d.opts.resolveEntities && bytes.IndexByte(raw, '&') >= 0 {
		var err error
		d.valueBuf, err = unescapeInto(d.valueBuf[:0], raw, unknownEntityReject, d.opts.maxTokenSize)
		if err != nil {
			return false, err
		}
		text = d.valueBuf
	}
	if len(d.stack) == 0 && !d.state.ValidateOutsideCharData(raw) {
		return false, errContentOutsideRoot
	}
	d.advance(i - start)

	if d.opts.trimText {
		text = whitespace.TrimXMLBytes(text)
		if len(text) == 0 {
			return false, nil
		}
	}
	dst.Kind = KindCharData
	dst.Text = text
	return true, nil
}

// parseXMLDecl parses the pseudo-attributes of an XML declaration body.
// Strict mode enforces the version, encoding, standalone order and values.
func parseXMLDecl(data []byte, strict bool) (XMLDecl, error) {
	var decl XMLDecl
	order := 0
	for {
		data = trimLeftWhitespace(data)
		if len(data) == 0 {
			break
		}
		n, err := nameLen(data)
		if err != nil || n == 0 {
			return decl, errInvalidXMLDecl
		}
		name := data[:n]
		data = trimLeftWhitespace(data[n:])
		if len(data) == 0 || data[0] != '=' {
			return decl, errInvalidXMLDecl
		}
		data = trimLeftWhitespace(data[1:])
		if len(data) == 0 || (data[0] != '"' && data[0] != '\'') {
			return decl, errInvalidXMLDecl
		}
		end := bytes.IndexByte(data[1:], data[0])
		if end < 0 {
			return decl, errInvalidXMLDecl
		}
		value := data[1 : end+1]
		data = data[end+2:]
		if len(data) > 0 && !isWhitespace(data[0]) {
			return decl, errInvalidXMLDecl
		}

		var slot int
		switch string(name) {
		case "version":
			slot = 1
			decl.Version = value
		case "encoding":
			slot = 2
			decl.Encoding = value
		case "standalone":
			slot = 3
			decl.Standalone = value
		default:
			if strict {
				return decl, errInvalidXMLDecl
			}
			continue
		}
		if strict && slot <= order {
			return decl, errInvalidXMLDecl
		}
		order = slot
	}
	if strict {
		if !validVersion(decl.Version) {
			return decl, errInvalidXMLDecl
		}
		if decl.Encoding != nil && !validEncodingName(decl.Encoding) {
			return decl, errInvalidXMLDecl
		}
		if decl.Standalone != nil && string(decl.Standalone) != "yes" && string(decl.Standalone) != "no" {
			return decl, errInvalidXMLDecl
		}
	}
	return decl, nil
}

func validVersion(v []byte) bool {
	if len(v) < 3 || v[0] != '1' || v[1] != '.' {
		return false
	}
	for _, b := range v[2:] {
		if b < '0' || b > '9' {
			return false
		}
	}
	return true
}

func validEncodingName(v []byte) bool {
	if len(v) == 0 {
		return false
	}
	for i, b := range v {
		alpha := (b >= 'A' && b <= 'Z') || (b >= 'a' && b <= 'z')
		if i == 0 {
			if !alpha {
				return false
			}
			continue
		}
		if !alpha && (b < '0' || b > '9') && b != '.' && b != '_' && b != '-' {
			return false
		}
	}
	return true
}

func trimLeftWhitespace(data []byte) []byte {
	for len(data) > 0 && isWhitespace(data[0]) {
		data = data[1:]
	}
	return data
}
