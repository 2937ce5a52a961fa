package xmltext

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/rhythmcache/xml2abx/internal/xmllex"
)

const defaultBufferSize = 32 * 1024

// lookaheadSlack bounds how far past MaxTokenSize the buffer may grow while
// a token is still open, covering literal matches such as "<![CDATA[".
const lookaheadSlack = 16

const maxEmptyReads = 100

var (
	litBOM      = []byte{0xEF, 0xBB, 0xBF}
	litXML      = []byte("xml")
	litPIEnd    = []byte("?>")
	litComStart = []byte("<!--")
	litComEnd   = []byte("-->")
	litDDash    = []byte("--")
	litCDStart  = []byte("<![CDATA[")
	litCDEnd    = []byte("]]>")
	litDoctype  = []byte("<!DOCTYPE")
)

// Decoder streams XML tokens from a reader.
type Decoder struct {
	r          io.Reader
	err        error
	readErr    error
	buf        []byte
	valueBuf   []byte
	attrs      []Attr
	attrSpans  []attrSpan
	stackData  []byte
	stack      []int
	optsRaw    Options
	opts       decoderOptions
	state      xmllex.DocumentState
	baseOffset int64
	pos        int
	line       int
	column     int
	eof        bool
	bomChecked bool
	declSeen   bool
}

type attrSpan struct {
	nameStart  int
	nameEnd    int
	valueStart int
	valueEnd   int
}

type readError struct {
	err error
}

func (e *readError) Error() string { return "read XML input: " + e.err.Error() }

func (e *readError) Unwrap() error { return e.err }

// NewDecoder creates a new XML decoder for the reader.
func NewDecoder(r io.Reader, opts ...Options) *Decoder {
	dec := &Decoder{}
	dec.Reset(r, opts...)
	return dec
}

// Reset prepares the decoder for reading from r with new options.
// Buffers are retained across resets.
func (d *Decoder) Reset(r io.Reader, opts ...Options) {
	if d == nil {
		return
	}
	joined := JoinOptions(opts...)
	d.optsRaw = joined
	d.opts = resolveOptions(joined)

	d.r = r
	d.err = nil
	d.readErr = nil
	d.buf = d.buf[:0]
	d.valueBuf = d.valueBuf[:0]
	d.attrs = d.attrs[:0]
	d.attrSpans = d.attrSpans[:0]
	d.stackData = d.stackData[:0]
	d.stack = d.stack[:0]
	d.state = xmllex.NewDocumentState()
	d.baseOffset = 0
	d.pos = 0
	d.line = 1
	d.column = 1
	d.eof = false
	d.bomChecked = false
	d.declSeen = false

	if r == nil {
		d.err = errNilReader
	}
}

// Options returns the immutable options snapshot.
func (d *Decoder) Options() Options {
	var zero Options
	if d == nil {
		return zero
	}
	return d.optsRaw
}

// ReadToken returns the next token. It returns io.EOF after the last token
// of a well-formed document.
func (d *Decoder) ReadToken() (Token, error) {
	var tok Token
	err := d.ReadTokenInto(&tok)
	return tok, err
}

// ReadTokenInto reads the next token into dst, reusing decoder buffers.
func (d *Decoder) ReadTokenInto(dst *Token) error {
	if d == nil {
		return errNilReader
	}
	if d.err != nil {
		return d.err
	}
	for {
		d.compact()
		if !d.bomChecked {
			if err := d.skipBOM(); err != nil {
				return d.fail(err)
			}
		}
		d.valueBuf = d.valueBuf[:0]
		*dst = Token{
			Offset: d.InputOffset(),
			Line:   d.line,
			Column: d.column,
		}
		emitted, err := d.scanToken(dst)
		if err != nil {
			return d.fail(err)
		}
		if !emitted {
			continue
		}
		if limit := d.opts.maxTokenSize; limit > 0 && d.pos > limit {
			return d.fail(errTokenTooLarge)
		}
		return nil
	}
}

// InputOffset reports the byte offset of the next unread input byte.
func (d *Decoder) InputOffset() int64 {
	if d == nil {
		return 0
	}
	return d.baseOffset + int64(d.pos)
}

// InputPos reports the line and column of the next unread input byte.
// Columns count characters, starting at 1.
func (d *Decoder) InputPos() (int, int) {
	if d == nil {
		return 0, 0
	}
	return d.line, d.column
}

// StackDepth reports the number of open elements.
func (d *Decoder) StackDepth() int {
	if d == nil {
		return 0
	}
	return len(d.stack)
}

// StackPath returns the open elements as a slash-separated path, "/" at top level.
func (d *Decoder) StackPath() string {
	if d == nil || len(d.stack) == 0 {
		return "/"
	}
	var b strings.Builder
	for i := range d.stack {
		b.WriteByte('/')
		b.Write(d.stackName(i))
	}
	return b.String()
}

func (d *Decoder) stackName(i int) []byte {
	end := len(d.stackData)
	if i+1 < len(d.stack) {
		end = d.stack[i+1]
	}
	return d.stackData[d.stack[i]:end]
}

func (d *Decoder) pushStack(name []byte) {
	d.stack = append(d.stack, len(d.stackData))
	d.stackData = append(d.stackData, name...)
}

func (d *Decoder) popStack() {
	last := len(d.stack) - 1
	d.stackData = d.stackData[:d.stack[last]]
	d.stack = d.stack[:last]
}

func (d *Decoder) fail(err error) error {
	if err == nil {
		return nil
	}
	if err == io.EOF {
		d.err = io.EOF
		return io.EOF
	}
	var re *readError
	if errors.As(err, &re) {
		d.err = re
		return re
	}
	d.err = &SyntaxError{
		Offset: d.InputOffset(),
		Line:   d.line,
		Column: d.column,
		Path:   d.StackPath(),
		Err:    err,
	}
	return d.err
}

func (d *Decoder) skipBOM() error {
	d.bomChecked = true
	if err := d.ensure(len(litBOM)); err != nil && err != io.EOF {
		return err
	}
	if bytes.HasPrefix(d.buf[d.pos:], litBOM) {
		d.pos += len(litBOM)
	}
	return nil
}

// compact discards consumed bytes so the next token starts at buf[0].
func (d *Decoder) compact() {
	if d.pos == 0 {
		return
	}
	n := copy(d.buf, d.buf[d.pos:])
	d.buf = d.buf[:n]
	d.baseOffset += int64(d.pos)
	d.pos = 0
}

func (d *Decoder) ensure(n int) error {
	for len(d.buf)-d.pos < n {
		if err := d.readMore(); err != nil {
			return err
		}
	}
	return nil
}

// readMore appends input to buf. It returns io.EOF only when no byte was read.
func (d *Decoder) readMore() error {
	if d.readErr != nil {
		return d.readErr
	}
	if d.eof {
		return io.EOF
	}
	if limit := d.opts.maxTokenSize; limit > 0 && len(d.buf) > limit+lookaheadSlack {
		return errTokenTooLarge
	}
	if len(d.buf) == cap(d.buf) {
		grown := make([]byte, len(d.buf), max(2*cap(d.buf), d.opts.bufferSize))
		copy(grown, d.buf)
		d.buf = grown
	}
	for i := 0; i < maxEmptyReads; i++ {
		n, err := d.r.Read(d.buf[len(d.buf):cap(d.buf)])
		d.buf = d.buf[:len(d.buf)+n]
		if err == io.EOF {
			d.eof = true
			if n > 0 {
				return nil
			}
			return io.EOF
		}
		if err != nil {
			d.readErr = &readError{err: err}
			if n > 0 {
				return nil
			}
			return d.readErr
		}
		if n > 0 {
			return nil
		}
	}
	d.readErr = &readError{err: io.ErrNoProgress}
	return d.readErr
}

func (d *Decoder) advance(n int) {
	for _, b := range d.buf[d.pos : d.pos+n] {
		switch {
		case b == '\n':
			d.line++
			d.column = 1
		case b&0xC0 != 0x80:
			d.column++
		}
	}
	d.pos += n
}

// eofErr maps end of input inside a construct to errUnexpectedEOF.
func eofErr(err error) error {
	if err == io.EOF {
		return errUnexpectedEOF
	}
	return err
}

func (d *Decoder) peekByte() (byte, error) {
	if err := d.ensure(1); err != nil {
		return 0, eofErr(err)
	}
	return d.buf[d.pos], nil
}

func (d *Decoder) expectByte(value byte) error {
	b, err := d.peekByte()
	if err != nil {
		return err
	}
	if b != value {
		return errInvalidToken
	}
	d.advance(1)
	return nil
}

func (d *Decoder) skipWhitespace() bool {
	consumed := false
	for {
		if d.ensure(1) != nil {
			return consumed
		}
		if !isWhitespace(d.buf[d.pos]) {
			return consumed
		}
		d.advance(1)
		consumed = true
	}
}

// matchLiteral reports whether the unread input starts with lit.
func (d *Decoder) matchLiteral(lit []byte) (bool, error) {
	if err := d.ensure(len(lit)); err != nil {
		if err != io.EOF {
			return false, err
		}
		if bytes.HasPrefix(lit, d.buf[d.pos:]) {
			return false, errUnexpectedEOF
		}
		return false, nil
	}
	return bytes.HasPrefix(d.buf[d.pos:], lit), nil
}

// indexFrom returns the buffer index of the first c at or after from.
func (d *Decoder) indexFrom(from int, c byte) (int, error) {
	for {
		if i := bytes.IndexByte(d.buf[from:], c); i >= 0 {
			return from + i, nil
		}
		from = len(d.buf)
		if err := d.readMore(); err != nil {
			return 0, eofErr(err)
		}
	}
}

// indexSeq returns the buffer index of the first seq at or after from.
func (d *Decoder) indexSeq(from int, seq []byte) (int, error) {
	for {
		if i := bytes.Index(d.buf[from:], seq); i >= 0 {
			return from + i, nil
		}
		if next := len(d.buf) - len(seq) + 1; next > from {
			from = next
		}
		if err := d.readMore(); err != nil {
			return 0, eofErr(err)
		}
	}
}

// scanName consumes an XML name and returns its buffer bounds.
func (d *Decoder) scanName() (int, int, error) {
	start := d.pos
	for {
		n, err := nameLen(d.buf[start:])
		if err != nil {
			return 0, 0, err
		}
		end := start + n
		if d.eof || (end < len(d.buf) && utf8.FullRune(d.buf[end:])) {
			if n == 0 {
				if end >= len(d.buf) {
					return 0, 0, errUnexpectedEOF
				}
				return 0, 0, errInvalidName
			}
			d.advance(n)
			return start, end, nil
		}
		if err := d.readMore(); err != nil && err != io.EOF {
			return 0, 0, err
		}
	}
}
