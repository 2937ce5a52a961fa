// Package abxtest decodes ABX streams into token records for test assertions.
package abxtest

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"

	"github.com/rhythmcache/xml2abx/pkg/abx"
)

// Token is one decoded ABX token. Name is set for tags and attributes,
// Text for string payloads, Bytes for blobs. NameLiteral and TextLiteral
// report whether an interned string appeared literally rather than by index.
type Token struct {
	Event       abx.Event
	Type        abx.ValueType
	Name        string
	Text        string
	Bytes       []byte
	Int         int64
	Float       float64
	NameLiteral bool
	TextLiteral bool
}

// Scan decodes data, which must start with the ABX magic.
func Scan(data []byte) ([]Token, error) {
	if len(data) < len(abx.Magic) || !bytes.Equal(data[:len(abx.Magic)], abx.Magic[:]) {
		return nil, fmt.Errorf("missing ABX magic")
	}
	s := scanner{data: data, pos: len(abx.Magic)}
	var out []Token
	for s.pos < len(s.data) {
		tok, err := s.next()
		if err != nil {
			return out, fmt.Errorf("offset %d: %w", s.pos, err)
		}
		out = append(out, tok)
	}
	return out, nil
}

// MustScan is Scan for fixtures known to be well formed.
func MustScan(data []byte) []Token {
	toks, err := Scan(data)
	if err != nil {
		panic(err)
	}
	return toks
}

// Events returns the event sequence of toks.
func Events(toks []Token) []abx.Event {
	out := make([]abx.Event, len(toks))
	for i, tok := range toks {
		out[i] = tok.Event
	}
	return out
}

// Count returns how many tokens have event e.
func Count(toks []Token, e abx.Event) int {
	n := 0
	for _, tok := range toks {
		if tok.Event == e {
			n++
		}
	}
	return n
}

// Literals returns how many times s was written literally into the pool.
func Literals(toks []Token, s string) int {
	n := 0
	for _, tok := range toks {
		if tok.NameLiteral && tok.Name == s {
			n++
		}
		if tok.TextLiteral && tok.Text == s {
			n++
		}
	}
	return n
}

type scanner struct {
	data []byte
	pos  int
	pool []string
}

func (s *scanner) next() (Token, error) {
	b, err := s.readByte()
	if err != nil {
		return Token{}, err
	}
	e, t := abx.SplitControl(b)
	tok := Token{Event: e, Type: t}
	switch e {
	case abx.EventStartDocument, abx.EventEndDocument:
		if t != abx.TypeNull {
			return tok, fmt.Errorf("%s with type %s", e, t)
		}
	case abx.EventStartTag, abx.EventEndTag:
		tok.Name, tok.NameLiteral, err = s.interned()
	case abx.EventAttribute:
		tok.Name, tok.NameLiteral, err = s.interned()
		if err != nil {
			return tok, err
		}
		err = s.value(&tok)
	default:
		switch t {
		case abx.TypeNull:
		case abx.TypeString:
			tok.Text, err = s.utf()
		default:
			err = fmt.Errorf("%s with type %s", e, t)
		}
	}
	return tok, err
}

func (s *scanner) value(tok *Token) error {
	var err error
	switch tok.Type {
	case abx.TypeNull, abx.TypeBooleanTrue, abx.TypeBooleanFalse:
	case abx.TypeString:
		tok.Text, err = s.utf()
	case abx.TypeStringInterned:
		tok.Text, tok.TextLiteral, err = s.interned()
	case abx.TypeBytesHex, abx.TypeBytesBase64:
		var n uint16
		if n, err = s.short(); err == nil {
			tok.Bytes, err = s.take(int(n))
		}
	case abx.TypeInt, abx.TypeIntHex:
		var p []byte
		if p, err = s.take(4); err == nil {
			tok.Int = int64(int32(binary.BigEndian.Uint32(p)))
		}
	case abx.TypeLong, abx.TypeLongHex:
		var p []byte
		if p, err = s.take(8); err == nil {
			tok.Int = int64(binary.BigEndian.Uint64(p))
		}
	case abx.TypeFloat:
		var p []byte
		if p, err = s.take(4); err == nil {
			tok.Float = float64(math.Float32frombits(binary.BigEndian.Uint32(p)))
		}
	case abx.TypeDouble:
		var p []byte
		if p, err = s.take(8); err == nil {
			tok.Float = math.Float64frombits(binary.BigEndian.Uint64(p))
		}
	default:
		err = fmt.Errorf("unknown value type %#x", uint8(tok.Type))
	}
	return err
}

func (s *scanner) interned() (string, bool, error) {
	idx, err := s.short()
	if err != nil {
		return "", false, err
	}
	if idx != 0xFFFF {
		if int(idx) >= len(s.pool) {
			return "", false, fmt.Errorf("pool index %d out of range (%d entries)", idx, len(s.pool))
		}
		return s.pool[idx], false, nil
	}
	str, err := s.utf()
	if err != nil {
		return "", false, err
	}
	s.pool = append(s.pool, str)
	return str, true, nil
}

func (s *scanner) utf() (string, error) {
	n, err := s.short()
	if err != nil {
		return "", err
	}
	p, err := s.take(int(n))
	return string(p), err
}

func (s *scanner) short() (uint16, error) {
	p, err := s.take(2)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(p), nil
}

func (s *scanner) readByte() (byte, error) {
	p, err := s.take(1)
	if err != nil {
		return 0, err
	}
	return p[0], nil
}

func (s *scanner) take(n int) ([]byte, error) {
	if s.pos+n > len(s.data) {
		return nil, fmt.Errorf("truncated: need %d bytes, have %d", n, len(s.data)-s.pos)
	}
	p := s.data[s.pos : s.pos+n]
	s.pos += n
	return p, nil
}
