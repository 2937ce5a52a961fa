package abx

import (
	"encoding/base64"
	"encoding/hex"
	"io"
	"strings"

	abxerrors "github.com/rhythmcache/xml2abx/errors"
)

// Stats counts the tokens a Serializer has written.
// Events is indexed by event code, Attributes by unshifted value type code.
type Stats struct {
	Events     [16]uint64
	Attributes [16]uint64
	MaxDepth   int
}

// Serializer emits ABX tokens, one method per document event.
type Serializer struct {
	out   *Writer
	tags  []string
	stats Stats
}

// NewSerializer writes the magic header to w and returns a Serializer for it.
func NewSerializer(w io.Writer) (*Serializer, error) {
	s := &Serializer{
		out:  NewWriter(w),
		tags: make([]string, 0, 8),
	}
	if err := s.out.WriteBytes(Magic[:]); err != nil {
		return nil, err
	}
	return s, nil
}

// StartDocument writes the start-document token.
func (s *Serializer) StartDocument() error {
	return s.writeNull(EventStartDocument)
}

// EndDocument writes the end-document token and flushes the output.
func (s *Serializer) EndDocument() error {
	if err := s.writeNull(EventEndDocument); err != nil {
		return err
	}
	return s.out.Flush()
}

// StartTag writes a start tag and records name as open.
func (s *Serializer) StartTag(name string) error {
	s.tags = append(s.tags, strings.Clone(name))
	if len(s.tags) > s.stats.MaxDepth {
		s.stats.MaxDepth = len(s.tags)
	}
	if err := s.control(EventStartTag, TypeStringInterned); err != nil {
		return err
	}
	return s.out.WriteInternedUTF(name)
}

// EndTag writes an end tag and closes the innermost open tag.
// name is written as given; matching it against the open tag is up to the caller.
func (s *Serializer) EndTag(name string) error {
	if len(s.tags) == 0 {
		return abxerrors.Newf(abxerrors.ErrUnbalancedTags, "end tag %q without open tag", name)
	}
	s.tags = s.tags[:len(s.tags)-1]
	if err := s.control(EventEndTag, TypeStringInterned); err != nil {
		return err
	}
	return s.out.WriteInternedUTF(name)
}

// Depth reports the number of open tags.
func (s *Serializer) Depth() int {
	return len(s.tags)
}

// Attribute writes a plain string attribute.
func (s *Serializer) Attribute(name, value string) error {
	if err := s.attrHeader(name, TypeString); err != nil {
		return err
	}
	return s.out.WriteUTF(value)
}

// AttributeInterned writes a string attribute whose value goes through the pool.
func (s *Serializer) AttributeInterned(name, value string) error {
	if err := s.attrHeader(name, TypeStringInterned); err != nil {
		return err
	}
	return s.out.WriteInternedUTF(value)
}

// AttributeBytesHex writes raw bytes tagged for hex presentation.
func (s *Serializer) AttributeBytesHex(name string, value []byte) error {
	return s.attrBlob(name, TypeBytesHex, value)
}

// AttributeBytesBase64 writes raw bytes tagged for base64 presentation.
func (s *Serializer) AttributeBytesBase64(name string, value []byte) error {
	return s.attrBlob(name, TypeBytesBase64, value)
}

// AttributeBytesHexString decodes hex text and writes it as AttributeBytesHex.
func (s *Serializer) AttributeBytesHexString(name, text string) error {
	data, err := hex.DecodeString(text)
	if err != nil {
		return abxerrors.Wrap(abxerrors.ErrInvalidHex, "decode hex attribute "+name, err)
	}
	return s.AttributeBytesHex(name, data)
}

// AttributeBytesBase64String decodes standard base64 text and writes it as
// AttributeBytesBase64.
func (s *Serializer) AttributeBytesBase64String(name, text string) error {
	data, err := base64.StdEncoding.DecodeString(text)
	if err != nil {
		return abxerrors.Wrap(abxerrors.ErrInvalidBase64, "decode base64 attribute "+name, err)
	}
	return s.AttributeBytesBase64(name, data)
}

// AttributeInt writes a 32-bit integer attribute.
func (s *Serializer) AttributeInt(name string, value int32) error {
	if err := s.attrHeader(name, TypeInt); err != nil {
		return err
	}
	return s.out.WriteInt(value)
}

// AttributeIntHex writes a 32-bit integer attribute tagged for hex presentation.
func (s *Serializer) AttributeIntHex(name string, value int32) error {
	if err := s.attrHeader(name, TypeIntHex); err != nil {
		return err
	}
	return s.out.WriteInt(value)
}

// AttributeLong writes a 64-bit integer attribute.
func (s *Serializer) AttributeLong(name string, value int64) error {
	if err := s.attrHeader(name, TypeLong); err != nil {
		return err
	}
	return s.out.WriteLong(value)
}

// AttributeLongHex writes a 64-bit integer attribute tagged for hex presentation.
func (s *Serializer) AttributeLongHex(name string, value int64) error {
	if err := s.attrHeader(name, TypeLongHex); err != nil {
		return err
	}
	return s.out.WriteLong(value)
}

// AttributeFloat writes a single precision attribute.
func (s *Serializer) AttributeFloat(name string, value float32) error {
	if err := s.attrHeader(name, TypeFloat); err != nil {
		return err
	}
	return s.out.WriteFloat(value)
}

// AttributeDouble writes a double precision attribute.
func (s *Serializer) AttributeDouble(name string, value float64) error {
	if err := s.attrHeader(name, TypeDouble); err != nil {
		return err
	}
	return s.out.WriteDouble(value)
}

// AttributeBoolean writes a boolean attribute. The value lives entirely in
// the control byte; no payload follows the name.
func (s *Serializer) AttributeBoolean(name string, value bool) error {
	typ := TypeBooleanFalse
	if value {
		typ = TypeBooleanTrue
	}
	return s.attrHeader(name, typ)
}

// AttributeValue writes raw using the encoding chosen in v, usually the
// result of InferValue(raw).
func (s *Serializer) AttributeValue(name, raw string, v Value) error {
	switch v.Type {
	case TypeBooleanTrue:
		return s.AttributeBoolean(name, true)
	case TypeBooleanFalse:
		return s.AttributeBoolean(name, false)
	case TypeDouble:
		return s.AttributeDouble(name, v.Double)
	case TypeStringInterned:
		return s.AttributeInterned(name, raw)
	default:
		return s.Attribute(name, raw)
	}
}

// Text writes character data.
func (s *Serializer) Text(text string) error {
	return s.writeText(EventText, text)
}

// CDSect writes the content of a CDATA section.
func (s *Serializer) CDSect(text string) error {
	return s.writeText(EventCDSect, text)
}

// Comment writes comment content.
func (s *Serializer) Comment(text string) error {
	return s.writeText(EventComment, text)
}

// ProcessingInstruction writes target and data joined by one space, or the
// target alone when data is empty. The split is not recoverable on read.
func (s *Serializer) ProcessingInstruction(target, data string) error {
	if data == "" {
		return s.writeText(EventProcessingInstruction, target)
	}
	return s.writeText(EventProcessingInstruction, target+" "+data)
}

// DocDecl writes document type declaration content.
func (s *Serializer) DocDecl(text string) error {
	return s.writeText(EventDocDecl, text)
}

// IgnorableWhitespace writes whitespace-only character data.
func (s *Serializer) IgnorableWhitespace(text string) error {
	return s.writeText(EventIgnorableWhitespace, text)
}

// EntityRef writes an entity reference name.
func (s *Serializer) EntityRef(name string) error {
	return s.writeText(EventEntityRef, name)
}

// Stats returns the counts of tokens written so far.
func (s *Serializer) Stats() Stats {
	return s.stats
}

// Written reports the number of bytes written, including the header.
func (s *Serializer) Written() int64 {
	return s.out.Written()
}

// PoolLen reports the number of interned strings.
func (s *Serializer) PoolLen() int {
	return s.out.Pool().Len()
}

func (s *Serializer) control(e Event, t ValueType) error {
	if err := s.out.WriteByte(Control(e, t)); err != nil {
		return err
	}
	s.stats.Events[e]++
	if e == EventAttribute {
		s.stats.Attributes[t>>4]++
	}
	return nil
}

func (s *Serializer) writeNull(e Event) error {
	return s.control(e, TypeNull)
}

func (s *Serializer) writeText(e Event, text string) error {
	if err := checkUTF(text); err != nil {
		return err
	}
	if err := s.control(e, TypeString); err != nil {
		return err
	}
	return s.out.WriteUTF(text)
}

func (s *Serializer) attrHeader(name string, t ValueType) error {
	if err := s.control(EventAttribute, t); err != nil {
		return err
	}
	return s.out.WriteInternedUTF(name)
}

func (s *Serializer) attrBlob(name string, t ValueType, value []byte) error {
	if len(value) > MaxUnsignedShort {
		return abxerrors.TooLong(abxerrors.ErrBinaryTooLong, len(value), MaxUnsignedShort)
	}
	if err := s.attrHeader(name, t); err != nil {
		return err
	}
	return s.out.WriteBlob(value)
}
