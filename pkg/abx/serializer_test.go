package abx_test

import (
	"bytes"
	stderrors "errors"
	"strings"
	"testing"

	abxerrors "github.com/rhythmcache/xml2abx/errors"
	"github.com/rhythmcache/xml2abx/internal/abxtest"
	"github.com/rhythmcache/xml2abx/pkg/abx"
)

func newSerializer(t *testing.T) (*abx.Serializer, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	s, err := abx.NewSerializer(&buf)
	if err != nil {
		t.Fatalf("NewSerializer() error = %v", err)
	}
	return s, &buf
}

func TestSerializerMinimalDocumentBytes(t *testing.T) {
	s, buf := newSerializer(t)
	must(t, s.StartDocument())
	must(t, s.StartTag("a"))
	must(t, s.EndTag("a"))
	must(t, s.EndDocument())

	want := []byte{
		0x41, 0x42, 0x58, 0x00,
		0x10,
		0x32, 0xFF, 0xFF, 0x00, 0x01, 'a',
		0x33, 0x00, 0x00,
		0x11,
	}
	if !bytes.Equal(buf.Bytes(), want) {
		t.Fatalf("bytes = % x, want % x", buf.Bytes(), want)
	}
	if s.Written() != int64(len(want)) {
		t.Fatalf("Written() = %d, want %d", s.Written(), len(want))
	}
}

func TestSerializerAttributeEncodings(t *testing.T) {
	s, buf := newSerializer(t)
	must(t, s.StartDocument())
	must(t, s.StartTag("e"))
	must(t, s.Attribute("s", "plain text"))
	must(t, s.AttributeInterned("i", "v"))
	must(t, s.AttributeBytesHex("h", []byte{0xCA, 0xFE}))
	must(t, s.AttributeBytesBase64("b", []byte("hi")))
	must(t, s.AttributeInt("n", -7))
	must(t, s.AttributeIntHex("nh", 0x7f))
	must(t, s.AttributeLong("l", 1<<40))
	must(t, s.AttributeLongHex("lh", -1))
	must(t, s.AttributeFloat("f", 0.5))
	must(t, s.AttributeDouble("d", 2.25))
	must(t, s.AttributeBoolean("t", true))
	must(t, s.AttributeBoolean("f0", false))
	must(t, s.EndTag("e"))
	must(t, s.EndDocument())

	toks := abxtest.MustScan(buf.Bytes())
	attrs := toks[2:14]
	want := []struct {
		name string
		typ  abx.ValueType
	}{
		{"s", abx.TypeString}, {"i", abx.TypeStringInterned},
		{"h", abx.TypeBytesHex}, {"b", abx.TypeBytesBase64},
		{"n", abx.TypeInt}, {"nh", abx.TypeIntHex},
		{"l", abx.TypeLong}, {"lh", abx.TypeLongHex},
		{"f", abx.TypeFloat}, {"d", abx.TypeDouble},
		{"t", abx.TypeBooleanTrue}, {"f0", abx.TypeBooleanFalse},
	}
	for i, w := range want {
		got := attrs[i]
		if got.Event != abx.EventAttribute || got.Name != w.name || got.Type != w.typ {
			t.Fatalf("attr %d = %s %s %s, want attribute %s %s", i, got.Event, got.Name, got.Type, w.name, w.typ)
		}
	}
	if attrs[0].Text != "plain text" || attrs[1].Text != "v" {
		t.Fatalf("string payloads = %q, %q", attrs[0].Text, attrs[1].Text)
	}
	if !bytes.Equal(attrs[2].Bytes, []byte{0xCA, 0xFE}) || string(attrs[3].Bytes) != "hi" {
		t.Fatalf("blob payloads = % x, %q", attrs[2].Bytes, attrs[3].Bytes)
	}
	if attrs[4].Int != -7 || attrs[5].Int != 0x7f || attrs[6].Int != 1<<40 || attrs[7].Int != -1 {
		t.Fatalf("integer payloads = %d %d %d %d", attrs[4].Int, attrs[5].Int, attrs[6].Int, attrs[7].Int)
	}
	if attrs[8].Float != 0.5 || attrs[9].Float != 2.25 {
		t.Fatalf("float payloads = %v %v", attrs[8].Float, attrs[9].Float)
	}

	stats := s.Stats()
	if stats.Events[abx.EventAttribute] != 12 {
		t.Fatalf("attribute events = %d, want 12", stats.Events[abx.EventAttribute])
	}
	if stats.Attributes[abx.TypeDouble>>4] != 1 {
		t.Fatalf("double attributes = %d, want 1", stats.Attributes[abx.TypeDouble>>4])
	}
}

func TestSerializerBooleanHasNoPayload(t *testing.T) {
	s, buf := newSerializer(t)
	must(t, s.StartTag("e"))
	must(t, s.AttributeBoolean("x", true))
	must(t, s.EndTag("e"))
	must(t, s.EndDocument())
	// magic, start tag (1+2+2+1), attribute (1+2+2+1), end tag (1+2), end document
	want := 4 + 6 + 6 + 3 + 1
	if buf.Len() != want {
		t.Fatalf("len = %d, want %d", buf.Len(), want)
	}
}

func TestSerializerTextEvents(t *testing.T) {
	s, buf := newSerializer(t)
	must(t, s.StartDocument())
	must(t, s.DocDecl("html"))
	must(t, s.ProcessingInstruction("target", "some data"))
	must(t, s.ProcessingInstruction("bare", ""))
	must(t, s.StartTag("r"))
	must(t, s.Text("hi"))
	must(t, s.CDSect("<raw>"))
	must(t, s.Comment(" note "))
	must(t, s.IgnorableWhitespace("\n  "))
	must(t, s.EntityRef("nbsp"))
	must(t, s.EndTag("r"))
	must(t, s.EndDocument())

	toks := abxtest.MustScan(buf.Bytes())
	want := []struct {
		event abx.Event
		text  string
	}{
		{abx.EventStartDocument, ""},
		{abx.EventDocDecl, "html"},
		{abx.EventProcessingInstruction, "target some data"},
		{abx.EventProcessingInstruction, "bare"},
		{abx.EventStartTag, ""},
		{abx.EventText, "hi"},
		{abx.EventCDSect, "<raw>"},
		{abx.EventComment, " note "},
		{abx.EventIgnorableWhitespace, "\n  "},
		{abx.EventEntityRef, "nbsp"},
		{abx.EventEndTag, ""},
		{abx.EventEndDocument, ""},
	}
	if len(toks) != len(want) {
		t.Fatalf("tokens = %d, want %d", len(toks), len(want))
	}
	for i, w := range want {
		if toks[i].Event != w.event || toks[i].Text != w.text {
			t.Fatalf("token %d = %s %q, want %s %q", i, toks[i].Event, toks[i].Text, w.event, w.text)
		}
		if w.text != "" && toks[i].Type != abx.TypeString {
			t.Fatalf("token %d type = %s, want %s", i, toks[i].Type, abx.TypeString)
		}
	}
}

func TestSerializerInternsNamesOnce(t *testing.T) {
	s, buf := newSerializer(t)
	must(t, s.StartDocument())
	must(t, s.StartTag("list"))
	for i := 0; i < 3; i++ {
		must(t, s.StartTag("item"))
		must(t, s.AttributeInterned("kind", "item"))
		must(t, s.EndTag("item"))
	}
	must(t, s.EndTag("list"))
	must(t, s.EndDocument())

	toks := abxtest.MustScan(buf.Bytes())
	if n := abxtest.Literals(toks, "item"); n != 1 {
		t.Fatalf("literal occurrences of item = %d, want 1", n)
	}
	if n := abxtest.Count(toks, abx.EventStartTag); n != 4 {
		t.Fatalf("start tags = %d, want 4", n)
	}
	if n := abxtest.Count(toks, abx.EventEndTag); n != 4 {
		t.Fatalf("end tags = %d, want 4", n)
	}
	if s.PoolLen() != 3 {
		t.Fatalf("PoolLen() = %d, want 3", s.PoolLen())
	}
	if s.Stats().MaxDepth != 2 {
		t.Fatalf("MaxDepth = %d, want 2", s.Stats().MaxDepth)
	}
}

func TestSerializerEndTagWithoutStart(t *testing.T) {
	s, _ := newSerializer(t)
	err := s.EndTag("x")
	if !stderrors.Is(err, abxerrors.ErrUnbalancedTags) {
		t.Fatalf("EndTag() error = %v, want %s", err, abxerrors.ErrUnbalancedTags)
	}
	if s.Depth() != 0 {
		t.Fatalf("Depth() = %d, want 0", s.Depth())
	}
}

func TestSerializerTextTooLong(t *testing.T) {
	s, buf := newSerializer(t)
	must(t, s.StartTag("r"))
	must(t, s.Text(strings.Repeat("a", abx.MaxUnsignedShort)))
	err := s.Text(strings.Repeat("a", abx.MaxUnsignedShort+1))
	if !stderrors.Is(err, abxerrors.ErrStringTooLong) {
		t.Fatalf("Text() error = %v, want %s", err, abxerrors.ErrStringTooLong)
	}
	e, ok := abxerrors.AsError(err)
	if !ok || e.Length != abx.MaxUnsignedShort+1 || e.Limit != abx.MaxUnsignedShort {
		t.Fatalf("AsError() = %+v, %v", e, ok)
	}
	must(t, s.EndTag("r"))
	must(t, s.EndDocument())
	// the rejected text left no control byte behind
	toks := abxtest.MustScan(buf.Bytes())
	if n := abxtest.Count(toks, abx.EventText); n != 1 {
		t.Fatalf("text tokens = %d, want 1", n)
	}
}

func TestSerializerTextualBytes(t *testing.T) {
	s, buf := newSerializer(t)
	must(t, s.StartTag("e"))
	must(t, s.AttributeBytesHexString("h", "00ff"))
	must(t, s.AttributeBytesBase64String("b", "aGk="))
	if err := s.AttributeBytesHexString("bad", "0g"); !stderrors.Is(err, abxerrors.ErrInvalidHex) {
		t.Fatalf("hex error = %v, want %s", err, abxerrors.ErrInvalidHex)
	}
	if err := s.AttributeBytesBase64String("bad", "!!"); !stderrors.Is(err, abxerrors.ErrInvalidBase64) {
		t.Fatalf("base64 error = %v, want %s", err, abxerrors.ErrInvalidBase64)
	}
	err := s.AttributeBytesHex("big", make([]byte, abx.MaxUnsignedShort+1))
	if !stderrors.Is(err, abxerrors.ErrBinaryTooLong) {
		t.Fatalf("blob error = %v, want %s", err, abxerrors.ErrBinaryTooLong)
	}
	must(t, s.EndTag("e"))
	must(t, s.EndDocument())

	toks := abxtest.MustScan(buf.Bytes())
	if !bytes.Equal(toks[1].Bytes, []byte{0x00, 0xFF}) || string(toks[2].Bytes) != "hi" {
		t.Fatalf("decoded payloads = % x, %q", toks[1].Bytes, toks[2].Bytes)
	}
}

func TestSerializerAttributeValue(t *testing.T) {
	s, buf := newSerializer(t)
	must(t, s.StartTag("e"))
	for _, raw := range []string{"true", "1e3", "short", "has space"} {
		must(t, s.AttributeValue("a", raw, abx.InferValue(raw)))
	}
	must(t, s.EndTag("e"))
	must(t, s.EndDocument())

	toks := abxtest.MustScan(buf.Bytes())
	want := []abx.ValueType{abx.TypeBooleanTrue, abx.TypeDouble, abx.TypeStringInterned, abx.TypeString}
	for i, typ := range want {
		if toks[1+i].Type != typ {
			t.Fatalf("attr %d type = %s, want %s", i, toks[1+i].Type, typ)
		}
	}
	if toks[2].Float != 1000 {
		t.Fatalf("double = %v, want 1000", toks[2].Float)
	}
}

func must(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
