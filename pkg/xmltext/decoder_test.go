package xmltext

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
	"testing/iotest"
)

// describe renders tokens in a compact form for comparisons.
func describe(tok Token) string {
	switch tok.Kind {
	case KindStartElement:
		var b strings.Builder
		fmt.Fprintf(&b, "<%s", tok.Name)
		for _, attr := range tok.Attrs {
			fmt.Fprintf(&b, " %s=%q", attr.Name, attr.Value)
		}
		if tok.SelfClosing {
			b.WriteString("/")
		}
		b.WriteString(">")
		return b.String()
	case KindEndElement:
		return fmt.Sprintf("</%s>", tok.Name)
	case KindCharData:
		return fmt.Sprintf("text(%q)", tok.Text)
	case KindCDATA:
		return fmt.Sprintf("cdata(%q)", tok.Text)
	case KindComment:
		return fmt.Sprintf("comment(%q)", tok.Text)
	case KindPI:
		return fmt.Sprintf("pi(%s,%q)", tok.Name, tok.Text)
	case KindDirective:
		return fmt.Sprintf("doctype(%q)", tok.Text)
	case KindEntityRef:
		return fmt.Sprintf("ref(%s)", tok.Name)
	case KindXMLDecl:
		return fmt.Sprintf("decl(%s,%s,%s)", tok.Decl.Version, tok.Decl.Encoding, tok.Decl.Standalone)
	default:
		return tok.Kind.String()
	}
}

func readAll(t *testing.T, r io.Reader, opts ...Options) ([]string, error) {
	t.Helper()
	dec := NewDecoder(r, opts...)
	var out []string
	var tok Token
	for {
		err := dec.ReadTokenInto(&tok)
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, describe(tok))
	}
}

func TestDecoderTokens(t *testing.T) {
	tests := []struct {
		name  string
		input string
		opts  []Options
		want  []string
	}{
		{
			name:  "declaration and root",
			input: `<?xml version="1.0" encoding="UTF-8"?><a x="1"/>`,
			want:  []string{`decl(1.0,UTF-8,)`, `<a x="1"/>`},
		},
		{
			name:  "nested with text",
			input: "<a><b>hi</b>\n</a>",
			want:  []string{"<a>", "<b>", `text("hi")`, "</b>", `text("\n")`, "</a>"},
		},
		{
			name:  "whitespace outside root",
			input: "<?xml version=\"1.0\"?>\n<a/>\n",
			want:  []string{"decl(1.0,,)", `text("\n")`, "<a/>", `text("\n")`},
		},
		{
			name:  "comment pi doctype cdata",
			input: `<!DOCTYPE  html [<!ENTITY x "y>">]><!--c--><?go run it?><r><![CDATA[<x>&]]></r>`,
			want: []string{
				`doctype("html [<!ENTITY x \"y>\">]")`,
				`comment("c")`,
				`pi(go,"run it")`,
				"<r>",
				`cdata("<x>&")`,
				"</r>",
			},
		},
		{
			name:  "entity references split out",
			input: `<a>x &amp; y&#60;&custom;</a>`,
			want:  []string{"<a>", `text("x ")`, "ref(amp)", `text(" y")`, "ref(#60)", "ref(custom)", "</a>"},
		},
		{
			name:  "entity references resolved",
			input: `<a>x &amp; y&#x3C;&quot;</a>`,
			opts:  []Options{ResolveEntities(true)},
			want:  []string{"<a>", `text("x & y<\"")`, "</a>"},
		},
		{
			name:  "attribute values expanded",
			input: `<a v="&lt;&#65;&unknown;" w='"q"'/>`,
			want:  []string{`<a v="<A&unknown;" w="\"q\""/>`},
		},
		{
			name:  "trim text",
			input: "<a>\n  <b> x </b>\n</a>",
			opts:  []Options{TrimText(true)},
			want:  []string{"<a>", "<b>", `text("x")`, "</b>", "</a>"},
		},
		{
			name:  "pi without data",
			input: `<a><?target?></a>`,
			want:  []string{"<a>", `pi(target,"")`, "</a>"},
		},
		{
			name:  "late xml pi is a plain pi",
			input: `<a><?xml version="1.0"?></a>`,
			want:  []string{"<a>", `pi(xml,"version=\"1.0\"")`, "</a>"},
		},
		{
			name:  "bom skipped",
			input: "\xEF\xBB\xBF<a/>",
			want:  []string{"<a/>"},
		},
		{
			name:  "empty input",
			input: "",
			want:  nil,
		},
		{
			name:  "unicode names",
			input: "<ünï attr-é='v'></ünï>",
			want:  []string{`<ünï attr-é="v">`, "</ünï>"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := readAll(t, strings.NewReader(tt.input), tt.opts...)
			if err != nil {
				t.Fatalf("read error = %v (tokens %q)", err, got)
			}
			if strings.Join(got, "|") != strings.Join(tt.want, "|") {
				t.Fatalf("tokens = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDecoderStreamsAcrossReads(t *testing.T) {
	input := `<?xml version="1.0"?><root a="1" b='two &amp; three'><!-- note --><item>text &lt; more</item><![CDATA[raw]]><?pi data?></root>`
	want, err := readAll(t, strings.NewReader(input))
	if err != nil {
		t.Fatalf("read error = %v", err)
	}
	got, err := readAll(t, iotest.OneByteReader(strings.NewReader(input)), bufferSize(1))
	if err != nil {
		t.Fatalf("one byte read error = %v", err)
	}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Fatalf("one byte tokens = %q, want %q", got, want)
	}
}

func TestDecoderSyntaxErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		opts  []Options
		want  error
	}{
		{name: "mismatched end", input: "<a></b>", want: errMismatchedEndTag},
		{name: "stray end", input: "</a>", want: errMismatchedEndTag},
		{name: "unclosed", input: "<a><b></b>", want: errUnexpectedEOF},
		{name: "duplicate attr", input: `<a x="1" x="2"/>`, want: errDuplicateAttr},
		{name: "multiple roots", input: "<a/><b/>", want: errMultipleRoots},
		{name: "text outside root", input: "hello<a/>", want: errContentOutsideRoot},
		{name: "cdata outside root", input: "<![CDATA[x]]><a/>", want: errContentOutsideRoot},
		{name: "bad name", input: "<1a/>", want: errInvalidName},
		{name: "attr without space", input: `<a x="1"y="2"/>`, want: errInvalidToken},
		{name: "lt in attr", input: `<a x="<"/>`, want: errInvalidToken},
		{name: "unterminated comment", input: "<a><!-- x", want: errUnexpectedEOF},
		{name: "bad entity", input: "<a>&;</a>", want: errInvalidEntity},
		{name: "bad char ref", input: "<a>&#0;</a>", want: errInvalidCharRef},
		{name: "unknown entity resolved", input: "<a>&nbsp;</a>", opts: []Options{ResolveEntities(true)}, want: errUnknownEntity},
		{name: "control char", input: "<a>\x01</a>", want: errInvalidChar},
		{name: "duplicate doctype", input: "<!DOCTYPE a><!DOCTYPE a><a/>", want: errDuplicateDirective},
		{name: "doctype after root", input: "<a/><!DOCTYPE a>", want: errMisplacedDirective},
		{name: "depth limit", input: "<a><b><c/></b></a>", opts: []Options{MaxDepth(2)}, want: errDepthLimit},
		{name: "attr limit", input: `<a x="1" y="2"/>`, opts: []Options{MaxAttrs(1)}, want: errAttrLimit},
		{name: "token size", input: "<a>" + strings.Repeat("x", 100) + "</a>", opts: []Options{MaxTokenSize(10)}, want: errTokenTooLarge},
		{name: "strict missing root", input: "<!-- only -->", opts: []Options{Strict(true)}, want: errMissingRoot},
		{name: "strict late decl", input: ` <?xml version="1.0"?><a/>`, opts: []Options{Strict(true)}, want: errMisplacedXMLDecl},
		{name: "strict decl order", input: `<?xml encoding="UTF-8" version="1.0"?><a/>`, opts: []Options{Strict(true)}, want: errInvalidXMLDecl},
		{name: "strict comment dashes", input: "<a><!-- a -- b --></a>", opts: []Options{Strict(true)}, want: errInvalidComment},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := readAll(t, strings.NewReader(tt.input), tt.opts...)
			if !errors.Is(err, tt.want) {
				t.Fatalf("error = %v, want %v", err, tt.want)
			}
			var syntax *SyntaxError
			if !errors.As(err, &syntax) {
				t.Fatalf("error %T is not *SyntaxError", err)
			}
		})
	}
}

func TestDecoderInvalidUTF8(t *testing.T) {
	inputs := []string{
		"<a>\xff</a>",
		"<a x='\xc3'/>",
		"<a\xff/>",
	}
	for _, input := range inputs {
		_, err := readAll(t, strings.NewReader(input))
		if !errors.Is(err, ErrInvalidUTF8) {
			t.Fatalf("input %q error = %v, want %v", input, err, ErrInvalidUTF8)
		}
	}
}

func TestDecoderErrorPosition(t *testing.T) {
	_, err := readAll(t, strings.NewReader("<a>\n  <b></c>\n</a>"))
	var syntax *SyntaxError
	if !errors.As(err, &syntax) {
		t.Fatalf("error = %v, want *SyntaxError", err)
	}
	if syntax.Line != 2 {
		t.Fatalf("Line = %d, want 2", syntax.Line)
	}
	if syntax.Path != "/a/b" {
		t.Fatalf("Path = %q, want /a/b", syntax.Path)
	}
	want := fmt.Sprintf("xml syntax error at line 2, column %d: mismatched end element", syntax.Column)
	if syntax.Error() != want {
		t.Fatalf("Error() = %q, want %q", syntax.Error(), want)
	}
}

func TestDecoderTokenPositions(t *testing.T) {
	dec := NewDecoder(strings.NewReader("<a>\n <b/></a>"))
	var tok Token
	for i := 0; i < 3; i++ {
		if err := dec.ReadTokenInto(&tok); err != nil {
			t.Fatalf("ReadTokenInto() error = %v", err)
		}
	}
	if tok.Kind != KindStartElement || tok.Line != 2 || tok.Column != 2 || tok.Offset != 5 {
		t.Fatalf("token = %s at %d:%d offset %d, want <b/> at 2:2 offset 5", tok.Kind, tok.Line, tok.Column, tok.Offset)
	}
	if dec.StackDepth() != 1 || dec.StackPath() != "/a" {
		t.Fatalf("stack = %d %q, want 1 /a", dec.StackDepth(), dec.StackPath())
	}
}

func TestDecoderErrorIsSticky(t *testing.T) {
	dec := NewDecoder(strings.NewReader("<a></b><a>"))
	var tok Token
	_ = dec.ReadTokenInto(&tok)
	first := dec.ReadTokenInto(&tok)
	if first == nil {
		t.Fatalf("expected error")
	}
	if again := dec.ReadTokenInto(&tok); again != first {
		t.Fatalf("second error = %v, want %v", again, first)
	}
}

func TestDecoderReadError(t *testing.T) {
	cause := errors.New("boom")
	_, err := readAll(t, io.MultiReader(strings.NewReader("<a>"), iotest.ErrReader(cause)))
	if !errors.Is(err, cause) {
		t.Fatalf("error = %v, want %v", err, cause)
	}
	var syntax *SyntaxError
	if errors.As(err, &syntax) {
		t.Fatalf("read failure reported as syntax error: %v", err)
	}
}

func TestDecoderNilReader(t *testing.T) {
	dec := NewDecoder(nil)
	if _, err := dec.ReadToken(); !errors.Is(err, errNilReader) {
		t.Fatalf("error = %v, want %v", err, errNilReader)
	}
}

func TestDecoderStrictDeclaration(t *testing.T) {
	got, err := readAll(t, strings.NewReader(`<?xml version="1.0" encoding="ISO-8859-1" standalone="yes"?><a/>`), Strict(true))
	if err != nil {
		t.Fatalf("read error = %v", err)
	}
	if got[0] != "decl(1.0,ISO-8859-1,yes)" {
		t.Fatalf("decl = %s", got[0])
	}
}

func TestDecoderReset(t *testing.T) {
	dec := NewDecoder(strings.NewReader("<a>"))
	if _, err := dec.ReadToken(); err != nil {
		t.Fatalf("ReadToken() error = %v", err)
	}
	dec.Reset(strings.NewReader("<b/>"), TrimText(true))
	tok, err := dec.ReadToken()
	if err != nil {
		t.Fatalf("ReadToken() after Reset error = %v", err)
	}
	if string(tok.Name) != "b" || dec.StackDepth() != 0 {
		t.Fatalf("token %q depth %d after Reset", tok.Name, dec.StackDepth())
	}
}

func TestTokenClone(t *testing.T) {
	dec := NewDecoder(strings.NewReader(`<a x="1"/>`))
	tok, err := dec.ReadToken()
	if err != nil {
		t.Fatalf("ReadToken() error = %v", err)
	}
	clone := tok.Clone()
	tok.Attrs[0].Value[0] = '2'
	if string(clone.Attrs[0].Value) != "1" {
		t.Fatalf("clone aliases decoder buffer")
	}
}
