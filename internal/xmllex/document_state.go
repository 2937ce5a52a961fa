package xmllex

import (
	"unicode/utf8"

	"github.com/rhythmcache/xml2abx/internal/whitespace"
)

// DocumentState tracks document-boundary lexical state shared by XML token loops.
type DocumentState struct {
	allowBOM    bool
	markupSeen  bool
	doctypeSeen bool
	rootSeen    bool
	rootClosed  bool
}

// NewDocumentState returns an initialized document-boundary state.
func NewDocumentState() DocumentState {
	return DocumentState{allowBOM: true}
}

// RootSeen reports whether a root start element has been seen.
func (s *DocumentState) RootSeen() bool {
	return s != nil && s.rootSeen
}

// RootClosed reports whether the root element has been closed.
func (s *DocumentState) RootClosed() bool {
	return s != nil && s.rootClosed
}

// InProlog reports whether no root element has started yet.
func (s *DocumentState) InProlog() bool {
	return s == nil || !s.rootSeen
}

// AtDocumentStart reports whether no token other than a leading BOM has been seen.
func (s *DocumentState) AtDocumentStart() bool {
	return s == nil || !s.markupSeen
}

// DoctypeSeen reports whether a document type declaration has been seen.
func (s *DocumentState) DoctypeSeen() bool {
	return s != nil && s.doctypeSeen
}

// StartElementAllowed reports whether a start element may appear at this point.
func (s *DocumentState) StartElementAllowed() bool {
	return s == nil || !s.rootClosed
}

// DoctypeAllowed reports whether a document type declaration may appear at this point.
func (s *DocumentState) DoctypeAllowed() bool {
	return s == nil || (!s.rootSeen && !s.doctypeSeen)
}

// OnStartElement advances state for a start-element token.
func (s *DocumentState) OnStartElement() {
	if s == nil {
		return
	}
	s.rootSeen = true
	s.markupSeen = true
	s.allowBOM = false
}

// OnEndElement advances state for an end-element token.
// closeRoot should be true only when this token closes the document root element.
func (s *DocumentState) OnEndElement(closeRoot bool) {
	if s == nil {
		return
	}
	if closeRoot {
		s.rootClosed = true
	}
	s.allowBOM = false
}

// OnDoctype advances state for a document type declaration.
func (s *DocumentState) OnDoctype() {
	if s == nil {
		return
	}
	s.doctypeSeen = true
	s.OnOutsideMarkup()
}

// ValidateOutsideCharData reports whether character data outside root is ignorable.
func (s *DocumentState) ValidateOutsideCharData(data []byte) bool {
	if s == nil {
		return IsIgnorableOutsideRoot(data, true)
	}
	ok := IsIgnorableOutsideRoot(data, s.allowBOM)
	if ok {
		s.allowBOM = false
		s.markupSeen = true
	}
	return ok
}

// OnOutsideMarkup advances state for comments/PI/directives outside root.
func (s *DocumentState) OnOutsideMarkup() {
	if s == nil {
		return
	}
	s.markupSeen = true
	s.allowBOM = false
}

const bom = '\uFEFF'

// IsIgnorableOutsideRoot reports whether data holds only XML whitespace,
// optionally preceded by a byte order mark when allowBOM is set.
func IsIgnorableOutsideRoot(data []byte, allowBOM bool) bool {
	if allowBOM {
		if r, size := utf8.DecodeRune(data); r == bom {
			data = data[size:]
		}
	}
	for _, b := range data {
		if !whitespace.IsXMLSpace(b) {
			return false
		}
	}
	return true
}
