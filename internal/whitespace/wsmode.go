package whitespace

import "unicode"

// Mode selects how whitespace-only character data is handled.
type Mode uint8

const (
	// Preserve keeps whitespace-only text as ignorable whitespace.
	Preserve Mode = iota
	// Collapse drops whitespace-only text and trims the rest.
	Collapse
)

// String returns the mode name.
func (m Mode) String() string {
	switch m {
	case Collapse:
		return "collapse"
	default:
		return "preserve"
	}
}

// FromPreserve converts a preserve flag to a mode.
func FromPreserve(preserve bool) Mode {
	if preserve {
		return Preserve
	}
	return Collapse
}

// Preserving reports whether m keeps whitespace.
func (m Mode) Preserving() bool {
	return m == Preserve
}

// IsBlank reports whether s consists only of Unicode whitespace.
// The empty string is blank.
func IsBlank(s string) bool {
	for _, r := range s {
		if !unicode.IsSpace(r) {
			return false
		}
	}
	return true
}

// IsXMLSpace reports whether b is one of the four XML whitespace bytes.
func IsXMLSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}

// TrimXMLBytes removes leading and trailing XML whitespace. The result aliases data.
func TrimXMLBytes(data []byte) []byte {
	start := 0
	for start < len(data) && IsXMLSpace(data[start]) {
		start++
	}
	end := len(data)
	for end > start && IsXMLSpace(data[end-1]) {
		end--
	}
	return data[start:end]
}
