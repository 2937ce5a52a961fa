package abx

import (
	"errors"
	"strconv"
	"strings"
)

// InternThreshold is the UTF-8 length below which space-free attribute
// values are interned.
const InternThreshold = 50

// Value is the wire encoding chosen for a textual attribute value.
// Double is set only when Type is TypeDouble.
type Value struct {
	Type   ValueType
	Double float64
}

// InferValue classifies an attribute value. Only unambiguous cases leave the
// string path: the literals "true" and "false", and values containing an
// exponent marker that parse as a double. Everything else is a string,
// interned when short and free of spaces.
func InferValue(s string) Value {
	switch s {
	case "true":
		return Value{Type: TypeBooleanTrue}
	case "false":
		return Value{Type: TypeBooleanFalse}
	}
	if strings.ContainsAny(s, "eE") {
		if f, ok := parseDouble(s); ok {
			return Value{Type: TypeDouble, Double: f}
		}
	}
	if len(s) < InternThreshold && strings.IndexByte(s, ' ') < 0 {
		return Value{Type: TypeStringInterned}
	}
	return Value{Type: TypeString}
}

// parseDouble accepts decimal floating-point text, including "inf" and "nan"
// spellings. Go-specific literal forms (hex mantissas, digit separators) are
// rejected. Overflow yields an infinity rather than a failure.
func parseDouble(s string) (float64, bool) {
	if strings.IndexByte(s, '_') >= 0 {
		return 0, false
	}
	unsigned := strings.TrimLeft(s, "+-")
	if len(s)-len(unsigned) > 1 {
		return 0, false
	}
	if len(unsigned) > 1 && unsigned[0] == '0' && (unsigned[1] == 'x' || unsigned[1] == 'X') {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err == nil {
		return f, true
	}
	var numErr *strconv.NumError
	if errors.As(err, &numErr) && errors.Is(numErr.Err, strconv.ErrRange) {
		return f, true
	}
	return 0, false
}
