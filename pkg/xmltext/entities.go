package xmltext

import (
	"bytes"
	"unicode/utf8"
)

var standardEntities = map[string]string{
	"lt":   "<",
	"gt":   ">",
	"amp":  "&",
	"apos": "'",
	"quot": "\"",
}

// unknownEntityPolicy selects what unescapeInto does with named references
// outside the predefined five.
type unknownEntityPolicy uint8

const (
	unknownEntityReject unknownEntityPolicy = iota
	unknownEntityKeep
)

// unescapeInto appends data to dst with entity and character references
// expanded.
func unescapeInto(dst []byte, data []byte, policy unknownEntityPolicy, maxTokenSize int) ([]byte, error) {
	for i := 0; i < len(data); i++ {
		if data[i] != '&' {
			dst = append(dst, data[i])
			continue
		}
		consumed, replacement, r, isNumeric, err := parseEntityRef(data, i)
		if err != nil {
			return nil, err
		}
		switch {
		case isNumeric:
			dst = utf8.AppendRune(dst, r)
		case replacement != "":
			dst = append(dst, replacement...)
		case policy == unknownEntityKeep:
			dst = append(dst, data[i:i+consumed]...)
		default:
			return nil, errUnknownEntity
		}
		if maxTokenSize > 0 && len(dst) > maxTokenSize {
			return nil, errTokenTooLarge
		}
		i += consumed - 1
	}
	return dst, nil
}

// parseEntityRef parses the reference starting at data[start] == '&'.
// It returns the consumed length including '&' and ';'. Predefined named
// references yield their replacement; other well-formed names yield an
// empty replacement and no error.
func parseEntityRef(data []byte, start int) (int, string, rune, bool, error) {
	if start+1 >= len(data) {
		return 0, "", 0, false, errInvalidEntity
	}
	semi := bytes.IndexByte(data[start+1:], ';')
	if semi < 0 {
		return 0, "", 0, false, errInvalidEntity
	}
	semi += start + 1
	if semi == start+1 {
		return 0, "", 0, false, errInvalidEntity
	}
	ref := data[start+1 : semi]
	if ref[0] == '#' {
		r, err := parseNumericEntity(ref)
		if err != nil {
			return 0, "", 0, false, err
		}
		return semi - start + 1, "", r, true, nil
	}
	if n, err := nameLen(ref); err != nil || n != len(ref) {
		return 0, "", 0, false, errInvalidEntity
	}
	return semi - start + 1, standardEntities[string(ref)], 0, false, nil
}

func parseNumericEntity(ref []byte) (rune, error) {
	if len(ref) < 2 {
		return 0, errInvalidCharRef
	}
	base := 10
	start := 1
	if ref[1] == 'x' {
		base = 16
		start = 2
	}
	if start >= len(ref) {
		return 0, errInvalidCharRef
	}
	var value uint64
	for i := start; i < len(ref); i++ {
		b := ref[i]
		var digit byte
		switch {
		case b >= '0' && b <= '9':
			digit = b - '0'
		case base == 16 && b >= 'a' && b <= 'f':
			digit = b - 'a' + 10
		case base == 16 && b >= 'A' && b <= 'F':
			digit = b - 'A' + 10
		default:
			return 0, errInvalidCharRef
		}
		value = value*uint64(base) + uint64(digit)
		if value > utf8.MaxRune {
			return 0, errInvalidCharRef
		}
	}
	r := rune(value)
	if !isValidXMLChar(r) {
		return 0, errInvalidCharRef
	}
	return r, nil
}
