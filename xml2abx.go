// Package xml2abx converts textual XML documents into Android Binary XML
// (ABX), the compact token stream Android uses for system XML files.
//
// Element and attribute names are interned so each distinct name is written
// once. Attribute values are typed by inspection: "true"/"false" become
// booleans, values with an exponent that parse as floating point become
// doubles, and everything else is written as a string.
//
// ABX has no namespace model. Prefixed names are written verbatim and
// reported through the configured Warner.
package xml2abx

import (
	"fmt"
	"io"
	"os"
	"strings"
)

var defaultConverter = &Converter{opts: mustDefaults()}

func mustDefaults() resolvedOptions {
	opts, err := NewOptions().withDefaults()
	if err != nil {
		panic(err)
	}
	return opts
}

// Convert converts the XML document read from r with default options.
func Convert(r io.Reader, w io.Writer) error {
	_, err := defaultConverter.Convert(r, w)
	return err
}

// ConvertString converts an in-memory XML document with default options.
func ConvertString(xml string, w io.Writer) error {
	return Convert(strings.NewReader(xml), w)
}

// ConvertFile converts the XML file at path with default options.
func ConvertFile(path string, w io.Writer) error {
	_, err := ConvertFileWithOptions(path, w, NewOptions())
	return err
}

// ConvertWithOptions converts the XML document read from r using opts.
func ConvertWithOptions(r io.Reader, w io.Writer, opts Options) (Stats, error) {
	c, err := NewConverter(opts)
	if err != nil {
		return Stats{}, err
	}
	return c.Convert(r, w)
}

// ConvertFileWithOptions converts the XML file at path using opts.
func ConvertFileWithOptions(path string, w io.Writer, opts Options) (stats Stats, err error) {
	f, err := os.Open(path)
	if err != nil {
		return Stats{}, fmt.Errorf("open xml file %s: %w", path, err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close xml file %s: %w", path, closeErr)
		}
	}()

	return ConvertWithOptions(f, w, opts)
}
