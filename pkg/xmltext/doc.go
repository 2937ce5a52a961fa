// Package xmltext tokenizes XML 1.0 documents.
//
// A Decoder reads from an io.Reader and returns one Token per call to
// ReadToken or ReadTokenInto. Token byte slices alias internal buffers and
// stay valid only until the next read; callers that keep data must copy it
// or use Token.Clone.
//
// The decoder checks well-formedness as it goes: balanced and matching end
// tags, a single root element, unique attribute names, valid names and
// characters, and UTF-8 input. Failures are reported as *SyntaxError with
// the line and column of the failure. A leading UTF-8 byte order mark is
// skipped.
//
// Attribute values have predefined entity and character references expanded;
// other named references are kept verbatim. In character data, references
// are either returned as separate KindEntityRef tokens (the default) or
// expanded when ResolveEntities is set, in which case only predefined
// entities and character references are accepted.
package xmltext
