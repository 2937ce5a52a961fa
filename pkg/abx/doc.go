// Package abx writes the ABX binary XML token stream.
//
// A stream starts with the 4-byte magic header followed by tokens. Every
// token is one control byte, the event code in the low nibble and the value
// type in the high nibble, followed by a type-specific payload. Scalars are
// big-endian. Strings carry a 2-byte length prefix. Element and attribute
// names are interned: the first occurrence is written as the 0xFFFF sentinel
// followed by the string, later occurrences as the 2-byte pool index.
//
// Serializer exposes one method per document event and owns a Writer, which
// in turn owns the string pool. Both are scoped to a single stream and are
// not safe for concurrent use.
package abx
