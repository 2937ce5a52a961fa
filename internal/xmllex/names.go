package xmllex

import "strings"

// HasPrefix reports whether an element or attribute name carries a namespace prefix.
func HasPrefix(name string) bool {
	return strings.IndexByte(name, ':') >= 0
}

// IsNamespaceAttr reports whether an attribute name is a namespace declaration
// or a prefixed attribute.
func IsNamespaceAttr(name string) bool {
	return strings.HasPrefix(name, "xmlns") || HasPrefix(name)
}
